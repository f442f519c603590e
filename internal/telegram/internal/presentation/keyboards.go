package presentation

import (
	"github.com/go-telegram/bot/models"
)

const (
	ChoiceDefault = "default"
	ChoiceRename  = "rename"
)

func ChoiceKbd() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "Use Default", CallbackData: ChoiceDefault},
				{Text: "Rename", CallbackData: ChoiceRename},
			},
		},
	}
}
