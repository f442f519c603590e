package telegram

import (
	"context"

	"url-upload-bot/internal/progress"
	"url-upload-bot/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// statusSink renders progress samples into the transfer's status message.
type statusSink struct {
	bot       *Bot
	chatID    int64
	messageID int
	filename  string
	direction progress.Direction
	last      string
}

func (b *Bot) statusSink(chatID int64, messageID int, filename string, direction progress.Direction) progress.Sink {
	if messageID == 0 {
		return progress.Discard
	}
	return &statusSink{
		bot:       b,
		chatID:    chatID,
		messageID: messageID,
		filename:  filename,
		direction: direction,
	}
}

func (s *statusSink) OnProgress(ctx context.Context, sample progress.Sample) {
	text := presentation.ProgressMsg(s.filename, s.direction, sample)
	// Telegram rejects edits that do not change the text.
	if text == s.last {
		return
	}
	s.last = text
	s.bot.editMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    s.chatID,
		MessageID: s.messageID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
}
