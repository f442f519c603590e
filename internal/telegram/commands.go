package telegram

import (
	"context"
	"log/slog"
	"runtime"

	"url-upload-bot/internal/history"
	"url-upload-bot/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const historyLimit = 10

func (b *Bot) handleStartCmd(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	user := history.User{UserID: msg.Chat.ID, ChatID: msg.Chat.ID}
	if msg.From != nil {
		user.UserID = msg.From.ID
		user.Name = msg.From.FirstName
	}

	b.sendMessage(ctx, &bot.SendMessageParams{
		ChatID:    msg.Chat.ID,
		Text:      presentation.WelcomeMsg(user.Name),
		ParseMode: models.ParseModeHTML,
	})

	if err := b.history.RegisterUser(ctx, user); err != nil {
		slog.Error("Failed to register user", "error", err, "userID", user.UserID)
	}
}

func (b *Bot) handleHelpCmd(ctx context.Context, _ *bot.Bot, update *models.Update) {
	b.sendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      presentation.HelpMsg(b.maxFileSize),
		ParseMode: models.ParseModeHTML,
	})
}

func (b *Bot) handleHealthCmd(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if b.health == nil {
		return
	}
	report := b.health.Check(int(b.active.Load()), runtime.NumGoroutine())
	for _, err := range report.Errors {
		slog.Warn("Health check problem", "error", err)
	}

	b.sendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      presentation.HealthMsg(report, b.store.Len()),
		ParseMode: models.ParseModeHTML,
	})
}

func (b *Bot) handleHistoryCmd(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	userID := msg.Chat.ID
	if msg.From != nil {
		userID = msg.From.ID
	}

	text := ""
	transfers, err := b.history.RecentTransfers(ctx, userID, historyLimit)
	if err != nil {
		slog.Error("Failed to load transfer history", "error", err, "userID", userID)
		text = presentation.HistoryUnavailableMsg()
	} else {
		text = presentation.HistoryMsg(transfers)
	}

	b.sendMessage(ctx, &bot.SendMessageParams{
		ChatID:    msg.Chat.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
}
