package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"url-upload-bot/internal/file"
	"url-upload-bot/internal/telegram/internal/fsm"
	"url-upload-bot/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (b *Bot) setupURLFlow() {
	fsm.Chain(b.router, "url_upload", fsm.StepIdle).
		OnText(b.handleURL).
		Then(fsm.StepAwaitingChoice).
		OnText(b.handleURL).
		OnCallback(b.handleChoice).
		Then(fsm.StepAwaitingName).
		OnText(b.handleNewName).
		Then(fsm.StepTransferring).
		Freeze()
}

// handleURL starts a session for a valid link. While a choice is pending a
// new link replaces the old session and anything else is ignored.
func (b *Bot) handleURL(cc *fsm.ConversationContext, text string) error {
	raw := strings.TrimSpace(text)
	if _, err := file.ValidateURL(raw); err != nil {
		if cc.Session.Step != fsm.StepIdle {
			return nil
		}
		slog.Debug("Rejected message", "error", err, "chatID", cc.ChatID)
		b.sendMessage(cc.Ctx, &bot.SendMessageParams{
			ChatID:          cc.ChatID,
			Text:            presentation.InvalidURLMsg(),
			ReplyParameters: replyTo(cc.MessageID()),
		})
		return nil
	}

	filename, size := b.probe(cc.Ctx, raw)
	disablePreview := true
	promptID := b.sendMessage(cc.Ctx, &bot.SendMessageParams{
		ChatID:          cc.ChatID,
		Text:            presentation.ChoiceMsg(filename, size),
		ParseMode:       models.ParseModeHTML,
		ReplyMarkup:     presentation.ChoiceKbd(),
		ReplyParameters: replyTo(cc.MessageID()),
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: &disablePreview,
		},
	})
	if promptID == 0 {
		return fmt.Errorf("failed to send filename choice to chat %d", cc.ChatID)
	}

	// The probe can take a while; the chat may have moved on since routing.
	previous, err := cc.Replace(fsm.Session{
		UserID:          cc.UserID,
		URL:             raw,
		DefaultFilename: filename,
		Step:            fsm.StepAwaitingChoice,
		PromptMessageID: promptID,
		SourceMessageID: cc.MessageID(),
		DeclaredSize:    size,
		CreatedAt:       time.Now(),
	})
	if err != nil {
		b.deleteMessage(cc.Ctx, cc.ChatID, promptID)
		if errors.Is(err, fsm.ErrSessionChanged) {
			return nil
		}
		return err
	}
	if previous.Step == fsm.StepAwaitingChoice {
		b.deleteMessage(cc.Ctx, cc.ChatID, previous.PromptMessageID)
	}
	return nil
}

// probe asks the server for a file name and size. Any failure falls back to
// the name in the URL with an unknown size.
func (b *Bot) probe(ctx context.Context, raw string) (string, int64) {
	if b.cfg.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.ProbeTimeout)
		defer cancel()
	}

	result, err := b.downloader.Probe(ctx, raw)
	if err != nil {
		slog.Debug("Probe failed, naming file after url", "error", err, "url", raw)
		return file.ResolveFilename(raw, ""), 0
	}
	return result.Filename, result.Size
}

func (b *Bot) handleChoice(cc *fsm.ConversationContext, data string) error {
	switch data {
	case presentation.ChoiceDefault:
		if err := cc.Transition(fsm.StepTransferring); err != nil {
			return err
		}
		b.answerCallbackQuery(cc.Ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cc.Update.CallbackQuery.ID})
		b.deleteMessage(cc.Ctx, cc.ChatID, cc.Session.PromptMessageID)
		b.startTransfer(cc.Session)

	case presentation.ChoiceRename:
		if err := cc.Transition(fsm.StepAwaitingName); err != nil {
			return err
		}
		b.answerCallbackQuery(cc.Ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cc.Update.CallbackQuery.ID})
		b.deleteMessage(cc.Ctx, cc.ChatID, cc.Session.PromptMessageID)
		b.sendMessage(cc.Ctx, &bot.SendMessageParams{
			ChatID:    cc.ChatID,
			Text:      presentation.AskNewNameMsg(cc.Session.DefaultFilename),
			ParseMode: models.ParseModeHTML,
		})

	default:
		b.answerCallbackQuery(cc.Ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cc.Update.CallbackQuery.ID})
	}
	return nil
}

func (b *Bot) handleNewName(cc *fsm.ConversationContext, text string) error {
	name := file.SanitizeFilename(text)
	if name == "" {
		b.sendMessage(cc.Ctx, &bot.SendMessageParams{
			ChatID:    cc.ChatID,
			Text:      presentation.EmptyNameMsg(),
			ParseMode: models.ParseModeHTML,
		})
		return nil
	}

	if err := cc.Transition(fsm.StepTransferring, func(s *fsm.Session) {
		s.CustomFilename = name
	}); err != nil {
		return err
	}
	b.startTransfer(cc.Session)
	return nil
}

func replyTo(messageID int) *models.ReplyParameters {
	if messageID == 0 {
		return nil
	}
	return &models.ReplyParameters{
		MessageID:                messageID,
		AllowSendingWithoutReply: true,
	}
}
