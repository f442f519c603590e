package telegram

import (
	"context"
	"log/slog"
	"time"

	"url-upload-bot/internal/file"
	"url-upload-bot/internal/history"
	"url-upload-bot/internal/progress"
	"url-upload-bot/internal/telegram/internal/fsm"
	"url-upload-bot/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const notifyTimeout = 10 * time.Second

// startTransfer runs the session's download and upload in the background.
// The session stays at StepTransferring, which keeps the chat frozen, until
// the run is over.
func (b *Bot) startTransfer(session fsm.Session) {
	b.wg.Add(1)
	b.active.Inc()
	go func() {
		defer b.wg.Done()
		defer b.active.Dec()
		b.runTransfer(session)
	}()
}

func (b *Bot) runTransfer(session fsm.Session) {
	ctx := b.baseCtx
	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}
	// A session at StepTransferring cannot be replaced, so this only ever
	// removes the session the transfer was started from.
	defer b.store.RemoveIf(session)

	statusID := b.sendMessage(ctx, &bot.SendMessageParams{
		ChatID:          session.ChatID,
		Text:            presentation.StartingDownloadMsg(),
		ReplyParameters: replyTo(session.SourceMessageID),
	})

	start := time.Now()
	written, err := b.transfer(ctx, session, statusID)
	if err != nil {
		slog.Error("Transfer failed", "error", err, "chatID", session.ChatID, "url", session.URL)
		b.reportFailure(ctx, session.ChatID, statusID, err)
		return
	}

	b.deleteMessage(ctx, session.ChatID, statusID)
	slog.Info("Transfer completed",
		"chatID", session.ChatID,
		"name", session.Filename(),
		"size", written,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	record := history.Transfer{
		UserID:   session.UserID,
		ChatID:   session.ChatID,
		Filename: session.Filename(),
		Size:     written,
		URL:      session.URL,
	}
	if err := b.history.RecordTransfer(ctx, record); err != nil {
		slog.Error("Failed to record transfer", "error", err, "chatID", session.ChatID)
	}
}

func (b *Bot) transfer(ctx context.Context, session fsm.Session, statusID int) (int64, error) {
	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	defer func() { <-b.sem }()

	name := session.Filename()
	path, err := b.fileService.TempPath(session.ChatID, session.SourceMessageID, name)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := b.fileService.Remove(path); err != nil {
			slog.Error("Failed to remove temp file", "error", err, "path", path)
		}
	}()

	written, err := b.downloader.Download(ctx, session.URL, path, b.statusSink(session.ChatID, statusID, name, progress.Download))
	if err != nil {
		return written, err
	}

	b.editMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    session.ChatID,
		MessageID: statusID,
		Text:      presentation.StartingUploadMsg(),
	})

	doc := file.Document{
		ChatID:           session.ChatID,
		Name:             name,
		Caption:          presentation.DocumentCaption,
		ReplyToMessageID: session.SourceMessageID,
	}
	if err := b.uploader.Upload(ctx, path, doc, b.statusSink(session.ChatID, statusID, name, progress.Upload)); err != nil {
		return written, err
	}
	return written, nil
}

// reportFailure replaces the status message with the error. It outlives a
// cancelled transfer context so the user still hears about a timeout.
func (b *Bot) reportFailure(ctx context.Context, chatID int64, statusID int, err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	text := presentation.TransferErrorMsg(err)
	if statusID == 0 {
		b.sendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text, ParseMode: models.ParseModeHTML})
		return
	}
	b.editMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: statusID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
}
