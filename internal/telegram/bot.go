package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"url-upload-bot/internal/file"
	"url-upload-bot/internal/health"
	"url-upload-bot/internal/history"
	"url-upload-bot/internal/pkg/config"
	"url-upload-bot/internal/progress"
	"url-upload-bot/internal/telegram/internal/fsm"
	"url-upload-bot/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/atomic"
)

const pollTimeout = time.Minute

// Messenger is the part of the Bot API the bot talks to. *bot.Bot
// implements it.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
}

type Uploader interface {
	Upload(ctx context.Context, sourcePath string, doc file.Document, sink progress.Sink) error
}

type Deps struct {
	FileService file.Service
	Downloader  file.Downloader
	Uploader    Uploader
	History     history.Recorder
	Health      *health.Probe
	// MaxFileSize is the effective download limit. Zero lets NewBot derive
	// it from the uploader.
	MaxFileSize int64
}

type Bot struct {
	api    Messenger
	tg     *bot.Bot
	store  fsm.Store
	router *fsm.Router

	fileService file.Service
	downloader  file.Downloader
	uploader    Uploader
	history     history.Recorder
	health      *health.Probe

	cfg         config.TransferCfg
	maxFileSize int64

	baseCtx context.Context
	sem     chan struct{}
	wg      sync.WaitGroup
	active  *atomic.Int32
}

// NewBot connects to the Bot API. Unless deps already carry them, it builds
// the HTTP downloader and an uploader that sends files up to the Bot API
// limit through the bot itself and larger ones through large, when set.
func NewBot(cfg *config.Config, httpClient *http.Client, deps Deps, large file.DocumentSender) (*Bot, error) {
	b := newBot(nil, cfg.Transfer, deps)

	opts := []bot.Option{
		bot.WithMiddlewares(b.router.Middleware),
		bot.WithDefaultHandler(b.handleDefault),
		bot.WithHTTPClient(pollTimeout, httpClient),
		bot.WithErrorsHandler(func(err error) {
			slog.Error("Telegram polling error", "error", err)
		}),
	}
	if cfg.TelegramCfg.ServerURL != "" {
		opts = append(opts, bot.WithServerURL(cfg.TelegramCfg.ServerURL))
	}

	api, err := bot.New(cfg.TelegramCfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot instance: %w", err)
	}
	b.api = api
	b.tg = api

	if b.uploader == nil {
		uploader := file.NewUploader(&botAPISender{api: api}, large, cfg.TelegramCfg.UploadLimit, cfg.Transfer.ProgressInterval)
		b.uploader = uploader
		b.maxFileSize = uploader.MaxSize(cfg.Transfer.MaxFileSize)
	}
	if b.maxFileSize == 0 {
		b.maxFileSize = cfg.Transfer.MaxFileSize
	}
	if b.downloader == nil {
		b.downloader = file.NewHTTPDownloader(httpClient, cfg.Transfer.ChunkSize, b.maxFileSize, cfg.Transfer.ProgressInterval)
	}

	return b, nil
}

func newBot(api Messenger, cfg config.TransferCfg, deps Deps) *Bot {
	if deps.History == nil {
		deps.History = history.Nop{}
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}

	store := fsm.NewMemoryStore()
	b := &Bot{
		api:         api,
		store:       store,
		fileService: deps.FileService,
		downloader:  deps.Downloader,
		uploader:    deps.Uploader,
		history:     deps.History,
		health:      deps.Health,
		cfg:         cfg,
		maxFileSize: deps.MaxFileSize,
		baseCtx:     context.Background(),
		sem:         make(chan struct{}, cfg.MaxConcurrent),
		active:      atomic.NewInt32(0),
	}
	b.router = fsm.NewRouter(store, b.handleConversationError)
	b.setupURLFlow()
	return b
}

func (b *Bot) Start(ctx context.Context) {
	b.baseCtx = ctx

	b.tg.RegisterHandler(bot.HandlerTypeMessageText, "start", bot.MatchTypeCommandStartOnly, b.handleStartCmd)
	b.tg.RegisterHandler(bot.HandlerTypeMessageText, "help", bot.MatchTypeCommandStartOnly, b.handleHelpCmd)
	b.tg.RegisterHandler(bot.HandlerTypeMessageText, "health", bot.MatchTypeCommandStartOnly, b.handleHealthCmd)
	b.tg.RegisterHandler(bot.HandlerTypeMessageText, "history", bot.MatchTypeCommandStartOnly, b.handleHistoryCmd)

	slog.Info("Started Telegram Bot", "maxFileSize", b.maxFileSize, "maxConcurrent", cap(b.sem))
	go b.tg.Start(ctx)
}

// Wait blocks until every running transfer has finished or ctx is done.
func (b *Bot) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%d transfers still running: %w", b.active.Load(), ctx.Err())
	}
}

func (b *Bot) handleDefault(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.sendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   presentation.InvalidURLMsg(),
	})
}

func (b *Bot) handleConversationError(ctx context.Context, update *models.Update, chatID int64, err error) {
	query := update.CallbackQuery

	switch {
	case errors.Is(err, fsm.ErrTransferInProgress):
		if query != nil {
			b.answerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
				CallbackQueryID: query.ID,
				Text:            "Transfer in progress",
			})
			return
		}
		b.sendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      presentation.TransferInProgressMsg(),
			ParseMode: models.ParseModeHTML,
		})

	case errors.Is(err, fsm.ErrSessionExpired):
		if query == nil {
			b.sendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: presentation.SessionExpiredMsg()})
			return
		}
		b.answerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: query.ID})
		if msg := query.Message.Message; msg != nil {
			b.editMessageText(ctx, &bot.EditMessageTextParams{
				ChatID:    chatID,
				MessageID: msg.ID,
				Text:      presentation.SessionExpiredMsg(),
			})
			return
		}
		b.sendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: presentation.SessionExpiredMsg()})

	default:
		slog.Error("Failed to handle update", "error", err, "chatID", chatID)
		if query != nil {
			b.answerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: query.ID})
		}
		b.sendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      presentation.GenericErrorMsg(),
			ParseMode: models.ParseModeHTML,
		})
	}
}

func (b *Bot) sendMessage(ctx context.Context, params *bot.SendMessageParams) int {
	msg, err := b.api.SendMessage(ctx, params)
	if err != nil {
		slog.Error("Error sending message", "error", err, "chatID", params.ChatID)
		return 0
	}
	return msg.ID
}

func (b *Bot) editMessageText(ctx context.Context, params *bot.EditMessageTextParams) {
	if params.MessageID == 0 {
		return
	}
	if _, err := b.api.EditMessageText(ctx, params); err != nil {
		slog.Warn("Error editing message", "error", err, "chatID", params.ChatID, "messageID", params.MessageID)
	}
}

func (b *Bot) deleteMessage(ctx context.Context, chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := b.api.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID}); err != nil {
		slog.Warn("Error deleting message", "error", err, "chatID", chatID, "messageID", messageID)
	}
}

func (b *Bot) answerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) {
	if _, err := b.api.AnswerCallbackQuery(ctx, params); err != nil {
		slog.Warn("Error answering callback query", "error", err)
	}
}
