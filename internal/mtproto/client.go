package mtproto

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"url-upload-bot/internal/file"
	"url-upload-bot/internal/pkg/config"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/styling"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

const (
	partSize    = 524288
	initTimeout = 30 * time.Second
)

// Client uploads documents over MTProto as the bot account, which lifts the
// Bot API's 50 MiB multipart ceiling.
type Client struct {
	api    *tg.Client
	sender *message.Sender
	cancel context.CancelFunc
	done   chan struct{}
	ready  chan struct{}
}

func NewClient(ctx context.Context, cfg *config.MTProtoCfg, token string) (*Client, error) {
	client := &Client{
		done:  make(chan struct{}),
		ready: make(chan struct{}),
	}

	opts := telegram.Options{Logger: newLogger()}
	if cfg.SessionPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.SessionPath), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
		opts.SessionStorage = &session.FileStorage{Path: cfg.SessionPath}
	}

	clientCtx, cancel := context.WithCancel(ctx)
	client.cancel = cancel

	mtprotoClient := telegram.NewClient(cfg.AppID, cfg.AppHash, opts)

	go func() {
		defer close(client.done)

		err := mtprotoClient.Run(clientCtx, func(ctx context.Context) error {
			if _, err := mtprotoClient.Auth().Bot(ctx, token); err != nil {
				return fmt.Errorf("auth failed: %w", err)
			}

			api := tg.NewClient(mtprotoClient)
			client.api = api
			client.sender = message.NewSender(api)

			close(client.ready)

			<-ctx.Done()
			return ctx.Err()
		})

		if err != nil && clientCtx.Err() == nil {
			slog.Error("MTProto client stopped", "error", err)
		}
	}()

	select {
	case <-client.ready:
		slog.Info("Started MTProto client")
		return client, nil
	case <-client.done:
		cancel()
		return nil, fmt.Errorf("mtproto client exited during initialization")
	case <-time.After(initTimeout):
		client.cancel()
		return nil, fmt.Errorf("client initialization timeout")
	case <-ctx.Done():
		client.cancel()
		return nil, ctx.Err()
	}
}

// SendDocument uploads body in parts and posts it to the chat. Part progress
// is forwarded to onProgress as the cumulative byte count.
func (c *Client) SendDocument(ctx context.Context, doc file.Document, body io.Reader, onProgress func(sent int64)) error {
	u := uploader.NewUploader(c.api).WithPartSize(partSize)
	if onProgress != nil {
		u = u.WithProgress(progressFunc(onProgress))
	}

	upload, err := u.Upload(ctx, uploader.NewUpload(doc.Name, body, doc.Size))
	if err != nil {
		return fmt.Errorf("failed to upload parts: %w", err)
	}

	var caption []message.StyledTextOption
	if doc.Caption != "" {
		caption = append(caption, styling.Plain(doc.Caption))
	}
	document := message.UploadedDocument(upload, caption...).Filename(doc.Name)

	req := c.sender.To(InputPeer(doc.ChatID))
	if doc.ReplyToMessageID != 0 {
		_, err = req.Reply(doc.ReplyToMessageID).Media(ctx, document)
	} else {
		_, err = req.Media(ctx, document)
	}
	if err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	c.cancel()
	<-c.done
	return nil
}

type progressFunc func(sent int64)

func (f progressFunc) Chunk(_ context.Context, state uploader.ProgressState) error {
	f(state.Uploaded)
	return nil
}

// Bot API chat ids encode the peer kind: users are positive, basic groups
// negative, channels and supergroups offset by -1e12.
const channelIDOffset = 1_000_000_000_000

func InputPeer(chatID int64) tg.InputPeerClass {
	switch {
	case chatID > 0:
		return &tg.InputPeerUser{UserID: chatID}
	case chatID < -channelIDOffset:
		return &tg.InputPeerChannel{ChannelID: -chatID - channelIDOffset}
	default:
		return &tg.InputPeerChat{ChatID: -chatID}
	}
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger.Named("mtproto")
}
