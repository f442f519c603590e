package file

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"url-upload-bot/internal/progress"
)

// DocumentSender delivers a file body to a chat as a document. onProgress
// receives the cumulative bytes sent when the transport can observe them.
type DocumentSender interface {
	SendDocument(ctx context.Context, doc Document, body io.Reader, onProgress func(sent int64)) error
}

type Uploader struct {
	botAPI      DocumentSender
	large       DocumentSender
	botAPILimit int64
	interval    time.Duration
}

// NewUploader builds an uploader that sends files up to botAPILimit through
// botAPI and larger files through large. large may be nil.
func NewUploader(botAPI, large DocumentSender, botAPILimit int64, interval time.Duration) *Uploader {
	return &Uploader{
		botAPI:      botAPI,
		large:       large,
		botAPILimit: botAPILimit,
		interval:    interval,
	}
}

// MaxSize is the largest file the uploader can deliver, capped by limit.
func (u *Uploader) MaxSize(limit int64) int64 {
	if u.large == nil && u.botAPILimit < limit {
		return u.botAPILimit
	}
	return limit
}

// Upload sends the file at sourcePath as doc. A failed send is retried
// exactly once with doc.Simplified() on a freshly opened handle.
func (u *Uploader) Upload(ctx context.Context, sourcePath string, doc Document, sink progress.Sink) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return &ErrOpenFile{Err: err}
	}
	doc.Size = info.Size()

	sender, err := u.pick(doc.Size)
	if err != nil {
		return err
	}

	counter := progress.NewCounter(doc.Size)
	stop := progress.Watch(ctx, counter, u.interval, sink)
	defer stop()

	err = u.send(ctx, sender, sourcePath, doc, counter)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return &ErrUpload{Err: err}
	}

	slog.Warn("Upload failed, retrying with simplified document", "error", err, "chatID", doc.ChatID, "name", doc.Name)
	counter.Set(0)
	if err := u.send(ctx, sender, sourcePath, doc.Simplified(), counter); err != nil {
		return &ErrUpload{Err: err}
	}
	return nil
}

func (u *Uploader) pick(size int64) (DocumentSender, error) {
	if size <= u.botAPILimit && u.botAPI != nil {
		return u.botAPI, nil
	}
	if u.large != nil {
		return u.large, nil
	}
	if u.botAPI == nil {
		return nil, ErrNoSender
	}
	return nil, &ErrSizeLimit{Limit: u.botAPILimit, Size: size}
}

func (u *Uploader) send(ctx context.Context, sender DocumentSender, path string, doc Document, counter *progress.Counter) error {
	f, err := os.Open(path)
	if err != nil {
		return &ErrOpenFile{Err: err}
	}
	defer f.Close()

	return sender.SendDocument(ctx, doc, f, counter.Set)
}
