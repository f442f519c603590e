package telegram

import (
	"context"
	"io"

	"url-upload-bot/internal/file"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// botAPISender uploads through sendDocument. The library streams the
// multipart form through a pipe while the request runs, so reads from the
// body follow the bytes actually sent.
type botAPISender struct {
	api Messenger
}

func (s *botAPISender) SendDocument(ctx context.Context, doc file.Document, body io.Reader, onProgress func(sent int64)) error {
	if onProgress != nil {
		body = &progressReader{r: body, onProgress: onProgress}
	}

	params := &bot.SendDocumentParams{
		ChatID: doc.ChatID,
		Document: &models.InputFileUpload{
			Filename: doc.Name,
			Data:     body,
		},
		Caption: doc.Caption,
	}
	if doc.ReplyToMessageID != 0 {
		params.ReplyParameters = &models.ReplyParameters{
			MessageID:                doc.ReplyToMessageID,
			AllowSendingWithoutReply: true,
		}
	}

	_, err := s.api.SendDocument(ctx, params)
	return err
}

type progressReader struct {
	r          io.Reader
	sent       int64
	onProgress func(sent int64)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.sent += int64(n)
		p.onProgress(p.sent)
	}
	return n, err
}
