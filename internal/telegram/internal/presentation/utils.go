package presentation

import (
	"context"
	"errors"
	"fmt"
	"html"

	"url-upload-bot/internal/file"
	"url-upload-bot/internal/progress"
	"url-upload-bot/internal/telegram/internal/fsm"
)

// TransferErrorMsg turns a failed download or upload into the single line
// shown in place of the status message.
func TransferErrorMsg(err error) string {
	var (
		validationErr *file.ErrValidation
		sizeErr       *file.ErrSizeLimit
		remoteErr     *file.ErrRemote
		transferErr   *file.ErrTransfer
		uploadErr     *file.ErrUpload
	)
	switch {
	case errors.As(err, &validationErr):
		return fmt.Sprintf("❌ Invalid URL: %s", html.EscapeString(validationErr.Reason))
	case errors.As(err, &sizeErr):
		return fmt.Sprintf("❌ File is too large: %s, the limit is %s",
			progress.FormatSize(float64(sizeErr.Size)), progress.FormatSize(float64(sizeErr.Limit)))
	case errors.As(err, &remoteErr):
		return fmt.Sprintf("❌ Download failed: the server responded with status %d", remoteErr.Status)
	case errors.As(err, &uploadErr):
		return fmt.Sprintf("❌ Upload failed: %s. Try again with a smaller file.", html.EscapeString(uploadErr.Err.Error()))
	case errors.Is(err, context.DeadlineExceeded):
		return "❌ Error: the transfer took too long and was cancelled"
	case errors.Is(err, context.Canceled):
		return "❌ Error: the bot is shutting down, please send the URL again later"
	case errors.As(err, &transferErr):
		return fmt.Sprintf("❌ Download failed after %s: %s",
			progress.FormatSize(float64(transferErr.Written)), html.EscapeString(transferErr.Err.Error()))
	case errors.Is(err, fsm.ErrSessionExpired):
		return SessionExpiredMsg()
	default:
		return fmt.Sprintf("❌ Error: %s", html.EscapeString(err.Error()))
	}
}
