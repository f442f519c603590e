package presentation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"url-upload-bot/internal/file"
	"url-upload-bot/internal/health"
	"url-upload-bot/internal/history"
	"url-upload-bot/internal/progress"

	"github.com/stretchr/testify/assert"
)

func TestTransferErrorMsg(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"remote status": {
			err:  &file.ErrRemote{Status: 404},
			want: "status 404",
		},
		"size limit": {
			err:  &file.ErrSizeLimit{Limit: 1024, Size: 2048, Declared: true},
			want: "2.00 KB, the limit is 1.00 KB",
		},
		"upload": {
			err:  &file.ErrUpload{Err: errors.New("Bad Request: <oops>")},
			want: "Upload failed: Bad Request: &lt;oops&gt;",
		},
		"transfer": {
			err:  &file.ErrTransfer{Written: 512, Err: errors.New("unexpected EOF")},
			want: "after 512.00 B: unexpected EOF",
		},
		"timeout wins over transfer": {
			err:  &file.ErrTransfer{Written: 1, Err: context.DeadlineExceeded},
			want: "took too long",
		},
		"wrapped validation": {
			err:  fmt.Errorf("handle: %w", &file.ErrValidation{URL: "x", Reason: "unsupported scheme"}),
			want: "Invalid URL: unsupported scheme",
		},
		"other": {
			err:  errors.New("disk full"),
			want: "❌ Error: disk full",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, TransferErrorMsg(tc.err), tc.want)
		})
	}
}

func TestChoiceMsgEscapesName(t *testing.T) {
	msg := ChoiceMsg("a<b>.pdf", 0)
	assert.Contains(t, msg, "a&lt;b&gt;.pdf")
	assert.NotContains(t, msg, "Size")

	assert.Contains(t, ChoiceMsg("a.pdf", 1536), "1.50 KB")
}

func TestChoiceKbd(t *testing.T) {
	kbd := ChoiceKbd()
	if assert.Len(t, kbd.InlineKeyboard, 1) && assert.Len(t, kbd.InlineKeyboard[0], 2) {
		assert.Equal(t, "default", kbd.InlineKeyboard[0][0].CallbackData)
		assert.Equal(t, "rename", kbd.InlineKeyboard[0][1].CallbackData)
	}
}

func TestProgressMsg(t *testing.T) {
	msg := ProgressMsg("r&d.bin", progress.Download, progress.Sample{Done: 50, Total: 100, Elapsed: time.Second})
	assert.Contains(t, msg, "r&amp;d.bin")
	assert.Contains(t, msg, "Downloading: 50.00%")
}

func TestHealthMsg(t *testing.T) {
	msg := HealthMsg(health.Report{Uptime: time.Minute, RSS: 2048, PendingFiles: 2, ActiveTransfers: 1}, 3)
	assert.Contains(t, msg, "Bot is running</b>")
	assert.Contains(t, msg, "2.00 KB")
	assert.Contains(t, msg, "Open sessions: 3")

	msg = HealthMsg(health.Report{Errors: []error{errors.New("no procfs")}}, 0)
	assert.Contains(t, msg, "with problems")
	assert.Contains(t, msg, "no procfs")
}

func TestHistoryMsg(t *testing.T) {
	assert.Contains(t, HistoryMsg(nil), "haven't received")

	msg := HistoryMsg([]history.Transfer{{
		Filename:  "report.pdf",
		Size:      1024,
		CreatedAt: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
	}})
	assert.Contains(t, msg, "2026-03-04 — report.pdf, 1.00 KB")
}
