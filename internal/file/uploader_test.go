package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"url-upload-bot/internal/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	failures int
	docs     []Document
	bodies   []string
	progress []int64
}

func (f *fakeSender) SendDocument(_ context.Context, doc Document, body io.Reader, onProgress func(int64)) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	f.bodies = append(f.bodies, string(data))
	if onProgress != nil {
		onProgress(int64(len(data)))
		f.progress = append(f.progress, int64(len(data)))
	}
	if f.failures > 0 {
		f.failures--
		return errors.New("telegram said no")
	}
	return nil
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.bin")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testDoc() Document {
	return Document{ChatID: 7, Name: "report.pdf", Caption: "Here's your file!", ReplyToMessageID: 11}
}

func TestUploadSendsDocument(t *testing.T) {
	sender := &fakeSender{}
	u := NewUploader(sender, nil, 1024, time.Millisecond)
	path := writeTempFile(t, "hello")

	require.NoError(t, u.Upload(context.Background(), path, testDoc(), progress.Discard))

	require.Len(t, sender.docs, 1)
	assert.Equal(t, "report.pdf", sender.docs[0].Name)
	assert.Equal(t, int64(5), sender.docs[0].Size)
	assert.Equal(t, 11, sender.docs[0].ReplyToMessageID)
	assert.Equal(t, "hello", sender.bodies[0])
}

func TestUploadFallsBackOnceWithSimplifiedDocument(t *testing.T) {
	sender := &fakeSender{failures: 1}
	u := NewUploader(sender, nil, 1024, time.Millisecond)
	path := writeTempFile(t, "payload")

	require.NoError(t, u.Upload(context.Background(), path, testDoc(), nil))

	require.Len(t, sender.docs, 2)
	assert.Equal(t, "Here's your file!", sender.docs[0].Caption)
	assert.Empty(t, sender.docs[1].Caption)
	assert.Zero(t, sender.docs[1].ReplyToMessageID)
	assert.Equal(t, "report.pdf", sender.docs[1].Name)
	assert.Equal(t, "payload", sender.bodies[1], "fallback reads a fresh handle")
}

func TestUploadGivesUpAfterFallback(t *testing.T) {
	sender := &fakeSender{failures: 5}
	u := NewUploader(sender, nil, 1024, time.Millisecond)
	path := writeTempFile(t, "payload")

	err := u.Upload(context.Background(), path, testDoc(), nil)

	var uploadErr *ErrUpload
	require.True(t, errors.As(err, &uploadErr))
	assert.Len(t, sender.docs, 2)
}

func TestUploadRoutesLargeFiles(t *testing.T) {
	small := &fakeSender{}
	large := &fakeSender{}
	u := NewUploader(small, large, 4, time.Millisecond)

	require.NoError(t, u.Upload(context.Background(), writeTempFile(t, "tiny"), testDoc(), nil))
	require.NoError(t, u.Upload(context.Background(), writeTempFile(t, "much larger"), testDoc(), nil))

	assert.Len(t, small.docs, 1)
	assert.Len(t, large.docs, 1)
	assert.Equal(t, []int64{11}, large.progress)
}

func TestUploadRejectsOversizeWithoutLargeSender(t *testing.T) {
	sender := &fakeSender{}
	u := NewUploader(sender, nil, 4, time.Millisecond)

	err := u.Upload(context.Background(), writeTempFile(t, "too large"), testDoc(), nil)

	var sizeErr *ErrSizeLimit
	require.True(t, errors.As(err, &sizeErr))
	assert.Equal(t, int64(4), sizeErr.Limit)
	assert.Equal(t, int64(9), sizeErr.Size)
	assert.Empty(t, sender.docs)
}

func TestUploadMissingSource(t *testing.T) {
	u := NewUploader(&fakeSender{}, nil, 1024, time.Millisecond)

	err := u.Upload(context.Background(), filepath.Join(t.TempDir(), "gone"), testDoc(), nil)

	var openErr *ErrOpenFile
	require.True(t, errors.As(err, &openErr))
}

func TestMaxSize(t *testing.T) {
	assert.Equal(t, int64(50), NewUploader(&fakeSender{}, nil, 50, time.Millisecond).MaxSize(100))
	assert.Equal(t, int64(100), NewUploader(&fakeSender{}, &fakeSender{}, 50, time.Millisecond).MaxSize(100))
	assert.Equal(t, int64(30), NewUploader(&fakeSender{}, nil, 50, time.Millisecond).MaxSize(30))
}
