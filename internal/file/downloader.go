package file

import (
	"context"
	"io"
	"net/http"
	"time"

	"url-upload-bot/internal/progress"
)

const userAgent = "url-upload-bot/1.0"

type Downloader interface {
	Download(ctx context.Context, url, dst string, sink progress.Sink) (int64, error)
	Probe(ctx context.Context, url string) (*ProbeResult, error)
}

type HTTPDownloader struct {
	client    *http.Client
	chunkSize int
	maxSize   int64
	interval  time.Duration
}

func NewHTTPDownloader(client *http.Client, chunkSize int, maxSize int64, interval time.Duration) *HTTPDownloader {
	return &HTTPDownloader{
		client:    client,
		chunkSize: chunkSize,
		maxSize:   maxSize,
		interval:  interval,
	}
}

func (d *HTTPDownloader) MaxSize() int64 {
	return d.maxSize
}

// Download streams url into a new file at dst and returns the bytes written.
// The file is only created once the response status and declared length are
// acceptable. On failure a partially written file is left for the caller to
// remove.
func (d *HTTPDownloader) Download(ctx context.Context, url, dst string, sink progress.Sink) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, &ErrValidation{URL: url, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, &ErrTransfer{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &ErrRemote{Status: resp.StatusCode}
	}
	if resp.ContentLength > d.maxSize {
		return 0, &ErrSizeLimit{Limit: d.maxSize, Size: resp.ContentLength, Declared: true}
	}

	out, err := prepareFilepath(dst)
	if err != nil {
		return 0, &ErrPrepareFilepath{Err: err}
	}

	counter := progress.NewCounter(resp.ContentLength)
	stop := progress.Watch(ctx, counter, d.interval, sink)
	written, copyErr := d.copy(out, resp.Body, counter)
	stop()

	if err := out.Close(); err != nil && copyErr == nil {
		copyErr = &ErrTransfer{Written: written, Err: err}
	}
	return written, copyErr
}

func (d *HTTPDownloader) copy(dst io.Writer, src io.Reader, counter *progress.Counter) (int64, error) {
	buf := make([]byte, d.chunkSize)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if written+int64(n) > d.maxSize {
				return written, &ErrSizeLimit{Limit: d.maxSize, Size: written + int64(n)}
			}
			w, writeErr := dst.Write(buf[:n])
			written += int64(w)
			counter.Add(int64(w))
			if writeErr != nil {
				return written, &ErrTransfer{Written: written, Err: writeErr}
			}
			if w != n {
				return written, &ErrTransfer{Written: written, Err: io.ErrShortWrite}
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, &ErrTransfer{Written: written, Err: readErr}
		}
	}
}

// Probe issues a HEAD request to learn the server-suggested file name and
// declared size before the user picks a name.
func (d *HTTPDownloader) Probe(ctx context.Context, url string) (*ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, &ErrValidation{URL: url, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ErrRemote{Status: resp.StatusCode}
	}

	result := &ProbeResult{
		Filename: ResolveFilename(url, resp.Header.Get("Content-Disposition")),
	}
	if resp.ContentLength > 0 {
		result.Size = resp.ContentLength
	}
	return result, nil
}
