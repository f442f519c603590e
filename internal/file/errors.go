package file

import (
	"errors"
	"fmt"
)

var (
	ErrFileExists       = errors.New("file already exists")
	ErrNoSender         = errors.New("no document sender configured")
	ErrUnsafeTargetPath = errors.New("target path escapes download directory")
)

// ErrValidation reports a URL that can not be accepted for download.
type ErrValidation struct {
	URL    string
	Reason string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("invalid url %q: %s", e.URL, e.Reason)
}

// ErrSizeLimit reports a file that is, or would become, larger than allowed.
type ErrSizeLimit struct {
	Limit int64
	Size  int64
	// Declared is true when Size comes from Content-Length rather than
	// from bytes actually received.
	Declared bool
}

func (e *ErrSizeLimit) Error() string {
	if e.Declared {
		return fmt.Sprintf("declared size %d exceeds limit %d", e.Size, e.Limit)
	}
	return fmt.Sprintf("size %d exceeds limit %d", e.Size, e.Limit)
}

// ErrRemote reports a non-success HTTP status from the source server.
type ErrRemote struct {
	Status int
}

func (e *ErrRemote) Error() string {
	return fmt.Sprintf("remote server responded with status %d", e.Status)
}

// ErrTransfer reports a failure in the middle of streaming a body to disk.
type ErrTransfer struct {
	Written int64
	Err     error
}

func (e *ErrTransfer) Error() string {
	return fmt.Errorf("failed to download file after %d bytes: %w", e.Written, e.Err).Error()
}

func (e *ErrTransfer) Unwrap() error {
	return e.Err
}

type ErrUpload struct {
	Err error
}

func (e *ErrUpload) Error() string {
	return fmt.Errorf("failed to upload file: %w", e.Err).Error()
}

func (e *ErrUpload) Unwrap() error {
	return e.Err
}

type ErrPrepareFilepath struct {
	Err error
}

func (e *ErrPrepareFilepath) Error() string {
	return fmt.Errorf("failed to prepare file path: %w", e.Err).Error()
}

func (e *ErrPrepareFilepath) Unwrap() error {
	return e.Err
}

type ErrReadDir struct {
	Err error
}

func (e *ErrReadDir) Error() string {
	return fmt.Errorf("failed to read directory: %w", e.Err).Error()
}

func (e *ErrReadDir) Unwrap() error {
	return e.Err
}

type ErrOpenFile struct {
	Err error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Errorf("failed to open file: %w", e.Err).Error()
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}
