package file

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"url-upload-bot/internal/pkg/config"

	"github.com/gosimple/slug"
)

type Service interface {
	CreateFolder() error
	TempPath(chatID int64, messageID int, name string) (string, error)
	Remove(path string) error
	CountFiles() (int, error)
	SweepOlderThan(maxAge time.Duration) (int, error)
	Dir() string
}

type DefaultService struct {
	cfg *config.FileServiceCfg
	now func() time.Time
}

func NewDefaultService(cfg *config.FileServiceCfg) *DefaultService {
	return &DefaultService{
		cfg: cfg,
		now: time.Now,
	}
}

func (d *DefaultService) Dir() string {
	return d.cfg.DirPath
}

func (d *DefaultService) CreateFolder() error {
	return os.MkdirAll(d.cfg.DirPath, os.ModePerm)
}

// TempPath returns a download location unique to one chat message. The
// display name only contributes a slug, so two transfers of the same file
// in different chats never collide.
func (d *DefaultService) TempPath(chatID int64, messageID int, name string) (string, error) {
	stem := slug.Make(strings.TrimSuffix(name, filepath.Ext(name)))
	if stem == "" {
		stem = FallbackFilename
	}
	if len(stem) > 64 {
		stem = stem[:64]
	}
	ext := slug.Make(strings.TrimPrefix(filepath.Ext(name), "."))
	filename := fmt.Sprintf("%d_%d_%s", chatID, messageID, stem)
	if ext != "" {
		filename += "." + ext
	}

	path := filepath.Join(d.cfg.DirPath, filename)
	if !strings.HasPrefix(path, filepath.Clean(d.cfg.DirPath)+string(os.PathSeparator)) {
		return "", &ErrPrepareFilepath{Err: ErrUnsafeTargetPath}
	}
	return path, nil
}

func (d *DefaultService) Remove(path string) error {
	if err := RemoveFile(path); err != nil {
		slog.Error("Failed to remove file", "error", err, "path", path)
		return err
	}
	return nil
}

func (d *DefaultService) CountFiles() (int, error) {
	entries, err := os.ReadDir(d.cfg.DirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, &ErrReadDir{Err: err}
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			count++
		}
	}
	return count, nil
}

// SweepOlderThan removes regular files whose modification time is older
// than maxAge and returns how many were removed.
func (d *DefaultService) SweepOlderThan(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(d.cfg.DirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, &ErrReadDir{Err: err}
	}

	cutoff := d.now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(d.cfg.DirPath, entry.Name())
		if err := RemoveFile(path); err != nil {
			slog.Error("Failed to sweep stale file", "error", err, "path", path)
			continue
		}
		removed++
	}
	return removed, nil
}
