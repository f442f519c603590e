package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"url-upload-bot/internal/pkg/config"
)

// Sweeper is the part of the file service the reconciler needs.
type Sweeper interface {
	SweepOlderThan(maxAge time.Duration) (int, error)
}

type Service interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Reconcile()
}

// DefaultService periodically deletes download files that outlived any
// transfer, such as leftovers of a crashed process.
type DefaultService struct {
	files Sweeper
	cfg   *config.FileServiceCfg
	wg    *sync.WaitGroup
}

func NewDefaultService(files Sweeper, cfg *config.FileServiceCfg) Service {
	return &DefaultService{
		files: files,
		cfg:   cfg,
		wg:    &sync.WaitGroup{},
	}
}

func (d *DefaultService) Start(ctx context.Context) {
	if d.cfg.SweepInterval <= 0 {
		slog.Info("Reconciler disabled", "interval", d.cfg.SweepInterval)
		return
	}
	d.Reconcile()
	d.startReconciliationLoop(ctx)
	slog.Info("Started reconciler service", "interval", d.cfg.SweepInterval, "maxAge", d.cfg.SweepMaxAge)
}

func (d *DefaultService) Stop(ctx context.Context) error {
	stop := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(stop)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-stop:
		return nil
	}
}

func (d *DefaultService) startReconciliationLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.SweepInterval)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.Reconcile()
			}
		}
	}()
}

// Reconcile runs one sweep of the download directory.
func (d *DefaultService) Reconcile() {
	removed, err := d.files.SweepOlderThan(d.cfg.SweepMaxAge)
	if err != nil {
		slog.Error("Failed to sweep download directory", "error", err, "dir", d.cfg.DirPath)
		return
	}
	if removed > 0 {
		slog.Info("Removed stale downloads", "count", removed, "dir", d.cfg.DirPath)
	}
}
