package health

import (
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

type FileCounter interface {
	CountFiles() (int, error)
}

// Report is what /health shows. Fields that could not be read stay zero
// and the matching error is kept in Errors.
type Report struct {
	Uptime          time.Duration
	RSS             uint64
	NumGoroutines   int
	PendingFiles    int
	ActiveTransfers int
	Errors          []error
}

type Probe struct {
	files   FileCounter
	started time.Time
	now     func() time.Time
	rss     func() (uint64, error)
}

func NewProbe(files FileCounter) *Probe {
	return &Probe{
		files:   files,
		started: time.Now(),
		now:     time.Now,
		rss:     processRSS,
	}
}

func (p *Probe) Check(activeTransfers int, goroutines int) Report {
	report := Report{
		Uptime:          p.now().Sub(p.started).Truncate(time.Second),
		NumGoroutines:   goroutines,
		ActiveTransfers: activeTransfers,
	}

	rss, err := p.rss()
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("memory: %w", err))
	}
	report.RSS = rss

	count, err := p.files.CountFiles()
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("download dir: %w", err))
	}
	report.PendingFiles = count

	return report
}

func (r Report) Healthy() bool {
	return len(r.Errors) == 0
}

func processRSS() (uint64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return mem.RSS, nil
}
