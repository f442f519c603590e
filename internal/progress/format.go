package progress

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const barWidth = 10

type Direction int

const (
	Download Direction = iota
	Upload
)

func (d Direction) String() string {
	if d == Upload {
		return "Uploading"
	}
	return "Downloading"
}

// Sample is one progress observation. Total <= 0 means the size is unknown.
type Sample struct {
	Done    int64
	Total   int64
	Elapsed time.Duration
}

func (s Sample) Known() bool {
	return s.Total > 0
}

// Percent returns the completion in [0,100], or false when Total is unknown.
func (s Sample) Percent() (float64, bool) {
	if !s.Known() {
		return 0, false
	}
	p := float64(s.Done) / float64(s.Total) * 100
	return math.Max(0, math.Min(100, p)), true
}

// Speed returns bytes per second.
func (s Sample) Speed() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 || s.Done <= 0 {
		return 0
	}
	return float64(s.Done) / secs
}

// ETA returns the remaining time, or false when it can not be estimated.
func (s Sample) ETA() (time.Duration, bool) {
	speed := s.Speed()
	if !s.Known() || speed == 0 {
		return 0, false
	}
	remaining := s.Total - s.Done
	if remaining < 0 {
		remaining = 0
	}
	return time.Duration(float64(remaining) / speed * float64(time.Second)), true
}

// Render formats a sample as the multi-line status text shown in chat:
//
//	Downloading: 42.00%
//	[████▒▒▒▒▒▒]
//	4.20 MB of 10.00 MB
//	Speed: 1.05 MB/sec
//	ETA: 5s
func Render(direction Direction, s Sample) string {
	var sb strings.Builder

	pct, known := s.Percent()
	if known {
		sb.WriteString(fmt.Sprintf("%s: %.2f%%\n", direction, pct))
	} else {
		sb.WriteString(fmt.Sprintf("%s: unknown\n", direction))
	}
	sb.WriteString("[" + Bar(s) + "]\n")

	total := "unknown"
	if known {
		total = FormatSize(float64(s.Total))
	}
	sb.WriteString(fmt.Sprintf("%s of %s\n", FormatSize(float64(s.Done)), total))
	sb.WriteString(fmt.Sprintf("Speed: %s/sec\n", FormatSize(s.Speed())))

	if eta, ok := s.ETA(); ok {
		sb.WriteString(fmt.Sprintf("ETA: %s", eta.Round(time.Second)))
	} else {
		sb.WriteString("ETA: unknown")
	}
	return sb.String()
}

func Bar(s Sample) string {
	pct, known := s.Percent()
	if !known {
		return strings.Repeat("?", barWidth)
	}
	filled := int(math.Floor(pct / 10))
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("▒", barWidth-filled)
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with a 1024-based unit and two decimals.
func FormatSize(size float64) string {
	if size < 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		size = 0
	}
	unit := 0
	for size >= 1024 && unit < len(sizeUnits)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", size, sizeUnits[unit])
}
