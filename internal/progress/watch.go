package progress

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Sink receives progress samples. Implementations may block on network I/O;
// the Watcher calls them from its own goroutine so transfers never wait on them.
type Sink interface {
	OnProgress(ctx context.Context, sample Sample)
}

type SinkFunc func(ctx context.Context, sample Sample)

func (f SinkFunc) OnProgress(ctx context.Context, sample Sample) {
	f(ctx, sample)
}

// Discard drops every sample.
var Discard Sink = SinkFunc(func(context.Context, Sample) {})

// Counter is the shared byte count of one transfer, written by the transfer
// and read by a Watcher.
type Counter struct {
	done  *atomic.Int64
	total *atomic.Int64
	start time.Time
}

func NewCounter(total int64) *Counter {
	return &Counter{
		done:  atomic.NewInt64(0),
		total: atomic.NewInt64(total),
		start: time.Now(),
	}
}

func (c *Counter) Add(n int64) int64 {
	return c.done.Add(n)
}

func (c *Counter) Set(n int64) {
	c.done.Store(n)
}

func (c *Counter) SetTotal(total int64) {
	c.total.Store(total)
}

func (c *Counter) Done() int64 {
	return c.done.Load()
}

func (c *Counter) Sample() Sample {
	return Sample{
		Done:    c.done.Load(),
		Total:   c.total.Load(),
		Elapsed: time.Since(c.start),
	}
}

// DefaultInterval is used by Watch when it is given no positive interval.
const DefaultInterval = time.Second

// Watch samples counter every interval and forwards the sample to sink when
// the byte count moved since the previous tick. The returned stop function
// blocks until the watcher goroutine has exited; it is safe to call twice.
func Watch(ctx context.Context, counter *Counter, interval time.Duration, sink Sink) (stop func()) {
	if sink == nil {
		sink = Discard
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last int64
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				sample := counter.Sample()
				if sample.Done == last {
					continue
				}
				last = sample.Done
				sink.OnProgress(watchCtx, sample)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
