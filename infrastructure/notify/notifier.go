// Package notify delivers scheduling events to external channels. Delivery is
// best effort: a slow or failing sink never blocks the scheduling path.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ISink is one delivery channel.
type ISink interface {
	Name() string
	Deliver(ctx context.Context, evt domain.Event) error
}

type Config struct {
	QueueSize      int
	RatePerSec     float64
	Burst          int
	DeliverTimeout time.Duration
}

// Fanout queues events and hands each one to every sink, throttled by a
// token bucket shared across sinks.
type Fanout struct {
	sinks   []ISink
	limiter *rate.Limiter
	cfg     Config

	mu      sync.Mutex
	queue   chan domain.Event
	stopped bool
	wg      sync.WaitGroup

	dropped   int64
	delivered int64
	failed    int64
}

var _ domain.INotifier = (*Fanout)(nil)

func NewFanout(cfg Config, sinks ...ISink) *Fanout {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RatePerSec)
	}
	if cfg.DeliverTimeout <= 0 {
		cfg.DeliverTimeout = 10 * time.Second
	}
	return &Fanout{
		sinks:   sinks,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		cfg:     cfg,
		queue:   make(chan domain.Event, cfg.QueueSize),
	}
}

// Start runs the delivery loop until ctx is cancelled or Stop is called.
func (f *Fanout) Start(ctx context.Context) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-f.queue:
				if !ok {
					return
				}
				f.deliver(ctx, evt)
			}
		}
	}()
}

// Notify enqueues evt. A full queue drops the event.
func (f *Fanout) Notify(_ context.Context, evt domain.Event) {
	if len(f.sinks) == 0 {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	select {
	case f.queue <- evt:
	default:
		f.dropped++
		logrus.WithField("type", evt.Type).Warn("[NOTIFY] Queue full, dropping event")
	}
}

// Stop closes the queue and waits for queued events to drain.
func (f *Fanout) Stop() {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return
	}
	f.stopped = true
	close(f.queue)
	f.mu.Unlock()
	f.wg.Wait()
}

type Stats struct {
	Sinks     []string `json:"sinks"`
	Queued    int      `json:"queued"`
	Delivered int64    `json:"delivered"`
	Failed    int64    `json:"failed"`
	Dropped   int64    `json:"dropped"`
}

func (f *Fanout) Stats() Stats {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.Name()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		Sinks:     names,
		Queued:    len(f.queue),
		Delivered: f.delivered,
		Failed:    f.failed,
		Dropped:   f.dropped,
	}
}

func (f *Fanout) deliver(ctx context.Context, evt domain.Event) {
	for _, sink := range f.sinks {
		if err := f.limiter.Wait(ctx); err != nil {
			return
		}
		dctx, cancel := context.WithTimeout(ctx, f.cfg.DeliverTimeout)
		err := sink.Deliver(dctx, evt)
		cancel()

		f.mu.Lock()
		if err != nil {
			f.failed++
		} else {
			f.delivered++
		}
		f.mu.Unlock()

		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"sink": sink.Name(),
				"type": evt.Type,
			}).Warn("[NOTIFY] Delivery failed")
		}
	}
}
