package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Droze-svj/click-platform-sub013/pkg/sweepmonitor"
	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const DefaultSweepSpec = "@every 1m"

var ErrSweepInProgress = errors.New("sweep already running")

// ISweeper runs one sweep.
type ISweeper interface {
	Sweep(ctx context.Context) (SweepResult, error)
}

// ISweepLease gives one instance across the fleet the right to sweep.
type ISweepLease interface {
	Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, owner string) error
}

type SchedulerConfig struct {
	Spec     string
	Owner    string
	LeaseTTL time.Duration
}

// SweepScheduler fires the processor on a cron schedule measured against an
// injectable clock. Every instance keeps its own run state.
type SweepScheduler struct {
	sweeper  ISweeper
	schedule cron.Schedule
	clock    timeutils.Clock
	lease    ISweepLease
	monitor  *sweepmonitor.Monitor
	notifier domain.INotifier
	cfg      SchedulerConfig

	mu                  sync.Mutex
	running             bool
	consecutiveFailures int
}

func NewSweepScheduler(
	sweeper ISweeper,
	clock timeutils.Clock,
	lease ISweepLease,
	monitor *sweepmonitor.Monitor,
	notifier domain.INotifier,
	cfg SchedulerConfig,
) (*SweepScheduler, error) {
	if cfg.Spec == "" {
		cfg.Spec = DefaultSweepSpec
	}
	schedule, err := cron.ParseStandard(cfg.Spec)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep spec %q: %w", cfg.Spec, err)
	}
	if clock == nil {
		clock = timeutils.RealClock{}
	}
	if monitor == nil {
		monitor = sweepmonitor.New(0)
	}
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 2 * time.Minute
	}
	return &SweepScheduler{
		sweeper:  sweeper,
		schedule: schedule,
		clock:    clock,
		lease:    lease,
		monitor:  monitor,
		notifier: notifier,
		cfg:      cfg,
	}, nil
}

func (s *SweepScheduler) Monitor() *sweepmonitor.Monitor { return s.monitor }

// ConsecutiveFailures is the number of failed runs since the last success.
func (s *SweepScheduler) ConsecutiveFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecutiveFailures
}

// Run blocks until ctx is cancelled, sweeping at every scheduled tick.
func (s *SweepScheduler) Run(ctx context.Context) error {
	logrus.Infof("[SCHEDULER] Sweep loop started (%s)", s.cfg.Spec)
	for {
		now := s.clock.Now()
		next := s.schedule.Next(now)
		select {
		case <-ctx.Done():
			logrus.Info("[SCHEDULER] Sweep loop stopped")
			return ctx.Err()
		case <-s.clock.After(next.Sub(now)):
			if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrSweepInProgress) {
				logrus.WithError(err).Error("[SCHEDULER] Sweep failed")
			}
		}
	}
}

// RunOnce performs a single guarded sweep. A sweep held elsewhere is
// recorded as skipped and returns a zero result.
func (s *SweepScheduler) RunOnce(ctx context.Context) (SweepResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return SweepResult{}, ErrSweepInProgress
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	started := s.clock.Now()
	if s.lease != nil {
		ok, err := s.lease.Acquire(ctx, s.cfg.Owner, s.cfg.LeaseTTL)
		if err != nil {
			logrus.WithError(err).Warn("[SCHEDULER] Sweep lease unavailable, skipping tick")
			s.monitor.Record(sweepmonitor.Run{Timestamp: started, Owner: s.cfg.Owner, Status: sweepmonitor.StatusSkipped, Error: err.Error()})
			return SweepResult{}, nil
		}
		if !ok {
			logrus.Debug("[SCHEDULER] Another instance holds the sweep lease")
			s.monitor.Record(sweepmonitor.Run{Timestamp: started, Owner: s.cfg.Owner, Status: sweepmonitor.StatusSkipped})
			return SweepResult{}, nil
		}
		defer func() {
			if err := s.lease.Release(context.WithoutCancel(ctx), s.cfg.Owner); err != nil {
				logrus.WithError(err).Warn("[SCHEDULER] Failed to release sweep lease")
			}
		}()
	}

	res, err := s.sweeper.Sweep(ctx)
	run := sweepmonitor.Run{
		Timestamp:  started,
		Owner:      s.cfg.Owner,
		Status:     sweepmonitor.StatusOK,
		Processed:  res.Processed,
		Created:    res.Created,
		Completed:  res.Completed,
		Failed:     res.Failed,
		DurationMs: s.clock.Now().Sub(started).Milliseconds(),
	}

	s.mu.Lock()
	if err != nil {
		s.consecutiveFailures++
		run.Status = sweepmonitor.StatusError
		run.Error = err.Error()
	} else {
		s.consecutiveFailures = 0
	}
	failures := s.consecutiveFailures
	s.mu.Unlock()

	s.monitor.Record(run)
	if err != nil {
		s.notifier.Notify(ctx, domain.Event{
			Type:      domain.EventSweepFailed,
			Message:   fmt.Sprintf("%v (%d consecutive failures)", err, failures),
			Payload:   run,
			Timestamp: started,
		})
		return res, err
	}
	if res.Created > 0 || res.Completed > 0 || res.Failed > 0 {
		s.notifier.Notify(ctx, domain.Event{Type: domain.EventSweepFinished, Payload: run, Timestamp: started})
	}
	return res, nil
}
