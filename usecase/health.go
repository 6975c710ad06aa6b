package usecase

import (
	"context"
	"fmt"

	"github.com/Droze-svj/click-platform-sub013/domains/health"
	pkgError "github.com/Droze-svj/click-platform-sub013/pkg/error"
	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/application"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// failureThreshold is the number of consecutive failed sweeps that turns the
// system status to ERROR.
const failureThreshold = 3

// IPinger checks a backing store.
type IPinger interface {
	Ping(ctx context.Context) error
}

type healthService struct {
	monitor   *application.ScheduleHealthMonitor
	db        IPinger
	scheduler *application.SweepScheduler
	serverID  string
	clock     timeutils.Clock
}

// NewHealthService builds the health use case. scheduler is nil when the sweep
// loop is disabled on this instance.
func NewHealthService(monitor *application.ScheduleHealthMonitor, db IPinger, scheduler *application.SweepScheduler, serverID string, clock timeutils.Clock) health.IHealthUsecase {
	if clock == nil {
		clock = timeutils.RealClock{}
	}
	return &healthService{
		monitor:   monitor,
		db:        db,
		scheduler: scheduler,
		serverID:  serverID,
		clock:     clock,
	}
}

func (h *healthService) ScheduleHealth(ctx context.Context, userID string, days int) (health.ScheduleHealth, error) {
	if userID == "" {
		return health.ScheduleHealth{}, pkgError.ValidationError("user_id: cannot be blank")
	}
	if days < 0 || days > maxRangeDays {
		return health.ScheduleHealth{}, pkgError.ValidationError("days: must be between 0 and 90")
	}

	report, err := h.monitor.Check(ctx, userID, days)
	if err != nil {
		return health.ScheduleHealth{}, err
	}

	out := health.ScheduleHealth{HealthReport: report}
	if report.NextPostAt != nil {
		out.NextPostHint = "Next post " + humanize.RelTime(*report.NextPostAt, h.clock.Now(), "ago", "from now")
	} else {
		out.NextPostHint = "Nothing scheduled"
	}
	out.Summary = fmt.Sprintf("%s in the next %d days, score %d/100, %d issue(s), %d warning(s)",
		pluralPosts(report.TotalPosts), report.WindowDays, report.OverallScore, len(report.Issues), len(report.Warnings))
	return out, nil
}

func (h *healthService) SystemStatus(ctx context.Context) health.SystemStatus {
	status := health.SystemStatus{
		Status:           health.StatusOk,
		ServerID:         h.serverID,
		Database:         "ok",
		SchedulerEnabled: h.scheduler != nil,
		LastSweep:        "never",
	}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			logrus.WithError(err).Error("[HEALTH] Database ping failed")
			status.Database = err.Error()
			status.Status = health.StatusError
		}
	}

	if h.scheduler != nil {
		status.Sweep = h.scheduler.Monitor().Stats()
		status.ConsecutiveFailures = h.scheduler.ConsecutiveFailures()
		if status.Sweep.LastRunAt != nil {
			status.LastSweep = humanize.RelTime(*status.Sweep.LastRunAt, h.clock.Now(), "ago", "from now")
		}
		switch {
		case status.ConsecutiveFailures >= failureThreshold:
			status.Status = health.StatusError
		case status.ConsecutiveFailures > 0 && status.Status == health.StatusOk:
			status.Status = health.StatusDegraded
		}
	}
	return status
}

func pluralPosts(n int) string {
	if n == 1 {
		return "1 post"
	}
	return humanize.Comma(int64(n)) + " posts"
}
