package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Droze-svj/click-platform-sub013/domains/health"
	pkgError "github.com/Droze-svj/click-platform-sub013/pkg/error"
	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/application"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestScheduleHealth_Hints(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	clock := timeutils.NewFakeClock(jan(1, 10))
	require.NoError(t, store.CreatePost(ctx, domain.ScheduledPost{
		ID: "p1", UserID: "user-1", ContentID: "c1", Platform: "twitter",
		ScheduledAt: jan(3, 10), Timezone: "UTC", Status: domain.PostStatusScheduled,
	}))

	svc := NewHealthService(application.NewScheduleHealthMonitor(store, clock), nil, nil, "click-test", clock)

	report, err := svc.ScheduleHealth(ctx, "user-1", 7)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalPosts)
	assert.Equal(t, "Next post 2 days from now", report.NextPostHint)
	assert.Contains(t, report.Summary, "1 post in the next 7 days")

	empty, err := svc.ScheduleHealth(ctx, "user-2", 0)
	require.NoError(t, err)
	assert.Equal(t, "Nothing scheduled", empty.NextPostHint)

	_, err = svc.ScheduleHealth(ctx, "", 7)
	var verr pkgError.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSystemStatus(t *testing.T) {
	clock := timeutils.NewFakeClock(jan(1, 10))
	ok := pingFunc(func(context.Context) error { return nil })

	svc := NewHealthService(nil, ok, nil, "click-test", clock)
	status := svc.SystemStatus(context.Background())
	assert.Equal(t, health.StatusOk, status.Status)
	assert.Equal(t, "click-test", status.ServerID)
	assert.False(t, status.SchedulerEnabled)
	assert.Equal(t, "never", status.LastSweep)

	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })
	status = NewHealthService(nil, down, nil, "click-test", clock).SystemStatus(context.Background())
	assert.Equal(t, health.StatusError, status.Status)
	assert.Equal(t, "connection refused", status.Database)
}

func TestSystemStatus_DegradedAfterFailedSweep(t *testing.T) {
	clock := timeutils.NewFakeClock(jan(1, 10))
	sched, err := application.NewSweepScheduler(failingSweeper{}, clock, nil, nil, nil, application.SchedulerConfig{Owner: "test"})
	require.NoError(t, err)
	_, err = sched.RunOnce(context.Background())
	require.Error(t, err)
	clock.Advance(90 * time.Second)

	status := NewHealthService(nil, nil, sched, "click-test", clock).SystemStatus(context.Background())
	assert.Equal(t, health.StatusDegraded, status.Status)
	assert.True(t, status.SchedulerEnabled)
	assert.Equal(t, 1, status.ConsecutiveFailures)
	assert.Equal(t, "1 minute ago", status.LastSweep)
	assert.EqualValues(t, 1, status.Sweep.TotalErrors)
}

type failingSweeper struct{}

func (failingSweeper) Sweep(context.Context) (application.SweepResult, error) {
	return application.SweepResult{}, errors.New("store down")
}
