package health

import (
	"context"

	"github.com/Droze-svj/click-platform-sub013/pkg/sweepmonitor"
	"github.com/Droze-svj/click-platform-sub013/scheduling/application"
)

type Status string

const (
	StatusOk       Status = "OK"
	StatusDegraded Status = "DEGRADED"
	StatusError    Status = "ERROR"
)

// ScheduleHealth is the health report plus human readable hints.
type ScheduleHealth struct {
	application.HealthReport
	NextPostHint string `json:"next_post_hint"`
	Summary      string `json:"summary"`
}

// SystemStatus describes the engine itself rather than a user's schedule.
type SystemStatus struct {
	Status              Status             `json:"status"`
	ServerID            string             `json:"server_id"`
	Database            string             `json:"database"`
	SchedulerEnabled    bool               `json:"scheduler_enabled"`
	ConsecutiveFailures int                `json:"consecutive_failures"`
	LastSweep           string             `json:"last_sweep"`
	Sweep               sweepmonitor.Stats `json:"sweep"`
}

type IHealthUsecase interface {
	ScheduleHealth(ctx context.Context, userID string, days int) (ScheduleHealth, error)
	SystemStatus(ctx context.Context) SystemStatus
}
