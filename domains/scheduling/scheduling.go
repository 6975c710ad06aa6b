package scheduling

import (
	"context"
	"time"

	"github.com/Droze-svj/click-platform-sub013/scheduling/application"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
)

// Rules

type CreateRuleRequest struct {
	UserID         string             `json:"user_id"`
	ContentID      string             `json:"content_id"`
	Platform       string             `json:"platform"`
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	Frequency      domain.Frequency   `json:"frequency"`
	Interval       int                `json:"interval"`
	DaysOfWeek     []int              `json:"days_of_week"`
	DayOfMonth     int                `json:"day_of_month"`
	Times          []string           `json:"times"`
	Timezone       string             `json:"timezone"`
	StartDate      time.Time          `json:"start_date"`
	EndDate        *time.Time         `json:"end_date"`
	MaxOccurrences int                `json:"max_occurrences"`
	AutoRefresh    domain.AutoRefresh `json:"auto_refresh"`
	AutoResolve    bool               `json:"auto_resolve"`
}

// UpdateRuleRequest changes only the fields that are set.
type UpdateRuleRequest struct {
	Name           *string             `json:"name"`
	Description    *string             `json:"description"`
	ContentID      *string             `json:"content_id"`
	Frequency      *domain.Frequency   `json:"frequency"`
	Interval       *int                `json:"interval"`
	DaysOfWeek     *[]int              `json:"days_of_week"`
	DayOfMonth     *int                `json:"day_of_month"`
	Times          *[]string           `json:"times"`
	Timezone       *string             `json:"timezone"`
	EndDate        *time.Time          `json:"end_date"`
	MaxOccurrences *int                `json:"max_occurrences"`
	AutoRefresh    *domain.AutoRefresh `json:"auto_refresh"`
	AutoResolve    *bool               `json:"auto_resolve"`
}

type RuleResponse struct {
	Rule     domain.RecurrenceRule `json:"rule"`
	Upcoming []time.Time           `json:"upcoming,omitempty"`
}

// Posts

type SchedulePostRequest struct {
	UserID    string `json:"user_id"`
	ContentID string `json:"content_id"`
	Platform  string `json:"platform"`
	// Date (YYYY-MM-DD) and Time (HH:MM) are wall-clock values in Timezone.
	Date            string `json:"date"`
	Time            string `json:"time"`
	Timezone        string `json:"timezone"`
	ResolveStrategy string `json:"resolve_strategy"`
}

type SchedulePostResponse struct {
	Post       domain.ScheduledPost  `json:"post"`
	Conflicts  domain.ConflictReport `json:"conflicts"`
	Resolution *domain.Resolution    `json:"resolution,omitempty"`
}

type ListPostsRequest struct {
	UserID   string    `json:"user_id"`
	Platform string    `json:"platform"`
	RuleID   string    `json:"rule_id"`
	Status   string    `json:"status"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Limit    int       `json:"limit"`
}

type ResolveConflictsRequest struct {
	PostID   string `json:"post_id"`
	Strategy string `json:"strategy"`
}

type DetectConflictsRequest struct {
	UserID        string    `json:"user_id"`
	Platform      string    `json:"platform"`
	At            time.Time `json:"at"`
	ExcludePostID string    `json:"exclude_post_id"`
}

type UpdatePostStatusRequest struct {
	PostID string `json:"post_id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Templates

type CreateTemplateRequest struct {
	UserID         string              `json:"user_id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Platforms      []string            `json:"platforms"`
	Frequency      domain.Frequency    `json:"frequency"`
	Times          []string            `json:"times"`
	PreferredTimes map[string][]string `json:"preferred_times"`
	Timezone       string              `json:"timezone"`
	IsDefault      bool                `json:"is_default"`
}

type ApplyTemplateRequest struct {
	UserID     string   `json:"user_id"`
	TemplateID string   `json:"template_id"`
	ContentIDs []string `json:"content_ids"`
	// StartDate is a local date (YYYY-MM-DD) in the template zone.
	StartDate      string `json:"start_date"`
	AllowConflicts bool   `json:"allow_conflicts"`
}

type SkippedSlot struct {
	ContentID string    `json:"content_id"`
	Platform  string    `json:"platform"`
	At        time.Time `json:"at"`
	Reason    string    `json:"reason"`
}

type ApplyTemplateResponse struct {
	TemplateID string                 `json:"template_id"`
	Created    []domain.ScheduledPost `json:"created"`
	Skipped    []SkippedSlot          `json:"skipped"`
}

type ExportCalendarRequest struct {
	UserID   string    `json:"user_id"`
	Platform string    `json:"platform"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
}

type IScheduleUsecase interface {
	CreateRule(ctx context.Context, request CreateRuleRequest) (RuleResponse, error)
	UpdateRule(ctx context.Context, id string, request UpdateRuleRequest) (RuleResponse, error)
	PauseRule(ctx context.Context, id string) (domain.RecurrenceRule, error)
	ResumeRule(ctx context.Context, id string) (domain.RecurrenceRule, error)
	CancelRule(ctx context.Context, id string) error
	GetRule(ctx context.Context, id string) (RuleResponse, error)
	ListRules(ctx context.Context, userID string, status string) ([]domain.RecurrenceRule, error)

	SchedulePost(ctx context.Context, request SchedulePostRequest) (SchedulePostResponse, error)
	GetPost(ctx context.Context, id string) (domain.ScheduledPost, error)
	CancelPost(ctx context.Context, id string) error
	ListPosts(ctx context.Context, request ListPostsRequest) ([]domain.ScheduledPost, error)
	DetectConflicts(ctx context.Context, request DetectConflictsRequest) (domain.ConflictReport, error)
	ResolvePostConflicts(ctx context.Context, request ResolveConflictsRequest) (domain.Resolution, error)
	UpdatePostStatus(ctx context.Context, request UpdatePostStatusRequest) (domain.ScheduledPost, error)

	CreateTemplate(ctx context.Context, request CreateTemplateRequest) (domain.ScheduleTemplate, error)
	ListTemplates(ctx context.Context, userID string) ([]domain.ScheduleTemplate, error)
	ApplyTemplate(ctx context.Context, request ApplyTemplateRequest) (ApplyTemplateResponse, error)

	ExportCalendar(ctx context.Context, request ExportCalendarRequest) ([]byte, error)
	RunSweep(ctx context.Context) (application.SweepResult, error)
}

// Optimizer

type PredictRequest struct {
	UserID         string    `json:"user_id"`
	ContentID      string    `json:"content_id"`
	Platform       string    `json:"platform"`
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	PreferredTimes []string  `json:"preferred_times"`
	Timezone       string    `json:"timezone"`
}

type BulkScheduleRequest struct {
	UserID     string           `json:"user_id"`
	ContentIDs []string         `json:"content_ids"`
	Platforms  []string         `json:"platforms"`
	StartDate  time.Time        `json:"start_date"`
	Frequency  domain.Frequency `json:"frequency"`
	Timezone   string           `json:"timezone"`
}

type IOptimizerUsecase interface {
	PredictOptimalTime(ctx context.Context, request PredictRequest) (application.Prediction, error)
	Suggestions(ctx context.Context, request application.SuggestionRequest) (application.SuggestionResult, error)
	AutoReschedule(ctx context.Context, postID string) (application.RescheduleResult, error)
	Preview(ctx context.Context, request application.PreviewRequest) (application.PreviewResult, error)
	BulkSchedule(ctx context.Context, request BulkScheduleRequest) (application.BulkResult, error)
	OptimizeSchedule(ctx context.Context, userID string, days int) (application.OptimizeResult, error)
	Analytics(ctx context.Context, userID string, periodDays int) (application.ScheduleAnalytics, error)
}
