package domain

import "time"

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyCustom  Frequency = "custom"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom:
		return true
	}
	return false
}

type RuleStatus string

const (
	RuleStatusActive    RuleStatus = "active"
	RuleStatusPaused    RuleStatus = "paused"
	RuleStatusCompleted RuleStatus = "completed"
	RuleStatusCancelled RuleStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s RuleStatus) Terminal() bool {
	return s == RuleStatusCompleted || s == RuleStatusCancelled
}

// AutoRefresh regenerates volatile post fields at materialization time.
type AutoRefresh struct {
	Enabled        bool `json:"enabled"`
	UpdateHashtags bool `json:"update_hashtags"`
	MaxHashtags    int  `json:"max_hashtags,omitempty"`
}

// RecurrenceRule drives a stream of materialized posts.
type RecurrenceRule struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	ContentID   string `json:"content_id"`
	Platform    string `json:"platform"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	Frequency  Frequency `json:"frequency"`
	Interval   int       `json:"interval"`
	DaysOfWeek []int     `json:"days_of_week,omitempty"`
	DayOfMonth int       `json:"day_of_month,omitempty"`
	Times      []string  `json:"times"`
	Timezone   string    `json:"timezone"`

	StartDate         time.Time  `json:"start_date"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	MaxOccurrences    int        `json:"max_occurrences,omitempty"` // 0 = unbounded
	CurrentOccurrence int        `json:"current_occurrence"`
	NextScheduledAt   *time.Time `json:"next_scheduled_at,omitempty"`

	Status      RuleStatus  `json:"status"`
	AutoRefresh AutoRefresh `json:"auto_refresh"`
	AutoResolve bool        `json:"auto_resolve"`

	NeedsReview bool   `json:"needs_review"`
	LastError   string `json:"last_error,omitempty"`

	Version        int        `json:"version"`
	ClaimedBy      string     `json:"-"`
	ClaimExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Exhausted reports whether the occurrence budget is spent.
func (r RecurrenceRule) Exhausted() bool {
	return r.MaxOccurrences > 0 && r.CurrentOccurrence >= r.MaxOccurrences
}

// Expired reports whether the end date is at or before now.
func (r RecurrenceRule) Expired(now time.Time) bool {
	return r.EndDate != nil && !r.EndDate.After(now)
}

// RuleAdvance is the rule state written together with a materialized post.
// ExpectedVersion guards against a concurrent writer.
type RuleAdvance struct {
	RuleID          string
	ExpectedVersion int
	ClaimedBy       string

	Next        *time.Time
	Increment   bool
	Status      RuleStatus
	LastError   string
	NeedsReview bool
	UpdatedAt   time.Time
}
