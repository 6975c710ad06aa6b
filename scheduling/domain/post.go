package domain

import "time"

type PostStatus string

const (
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPending   PostStatus = "pending"
	PostStatusPosted    PostStatus = "posted"
	PostStatusFailed    PostStatus = "failed"
	PostStatusCancelled PostStatus = "cancelled"
)

func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusScheduled, PostStatusPending, PostStatusPosted, PostStatusFailed, PostStatusCancelled:
		return true
	}
	return false
}

// ConflictingStatuses are the statuses that occupy a slot.
var ConflictingStatuses = []PostStatus{PostStatusScheduled, PostStatusPending}

// LiveStatuses are the statuses counted against a rule's occurrence counter.
var LiveStatuses = []PostStatus{PostStatusScheduled, PostStatusPending, PostStatusPosted}

// ScheduledPost is a materialized publish job.
type ScheduledPost struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	ContentID  string `json:"content_id"`
	Platform   string `json:"platform"`
	RuleID     string `json:"rule_id,omitempty"`
	TemplateID string `json:"template_id,omitempty"`

	Text      string   `json:"text"`
	MediaRefs []string `json:"media_refs,omitempty"`
	Hashtags  []string `json:"hashtags,omitempty"`

	ScheduledAt time.Time `json:"scheduled_at"`
	// OccurrenceAt is the rule occurrence this post was materialized for.
	// It stays fixed when conflict resolution moves ScheduledAt.
	OccurrenceAt *time.Time `json:"occurrence_at,omitempty"`
	Timezone     string     `json:"timezone"`
	Status       PostStatus `json:"status"`

	HasConflict       bool `json:"has_conflict"`
	ConflictResolved  bool `json:"conflict_resolved"`
	OptimizationScore *int `json:"optimization_score,omitempty"`

	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Content is the read-only view of a content item.
type Content struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	MediaRefs   []string `json:"media_refs,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Text is the post body derived from the content.
func (c Content) Text() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Description
}

// PostFilter narrows ListPosts. Zero values are ignored.
type PostFilter struct {
	UserID   string
	Platform string
	RuleID   string
	From     time.Time
	To       time.Time
	Statuses []PostStatus
	Limit    int
}
