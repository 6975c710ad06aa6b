package domain

import (
	"context"
	"time"
)

// IRuleRepository is the rule store.
type IRuleRepository interface {
	CreateRule(ctx context.Context, rule RecurrenceRule) error
	GetRule(ctx context.Context, id string) (RecurrenceRule, error)
	ListRules(ctx context.Context, userID string, status RuleStatus) ([]RecurrenceRule, error)
	UpdateRule(ctx context.Context, rule RecurrenceRule) error
	CancelRule(ctx context.Context, id string) error

	// FindDueActive returns active rules with next <= now whose end date is
	// absent or in the future, and that are not claimed by a live lease.
	FindDueActive(ctx context.Context, now time.Time, limit int) ([]RecurrenceRule, error)
	// CompleteExpired marks unclaimed active rules past their end date as
	// completed and returns their ids.
	CompleteExpired(ctx context.Context, now time.Time) ([]string, error)
	// ClaimRule takes the rule lease for owner. It returns false when another
	// owner holds an unexpired claim.
	ClaimRule(ctx context.Context, id, owner string, now time.Time, ttl time.Duration) (bool, error)
	ReleaseRule(ctx context.Context, id, owner string) error
	// AdvanceRule writes rule state without a post.
	AdvanceRule(ctx context.Context, adv RuleAdvance) error
}

// IPostRepository is the post sink.
type IPostRepository interface {
	CreatePost(ctx context.Context, post ScheduledPost) error
	GetPost(ctx context.Context, id string) (ScheduledPost, error)
	FindByUserPlatformRange(ctx context.Context, userID, platform string, from, to time.Time) ([]ScheduledPost, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]ScheduledPost, error)
	UpdateInstant(ctx context.Context, id string, instant time.Time, conflictResolved bool) error
	UpdateStatus(ctx context.Context, id string, status PostStatus) error
	UpdatePost(ctx context.Context, post ScheduledPost) error
	CountLivePosts(ctx context.Context, ruleID string) (int, error)
}

// ITemplateRepository stores schedule templates.
type ITemplateRepository interface {
	CreateTemplate(ctx context.Context, tpl ScheduleTemplate) error
	GetTemplate(ctx context.Context, id string) (ScheduleTemplate, error)
	ListTemplates(ctx context.Context, userID string) ([]ScheduleTemplate, error)
	IncrementTemplateUsage(ctx context.Context, id string) error
}

// IScheduleStore is the full persistence surface used by the engine.
type IScheduleStore interface {
	IRuleRepository
	IPostRepository
	ITemplateRepository

	// Materialize inserts post (when non-nil) and applies adv in one
	// transaction. A post already stored for the same rule occurrence is
	// kept and not duplicated.
	Materialize(ctx context.Context, post *ScheduledPost, adv RuleAdvance) (created bool, err error)
	// ReconcileOccurrences sets the rule counter to the number of live posts
	// referencing it and returns the corrected value.
	ReconcileOccurrences(ctx context.Context, ruleID string) (int, error)
}

// IContentStore is the read-only content lookup. Missing items return
// ErrContentMissing.
type IContentStore interface {
	GetContent(ctx context.Context, id string) (Content, error)
}

// IAudienceProvider returns engagement peaks for a user on a platform.
type IAudienceProvider interface {
	PeakHours(ctx context.Context, userID, platform string) ([]PeakHour, error)
}

// IPerformanceProvider returns historically best posting hours, best first.
type IPerformanceProvider interface {
	BestHours(ctx context.Context, userID, platform string) ([]int, error)
}
