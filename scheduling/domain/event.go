package domain

import (
	"context"
	"time"
)

type EventType string

const (
	EventPostScheduled EventType = "post.scheduled"
	EventPostMoved     EventType = "post.moved"
	EventRuleCompleted EventType = "rule.completed"
	EventRulePaused    EventType = "rule.paused"
	EventSweepFinished EventType = "sweep.finished"
	EventSweepFailed   EventType = "sweep.failed"
)

// Event is a fire-and-forget notification.
type Event struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"user_id,omitempty"`
	RuleID    string    `json:"rule_id,omitempty"`
	PostID    string    `json:"post_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// INotifier delivers events. Implementations must not block the caller for
// long and must never fail the scheduling operation.
type INotifier interface {
	Notify(ctx context.Context, evt Event)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}
