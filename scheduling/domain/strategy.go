package domain

import (
	"fmt"
	"strings"
	"time"
)

// Strategy is the closed set of conflict resolution strategies.
type Strategy uint8

const (
	StrategyAuto Strategy = iota + 1
	StrategyDelay
	StrategyAdvance
)

func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategyDelay:
		return "delay"
	case StrategyAdvance:
		return "advance"
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

func (s Strategy) MarshalText() ([]byte, error) {
	if s < StrategyAuto || s > StrategyAdvance {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStrategy, s)
	}
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStrategy accepts auto, delay or advance. Empty means auto.
func ParseStrategy(value string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return StrategyAuto, nil
	case "delay":
		return StrategyDelay, nil
	case "advance":
		return StrategyAdvance, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStrategy, value)
}

// Conflict is another post occupying the window around a candidate.
type Conflict struct {
	PostID       string    `json:"post_id"`
	ContentID    string    `json:"content_id"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	DeltaMinutes int       `json:"delta_minutes"`
}

// ConflictReport is the result of a detection run.
type ConflictReport struct {
	HasConflict bool       `json:"has_conflict"`
	Count       int        `json:"count"`
	Conflicts   []Conflict `json:"conflicts"`
}

// Resolution is the outcome of applying a strategy.
type Resolution struct {
	Resolved   bool      `json:"resolved"`
	Strategy   Strategy  `json:"strategy"`
	Original   time.Time `json:"original"`
	NewInstant time.Time `json:"new_instant"`
	Attempts   int       `json:"attempts"`
	Conflicts  int       `json:"conflicts_resolved"`
	Message    string    `json:"message,omitempty"`
}
