// Package recurrence turns a recurrence rule into concrete future instants.
//
// All wall-clock math happens in the rule's time zone. Each configured time of
// day is resolved independently and the results are merged chronologically.
package recurrence

import (
	"fmt"
	"time"

	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
)

// DefaultMaxIterations bounds the correction loop of a single lookup.
const DefaultMaxIterations = 400

// Calculator is pure: it holds no state besides its iteration cap.
type Calculator struct {
	MaxIterations int
}

func NewCalculator(maxIterations int) *Calculator {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Calculator{MaxIterations: maxIterations}
}

type plan struct {
	frequency  domain.Frequency
	interval   int
	days       map[time.Weekday]bool
	dayOfMonth int
	loc        *time.Location
	times      []timeutils.ClockTime
}

func compile(rule domain.RecurrenceRule, from time.Time) (plan, error) {
	if !rule.Frequency.Valid() {
		return plan{}, fmt.Errorf("%w: unknown frequency %q", domain.ErrInvalidRule, rule.Frequency)
	}
	if len(rule.Times) == 0 {
		return plan{}, fmt.Errorf("%w: at least one time is required", domain.ErrInvalidRule)
	}
	times, err := timeutils.ParseClocks(rule.Times)
	if err != nil {
		return plan{}, fmt.Errorf("%w: %v", domain.ErrInvalidRule, err)
	}
	loc, err := timeutils.LoadLocation(rule.Timezone)
	if err != nil {
		return plan{}, fmt.Errorf("%w: %v", domain.ErrInvalidRule, err)
	}

	p := plan{
		frequency:  rule.Frequency,
		interval:   rule.Interval,
		days:       map[time.Weekday]bool{},
		dayOfMonth: rule.DayOfMonth,
		loc:        loc,
		times:      times,
	}
	for _, d := range rule.DaysOfWeek {
		p.days[time.Weekday(d)] = true
	}

	anchor := rule.StartDate
	if anchor.IsZero() {
		anchor = from
	}
	if p.frequency == domain.FrequencyWeekly && len(p.days) == 0 {
		p.days[anchor.In(loc).Weekday()] = true
	}
	if p.frequency == domain.FrequencyMonthly && p.dayOfMonth == 0 {
		p.dayOfMonth = anchor.In(loc).Day()
	}
	return p, nil
}

// NextOccurrence returns the earliest instant strictly after from, across all
// configured times of day.
func (c *Calculator) NextOccurrence(rule domain.RecurrenceRule, from time.Time) (time.Time, error) {
	p, err := compile(rule, from)
	if err != nil {
		return time.Time{}, err
	}

	var best time.Time
	for _, tod := range p.times {
		next, err := c.next(p, tod, from)
		if err != nil {
			return time.Time{}, fmt.Errorf("rule %s at %s: %w", rule.ID, tod, err)
		}
		if best.IsZero() || next.Before(best) {
			best = next
		}
	}
	return best.UTC(), nil
}

// NextForTime resolves a single time of day.
func (c *Calculator) NextForTime(rule domain.RecurrenceRule, clock string, from time.Time) (time.Time, error) {
	p, err := compile(rule, from)
	if err != nil {
		return time.Time{}, err
	}
	tod, err := timeutils.ParseClock(clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", domain.ErrInvalidRule, err)
	}
	next, err := c.next(p, tod, from)
	if err != nil {
		return time.Time{}, err
	}
	return next.UTC(), nil
}

// Upcoming lists up to n occurrences after from in chronological order,
// stopping at the rule's end date and remaining occurrence budget.
func (c *Calculator) Upcoming(rule domain.RecurrenceRule, from time.Time, n int) ([]time.Time, error) {
	if rule.MaxOccurrences > 0 {
		if left := rule.MaxOccurrences - rule.CurrentOccurrence; left < n {
			n = left
		}
	}

	out := make([]time.Time, 0, max(n, 0))
	cursor := from
	for len(out) < n {
		next, err := c.NextOccurrence(rule, cursor)
		if err != nil {
			return out, err
		}
		if rule.EndDate != nil && next.After(*rule.EndDate) {
			break
		}
		out = append(out, next)
		cursor = next
	}
	return out, nil
}

func (c *Calculator) next(p plan, tod timeutils.ClockTime, from time.Time) (time.Time, error) {
	limit := c.MaxIterations
	if limit <= 0 {
		limit = DefaultMaxIterations
	}

	candidate := p.first(tod, from.In(p.loc))
	for i := 0; i < limit; i++ {
		if p.eligible(candidate) && candidate.After(from) {
			return candidate, nil
		}
		candidate = p.advance(candidate, tod)
	}
	return time.Time{}, domain.ErrRecurrenceExhausted
}

// first is the candidate inside the period that contains local.
func (p plan) first(tod timeutils.ClockTime, local time.Time) time.Time {
	y, m, d := local.Date()
	if p.frequency == domain.FrequencyMonthly {
		d = timeutils.ClampDay(y, m, p.dayOfMonth)
	}
	return timeutils.WallClock(y, m, d, tod, p.loc)
}

func (p plan) eligible(candidate time.Time) bool {
	switch p.frequency {
	case domain.FrequencyWeekly:
		return p.days[candidate.Weekday()]
	case domain.FrequencyCustom:
		return len(p.days) == 0 || p.days[candidate.Weekday()]
	}
	return true
}

func (p plan) advance(candidate time.Time, tod timeutils.ClockTime) time.Time {
	y, m, d := candidate.In(p.loc).Date()

	switch p.frequency {
	case domain.FrequencyWeekly:
		next := time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
		if next.Weekday() == time.Sunday {
			next = next.AddDate(0, 0, 7*(p.interval-1))
		}
		y, m, d = next.Date()
	case domain.FrequencyMonthly:
		y, m, d = timeutils.AddMonthsClamped(y, m, p.dayOfMonth, p.interval)
	default:
		y, m, d = time.Date(y, m, d+p.interval, 0, 0, 0, 0, time.UTC).Date()
	}
	return timeutils.WallClock(y, m, d, tod, p.loc)
}
