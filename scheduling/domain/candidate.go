package domain

import "time"

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceFor maps a 0-100 score to its band.
func ConfidenceFor(score int) Confidence {
	switch {
	case score >= 80:
		return ConfidenceHigh
	case score >= 60:
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// Factors explains how a candidate score was built.
type Factors struct {
	DayOfWeek        time.Weekday `json:"day_of_week"`
	Hour             int          `json:"hour"`
	DayMultiplier    float64      `json:"day_multiplier"`
	PlatformDefault  bool         `json:"platform_default"`
	AudienceMatch    bool         `json:"audience_match"`
	AudienceBonus    float64      `json:"audience_bonus"`
	PerformanceMatch bool         `json:"performance_match"`
	WeekendPenalty   bool         `json:"weekend_penalty"`
	OffHoursPenalty  bool         `json:"off_hours_penalty"`
}

// CandidateInstant is a scored posting time. It is never persisted.
type CandidateInstant struct {
	Instant    time.Time  `json:"instant"`
	Score      int        `json:"score"`
	Confidence Confidence `json:"confidence"`
	Factors    Factors    `json:"factors"`
}

// PeakHour is one audience engagement peak.
type PeakHour struct {
	Hour  int     `json:"hour"`
	Share float64 `json:"share"` // percentage 0-100
}
