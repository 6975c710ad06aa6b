package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
)

const optimalScoreThreshold = 70

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

type HealthIssue struct {
	Type           string   `json:"type"`
	Severity       Severity `json:"severity"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
}

type HealthReport struct {
	UserID               string         `json:"user_id"`
	WindowDays           int            `json:"window_days"`
	TotalPosts           int            `json:"total_posts"`
	ConflictRate         float64        `json:"conflict_rate"`
	OptimalTimeUsage     float64        `json:"optimal_time_usage"`
	PlatformDistribution map[string]int `json:"platform_distribution"`
	DayDistribution      map[string]int `json:"day_distribution"`
	HourDistribution     map[int]int    `json:"hour_distribution"`
	OverallScore         int            `json:"overall_score"`
	Issues               []HealthIssue  `json:"issues"`
	Warnings             []HealthIssue  `json:"warnings"`
	Recommendations      []string       `json:"recommendations"`
	NextPostAt           *time.Time     `json:"next_post_at,omitempty"`
}

// ScheduleHealthMonitor is a read-only aggregator over upcoming posts.
type ScheduleHealthMonitor struct {
	posts domain.IPostRepository
	clock timeutils.Clock
}

func NewScheduleHealthMonitor(posts domain.IPostRepository, clock timeutils.Clock) *ScheduleHealthMonitor {
	if clock == nil {
		clock = timeutils.RealClock{}
	}
	return &ScheduleHealthMonitor{posts: posts, clock: clock}
}

// Check scores the user's scheduled and pending posts for the next days.
func (m *ScheduleHealthMonitor) Check(ctx context.Context, userID string, days int) (HealthReport, error) {
	if days <= 0 {
		days = 7
	}
	now := m.clock.Now()
	posts, err := m.posts.ListPosts(ctx, domain.PostFilter{
		UserID:   userID,
		From:     now,
		To:       now.AddDate(0, 0, days),
		Statuses: domain.ConflictingStatuses,
	})
	if err != nil {
		return HealthReport{}, err
	}
	report := BuildHealthReport(posts)
	report.UserID = userID
	report.WindowDays = days
	return report, nil
}

// BuildHealthReport computes the diagnostics for posts.
func BuildHealthReport(posts []domain.ScheduledPost) HealthReport {
	report := HealthReport{
		TotalPosts:           len(posts),
		PlatformDistribution: map[string]int{},
		DayDistribution:      map[string]int{},
		HourDistribution:     map[int]int{},
		Issues:               []HealthIssue{},
		Warnings:             []HealthIssue{},
		Recommendations:      []string{},
	}
	if len(posts) == 0 {
		report.Recommendations = append(report.Recommendations, "No posts scheduled in this window.")
	}

	conflicted, optimal := 0, 0
	for _, p := range posts {
		if p.HasConflict || p.ConflictResolved {
			conflicted++
		}
		if p.OptimizationScore != nil && *p.OptimizationScore > optimalScoreThreshold {
			optimal++
		}
		local := p.ScheduledAt
		if loc, err := timeutils.LoadLocation(p.Timezone); err == nil {
			local = local.In(loc)
		}
		report.PlatformDistribution[p.Platform]++
		report.DayDistribution[local.Weekday().String()]++
		report.HourDistribution[local.Hour()]++
		if report.NextPostAt == nil || p.ScheduledAt.Before(*report.NextPostAt) {
			at := p.ScheduledAt
			report.NextPostAt = &at
		}
	}

	// Rates and imbalance stay zero for an empty window.
	imbalance := 0.0
	if total := float64(len(posts)); total > 0 {
		report.ConflictRate = round1(float64(conflicted) / total * 100)
		report.OptimalTimeUsage = round1(float64(optimal) / total * 100)

		avg := total / float64(len(report.PlatformDistribution))
		deviation := 0.0
		for _, count := range report.PlatformDistribution {
			deviation += math.Abs(float64(count) - avg)
		}
		imbalance = deviation / total * 20
	}

	overall := 100 - report.ConflictRate*0.5 - (100-report.OptimalTimeUsage)*0.3 - imbalance
	report.OverallScore = int(math.Max(0, math.Round(overall)))

	if report.ConflictRate > 10 {
		report.Issues = append(report.Issues, HealthIssue{
			Type:           "conflicts",
			Severity:       SeverityHigh,
			Message:        fmt.Sprintf("%.1f%% of posts have conflicts", report.ConflictRate),
			Recommendation: "Review and resolve scheduling conflicts",
		})
	}
	if report.OptimalTimeUsage < 70 {
		report.Warnings = append(report.Warnings, HealthIssue{
			Type:           "optimization",
			Severity:       SeverityMedium,
			Message:        fmt.Sprintf("Only %.1f%% of posts use optimal times", report.OptimalTimeUsage),
			Recommendation: "Consider using schedule optimization",
		})
	}
	if report.OverallScore < 70 {
		report.Recommendations = append(report.Recommendations, "Schedule health is below optimal. Review recommendations and optimize.")
	}
	return report
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
