package application

import (
	"context"
	"math"

	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
)

type ScheduleAnalytics struct {
	PeriodDays         int            `json:"period_days"`
	TotalPosts         int            `json:"total_posts"`
	ByStatus           map[string]int `json:"by_status"`
	ByPlatform         map[string]int `json:"by_platform"`
	ByDayOfWeek        map[string]int `json:"by_day_of_week"`
	ByHour             map[int]int    `json:"by_hour"`
	AveragePostsPerDay float64        `json:"average_posts_per_day"`
	OptimalTimeUsage   float64        `json:"optimal_time_usage"`
	ConflictRate       float64        `json:"conflict_rate"`
}

// Analytics summarizes every post of the user scheduled in the last
// periodDays days and onwards.
func Analytics(ctx context.Context, posts domain.IPostRepository, clock timeutils.Clock, userID string, periodDays int) (ScheduleAnalytics, error) {
	if periodDays <= 0 {
		periodDays = 30
	}
	since := clock.Now().AddDate(0, 0, -periodDays)
	list, err := posts.ListPosts(ctx, domain.PostFilter{UserID: userID, From: since})
	if err != nil {
		return ScheduleAnalytics{}, err
	}

	out := ScheduleAnalytics{
		PeriodDays:  periodDays,
		TotalPosts:  len(list),
		ByStatus:    map[string]int{},
		ByPlatform:  map[string]int{},
		ByDayOfWeek: map[string]int{},
		ByHour:      map[int]int{},
	}
	optimal, resolved := 0, 0
	for _, p := range list {
		out.ByStatus[string(p.Status)]++
		out.ByPlatform[p.Platform]++
		out.ByDayOfWeek[p.ScheduledAt.Weekday().String()]++
		out.ByHour[p.ScheduledAt.Hour()]++
		if p.OptimizationScore != nil && *p.OptimizationScore > optimalScoreThreshold {
			optimal++
		}
		if p.ConflictResolved {
			resolved++
		}
	}
	if len(list) > 0 {
		total := float64(len(list))
		out.AveragePostsPerDay = math.Round(total/float64(periodDays)*100) / 100
		out.OptimalTimeUsage = round1(float64(optimal) / total * 100)
		out.ConflictRate = round1(float64(resolved) / total * 100)
	}
	return out, nil
}
