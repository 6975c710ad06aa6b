package application

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/sirupsen/logrus"
)

const maxSuggestions = 20

var defaultSuggestionPlatforms = []string{"instagram", "twitter", "linkedin", "facebook"}

// --- Suggestions ---

type SuggestionRequest struct {
	UserID    string   `json:"user_id"`
	Days      int      `json:"days"`
	Platforms []string `json:"platforms"`
	MinPerDay int      `json:"min_per_day"`
	Timezone  string   `json:"timezone"`
}

type Suggestion struct {
	Date          string            `json:"date"`
	Platform      string            `json:"platform"`
	SuggestedTime time.Time         `json:"suggested_time"`
	Score         int               `json:"score"`
	Confidence    domain.Confidence `json:"confidence"`
	Reason        string            `json:"reason"`
}

type SuggestionResult struct {
	Suggestions     []Suggestion `json:"suggestions"`
	Total           int          `json:"total"`
	Recommendations []string     `json:"recommendations"`
}

// Suggestions finds days and platforms with fewer than MinPerDay upcoming
// posts and proposes the best slot for each.
func (o *ScheduleOptimizer) Suggestions(ctx context.Context, req SuggestionRequest) (SuggestionResult, error) {
	if req.Days <= 0 {
		req.Days = o.cfg.DefaultRangeDays
	}
	if len(req.Platforms) == 0 {
		req.Platforms = defaultSuggestionPlatforms
	}
	if req.MinPerDay <= 0 {
		req.MinPerDay = 1
	}
	loc, err := timeutils.LoadLocation(req.Timezone)
	if err != nil {
		return SuggestionResult{}, err
	}

	now := o.clock.Now()
	upcoming, err := o.posts.ListPosts(ctx, domain.PostFilter{
		UserID:   req.UserID,
		From:     now,
		To:       now.AddDate(0, 0, req.Days),
		Statuses: domain.ConflictingStatuses,
	})
	if err != nil {
		return SuggestionResult{}, err
	}
	counts := map[string]int{}
	for _, p := range upcoming {
		counts[p.Platform+"|"+p.ScheduledAt.In(loc).Format(time.DateOnly)]++
	}

	var out []Suggestion
	perPlatform := map[string]int{}
	ny, nm, nd := now.In(loc).Date()
	for _, platform := range req.Platforms {
		sig := o.loadSignals(ctx, req.UserID, platform)
		clocks, _ := timeutils.ParseClocks(PlatformTimes(platform))
		for i := 0; i < req.Days; i++ {
			y, m, d := time.Date(ny, nm, nd+i, 0, 0, 0, 0, time.UTC).Date()
			date := fmt.Sprintf("%04d-%02d-%02d", y, m, d)
			have := counts[platform+"|"+date]
			if have >= req.MinPerDay {
				continue
			}
			dayStart := timeutils.WallClock(y, m, d, timeutils.ClockTime{}, loc)
			dayEnd := timeutils.WallClock(y, m, d, timeutils.ClockTime{Hour: 23, Minute: 59}, loc)
			cands := o.candidates(dayStart, dayEnd, now, loc, clocks, platform, false, sig)
			if len(cands) == 0 {
				continue
			}
			best := cands[0]
			perPlatform[platform]++
			out = append(out, Suggestion{
				Date:          date,
				Platform:      platform,
				SuggestedTime: best.Instant,
				Score:         best.Score,
				Confidence:    best.Confidence,
				Reason:        fmt.Sprintf("Only %d post(s) scheduled. Recommended: %d more.", have, req.MinPerDay-have),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	total := len(out)
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}

	res := SuggestionResult{Suggestions: out, Total: total}
	if total == 0 {
		res.Suggestions = []Suggestion{}
		res.Recommendations = []string{"Your schedule looks balanced. No immediate suggestions."}
		return res, nil
	}
	top, topCount := "", 0
	for _, platform := range req.Platforms {
		if perPlatform[platform] > topCount {
			top, topCount = platform, perPlatform[platform]
		}
	}
	res.Recommendations = []string{
		fmt.Sprintf("Consider scheduling more content for %s - %d opportunities identified.", top, topCount),
		fmt.Sprintf("Total scheduling opportunities: %d", total),
	}
	return res, nil
}

// --- Auto reschedule ---

type RescheduleResult struct {
	PostID              string     `json:"post_id"`
	Rescheduled         bool       `json:"rescheduled"`
	OldTime             time.Time  `json:"old_time"`
	NewTime             *time.Time `json:"new_time,omitempty"`
	Reason              string     `json:"reason"`
	ExpectedImprovement string     `json:"expected_improvement,omitempty"`
}

const rescheduledScore = 85

// AutoReschedule moves a post to the user's historically best hour of the
// same day when it is more than two hours away and the slot is free.
func (o *ScheduleOptimizer) AutoReschedule(ctx context.Context, postID string) (RescheduleResult, error) {
	post, err := o.posts.GetPost(ctx, postID)
	if err != nil {
		return RescheduleResult{}, err
	}
	if !occupiesSlot(post.Status) {
		return RescheduleResult{}, fmt.Errorf("%w: post is %s", domain.ErrInvalidStatus, post.Status)
	}
	res := RescheduleResult{PostID: post.ID, OldTime: post.ScheduledAt}

	var hours []int
	if o.performance != nil {
		hours, err = o.performance.BestHours(ctx, post.UserID, post.Platform)
		if err != nil {
			logrus.WithError(err).Warnf("[OPTIMIZER] Performance history unavailable for post %s", post.ID)
		}
	}
	if len(hours) == 0 {
		res.Reason = "Insufficient performance data"
		return res, nil
	}

	loc, err := timeutils.LoadLocation(post.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := post.ScheduledAt.In(loc)
	best := hours[0]
	diff := absInt(local.Hour() - best)
	if diff <= 2 {
		res.Reason = "Already at optimal time or conflicts detected"
		return res, nil
	}

	y, m, d := local.Date()
	candidate := timeutils.WallClock(y, m, d, timeutils.ClockTime{Hour: best}, loc)
	if !candidate.After(o.clock.Now()) {
		res.Reason = fmt.Sprintf("Optimal hour (%d:00) has already passed on the post's day", best)
		return res, nil
	}
	report, err := o.detector.Detect(ctx, post.UserID, post.Platform, candidate, post.ID)
	if err != nil {
		return res, err
	}
	if report.HasConflict {
		res.Reason = "Already at optimal time or conflicts detected"
		return res, nil
	}

	scoreValue := rescheduledScore
	post.ScheduledAt = candidate
	post.OptimizationScore = &scoreValue
	post.UpdatedAt = o.clock.Now()
	if err := o.posts.UpdatePost(ctx, post); err != nil {
		return res, err
	}

	res.Rescheduled = true
	res.NewTime = &candidate
	res.Reason = fmt.Sprintf("Rescheduled to optimal hour (%d:00) based on performance data", best)
	res.ExpectedImprovement = fmt.Sprintf("Expected %d%% engagement increase", diff*5)
	return res, nil
}

// --- Preview ---

type PreviewRequest struct {
	UserID     string           `json:"user_id"`
	ContentIDs []string         `json:"content_ids"`
	Platforms  []string         `json:"platforms"`
	Frequency  domain.Frequency `json:"frequency"`
	StartDate  time.Time        `json:"start_date"`
	Days       int              `json:"days"`
	Timezone   string           `json:"timezone"`
}

type PreviewPost struct {
	ContentID   string    `json:"content_id"`
	Platform    string    `json:"platform"`
	ScheduledAt time.Time `json:"scheduled_at"`
	HasConflict bool      `json:"has_conflict"`
}

type PreviewResult struct {
	Posts                []PreviewPost  `json:"posts"`
	TotalPosts           int            `json:"total_posts"`
	Conflicts            int            `json:"conflicts"`
	PlatformDistribution map[string]int `json:"platform_distribution"`
	DayDistribution      map[string]int `json:"day_distribution"`
	Recommendations      []string       `json:"recommendations"`
}

// Preview lays out a bulk schedule using each platform's first default time
// and reports likely conflicts. Nothing is written.
func (o *ScheduleOptimizer) Preview(ctx context.Context, req PreviewRequest) (PreviewResult, error) {
	loc, err := timeutils.LoadLocation(req.Timezone)
	if err != nil {
		return PreviewResult{}, err
	}
	if req.Days <= 0 {
		req.Days = o.cfg.DefaultRangeDays
	}
	start := req.StartDate
	if start.IsZero() {
		start = o.clock.Now()
	}
	sy, sm, sd := start.In(loc).Date()
	step := stepFor(req.Frequency)

	res := PreviewResult{
		Posts:                []PreviewPost{},
		PlatformDistribution: map[string]int{},
		DayDistribution:      map[string]int{},
		Recommendations:      []string{},
	}

	offset, idx := 0, 0
	for ; offset <= req.Days && idx < len(req.ContentIDs); offset += step {
		y, m, d := time.Date(sy, sm, sd+offset, 0, 0, 0, 0, time.UTC).Date()
		for _, platform := range req.Platforms {
			first, err := timeutils.ParseClock(PlatformTimes(platform)[0])
			if err != nil {
				return PreviewResult{}, err
			}
			at := timeutils.WallClock(y, m, d, first, loc)
			conflict, err := o.previewConflict(ctx, req.UserID, platform, at, res.Posts)
			if err != nil {
				return PreviewResult{}, err
			}
			if conflict {
				res.Conflicts++
			}
			res.Posts = append(res.Posts, PreviewPost{ContentID: req.ContentIDs[idx], Platform: platform, ScheduledAt: at, HasConflict: conflict})
			res.PlatformDistribution[platform]++
			res.DayDistribution[at.In(loc).Weekday().String()]++
		}
		idx++
	}
	res.TotalPosts = len(res.Posts)

	if res.Conflicts > 0 {
		res.Recommendations = append(res.Recommendations, fmt.Sprintf("Warning: %d potential conflicts detected", res.Conflicts))
	}
	if remaining := req.Days - offset + 1; idx == len(req.ContentIDs) && remaining > 0 {
		res.Recommendations = append(res.Recommendations, fmt.Sprintf("Consider adding more content to fill %d days", remaining))
	}
	return res, nil
}

func (o *ScheduleOptimizer) previewConflict(ctx context.Context, userID, platform string, at time.Time, planned []PreviewPost) (bool, error) {
	for _, p := range planned {
		if p.Platform == platform && math.Abs(p.ScheduledAt.Sub(at).Hours()) < 2 {
			return true, nil
		}
	}
	report, err := o.detector.Detect(ctx, userID, platform, at, "")
	if err != nil {
		return false, err
	}
	return report.HasConflict, nil
}

// --- Optimize existing schedule ---

type OptimizationProposal struct {
	PostID      string    `json:"post_id"`
	Platform    string    `json:"platform"`
	Current     time.Time `json:"current"`
	Proposed    time.Time `json:"proposed"`
	CurrentHour int       `json:"current_hour"`
	OptimalHour int       `json:"optimal_hour"`
	Score       int       `json:"score"`
}

type OptimizeResult struct {
	Analyzed  int                    `json:"analyzed"`
	Proposals []OptimizationProposal `json:"proposals"`
}

// OptimizeSchedule proposes moving upcoming posts that sit more than an hour
// away from the platform's first optimal hour. Proposals are not applied.
func (o *ScheduleOptimizer) OptimizeSchedule(ctx context.Context, userID string, days int) (OptimizeResult, error) {
	if days <= 0 {
		days = o.cfg.DefaultRangeDays
	}
	now := o.clock.Now()
	posts, err := o.posts.ListPosts(ctx, domain.PostFilter{
		UserID:   userID,
		From:     now,
		To:       now.AddDate(0, 0, days),
		Statuses: domain.ConflictingStatuses,
	})
	if err != nil {
		return OptimizeResult{}, err
	}

	res := OptimizeResult{Analyzed: len(posts), Proposals: []OptimizationProposal{}}
	for _, p := range posts {
		optimal, err := timeutils.ParseClocks(PlatformTimes(p.Platform))
		if err != nil {
			return OptimizeResult{}, err
		}
		loc, err := timeutils.LoadLocation(p.Timezone)
		if err != nil {
			loc = time.UTC
		}
		local := p.ScheduledAt.In(loc)
		hour := local.Hour()
		diff := absInt(hour - optimal[0].Hour)
		if diff <= 1 {
			continue
		}

		value := 50 + (3-diff)*10
		for _, c := range optimal {
			if absInt(hour-c.Hour) <= 1 {
				value += 20
				break
			}
		}
		value = max(0, min(100, value))

		y, m, d := local.Date()
		res.Proposals = append(res.Proposals, OptimizationProposal{
			PostID:      p.ID,
			Platform:    p.Platform,
			Current:     p.ScheduledAt,
			Proposed:    timeutils.WallClock(y, m, d, optimal[0], loc),
			CurrentHour: hour,
			OptimalHour: optimal[0].Hour,
			Score:       value,
		})
	}
	return res, nil
}
