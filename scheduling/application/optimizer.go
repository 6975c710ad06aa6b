package application

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/pkg/workerpool"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/sirupsen/logrus"
)

const (
	baseScore          = 50.0
	audienceBonusMax   = 20.0
	performanceBonus   = 15.0
	b2bWeekendPenalty  = 0.7
	offHoursPenalty    = 0.5
	maxRankedCandidate = 10
)

var dayMultipliers = map[time.Weekday]float64{
	time.Sunday:    0.7,
	time.Monday:    0.9,
	time.Tuesday:   0.95,
	time.Wednesday: 0.95,
	time.Thursday:  0.9,
	time.Friday:    0.85,
	time.Saturday:  0.8,
}

var platformDefaultTimes = map[string][]string{
	"instagram": {"09:00", "13:00", "17:00"},
	"twitter":   {"08:00", "12:00", "16:00", "20:00"},
	"linkedin":  {"08:00", "12:00", "17:00"},
	"facebook":  {"09:00", "13:00", "18:00"},
}

var fallbackTimes = []string{"09:00", "13:00", "17:00"}

// PlatformTimes returns the default posting times for platform.
func PlatformTimes(platform string) []string {
	if times, ok := platformDefaultTimes[strings.ToLower(platform)]; ok {
		return times
	}
	return fallbackTimes
}

func isB2B(platform string) bool {
	p := strings.ToLower(platform)
	return p == "linkedin" || p == "twitter"
}

// PredictOptions narrows candidate generation. Zero values fall back to the
// next DefaultRangeDays days, the platform default times and UTC.
type PredictOptions struct {
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	PreferredTimes []string  `json:"preferred_times,omitempty"`
	Timezone       string    `json:"timezone,omitempty"`
}

type Prediction struct {
	UserID          string                    `json:"user_id"`
	ContentID       string                    `json:"content_id,omitempty"`
	Platform        string                    `json:"platform"`
	Best            *domain.CandidateInstant  `json:"best,omitempty"`
	Candidates      []domain.CandidateInstant `json:"candidates"`
	Recommendations []string                  `json:"recommendations"`
}

type OptimizerConfig struct {
	DefaultRangeDays int
}

// ScheduleOptimizer scores candidate instants for a user and platform.
type ScheduleOptimizer struct {
	audience    domain.IAudienceProvider
	performance domain.IPerformanceProvider
	posts       domain.IPostRepository
	content     domain.IContentStore
	detector    *ConflictDetector
	resolver    *ConflictResolver
	pool        *workerpool.Pool
	clock       timeutils.Clock
	cfg         OptimizerConfig
}

func NewScheduleOptimizer(
	audience domain.IAudienceProvider,
	performance domain.IPerformanceProvider,
	posts domain.IPostRepository,
	content domain.IContentStore,
	detector *ConflictDetector,
	resolver *ConflictResolver,
	pool *workerpool.Pool,
	clock timeutils.Clock,
	cfg OptimizerConfig,
) *ScheduleOptimizer {
	if clock == nil {
		clock = timeutils.RealClock{}
	}
	if cfg.DefaultRangeDays <= 0 {
		cfg.DefaultRangeDays = 7
	}
	return &ScheduleOptimizer{
		audience:    audience,
		performance: performance,
		posts:       posts,
		content:     content,
		detector:    detector,
		resolver:    resolver,
		pool:        pool,
		clock:       clock,
		cfg:         cfg,
	}
}

// signals holds the optional provider data for one user and platform.
type signals struct {
	peaks     []domain.PeakHour
	bestHours []int
}

func (o *ScheduleOptimizer) loadSignals(ctx context.Context, userID, platform string) signals {
	var s signals
	if o.audience != nil {
		peaks, err := o.audience.PeakHours(ctx, userID, platform)
		if err != nil {
			logrus.WithError(err).Warnf("[OPTIMIZER] Audience insights unavailable for %s/%s", userID, platform)
		} else {
			s.peaks = peaks
		}
	}
	if o.performance != nil {
		hours, err := o.performance.BestHours(ctx, userID, platform)
		if err != nil {
			logrus.WithError(err).Warnf("[OPTIMIZER] Performance history unavailable for %s/%s", userID, platform)
		} else {
			s.bestHours = hours
		}
	}
	return s
}

// score rates local, an instant expressed in the candidate's zone.
func score(local time.Time, platform string, s signals) domain.CandidateInstant {
	day := local.Weekday()
	hour := local.Hour()
	f := domain.Factors{
		DayOfWeek:     day,
		Hour:          hour,
		DayMultiplier: dayMultipliers[day],
	}

	value := baseScore * f.DayMultiplier

	for _, peak := range s.peaks {
		if absInt(peak.Hour-hour) <= 1 {
			share := math.Max(0, math.Min(100, peak.Share))
			f.AudienceMatch = true
			f.AudienceBonus = audienceBonusMax * share / 100
			value += f.AudienceBonus
			break
		}
	}
	for _, h := range s.bestHours {
		if h == hour {
			f.PerformanceMatch = true
			value += performanceBonus
			break
		}
	}
	if isB2B(platform) && (day == time.Saturday || day == time.Sunday) {
		f.WeekendPenalty = true
		value *= b2bWeekendPenalty
	}
	if hour < 6 || hour >= 23 {
		f.OffHoursPenalty = true
		value *= offHoursPenalty
	}

	final := int(math.Round(math.Max(0, math.Min(100, value))))
	return domain.CandidateInstant{
		Instant:    local.UTC(),
		Score:      final,
		Confidence: domain.ConfidenceFor(final),
		Factors:    f,
	}
}

// PredictOptimalTime ranks every day in the range against the preferred or
// platform default times. Candidates at or before now are skipped.
func (o *ScheduleOptimizer) PredictOptimalTime(ctx context.Context, userID, contentID, platform string, opts PredictOptions) (Prediction, error) {
	loc, err := timeutils.LoadLocation(opts.Timezone)
	if err != nil {
		return Prediction{}, err
	}
	times := opts.PreferredTimes
	preferred := len(times) > 0
	if !preferred {
		times = PlatformTimes(platform)
	}
	clocks, err := timeutils.ParseClocks(times)
	if err != nil {
		return Prediction{}, err
	}

	now := o.clock.Now()
	from := opts.From
	if from.IsZero() {
		from = now
	}
	to := opts.To
	if to.IsZero() {
		to = from.AddDate(0, 0, o.cfg.DefaultRangeDays)
	}

	sig := o.loadSignals(ctx, userID, platform)
	candidates := o.candidates(from, to, now, loc, clocks, platform, preferred, sig)

	pred := Prediction{
		UserID:     userID,
		ContentID:  contentID,
		Platform:   platform,
		Candidates: candidates,
	}
	if len(candidates) > maxRankedCandidate {
		pred.Candidates = candidates[:maxRankedCandidate]
	}
	if len(candidates) > 0 {
		best := candidates[0]
		pred.Best = &best
	}
	pred.Recommendations = predictionRecommendations(pred.Best, platform)
	return pred, nil
}

func (o *ScheduleOptimizer) candidates(from, to, now time.Time, loc *time.Location, clocks []timeutils.ClockTime, platform string, preferred bool, sig signals) []domain.CandidateInstant {
	var out []domain.CandidateInstant
	fy, fm, fd := from.In(loc).Date()
	for i := 0; ; i++ {
		y, m, d := time.Date(fy, fm, fd+i, 0, 0, 0, 0, time.UTC).Date()
		if timeutils.WallClock(y, m, d, timeutils.ClockTime{}, loc).After(to) {
			break
		}
		for _, c := range clocks {
			instant := timeutils.WallClock(y, m, d, c, loc)
			if !instant.After(now) || instant.Before(from) || instant.After(to) {
				continue
			}
			cand := score(instant.In(loc), platform, sig)
			cand.Factors.PlatformDefault = !preferred
			out = append(out, cand)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Instant.Before(out[j].Instant)
	})
	return out
}

func predictionRecommendations(best *domain.CandidateInstant, platform string) []string {
	if best == nil {
		return []string{"No candidate times in the requested range"}
	}
	var recs []string
	switch {
	case best.Score > 80:
		recs = append(recs, "Excellent time slot - high engagement expected")
	case best.Score > 60:
		recs = append(recs, "Good time slot - moderate engagement expected")
	default:
		recs = append(recs, "Consider rescheduling for better engagement")
	}
	if best.Factors.WeekendPenalty {
		recs = append(recs, "Weekend posting on "+strings.ToLower(platform)+" typically sees lower engagement")
	}
	return recs
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
