package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/pkg/workerpool"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/sirupsen/logrus"
)

type BulkOutcome string

const (
	BulkScheduled  BulkOutcome = "scheduled"
	BulkOptimized  BulkOutcome = "optimized" // moved off a conflict
	BulkConflicted BulkOutcome = "conflicted"
	BulkFailed     BulkOutcome = "failed"
)

type BulkRequest struct {
	UserID     string
	ContentIDs []string
	Platforms  []string
	StartDate  time.Time
	Frequency  domain.Frequency // daily or weekly step between content items
	Timezone   string
}

type BulkItemResult struct {
	ContentID         string      `json:"content_id"`
	Platform          string      `json:"platform"`
	Outcome           BulkOutcome `json:"outcome"`
	PostID            string      `json:"post_id,omitempty"`
	ScheduledAt       *time.Time  `json:"scheduled_at,omitempty"`
	OptimizationScore int         `json:"optimization_score,omitempty"`
	Conflicts         int         `json:"conflicts,omitempty"`
	Error             string      `json:"error,omitempty"`
}

type BulkResult struct {
	Items      []BulkItemResult `json:"items"`
	Scheduled  int              `json:"scheduled"`
	Optimized  int              `json:"optimized"`
	Conflicted int              `json:"conflicted"`
	Failed     int              `json:"failed"`
}

func stepFor(freq domain.Frequency) int {
	if freq == domain.FrequencyWeekly {
		return 7
	}
	return 1
}

// BulkScheduleOptimized schedules every content item on every platform at the
// best candidate of its day. Items run on the worker pool keyed by
// user|platform so writes for one slot owner are serialized.
func (o *ScheduleOptimizer) BulkScheduleOptimized(ctx context.Context, req BulkRequest) (BulkResult, error) {
	loc, err := timeutils.LoadLocation(req.Timezone)
	if err != nil {
		return BulkResult{}, err
	}
	start := req.StartDate
	if start.IsZero() {
		start = o.clock.Now()
	}
	sy, sm, sd := start.In(loc).Date()
	step := stepFor(req.Frequency)

	// Provider data is per platform, load it once.
	sigs := make(map[string]signals, len(req.Platforms))
	for _, platform := range req.Platforms {
		sigs[platform] = o.loadSignals(ctx, req.UserID, platform)
	}

	results := make([]BulkItemResult, 0, len(req.ContentIDs)*len(req.Platforms))
	var jobs []workerpool.Job
	var mu sync.Mutex
	for i, contentID := range req.ContentIDs {
		y, m, d := time.Date(sy, sm, sd+i*step, 0, 0, 0, 0, time.UTC).Date()
		for _, platform := range req.Platforms {
			slot := len(results)
			results = append(results, BulkItemResult{ContentID: contentID, Platform: platform})
			jobs = append(jobs, workerpool.Job{
				Key: req.UserID + "|" + platform,
				Handler: func(ctx context.Context) error {
					item := o.scheduleOne(ctx, req.UserID, contentID, platform, y, m, d, loc, sigs[platform])
					mu.Lock()
					results[slot] = item
					mu.Unlock()
					if item.Outcome == BulkFailed || item.Outcome == BulkConflicted {
						return errors.New(item.Error)
					}
					return nil
				},
			})
		}
	}

	if o.pool != nil {
		errs := o.pool.Batch(ctx, jobs)
		for i, err := range errs {
			if err != nil && results[i].Outcome == "" {
				results[i].Outcome = BulkFailed
				results[i].Error = err.Error()
			}
		}
	} else {
		for _, job := range jobs {
			_ = job.Handler(ctx)
		}
	}

	out := BulkResult{Items: results}
	for _, item := range results {
		switch item.Outcome {
		case BulkScheduled:
			out.Scheduled++
		case BulkOptimized:
			out.Optimized++
		case BulkConflicted:
			out.Conflicted++
		default:
			out.Failed++
		}
	}
	logrus.Infof("[OPTIMIZER] Bulk schedule for %s: %d scheduled, %d optimized, %d conflicted, %d failed",
		req.UserID, out.Scheduled, out.Optimized, out.Conflicted, out.Failed)
	return out, nil
}

func (o *ScheduleOptimizer) scheduleOne(ctx context.Context, userID, contentID, platform string, y int, m time.Month, d int, loc *time.Location, sig signals) BulkItemResult {
	item := BulkItemResult{ContentID: contentID, Platform: platform}
	fail := func(outcome BulkOutcome, err error) BulkItemResult {
		item.Outcome = outcome
		item.Error = err.Error()
		return item
	}

	var content domain.Content
	if o.content != nil {
		c, err := o.content.GetContent(ctx, contentID)
		if err != nil {
			return fail(BulkFailed, err)
		}
		content = c
	}

	clocks, _ := timeutils.ParseClocks(PlatformTimes(platform))
	dayStart := timeutils.WallClock(y, m, d, timeutils.ClockTime{}, loc)
	dayEnd := timeutils.WallClock(y, m, d, timeutils.ClockTime{Hour: 23, Minute: 59}, loc)
	cands := o.candidates(dayStart, dayEnd, o.clock.Now(), loc, clocks, platform, false, sig)
	if len(cands) == 0 {
		return fail(BulkFailed, fmt.Errorf("no future slot on %04d-%02d-%02d", y, m, d))
	}
	best := cands[0]

	post := NewPost(content, userID, platform, best.Instant, loc.String(), o.clock.Now())
	post.ContentID = contentID

	report, err := o.detector.Detect(ctx, userID, platform, best.Instant, "")
	if err != nil {
		return fail(BulkFailed, err)
	}
	item.Conflicts = report.Count
	item.Outcome = BulkScheduled
	if report.HasConflict {
		post.HasConflict = true
		res, err := o.resolver.Propose(ctx, post, domain.StrategyAuto)
		if err != nil {
			return fail(BulkFailed, err)
		}
		if !res.Resolved {
			return fail(BulkConflicted, domain.ErrConflictUnresolved)
		}
		post.ScheduledAt = res.NewInstant
		post.ConflictResolved = true
		item.Outcome = BulkOptimized
	}

	scoreValue := score(post.ScheduledAt.In(loc), platform, sig).Score
	post.OptimizationScore = &scoreValue
	if err := o.posts.CreatePost(ctx, post); err != nil {
		return fail(BulkFailed, err)
	}

	item.PostID = post.ID
	at := post.ScheduledAt
	item.ScheduledAt = &at
	item.OptimizationScore = scoreValue
	return item
}
