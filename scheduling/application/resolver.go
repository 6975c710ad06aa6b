package application

import (
	"context"
	"fmt"
	"time"

	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/sirupsen/logrus"
)

const (
	DefaultResolveAttempts = 10
	autoStep               = time.Hour
	fixedShift             = 2 * time.Hour
)

// ConflictResolver moves a conflicting post to a free slot.
type ConflictResolver struct {
	detector    *ConflictDetector
	posts       domain.IPostRepository
	maxAttempts int
}

func NewConflictResolver(detector *ConflictDetector, posts domain.IPostRepository, maxAttempts int) *ConflictResolver {
	if maxAttempts <= 0 {
		maxAttempts = DefaultResolveAttempts
	}
	return &ConflictResolver{detector: detector, posts: posts, maxAttempts: maxAttempts}
}

// Propose computes the resolution without writing anything.
func (r *ConflictResolver) Propose(ctx context.Context, post domain.ScheduledPost, strategy domain.Strategy) (domain.Resolution, error) {
	res := domain.Resolution{
		Strategy:   strategy,
		Original:   post.ScheduledAt,
		NewInstant: post.ScheduledAt,
	}

	switch strategy {
	case domain.StrategyDelay:
		res.Resolved = true
		res.Attempts = 1
		res.NewInstant = post.ScheduledAt.Add(fixedShift)
		res.Message = "Post delayed by 2 hours"
		return res, nil

	case domain.StrategyAdvance:
		res.Resolved = true
		res.Attempts = 1
		res.NewInstant = post.ScheduledAt.Add(-fixedShift)
		res.Message = "Post advanced by 2 hours"
		return res, nil

	case domain.StrategyAuto:
		initial, err := r.detector.Detect(ctx, post.UserID, post.Platform, post.ScheduledAt, post.ID)
		if err != nil {
			return res, err
		}
		res.Conflicts = initial.Count
		if !initial.HasConflict {
			res.Resolved = true
			res.Message = "No conflicts found"
			return res, nil
		}

		for attempt := 1; attempt <= r.maxAttempts; attempt++ {
			candidate := post.ScheduledAt.Add(time.Duration(attempt) * autoStep)
			res.Attempts = attempt
			report, err := r.detector.Detect(ctx, post.UserID, post.Platform, candidate, post.ID)
			if err != nil {
				return res, err
			}
			if !report.HasConflict {
				res.Resolved = true
				res.NewInstant = candidate
				res.Message = fmt.Sprintf("Moved %d hour(s) later to avoid %d conflict(s)", attempt, initial.Count)
				return res, nil
			}
		}
		res.Message = fmt.Sprintf("No free slot found within %d attempts", r.maxAttempts)
		return res, nil
	}

	return res, fmt.Errorf("%w: %s", domain.ErrInvalidStrategy, strategy)
}

// Resolve applies strategy to a stored post. On success the new instant is
// persisted with conflictResolved set. An exhausted search leaves the post
// untouched and returns ErrConflictUnresolved with the resolution.
func (r *ConflictResolver) Resolve(ctx context.Context, post domain.ScheduledPost, strategy domain.Strategy) (domain.Resolution, error) {
	res, err := r.Propose(ctx, post, strategy)
	if err != nil {
		return res, err
	}
	if !res.Resolved {
		logrus.WithFields(logrus.Fields{
			"post_id":  post.ID,
			"platform": post.Platform,
			"attempts": res.Attempts,
		}).Warn("[CONFLICT] Resolution budget exhausted")
		return res, domain.ErrConflictUnresolved
	}
	if res.NewInstant.Equal(res.Original) {
		return res, nil
	}

	if err := r.posts.UpdateInstant(ctx, post.ID, res.NewInstant, true); err != nil {
		return res, err
	}
	logrus.Infof("[CONFLICT] Post %s moved from %s to %s (%s)",
		post.ID, res.Original.Format(time.RFC3339), res.NewInstant.Format(time.RFC3339), strategy)
	return res, nil
}
