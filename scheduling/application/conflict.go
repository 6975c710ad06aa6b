package application

import (
	"context"
	"sort"
	"time"

	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
)

const DefaultConflictWindow = 2 * time.Hour

// ConflictDetector reports scheduled or pending posts of the same user and
// platform inside a symmetric window around a candidate instant.
type ConflictDetector struct {
	posts  domain.IPostRepository
	window time.Duration
}

func NewConflictDetector(posts domain.IPostRepository, window time.Duration) *ConflictDetector {
	if window <= 0 {
		window = DefaultConflictWindow
	}
	return &ConflictDetector{posts: posts, window: window}
}

func (d *ConflictDetector) Window() time.Duration { return d.window }

// Detect lists conflicts for candidate, ignoring excludePostID. The window
// bounds are inclusive.
func (d *ConflictDetector) Detect(ctx context.Context, userID, platform string, candidate time.Time, excludePostID string) (domain.ConflictReport, error) {
	posts, err := d.posts.FindByUserPlatformRange(ctx, userID, platform, candidate.Add(-d.window), candidate.Add(d.window))
	if err != nil {
		return domain.ConflictReport{}, err
	}

	report := domain.ConflictReport{Conflicts: []domain.Conflict{}}
	for _, p := range posts {
		if p.ID == excludePostID && excludePostID != "" {
			continue
		}
		if !occupiesSlot(p.Status) {
			continue
		}
		delta := p.ScheduledAt.Sub(candidate)
		if delta < 0 {
			delta = -delta
		}
		if delta > d.window {
			continue
		}
		report.Conflicts = append(report.Conflicts, domain.Conflict{
			PostID:       p.ID,
			ContentID:    p.ContentID,
			ScheduledAt:  p.ScheduledAt,
			DeltaMinutes: int(delta.Round(time.Minute) / time.Minute),
		})
	}

	sort.SliceStable(report.Conflicts, func(i, j int) bool {
		return report.Conflicts[i].DeltaMinutes < report.Conflicts[j].DeltaMinutes
	})
	report.Count = len(report.Conflicts)
	report.HasConflict = report.Count > 0
	return report, nil
}

func occupiesSlot(status domain.PostStatus) bool {
	for _, s := range domain.ConflictingStatuses {
		if s == status {
			return true
		}
	}
	return false
}
