package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_WindowBoundsAreInclusive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedPost(t, store, "p1", "twitter", jan(2, 12), domain.PostStatusScheduled)

	detector := NewConflictDetector(store, 0)

	report, err := detector.Detect(ctx, "user-1", "twitter", jan(2, 14), "")
	require.NoError(t, err)
	assert.True(t, report.HasConflict)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, 120, report.Conflicts[0].DeltaMinutes)

	report, err = detector.Detect(ctx, "user-1", "twitter", jan(2, 14).Add(time.Minute), "")
	require.NoError(t, err)
	assert.False(t, report.HasConflict)
	assert.Empty(t, report.Conflicts)

	report, err = detector.Detect(ctx, "user-1", "twitter", jan(2, 10), "")
	require.NoError(t, err)
	assert.True(t, report.HasConflict)
}

func TestDetect_IsSymmetric(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a := seedPost(t, store, "a", "instagram", jan(3, 12), domain.PostStatusScheduled)
	b := seedPost(t, store, "b", "instagram", jan(3, 13).Add(30*time.Minute), domain.PostStatusPending)

	detector := NewConflictDetector(store, 0)

	fromA, err := detector.Detect(ctx, "user-1", "instagram", a.ScheduledAt, a.ID)
	require.NoError(t, err)
	fromB, err := detector.Detect(ctx, "user-1", "instagram", b.ScheduledAt, b.ID)
	require.NoError(t, err)

	require.Equal(t, 1, fromA.Count)
	require.Equal(t, 1, fromB.Count)
	assert.Equal(t, "b", fromA.Conflicts[0].PostID)
	assert.Equal(t, "a", fromB.Conflicts[0].PostID)
	assert.Equal(t, fromA.Conflicts[0].DeltaMinutes, fromB.Conflicts[0].DeltaMinutes)
}

func TestDetect_IgnoresFinishedPostsAndOtherPlatforms(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedPost(t, store, "posted", "twitter", jan(4, 12), domain.PostStatusPosted)
	seedPost(t, store, "cancelled", "twitter", jan(4, 12), domain.PostStatusCancelled)
	seedPost(t, store, "failed", "twitter", jan(4, 12), domain.PostStatusFailed)
	seedPost(t, store, "other", "linkedin", jan(4, 12), domain.PostStatusScheduled)

	report, err := NewConflictDetector(store, 0).Detect(ctx, "user-1", "twitter", jan(4, 12), "")
	require.NoError(t, err)
	assert.False(t, report.HasConflict)
	assert.Zero(t, report.Count)
}

func TestPropose_FixedShifts(t *testing.T) {
	store := newTestStore(t)
	resolver := NewConflictResolver(NewConflictDetector(store, 0), store, 0)
	post := domain.ScheduledPost{ID: "x", UserID: "user-1", Platform: "twitter", ScheduledAt: jan(5, 12)}

	delayed, err := resolver.Propose(context.Background(), post, domain.StrategyDelay)
	require.NoError(t, err)
	assert.True(t, delayed.Resolved)
	assert.Equal(t, 1, delayed.Attempts)
	assert.Equal(t, jan(5, 14), delayed.NewInstant)

	advanced, err := resolver.Propose(context.Background(), post, domain.StrategyAdvance)
	require.NoError(t, err)
	assert.Equal(t, jan(5, 10), advanced.NewInstant)
}

func TestPropose_AutoWithoutConflictKeepsInstant(t *testing.T) {
	store := newTestStore(t)
	resolver := NewConflictResolver(NewConflictDetector(store, 0), store, 0)
	post := domain.ScheduledPost{ID: "x", UserID: "user-1", Platform: "twitter", ScheduledAt: jan(5, 12)}

	res, err := resolver.Propose(context.Background(), post, domain.StrategyAuto)
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.Zero(t, res.Attempts)
	assert.Equal(t, post.ScheduledAt, res.NewInstant)
}

func TestPropose_AutoMovesForwardToFirstFreeHour(t *testing.T) {
	store := newTestStore(t)
	seedPost(t, store, "busy", "twitter", jan(6, 12), domain.PostStatusScheduled)
	resolver := NewConflictResolver(NewConflictDetector(store, 0), store, 0)
	post := domain.ScheduledPost{ID: "new", UserID: "user-1", Platform: "twitter", ScheduledAt: jan(6, 12)}

	res, err := resolver.Propose(context.Background(), post, domain.StrategyAuto)
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, jan(6, 15), res.NewInstant)
	assert.True(t, res.NewInstant.After(res.Original))
}

func TestPropose_AutoGivesUpAfterBudget(t *testing.T) {
	store := newTestStore(t)
	for h := 0; h <= 14; h++ {
		seedPost(t, store, fmt.Sprintf("busy-%d", h), "twitter", jan(7, 6).Add(time.Duration(h)*time.Hour), domain.PostStatusScheduled)
	}
	resolver := NewConflictResolver(NewConflictDetector(store, 0), store, 0)
	post := seedPost(t, store, "mine", "twitter", jan(7, 6), domain.PostStatusScheduled)

	res, err := resolver.Resolve(context.Background(), post, domain.StrategyAuto)
	assert.ErrorIs(t, err, domain.ErrConflictUnresolved)
	assert.False(t, res.Resolved)
	assert.Equal(t, DefaultResolveAttempts, res.Attempts)
	assert.Equal(t, post.ScheduledAt, res.NewInstant)

	stored, err := store.GetPost(context.Background(), "mine")
	require.NoError(t, err)
	assert.True(t, stored.ScheduledAt.Equal(jan(7, 6)))
	assert.False(t, stored.ConflictResolved)
}

func TestResolve_PersistsNewInstant(t *testing.T) {
	store := newTestStore(t)
	seedPost(t, store, "p1", "twitter", jan(8, 12), domain.PostStatusScheduled)
	p2 := seedPost(t, store, "p2", "twitter", jan(8, 12).Add(30*time.Minute), domain.PostStatusScheduled)
	resolver := NewConflictResolver(NewConflictDetector(store, 0), store, 0)

	res, err := resolver.Resolve(context.Background(), p2, domain.StrategyAuto)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, jan(8, 14).Add(30*time.Minute), res.NewInstant)

	stored, err := store.GetPost(context.Background(), "p2")
	require.NoError(t, err)
	assert.True(t, stored.ScheduledAt.Equal(res.NewInstant))
	assert.True(t, stored.ConflictResolved)
}

func TestPropose_UnknownStrategy(t *testing.T) {
	store := newTestStore(t)
	resolver := NewConflictResolver(NewConflictDetector(store, 0), store, 0)

	_, err := resolver.Propose(context.Background(), domain.ScheduledPost{ScheduledAt: jan(1, 9)}, domain.Strategy(42))
	assert.ErrorIs(t, err, domain.ErrInvalidStrategy)
}
