package application

import (
	"context"
	"testing"

	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/pkg/workerpool"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkScheduleOptimized(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedPost(t, store, "busy", "instagram", jan(2, 9), domain.PostStatusScheduled)

	pool := workerpool.New(2, 8)
	pool.Start(ctx)
	t.Cleanup(pool.Stop)

	detector := NewConflictDetector(store, 0)
	content := &fakeContent{items: map[string]domain.Content{
		"c1": {ID: "c1", Title: "First", Tags: []string{"go"}},
		"c2": {ID: "c2", Title: "Second"},
	}}
	opt := NewScheduleOptimizer(nil, nil, store, content, detector, NewConflictResolver(detector, store, 0), pool,
		timeutils.NewFakeClock(jan(1, 10)), OptimizerConfig{})

	res, err := opt.BulkScheduleOptimized(ctx, BulkRequest{
		UserID:     "user-1",
		ContentIDs: []string{"c1", "c2", "missing"},
		Platforms:  []string{"instagram"},
		StartDate:  jan(2, 0),
		Frequency:  domain.FrequencyDaily,
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, 1, res.Optimized)
	assert.Equal(t, 1, res.Scheduled)
	assert.Equal(t, 1, res.Failed)

	moved := res.Items[0]
	assert.Equal(t, BulkOptimized, moved.Outcome)
	require.NotNil(t, moved.ScheduledAt)
	assert.Equal(t, jan(2, 12), *moved.ScheduledAt)
	assert.Equal(t, 1, moved.Conflicts)

	plain := res.Items[1]
	assert.Equal(t, BulkScheduled, plain.Outcome)
	assert.Equal(t, jan(3, 9), *plain.ScheduledAt)
	assert.Equal(t, 48, plain.OptimizationScore)

	assert.Equal(t, BulkFailed, res.Items[2].Outcome)
	assert.Contains(t, res.Items[2].Error, "content not found")

	stored, err := store.GetPost(ctx, moved.PostID)
	require.NoError(t, err)
	assert.True(t, stored.ConflictResolved)
	assert.Equal(t, []string{"#go"}, stored.Hashtags)
	assert.Equal(t, "First", stored.Text)
}

func TestBulkScheduleOptimized_WithoutPool(t *testing.T) {
	store := newTestStore(t)
	detector := NewConflictDetector(store, 0)
	opt := NewScheduleOptimizer(nil, nil, store, nil, detector, NewConflictResolver(detector, store, 0), nil,
		timeutils.NewFakeClock(jan(1, 10)), OptimizerConfig{})

	res, err := opt.BulkScheduleOptimized(context.Background(), BulkRequest{
		UserID:     "user-1",
		ContentIDs: []string{"a", "b"},
		Platforms:  []string{"linkedin", "twitter"},
		StartDate:  jan(2, 0),
		Frequency:  domain.FrequencyWeekly,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Scheduled)

	// Weekly spacing puts the second item seven days later.
	assert.Equal(t, 9, res.Items[2].ScheduledAt.Day())
}
