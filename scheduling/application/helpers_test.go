package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/Droze-svj/click-platform-sub013/scheduling/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *repository.ScheduleGormRepository {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:app_%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := repository.NewScheduleGormRepository(db)
	require.NoError(t, store.Init(context.Background()))
	return store
}

// jan returns 2024-01-<day> <hour>:00 UTC. 2024-01-01 is a Monday.
func jan(day, hour int) time.Time {
	return time.Date(2024, time.January, day, hour, 0, 0, 0, time.UTC)
}

func seedPost(t *testing.T, store domain.IPostRepository, id, platform string, at time.Time, status domain.PostStatus) domain.ScheduledPost {
	t.Helper()
	post := domain.ScheduledPost{
		ID:          id,
		UserID:      "user-1",
		ContentID:   "content-" + id,
		Platform:    platform,
		ScheduledAt: at,
		Timezone:    "UTC",
		Status:      status,
	}
	require.NoError(t, store.CreatePost(context.Background(), post))
	return post
}

type fakeContent struct {
	items map[string]domain.Content
	err   error
}

func (f *fakeContent) GetContent(_ context.Context, id string) (domain.Content, error) {
	if f.err != nil {
		return domain.Content{}, f.err
	}
	c, ok := f.items[id]
	if !ok {
		return domain.Content{}, fmt.Errorf("%w: %s", domain.ErrContentMissing, id)
	}
	return c, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.Event
}

func (n *recordingNotifier) Notify(_ context.Context, evt domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
}

func (n *recordingNotifier) count(typ domain.EventType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.Type == typ {
			c++
		}
	}
	return c
}

type fakeAudience struct {
	peaks []domain.PeakHour
	err   error
}

func (f fakeAudience) PeakHours(context.Context, string, string) ([]domain.PeakHour, error) {
	return f.peaks, f.err
}

type fakePerformance struct {
	hours []int
	err   error
}

func (f fakePerformance) BestHours(context.Context, string, string) ([]int, error) {
	return f.hours, f.err
}

var errProviderDown = errors.New("provider down")
