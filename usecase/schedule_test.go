package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	domainScheduling "github.com/Droze-svj/click-platform-sub013/domains/scheduling"
	pkgError "github.com/Droze-svj/click-platform-sub013/pkg/error"
	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/application"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/Droze-svj/click-platform-sub013/scheduling/recurrence"
	"github.com/Droze-svj/click-platform-sub013/scheduling/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *repository.ScheduleGormRepository {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:usecase_%s?mode=memory&cache=shared", name)), &gorm.Config{
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

type fakeContent map[string]domain.Content

func (f fakeContent) GetContent(_ context.Context, id string) (domain.Content, error) {
	c, ok := f[id]
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

func (n *recordingNotifier) types() []domain.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.EventType, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

type fakeSweeper struct {
	res application.SweepResult
	err error
}

func (f fakeSweeper) RunOnce(context.Context) (application.SweepResult, error) {
	return f.res, f.err
}

type scheduleFixture struct {
	store    *repository.ScheduleGormRepository
	clock    *timeutils.FakeClock
	notifier *recordingNotifier
	service  domainScheduling.IScheduleUsecase
}

func newScheduleFixture(t *testing.T, sweeper ISweepRunner) scheduleFixture {
	t.Helper()
	store := newTestStore(t)
	clock := timeutils.NewFakeClock(jan(1, 10))
	notifier := &recordingNotifier{}
	content := fakeContent{
		"c1": {ID: "c1", Title: "<b>Launch</b> day", Tags: []string{"go", "#Go", "tips"}},
		"c2": {ID: "c2", Description: "Second item"},
	}
	detector := application.NewConflictDetector(store, 0)
	resolver := application.NewConflictResolver(detector, store, 0)
	service := NewScheduleService(
		store,
		content,
		recurrence.NewCalculator(0),
		detector,
		resolver,
		application.NewCalendarExporter(store, content, clock),
		sweeper,
		notifier,
		clock,
	)
	return scheduleFixture{store: store, clock: clock, notifier: notifier, service: service}
}

func dailyRule() domainScheduling.CreateRuleRequest {
	return domainScheduling.CreateRuleRequest{
		UserID:    "user-1",
		ContentID: "c1",
		Platform:  "twitter",
		Name:      "Morning tip",
		Frequency: domain.FrequencyDaily,
		Times:     []string{"09:00"},
		StartDate: jan(1, 0),
	}
}

func TestCreateRule_ComputesFirstOccurrence(t *testing.T) {
	f := newScheduleFixture(t, nil)
	ctx := context.Background()

	res, err := f.service.CreateRule(ctx, dailyRule())
	require.NoError(t, err)

	rule := res.Rule
	assert.NotEmpty(t, rule.ID)
	assert.Equal(t, domain.RuleStatusActive, rule.Status)
	assert.Equal(t, 1, rule.Interval)
	assert.Equal(t, "UTC", rule.Timezone)
	require.NotNil(t, rule.NextScheduledAt)
	assert.Equal(t, jan(2, 9), *rule.NextScheduledAt)
	assert.Equal(t, []time.Time{jan(2, 9), jan(3, 9), jan(4, 9), jan(5, 9), jan(6, 9)}, res.Upcoming)

	stored, err := f.store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.NextScheduledAt)
	assert.True(t, stored.NextScheduledAt.Equal(jan(2, 9)))
	assert.Zero(t, stored.CurrentOccurrence)

	// Nothing is materialized until the sweep runs.
	posts, err := f.store.ListPosts(ctx, domain.PostFilter{RuleID: rule.ID})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestCreateRule_FutureStartUsesStartDate(t *testing.T) {
	f := newScheduleFixture(t, nil)
	req := dailyRule()
	req.StartDate = jan(10, 9)

	res, err := f.service.CreateRule(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, jan(10, 9), *res.Rule.NextScheduledAt)
}

func TestCreateRule_Invalid(t *testing.T) {
	f := newScheduleFixture(t, nil)

	req := dailyRule()
	req.Times = nil
	_, err := f.service.CreateRule(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidRule)

	req = dailyRule()
	req.Timezone = "Mars/Olympus"
	_, err = f.service.CreateRule(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidRule)

	req = dailyRule()
	end := jan(1, 8)
	req.EndDate = &end
	_, err = f.service.CreateRule(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidRule)
	assert.Contains(t, err.Error(), "end_date")
}

func TestRuleLifecycle(t *testing.T) {
	f := newScheduleFixture(t, nil)
	ctx := context.Background()

	created, err := f.service.CreateRule(ctx, dailyRule())
	require.NoError(t, err)
	id := created.Rule.ID

	paused, err := f.service.PauseRule(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.RuleStatusPaused, paused.Status)
	assert.Equal(t, 1, paused.Version)
	assert.Contains(t, f.notifier.types(), domain.EventRulePaused)

	again, err := f.service.PauseRule(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, paused.Version, again.Version)

	f.clock.Set(jan(5, 10))
	resumed, err := f.service.ResumeRule(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.RuleStatusActive, resumed.Status)
	assert.Equal(t, jan(6, 9), *resumed.NextScheduledAt)
	assert.False(t, resumed.NeedsReview)

	_, err = f.service.ResumeRule(ctx, id)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	require.NoError(t, f.service.CancelRule(ctx, id))
	_, err = f.service.PauseRule(ctx, id)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	got, err := f.service.GetRule(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.RuleStatusCancelled, got.Rule.Status)
	assert.Empty(t, got.Upcoming)

	assert.ErrorIs(t, f.service.CancelRule(ctx, "missing"), domain.ErrRuleNotFound)
}

func TestUpdateRule_RecomputesNext(t *testing.T) {
	f := newScheduleFixture(t, nil)
	ctx := context.Background()

	created, err := f.service.CreateRule(ctx, dailyRule())
	require.NoError(t, err)

	times := []string{"18:00"}
	name := "Evening tip"
	updated, err := f.service.UpdateRule(ctx, created.Rule.ID, domainScheduling.UpdateRuleRequest{Times: &times, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, jan(1, 18), *updated.Rule.NextScheduledAt)
	assert.Equal(t, "Evening tip", updated.Rule.Name)

	stored, err := f.store.GetRule(ctx, created.Rule.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"18:00"}, stored.Times)
	assert.Equal(t, 1, stored.Version)

	bad := []string{"25:00"}
	_, err = f.service.UpdateRule(ctx, created.Rule.ID, domainScheduling.UpdateRuleRequest{Times: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidRule)
}

func TestListRules_FiltersByStatus(t *testing.T) {
	f := newScheduleFixture(t, nil)
	ctx := context.Background()

	a, err := f.service.CreateRule(ctx, dailyRule())
	require.NoError(t, err)
	_, err = f.service.CreateRule(ctx, dailyRule())
	require.NoError(t, err)
	_, err = f.service.PauseRule(ctx, a.Rule.ID)
	require.NoError(t, err)

	all, err := f.service.ListRules(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	paused, err := f.service.ListRules(ctx, "user-1", "paused")
	require.NoError(t, err)
	require.Len(t, paused, 1)
	assert.Equal(t, a.Rule.ID, paused[0].ID)
}

func TestSchedulePost_NormalizesZone(t *testing.T) {
	f := newScheduleFixture(t, nil)

	res, err := f.service.SchedulePost(context.Background(), domainScheduling.SchedulePostRequest{
		UserID:    "user-1",
		ContentID: "c1",
		Platform:  "instagram",
		Date:      "2024-01-02",
		Time:      "09:00",
		Timezone:  "America/New_York",
	})
	require.NoError(t, err)

	post := res.Post
	assert.Equal(t, jan(2, 14), post.ScheduledAt)
	assert.Equal(t, "America/New_York", post.Timezone)
	assert.Equal(t, "Launch day", post.Text)
	assert.Equal(t, []string{"#go", "#tips"}, post.Hashtags)
	assert.False(t, res.Conflicts.HasConflict)
	assert.Nil(t, res.Resolution)
	assert.Equal(t, []domain.EventType{domain.EventPostScheduled}, f.notifier.types())

	stored, err := f.service.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PostStatusScheduled, stored.Status)
}

func TestSchedulePost_Conflicts(t *testing.T) {
	f := newScheduleFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.store.CreatePost(ctx, domain.ScheduledPost{
		ID: "busy", UserID: "user-1", ContentID: "c2", Platform: "twitter",
		ScheduledAt: jan(2, 14), Timezone: "UTC", Status: domain.PostStatusScheduled,
	}))
	req := domainScheduling.SchedulePostRequest{
		UserID: "user-1", ContentID: "c1", Platform: "twitter", Date: "2024-01-02", Time: "14:00",
	}

	flagged, err := f.service.SchedulePost(ctx, req)
	require.NoError(t, err)
	assert.True(t, flagged.Post.HasConflict)
	assert.False(t, flagged.Post.ConflictResolved)
	assert.Equal(t, 1, flagged.Conflicts.Count)
	assert.Equal(t, jan(2, 14), flagged.Post.ScheduledAt)

	req.Time = "15:00"
	req.ResolveStrategy = "delay"
	moved, err := f.service.SchedulePost(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, moved.Resolution)
	assert.True(t, moved.Post.ConflictResolved)
	assert.Equal(t, jan(2, 17), moved.Post.ScheduledAt)
}

func TestSchedulePost_UnresolvedConflictKeepsRequestedTime(t *testing.T) {
	f := newScheduleFixture(t, nil)
	ctx := context.Background()
	for i := 0; i < 13; i++ {
		require.NoError(t, f.store.CreatePost(ctx, domain.ScheduledPost{
			ID: fmt.Sprintf("busy-%d", i), UserID: "user-1", ContentID: "c2", Platform: "twitter",
			ScheduledAt: jan(2, 14).Add(time.Duration(i) * time.Hour), Timezone: "UTC", Status: domain.PostStatusScheduled,
		}))
	}

	res, err := f.service.SchedulePost(ctx, domainScheduling.SchedulePostRequest{
		UserID: "user-1", ContentID: "c1", Platform: "twitter", Date: "2024-01-02", Time: "14:00", ResolveStrategy: "auto",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Resolution)
	assert.False(t, res.Resolution.Resolved)
	assert.NotEmpty(t, res.Post.ID)
	assert.True(t, res.Post.HasConflict)
	assert.False(t, res.Post.ConflictResolved)
	assert.Equal(t, jan(2, 14), res.Post.ScheduledAt)

	stored, err := f.store.GetPost(ctx, res.Post.ID)
	require.NoError(t, err)
	assert.True(t, stored.ScheduledAt.Equal(jan(2, 14)))
	assert.True(t, stored.HasConflict)
	assert.False(t, stored.ConflictResolved)
	assert.Equal(t, []domain.EventType{domain.EventPostScheduled}, f.notifier.types())
}

func TestSchedulePost_Errors(t *testing.T) {
	f := newScheduleFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.SchedulePost(ctx, domainScheduling.SchedulePostRequest{UserID: "user-1", ContentID: "c1", Platform: "x", Date: "02/01/2024", Time: "09:00"})
	var verr pkgError.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.service.SchedulePost(ctx, domainScheduling.SchedulePostRequest{UserID: "user-1", ContentID: "nope", Platform: "x", Date: "2024-01-02", Time: "09:00"})
	assert.ErrorIs(t, err, domain.ErrContentMissing)
}

func TestPostStatusTransitions(t *testing.T) {
	f := newScheduleFixture(t, nil)
	ctx := context.Background()

	res, err := f.service.SchedulePost(ctx, domainScheduling.SchedulePostRequest{
		UserID: "user-1", ContentID: "c2", Platform: "linkedin", Date: "2024-01-03", Time: "10:00",
	})
	require.NoError(t, err)
	id := res.Post.ID

	failed, err := f.service.UpdatePostStatus(ctx, domainScheduling.UpdatePostStatusRequest{PostID: id, Status: "failed", Error: "token expired"})
	require.NoError(t, err)
	assert.Equal(t, domain.PostStatusFailed, failed.Status)
	assert.Equal(t, "token expired", failed.Error)

	require.NoError(t, f.service.CancelPost(ctx, id))
	_, err = f.service.UpdatePostStatus(ctx, domainScheduling.UpdatePostStatusRequest{PostID: id, Status: "posted"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	cancelled, err := f.service.ListPosts(ctx, domainScheduling.ListPostsRequest{UserID: "user-1", Status: "cancelled"})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, id, cancelled[0].ID)

	assert.ErrorIs(t, f.service.CancelPost(ctx, "missing"), domain.ErrPostNotFound)
}

func TestResolvePostConflicts(t *testing.T) {
	f := newScheduleFixture(t, nil)
	ctx := context.Background()
	for _, p := range []domain.ScheduledPost{
		{ID: "a", UserID: "user-1", ContentID: "c1", Platform: "twitter", ScheduledAt: jan(6, 12), Timezone: "UTC", Status: domain.PostStatusScheduled},
		{ID: "b", UserID: "user-1", ContentID: "c2", Platform: "twitter", ScheduledAt: jan(6, 12), Timezone: "UTC", Status: domain.PostStatusScheduled},
	} {
		require.NoError(t, f.store.CreatePost(ctx, p))
	}

	report, err := f.service.DetectConflicts(ctx, domainScheduling.DetectConflictsRequest{UserID: "user-1", Platform: "twitter", At: jan(6, 12), ExcludePostID: "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count)

	res, err := f.service.ResolvePostConflicts(ctx, domainScheduling.ResolveConflictsRequest{PostID: "b", Strategy: "auto"})
	require.NoError(t, err)
	assert.Equal(t, jan(6, 15), res.NewInstant)
	assert.Contains(t, f.notifier.types(), domain.EventPostMoved)

	stored, err := f.store.GetPost(ctx, "b")
	require.NoError(t, err)
	assert.True(t, stored.ScheduledAt.Equal(jan(6, 15)))
	assert.True(t, stored.ConflictResolved)

	_, err = f.service.ResolvePostConflicts(ctx, domainScheduling.ResolveConflictsRequest{PostID: "b", Strategy: "sideways"})
	assert.ErrorIs(t, err, domain.ErrInvalidStrategy)
}

func TestApplyTemplate(t *testing.T) {
	f := newScheduleFixture(t, nil)
	ctx := context.Background()

	tpl, err := f.service.CreateTemplate(ctx, domainScheduling.CreateTemplateRequest{
		UserID:         "user-1",
		Name:           "Weekday mornings",
		Platforms:      []string{"twitter", "linkedin"},
		Frequency:      domain.FrequencyDaily,
		Times:          []string{"09:00"},
		PreferredTimes: map[string][]string{"linkedin": {"08:00", "12:00"}},
		IsDefault:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, "UTC", tpl.Timezone)

	require.NoError(t, f.store.CreatePost(ctx, domain.ScheduledPost{
		ID: "busy", UserID: "user-1", ContentID: "other", Platform: "twitter",
		ScheduledAt: jan(3, 9), Timezone: "UTC", Status: domain.PostStatusScheduled,
	}))

	res, err := f.service.ApplyTemplate(ctx, domainScheduling.ApplyTemplateRequest{
		UserID:     "user-1",
		TemplateID: tpl.ID,
		ContentIDs: []string{"c1", "c2", "missing"},
		StartDate:  "2024-01-02",
	})
	require.NoError(t, err)

	// c1 on Jan 2: twitter 09:00, linkedin 08:00 and 12:00.
	// c2 on Jan 3: twitter 09:00 is taken, linkedin 08:00 and 12:00.
	assert.Len(t, res.Created, 5)
	require.Len(t, res.Skipped, 2)
	assert.Equal(t, "twitter", res.Skipped[0].Platform)
	assert.Equal(t, jan(3, 9), res.Skipped[0].At)
	assert.Equal(t, "missing", res.Skipped[1].ContentID)

	for _, p := range res.Created {
		assert.Equal(t, tpl.ID, p.TemplateID)
	}
	assert.Equal(t, jan(2, 9), res.Created[0].ScheduledAt)
	assert.Equal(t, jan(2, 8), res.Created[1].ScheduledAt)

	templates, err := f.service.ListTemplates(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, 1, templates[0].UsageCount)

	_, err = f.service.ApplyTemplate(ctx, domainScheduling.ApplyTemplateRequest{UserID: "user-2", TemplateID: tpl.ID, ContentIDs: []string{"c1"}})
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestApplyTemplate_AllowConflicts(t *testing.T) {
	f := newScheduleFixture(t, nil)
	ctx := context.Background()

	tpl, err := f.service.CreateTemplate(ctx, domainScheduling.CreateTemplateRequest{
		UserID: "user-1", Name: "Weekly", Platforms: []string{"twitter"}, Frequency: domain.FrequencyWeekly, Times: []string{"09:00"},
	})
	require.NoError(t, err)
	require.NoError(t, f.store.CreatePost(ctx, domain.ScheduledPost{
		ID: "busy", UserID: "user-1", ContentID: "other", Platform: "twitter",
		ScheduledAt: jan(9, 9), Timezone: "UTC", Status: domain.PostStatusScheduled,
	}))

	res, err := f.service.ApplyTemplate(ctx, domainScheduling.ApplyTemplateRequest{
		UserID: "user-1", TemplateID: tpl.ID, ContentIDs: []string{"c1", "c2"}, StartDate: "2024-01-02", AllowConflicts: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Created, 2)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, jan(9, 9), res.Created[1].ScheduledAt)
	assert.True(t, res.Created[1].HasConflict)
}

type flakyContent struct {
	fakeContent
	down string
}

func (f flakyContent) GetContent(ctx context.Context, id string) (domain.Content, error) {
	if id == f.down {
		return domain.Content{}, domain.ErrStoreUnavailable
	}
	return f.fakeContent.GetContent(ctx, id)
}

// rejectingPosts fails post writes for one platform.
type rejectingPosts struct {
	*repository.ScheduleGormRepository
	platform string
}

func (r rejectingPosts) CreatePost(ctx context.Context, post domain.ScheduledPost) error {
	if post.Platform == r.platform {
		return domain.ErrStoreUnavailable
	}
	return r.ScheduleGormRepository.CreatePost(ctx, post)
}

func TestApplyTemplate_ItemFailuresAreIsolated(t *testing.T) {
	ctx := context.Background()
	base := newTestStore(t)
	store := rejectingPosts{ScheduleGormRepository: base, platform: "linkedin"}
	clock := timeutils.NewFakeClock(jan(1, 10))
	content := flakyContent{
		fakeContent: fakeContent{"c1": {ID: "c1", Title: "One"}, "c3": {ID: "c3", Title: "Three"}},
		down:        "c2",
	}
	detector := application.NewConflictDetector(store, 0)
	service := NewScheduleService(store, content, nil, detector, application.NewConflictResolver(detector, store, 0),
		application.NewCalendarExporter(store, content, clock), nil, nil, clock)

	tpl, err := service.CreateTemplate(ctx, domainScheduling.CreateTemplateRequest{
		UserID: "user-1", Name: "Daily", Platforms: []string{"twitter", "linkedin"}, Frequency: domain.FrequencyDaily, Times: []string{"09:00"},
	})
	require.NoError(t, err)

	res, err := service.ApplyTemplate(ctx, domainScheduling.ApplyTemplateRequest{
		UserID: "user-1", TemplateID: tpl.ID, ContentIDs: []string{"c1", "c2", "c3"}, StartDate: "2024-01-02",
	})
	require.NoError(t, err)

	// c1 on Jan 2 and c3 on Jan 4 keep their twitter slots.
	require.Len(t, res.Created, 2)
	assert.Equal(t, jan(2, 9), res.Created[0].ScheduledAt)
	assert.Equal(t, "c3", res.Created[1].ContentID)
	assert.Equal(t, jan(4, 9), res.Created[1].ScheduledAt)

	require.Len(t, res.Skipped, 3)
	assert.Equal(t, "linkedin", res.Skipped[0].Platform)
	assert.Equal(t, jan(2, 9), res.Skipped[0].At)
	assert.Equal(t, "c2", res.Skipped[1].ContentID)
	assert.Contains(t, res.Skipped[1].Reason, domain.ErrStoreUnavailable.Error())
	assert.Equal(t, "linkedin", res.Skipped[2].Platform)

	posts, err := base.ListPosts(ctx, domain.PostFilter{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestExportCalendar(t *testing.T) {
	f := newScheduleFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.SchedulePost(ctx, domainScheduling.SchedulePostRequest{
		UserID: "user-1", ContentID: "c1", Platform: "twitter", Date: "2024-01-02", Time: "09:00",
	})
	require.NoError(t, err)

	raw, err := f.service.ExportCalendar(ctx, domainScheduling.ExportCalendarRequest{UserID: "user-1"})
	require.NoError(t, err)
	assert.Contains(t, string(raw), "BEGIN:VEVENT")
	assert.Contains(t, string(raw), "Launch day")

	_, err = f.service.ExportCalendar(ctx, domainScheduling.ExportCalendarRequest{})
	var verr pkgError.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRunSweep(t *testing.T) {
	disabled := newScheduleFixture(t, nil)
	_, err := disabled.service.RunSweep(context.Background())
	var unavailable pkgError.UnavailableError
	assert.ErrorAs(t, err, &unavailable)

	busy := newScheduleFixture(t, fakeSweeper{err: application.ErrSweepInProgress})
	_, err = busy.service.RunSweep(context.Background())
	var conflict pkgError.ConflictError
	assert.ErrorAs(t, err, &conflict)

	ok := newScheduleFixture(t, fakeSweeper{res: application.SweepResult{Processed: 2, Created: 2}})
	res, err := ok.service.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
}
