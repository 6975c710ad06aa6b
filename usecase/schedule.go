package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainScheduling "github.com/Droze-svj/click-platform-sub013/domains/scheduling"
	pkgError "github.com/Droze-svj/click-platform-sub013/pkg/error"
	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/application"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/Droze-svj/click-platform-sub013/scheduling/recurrence"
	"github.com/Droze-svj/click-platform-sub013/validations"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const upcomingPreview = 5

// ISweepRunner runs one guarded sweep on demand.
type ISweepRunner interface {
	RunOnce(ctx context.Context) (application.SweepResult, error)
}

type serviceSchedule struct {
	store    domain.IScheduleStore
	content  domain.IContentStore
	calc     *recurrence.Calculator
	detector *application.ConflictDetector
	resolver *application.ConflictResolver
	exporter *application.CalendarExporter
	sweeper  ISweepRunner
	notifier domain.INotifier
	clock    timeutils.Clock
}

func NewScheduleService(
	store domain.IScheduleStore,
	content domain.IContentStore,
	calc *recurrence.Calculator,
	detector *application.ConflictDetector,
	resolver *application.ConflictResolver,
	exporter *application.CalendarExporter,
	sweeper ISweepRunner,
	notifier domain.INotifier,
	clock timeutils.Clock,
) domainScheduling.IScheduleUsecase {
	if calc == nil {
		calc = recurrence.NewCalculator(0)
	}
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	if clock == nil {
		clock = timeutils.RealClock{}
	}
	return &serviceSchedule{
		store:    store,
		content:  content,
		calc:     calc,
		detector: detector,
		resolver: resolver,
		exporter: exporter,
		sweeper:  sweeper,
		notifier: notifier,
		clock:    clock,
	}
}

// Rules

func (service serviceSchedule) CreateRule(ctx context.Context, request domainScheduling.CreateRuleRequest) (domainScheduling.RuleResponse, error) {
	now := service.clock.Now()
	rule := domain.RecurrenceRule{
		ID:             uuid.NewString(),
		UserID:         request.UserID,
		ContentID:      request.ContentID,
		Platform:       request.Platform,
		Name:           request.Name,
		Description:    request.Description,
		Frequency:      request.Frequency,
		Interval:       request.Interval,
		DaysOfWeek:     request.DaysOfWeek,
		DayOfMonth:     request.DayOfMonth,
		Times:          request.Times,
		Timezone:       request.Timezone,
		StartDate:      request.StartDate.UTC(),
		EndDate:        request.EndDate,
		MaxOccurrences: request.MaxOccurrences,
		Status:         domain.RuleStatusActive,
		AutoRefresh:    request.AutoRefresh,
		AutoResolve:    request.AutoResolve,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if rule.Interval == 0 {
		rule.Interval = 1
	}
	if rule.Timezone == "" {
		rule.Timezone = "UTC"
	}
	if err := validations.ValidateRule(ctx, rule); err != nil {
		return domainScheduling.RuleResponse{}, err
	}

	next, err := service.firstOccurrence(rule, now)
	if err != nil {
		return domainScheduling.RuleResponse{}, err
	}
	rule.NextScheduledAt = &next

	if err := service.store.CreateRule(ctx, rule); err != nil {
		return domainScheduling.RuleResponse{}, err
	}
	logrus.WithFields(logrus.Fields{
		"rule_id":  rule.ID,
		"user_id":  rule.UserID,
		"platform": rule.Platform,
	}).Infof("[SCHEDULE] Rule created, first occurrence %s", next.Format(time.RFC3339))

	return service.ruleResponse(rule), nil
}

func (service serviceSchedule) UpdateRule(ctx context.Context, id string, request domainScheduling.UpdateRuleRequest) (domainScheduling.RuleResponse, error) {
	rule, err := service.store.GetRule(ctx, id)
	if err != nil {
		return domainScheduling.RuleResponse{}, err
	}
	if rule.Status.Terminal() {
		return domainScheduling.RuleResponse{}, fmt.Errorf("%w: rule is %s", domain.ErrInvalidStatus, rule.Status)
	}

	if request.Name != nil {
		rule.Name = *request.Name
	}
	if request.Description != nil {
		rule.Description = *request.Description
	}
	if request.ContentID != nil {
		rule.ContentID = *request.ContentID
	}
	if request.Frequency != nil {
		rule.Frequency = *request.Frequency
	}
	if request.Interval != nil {
		rule.Interval = *request.Interval
	}
	if request.DaysOfWeek != nil {
		rule.DaysOfWeek = *request.DaysOfWeek
	}
	if request.DayOfMonth != nil {
		rule.DayOfMonth = *request.DayOfMonth
	}
	if request.Times != nil {
		rule.Times = *request.Times
	}
	if request.Timezone != nil {
		rule.Timezone = *request.Timezone
	}
	if request.EndDate != nil {
		end := request.EndDate.UTC()
		rule.EndDate = &end
	}
	if request.MaxOccurrences != nil {
		rule.MaxOccurrences = *request.MaxOccurrences
	}
	if request.AutoRefresh != nil {
		rule.AutoRefresh = *request.AutoRefresh
	}
	if request.AutoResolve != nil {
		rule.AutoResolve = *request.AutoResolve
	}
	if err := validations.ValidateRule(ctx, rule); err != nil {
		return domainScheduling.RuleResponse{}, err
	}

	now := service.clock.Now()
	if rule.Status == domain.RuleStatusActive {
		next, err := service.firstOccurrence(rule, now)
		if err != nil {
			return domainScheduling.RuleResponse{}, err
		}
		rule.NextScheduledAt = &next
	}
	rule.UpdatedAt = now

	if err := service.store.UpdateRule(ctx, rule); err != nil {
		return domainScheduling.RuleResponse{}, err
	}
	rule.Version++
	return service.ruleResponse(rule), nil
}

func (service serviceSchedule) PauseRule(ctx context.Context, id string) (domain.RecurrenceRule, error) {
	rule, err := service.store.GetRule(ctx, id)
	if err != nil {
		return domain.RecurrenceRule{}, err
	}
	if rule.Status.Terminal() {
		return domain.RecurrenceRule{}, fmt.Errorf("%w: cannot pause a %s rule", domain.ErrInvalidStatus, rule.Status)
	}
	if rule.Status == domain.RuleStatusPaused {
		return rule, nil
	}

	rule.Status = domain.RuleStatusPaused
	rule.UpdatedAt = service.clock.Now()
	if err := service.store.UpdateRule(ctx, rule); err != nil {
		return domain.RecurrenceRule{}, err
	}
	rule.Version++
	service.notifier.Notify(ctx, domain.Event{
		Type:      domain.EventRulePaused,
		UserID:    rule.UserID,
		RuleID:    rule.ID,
		Message:   "Paused by user",
		Timestamp: rule.UpdatedAt,
	})
	return rule, nil
}

// ResumeRule reactivates a paused rule from now. Occurrences missed while
// paused are not back-filled.
func (service serviceSchedule) ResumeRule(ctx context.Context, id string) (domain.RecurrenceRule, error) {
	rule, err := service.store.GetRule(ctx, id)
	if err != nil {
		return domain.RecurrenceRule{}, err
	}
	if rule.Status != domain.RuleStatusPaused {
		return domain.RecurrenceRule{}, fmt.Errorf("%w: only paused rules can be resumed, rule is %s", domain.ErrInvalidStatus, rule.Status)
	}

	now := service.clock.Now()
	if rule.Exhausted() || rule.Expired(now) {
		return domain.RecurrenceRule{}, fmt.Errorf("%w: rule has no remaining occurrences", domain.ErrInvalidStatus)
	}
	next, err := service.calc.NextOccurrence(rule, now)
	if err != nil {
		return domain.RecurrenceRule{}, err
	}
	if rule.EndDate != nil && next.After(*rule.EndDate) {
		return domain.RecurrenceRule{}, fmt.Errorf("%w: no occurrence before end_date", domain.ErrInvalidStatus)
	}

	rule.Status = domain.RuleStatusActive
	rule.NextScheduledAt = &next
	rule.NeedsReview = false
	rule.LastError = ""
	rule.UpdatedAt = now
	if err := service.store.UpdateRule(ctx, rule); err != nil {
		return domain.RecurrenceRule{}, err
	}
	rule.Version++
	return rule, nil
}

func (service serviceSchedule) CancelRule(ctx context.Context, id string) error {
	if err := service.store.CancelRule(ctx, id); err != nil {
		return err
	}
	logrus.WithField("rule_id", id).Info("[SCHEDULE] Rule cancelled")
	return nil
}

func (service serviceSchedule) GetRule(ctx context.Context, id string) (domainScheduling.RuleResponse, error) {
	rule, err := service.store.GetRule(ctx, id)
	if err != nil {
		return domainScheduling.RuleResponse{}, err
	}
	return service.ruleResponse(rule), nil
}

func (service serviceSchedule) ListRules(ctx context.Context, userID string, status string) ([]domain.RecurrenceRule, error) {
	return service.store.ListRules(ctx, userID, domain.RuleStatus(status))
}

// firstOccurrence is the earliest occurrence at or after max(startDate, now).
func (service serviceSchedule) firstOccurrence(rule domain.RecurrenceRule, now time.Time) (time.Time, error) {
	from := rule.StartDate
	if now.After(from) {
		from = now
	}
	next, err := service.calc.NextOccurrence(rule, from.Add(-time.Nanosecond))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRule) {
			return time.Time{}, err
		}
		return time.Time{}, fmt.Errorf("%w: %v", domain.ErrInvalidRule, err)
	}
	if rule.EndDate != nil && next.After(*rule.EndDate) {
		return time.Time{}, fmt.Errorf("%w: no occurrence before end_date", domain.ErrInvalidRule)
	}
	return next, nil
}

func (service serviceSchedule) ruleResponse(rule domain.RecurrenceRule) domainScheduling.RuleResponse {
	res := domainScheduling.RuleResponse{Rule: rule}
	if rule.Status != domain.RuleStatusActive || rule.NextScheduledAt == nil {
		return res
	}
	upcoming, err := service.calc.Upcoming(rule, rule.NextScheduledAt.Add(-time.Nanosecond), upcomingPreview)
	if err != nil {
		logrus.WithError(err).WithField("rule_id", rule.ID).Debug("[SCHEDULE] Upcoming preview truncated")
	}
	res.Upcoming = upcoming
	return res
}

// Posts

func (service serviceSchedule) SchedulePost(ctx context.Context, request domainScheduling.SchedulePostRequest) (domainScheduling.SchedulePostResponse, error) {
	if err := validations.ValidateSchedulePost(ctx, request); err != nil {
		return domainScheduling.SchedulePostResponse{}, err
	}

	var strategy domain.Strategy
	if request.ResolveStrategy != "" {
		parsed, err := domain.ParseStrategy(request.ResolveStrategy)
		if err != nil {
			return domainScheduling.SchedulePostResponse{}, err
		}
		strategy = parsed
	}

	loc, err := timeutils.LoadLocation(request.Timezone)
	if err != nil {
		return domainScheduling.SchedulePostResponse{}, pkgError.ValidationError(err.Error())
	}
	day, err := time.Parse("2006-01-02", request.Date)
	if err != nil {
		return domainScheduling.SchedulePostResponse{}, pkgError.ValidationError("date: must be a date in YYYY-MM-DD format")
	}
	clock, err := timeutils.ParseClock(request.Time)
	if err != nil {
		return domainScheduling.SchedulePostResponse{}, pkgError.ValidationError(err.Error())
	}
	at := timeutils.WallClock(day.Year(), day.Month(), day.Day(), clock, loc).UTC()

	content, err := service.content.GetContent(ctx, request.ContentID)
	if err != nil {
		return domainScheduling.SchedulePostResponse{}, err
	}

	now := service.clock.Now()
	post := application.NewPost(content, request.UserID, request.Platform, at, loc.String(), now)
	post.ContentID = request.ContentID

	report, err := service.detector.Detect(ctx, post.UserID, post.Platform, post.ScheduledAt, "")
	if err != nil {
		return domainScheduling.SchedulePostResponse{}, err
	}
	res := domainScheduling.SchedulePostResponse{Conflicts: report}

	if report.HasConflict {
		post.HasConflict = true
		if strategy != 0 {
			resolution, err := service.resolver.Propose(ctx, post, strategy)
			if err != nil {
				return domainScheduling.SchedulePostResponse{}, err
			}
			res.Resolution = &resolution
			if resolution.Resolved {
				post.ScheduledAt = resolution.NewInstant
				post.ConflictResolved = true
			} else {
				// Kept at the requested instant, flagged as conflicting.
				logrus.WithFields(logrus.Fields{"user_id": post.UserID, "platform": post.Platform}).
					Warnf("[CONFLICT] %s could not resolve conflict at %s, keeping requested time", strategy, post.ScheduledAt.Format(time.RFC3339))
			}
		}
	}

	if err := service.store.CreatePost(ctx, post); err != nil {
		return domainScheduling.SchedulePostResponse{}, err
	}
	res.Post = post

	service.notifier.Notify(ctx, domain.Event{
		Type:      domain.EventPostScheduled,
		UserID:    post.UserID,
		PostID:    post.ID,
		Payload:   post,
		Timestamp: now,
	})
	return res, nil
}

func (service serviceSchedule) GetPost(ctx context.Context, id string) (domain.ScheduledPost, error) {
	return service.store.GetPost(ctx, id)
}

func (service serviceSchedule) CancelPost(ctx context.Context, id string) error {
	post, err := service.store.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.Status == domain.PostStatusPosted {
		return fmt.Errorf("%w: post already published", domain.ErrInvalidStatus)
	}
	return service.store.UpdateStatus(ctx, id, domain.PostStatusCancelled)
}

func (service serviceSchedule) ListPosts(ctx context.Context, request domainScheduling.ListPostsRequest) ([]domain.ScheduledPost, error) {
	if err := validations.ValidateListPosts(ctx, request); err != nil {
		return nil, err
	}
	filter := domain.PostFilter{
		UserID:   request.UserID,
		Platform: request.Platform,
		RuleID:   request.RuleID,
		From:     request.From,
		To:       request.To,
		Limit:    request.Limit,
	}
	if request.Status != "" {
		filter.Statuses = []domain.PostStatus{domain.PostStatus(request.Status)}
	}
	return service.store.ListPosts(ctx, filter)
}

func (service serviceSchedule) DetectConflicts(ctx context.Context, request domainScheduling.DetectConflictsRequest) (domain.ConflictReport, error) {
	if request.UserID == "" || request.Platform == "" || request.At.IsZero() {
		return domain.ConflictReport{}, pkgError.ValidationError("user_id, platform and at are required")
	}
	return service.detector.Detect(ctx, request.UserID, request.Platform, request.At, request.ExcludePostID)
}

func (service serviceSchedule) ResolvePostConflicts(ctx context.Context, request domainScheduling.ResolveConflictsRequest) (domain.Resolution, error) {
	strategy, err := domain.ParseStrategy(request.Strategy)
	if err != nil {
		return domain.Resolution{}, err
	}
	post, err := service.store.GetPost(ctx, request.PostID)
	if err != nil {
		return domain.Resolution{}, err
	}

	res, err := service.resolver.Resolve(ctx, post, strategy)
	if err != nil {
		return res, err
	}
	if !res.NewInstant.Equal(res.Original) {
		service.notifier.Notify(ctx, domain.Event{
			Type:      domain.EventPostMoved,
			UserID:    post.UserID,
			PostID:    post.ID,
			Message:   res.Message,
			Payload:   res,
			Timestamp: service.clock.Now(),
		})
	}
	return res, nil
}

// UpdatePostStatus records the publishing outcome reported by the adapter.
func (service serviceSchedule) UpdatePostStatus(ctx context.Context, request domainScheduling.UpdatePostStatusRequest) (domain.ScheduledPost, error) {
	if err := validations.ValidateUpdatePostStatus(ctx, request); err != nil {
		return domain.ScheduledPost{}, err
	}
	post, err := service.store.GetPost(ctx, request.PostID)
	if err != nil {
		return domain.ScheduledPost{}, err
	}
	if post.Status == domain.PostStatusCancelled {
		return domain.ScheduledPost{}, fmt.Errorf("%w: post is cancelled", domain.ErrInvalidStatus)
	}

	post.Status = domain.PostStatus(request.Status)
	post.Error = ""
	if post.Status == domain.PostStatusFailed {
		post.Error = request.Error
	}
	post.UpdatedAt = service.clock.Now()
	if err := service.store.UpdatePost(ctx, post); err != nil {
		return domain.ScheduledPost{}, err
	}
	return post, nil
}

// Templates

func (service serviceSchedule) CreateTemplate(ctx context.Context, request domainScheduling.CreateTemplateRequest) (domain.ScheduleTemplate, error) {
	if err := validations.ValidateCreateTemplate(ctx, request); err != nil {
		return domain.ScheduleTemplate{}, err
	}
	now := service.clock.Now()
	tpl := domain.ScheduleTemplate{
		ID:             uuid.NewString(),
		UserID:         request.UserID,
		Name:           request.Name,
		Description:    request.Description,
		Platforms:      request.Platforms,
		Frequency:      request.Frequency,
		Times:          request.Times,
		PreferredTimes: request.PreferredTimes,
		Timezone:       request.Timezone,
		IsDefault:      request.IsDefault,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if tpl.Timezone == "" {
		tpl.Timezone = "UTC"
	}
	if err := service.store.CreateTemplate(ctx, tpl); err != nil {
		return domain.ScheduleTemplate{}, err
	}
	return tpl, nil
}

func (service serviceSchedule) ListTemplates(ctx context.Context, userID string) ([]domain.ScheduleTemplate, error) {
	return service.store.ListTemplates(ctx, userID)
}

// ApplyTemplate lays content items out on the template grid. Each content item
// takes the next day (daily) or week (weekly) starting at StartDate.
func (service serviceSchedule) ApplyTemplate(ctx context.Context, request domainScheduling.ApplyTemplateRequest) (domainScheduling.ApplyTemplateResponse, error) {
	if err := validations.ValidateApplyTemplate(ctx, request); err != nil {
		return domainScheduling.ApplyTemplateResponse{}, err
	}
	tpl, err := service.store.GetTemplate(ctx, request.TemplateID)
	if err != nil {
		return domainScheduling.ApplyTemplateResponse{}, err
	}
	if tpl.UserID != request.UserID {
		return domainScheduling.ApplyTemplateResponse{}, domain.ErrTemplateNotFound
	}

	loc, err := timeutils.LoadLocation(tpl.Timezone)
	if err != nil {
		return domainScheduling.ApplyTemplateResponse{}, pkgError.ValidationError(err.Error())
	}
	now := service.clock.Now()
	start := timeutils.StartOfDay(now, loc)
	if request.StartDate != "" {
		day, err := time.Parse("2006-01-02", request.StartDate)
		if err != nil {
			return domainScheduling.ApplyTemplateResponse{}, pkgError.ValidationError("start_date: must be a date in YYYY-MM-DD format")
		}
		start = timeutils.WallClock(day.Year(), day.Month(), day.Day(), timeutils.ClockTime{}, loc)
	}
	step := 1
	if tpl.Frequency == domain.FrequencyWeekly {
		step = 7
	}

	res := domainScheduling.ApplyTemplateResponse{TemplateID: tpl.ID, Created: []domain.ScheduledPost{}, Skipped: []domainScheduling.SkippedSlot{}}
	for i, contentID := range request.ContentIDs {
		content, err := service.content.GetContent(ctx, contentID)
		if err != nil {
			if !errors.Is(err, domain.ErrContentMissing) {
				logrus.WithError(err).WithField("content_id", contentID).Warn("[SCHEDULE] Content lookup failed, item skipped")
			}
			res.Skipped = append(res.Skipped, domainScheduling.SkippedSlot{ContentID: contentID, Reason: err.Error()})
			continue
		}

		local := start.In(loc)
		y, m, d := local.AddDate(0, 0, i*step).Date()
		for _, platform := range tpl.Platforms {
			clocks, err := timeutils.ParseClocks(tpl.TimesFor(platform))
			if err != nil {
				return res, pkgError.ValidationError(err.Error())
			}
			for _, c := range clocks {
				at := timeutils.WallClock(y, m, d, c, loc).UTC()
				slot := domainScheduling.SkippedSlot{ContentID: contentID, Platform: platform, At: at}
				report, err := service.detector.Detect(ctx, request.UserID, platform, at, "")
				if err != nil {
					logrus.WithError(err).WithField("content_id", contentID).Warn("[SCHEDULE] Conflict check failed, slot skipped")
					slot.Reason = err.Error()
					res.Skipped = append(res.Skipped, slot)
					continue
				}
				if report.HasConflict && !request.AllowConflicts {
					res.Skipped = append(res.Skipped, domainScheduling.SkippedSlot{
						ContentID: contentID,
						Platform:  platform,
						At:        at,
						Reason:    fmt.Sprintf("%d conflicting post(s)", report.Count),
					})
					continue
				}

				post := application.NewPost(content, request.UserID, platform, at, loc.String(), now)
				post.ContentID = contentID
				post.TemplateID = tpl.ID
				post.HasConflict = report.HasConflict
				if err := service.store.CreatePost(ctx, post); err != nil {
					logrus.WithError(err).WithField("content_id", contentID).Warn("[SCHEDULE] Failed to store post, slot skipped")
					slot.Reason = err.Error()
					res.Skipped = append(res.Skipped, slot)
					continue
				}
				res.Created = append(res.Created, post)
			}
		}
	}

	if len(res.Created) > 0 {
		if err := service.store.IncrementTemplateUsage(ctx, tpl.ID); err != nil {
			logrus.WithError(err).WithField("template_id", tpl.ID).Warn("[SCHEDULE] Failed to bump template usage")
		}
	}
	logrus.WithFields(logrus.Fields{
		"template_id": tpl.ID,
		"created":     len(res.Created),
		"skipped":     len(res.Skipped),
	}).Info("[SCHEDULE] Template applied")
	return res, nil
}

func (service serviceSchedule) ExportCalendar(ctx context.Context, request domainScheduling.ExportCalendarRequest) ([]byte, error) {
	if request.UserID == "" {
		return nil, pkgError.ValidationError("user_id: cannot be blank")
	}
	if !request.From.IsZero() && !request.To.IsZero() && request.To.Before(request.From) {
		return nil, pkgError.ValidationError("to: must not be before from")
	}
	return service.exporter.Export(ctx, application.ExportFilter{
		UserID:   request.UserID,
		Platform: request.Platform,
		From:     request.From,
		To:       request.To,
	})
}

func (service serviceSchedule) RunSweep(ctx context.Context) (application.SweepResult, error) {
	if service.sweeper == nil {
		return application.SweepResult{}, pkgError.UnavailableError("scheduler is disabled")
	}
	res, err := service.sweeper.RunOnce(ctx)
	if errors.Is(err, application.ErrSweepInProgress) {
		return res, pkgError.ConflictError(err.Error())
	}
	return res, err
}
