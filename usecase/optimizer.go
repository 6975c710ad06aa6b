package usecase

import (
	"context"

	domainScheduling "github.com/Droze-svj/click-platform-sub013/domains/scheduling"
	pkgError "github.com/Droze-svj/click-platform-sub013/pkg/error"
	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/application"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/Droze-svj/click-platform-sub013/validations"
	"github.com/sirupsen/logrus"
)

const maxRangeDays = 90

type serviceOptimizer struct {
	optimizer *application.ScheduleOptimizer
	posts     domain.IPostRepository
	notifier  domain.INotifier
	clock     timeutils.Clock
}

func NewOptimizerService(optimizer *application.ScheduleOptimizer, posts domain.IPostRepository, notifier domain.INotifier, clock timeutils.Clock) domainScheduling.IOptimizerUsecase {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	if clock == nil {
		clock = timeutils.RealClock{}
	}
	return &serviceOptimizer{optimizer: optimizer, posts: posts, notifier: notifier, clock: clock}
}

func (service serviceOptimizer) PredictOptimalTime(ctx context.Context, request domainScheduling.PredictRequest) (application.Prediction, error) {
	if err := validations.ValidatePredict(ctx, request); err != nil {
		return application.Prediction{}, err
	}
	if !request.From.IsZero() && !request.To.IsZero() && request.To.Before(request.From) {
		return application.Prediction{}, pkgError.ValidationError("to: must not be before from")
	}
	return service.optimizer.PredictOptimalTime(ctx, request.UserID, request.ContentID, request.Platform, application.PredictOptions{
		From:           request.From,
		To:             request.To,
		PreferredTimes: request.PreferredTimes,
		Timezone:       request.Timezone,
	})
}

func (service serviceOptimizer) Suggestions(ctx context.Context, request application.SuggestionRequest) (application.SuggestionResult, error) {
	if request.UserID == "" {
		return application.SuggestionResult{}, pkgError.ValidationError("user_id: cannot be blank")
	}
	if request.Days < 0 || request.Days > maxRangeDays {
		return application.SuggestionResult{}, pkgError.ValidationError("days: must be between 0 and 90")
	}
	if _, err := timeutils.LoadLocation(request.Timezone); err != nil {
		return application.SuggestionResult{}, pkgError.ValidationError(err.Error())
	}
	return service.optimizer.Suggestions(ctx, request)
}

func (service serviceOptimizer) AutoReschedule(ctx context.Context, postID string) (application.RescheduleResult, error) {
	if postID == "" {
		return application.RescheduleResult{}, pkgError.ValidationError("post_id: cannot be blank")
	}
	res, err := service.optimizer.AutoReschedule(ctx, postID)
	if err != nil {
		return res, err
	}
	if res.Rescheduled {
		post, err := service.posts.GetPost(ctx, postID)
		if err == nil {
			service.notifier.Notify(ctx, domain.Event{
				Type:      domain.EventPostMoved,
				UserID:    post.UserID,
				PostID:    post.ID,
				Message:   res.Reason,
				Payload:   res,
				Timestamp: service.clock.Now(),
			})
		}
	}
	return res, nil
}

func (service serviceOptimizer) Preview(ctx context.Context, request application.PreviewRequest) (application.PreviewResult, error) {
	if err := validations.ValidateBulkSchedule(ctx, domainScheduling.BulkScheduleRequest{
		UserID:     request.UserID,
		ContentIDs: request.ContentIDs,
		Platforms:  request.Platforms,
		Frequency:  request.Frequency,
		Timezone:   request.Timezone,
	}); err != nil {
		return application.PreviewResult{}, err
	}
	return service.optimizer.Preview(ctx, request)
}

func (service serviceOptimizer) BulkSchedule(ctx context.Context, request domainScheduling.BulkScheduleRequest) (application.BulkResult, error) {
	if err := validations.ValidateBulkSchedule(ctx, request); err != nil {
		return application.BulkResult{}, err
	}
	res, err := service.optimizer.BulkScheduleOptimized(ctx, application.BulkRequest{
		UserID:     request.UserID,
		ContentIDs: request.ContentIDs,
		Platforms:  request.Platforms,
		StartDate:  request.StartDate,
		Frequency:  request.Frequency,
		Timezone:   request.Timezone,
	})
	if err != nil {
		return res, err
	}

	now := service.clock.Now()
	for _, item := range res.Items {
		if item.PostID == "" {
			continue
		}
		service.notifier.Notify(ctx, domain.Event{
			Type:      domain.EventPostScheduled,
			UserID:    request.UserID,
			PostID:    item.PostID,
			Payload:   item,
			Timestamp: now,
		})
	}
	logrus.WithFields(logrus.Fields{
		"user_id":    request.UserID,
		"scheduled":  res.Scheduled,
		"optimized":  res.Optimized,
		"conflicted": res.Conflicted,
		"failed":     res.Failed,
	}).Info("[OPTIMIZER] Bulk schedule finished")
	return res, nil
}

func (service serviceOptimizer) OptimizeSchedule(ctx context.Context, userID string, days int) (application.OptimizeResult, error) {
	if userID == "" {
		return application.OptimizeResult{}, pkgError.ValidationError("user_id: cannot be blank")
	}
	if days < 0 || days > maxRangeDays {
		return application.OptimizeResult{}, pkgError.ValidationError("days: must be between 0 and 90")
	}
	return service.optimizer.OptimizeSchedule(ctx, userID, days)
}

func (service serviceOptimizer) Analytics(ctx context.Context, userID string, periodDays int) (application.ScheduleAnalytics, error) {
	if userID == "" {
		return application.ScheduleAnalytics{}, pkgError.ValidationError("user_id: cannot be blank")
	}
	if periodDays < 0 || periodDays > 365 {
		return application.ScheduleAnalytics{}, pkgError.ValidationError("period_days: must be between 0 and 365")
	}
	return application.Analytics(ctx, service.posts, service.clock, userID, periodDays)
}
