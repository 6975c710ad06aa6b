package validations

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	domainScheduling "github.com/Droze-svj/click-platform-sub013/domains/scheduling"
	pkgError "github.com/Droze-svj/click-platform-sub013/pkg/error"
	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	clockPattern = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	frequencies = []any{domain.FrequencyDaily, domain.FrequencyWeekly, domain.FrequencyMonthly, domain.FrequencyCustom}
)

var validTimezone = validation.By(func(value any) error {
	name, _ := value.(string)
	if _, err := timeutils.LoadLocation(name); err != nil {
		return errors.New("must be a valid IANA time zone")
	}
	return nil
})

var validDate = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return errors.New("must be a date in YYYY-MM-DD format")
	}
	return nil
})

// ValidateRule checks a recurrence rule before it is stored. Failures wrap
// domain.ErrInvalidRule.
func ValidateRule(ctx context.Context, rule domain.RecurrenceRule) error {
	err := validation.ValidateStructWithContext(ctx, &rule,
		validation.Field(&rule.UserID, validation.Required),
		validation.Field(&rule.ContentID, validation.Required),
		validation.Field(&rule.Platform, validation.Required, validation.Length(1, 50)),
		validation.Field(&rule.Frequency, validation.Required, validation.In(frequencies...)),
		validation.Field(&rule.Interval, validation.Min(0), validation.Max(365)),
		validation.Field(&rule.DaysOfWeek, validation.Each(validation.Min(0), validation.Max(6))),
		validation.Field(&rule.DayOfMonth, validation.Min(0), validation.Max(31)),
		validation.Field(&rule.Times, validation.Required, validation.Length(1, 24), validation.Each(validation.Match(clockPattern))),
		validation.Field(&rule.Timezone, validTimezone),
		validation.Field(&rule.StartDate, validation.Required),
		validation.Field(&rule.EndDate, validation.By(func(value any) error {
			end, _ := value.(*time.Time)
			if end != nil && !end.After(rule.StartDate) {
				return errors.New("must be after start_date")
			}
			return nil
		})),
		validation.Field(&rule.MaxOccurrences, validation.Min(0)),
		validation.Field(&rule.AutoRefresh, validation.By(func(value any) error {
			ar, _ := value.(domain.AutoRefresh)
			if ar.MaxHashtags < 0 || ar.MaxHashtags > 30 {
				return errors.New("max_hashtags must be between 0 and 30")
			}
			return nil
		})),
	)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidRule, err.Error())
	}
	return nil
}

func ValidateSchedulePost(ctx context.Context, request domainScheduling.SchedulePostRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.UserID, validation.Required),
		validation.Field(&request.ContentID, validation.Required),
		validation.Field(&request.Platform, validation.Required),
		validation.Field(&request.Date, validation.Required, validation.Match(datePattern), validDate),
		validation.Field(&request.Time, validation.Required, validation.Match(clockPattern)),
		validation.Field(&request.Timezone, validTimezone),
		validation.Field(&request.ResolveStrategy, validation.In("", "auto", "delay", "advance")),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidateListPosts(ctx context.Context, request domainScheduling.ListPostsRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.UserID, validation.Required),
		validation.Field(&request.Status, validation.By(func(value any) error {
			s, _ := value.(string)
			if s != "" && !domain.PostStatus(s).Valid() {
				return errors.New("must be a valid post status")
			}
			return nil
		})),
		validation.Field(&request.To, validation.By(func(value any) error {
			to, _ := value.(time.Time)
			if !to.IsZero() && !request.From.IsZero() && to.Before(request.From) {
				return errors.New("must not be before from")
			}
			return nil
		})),
		validation.Field(&request.Limit, validation.Min(0), validation.Max(1000)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidateUpdatePostStatus(ctx context.Context, request domainScheduling.UpdatePostStatusRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.PostID, validation.Required),
		validation.Field(&request.Status, validation.Required, validation.In(
			string(domain.PostStatusPosted), string(domain.PostStatusFailed),
			string(domain.PostStatusPending), string(domain.PostStatusScheduled),
			string(domain.PostStatusCancelled),
		)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidateCreateTemplate(ctx context.Context, request domainScheduling.CreateTemplateRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.UserID, validation.Required),
		validation.Field(&request.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&request.Platforms, validation.Required, validation.Each(validation.Required)),
		validation.Field(&request.Frequency, validation.Required, validation.In(domain.FrequencyDaily, domain.FrequencyWeekly)),
		validation.Field(&request.Times, validation.Each(validation.Match(clockPattern))),
		validation.Field(&request.PreferredTimes, validation.By(func(value any) error {
			preferred, _ := value.(map[string][]string)
			for platform, times := range preferred {
				for _, t := range times {
					if !clockPattern.MatchString(t) {
						return fmt.Errorf("%s: %q must be in HH:MM format", platform, t)
					}
				}
			}
			return nil
		})),
		validation.Field(&request.Timezone, validTimezone),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidateApplyTemplate(ctx context.Context, request domainScheduling.ApplyTemplateRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.UserID, validation.Required),
		validation.Field(&request.TemplateID, validation.Required),
		validation.Field(&request.ContentIDs, validation.Required, validation.Each(validation.Required)),
		validation.Field(&request.StartDate, validation.Match(datePattern), validDate),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidateBulkSchedule(ctx context.Context, request domainScheduling.BulkScheduleRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.UserID, validation.Required),
		validation.Field(&request.ContentIDs, validation.Required, validation.Length(1, 200), validation.Each(validation.Required)),
		validation.Field(&request.Platforms, validation.Required, validation.Each(validation.Required)),
		validation.Field(&request.Frequency, validation.In(domain.FrequencyDaily, domain.FrequencyWeekly)),
		validation.Field(&request.Timezone, validTimezone),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidatePredict(ctx context.Context, request domainScheduling.PredictRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.UserID, validation.Required),
		validation.Field(&request.Platform, validation.Required),
		validation.Field(&request.PreferredTimes, validation.Each(validation.Match(clockPattern))),
		validation.Field(&request.Timezone, validTimezone),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}
