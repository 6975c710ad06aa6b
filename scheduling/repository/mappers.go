package repository

import "github.com/Droze-svj/click-platform-sub013/scheduling/domain"

func toRuleModel(r domain.RecurrenceRule) ruleModel {
	return ruleModel{
		ID:                r.ID,
		UserID:            r.UserID,
		ContentID:         r.ContentID,
		Platform:          r.Platform,
		Name:              nullString(r.Name),
		Description:       nullString(r.Description),
		Frequency:         string(r.Frequency),
		RepeatInterval:    r.Interval,
		DaysOfWeek:        marshalJSON(r.DaysOfWeek),
		DayOfMonth:        r.DayOfMonth,
		Times:             marshalJSON(r.Times),
		Timezone:          r.Timezone,
		StartDate:         r.StartDate.UTC(),
		EndDate:           utcPtr(r.EndDate),
		MaxOccurrences:    r.MaxOccurrences,
		CurrentOccurrence: r.CurrentOccurrence,
		NextScheduledAt:   utcPtr(r.NextScheduledAt),
		Status:            string(r.Status),
		AutoRefresh:       marshalJSON(r.AutoRefresh),
		AutoResolve:       r.AutoResolve,
		NeedsReview:       r.NeedsReview,
		LastError:         nullString(r.LastError),
		Version:           r.Version,
		ClaimedBy:         nullString(r.ClaimedBy),
		ClaimExpiresAt:    utcPtr(r.ClaimExpiresAt),
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}
}

func fromRuleModel(m ruleModel) domain.RecurrenceRule {
	return domain.RecurrenceRule{
		ID:                m.ID,
		UserID:            m.UserID,
		ContentID:         m.ContentID,
		Platform:          m.Platform,
		Name:              nullStringValue(m.Name),
		Description:       nullStringValue(m.Description),
		Frequency:         domain.Frequency(m.Frequency),
		Interval:          m.RepeatInterval,
		DaysOfWeek:        unmarshalJSON[[]int](m.DaysOfWeek),
		DayOfMonth:        m.DayOfMonth,
		Times:             unmarshalJSON[[]string](m.Times),
		Timezone:          m.Timezone,
		StartDate:         m.StartDate.UTC(),
		EndDate:           utcPtr(m.EndDate),
		MaxOccurrences:    m.MaxOccurrences,
		CurrentOccurrence: m.CurrentOccurrence,
		NextScheduledAt:   utcPtr(m.NextScheduledAt),
		Status:            domain.RuleStatus(m.Status),
		AutoRefresh:       unmarshalJSON[domain.AutoRefresh](m.AutoRefresh),
		AutoResolve:       m.AutoResolve,
		NeedsReview:       m.NeedsReview,
		LastError:         nullStringValue(m.LastError),
		Version:           m.Version,
		ClaimedBy:         nullStringValue(m.ClaimedBy),
		ClaimExpiresAt:    utcPtr(m.ClaimExpiresAt),
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

func toPostModel(p domain.ScheduledPost) postModel {
	return postModel{
		ID:                p.ID,
		UserID:            p.UserID,
		Platform:          p.Platform,
		ScheduledAt:       p.ScheduledAt.UTC(),
		ContentID:         p.ContentID,
		RuleID:            nullString(p.RuleID),
		OccurrenceAt:      utcPtr(p.OccurrenceAt),
		TemplateID:        nullString(p.TemplateID),
		Text:              nullString(p.Text),
		MediaRefs:         marshalJSON(p.MediaRefs),
		Hashtags:          marshalJSON(p.Hashtags),
		Timezone:          p.Timezone,
		Status:            string(p.Status),
		HasConflict:       p.HasConflict,
		ConflictResolved:  p.ConflictResolved,
		OptimizationScore: p.OptimizationScore,
		Error:             nullString(p.Error),
		CreatedAt:         p.CreatedAt.UTC(),
		UpdatedAt:         p.UpdatedAt.UTC(),
	}
}

func fromPostModel(m postModel) domain.ScheduledPost {
	return domain.ScheduledPost{
		ID:                m.ID,
		UserID:            m.UserID,
		ContentID:         m.ContentID,
		Platform:          m.Platform,
		RuleID:            nullStringValue(m.RuleID),
		TemplateID:        nullStringValue(m.TemplateID),
		Text:              nullStringValue(m.Text),
		MediaRefs:         unmarshalJSON[[]string](m.MediaRefs),
		Hashtags:          unmarshalJSON[[]string](m.Hashtags),
		ScheduledAt:       m.ScheduledAt.UTC(),
		OccurrenceAt:      utcPtr(m.OccurrenceAt),
		Timezone:          m.Timezone,
		Status:            domain.PostStatus(m.Status),
		HasConflict:       m.HasConflict,
		ConflictResolved:  m.ConflictResolved,
		OptimizationScore: m.OptimizationScore,
		Error:             nullStringValue(m.Error),
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

func toTemplateModel(t domain.ScheduleTemplate) templateModel {
	return templateModel{
		ID:             t.ID,
		UserID:         t.UserID,
		Name:           t.Name,
		Description:    nullString(t.Description),
		Platforms:      marshalJSON(t.Platforms),
		Frequency:      string(t.Frequency),
		Times:          marshalJSON(t.Times),
		PreferredTimes: marshalJSON(t.PreferredTimes),
		Timezone:       t.Timezone,
		IsDefault:      t.IsDefault,
		UsageCount:     t.UsageCount,
		CreatedAt:      t.CreatedAt.UTC(),
		UpdatedAt:      t.UpdatedAt.UTC(),
	}
}

func fromTemplateModel(m templateModel) domain.ScheduleTemplate {
	return domain.ScheduleTemplate{
		ID:             m.ID,
		UserID:         m.UserID,
		Name:           m.Name,
		Description:    nullStringValue(m.Description),
		Platforms:      unmarshalJSON[[]string](m.Platforms),
		Frequency:      domain.Frequency(m.Frequency),
		Times:          unmarshalJSON[[]string](m.Times),
		PreferredTimes: unmarshalJSON[map[string][]string](m.PreferredTimes),
		Timezone:       m.Timezone,
		IsDefault:      m.IsDefault,
		UsageCount:     m.UsageCount,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}
