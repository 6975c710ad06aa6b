package domain

import "time"

// ScheduleTemplate is a reusable posting pattern applied to many content items.
type ScheduleTemplate struct {
	ID             string              `json:"id"`
	UserID         string              `json:"user_id"`
	Name           string              `json:"name"`
	Description    string              `json:"description,omitempty"`
	Platforms      []string            `json:"platforms"`
	Frequency      Frequency           `json:"frequency"`
	Times          []string            `json:"times"`
	PreferredTimes map[string][]string `json:"preferred_times,omitempty"`
	Timezone       string              `json:"timezone"`
	IsDefault      bool                `json:"is_default"`
	UsageCount     int                 `json:"usage_count"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// TimesFor returns the preferred times for platform, then the template times,
// then 09:00.
func (t ScheduleTemplate) TimesFor(platform string) []string {
	if times := t.PreferredTimes[platform]; len(times) > 0 {
		return times
	}
	if len(t.Times) > 0 {
		return t.Times
	}
	return []string{"09:00"}
}
