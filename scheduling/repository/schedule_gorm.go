package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"gorm.io/gorm"
)

// --- Persistence Models ---

type ruleModel struct {
	ID                string         `gorm:"primaryKey;column:id"`
	UserID            string         `gorm:"column:user_id;not null;index"`
	ContentID         string         `gorm:"column:content_id;not null"`
	Platform          string         `gorm:"column:platform;not null"`
	Name              sql.NullString `gorm:"column:name"`
	Description       sql.NullString `gorm:"column:description"`
	Frequency         string         `gorm:"column:frequency;not null"`
	RepeatInterval    int            `gorm:"column:repeat_interval;not null;default:1"`
	DaysOfWeek        string         `gorm:"column:days_of_week;type:text"` // JSON
	DayOfMonth        int            `gorm:"column:day_of_month;default:0"`
	Times             string         `gorm:"column:times;type:text;not null"` // JSON
	Timezone          string         `gorm:"column:timezone;default:'UTC'"`
	StartDate         time.Time      `gorm:"column:start_date;not null"`
	EndDate           *time.Time     `gorm:"column:end_date"`
	MaxOccurrences    int            `gorm:"column:max_occurrences;default:0"`
	CurrentOccurrence int            `gorm:"column:current_occurrence;default:0"`
	NextScheduledAt   *time.Time     `gorm:"column:next_scheduled_at;index"`
	Status            string         `gorm:"column:status;not null;index"`
	AutoRefresh       string         `gorm:"column:auto_refresh;type:text"` // JSON
	AutoResolve       bool           `gorm:"column:auto_resolve;default:false"`
	NeedsReview       bool           `gorm:"column:needs_review;default:false"`
	LastError         sql.NullString `gorm:"column:last_error"`
	Version           int            `gorm:"column:version;not null;default:0"`
	ClaimedBy         sql.NullString `gorm:"column:claimed_by"`
	ClaimExpiresAt    *time.Time     `gorm:"column:claim_expires_at"`
	CreatedAt         time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;not null"`
}

func (ruleModel) TableName() string { return "recurrence_rules" }

type postModel struct {
	ID                string         `gorm:"primaryKey;column:id"`
	UserID            string         `gorm:"column:user_id;not null;index:idx_posts_slot,priority:1"`
	Platform          string         `gorm:"column:platform;not null;index:idx_posts_slot,priority:2"`
	ScheduledAt       time.Time      `gorm:"column:scheduled_at;not null;index:idx_posts_slot,priority:3"`
	ContentID         string         `gorm:"column:content_id;not null"`
	RuleID            sql.NullString `gorm:"column:rule_id;uniqueIndex:idx_posts_rule_occurrence,priority:1"`
	OccurrenceAt      *time.Time     `gorm:"column:occurrence_at;uniqueIndex:idx_posts_rule_occurrence,priority:2"`
	TemplateID        sql.NullString `gorm:"column:template_id"`
	Text              sql.NullString `gorm:"column:text"`
	MediaRefs         string         `gorm:"column:media_refs;type:text"` // JSON
	Hashtags          string         `gorm:"column:hashtags;type:text"`   // JSON
	Timezone          string         `gorm:"column:timezone;default:'UTC'"`
	Status            string         `gorm:"column:status;not null;index"`
	HasConflict       bool           `gorm:"column:has_conflict;default:false"`
	ConflictResolved  bool           `gorm:"column:conflict_resolved;default:false"`
	OptimizationScore *int           `gorm:"column:optimization_score"`
	Error             sql.NullString `gorm:"column:error"`
	CreatedAt         time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;not null"`
}

func (postModel) TableName() string { return "scheduled_posts" }

type templateModel struct {
	ID             string         `gorm:"primaryKey;column:id"`
	UserID         string         `gorm:"column:user_id;not null;index"`
	Name           string         `gorm:"column:name;not null"`
	Description    sql.NullString `gorm:"column:description"`
	Platforms      string         `gorm:"column:platforms;type:text"`       // JSON
	Frequency      string         `gorm:"column:frequency;not null"`        //
	Times          string         `gorm:"column:times;type:text"`           // JSON
	PreferredTimes string         `gorm:"column:preferred_times;type:text"` // JSON
	Timezone       string         `gorm:"column:timezone;default:'UTC'"`
	IsDefault      bool           `gorm:"column:is_default;default:false"`
	UsageCount     int            `gorm:"column:usage_count;default:0"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;not null"`
}

func (templateModel) TableName() string { return "schedule_templates" }

// --- Repository Implementation ---

type ScheduleGormRepository struct {
	db *gorm.DB
}

var _ domain.IScheduleStore = (*ScheduleGormRepository)(nil)

func NewScheduleGormRepository(db *gorm.DB) *ScheduleGormRepository {
	return &ScheduleGormRepository{db: db}
}

func (r *ScheduleGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&ruleModel{},
		&postModel{},
		&templateModel{},
	)
}

// Ping checks the underlying connection.
func (r *ScheduleGormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return storeErr(err)
	}
	return storeErr(sqlDB.PingContext(ctx))
}

// Rules

func (r *ScheduleGormRepository) CreateRule(ctx context.Context, rule domain.RecurrenceRule) error {
	model := toRuleModel(rule)
	return storeErr(r.db.WithContext(ctx).Create(&model).Error)
}

func (r *ScheduleGormRepository) GetRule(ctx context.Context, id string) (domain.RecurrenceRule, error) {
	var m ruleModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecurrenceRule{}, domain.ErrRuleNotFound
		}
		return domain.RecurrenceRule{}, storeErr(err)
	}
	return fromRuleModel(m), nil
}

func (r *ScheduleGormRepository) ListRules(ctx context.Context, userID string, status domain.RuleStatus) ([]domain.RecurrenceRule, error) {
	q := r.db.WithContext(ctx).Model(&ruleModel{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", string(status))
	}

	var models []ruleModel
	if err := q.Order("created_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, storeErr(err)
	}
	res := make([]domain.RecurrenceRule, len(models))
	for i, m := range models {
		res[i] = fromRuleModel(m)
	}
	return res, nil
}

// UpdateRule saves the rule when its stored version still matches and bumps
// the version.
func (r *ScheduleGormRepository) UpdateRule(ctx context.Context, rule domain.RecurrenceRule) error {
	model := toRuleModel(rule)
	model.Version = rule.Version + 1
	res := r.db.WithContext(ctx).Model(&ruleModel{}).
		Where("id = ? AND version = ?", rule.ID, rule.Version).
		Select("*").Updates(&model)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetRule(ctx, rule.ID); err != nil {
			return err
		}
		return domain.ErrClaimLost
	}
	return nil
}

func (r *ScheduleGormRepository) CancelRule(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&ruleModel{}).Where("id = ?", id).Updates(map[string]any{
		"status":            string(domain.RuleStatusCancelled),
		"next_scheduled_at": nil,
		"claimed_by":        nil,
		"claim_expires_at":  nil,
		"version":           gorm.Expr("version + 1"),
		"updated_at":        time.Now().UTC(),
	})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrRuleNotFound
	}
	return nil
}

func (r *ScheduleGormRepository) FindDueActive(ctx context.Context, now time.Time, limit int) ([]domain.RecurrenceRule, error) {
	now = now.UTC()
	q := r.db.WithContext(ctx).
		Where("status = ?", string(domain.RuleStatusActive)).
		Where("next_scheduled_at IS NOT NULL AND next_scheduled_at <= ?", now).
		Where("(end_date IS NULL OR end_date > ?)", now).
		Where("(claimed_by IS NULL OR claimed_by = '' OR claim_expires_at IS NULL OR claim_expires_at < ?)", now).
		Order("next_scheduled_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var models []ruleModel
	if err := q.Find(&models).Error; err != nil {
		return nil, storeErr(err)
	}
	res := make([]domain.RecurrenceRule, len(models))
	for i, m := range models {
		res[i] = fromRuleModel(m)
	}
	return res, nil
}

// CompleteExpired moves active rules whose end date has passed to completed.
func (r *ScheduleGormRepository) CompleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	now = now.UTC()
	var ids []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&ruleModel{}).
			Where("status = ? AND end_date IS NOT NULL AND end_date <= ?", string(domain.RuleStatusActive), now).
			Where("(claimed_by IS NULL OR claimed_by = '' OR claim_expires_at IS NULL OR claim_expires_at < ?)", now).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&ruleModel{}).Where("id IN ?", ids).Updates(map[string]any{
			"status":            string(domain.RuleStatusCompleted),
			"next_scheduled_at": nil,
			"version":           gorm.Expr("version + 1"),
			"updated_at":        now,
		}).Error
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return ids, nil
}

func (r *ScheduleGormRepository) ClaimRule(ctx context.Context, id, owner string, now time.Time, ttl time.Duration) (bool, error) {
	now = now.UTC()
	res := r.db.WithContext(ctx).Model(&ruleModel{}).
		Where("id = ? AND status = ?", id, string(domain.RuleStatusActive)).
		Where("(claimed_by IS NULL OR claimed_by = '' OR claimed_by = ? OR claim_expires_at IS NULL OR claim_expires_at < ?)", owner, now).
		Updates(map[string]any{
			"claimed_by":       owner,
			"claim_expires_at": now.Add(ttl),
		})
	if res.Error != nil {
		return false, storeErr(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *ScheduleGormRepository) ReleaseRule(ctx context.Context, id, owner string) error {
	return storeErr(r.db.WithContext(ctx).Model(&ruleModel{}).
		Where("id = ? AND claimed_by = ?", id, owner).
		Updates(map[string]any{"claimed_by": nil, "claim_expires_at": nil}).Error)
}

func (r *ScheduleGormRepository) AdvanceRule(ctx context.Context, adv domain.RuleAdvance) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyAdvance(tx, adv)
	})
}

func (r *ScheduleGormRepository) Materialize(ctx context.Context, post *domain.ScheduledPost, adv domain.RuleAdvance) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if post != nil {
			var existing int64
			if err := tx.Model(&postModel{}).
				Where("rule_id = ? AND occurrence_at = ?", post.RuleID, post.OccurrenceAt).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing == 0 {
				model := toPostModel(*post)
				if err := tx.Create(&model).Error; err != nil {
					return err
				}
				created = true
			} else {
				// Already counted by reconciliation.
				adv.Increment = false
			}
		}
		return applyAdvance(tx, adv)
	})
	if err != nil {
		if errors.Is(err, domain.ErrClaimLost) || errors.Is(err, domain.ErrStoreUnavailable) {
			return false, err
		}
		return false, storeErr(err)
	}
	return created, nil
}

func (r *ScheduleGormRepository) ReconcileOccurrences(ctx context.Context, ruleID string) (int, error) {
	var live int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&postModel{}).
			Where("rule_id = ? AND status IN ?", ruleID, statusStrings(domain.LiveStatuses)).
			Count(&live).Error; err != nil {
			return err
		}
		return tx.Model(&ruleModel{}).
			Where("id = ? AND current_occurrence <> ?", ruleID, live).
			Update("current_occurrence", live).Error
	})
	if err != nil {
		return 0, storeErr(err)
	}
	return int(live), nil
}

func applyAdvance(tx *gorm.DB, adv domain.RuleAdvance) error {
	updates := map[string]any{
		"next_scheduled_at": utcPtr(adv.Next),
		"status":            string(adv.Status),
		"needs_review":      adv.NeedsReview,
		"last_error":        sql.NullString{String: adv.LastError, Valid: adv.LastError != ""},
		"claimed_by":        nil,
		"claim_expires_at":  nil,
		"version":           gorm.Expr("version + 1"),
		"updated_at":        adv.UpdatedAt.UTC(),
	}
	if adv.Increment {
		updates["current_occurrence"] = gorm.Expr("current_occurrence + 1")
	}

	q := tx.Model(&ruleModel{}).Where("id = ? AND version = ?", adv.RuleID, adv.ExpectedVersion)
	if adv.ClaimedBy != "" {
		q = q.Where("claimed_by = ?", adv.ClaimedBy)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrClaimLost
	}
	return nil
}

// Posts

func (r *ScheduleGormRepository) CreatePost(ctx context.Context, post domain.ScheduledPost) error {
	model := toPostModel(post)
	return storeErr(r.db.WithContext(ctx).Create(&model).Error)
}

func (r *ScheduleGormRepository) GetPost(ctx context.Context, id string) (domain.ScheduledPost, error) {
	var m postModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ScheduledPost{}, domain.ErrPostNotFound
		}
		return domain.ScheduledPost{}, storeErr(err)
	}
	return fromPostModel(m), nil
}

func (r *ScheduleGormRepository) FindByUserPlatformRange(ctx context.Context, userID, platform string, from, to time.Time) ([]domain.ScheduledPost, error) {
	return r.ListPosts(ctx, domain.PostFilter{UserID: userID, Platform: platform, From: from, To: to})
}

func (r *ScheduleGormRepository) ListPosts(ctx context.Context, filter domain.PostFilter) ([]domain.ScheduledPost, error) {
	q := r.db.WithContext(ctx).Model(&postModel{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Platform != "" {
		q = q.Where("platform = ?", filter.Platform)
	}
	if filter.RuleID != "" {
		q = q.Where("rule_id = ?", filter.RuleID)
	}
	if !filter.From.IsZero() {
		q = q.Where("scheduled_at >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		q = q.Where("scheduled_at <= ?", filter.To.UTC())
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(filter.Statuses))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var models []postModel
	if err := q.Order("scheduled_at ASC").Find(&models).Error; err != nil {
		return nil, storeErr(err)
	}
	res := make([]domain.ScheduledPost, len(models))
	for i, m := range models {
		res[i] = fromPostModel(m)
	}
	return res, nil
}

func (r *ScheduleGormRepository) UpdateInstant(ctx context.Context, id string, instant time.Time, conflictResolved bool) error {
	res := r.db.WithContext(ctx).Model(&postModel{}).Where("id = ?", id).Updates(map[string]any{
		"scheduled_at":      instant.UTC(),
		"conflict_resolved": conflictResolved,
		"updated_at":        time.Now().UTC(),
	})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *ScheduleGormRepository) UpdateStatus(ctx context.Context, id string, status domain.PostStatus) error {
	res := r.db.WithContext(ctx).Model(&postModel{}).Where("id = ?", id).Updates(map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *ScheduleGormRepository) UpdatePost(ctx context.Context, post domain.ScheduledPost) error {
	model := toPostModel(post)
	res := r.db.WithContext(ctx).Model(&postModel{}).Where("id = ?", post.ID).Select("*").Updates(&model)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *ScheduleGormRepository) CountLivePosts(ctx context.Context, ruleID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&postModel{}).
		Where("rule_id = ? AND status IN ?", ruleID, statusStrings(domain.LiveStatuses)).
		Count(&count).Error
	return int(count), storeErr(err)
}

// Templates

func (r *ScheduleGormRepository) CreateTemplate(ctx context.Context, tpl domain.ScheduleTemplate) error {
	model := toTemplateModel(tpl)
	return storeErr(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if model.IsDefault {
			if err := tx.Model(&templateModel{}).
				Where("user_id = ? AND id <> ?", model.UserID, model.ID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&model).Error
	}))
}

func (r *ScheduleGormRepository) GetTemplate(ctx context.Context, id string) (domain.ScheduleTemplate, error) {
	var m templateModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ScheduleTemplate{}, domain.ErrTemplateNotFound
		}
		return domain.ScheduleTemplate{}, storeErr(err)
	}
	return fromTemplateModel(m), nil
}

func (r *ScheduleGormRepository) ListTemplates(ctx context.Context, userID string) ([]domain.ScheduleTemplate, error) {
	var models []templateModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, storeErr(err)
	}
	res := make([]domain.ScheduleTemplate, len(models))
	for i, m := range models {
		res[i] = fromTemplateModel(m)
	}
	return res, nil
}

func (r *ScheduleGormRepository) IncrementTemplateUsage(ctx context.Context, id string) error {
	return storeErr(r.db.WithContext(ctx).Model(&templateModel{}).Where("id = ?", id).
		Update("usage_count", gorm.Expr("usage_count + 1")).Error)
}

// --- Helpers ---

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

func statusStrings(statuses []domain.PostStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func marshalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func unmarshalJSON[T any](raw string) T {
	var out T
	if raw == "" || raw == "null" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}
