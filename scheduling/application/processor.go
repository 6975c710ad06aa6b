package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/Droze-svj/click-platform-sub013/scheduling/recurrence"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ProcessorConfig struct {
	// Owner identifies this instance in rule claims.
	Owner       string
	ClaimTTL    time.Duration
	BatchSize   int
	AutoResolve bool
}

// SweepResult aggregates one sweep.
type SweepResult struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

type ruleOutcome int

const (
	outcomeCreated ruleOutcome = iota
	outcomeCompleted
	outcomeFailed
	outcomeSkipped
	outcomeAdvanced // occurrence passed without a new post
)

// RecurringScheduleProcessor materializes due occurrences of recurrence rules.
type RecurringScheduleProcessor struct {
	store    domain.IScheduleStore
	content  domain.IContentStore
	calc     *recurrence.Calculator
	detector *ConflictDetector
	resolver *ConflictResolver
	notifier domain.INotifier
	clock    timeutils.Clock
	cfg      ProcessorConfig
}

func NewRecurringScheduleProcessor(
	store domain.IScheduleStore,
	content domain.IContentStore,
	calc *recurrence.Calculator,
	detector *ConflictDetector,
	resolver *ConflictResolver,
	notifier domain.INotifier,
	clock timeutils.Clock,
	cfg ProcessorConfig,
) *RecurringScheduleProcessor {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	if clock == nil {
		clock = timeutils.RealClock{}
	}
	if calc == nil {
		calc = recurrence.NewCalculator(0)
	}
	if cfg.Owner == "" {
		cfg.Owner = "sweep-" + uuid.NewString()
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 2 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &RecurringScheduleProcessor{
		store:    store,
		content:  content,
		calc:     calc,
		detector: detector,
		resolver: resolver,
		notifier: notifier,
		clock:    clock,
		cfg:      cfg,
	}
}

// Sweep processes every due rule once. Per-rule failures are counted, never
// returned. The error is set only when the due rules could not be listed.
func (p *RecurringScheduleProcessor) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := p.clock.Now()

	expired, err := p.store.CompleteExpired(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("[SWEEP] Failed to complete expired rules")
	}
	for _, id := range expired {
		res.Completed++
		p.notifier.Notify(ctx, domain.Event{Type: domain.EventRuleCompleted, RuleID: id, Message: "end date reached", Timestamp: now})
	}

	rules, err := p.store.FindDueActive(ctx, now, p.cfg.BatchSize)
	if err != nil {
		return res, fmt.Errorf("find due rules: %w", err)
	}

	for _, rule := range rules {
		if ctx.Err() != nil {
			break
		}
		outcome := p.processRule(ctx, rule, now)
		if outcome != outcomeSkipped {
			res.Processed++
		}
		switch outcome {
		case outcomeCreated:
			res.Created++
		case outcomeCompleted:
			res.Completed++
		case outcomeFailed:
			res.Failed++
		case outcomeSkipped:
			res.Skipped++
		}
	}

	if res.Processed > 0 || res.Completed > 0 {
		logrus.Infof("[SWEEP] processed=%d created=%d completed=%d failed=%d skipped=%d",
			res.Processed, res.Created, res.Completed, res.Failed, res.Skipped)
	}
	return res, nil
}

func (p *RecurringScheduleProcessor) processRule(ctx context.Context, rule domain.RecurrenceRule, now time.Time) ruleOutcome {
	log := logrus.WithFields(logrus.Fields{"rule_id": rule.ID, "user_id": rule.UserID, "platform": rule.Platform})

	claimed, err := p.store.ClaimRule(ctx, rule.ID, p.cfg.Owner, now, p.cfg.ClaimTTL)
	if err != nil {
		log.WithError(err).Error("[SWEEP] Claim failed")
		return outcomeFailed
	}
	if !claimed {
		log.Debug("[SWEEP] Rule claimed elsewhere, skipping")
		return outcomeSkipped
	}
	release := func() {
		if err := p.store.ReleaseRule(ctx, rule.ID, p.cfg.Owner); err != nil {
			log.WithError(err).Warn("[SWEEP] Failed to release claim")
		}
	}

	// Repair a counter left behind by an interrupted sweep.
	live, err := p.store.ReconcileOccurrences(ctx, rule.ID)
	if err != nil {
		log.WithError(err).Error("[SWEEP] Reconcile failed")
		release()
		return outcomeFailed
	}
	if live != rule.CurrentOccurrence {
		log.Warnf("[SWEEP] Occurrence counter repaired %d -> %d", rule.CurrentOccurrence, live)
		rule.CurrentOccurrence = live
	}

	adv := domain.RuleAdvance{
		RuleID:          rule.ID,
		ExpectedVersion: rule.Version,
		ClaimedBy:       p.cfg.Owner,
		Status:          domain.RuleStatusActive,
		UpdatedAt:       now,
	}

	if rule.Exhausted() {
		adv.Status = domain.RuleStatusCompleted
		if err := p.store.AdvanceRule(ctx, adv); err != nil {
			log.WithError(err).Error("[SWEEP] Failed to complete rule")
			release()
			return outcomeFailed
		}
		log.Infof("[SWEEP] Rule completed after %d occurrences", rule.CurrentOccurrence)
		p.notifier.Notify(ctx, domain.Event{Type: domain.EventRuleCompleted, UserID: rule.UserID, RuleID: rule.ID, Message: "max occurrences reached", Timestamp: now})
		return outcomeCompleted
	}

	occurrence := *rule.NextScheduledAt
	next, err := p.calc.NextOccurrence(rule, occurrence)
	if err != nil {
		return p.pauseForReview(ctx, rule, adv, err, now)
	}
	if !next.After(now) {
		// Sweeps were missed. Resume from now instead of replaying the backlog.
		if next, err = p.calc.NextOccurrence(rule, now); err != nil {
			return p.pauseForReview(ctx, rule, adv, err, now)
		}
	}
	adv.Next = &next
	if rule.EndDate != nil && next.After(*rule.EndDate) {
		adv.Next = nil
		adv.Status = domain.RuleStatusCompleted
	}

	content, err := p.content.GetContent(ctx, rule.ContentID)
	if err != nil {
		if !errors.Is(err, domain.ErrContentMissing) {
			log.WithError(err).Error("[SWEEP] Content lookup failed, retrying next tick")
			release()
			return outcomeFailed
		}
		// Skip this occurrence but keep the rule moving.
		adv.LastError = err.Error()
		if err := p.store.AdvanceRule(ctx, adv); err != nil {
			log.WithError(err).Error("[SWEEP] Failed to advance rule past missing content")
			release()
			return outcomeFailed
		}
		log.Warnf("[SWEEP] Content %s missing, occurrence %s skipped", rule.ContentID, occurrence.Format(time.RFC3339))
		return outcomeFailed
	}

	post := p.buildPost(rule, content, occurrence, now)
	if err := p.checkConflicts(ctx, rule, &post); err != nil {
		log.WithError(err).Error("[SWEEP] Conflict detection failed")
		release()
		return outcomeFailed
	}

	adv.Increment = true
	created, err := p.store.Materialize(ctx, &post, adv)
	if err != nil {
		if errors.Is(err, domain.ErrClaimLost) {
			log.Warn("[SWEEP] Rule changed while processing, occurrence left for next sweep")
			release()
			return outcomeSkipped
		}
		log.WithError(err).Error("[SWEEP] Materialization rolled back")
		release()
		return outcomeFailed
	}

	if adv.Status == domain.RuleStatusCompleted {
		p.notifier.Notify(ctx, domain.Event{Type: domain.EventRuleCompleted, UserID: rule.UserID, RuleID: rule.ID, Message: "end date reached", Timestamp: now})
	}
	if !created {
		log.Infof("[SWEEP] Occurrence %s already materialized", occurrence.Format(time.RFC3339))
		return outcomeAdvanced
	}

	log.Infof("[SWEEP] Post %s scheduled at %s", post.ID, post.ScheduledAt.Format(time.RFC3339))
	p.notifier.Notify(ctx, domain.Event{
		Type:      domain.EventPostScheduled,
		UserID:    rule.UserID,
		RuleID:    rule.ID,
		PostID:    post.ID,
		Payload:   post,
		Timestamp: now,
	})
	return outcomeCreated
}

func (p *RecurringScheduleProcessor) buildPost(rule domain.RecurrenceRule, content domain.Content, occurrence, now time.Time) domain.ScheduledPost {
	occ := occurrence
	post := domain.ScheduledPost{
		ID:           uuid.NewString(),
		UserID:       rule.UserID,
		ContentID:    rule.ContentID,
		Platform:     rule.Platform,
		RuleID:       rule.ID,
		Text:         plainText(content.Text()),
		MediaRefs:    content.MediaRefs,
		Hashtags:     normalizeHashtags(content.Tags, 0),
		ScheduledAt:  occurrence,
		OccurrenceAt: &occ,
		Timezone:     rule.Timezone,
		Status:       domain.PostStatusScheduled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if rule.AutoRefresh.Enabled && rule.AutoRefresh.UpdateHashtags {
		post.Hashtags = refreshHashtags(content.Tags, content.Description, rule.AutoRefresh.MaxHashtags)
	}
	return post
}

// checkConflicts flags the post and optionally moves it. An unresolved
// conflict keeps the original instant.
func (p *RecurringScheduleProcessor) checkConflicts(ctx context.Context, rule domain.RecurrenceRule, post *domain.ScheduledPost) error {
	if p.detector == nil {
		return nil
	}
	report, err := p.detector.Detect(ctx, post.UserID, post.Platform, post.ScheduledAt, "")
	if err != nil {
		return err
	}
	if !report.HasConflict {
		return nil
	}
	post.HasConflict = true

	if !(rule.AutoResolve || p.cfg.AutoResolve) || p.resolver == nil {
		return nil
	}
	res, err := p.resolver.Propose(ctx, *post, domain.StrategyAuto)
	if err != nil {
		return err
	}
	if !res.Resolved {
		logrus.WithField("rule_id", rule.ID).Warnf("[SWEEP] %v, keeping %s", domain.ErrConflictUnresolved, post.ScheduledAt.Format(time.RFC3339))
		return nil
	}
	post.ScheduledAt = res.NewInstant
	post.ConflictResolved = true
	return nil
}

func (p *RecurringScheduleProcessor) pauseForReview(ctx context.Context, rule domain.RecurrenceRule, adv domain.RuleAdvance, cause error, now time.Time) ruleOutcome {
	log := logrus.WithFields(logrus.Fields{"rule_id": rule.ID, "user_id": rule.UserID})
	adv.Status = domain.RuleStatusPaused
	adv.Next = nil
	adv.NeedsReview = true
	adv.LastError = cause.Error()
	if err := p.store.AdvanceRule(ctx, adv); err != nil {
		log.WithError(err).Error("[SWEEP] Failed to pause rule")
		if err := p.store.ReleaseRule(ctx, rule.ID, p.cfg.Owner); err != nil {
			log.WithError(err).Warn("[SWEEP] Failed to release claim")
		}
		return outcomeFailed
	}
	log.WithError(cause).Error("[SWEEP] Rule paused for review")
	p.notifier.Notify(ctx, domain.Event{Type: domain.EventRulePaused, UserID: rule.UserID, RuleID: rule.ID, Message: cause.Error(), Timestamp: now})
	return outcomeFailed
}
