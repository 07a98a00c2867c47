package services

import (
	"context"
	"fmt"
	"time"

	"clarify/internal/amqp"
	"clarify/internal/core"
	"clarify/internal/log"
	"clarify/internal/metrics"
	"clarify/internal/storage"

	"golang.org/x/sync/singleflight"
)

// BadgePublisher announces committed badges to other processes.
type BadgePublisher interface {
	PublishBadgeAwarded(ctx context.Context, b core.Badge, source string) error
}

// MonthlyResult summarises one monthly batch run.
type MonthlyResult struct {
	Month         core.Month `json:"-"`
	Checked       int        `json:"checked"`
	AwardedBronze int        `json:"awarded_bronze"`
	AwardedSilver int        `json:"awarded_silver"`
	Skipped       int        `json:"-"`
	Failed        int        `json:"-"`
}

// AchievementEvaluator issues badges for monthly results and completed goals.
type AchievementEvaluator struct {
	store          *storage.SQLiteRepository
	publisher      BadgePublisher
	metrics        *metrics.Metrics
	logger         *log.Logger
	events         *log.StructuredLogger
	cooldownMonths int
	now            func() time.Time
	runs           singleflight.Group
}

// NewAchievementEvaluator builds an evaluator. publisher and m may be nil.
func NewAchievementEvaluator(store *storage.SQLiteRepository, publisher BadgePublisher, m *metrics.Metrics, logger *log.Logger, cooldownMonths int) *AchievementEvaluator {
	if cooldownMonths < 1 {
		cooldownMonths = core.DefaultCooldownMonths
	}
	logger = componentLogger(logger, log.ComponentAchievements)
	return &AchievementEvaluator{
		store:          store,
		publisher:      publisher,
		metrics:        m,
		logger:         logger,
		events:         log.NewStructuredLogger(logger),
		cooldownMonths: cooldownMonths,
		now:            time.Now,
	}
}

// SetClock replaces the evaluator's time source.
func (e *AchievementEvaluator) SetClock(now func() time.Time) {
	e.now = now
}

// RunMonthly evaluates the most recently completed calendar month.
func (e *AchievementEvaluator) RunMonthly(ctx context.Context) (MonthlyResult, error) {
	return e.EvaluateMonth(ctx, core.EvaluationMonth(e.now()))
}

// EvaluateMonth runs the monthly batch for month. Concurrent calls for the same
// month share one run and its result. The shared run is detached from the
// caller that started it: a caller whose ctx ends gets ctx.Err() while the run
// finishes for everyone else.
func (e *AchievementEvaluator) EvaluateMonth(ctx context.Context, month core.Month) (MonthlyResult, error) {
	runCtx := context.WithoutCancel(ctx)
	ch := e.runs.DoChan(month.String(), func() (interface{}, error) {
		return e.evaluate(runCtx, month)
	})

	select {
	case <-ctx.Done():
		return MonthlyResult{Month: month}, ctx.Err()
	case r := <-ch:
		if r.Shared {
			e.logger.DebugContext(ctx, "Joined in-flight monthly evaluation", log.FieldMonth, month.String())
		}
		res, _ := r.Val.(MonthlyResult)
		return res, r.Err
	}
}

func (e *AchievementEvaluator) evaluate(ctx context.Context, month core.Month) (MonthlyResult, error) {
	start := time.Now()
	result := MonthlyResult{Month: month}

	groupIDs, err := e.store.ListGroupIDs(ctx)
	if err != nil {
		e.metrics.BatchRun(err, time.Since(start))
		return result, fmt.Errorf("list groups: %w", err)
	}

	e.logger.InfoContext(ctx, "Starting monthly achievement evaluation",
		log.FieldMonth, month.String(),
		"groups", len(groupIDs))

	for _, groupID := range groupIDs {
		outcome, err := e.evaluateGroup(ctx, groupID, month)
		if err != nil {
			result.Failed++
			e.metrics.GroupEvaluated("failed")
			e.events.LogError(ctx, "Failed to evaluate group", err, log.ComponentAchievements, log.OpEvaluate,
				log.LogFields{log.FieldGroupID: groupID, log.FieldMonth: month.String()})
			continue
		}

		result.Checked++
		if outcome.Skipped {
			result.Skipped++
			e.metrics.GroupEvaluated("skipped")
			continue
		}
		e.metrics.GroupEvaluated("evaluated")

		for _, b := range outcome.Badges {
			switch b.Tier {
			case core.Bronze:
				result.AwardedBronze++
			case core.Silver:
				result.AwardedSilver++
			}
			e.Announce(ctx, b, amqp.SourceMonthly)
		}
	}

	e.metrics.BatchRun(nil, time.Since(start))
	e.logger.InfoContext(ctx, "Monthly achievement evaluation completed",
		log.FieldMonth, month.String(),
		"checked", result.Checked,
		"awarded_bronze", result.AwardedBronze,
		"awarded_silver", result.AwardedSilver,
		"skipped", result.Skipped,
		"failed", result.Failed,
		log.FieldDuration, time.Since(start).Milliseconds())
	return result, nil
}

// evaluateGroup applies one month to one group in a single transaction.
func (e *AchievementEvaluator) evaluateGroup(ctx context.Context, groupID string, month core.Month) (core.MonthlyOutcome, error) {
	now := e.now().UTC()
	var outcome core.MonthlyOutcome

	err := e.store.InTx(ctx, func(q *storage.Queries) error {
		state, err := q.GetGroupState(ctx, groupID)
		if err != nil {
			return fmt.Errorf("load group state: %w", err)
		}
		if !state.LastEvaluatedMonth.IsZero() && !state.LastEvaluatedMonth.Before(month) {
			outcome = core.MonthlyOutcome{State: state, Skipped: true}
			return nil
		}

		net, err := monthNet(ctx, q, groupID, month)
		if err != nil {
			return err
		}
		recent, err := q.ListBadgesIssuedAfter(ctx, groupID, core.CooldownCutoff(now, e.cooldownMonths))
		if err != nil {
			return fmt.Errorf("load recent badges: %w", err)
		}

		outcome = core.EvaluateMonth(state, month, net, recent, now, e.cooldownMonths)
		for i, b := range outcome.Badges {
			saved, err := q.InsertBadge(ctx, b)
			if err != nil {
				return err
			}
			outcome.Badges[i] = saved
		}
		if err := q.UpdateGroupState(ctx, outcome.State); err != nil {
			return fmt.Errorf("save group state: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.MonthlyOutcome{}, err
	}
	return outcome, nil
}

// GoalCompleted grants the value-tier badge for a goal that just completed.
// It runs on the caller's transaction; only the highest qualifying tier is
// considered and nothing is granted while that tier is in cooldown.
func (e *AchievementEvaluator) GoalCompleted(ctx context.Context, q *storage.Queries, g core.Goal) (core.Badge, bool, error) {
	tier, ok := core.GoalTierFor(g.Target)
	if !ok {
		return core.Badge{}, false, nil
	}
	return e.GrantIfNotInCooldown(ctx, q, g.GroupID, tier, core.GoalBadgeDescription(g))
}

// GrantIfNotInCooldown persists a badge of tier unless the group received one
// of the same tier within the cooldown.
func (e *AchievementEvaluator) GrantIfNotInCooldown(ctx context.Context, q *storage.Queries, groupID string, tier core.BadgeTier, description string) (core.Badge, bool, error) {
	now := e.now().UTC()
	recent, err := q.ListBadgesIssuedAfter(ctx, groupID, core.CooldownCutoff(now, e.cooldownMonths))
	if err != nil {
		return core.Badge{}, false, fmt.Errorf("load recent badges: %w", err)
	}
	b, ok := core.GrantIfEligible(recent, groupID, tier, description, now, e.cooldownMonths)
	if !ok {
		return core.Badge{}, false, nil
	}
	saved, err := q.InsertBadge(ctx, b)
	if err != nil {
		return core.Badge{}, false, err
	}
	return saved, true, nil
}

// Announce records a committed badge in logs and metrics and publishes it.
// Publishing is best effort.
func (e *AchievementEvaluator) Announce(ctx context.Context, b core.Badge, source string) {
	e.metrics.BadgeAwarded(string(b.Tier), source)
	e.events.LogBadgeAwarded(ctx, b.ID, b.GroupID, string(b.Tier), source)

	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishBadgeAwarded(ctx, b, source); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish badge awarded event",
			log.FieldBadgeID, b.ID,
			log.FieldGroupID, b.GroupID,
			log.FieldError, err)
	}
}

// Badges lists every badge a group has received, newest first.
func (e *AchievementEvaluator) Badges(ctx context.Context, groupID string) ([]core.Badge, error) {
	return e.store.ListBadges(ctx, groupID)
}
