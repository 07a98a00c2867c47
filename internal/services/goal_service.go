package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clarify/internal/amqp"
	"clarify/internal/core"
	"clarify/internal/log"
	"clarify/internal/storage"
)

// DepositResult is the outcome of a goal deposit. Badge is set only when the
// deposit completed the goal and a value-tier badge was granted.
type DepositResult struct {
	Goal      core.Goal
	Completed bool
	Badge     *core.Badge
}

// GoalService manages savings goals. Deposits and withdrawals are mirrored as
// investment movements in the ledger.
type GoalService struct {
	store     *storage.SQLiteRepository
	evaluator *AchievementEvaluator
	ledger    *LedgerAggregator
	logger    *log.Logger
	now       func() time.Time
}

func NewGoalService(store *storage.SQLiteRepository, evaluator *AchievementEvaluator, ledger *LedgerAggregator, logger *log.Logger) *GoalService {
	return &GoalService{
		store:     store,
		evaluator: evaluator,
		ledger:    ledger,
		logger:    componentLogger(logger, log.ComponentGoals),
		now:       time.Now,
	}
}

func (s *GoalService) Create(ctx context.Context, groupID, title string, target core.Money, dueDate core.Date) (core.Goal, error) {
	g := core.Goal{
		GroupID: groupID,
		Title:   strings.TrimSpace(title),
		Target:  target,
		Current: core.Zero,
		Status:  core.GoalActive,
		DueDate: dueDate,
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	created, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	s.logger.InfoContext(ctx, "Goal created",
		log.FieldGoalID, created.ID,
		log.FieldGroupID, groupID,
		log.FieldAmount, target.String())
	return created, nil
}

func (s *GoalService) List(ctx context.Context, groupID string) ([]core.Goal, error) {
	return s.store.ListGoals(ctx, groupID)
}

// Deposit adds amount to an active goal on behalf of userID. When the deposit
// reaches the target the goal completes and the goal-completion badge is
// evaluated in the same transaction.
func (s *GoalService) Deposit(ctx context.Context, groupID, goalID, userID string, amount core.Money) (DepositResult, error) {
	now := s.now().UTC()
	var res DepositResult

	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		g, err := loadGroupGoal(ctx, q, groupID, goalID)
		if err != nil {
			return err
		}
		updated, completed, err := g.Deposit(amount, now)
		if err != nil {
			return err
		}
		if err := q.UpdateGoalProgress(ctx, updated); err != nil {
			return err
		}
		if _, err := q.CreateMovement(ctx, goalMovement(updated, userID, amount, "Deposit to goal", now)); err != nil {
			return err
		}

		res = DepositResult{Goal: updated, Completed: completed}
		if !completed {
			return nil
		}
		badge, granted, err := s.evaluator.GoalCompleted(ctx, q, updated)
		if err != nil {
			return fmt.Errorf("evaluate goal badge: %w", err)
		}
		if granted {
			res.Badge = &badge
		}
		return nil
	})
	if err != nil {
		return DepositResult{}, err
	}

	s.ledger.Invalidate(groupID, core.DateOf(now))
	if res.Completed {
		s.logger.InfoContext(ctx, "Goal completed",
			log.FieldGoalID, goalID,
			log.FieldGroupID, groupID,
			"badge_granted", res.Badge != nil)
	}
	if res.Badge != nil {
		s.evaluator.Announce(ctx, *res.Badge, amqp.SourceGoal)
	}
	return res, nil
}

// Withdraw takes amount out of an active goal. The ledger records it as a
// negative investment so lifetime investment totals stay consistent.
func (s *GoalService) Withdraw(ctx context.Context, groupID, goalID, userID string, amount core.Money) (core.Goal, error) {
	now := s.now().UTC()
	var out core.Goal

	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		g, err := loadGroupGoal(ctx, q, groupID, goalID)
		if err != nil {
			return err
		}
		updated, err := g.Withdraw(amount)
		if err != nil {
			return err
		}
		if err := q.UpdateGoalProgress(ctx, updated); err != nil {
			return err
		}
		if _, err := q.CreateMovement(ctx, goalMovement(updated, userID, amount.Neg(), "Withdrawal from goal", now)); err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return core.Goal{}, err
	}
	s.ledger.Invalidate(groupID, core.DateOf(now))
	return out, nil
}

// Cancel closes an active goal without completing it. The saved balance stays
// on the goal.
func (s *GoalService) Cancel(ctx context.Context, groupID, goalID string) (core.Goal, error) {
	var out core.Goal
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		g, err := loadGroupGoal(ctx, q, groupID, goalID)
		if err != nil {
			return err
		}
		if g.Status != core.GoalActive {
			return core.ErrGoalNotActive
		}
		g.Status = core.GoalCancelled
		if err := q.UpdateGoalProgress(ctx, g); err != nil {
			return err
		}
		out = g
		return nil
	})
	return out, err
}

func loadGroupGoal(ctx context.Context, q *storage.Queries, groupID, goalID string) (core.Goal, error) {
	g, err := q.GetGoal(ctx, goalID)
	if err != nil {
		return core.Goal{}, err
	}
	if g.GroupID != groupID {
		return core.Goal{}, core.ErrNotFound
	}
	return g, nil
}

func goalMovement(g core.Goal, userID string, amount core.Money, verb string, now time.Time) core.Movement {
	return core.Movement{
		GroupID:       g.GroupID,
		ResponsibleID: userID,
		Type:          core.Investment,
		Description:   fmt.Sprintf("%s %q", verb, g.Title),
		Amount:        amount,
		Date:          core.DateOf(now),
	}
}
