package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/templui/goalstash/internal/db"
	"github.com/templui/goalstash/internal/events"
	"github.com/templui/goalstash/internal/model"
	"github.com/templui/goalstash/internal/repository"
	"github.com/templui/goalstash/internal/validation"
)

const statDateLayout = "2006-01-02"

var (
	ErrInvalidDate       = &validation.Error{Field: "date", Message: "date must be RFC 3339 or YYYY-MM-DD"}
	ErrBalanceOutOfRange = &validation.Error{Field: "amount", Message: "amount would move the balance out of range"}
)

// LedgerService appends stats to goals. Every stat is paired with exactly
// one in-place increment of the goal balance in the same transaction.
type LedgerService struct {
	db             *sqlx.DB
	goalRepo       repository.GoalRepository
	statRepo       repository.GoalStatRepository
	userRepository repository.UserRepository
	emailService   *EmailService
	publisher      events.Publisher
	now            func() time.Time
}

func NewLedgerService(
	database *sqlx.DB,
	goalRepo repository.GoalRepository,
	statRepo repository.GoalStatRepository,
	userRepository repository.UserRepository,
	emailService *EmailService,
	publisher events.Publisher,
) *LedgerService {
	return &LedgerService{
		db:             database,
		goalRepo:       goalRepo,
		statRepo:       statRepo,
		userRepository: userRepository,
		emailService:   emailService,
		publisher:      publisher,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Authorize checks that goalID exists and belongs to userID. Handlers call
// it before reading the request body so 404 and 403 win over 400.
func (s *LedgerService) Authorize(ctx context.Context, userID, goalID string) error {
	_, err := ownedGoal(ctx, s.goalRepo, userID, goalID)
	return err
}

// Append records a stat and moves the goal balance by its amount.
// Returns the stored stat and the goal as updated by the increment.
func (s *LedgerService) Append(ctx context.Context, userID, goalID string, in model.StatInput) (*model.GoalStat, *model.Goal, error) {
	goal, err := ownedGoal(ctx, s.goalRepo, userID, goalID)
	if err != nil {
		return nil, nil, err
	}

	err = validation.Struct(in)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	date, err := parseStatDate(in.Date, now)
	if err != nil {
		return nil, nil, err
	}

	stat := &model.GoalStat{
		ID:        uuid.New().String(),
		GoalID:    goal.ID,
		UserID:    goal.UserID,
		Date:      date,
		Amount:    *in.Amount,
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: now,
	}

	var updated *model.Goal
	err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := s.statRepo.WithTx(tx).Create(ctx, stat)
		if err != nil {
			return fmt.Errorf("failed to create stat: %w", err)
		}

		updated, err = s.goalRepo.WithTx(tx).Increment(ctx, goal.ID, stat.Amount, now)
		if err != nil {
			return fmt.Errorf("failed to increment goal: %w", err)
		}
		return nil
	})
	if errors.Is(err, model.ErrAmountOutOfRange) {
		return nil, nil, ErrBalanceOutOfRange
	}
	if err != nil {
		return nil, nil, err
	}

	amount := stat.Amount
	current := updated.CurrentAmount
	publish(ctx, s.publisher, events.Event{
		Type:          events.TypeStatAppended,
		GoalID:        updated.ID,
		UserID:        updated.UserID,
		StatID:        stat.ID,
		Amount:        &amount,
		CurrentAmount: &current,
		Currency:      updated.Currency,
		OccurredAt:    now,
	})

	if crossedTarget(updated, stat.Amount) {
		s.goalReached(ctx, updated, now)
	}

	return stat, updated, nil
}

// Stats lists the caller's stats for an owned goal, newest date first.
func (s *LedgerService) Stats(ctx context.Context, userID, goalID string) ([]*model.GoalStat, error) {
	goal, err := ownedGoal(ctx, s.goalRepo, userID, goalID)
	if err != nil {
		return nil, err
	}
	return s.statRepo.Stats(ctx, goal.ID, userID)
}

func (s *LedgerService) goalReached(ctx context.Context, goal *model.Goal, at time.Time) {
	current := goal.CurrentAmount
	target := goal.TargetAmount
	publish(ctx, s.publisher, events.Event{
		Type:          events.TypeGoalReached,
		GoalID:        goal.ID,
		UserID:        goal.UserID,
		CurrentAmount: &current,
		TargetAmount:  &target,
		Currency:      goal.Currency,
		OccurredAt:    at,
	})

	user, err := s.userRepository.ByID(ctx, goal.UserID)
	if err != nil {
		slog.Warn("failed to load user for goal reached email", "error", err, "goal_id", goal.ID)
		return
	}

	err = s.emailService.SendGoalReachedEmail(ctx, user.Email, goal)
	if err != nil {
		slog.Warn("failed to send goal reached email", "error", err, "goal_id", goal.ID)
	}
}

// crossedTarget reports whether adding delta moved the goal from below its
// target to at or above it.
func crossedTarget(goal *model.Goal, delta model.Amount) bool {
	if !goal.Reached() {
		return false
	}
	before := goal.CurrentAmount.Sub(delta)
	return before.LessThan(goal.TargetAmount.Decimal)
}

func parseStatDate(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return now, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return t.UTC(), nil
	}

	t, err = time.Parse(statDateLayout, value)
	if err == nil {
		return t.UTC(), nil
	}

	return time.Time{}, ErrInvalidDate
}
