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

var (
	ErrForbidden     = errors.New("forbidden")
	ErrTitleRequired = &validation.Error{Field: "title", Message: "title is required"}
	ErrEmptyUpdate   = &validation.Error{Field: "", Message: "no fields to update"}
)

type GoalService struct {
	db        *sqlx.DB
	repo      repository.GoalRepository
	statRepo  repository.GoalStatRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewGoalService(
	database *sqlx.DB,
	repo repository.GoalRepository,
	statRepo repository.GoalStatRepository,
	publisher events.Publisher,
) *GoalService {
	return &GoalService{
		db:        database,
		repo:      repo,
		statRepo:  statRepo,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ownedGoal loads a goal and checks it belongs to userID.
// A missing goal wins over a foreign one.
func ownedGoal(ctx context.Context, repo repository.GoalRepository, userID, goalID string) (*model.Goal, error) {
	goal, err := repo.ByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if !goal.OwnedBy(userID) {
		return nil, ErrForbidden
	}
	return goal, nil
}

// Authorize checks that goalID exists and belongs to userID without loading
// anything else.
func (s *GoalService) Authorize(ctx context.Context, userID, goalID string) error {
	_, err := ownedGoal(ctx, s.repo, userID, goalID)
	return err
}

func (s *GoalService) Create(ctx context.Context, userID string, in model.GoalInput) (*model.Goal, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, ErrTitleRequired
	}
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))

	err := validation.Struct(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	goal := &model.Goal{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Currency:    model.DefaultCurrency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.TargetAmount != nil {
		goal.TargetAmount = *in.TargetAmount
	}
	if in.CurrentAmount != nil {
		goal.CurrentAmount = *in.CurrentAmount
	}
	if in.Currency != "" {
		goal.Currency = in.Currency
	}

	err = s.repo.Create(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return goal, nil
}

func (s *GoalService) Goals(ctx context.Context, userID string) ([]*model.Goal, error) {
	return s.repo.Goals(ctx, userID)
}

func (s *GoalService) ByID(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	return ownedGoal(ctx, s.repo, userID, goalID)
}

// Update applies the present fields of in. currentAmount here overrides the
// balance directly without a ledger entry.
func (s *GoalService) Update(ctx context.Context, userID, goalID string, in model.GoalUpdate) (*model.Goal, error) {
	goal, err := ownedGoal(ctx, s.repo, userID, goalID)
	if err != nil {
		return nil, err
	}

	if in.Empty() {
		return nil, ErrEmptyUpdate
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		in.Title = &title
	}
	if in.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*in.Currency))
		in.Currency = &currency
	}

	err = validation.Struct(in)
	if err != nil {
		return nil, err
	}

	in.Apply(goal)
	goal.UpdatedAt = s.now()

	err = s.repo.Update(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}

	if in.CurrentAmount != nil {
		slog.Info("goal balance overridden", "goal_id", goal.ID, "user_id", userID, "current_amount", goal.CurrentAmount.String())
	}

	return goal, nil
}

// Delete removes the goal and its stats in one transaction.
func (s *GoalService) Delete(ctx context.Context, userID, goalID string) error {
	goal, err := ownedGoal(ctx, s.repo, userID, goalID)
	if err != nil {
		return err
	}

	var removed int64
	err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		n, err := s.statRepo.WithTx(tx).DeleteByGoal(ctx, goal.ID)
		if err != nil {
			return fmt.Errorf("failed to delete stats: %w", err)
		}
		removed = n
		return s.repo.WithTx(tx).Delete(ctx, goal.ID)
	})
	if err != nil {
		return err
	}

	slog.Info("goal deleted", "goal_id", goal.ID, "user_id", userID, "stats_removed", removed)

	publish(ctx, s.publisher, events.Event{
		Type:       events.TypeGoalDeleted,
		GoalID:     goal.ID,
		UserID:     goal.UserID,
		OccurredAt: s.now(),
	})

	return nil
}

// publish is best effort; the write it describes is already committed.
func publish(ctx context.Context, publisher events.Publisher, event events.Event) {
	err := publisher.Publish(ctx, event)
	if err != nil {
		slog.Error("failed to publish event", "error", err, "type", event.Type, "goal_id", event.GoalID)
	}
}
