package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/templui/goalstash/internal/model"
)

// pgNumericOutOfRange is the PostgreSQL SQLSTATE for BIGINT overflow.
const pgNumericOutOfRange = "22003"

var (
	ErrGoalNotFound = errors.New("goal not found")
)

type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	ByID(ctx context.Context, goalID string) (*model.Goal, error)
	Goals(ctx context.Context, userID string) ([]*model.Goal, error)
	Update(ctx context.Context, goal *model.Goal) error
	Increment(ctx context.Context, goalID string, amount model.Amount, at time.Time) (*model.Goal, error)
	Delete(ctx context.Context, goalID string) error
	Drifted(ctx context.Context) ([]*model.LedgerDrift, error)
	WithTx(tx *sqlx.Tx) GoalRepository
}

type goalRepository struct {
	db sqlx.ExtContext
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) WithTx(tx *sqlx.Tx) GoalRepository {
	return &goalRepository{db: tx}
}

func (r *goalRepository) Create(ctx context.Context, goal *model.Goal) error {
	query := `INSERT INTO goals (id, user_id, title, description, target_amount, current_amount, currency, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Description,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.Currency,
		goal.CreatedAt,
		goal.UpdatedAt,
	)

	return err
}

// ByID looks a goal up without an owner filter so callers can tell a
// missing goal apart from one owned by someone else.
func (r *goalRepository) ByID(ctx context.Context, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db, goal, query, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *goalRepository) Goals(ctx context.Context, userID string) ([]*model.Goal, error) {
	goals := []*model.Goal{}
	query := `SELECT * FROM goals WHERE user_id = $1 ORDER BY created_at DESC`

	err := sqlx.SelectContext(ctx, r.db, &goals, query, userID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) Update(ctx context.Context, goal *model.Goal) error {
	query := `UPDATE goals
	          SET title = $1, description = $2, target_amount = $3, current_amount = $4, currency = $5, updated_at = $6
	          WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		goal.Title,
		goal.Description,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.Currency,
		goal.UpdatedAt,
		goal.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrGoalNotFound
	}

	return nil
}

// Increment adds amount to the stored balance in place and returns the
// updated row. The read-modify-write happens inside the database.
// A resulting balance beyond model.MaxAmount returns model.ErrAmountOutOfRange;
// callers run this in a transaction and roll back.
func (r *goalRepository) Increment(ctx context.Context, goalID string, amount model.Amount, at time.Time) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `UPDATE goals
	          SET current_amount = current_amount + $1, updated_at = $2
	          WHERE id = $3
	          RETURNING *`

	err := sqlx.GetContext(ctx, r.db, goal, query, amount, at, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgNumericOutOfRange {
		return nil, model.ErrAmountOutOfRange
	}
	if err != nil {
		return nil, err
	}

	if !goal.CurrentAmount.InRange() {
		return nil, model.ErrAmountOutOfRange
	}

	return goal, nil
}

func (r *goalRepository) Delete(ctx context.Context, goalID string) error {
	query := `DELETE FROM goals WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, goalID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrGoalNotFound
	}

	return nil
}

// Drifted lists goals whose stored balance differs from the sum of their stats.
func (r *goalRepository) Drifted(ctx context.Context) ([]*model.LedgerDrift, error) {
	drifts := []*model.LedgerDrift{}
	query := `SELECT g.id, g.user_id, g.title, g.current_amount, COALESCE(SUM(s.amount), 0) AS ledger_total
	          FROM goals g
	          LEFT JOIN goal_stats s ON s.goal_id = g.id
	          GROUP BY g.id, g.user_id, g.title, g.current_amount
	          HAVING g.current_amount <> COALESCE(SUM(s.amount), 0)
	          ORDER BY g.id`

	err := sqlx.SelectContext(ctx, r.db, &drifts, query)
	if err != nil {
		return nil, err
	}

	return drifts, nil
}
