package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalstash/internal/model"
)

type GoalStatRepository interface {
	Create(ctx context.Context, stat *model.GoalStat) error
	Stats(ctx context.Context, goalID, userID string) ([]*model.GoalStat, error)
	SumByGoal(ctx context.Context, goalID string) (model.Amount, error)
	DeleteByGoal(ctx context.Context, goalID string) (int64, error)
	WithTx(tx *sqlx.Tx) GoalStatRepository
}

type goalStatRepository struct {
	db sqlx.ExtContext
}

func NewGoalStatRepository(db *sqlx.DB) GoalStatRepository {
	return &goalStatRepository{db: db}
}

func (r *goalStatRepository) WithTx(tx *sqlx.Tx) GoalStatRepository {
	return &goalStatRepository{db: tx}
}

func (r *goalStatRepository) Create(ctx context.Context, stat *model.GoalStat) error {
	query := `INSERT INTO goal_stats (id, goal_id, user_id, date, amount, note, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		stat.ID,
		stat.GoalID,
		stat.UserID,
		stat.Date,
		stat.Amount,
		stat.Note,
		stat.CreatedAt,
	)

	return err
}

// Stats returns the stats of a goal recorded by userID, newest date first.
func (r *goalStatRepository) Stats(ctx context.Context, goalID, userID string) ([]*model.GoalStat, error) {
	stats := []*model.GoalStat{}
	query := `SELECT * FROM goal_stats WHERE goal_id = $1 AND user_id = $2 ORDER BY date DESC, created_at DESC`

	err := sqlx.SelectContext(ctx, r.db, &stats, query, goalID, userID)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *goalStatRepository) SumByGoal(ctx context.Context, goalID string) (model.Amount, error) {
	var sum model.Amount
	query := `SELECT COALESCE(SUM(amount), 0) FROM goal_stats WHERE goal_id = $1`

	err := sqlx.GetContext(ctx, r.db, &sum, query, goalID)
	return sum, err
}

func (r *goalStatRepository) DeleteByGoal(ctx context.Context, goalID string) (int64, error) {
	query := `DELETE FROM goal_stats WHERE goal_id = $1`
	result, err := r.db.ExecContext(ctx, query, goalID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
