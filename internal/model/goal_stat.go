package model

import (
	"time"
)

// GoalStat is one contribution towards a goal. Amount is a signed delta.
type GoalStat struct {
	ID        string    `db:"id" json:"id"`
	GoalID    string    `db:"goal_id" json:"goalId"`
	UserID    string    `db:"user_id" json:"userId"`
	Date      time.Time `db:"date" json:"date"`
	Amount    Amount    `db:"amount" json:"amount"`
	Note      string    `db:"note" json:"note"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// StatInput is the payload for appending a stat. Date accepts RFC 3339
// or YYYY-MM-DD and defaults to now.
type StatInput struct {
	Amount *Amount `json:"amount" validate:"required"`
	Note   string  `json:"note" validate:"max=500"`
	Date   string  `json:"date"`
}

// LedgerDrift is a goal whose stored balance disagrees with the sum of its stats.
type LedgerDrift struct {
	GoalID        string `db:"id" json:"goalId"`
	UserID        string `db:"user_id" json:"userId"`
	Title         string `db:"title" json:"title"`
	CurrentAmount Amount `db:"current_amount" json:"currentAmount"`
	LedgerTotal   Amount `db:"ledger_total" json:"ledgerTotal"`
}

func (d *LedgerDrift) Drift() Amount {
	return d.CurrentAmount.Sub(d.LedgerTotal)
}
