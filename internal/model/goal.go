package model

import (
	"time"
)

const DefaultCurrency = "USD"

type Goal struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"userId"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	TargetAmount  Amount    `db:"target_amount" json:"targetAmount"`
	CurrentAmount Amount    `db:"current_amount" json:"currentAmount"`
	Currency      string    `db:"currency" json:"currency"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

func (g *Goal) OwnedBy(userID string) bool {
	return g.UserID == userID
}

// GoalInput is the payload for creating a goal.
type GoalInput struct {
	Title         string  `json:"title" validate:"max=200"`
	Description   string  `json:"description" validate:"max=2000"`
	TargetAmount  *Amount `json:"targetAmount" validate:"omitempty,gte=0"`
	CurrentAmount *Amount `json:"currentAmount"`
	Currency      string  `json:"currency" validate:"omitempty,iso4217"`
}

// GoalUpdate is a partial update. Nil fields are left untouched.
type GoalUpdate struct {
	Title         *string `json:"title" validate:"omitempty,max=200"`
	Description   *string `json:"description" validate:"omitempty,max=2000"`
	TargetAmount  *Amount `json:"targetAmount" validate:"omitempty,gte=0"`
	Currency      *string `json:"currency" validate:"omitempty,iso4217"`
	CurrentAmount *Amount `json:"currentAmount"`
}

func (u GoalUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.TargetAmount == nil &&
		u.Currency == nil && u.CurrentAmount == nil
}

func (u GoalUpdate) Apply(goal *Goal) {
	if u.Title != nil {
		goal.Title = *u.Title
	}
	if u.Description != nil {
		goal.Description = *u.Description
	}
	if u.TargetAmount != nil {
		goal.TargetAmount = *u.TargetAmount
	}
	if u.Currency != nil {
		goal.Currency = *u.Currency
	}
	if u.CurrentAmount != nil {
		goal.CurrentAmount = *u.CurrentAmount
	}
}

// Reached reports whether the balance has met a positive target.
func (g *Goal) Reached() bool {
	return g.TargetAmount.IsPositive() && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount.Decimal)
}
