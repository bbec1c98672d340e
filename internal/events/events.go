// Package events publishes goal lifecycle events for downstream consumers
// (notifications, analytics). Publishing is best effort: callers log
// failures and never roll back a committed write because of them.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/templui/goalstash/internal/model"
)

const (
	TypeStatAppended = "stat.appended"
	TypeGoalReached  = "goal.reached"
	TypeGoalDeleted  = "goal.deleted"
)

type Event struct {
	Type          string        `json:"type"`
	GoalID        string        `json:"goalId"`
	UserID        string        `json:"userId"`
	StatID        string        `json:"statId,omitempty"`
	Amount        *model.Amount `json:"amount,omitempty"`
	CurrentAmount *model.Amount `json:"currentAmount,omitempty"`
	TargetAmount  *model.Amount `json:"targetAmount,omitempty"`
	Currency      string        `json:"currency,omitempty"`
	OccurredAt    time.Time     `json:"occurredAt"`
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func FromJSON(data []byte) (*Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to the structured log. Used when no broker is configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	slog.InfoContext(ctx, "event published (log mode)",
		"type", event.Type,
		"goal_id", event.GoalID,
		"user_id", event.UserID,
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
