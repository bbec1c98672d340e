package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalstash/internal/model"
)

func TestEventJSONRoundTrip(t *testing.T) {
	amount := model.MustAmount("12.50")
	event := Event{
		Type:       TypeStatAppended,
		GoalID:     "g1",
		UserID:     "u1",
		Amount:     &amount,
		OccurredAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := event.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"amount":12.50`)

	decoded, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, TypeStatAppended, decoded.Type)
	require.NotNil(t, decoded.Amount)
	assert.True(t, decoded.Amount.Equal(amount))
	assert.Nil(t, decoded.CurrentAmount)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Publish(context.Background(), Event{Type: TypeGoalReached}))
	require.NoError(t, r.Publish(context.Background(), Event{Type: TypeGoalDeleted}))

	assert.Equal(t, []string{TypeGoalReached, TypeGoalDeleted}, r.Types())
	assert.Len(t, r.Events(), 2)
}
