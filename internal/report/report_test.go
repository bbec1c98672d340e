package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalstash/internal/model"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name            string
		current, target string
		want            float64
	}{
		{name: "partial", current: "350", target: "1000", want: 35},
		{name: "exact", current: "1000", target: "1000", want: 100},
		{name: "over target clamps", current: "1500", target: "1000", want: 100},
		{name: "negative balance clamps", current: "-20", target: "1000", want: 0},
		{name: "fractional", current: "1", target: "3", want: 33.33},
		{name: "zero target empty", current: "0", target: "0", want: 0},
		{name: "zero target funded", current: "5", target: "0", want: 100},
		{name: "zero target negative", current: "-5", target: "0", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percent(model.MustAmount(tt.current), model.MustAmount(tt.target))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeriesCumulative(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }
	stats := []*model.GoalStat{
		{Date: day(3), Amount: model.MustAmount("-50"), CreatedAt: day(3)},
		{Date: day(1), Amount: model.MustAmount("200"), CreatedAt: day(1)},
		{Date: day(2), Amount: model.MustAmount("150"), CreatedAt: day(2)},
	}

	points := Series(stats, day(10))

	require.Len(t, points, 3)
	assert.Equal(t, day(1), points[0].Date)
	assert.Equal(t, "200.00", points[0].Total.String())
	assert.Equal(t, "350.00", points[1].Total.String())
	assert.Equal(t, "300.00", points[2].Total.String())
	assert.Equal(t, "-50.00", points[2].Amount.String())

	// input order untouched
	assert.Equal(t, day(3), stats[0].Date)
}

func TestSeriesEmptyLedger(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	points := Series(nil, now)

	require.Len(t, points, 1)
	assert.Equal(t, now, points[0].Date)
	assert.True(t, points[0].Total.IsZero())
}

func TestSum(t *testing.T) {
	stats := []*model.GoalStat{
		{Amount: model.MustAmount("0.10")},
		{Amount: model.MustAmount("0.20")},
	}
	assert.Equal(t, "0.30", Sum(stats).String())
}
