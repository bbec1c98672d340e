// Package report derives progress figures from goals and their stats.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/templui/goalstash/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Point is one step of the cumulative series.
type Point struct {
	Date   time.Time    `json:"date"`
	Amount model.Amount `json:"amount"`
	Total  model.Amount `json:"total"`
}

// Percent is current/target as a percentage clamped to [0, 100] and
// rounded to 2 places. A goal without a positive target is 0% until it
// holds a positive balance and 100% after.
func Percent(current, target model.Amount) float64 {
	if !target.IsPositive() {
		if current.IsPositive() {
			return 100
		}
		return 0
	}

	p := current.Decimal.Div(target.Decimal).Mul(hundred)
	if p.IsNegative() {
		return 0
	}
	if p.GreaterThan(hundred) {
		return 100
	}

	f, _ := p.Round(2).Float64()
	return f
}

// Series returns chronological running totals starting from zero.
// An empty ledger yields a single zero point at now.
func Series(stats []*model.GoalStat, now time.Time) []Point {
	if len(stats) == 0 {
		return []Point{{Date: now}}
	}

	ordered := make([]*model.GoalStat, len(stats))
	copy(ordered, stats)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].Date.Before(ordered[j].Date)
	})

	points := make([]Point, 0, len(ordered))
	var total model.Amount
	for _, stat := range ordered {
		total = total.Add(stat.Amount)
		points = append(points, Point{
			Date:   stat.Date,
			Amount: stat.Amount,
			Total:  total,
		})
	}

	return points
}

// Sum adds up the amounts of stats.
func Sum(stats []*model.GoalStat) model.Amount {
	var total model.Amount
	for _, stat := range stats {
		total = total.Add(stat.Amount)
	}
	return total
}
