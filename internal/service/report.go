package service

import (
	"context"
	"sort"
	"time"

	"github.com/templui/goalstash/internal/model"
	"github.com/templui/goalstash/internal/report"
	"github.com/templui/goalstash/internal/repository"
)

type GoalReport struct {
	Goal        *model.Goal    `json:"goal"`
	Percent     float64        `json:"percent"`
	LedgerTotal model.Amount   `json:"ledgerTotal"`
	Drift       model.Amount   `json:"drift"`
	Series      []report.Point `json:"series"`
}

type GoalProgress struct {
	*model.Goal
	Percent float64 `json:"percent"`
}

// CurrencyTotal groups goals of one currency. Amounts are never converted.
type CurrencyTotal struct {
	Currency string       `json:"currency"`
	Saved    model.Amount `json:"saved"`
	Target   model.Amount `json:"target"`
	Percent  float64      `json:"percent"`
	Goals    int          `json:"goals"`
}

type Dashboard struct {
	Goals  []GoalProgress  `json:"goals"`
	Totals []CurrencyTotal `json:"totals"`
}

type ReportService struct {
	goalRepo repository.GoalRepository
	statRepo repository.GoalStatRepository
	now      func() time.Time
}

func NewReportService(goalRepo repository.GoalRepository, statRepo repository.GoalStatRepository) *ReportService {
	return &ReportService{
		goalRepo: goalRepo,
		statRepo: statRepo,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GoalReport returns progress and the cumulative series for an owned goal.
// Drift is the stored balance minus the ledger sum; it is reported, never corrected.
func (s *ReportService) GoalReport(ctx context.Context, userID, goalID string) (*GoalReport, error) {
	goal, err := ownedGoal(ctx, s.goalRepo, userID, goalID)
	if err != nil {
		return nil, err
	}

	stats, err := s.statRepo.Stats(ctx, goal.ID, userID)
	if err != nil {
		return nil, err
	}

	ledgerTotal, err := s.statRepo.SumByGoal(ctx, goal.ID)
	if err != nil {
		return nil, err
	}

	return &GoalReport{
		Goal:        goal,
		Percent:     report.Percent(goal.CurrentAmount, goal.TargetAmount),
		LedgerTotal: ledgerTotal,
		Drift:       goal.CurrentAmount.Sub(ledgerTotal),
		Series:      report.Series(stats, s.now()),
	}, nil
}

func (s *ReportService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	goals, err := s.goalRepo.Goals(ctx, userID)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		Goals:  make([]GoalProgress, 0, len(goals)),
		Totals: []CurrencyTotal{},
	}

	totals := map[string]*CurrencyTotal{}
	for _, goal := range goals {
		dashboard.Goals = append(dashboard.Goals, GoalProgress{
			Goal:    goal,
			Percent: report.Percent(goal.CurrentAmount, goal.TargetAmount),
		})

		total, ok := totals[goal.Currency]
		if !ok {
			total = &CurrencyTotal{Currency: goal.Currency}
			totals[goal.Currency] = total
		}
		total.Saved = total.Saved.Add(goal.CurrentAmount)
		total.Target = total.Target.Add(goal.TargetAmount)
		total.Goals++
	}

	for _, total := range totals {
		total.Percent = report.Percent(total.Saved, total.Target)
		dashboard.Totals = append(dashboard.Totals, *total)
	}
	sort.Slice(dashboard.Totals, func(i, j int) bool {
		return dashboard.Totals[i].Currency < dashboard.Totals[j].Currency
	})

	return dashboard, nil
}
