package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalstash/internal/db/dbtest"
	"github.com/templui/goalstash/internal/events"
	"github.com/templui/goalstash/internal/model"
	"github.com/templui/goalstash/internal/repository"
	"github.com/templui/goalstash/internal/validation"
	"golang.org/x/sync/errgroup"
)

type fixture struct {
	db       *sqlx.DB
	users    repository.UserRepository
	goals    repository.GoalRepository
	stats    repository.GoalStatRepository
	recorder *events.Recorder
	auth     *AuthService
	goal     *GoalService
	ledger   *LedgerService
	report   *ReportService
}

// clock returns a now func that advances one second per call.
func clock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	database := dbtest.New(t)
	f := &fixture{
		db:       database,
		users:    repository.NewUserRepository(database),
		goals:    repository.NewGoalRepository(database),
		stats:    repository.NewGoalStatRepository(database),
		recorder: events.NewRecorder(),
	}
	email := NewEmailService("", "noreply@example.com", "http://localhost:8090", "Goalstash", true)
	sessions := repository.NewSessionRepository(database)

	now := clock(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))
	f.auth = NewAuthService(f.users, sessions, email, "test-secret", false, time.Hour)
	f.goal = NewGoalService(database, f.goals, f.stats, f.recorder)
	f.goal.now = now
	f.ledger = NewLedgerService(database, f.goals, f.stats, f.users, email, f.recorder)
	f.ledger.now = now
	f.report = NewReportService(f.goals, f.stats)
	f.report.now = now

	return f
}

func (f *fixture) user(t *testing.T, email string) *model.User {
	t.Helper()
	user, err := f.auth.Register(context.Background(), email, "correct horse battery")
	require.NoError(t, err)
	return user
}

func amount(s string) *model.Amount {
	a := model.MustAmount(s)
	return &a
}

func strptr(s string) *string { return &s }

func TestCreateGoalDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "jane@example.com")

	goal, err := f.goal.Create(ctx, user.ID, model.GoalInput{Title: "  Vacation  "})
	require.NoError(t, err)

	assert.Equal(t, "Vacation", goal.Title)
	assert.Equal(t, user.ID, goal.UserID)
	assert.Equal(t, "USD", goal.Currency)
	assert.True(t, goal.TargetAmount.IsZero())
	assert.True(t, goal.CurrentAmount.IsZero())
	assert.Equal(t, "", goal.Description)
}

func TestCreateGoalValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "jane@example.com")

	_, err := f.goal.Create(ctx, user.ID, model.GoalInput{Title: "   "})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = f.goal.Create(ctx, user.ID, model.GoalInput{Title: "Car", TargetAmount: amount("-1")})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "targetAmount", verr.Field)

	goal, err := f.goal.Create(ctx, user.ID, model.GoalInput{Title: "Car", Currency: "eur"})
	require.NoError(t, err)
	assert.Equal(t, "EUR", goal.Currency)
}

func TestGoalsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "jane@example.com")
	other := f.user(t, "john@example.com")

	for _, title := range []string{"first", "second", "third"} {
		_, err := f.goal.Create(ctx, user.ID, model.GoalInput{Title: title})
		require.NoError(t, err)
	}
	_, err := f.goal.Create(ctx, other.ID, model.GoalInput{Title: "not mine"})
	require.NoError(t, err)

	goals, err := f.goal.Goals(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, goals, 3)
	assert.Equal(t, "third", goals[0].Title)
	assert.Equal(t, "first", goals[2].Title)
}

func TestOwnershipNotFoundBeforeForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "jane@example.com")
	intruder := f.user(t, "mallory@example.com")

	goal, err := f.goal.Create(ctx, owner.ID, model.GoalInput{Title: "Vacation", TargetAmount: amount("1000")})
	require.NoError(t, err)

	_, err = f.goal.ByID(ctx, intruder.ID, "missing")
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)

	_, err = f.goal.ByID(ctx, intruder.ID, goal.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.goal.Update(ctx, intruder.ID, goal.ID, model.GoalUpdate{Title: strptr("mine now")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = f.ledger.Append(ctx, intruder.ID, goal.ID, model.StatInput{Amount: amount("10")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.ledger.Stats(ctx, intruder.ID, goal.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	err = f.goal.Delete(ctx, intruder.ID, goal.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.report.GoalReport(ctx, intruder.ID, goal.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	stored, err := f.goals.ByID(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vacation", stored.Title)
}

func TestUpdatePartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "jane@example.com")

	goal, err := f.goal.Create(ctx, user.ID, model.GoalInput{Title: "Vacation", Description: "Italy", TargetAmount: amount("1000")})
	require.NoError(t, err)

	updated, err := f.goal.Update(ctx, user.ID, goal.ID, model.GoalUpdate{TargetAmount: amount("1200")})
	require.NoError(t, err)
	assert.Equal(t, "Vacation", updated.Title)
	assert.Equal(t, "Italy", updated.Description)
	assert.Equal(t, "1200.00", updated.TargetAmount.String())
	assert.True(t, updated.UpdatedAt.After(goal.UpdatedAt))

	_, err = f.goal.Update(ctx, user.ID, goal.ID, model.GoalUpdate{Title: strptr(" ")})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = f.goal.Update(ctx, user.ID, goal.ID, model.GoalUpdate{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	_, err = f.goal.Update(ctx, user.ID, goal.ID, model.GoalUpdate{TargetAmount: amount("-5")})
	var verr *validation.Error
	assert.ErrorAs(t, err, &verr)

	stored, err := f.goals.ByID(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "1200.00", stored.TargetAmount.String())
}

func TestAppendAccumulates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "jane@example.com")

	goal, err := f.goal.Create(ctx, user.ID, model.GoalInput{Title: "Vacation", TargetAmount: amount("1000")})
	require.NoError(t, err)

	_, updated, err := f.ledger.Append(ctx, user.ID, goal.ID, model.StatInput{Amount: amount("200"), Date: "2025-03-01"})
	require.NoError(t, err)
	assert.Equal(t, "200.00", updated.CurrentAmount.String())

	stat, updated, err := f.ledger.Append(ctx, user.ID, goal.ID, model.StatInput{Amount: amount("150"), Note: "bonus"})
	require.NoError(t, err)
	assert.Equal(t, "350.00", updated.CurrentAmount.String())
	assert.Equal(t, user.ID, stat.UserID)
	assert.Equal(t, "bonus", stat.Note)

	rep, err := f.report.GoalReport(ctx, user.ID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 35.0, rep.Percent)
	assert.Equal(t, "350.00", rep.LedgerTotal.String())
	assert.True(t, rep.Drift.IsZero())
	require.Len(t, rep.Series, 2)
	assert.Equal(t, "350.00", rep.Series[1].Total.String())

	stats, err := f.ledger.Stats(ctx, user.ID, goal.ID)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, stat.ID, stats[0].ID)

	assert.Equal(t, []string{events.TypeStatAppended, events.TypeStatAppended}, f.recorder.Types())
}

func TestAppendRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "jane@example.com")

	goal, err := f.goal.Create(ctx, user.ID, model.GoalInput{Title: "Vacation", CurrentAmount: amount("100")})
	require.NoError(t, err)

	_, _, err = f.ledger.Append(ctx, user.ID, goal.ID, model.StatInput{Note: "no amount"})
	require.Error(t, err)
	assert.Equal(t, model.ErrInvalidAmount.Error(), err.Error())

	_, _, err = f.ledger.Append(ctx, user.ID, goal.ID, model.StatInput{Amount: amount("5"), Date: "yesterday"})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, _, err = f.ledger.Append(ctx, user.ID, "missing", model.StatInput{Amount: amount("5")})
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)

	stored, err := f.goals.ByID(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", stored.CurrentAmount.String())
	assert.Empty(t, f.recorder.Events())
}

type failingIncrement struct {
	repository.GoalRepository
}

func (r failingIncrement) Increment(ctx context.Context, goalID string, amount model.Amount, at time.Time) (*model.Goal, error) {
	return nil, errors.New("disk full")
}

func (r failingIncrement) WithTx(tx *sqlx.Tx) repository.GoalRepository {
	return failingIncrement{r.GoalRepository.WithTx(tx)}
}

func TestAppendRollsBackWhenIncrementFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "jane@example.com")

	goal, err := f.goal.Create(ctx, user.ID, model.GoalInput{Title: "Vacation"})
	require.NoError(t, err)

	f.ledger.goalRepo = failingIncrement{f.goals}

	_, _, err = f.ledger.Append(ctx, user.ID, goal.ID, model.StatInput{Amount: amount("50")})
	require.Error(t, err)

	stats, err := f.stats.Stats(ctx, goal.ID, user.ID)
	require.NoError(t, err)
	assert.Empty(t, stats)

	stored, err := f.goals.ByID(ctx, goal.ID)
	require.NoError(t, err)
	assert.True(t, stored.CurrentAmount.IsZero())
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "jane@example.com")

	goal, err := f.goal.Create(ctx, user.ID, model.GoalInput{Title: "Vacation", TargetAmount: amount("1000")})
	require.NoError(t, err)

	const writers = 20
	var g errgroup.Group
	for i := range writers {
		g.Go(func() error {
			_, _, err := f.ledger.Append(ctx, user.ID, goal.ID, model.StatInput{
				Amount: amount("1.25"),
				Note:   fmt.Sprintf("writer %d", i),
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	stored, err := f.goals.ByID(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", stored.CurrentAmount.String())

	stats, err := f.stats.Stats(ctx, goal.ID, user.ID)
	require.NoError(t, err)
	assert.Len(t, stats, writers)

	sum, err := f.stats.SumByGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(stored.CurrentAmount))
}

func TestAppendRejectsBalanceOutOfRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "jane@example.com")

	ceiling := model.NewAmount(model.MaxAmount)
	goal, err := f.goal.Create(ctx, user.ID, model.GoalInput{Title: "Moonshot", CurrentAmount: &ceiling})
	require.NoError(t, err)

	_, _, err = f.ledger.Append(ctx, user.ID, goal.ID, model.StatInput{Amount: amount("0.01")})
	assert.ErrorIs(t, err, ErrBalanceOutOfRange)

	stats, err := f.stats.Stats(ctx, goal.ID, user.ID)
	require.NoError(t, err)
	assert.Empty(t, stats)

	stored, err := f.goals.ByID(ctx, goal.ID)
	require.NoError(t, err)
	assert.True(t, stored.CurrentAmount.Equal(ceiling))

	_, _, err = f.ledger.Append(ctx, user.ID, goal.ID, model.StatInput{Amount: amount("-0.01")})
	require.NoError(t, err)
}

func TestAuthorizeChecksExistenceThenOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "jane@example.com")
	intruder := f.user(t, "mallory@example.com")

	goal, err := f.goal.Create(ctx, owner.ID, model.GoalInput{Title: "Vacation"})
	require.NoError(t, err)

	assert.NoError(t, f.goal.Authorize(ctx, owner.ID, goal.ID))
	assert.NoError(t, f.ledger.Authorize(ctx, owner.ID, goal.ID))
	assert.ErrorIs(t, f.goal.Authorize(ctx, intruder.ID, goal.ID), ErrForbidden)
	assert.ErrorIs(t, f.ledger.Authorize(ctx, intruder.ID, goal.ID), ErrForbidden)
	assert.ErrorIs(t, f.ledger.Authorize(ctx, intruder.ID, "missing"), repository.ErrGoalNotFound)
}

func TestAppendPublishesGoalReachedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "jane@example.com")

	goal, err := f.goal.Create(ctx, user.ID, model.GoalInput{Title: "Bike", TargetAmount: amount("300")})
	require.NoError(t, err)

	for _, a := range []string{"200", "100", "50"} {
		_, _, err := f.ledger.Append(ctx, user.ID, goal.ID, model.StatInput{Amount: amount(a)})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{
		events.TypeStatAppended,
		events.TypeStatAppended,
		events.TypeGoalReached,
		events.TypeStatAppended,
	}, f.recorder.Types())
}

func TestDirectOverrideShowsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "jane@example.com")

	goal, err := f.goal.Create(ctx, user.ID, model.GoalInput{Title: "Vacation", TargetAmount: amount("1000")})
	require.NoError(t, err)
	_, _, err = f.ledger.Append(ctx, user.ID, goal.ID, model.StatInput{Amount: amount("200")})
	require.NoError(t, err)

	_, err = f.goal.Update(ctx, user.ID, goal.ID, model.GoalUpdate{CurrentAmount: amount("500")})
	require.NoError(t, err)

	rep, err := f.report.GoalReport(ctx, user.ID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "500.00", rep.Goal.CurrentAmount.String())
	assert.Equal(t, "200.00", rep.LedgerTotal.String())
	assert.Equal(t, "300.00", rep.Drift.String())
	assert.Equal(t, 50.0, rep.Percent)

	// further stats keep incrementing from the overridden balance
	_, updated, err := f.ledger.Append(ctx, user.ID, goal.ID, model.StatInput{Amount: amount("25")})
	require.NoError(t, err)
	assert.Equal(t, "525.00", updated.CurrentAmount.String())
}

func TestDeleteCascadesStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "jane@example.com")

	goal, err := f.goal.Create(ctx, user.ID, model.GoalInput{Title: "Vacation"})
	require.NoError(t, err)
	_, _, err = f.ledger.Append(ctx, user.ID, goal.ID, model.StatInput{Amount: amount("10")})
	require.NoError(t, err)

	err = f.goal.Delete(ctx, user.ID, goal.ID)
	require.NoError(t, err)

	_, err = f.goals.ByID(ctx, goal.ID)
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)

	stats, err := f.stats.Stats(ctx, goal.ID, user.ID)
	require.NoError(t, err)
	assert.Empty(t, stats)

	assert.Contains(t, f.recorder.Types(), events.TypeGoalDeleted)

	err = f.goal.Delete(ctx, user.ID, goal.ID)
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)
}

func TestDashboardTotalsPerCurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "jane@example.com")

	_, err := f.goal.Create(ctx, user.ID, model.GoalInput{Title: "A", TargetAmount: amount("100"), CurrentAmount: amount("50")})
	require.NoError(t, err)
	_, err = f.goal.Create(ctx, user.ID, model.GoalInput{Title: "B", TargetAmount: amount("300"), CurrentAmount: amount("50")})
	require.NoError(t, err)
	_, err = f.goal.Create(ctx, user.ID, model.GoalInput{Title: "C", TargetAmount: amount("10"), CurrentAmount: amount("20"), Currency: "EUR"})
	require.NoError(t, err)

	dashboard, err := f.report.Dashboard(ctx, user.ID)
	require.NoError(t, err)

	require.Len(t, dashboard.Goals, 3)
	assert.Equal(t, "C", dashboard.Goals[0].Title)
	assert.Equal(t, 100.0, dashboard.Goals[0].Percent)

	require.Len(t, dashboard.Totals, 2)
	assert.Equal(t, "EUR", dashboard.Totals[0].Currency)
	assert.Equal(t, "USD", dashboard.Totals[1].Currency)
	assert.Equal(t, "100.00", dashboard.Totals[1].Saved.String())
	assert.Equal(t, "400.00", dashboard.Totals[1].Target.String())
	assert.Equal(t, 25.0, dashboard.Totals[1].Percent)
	assert.Equal(t, 2, dashboard.Totals[1].Goals)
}
