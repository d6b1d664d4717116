package salary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDailyCheckNoopOffTheFirst(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newMemStore()
	rm := &memReadModel{
		stats:      map[primitive.ObjectID]UserStats{userID: eligibleStats(7, 400)},
		candidates: []Candidate{{UserID: userID}},
	}
	now := time.Date(2026, 8, 15, 3, 0, 0, 0, time.UTC)
	sched := NewScheduler(store, rm, DefaultRegistry(), nil, nil, fixedClock(now))

	summary, err := sched.RunDailyCheck(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Checked)

	exists, err := store.ExistsForMonth(context.Background(), "2026-08")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDailyCheckCreatesOnTheFirst(t *testing.T) {
	eligible := primitive.NewObjectID()
	tooFew := primitive.NewObjectID()
	store := newMemStore()
	rm := &memReadModel{
		stats: map[primitive.ObjectID]UserStats{
			eligible: eligibleStats(27, 1000),
			tooFew:   eligibleStats(3, 1000),
		},
		candidates: []Candidate{{UserID: eligible}, {UserID: tooFew}},
	}
	rec := &recorder{}
	now := time.Date(2026, 9, 1, 2, 0, 0, 0, time.UTC)
	sched := NewScheduler(store, rm, DefaultRegistry(), rec, rec, fixedClock(now))

	summary, err := sched.RunDailyCheck(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Checked)
	assert.Equal(t, 1, summary.Eligible)
	assert.Equal(t, 1, summary.Created)

	reqs, err := store.List(context.Background(), ListFilter{YearMonth: "2026-09"})
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, eligible, reqs[0].UserID)
	assert.Equal(t, 3, reqs[0].PlanID)
	assert.Equal(t, 230.0, reqs[0].Amount)
	assert.Equal(t, StatusPending, reqs[0].Status)

	require.Len(t, rec.created, 1)
	assert.Contains(t, rec.actions, "automatic_salary_request")
}

func TestDailyCheckShortCircuitsWhenMonthStarted(t *testing.T) {
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()
	store := newMemStore()
	rm := &memReadModel{
		stats: map[primitive.ObjectID]UserStats{
			userA: eligibleStats(7, 400),
			userB: eligibleStats(7, 400),
		},
		candidates: []Candidate{{UserID: userA}, {UserID: userB}},
	}
	now := time.Date(2026, 9, 1, 2, 0, 0, 0, time.UTC)

	// Someone already requested this month
	_, err := store.Create(context.Background(), userA, 1, 50, "addr", now)
	require.NoError(t, err)

	sched := NewScheduler(store, rm, DefaultRegistry(), nil, nil, fixedClock(now))
	summary, err := sched.RunDailyCheck(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Checked)

	reqs, err := store.List(context.Background(), ListFilter{YearMonth: "2026-09"})
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
}

func TestProcessMonthDuplicateIsBenign(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newMemStore()
	rm := &memReadModel{
		stats:      map[primitive.ObjectID]UserStats{userID: eligibleStats(7, 400)},
		candidates: []Candidate{{UserID: userID}},
	}
	now := time.Date(2026, 9, 1, 2, 0, 0, 0, time.UTC)

	// The user pulled their request moments before the sweep
	_, err := store.Create(context.Background(), userID, 1, 50, "addr", now)
	require.NoError(t, err)

	sched := NewScheduler(store, rm, DefaultRegistry(), nil, nil, fixedClock(now))
	summary, err := sched.ProcessMonth(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 1, summary.Eligible)
	assert.Zero(t, summary.Created)
}

func TestProcessMonthSkipsUnpayableUsers(t *testing.T) {
	noAddress := primitive.NewObjectID()
	inactive := primitive.NewObjectID()
	store := newMemStore()
	rm := &memReadModel{
		stats: map[primitive.ObjectID]UserStats{
			noAddress: {Found: true, Active: true, ActiveReferrals: 46, CompositeBalance: 2000},
			inactive:  {Found: true, Active: false, PayoutAddress: "addr", ActiveReferrals: 46, CompositeBalance: 2000},
		},
		candidates: []Candidate{{UserID: noAddress}, {UserID: inactive}},
	}
	now := time.Date(2026, 9, 1, 2, 0, 0, 0, time.UTC)
	sched := NewScheduler(store, rm, DefaultRegistry(), nil, nil, fixedClock(now))

	summary, err := sched.ProcessMonth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Checked)
	assert.Zero(t, summary.Eligible)
	assert.Zero(t, summary.Created)
}

func TestProcessMonthSummaryHook(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newMemStore()
	rm := &memReadModel{
		stats:      map[primitive.ObjectID]UserStats{userID: eligibleStats(7, 400)},
		candidates: []Candidate{{UserID: userID}},
	}
	now := time.Date(2026, 9, 1, 2, 0, 0, 0, time.UTC)
	sched := NewScheduler(store, rm, DefaultRegistry(), nil, nil, fixedClock(now))

	var got *Summary
	sched.SummaryHook = func(s Summary) { got = &s }

	_, err := sched.ProcessMonth(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, Summary{Checked: 1, Eligible: 1, Created: 1}, *got)
}

func TestProcessMonthReadModelFailure(t *testing.T) {
	rm := &memReadModel{err: ErrReadModelUnavailable}
	sched := NewScheduler(newMemStore(), rm, DefaultRegistry(), nil, nil, nil)

	_, err := sched.ProcessMonth(context.Background())
	assert.ErrorIs(t, err, ErrReadModelUnavailable)
}
