package salary

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory Store with the same guard semantics as the Mongo
// implementation.
type memStore struct {
	mu       sync.Mutex
	requests map[primitive.ObjectID]*Request
}

func newMemStore() *memStore {
	return &memStore{requests: make(map[primitive.ObjectID]*Request)}
}

func (m *memStore) Create(ctx context.Context, userID primitive.ObjectID, planID int, amount float64, address string, createdAt time.Time) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	month := MonthKey(createdAt)
	for _, r := range m.requests {
		if r.UserID == userID && r.YearMonth == month {
			return nil, ErrAlreadyExistsThisMonth
		}
	}

	req := &Request{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		PlanID:        planID,
		Amount:        amount,
		PayoutAddress: address,
		YearMonth:     month,
		Status:        StatusPending,
		CreatedAt:     createdAt,
	}
	m.requests[req.ID] = req
	return req, nil
}

func (m *memStore) Get(ctx context.Context, id primitive.ObjectID) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (m *memStore) Transition(ctx context.Context, id primitive.ObjectID, to Status, actorID primitive.ObjectID, transactionRef, notes string) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitionLocked(id, to, actorID, transactionRef, notes)
}

func (m *memStore) transitionLocked(id primitive.ObjectID, to Status, actorID primitive.ObjectID, transactionRef, notes string) (*Request, error) {
	if err := ValidateTransition(to, transactionRef); err != nil {
		return nil, err
	}
	req, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	if req.Status != StatusPending {
		return nil, ErrAlreadyProcessed
	}

	now := time.Now().UTC()
	req.Status = to
	req.TransactionRef = transactionRef
	req.Notes = notes
	req.ProcessedAt = &now
	req.ProcessedBy = &actorID
	cp := *req
	return &cp, nil
}

func (m *memStore) BulkTransition(ctx context.Context, ids []primitive.ObjectID, actorID primitive.ObjectID, baseRef string) ([]*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	failed := make(map[string]error)
	for _, id := range ids {
		req, ok := m.requests[id]
		if !ok {
			failed[id.Hex()] = ErrNotFound
			continue
		}
		if req.Status != StatusPending {
			failed[id.Hex()] = ErrAlreadyProcessed
		}
	}
	if len(failed) > 0 {
		return nil, &BulkError{Failed: failed}
	}

	out := make([]*Request, 0, len(ids))
	for _, id := range ids {
		req, err := m.transitionLocked(id, StatusApproved, actorID, BulkRef(baseRef, id), "")
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func (m *memStore) List(ctx context.Context, filter ListFilter) ([]*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Request
	for _, r := range m.requests {
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		if filter.YearMonth != "" && r.YearMonth != filter.YearMonth {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, s := range filter.Statuses {
				if r.Status == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) ExistsForMonth(ctx context.Context, monthKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.YearMonth == monthKey {
			return true, nil
		}
	}
	return false, nil
}

// memReadModel serves canned stats.
type memReadModel struct {
	stats      map[primitive.ObjectID]UserStats
	candidates []Candidate
	err        error
}

func (m *memReadModel) Snapshot(ctx context.Context, userID primitive.ObjectID) (UserStats, error) {
	if m.err != nil {
		return UserStats{}, m.err
	}
	return m.stats[userID], nil
}

func (m *memReadModel) ListCandidates(ctx context.Context) ([]Candidate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.candidates, nil
}

// recorder captures emitted events and activity lines.
type recorder struct {
	mu           sync.Mutex
	created      []CreatedEvent
	transitioned []TransitionedEvent
	actions      []string
}

func (r *recorder) RequestCreated(ctx context.Context, ev CreatedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, ev)
}

func (r *recorder) RequestTransitioned(ctx context.Context, ev TransitionedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitioned = append(r.transitioned, ev)
}

func (r *recorder) Log(ctx context.Context, userID primitive.ObjectID, action, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func eligibleStats(referrals int, balance float64) UserStats {
	return UserStats{
		Found:            true,
		Active:           true,
		PayoutAddress:    "TXyzPayout1234567890",
		ActiveReferrals:  referrals,
		CompositeBalance: balance,
	}
}

func TestRequestPaymentCreatesPendingRequest(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newMemStore()
	rm := &memReadModel{stats: map[primitive.ObjectID]UserStats{
		userID: eligibleStats(13, 700),
	}}
	rec := &recorder{}
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	svc := NewService(store, rm, DefaultRegistry(), rec, rec, fixedClock(now))

	req, err := svc.RequestPayment(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, 2, req.PlanID)
	assert.Equal(t, 110.0, req.Amount)
	assert.Equal(t, "2026-08", req.YearMonth)
	assert.Equal(t, "TXyzPayout1234567890", req.PayoutAddress)
	assert.Nil(t, req.ProcessedAt)

	require.Len(t, rec.created, 1)
	assert.Equal(t, req.ID, rec.created[0].RequestID)
	assert.Contains(t, rec.actions, "salary_request")
}

func TestRequestPaymentSecondRequestSameMonthRejected(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newMemStore()
	rm := &memReadModel{stats: map[primitive.ObjectID]UserStats{
		userID: eligibleStats(7, 400),
	}}
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(store, rm, DefaultRegistry(), nil, nil, fixedClock(now))

	_, err := svc.RequestPayment(context.Background(), userID)
	require.NoError(t, err)

	_, err = svc.RequestPayment(context.Background(), userID)
	assert.ErrorIs(t, err, ErrAlreadyExistsThisMonth)
}

func TestRequestPaymentAllowedAgainNextMonth(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newMemStore()
	rm := &memReadModel{stats: map[primitive.ObjectID]UserStats{
		userID: eligibleStats(7, 400),
	}}

	august := time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)
	svc := NewService(store, rm, DefaultRegistry(), nil, nil, fixedClock(august))
	first, err := svc.RequestPayment(context.Background(), userID)
	require.NoError(t, err)

	september := time.Date(2026, 9, 1, 0, 30, 0, 0, time.UTC)
	svc = NewService(store, rm, DefaultRegistry(), nil, nil, fixedClock(september))
	second, err := svc.RequestPayment(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, "2026-08", first.YearMonth)
	assert.Equal(t, "2026-09", second.YearMonth)
}

func TestRequestPaymentEligibilityGates(t *testing.T) {
	userID := primitive.NewObjectID()
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		stats UserStats
		want  error
	}{
		{"unknown user", UserStats{}, ErrNotEligible},
		{"inactive user", UserStats{Found: true, Active: false, PayoutAddress: "addr", ActiveReferrals: 50, CompositeBalance: 2000}, ErrNotEligible},
		{"below every plan", eligibleStats(6, 349), ErrNotEligible},
		{"referrals without balance", eligibleStats(7, 349), ErrNotEligible},
		{"balance without referrals", eligibleStats(6, 350), ErrNotEligible},
		{"no payout address", UserStats{Found: true, Active: true, ActiveReferrals: 7, CompositeBalance: 400}, ErrMissingPayoutAddress},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rm := &memReadModel{stats: map[primitive.ObjectID]UserStats{userID: tc.stats}}
			svc := NewService(newMemStore(), rm, DefaultRegistry(), nil, nil, fixedClock(now))

			_, err := svc.RequestPayment(context.Background(), userID)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRequestPaymentSnapshotsAmount(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newMemStore()
	rm := &memReadModel{stats: map[primitive.ObjectID]UserStats{
		userID: eligibleStats(46, 1340),
	}}
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	svc := NewService(store, rm, DefaultRegistry(), nil, nil, fixedClock(now))

	req, err := svc.RequestPayment(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 4, req.PlanID)
	assert.Equal(t, 480.0, req.Amount)

	// Later stat changes must not touch the stored row
	rm.stats[userID] = eligibleStats(0, 0)
	got, err := svc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, 480.0, got.Amount)
}

func TestApproveRequiresTransactionRef(t *testing.T) {
	svc := NewService(newMemStore(), &memReadModel{}, DefaultRegistry(), nil, nil, nil)

	_, err := svc.Approve(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "", "")
	assert.ErrorIs(t, err, ErrMissingTransactionRef)
}

func TestApproveStampsProcessingFields(t *testing.T) {
	userID := primitive.NewObjectID()
	actorID := primitive.NewObjectID()
	store := newMemStore()
	rm := &memReadModel{stats: map[primitive.ObjectID]UserStats{
		userID: eligibleStats(7, 400),
	}}
	rec := &recorder{}
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	svc := NewService(store, rm, DefaultRegistry(), rec, rec, fixedClock(now))

	req, err := svc.RequestPayment(context.Background(), userID)
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), req.ID, actorID, "0xabc123", "paid out")
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, "0xabc123", approved.TransactionRef)
	assert.Equal(t, "paid out", approved.Notes)
	require.NotNil(t, approved.ProcessedAt)
	require.NotNil(t, approved.ProcessedBy)
	assert.Equal(t, actorID, *approved.ProcessedBy)

	require.Len(t, rec.transitioned, 1)
	assert.Equal(t, StatusApproved, rec.transitioned[0].To)
}

func TestRejectKeepsMonthOccupied(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newMemStore()
	rm := &memReadModel{stats: map[primitive.ObjectID]UserStats{
		userID: eligibleStats(7, 400),
	}}
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	svc := NewService(store, rm, DefaultRegistry(), nil, nil, fixedClock(now))

	req, err := svc.RequestPayment(context.Background(), userID)
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), req.ID, primitive.NewObjectID(), "threshold audit failed")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "threshold audit failed", rejected.Notes)

	// A rejected request still blocks the month
	_, err = svc.RequestPayment(context.Background(), userID)
	assert.ErrorIs(t, err, ErrAlreadyExistsThisMonth)
}

func TestTransitionIsFinal(t *testing.T) {
	userID := primitive.NewObjectID()
	actorID := primitive.NewObjectID()
	store := newMemStore()
	rm := &memReadModel{stats: map[primitive.ObjectID]UserStats{
		userID: eligibleStats(7, 400),
	}}
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	svc := NewService(store, rm, DefaultRegistry(), nil, nil, fixedClock(now))

	req, err := svc.RequestPayment(context.Background(), userID)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), req.ID, actorID, "0xabc", "")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), req.ID, actorID, "0xdef", "")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	_, err = svc.Reject(context.Background(), req.ID, actorID, "too late")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestTransitionUnknownRequest(t *testing.T) {
	svc := NewService(newMemStore(), &memReadModel{}, DefaultRegistry(), nil, nil, nil)

	_, err := svc.Approve(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "0xabc", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBulkApproveDerivesPerRequestRefs(t *testing.T) {
	store := newMemStore()
	stats := make(map[primitive.ObjectID]UserStats)
	rm := &memReadModel{stats: stats}
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	svc := NewService(store, rm, DefaultRegistry(), nil, nil, fixedClock(now))

	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		userID := primitive.NewObjectID()
		stats[userID] = eligibleStats(7, 400)
		req, err := svc.RequestPayment(context.Background(), userID)
		require.NoError(t, err)
		ids = append(ids, req.ID)
	}

	approved, err := svc.BulkApprove(context.Background(), ids, primitive.NewObjectID(), "batch-2026-08")
	require.NoError(t, err)
	require.Len(t, approved, 3)

	for i, req := range approved {
		assert.Equal(t, StatusApproved, req.Status)
		assert.Equal(t, "batch-2026-08-"+ids[i].Hex(), req.TransactionRef)
	}
}

func TestBulkApproveAllOrNothing(t *testing.T) {
	store := newMemStore()
	stats := make(map[primitive.ObjectID]UserStats)
	rm := &memReadModel{stats: stats}
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	actorID := primitive.NewObjectID()
	svc := NewService(store, rm, DefaultRegistry(), nil, nil, fixedClock(now))

	var ids []primitive.ObjectID
	for i := 0; i < 2; i++ {
		userID := primitive.NewObjectID()
		stats[userID] = eligibleStats(7, 400)
		req, err := svc.RequestPayment(context.Background(), userID)
		require.NoError(t, err)
		ids = append(ids, req.ID)
	}

	// Process one of the batch ahead of time
	_, err := svc.Reject(context.Background(), ids[1], actorID, "manual review")
	require.NoError(t, err)

	missing := primitive.NewObjectID()
	_, err = svc.BulkApprove(context.Background(), append(ids, missing), actorID, "batch")
	require.Error(t, err)

	var bulkErr *BulkError
	require.ErrorAs(t, err, &bulkErr)
	assert.Len(t, bulkErr.Failed, 2)
	assert.ErrorIs(t, bulkErr.Failed[ids[1].Hex()], ErrAlreadyProcessed)
	assert.ErrorIs(t, bulkErr.Failed[missing.Hex()], ErrNotFound)

	// The pending request must be untouched
	got, err := svc.Get(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestBulkApproveRequiresBaseRef(t *testing.T) {
	svc := NewService(newMemStore(), &memReadModel{}, DefaultRegistry(), nil, nil, nil)

	_, err := svc.BulkApprove(context.Background(), []primitive.ObjectID{primitive.NewObjectID()}, primitive.NewObjectID(), "")
	assert.ErrorIs(t, err, ErrMissingTransactionRef)
}

func TestProgressReport(t *testing.T) {
	userID := primitive.NewObjectID()
	rm := &memReadModel{stats: map[primitive.ObjectID]UserStats{
		userID: eligibleStats(13, 700),
	}}
	svc := NewService(newMemStore(), rm, DefaultRegistry(), nil, nil, nil)

	report, err := svc.Progress(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 2, report.CurrentEligiblePlan)
	assert.Equal(t, 13, report.ActiveReferrals)
	assert.Equal(t, 700.0, report.CompositeBalance)
	assert.True(t, report.HasPayoutAddress)
	require.Len(t, report.PerPlan, 4)
	assert.True(t, report.PerPlan[0].Eligible)
	assert.True(t, report.PerPlan[1].Eligible)
	assert.False(t, report.PerPlan[2].Eligible)
	assert.False(t, report.PerPlan[3].Eligible)
}

func TestProgressReadModelUnavailable(t *testing.T) {
	rm := &memReadModel{err: ErrReadModelUnavailable}
	svc := NewService(newMemStore(), rm, DefaultRegistry(), nil, nil, nil)

	_, err := svc.Progress(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrReadModelUnavailable)
}
