// salary/service.go
package salary

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgressReport is the read-only projection the dashboards render.
type ProgressReport struct {
	PerPlan             []PlanProgress `json:"perPlan"`
	CurrentEligiblePlan int            `json:"currentEligiblePlan"`
	ActiveReferrals     int            `json:"activeReferrals"`
	CompositeBalance    float64        `json:"compositeBalance"`
	HasPayoutAddress    bool           `json:"hasPayoutAddress"`
}

// Service is the engine's front door: the user-pull request path, the
// operator approval workflow and the progress projection. The scheduler and
// the user pull share the same create primitive, so both are covered by the
// same per-month uniqueness guard.
type Service struct {
	store     Store
	readModel ReadModel
	registry  *Registry
	events    Events
	activity  ActivityLogger
	now       func() time.Time
}

// NewService wires a service. A nil now defaults to time.Now.
func NewService(store Store, readModel ReadModel, registry *Registry, events Events, activity ActivityLogger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if events == nil {
		events = NopEvents{}
	}
	if activity == nil {
		activity = NopActivity{}
	}
	return &Service{
		store:     store,
		readModel: readModel,
		registry:  registry,
		events:    events,
		activity:  activity,
		now:       now,
	}
}

// Registry returns the plan registry the service was built with.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Progress returns the per-plan progress projection for one user.
func (s *Service) Progress(ctx context.Context, userID primitive.ObjectID) (*ProgressReport, error) {
	stats, err := s.readModel.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	best, perPlan := Evaluate(s.registry, stats.ActiveReferrals, stats.CompositeBalance)
	return &ProgressReport{
		PerPlan:             perPlan,
		CurrentEligiblePlan: best,
		ActiveReferrals:     stats.ActiveReferrals,
		CompositeBalance:    stats.CompositeBalance,
		HasPayoutAddress:    stats.PayoutAddress != "",
	}, nil
}

// RequestPayment is the user-initiated pull path. It evaluates the user and
// creates a pending request for the current month, subject to the same
// guards as the scheduler. It succeeds only when a new row was inserted.
func (s *Service) RequestPayment(ctx context.Context, userID primitive.ObjectID) (*Request, error) {
	stats, err := s.readModel.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !stats.Found || !stats.Active {
		return nil, ErrNotEligible
	}
	if stats.PayoutAddress == "" {
		return nil, ErrMissingPayoutAddress
	}

	planID, _ := Evaluate(s.registry, stats.ActiveReferrals, stats.CompositeBalance)
	if planID == 0 {
		return nil, ErrNotEligible
	}
	plan, _ := s.registry.Get(planID)

	req, err := s.store.Create(ctx, userID, plan.ID, plan.MonthlyAmount, stats.PayoutAddress, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.events.RequestCreated(ctx, CreatedEvent{
		RequestID:     req.ID,
		UserID:        req.UserID,
		PlanID:        req.PlanID,
		Amount:        req.Amount,
		PayoutAddress: req.PayoutAddress,
		CreatedAt:     req.CreatedAt,
	})
	s.activity.Log(ctx, userID, "salary_request",
		fmt.Sprintf("Requested salary payment for %s - %.0f USDT", plan.Name, plan.MonthlyAmount))

	return req, nil
}

// Approve moves a pending request to approved. The operator must supply the
// out-of-band transaction reference of the payout.
func (s *Service) Approve(ctx context.Context, id, actorID primitive.ObjectID, transactionRef, notes string) (*Request, error) {
	if transactionRef == "" {
		return nil, ErrMissingTransactionRef
	}

	req, err := s.store.Transition(ctx, id, StatusApproved, actorID, transactionRef, notes)
	if err != nil {
		return nil, err
	}

	s.emitTransition(ctx, req, actorID)
	s.activity.Log(ctx, actorID, "salary_approved",
		fmt.Sprintf("Approved salary request %s - TX: %s", req.ID.Hex(), transactionRef))
	return req, nil
}

// Reject moves a pending request to rejected with the operator's reason.
func (s *Service) Reject(ctx context.Context, id, actorID primitive.ObjectID, reason string) (*Request, error) {
	req, err := s.store.Transition(ctx, id, StatusRejected, actorID, "", reason)
	if err != nil {
		return nil, err
	}

	s.emitTransition(ctx, req, actorID)
	s.activity.Log(ctx, actorID, "salary_rejected",
		fmt.Sprintf("Rejected salary request %s - %s", req.ID.Hex(), reason))
	return req, nil
}

// BulkApprove approves every listed request atomically, deriving per-request
// references from baseRef. If any request is not pending the whole batch is
// rejected with a *BulkError and nothing is written.
func (s *Service) BulkApprove(ctx context.Context, ids []primitive.ObjectID, actorID primitive.ObjectID, baseRef string) ([]*Request, error) {
	if baseRef == "" {
		return nil, ErrMissingTransactionRef
	}

	reqs, err := s.store.BulkTransition(ctx, ids, actorID, baseRef)
	if err != nil {
		return nil, err
	}

	for _, req := range reqs {
		s.emitTransition(ctx, req, actorID)
	}
	s.activity.Log(ctx, actorID, "salary_bulk_approved",
		fmt.Sprintf("Bulk approved %d salary requests - TX: %s", len(reqs), baseRef))
	return reqs, nil
}

// List exposes the store's listing to the workflow UIs.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Request, error) {
	return s.store.List(ctx, filter)
}

// Get returns one request by id.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*Request, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) emitTransition(ctx context.Context, req *Request, actorID primitive.ObjectID) {
	processedAt := s.now().UTC()
	if req.ProcessedAt != nil {
		processedAt = *req.ProcessedAt
	}
	s.events.RequestTransitioned(ctx, TransitionedEvent{
		RequestID:      req.ID,
		UserID:         req.UserID,
		From:           StatusPending,
		To:             req.Status,
		ProcessedAt:    processedAt,
		ProcessedBy:    actorID,
		TransactionRef: req.TransactionRef,
		Notes:          req.Notes,
	})
}
