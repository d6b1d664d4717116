// salary/store.go
package salary

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	UserID    *primitive.ObjectID
	Statuses  []Status
	YearMonth string
	Limit     int64
}

// Store persists salary requests and serializes the one-request-per-month
// invariant. Implementations must make Create atomic with the uniqueness
// check and Transition a single conditional write, so that concurrent
// callers observe exactly one winner.
type Store interface {
	// Create inserts a new pending request for the calendar month of
	// createdAt. Returns ErrAlreadyExistsThisMonth if a request for
	// (userID, month) already exists, regardless of its status.
	Create(ctx context.Context, userID primitive.ObjectID, planID int, amount float64, address string, createdAt time.Time) (*Request, error)

	// Get returns a request by id, or ErrNotFound.
	Get(ctx context.Context, id primitive.ObjectID) (*Request, error)

	// Transition moves a pending request to approved or rejected. Approval
	// requires a non-empty transactionRef. A request that is no longer
	// pending yields ErrAlreadyProcessed; a missing one ErrNotFound.
	Transition(ctx context.Context, id primitive.ObjectID, to Status, actorID primitive.ObjectID, transactionRef, notes string) (*Request, error)

	// BulkTransition approves every listed request in one atomic unit,
	// assigning each the reference BulkRef(baseRef, id). If any request is
	// missing or not pending the whole batch is rejected with a *BulkError
	// and no writes commit.
	BulkTransition(ctx context.Context, ids []primitive.ObjectID, actorID primitive.ObjectID, baseRef string) ([]*Request, error)

	// List returns requests matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]*Request, error)

	// ExistsForMonth reports whether any request exists with the given
	// month key. The scheduler uses it to short-circuit reruns.
	ExistsForMonth(ctx context.Context, monthKey string) (bool, error)
}
