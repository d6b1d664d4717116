// salary/request.go
package salary

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status of a salary request. Pending is the only mutable state; approved and
// rejected are final.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is a monthly salary disbursement request. At most one request per
// (user, calendar month) may exist, enforced by a unique index on
// (userId, yearMonth). Amount and payout address are snapshots taken at
// creation time; later plan or address changes never touch existing rows.
type Request struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID         primitive.ObjectID  `json:"userId" bson:"userId"`
	PlanID         int                 `json:"planId" bson:"planId"`
	Amount         float64             `json:"amount" bson:"amount"`
	PayoutAddress  string              `json:"payoutAddress" bson:"payoutAddress"`
	YearMonth      string              `json:"yearMonth" bson:"yearMonth"`
	Status         Status              `json:"status" bson:"status"`
	TransactionRef string              `json:"transactionRef,omitempty" bson:"transactionRef,omitempty"`
	Notes          string              `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
	ProcessedAt    *time.Time          `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
	ProcessedBy    *primitive.ObjectID `json:"processedBy,omitempty" bson:"processedBy,omitempty"`
}

// MonthKey returns the calendar month of t in UTC as "YYYY-MM". UTC is the
// engine's reference timezone.
func MonthKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// ValidateTransition checks that a transition to the given state is legal for
// a pending request. It does not look at the current state; stores apply it
// only after confirming the request is pending.
func ValidateTransition(to Status, transactionRef string) error {
	switch to {
	case StatusApproved:
		if transactionRef == "" {
			return ErrMissingTransactionRef
		}
		return nil
	case StatusRejected:
		return nil
	default:
		return ErrIllegalTransition
	}
}

// BulkRef derives the per-request transaction reference used by bulk
// approvals from the operator-supplied base reference.
func BulkRef(base string, id primitive.ObjectID) string {
	return fmt.Sprintf("%s-%s", base, id.Hex())
}
