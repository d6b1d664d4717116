// salary/readmodel.go
package salary

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStats is one user's eligibility inputs, read within a single snapshot
// so referral count and balance come from the same epoch.
type UserStats struct {
	Found            bool
	Active           bool
	PayoutAddress    string
	ActiveReferrals  int
	CompositeBalance float64
}

// Candidate is a user the monthly scheduler considers: active and with a
// payout address set.
type Candidate struct {
	UserID primitive.ObjectID
}

// ReadModel supplies eligibility inputs from the surrounding platform's
// users, deposits and stakes. A missing user yields zero stats, not an
// error; infrastructure failures wrap ErrReadModelUnavailable.
type ReadModel interface {
	Snapshot(ctx context.Context, userID primitive.ObjectID) (UserStats, error)
	ListCandidates(ctx context.Context) ([]Candidate, error)
}
