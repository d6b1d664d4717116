// salary/plans.go
package salary

import (
	"fmt"
	"sort"
)

// MinActiveReferralDeposit is the approved-deposit total (USDT) a referee
// needs before it counts as an active referral.
const MinActiveReferralDeposit = 100.0

// Plan is a single salary tier. Tiers are ordered by ID and a user is paid
// the monthly amount of the highest tier whose thresholds they meet.
type Plan struct {
	ID            int     `json:"id" bson:"id"`
	Name          string  `json:"name" bson:"name"`
	MinReferrals  int     `json:"minReferrals" bson:"minReferrals"`
	MinBalance    float64 `json:"minBalance" bson:"minBalance"`
	MonthlyAmount float64 `json:"monthlyAmount" bson:"monthlyAmount"`
}

// Registry is an immutable, id-ordered set of salary plans loaded at startup.
// Replacing it requires a restart; requests keep the amount snapshotted at
// creation time.
type Registry struct {
	plans []Plan
	byID  map[int]Plan
}

// NewRegistry builds a registry from the given plans. Plans are sorted by ID.
func NewRegistry(plans []Plan) (*Registry, error) {
	if len(plans) == 0 {
		return nil, fmt.Errorf("salary: registry needs at least one plan")
	}

	sorted := make([]Plan, len(plans))
	copy(sorted, plans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[int]Plan, len(sorted))
	for _, p := range sorted {
		if p.ID <= 0 {
			return nil, fmt.Errorf("salary: invalid plan id %d", p.ID)
		}
		if _, exists := byID[p.ID]; exists {
			return nil, fmt.Errorf("salary: duplicate plan id %d", p.ID)
		}
		if p.MinReferrals <= 0 || p.MinBalance <= 0 || p.MonthlyAmount <= 0 {
			return nil, fmt.Errorf("salary: plan %d has non-positive thresholds", p.ID)
		}
		byID[p.ID] = p
	}

	return &Registry{plans: sorted, byID: byID}, nil
}

// DefaultRegistry returns the production plan configuration.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry([]Plan{
		{ID: 1, Name: "Basic Plan", MinReferrals: 7, MinBalance: 350, MonthlyAmount: 50},
		{ID: 2, Name: "Silver Plan", MinReferrals: 13, MinBalance: 680, MonthlyAmount: 110},
		{ID: 3, Name: "Gold Plan", MinReferrals: 27, MinBalance: 960, MonthlyAmount: 230},
		{ID: 4, Name: "Platinum Plan", MinReferrals: 46, MinBalance: 1340, MonthlyAmount: 480},
	})
	if err != nil {
		panic(err)
	}
	return reg
}

// All returns the plans in ascending id order.
func (r *Registry) All() []Plan {
	out := make([]Plan, len(r.plans))
	copy(out, r.plans)
	return out
}

// Get returns the plan with the given id.
func (r *Registry) Get(id int) (Plan, bool) {
	p, ok := r.byID[id]
	return p, ok
}
