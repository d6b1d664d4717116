// salary/evaluator.go
package salary

import "math"

// PlanProgress reports how close a user is to one plan's thresholds.
// Fractions are clamped to [0,1] and carry one decimal of percent precision.
type PlanProgress struct {
	PlanID      int     `json:"planId"`
	ReferralPct float64 `json:"referralPct"`
	BalancePct  float64 `json:"balancePct"`
	Eligible    bool    `json:"eligible"`
}

// Evaluate returns the id of the highest plan whose thresholds the given
// referral count and composite balance meet (0 when none), together with a
// per-plan progress vector in id order. Pure and deterministic; it does not
// look at payout addresses, that gate belongs to request creation.
func Evaluate(reg *Registry, activeReferrals int, compositeBalance float64) (int, []PlanProgress) {
	plans := reg.All()

	best := 0
	for i := len(plans) - 1; i >= 0; i-- {
		p := plans[i]
		if activeReferrals >= p.MinReferrals && compositeBalance >= p.MinBalance {
			best = p.ID
			break
		}
	}

	progress := make([]PlanProgress, 0, len(plans))
	for _, p := range plans {
		progress = append(progress, PlanProgress{
			PlanID:      p.ID,
			ReferralPct: progressFraction(float64(activeReferrals), float64(p.MinReferrals)),
			BalancePct:  progressFraction(compositeBalance, p.MinBalance),
			Eligible:    activeReferrals >= p.MinReferrals && compositeBalance >= p.MinBalance,
		})
	}

	return best, progress
}

func progressFraction(have, need float64) float64 {
	if need <= 0 {
		return 1
	}
	f := have / need
	if f > 1 {
		f = 1
	}
	if f < 0 {
		f = 0
	}
	// one decimal of percent precision, e.g. 0.857 for 85.7%
	return math.Round(f*1000) / 1000
}
