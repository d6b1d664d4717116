package salary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatePicksHighestQualifyingPlan(t *testing.T) {
	reg := DefaultRegistry()

	cases := []struct {
		name      string
		referrals int
		balance   float64
		want      int
	}{
		{"nothing", 0, 0, 0},
		{"just below basic", 6, 349, 0},
		{"exactly basic", 7, 350, 1},
		{"referrals only", 46, 349, 0},
		{"balance only", 6, 2000, 0},
		{"between basic and silver", 12, 679, 1},
		{"exactly silver", 13, 680, 2},
		{"exactly gold", 27, 960, 3},
		{"exactly platinum", 46, 1340, 4},
		{"far beyond platinum", 100, 10000, 4},
		{"gold referrals silver balance", 27, 680, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := Evaluate(reg, tc.referrals, tc.balance)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluateProgressVector(t *testing.T) {
	reg := DefaultRegistry()

	_, progress := Evaluate(reg, 6, 340)
	require.Len(t, progress, 4)

	// 6/7 referrals, 340/350 balance against the basic plan
	assert.Equal(t, 1, progress[0].PlanID)
	assert.Equal(t, 0.857, progress[0].ReferralPct)
	assert.Equal(t, 0.971, progress[0].BalancePct)
	assert.False(t, progress[0].Eligible)

	// 6/46 referrals against the platinum plan
	assert.Equal(t, 4, progress[3].PlanID)
	assert.Equal(t, 0.13, progress[3].ReferralPct)
}

func TestEvaluateProgressClamped(t *testing.T) {
	reg := DefaultRegistry()

	_, progress := Evaluate(reg, 1000, 1e9)
	for _, p := range progress {
		assert.Equal(t, 1.0, p.ReferralPct)
		assert.Equal(t, 1.0, p.BalancePct)
		assert.True(t, p.Eligible)
	}

	_, progress = Evaluate(reg, 0, -50)
	assert.Equal(t, 0.0, progress[0].ReferralPct)
	assert.Equal(t, 0.0, progress[0].BalancePct)
}
