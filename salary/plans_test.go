package salary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryTiers(t *testing.T) {
	reg := DefaultRegistry()
	plans := reg.All()
	require.Len(t, plans, 4)

	want := []Plan{
		{ID: 1, Name: "Basic Plan", MinReferrals: 7, MinBalance: 350, MonthlyAmount: 50},
		{ID: 2, Name: "Silver Plan", MinReferrals: 13, MinBalance: 680, MonthlyAmount: 110},
		{ID: 3, Name: "Gold Plan", MinReferrals: 27, MinBalance: 960, MonthlyAmount: 230},
		{ID: 4, Name: "Platinum Plan", MinReferrals: 46, MinBalance: 1340, MonthlyAmount: 480},
	}
	assert.Equal(t, want, plans)
}

func TestNewRegistrySortsByID(t *testing.T) {
	reg, err := NewRegistry([]Plan{
		{ID: 3, Name: "C", MinReferrals: 30, MinBalance: 3000, MonthlyAmount: 300},
		{ID: 1, Name: "A", MinReferrals: 10, MinBalance: 1000, MonthlyAmount: 100},
		{ID: 2, Name: "B", MinReferrals: 20, MinBalance: 2000, MonthlyAmount: 200},
	})
	require.NoError(t, err)

	plans := reg.All()
	assert.Equal(t, []int{1, 2, 3}, []int{plans[0].ID, plans[1].ID, plans[2].ID})
}

func TestNewRegistryRejectsBadPlans(t *testing.T) {
	valid := Plan{ID: 1, Name: "A", MinReferrals: 1, MinBalance: 1, MonthlyAmount: 1}

	cases := []struct {
		name  string
		plans []Plan
	}{
		{"empty", nil},
		{"zero id", []Plan{{ID: 0, MinReferrals: 1, MinBalance: 1, MonthlyAmount: 1}}},
		{"duplicate id", []Plan{valid, valid}},
		{"zero referrals", []Plan{{ID: 1, MinReferrals: 0, MinBalance: 1, MonthlyAmount: 1}}},
		{"zero balance", []Plan{{ID: 1, MinReferrals: 1, MinBalance: 0, MonthlyAmount: 1}}},
		{"zero amount", []Plan{{ID: 1, MinReferrals: 1, MinBalance: 1, MonthlyAmount: 0}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegistry(tc.plans)
			assert.Error(t, err)
		})
	}
}

func TestRegistryGet(t *testing.T) {
	reg := DefaultRegistry()

	p, ok := reg.Get(2)
	require.True(t, ok)
	assert.Equal(t, "Silver Plan", p.Name)

	_, ok = reg.Get(99)
	assert.False(t, ok)
}
