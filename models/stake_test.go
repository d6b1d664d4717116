package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStakeYield(t *testing.T) {
	// 1000 USDT at 3%/month for 90 days = 90 USDT
	s := Stake{Amount: 1000, MonthlyYieldPct: 3.0, DurationDays: 90}
	assert.InDelta(t, 90.0, s.Yield(), 1e-9)

	// 500 USDT at 4.5%/month for 30 days = 22.5 USDT
	s = Stake{Amount: 500, MonthlyYieldPct: 4.5, DurationDays: 30}
	assert.InDelta(t, 22.5, s.Yield(), 1e-9)
}

func TestLookupStakingRate(t *testing.T) {
	rate, ok := LookupStakingRate("USDT", 90)
	require.True(t, ok)
	assert.Equal(t, 4.5, rate.MonthlyYieldPct)

	_, ok = LookupStakingRate("USDT", 45)
	assert.False(t, ok)
	_, ok = LookupStakingRate("DOGE", 30)
	assert.False(t, ok)
}
