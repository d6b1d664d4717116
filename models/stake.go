package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StakeStatusActive    = "active"
	StakeStatusMatured   = "matured"
	StakeStatusCancelled = "cancelled"
)

// Stake locks wallet balance for a fixed duration at a per-coin monthly
// yield. Active stakes count towards the salary engine's composite balance.
type Stake struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID          primitive.ObjectID `json:"userId" bson:"userId"`
	Coin            string             `json:"coin" bson:"coin"`
	Amount          float64            `json:"amount" bson:"amount"` // principal, USDT
	MonthlyYieldPct float64            `json:"monthlyYieldPct" bson:"monthlyYieldPct"`
	DurationDays    int                `json:"durationDays" bson:"durationDays"`
	Status          string             `json:"status" bson:"status"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	MaturesAt       time.Time          `json:"maturesAt" bson:"maturesAt"`
	ClosedAt        *time.Time         `json:"closedAt,omitempty" bson:"closedAt,omitempty"`
}

// Yield returns the total payout earned over the full duration.
func (s *Stake) Yield() float64 {
	months := float64(s.DurationDays) / 30.0
	return s.Amount * (s.MonthlyYieldPct / 100.0) * months
}

// StakingRate is one row of the static per-coin/per-duration rate table.
type StakingRate struct {
	Coin            string  `json:"coin"`
	DurationDays    int     `json:"durationDays"`
	MonthlyYieldPct float64 `json:"monthlyYieldPct"`
}

// StakingRates is the rate table offered at stake creation.
var StakingRates = []StakingRate{
	{Coin: "USDT", DurationDays: 30, MonthlyYieldPct: 3.0},
	{Coin: "USDT", DurationDays: 90, MonthlyYieldPct: 4.5},
	{Coin: "USDT", DurationDays: 180, MonthlyYieldPct: 6.0},
	{Coin: "BTC", DurationDays: 30, MonthlyYieldPct: 1.5},
	{Coin: "BTC", DurationDays: 90, MonthlyYieldPct: 2.5},
	{Coin: "ETH", DurationDays: 30, MonthlyYieldPct: 2.0},
	{Coin: "ETH", DurationDays: 90, MonthlyYieldPct: 3.0},
}

// LookupStakingRate finds the rate for a coin/duration pair.
func LookupStakingRate(coin string, durationDays int) (StakingRate, bool) {
	for _, r := range StakingRates {
		if r.Coin == coin && r.DurationDays == durationDays {
			return r, true
		}
	}
	return StakingRate{}, false
}

// CreateStakeRequest is the payload for opening a stake.
type CreateStakeRequest struct {
	Coin         string  `json:"coin" validate:"required"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	DurationDays int     `json:"durationDays" validate:"required,gt=0"`
}
