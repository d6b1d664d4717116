package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DepositStatusPending  = "pending"
	DepositStatusApproved = "approved"
	DepositStatusRejected = "rejected"
)

// ReferralCommissionRate is the share of every approved deposit credited to
// the depositor's referrer.
const ReferralCommissionRate = 0.05

// Deposit is a user's USDT top-up. Only approved deposits count towards the
// wallet balance and the active-referral threshold.
type Deposit struct {
	ID          primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID      primitive.ObjectID  `json:"userId" bson:"userId"`
	Amount      float64             `json:"amount" bson:"amount"`
	Reference   string              `json:"reference" bson:"reference"` // user-facing deposit reference
	TxHash      string              `json:"txHash,omitempty" bson:"txHash,omitempty"`
	Status      string              `json:"status" bson:"status"`
	AdminID     *primitive.ObjectID `json:"adminId,omitempty" bson:"adminId,omitempty"`
	AdminNote   string              `json:"adminNote,omitempty" bson:"adminNote,omitempty"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	ProcessedAt *time.Time          `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
}

// CreateDepositRequest is the payload for submitting a deposit.
type CreateDepositRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	TxHash string  `json:"txHash,omitempty"`
}

// ProcessDepositRequest is the admin decision payload.
type ProcessDepositRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Note   string `json:"note,omitempty"`
}

// ReferralCommission records the referrer's cut of an approved deposit.
type ReferralCommission struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ReferrerID primitive.ObjectID `json:"referrerId" bson:"referrerId"`
	UserID     primitive.ObjectID `json:"userId" bson:"userId"`
	DepositID  primitive.ObjectID `json:"depositId" bson:"depositId"`
	Amount     float64            `json:"amount" bson:"amount"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}
