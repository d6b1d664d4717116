// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User model
type User struct {
	ID            primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Email         string              `json:"email" bson:"email"`
	Password      string              `json:"password,omitempty" bson:"password"`
	FullName      string              `json:"fullName" bson:"fullName"`
	Phone         string              `json:"phone" bson:"phone"`
	PhoneVerified bool                `json:"phoneVerified" bson:"phoneVerified"`
	UserType      string              `json:"userType" bson:"userType"` // "user" or "admin"
	IsActive      bool                `json:"isActive" bson:"isActive"`
	WalletBalance float64             `json:"walletBalance" bson:"walletBalance"` // USDT
	PayoutAddress string              `json:"payoutAddress,omitempty" bson:"payoutAddress,omitempty"`
	ReferralCode  string              `json:"referralCode,omitempty" bson:"referralCode,omitempty"`
	ReferredBy    *primitive.ObjectID `json:"referredBy,omitempty" bson:"referredBy,omitempty"`
	CreatedAt     time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	FullName     string `json:"fullName" validate:"required,min=2"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,min=8"`
	Password     string `json:"password" validate:"required,min=8"`
	ReferralCode string `json:"referralCode,omitempty"`
}

// LoginRequest is the login payload; either email or phone identifies the user.
type LoginRequest struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password" validate:"required"`
}

// VerifyOTPRequest confirms a phone number after registration.
type VerifyOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

// SetPayoutAddressRequest sets the write-once salary wallet address.
type SetPayoutAddressRequest struct {
	Address string `json:"address" validate:"required,min=20"`
}

// ReferralSummary is one row of a user's referral list.
type ReferralSummary struct {
	UserID         primitive.ObjectID `json:"userId"`
	FullName       string             `json:"fullName"`
	TotalDeposited float64            `json:"totalDeposited"`
	Active         bool               `json:"active"`
	JoinedAt       time.Time          `json:"joinedAt"`
}
