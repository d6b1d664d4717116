// utils/otp.go
package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
)

const otpTTL = 5 * time.Minute

var (
	ErrOTPExpired  = errors.New("OTP expired or not requested")
	ErrOTPMismatch = errors.New("incorrect OTP")
)

// GenerateSecureOTP returns a 6-digit numeric code. The SMS gateway's OTP
// route only accepts numeric values.
func GenerateSecureOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// StoreOTP caches the OTP for the phone number with a short TTL.
func StoreOTP(ctx context.Context, rdb *redis.Client, phone, otp string) error {
	return rdb.Set(ctx, "otp:"+phone, otp, otpTTL).Err()
}

// VerifyOTP checks the cached OTP for the phone and deletes it on success,
// so a code can be used once.
func VerifyOTP(ctx context.Context, rdb *redis.Client, phone, otp string) error {
	key := "otp:" + phone
	stored, err := rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrOTPExpired
	}
	if err != nil {
		return err
	}
	if stored != otp {
		return ErrOTPMismatch
	}
	return rdb.Del(ctx, key).Err()
}

func ValidateOTPAttempts(userID string, redis *redis.Client) error {
	key := "otp_attempts:" + userID
	attempts, err := redis.Incr(context.Background(), key).Result()
	if err != nil {
		return err
	}

	// Set expiry if first attempt
	if attempts == 1 {
		redis.Expire(context.Background(), key, 1*time.Hour)
	}

	// Limit to 5 attempts per hour
	if attempts > 5 {
		return errors.New("too many OTP attempts")
	}

	return nil
}
