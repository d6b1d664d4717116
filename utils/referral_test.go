package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferralCodeShape(t *testing.T) {
	pattern := regexp.MustCompile(`^USR-[A-Z2-7]{6}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateReferralCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}

	// 100 draws from a 32^6 space should not collide
	assert.Greater(t, len(seen), 95)
}

func TestGenerateSecureOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp, err := GenerateSecureOTP()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, otp)
	}
}
