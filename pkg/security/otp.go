package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTPLength is the digit count of generated one-time codes.
const OTPLength = 6

// GenerateOTP produces a zero-padded 6-digit one-time code.
func GenerateOTP() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
