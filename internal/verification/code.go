package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// CodeExpiry is how long an issued verification code stays redeemable.
const CodeExpiry = 24 * time.Hour

const (
	codeMin  = 100000
	codeSpan = 900000
)

// GenerateCode returns a uniformly-selected 6-digit verification code
// in the range [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+codeMin), nil
}
