package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateResetCode returns a four digit password reset code in [1000, 9999].
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return fmt.Sprintf("%d", 1000+n.Int64()), nil
}
