// Package otp issues one-time passcodes through a delivery collaborator and verifies
// submitted candidates against the issued challenge within a validity window.
package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"zero-trust-otp/backend/internal/otp/domain"
)

const (
	// CodeDigits is the fixed width of every code.
	CodeDigits = 6
	// DefaultValidityWindow is how long after issuance a code may be accepted (inclusive).
	DefaultValidityWindow = 300 * time.Second

	codeMin = 100000
	codeMax = 999999
)

var codeSpace = big.NewInt(codeMax - codeMin + 1)

// GenerateCode returns a code drawn uniformly from [100000, 999999] using crypto/rand.
// The result is always 6 digits with no leading zero.
func GenerateCode() (domain.Code, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("otp: generate code: %w", err)
	}
	return domain.Code(fmt.Sprintf("%d", n.Int64()+codeMin)), nil
}

// CodeEqual performs a constant-time comparison of candidate's hash against storedHash.
// It is exact string equality on the code: no trimming or normalization.
func CodeEqual(candidate, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	providedHash := domain.HashCode(candidate)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}
