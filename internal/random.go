// Package internal holds crypto/rand helpers shared by the authcore
// packages. Nothing here is part of the public API.
package internal

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// NewOTP generates a uniformly random numeric one-time code of the given
// length. Leading zeros are valid output: the probability space for six
// digits is exactly 10^6.
func NewOTP(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	bound := big.NewInt(1)
	for i := 0; i < digits; i++ {
		bound.Mul(bound, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}
