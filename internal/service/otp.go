package service

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"gigster_auth/internal/config"
)

// OTPGenerator produces the codes mailed to users.
type OTPGenerator interface {
	Generate() (string, error)
}

type numericOTPGenerator struct {
	length int
	max    *big.Int
}

// NewNumericOTPGenerator returns a generator of zero-padded decimal codes
// of the given length, drawn uniformly from crypto/rand.
func NewNumericOTPGenerator(length int) OTPGenerator {
	if length <= 0 || length > 18 {
		length = config.DefaultOTPLength
	}
	return &numericOTPGenerator{
		length: length,
		max:    new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil),
	}
}

func (g *numericOTPGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, g.max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", g.length, n.Int64()), nil
}
