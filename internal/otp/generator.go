package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const codeDigits = 6

// Generator produces 6-digit numeric codes.
type Generator interface {
	Generate() (string, error)
}

// RangeGenerator draws uniformly from [100000, 999999], so codes never start with 0.
// This is the default to stay compatible with clients that reject a leading zero.
type RangeGenerator struct{}

func (RangeGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// PaddedGenerator draws uniformly from [0, 999999] and zero-pads to six digits.
type PaddedGenerator struct{}

func (PaddedGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

// NewGenerator returns PaddedGenerator when zeroPadded is set and RangeGenerator otherwise.
func NewGenerator(zeroPadded bool) Generator {
	if zeroPadded {
		return PaddedGenerator{}
	}
	return RangeGenerator{}
}
