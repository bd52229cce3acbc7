package common

import (
	"io"

	"github.com/go-errors/errors"
	"github.com/privacybydesign/qrid/big"
)

var ErrSamplingExhausted = errors.New("no unit modulo n found within the attempt limit")

// RandomUnit draws u uniformly from [0, n) with gcd(u, n) = 1, i.e. an element of
// (Z/nZ)*. Candidates sharing a factor with n are rejected and redrawn, at most
// maxAttempts times in total; after that ErrSamplingExhausted is returned, which
// for an honest RSA modulus practically never happens but does for an n with
// many small factors.
func RandomUnit(rnd io.Reader, n *big.Int, maxAttempts int) (*big.Int, error) {
	if n.Sign() <= 0 {
		return nil, ErrInvalidModulus
	}
	for i := 0; i < maxAttempts; i++ {
		u, err := big.RandInt(rnd, n)
		if err != nil {
			return nil, errors.WrapPrefix(err, "failed to read randomness for unit", 0)
		}
		if Coprime(u, n) {
			return u, nil
		}
	}
	return nil, ErrSamplingExhausted
}
