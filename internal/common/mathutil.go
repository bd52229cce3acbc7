// Copyright 2016 Maarten Everts. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"github.com/go-errors/errors"
	"github.com/privacybydesign/qrid/big"
)

// Some utility code (mostly math stuff) useful in various places in this
// module.

// Often we need to refer to the same small constant big numbers, no point in
// creating them again and again.
var bigONE = big.NewInt(1)

var (
	ErrNotInvertible  = errors.New("modular inverse does not exist")
	ErrInvalidModulus = errors.New("modulus must be positive")
)

// GCD returns the greatest common divisor of a and b using the Euclidean
// algorithm. It loops instead of recursing, so the stack stays flat however
// large the operands are. GCD(a, 0) = a. Neither argument is modified.
func GCD(a, b *big.Int) *big.Int {
	x := new(big.Int).Set(a)
	y := new(big.Int).Set(b)
	r := new(big.Int)
	for y.Sign() != 0 {
		// (x, y) = (y, x mod y)
		r.Mod(x, y)
		x, y, r = y, r, x
	}
	return x
}

// Coprime reports whether gcd(a, n) = 1.
func Coprime(a, n *big.Int) bool {
	return GCD(a, n).Cmp(bigONE) == 0
}

// ModInverse returns the inverse of a modulo n, computed with the extended
// Euclidean algorithm. It returns ErrNotInvertible iff gcd(a, n) != 1. The result
// lies in [0, n).
func ModInverse(a, n *big.Int) (*big.Int, error) {
	if n.Sign() <= 0 {
		return nil, ErrInvalidModulus
	}

	// Invariant: t*a = r (mod n) and newT*a = newR (mod n)
	t := new(big.Int)
	newT := big.NewInt(1)
	r := new(big.Int).Set(n)
	newR := new(big.Int).Mod(a, n)

	quotient := new(big.Int)
	tmp := new(big.Int)
	for newR.Sign() != 0 {
		quotient.Quo(r, newR)

		// (t, newT) = (newT, t - quotient*newT)
		tmp.Mul(quotient, newT)
		t.Sub(t, tmp)
		t, newT = newT, t

		// (r, newR) = (newR, r - quotient*newR)
		tmp.Mul(quotient, newR)
		r.Sub(r, tmp)
		r, newR = newR, r
	}

	// r now holds gcd(a, n)
	if r.Cmp(bigONE) != 0 {
		return nil, ErrNotInvertible
	}

	if t.Sign() < 0 {
		// |t| < n, so one addition brings it into [0, n)
		t.Add(t, n)
	}

	return t, nil
}

// ModSquare returns x^2 mod n.
func ModSquare(x, n *big.Int) *big.Int {
	r := new(big.Int).Mul(x, x)
	return r.Mod(r, n)
}

// ModMul returns x*y mod n.
func ModMul(x, y, n *big.Int) *big.Int {
	r := new(big.Int).Mul(x, y)
	return r.Mod(r, n)
}
