// Copyright 2016 Maarten Everts. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qrid

import (
	"encoding/json"
	"os"

	"github.com/go-errors/errors"
	"github.com/privacybydesign/qrid/big"
	"github.com/privacybydesign/qrid/internal/common"
)

type (
	// PublicKey is the prover's public identity: the modulus n and the quadratic
	// residue v = x^2 mod n.
	PublicKey struct {
		N *big.Int `json:"n"` // Modulus n
		V *big.Int `json:"v"` // Public value x^2 mod n
	}

	// PrivateKey holds the witness x, a square root of PublicKey.V modulo n.
	PrivateKey struct {
		N *big.Int `json:"n"`
		X *big.Int `json:"x"`
	}
)

// NewPrivateKey validates x as a witness modulo n: 0 < x < n and gcd(x, n) = 1.
func NewPrivateKey(n, x *big.Int) (*PrivateKey, error) {
	sk := &PrivateKey{
		N: new(big.Int).Set(n),
		X: new(big.Int).Set(x),
	}
	if err := sk.Validate(); err != nil {
		return nil, err
	}
	return sk, nil
}

// NewPrivateKeyFromPrimes builds the modulus n = p*q from two distinct primes and
// validates x against it. The primes themselves are not retained.
func NewPrivateKeyFromPrimes(p, q, x *big.Int) (*PrivateKey, error) {
	if p.Cmp(q) == 0 {
		return nil, errors.WrapPrefix(ErrInvalidKey, "p and q must be distinct", 0)
	}
	if !p.ProbablyPrime(40) || !q.ProbablyPrime(40) {
		return nil, errors.WrapPrefix(ErrInvalidKey, "p and q must be prime", 0)
	}
	return NewPrivateKey(new(big.Int).Mul(p, q), x)
}

// NewPrivateKeyFromFile reads a JSON encoded private key.
func NewPrivateKeyFromFile(filename string) (*PrivateKey, error) {
	bts, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	sk := &PrivateKey{}
	if err = json.Unmarshal(bts, sk); err != nil {
		return nil, errors.WrapPrefix(err, "failed to parse private key", 0)
	}
	if err = sk.Validate(); err != nil {
		return nil, err
	}
	return sk, nil
}

// Validate checks that x is a unit modulo n.
func (sk *PrivateKey) Validate() error {
	if sk.N == nil || sk.X == nil {
		return errors.WrapPrefix(ErrInvalidKey, "missing modulus or witness", 0)
	}
	if sk.N.Cmp(big.NewInt(1)) <= 0 {
		return errors.WrapPrefix(ErrInvalidKey, "modulus must exceed 1", 0)
	}
	if sk.X.Sign() <= 0 || sk.X.Cmp(sk.N) >= 0 {
		return errors.WrapPrefix(ErrInvalidKey, "witness must lie in (0, n)", 0)
	}
	if !common.Coprime(sk.X, sk.N) {
		return errors.WrapPrefix(ErrInvalidKey, "witness shares a factor with the modulus", 0)
	}
	return nil
}

// PublicKey derives the public key n, x^2 mod n.
func (sk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{
		N: new(big.Int).Set(sk.N),
		V: common.ModSquare(sk.X, sk.N),
	}
}

// NewPublicKeyFromFile reads a JSON encoded public key.
func NewPublicKeyFromFile(filename string) (*PublicKey, error) {
	bts, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	pk := &PublicKey{}
	if err = json.Unmarshal(bts, pk); err != nil {
		return nil, errors.WrapPrefix(err, "failed to parse public key", 0)
	}
	if err = pk.Validate(); err != nil {
		return nil, err
	}
	return pk, nil
}

// Validate checks that v is reduced modulo n and invertible, as every square of a
// unit is.
func (pk *PublicKey) Validate() error {
	if pk.N == nil || pk.V == nil {
		return errors.WrapPrefix(ErrInvalidKey, "missing modulus or public value", 0)
	}
	if pk.N.Cmp(big.NewInt(1)) <= 0 {
		return errors.WrapPrefix(ErrInvalidKey, "modulus must exceed 1", 0)
	}
	if pk.V.Sign() < 0 || pk.V.Cmp(pk.N) >= 0 {
		return errors.WrapPrefix(ErrInvalidKey, "public value must be reduced modulo n", 0)
	}
	if !common.Coprime(pk.V, pk.N) {
		return errors.WrapPrefix(ErrInvalidKey, "public value shares a factor with the modulus", 0)
	}
	return nil
}
