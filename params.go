// Copyright 2016 Maarten Everts. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qrid

import (
	"math"

	"github.com/go-errors/errors"
)

const (
	// DefaultRounds gives a soundness error of 2^-20, below one in a million.
	DefaultRounds = 20
	// DefaultMaxSamplingAttempts bounds the rejection sampling of units. For an RSA
	// modulus a single attempt fails with probability about 2/sqrt(n).
	DefaultMaxSamplingAttempts = 256
)

// Parameters configures a session.
type Parameters struct {
	// Rounds is the number of challenge-response rounds k; a cheating prover
	// passes all of them with probability at most 2^-k.
	Rounds int
	// MaxSamplingAttempts bounds the number of draws when the prover samples a
	// random unit modulo n.
	MaxSamplingAttempts int
}

// DefaultParameters holds the parameters used when none are specified.
var DefaultParameters = Parameters{
	Rounds:              DefaultRounds,
	MaxSamplingAttempts: DefaultMaxSamplingAttempts,
}

func (p Parameters) Validate() error {
	if p.Rounds < 1 {
		return errors.Errorf("need at least one round, got %d", p.Rounds)
	}
	if p.MaxSamplingAttempts < 1 {
		return errors.Errorf("need at least one sampling attempt, got %d", p.MaxSamplingAttempts)
	}
	return nil
}

// SoundnessError returns the probability 2^-Rounds that a prover not knowing the
// witness passes every round.
func (p Parameters) SoundnessError() float64 {
	return math.Ldexp(1, -p.Rounds)
}

// RoundsForSoundness returns the least k such that 2^-k <= bound.
func RoundsForSoundness(bound float64) (int, error) {
	if !(bound > 0 && bound < 1) {
		return 0, errors.Errorf("soundness bound must lie strictly between 0 and 1, got %v", bound)
	}
	k := int(math.Ceil(-math.Log2(bound)))
	// Guard against rounding in Log2 for exact powers of two
	for k > 1 && math.Ldexp(1, -(k-1)) <= bound {
		k--
	}
	for math.Ldexp(1, -k) > bound {
		k++
	}
	return k, nil
}

// WithSoundness returns a copy of p with Rounds set from RoundsForSoundness.
func (p Parameters) WithSoundness(bound float64) (Parameters, error) {
	k, err := RoundsForSoundness(bound)
	if err != nil {
		return p, err
	}
	p.Rounds = k
	return p, nil
}
