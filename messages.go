package qrid

import "github.com/privacybydesign/qrid/big"

type (
	// CommitmentMsg binds the prover to the roots of x1 and x2 before it sees the
	// challenge.
	CommitmentMsg struct {
		X1 *big.Int `json:"x1"` // u1^2 mod n
		X2 *big.Int `json:"x2"` // u2^2 mod n
	}

	// ChallengeMsg selects which root the prover must reveal: 0 for x1, 1 for x2.
	ChallengeMsg struct {
		Bit uint `json:"bit"`
	}

	// ResponseMsg carries the requested square root.
	ResponseMsg struct {
		Value *big.Int `json:"value"`
	}
)
