package qrid

import (
	"io"

	"github.com/go-errors/errors"
	"github.com/privacybydesign/qrid/big"
	"github.com/privacybydesign/qrid/internal/common"
)

// Verifier checks a prover's claim to know a square root of v modulo n.
type Verifier struct {
	n, v *big.Int
	rnd  io.Reader
}

// NewVerifier creates a verifier for pk drawing challenge bits from rnd. The
// soundness of the scheme rests on the prover being unable to predict these bits,
// so rnd must be a cryptographically secure source that the prover has no view of.
func NewVerifier(pk *PublicKey, rnd io.Reader) (*Verifier, error) {
	if err := pk.Validate(); err != nil {
		return nil, err
	}
	return &Verifier{
		n:   new(big.Int).Set(pk.N),
		v:   new(big.Int).Set(pk.V),
		rnd: rnd,
	}, nil
}

// CheckCommitment accepts the commitment only if x1 * x2 = v (mod n).
func (v *Verifier) CheckCommitment(c *CommitmentMsg) bool {
	if c == nil || c.X1 == nil || c.X2 == nil {
		return false
	}
	if c.X1.Sign() < 0 || c.X2.Sign() < 0 {
		return false
	}
	return common.ModMul(c.X1, c.X2, v.n).Cmp(v.v) == 0
}

// IssueChallenge draws a fresh uniformly random bit.
func (v *Verifier) IssueChallenge() (*ChallengeMsg, error) {
	var b [1]byte
	if _, err := io.ReadFull(v.rnd, b[:]); err != nil {
		return nil, errors.WrapPrefix(err, "failed to draw challenge bit", 0)
	}
	return &ChallengeMsg{Bit: uint(b[0] & 1)}, nil
}

// VerifyResponse accepts iff response^2 mod n equals x1 (bit 0) or x2 (bit 1).
func (v *Verifier) VerifyResponse(r *ResponseMsg, ch *ChallengeMsg, c *CommitmentMsg) bool {
	if r == nil || r.Value == nil || ch == nil || c == nil {
		return false
	}
	if r.Value.Sign() < 0 {
		return false
	}

	var target *big.Int
	switch ch.Bit {
	case 0:
		target = c.X1
	case 1:
		target = c.X2
	default:
		return false
	}
	if target == nil {
		return false
	}
	return common.ModSquare(r.Value, v.n).Cmp(target) == 0
}
