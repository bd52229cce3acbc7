package qrid

import (
	"context"
	"io"

	"github.com/privacybydesign/qrid/big"
	"github.com/privacybydesign/qrid/internal/common"
	"github.com/sirupsen/logrus"
)

type (
	// Prover holds the witness and runs the prover side of one round at a time.
	// A Prover is not safe for concurrent use; run one per session.
	Prover struct {
		n, x        *big.Int
		rnd         io.Reader
		maxAttempts int

		// pending holds the roots of the last commitment until the challenge
		// arrives. It is cleared by Respond and by Reset, and never outlives the
		// round it was created for.
		pending *roundSecret
	}

	// roundSecret holds u1 and u2 = x * u1^-1 mod n, so u1 * u2 = x (mod n).
	roundSecret struct {
		u1, u2 *big.Int
	}
)

// NewProver creates a prover for sk drawing its randomness from rnd, which must be
// a cryptographically secure source such as crypto/rand.Reader.
func NewProver(sk *PrivateKey, rnd io.Reader, params Parameters) (*Prover, error) {
	if err := sk.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Prover{
		n:           new(big.Int).Set(sk.N),
		x:           new(big.Int).Set(sk.X),
		rnd:         rnd,
		maxAttempts: params.MaxSamplingAttempts,
	}, nil
}

// Commit starts a new round: it samples a random unit u1, computes
// u2 = x * u1^-1 and returns x1 = u1^2, x2 = u2^2. Any round still pending is
// discarded.
func (p *Prover) Commit() (*CommitmentMsg, error) {
	p.pending = nil
	u1, err := common.RandomUnit(p.rnd, p.n, p.maxAttempts)
	if err != nil {
		return nil, err
	}
	return p.commitWith(u1)
}

func (p *Prover) commitWith(u1 *big.Int) (*CommitmentMsg, error) {
	p.pending = nil
	secret, c, err := newRoundSecret(p.n, p.x, u1)
	if err != nil {
		return nil, err
	}
	p.pending = secret
	return c, nil
}

// newRoundSecret splits x into u1 * u2 and commits to the squares of both.
func newRoundSecret(n, x, u1 *big.Int) (*roundSecret, *CommitmentMsg, error) {
	u1inv, err := common.ModInverse(u1, n)
	if err != nil {
		return nil, nil, ErrNoInverse
	}
	u2 := common.ModMul(x, u1inv, n)

	return &roundSecret{u1: new(big.Int).Set(u1), u2: u2},
		&CommitmentMsg{
			X1: common.ModSquare(u1, n),
			X2: common.ModSquare(u2, n),
		}, nil
}

func (s *roundSecret) reveal(ch *ChallengeMsg) (*ResponseMsg, error) {
	if ch == nil {
		return nil, ErrInvalidChallenge
	}
	switch ch.Bit {
	case 0:
		return &ResponseMsg{Value: s.u1}, nil
	case 1:
		return &ResponseMsg{Value: s.u2}, nil
	default:
		return nil, ErrInvalidChallenge
	}
}

// Respond reveals u1 when the challenge bit is 0 and u2 when it is 1. The round
// secrets are dropped whatever the outcome, so revealing both roots of a single
// commitment is impossible.
func (p *Prover) Respond(ch *ChallengeMsg) (*ResponseMsg, error) {
	secret := p.pending
	p.pending = nil
	if secret == nil {
		return nil, ErrNoCommitment
	}
	return secret.reveal(ch)
}

// Reset discards the pending round, if any.
func (p *Prover) Reset() {
	p.pending = nil
}

// localEndpoint exposes an in-process Prover as a ProverEndpoint.
type localEndpoint struct {
	prover *Prover
}

// NewLocalEndpoint lets a Session drive p directly, without a transport.
func NewLocalEndpoint(p *Prover) ProverEndpoint {
	return &localEndpoint{prover: p}
}

func (l *localEndpoint) RequestCommitment(ctx context.Context, round int) (*CommitmentMsg, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.prover.Commit()
}

func (l *localEndpoint) RequestResponse(ctx context.Context, round int, ch *ChallengeMsg) (*ResponseMsg, error) {
	if err := ctx.Err(); err != nil {
		l.prover.Reset()
		return nil, err
	}
	return l.prover.Respond(ch)
}

func (l *localEndpoint) Finish(_ context.Context, verdict SessionVerdict) error {
	l.prover.Reset()
	Logger.WithFields(logrus.Fields{"status": verdict.Status, "rounds": verdict.RoundsRun}).
		Trace("local prover finished session")
	return nil
}
