package qrid

import (
	"context"
	"io"
	"runtime"

	"github.com/go-errors/errors"
	"github.com/privacybydesign/qrid/big"
	"github.com/privacybydesign/qrid/internal/common"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const batchSeedLabel = "qrid batch round"

// BatchProver commits to all rounds of a session up front. Every round samples its
// unit from its own reader, derived from a master seed that is drawn fresh for
// each batch, so that rounds can be computed in parallel.
type BatchProver struct {
	n, x        *big.Int
	rnd         io.Reader
	maxAttempts int

	pending []*roundSecret
}

func NewBatchProver(sk *PrivateKey, rnd io.Reader, params Parameters) (*BatchProver, error) {
	if err := sk.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &BatchProver{
		n:           new(big.Int).Set(sk.N),
		x:           new(big.Int).Set(sk.X),
		rnd:         rnd,
		maxAttempts: params.MaxSamplingAttempts,
	}, nil
}

// CommitBatch discards any pending batch and commits to k new rounds.
func (p *BatchProver) CommitBatch(k int) ([]*CommitmentMsg, error) {
	p.pending = nil
	if k < 1 {
		return nil, ErrBatchSize
	}

	master := make([]byte, 32)
	if _, err := io.ReadFull(p.rnd, master); err != nil {
		return nil, errors.WrapPrefix(err, "failed to draw batch seed", 0)
	}

	secrets := make([]*roundSecret, k)
	commitments := make([]*CommitmentMsg, k)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < k; i++ {
		g.Go(func() error {
			rnd, err := common.DeriveReader(master, batchSeedLabel, uint64(i))
			if err != nil {
				return err
			}
			u1, err := common.RandomUnit(rnd, p.n, p.maxAttempts)
			if err != nil {
				return err
			}
			secrets[i], commitments[i], err = newRoundSecret(p.n, p.x, u1)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.pending = secrets
	return commitments, nil
}

// RespondBatch answers the challenges for the first len(chs) rounds of the pending
// batch. The whole batch is discarded afterwards, including rounds that received no
// challenge.
func (p *BatchProver) RespondBatch(chs []*ChallengeMsg) ([]*ResponseMsg, error) {
	secrets := p.pending
	p.pending = nil
	if secrets == nil {
		return nil, ErrNoCommitment
	}
	if len(chs) == 0 || len(chs) > len(secrets) {
		return nil, ErrBatchSize
	}

	responses := make([]*ResponseMsg, len(chs))
	for i, ch := range chs {
		r, err := secrets[i].reveal(ch)
		if err != nil {
			return nil, err
		}
		responses[i] = r
	}
	return responses, nil
}

// Reset discards the pending batch, if any.
func (p *BatchProver) Reset() {
	p.pending = nil
}

// BatchProverEndpoint is the batched counterpart of ProverEndpoint.
type BatchProverEndpoint interface {
	RequestCommitments(ctx context.Context, k int) ([]*CommitmentMsg, error)
	RequestResponses(ctx context.Context, chs []*ChallengeMsg) ([]*ResponseMsg, error)
}

type localBatchEndpoint struct {
	prover *BatchProver
}

// NewLocalBatchEndpoint lets a batch Session drive p directly.
func NewLocalBatchEndpoint(p *BatchProver) BatchProverEndpoint {
	return &localBatchEndpoint{prover: p}
}

func (l *localBatchEndpoint) RequestCommitments(ctx context.Context, k int) ([]*CommitmentMsg, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.prover.CommitBatch(k)
}

func (l *localBatchEndpoint) RequestResponses(ctx context.Context, chs []*ChallengeMsg) ([]*ResponseMsg, error) {
	if err := ctx.Err(); err != nil {
		l.prover.Reset()
		return nil, err
	}
	return l.prover.RespondBatch(chs)
}

func (l *localBatchEndpoint) Finish(context.Context, SessionVerdict) error {
	l.prover.Reset()
	return nil
}

// runBatched fixes all commitments before any challenge is drawn. Rounds are then
// verified in order, so the index of a rejection is the same as a sequential run
// would report: rounds before the first inconsistent commitment are challenged and
// checked, and the inconsistent commitment itself is the rejecting round if they
// all pass.
func (s *Session) runBatched(ctx context.Context) SessionVerdict {
	k := s.params.Rounds
	verdict := newVerdict(k)
	if err := ctx.Err(); err != nil {
		verdict.indeterminate(FailureCanceled, err)
		return verdict
	}

	commitments, err := s.batch.RequestCommitments(ctx, k)
	if err != nil {
		verdict.indeterminate(classify(err), err)
		return verdict
	}
	if len(commitments) != k {
		err = &ProtocolError{Msg: "wrong number of commitments"}
		verdict.indeterminate(FailureProtocol, err)
		return verdict
	}

	rounds := make([]*round, k)
	results := make([]*RoundResult, k)
	consistent := k
	for i, c := range commitments {
		rounds[i] = &round{index: i}
		rounds[i].advance(CommitmentIssued)
		results[i] = &RoundResult{Index: i, Commitment: c}
		if consistent == k && !s.verifier.CheckCommitment(c) {
			consistent = i
		}
	}
	Logger.WithFields(logrus.Fields{"rounds": k, "consistent": consistent}).Trace("batch committed")

	if consistent > 0 {
		chs := make([]*ChallengeMsg, consistent)
		for i := range chs {
			if chs[i], err = s.verifier.IssueChallenge(); err != nil {
				verdict.indeterminate(FailureRandomness, err)
				return verdict
			}
			rounds[i].advance(ChallengeIssued)
			results[i].Challenge = chs[i]
		}

		responses, err := s.batch.RequestResponses(ctx, chs)
		if err != nil {
			verdict.indeterminate(classify(err), err)
			return verdict
		}
		if len(responses) != consistent {
			err = &ProtocolError{Msg: "wrong number of responses"}
			verdict.indeterminate(FailureProtocol, err)
			return verdict
		}

		for i, resp := range responses {
			rounds[i].advance(ResponseIssued)
			results[i].Response = resp
			if s.verifier.VerifyResponse(resp, chs[i], commitments[i]) {
				rounds[i].finish(results[i], Accept, FailureNone, nil)
			} else {
				rounds[i].finish(results[i], Reject, FailureBadResponse, nil)
			}
			s.transcript.add(results[i])
			if !verdict.record(results[i]) {
				return verdict
			}
		}
	}

	if consistent < k {
		rounds[consistent].finish(results[consistent], Reject, FailureCommitmentMismatch, nil)
		s.transcript.add(results[consistent])
		verdict.record(results[consistent])
	}
	return verdict
}
