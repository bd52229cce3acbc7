package qrid

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/privacybydesign/qrid/big"
	"github.com/privacybydesign/qrid/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBatchProver(t *testing.T) *BatchProver {
	p, err := NewBatchProver(testKey(t), rand.Reader, DefaultParameters)
	require.NoError(t, err)
	return p
}

func newTestBatchSession(t *testing.T, prover BatchProverEndpoint, rounds int) *Session {
	s, err := NewBatchSession(testKey(t).PublicKey(), prover, rand.Reader, testParams(rounds))
	require.NoError(t, err)
	return s
}

// tamperingBatchEndpoint corrupts one round of an honest batch.
type tamperingBatchEndpoint struct {
	BatchProverEndpoint
	round      int
	commitment func(*CommitmentMsg)
	response   func(*ResponseMsg)
}

func (e *tamperingBatchEndpoint) RequestCommitments(ctx context.Context, k int) ([]*CommitmentMsg, error) {
	cs, err := e.BatchProverEndpoint.RequestCommitments(ctx, k)
	if err == nil && e.commitment != nil {
		e.commitment(cs[e.round])
	}
	return cs, err
}

func (e *tamperingBatchEndpoint) RequestResponses(ctx context.Context, chs []*ChallengeMsg) ([]*ResponseMsg, error) {
	rs, err := e.BatchProverEndpoint.RequestResponses(ctx, chs)
	if err == nil && e.response != nil && e.round < len(rs) {
		e.response(rs[e.round])
	}
	return rs, err
}

func TestCommitBatch(t *testing.T) {
	p := newTestBatchProver(t)
	cs, err := p.CommitBatch(16)
	require.NoError(t, err)
	require.Len(t, cs, 16)
	require.Len(t, p.pending, 16)
	for i, c := range cs {
		require.Equal(t, 0, common.ModMul(c.X1, c.X2, testN).Cmp(testV))
		s := p.pending[i]
		require.Equal(t, 0, common.ModMul(s.u1, s.u2, testN).Cmp(testX))
	}
}

func TestCommitBatchFreshSeed(t *testing.T) {
	p, err := NewBatchProver(testKey(t), seededReader(t, 9), DefaultParameters)
	require.NoError(t, err)

	a, err := p.CommitBatch(8)
	require.NoError(t, err)
	b, err := p.CommitBatch(8)
	require.NoError(t, err)

	same := 0
	for i := range a {
		if a[i].X1.Cmp(b[i].X1) == 0 {
			same++
		}
	}
	assert.Less(t, same, len(a))
}

func TestRespondBatch(t *testing.T) {
	p := newTestBatchProver(t)
	_, err := p.RespondBatch([]*ChallengeMsg{{Bit: 0}})
	require.ErrorIs(t, err, ErrNoCommitment)

	cs, err := p.CommitBatch(3)
	require.NoError(t, err)
	chs := []*ChallengeMsg{{Bit: 0}, {Bit: 1}, {Bit: 1}}
	rs, err := p.RespondBatch(chs)
	require.NoError(t, err)
	require.Len(t, rs, 3)

	v := newTestVerifier(t, rand.Reader)
	for i := range rs {
		assert.True(t, v.VerifyResponse(rs[i], chs[i], cs[i]))
	}

	_, err = p.RespondBatch(chs)
	require.ErrorIs(t, err, ErrNoCommitment)
}

func TestRespondBatchPrefix(t *testing.T) {
	p := newTestBatchProver(t)
	_, err := p.CommitBatch(4)
	require.NoError(t, err)
	rs, err := p.RespondBatch([]*ChallengeMsg{{Bit: 1}})
	require.NoError(t, err)
	assert.Len(t, rs, 1)
	assert.Nil(t, p.pending)
}

func TestRespondBatchInvalid(t *testing.T) {
	p := newTestBatchProver(t)
	_, err := p.CommitBatch(2)
	require.NoError(t, err)
	_, err = p.RespondBatch([]*ChallengeMsg{{Bit: 0}, {Bit: 0}, {Bit: 0}})
	require.ErrorIs(t, err, ErrBatchSize)
	assert.Nil(t, p.pending)

	_, err = p.CommitBatch(2)
	require.NoError(t, err)
	_, err = p.RespondBatch([]*ChallengeMsg{{Bit: 0}, {Bit: 3}})
	require.ErrorIs(t, err, ErrInvalidChallenge)
	assert.Nil(t, p.pending)

	_, err = p.CommitBatch(0)
	require.ErrorIs(t, err, ErrBatchSize)
}

func TestCommitBatchSamplingExhausted(t *testing.T) {
	sk, err := NewPrivateKey(big.NewInt(30), big.NewInt(7))
	require.NoError(t, err)
	// Per-round readers are derived from the seed, so use a modulus where almost
	// every candidate is rejected and allow a single attempt.
	p, err := NewBatchProver(sk, rand.Reader, Parameters{Rounds: 64, MaxSamplingAttempts: 1})
	require.NoError(t, err)
	_, err = p.CommitBatch(64)
	require.ErrorIs(t, err, ErrSamplingExhausted)
	assert.Nil(t, p.pending)
}

func TestBatchSessionCompleteness(t *testing.T) {
	s := newTestBatchSession(t, NewLocalBatchEndpoint(newTestBatchProver(t)), DefaultRounds)
	verdict, err := s.Run(context.Background())
	require.NoError(t, err)
	require.True(t, verdict.Accepted(), verdict.String())
	assert.Equal(t, DefaultRounds, verdict.RoundsRun)
	assert.Equal(t, -1, verdict.FailedRound)
	assert.Len(t, s.Transcript().Entries, DefaultRounds)
}

func TestBatchSessionTamperedCommitment(t *testing.T) {
	prover := &tamperingBatchEndpoint{
		BatchProverEndpoint: NewLocalBatchEndpoint(newTestBatchProver(t)),
		round:               2,
		commitment: func(c *CommitmentMsg) {
			c.X2 = new(big.Int).Add(c.X2, big.NewInt(1))
		},
	}
	s := newTestBatchSession(t, prover, 6)
	verdict, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Rejected, verdict.Status)
	assert.Equal(t, 2, verdict.FailedRound)
	assert.Equal(t, FailureCommitmentMismatch, verdict.Reason)
	assert.Equal(t, []RoundOutcome{Accept, Accept, Reject}, verdict.Outcomes)
}

func TestBatchSessionTamperedFirstCommitment(t *testing.T) {
	prover := &tamperingBatchEndpoint{
		BatchProverEndpoint: NewLocalBatchEndpoint(newTestBatchProver(t)),
		commitment: func(c *CommitmentMsg) {
			c.X1 = new(big.Int).Add(c.X1, big.NewInt(1))
		},
	}
	s := newTestBatchSession(t, prover, 4)
	verdict, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Rejected, verdict.Status)
	assert.Equal(t, 0, verdict.FailedRound)
	assert.Equal(t, 1, verdict.RoundsRun)
}

func TestBatchSessionBadResponse(t *testing.T) {
	prover := &tamperingBatchEndpoint{
		BatchProverEndpoint: NewLocalBatchEndpoint(newTestBatchProver(t)),
		round:               1,
		response: func(r *ResponseMsg) {
			r.Value = big.NewInt(0)
		},
	}
	s := newTestBatchSession(t, prover, 5)
	verdict, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Rejected, verdict.Status)
	assert.Equal(t, 1, verdict.FailedRound)
	assert.Equal(t, FailureBadResponse, verdict.Reason)
	assert.Equal(t, []RoundOutcome{Accept, Reject}, verdict.Outcomes)
}

type shortBatchEndpoint struct {
	BatchProverEndpoint
}

func (e shortBatchEndpoint) RequestCommitments(ctx context.Context, k int) ([]*CommitmentMsg, error) {
	cs, err := e.BatchProverEndpoint.RequestCommitments(ctx, k)
	if err != nil {
		return nil, err
	}
	return cs[:k-1], nil
}

func TestBatchSessionWrongCount(t *testing.T) {
	s := newTestBatchSession(t, shortBatchEndpoint{NewLocalBatchEndpoint(newTestBatchProver(t))}, 3)
	verdict, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Indeterminate, verdict.Status)
	assert.Equal(t, FailureProtocol, verdict.Reason)
}
