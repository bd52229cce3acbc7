package qrid

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/privacybydesign/qrid/big"
	"github.com/privacybydesign/qrid/internal/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func init() {
	Logger.SetLevel(logrus.FatalLevel)
}

// The worked example used throughout: n = 61 * 53, x = 17, v = 289.
var (
	testN = big.NewInt(3233)
	testX = big.NewInt(17)
	testV = big.NewInt(289)
)

func testKey(t *testing.T) *PrivateKey {
	sk, err := NewPrivateKey(testN, testX)
	require.NoError(t, err)
	return sk
}

func testParams(rounds int) Parameters {
	p := DefaultParameters
	p.Rounds = rounds
	return p
}

func seededReader(t *testing.T, seed byte) *common.CPRNG {
	var s [32]byte
	s[0] = seed
	rnd, err := common.NewCPRNG(&s)
	require.NoError(t, err)
	return rnd
}

// challenges returns a reader yielding the given challenge bits, one byte each.
func challenges(bits ...byte) *bytes.Reader {
	return bytes.NewReader(bits)
}

// repeatReader endlessly yields the same byte pattern.
type repeatReader []byte

func (r repeatReader) Read(buf []byte) (int, error) {
	for i := range buf {
		buf[i] = r[i%len(r)]
	}
	return len(buf), nil
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

// tamperingEndpoint forwards to an honest endpoint, letting tests corrupt the
// messages of one round.
type tamperingEndpoint struct {
	ProverEndpoint
	round      int
	commitment func(*CommitmentMsg)
	response   func(*ResponseMsg)
}

func (e *tamperingEndpoint) RequestCommitment(ctx context.Context, round int) (*CommitmentMsg, error) {
	c, err := e.ProverEndpoint.RequestCommitment(ctx, round)
	if err == nil && round == e.round && e.commitment != nil {
		e.commitment(c)
	}
	return c, err
}

func (e *tamperingEndpoint) RequestResponse(ctx context.Context, round int, ch *ChallengeMsg) (*ResponseMsg, error) {
	r, err := e.ProverEndpoint.RequestResponse(ctx, round, ch)
	if err == nil && round == e.round && e.response != nil {
		e.response(r)
	}
	return r, err
}

// cheatingEndpoint does not know x. Per round it guesses the challenge bit and
// prepares a commitment it can answer for that bit only, taking a random root r for
// the guessed side and solving x1 * x2 = v for the other.
type cheatingEndpoint struct {
	pk      *PublicKey
	guesses io.Reader
	rnd     io.Reader
	guess   uint
	root    *big.Int
}

func (e *cheatingEndpoint) RequestCommitment(_ context.Context, _ int) (*CommitmentMsg, error) {
	var g [1]byte
	if _, err := io.ReadFull(e.guesses, g[:]); err != nil {
		return nil, err
	}
	r, err := common.RandomUnit(e.rnd, e.pk.N, DefaultMaxSamplingAttempts)
	if err != nil {
		return nil, err
	}
	e.root = r

	guessed := common.ModSquare(r, e.pk.N)
	inv, err := common.ModInverse(guessed, e.pk.N)
	if err != nil {
		return nil, err
	}
	other := common.ModMul(e.pk.V, inv, e.pk.N)
	e.guess = uint(g[0] & 1)
	if e.guess == 0 {
		return &CommitmentMsg{X1: guessed, X2: other}, nil
	}
	return &CommitmentMsg{X1: other, X2: guessed}, nil
}

func (e *cheatingEndpoint) RequestResponse(_ context.Context, _ int, ch *ChallengeMsg) (*ResponseMsg, error) {
	if ch.Bit != e.guess {
		// No root of the other value is known
		return &ResponseMsg{Value: big.NewInt(0)}, nil
	}
	return &ResponseMsg{Value: e.root}, nil
}
