package qrid

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// ProverEndpoint is how a Session reaches the prover, whether it runs in-process or
// on the other side of a transport. Errors returned by an endpoint end the session
// as Indeterminate, never as Rejected.
type ProverEndpoint interface {
	RequestCommitment(ctx context.Context, round int) (*CommitmentMsg, error)
	RequestResponse(ctx context.Context, round int, ch *ChallengeMsg) (*ResponseMsg, error)
}

// finisher is implemented by endpoints that want to learn the verdict.
type finisher interface {
	Finish(ctx context.Context, verdict SessionVerdict) error
}

// Status is the final state of a session.
type Status int

const (
	// Accepted: every round verified.
	Accepted Status = iota + 1
	// Rejected: a round failed verification; see SessionVerdict.FailedRound.
	Rejected
	// Indeterminate: the session could not be completed; see SessionVerdict.Reason.
	Indeterminate
)

func (s Status) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Indeterminate:
		return "indeterminate"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// SessionVerdict is the sealed result of a session.
type SessionVerdict struct {
	Status Status
	// FailedRound is the zero-based index of the rejecting round, -1 otherwise.
	FailedRound int
	RoundsRun   int
	Outcomes    []RoundOutcome
	Reason      Failure
	Err         error
}

func (v SessionVerdict) Accepted() bool {
	return v.Status == Accepted
}

func (v SessionVerdict) String() string {
	switch v.Status {
	case Accepted:
		return fmt.Sprintf("accepted after %d rounds", v.RoundsRun)
	case Rejected:
		return fmt.Sprintf("rejected at round %d (%s)", v.FailedRound, v.Reason)
	default:
		return fmt.Sprintf("%s after %d rounds (%s)", v.Status, v.RoundsRun, v.Reason)
	}
}

func newVerdict(rounds int) SessionVerdict {
	return SessionVerdict{
		FailedRound: -1,
		Outcomes:    make([]RoundOutcome, 0, rounds),
	}
}

// record appends a round result and reports whether the session may continue.
func (v *SessionVerdict) record(res *RoundResult) bool {
	v.Outcomes = append(v.Outcomes, res.Outcome)
	v.RoundsRun = len(v.Outcomes)
	switch res.Outcome {
	case Reject:
		v.Status = Rejected
		v.FailedRound = res.Index
		v.Reason = res.Failure
		return false
	case Abort:
		v.indeterminate(res.Failure, res.Err)
		return false
	}
	return true
}

func (v *SessionVerdict) indeterminate(reason Failure, err error) {
	v.Status = Indeterminate
	v.Reason = reason
	v.Err = err
}

// seal marks a session in which no round failed as Accepted.
func (v *SessionVerdict) seal() {
	if v.Status == 0 {
		v.Status = Accepted
	}
}

// Session runs the soundness amplification loop: Parameters.Rounds rounds against
// one prover, stopping at the first round that does not accept. A Session runs
// only once.
type Session struct {
	pk       *PublicKey
	prover   ProverEndpoint
	batch    BatchProverEndpoint
	verifier *Verifier
	params   Parameters

	mu         sync.Mutex
	ran        bool
	verdict    *SessionVerdict
	transcript *Transcript
}

// NewSession creates a session verifying pk against prover, drawing challenges
// from rnd.
func NewSession(pk *PublicKey, prover ProverEndpoint, rnd io.Reader, params Parameters) (*Session, error) {
	return newSession(pk, prover, nil, rnd, params)
}

// NewBatchSession creates a session that collects all commitments before issuing
// any challenge. See RunBatched.
func NewBatchSession(pk *PublicKey, prover BatchProverEndpoint, rnd io.Reader, params Parameters) (*Session, error) {
	return newSession(pk, nil, prover, rnd, params)
}

func newSession(pk *PublicKey, prover ProverEndpoint, batch BatchProverEndpoint, rnd io.Reader, params Parameters) (*Session, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	verifier, err := NewVerifier(pk, rnd)
	if err != nil {
		return nil, err
	}
	return &Session{
		pk:         pk,
		prover:     prover,
		batch:      batch,
		verifier:   verifier,
		params:     params,
		transcript: newTranscript(pk),
	}, nil
}

// Run executes the session and returns its verdict. Failures of the prover or the
// transport do not yield an error but an Indeterminate verdict; the error is only
// non-nil if the session was run before.
func (s *Session) Run(ctx context.Context) (SessionVerdict, error) {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		return SessionVerdict{}, ErrSessionSealed
	}
	s.ran = true
	s.mu.Unlock()

	var verdict SessionVerdict
	if s.batch != nil {
		verdict = s.runBatched(ctx)
	} else {
		verdict = s.runSequential(ctx)
	}
	verdict.seal()

	s.mu.Lock()
	s.verdict = &verdict
	s.mu.Unlock()

	fields := logrus.Fields{
		"status": verdict.Status,
		"rounds": verdict.RoundsRun,
	}
	if verdict.Status != Accepted {
		fields["reason"] = verdict.Reason
		fields["failedRound"] = verdict.FailedRound
	}
	Logger.WithFields(fields).Debug("session finished")

	s.notify(ctx, verdict)
	return verdict, nil
}

func (s *Session) runSequential(ctx context.Context) SessionVerdict {
	verdict := newVerdict(s.params.Rounds)
	for i := 0; i < s.params.Rounds; i++ {
		if err := ctx.Err(); err != nil {
			verdict.indeterminate(FailureCanceled, err)
			break
		}
		res := runRound(ctx, s.prover, s.verifier, i)
		s.transcript.add(res)
		if !verdict.record(res) {
			break
		}
	}
	return verdict
}

// notify passes the verdict on to endpoints that want it. Their failure does not
// change the verdict.
func (s *Session) notify(ctx context.Context, verdict SessionVerdict) {
	var endpoint interface{} = s.prover
	if s.batch != nil {
		endpoint = s.batch
	}
	f, ok := endpoint.(finisher)
	if !ok {
		return
	}
	if err := f.Finish(ctx, verdict); err != nil {
		Logger.WithField("error", err).Warn("failed to report verdict to prover")
	}
}

// Verdict returns the verdict of a finished session.
func (s *Session) Verdict() (SessionVerdict, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verdict == nil {
		return SessionVerdict{}, false
	}
	return *s.verdict, true
}

// Transcript returns the public messages exchanged so far.
func (s *Session) Transcript() *Transcript {
	return s.transcript
}

// PublicKey returns the key the session verifies against.
func (s *Session) PublicKey() *PublicKey {
	return s.pk
}
