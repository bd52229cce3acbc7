package qrid

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// RoundState is the position of a single challenge-response round.
type RoundState int

const (
	Idle RoundState = iota
	CommitmentIssued
	ChallengeIssued
	ResponseIssued
	RoundVerified
	RoundAborted
)

var roundStateNames = [...]string{
	Idle:             "idle",
	CommitmentIssued: "commitment issued",
	ChallengeIssued:  "challenge issued",
	ResponseIssued:   "response issued",
	RoundVerified:    "verified",
	RoundAborted:     "aborted",
}

func (s RoundState) String() string {
	if s < 0 || int(s) >= len(roundStateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return roundStateNames[s]
}

// legalTransitions lists, per state, the states it may move to. A commitment that
// fails the consistency check goes straight to RoundVerified.
var legalTransitions = map[RoundState][]RoundState{
	Idle:             {CommitmentIssued, RoundAborted},
	CommitmentIssued: {ChallengeIssued, RoundVerified, RoundAborted},
	ChallengeIssued:  {ResponseIssued, RoundAborted},
	ResponseIssued:   {RoundVerified},
}

// RoundOutcome is the verdict of a finished round.
type RoundOutcome int

const (
	Accept RoundOutcome = iota
	Reject
	Abort
)

func (o RoundOutcome) String() string {
	switch o {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	case Abort:
		return "abort"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// RoundResult records what happened in one round. Only public values are kept.
type RoundResult struct {
	Index      int
	Outcome    RoundOutcome
	Failure    Failure
	Err        error
	Commitment *CommitmentMsg
	Challenge  *ChallengeMsg
	Response   *ResponseMsg
}

// round drives one exchange and refuses to skip a step.
type round struct {
	index int
	state RoundState
}

func (r *round) advance(next RoundState) {
	for _, s := range legalTransitions[r.state] {
		if s == next {
			r.state = next
			return
		}
	}
	panic(fmt.Sprintf("round %d: illegal transition %s -> %s", r.index, r.state, next))
}

func (r *round) finish(res *RoundResult, outcome RoundOutcome, failure Failure, err error) *RoundResult {
	if outcome == Abort {
		r.advance(RoundAborted)
	} else {
		r.advance(RoundVerified)
	}
	res.Outcome = outcome
	res.Failure = failure
	res.Err = err

	Logger.WithFields(logrus.Fields{
		"round":   r.index,
		"outcome": outcome,
		"failure": failure,
	}).Trace("round finished")
	return res
}

// runRound executes round index against the prover endpoint.
func runRound(ctx context.Context, prover ProverEndpoint, verifier *Verifier, index int) *RoundResult {
	r := &round{index: index}
	res := &RoundResult{Index: index}

	c, err := prover.RequestCommitment(ctx, index)
	if err != nil {
		return r.finish(res, Abort, classify(err), err)
	}
	r.advance(CommitmentIssued)
	res.Commitment = c

	if !verifier.CheckCommitment(c) {
		return r.finish(res, Reject, FailureCommitmentMismatch, nil)
	}

	ch, err := verifier.IssueChallenge()
	if err != nil {
		return r.finish(res, Abort, FailureRandomness, err)
	}
	r.advance(ChallengeIssued)
	res.Challenge = ch

	resp, err := prover.RequestResponse(ctx, index, ch)
	if err != nil {
		return r.finish(res, Abort, classify(err), err)
	}
	r.advance(ResponseIssued)
	res.Response = resp

	if !verifier.VerifyResponse(resp, ch, c) {
		return r.finish(res, Reject, FailureBadResponse, nil)
	}
	return r.finish(res, Accept, FailureNone, nil)
}
