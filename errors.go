package qrid

import (
	"context"
	"fmt"

	"github.com/go-errors/errors"
	"github.com/privacybydesign/qrid/internal/common"
)

var (
	// ErrNotInvertible is returned by arithmetic on a value sharing a factor with n.
	ErrNotInvertible = common.ErrNotInvertible
	// ErrSamplingExhausted is returned when no unit modulo n was found within
	// Parameters.MaxSamplingAttempts draws. It points at a bad modulus rather than a
	// dishonest party.
	ErrSamplingExhausted = common.ErrSamplingExhausted

	ErrNoInverse        = errors.New("commitment unit has no inverse modulo n")
	ErrNoCommitment     = errors.New("no pending commitment to respond to")
	ErrInvalidChallenge = errors.New("challenge bit must be 0 or 1")
	ErrSessionSealed    = errors.New("session has already run")
	ErrBatchSize        = errors.New("number of challenges does not match number of commitments")
	ErrInvalidKey       = errors.New("invalid key")
)

// Failure classifies why a session did not end in Accepted.
type Failure int

const (
	FailureNone Failure = iota
	// FailureCommitmentMismatch: x1 * x2 != v. Counts as a rejection.
	FailureCommitmentMismatch
	// FailureBadResponse: the revealed root does not square to the challenged value.
	// Counts as a rejection.
	FailureBadResponse
	// The remaining failures end the session as Indeterminate.
	FailureSamplingExhausted
	FailureProver
	FailureRandomness
	FailureTransport
	FailureProtocol
	FailureCanceled
)

var failureNames = map[Failure]string{
	FailureNone:               "none",
	FailureCommitmentMismatch: "commitment mismatch",
	FailureBadResponse:        "bad response",
	FailureSamplingExhausted:  "sampling exhausted",
	FailureProver:             "prover error",
	FailureRandomness:         "randomness failure",
	FailureTransport:          "transport failure",
	FailureProtocol:           "protocol violation",
	FailureCanceled:           "canceled",
}

func (f Failure) String() string {
	if name, ok := failureNames[f]; ok {
		return name
	}
	return fmt.Sprintf("failure(%d)", int(f))
}

// TransportError reports that the channel to the other party failed, e.g. a
// deadline expired or the connection dropped. Sessions treat it as Indeterminate.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a well-delivered but unexpected message.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return "protocol violation: " + e.Msg }

// AbortError is returned by a RemoteProver when the prover side gave up on a
// round and told us why.
type AbortError struct {
	Failure Failure
	Message string
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("prover aborted (%s): %s", e.Failure, e.Message)
}

// classify maps an error raised while running a round to a Failure.
func classify(err error) Failure {
	switch e := err.(type) {
	case *TransportError:
		return FailureTransport
	case *ProtocolError:
		return FailureProtocol
	case *AbortError:
		// A prover cannot reject on the verifier's behalf
		if e.Failure < FailureSamplingExhausted || e.Failure > FailureCanceled {
			return FailureProver
		}
		return e.Failure
	}
	switch {
	case errors.Is(err, ErrSamplingExhausted):
		return FailureSamplingExhausted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCanceled
	}
	return FailureProver
}
