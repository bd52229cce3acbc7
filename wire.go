package qrid

import (
	"fmt"

	"github.com/privacybydesign/qrid/cbor"
)

// MessageKind identifies the messages exchanged between a RemoteProver and
// ServeProver. Per round the verifier sends RoundStart and Challenge, the prover
// answers with Commitment and Response. The verifier ends the session with Finish;
// a prover that cannot continue sends Abort instead of its answer.
type MessageKind uint8

const (
	KindRoundStart MessageKind = iota + 1
	KindCommitment
	KindChallenge
	KindResponse
	KindFinish
	KindAbort
)

var kindNames = map[MessageKind]string{
	KindRoundStart: "round start",
	KindCommitment: "commitment",
	KindChallenge:  "challenge",
	KindResponse:   "response",
	KindFinish:     "finish",
	KindAbort:      "abort",
}

func (k MessageKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Envelope is the unit of transmission. Which of the optional fields is set
// depends on Kind.
type Envelope struct {
	Kind  MessageKind `json:"kind"`
	Round int         `json:"round"`

	Commitment *CommitmentMsg `json:"commitment,omitempty"`
	Challenge  *ChallengeMsg  `json:"challenge,omitempty"`
	Response   *ResponseMsg   `json:"response,omitempty"`
	Abort      *AbortMsg      `json:"abort,omitempty"`
	Status     Status         `json:"status,omitempty"`
}

// AbortMsg tells the verifier why the prover gave up.
type AbortMsg struct {
	Failure Failure `json:"failure"`
	Message string  `json:"message"`
}

func encodeEnvelope(env *Envelope) ([]byte, error) {
	return cbor.Marshal(env)
}

func decodeEnvelope(bts []byte) (*Envelope, error) {
	env := &Envelope{}
	if err := cbor.Unmarshal(bts, env); err != nil {
		return nil, &ProtocolError{Msg: "malformed envelope: " + err.Error()}
	}
	if _, ok := kindNames[env.Kind]; !ok {
		return nil, &ProtocolError{Msg: "unknown message " + env.Kind.String()}
	}
	return env, nil
}
