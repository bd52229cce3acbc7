package qrid

import (
	"context"
	"time"

	"github.com/go-errors/errors"
	"github.com/privacybydesign/qrid/transport"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every request-reply exchange of a RemoteProver.
const DefaultTimeout = 30 * time.Second

// RemoteProver is a ProverEndpoint for a prover reached over a transport.Messenger,
// typically one running ServeProver.
type RemoteProver struct {
	messenger transport.Messenger
	peer      int

	// Timeout bounds each exchange; zero means no bound beyond the caller's
	// context. An expired exchange ends the session as Indeterminate.
	Timeout time.Duration
}

var _ ProverEndpoint = (*RemoteProver)(nil)

// NewRemoteProver returns an endpoint for the prover with party index peer.
func NewRemoteProver(m transport.Messenger, peer int) *RemoteProver {
	return &RemoteProver{messenger: m, peer: peer, Timeout: DefaultTimeout}
}

func (r *RemoteProver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout > 0 {
		return context.WithTimeout(ctx, r.Timeout)
	}
	return context.WithCancel(ctx)
}

func (r *RemoteProver) send(ctx context.Context, env *Envelope) error {
	bts, err := encodeEnvelope(env)
	if err != nil {
		return errors.WrapPrefix(err, "failed to encode "+env.Kind.String(), 0)
	}
	if err = r.messenger.MessageSend(ctx, r.peer, bts); err != nil {
		return &TransportError{Op: "send " + env.Kind.String(), Err: err}
	}
	return nil
}

// exchange sends req and waits for a reply of kind want for the same round.
func (r *RemoteProver) exchange(parent context.Context, req *Envelope, want MessageKind) (*Envelope, error) {
	ctx, cancel := r.withTimeout(parent)
	defer cancel()

	err := r.send(ctx, req)
	if err == nil {
		var bts []byte
		if bts, err = r.messenger.MessageReceive(ctx, r.peer); err == nil {
			return r.checkReply(bts, req.Round, want)
		}
		err = &TransportError{Op: "receive " + want.String(), Err: err}
	}
	// Cancellation by the caller is not a transport failure
	if parent.Err() != nil {
		return nil, parent.Err()
	}
	return nil, err
}

func (r *RemoteProver) checkReply(bts []byte, round int, want MessageKind) (*Envelope, error) {
	env, err := decodeEnvelope(bts)
	if err != nil {
		return nil, err
	}
	if env.Kind == KindAbort {
		if env.Abort == nil {
			return nil, &AbortError{Failure: FailureProver}
		}
		return nil, &AbortError{Failure: env.Abort.Failure, Message: env.Abort.Message}
	}
	if env.Kind != want {
		return nil, &ProtocolError{Msg: "expected " + want.String() + ", got " + env.Kind.String()}
	}
	if env.Round != round {
		return nil, &ProtocolError{Msg: "reply for wrong round"}
	}
	return env, nil
}

func (r *RemoteProver) RequestCommitment(ctx context.Context, round int) (*CommitmentMsg, error) {
	env, err := r.exchange(ctx, &Envelope{Kind: KindRoundStart, Round: round}, KindCommitment)
	if err != nil {
		return nil, err
	}
	if env.Commitment == nil {
		return nil, &ProtocolError{Msg: "commitment missing"}
	}
	return env.Commitment, nil
}

func (r *RemoteProver) RequestResponse(ctx context.Context, round int, ch *ChallengeMsg) (*ResponseMsg, error) {
	env, err := r.exchange(ctx, &Envelope{Kind: KindChallenge, Round: round, Challenge: ch}, KindResponse)
	if err != nil {
		return nil, err
	}
	if env.Response == nil {
		return nil, &ProtocolError{Msg: "response missing"}
	}
	return env.Response, nil
}

// Finish tells the prover the session is over. No reply is expected.
func (r *RemoteProver) Finish(ctx context.Context, verdict SessionVerdict) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.send(ctx, &Envelope{Kind: KindFinish, Round: verdict.RoundsRun, Status: verdict.Status})
}

// ServeProver answers the requests of a RemoteProver on the other end of m until
// the verifier sends Finish, and returns the status the verifier reported. If the
// prover cannot answer a request it sends Abort and returns the error; a failing
// transport is returned as is.
func ServeProver(ctx context.Context, m transport.Messenger, peer int, p *Prover) (Status, error) {
	defer p.Reset()

	send := func(env *Envelope) error {
		bts, err := encodeEnvelope(env)
		if err != nil {
			return err
		}
		return m.MessageSend(ctx, peer, bts)
	}
	abort := func(round int, failure Failure, err error) error {
		Logger.WithFields(logrus.Fields{"round": round, "failure": failure}).
			Warn("prover aborting session: ", err)
		if sendErr := send(&Envelope{
			Kind:  KindAbort,
			Round: round,
			Abort: &AbortMsg{Failure: failure, Message: err.Error()},
		}); sendErr != nil {
			Logger.Warn("failed to send abort: ", sendErr)
		}
		return err
	}

	current := -1
	for {
		bts, err := m.MessageReceive(ctx, peer)
		if err != nil {
			return 0, err
		}
		env, err := decodeEnvelope(bts)
		if err != nil {
			return 0, abort(current, FailureProtocol, err)
		}
		Logger.WithFields(logrus.Fields{"round": env.Round, "kind": env.Kind}).Trace("prover received")

		switch env.Kind {
		case KindRoundStart:
			c, err := p.Commit()
			if err != nil {
				return 0, abort(env.Round, classify(err), err)
			}
			current = env.Round
			if err = send(&Envelope{Kind: KindCommitment, Round: current, Commitment: c}); err != nil {
				return 0, err
			}

		case KindChallenge:
			if env.Round != current {
				p.Reset()
				return 0, abort(env.Round, FailureProtocol, &ProtocolError{Msg: "challenge for wrong round"})
			}
			resp, err := p.Respond(env.Challenge)
			if err != nil {
				return 0, abort(env.Round, FailureProtocol, err)
			}
			if err = send(&Envelope{Kind: KindResponse, Round: current, Response: resp}); err != nil {
				return 0, err
			}

		case KindFinish:
			Logger.WithFields(logrus.Fields{"status": env.Status, "rounds": env.Round}).Debug("verifier finished session")
			return env.Status, nil

		default:
			return 0, abort(env.Round, FailureProtocol, &ProtocolError{Msg: "unexpected " + env.Kind.String()})
		}
	}
}
