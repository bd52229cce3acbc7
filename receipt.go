package qrid

import (
	"crypto/ecdsa"
	"time"

	"github.com/go-errors/errors"
	"github.com/privacybydesign/qrid/big"
	"github.com/privacybydesign/qrid/signed"
)

// Receipt summarizes a finished session for third parties. Signed by the verifier,
// it attests which public key was identified, how, and when.
type Receipt struct {
	N           *big.Int  `json:"n"`
	V           *big.Int  `json:"v"`
	Status      Status    `json:"status"`
	FailedRound int       `json:"failedRound"`
	RoundsRun   int       `json:"roundsRun"`
	Reason      Failure   `json:"reason"`
	Transcript  []byte    `json:"transcript"` // Multihash of the CBOR encoded transcript
	Time        time.Time `json:"time"`
}

// Receipt returns a receipt for a finished session.
func (s *Session) Receipt() (*Receipt, error) {
	verdict, ok := s.Verdict()
	if !ok {
		return nil, errors.New("session has not run")
	}
	digest, err := s.transcript.Digest()
	if err != nil {
		return nil, err
	}
	return &Receipt{
		N:           s.pk.N,
		V:           s.pk.V,
		Status:      verdict.Status,
		FailedRound: verdict.FailedRound,
		RoundsRun:   verdict.RoundsRun,
		Reason:      verdict.Reason,
		Transcript:  digest,
		Time:        time.Now().UTC().Truncate(time.Second),
	}, nil
}

// SignReceipt signs r with the verifier's ECDSA key.
func SignReceipt(sk *ecdsa.PrivateKey, r *Receipt) (signed.Message, error) {
	return signed.MarshalSign(sk, r)
}

// VerifyReceipt checks the signature on msg and returns the receipt it carries.
func VerifyReceipt(pk *ecdsa.PublicKey, msg signed.Message) (*Receipt, error) {
	r := &Receipt{}
	if err := signed.UnmarshalVerify(pk, msg, r); err != nil {
		return nil, err
	}
	return r, nil
}

// MatchesTranscript reports whether the receipt was issued for transcript t.
func (r *Receipt) MatchesTranscript(t *Transcript) (bool, error) {
	digest, err := t.Digest()
	if err != nil {
		return false, err
	}
	return string(digest) == string(r.Transcript), nil
}
