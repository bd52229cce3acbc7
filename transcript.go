package qrid

import (
	"sync"

	"github.com/go-errors/errors"
	"github.com/privacybydesign/qrid/big"
	"github.com/privacybydesign/qrid/cbor"
	"github.com/privacybydesign/qrid/internal/common"
)

// TranscriptEntry holds the public messages of one round.
type TranscriptEntry struct {
	Round      int            `json:"round"`
	Commitment *CommitmentMsg `json:"commitment,omitempty"`
	Challenge  *ChallengeMsg  `json:"challenge,omitempty"`
	Response   *ResponseMsg   `json:"response,omitempty"`
	Outcome    RoundOutcome   `json:"outcome"`
}

// Transcript records the public side of a session: everything the verifier saw.
// It contains no secret of the prover beyond what the protocol reveals.
type Transcript struct {
	N       *big.Int          `json:"n"`
	V       *big.Int          `json:"v"`
	Entries []TranscriptEntry `json:"entries"`

	mu sync.Mutex
}

func newTranscript(pk *PublicKey) *Transcript {
	return &Transcript{N: pk.N, V: pk.V}
}

func (t *Transcript) add(res *RoundResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Entries = append(t.Entries, TranscriptEntry{
		Round:      res.Index,
		Commitment: res.Commitment,
		Challenge:  res.Challenge,
		Response:   res.Response,
		Outcome:    res.Outcome,
	})
}

// MarshalCBOR encodes the transcript deterministically, so that equal transcripts
// have equal encodings.
func (t *Transcript) MarshalCBOR() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cbor.Marshal(transcriptData{N: t.N, V: t.V, Entries: t.Entries})
}

func (t *Transcript) UnmarshalCBOR(data []byte) error {
	var d transcriptData
	if err := cbor.Unmarshal(data, &d); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.N, t.V, t.Entries = d.N, d.V, d.Entries
	return nil
}

// transcriptData is Transcript without its lock.
type transcriptData struct {
	N       *big.Int          `json:"n"`
	V       *big.Int          `json:"v"`
	Entries []TranscriptEntry `json:"entries"`
}

// Digest returns the SHA2-256 multihash of the CBOR encoded transcript.
func (t *Transcript) Digest() ([]byte, error) {
	bts, err := t.MarshalCBOR()
	if err != nil {
		return nil, errors.WrapPrefix(err, "failed to encode transcript", 0)
	}
	return common.Digest(bts)
}
