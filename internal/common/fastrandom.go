package common

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"
	"io"
	"sync"
	"sync/atomic"

	"github.com/go-errors/errors"
	"golang.org/x/crypto/hkdf"
)

// CPRNG is a simple thread-safe cryptographically secure pseudo-random number generator.
// Implemented with AES in counter mode with the seed as key and an
// atomic uint64 as counter. Equal seeds yield equal streams, which makes it the
// randomness source of choice for reproducible protocol runs.
type CPRNG struct {
	block   cipher.Block
	counter uint64
}

func NewCPRNG(seed *[32]byte) (*CPRNG, error) {
	c, err := aes.NewCipher(seed[:])
	if err != nil {
		return nil, err
	}
	return &CPRNG{
		block:   c,
		counter: 0,
	}, nil
}

func (c *CPRNG) Read(buf []byte) (n int, err error) {
	var pt, ct [16]byte
	n = len(buf)
	if n == 0 {
		return
	}

	// Number of blocks required
	nBlocks := uint64(((len(buf) - 1) / 16) + 1)

	// Atomically increment counter by the number of blocks and set iv to
	// the first available block.
	iv := atomic.AddUint64(&c.counter, nBlocks) - nBlocks
	for {
		binary.LittleEndian.PutUint64(pt[:], iv)
		iv++

		// Still 16 bytes to go?  Then encrypt directly into buf.
		if len(buf) >= 16 {
			c.block.Encrypt(buf, pt[:])
			buf = buf[16:]
			continue
		}
		if len(buf) == 0 {
			break
		}

		// Otherwise, encrypt into ct and copy into buf.
		c.block.Encrypt(ct[:], pt[:])
		copy(buf, ct[:len(buf)])
		break
	}
	return
}

// LockedReader serializes reads from a randomness source shared between
// concurrently running sessions, so that no two readers observe interleaved
// or overlapping output.
type LockedReader struct {
	mu sync.Mutex
	r  io.Reader
}

func NewLockedReader(r io.Reader) *LockedReader {
	return &LockedReader{r: r}
}

func (l *LockedReader) Read(buf []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return io.ReadFull(l.r, buf)
}

// DeriveReader returns an independent CPRNG for the given index, keyed with
// HKDF-SHA256 over the master seed. Used to give every round of a batched
// session its own seeded randomness.
func DeriveReader(master []byte, label string, index uint64) (*CPRNG, error) {
	if len(master) < 16 {
		return nil, errors.New("master seed must be at least 16 bytes")
	}
	var info [8]byte
	binary.BigEndian.PutUint64(info[:], index)
	kdf := hkdf.New(sha256.New, master, []byte(label), info[:])

	var seed [32]byte
	if _, err := io.ReadFull(kdf, seed[:]); err != nil {
		return nil, errors.WrapPrefix(err, "failed to derive seed", 0)
	}
	return NewCPRNG(&seed)
}
