package common

import (
	"github.com/multiformats/go-multihash"
)

// Digest returns the SHA2-256 multihash of data. The multihash prefix makes
// stored digests self-describing should the hash function ever change.
func Digest(data []byte) ([]byte, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return nil, err
	}
	return []byte(mh), nil
}
