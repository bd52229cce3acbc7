package signed

import (
	"crypto/rand"
	"testing"

	"github.com/privacybydesign/qrid/big"
	"github.com/stretchr/testify/require"
)

type record struct {
	Label  string
	Value  *big.Int
	Rounds int
	Next   *record
}

func TestSigned(t *testing.T) {
	sk, err := GenerateKey()
	require.NoError(t, err)

	i, err := big.RandInt(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	require.NoError(t, err)

	var (
		before = record{Label: "hello", Value: i, Rounds: 20, Next: &record{Label: "world"}}
		after  record
	)

	msg, err := MarshalSign(sk, before)
	require.NoError(t, err)

	require.NoError(t, UnmarshalVerify(&sk.PublicKey, msg, &after))
	require.Equal(t, before.Label, after.Label)
	require.Equal(t, 0, before.Value.Cmp(after.Value))
	require.Equal(t, before.Rounds, after.Rounds)
	require.Equal(t, "world", after.Next.Label)
}

func TestSignedWrongKey(t *testing.T) {
	sk, err := GenerateKey()
	require.NoError(t, err)
	other, err := GenerateKey()
	require.NoError(t, err)

	msg, err := MarshalSign(sk, record{Label: "hello"})
	require.NoError(t, err)

	var after record
	require.ErrorIs(t, UnmarshalVerify(&other.PublicKey, msg, &after), ErrInvalidSignature)
	require.Empty(t, after.Label)
}

func TestSignedTampered(t *testing.T) {
	sk, err := GenerateKey()
	require.NoError(t, err)

	bts := []byte("rejected at round 3")
	sig, err := Sign(sk, bts)
	require.NoError(t, err)
	require.NoError(t, Verify(&sk.PublicKey, bts, sig))

	bts[len(bts)-1] = '4'
	require.ErrorIs(t, Verify(&sk.PublicKey, bts, sig), ErrInvalidSignature)
}

func TestPemPublicKey(t *testing.T) {
	sk, err := GenerateKey()
	require.NoError(t, err)

	bts, err := MarshalPemPublicKey(&sk.PublicKey)
	require.NoError(t, err)
	pk, err := UnmarshalPemPublicKey(bts)
	require.NoError(t, err)
	require.True(t, sk.PublicKey.Equal(pk))

	_, err = UnmarshalPemPublicKey([]byte("not pem"))
	require.Error(t, err)
}
