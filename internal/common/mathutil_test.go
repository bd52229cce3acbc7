package common

import (
	"math/rand"
	"testing"

	"github.com/privacybydesign/qrid/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGCD(t *testing.T) {
	cases := []struct{ a, b, gcd int64 }{
		{0, 0, 0},
		{17, 0, 17},
		{0, 17, 17},
		{15, 3233, 1},
		{61, 3233, 61},
		{3233, 53, 53},
		{12, 18, 6},
		{1071, 462, 21},
	}
	for _, c := range cases {
		res := GCD(big.NewInt(c.a), big.NewInt(c.b))
		assert.Equal(t, c.gcd, res.Int64(), "gcd(%d, %d)", c.a, c.b)
	}
}

func TestGCDDoesNotModifyArguments(t *testing.T) {
	a, b := big.NewInt(1071), big.NewInt(462)
	GCD(a, b)
	assert.Equal(t, int64(1071), a.Int64())
	assert.Equal(t, int64(462), b.Int64())
}

func TestGCDReduction(t *testing.T) {
	// gcd(a, b) == gcd(b, a mod b) for b != 0
	randomSource := rand.New(rand.NewSource(1))
	limit := new(big.Int).Lsh(big.NewInt(1), 256)
	for i := 0; i < 200; i++ {
		a := big.Convert(new(big.Int).Go().Rand(randomSource, limit.Go()))
		b := big.Convert(new(big.Int).Go().Rand(randomSource, limit.Go()))
		if b.Sign() == 0 {
			continue
		}
		lhs := GCD(a, b)
		rhs := GCD(b, new(big.Int).Mod(a, b))
		require.Zero(t, lhs.Cmp(rhs))
		require.Zero(t, lhs.Cmp(big.Convert(new(big.Int).Go().GCD(nil, nil, a.Go(), b.Go()))))
	}
}

func TestGCDLargeInput(t *testing.T) {
	// Consecutive Fibonacci numbers force the maximal number of Euclid steps
	a, b := big.NewInt(1), big.NewInt(1)
	for i := 0; i < 20000; i++ {
		a.Add(a, b)
		a, b = b, a
	}
	assert.Equal(t, int64(1), GCD(b, a).Int64())
}

func TestModInverse(t *testing.T) {
	n := big.NewInt(3233)
	inv, err := ModInverse(big.NewInt(15), n)
	require.NoError(t, err)
	assert.Equal(t, int64(2802), inv.Int64())

	inv, err = ModInverse(big.NewInt(1), big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, int64(1), inv.Int64())

	// Argument larger than the modulus is reduced first
	inv, err = ModInverse(big.NewInt(3233+15), n)
	require.NoError(t, err)
	assert.Equal(t, int64(2802), inv.Int64())

	inv, err = ModInverse(big.NewInt(5), big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, int64(0), inv.Int64())
}

func TestModInverseProperty(t *testing.T) {
	randomSource := rand.New(rand.NewSource(2))
	n := big.NewInt(3233)
	for a := int64(0); a < 3233; a++ {
		inv, err := ModInverse(big.NewInt(a), n)
		if !Coprime(big.NewInt(a), n) {
			require.ErrorIs(t, err, ErrNotInvertible, "a = %d", a)
			continue
		}
		require.NoError(t, err)
		require.True(t, inv.Sign() >= 0 && inv.Cmp(n) < 0)
		require.Equal(t, int64(1), ModMul(big.NewInt(a), inv, n).Int64(), "a = %d", a)
	}

	// Against math/big for a large modulus
	m, ok := new(big.Int).SetString("164849270410462350104130325681247905590883554049096338805080434441472785625514686982133223499269392762578795730418568510961568211704176723141852210985181059718962898851826265731600544499072072429389241617421101776748772563983535569756524904424870652659455911012103327708213798899264261222168033763550010103177", 10)
	require.True(t, ok)
	for i := 0; i < 50; i++ {
		a := big.Convert(new(big.Int).Go().Rand(randomSource, m.Go()))
		inv, err := ModInverse(a, m)
		expected := new(big.Int).Go().ModInverse(a.Go(), m.Go())
		if expected == nil {
			require.ErrorIs(t, err, ErrNotInvertible)
			continue
		}
		require.NoError(t, err)
		require.Zero(t, inv.Go().Cmp(expected))
	}
}

func TestModInverseNotInvertible(t *testing.T) {
	_, err := ModInverse(big.NewInt(61), big.NewInt(3233))
	assert.ErrorIs(t, err, ErrNotInvertible)
	_, err = ModInverse(big.NewInt(0), big.NewInt(3233))
	assert.ErrorIs(t, err, ErrNotInvertible)
	_, err = ModInverse(big.NewInt(3), big.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidModulus)
}

func TestWitnessDecomposition(t *testing.T) {
	// u2 = x * u1^-1 satisfies u1 * u2 = x (mod n) for every unit u1
	n := big.NewInt(3233)
	x := big.NewInt(17)
	for u1 := int64(1); u1 < 3233; u1++ {
		inv, err := ModInverse(big.NewInt(u1), n)
		if err != nil {
			continue
		}
		u2 := ModMul(x, inv, n)
		require.Equal(t, int64(17), ModMul(big.NewInt(u1), u2, n).Int64())
	}
}
