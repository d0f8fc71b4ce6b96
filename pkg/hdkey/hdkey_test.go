package hdkey

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// SLIP-0010 ed25519 test vector 1
func TestDeriveSlip10Vector(t *testing.T) {
	seed := mustHex(t, "000102030405060708090a0b0c0d0e0f")

	tests := []struct {
		path string
		key  string
	}{
		{"m", "2b4be7f19ee27bbf30c667b642d5f4aa69fd169872f8fc3059c08ebae2eb19e7"},
		{"m/0'", "68e0fe46dfb67e368c75379acec591dad19df3cde26e63b93a8e704f1dade7a3"},
		{"m/0'/1'", "b1d0bad404bf35da785a64ca1ac54b2617211d2777696fbffaf208f746ae84f2"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			key, err := DerivePath(seed, tt.path)
			require.NoError(t, err)
			defer key.Destroy()
			assert.Equal(t, tt.key, hex.EncodeToString(key.Bytes()))
		})
	}
}

func TestDeriveDeterministic(t *testing.T) {
	seed := make([]byte, 64)
	for i := range seed {
		seed[i] = byte(i)
	}

	a, err := DeriveSui(seed, "")
	require.NoError(t, err)
	b, err := DeriveSui(seed, DefaultPath)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.Equal(t, KeySize, a.Len())

	other, err := DeriveSui(seed, AccountPath(1))
	require.NoError(t, err)
	assert.False(t, a.Equal(other))
}

func TestDeriveRejectsBadSeed(t *testing.T) {
	_, err := DerivePath(make([]byte, 8), DefaultPath)
	assert.ErrorIs(t, err, ErrDerivation)

	_, err = DerivePath(make([]byte, 65), DefaultPath)
	assert.ErrorIs(t, err, ErrDerivation)
}

func TestDeriveRejectsHardenedBitInIndex(t *testing.T) {
	_, err := Derive(make([]byte, 32), Path{HardenedOffset})
	assert.ErrorIs(t, err, ErrDerivation)
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		path string
		want Path
		ok   bool
	}{
		{"m", Path{}, true},
		{DefaultPath, Path{44, 784, 0, 0, 0}, true},
		{"m/44'/784'/3'/0'/0'", Path{44, 784, 3, 0, 0}, true},
		{"m/44'/784'/0'/0/0", nil, false},
		{"m/44/784'/0'/0'/0'", nil, false},
		{"44'/784'/0'/0'/0'", nil, false},
		{"m/", nil, false},
		{"m/a'", nil, false},
		{"m/2147483648'", nil, false},
		{"", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ParsePath(tt.path)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrDerivation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.path, got.String())
		})
	}
}

func TestValidateSui(t *testing.T) {
	seed := make([]byte, 64)

	for _, path := range []string{
		"m/44'/784'/0'/0'",
		"m/44'/60'/0'/0'/0'",
		"m/54'/784'/0'/0'/0'",
		"m/44'/784'/0'/0/0",
	} {
		_, err := DeriveSui(seed, path)
		assert.ErrorIs(t, err, ErrDerivation, path)
	}

	assert.Equal(t, DefaultPath, AccountPath(0))
}
