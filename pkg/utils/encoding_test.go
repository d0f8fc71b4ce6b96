package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataString(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
		ok   bool
	}{
		{"AAEC", []byte{0, 1, 2}, true},
		{" AAEC\n", []byte{0, 1, 2}, true},
		{"0x0a0b", []byte{0x0a, 0x0b}, true},
		{"0XDEADBEEF", []byte{0xde, 0xad, 0xbe, 0xef}, true},
		{"0xdeadbeef00000001", []byte{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 1}, true},
		{"0xabc", nil, false},
		{"zz!", nil, false},
	}

	for _, tt := range tests {
		got, err := DecodeDataString(tt.in)
		if !tt.ok {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

// hex and base64 overlap; bare hex must decode as base64, never be guessed
func TestDecodeDataStringBareHexIsBase64(t *testing.T) {
	got, err := DecodeDataString("deadbeef00000001")
	require.NoError(t, err)
	assert.Len(t, got, 12)
	assert.NotEqual(t, []byte{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 1}, got)

	_, err = DecodeDataString("deadbeef0")
	assert.Error(t, err)
}

func TestHexAndBase58(t *testing.T) {
	assert.Equal(t, "0x0a0b", EncodeHex([]byte{0x0a, 0x0b}))
	b, err := DecodeHex("0a0b")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x0b}, b)

	digest := EncodeBase58(make([]byte, 32))
	assert.True(t, IsValidTransactionDigest(digest))
	assert.False(t, IsValidTransactionDigest(EncodeBase58(make([]byte, 20))))
	assert.False(t, IsValidTransactionDigest("0OIl"))
}

func TestConcatBytes(t *testing.T) {
	assert.Equal(t, []byte{1, 2, 3}, ConcatBytes([]byte{1}, nil, []byte{2, 3}))
}

func TestMist(t *testing.T) {
	assert.Equal(t, uint64(1_500_000_000), ConvertSUIToMist(1.5))
	assert.Equal(t, uint64(290_000_000), ConvertSUIToMist(0.29))

	v, err := ParseMist("1000000001")
	require.NoError(t, err)
	assert.Equal(t, "1.000000001", FormatMist(v))
	assert.Equal(t, "0.000000000", FormatMist(big.NewInt(0)))

	_, err = ParseMist("-1")
	assert.Error(t, err)
	_, err = ParseMist("abc")
	assert.Error(t, err)
}
