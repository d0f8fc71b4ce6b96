package mnemonic

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPhrase = "that august urban math slender industry area mountain worry day ski hold"

func TestGenerate(t *testing.T) {
	for _, count := range []int{12, 15, 18, 21, 24} {
		phrase, err := Generate(count)
		require.NoError(t, err)
		assert.Len(t, strings.Fields(phrase), count)
		assert.NoError(t, Validate(phrase))
	}
}

func TestGenerateInvalidWordCount(t *testing.T) {
	for _, count := range []int{0, 11, 13, 25} {
		_, err := Generate(count)
		assert.ErrorIs(t, err, ErrInvalidWordCount)
	}
}

func TestGenerateIsRandom(t *testing.T) {
	a, err := Generate(DefaultWordCount)
	require.NoError(t, err)
	b, err := Generate(DefaultWordCount)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEntropyBits(t *testing.T) {
	for count, want := range map[int]int{12: 128, 15: 160, 18: 192, 21: 224, 24: 256} {
		got, err := EntropyBits(count)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, count*11*32/33, got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		phrase string
		ok     bool
	}{
		{"valid 12 words", testPhrase, true},
		{"valid 24 words", "film crazy soon outside stand loop subway crumble thrive popular green nuclear struggle pistol arm wife phrase warfare march wheat nephew ask sunny firm", true},
		{"unknown word", "that august urban math slender industry area mountain worry day ski holdx", false},
		{"checksum mismatch", strings.Repeat("abandon ", 11) + "abandon", false},
		{"too short", "that august urban", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.phrase)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidMnemonic)
		})
	}
}

func TestValidateRejectsAlteredWord(t *testing.T) {
	valid := strings.Repeat("abandon ", 11) + "about"
	require.NoError(t, Validate(valid))

	// last word swapped for another list word breaks the checksum
	assert.ErrorIs(t, Validate(strings.Repeat("abandon ", 11)+"absent"), ErrInvalidMnemonic)
	// last word swapped for a non-list word breaks membership
	assert.ErrorIs(t, Validate(strings.Repeat("abandon ", 11)+"aboutt"), ErrInvalidMnemonic)
}

func TestToSeed(t *testing.T) {
	// BIP-39 reference vector (TREZOR passphrase)
	seed := ToSeed("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about", "TREZOR")
	assert.Equal(t,
		"c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04",
		hex.EncodeToString(seed))
	assert.Len(t, seed, SeedSize)
}

func TestToSeedDeterministic(t *testing.T) {
	assert.Equal(t, ToSeed(testPhrase, ""), ToSeed(testPhrase, ""))
	assert.NotEqual(t, ToSeed(testPhrase, ""), ToSeed(testPhrase, "x"))
}

func TestToSeedChecked(t *testing.T) {
	seed, err := ToSeedChecked(testPhrase, "")
	require.NoError(t, err)
	assert.Equal(t, ToSeed(testPhrase, ""), seed)

	_, err = ToSeedChecked("that august urban", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

func TestToSeedCheckedNormalizesPhrase(t *testing.T) {
	want := ToSeed(testPhrase, "")
	for _, sloppy := range []string{
		"that  august urban math slender industry area mountain worry day ski hold",
		"that august urban math slender industry area mountain worry day ski hold\n",
		"  That August urban math slender industry area mountain worry day ski HOLD",
	} {
		seed, err := ToSeedChecked(sloppy, "")
		require.NoError(t, err, sloppy)
		assert.Equal(t, want, seed, sloppy)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, testPhrase, Normalize("  That August\turban math slender industry area mountain worry day ski HOLD \n"))
	assert.Equal(t, 12, WordCount(Normalize(testPhrase)))
}
