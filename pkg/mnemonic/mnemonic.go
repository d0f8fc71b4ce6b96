// Package mnemonic generates and checks BIP-39 phrases and stretches them
// into 64-byte seeds.
package mnemonic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/text/unicode/norm"

	"sui-wallet-go/pkg/secret"
)

// DefaultWordCount is the phrase length used when none is requested
const DefaultWordCount = 12

// SeedSize is the length of the seed produced by ToSeed
const SeedSize = 64

var (
	ErrInvalidMnemonic  = errors.New("invalid mnemonic")
	ErrInvalidWordCount = errors.New("invalid mnemonic word count")
)

// entropyBits maps an allowed word count to its entropy size
var entropyBits = map[int]int{
	12: 128,
	15: 160,
	18: 192,
	21: 224,
	24: 256,
}

// EntropyBits returns wordCount*11*32/33, the entropy carried by a phrase of wordCount words
func EntropyBits(wordCount int) (int, error) {
	bits, ok := entropyBits[wordCount]
	if !ok {
		return 0, fmt.Errorf("%w: %d (want 12, 15, 18, 21 or 24)", ErrInvalidWordCount, wordCount)
	}
	return bits, nil
}

// Generate returns a fresh phrase of wordCount words drawn from crypto/rand
func Generate(wordCount int) (string, error) {
	bits, err := EntropyBits(wordCount)
	if err != nil {
		return "", err
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("failed to read entropy: %w", err)
	}
	defer secret.Wipe(entropy)

	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to encode mnemonic: %w", err)
	}
	return phrase, nil
}

// Validate checks word count, word list membership and the embedded checksum
// of the normalized phrase
func Validate(phrase string) error {
	words := strings.Fields(Normalize(phrase))
	if _, ok := entropyBits[len(words)]; !ok {
		return fmt.Errorf("%w: %d words", ErrInvalidMnemonic, len(words))
	}
	for i, w := range words {
		if _, ok := bip39.GetWordIndex(w); !ok {
			return fmt.Errorf("%w: word %d is not in the word list", ErrInvalidMnemonic, i+1)
		}
	}

	entropy, err := bip39.EntropyFromMnemonic(strings.Join(words, " "))
	if err != nil {
		if errors.Is(err, bip39.ErrChecksumIncorrect) {
			return fmt.Errorf("%w: checksum mismatch", ErrInvalidMnemonic)
		}
		return fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	secret.Wipe(entropy)
	return nil
}

// ToSeed runs PBKDF2-HMAC-SHA512 (2048 rounds) over the NFKD form of the
// phrase with salt "mnemonic"+passphrase. It does not validate the phrase.
func ToSeed(phrase, passphrase string) []byte {
	return bip39.NewSeed(norm.NFKD.String(phrase), norm.NFKD.String(passphrase))
}

// ToSeedChecked normalizes the phrase, validates it and stretches the
// normalized form, so stray whitespace or capitals never change the seed
func ToSeedChecked(phrase, passphrase string) ([]byte, error) {
	phrase = Normalize(phrase)
	if err := Validate(phrase); err != nil {
		return nil, err
	}
	return ToSeed(phrase, passphrase), nil
}

// Normalize lowercases a user-typed phrase and collapses whitespace
func Normalize(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFKD.String(phrase))), " ")
}

// WordCount returns the number of words in phrase
func WordCount(phrase string) int {
	return len(strings.Fields(phrase))
}
