// Package address derives and parses 32-byte Sui account addresses.
package address

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"sui-wallet-go/pkg/signature"
)

var (
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrInvalidAddress   = errors.New("invalid address")
)

const (
	// Size is the raw address length in bytes
	Size = blake2b.Size256

	prefix = "0x"
)

// Address is "0x" followed by 64 lowercase hex characters
type Address string

// Derive hashes flag || pub with BLAKE2b-256 and hex-encodes the digest
func Derive(pub []byte, flag signature.Scheme) (Address, error) {
	if !flag.Known() {
		return "", fmt.Errorf("%w: 0x%02x", signature.ErrUnknownScheme, byte(flag))
	}
	if len(pub) != flag.PublicKeySize() {
		return "", fmt.Errorf("%w: %s key is %d bytes, want %d", ErrInvalidPublicKey, flag, len(pub), flag.PublicKeySize())
	}

	buf := make([]byte, 0, 1+len(pub))
	buf = append(buf, byte(flag))
	buf = append(buf, pub...)

	sum := blake2b.Sum256(buf)
	return Address(prefix + hex.EncodeToString(sum[:])), nil
}

// FromEd25519 is Derive with the ed25519 flag
func FromEd25519(pub []byte) (Address, error) {
	return Derive(pub, signature.Ed25519)
}

// Parse accepts an address in either hex case and returns its canonical lowercase form
func Parse(s string) (Address, error) {
	if !strings.HasPrefix(s, prefix) {
		return "", fmt.Errorf("%w: %q has no 0x prefix", ErrInvalidAddress, s)
	}
	body := s[len(prefix):]
	if len(body) != 2*Size {
		return "", fmt.Errorf("%w: %q has %d hex characters, want %d", ErrInvalidAddress, s, len(body), 2*Size)
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", fmt.Errorf("%w: %q is not hex", ErrInvalidAddress, s)
	}
	return Address(prefix + strings.ToLower(body)), nil
}

// IsValid reports whether s is already in canonical form
func IsValid(s string) bool {
	a, err := Parse(s)
	return err == nil && string(a) == s
}

// Bytes decodes the address into its 32 raw bytes
func (a Address) Bytes() ([]byte, error) {
	p, err := Parse(string(a))
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(string(p)[len(prefix):])
}

// String returns the address text
func (a Address) String() string {
	return string(a)
}

// Equals compares two addresses ignoring hex case
func (a Address) Equals(other Address) bool {
	return strings.EqualFold(string(a), string(other))
}
