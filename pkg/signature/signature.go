// Package signature encodes the flag || signature || public key tuple a
// Sui node expects next to transaction bytes.
package signature

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	ErrFormat            = errors.New("malformed serialized signature")
	ErrUnknownScheme     = errors.New("unknown signature scheme")
	ErrUnsupportedScheme = errors.New("signature scheme not supported for verification")
)

// Serialized is the base64 wire form of a signature
type Serialized string

// Parts is a decoded serialized signature
type Parts struct {
	Scheme    Scheme
	Signature []byte
	PublicKey []byte
}

// Serialize concatenates [scheme] || sig || pub and base64-encodes the result
func Serialize(scheme Scheme, sig, pub []byte) (Serialized, error) {
	raw, err := Marshal(scheme, sig, pub)
	if err != nil {
		return "", err
	}
	return Serialized(base64.StdEncoding.EncodeToString(raw)), nil
}

// Marshal is Serialize without the base64 step
func Marshal(scheme Scheme, sig, pub []byte) ([]byte, error) {
	if !scheme.Known() {
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownScheme, byte(scheme))
	}
	if len(sig) != SignatureSize {
		return nil, fmt.Errorf("%w: signature is %d bytes, want %d", ErrFormat, len(sig), SignatureSize)
	}
	if len(pub) != scheme.PublicKeySize() {
		return nil, fmt.Errorf("%w: %s public key is %d bytes, want %d", ErrFormat, scheme, len(pub), scheme.PublicKeySize())
	}

	raw := make([]byte, 0, scheme.SerializedSize())
	raw = append(raw, byte(scheme))
	raw = append(raw, sig...)
	raw = append(raw, pub...)
	return raw, nil
}

// Deserialize decodes the base64 wire form back into its parts
func Deserialize(s Serialized) (*Parts, error) {
	raw, err := base64.StdEncoding.DecodeString(string(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return Unmarshal(raw)
}

// Unmarshal splits raw wire bytes into scheme, signature and public key
func Unmarshal(raw []byte) (*Parts, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrFormat)
	}
	scheme, err := ParseScheme(raw[0])
	if err != nil {
		return nil, err
	}
	if len(raw) != scheme.SerializedSize() {
		return nil, fmt.Errorf("%w: %d bytes, want %d for %s", ErrFormat, len(raw), scheme.SerializedSize(), scheme)
	}

	return &Parts{
		Scheme:    scheme,
		Signature: append([]byte(nil), raw[1:1+SignatureSize]...),
		PublicKey: append([]byte(nil), raw[1+SignatureSize:]...),
	}, nil
}

// Verify checks the signature over msg, which for transactions is the intent digest
func (p *Parts) Verify(msg []byte) (bool, error) {
	switch p.Scheme {
	case Ed25519:
		return ed25519.Verify(ed25519.PublicKey(p.PublicKey), msg, p.Signature), nil
	default:
		return false, fmt.Errorf("%w: %s", ErrUnsupportedScheme, p.Scheme)
	}
}

// Serialize re-encodes the parts
func (p *Parts) Serialize() (Serialized, error) {
	return Serialize(p.Scheme, p.Signature, p.PublicKey)
}

// String returns the base64 text
func (s Serialized) String() string {
	return string(s)
}
