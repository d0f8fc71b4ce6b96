// Package keypair holds an ed25519 key derived for a Sui account.
package keypair

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"sui-wallet-go/pkg/address"
	"sui-wallet-go/pkg/hdkey"
	"sui-wallet-go/pkg/mnemonic"
	"sui-wallet-go/pkg/secret"
	"sui-wallet-go/pkg/signature"
)

var (
	ErrInvalidSeed = errors.New("invalid ed25519 seed")
	ErrDestroyed   = errors.New("key pair has been destroyed")
)

// KeyPair is immutable after construction. Sign, Verify and the accessors are
// safe for concurrent use; Destroy is not and must be the last call.
type KeyPair struct {
	public  ed25519.PublicKey
	private *secret.Secret // 64-byte expanded key, seed half first

	addrOnce sync.Once
	addr     address.Address
}

// FromSeed expands a 32-byte ed25519 seed. The caller keeps ownership of seed.
func FromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidSeed, len(seed), ed25519.SeedSize)
	}

	priv := ed25519.NewKeyFromSeed(seed)
	defer secret.Wipe(priv)

	return &KeyPair{
		public:  append(ed25519.PublicKey(nil), priv[ed25519.SeedSize:]...),
		private: secret.From(priv),
	}, nil
}

// FromMnemonic validates phrase, stretches it and derives the key at path
// (hdkey.DefaultPath when empty). No key material survives a failed call.
func FromMnemonic(phrase, passphrase, path string) (*KeyPair, error) {
	seed, err := mnemonic.ToSeedChecked(phrase, passphrase)
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(seed)

	key, err := hdkey.DeriveSui(seed, path)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	return FromSeed(key.Bytes())
}

// Generate creates a new phrase of wordCount words and the keypair at path
func Generate(wordCount int, path string) (*KeyPair, string, error) {
	phrase, err := mnemonic.Generate(wordCount)
	if err != nil {
		return nil, "", err
	}
	kp, err := FromMnemonic(phrase, "", path)
	if err != nil {
		return nil, "", err
	}
	return kp, phrase, nil
}

// Sign returns the deterministic ed25519 signature over msg.
// It panics after Destroy; callers that share a key pair check Destroyed first.
func (k *KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(k.private.Bytes()), msg)
}

// Verify checks sig over msg against this public key
func (k *KeyPair) Verify(msg, sig []byte) bool {
	return ed25519.Verify(k.public, msg, sig)
}

// Scheme returns the signature flag for this key type
func (k *KeyPair) Scheme() signature.Scheme {
	return signature.Ed25519
}

// Address returns the account address, computed once
func (k *KeyPair) Address() address.Address {
	k.addrOnce.Do(func() {
		// public is always 32 bytes here
		k.addr, _ = address.Derive(k.public, k.Scheme())
	})
	return k.addr
}

// PublicKey returns a copy of the 32-byte public key
func (k *KeyPair) PublicKey() []byte {
	return append([]byte(nil), k.public...)
}

func (k *KeyPair) PublicKeyBase64() string {
	return base64.StdEncoding.EncodeToString(k.public)
}

func (k *KeyPair) PublicKeyHex() string {
	return hex.EncodeToString(k.public)
}

// PrivateKey returns a copy of the 32-byte seed half of the private key
func (k *KeyPair) PrivateKey() []byte {
	return append([]byte(nil), k.private.Bytes()[:ed25519.SeedSize]...)
}

func (k *KeyPair) PrivateKeyBase64() string {
	return base64.StdEncoding.EncodeToString(k.private.Bytes()[:ed25519.SeedSize])
}

func (k *KeyPair) PrivateKeyHex() string {
	return hex.EncodeToString(k.private.Bytes()[:ed25519.SeedSize])
}

// Equal compares keypairs by public key
func (k *KeyPair) Equal(other *KeyPair) bool {
	if k == nil || other == nil {
		return k == other
	}
	return bytes.Equal(k.public, other.public)
}

// Destroy zeroes the private key. The keypair must not sign afterwards.
func (k *KeyPair) Destroy() {
	k.private.Destroy()
}

// Destroyed reports whether Destroy has been called
func (k *KeyPair) Destroyed() bool {
	return k.private.Len() == 0
}

// String never prints private material
func (k *KeyPair) String() string {
	return fmt.Sprintf("KeyPair{%s %s}", k.Scheme(), k.Address())
}
