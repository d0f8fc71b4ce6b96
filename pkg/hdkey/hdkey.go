// Package hdkey implements SLIP-0010 hardened derivation for ed25519.
package hdkey

import (
	"crypto"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/ecadlabs/hdw"
	hdwed25519 "github.com/ecadlabs/hdw/ed25519"

	"sui-wallet-go/pkg/secret"
)

var ErrDerivation = errors.New("key derivation failed")

const (
	// KeySize is the size of the derived ed25519 seed
	KeySize = ed25519.SeedSize

	minSeedSize = 16
	maxSeedSize = 64
)

// DerivePath walks path from the master key of seed and returns the final
// 32-byte key. The caller owns the returned secret.
func DerivePath(seed []byte, path string) (*secret.Secret, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return Derive(seed, p)
}

// Derive is DerivePath with an already parsed path
func Derive(seed []byte, path Path) (*secret.Secret, error) {
	if len(seed) < minSeedSize || len(seed) > maxSeedSize {
		return nil, fmt.Errorf("%w: seed must be %d..%d bytes, got %d", ErrDerivation, minSeedSize, maxSeedSize, len(seed))
	}

	hp := make(hdw.Path, len(path))
	for i, idx := range path {
		if idx >= HardenedOffset {
			return nil, fmt.Errorf("%w: index %d already carries the hardened bit", ErrDerivation, idx)
		}
		hp[i] = idx | hdw.Hard
	}

	root := hdwed25519.NewKeyFromSeed(seed)
	naked := crypto.PrivateKey(root.Naked())
	if len(hp) > 0 {
		child, err := root.DerivePath(hp)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDerivation, err)
		}
		naked = child.Naked()
	}

	priv, ok := naked.(ed25519.PrivateKey)
	if !ok || len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: unexpected key type %T", ErrDerivation, naked)
	}
	defer secret.Wipe(priv)

	return secret.From(priv[:KeySize]), nil
}

// DeriveSui derives along a Sui ed25519 path, DefaultPath when path is empty
func DeriveSui(seed []byte, path string) (*secret.Secret, error) {
	if path == "" {
		path = DefaultPath
	}
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	if err := p.ValidateSui(); err != nil {
		return nil, err
	}
	return Derive(seed, p)
}
