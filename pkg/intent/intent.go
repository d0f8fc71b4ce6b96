// Package intent prepends the domain-separation header that every signed
// Sui message carries and hashes the result.
package intent

import (
	"fmt"

	"golang.org/x/crypto/blake2b"

	"sui-wallet-go/pkg/utils"
)

// HeaderSize is the length of the intent prefix
const HeaderSize = 3

// DigestSize is the BLAKE2b-256 output length
const DigestSize = blake2b.Size256

// Scope says what kind of message is being signed
type Scope byte

const (
	ScopeTransactionData    Scope = 0
	ScopeTransactionEffects Scope = 1
	ScopeCheckpointSummary  Scope = 2
	ScopePersonalMessage    Scope = 3
)

// String returns the scope name
func (s Scope) String() string {
	switch s {
	case ScopeTransactionData:
		return "TransactionData"
	case ScopeTransactionEffects:
		return "TransactionEffects"
	case ScopeCheckpointSummary:
		return "CheckpointSummary"
	case ScopePersonalMessage:
		return "PersonalMessage"
	default:
		return fmt.Sprintf("Scope(%d)", byte(s))
	}
}

// Intent is the [scope, version, appId] header
type Intent struct {
	Scope   Scope
	Version byte
	AppID   byte
}

var (
	// TransactionData is the header used for every submitted transaction
	TransactionData = Intent{Scope: ScopeTransactionData}

	// PersonalMessage is the header for off-chain message signing
	PersonalMessage = Intent{Scope: ScopePersonalMessage}
)

// Bytes returns the 3-byte header
func (i Intent) Bytes() [HeaderSize]byte {
	return [HeaderSize]byte{byte(i.Scope), i.Version, i.AppID}
}

// Frame returns header || msg in a new slice
func (i Intent) Frame(msg []byte) []byte {
	h := i.Bytes()
	return utils.ConcatBytes(h[:], msg)
}

// Hash frames msg and returns its BLAKE2b-256 digest
func (i Intent) Hash(msg []byte) [DigestSize]byte {
	return Digest(i.Frame(msg))
}

// Frame prepends the transaction-data header
func Frame(msg []byte) []byte {
	return TransactionData.Frame(msg)
}

// Digest is BLAKE2b-256 over already framed bytes
func Digest(framed []byte) [DigestSize]byte {
	return blake2b.Sum256(framed)
}

// HashTransaction returns the digest a node verifies the signature against
func HashTransaction(txBytes []byte) [DigestSize]byte {
	return TransactionData.Hash(txBytes)
}

// Parse splits framed bytes into their header and payload
func Parse(framed []byte) (Intent, []byte, error) {
	if len(framed) < HeaderSize {
		return Intent{}, nil, fmt.Errorf("framed message is %d bytes, shorter than the %d-byte header", len(framed), HeaderSize)
	}
	i := Intent{Scope: Scope(framed[0]), Version: framed[1], AppID: framed[2]}
	return i, framed[HeaderSize:], nil
}

const transactionDigestTag = "TransactionData::"

// TransactionDigest returns the base58 transaction identifier a node reports for txBytes
func TransactionDigest(txBytes []byte) string {
	sum := blake2b.Sum256(utils.ConcatBytes([]byte(transactionDigestTag), txBytes))
	return utils.EncodeBase58(sum[:])
}
