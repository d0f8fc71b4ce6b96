package signature

import "fmt"

// Scheme is the one-byte flag that tags a signature and prefixes an address hash
type Scheme byte

const (
	Ed25519   Scheme = 0x00
	Secp256k1 Scheme = 0x01
)

// SignatureSize is the raw signature length for every supported scheme
const SignatureSize = 64

// schemeInfo describes one variant of the closed scheme set
type schemeInfo struct {
	name          string
	publicKeySize int
}

// schemes is the tag -> variant table used for every decode
var schemes = map[Scheme]schemeInfo{
	Ed25519:   {name: "ED25519", publicKeySize: 32},
	Secp256k1: {name: "Secp256k1", publicKeySize: 33},
}

// ParseScheme maps a wire tag to a known scheme
func ParseScheme(tag byte) (Scheme, error) {
	s := Scheme(tag)
	if _, ok := schemes[s]; !ok {
		return 0, fmt.Errorf("%w: 0x%02x", ErrUnknownScheme, tag)
	}
	return s, nil
}

// String returns the scheme name
func (s Scheme) String() string {
	if info, ok := schemes[s]; ok {
		return info.name
	}
	return fmt.Sprintf("Unknown(0x%02x)", byte(s))
}

// Known reports whether s is in the scheme table
func (s Scheme) Known() bool {
	_, ok := schemes[s]
	return ok
}

// PublicKeySize returns the encoded public key length for s, zero when unknown
func (s Scheme) PublicKeySize() int {
	return schemes[s].publicKeySize
}

// SerializedSize returns flag + signature + public key length for s
func (s Scheme) SerializedSize() int {
	return 1 + SignatureSize + s.PublicKeySize()
}
