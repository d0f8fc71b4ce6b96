package hdkey

import (
	"fmt"
	"strconv"
	"strings"
)

// HardenedOffset is added to every path index; ed25519 has no public derivation
const HardenedOffset uint32 = 0x80000000

const (
	// SuiPurpose and SuiCoinType are the BIP-44 purpose and coin type for Sui ed25519 keys
	SuiPurpose  uint32 = 44
	SuiCoinType uint32 = 784
	suiDepth           = 5
)

// DefaultPath is the first Sui ed25519 account
const DefaultPath = "m/44'/784'/0'/0'/0'"

// Path is a parsed derivation path. Indices are stored without the hardened bit.
type Path []uint32

// ParsePath parses "m/a'/b'/..." and rejects any segment that is not hardened
func ParsePath(path string) (Path, error) {
	segments := strings.Split(strings.TrimSpace(path), "/")
	if len(segments) == 0 || segments[0] != "m" {
		return nil, fmt.Errorf("%w: path %q must start with m", ErrDerivation, path)
	}

	out := make(Path, 0, len(segments)-1)
	for i, seg := range segments[1:] {
		if !strings.HasSuffix(seg, "'") {
			return nil, fmt.Errorf("%w: segment %d (%q) is not hardened", ErrDerivation, i+1, seg)
		}
		idx, err := strconv.ParseUint(strings.TrimSuffix(seg, "'"), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %d (%q) is not a number", ErrDerivation, i+1, seg)
		}
		if uint32(idx) >= HardenedOffset {
			return nil, fmt.Errorf("%w: segment %d index %d out of range", ErrDerivation, i+1, idx)
		}
		out = append(out, uint32(idx))
	}
	return out, nil
}

// String renders the path back to its m/.../ form
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, idx := range p {
		b.WriteString("/")
		b.WriteString(strconv.FormatUint(uint64(idx), 10))
		b.WriteString("'")
	}
	return b.String()
}

// ValidateSui checks the path has the m/44'/784'/account'/change'/index' shape
func (p Path) ValidateSui() error {
	if len(p) != suiDepth {
		return fmt.Errorf("%w: sui path needs depth %d, got %d", ErrDerivation, suiDepth, len(p))
	}
	if p[0] != SuiPurpose {
		return fmt.Errorf("%w: purpose must be %d', got %d'", ErrDerivation, SuiPurpose, p[0])
	}
	if p[1] != SuiCoinType {
		return fmt.Errorf("%w: coin type must be %d', got %d'", ErrDerivation, SuiCoinType, p[1])
	}
	return nil
}

// AccountPath returns m/44'/784'/account'/0'/0'
func AccountPath(account uint32) string {
	return fmt.Sprintf("m/%d'/%d'/%d'/0'/0'", SuiPurpose, SuiCoinType, account)
}
