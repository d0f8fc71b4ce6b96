package utils

import (
	"fmt"
	"math"
	"math/big"
)

// MistPerSUI is the number of MIST in one SUI
const MistPerSUI = 1_000_000_000

// ConvertSUIToMist converts SUI to MIST, rounding to the nearest MIST
func ConvertSUIToMist(sui float64) uint64 {
	return uint64(math.Round(sui * MistPerSUI))
}

// ParseMist parses a decimal MIST amount as returned by the node (balances are strings)
func ParseMist(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid MIST amount %q", s)
	}
	return v, nil
}

// FormatMist renders a MIST amount as SUI with 9 decimals
func FormatMist(mist *big.Int) string {
	whole, frac := new(big.Int).QuoRem(mist, big.NewInt(MistPerSUI), new(big.Int))
	return fmt.Sprintf("%s.%09d", whole.String(), frac.Int64())
}
