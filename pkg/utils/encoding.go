package utils

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// Base58 encoding/decoding utilities

// EncodeBase58 encodes bytes to base58 string
func EncodeBase58(data []byte) string {
	return base58.Encode(data)
}

// Hex encoding/decoding utilities

// EncodeHex encodes bytes to hex string (with 0x prefix)
func EncodeHex(data []byte) string {
	return "0x" + hex.EncodeToString(data)
}

// DecodeHex decodes hex string to bytes (handles 0x prefix)
func DecodeHex(encoded string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(encoded, "0x"))
}

// Validation utilities

// IsValidTransactionDigest checks for a base58 string carrying 32 bytes
func IsValidTransactionDigest(digest string) bool {
	decoded, err := base58.Decode(digest)
	return err == nil && len(decoded) == 32
}

// ConcatBytes concatenates multiple byte slices
func ConcatBytes(slices ...[]byte) []byte {
	totalLen := 0
	for _, slice := range slices {
		totalLen += len(slice)
	}

	result := make([]byte, 0, totalLen)
	for _, slice := range slices {
		result = append(result, slice...)
	}
	return result
}

// DecodeDataString reads base64, or hex when the input carries a 0x prefix.
// Bare hex is rejected: many hex strings are also valid base64.
func DecodeDataString(dataStr string) ([]byte, error) {
	dataStr = strings.TrimSpace(dataStr)

	if strings.HasPrefix(dataStr, "0x") || strings.HasPrefix(dataStr, "0X") {
		data, err := hex.DecodeString(dataStr[2:])
		if err != nil {
			return nil, fmt.Errorf("invalid hex data: %w", err)
		}
		return data, nil
	}

	data, err := base64.StdEncoding.DecodeString(dataStr)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 data (prefix hex with 0x): %w", err)
	}
	return data, nil
}
