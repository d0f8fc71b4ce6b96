package secret

import "crypto/subtle"

// Secret is a byte buffer holding private key material.
// The owner must call Destroy once the bytes are no longer needed.
type Secret struct {
	b []byte
}

// New allocates an empty secret of n bytes
func New(n int) *Secret {
	return &Secret{b: make([]byte, n)}
}

// From copies b into a new secret. The caller keeps ownership of b.
func From(b []byte) *Secret {
	s := New(len(b))
	copy(s.b, b)
	return s
}

// Bytes returns the underlying buffer. It is only valid until Destroy.
func (s *Secret) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

// Len returns the buffer length, zero after Destroy
func (s *Secret) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// Equal compares two secrets in constant time
func (s *Secret) Equal(other *Secret) bool {
	return subtle.ConstantTimeCompare(s.Bytes(), other.Bytes()) == 1
}

// Destroy zeroes the buffer and releases it. Safe to call more than once.
func (s *Secret) Destroy() {
	if s == nil {
		return
	}
	Wipe(s.b)
	s.b = nil
}

// Wipe zeroes b in place
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
