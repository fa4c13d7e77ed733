package kyberium

// SecretBytes wraps key material that must be wiped once the owning
// component is done with it: identity private keys, shared secrets,
// root keys, and chain keys (spec §5, §9). The source this engine was
// distilled from does not zeroize; this type closes that gap.
type SecretBytes struct {
	b []byte
}

// NewSecret takes ownership of b and returns it wrapped.
func NewSecret(b []byte) SecretBytes {
	return SecretBytes{b: b}
}

// Bytes returns the underlying slice. The caller must not retain it
// past the next call to Zero.
func (s SecretBytes) Bytes() []byte { return s.b }

// Len reports the length of the wrapped secret.
func (s SecretBytes) Len() int { return len(s.b) }

// Zero overwrites the backing array with zeroes. Safe to call on an
// already-zeroed or empty secret.
func (s SecretBytes) Zero() {
	for i := range s.b {
		s.b[i] = 0
	}
}

// Clone returns a SecretBytes holding an independent copy of the data.
func (s SecretBytes) Clone() SecretBytes {
	cp := make([]byte, len(s.b))
	copy(cp, s.b)
	return SecretBytes{b: cp}
}
