// Package kdf provides the key-derivation provider abstraction used to
// turn KEM shared secrets and chain keys into fixed-length session
// key material (spec §4.1).
package kdf

import (
	"io"
	"log"
	"os"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/jaydenbeard/kyberium/internal/kyberium"
)

const (
	defaultSalt = "kyberium_default_salt"
	defaultInfo = "kyberium_default_info"
)

// Provider derives length bytes of key material from ikm, optionally
// salted and info-bound (RFC 5869 terms). salt and info may be nil, in
// which case the provider's documented defaults apply.
type Provider interface {
	Derive(ikm []byte, length int, salt, info []byte) (key []byte, err error)
}

// SHA3KDF implements HKDF using SHA3-256 as the underlying hash
// (RFC 5869 extract-then-expand).
type SHA3KDF struct {
	logger *log.Logger
}

// NewSHA3 returns the HKDF-SHA3-256 provider.
func NewSHA3() *SHA3KDF {
	return &SHA3KDF{logger: log.New(os.Stdout, "[KDF-SHA3] ", log.Ldate|log.Ltime|log.LUTC)}
}

// Derive runs HKDF-SHA3-256(ikm, salt, info, length).
func (k *SHA3KDF) Derive(ikm []byte, length int, salt, info []byte) ([]byte, error) {
	if len(ikm) == 0 {
		return nil, kyberium.InvalidArgument("ikm must not be empty", nil)
	}
	if length <= 0 {
		return nil, kyberium.InvalidArgument("length must be positive", nil)
	}
	if salt == nil {
		salt = []byte(defaultSalt)
	}
	if info == nil {
		info = []byte(defaultInfo)
	}
	r := hkdf.New(sha3.New256, ikm, salt, info)
	key := make([]byte, length)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, kyberium.Corruption("hkdf-sha3 expansion failed")
	}
	return key, nil
}

// Shake256KDF implements the SHAKE-256 variant: a single extendable
// hash of salt||ikm||info truncated to length, with no HMAC
// expansion step (spec §4.1 — not RFC-5869 HKDF, a direct XOF read).
type Shake256KDF struct {
	logger *log.Logger
}

// NewShake256 returns the SHAKE-256 provider.
func NewShake256() *Shake256KDF {
	return &Shake256KDF{logger: log.New(os.Stdout, "[KDF-SHAKE256] ", log.Ldate|log.Ltime|log.LUTC)}
}

// Derive runs SHAKE256(salt||ikm||info, length).
func (k *Shake256KDF) Derive(ikm []byte, length int, salt, info []byte) ([]byte, error) {
	if len(ikm) == 0 {
		return nil, kyberium.InvalidArgument("ikm must not be empty", nil)
	}
	if length <= 0 {
		return nil, kyberium.InvalidArgument("length must be positive", nil)
	}
	if salt == nil {
		salt = []byte(defaultSalt)
	}
	if info == nil {
		info = []byte(defaultInfo)
	}
	h := sha3.NewShake256()
	h.Write(salt)
	h.Write(ikm)
	h.Write(info)
	key := make([]byte, length)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, kyberium.Corruption("shake256 expansion failed")
	}
	return key, nil
}
