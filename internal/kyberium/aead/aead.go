// Package aead provides the authenticated-encryption provider
// abstraction used for payload confidentiality and integrity (spec
// §4.1). Two backends are supported: AES-256-GCM (stdlib) and
// ChaCha20-Poly1305 (golang.org/x/crypto).
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/jaydenbeard/kyberium/internal/kyberium"
)

// NonceSize is fixed at 96 bits for both backends (spec §6).
const NonceSize = 12

// Provider is the AEAD contract. Encrypt generates a random nonce
// when none is supplied; Decrypt always requires one.
type Provider interface {
	Encrypt(plaintext, key, nonce, aad []byte) (ciphertext, usedNonce []byte, err error)
	Decrypt(ciphertext, key, nonce, aad []byte) (plaintext []byte, err error)
	KeySize() int
	NonceSize() int
}

// AESGCMCipher is the AES-256-GCM backend. KeySize is configurable to
// 16/24/32 bytes (AES-128/192/256) per spec §6, default 32.
type AESGCMCipher struct {
	keySize int
	logger  *log.Logger
}

// NewAESGCM returns an AES-GCM provider for the given key size in
// bytes (16, 24, or 32).
func NewAESGCM(keySize int) (*AESGCMCipher, error) {
	if keySize != 16 && keySize != 24 && keySize != 32 {
		return nil, kyberium.ConfigurationError(fmt.Sprintf("unsupported AES-GCM key size: %d", keySize))
	}
	return &AESGCMCipher{
		keySize: keySize,
		logger:  log.New(os.Stdout, "[AEAD-AESGCM] ", log.Ldate|log.Ltime|log.LUTC),
	}, nil
}

func (c *AESGCMCipher) KeySize() int   { return c.keySize }
func (c *AESGCMCipher) NonceSize() int { return NonceSize }

// Encrypt seals plaintext under key with aad as associated data. If
// nonce is nil, a fresh random 96-bit nonce is generated; reusing
// (key, nonce) is the caller's responsibility to avoid (spec §4.3).
func (c *AESGCMCipher) Encrypt(plaintext, key, nonce, aad []byte) (ciphertext, usedNonce []byte, err error) {
	if len(key) != c.keySize {
		return nil, nil, kyberium.InvalidArgument(fmt.Sprintf("key must be %d bytes, got %d", c.keySize, len(key)), nil)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, kyberium.Corruption(fmt.Sprintf("aes cipher init failed: %v", err))
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, nil, kyberium.Corruption(fmt.Sprintf("gcm init failed: %v", err))
	}
	if nonce == nil {
		nonce = make([]byte, NonceSize)
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return nil, nil, kyberium.Corruption("nonce generation failed")
		}
	} else if len(nonce) != NonceSize {
		return nil, nil, kyberium.InvalidArgument(fmt.Sprintf("nonce must be %d bytes, got %d", NonceSize, len(nonce)), nil)
	}
	ct := gcm.Seal(nil, nonce, plaintext, aad)
	return ct, nonce, nil
}

// Decrypt authenticates and opens ciphertext under key, nonce, aad.
func (c *AESGCMCipher) Decrypt(ciphertext, key, nonce, aad []byte) ([]byte, error) {
	if len(key) != c.keySize {
		return nil, kyberium.InvalidArgument(fmt.Sprintf("key must be %d bytes, got %d", c.keySize, len(key)), nil)
	}
	if len(nonce) != NonceSize {
		return nil, kyberium.InvalidArgument(fmt.Sprintf("nonce must be %d bytes, got %d", NonceSize, len(nonce)), nil)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, kyberium.Corruption(fmt.Sprintf("aes cipher init failed: %v", err))
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, kyberium.Corruption(fmt.Sprintf("gcm init failed: %v", err))
	}
	pt, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, kyberium.AuthenticationFailure("aead authentication failed", err)
	}
	return pt, nil
}

// ChaCha20Cipher is the ChaCha20-Poly1305 backend, always a 256-bit
// key per spec §6.
type ChaCha20Cipher struct {
	logger *log.Logger
}

// NewChaCha20 returns the ChaCha20-Poly1305 provider.
func NewChaCha20() *ChaCha20Cipher {
	return &ChaCha20Cipher{logger: log.New(os.Stdout, "[AEAD-CHACHA20] ", log.Ldate|log.Ltime|log.LUTC)}
}

func (c *ChaCha20Cipher) KeySize() int   { return chacha20poly1305.KeySize }
func (c *ChaCha20Cipher) NonceSize() int { return chacha20poly1305.NonceSize }

// Encrypt seals plaintext under key with aad as associated data.
func (c *ChaCha20Cipher) Encrypt(plaintext, key, nonce, aad []byte) (ciphertext, usedNonce []byte, err error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, nil, kyberium.InvalidArgument(
			fmt.Sprintf("key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key)), nil)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, nil, kyberium.Corruption(fmt.Sprintf("chacha20poly1305 init failed: %v", err))
	}
	if nonce == nil {
		nonce = make([]byte, chacha20poly1305.NonceSize)
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return nil, nil, kyberium.Corruption("nonce generation failed")
		}
	} else if len(nonce) != chacha20poly1305.NonceSize {
		return nil, nil, kyberium.InvalidArgument(
			fmt.Sprintf("nonce must be %d bytes, got %d", chacha20poly1305.NonceSize, len(nonce)), nil)
	}
	ct := aead.Seal(nil, nonce, plaintext, aad)
	return ct, nonce, nil
}

// Decrypt authenticates and opens ciphertext under key, nonce, aad.
func (c *ChaCha20Cipher) Decrypt(ciphertext, key, nonce, aad []byte) ([]byte, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, kyberium.InvalidArgument(
			fmt.Sprintf("key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key)), nil)
	}
	if len(nonce) != chacha20poly1305.NonceSize {
		return nil, kyberium.InvalidArgument(
			fmt.Sprintf("nonce must be %d bytes, got %d", chacha20poly1305.NonceSize, len(nonce)), nil)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, kyberium.Corruption(fmt.Sprintf("chacha20poly1305 init failed: %v", err))
	}
	pt, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, kyberium.AuthenticationFailure("aead authentication failed", err)
	}
	return pt, nil
}
