package aead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoundTrip(t *testing.T, p Provider) {
	key := make([]byte, p.KeySize())
	for i := range key {
		key[i] = byte(i)
	}
	plaintext := []byte("forward-secret payload")
	aad := []byte("session-id-123")

	ct, nonce, err := p.Encrypt(plaintext, key, nil, aad)
	require.NoError(t, err)
	assert.Len(t, nonce, p.NonceSize())

	pt, err := p.Decrypt(ct, key, nonce, aad)
	require.NoError(t, err)
	assert.Equal(t, plaintext, pt)
}

func testAuthentication(t *testing.T, p Provider) {
	key := make([]byte, p.KeySize())
	plaintext := []byte("forward-secret payload")
	aad := []byte("aad")

	ct, nonce, err := p.Encrypt(plaintext, key, nil, aad)
	require.NoError(t, err)

	t.Run("tampered ciphertext", func(t *testing.T) {
		tampered := append([]byte(nil), ct...)
		tampered[0] ^= 0xFF
		_, err := p.Decrypt(tampered, key, nonce, aad)
		assert.Error(t, err)
	})

	t.Run("tampered nonce", func(t *testing.T) {
		tampered := append([]byte(nil), nonce...)
		tampered[0] ^= 0xFF
		_, err := p.Decrypt(ct, key, tampered, aad)
		assert.Error(t, err)
	})

	t.Run("tampered aad", func(t *testing.T) {
		_, err := p.Decrypt(ct, key, nonce, []byte("different aad"))
		assert.Error(t, err)
	})
}

func TestAESGCMRoundTrip(t *testing.T) {
	p, err := NewAESGCM(32)
	require.NoError(t, err)
	testRoundTrip(t, p)
}

func TestAESGCMAuthentication(t *testing.T) {
	p, err := NewAESGCM(32)
	require.NoError(t, err)
	testAuthentication(t, p)
}

func TestAESGCMSupportsAllKeySizes(t *testing.T) {
	for _, size := range []int{16, 24, 32} {
		p, err := NewAESGCM(size)
		require.NoError(t, err)
		testRoundTrip(t, p)
	}
}

func TestAESGCMRejectsUnsupportedKeySize(t *testing.T) {
	_, err := NewAESGCM(20)
	assert.Error(t, err)
}

func TestAESGCMGeneratesFreshNonces(t *testing.T) {
	p, err := NewAESGCM(32)
	require.NoError(t, err)
	key := make([]byte, 32)

	_, n1, err := p.Encrypt([]byte("a"), key, nil, nil)
	require.NoError(t, err)
	_, n2, err := p.Encrypt([]byte("a"), key, nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, n1, n2)
}

func TestChaCha20RoundTrip(t *testing.T) {
	p := NewChaCha20()
	testRoundTrip(t, p)
}

func TestChaCha20Authentication(t *testing.T) {
	p := NewChaCha20()
	testAuthentication(t, p)
}
