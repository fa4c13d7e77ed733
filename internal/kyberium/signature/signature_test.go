package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDilithium65SignVerifySoundness(t *testing.T) {
	p := New()

	pub, priv, err := p.GenerateKeypair()
	require.NoError(t, err)
	assert.Len(t, pub, p.PublicKeySize())
	assert.Len(t, priv, p.PrivateKeySize())

	msg := []byte("ratchet handshake ciphertext")
	sig, err := p.Sign(msg, priv)
	require.NoError(t, err)
	assert.Len(t, sig, p.SignatureSize())

	valid, err := p.Verify(msg, sig, pub)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestDilithium65VerifyRejectsBitFlips(t *testing.T) {
	p := New()
	pub, priv, err := p.GenerateKeypair()
	require.NoError(t, err)

	msg := []byte("original message")
	sig, err := p.Sign(msg, priv)
	require.NoError(t, err)

	t.Run("flipped message", func(t *testing.T) {
		flipped := append([]byte(nil), msg...)
		flipped[0] ^= 0xFF
		valid, err := p.Verify(flipped, sig, pub)
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("flipped signature", func(t *testing.T) {
		flipped := append([]byte(nil), sig...)
		flipped[0] ^= 0xFF
		valid, err := p.Verify(msg, flipped, pub)
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("flipped public key", func(t *testing.T) {
		flipped := append([]byte(nil), pub...)
		flipped[0] ^= 0xFF
		valid, err := p.Verify(msg, sig, flipped)
		require.NoError(t, err)
		assert.False(t, valid)
	})
}

func TestDilithium65RejectsMalformedLengths(t *testing.T) {
	p := New()
	pub, priv, err := p.GenerateKeypair()
	require.NoError(t, err)
	sig, err := p.Sign([]byte("msg"), priv)
	require.NoError(t, err)

	_, err = p.Verify([]byte("msg"), sig[:len(sig)-1], pub)
	assert.Error(t, err)

	_, err = p.Verify([]byte("msg"), sig, pub[:len(pub)-1])
	assert.Error(t, err)

	_, err = p.Sign([]byte("msg"), priv[:len(priv)-1])
	assert.Error(t, err)
}
