package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaydenbeard/kyberium/internal/kyberium"
)

func TestManagerBasicRoundTrip(t *testing.T) {
	cfg := kyberium.DefaultConfig()
	cfg.UseTripleRatchet = false

	alice, err := New(cfg)
	require.NoError(t, err)
	defer alice.Close()
	bob, err := New(cfg)
	require.NoError(t, err)
	defer bob.Close()

	bobPublic, isInitiator, err := bob.InitSession(nil)
	require.NoError(t, err)
	assert.False(t, isInitiator)

	ciphertext, isInitiator, err := alice.InitSession(bobPublic)
	require.NoError(t, err)
	assert.True(t, isInitiator)

	require.NoError(t, bob.CompleteHandshake(ciphertext))

	plaintext := []byte("hello")
	ct, nonce, err := alice.Encrypt(plaintext, nil)
	require.NoError(t, err)
	pt, err := bob.Decrypt(ct, nonce, nil)
	require.NoError(t, err)
	assert.Equal(t, plaintext, pt)
}

func TestManagerSignAndVerify(t *testing.T) {
	cfg := kyberium.DefaultConfig()
	alice, err := New(cfg)
	require.NoError(t, err)
	defer alice.Close()
	bob, err := New(cfg)
	require.NoError(t, err)
	defer bob.Close()

	bob.SetPeerSignPublic(alice.SignPublicKey())

	msg := []byte("msg")
	sig, err := alice.Sign(msg)
	require.NoError(t, err)

	valid, err := bob.Verify(msg, sig, nil)
	require.NoError(t, err)
	assert.True(t, valid)

	tampered := append([]byte(nil), sig...)
	tampered[len(tampered)-1] ^= 0xFF
	valid, err = bob.Verify(msg, tampered, nil)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestManagerRotateSessionKey(t *testing.T) {
	cfg := kyberium.DefaultConfig()
	cfg.UseTripleRatchet = false
	alice, err := New(cfg)
	require.NoError(t, err)
	defer alice.Close()
	bob, err := New(cfg)
	require.NoError(t, err)
	defer bob.Close()

	bobPublic, _, err := bob.InitSession(nil)
	require.NoError(t, err)
	ciphertext, _, err := alice.InitSession(bobPublic)
	require.NoError(t, err)
	require.NoError(t, bob.CompleteHandshake(ciphertext))

	before := append([]byte(nil), alice.basic.encryptionKey.Bytes()...)
	require.NoError(t, alice.RotateSessionKey())
	after := alice.basic.encryptionKey.Bytes()
	assert.NotEqual(t, before, after)
}

func TestManagerTripleRatchetEndToEnd(t *testing.T) {
	cfg := kyberium.DefaultConfig()
	alice, err := New(cfg)
	require.NoError(t, err)
	defer alice.Close()
	bob, err := New(cfg)
	require.NoError(t, err)
	defer bob.Close()

	init, err := alice.TripleRatchetInit(bob.KEMPublicKey(), bob.SignPublicKey())
	require.NoError(t, err)
	require.NoError(t, bob.TripleRatchetCompleteHandshake(init.KEMCiphertext, init.KEMSignature, init.SignPublicKey))

	for i := 0; i < 5; i++ {
		plaintext := []byte("message")
		envelope, err := alice.TripleRatchetEncrypt(plaintext, nil)
		require.NoError(t, err)
		assert.Equal(t, uint64(i), envelope.MsgNum)

		pt, err := bob.TripleRatchetDecrypt(envelope.SignPublicKey, envelope.Ciphertext, envelope.Nonce, envelope.Signature, envelope.MsgNum, nil)
		require.NoError(t, err)
		assert.Equal(t, plaintext, pt)
	}
}

func TestManagerEncryptBeforeHandshakeFails(t *testing.T) {
	cfg := kyberium.DefaultConfig()
	m, err := New(cfg)
	require.NoError(t, err)
	defer m.Close()

	_, _, err = m.Encrypt([]byte("x"), nil)
	assert.Error(t, err)
}

func TestManagerRejectsInvalidConfig(t *testing.T) {
	cfg := kyberium.Config{KDFType: "bogus", SymmetricType: kyberium.SymmetricAESGCM, SymmetricKeySize: 32}
	_, err := New(cfg)
	assert.Error(t, err)
}
