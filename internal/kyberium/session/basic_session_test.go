package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaydenbeard/kyberium/internal/kyberium/aead"
	"github.com/jaydenbeard/kyberium/internal/kyberium/kdf"
	"github.com/jaydenbeard/kyberium/internal/kyberium/kem"
)

func newTestProviders() (kem.Provider, kdf.Provider, aead.Provider) {
	a, _ := aead.NewAESGCM(32)
	return kem.New(), kdf.NewSHA3(), a
}

func TestBasicSessionHandshakeSymmetry(t *testing.T) {
	kemP, kdfP, aeadP := newTestProviders()

	alice, err := NewBasicSession(kemP, kdfP, aeadP)
	require.NoError(t, err)
	bob, err := NewBasicSession(kemP, kdfP, aeadP)
	require.NoError(t, err)

	bobPub, bobPriv, err := kemP.GenerateKeypair()
	require.NoError(t, err)

	ct, err := alice.InitAsInitiator(bobPub)
	require.NoError(t, err)
	require.NoError(t, bob.CompleteAsResponder(ct, bobPriv))

	assert.Equal(t, alice.encryptionKey.Bytes(), bob.encryptionKey.Bytes())
}

func TestBasicSessionRoundTrip(t *testing.T) {
	kemP, kdfP, aeadP := newTestProviders()
	alice, err := NewBasicSession(kemP, kdfP, aeadP)
	require.NoError(t, err)
	bob, err := NewBasicSession(kemP, kdfP, aeadP)
	require.NoError(t, err)

	bobPub, bobPriv, err := kemP.GenerateKeypair()
	require.NoError(t, err)
	ct, err := alice.InitAsInitiator(bobPub)
	require.NoError(t, err)
	require.NoError(t, bob.CompleteAsResponder(ct, bobPriv))

	plaintext := []byte("hello")
	c, n, err := alice.Encrypt(plaintext, nil)
	require.NoError(t, err)
	pt, err := bob.Decrypt(c, n, nil)
	require.NoError(t, err)
	assert.Equal(t, plaintext, pt)
}

func TestBasicSessionRejectsBeforeHandshake(t *testing.T) {
	kemP, kdfP, aeadP := newTestProviders()
	s, err := NewBasicSession(kemP, kdfP, aeadP)
	require.NoError(t, err)

	_, _, err = s.Encrypt([]byte("x"), nil)
	assert.Error(t, err)
}

func TestBasicSessionAADMismatch(t *testing.T) {
	kemP, kdfP, aeadP := newTestProviders()
	alice, err := NewBasicSession(kemP, kdfP, aeadP)
	require.NoError(t, err)
	bob, err := NewBasicSession(kemP, kdfP, aeadP)
	require.NoError(t, err)

	bobPub, bobPriv, err := kemP.GenerateKeypair()
	require.NoError(t, err)
	ct, err := alice.InitAsInitiator(bobPub)
	require.NoError(t, err)
	require.NoError(t, bob.CompleteAsResponder(ct, bobPriv))

	c, n, err := alice.Encrypt([]byte("hello"), []byte("ctx1"))
	require.NoError(t, err)
	_, err = bob.Decrypt(c, n, []byte("ctx2"))
	assert.Error(t, err)
}
