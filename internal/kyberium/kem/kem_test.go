package kem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaydenbeard/kyberium/internal/kyberium"
)

func TestKyber1024RoundTrip(t *testing.T) {
	p := New()

	pub, priv, err := p.GenerateKeypair()
	require.NoError(t, err)
	assert.Len(t, pub, p.PublicKeySize())
	assert.Len(t, priv, p.PrivateKeySize())

	ct, ss, err := p.Encapsulate(pub)
	require.NoError(t, err)
	assert.Len(t, ct, p.CiphertextSize())
	assert.Len(t, ss, p.SharedSecretSize())

	recovered, err := p.Decapsulate(ct, priv)
	require.NoError(t, err)
	assert.Equal(t, ss, recovered)
}

func TestKyber1024FailClosed(t *testing.T) {
	p := New()

	_, priv1, err := p.GenerateKeypair()
	require.NoError(t, err)
	pub2, _, err := p.GenerateKeypair()
	require.NoError(t, err)

	ct, ss, err := p.Encapsulate(pub2)
	require.NoError(t, err)

	// Decapsulating under the wrong private key must not error (implicit
	// rejection); it must simply not reproduce the original secret.
	wrongSS, err := p.Decapsulate(ct, priv1)
	require.NoError(t, err)
	assert.NotEqual(t, ss, wrongSS)
}

func TestKyber1024RejectsMalformedInput(t *testing.T) {
	p := New()

	_, _, err := p.Encapsulate([]byte("too short"))
	require.Error(t, err)
	var kerr *kyberium.Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, kyberium.KindInvalidArgument, kerr.Kind())

	_, err = p.Decapsulate([]byte("too short"), make([]byte, p.PrivateKeySize()))
	require.Error(t, err)
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, kyberium.KindInvalidArgument, kerr.Kind())
}

func TestKyber1024Independence(t *testing.T) {
	p := New()

	pubA, _, err := p.GenerateKeypair()
	require.NoError(t, err)
	pubB, _, err := p.GenerateKeypair()
	require.NoError(t, err)
	assert.NotEqual(t, pubA, pubB)

	_, ssA, err := p.Encapsulate(pubA)
	require.NoError(t, err)
	_, ssB, err := p.Encapsulate(pubB)
	require.NoError(t, err)
	assert.NotEqual(t, ssA, ssB)
}
