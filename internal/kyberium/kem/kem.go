// Package kem provides the key-encapsulation provider abstraction used
// by the session manager and the triple ratchet. The default backend
// is ML-KEM-1024 (CRYSTALS-Kyber-1024), via cloudflare/circl.
package kem

import (
	"fmt"
	"log"
	"os"

	"github.com/cloudflare/circl/kem/kyber/kyber1024"
	"github.com/jaydenbeard/kyberium/internal/kyberium"
)

// Provider is the KEM contract: generate a keypair, encapsulate
// against a peer public key, decapsulate a ciphertext under the local
// private key. Implementations own their own length validation so
// upper layers may assume well-formed bytes (spec §4.1).
type Provider interface {
	GenerateKeypair() (public, private []byte, err error)
	Encapsulate(peerPublic []byte) (ciphertext, sharedSecret []byte, err error)
	Decapsulate(ciphertext, private []byte) (sharedSecret []byte, err error)
	PublicKeySize() int
	PrivateKeySize() int
	CiphertextSize() int
	SharedSecretSize() int
}

// Kyber1024Provider is the ML-KEM-1024 backend.
type Kyber1024Provider struct {
	logger *log.Logger
}

// New returns the default ML-KEM-1024 provider.
func New() *Kyber1024Provider {
	return &Kyber1024Provider{
		logger: log.New(os.Stdout, "[KEM] ", log.Ldate|log.Ltime|log.LUTC),
	}
}

var scheme = kyber1024.Scheme()

// GenerateKeypair produces a fresh ML-KEM-1024 keypair.
func (p *Kyber1024Provider) GenerateKeypair() (public, private []byte, err error) {
	pk, sk, err := scheme.GenerateKeyPair()
	if err != nil {
		return nil, nil, kyberium.Corruption(fmt.Sprintf("kem keypair generation failed: %v", err))
	}
	pubBytes, err := pk.MarshalBinary()
	if err != nil {
		return nil, nil, kyberium.Corruption("kem public key marshal failed")
	}
	privBytes, err := sk.MarshalBinary()
	if err != nil {
		return nil, nil, kyberium.Corruption("kem private key marshal failed")
	}
	if len(pubBytes) != p.PublicKeySize() || len(privBytes) != p.PrivateKeySize() {
		return nil, nil, kyberium.Corruption("kem keypair has unexpected length")
	}
	return pubBytes, privBytes, nil
}

// Encapsulate generates a shared secret for peerPublic and returns the
// ciphertext that the peer must decapsulate to recover it. Per spec
// §4.1 the KEM is fail-closed: a malformed peerPublic is rejected
// up-front with InvalidArgument, but a structurally valid yet wrong
// key still produces a (different) shared secret rather than an
// error — AEAD authentication downstream is what actually detects the
// mismatch.
func (p *Kyber1024Provider) Encapsulate(peerPublic []byte) (ciphertext, sharedSecret []byte, err error) {
	if len(peerPublic) != p.PublicKeySize() {
		return nil, nil, kyberium.InvalidArgument(
			fmt.Sprintf("peer public key must be %d bytes, got %d", p.PublicKeySize(), len(peerPublic)), nil)
	}
	pk, err := scheme.UnmarshalBinaryPublicKey(peerPublic)
	if err != nil {
		return nil, nil, kyberium.InvalidArgument("malformed kem public key", err)
	}
	ct, ss, err := scheme.Encapsulate(pk)
	if err != nil {
		return nil, nil, kyberium.Corruption(fmt.Sprintf("kem encapsulation failed: %v", err))
	}
	if len(ct) != p.CiphertextSize() || len(ss) != p.SharedSecretSize() {
		return nil, nil, kyberium.Corruption("kem encapsulate produced unexpected lengths")
	}
	return ct, ss, nil
}

// Decapsulate recovers the shared secret encapsulated in ciphertext
// using the local private key.
func (p *Kyber1024Provider) Decapsulate(ciphertext, private []byte) (sharedSecret []byte, err error) {
	if len(private) != p.PrivateKeySize() {
		return nil, kyberium.InvalidArgument(
			fmt.Sprintf("private key must be %d bytes, got %d", p.PrivateKeySize(), len(private)), nil)
	}
	if len(ciphertext) != p.CiphertextSize() {
		return nil, kyberium.InvalidArgument(
			fmt.Sprintf("ciphertext must be %d bytes, got %d", p.CiphertextSize(), len(ciphertext)), nil)
	}
	sk, err := scheme.UnmarshalBinaryPrivateKey(private)
	if err != nil {
		return nil, kyberium.InvalidArgument("malformed kem private key", err)
	}
	ss, err := scheme.Decapsulate(sk, ciphertext)
	if err != nil {
		// A corrupted ciphertext or mismatched key is NOT an error
		// for ML-KEM (implicit rejection): it deterministically
		// produces a pseudorandom shared secret. circl can still
		// return an error for a structurally invalid ciphertext of
		// the right length; that case is genuine corruption.
		return nil, kyberium.Corruption(fmt.Sprintf("kem decapsulation failed: %v", err))
	}
	if len(ss) != p.SharedSecretSize() {
		return nil, kyberium.Corruption("kem decapsulate produced unexpected shared secret length")
	}
	return ss, nil
}

func (p *Kyber1024Provider) PublicKeySize() int    { return scheme.PublicKeySize() }
func (p *Kyber1024Provider) PrivateKeySize() int   { return scheme.PrivateKeySize() }
func (p *Kyber1024Provider) CiphertextSize() int   { return scheme.CiphertextSize() }
func (p *Kyber1024Provider) SharedSecretSize() int { return scheme.SharedKeySize() }
