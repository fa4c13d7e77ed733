// Package signature provides the digital-signature provider
// abstraction used by the session manager and the triple ratchet. The
// default backend is ML-DSA-65 (CRYSTALS-Dilithium, mode3), via
// cloudflare/circl.
package signature

import (
	"crypto/rand"
	"fmt"
	"log"
	"os"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/jaydenbeard/kyberium/internal/kyberium"
)

// Provider is the signature contract. Verify returns a bool by
// explicit contract (spec §7) — it never returns an auth-failure
// error for a bad signature, only for malformed lengths.
type Provider interface {
	GenerateKeypair() (public, private []byte, err error)
	Sign(message, private []byte) (signature []byte, err error)
	Verify(message, signature, public []byte) (bool, error)
	PublicKeySize() int
	PrivateKeySize() int
	SignatureSize() int
}

// Dilithium65Provider is the ML-DSA-65 backend.
type Dilithium65Provider struct {
	logger *log.Logger
}

// New returns the default ML-DSA-65 provider.
func New() *Dilithium65Provider {
	return &Dilithium65Provider{
		logger: log.New(os.Stdout, "[SIGNATURE] ", log.Ldate|log.Ltime|log.LUTC),
	}
}

// GenerateKeypair produces a fresh ML-DSA-65 keypair.
func (p *Dilithium65Provider) GenerateKeypair() (public, private []byte, err error) {
	pub, priv, err := mode3.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, kyberium.Corruption(fmt.Sprintf("signature keypair generation failed: %v", err))
	}
	pubBytes := pub.Bytes()
	privBytes := priv.Bytes()
	if len(pubBytes) != p.PublicKeySize() || len(privBytes) != p.PrivateKeySize() {
		return nil, nil, kyberium.Corruption("signature keypair has unexpected length")
	}
	return pubBytes, privBytes, nil
}

// Sign produces an ML-DSA-65 signature over message using private.
func (p *Dilithium65Provider) Sign(message, private []byte) (signature []byte, err error) {
	if len(private) != p.PrivateKeySize() {
		return nil, kyberium.InvalidArgument(
			fmt.Sprintf("private key must be %d bytes, got %d", p.PrivateKeySize(), len(private)), nil)
	}
	var sk mode3.PrivateKey
	var skArr [mode3.PrivateKeySize]byte
	copy(skArr[:], private)
	sk.Unpack(&skArr)

	sig := make([]byte, p.SignatureSize())
	mode3.SignTo(&sk, message, sig)
	return sig, nil
}

// Verify checks signature over message against public. It returns
// false (never an error) for a bit-flipped message, signature, or
// key of otherwise-correct length; length mismatches return
// InvalidArgument (spec §4.1).
func (p *Dilithium65Provider) Verify(message, signature, public []byte) (bool, error) {
	if len(public) != p.PublicKeySize() {
		return false, kyberium.InvalidArgument(
			fmt.Sprintf("public key must be %d bytes, got %d", p.PublicKeySize(), len(public)), nil)
	}
	if len(signature) != p.SignatureSize() {
		return false, kyberium.InvalidArgument(
			fmt.Sprintf("signature must be %d bytes, got %d", p.SignatureSize(), len(signature)), nil)
	}
	var pk mode3.PublicKey
	var pkArr [mode3.PublicKeySize]byte
	copy(pkArr[:], public)
	pk.Unpack(&pkArr)

	return mode3.Verify(&pk, message, signature), nil
}

func (p *Dilithium65Provider) PublicKeySize() int  { return mode3.PublicKeySize }
func (p *Dilithium65Provider) PrivateKeySize() int { return mode3.PrivateKeySize }
func (p *Dilithium65Provider) SignatureSize() int  { return mode3.SignatureSize }
