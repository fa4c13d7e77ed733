package session

import (
	"crypto/rand"
	"io"
	"log"
	"os"

	"github.com/jaydenbeard/kyberium/internal/kyberium"
	"github.com/jaydenbeard/kyberium/internal/kyberium/aead"
	"github.com/jaydenbeard/kyberium/internal/kyberium/kdf"
	"github.com/jaydenbeard/kyberium/internal/kyberium/kem"
	"github.com/jaydenbeard/kyberium/internal/kyberium/ratchet"
	"github.com/jaydenbeard/kyberium/internal/kyberium/signature"
)

// Manager owns one party's long-lived identity material and the
// currently active session, basic or triple-ratchet (spec §4.2). It
// is not safe for concurrent use (spec §5).
type Manager struct {
	config kyberium.Config

	kem  kem.Provider
	kdf  kdf.Provider
	aead aead.Provider
	sig  signature.Provider

	kemPublic      []byte
	kemPrivate     kyberium.SecretBytes
	signPublic     []byte
	signPrivate    kyberium.SecretBytes
	peerKEMPublic  []byte
	peerSignPublic []byte

	basic         *BasicSession
	triple        *ratchet.TripleRatchet
	handshakeDone bool

	logger *log.Logger
}

// New constructs a Manager, generating a fresh identity (KEM and
// signature keypairs) immediately (spec §3 Identity lifecycle).
func New(cfg kyberium.Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kemProvider := kem.New()
	sigProvider := signature.New()

	var kdfProvider kdf.Provider
	switch cfg.KDFType {
	case kyberium.KDFSha3:
		kdfProvider = kdf.NewSHA3()
	case kyberium.KDFShake256:
		kdfProvider = kdf.NewShake256()
	}

	var aeadProvider aead.Provider
	switch cfg.SymmetricType {
	case kyberium.SymmetricAESGCM:
		p, err := aead.NewAESGCM(cfg.SymmetricKeySize)
		if err != nil {
			return nil, err
		}
		aeadProvider = p
	case kyberium.SymmetricChaCha20:
		aeadProvider = aead.NewChaCha20()
	}

	kemPub, kemPriv, err := kemProvider.GenerateKeypair()
	if err != nil {
		return nil, err
	}
	signPub, signPriv, err := sigProvider.GenerateKeypair()
	if err != nil {
		return nil, err
	}

	return &Manager{
		config:      cfg,
		kem:         kemProvider,
		kdf:         kdfProvider,
		aead:        aeadProvider,
		sig:         sigProvider,
		kemPublic:   kemPub,
		kemPrivate:  kyberium.NewSecret(kemPriv),
		signPublic:  signPub,
		signPrivate: kyberium.NewSecret(signPriv),
		logger:      log.New(os.Stdout, "[SESSION-MANAGER] ", log.Ldate|log.Ltime|log.LUTC),
	}, nil
}

// Config returns the provider selection the manager was constructed
// with.
func (m *Manager) Config() kyberium.Config { return m.config }

// KEMPublicKey returns the manager's long-lived KEM public key.
func (m *Manager) KEMPublicKey() []byte { return m.kemPublic }

// SignPublicKey returns the manager's long-lived signature public key.
func (m *Manager) SignPublicKey() []byte { return m.signPublic }

// SetPeerKEMPublic records the peer's KEM public key (spec §3 Peer
// Identity Cache). InitSession and TripleRatchetInit take the peer key
// as an argument and do not read the recorded value.
func (m *Manager) SetPeerKEMPublic(pub []byte) { m.peerKEMPublic = pub }

// SetPeerSignPublic records the peer's signature public key, required
// before verifying any incoming signed material without an explicit
// override.
func (m *Manager) SetPeerSignPublic(pub []byte) { m.peerSignPublic = pub }

// HandshakeDone reports whether the active basic session is ready.
func (m *Manager) HandshakeDone() bool { return m.handshakeDone }

// InitSession runs init_session (spec §4.2). With peerKEMPublic
// non-nil the manager acts as initiator and returns a KEM ciphertext;
// with it nil the manager returns its own KEM public key for the peer
// to initiate against.
func (m *Manager) InitSession(peerKEMPublic []byte) (ciphertextOrOwnPublic []byte, isInitiator bool, err error) {
	if peerKEMPublic == nil {
		return m.kemPublic, false, nil
	}
	m.peerKEMPublic = peerKEMPublic

	session, err := NewBasicSession(m.kem, m.kdf, m.aead)
	if err != nil {
		return nil, true, err
	}
	ct, err := session.InitAsInitiator(peerKEMPublic)
	if err != nil {
		return nil, true, err
	}
	m.basic = session
	m.handshakeDone = true
	return ct, true, nil
}

// CompleteHandshake runs the responder path of complete_handshake
// (spec §4.2): decapsulate kemCiphertext under the local KEM private
// key and derive the shared encryption key.
func (m *Manager) CompleteHandshake(kemCiphertext []byte) error {
	session, err := NewBasicSession(m.kem, m.kdf, m.aead)
	if err != nil {
		return err
	}
	if err := session.CompleteAsResponder(kemCiphertext, m.kemPrivate.Bytes()); err != nil {
		return err
	}
	m.basic = session
	m.handshakeDone = true
	return nil
}

// Encrypt delegates to the active basic session (spec §4.2).
func (m *Manager) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	if !m.handshakeDone || m.basic == nil {
		return nil, nil, kyberium.SessionNotReady("session handshake not complete")
	}
	return m.basic.Encrypt(plaintext, aad)
}

// Decrypt delegates to the active basic session.
func (m *Manager) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	if !m.handshakeDone || m.basic == nil {
		return nil, kyberium.SessionNotReady("session handshake not complete")
	}
	return m.basic.Decrypt(ciphertext, nonce, aad)
}

// Sign delegates to the signature provider using the manager's own
// identity key (spec §4.2 sign).
func (m *Manager) Sign(message []byte) ([]byte, error) {
	return m.sig.Sign(message, m.signPrivate.Bytes())
}

// Verify delegates to the signature provider. When publicKey is nil
// the peer's stored signature public key is used (spec §4.2 verify).
func (m *Manager) Verify(message, sig, publicKey []byte) (bool, error) {
	if publicKey == nil {
		if m.peerSignPublic == nil {
			return false, kyberium.InvalidArgument("no peer signature public key set or supplied", nil)
		}
		publicKey = m.peerSignPublic
	}
	return m.sig.Verify(message, sig, publicKey)
}

// RotateSessionKey derives a fresh random IKM and re-derives the
// active basic session's encryption key through the configured KDF
// (spec §4.2 rotate_session_key). This is a coarse emergency re-key,
// not a source of forward secrecy; use the Triple Ratchet for that.
func (m *Manager) RotateSessionKey() error {
	if !m.handshakeDone || m.basic == nil {
		return kyberium.SessionNotReady("session handshake not complete")
	}
	ikm := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, ikm); err != nil {
		return kyberium.Corruption("rotation entropy generation failed")
	}
	newKey, err := m.kdf.Derive(ikm, m.aead.KeySize(), nil, nil)
	if err != nil {
		return err
	}
	m.basic.encryptionKey.Zero()
	m.basic.encryptionKey = kyberium.NewSecret(newKey)
	return nil
}

// TripleRatchetInit constructs the Triple Ratchet lazily and runs its
// initiator handshake step (spec §4.2 triple_ratchet_init).
func (m *Manager) TripleRatchetInit(peerKEMPublic, peerSignPublic []byte) (*ratchet.HandshakeInit, error) {
	if m.triple == nil {
		r, err := ratchet.New(m.kem, m.kdf, m.sig, m.aead, m.kemPublic, m.kemPrivate.Bytes())
		if err != nil {
			return nil, err
		}
		m.triple = r
	}
	return m.triple.Initialize(peerKEMPublic, peerSignPublic)
}

// TripleRatchetCompleteHandshake constructs the Triple Ratchet lazily
// and runs its responder handshake step.
func (m *Manager) TripleRatchetCompleteHandshake(kemCiphertext, kemSignature, peerSignPublic []byte) error {
	if m.triple == nil {
		r, err := ratchet.New(m.kem, m.kdf, m.sig, m.aead, m.kemPublic, m.kemPrivate.Bytes())
		if err != nil {
			return err
		}
		m.triple = r
	}
	return m.triple.CompleteHandshake(kemCiphertext, kemSignature, peerSignPublic)
}

// TripleRatchetEncrypt forwards to the active Triple Ratchet.
func (m *Manager) TripleRatchetEncrypt(plaintext, aad []byte) (*ratchet.Envelope, error) {
	if m.triple == nil {
		return nil, kyberium.SessionNotReady("triple ratchet not initialized")
	}
	return m.triple.Encrypt(plaintext, aad)
}

// TripleRatchetDecrypt forwards to the active Triple Ratchet.
func (m *Manager) TripleRatchetDecrypt(peerSignPublic, ciphertext, nonce, sig []byte, msgNum uint64, aad []byte) ([]byte, error) {
	if m.triple == nil {
		return nil, kyberium.SessionNotReady("triple ratchet not initialized")
	}
	return m.triple.Decrypt(peerSignPublic, ciphertext, nonce, sig, msgNum, aad)
}

// TripleRatchetRekey forwards to the active Triple Ratchet's manual
// rekey operation.
func (m *Manager) TripleRatchetRekey() error {
	if m.triple == nil {
		return kyberium.SessionNotReady("triple ratchet not initialized")
	}
	return m.triple.Rekey()
}

// Close zeroes the manager's KEM and signature private keys and the
// basic session's shared secret and encryption key (spec §5 memory
// hygiene). The Triple Ratchet's root, chain and signature private
// keys are not wiped.
func (m *Manager) Close() {
	m.kemPrivate.Zero()
	m.signPrivate.Zero()
	if m.basic != nil {
		m.basic.Zero()
	}
}
