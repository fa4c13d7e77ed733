// Package session implements the Basic Session (one-shot KEM profile)
// and the Session Manager that mediates identity, handshake, and
// encrypt/decrypt/sign/verify for a caller (spec §4.2, §4.3).
package session

import (
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jaydenbeard/kyberium/internal/kyberium"
	"github.com/jaydenbeard/kyberium/internal/kyberium/aead"
	"github.com/jaydenbeard/kyberium/internal/kyberium/kdf"
	"github.com/jaydenbeard/kyberium/internal/kyberium/kem"
	"github.com/jaydenbeard/kyberium/internal/metrics"
)

// BasicSession is the minimal profile: one KEM handshake, one derived
// key, AEAD in/out for the session lifetime (spec §4.3). A fresh
// random nonce is generated for every Encrypt call; callers must
// deliver it alongside the ciphertext.
type BasicSession struct {
	kem  kem.Provider
	kdf  kdf.Provider
	aead aead.Provider

	sessionID     uuid.UUID
	sharedSecret  kyberium.SecretBytes
	encryptionKey kyberium.SecretBytes
	handshakeDone bool

	logger *log.Logger
}

// NewBasicSession constructs an unkeyed session bound to the given
// providers. Call InitAsInitiator or CompleteAsResponder before
// Encrypt/Decrypt.
func NewBasicSession(kemProvider kem.Provider, kdfProvider kdf.Provider, aeadProvider aead.Provider) (*BasicSession, error) {
	return &BasicSession{
		kem:       kemProvider,
		kdf:       kdfProvider,
		aead:      aeadProvider,
		sessionID: uuid.New(),
		logger:    log.New(os.Stdout, "[BASIC-SESSION] ", log.Ldate|log.Ltime|log.LUTC),
	}, nil
}

// SessionID returns the session's 16 random identifying bytes (a v4
// UUID, spec §3 "session_id (16 random bytes)").
func (s *BasicSession) SessionID() []byte { return s.sessionID[:] }

// HandshakeDone reports whether an encryption key is established.
func (s *BasicSession) HandshakeDone() bool { return s.handshakeDone }

// InitAsInitiator encapsulates against peerKEMPublic, derives the
// session's encryption key, and returns the KEM ciphertext to send to
// the responder (spec §4.2 init_session, initiator path).
func (s *BasicSession) InitAsInitiator(peerKEMPublic []byte) (ciphertext []byte, err error) {
	start := time.Now()
	ct, ss, err := s.kem.Encapsulate(peerKEMPublic)
	if err != nil {
		metrics.HandshakesTotal.WithLabelValues("basic", "initiator", "error").Inc()
		return nil, err
	}
	if err := s.deriveEncryptionKey(ss); err != nil {
		metrics.HandshakesTotal.WithLabelValues("basic", "initiator", "error").Inc()
		return nil, err
	}
	s.handshakeDone = true
	metrics.HandshakesTotal.WithLabelValues("basic", "initiator", "success").Inc()
	metrics.OperationLatency.WithLabelValues("basic_session_init").Observe(time.Since(start).Seconds())
	return ct, nil
}

// CompleteAsResponder decapsulates ciphertext with ownKEMPrivate and
// derives the same encryption key the initiator derived (spec §4.2
// complete_handshake, responder path).
func (s *BasicSession) CompleteAsResponder(ciphertext, ownKEMPrivate []byte) error {
	start := time.Now()
	ss, err := s.kem.Decapsulate(ciphertext, ownKEMPrivate)
	if err != nil {
		metrics.HandshakesTotal.WithLabelValues("basic", "responder", "error").Inc()
		return err
	}
	if err := s.deriveEncryptionKey(ss); err != nil {
		metrics.HandshakesTotal.WithLabelValues("basic", "responder", "error").Inc()
		return err
	}
	s.handshakeDone = true
	metrics.HandshakesTotal.WithLabelValues("basic", "responder", "success").Inc()
	metrics.OperationLatency.WithLabelValues("basic_session_complete").Observe(time.Since(start).Seconds())
	return nil
}

func (s *BasicSession) deriveEncryptionKey(sharedSecret []byte) error {
	s.sharedSecret = kyberium.NewSecret(sharedSecret)
	key, err := s.kdf.Derive(sharedSecret, s.aead.KeySize(), nil, nil)
	if err != nil {
		return err
	}
	s.encryptionKey = kyberium.NewSecret(key)
	return nil
}

// Encrypt seals plaintext under the session's encryption key with a
// fresh random nonce (spec §4.3 — reusing (key, nonce) is forbidden by
// always generating a new nonce here).
func (s *BasicSession) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	if !s.handshakeDone {
		return nil, nil, kyberium.SessionNotReady("basic session handshake not complete")
	}
	start := time.Now()
	ct, n, err := s.aead.Encrypt(plaintext, s.encryptionKey.Bytes(), nil, aad)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("basic", "encrypt", "error").Inc()
		return nil, nil, err
	}
	metrics.MessagesTotal.WithLabelValues("basic", "encrypt", "success").Inc()
	metrics.OperationLatency.WithLabelValues("basic_session_encrypt").Observe(time.Since(start).Seconds())
	return ct, n, nil
}

// Decrypt opens ciphertext under the session's encryption key.
func (s *BasicSession) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	if !s.handshakeDone {
		return nil, kyberium.SessionNotReady("basic session handshake not complete")
	}
	start := time.Now()
	pt, err := s.aead.Decrypt(ciphertext, s.encryptionKey.Bytes(), nonce, aad)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("basic", "decrypt", "error").Inc()
		metrics.AuthenticationFailuresTotal.WithLabelValues("aead_decrypt").Inc()
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues("basic", "decrypt", "success").Inc()
	metrics.OperationLatency.WithLabelValues("basic_session_decrypt").Observe(time.Since(start).Seconds())
	return pt, nil
}

// Zero wipes the shared secret and derived encryption key.
func (s *BasicSession) Zero() {
	s.sharedSecret.Zero()
	s.encryptionKey.Zero()
}
