// Package ratchet implements the Triple Ratchet: a Double-Ratchet-style
// send/receive chain advance, combined with a per-message post-quantum
// signature and an identity-bound KEM handshake, providing
// confidentiality, forward secrecy, and sender authenticity against a
// quantum adversary (spec §4.4).
package ratchet

import (
	"log"
	"os"
	"time"

	"github.com/jaydenbeard/kyberium/internal/kyberium"
	"github.com/jaydenbeard/kyberium/internal/kyberium/aead"
	"github.com/jaydenbeard/kyberium/internal/kyberium/kdf"
	"github.com/jaydenbeard/kyberium/internal/kyberium/kem"
	"github.com/jaydenbeard/kyberium/internal/kyberium/signature"
	"github.com/jaydenbeard/kyberium/internal/metrics"
)

// State names the ratchet's lifecycle (spec §4.4). There is no
// terminal state beyond drop. A ratchet starts in StateUninitialized
// and moves straight to StateActive when Initialize or
// CompleteHandshake succeeds; StateHandshakeSent and
// StateHandshakeReady are declared but never entered.
type State int

const (
	StateUninitialized State = iota
	StateHandshakeSent
	StateHandshakeReady
	StateActive
)

// Envelope is the per-message structure produced by Encrypt and
// consumed by Decrypt (spec §3 "Per-message Envelope").
type Envelope struct {
	Ciphertext    []byte
	Nonce         []byte
	Signature     []byte
	MsgNum        uint64
	SignPublicKey []byte
}

// HandshakeInit is returned by Initialize and consumed by
// CompleteHandshake (spec §4.4 step 7).
type HandshakeInit struct {
	KEMCiphertext []byte
	KEMSignature  []byte
	SignPublicKey []byte
}

// TripleRatchet holds one party's ratchet state. Not safe for
// concurrent use (spec §5): one goroutine at a time per instance.
type TripleRatchet struct {
	kem       kem.Provider
	kdf       kdf.Provider
	signature signature.Provider
	aead      aead.Provider

	ownKEMPublic  []byte
	ownKEMPrivate []byte

	ownSignPublic  []byte
	ownSignPrivate []byte

	peerKEMPublic  []byte
	peerSignPublic []byte

	rootKey      kyberium.SecretBytes
	sendChainKey kyberium.SecretBytes
	recvChainKey kyberium.SecretBytes

	sendMessageNumber uint64
	recvMessageNumber uint64

	// skippedMessageKeys caches chain keys derived while skipping
	// ahead for an out-of-order message (spec §4.4, §9). A message
	// whose msg_num is found here on decrypt is consumed and removed;
	// anything with msg_num < recvMessageNumber and no cached entry is
	// a replay and is rejected.
	skippedMessageKeys map[uint64]kyberium.SecretBytes

	state State

	logger *log.Logger
}

// aeadKeySize is the length in bytes that root/chain keys and derived
// message keys must have: the configured AEAD's key size.
func (r *TripleRatchet) aeadKeySize() int { return r.aead.KeySize() }

// New constructs a ratchet around the given providers. ownKEMPublic and
// ownKEMPrivate, if both are non-nil, seed the local KEM identity;
// otherwise New generates a fresh KEM keypair itself. A fresh signature
// keypair is always generated here.
func New(kemProvider kem.Provider, kdfProvider kdf.Provider, sigProvider signature.Provider, aeadProvider aead.Provider, ownKEMPublic, ownKEMPrivate []byte) (*TripleRatchet, error) {
	ownSignPublic, ownSignPrivate, err := sigProvider.GenerateKeypair()
	if err != nil {
		return nil, err
	}
	r := &TripleRatchet{
		kem:                kemProvider,
		kdf:                kdfProvider,
		signature:          sigProvider,
		aead:               aeadProvider,
		ownKEMPublic:       ownKEMPublic,
		ownKEMPrivate:      ownKEMPrivate,
		ownSignPublic:      ownSignPublic,
		ownSignPrivate:     ownSignPrivate,
		skippedMessageKeys: make(map[uint64]kyberium.SecretBytes),
		state:              StateUninitialized,
		logger:             log.New(os.Stdout, "[RATCHET] ", log.Ldate|log.Ltime|log.LUTC),
	}
	if ownKEMPublic == nil || ownKEMPrivate == nil {
		pub, priv, err := kemProvider.GenerateKeypair()
		if err != nil {
			return nil, err
		}
		r.ownKEMPublic = pub
		r.ownKEMPrivate = priv
	}
	return r, nil
}

// OwnSignPublicKey returns the ratchet's generated signature public
// key, for publication to the peer out of band.
func (r *TripleRatchet) OwnSignPublicKey() []byte { return r.ownSignPublic }

// OwnKEMPublicKey returns the ratchet's local KEM public key.
func (r *TripleRatchet) OwnKEMPublicKey() []byte { return r.ownKEMPublic }

// HandshakeDone reports whether the handshake has completed.
func (r *TripleRatchet) HandshakeDone() bool { return r.state == StateActive }

// Initialize runs the initiator side of the handshake (spec §4.4):
// encapsulate against the peer's KEM public key, sign the ciphertext,
// derive the root key, and mark the ratchet active.
func (r *TripleRatchet) Initialize(peerKEMPublic, peerSignPublic []byte) (*HandshakeInit, error) {
	start := time.Now()
	r.peerKEMPublic = peerKEMPublic
	r.peerSignPublic = peerSignPublic

	ct, ss, err := r.kem.Encapsulate(peerKEMPublic)
	if err != nil {
		metrics.HandshakesTotal.WithLabelValues("triple", "initiator", "error").Inc()
		return nil, err
	}
	sig, err := r.signature.Sign(ct, r.ownSignPrivate)
	if err != nil {
		metrics.HandshakesTotal.WithLabelValues("triple", "initiator", "error").Inc()
		return nil, err
	}

	if err := r.deriveRootAndChains(ss); err != nil {
		metrics.HandshakesTotal.WithLabelValues("triple", "initiator", "error").Inc()
		return nil, err
	}

	r.state = StateActive
	metrics.HandshakesTotal.WithLabelValues("triple", "initiator", "success").Inc()
	metrics.OperationLatency.WithLabelValues("triple_ratchet_initialize").Observe(time.Since(start).Seconds())

	return &HandshakeInit{
		KEMCiphertext: ct,
		KEMSignature:  sig,
		SignPublicKey: r.ownSignPublic,
	}, nil
}

// CompleteHandshake runs the responder side of the handshake (spec
// §4.4): verify the initiator's signature over the ciphertext,
// decapsulate, derive the same root key, and mark the ratchet active.
func (r *TripleRatchet) CompleteHandshake(kemCiphertext, kemSignature, peerSignPublic []byte) error {
	start := time.Now()
	valid, err := r.signature.Verify(kemCiphertext, kemSignature, peerSignPublic)
	if err != nil {
		metrics.HandshakesTotal.WithLabelValues("triple", "responder", "error").Inc()
		return err
	}
	if !valid {
		metrics.HandshakesTotal.WithLabelValues("triple", "responder", "error").Inc()
		metrics.AuthenticationFailuresTotal.WithLabelValues("signature_verify").Inc()
		return kyberium.AuthenticationFailure("handshake signature verification failed", nil)
	}
	r.peerSignPublic = peerSignPublic

	ss, err := r.kem.Decapsulate(kemCiphertext, r.ownKEMPrivate)
	if err != nil {
		metrics.HandshakesTotal.WithLabelValues("triple", "responder", "error").Inc()
		return err
	}

	if err := r.deriveRootAndChains(ss); err != nil {
		metrics.HandshakesTotal.WithLabelValues("triple", "responder", "error").Inc()
		return err
	}

	r.state = StateActive
	metrics.HandshakesTotal.WithLabelValues("triple", "responder", "success").Inc()
	metrics.OperationLatency.WithLabelValues("triple_ratchet_complete_handshake").Observe(time.Since(start).Seconds())
	return nil
}

// deriveRootAndChains sets root_key = send_chain_key = recv_chain_key
// = KDF(shared_secret, aead_key_len), per spec §4.4 step 5. Both
// chains start identical after handshake (documented asymmetric-chain
// limitation, see DESIGN.md open-question decision).
func (r *TripleRatchet) deriveRootAndChains(sharedSecret []byte) error {
	keyLen := r.aeadKeySize()
	rk, err := r.kdf.Derive(sharedSecret, keyLen, nil, nil)
	if err != nil {
		return err
	}
	r.rootKey = kyberium.NewSecret(rk)
	r.sendChainKey = kyberium.NewSecret(append([]byte(nil), rk...))
	r.recvChainKey = kyberium.NewSecret(append([]byte(nil), rk...))
	r.sendMessageNumber = 0
	r.recvMessageNumber = 0
	return nil
}

// Encrypt runs one send step (spec §4.4 "Per-message encrypt"): AEAD
// under the current send_chain_key, sign the ciphertext, record the
// message number, THEN advance the chain — the key used for message N
// is the pre-advance value, which the peer's receive chain must match
// bit-for-bit.
func (r *TripleRatchet) Encrypt(plaintext, aad []byte) (*Envelope, error) {
	if r.state != StateActive {
		return nil, kyberium.SessionNotReady("ratchet handshake not complete")
	}
	start := time.Now()
	key := r.sendChainKey.Bytes()

	ct, nonce, err := r.aead.Encrypt(plaintext, key, nil, aad)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("triple", "encrypt", "error").Inc()
		return nil, err
	}
	sig, err := r.signature.Sign(ct, r.ownSignPrivate)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("triple", "encrypt", "error").Inc()
		return nil, err
	}

	msgNum := r.sendMessageNumber

	nextKey, err := r.kdf.Derive(key, r.aeadKeySize(), nil, nil)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("triple", "encrypt", "error").Inc()
		return nil, err
	}
	r.sendChainKey.Zero()
	r.sendChainKey = kyberium.NewSecret(nextKey)
	r.sendMessageNumber++

	metrics.MessagesTotal.WithLabelValues("triple", "encrypt", "success").Inc()
	metrics.OperationLatency.WithLabelValues("triple_ratchet_encrypt").Observe(time.Since(start).Seconds())

	return &Envelope{
		Ciphertext:    ct,
		Nonce:         nonce,
		Signature:     sig,
		MsgNum:        msgNum,
		SignPublicKey: r.ownSignPublic,
	}, nil
}

// Decrypt runs one receive step (spec §4.4 "Per-message decrypt").
//
// In-order messages (msg_num == recv_message_number) verify, decrypt,
// and advance the chain exactly once. Messages ahead of the receiver
// (msg_num > recv_message_number) cause the chain to be walked forward
// and every intermediate chain key cached in skipped_message_keys
// (spec §4.4, §9 — this implementation resolves the open question by
// implementing Signal-style skipped-key caching rather than rejecting
// out-of-order delivery outright). A msg_num behind the receiver that
// is not in the cache is a replay and is rejected with
// AuthenticationFailure without advancing any state (spec §4.4, §7).
func (r *TripleRatchet) Decrypt(peerSignPublic, ciphertext, nonce, sig []byte, msgNum uint64, aad []byte) ([]byte, error) {
	if r.state != StateActive {
		return nil, kyberium.SessionNotReady("ratchet handshake not complete")
	}
	start := time.Now()

	valid, err := r.signature.Verify(ciphertext, sig, peerSignPublic)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("triple", "decrypt", "error").Inc()
		return nil, err
	}
	if !valid {
		metrics.MessagesTotal.WithLabelValues("triple", "decrypt", "error").Inc()
		metrics.AuthenticationFailuresTotal.WithLabelValues("signature_verify").Inc()
		return nil, kyberium.AuthenticationFailure("message signature verification failed", nil)
	}

	key, skipped, isSkipped, err := r.keyForMessage(msgNum)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("triple", "decrypt", "error").Inc()
		return nil, err
	}

	pt, err := r.aead.Decrypt(ciphertext, key.Bytes(), nonce, aad)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("triple", "decrypt", "error").Inc()
		metrics.AuthenticationFailuresTotal.WithLabelValues("aead_decrypt").Inc()
		return nil, err
	}

	if isSkipped {
		delete(r.skippedMessageKeys, msgNum)
		key.Zero()
	} else {
		nextKey, err := r.kdf.Derive(key.Bytes(), r.aeadKeySize(), nil, nil)
		if err != nil {
			metrics.MessagesTotal.WithLabelValues("triple", "decrypt", "error").Inc()
			return nil, err
		}
		for n, k := range skipped {
			r.skippedMessageKeys[n] = k
		}
		r.recvChainKey.Zero()
		r.recvChainKey = kyberium.NewSecret(nextKey)
		r.recvMessageNumber = msgNum + 1
		key.Zero()
	}

	metrics.MessagesTotal.WithLabelValues("triple", "decrypt", "success").Inc()
	metrics.OperationLatency.WithLabelValues("triple_ratchet_decrypt").Observe(time.Since(start).Seconds())
	return pt, nil
}

// keyForMessage resolves the chain key that should decrypt msgNum
// without mutating recv_chain_key, recv_message_number or
// skipped_message_keys. For a message ahead of the receiver it also
// returns the intermediate chain keys it walked past; the caller caches
// those and advances the chain only after a successful AEAD decrypt.
func (r *TripleRatchet) keyForMessage(msgNum uint64) (kyberium.SecretBytes, map[uint64]kyberium.SecretBytes, bool, error) {
	switch {
	case msgNum == r.recvMessageNumber:
		return r.recvChainKey.Clone(), nil, false, nil
	case msgNum > r.recvMessageNumber:
		skipped := make(map[uint64]kyberium.SecretBytes)
		key := r.recvChainKey.Clone()
		for n := r.recvMessageNumber; n < msgNum; n++ {
			skipped[n] = key
			next, err := r.kdf.Derive(key.Bytes(), r.aeadKeySize(), nil, nil)
			if err != nil {
				return kyberium.SecretBytes{}, nil, false, err
			}
			key = kyberium.NewSecret(next)
		}
		return key, skipped, false, nil
	default:
		if cached, ok := r.skippedMessageKeys[msgNum]; ok {
			return cached, nil, true, nil
		}
		return kyberium.SecretBytes{}, nil, false, kyberium.AuthenticationFailure("replayed or unknown message number", nil)
	}
}

// Rekey derives a fresh root key from the current one and resets both
// chains to it (spec §4.4 "Rekey"). This is an explicit manual
// operation, never invoked automatically.
func (r *TripleRatchet) Rekey() error {
	if r.state != StateActive {
		return kyberium.SessionNotReady("ratchet handshake not complete")
	}
	newRoot, err := r.kdf.Derive(r.rootKey.Bytes(), r.aeadKeySize(), nil, nil)
	if err != nil {
		return err
	}
	r.rootKey.Zero()
	r.rootKey = kyberium.NewSecret(newRoot)
	r.sendChainKey.Zero()
	r.sendChainKey = kyberium.NewSecret(append([]byte(nil), newRoot...))
	r.recvChainKey.Zero()
	r.recvChainKey = kyberium.NewSecret(append([]byte(nil), newRoot...))
	return nil
}

// SendMessageNumber reports the next message number to be sent.
func (r *TripleRatchet) SendMessageNumber() uint64 { return r.sendMessageNumber }

// RecvMessageNumber reports the next in-order message number expected.
func (r *TripleRatchet) RecvMessageNumber() uint64 { return r.recvMessageNumber }
