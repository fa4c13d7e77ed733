package kyberium

// KDFType selects the key-derivation backend (spec §6).
type KDFType string

const (
	KDFSha3     KDFType = "sha3"
	KDFShake256 KDFType = "shake256"
)

// SymmetricType selects the AEAD backend (spec §6).
type SymmetricType string

const (
	SymmetricAESGCM   SymmetricType = "aesgcm"
	SymmetricChaCha20 SymmetricType = "chacha20"
)

// Config is the closed set of choices a Session Manager is
// constructed with (spec §4.2). There is no dynamic string dispatch:
// each value here maps to exactly one concrete provider.
type Config struct {
	KDFType          KDFType
	SymmetricType    SymmetricType
	UseTripleRatchet bool
	SymmetricKeySize int
}

// DefaultConfig returns HKDF-SHA3-256 + AES-256-GCM + Triple Ratchet,
// the engine's recommended profile.
func DefaultConfig() Config {
	return Config{
		KDFType:          KDFSha3,
		SymmetricType:    SymmetricAESGCM,
		UseTripleRatchet: true,
		SymmetricKeySize: 32,
	}
}

// Validate rejects unknown selectors and unsupported AEAD key sizes
// (spec §7, ConfigurationError).
func (c Config) Validate() error {
	switch c.KDFType {
	case KDFSha3, KDFShake256:
	default:
		return ConfigurationError("unknown kdf_type: " + string(c.KDFType))
	}
	switch c.SymmetricType {
	case SymmetricAESGCM:
		switch c.SymmetricKeySize {
		case 16, 24, 32:
		default:
			return ConfigurationError("unsupported aesgcm key size")
		}
	case SymmetricChaCha20:
		if c.SymmetricKeySize != 32 {
			return ConfigurationError("chacha20 requires a 32-byte key")
		}
	default:
		return ConfigurationError("unknown symmetric_type: " + string(c.SymmetricType))
	}
	return nil
}
