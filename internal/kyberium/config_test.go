package kyberium

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestConfigRejectsUnknownKDF(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KDFType = "unknown"
	assert.Error(t, cfg.Validate())
}

func TestConfigRejectsUnknownSymmetric(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SymmetricType = "unknown"
	assert.Error(t, cfg.Validate())
}

func TestConfigRejectsUnsupportedAESGCMKeySize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SymmetricKeySize = 20
	assert.Error(t, cfg.Validate())
}

func TestConfigRejectsChaCha20NonstandardKeySize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SymmetricType = SymmetricChaCha20
	cfg.SymmetricKeySize = 16
	assert.Error(t, cfg.Validate())
}

func TestConfigAcceptsAllAESGCMKeySizes(t *testing.T) {
	for _, size := range []int{16, 24, 32} {
		cfg := DefaultConfig()
		cfg.SymmetricKeySize = size
		assert.NoError(t, cfg.Validate())
	}
}
