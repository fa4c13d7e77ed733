package kyberium

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecretBytesZeroWipesBackingArray(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	s := NewSecret(b)
	s.Zero()
	assert.Equal(t, []byte{0, 0, 0, 0}, s.Bytes())
}

func TestSecretBytesCloneIsIndependent(t *testing.T) {
	s := NewSecret([]byte{1, 2, 3})
	clone := s.Clone()
	s.Zero()
	assert.Equal(t, []byte{1, 2, 3}, clone.Bytes())
	assert.Equal(t, []byte{0, 0, 0}, s.Bytes())
}

func TestSecretBytesLen(t *testing.T) {
	s := NewSecret(make([]byte, 32))
	assert.Equal(t, 32, s.Len())
}
