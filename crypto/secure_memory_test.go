package crypto

import (
	"testing"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func TestSecureWipe(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	require.NoError(t, SecureWipe(data))
	assert.True(t, allZero(data))

	assert.ErrorIs(t, SecureWipe(nil), cryptoerr.ErrLogic)

	a, b := []byte{9, 9}, []byte{7}
	ZeroAll(a, b, nil)
	assert.True(t, allZero(a))
	assert.True(t, allZero(b))
}

func TestWipeKeyPair(t *testing.T) {
	kp, err := Standard.GenerateKeyPair(catalog.AsymX25519, nil)
	require.NoError(t, err)
	private := kp.Private
	require.False(t, allZero(private), "private key is all zeros before wiping")

	require.NoError(t, WipeKeyPair(kp))
	assert.True(t, allZero(private))
	assert.False(t, kp.HasPrivate())
	assert.Len(t, kp.Public, X25519PublicKeySize)

	// Wiping a public-only pair is a no-op.
	assert.NoError(t, WipeKeyPair(kp))
	assert.ErrorIs(t, WipeKeyPair(nil), cryptoerr.ErrLogic)
}
