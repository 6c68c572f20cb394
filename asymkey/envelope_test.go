package asymkey

import (
	"bytes"
	"sync"
	"testing"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/opd-ai/envelope/mode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartnerRoundTrip(t *testing.T) {
	for _, kt := range ellipticTypes {
		t.Run(kt.String(), func(t *testing.T) {
			alice := generate(t, kt)
			bob := generate(t, kt)
			carol := generate(t, kt)
			msg := []byte("meet at the usual place")

			ct, err := alice.EncryptFor(bob, msg)
			require.NoError(t, err)

			pt, err := bob.DecryptFrom(alice, ct)
			require.NoError(t, err)
			assert.Equal(t, msg, pt)

			// A third key of the same type derives a different set.
			pt, err = carol.DecryptFrom(alice, ct)
			if err == nil {
				assert.NotEqual(t, msg, pt)
			}

			ab, err := alice.CipherSetFor(bob)
			require.NoError(t, err)
			ba, err := bob.CipherSetFor(alice)
			require.NoError(t, err)
			assert.True(t, ab.Equal(ba))
		})
	}
}

func TestPartnerFromPublicBlob(t *testing.T) {
	alice := generate(t, catalog.AsymECP384)
	bob := generate(t, catalog.AsymECP384)

	blob, err := alice.PublicBlob()
	require.NoError(t, err)
	alicePub, err := FromPublicBlob(crypto.Standard, testConfig(), blob)
	require.NoError(t, err)

	ct, err := bob.EncryptFor(alicePub, []byte("reply"))
	require.NoError(t, err)
	pt, err := alice.DecryptFrom(bob.Public(), ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("reply"), pt)

	_, err = alicePub.EncryptFor(bob, []byte("no private key"))
	assert.ErrorIs(t, err, cryptoerr.ErrPublicOnly)
}

func TestMismatchedPartner(t *testing.T) {
	p256 := generate(t, catalog.AsymECP256)
	p384 := generate(t, catalog.AsymECP384)

	_, err := p256.EncryptFor(p384, []byte("x"))
	assert.ErrorIs(t, err, cryptoerr.ErrPartnerMismatch)
	assert.ErrorIs(t, err, cryptoerr.ErrLogic)

	_, err = p256.DecryptFrom(p384, []byte("x"))
	assert.ErrorIs(t, err, cryptoerr.ErrPartnerMismatch)

	_, err = p256.CipherSetFor(nil)
	assert.ErrorIs(t, err, cryptoerr.ErrLogic)
	assert.Zero(t, p256.Builds())
}

func TestPartnerDigestAndRestriction(t *testing.T) {
	restricted := testConfig()
	restricted.RestrictedKeys = true

	alice, err := Generate(crypto.Standard, restricted, catalog.AsymSecp256k1)
	require.NoError(t, err)
	bob := generate(t, catalog.AsymSecp256k1)

	cs, err := alice.CipherSetFor(bob)
	require.NoError(t, err)
	assert.True(t, cs.Restricted())

	want := alice.Mode().CipherDigest
	if bytes.Compare(bob.PublicKey(), alice.PublicKey()) < 0 {
		want = bob.Mode().CipherDigest
	}
	assert.Equal(t, want, cs.Digest())
}

func TestCipherSetIsMemoized(t *testing.T) {
	alice := generate(t, catalog.AsymX25519)
	bob := generate(t, catalog.AsymX25519)

	first, err := alice.CipherSetFor(bob)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := alice.EncryptFor(bob, []byte("again"))
		require.NoError(t, err)
	}
	second, err := alice.CipherSetFor(bob.Public())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.EqualValues(t, 1, alice.Builds())

	self, err := alice.CipherSetFor(alice)
	require.NoError(t, err)
	assert.NotSame(t, first, self)
	assert.EqualValues(t, 2, alice.Builds())
}

func TestCipherSetBuiltOnceUnderConcurrency(t *testing.T) {
	alice := generate(t, catalog.AsymECP256)
	bob := generate(t, catalog.AsymECP256)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ct, err := alice.EncryptFor(bob, []byte("concurrent"))
			if err == nil {
				_, err = alice.DecryptFrom(bob, ct)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, alice.Builds())
}

func TestStrings(t *testing.T) {
	alice := generate(t, catalog.AsymSecp256k1)
	bob := generate(t, catalog.AsymSecp256k1)

	s, err := alice.EncryptString(bob, "héllo wörld")
	require.NoError(t, err)
	got, err := bob.DecryptString(alice, s)
	require.NoError(t, err)
	assert.Equal(t, "héllo wörld", got)

	_, err = bob.DecryptString(alice, "%%% not base64")
	assert.ErrorIs(t, err, cryptoerr.ErrInvalidFormat)
}

func TestSelfWrapping(t *testing.T) {
	for _, kt := range ellipticTypes {
		t.Run(kt.String(), func(t *testing.T) {
			k := generate(t, kt)
			for _, st := range catalog.SymmetricKeyTypes() {
				key, err := crypto.Standard.GenerateSecretKey(st, st.KeyLength(false), nil)
				require.NoError(t, err)

				wrapped, err := k.SecureSymmetricKey(key)
				require.NoError(t, err)
				again, err := k.SecureSymmetricKey(key)
				require.NoError(t, err)
				assert.Equal(t, wrapped, again)

				got, err := k.DeriveSymmetricKey(wrapped)
				require.NoError(t, err)
				assert.True(t, key.Equal(got))
			}
		})
	}
}

func TestPrivateKeyWrapping(t *testing.T) {
	owner := generate(t, catalog.AsymECP521)
	inner := generate(t, catalog.AsymX25519)

	pair, err := inner.Pair()
	require.NoError(t, err)
	wrapped, err := owner.SecurePrivateKey(pair, inner.Mode())
	require.NoError(t, err)

	got, err := owner.DeriveAsymmetricKey(wrapped)
	require.NoError(t, err)
	assert.True(t, inner.Equal(got))

	_, err = owner.SecurePrivateKey(pair.PublicOnly(), inner.Mode())
	assert.ErrorIs(t, err, cryptoerr.ErrPublicOnly)
}

func TestPartnerWrapping(t *testing.T) {
	alice := generate(t, catalog.AsymECP256)
	bob := generate(t, catalog.AsymECP256)

	key, err := crypto.Standard.GenerateSecretKey(catalog.SymTwofish, 32, nil)
	require.NoError(t, err)
	wrapped, err := alice.SecureSymmetricKeyFor(bob, key)
	require.NoError(t, err)
	got, err := bob.DeriveSymmetricKeyFrom(alice, wrapped)
	require.NoError(t, err)
	assert.True(t, key.Equal(got))

	_, err = bob.DeriveSymmetricKey(wrapped)
	assert.Error(t, err)
}

func TestRSA(t *testing.T) {
	alice := generate(t, catalog.AsymRSA2048)
	bob := generate(t, catalog.AsymRSA2048)

	_, err := alice.CipherSetFor(bob)
	assert.ErrorIs(t, err, cryptoerr.ErrLogic)

	t.Run("blocks", func(t *testing.T) {
		msg := bytes.Repeat([]byte("0123456789"), 50)
		ct, err := alice.EncryptFor(bob, msg)
		require.NoError(t, err)
		assert.Len(t, ct, 3*crypto.RSACipherBlockSize)

		pt, err := bob.DecryptFrom(alice, ct)
		require.NoError(t, err)
		assert.Equal(t, msg, pt)

		_, err = alice.DecryptFrom(bob, ct)
		assert.ErrorIs(t, err, cryptoerr.ErrCrypto)

		_, err = bob.DecryptFrom(alice, ct[:100])
		assert.ErrorIs(t, err, cryptoerr.ErrInvalidFormat)

		_, err = bob.Public().DecryptFrom(alice, ct)
		assert.ErrorIs(t, err, cryptoerr.ErrPublicOnly)
	})

	t.Run("empty", func(t *testing.T) {
		ct, err := alice.EncryptFor(bob, nil)
		require.NoError(t, err)
		assert.Empty(t, ct)
		pt, err := bob.DecryptFrom(alice, ct)
		require.NoError(t, err)
		assert.Empty(t, pt)
	})

	t.Run("symmetric key wrap", func(t *testing.T) {
		key, err := crypto.Standard.GenerateSecretKey(catalog.SymAES, 32, nil)
		require.NoError(t, err)
		wrapped, err := alice.SecureSymmetricKeyFor(bob, key)
		require.NoError(t, err)
		again, err := alice.SecureSymmetricKeyFor(bob, key)
		require.NoError(t, err)
		assert.Equal(t, wrapped, again)

		got, err := bob.DeriveSymmetricKeyFrom(alice, wrapped)
		require.NoError(t, err)
		assert.True(t, key.Equal(got))

		self, err := alice.SecureSymmetricKey(key)
		require.NoError(t, err)
		got, err = alice.DeriveSymmetricKey(self)
		require.NoError(t, err)
		assert.True(t, key.Equal(got))
	})

	t.Run("private key wrap", func(t *testing.T) {
		inner := generate(t, catalog.AsymECP256)
		pair, err := inner.Pair()
		require.NoError(t, err)
		wrapped, err := alice.SecurePrivateKeyFor(bob, pair, inner.Mode())
		require.NoError(t, err)
		got, err := bob.DeriveAsymmetricKeyFrom(alice, wrapped)
		require.NoError(t, err)
		assert.True(t, inner.Equal(got))

		// A PKCS#1 private key needs more OAEP blocks than the limit allows.
		own, err := alice.Pair()
		require.NoError(t, err)
		_, err = alice.SecurePrivateKey(own, alice.Mode())
		assert.ErrorIs(t, err, cryptoerr.ErrSizeLimit)
	})

	t.Run("mismatch", func(t *testing.T) {
		ec := generate(t, catalog.AsymECP256)
		_, err := alice.EncryptFor(ec, []byte("x"))
		assert.ErrorIs(t, err, cryptoerr.ErrPartnerMismatch)

		m, err := mode.NewAsymKeyMode(nil, catalog.AsymECP384, false)
		require.NoError(t, err)
		pair, err := ec.Pair()
		require.NoError(t, err)
		_, err = alice.SecurePrivateKey(pair, m)
		assert.ErrorIs(t, err, cryptoerr.ErrLogic)
	})
}

func BenchmarkEncryptFor(b *testing.B) {
	alice := generate(b, catalog.AsymX25519)
	bob := generate(b, catalog.AsymX25519)
	msg := bytes.Repeat([]byte{0xAB}, 1024)
	b.SetBytes(int64(len(msg)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := alice.EncryptFor(bob, msg); err != nil {
			b.Fatal(err)
		}
	}
}
