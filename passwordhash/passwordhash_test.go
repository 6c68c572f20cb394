package passwordhash

import (
	"bytes"
	"testing"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/opd-ai/envelope/haystack"
	"github.com/opd-ai/envelope/limits"
	"github.com/opd-ai/envelope/mode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() crypto.Config {
	cfg := crypto.DefaultConfig()
	cfg.HashIterations = 25
	cfg.SecurityPhrase = "phrase"
	return cfg
}

func pw(s string) []byte {
	return []byte(s)
}

func fixedMode() mode.HashMode {
	return mode.HashMode{
		SecurityMode: mode.NewSecurityMode(false),
		Prime:        catalog.DigestSHA384,
		Alternate:    catalog.DigestSHA3_256,
		Secret:       catalog.DigestBLAKE2b256,
		CipherDigest: catalog.DigestSHA256,
		SwitchAdjust: 2,
		FinalAdjust:  5,
	}
}

func TestKDFIsDeterministic(t *testing.T) {
	cfg := testConfig()
	salt := bytes.Repeat([]byte{0x11}, limits.SaltSize)

	ext1, sec1, err := generateHashBytes(crypto.Standard, cfg, fixedMode(), salt, pw("hunter2"))
	require.NoError(t, err)
	ext2, sec2, err := generateHashBytes(crypto.Standard, cfg, fixedMode(), salt, pw("hunter2"))
	require.NoError(t, err)

	assert.Equal(t, ext1, ext2)
	assert.Equal(t, sec1, sec2)
	// prime is SHA-384, alternate SHA3-256.
	assert.Len(t, ext1, 48+32)
	assert.Len(t, sec1, 32)
	assert.NotEqual(t, ext1[:32], sec1)
}

func TestKDFDependsOnEveryParameter(t *testing.T) {
	cfg := testConfig()
	salt := bytes.Repeat([]byte{0x11}, limits.SaltSize)
	base, _, err := generateHashBytes(crypto.Standard, cfg, fixedMode(), salt, pw("hunter2"))
	require.NoError(t, err)

	otherSalt := append([]byte(nil), salt...)
	otherSalt[31] ^= 1

	phrase := cfg
	phrase.SecurityPhrase = "other"

	iterations := cfg
	iterations.HashIterations++

	swapped := fixedMode()
	swapped.SwitchAdjust = 3

	final := fixedMode()
	final.FinalAdjust = 6

	digest := fixedMode()
	digest.Alternate = catalog.DigestSHA512_256

	variants := []struct {
		name string
		cfg  crypto.Config
		m    mode.HashMode
		salt []byte
		pw   string
	}{
		{"password", cfg, fixedMode(), salt, "hunter3"},
		{"salt", cfg, fixedMode(), otherSalt, "hunter2"},
		{"phrase", phrase, fixedMode(), salt, "hunter2"},
		{"iterations", iterations, fixedMode(), salt, "hunter2"},
		{"switch adjust", cfg, swapped, salt, "hunter2"},
		{"final adjust", cfg, final, salt, "hunter2"},
		{"alternate digest", cfg, digest, salt, "hunter2"},
	}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			got, _, err := generateHashBytes(crypto.Standard, v.cfg, v.m, v.salt, pw(v.pw))
			require.NoError(t, err)
			assert.NotEqual(t, base, got)
		})
	}
}

func TestCombineHashes(t *testing.T) {
	acc := combineHashes(nil, []byte{1, 2})
	assert.Equal(t, []byte{1, 2}, acc)

	acc = combineHashes(acc, []byte{1, 1, 5})
	assert.Equal(t, []byte{0, 3, 5}, acc)

	acc = combineHashes(acc, []byte{0xFF})
	assert.Equal(t, []byte{0xFF, 3, 5}, acc)
}

func TestNewAndOpen(t *testing.T) {
	cfg := testConfig()
	ph, err := New(crypto.Standard, cfg, pw("correct horse"))
	require.NoError(t, err)

	blob := ph.Bytes()
	assert.LessOrEqual(t, len(blob), limits.MaxPasswordHashBlob)

	opened, err := Open(crypto.Standard, cfg, blob, pw("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, ph.Mode(), opened.Mode())
	assert.Equal(t, blob, opened.Bytes())

	a, err := ph.CipherSet()
	require.NoError(t, err)
	b, err := opened.CipherSet()
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	ct, err := ph.EncryptBytes([]byte("payload"))
	require.NoError(t, err)
	plain, err := opened.DecryptBytes(ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), plain)
}

func TestWrongPassword(t *testing.T) {
	cfg := testConfig()
	ph, err := New(crypto.Standard, cfg, pw("correct horse"))
	require.NoError(t, err)

	_, err = Open(crypto.Standard, cfg, ph.Bytes(), pw("battery staple"))
	assert.ErrorIs(t, err, cryptoerr.ErrWrongPassword)
	assert.NotErrorIs(t, err, cryptoerr.ErrData)
	assert.NotErrorIs(t, err, cryptoerr.ErrCrypto)

	other := cfg
	other.SecurityPhrase = "a different phrase"
	_, err = Open(crypto.Standard, other, ph.Bytes(), pw("correct horse"))
	assert.ErrorIs(t, err, cryptoerr.ErrWrongPassword)
}

func TestPasswordIsZeroed(t *testing.T) {
	cfg := testConfig()
	password := pw("zero me")
	ph, err := New(crypto.Standard, cfg, password)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, len(password)), password)

	wrong := pw("nope")
	_, err = Open(crypto.Standard, cfg, ph.Bytes(), wrong)
	require.ErrorIs(t, err, cryptoerr.ErrWrongPassword)
	assert.Equal(t, make([]byte, 4), wrong)

	bad := pw("bad config")
	badCfg := cfg
	badCfg.CipherSteps = 0
	_, err = New(crypto.Standard, badCfg, bad)
	require.Error(t, err)
	assert.Equal(t, make([]byte, len(bad)), bad)

	verify := pw("zero me")
	require.NoError(t, ph.Verify(verify))
	assert.Equal(t, make([]byte, len(verify)), verify)
}

func TestVerify(t *testing.T) {
	ph, err := New(crypto.Standard, testConfig(), pw("s3cret"))
	require.NoError(t, err)
	assert.NoError(t, ph.Verify(pw("s3cret")))
	assert.ErrorIs(t, ph.Verify(pw("S3cret")), cryptoerr.ErrWrongPassword)
}

func TestAttempt(t *testing.T) {
	cfg := testConfig()
	first, err := New(crypto.Standard, cfg, pw("shared"))
	require.NoError(t, err)
	second, err := New(crypto.Standard, cfg, pw("shared"))
	require.NoError(t, err)
	third, err := New(crypto.Standard, cfg, pw("different"))
	require.NoError(t, err)

	unlocked, err := first.Attempt(second.Bytes())
	require.NoError(t, err)
	assert.Equal(t, second.Bytes(), unlocked.Bytes())

	_, err = first.Attempt(third.Bytes())
	assert.ErrorIs(t, err, cryptoerr.ErrWrongPassword)

	// The remembered password survives repeated attempts.
	_, err = first.Attempt(second.Bytes())
	assert.NoError(t, err)
}

func TestOpenRejectsMalformedBlobs(t *testing.T) {
	cfg := testConfig()
	ph, err := New(crypto.Standard, cfg, pw("pw"))
	require.NoError(t, err)
	blob := ph.Bytes()

	_, err = Open(crypto.Standard, cfg, make([]byte, limits.MaxPasswordHashBlob+1), pw("pw"))
	assert.ErrorIs(t, err, cryptoerr.ErrSizeLimit)

	_, err = Open(crypto.Standard, cfg, blob[:10], pw("pw"))
	assert.ErrorIs(t, err, cryptoerr.ErrInvalidFormat)

	corrupt := append([]byte(nil), blob...)
	corrupt[0] ^= 0xFF
	_, err = Open(crypto.Standard, cfg, corrupt, pw("pw"))
	assert.ErrorIs(t, err, cryptoerr.ErrData)

	// A well-formed outer layer around a short salt.
	inner, err := haystack.Hide(fixedMode().Encode(), make([]byte, 20))
	require.NoError(t, err)
	shortSalt, err := haystack.Hide(inner, make([]byte, 64))
	require.NoError(t, err)
	_, err = Open(crypto.Standard, cfg, shortSalt, pw("pw"))
	assert.ErrorIs(t, err, cryptoerr.ErrInvalidFormat)
}

func TestBlobSizeAcrossModes(t *testing.T) {
	cfg := testConfig()
	cfg.HashIterations = 3
	for i := 0; i < 40; i++ {
		ph, err := New(crypto.Standard, cfg, pw("size check"))
		require.NoError(t, err)
		assert.LessOrEqual(t, len(ph.Bytes()), limits.MaxPasswordHashBlob)
	}
}

func TestKeyWrapping(t *testing.T) {
	ph, err := New(crypto.Standard, testConfig(), pw("wrap"))
	require.NoError(t, err)

	key, err := crypto.Standard.GenerateSecretKey(catalog.SymBlowfish, 56, nil)
	require.NoError(t, err)
	wrapped, err := ph.SecureSymmetricKey(key)
	require.NoError(t, err)
	again, err := ph.SecureSymmetricKey(key)
	require.NoError(t, err)
	assert.Equal(t, wrapped, again)

	got, err := ph.DeriveSymmetricKey(wrapped)
	require.NoError(t, err)
	assert.True(t, key.Equal(got))

	kp, err := crypto.Standard.GenerateKeyPair(catalog.AsymSecp256k1, nil)
	require.NoError(t, err)
	m, err := mode.NewAsymKeyMode(nil, catalog.AsymSecp256k1, false)
	require.NoError(t, err)
	wrappedPriv, err := ph.SecurePrivateKey(kp, m)
	require.NoError(t, err)
	gotKP, gotMode, err := ph.DeriveAsymmetricKey(wrappedPriv)
	require.NoError(t, err)
	assert.Equal(t, m, gotMode)
	assert.True(t, kp.Equal(gotKP))
}

func TestDestroy(t *testing.T) {
	ph, err := New(crypto.Standard, testConfig(), pw("gone"))
	require.NoError(t, err)
	ph.Destroy()
	ph.Destroy()

	_, err = ph.CipherSet()
	assert.ErrorIs(t, err, cryptoerr.ErrLogic)
	_, err = ph.EncryptBytes([]byte("x"))
	assert.ErrorIs(t, err, cryptoerr.ErrLogic)
	_, err = ph.Attempt(ph.Bytes())
	assert.ErrorIs(t, err, cryptoerr.ErrLogic)

	// The public half stays usable.
	assert.NoError(t, ph.Verify(pw("gone")))
}

func TestRestrictedConfig(t *testing.T) {
	cfg := testConfig()
	cfg.RestrictedKeys = true
	ph, err := New(crypto.Standard, cfg, pw("short keys"))
	require.NoError(t, err)
	assert.True(t, ph.Mode().Restricted())

	cs, err := ph.CipherSet()
	require.NoError(t, err)
	assert.True(t, cs.Restricted())
}

func BenchmarkKDFDefaultIterations(b *testing.B) {
	cfg := crypto.DefaultConfig()
	salt := make([]byte, limits.SaltSize)
	for i := 0; i < b.N; i++ {
		if _, _, err := generateHashBytes(crypto.Standard, cfg, fixedMode(), salt, pw("bench")); err != nil {
			b.Fatal(err)
		}
	}
}
