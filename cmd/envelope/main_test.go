package main

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliRunner struct {
	t      *testing.T
	dir    string
	config string
}

func newRunner(t *testing.T) *cliRunner {
	dir := t.TempDir()
	config := filepath.Join(dir, "envelope.yaml")
	require.NoError(t, os.WriteFile(config, []byte("hash_iterations: 9\nsecurity_phrase: cli test\n"), 0o600))
	t.Setenv("ENVELOPE_TEST_PASSWORD", "cli password")
	return &cliRunner{t: t, dir: dir, config: config}
}

func (r *cliRunner) path(name string) string {
	return filepath.Join(r.dir, name)
}

func (r *cliRunner) run(args ...string) (string, error) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	full := append([]string{"envelope", "--config", r.config, "--password-env", "ENVELOPE_TEST_PASSWORD"}, args...)
	err := app.Run(full)
	return out.String(), err
}

func TestHashAndVerify(t *testing.T) {
	r := newRunner(t)
	hash := r.path("pw.passhash")

	_, err := r.run("hash", "--hash", hash)
	require.NoError(t, err)

	out, err := r.run("verify", "--hash", hash)
	require.NoError(t, err)
	assert.Contains(t, out, "password ok")

	t.Setenv("ENVELOPE_TEST_PASSWORD", "not the password")
	_, err = r.run("verify", "--hash", hash)
	assert.ErrorIs(t, err, cryptoerr.ErrWrongPassword)
}

func TestEncryptDecrypt(t *testing.T) {
	r := newRunner(t)
	hash := r.path("pw.passhash")
	_, err := r.run("hash", "--hash", hash)
	require.NoError(t, err)

	plain := r.path("notes.txt")
	require.NoError(t, os.WriteFile(plain, []byte("the notes"), 0o600))

	_, err = r.run("encrypt", "--hash", hash, "--in", plain, "--out", r.path("notes.env"))
	require.NoError(t, err)
	ct, err := os.ReadFile(r.path("notes.env"))
	require.NoError(t, err)
	assert.False(t, bytes.Contains(ct, []byte("the notes")))

	_, err = r.run("decrypt", "--hash", hash, "--in", r.path("notes.env"), "--out", r.path("notes.out"))
	require.NoError(t, err)
	got, err := os.ReadFile(r.path("notes.out"))
	require.NoError(t, err)
	assert.Equal(t, []byte("the notes"), got)
}

func TestKeygenAndPubkey(t *testing.T) {
	r := newRunner(t)
	hash := r.path("pw.passhash")
	_, err := r.run("hash", "--hash", hash)
	require.NoError(t, err)

	key := r.path("id.key")
	generated, err := r.run("keygen", "--hash", hash, "--key", key, "--type", "secp256k1")
	require.NoError(t, err)

	printed, err := r.run("pubkey", "--hash", hash, "--key", key)
	require.NoError(t, err)
	assert.Equal(t, generated, printed)

	blob, err := base64.StdEncoding.DecodeString(strings.TrimSpace(printed))
	require.NoError(t, err)
	assert.NotEmpty(t, blob)
}

func TestCommandErrors(t *testing.T) {
	r := newRunner(t)

	_, err := r.run("verify", "--hash", r.path("missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = r.run("keygen", "--type", "DSA")
	assert.ErrorContains(t, err, "unknown key type")

	_, err = r.run("--log-format", "xml", "verify")
	assert.ErrorContains(t, err, "unknown log format")

	t.Setenv("ENVELOPE_TEST_PASSWORD", "")
	_, err = r.run("hash", "--hash", r.path("x"))
	assert.ErrorContains(t, err, "ENVELOPE_TEST_PASSWORD")
}

func TestParseKeyType(t *testing.T) {
	for _, kt := range catalog.AsymKeyTypes() {
		got, err := parseKeyType(strings.ToLower(kt.String()))
		require.NoError(t, err)
		assert.Equal(t, kt, got)
	}
	_, err := parseKeyType("")
	assert.Error(t, err)
}
