package cipherset

import (
	"sync"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/opd-ai/envelope/mode"
	"github.com/sirupsen/logrus"
)

// CipherSet is a keyed cascade. It is safe for concurrent use.
type CipherSet struct {
	provider   crypto.Provider
	cfg        crypto.Config
	digest     catalog.DigestType
	restricted bool
	stages     map[catalog.SymmetricKeyType]crypto.StageCipher

	mu      sync.Mutex
	wrapped map[*crypto.SymmetricKey][]byte
}

// New derives a CipherSet from secret. The digest keys the derivation MAC and
// restricted selects the shorter key lengths.
func New(provider crypto.Provider, cfg crypto.Config, digest catalog.DigestType, restricted bool, secret []byte) (*CipherSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, cryptoerr.Logicf("cipher set secret is empty")
	}

	keys := make([]*crypto.SymmetricKey, 0, len(catalog.SymmetricKeyTypes()))
	for _, t := range catalog.SymmetricKeyTypes() {
		key, err := deriveKey(provider, cfg, digest, restricted, secret, t)
		if err != nil {
			wipeKeys(keys)
			return nil, err
		}
		keys = append(keys, key)
	}

	cs, err := build(provider, cfg, digest, restricted, keys)
	if err != nil {
		wipeKeys(keys)
		return nil, err
	}

	crypto.NewPackageLogger("cipherset", "New").WithFields(logrus.Fields{
		"digest":     digest.String(),
		"restricted": restricted,
		"steps":      cfg.CipherSteps,
	}).Info("Cipher set derived")
	return cs, nil
}

// FromHashMode derives a CipherSet with the cipher digest and restriction of m.
func FromHashMode(provider crypto.Provider, cfg crypto.Config, m mode.HashMode, secret []byte) (*CipherSet, error) {
	return New(provider, cfg, m.CipherDigest, m.Restricted(), secret)
}

// FromAsymKeyMode derives a CipherSet with the cipher digest and restriction of m.
func FromAsymKeyMode(provider crypto.Provider, cfg crypto.Config, m mode.AsymKeyMode, secret []byte) (*CipherSet, error) {
	return New(provider, cfg, m.CipherDigest, m.Restricted(), secret)
}

// FromKeys builds a CipherSet from explicit keys, one per catalog cipher.
func FromKeys(provider crypto.Provider, cfg crypto.Config, digest catalog.DigestType, keys []*crypto.SymmetricKey) (*CipherSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(keys) != len(catalog.SymmetricKeyTypes()) {
		return nil, cryptoerr.Logicf("cipher set needs %d keys, got %d", len(catalog.SymmetricKeyTypes()), len(keys))
	}
	restricted := false
	for _, k := range keys {
		if k.Restricted() {
			restricted = true
		}
	}
	owned := make([]*crypto.SymmetricKey, 0, len(keys))
	for _, k := range keys {
		c, err := crypto.NewSymmetricKey(k.Type, k.Bytes())
		if err != nil {
			wipeKeys(owned)
			return nil, err
		}
		owned = append(owned, c)
	}
	cs, err := build(provider, cfg, digest, restricted, owned)
	if err != nil {
		wipeKeys(owned)
		return nil, err
	}
	return cs, nil
}

func build(provider crypto.Provider, cfg crypto.Config, digest catalog.DigestType, restricted bool, keys []*crypto.SymmetricKey) (*CipherSet, error) {
	cs := &CipherSet{
		provider:   provider,
		cfg:        cfg,
		digest:     digest,
		restricted: restricted,
		stages:     make(map[catalog.SymmetricKeyType]crypto.StageCipher, len(keys)),
		wrapped:    make(map[*crypto.SymmetricKey][]byte),
	}
	for _, key := range keys {
		if _, dup := cs.stages[key.Type]; dup {
			return nil, cryptoerr.Logicf("duplicate %s key", key.Type)
		}
		stage, err := provider.Cipher(key.Type, key)
		if err != nil {
			return nil, err
		}
		cs.stages[key.Type] = stage
	}
	for _, t := range catalog.SymmetricKeyTypes() {
		if _, ok := cs.stages[t]; !ok {
			return nil, cryptoerr.Logicf("missing %s key", t)
		}
	}
	return cs, nil
}

// deriveKey runs the section loop for one cipher.
func deriveKey(provider crypto.Provider, cfg crypto.Config, digest catalog.DigestType, restricted bool, secret []byte, t catalog.SymmetricKeyType) (*crypto.SymmetricKey, error) {
	mac, err := provider.MAC(digest, secret)
	if err != nil {
		return nil, err
	}
	need := t.KeyLength(restricted)
	name := []byte(t.String())
	phrase := cfg.PhraseBytes()

	key := make([]byte, 0, need)
	defer crypto.ZeroBytes(key[:cap(key)])
	logger := crypto.NewPackageLogger("cipherset", "deriveKey").WithField("cipher", t.String())

	for section := 0; len(key) < need; section++ {
		sectionCounter, err := crypto.CounterBytes(section)
		if err != nil {
			return nil, err
		}

		buf := make([]byte, 0, cfg.HashIterations*mac.Size())
		for loop := 0; loop < cfg.HashIterations; loop++ {
			loopCounter, err := crypto.CounterBytes(loop)
			if err != nil {
				crypto.ZeroBytes(buf)
				return nil, err
			}
			mac.Write(sectionCounter)
			mac.Write(name)
			mac.Write(loopCounter)
			mac.Write(phrase)
			buf = mac.Sum(buf)
		}

		take := need - len(key)
		if take > len(buf) {
			take = len(buf)
		}
		key = append(key, buf[len(buf)-take:]...)
		crypto.ZeroBytes(buf)
		mac.Reset()

		if logger.DebugEnabled() {
			logger.WithFields(logrus.Fields{
				"section": section,
				"built":   len(key),
				"need":    need,
			}).Debug("Derived key section")
		}
	}

	return crypto.NewSymmetricKey(t, key)
}

func wipeKeys(keys []*crypto.SymmetricKey) {
	for _, k := range keys {
		k.Wipe()
	}
}

// Steps returns the configured cascade length.
func (cs *CipherSet) Steps() int {
	return cs.cfg.CipherSteps
}

// Digest returns the digest the keys were derived with.
func (cs *CipherSet) Digest() catalog.DigestType {
	return cs.digest
}

// Restricted reports whether the keys use restricted lengths.
func (cs *CipherSet) Restricted() bool {
	return cs.restricted
}

// Key returns the derived key of one cipher.
func (cs *CipherSet) Key(t catalog.SymmetricKeyType) (*crypto.SymmetricKey, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	stage, ok := cs.stages[t]
	if !ok {
		return nil, false
	}
	return stage.Key(), true
}

// keys snapshots the key map.
func (cs *CipherSet) keys() map[catalog.SymmetricKeyType]*crypto.SymmetricKey {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make(map[catalog.SymmetricKeyType]*crypto.SymmetricKey, len(cs.stages))
	for t, stage := range cs.stages {
		out[t] = stage.Key()
	}
	return out
}

// Equal reports whether both sets use the same step count and keys.
func (cs *CipherSet) Equal(other *CipherSet) bool {
	if cs == nil || other == nil {
		return cs == other
	}
	if cs == other {
		return true
	}
	if cs.Steps() != other.Steps() {
		return false
	}
	mine, theirs := cs.keys(), other.keys()
	if len(mine) != len(theirs) {
		return false
	}
	for t, k := range mine {
		o, ok := theirs[t]
		if !ok || !k.Equal(o) {
			return false
		}
	}
	return true
}

// Wipe zeroes every key and drops cached wrapped keys. The set is unusable
// afterwards.
func (cs *CipherSet) Wipe() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for _, stage := range cs.stages {
		stage.Key().Wipe()
	}
	cs.stages = map[catalog.SymmetricKeyType]crypto.StageCipher{}
	cs.wrapped = make(map[*crypto.SymmetricKey][]byte)
}
