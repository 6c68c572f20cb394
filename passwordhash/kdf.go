package passwordhash

import (
	"hash"

	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/mode"
)

// Chain finalization moduli: a chain is finalized on every pass not divisible
// by its modulus, and always on the final pass.
const (
	primeModulus     = 3
	alternateModulus = 5
	secretModulus    = 7
)

// chain is one keyed-hash sequence of the KDF.
type chain struct {
	mac     hash.Hash
	modulus int
	hash    []byte
	acc     []byte
}

func newChain(mac hash.Hash, modulus int, salt []byte) *chain {
	h := make([]byte, len(salt))
	copy(h, salt)
	return &chain{mac: mac, modulus: modulus, hash: h}
}

func (c *chain) update(counter, phrase []byte) {
	c.mac.Write(c.hash)
	c.mac.Write(counter)
	c.mac.Write(phrase)
}

func (c *chain) due(pass, final int) bool {
	return pass == final || pass%c.modulus != 0
}

func (c *chain) finalize() {
	next := c.mac.Sum(nil)
	c.mac.Reset()
	crypto.ZeroBytes(c.hash)
	c.hash = next
	c.acc = combineHashes(c.acc, next)
}

func (c *chain) wipe() {
	crypto.ZeroAll(c.hash, c.acc)
	c.mac.Reset()
}

// combineHashes folds h into acc with XOR, growing acc to the longer length.
func combineHashes(acc, h []byte) []byte {
	if len(h) > len(acc) {
		grown := make([]byte, len(h))
		copy(grown, acc)
		crypto.ZeroBytes(acc)
		acc = grown
	}
	for i, v := range h {
		acc[i] ^= v
	}
	return acc
}

// generateHashBytes runs the three-chain KDF and returns the exportable
// external hash and the private secret seed.
func generateHashBytes(provider crypto.Provider, cfg crypto.Config, m mode.HashMode, salt, password []byte) (external, secret []byte, err error) {
	primeMAC, err := provider.MAC(m.Prime, password)
	if err != nil {
		return nil, nil, err
	}
	altMAC, err := provider.MAC(m.Alternate, password)
	if err != nil {
		return nil, nil, err
	}
	secretMAC, err := provider.MAC(m.Secret, password)
	if err != nil {
		return nil, nil, err
	}

	prime := newChain(primeMAC, primeModulus, salt)
	alt := newChain(altMAC, alternateModulus, salt)
	sec := newChain(secretMAC, secretModulus, salt)

	iSwitch, iFinal := m.Iterations(cfg.HashIterations)
	phrase := cfg.PhraseBytes()

	for pass := 1; pass <= iFinal; pass++ {
		counter, err := crypto.CounterBytes(pass)
		if err != nil {
			prime.wipe()
			alt.wipe()
			sec.wipe()
			return nil, nil, err
		}

		prime.update(counter, phrase)
		if prime.due(pass, iFinal) {
			prime.finalize()
		}

		alt.update(counter, phrase)
		if alt.due(pass, iFinal) {
			alt.finalize()
		}

		sec.update(counter, phrase)
		if sec.due(pass, iFinal) {
			sec.finalize()
		} else {
			// Bind the secret chain to the other two without advancing it.
			sec.mac.Write(prime.hash)
			sec.mac.Write(alt.hash)
		}

		if pass == iSwitch {
			prime.hash, alt.hash = alt.hash, prime.hash
		}
	}

	external = make([]byte, 0, len(prime.acc)+len(alt.acc))
	external = append(external, prime.acc...)
	external = append(external, alt.acc...)
	secret = append([]byte(nil), sec.acc...)

	prime.wipe()
	alt.wipe()
	sec.wipe()
	return external, secret, nil
}
