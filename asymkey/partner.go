package asymkey

import (
	"bytes"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cipherset"
	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/sirupsen/logrus"
)

// identity keys the partner memo.
func (k *Key) identity() string {
	return string(k.mode.Encode()) + string(k.pair.Public)
}

func (k *Key) checkPartner(partner *Key) error {
	if partner == nil {
		return cryptoerr.Logicf("nil partner key")
	}
	if partner.mode.KeyType != k.mode.KeyType {
		return cryptoerr.Wrapf(cryptoerr.ErrPartnerMismatch, "%s key with %s partner",
			k.mode.KeyType, partner.mode.KeyType)
	}
	return nil
}

func (k *Key) isSelf(partner *Key) bool {
	return partner == k || bytes.Equal(partner.pair.Public, k.pair.Public)
}

// partnerDigest is the cipher digest of the side with the smaller public
// encoding, so both ends agree on it.
func (k *Key) partnerDigest(partner *Key) catalog.DigestType {
	if bytes.Compare(k.pair.Public, partner.pair.Public) <= 0 {
		return k.mode.CipherDigest
	}
	return partner.mode.CipherDigest
}

// CipherSetFor returns the CipherSet shared with partner, deriving it from the
// key agreement on first use. Only elliptic key types have one.
func (k *Key) CipherSetFor(partner *Key) (*cipherset.CipherSet, error) {
	if err := k.checkPartner(partner); err != nil {
		return nil, err
	}
	if !k.mode.KeyType.Elliptic() {
		return nil, cryptoerr.Logicf("%s keys have no shared cipher set", k.mode.KeyType)
	}
	self := k.isSelf(partner)
	id := partner.identity()

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return nil, errDestroyed()
	}
	if self && k.self != nil {
		return k.self, nil
	}
	if cs, ok := k.partners[id]; ok && !self {
		return cs, nil
	}
	if !k.pair.HasPrivate() {
		return nil, cryptoerr.ErrPublicOnly
	}

	cs, err := k.buildCipherSet(partner)
	if err != nil {
		return nil, err
	}
	if self {
		k.self = cs
	} else {
		k.partners[id] = cs
	}
	return cs, nil
}

// buildCipherSet runs the key agreement and derives the set. k.mu is held.
func (k *Key) buildCipherSet(partner *Key) (*cipherset.CipherSet, error) {
	agreement, err := k.provider.KeyAgreement(k.mode.KeyType)
	if err != nil {
		return nil, err
	}
	shared, err := agreement.SharedSecret(k.pair.Private, partner.pair.Public)
	if err != nil {
		return nil, err
	}
	defer crypto.ZeroBytes(shared)

	digest := k.partnerDigest(partner)
	restricted := k.mode.Restricted() || partner.mode.Restricted()
	cs, err := cipherset.New(k.provider, k.cfg, digest, restricted, shared)
	if err != nil {
		return nil, err
	}
	n := k.builds.Inc()

	crypto.NewPackageLogger("asymkey", "CipherSetFor").WithFields(logrus.Fields{
		"agreement": agreement.Name(),
		"digest":    digest.String(),
		"builds":    n,
	}).Debug("Partner cipher set derived")
	return cs, nil
}
