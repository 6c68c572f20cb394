package mode

import (
	"io"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/opd-ai/envelope/nybble"
)

var asymKeySchema = extend(
	nybble.Field{Name: "keyType", Slots: 1},
	nybble.Field{Name: "cipherDigest", Slots: 1},
)

// AsymKeyModeLen is the encoded length of an AsymKeyMode.
var AsymKeyModeLen = asymKeySchema.ByteLen()

// AsymKeyMode describes an asymmetric key pair and the digest its CipherSets use.
type AsymKeyMode struct {
	SecurityMode
	KeyType      catalog.AsymKeyType
	CipherDigest catalog.DigestType
}

// NewAsymKeyMode picks a random cipher digest for keyType.
func NewAsymKeyMode(rnd io.Reader, keyType catalog.AsymKeyType, restricted bool) (AsymKeyMode, error) {
	if !keyType.Valid() {
		return AsymKeyMode{}, cryptoerr.Logicf("invalid asymmetric key type %d", keyType)
	}
	digest, err := catalog.Pick(rnd, catalog.DigestTypes())
	if err != nil {
		return AsymKeyMode{}, err
	}
	return AsymKeyMode{
		SecurityMode: NewSecurityMode(restricted),
		KeyType:      keyType,
		CipherDigest: digest,
	}, nil
}

// Encode packs the mode.
func (m AsymKeyMode) Encode() []byte {
	a := asymKeySchema.NewArray()
	m.put(asymKeySchema, a)
	mustPut(asymKeySchema, a, "keyType", m.KeyType.ID())
	mustPut(asymKeySchema, a, "cipherDigest", m.CipherDigest.ID())
	return a.Bytes()
}

// DecodeAsymKeyMode parses and validates an encoded AsymKeyMode.
func DecodeAsymKeyMode(b []byte) (AsymKeyMode, error) {
	a, err := asymKeySchema.Decode(b)
	if err != nil {
		return AsymKeyMode{}, err
	}
	header, err := readHeader(asymKeySchema, a)
	if err != nil {
		return AsymKeyMode{}, err
	}
	keyType, err := catalog.AsymKeyTypeFromID(mustGet(asymKeySchema, a, "keyType"))
	if err != nil {
		return AsymKeyMode{}, err
	}
	digest, err := catalog.DigestTypeFromID(mustGet(asymKeySchema, a, "cipherDigest"))
	if err != nil {
		return AsymKeyMode{}, err
	}
	return AsymKeyMode{SecurityMode: header, KeyType: keyType, CipherDigest: digest}, nil
}
