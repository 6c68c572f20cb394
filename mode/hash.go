package mode

import (
	"io"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/opd-ai/envelope/nybble"
)

// Adjustment bounds for HashMode.SwitchAdjust and HashMode.FinalAdjust.
const (
	MinAdjust uint8 = 1
	MaxAdjust uint8 = 15
)

var hashSchema = extend(
	nybble.Field{Name: "prime", Slots: 1},
	nybble.Field{Name: "alternate", Slots: 1},
	nybble.Field{Name: "secret", Slots: 1},
	nybble.Field{Name: "cipherDigest", Slots: 1},
	nybble.Field{Name: "switchAdjust", Slots: 1},
	nybble.Field{Name: "finalAdjust", Slots: 1},
)

// HashModeLen is the encoded length of a HashMode.
var HashModeLen = hashSchema.ByteLen()

// HashMode parameterizes the password KDF.
type HashMode struct {
	SecurityMode
	Prime        catalog.DigestType
	Alternate    catalog.DigestType
	Secret       catalog.DigestType
	CipherDigest catalog.DigestType
	SwitchAdjust uint8
	FinalAdjust  uint8
}

// NewHashMode draws three distinct chain digests, an independent cipher digest
// and both adjustments.
func NewHashMode(rnd io.Reader, restricted bool) (HashMode, error) {
	chains, err := catalog.Sample(rnd, catalog.DigestTypes(), 3)
	if err != nil {
		return HashMode{}, err
	}
	cipherDigest, err := catalog.Pick(rnd, catalog.DigestTypes())
	if err != nil {
		return HashMode{}, err
	}
	switchAdjust, err := randomAdjust(rnd)
	if err != nil {
		return HashMode{}, err
	}
	finalAdjust, err := randomAdjust(rnd)
	if err != nil {
		return HashMode{}, err
	}
	return HashMode{
		SecurityMode: NewSecurityMode(restricted),
		Prime:        chains[0],
		Alternate:    chains[1],
		Secret:       chains[2],
		CipherDigest: cipherDigest,
		SwitchAdjust: switchAdjust,
		FinalAdjust:  finalAdjust,
	}, nil
}

func randomAdjust(rnd io.Reader) (uint8, error) {
	n, err := catalog.RandIntn(rnd, int(MaxAdjust-MinAdjust)+1)
	if err != nil {
		return 0, err
	}
	return MinAdjust + uint8(n), nil
}

// Encode packs the mode.
func (m HashMode) Encode() []byte {
	a := hashSchema.NewArray()
	m.put(hashSchema, a)
	mustPut(hashSchema, a, "prime", m.Prime.ID())
	mustPut(hashSchema, a, "alternate", m.Alternate.ID())
	mustPut(hashSchema, a, "secret", m.Secret.ID())
	mustPut(hashSchema, a, "cipherDigest", m.CipherDigest.ID())
	mustPut(hashSchema, a, "switchAdjust", m.SwitchAdjust&0xF)
	mustPut(hashSchema, a, "finalAdjust", m.FinalAdjust&0xF)
	return a.Bytes()
}

// Iterations returns the switch and final pass numbers for a base iteration count.
func (m HashMode) Iterations(iterations int) (iSwitch, iFinal int) {
	return int(m.SwitchAdjust) + iterations/2, int(m.FinalAdjust) + iterations
}

// DecodeHashMode parses and validates an encoded HashMode.
func DecodeHashMode(b []byte) (HashMode, error) {
	a, err := hashSchema.Decode(b)
	if err != nil {
		return HashMode{}, err
	}
	header, err := readHeader(hashSchema, a)
	if err != nil {
		return HashMode{}, err
	}
	m := HashMode{SecurityMode: header}

	digests := []struct {
		field string
		dst   *catalog.DigestType
	}{
		{"prime", &m.Prime},
		{"alternate", &m.Alternate},
		{"secret", &m.Secret},
		{"cipherDigest", &m.CipherDigest},
	}
	for _, d := range digests {
		*d.dst, err = catalog.DigestTypeFromID(mustGet(hashSchema, a, d.field))
		if err != nil {
			return HashMode{}, err
		}
	}

	m.SwitchAdjust = mustGet(hashSchema, a, "switchAdjust")
	m.FinalAdjust = mustGet(hashSchema, a, "finalAdjust")
	if m.SwitchAdjust < MinAdjust || m.FinalAdjust < MinAdjust {
		return HashMode{}, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat,
			"hash mode adjustments %d/%d out of range", m.SwitchAdjust, m.FinalAdjust)
	}
	return m, nil
}
