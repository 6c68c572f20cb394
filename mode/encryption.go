package mode

import (
	"io"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/opd-ai/envelope/nybble"
)

// Cascade length bounds.
const (
	MinSteps = 1
	MaxSteps = 6
)

// encryptionSchemas[n] lays out a mode with n steps.
var encryptionSchemas [MaxSteps + 1]*nybble.Schema

func init() {
	for n := MinSteps; n <= MaxSteps; n++ {
		encryptionSchemas[n] = extend(
			nybble.Field{Name: "steps", Slots: 1},
			nybble.Field{Name: "types", Slots: n},
		)
	}
}

// EncryptionModeLen returns the encoded length of a mode with the given step count.
func EncryptionModeLen(steps int) int {
	return nybble.ByteLen(headerSchema.Slots() + 1 + steps)
}

// EncryptionMode records the ordered cascade of symmetric ciphers applied to a
// payload. Build one with NewEncryptionMode, EncryptionModeOf or by decoding;
// the zero value has no steps and encodes to nil.
type EncryptionMode struct {
	SecurityMode
	types []catalog.SymmetricKeyType
}

// NewEncryptionMode draws steps distinct cipher types in random order.
func NewEncryptionMode(rnd io.Reader, steps int, restricted bool) (EncryptionMode, error) {
	if steps < MinSteps || steps > MaxSteps {
		return EncryptionMode{}, cryptoerr.Wrapf(cryptoerr.ErrInvalidConfig,
			"cipher steps %d outside %d..%d", steps, MinSteps, MaxSteps)
	}
	types, err := catalog.Sample(rnd, catalog.SymmetricKeyTypes(), steps)
	if err != nil {
		return EncryptionMode{}, err
	}
	return EncryptionMode{SecurityMode: NewSecurityMode(restricted), types: types}, nil
}

// EncryptionModeOf builds a mode with an explicit cascade order. The types
// must be known, distinct and between MinSteps and MaxSteps in number.
func EncryptionModeOf(restricted bool, types ...catalog.SymmetricKeyType) (EncryptionMode, error) {
	if len(types) < MinSteps || len(types) > MaxSteps {
		return EncryptionMode{}, cryptoerr.Logicf("cascade of %d steps outside %d..%d", len(types), MinSteps, MaxSteps)
	}
	seen := make(map[catalog.SymmetricKeyType]bool, len(types))
	for _, t := range types {
		if !t.Valid() {
			return EncryptionMode{}, cryptoerr.Logicf("invalid symmetric key type %d", t)
		}
		if seen[t] {
			return EncryptionMode{}, cryptoerr.Logicf("cascade repeats %s", t)
		}
		seen[t] = true
	}
	out := make([]catalog.SymmetricKeyType, len(types))
	copy(out, types)
	return EncryptionMode{SecurityMode: NewSecurityMode(restricted), types: out}, nil
}

// Steps returns the cascade length.
func (m EncryptionMode) Steps() int {
	return len(m.types)
}

// Types returns the cascade order.
func (m EncryptionMode) Types() []catalog.SymmetricKeyType {
	out := make([]catalog.SymmetricKeyType, len(m.types))
	copy(out, m.types)
	return out
}

// Encode packs the mode.
func (m EncryptionMode) Encode() []byte {
	if m.Steps() < MinSteps || m.Steps() > MaxSteps {
		return nil
	}
	schema := encryptionSchemas[m.Steps()]
	a := schema.NewArray()
	m.put(schema, a)
	mustPut(schema, a, "steps", uint8(m.Steps()))
	ids := make([]uint8, len(m.types))
	for i, t := range m.types {
		ids[i] = t.ID()
	}
	mustPut(schema, a, "types", ids...)
	return a.Bytes()
}

// Equal reports whether two modes describe the same cascade.
func (m EncryptionMode) Equal(other EncryptionMode) bool {
	if m.SecurityMode != other.SecurityMode || len(m.types) != len(other.types) {
		return false
	}
	for i := range m.types {
		if m.types[i] != other.types[i] {
			return false
		}
	}
	return true
}

// DecodeEncryptionMode parses and validates an encoded EncryptionMode that
// occupies all of b.
func DecodeEncryptionMode(b []byte) (EncryptionMode, error) {
	m, rest, err := ParseEncryptionMode(b)
	if err != nil {
		return EncryptionMode{}, err
	}
	if len(rest) != 0 {
		return EncryptionMode{}, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat,
			"%d trailing bytes after encryption mode", len(rest))
	}
	return m, nil
}

// ParseEncryptionMode decodes an EncryptionMode from the front of b and returns
// the remaining bytes. The step count nybble determines how much is consumed.
func ParseEncryptionMode(b []byte) (EncryptionMode, []byte, error) {
	stepsOffset, _ := encryptionSchemas[MinSteps].Offset("steps")
	if len(b) <= stepsOffset/2 {
		return EncryptionMode{}, nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat,
			"encryption mode truncated at %d bytes", len(b))
	}
	steps := nybbleAt(b, stepsOffset)
	if int(steps) < MinSteps || int(steps) > MaxSteps {
		return EncryptionMode{}, nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat,
			"encryption mode step count %d outside %d..%d", steps, MinSteps, MaxSteps)
	}

	schema := encryptionSchemas[steps]
	n := schema.ByteLen()
	if len(b) < n {
		return EncryptionMode{}, nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat,
			"encryption mode needs %d bytes, have %d", n, len(b))
	}
	a, err := schema.Decode(b[:n])
	if err != nil {
		return EncryptionMode{}, nil, err
	}
	header, err := readHeader(schema, a)
	if err != nil {
		return EncryptionMode{}, nil, err
	}

	ids, err := schema.Get(a, "types")
	if err != nil {
		return EncryptionMode{}, nil, err
	}
	types := make([]catalog.SymmetricKeyType, len(ids))
	seen := make(map[catalog.SymmetricKeyType]bool, len(ids))
	for i, id := range ids {
		t, err := catalog.SymmetricKeyTypeFromID(id)
		if err != nil {
			return EncryptionMode{}, nil, err
		}
		if seen[t] {
			return EncryptionMode{}, nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat,
				"encryption mode repeats %s", t)
		}
		seen[t] = true
		types[i] = t
	}
	return EncryptionMode{SecurityMode: header, types: types}, b[n:], nil
}

func nybbleAt(b []byte, slot int) uint8 {
	v := b[slot/2]
	if slot%2 == 1 {
		v >>= 4
	}
	return v & 0xF
}
