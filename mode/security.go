package mode

import (
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/opd-ai/envelope/nybble"
)

// Version is the only header version this package reads or writes.
const Version uint8 = 1

// FlagRestricted marks a mode whose symmetric keys use restricted lengths.
const FlagRestricted uint8 = 0x4

const knownFlags = FlagRestricted

const (
	fieldVersion = "version"
	fieldFlags   = "flags"
)

var headerSchema = nybble.MustSchema(
	nybble.Field{Name: fieldVersion, Slots: 1},
	nybble.Field{Name: fieldFlags, Slots: 1},
)

// Mode is implemented by every descriptor.
type Mode interface {
	Encode() []byte
	Restricted() bool
}

// SecurityMode is the header shared by all modes.
type SecurityMode struct {
	Version uint8
	Flags   uint8
}

// NewSecurityMode returns a current-version header.
func NewSecurityMode(restricted bool) SecurityMode {
	s := SecurityMode{Version: Version}
	if restricted {
		s.Flags |= FlagRestricted
	}
	return s
}

// Restricted reports whether the restricted flag is set.
func (s SecurityMode) Restricted() bool {
	return s.Flags&FlagRestricted != 0
}

// Encode returns the one-byte header.
func (s SecurityMode) Encode() []byte {
	a := headerSchema.NewArray()
	s.put(headerSchema, a)
	return a.Bytes()
}

// DecodeSecurityMode parses a bare header.
func DecodeSecurityMode(b []byte) (SecurityMode, error) {
	a, err := headerSchema.Decode(b)
	if err != nil {
		return SecurityMode{}, err
	}
	return readHeader(headerSchema, a)
}

func (s SecurityMode) put(schema *nybble.Schema, a *nybble.Array) {
	mustPut(schema, a, fieldVersion, s.Version)
	mustPut(schema, a, fieldFlags, s.Flags)
}

func readHeader(schema *nybble.Schema, a *nybble.Array) (SecurityMode, error) {
	version := mustGet(schema, a, fieldVersion)
	if version != Version {
		return SecurityMode{}, cryptoerr.Wrapf(cryptoerr.ErrVersionMismatch, "got %d, want %d", version, Version)
	}
	flags := mustGet(schema, a, fieldFlags)
	if flags&^knownFlags != 0 {
		return SecurityMode{}, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "unknown mode flags %#x", flags)
	}
	return SecurityMode{Version: version, Flags: flags}, nil
}

func extend(fields ...nybble.Field) *nybble.Schema {
	s, err := headerSchema.Extend(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// mustPut and mustGet operate on fields that exist in the schema by
// construction, with values already range-checked by the caller.
func mustPut(schema *nybble.Schema, a *nybble.Array, name string, values ...uint8) {
	if err := schema.Put(a, name, values...); err != nil {
		panic(err)
	}
}

func mustGet(schema *nybble.Schema, a *nybble.Array, name string) uint8 {
	v, err := schema.GetOne(a, name)
	if err != nil {
		panic(err)
	}
	return v
}
