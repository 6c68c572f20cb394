package nybble

import (
	"github.com/opd-ai/envelope/cryptoerr"
)

// Field declares a named run of slots inside a Schema.
type Field struct {
	Name  string
	Slots int
}

// Schema is an ordered field layout with precomputed offsets.
type Schema struct {
	fields  []Field
	offsets map[string]int
	slots   map[string]int
	total   int
}

// NewSchema builds a schema from fields in order. Field names must be unique
// and slot counts non-negative.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields:  make([]Field, 0, len(fields)),
		offsets: make(map[string]int, len(fields)),
		slots:   make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Slots < 0 {
			return nil, cryptoerr.Logicf("field %q has negative slot count", f.Name)
		}
		if _, dup := s.offsets[f.Name]; dup {
			return nil, cryptoerr.Logicf("duplicate field %q", f.Name)
		}
		s.fields = append(s.fields, f)
		s.offsets[f.Name] = s.total
		s.slots[f.Name] = f.Slots
		s.total += f.Slots
	}
	return s, nil
}

// MustSchema is NewSchema for package-level layouts known to be valid.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Extend returns a new schema with more fields appended after s.
func (s *Schema) Extend(fields ...Field) (*Schema, error) {
	all := make([]Field, 0, len(s.fields)+len(fields))
	all = append(all, s.fields...)
	all = append(all, fields...)
	return NewSchema(all...)
}

// Slots returns the total slot count.
func (s *Schema) Slots() int {
	return s.total
}

// ByteLen returns the encoded length of the schema.
func (s *Schema) ByteLen() int {
	return ByteLen(s.total)
}

// Fields returns the layout in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Offset returns the first slot of the named field.
func (s *Schema) Offset(name string) (int, bool) {
	off, ok := s.offsets[name]
	return off, ok
}

// NewArray returns a zeroed array sized for s.
func (s *Schema) NewArray() *Array {
	return NewArray(s.total)
}

// Decode parses b as an array laid out by s.
func (s *Schema) Decode(b []byte) (*Array, error) {
	return FromBytes(b, s.total)
}

// Put stores values into the named field, one per slot.
func (s *Schema) Put(a *Array, name string, values ...uint8) error {
	off, ok := s.offsets[name]
	if !ok {
		return cryptoerr.Logicf("unknown field %q", name)
	}
	if len(values) != s.slots[name] {
		return cryptoerr.Logicf("field %q takes %d values, got %d", name, s.slots[name], len(values))
	}
	for i, v := range values {
		if err := a.Set(off+i, v); err != nil {
			return err
		}
	}
	return nil
}

// Get reads the named field.
func (s *Schema) Get(a *Array, name string) ([]uint8, error) {
	off, ok := s.offsets[name]
	if !ok {
		return nil, cryptoerr.Logicf("unknown field %q", name)
	}
	if a.Len() < off+s.slots[name] {
		return nil, cryptoerr.Logicf("array of %d slots too short for field %q", a.Len(), name)
	}
	out := make([]uint8, s.slots[name])
	for i := range out {
		out[i] = a.Get(off + i)
	}
	return out, nil
}

// GetOne reads a single-slot field.
func (s *Schema) GetOne(a *Array, name string) (uint8, error) {
	v, err := s.Get(a, name)
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, cryptoerr.Logicf("field %q has %d slots", name, len(v))
	}
	return v[0], nil
}
