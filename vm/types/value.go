package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

/*ValueType - the type prefix of a serialized value */
type ValueType byte

// type prefixes of the consensus serialization
const (
	TypeInt               ValueType = 0x00
	TypeUInt              ValueType = 0x01
	TypeBuffer            ValueType = 0x02
	TypeBoolTrue          ValueType = 0x03
	TypeBoolFalse         ValueType = 0x04
	TypeStandardPrincipal ValueType = 0x05
	TypeContractPrincipal ValueType = 0x06
	TypeResponseOk        ValueType = 0x07
	TypeResponseErr       ValueType = 0x08
	TypeOptionalNone      ValueType = 0x09
	TypeOptionalSome      ValueType = 0x0a
	TypeList              ValueType = 0x0b
	TypeTuple             ValueType = 0x0c
	TypeStringASCII       ValueType = 0x0d
)

// limits enforced on construction and decoding
const (
	MaxValueDepth = 32
	MaxValueSize  = 1 << 20
)

/*Value - a contract value. The set of implementations is closed. */
type Value interface {
	Type() ValueType
	TypeName() string
	String() string
	serialize(w *bytes.Buffer, depth int) error
}

// Equal reports whether a and b are the same value.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	sa, err := Serialize(a)
	if err != nil {
		return false
	}
	sb, err := Serialize(b)
	if err != nil {
		return false
	}
	return bytes.Equal(sa, sb)
}

/*BoolValue - true or false */
type BoolValue bool

// Bool returns a bool value.
func Bool(b bool) BoolValue { return BoolValue(b) }

/*Type - implement interface */
func (b BoolValue) Type() ValueType {
	if b {
		return TypeBoolTrue
	}
	return TypeBoolFalse
}

/*TypeName - implement interface */
func (b BoolValue) TypeName() string { return "bool" }

func (b BoolValue) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (b BoolValue) serialize(w *bytes.Buffer, _ int) error {
	w.WriteByte(byte(b.Type()))
	return nil
}

/*BufferValue - an opaque byte string */
type BufferValue []byte

// Buffer returns a buffer value holding a copy of data.
func Buffer(data []byte) BufferValue {
	return BufferValue(append([]byte{}, data...))
}

/*Type - implement interface */
func (b BufferValue) Type() ValueType { return TypeBuffer }

/*TypeName - implement interface */
func (b BufferValue) TypeName() string { return "buff" }

func (b BufferValue) String() string { return "0x" + hex.EncodeToString(b) }

func (b BufferValue) serialize(w *bytes.Buffer, _ int) error {
	w.WriteByte(byte(TypeBuffer))
	writeU32(w, len(b))
	w.Write(b)
	return nil
}

/*StringASCIIValue - a printable ascii string */
type StringASCIIValue string

// StringASCII validates s and returns it as a value.
func StringASCII(s string) (StringASCIIValue, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			if s[i] != '\n' && s[i] != '\t' && s[i] != '\r' {
				return "", ErrEncoding
			}
		}
	}
	return StringASCIIValue(s), nil
}

/*Type - implement interface */
func (s StringASCIIValue) Type() ValueType { return TypeStringASCII }

/*TypeName - implement interface */
func (s StringASCIIValue) TypeName() string { return "string-ascii" }

func (s StringASCIIValue) String() string { return fmt.Sprintf("%q", string(s)) }

func (s StringASCIIValue) serialize(w *bytes.Buffer, _ int) error {
	w.WriteByte(byte(TypeStringASCII))
	writeU32(w, len(s))
	w.WriteString(string(s))
	return nil
}

/*OptionalValue - some value or none */
type OptionalValue struct {
	Data Value // nil for none
}

// None returns the empty optional.
func None() OptionalValue { return OptionalValue{} }

// Some wraps v.
func Some(v Value) OptionalValue { return OptionalValue{Data: v} }

// IsSome reports whether the optional holds a value.
func (o OptionalValue) IsSome() bool { return o.Data != nil }

/*Type - implement interface */
func (o OptionalValue) Type() ValueType {
	if o.Data == nil {
		return TypeOptionalNone
	}
	return TypeOptionalSome
}

/*TypeName - implement interface */
func (o OptionalValue) TypeName() string { return "optional" }

func (o OptionalValue) String() string {
	if o.Data == nil {
		return "none"
	}
	return "(some " + o.Data.String() + ")"
}

func (o OptionalValue) serialize(w *bytes.Buffer, depth int) error {
	w.WriteByte(byte(o.Type()))
	if o.Data == nil {
		return nil
	}
	return serializeNested(w, o.Data, depth)
}

/*ResponseValue - ok or err carrying a value; Committed is true for ok */
type ResponseValue struct {
	Committed bool
	Data      Value
}

// Ok returns (ok v).
func Ok(v Value) ResponseValue { return ResponseValue{Committed: true, Data: v} }

// Err returns (err v).
func Err(v Value) ResponseValue { return ResponseValue{Committed: false, Data: v} }

/*Type - implement interface */
func (r ResponseValue) Type() ValueType {
	if r.Committed {
		return TypeResponseOk
	}
	return TypeResponseErr
}

/*TypeName - implement interface */
func (r ResponseValue) TypeName() string { return "response" }

func (r ResponseValue) String() string {
	if r.Committed {
		return "(ok " + r.Data.String() + ")"
	}
	return "(err " + r.Data.String() + ")"
}

func (r ResponseValue) serialize(w *bytes.Buffer, depth int) error {
	w.WriteByte(byte(r.Type()))
	if r.Data == nil {
		return ErrEncoding
	}
	return serializeNested(w, r.Data, depth)
}

/*ListValue - an ordered sequence of values */
type ListValue []Value

// List returns a list value.
func List(items ...Value) ListValue { return ListValue(items) }

/*Type - implement interface */
func (l ListValue) Type() ValueType { return TypeList }

/*TypeName - implement interface */
func (l ListValue) TypeName() string { return "list" }

func (l ListValue) String() string {
	parts := make([]string, 0, len(l)+1)
	parts = append(parts, "(list")
	for _, v := range l {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, " ") + ")"
}

func (l ListValue) serialize(w *bytes.Buffer, depth int) error {
	w.WriteByte(byte(TypeList))
	writeU32(w, len(l))
	for _, v := range l {
		if err := serializeNested(w, v, depth); err != nil {
			return err
		}
	}
	return nil
}

/*TupleField - a named tuple member */
type TupleField struct {
	Name  string
	Value Value
}

/*TupleValue - named fields kept ordered by name */
type TupleValue struct {
	fields []TupleField
}

// Tuple builds a tuple; names must be valid and distinct.
func Tuple(fields ...TupleField) (TupleValue, error) {
	sorted := append([]TupleField(nil), fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for i, f := range sorted {
		if err := ValidateName(f.Name); err != nil {
			return TupleValue{}, err
		}
		if f.Value == nil {
			return TupleValue{}, ErrEncoding
		}
		if i > 0 && sorted[i-1].Name == f.Name {
			return TupleValue{}, ErrInvalidIdentifier
		}
	}
	return TupleValue{fields: sorted}, nil
}

// Fields returns the fields ordered by name.
func (t TupleValue) Fields() []TupleField {
	return append([]TupleField(nil), t.fields...)
}

// Get returns the named field.
func (t TupleValue) Get(name string) (Value, bool) {
	idx := sort.Search(len(t.fields), func(i int) bool { return t.fields[i].Name >= name })
	if idx < len(t.fields) && t.fields[idx].Name == name {
		return t.fields[idx].Value, true
	}
	return nil, false
}

/*Type - implement interface */
func (t TupleValue) Type() ValueType { return TypeTuple }

/*TypeName - implement interface */
func (t TupleValue) TypeName() string { return "tuple" }

func (t TupleValue) String() string {
	parts := make([]string, 0, len(t.fields)+1)
	parts = append(parts, "(tuple")
	for _, f := range t.fields {
		parts = append(parts, "("+f.Name+" "+f.Value.String()+")")
	}
	return strings.Join(parts, " ") + ")"
}

func (t TupleValue) serialize(w *bytes.Buffer, depth int) error {
	w.WriteByte(byte(TypeTuple))
	writeU32(w, len(t.fields))
	for _, f := range t.fields {
		w.WriteByte(byte(len(f.Name)))
		w.WriteString(f.Name)
		if err := serializeNested(w, f.Value, depth); err != nil {
			return err
		}
	}
	return nil
}
