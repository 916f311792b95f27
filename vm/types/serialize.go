package types

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
)

// Serialize returns the consensus serialization of v.
func Serialize(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := v.serialize(&buf, 0); err != nil {
		return nil, err
	}
	if buf.Len() > MaxValueSize {
		return nil, ErrValueTooLarge
	}
	return buf.Bytes(), nil
}

// MustSerialize panics on values that cannot be serialized.
func MustSerialize(v Value) []byte {
	data, err := Serialize(v)
	if err != nil {
		panic(err)
	}
	return data
}

// SerializeHex returns the serialization as 0x prefixed hex.
func SerializeHex(v Value) string {
	data, err := Serialize(v)
	if err != nil {
		return ""
	}
	return "0x" + hex.EncodeToString(data)
}

func serializeNested(w *bytes.Buffer, v Value, depth int) error {
	if depth+1 > MaxValueDepth {
		return ErrValueTooLarge
	}
	if v == nil {
		return ErrEncoding
	}
	return v.serialize(w, depth+1)
}

func writeU32(w *bytes.Buffer, n int) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(n))
	w.Write(b[:])
}

// Deserialize decodes exactly one value spanning all of data.
func Deserialize(data []byte) (Value, error) {
	if len(data) > MaxValueSize {
		return nil, ErrValueTooLarge
	}
	d := &decoder{data: data}
	v, err := d.value(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, ErrEncoding
	}
	return v, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || len(d.data)-d.pos < n {
		return nil, ErrEncoding
	}
	out := d.data[d.pos : d.pos+n]
	d.pos += n
	return out, nil
}

func (d *decoder) readByte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) u32() (int, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	n := binary.BigEndian.Uint32(b)
	if n > MaxValueSize {
		return 0, ErrEncoding
	}
	return int(n), nil
}

func (d *decoder) standardPrincipal() (StandardPrincipal, error) {
	b, err := d.take(1 + PrincipalHashLength)
	if err != nil {
		return StandardPrincipal{}, err
	}
	p := StandardPrincipal{Version: b[0]}
	copy(p.Hash[:], b[1:])
	return p, nil
}

func (d *decoder) shortString() (string, error) {
	n, err := d.readByte()
	if err != nil {
		return "", err
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) value(depth int) (Value, error) {
	if depth > MaxValueDepth {
		return nil, ErrValueTooLarge
	}
	prefix, err := d.readByte()
	if err != nil {
		return nil, err
	}
	switch ValueType(prefix) {
	case TypeInt:
		b, err := d.take(16)
		if err != nil {
			return nil, err
		}
		return readInt(b)
	case TypeUInt:
		b, err := d.take(16)
		if err != nil {
			return nil, err
		}
		return readUInt(b)
	case TypeBuffer:
		n, err := d.u32()
		if err != nil {
			return nil, err
		}
		b, err := d.take(n)
		if err != nil {
			return nil, err
		}
		return Buffer(b), nil
	case TypeBoolTrue:
		return Bool(true), nil
	case TypeBoolFalse:
		return Bool(false), nil
	case TypeStandardPrincipal:
		return d.standardPrincipal()
	case TypeContractPrincipal:
		issuer, err := d.standardPrincipal()
		if err != nil {
			return nil, err
		}
		name, err := d.shortString()
		if err != nil {
			return nil, err
		}
		id, err := NewContractIdentifier(issuer, name)
		if err != nil {
			return nil, ErrEncoding
		}
		return id, nil
	case TypeResponseOk, TypeResponseErr:
		inner, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		return ResponseValue{Committed: ValueType(prefix) == TypeResponseOk, Data: inner}, nil
	case TypeOptionalNone:
		return None(), nil
	case TypeOptionalSome:
		inner, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		return Some(inner), nil
	case TypeList:
		n, err := d.u32()
		if err != nil {
			return nil, err
		}
		items := make(ListValue, 0, minInt(n, 64))
		for i := 0; i < n; i++ {
			item, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case TypeTuple:
		n, err := d.u32()
		if err != nil {
			return nil, err
		}
		fields := make([]TupleField, 0, minInt(n, 64))
		for i := 0; i < n; i++ {
			name, err := d.shortString()
			if err != nil {
				return nil, err
			}
			// names must be strictly ascending so every tuple has one encoding
			if i > 0 && fields[i-1].Name >= name {
				return nil, ErrEncoding
			}
			if ValidateName(name) != nil {
				return nil, ErrEncoding
			}
			v, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			fields = append(fields, TupleField{Name: name, Value: v})
		}
		return TupleValue{fields: fields}, nil
	case TypeStringASCII:
		n, err := d.u32()
		if err != nil {
			return nil, err
		}
		b, err := d.take(n)
		if err != nil {
			return nil, err
		}
		s, err := StringASCII(string(b))
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, ErrEncoding
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
