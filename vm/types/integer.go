package types

import (
	"bytes"

	"github.com/holiman/uint256"
)

var signByte = uint256.NewInt(15)

func fitsInt128(x *uint256.Int) bool {
	var ext uint256.Int
	ext.ExtendSign(x, signByte)
	return ext.Eq(x)
}

func fitsUInt128(x *uint256.Int) bool {
	return x.BitLen() <= 128
}

/*IntValue - a signed 128 bit integer, kept as 256 bit two's complement */
type IntValue struct {
	v uint256.Int
}

/*UIntValue - an unsigned 128 bit integer */
type UIntValue struct {
	v uint256.Int
}

// Int returns an int value.
func Int(i int64) IntValue {
	var out IntValue
	out.v.SetUint64(uint64(i))
	out.v.ExtendSign(&out.v, uint256.NewInt(7))
	return out
}

// UInt returns a uint value.
func UInt(u uint64) UIntValue {
	var out UIntValue
	out.v.SetUint64(u)
	return out
}

// UIntFromBig returns x as a uint value if it is below 2^128.
func UIntFromBig(x *uint256.Int) (UIntValue, error) {
	if !fitsUInt128(x) {
		return UIntValue{}, ErrArithmeticOverflow
	}
	var out UIntValue
	out.v.Set(x)
	return out, nil
}

// ParseInt parses a signed decimal.
func ParseInt(s string) (IntValue, error) {
	neg := len(s) > 0 && s[0] == '-'
	if neg {
		s = s[1:]
	}
	x, err := uint256.FromDecimal(s)
	if err != nil {
		return IntValue{}, ErrArithmeticOverflow
	}
	if neg {
		x.Neg(x)
	}
	if !fitsInt128(x) || (!neg && x.Sign() < 0) {
		return IntValue{}, ErrArithmeticOverflow
	}
	return IntValue{v: *x}, nil
}

// ParseUInt parses an unsigned decimal.
func ParseUInt(s string) (UIntValue, error) {
	x, err := uint256.FromDecimal(s)
	if err != nil {
		return UIntValue{}, ErrArithmeticOverflow
	}
	return UIntFromBig(x)
}

// Big returns a copy of the two's complement representation.
func (i IntValue) Big() *uint256.Int { return i.v.Clone() }

// Sign returns -1, 0 or 1.
func (i IntValue) Sign() int { return i.v.Sign() }

// Add returns i+o or ErrArithmeticOverflow.
func (i IntValue) Add(o IntValue) (IntValue, error) {
	var out IntValue
	out.v.Add(&i.v, &o.v)
	if !fitsInt128(&out.v) {
		return IntValue{}, ErrArithmeticOverflow
	}
	return out, nil
}

// Sub returns i-o or ErrArithmeticOverflow.
func (i IntValue) Sub(o IntValue) (IntValue, error) {
	var out IntValue
	out.v.Sub(&i.v, &o.v)
	if !fitsInt128(&out.v) {
		return IntValue{}, ErrArithmeticOverflow
	}
	return out, nil
}

// Mul returns i*o or ErrArithmeticOverflow.
func (i IntValue) Mul(o IntValue) (IntValue, error) {
	var out IntValue
	out.v.Mul(&i.v, &o.v)
	if !fitsInt128(&out.v) {
		return IntValue{}, ErrArithmeticOverflow
	}
	return out, nil
}

// Less compares as signed integers.
func (i IntValue) Less(o IntValue) bool { return i.v.Slt(&o.v) }

/*Type - implement interface */
func (i IntValue) Type() ValueType { return TypeInt }

/*TypeName - implement interface */
func (i IntValue) TypeName() string { return "int" }

// Decimal renders the value in base 10.
func (i IntValue) Decimal() string {
	if i.v.Sign() < 0 {
		var abs uint256.Int
		abs.Neg(&i.v)
		return "-" + abs.Dec()
	}
	return i.v.Dec()
}

func (i IntValue) String() string { return i.Decimal() }

func (i IntValue) serialize(w *bytes.Buffer, _ int) error {
	w.WriteByte(byte(TypeInt))
	b := i.v.Bytes32()
	w.Write(b[16:])
	return nil
}

// Big returns a copy of the value.
func (u UIntValue) Big() *uint256.Int { return u.v.Clone() }

// IsZero reports whether u is zero.
func (u UIntValue) IsZero() bool { return u.v.IsZero() }

// Cmp compares two uints.
func (u UIntValue) Cmp(o UIntValue) int { return u.v.Cmp(&o.v) }

// Add returns u+o or ErrArithmeticOverflow.
func (u UIntValue) Add(o UIntValue) (UIntValue, error) {
	var out UIntValue
	out.v.Add(&u.v, &o.v)
	if !fitsUInt128(&out.v) {
		return UIntValue{}, ErrArithmeticOverflow
	}
	return out, nil
}

// Sub returns u-o or ErrArithmeticUnderflow.
func (u UIntValue) Sub(o UIntValue) (UIntValue, error) {
	if u.v.Lt(&o.v) {
		return UIntValue{}, ErrArithmeticUnderflow
	}
	var out UIntValue
	out.v.Sub(&u.v, &o.v)
	return out, nil
}

// Mul returns u*o or ErrArithmeticOverflow.
func (u UIntValue) Mul(o UIntValue) (UIntValue, error) {
	var out UIntValue
	out.v.Mul(&u.v, &o.v)
	if !fitsUInt128(&out.v) {
		return UIntValue{}, ErrArithmeticOverflow
	}
	return out, nil
}

/*Type - implement interface */
func (u UIntValue) Type() ValueType { return TypeUInt }

/*TypeName - implement interface */
func (u UIntValue) TypeName() string { return "uint" }

// Decimal renders the value in base 10.
func (u UIntValue) Decimal() string { return u.v.Dec() }

func (u UIntValue) String() string { return "u" + u.v.Dec() }

func (u UIntValue) serialize(w *bytes.Buffer, _ int) error {
	w.WriteByte(byte(TypeUInt))
	b := u.v.Bytes32()
	w.Write(b[16:])
	return nil
}

func readInt(data []byte) (IntValue, error) {
	if len(data) < 16 {
		return IntValue{}, ErrEncoding
	}
	var out IntValue
	out.v.SetBytes16(data[:16])
	out.v.ExtendSign(&out.v, signByte)
	return out, nil
}

func readUInt(data []byte) (UIntValue, error) {
	if len(data) < 16 {
		return UIntValue{}, ErrEncoding
	}
	var out UIntValue
	out.v.SetBytes16(data[:16])
	return out, nil
}
