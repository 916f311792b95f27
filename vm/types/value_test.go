package types

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	maxInt128  = "170141183460469231731687303715884105727"
	minInt128  = "-170141183460469231731687303715884105728"
	maxUInt128 = "340282366920938463463374607431768211455"
)

func alice() StandardPrincipal { return NewStandardPrincipal(26, "alice") }

func mustTuple(t *testing.T, fields ...TupleField) TupleValue {
	tv, err := Tuple(fields...)
	require.NoError(t, err)
	return tv
}

func TestSerialize_Known(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		hex  string
	}{
		{name: "int -1", v: Int(-1), hex: "00" + strings.Repeat("ff", 16)},
		{name: "int 1", v: Int(1), hex: "00" + strings.Repeat("00", 15) + "01"},
		{name: "uint 1", v: UInt(1), hex: "01" + strings.Repeat("00", 15) + "01"},
		{name: "buffer", v: Buffer([]byte{0xde, 0xad}), hex: "0200000002dead"},
		{name: "true", v: Bool(true), hex: "03"},
		{name: "false", v: Bool(false), hex: "04"},
		{name: "ok", v: Ok(Bool(true)), hex: "0703"},
		{name: "err", v: Err(Bool(false)), hex: "0804"},
		{name: "none", v: None(), hex: "09"},
		{name: "some", v: Some(Bool(true)), hex: "0a03"},
		{name: "list", v: List(Bool(true), Bool(false)), hex: "0b000000020304"},
		{name: "ascii", v: StringASCIIValue("hi"), hex: "0d000000026869"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Serialize(tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.hex, hex.EncodeToString(data))

			back, err := Deserialize(data)
			require.NoError(t, err)
			assert.True(t, Equal(tt.v, back))
		})
	}
}

func TestSerialize_Injective(t *testing.T) {
	contract, err := NewContractIdentifier(alice(), "token")
	require.NoError(t, err)
	values := []Value{
		Int(0), Int(1), Int(-1), UInt(0), UInt(1),
		Buffer(nil), Buffer([]byte{0}), StringASCIIValue(""), StringASCIIValue("a"),
		Bool(true), Bool(false), None(), Some(None()), Some(UInt(0)),
		Ok(UInt(0)), Err(UInt(0)), List(), List(List()), List(UInt(0)),
		alice(), NewStandardPrincipal(22, "alice"), contract,
		mustTuple(t, TupleField{Name: "a", Value: UInt(0)}),
		mustTuple(t, TupleField{Name: "b", Value: UInt(0)}),
		mustTuple(t, TupleField{Name: "a", Value: UInt(0)}, TupleField{Name: "b", Value: UInt(0)}),
	}
	seen := map[string]int{}
	for i, v := range values {
		data, err := Serialize(v)
		require.NoError(t, err)
		if j, ok := seen[string(data)]; ok {
			t.Fatalf("values %d (%v) and %d (%v) share an encoding", i, v, j, values[j])
		}
		seen[string(data)] = i
		back, err := Deserialize(data)
		require.NoError(t, err)
		assert.Equal(t, v.String(), back.String())
	}
}

func TestDeserialize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		hex  string
	}{
		{name: "empty", hex: ""},
		{name: "unknown prefix", hex: "ff"},
		{name: "short int", hex: "0001"},
		{name: "trailing bytes", hex: "0303"},
		{name: "short buffer", hex: "0200000005dead"},
		{name: "unordered tuple", hex: "0c00000002016203016103"},
		{name: "duplicate tuple field", hex: "0c00000002016103016103"},
		{name: "bad contract name", hex: "06" + strings.Repeat("00", 21) + "01" + "31"},
		{name: "non ascii", hex: "0d0000000100"},
		{name: "missing some payload", hex: "0a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := hex.DecodeString(tt.hex)
			require.NoError(t, err)
			_, err = Deserialize(data)
			assert.ErrorIs(t, err, ErrEncoding)
		})
	}
}

func TestDeserialize_DepthLimit(t *testing.T) {
	var v Value = Bool(true)
	for i := 0; i < MaxValueDepth+1; i++ {
		v = Some(v)
	}
	_, err := Serialize(v)
	assert.ErrorIs(t, err, ErrValueTooLarge)

	data := []byte(strings.Repeat("\x0a", MaxValueDepth+2) + "\x03")
	_, err = Deserialize(data)
	assert.ErrorIs(t, err, ErrValueTooLarge)
}

func TestIntArithmetic(t *testing.T) {
	max, err := ParseInt(maxInt128)
	require.NoError(t, err)
	min, err := ParseInt(minInt128)
	require.NoError(t, err)
	assert.Equal(t, maxInt128, max.Decimal())
	assert.Equal(t, minInt128, min.Decimal())

	_, err = max.Add(Int(1))
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
	_, err = min.Sub(Int(1))
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
	_, err = max.Mul(Int(2))
	assert.ErrorIs(t, err, ErrArithmeticOverflow)

	got, err := Int(-7).Mul(Int(6))
	require.NoError(t, err)
	assert.Equal(t, "-42", got.Decimal())
	assert.True(t, got.Less(Int(0)))
	assert.Equal(t, -1, got.Sign())

	_, err = ParseInt("170141183460469231731687303715884105728")
	assert.ErrorIs(t, err, ErrArithmeticOverflow)

	data, err := Serialize(min)
	require.NoError(t, err)
	back, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, minInt128, back.(IntValue).Decimal())
}

func TestUIntArithmetic(t *testing.T) {
	max, err := ParseUInt(maxUInt128)
	require.NoError(t, err)
	_, err = max.Add(UInt(1))
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
	_, err = UInt(1).Sub(UInt(2))
	assert.ErrorIs(t, err, ErrArithmeticUnderflow)
	_, err = ParseUInt("340282366920938463463374607431768211456")
	assert.ErrorIs(t, err, ErrArithmeticOverflow)

	sum, err := UInt(40).Add(UInt(60))
	require.NoError(t, err)
	assert.Equal(t, "u100", sum.String())
	assert.Equal(t, 0, sum.Cmp(UInt(100)))
	assert.True(t, UInt(0).IsZero())
}

func TestPrincipals(t *testing.T) {
	a := alice()
	addr := a.Address()
	assert.True(t, strings.HasPrefix(addr, "S"))

	parsed, err := ParseStandardPrincipal(addr)
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	// flip one character of the payload
	bad := []byte(addr)
	if bad[5] == 'a' {
		bad[5] = 'b'
	} else {
		bad[5] = 'a'
	}
	_, err = ParseStandardPrincipal(string(bad))
	assert.ErrorIs(t, err, ErrInvalidPrincipal)
	_, err = ParseStandardPrincipal("X" + addr[1:])
	assert.ErrorIs(t, err, ErrInvalidPrincipal)

	id, err := ParseContractIdentifier(addr + ".my-token_v2")
	require.NoError(t, err)
	assert.Equal(t, "my-token_v2", id.Name)
	assert.Equal(t, addr+".my-token_v2", id.String())

	p, err := ParsePrincipal(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, p)
	p, err = ParsePrincipal(addr)
	require.NoError(t, err)
	assert.Equal(t, a, p)
}

func TestValidateContractName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{name: "a", valid: true},
		{name: "token-v1_b", valid: true},
		{name: strings.Repeat("a", ContractNameMaxLen), valid: true},
		{name: strings.Repeat("a", ContractNameMaxLen+1)},
		{name: ""},
		{name: "1abc"},
		{name: "-abc"},
		{name: "ab.c"},
		{name: "ab!c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContractName(tt.name)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidIdentifier)
			}
		})
	}
	assert.NoError(t, ValidateName("is-owner?"))
	assert.NoError(t, ValidateName("<="))
	assert.Error(t, ValidateName("9lives"))
}

func TestTuple(t *testing.T) {
	tv := mustTuple(t,
		TupleField{Name: "b", Value: UInt(2)},
		TupleField{Name: "a", Value: UInt(1)})
	assert.Equal(t, "(tuple (a u1) (b u2))", tv.String())
	v, ok := tv.Get("b")
	require.True(t, ok)
	assert.True(t, Equal(UInt(2), v))
	_, ok = tv.Get("c")
	assert.False(t, ok)

	_, err := Tuple(TupleField{Name: "a", Value: UInt(1)}, TupleField{Name: "a", Value: UInt(2)})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	_, err = Tuple(TupleField{Name: "a"})
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Int(5), Int(5)))
	assert.False(t, Equal(Int(5), UInt(5)))
	assert.False(t, Equal(Some(Int(1)), Ok(Int(1))))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, None()))
}

func TestJSON(t *testing.T) {
	tv := mustTuple(t, TupleField{Name: "amount", Value: UInt(5)})
	data, err := json.Marshal(JSON(Ok(tv)))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"response","committed":true,"value":{"type":"tuple","value":{"amount":{"type":"uint","value":"5"}}}}`,
		string(data))
}

func TestAssetIdentifier(t *testing.T) {
	id, err := NewContractIdentifier(alice(), "token")
	require.NoError(t, err)
	asset := AssetIdentifier{Contract: id, Name: "gold"}
	assert.Equal(t, id.String()+"::gold", asset.String())
	assert.False(t, asset.IsSTX())
	assert.True(t, STXAssetIdentifier.IsSTX())
	assert.Equal(t, "STX", STXAssetIdentifier.String())
}
