package types

import (
	"github.com/tyGavinZJU/miningbot-sub001/core/common"
)

var (
	// ErrEncoding - bytes are not the consensus serialization of a value.
	ErrEncoding = common.NewError("encoding_error", "invalid value serialization")
	// ErrInvalidIdentifier - a contract or field name does not parse.
	ErrInvalidIdentifier = common.NewError("invalid_identifier", "invalid identifier")
	// ErrInvalidPrincipal - a principal string does not parse.
	ErrInvalidPrincipal = common.NewError("invalid_principal", "invalid principal")
	// ErrArithmeticOverflow - an integer result is out of range.
	ErrArithmeticOverflow = common.NewError("arithmetic_overflow", "arithmetic overflow")
	// ErrArithmeticUnderflow - an unsigned result would be negative.
	ErrArithmeticUnderflow = common.NewError("arithmetic_underflow", "arithmetic underflow")
	// ErrValueTooLarge - nesting or length limits exceeded.
	ErrValueTooLarge = common.NewError("value_too_large", "value exceeds limits")
)
