package maths

import (
	"math"

	"github.com/tyGavinZJU/miningbot-sub001/core/common"
)

// ErrUint64AddOverflow - the sum does not fit in 64 bits.
var ErrUint64AddOverflow = common.NewError("uint64_add_overflow", "uint64 addition overflow")

// ErrUint64MulOverflow - the product does not fit in 64 bits.
var ErrUint64MulOverflow = common.NewError("uint64_mul_overflow", "uint64 multiplication overflow")

// SafeAddUInt64 adds two uint64 and returns an error if there is an overflow
func SafeAddUInt64(left, right uint64) (uint64, error) {
	if left > math.MaxUint64-right {
		return 0, ErrUint64AddOverflow
	}
	return left + right, nil
}

// SafeMultUInt64 multiplies two uint64 and returns an error if there is an overflow
func SafeMultUInt64(left, right uint64) (uint64, error) {
	if left == 0 || right == 0 {
		return 0, nil
	}
	if left > math.MaxUint64/right {
		return 0, ErrUint64MulOverflow
	}
	return left * right, nil
}
