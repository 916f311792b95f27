package costs

import (
	"fmt"
	"math"

	"go.uber.org/atomic"

	"github.com/tyGavinZJU/miningbot-sub001/core/common"
	"github.com/tyGavinZJU/miningbot-sub001/core/maths"
)

var (
	// ErrCostOverflow - a cost dimension does not fit in 64 bits.
	ErrCostOverflow = common.NewError("cost_overflow", "cost overflow")
	// ErrCostBalanceExceeded - the operation ran past its budget.
	ErrCostBalanceExceeded = common.NewError("cost_balance_exceeded", "cost budget exceeded")
)

/*ExecutionCost - what an operation consumed */
type ExecutionCost struct {
	WriteLength uint64 `json:"write_length"`
	WriteCount  uint64 `json:"write_count"`
	ReadLength  uint64 `json:"read_length"`
	ReadCount   uint64 `json:"read_count"`
	Runtime     uint64 `json:"runtime"`
}

func addChecked(a, b uint64) (uint64, error) {
	sum, err := maths.SafeAddUInt64(a, b)
	if err != nil {
		return 0, common.WithCause(ErrCostOverflow, err)
	}
	return sum, nil
}

// Add returns c+o, failing if any dimension overflows.
func (c ExecutionCost) Add(o ExecutionCost) (ExecutionCost, error) {
	var out ExecutionCost
	var err error
	for _, f := range []struct {
		dst  *uint64
		a, b uint64
	}{
		{&out.WriteLength, c.WriteLength, o.WriteLength},
		{&out.WriteCount, c.WriteCount, o.WriteCount},
		{&out.ReadLength, c.ReadLength, o.ReadLength},
		{&out.ReadCount, c.ReadCount, o.ReadCount},
		{&out.Runtime, c.Runtime, o.Runtime},
	} {
		if *f.dst, err = addChecked(f.a, f.b); err != nil {
			return ExecutionCost{}, err
		}
	}
	return out, nil
}

// Exceeds reports whether any dimension of c is above the limit's.
func (c ExecutionCost) Exceeds(limit ExecutionCost) bool {
	return c.WriteLength > limit.WriteLength ||
		c.WriteCount > limit.WriteCount ||
		c.ReadLength > limit.ReadLength ||
		c.ReadCount > limit.ReadCount ||
		c.Runtime > limit.Runtime
}

// IsZero reports whether nothing was consumed.
func (c ExecutionCost) IsZero() bool {
	return c == ExecutionCost{}
}

func (c ExecutionCost) String() string {
	return fmt.Sprintf("runtime=%d reads=%d/%d writes=%d/%d",
		c.Runtime, c.ReadCount, c.ReadLength, c.WriteCount, c.WriteLength)
}

// Unlimited is a budget nothing exceeds.
var Unlimited = ExecutionCost{
	WriteLength: math.MaxUint64,
	WriteCount:  math.MaxUint64,
	ReadLength:  math.MaxUint64,
	ReadCount:   math.MaxUint64,
	Runtime:     math.MaxUint64,
}

/*Operation - a chargeable runtime operation */
type Operation string

// chargeable operations
const (
	OpRead         Operation = "read"
	OpWrite        Operation = "write"
	OpContractCall Operation = "contract-call"
	OpEval         Operation = "eval"
	OpAssetLog     Operation = "asset-log"
	OpPrint        Operation = "print"
	OpLoadContract Operation = "load-contract"
)

/*CostFunction - the policy that prices an operation of a given input size */
type CostFunction func(op Operation, size uint64) ExecutionCost

// Free prices everything at zero.
func Free(Operation, uint64) ExecutionCost { return ExecutionCost{} }

// Unit charges one runtime unit per operation plus the read or write it
// performs.
func Unit(op Operation, size uint64) ExecutionCost {
	c := ExecutionCost{Runtime: 1}
	switch op {
	case OpRead, OpLoadContract:
		c.ReadCount, c.ReadLength = 1, size
	case OpWrite:
		c.WriteCount, c.WriteLength = 1, size
	}
	return c
}

/*Tracker - accumulates the cost of one top level operation. Totals are
never reduced; only Reset clears them. */
type Tracker struct {
	fn    CostFunction
	limit ExecutionCost

	writeLength atomic.Uint64
	writeCount  atomic.Uint64
	readLength  atomic.Uint64
	readCount   atomic.Uint64
	runtime     atomic.Uint64
}

// NewTracker creates a tracker; a nil fn means Free.
func NewTracker(fn CostFunction, limit ExecutionCost) *Tracker {
	if fn == nil {
		fn = Free
	}
	return &Tracker{fn: fn, limit: limit}
}

// Track prices op and adds it.
func (t *Tracker) Track(op Operation, size uint64) error {
	return t.Add(t.fn(op, size))
}

// Add charges c. The charge is kept even when it breaks the budget.
func (t *Tracker) Add(c ExecutionCost) error {
	total, err := t.Total().Add(c)
	if err != nil {
		return err
	}
	t.writeLength.Store(total.WriteLength)
	t.writeCount.Store(total.WriteCount)
	t.readLength.Store(total.ReadLength)
	t.readCount.Store(total.ReadCount)
	t.runtime.Store(total.Runtime)
	if total.Exceeds(t.limit) {
		return common.Wrap(ErrCostBalanceExceeded, "%v over %v", total, t.limit)
	}
	return nil
}

// Total returns a snapshot of the accumulated cost.
func (t *Tracker) Total() ExecutionCost {
	return ExecutionCost{
		WriteLength: t.writeLength.Load(),
		WriteCount:  t.writeCount.Load(),
		ReadLength:  t.readLength.Load(),
		ReadCount:   t.readCount.Load(),
		Runtime:     t.runtime.Load(),
	}
}

// Limit returns the budget.
func (t *Tracker) Limit() ExecutionCost { return t.limit }

// Reset clears the totals at the end of a top level operation.
func (t *Tracker) Reset() {
	t.writeLength.Store(0)
	t.writeCount.Store(0)
	t.readLength.Store(0)
	t.readCount.Store(0)
	t.runtime.Store(0)
}
