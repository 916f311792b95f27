package vm

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tyGavinZJU/miningbot-sub001/core/common"
	"github.com/tyGavinZJU/miningbot-sub001/vm/types"
)

var (
	// ErrMaxCallStackExceeded - nesting went past the configured depth.
	ErrMaxCallStackExceeded = common.NewError("max_call_stack_exceeded", "maximum call depth exceeded")
	// ErrAssetInvariantViolation - the asset ledger cannot be applied; the
	// whole operation has to be rolled back.
	ErrAssetInvariantViolation = common.NewError("asset_invariant_violation", "asset invariant violated")
	// ErrTransactionInProgress - a top level operation is already open.
	ErrTransactionInProgress = common.NewError("transaction_in_progress", "a transaction is already in progress")
	// ErrNoActiveTransaction - nothing to commit or roll back.
	ErrNoActiveTransaction = common.NewError("no_active_transaction", "no transaction is open")
	// ErrNoSuchPublicFunction - the function does not exist or is private.
	ErrNoSuchPublicFunction = common.NewError("no_such_public_function", "no such public function")
	// ErrNoParser - contracts cannot be loaded without a parser.
	ErrNoParser = common.NewError("no_parser", "no contract parser configured")
)

/*RuntimeErrorKind - why a contract aborted */
type RuntimeErrorKind uint64

// runtime error kinds; the value is the code carried by the err response
const (
	UnwrapFailure      RuntimeErrorKind = 100
	TypeError          RuntimeErrorKind = 101
	ArithmeticOverflow RuntimeErrorKind = 102
	WriteInReadOnly    RuntimeErrorKind = 103
	UserAbort          RuntimeErrorKind = 104
	SupplyOverflow     RuntimeErrorKind = 105
)

var runtimeErrorNames = map[RuntimeErrorKind]string{
	UnwrapFailure:      "unwrap failure",
	TypeError:          "type error",
	ArithmeticOverflow: "arithmetic overflow",
	WriteInReadOnly:    "write in read only context",
	UserAbort:          "aborted",
	SupplyOverflow:     "supply overflow",
}

func (k RuntimeErrorKind) String() string {
	if name, ok := runtimeErrorNames[k]; ok {
		return name
	}
	return fmt.Sprintf("runtime error %d", uint64(k))
}

/*RuntimeError - a contract level failure. It aborts the current call, which
then returns an err response to its caller. */
type RuntimeError struct {
	Kind   RuntimeErrorKind
	Detail string
}

// NewRuntimeError creates a contract level error.
func NewRuntimeError(kind RuntimeErrorKind, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (e *RuntimeError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Detail
}

// ErrValue is the value of the err response the failure turns into.
func (e *RuntimeError) ErrValue() types.Value {
	return types.UInt(uint64(e.Kind))
}

/*ShortReturn - a contract returning early with a value */
type ShortReturn struct {
	Value types.Value
}

func (e *ShortReturn) Error() string {
	return "short return: " + e.Value.String()
}

// IsContractLevel reports whether err aborts only the current call.
func IsContractLevel(err error) bool {
	var re *RuntimeError
	var sr *ShortReturn
	return errors.As(err, &re) || errors.As(err, &sr)
}

// errResponse turns a contract level error into the response the caller sees.
func errResponse(err error) types.ResponseValue {
	var sr *ShortReturn
	if errors.As(err, &sr) {
		if resp, ok := sr.Value.(types.ResponseValue); ok {
			return resp
		}
		return types.Err(sr.Value)
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return types.Err(re.ErrValue())
	}
	return types.Err(types.UInt(uint64(UserAbort)))
}
