package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyGavinZJU/miningbot-sub001/core/memorystore"
	"github.com/tyGavinZJU/miningbot-sub001/vm/costs"
	"github.com/tyGavinZJU/miningbot-sub001/vm/events"
	"github.com/tyGavinZJU/miningbot-sub001/vm/types"
)

func call(t *testing.T, oe *OwnedEnvironment, function string, args ...types.Value) (types.Value, *Receipt) {
	res, receipt, err := oe.ExecuteTransaction(bob, counterID(t), function, args...)
	require.NoError(t, err)
	return res, receipt
}

func getN(t *testing.T, oe *OwnedEnvironment) string {
	res, _ := call(t, oe, "get")
	return uintOf(t, res)
}

func TestExecuteContract_Dispatch(t *testing.T) {
	oe, _ := newCounterEnv(t)

	res, _ := call(t, oe, "incr")
	assert.True(t, types.Equal(types.Ok(types.UInt(1)), res))
	res, _ = call(t, oe, "incr")
	assert.True(t, types.Equal(types.Ok(types.UInt(2)), res))
	assert.Equal(t, "2", getN(t, oe))
	assert.False(t, oe.IsActive())
}

func TestExecuteContract_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		function string
		want     types.Value
		wantN    string
	}{
		{name: "err_response_rolls_back", function: "fail-after-write", want: types.Err(types.UInt(7)), wantN: "0"},
		{name: "runtime_error_rolls_back", function: "abort", want: types.Err(types.UInt(uint64(UserAbort))), wantN: "0"},
		{name: "short_return", function: "return-early", want: types.Err(types.UInt(9)), wantN: "0"},
		{name: "short_return_ok_keeps_writes", function: "return-early-ok", want: types.Ok(types.Bool(true)), wantN: "77"},
		{name: "short_return_value_rolls_back", function: "return-early-raw", want: types.Err(types.UInt(5)), wantN: "0"},
		{name: "nested_abort_keeps_caller_writes", function: "call-abort", want: types.Ok(types.Err(types.UInt(uint64(UserAbort)))), wantN: "5"},
		{name: "write_in_read_only", function: "sneaky-write", want: types.Err(types.UInt(uint64(WriteInReadOnly))), wantN: "0"},
		{name: "non_response_result", function: "bad-return", want: types.Err(types.UInt(uint64(TypeError))), wantN: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oe, _ := newCounterEnv(t)
			res, _ := call(t, oe, tt.function)
			assert.True(t, types.Equal(tt.want, res), "got %v", res)
			assert.Equal(t, tt.wantN, getN(t, oe))
		})
	}
}

func TestExecuteContract_CallErrors(t *testing.T) {
	oe, _ := newCounterEnv(t)

	_, _, err := oe.ExecuteTransaction(bob, counterID(t), "set-private")
	assert.ErrorIs(t, err, ErrNoSuchPublicFunction)
	_, _, err = oe.ExecuteTransaction(bob, counterID(t), "missing")
	assert.ErrorIs(t, err, ErrNoSuchPublicFunction)

	res, _ := call(t, oe, "incr", types.UInt(1))
	assert.True(t, types.Equal(types.Err(types.UInt(uint64(TypeError))), res))

	other, err := types.NewContractIdentifier(bob, "absent")
	require.NoError(t, err)
	_, _, err = oe.ExecuteTransaction(bob, other, "incr")
	assert.Error(t, err)
	assert.False(t, oe.IsActive())
}

func TestExecuteContract_DepthLimit(t *testing.T) {
	oe, _ := newCounterEnv(t, WithMaxDepth(4))
	_, _, err := oe.ExecuteTransaction(bob, counterID(t), "recurse")
	assert.ErrorIs(t, err, ErrMaxCallStackExceeded)
	assert.False(t, oe.IsActive())
	assert.Equal(t, "0", getN(t, oe))
}

func TestExecuteContract_CallerAndSender(t *testing.T) {
	oe, _ := newCounterEnv(t)
	res, _ := call(t, oe, "whoami")
	list, ok := res.(types.ListValue)
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, types.Value(bob), list[0])
	assert.Equal(t, types.Value(bob), list[1])
}

func TestExecuteContract_ContractCacheKeyedBySource(t *testing.T) {
	oe, parser := newCounterEnv(t)
	calls := parser.calls
	call(t, oe, "incr")
	call(t, oe, "incr")
	assert.Equal(t, calls, parser.calls)
}

func TestEnvironment_FungibleTokens(t *testing.T) {
	oe, _ := newCounterEnv(t)

	res, _ := call(t, oe, "mint", types.UInt(0), carol)
	assert.True(t, types.Equal(types.Err(types.UInt(1)), res))

	res, receipt := call(t, oe, "mint", types.UInt(600), carol)
	assert.True(t, types.Equal(types.Ok(types.Bool(true)), res))
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, events.FTMint, receipt.Events[0].Type())

	// the cap counts supply minted in earlier transactions
	res, _ = call(t, oe, "mint", types.UInt(600), carol)
	assert.True(t, types.Equal(types.Err(types.UInt(uint64(SupplyOverflow))), res))

	tests := []struct {
		name   string
		amount uint64
		from   types.Principal
		to     types.Principal
		want   types.Value
	}{
		{name: "non_positive", amount: 0, from: carol, to: bob, want: types.Err(types.UInt(3))},
		{name: "same_principal", amount: 1, from: carol, to: carol, want: types.Err(types.UInt(2))},
		{name: "insufficient", amount: 601, from: carol, to: bob, want: types.Err(types.UInt(1))},
		{name: "ok", amount: 100, from: carol, to: bob, want: types.Ok(types.Bool(true))},
	}
	for _, tt := range tests {
		res, _ := call(t, oe, "transfer", types.UInt(tt.amount), tt.from, tt.to)
		assert.True(t, types.Equal(tt.want, res), "%s: got %v", tt.name, res)
	}

	res, _ = call(t, oe, "burn", types.UInt(50), bob)
	assert.True(t, types.Equal(types.Ok(types.Bool(true)), res))
	res, _ = call(t, oe, "burn", types.UInt(51), bob)
	assert.True(t, types.Equal(types.Err(types.UInt(1)), res))

	res, _ = call(t, oe, "balance", carol)
	assert.Equal(t, "500", uintOf(t, res))
	res, _ = call(t, oe, "balance", bob)
	assert.Equal(t, "50", uintOf(t, res))

	supply, err := oe.Global().Database().GetFTSupply(counterID(t), "gold")
	require.NoError(t, err)
	assert.Equal(t, "550", supply.Decimal())
}

func TestEnvironment_STXTransferInsideContract(t *testing.T) {
	oe, _ := newCounterEnv(t)

	res, receipt := call(t, oe, "pay", types.UInt(200), carol)
	assert.True(t, types.Equal(types.Ok(types.Bool(true)), res))
	assert.Equal(t, "300", stxBalance(t, oe, bob))
	assert.Equal(t, "200", stxBalance(t, oe, carol))
	require.Len(t, receipt.Events, 1)
	transfer, ok := receipt.Events[0].(*events.STXTransferEvent)
	require.True(t, ok)
	assert.Equal(t, types.Principal(bob), transfer.Sender)

	// a failing call discards its movements and events
	res, receipt = call(t, oe, "pay-then-fail", types.UInt(200), carol)
	assert.True(t, types.Equal(types.Err(types.UInt(1)), res))
	assert.Empty(t, receipt.Events)
	assert.True(t, receipt.Assets.IsEmpty())
	assert.Equal(t, "300", stxBalance(t, oe, bob))
}

func TestEnvironment_EventsOrderedAndDiscardedOnRollback(t *testing.T) {
	oe, _ := newCounterEnv(t)
	_, receipt := call(t, oe, "print-around-call")
	require.Len(t, receipt.Events, 2)
	for i, want := range []types.Value{types.UInt(1), types.UInt(2)} {
		e, ok := receipt.Events[i].(*events.SmartContractEvent)
		require.True(t, ok)
		assert.Equal(t, "print", e.Topic)
		assert.True(t, types.Equal(want, e.Value))
	}

	out, err := receipt.MarshalEvents([]byte{0xab})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Contains(t, string(out[0]), `"contract_event"`)
}

func TestEnvironment_CostChargedForRolledBackCalls(t *testing.T) {
	oe, _ := newCounterEnv(t, WithCostFunction(costs.Unit))
	_, receipt := call(t, oe, "fail-after-write")
	assert.NotZero(t, receipt.Cost.Runtime)
	assert.NotZero(t, receipt.Cost.WriteCount)
	assert.Equal(t, "0", getN(t, oe))

	_, next := call(t, oe, "get")
	assert.True(t, next.Cost.WriteCount == 0, "cost resets between operations")
}

func TestEnvironment_CostLimit(t *testing.T) {
	limit := costs.Unlimited
	limit.Runtime = 3
	db := genesis(t, memorystore.New())
	oe := NewOwnedEnvironment(db, WithParser(&countingParser{}), WithCostFunction(costs.Unit), WithCostLimit(limit))

	_, err := oe.InitializeContract(counterID(t), counterSource, nil)
	assert.ErrorIs(t, err, costs.ErrCostBalanceExceeded)
	assert.False(t, oe.IsActive())
	assert.Zero(t, oe.Global().Cost().Runtime)

	ok, err := db.HasContract(counterID(t))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnvironment_NoContractContext(t *testing.T) {
	oe, _ := newCounterEnv(t)
	_, _, err := oe.EvalRaw(bob, ExpressionFunc(func(env *Environment) (types.Value, error) {
		return env.Print(types.UInt(1))
	}))
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, TypeError, re.Kind)
}

func TestEnvironment_NFT(t *testing.T) {
	oe, _ := newCounterEnv(t)
	id := counterID(t)

	nft := func(f func(env *Environment) (types.Value, error)) types.Value {
		res, _, err := oe.run(func() (types.Value, error) {
			return f(NewEnvironment(oe.global, &id, bob, bob, nil))
		})
		require.NoError(t, err)
		return res
	}

	res := nft(func(env *Environment) (types.Value, error) { return env.NFTMint("badge", types.UInt(1), bob) })
	assert.True(t, types.Equal(types.Ok(types.Bool(true)), res))
	res = nft(func(env *Environment) (types.Value, error) { return env.NFTMint("badge", types.UInt(1), carol) })
	assert.True(t, types.Equal(types.Err(types.UInt(1)), res))

	tests := []struct {
		name string
		id   uint64
		from types.Principal
		to   types.Principal
		want types.Value
	}{
		{name: "same_principal", id: 1, from: bob, to: bob, want: types.Err(types.UInt(2))},
		{name: "missing", id: 2, from: bob, to: carol, want: types.Err(types.UInt(3))},
		{name: "not_owner", id: 1, from: carol, to: bob, want: types.Err(types.UInt(1))},
		{name: "ok", id: 1, from: bob, to: carol, want: types.Ok(types.Bool(true))},
	}
	for _, tt := range tests {
		res := nft(func(env *Environment) (types.Value, error) {
			return env.NFTTransfer("badge", types.UInt(tt.id), tt.from, tt.to)
		})
		assert.True(t, types.Equal(tt.want, res), "%s: got %v", tt.name, res)
	}

	owner := nft(func(env *Environment) (types.Value, error) { return env.GetNFTOwner("badge", types.UInt(1)) })
	assert.True(t, types.Equal(types.Some(carol), owner))

	res = nft(func(env *Environment) (types.Value, error) { return env.NFTBurn("badge", types.UInt(1), carol) })
	assert.True(t, types.Equal(types.Ok(types.Bool(true)), res))
	owner = nft(func(env *Environment) (types.Value, error) { return env.GetNFTOwner("badge", types.UInt(1)) })
	assert.True(t, types.Equal(types.None(), owner))
}

func TestEnvironment_MapEntries(t *testing.T) {
	oe, _ := newCounterEnv(t)
	id := counterID(t)
	key := types.UInt(1)

	res, _, err := oe.run(func() (types.Value, error) {
		env := NewEnvironment(oe.global, &id, bob, bob, nil)
		inserted, err := env.InsertEntry("m", key, types.Bool(true))
		if err != nil || !inserted {
			return nil, err
		}
		if inserted, err = env.InsertEntry("m", key, types.Bool(false)); err != nil || inserted {
			return nil, err
		}
		if err := env.SetEntry("m", types.UInt(2), types.Bool(false)); err != nil {
			return nil, err
		}
		if _, err := env.DeleteEntry("m", types.UInt(2)); err != nil {
			return nil, err
		}
		return env.FetchEntry("m", key)
	})
	require.NoError(t, err)
	assert.True(t, types.Equal(types.Some(types.Bool(true)), res))

	res, _, err = oe.EvalReadOnly(bob, id, ExpressionFunc(func(env *Environment) (types.Value, error) {
		return env.FetchEntry("m", types.UInt(2))
	}))
	require.NoError(t, err)
	assert.True(t, types.Equal(types.None(), res))

	res, _, err = oe.EvalReadOnly(bob, id, ExpressionFunc(func(env *Environment) (types.Value, error) {
		return types.Bool(true), env.SetEntry("m", key, types.Bool(false))
	}))
	require.NoError(t, err)
	assert.True(t, types.Equal(types.Err(types.UInt(uint64(WriteInReadOnly))), res))
}
