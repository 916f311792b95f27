package vm

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/tyGavinZJU/miningbot-sub001/core/datastore"
	"github.com/tyGavinZJU/miningbot-sub001/core/memorystore"
	"github.com/tyGavinZJU/miningbot-sub001/vm/database"
	"github.com/tyGavinZJU/miningbot-sub001/vm/types"
)

const counterSource = "(define-data-var n uint u0)"

var (
	alice = types.NewStandardPrincipal(26, "alice")
	bob   = types.NewStandardPrincipal(26, "bob")
	carol = types.NewStandardPrincipal(26, "carol")
)

func counterID(t *testing.T) types.ContractIdentifier {
	id, err := types.NewContractIdentifier(alice, "counter")
	require.NoError(t, err)
	return id
}

func fn(name string, vis Visibility, arity int, body FunctionBody) *Function {
	return &Function{Name: name, Visibility: vis, Arity: arity, Body: body}
}

func readN(env *Environment) (types.UIntValue, error) {
	v, err := env.FetchVariable("n")
	if err != nil {
		return types.UIntValue{}, err
	}
	u, ok := v.(types.UIntValue)
	if !ok {
		return types.UIntValue{}, NewRuntimeError(TypeError, "n is %s", v.TypeName())
	}
	return u, nil
}

func setN(v uint64) FunctionBody {
	return func(env *Environment, _ []types.Value) (types.Value, error) {
		return types.Ok(types.Bool(true)), env.SetVariable("n", types.UInt(v))
	}
}

// counterContract is a hand built contract exercising every environment
// operation.
func counterContract(id types.ContractIdentifier) *Contract {
	functions := []*Function{
		fn("incr", Public, 0, func(env *Environment, _ []types.Value) (types.Value, error) {
			n, err := readN(env)
			if err != nil {
				return nil, err
			}
			if n, err = n.Add(types.UInt(1)); err != nil {
				return nil, err
			}
			return types.Ok(n), env.SetVariable("n", n)
		}),
		fn("get", ReadOnly, 0, func(env *Environment, _ []types.Value) (types.Value, error) {
			return readN(env)
		}),
		fn("set-private", Private, 0, setN(1)),
		fn("fail-after-write", Public, 0, func(env *Environment, _ []types.Value) (types.Value, error) {
			if err := env.SetVariable("n", types.UInt(99)); err != nil {
				return nil, err
			}
			return types.Err(types.UInt(7)), nil
		}),
		fn("abort", Public, 0, func(env *Environment, _ []types.Value) (types.Value, error) {
			if err := env.SetVariable("n", types.UInt(42)); err != nil {
				return nil, err
			}
			return nil, NewRuntimeError(UserAbort, "asserts! failed")
		}),
		fn("return-early", Public, 0, func(env *Environment, _ []types.Value) (types.Value, error) {
			return nil, &ShortReturn{Value: types.Err(types.UInt(9))}
		}),
		fn("return-early-ok", Public, 0, func(env *Environment, _ []types.Value) (types.Value, error) {
			if err := env.SetVariable("n", types.UInt(77)); err != nil {
				return nil, err
			}
			return nil, &ShortReturn{Value: types.Ok(types.Bool(true))}
		}),
		fn("return-early-raw", Public, 0, func(env *Environment, _ []types.Value) (types.Value, error) {
			if err := env.SetVariable("n", types.UInt(78)); err != nil {
				return nil, err
			}
			return nil, &ShortReturn{Value: types.UInt(5)}
		}),
		fn("call-abort", Public, 0, func(env *Environment, _ []types.Value) (types.Value, error) {
			if err := env.SetVariable("n", types.UInt(5)); err != nil {
				return nil, err
			}
			res, err := env.ExecuteContract(*env.Contract(), "abort", nil)
			if err != nil {
				return nil, err
			}
			return types.Ok(res), nil
		}),
		fn("recurse", Public, 0, func(env *Environment, _ []types.Value) (types.Value, error) {
			return env.ExecuteContract(*env.Contract(), "recurse", nil)
		}),
		fn("sneaky-write", ReadOnly, 0, func(env *Environment, _ []types.Value) (types.Value, error) {
			return types.Bool(true), env.SetVariable("n", types.UInt(1))
		}),
		fn("bad-return", Public, 0, func(env *Environment, _ []types.Value) (types.Value, error) {
			return types.UInt(1), nil
		}),
		fn("whoami", ReadOnly, 0, func(env *Environment, _ []types.Value) (types.Value, error) {
			return types.List(env.Sender(), env.Caller()), nil
		}),
		fn("mint", Public, 2, func(env *Environment, args []types.Value) (types.Value, error) {
			return env.FTMint("gold", args[0].(types.UIntValue), args[1].(types.Principal))
		}),
		fn("transfer", Public, 3, func(env *Environment, args []types.Value) (types.Value, error) {
			return env.FTTransfer("gold", args[0].(types.UIntValue), args[1].(types.Principal), args[2].(types.Principal))
		}),
		fn("burn", Public, 2, func(env *Environment, args []types.Value) (types.Value, error) {
			return env.FTBurn("gold", args[0].(types.UIntValue), args[1].(types.Principal))
		}),
		fn("balance", ReadOnly, 1, func(env *Environment, args []types.Value) (types.Value, error) {
			return env.GetFTBalance("gold", args[0].(types.Principal))
		}),
		fn("print-then-fail", Public, 0, func(env *Environment, _ []types.Value) (types.Value, error) {
			if _, err := env.Print(types.UInt(100)); err != nil {
				return nil, err
			}
			return types.Err(types.UInt(1)), nil
		}),
		fn("print-around-call", Public, 0, func(env *Environment, _ []types.Value) (types.Value, error) {
			if _, err := env.Print(types.UInt(1)); err != nil {
				return nil, err
			}
			if _, err := env.ExecuteContract(*env.Contract(), "print-then-fail", nil); err != nil {
				return nil, err
			}
			if _, err := env.Print(types.UInt(2)); err != nil {
				return nil, err
			}
			return types.Ok(types.Bool(true)), nil
		}),
		fn("pay", Public, 2, func(env *Environment, args []types.Value) (types.Value, error) {
			return env.STXTransfer(args[0].(types.UIntValue), env.Sender(), args[1].(types.Principal))
		}),
		fn("pay-then-fail", Public, 2, func(env *Environment, args []types.Value) (types.Value, error) {
			if _, err := env.STXTransfer(args[0].(types.UIntValue), env.Sender(), args[1].(types.Principal)); err != nil {
				return nil, err
			}
			return types.Err(types.UInt(1)), nil
		}),
	}
	c := &Contract{ID: id, Functions: make(map[string]*Function, len(functions))}
	for _, f := range functions {
		c.Functions[f.Name] = f
	}
	c.Define = ExpressionFunc(func(env *Environment) (types.Value, error) {
		db := env.Database()
		self := *env.Contract()
		if err := db.CreateVariable(self, "n", types.UInt(0)); err != nil {
			return nil, err
		}
		if err := db.CreateMap(self, "m"); err != nil {
			return nil, err
		}
		maxSupply := types.UInt(1000)
		if err := db.CreateFungibleToken(self, "gold", &maxSupply); err != nil {
			return nil, err
		}
		if err := db.CreateNonFungibleToken(self, "badge"); err != nil {
			return nil, err
		}
		return types.Bool(true), nil
	})
	return c
}

type countingParser struct {
	calls int
}

func (p *countingParser) Parse(id types.ContractIdentifier, source string) (*Contract, error) {
	p.calls++
	if source != counterSource {
		return nil, errors.Errorf("cannot parse %q", source)
	}
	return counterContract(id), nil
}

// genesis funds alice and bob in the store's open version.
func genesis(t *testing.T, store datastore.BackingStore) *database.ClarityDatabase {
	db := database.NewClarityDatabase(store, nil)
	db.Begin()
	require.NoError(t, db.Initialize(
		database.GenesisAllocation{Principal: alice, Amount: types.UInt(1000)},
		database.GenesisAllocation{Principal: bob, Amount: types.UInt(500)},
	))
	require.NoError(t, db.Commit())
	return db
}

// newCounterEnv returns an environment over a fresh memory store with the
// counter contract installed.
func newCounterEnv(t *testing.T, opts ...Option) (*OwnedEnvironment, *countingParser) {
	parser := &countingParser{}
	db := genesis(t, memorystore.New())
	oe := NewOwnedEnvironment(db, append([]Option{WithParser(parser)}, opts...)...)
	_, err := oe.InitializeContract(counterID(t), counterSource, nil)
	require.NoError(t, err)
	return oe, parser
}

func uintOf(t *testing.T, v types.Value) string {
	u, ok := v.(types.UIntValue)
	require.True(t, ok, "got %v", v)
	return u.Decimal()
}

func stxBalance(t *testing.T, oe *OwnedEnvironment, p types.Principal) string {
	bal, err := oe.Global().Database().GetSTXBalance(p)
	require.NoError(t, err)
	return bal.Decimal()
}
