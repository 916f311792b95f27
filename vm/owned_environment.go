package vm

import (
	"go.uber.org/zap"

	"github.com/tyGavinZJU/miningbot-sub001/chaincore/config"
	"github.com/tyGavinZJU/miningbot-sub001/core/logging"
	"github.com/tyGavinZJU/miningbot-sub001/vm/costs"
	"github.com/tyGavinZJU/miningbot-sub001/vm/database"
	"github.com/tyGavinZJU/miningbot-sub001/vm/types"
)

type ownedOptions struct {
	parser   Parser
	maxDepth int
	costFn   costs.CostFunction
	limit    costs.ExecutionCost
}

/*Option - configures an OwnedEnvironment */
type Option func(*ownedOptions)

// WithParser sets how installed contracts are turned into executable ones.
func WithParser(p Parser) Option {
	return func(o *ownedOptions) { o.parser = p }
}

// WithMaxDepth sets the nesting limit of transaction tiers.
func WithMaxDepth(depth int) Option {
	return func(o *ownedOptions) { o.maxDepth = depth }
}

// WithCostFunction sets how operations are priced.
func WithCostFunction(fn costs.CostFunction) Option {
	return func(o *ownedOptions) { o.costFn = fn }
}

// WithCostLimit sets the budget of one top level operation.
func WithCostLimit(limit costs.ExecutionCost) Option {
	return func(o *ownedOptions) { o.limit = limit }
}

// WithConfig applies the loaded runtime configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *ownedOptions) {
		if cfg != nil && cfg.MaxCallDepth > 0 {
			o.maxDepth = cfg.MaxCallDepth
		}
	}
}

/*OwnedEnvironment - the entry point of the runtime. It owns the global
context of a database handle and brackets exactly one top level operation
at a time. */
type OwnedEnvironment struct {
	global  *GlobalContext
	tracker *costs.Tracker
	// set when the outermost commit failed after the ledger reached the
	// database tier; only a rollback clears it
	poisoned error
}

// NewOwnedEnvironment creates an environment over db.
func NewOwnedEnvironment(db *database.ClarityDatabase, opts ...Option) *OwnedEnvironment {
	o := &ownedOptions{maxDepth: config.DefaultMaxCallDepth, limit: costs.Unlimited}
	for _, opt := range opts {
		opt(o)
	}
	tracker := costs.NewTracker(o.costFn, o.limit)
	return &OwnedEnvironment{
		global:  NewGlobalContext(db, tracker, o.parser, o.maxDepth),
		tracker: tracker,
	}
}

// Global returns the shared context.
func (oe *OwnedEnvironment) Global() *GlobalContext {
	return oe.global
}

// IsActive reports whether a top level operation is open.
func (oe *OwnedEnvironment) IsActive() bool {
	return oe.global.Depth() > 0
}

// Begin opens a top level operation.
func (oe *OwnedEnvironment) Begin() error {
	if oe.IsActive() {
		return ErrTransactionInProgress
	}
	oe.poisoned = nil
	return oe.global.BeginNested(false)
}

// CommitToBackingStore closes every open tier and writes the outcome into
// the store's open version.
func (oe *OwnedEnvironment) CommitToBackingStore() (*Receipt, error) {
	if !oe.IsActive() {
		return nil, ErrNoActiveTransaction
	}
	if oe.poisoned != nil {
		return nil, oe.poisoned
	}
	for oe.global.Depth() > 1 {
		if _, _, err := oe.global.CommitNested(); err != nil {
			return nil, err
		}
	}
	am, batch, err := oe.global.CommitNested()
	if err != nil {
		oe.poisoned = err
		return nil, err
	}
	receipt := &Receipt{Assets: am, Events: batch.Events, Cost: oe.global.Cost()}
	oe.tracker.Reset()
	logging.Logger.Debug("operation committed",
		zap.Int("events", len(receipt.Events)),
		zap.Stringer("cost", receipt.Cost))
	return receipt, nil
}

// RollBack discards every open tier.
func (oe *OwnedEnvironment) RollBack() error {
	if !oe.IsActive() {
		return ErrNoActiveTransaction
	}
	for oe.IsActive() {
		if err := oe.global.RollBackNested(); err != nil {
			return err
		}
	}
	oe.poisoned = nil
	oe.tracker.Reset()
	return nil
}

// run brackets fn in its own top level operation. Any error rolls the whole
// operation back.
func (oe *OwnedEnvironment) run(fn func() (types.Value, error)) (types.Value, *Receipt, error) {
	if err := oe.Begin(); err != nil {
		return nil, nil, err
	}
	res, err := fn()
	if err != nil {
		if rerr := oe.RollBack(); rerr != nil {
			logging.Logger.Error("rollback failed", zap.Error(rerr))
		}
		return nil, nil, err
	}
	receipt, err := oe.CommitToBackingStore()
	if err != nil {
		if rerr := oe.RollBack(); rerr != nil {
			logging.Logger.Error("rollback failed", zap.Error(rerr))
		}
		return nil, nil, err
	}
	return res, receipt, nil
}

// InitializeContract installs a contract and runs its definitions.
func (oe *OwnedEnvironment) InitializeContract(id types.ContractIdentifier, source string, sponsor types.Principal) (*Receipt, error) {
	_, receipt, err := oe.run(func() (types.Value, error) {
		db := oe.global.db
		if err := db.InsertContract(id, source, sponsor); err != nil {
			return nil, err
		}
		contract, err := oe.global.LoadContract(id)
		if err != nil {
			return nil, err
		}
		if contract.Define == nil {
			return nil, nil
		}
		env := NewEnvironment(oe.global, &id, id.Issuer, id.Issuer, sponsor)
		return env.Eval(contract.Define)
	})
	return receipt, err
}

// ExecuteTransaction calls a public function on behalf of sender. An err
// response commits nothing but the cost.
func (oe *OwnedEnvironment) ExecuteTransaction(sender types.Principal, contract types.ContractIdentifier, function string, args ...types.Value) (types.Value, *Receipt, error) {
	return oe.run(func() (types.Value, error) {
		env := NewEnvironment(oe.global, nil, sender, sender, nil)
		return env.ExecuteContract(contract, function, args)
	})
}

// STXTransfer moves native tokens as a transaction of from.
func (oe *OwnedEnvironment) STXTransfer(from, to types.Principal, amount types.UIntValue) (types.Value, *Receipt, error) {
	return oe.run(func() (types.Value, error) {
		env := NewEnvironment(oe.global, nil, from, from, nil)
		return env.STXTransfer(amount, from, to)
	})
}

// EvalRaw evaluates expr outside of any contract on behalf of sender.
func (oe *OwnedEnvironment) EvalRaw(sender types.Principal, expr Expression) (types.Value, *Receipt, error) {
	return oe.run(func() (types.Value, error) {
		env := NewEnvironment(oe.global, nil, sender, sender, nil)
		return env.Eval(expr)
	})
}

// EvalReadOnly evaluates expr as contract without keeping any write.
func (oe *OwnedEnvironment) EvalReadOnly(sender types.Principal, contract types.ContractIdentifier, expr Expression) (types.Value, *Receipt, error) {
	return oe.run(func() (types.Value, error) {
		env := NewEnvironment(oe.global, nil, sender, sender, nil)
		return env.EvalReadOnly(contract, expr)
	})
}
