package vm

import (
	"go.uber.org/zap"

	"github.com/tyGavinZJU/miningbot-sub001/chaincore/config"
	"github.com/tyGavinZJU/miningbot-sub001/core/common"
	"github.com/tyGavinZJU/miningbot-sub001/core/encryption"
	"github.com/tyGavinZJU/miningbot-sub001/core/logging"
	"github.com/tyGavinZJU/miningbot-sub001/vm/assets"
	"github.com/tyGavinZJU/miningbot-sub001/vm/costs"
	"github.com/tyGavinZJU/miningbot-sub001/vm/database"
	"github.com/tyGavinZJU/miningbot-sub001/vm/events"
	"github.com/tyGavinZJU/miningbot-sub001/vm/types"
)

type tier struct {
	assets   *assets.AssetMap
	events   *events.Batch
	readOnly bool
}

/*GlobalContext - the state shared by every call of one top level operation:
the database with its transaction tiers and, per tier, the asset ledger and
the emitted events. The three stacks always have the same depth. */
type GlobalContext struct {
	db       *database.ClarityDatabase
	tiers    []tier
	tracker  *costs.Tracker
	maxDepth int
	parser   Parser

	contracts map[string]*Contract
}

// NewGlobalContext creates a context over db.
func NewGlobalContext(db *database.ClarityDatabase, tracker *costs.Tracker, parser Parser, maxDepth int) *GlobalContext {
	if tracker == nil {
		tracker = costs.NewTracker(costs.Free, costs.Unlimited)
	}
	if maxDepth <= 0 {
		maxDepth = config.DefaultMaxCallDepth
	}
	db.SetCostTracker(tracker)
	return &GlobalContext{
		db:        db,
		tracker:   tracker,
		maxDepth:  maxDepth,
		parser:    parser,
		contracts: make(map[string]*Contract),
	}
}

// Database returns the database.
func (gc *GlobalContext) Database() *database.ClarityDatabase {
	return gc.db
}

// Depth returns the number of open tiers.
func (gc *GlobalContext) Depth() int {
	return len(gc.tiers)
}

// MaxDepth returns the nesting limit.
func (gc *GlobalContext) MaxDepth() int {
	return gc.maxDepth
}

// IsReadOnly reports whether the innermost tier forbids writes.
func (gc *GlobalContext) IsReadOnly() bool {
	n := len(gc.tiers)
	return n > 0 && gc.tiers[n-1].readOnly
}

// BeginNested opens a tier. A read only tier makes every tier above it read
// only too.
func (gc *GlobalContext) BeginNested(readOnly bool) error {
	if len(gc.tiers) >= gc.maxDepth {
		logging.Logger.Debug("call stack exceeded", zap.Int("depth", len(gc.tiers)))
		return common.Wrap(ErrMaxCallStackExceeded, "depth %d", gc.maxDepth)
	}
	gc.db.Begin()
	gc.tiers = append(gc.tiers, tier{
		assets:   assets.NewAssetMap(),
		events:   &events.Batch{},
		readOnly: readOnly || gc.IsReadOnly(),
	})
	return nil
}

// CommitNested closes the innermost tier keeping its effects. Closing the
// outermost tier checks and applies the asset ledger first; if that fails
// nothing is closed and the caller has to roll back.
func (gc *GlobalContext) CommitNested() (*assets.AssetMap, *events.Batch, error) {
	n := len(gc.tiers)
	if n == 0 {
		return nil, nil, ErrNoActiveTransaction
	}
	top := gc.tiers[n-1]
	if n == 1 {
		if err := gc.applyLedger(top.assets); err != nil {
			return nil, nil, err
		}
	}
	if err := gc.db.Commit(); err != nil {
		return nil, nil, err
	}
	gc.tiers = gc.tiers[:n-1]
	if n > 1 {
		parent := gc.tiers[n-2]
		parent.assets.Merge(top.assets)
		parent.events.Merge(top.events)
	}
	return top.assets, top.events, nil
}

// RollBackNested discards the innermost tier with its ledger and events.
func (gc *GlobalContext) RollBackNested() error {
	n := len(gc.tiers)
	if n == 0 {
		return ErrNoActiveTransaction
	}
	gc.tiers = gc.tiers[:n-1]
	// the database never keeps more tiers than the context, even when a tier
	// is left behind by a failed commit
	for gc.db.Depth() > len(gc.tiers) {
		if err := gc.db.RollBack(); err != nil {
			return err
		}
	}
	return nil
}

// Cost returns what the operation has consumed so far.
func (gc *GlobalContext) Cost() costs.ExecutionCost {
	return gc.tracker.Total()
}

// AddCost charges c. Charges are never undone by a rollback.
func (gc *GlobalContext) AddCost(c costs.ExecutionCost) error {
	return gc.tracker.Add(c)
}

func (gc *GlobalContext) track(op costs.Operation, size uint64) error {
	return gc.tracker.Track(op, size)
}

func (gc *GlobalContext) top() (*tier, error) {
	n := len(gc.tiers)
	if n == 0 {
		return nil, ErrNoActiveTransaction
	}
	return &gc.tiers[n-1], nil
}

func (gc *GlobalContext) writableTop() (*tier, error) {
	t, err := gc.top()
	if err != nil {
		return nil, err
	}
	if t.readOnly {
		return nil, NewRuntimeError(WriteInReadOnly, "asset movement")
	}
	if err := gc.track(costs.OpAssetLog, 0); err != nil {
		return nil, err
	}
	return t, nil
}

// EmitEvent buffers an event in the innermost tier.
func (gc *GlobalContext) EmitEvent(e events.Event) error {
	t, err := gc.top()
	if err != nil {
		return err
	}
	t.events.Append(e)
	return nil
}

// LogSTXTransfer records native tokens moving between principals.
func (gc *GlobalContext) LogSTXTransfer(from, to types.Principal, amount types.UIntValue) error {
	return gc.LogTokenTransfer(types.STXAssetIdentifier, from, to, amount)
}

// LogSTXMint records native tokens being created.
func (gc *GlobalContext) LogSTXMint(to types.Principal, amount types.UIntValue) error {
	return gc.LogTokenMint(types.STXAssetIdentifier, to, amount)
}

// LogSTXBurn records native tokens being destroyed.
func (gc *GlobalContext) LogSTXBurn(from types.Principal, amount types.UIntValue) error {
	return gc.LogTokenBurn(types.STXAssetIdentifier, from, amount)
}

// LogTokenTransfer records a fungible token movement.
func (gc *GlobalContext) LogTokenTransfer(asset types.AssetIdentifier, from, to types.Principal, amount types.UIntValue) error {
	t, err := gc.writableTop()
	if err != nil {
		return err
	}
	t.assets.AddTransfer(asset, from, to, amount)
	return nil
}

// LogTokenMint records fungible tokens being created.
func (gc *GlobalContext) LogTokenMint(asset types.AssetIdentifier, to types.Principal, amount types.UIntValue) error {
	t, err := gc.writableTop()
	if err != nil {
		return err
	}
	t.assets.AddMint(asset, to, amount)
	return nil
}

// LogTokenBurn records fungible tokens being destroyed.
func (gc *GlobalContext) LogTokenBurn(asset types.AssetIdentifier, from types.Principal, amount types.UIntValue) error {
	t, err := gc.writableTop()
	if err != nil {
		return err
	}
	t.assets.AddBurn(asset, from, amount)
	return nil
}

// LogNFTTransfer records a non fungible token changing owner.
func (gc *GlobalContext) LogNFTTransfer(asset types.AssetIdentifier, id types.Value, from, to types.Principal) error {
	t, err := gc.writableTop()
	if err != nil {
		return err
	}
	t.assets.AddNFTChange(assets.NFTChange{Asset: asset, ID: id, From: from, To: to})
	return nil
}

// LogNFTBurn records a non fungible token being destroyed.
func (gc *GlobalContext) LogNFTBurn(asset types.AssetIdentifier, id types.Value, from types.Principal) error {
	t, err := gc.writableTop()
	if err != nil {
		return err
	}
	t.assets.AddNFTChange(assets.NFTChange{Asset: asset, ID: id, From: from})
	return nil
}

// LogNFTMint records a non fungible token being created.
func (gc *GlobalContext) LogNFTMint(asset types.AssetIdentifier, id types.Value, to types.Principal) error {
	t, err := gc.writableTop()
	if err != nil {
		return err
	}
	t.assets.AddNFTChange(assets.NFTChange{Asset: asset, ID: id, To: to})
	return nil
}

func (gc *GlobalContext) storedBalance(asset types.AssetIdentifier, holder types.Principal) (types.UIntValue, error) {
	if asset.IsSTX() {
		return gc.db.GetSTXBalance(holder)
	}
	return gc.db.GetFTBalance(asset.Contract, asset.Name, holder)
}

func (gc *GlobalContext) storedSupply(asset types.AssetIdentifier) (types.UIntValue, error) {
	if asset.IsSTX() {
		return gc.db.GetSTXLiquidSupply()
	}
	return gc.db.GetFTSupply(asset.Contract, asset.Name)
}

// EffectiveBalance is the stored balance with the pending movements of every
// open tier applied.
func (gc *GlobalContext) EffectiveBalance(asset types.AssetIdentifier, holder types.Principal) (types.UIntValue, error) {
	stored, err := gc.storedBalance(asset, holder)
	if err != nil {
		return types.UIntValue{}, err
	}
	var pending assets.Delta
	for _, t := range gc.tiers {
		if d, ok := t.assets.Delta(asset, holder); ok {
			pending.Credit.Add(&pending.Credit, &d.Credit)
			pending.Debit.Add(&pending.Debit, &d.Debit)
		}
	}
	bal, err := pending.Net(stored)
	if err != nil {
		return types.UIntValue{}, common.Wrap(ErrAssetInvariantViolation, "%v balance of %v", asset, holder)
	}
	return bal, nil
}

// EffectiveSupply is the stored supply with the pending mints and burns of
// every open tier applied.
func (gc *GlobalContext) EffectiveSupply(asset types.AssetIdentifier) (types.UIntValue, error) {
	stored, err := gc.storedSupply(asset)
	if err != nil {
		return types.UIntValue{}, err
	}
	var pending assets.Delta
	for _, t := range gc.tiers {
		minted, burned := t.assets.Supply(asset)
		pending.Credit.Add(&pending.Credit, &minted)
		pending.Debit.Add(&pending.Debit, &burned)
	}
	supply, err := pending.Net(stored)
	if err != nil {
		return types.UIntValue{}, common.Wrap(ErrAssetInvariantViolation, "%v supply", asset)
	}
	return supply, nil
}

func (gc *GlobalContext) violation(am *assets.AssetMap, format string, args ...interface{}) error {
	err := common.Wrap(ErrAssetInvariantViolation, format, args...)
	logging.Logger.Debug("asset ledger rejected", zap.Error(err), zap.Int("assets", len(am.Assets())))
	return err
}

// applyLedger writes the fungible balance and supply changes of the
// outermost tier after checking that no balance goes negative, that
// movements balance out, and that supplies stay within their caps.
func (gc *GlobalContext) applyLedger(am *assets.AssetMap) error {
	if err := am.CheckConservation(); err != nil {
		return gc.violation(am, "%v", err)
	}
	for _, asset := range am.Assets() {
		for _, holder := range am.Holders(asset) {
			d, _ := am.Delta(asset, holder)
			stored, err := gc.storedBalance(asset, holder)
			if err != nil {
				return err
			}
			bal, err := d.Net(stored)
			if err != nil {
				return gc.violation(am, "%v balance of %v goes negative", asset, holder)
			}
			if asset.IsSTX() {
				err = gc.db.SetSTXBalance(holder, bal)
			} else {
				err = gc.db.SetFTBalance(asset.Contract, asset.Name, holder, bal)
			}
			if err != nil {
				return err
			}
		}
		minted, burned := am.Supply(asset)
		if minted.IsZero() && burned.IsZero() {
			continue
		}
		stored, err := gc.storedSupply(asset)
		if err != nil {
			return err
		}
		d := assets.Delta{Credit: minted, Debit: burned}
		supply, err := d.Net(stored)
		if err != nil {
			return gc.violation(am, "%v supply goes negative", asset)
		}
		if asset.IsSTX() {
			err = gc.db.SetSTXLiquidSupply(supply)
		} else {
			var maxSupply *types.UIntValue
			if maxSupply, err = gc.db.GetFTMaxSupply(asset.Contract, asset.Name); err != nil {
				return err
			}
			if !database.SupplyWithin(supply, maxSupply) {
				return gc.violation(am, "%v supply above its maximum", asset)
			}
			err = gc.db.SetFTSupply(asset.Contract, asset.Name, supply)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadContract returns the executable form of an installed contract.
func (gc *GlobalContext) LoadContract(id types.ContractIdentifier) (*Contract, error) {
	source, err := gc.db.GetContractSource(id)
	if err != nil {
		return nil, err
	}
	if err := gc.track(costs.OpLoadContract, uint64(len(source))); err != nil {
		return nil, err
	}
	cacheKey := id.String() + ":" + encryption.Hash(source)
	if c, ok := gc.contracts[cacheKey]; ok {
		return c, nil
	}
	if gc.parser == nil {
		return nil, ErrNoParser
	}
	c, err := gc.parser.Parse(id, source)
	if err != nil {
		return nil, err
	}
	gc.contracts[cacheKey] = c
	return c, nil
}

