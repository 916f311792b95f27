package vm

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tyGavinZJU/miningbot-sub001/core/common"
	"github.com/tyGavinZJU/miningbot-sub001/core/logging"
	"github.com/tyGavinZJU/miningbot-sub001/vm/costs"
	"github.com/tyGavinZJU/miningbot-sub001/vm/database"
	"github.com/tyGavinZJU/miningbot-sub001/vm/events"
	"github.com/tyGavinZJU/miningbot-sub001/vm/types"
)

// err codes returned by the asset operations
const (
	codeInsufficientOrMissing uint64 = 1
	codeSamePrincipal         uint64 = 2
	codeNonPositiveOrAbsent   uint64 = 3
	codeNotTxSender           uint64 = 4
)

func errCode(code uint64) types.ResponseValue {
	return types.Err(types.UInt(code))
}

var okTrue = types.Ok(types.Bool(true))

/*Environment - the context of one contract invocation. It borrows the
GlobalContext and keeps no mutable state of its own. */
type Environment struct {
	global   *GlobalContext
	contract *types.ContractIdentifier
	sender   types.Principal
	caller   types.Principal
	sponsor  types.Principal
}

// NewEnvironment creates an invocation context. contract is nil outside of
// any contract.
func NewEnvironment(global *GlobalContext, contract *types.ContractIdentifier, sender, caller, sponsor types.Principal) *Environment {
	return &Environment{global: global, contract: contract, sender: sender, caller: caller, sponsor: sponsor}
}

// Global returns the shared context.
func (env *Environment) Global() *GlobalContext { return env.global }

// Contract returns the contract being executed, or nil.
func (env *Environment) Contract() *types.ContractIdentifier { return env.contract }

// Sender returns the principal that signed the transaction.
func (env *Environment) Sender() types.Principal { return env.sender }

// Caller returns the principal that called the current function.
func (env *Environment) Caller() types.Principal { return env.caller }

// Sponsor returns the transaction sponsor, or nil.
func (env *Environment) Sponsor() types.Principal { return env.sponsor }

// Database returns the database of the shared context.
func (env *Environment) Database() *database.ClarityDatabase { return env.global.db }

// principal is what a callee sees as its caller.
func (env *Environment) principal() types.Principal {
	if env.contract != nil {
		return *env.contract
	}
	return env.sender
}

func (env *Environment) requireContract(op string) (types.ContractIdentifier, error) {
	if env.contract == nil {
		return types.ContractIdentifier{}, NewRuntimeError(TypeError, "%s outside of a contract", op)
	}
	return *env.contract, nil
}

func (env *Environment) requireWritable(op string) error {
	if env.global.IsReadOnly() {
		return NewRuntimeError(WriteInReadOnly, "%s", op)
	}
	return nil
}

// BlockHeight returns the height of the version being written.
func (env *Environment) BlockHeight() (uint64, error) {
	return env.global.db.GetCurrentBlockHeight()
}

// Eval evaluates expr in this context.
func (env *Environment) Eval(expr Expression) (types.Value, error) {
	if err := env.global.track(costs.OpEval, 0); err != nil {
		return nil, err
	}
	return expr.Eval(env)
}

// EvalReadOnly evaluates expr as contract in a tier that is always rolled
// back. A contract level failure becomes an err response.
func (env *Environment) EvalReadOnly(contract types.ContractIdentifier, expr Expression) (types.Value, error) {
	if err := env.global.BeginNested(true); err != nil {
		return nil, err
	}
	callee := &Environment{global: env.global, contract: &contract, sender: env.sender, caller: env.principal(), sponsor: env.sponsor}
	res, err := callee.Eval(expr)
	if rerr := env.global.RollBackNested(); rerr != nil {
		return nil, rerr
	}
	if err != nil {
		if IsContractLevel(err) {
			return errResponse(err), nil
		}
		return nil, err
	}
	return res, nil
}

// ExecuteContract calls a public or read only function of an installed
// contract in a nested tier. The tier is kept only when a public function
// returns an ok response; every other outcome rolls it back, and contract
// level failures reach the caller as err responses.
func (env *Environment) ExecuteContract(id types.ContractIdentifier, function string, args []types.Value) (types.Value, error) {
	if err := env.global.track(costs.OpContractCall, uint64(len(args))); err != nil {
		return nil, err
	}
	contract, err := env.global.LoadContract(id)
	if err != nil {
		return nil, err
	}
	fn, ok := contract.PublicFunction(function)
	if !ok {
		return nil, common.Wrap(ErrNoSuchPublicFunction, "%v.%s", id, function)
	}
	if fn.Arity != len(args) {
		return errResponse(NewRuntimeError(TypeError, "%s expects %d arguments, got %d", function, fn.Arity, len(args))), nil
	}
	readOnly := fn.Visibility == ReadOnly
	if err := env.global.BeginNested(readOnly); err != nil {
		return nil, err
	}
	callee := &Environment{global: env.global, contract: &id, sender: env.sender, caller: env.principal(), sponsor: env.sponsor}

	res, err := fn.Body(callee, args)
	var sr *ShortReturn
	if errors.As(err, &sr) {
		// an early return is the function's result; the tier decision below
		// applies to it like to any other
		res, err = sr.Value, nil
		if !readOnly {
			res = errResponse(sr)
		}
	}
	if err != nil {
		if rerr := env.global.RollBackNested(); rerr != nil {
			return nil, rerr
		}
		if IsContractLevel(err) {
			logging.Logger.Debug("contract call aborted",
				zap.String("contract", id.String()),
				zap.String("function", function),
				zap.Error(err))
			return errResponse(err), nil
		}
		return nil, err
	}
	if readOnly {
		return res, env.global.RollBackNested()
	}
	resp, isResponse := res.(types.ResponseValue)
	if !isResponse || !resp.Committed {
		if rerr := env.global.RollBackNested(); rerr != nil {
			return nil, rerr
		}
		if !isResponse {
			return errResponse(NewRuntimeError(TypeError, "%s returned %s, not a response", function, res.TypeName())), nil
		}
		return resp, nil
	}
	if _, _, err := env.global.CommitNested(); err != nil {
		return nil, err
	}
	return resp, nil
}

// FetchVariable reads a data variable of the current contract.
func (env *Environment) FetchVariable(name string) (types.Value, error) {
	contract, err := env.requireContract("var-get")
	if err != nil {
		return nil, err
	}
	return env.global.db.LookupVariable(contract, name)
}

// SetVariable writes a data variable of the current contract.
func (env *Environment) SetVariable(name string, v types.Value) error {
	contract, err := env.requireContract("var-set")
	if err != nil {
		return err
	}
	if err := env.requireWritable("var-set"); err != nil {
		return err
	}
	return env.global.db.SetVariable(contract, name, v)
}

// FetchEntry reads a map entry of the current contract.
func (env *Environment) FetchEntry(mapName string, key types.Value) (types.OptionalValue, error) {
	contract, err := env.requireContract("map-get")
	if err != nil {
		return types.None(), err
	}
	return env.global.db.FetchEntry(contract, mapName, key)
}

// SetEntry writes a map entry of the current contract.
func (env *Environment) SetEntry(mapName string, key, value types.Value) error {
	contract, err := env.requireContract("map-set")
	if err != nil {
		return err
	}
	if err := env.requireWritable("map-set"); err != nil {
		return err
	}
	return env.global.db.SetEntry(contract, mapName, key, value)
}

// InsertEntry writes a map entry unless it exists, reporting whether it did.
func (env *Environment) InsertEntry(mapName string, key, value types.Value) (bool, error) {
	contract, err := env.requireContract("map-insert")
	if err != nil {
		return false, err
	}
	if err := env.requireWritable("map-insert"); err != nil {
		return false, err
	}
	return env.global.db.InsertEntry(contract, mapName, key, value)
}

// DeleteEntry removes a map entry, reporting whether it existed.
func (env *Environment) DeleteEntry(mapName string, key types.Value) (bool, error) {
	contract, err := env.requireContract("map-delete")
	if err != nil {
		return false, err
	}
	if err := env.requireWritable("map-delete"); err != nil {
		return false, err
	}
	return env.global.db.DeleteEntry(contract, mapName, key)
}

func (env *Environment) asset(op, token string) (types.AssetIdentifier, error) {
	contract, err := env.requireContract(op)
	if err != nil {
		return types.AssetIdentifier{}, err
	}
	return types.AssetIdentifier{Contract: contract, Name: token}, nil
}

// GetSTXBalance returns a principal's native balance including pending
// movements.
func (env *Environment) GetSTXBalance(p types.Principal) (types.UIntValue, error) {
	return env.global.EffectiveBalance(types.STXAssetIdentifier, p)
}

// STXTransfer moves native tokens from the transaction sender.
func (env *Environment) STXTransfer(amount types.UIntValue, from, to types.Principal) (types.ResponseValue, error) {
	switch {
	case amount.IsZero():
		return errCode(codeNonPositiveOrAbsent), nil
	case from == to:
		return errCode(codeSamePrincipal), nil
	case from != env.sender:
		return errCode(codeNotTxSender), nil
	}
	bal, err := env.GetSTXBalance(from)
	if err != nil {
		return types.ResponseValue{}, err
	}
	if bal.Cmp(amount) < 0 {
		return errCode(codeInsufficientOrMissing), nil
	}
	if err := env.global.LogSTXTransfer(from, to, amount); err != nil {
		return types.ResponseValue{}, err
	}
	return okTrue, env.global.EmitEvent(&events.STXTransferEvent{Sender: from, Recipient: to, Amount: amount})
}

// STXBurn destroys native tokens of the transaction sender.
func (env *Environment) STXBurn(amount types.UIntValue, from types.Principal) (types.ResponseValue, error) {
	switch {
	case amount.IsZero():
		return errCode(codeNonPositiveOrAbsent), nil
	case from != env.sender:
		return errCode(codeNotTxSender), nil
	}
	bal, err := env.GetSTXBalance(from)
	if err != nil {
		return types.ResponseValue{}, err
	}
	if bal.Cmp(amount) < 0 {
		return errCode(codeInsufficientOrMissing), nil
	}
	if err := env.global.LogSTXBurn(from, amount); err != nil {
		return types.ResponseValue{}, err
	}
	return okTrue, env.global.EmitEvent(&events.STXBurnEvent{Sender: from, Amount: amount})
}

// GetFTBalance returns a holder's balance of a token of the current contract.
func (env *Environment) GetFTBalance(token string, p types.Principal) (types.UIntValue, error) {
	asset, err := env.asset("ft-get-balance", token)
	if err != nil {
		return types.UIntValue{}, err
	}
	if _, err := env.global.db.GetFTMaxSupply(asset.Contract, token); err != nil {
		return types.UIntValue{}, err
	}
	return env.global.EffectiveBalance(asset, p)
}

// FTMint creates tokens of the current contract. Going above the token's
// maximum supply aborts the call.
func (env *Environment) FTMint(token string, amount types.UIntValue, to types.Principal) (types.ResponseValue, error) {
	asset, err := env.asset("ft-mint?", token)
	if err != nil {
		return types.ResponseValue{}, err
	}
	maxSupply, err := env.global.db.GetFTMaxSupply(asset.Contract, token)
	if err != nil {
		return types.ResponseValue{}, err
	}
	if amount.IsZero() {
		return errCode(codeInsufficientOrMissing), nil
	}
	supply, err := env.global.EffectiveSupply(asset)
	if err != nil {
		return types.ResponseValue{}, err
	}
	next, err := supply.Add(amount)
	if err != nil || !database.SupplyWithin(next, maxSupply) {
		return types.ResponseValue{}, NewRuntimeError(SupplyOverflow, "%v", asset)
	}
	if err := env.global.LogTokenMint(asset, to, amount); err != nil {
		return types.ResponseValue{}, err
	}
	return okTrue, env.global.EmitEvent(&events.FTMintEvent{Asset: asset, Recipient: to, Amount: amount})
}

// FTTransfer moves tokens of the current contract.
func (env *Environment) FTTransfer(token string, amount types.UIntValue, from, to types.Principal) (types.ResponseValue, error) {
	asset, err := env.asset("ft-transfer?", token)
	if err != nil {
		return types.ResponseValue{}, err
	}
	if _, err := env.global.db.GetFTMaxSupply(asset.Contract, token); err != nil {
		return types.ResponseValue{}, err
	}
	switch {
	case amount.IsZero():
		return errCode(codeNonPositiveOrAbsent), nil
	case from == to:
		return errCode(codeSamePrincipal), nil
	}
	bal, err := env.global.EffectiveBalance(asset, from)
	if err != nil {
		return types.ResponseValue{}, err
	}
	if bal.Cmp(amount) < 0 {
		return errCode(codeInsufficientOrMissing), nil
	}
	if err := env.global.LogTokenTransfer(asset, from, to, amount); err != nil {
		return types.ResponseValue{}, err
	}
	return okTrue, env.global.EmitEvent(&events.FTTransferEvent{Asset: asset, Sender: from, Recipient: to, Amount: amount})
}

// FTBurn destroys tokens of the current contract.
func (env *Environment) FTBurn(token string, amount types.UIntValue, from types.Principal) (types.ResponseValue, error) {
	asset, err := env.asset("ft-burn?", token)
	if err != nil {
		return types.ResponseValue{}, err
	}
	if _, err := env.global.db.GetFTMaxSupply(asset.Contract, token); err != nil {
		return types.ResponseValue{}, err
	}
	if amount.IsZero() {
		return errCode(codeNonPositiveOrAbsent), nil
	}
	bal, err := env.global.EffectiveBalance(asset, from)
	if err != nil {
		return types.ResponseValue{}, err
	}
	if bal.Cmp(amount) < 0 {
		return errCode(codeInsufficientOrMissing), nil
	}
	if err := env.global.LogTokenBurn(asset, from, amount); err != nil {
		return types.ResponseValue{}, err
	}
	return okTrue, env.global.EmitEvent(&events.FTBurnEvent{Asset: asset, Sender: from, Amount: amount})
}

// GetNFTOwner returns the owner of a token of the current contract.
func (env *Environment) GetNFTOwner(token string, id types.Value) (types.OptionalValue, error) {
	asset, err := env.asset("nft-get-owner?", token)
	if err != nil {
		return types.None(), err
	}
	owner, ok, err := env.global.db.GetNFTOwner(asset.Contract, token, id)
	if err != nil || !ok {
		return types.None(), err
	}
	return types.Some(owner), nil
}

// NFTMint creates a token of the current contract owned by to.
func (env *Environment) NFTMint(token string, id types.Value, to types.Principal) (types.ResponseValue, error) {
	asset, err := env.asset("nft-mint?", token)
	if err != nil {
		return types.ResponseValue{}, err
	}
	_, exists, err := env.global.db.GetNFTOwner(asset.Contract, token, id)
	if err != nil {
		return types.ResponseValue{}, err
	}
	if exists {
		return errCode(codeInsufficientOrMissing), nil
	}
	if err := env.global.LogNFTMint(asset, id, to); err != nil {
		return types.ResponseValue{}, err
	}
	if err := env.global.db.SetNFTOwner(asset.Contract, token, id, to); err != nil {
		return types.ResponseValue{}, err
	}
	return okTrue, env.global.EmitEvent(&events.NFTMintEvent{Asset: asset, Recipient: to, Value: id})
}

// NFTTransfer moves a token of the current contract.
func (env *Environment) NFTTransfer(token string, id types.Value, from, to types.Principal) (types.ResponseValue, error) {
	asset, err := env.asset("nft-transfer?", token)
	if err != nil {
		return types.ResponseValue{}, err
	}
	if from == to {
		return errCode(codeSamePrincipal), nil
	}
	owner, exists, err := env.global.db.GetNFTOwner(asset.Contract, token, id)
	if err != nil {
		return types.ResponseValue{}, err
	}
	if !exists {
		return errCode(codeNonPositiveOrAbsent), nil
	}
	if owner != from {
		return errCode(codeInsufficientOrMissing), nil
	}
	if err := env.global.LogNFTTransfer(asset, id, from, to); err != nil {
		return types.ResponseValue{}, err
	}
	if err := env.global.db.SetNFTOwner(asset.Contract, token, id, to); err != nil {
		return types.ResponseValue{}, err
	}
	return okTrue, env.global.EmitEvent(&events.NFTTransferEvent{Asset: asset, Sender: from, Recipient: to, Value: id})
}

// NFTBurn destroys a token of the current contract owned by from.
func (env *Environment) NFTBurn(token string, id types.Value, from types.Principal) (types.ResponseValue, error) {
	asset, err := env.asset("nft-burn?", token)
	if err != nil {
		return types.ResponseValue{}, err
	}
	owner, exists, err := env.global.db.GetNFTOwner(asset.Contract, token, id)
	if err != nil {
		return types.ResponseValue{}, err
	}
	if !exists {
		return errCode(codeNonPositiveOrAbsent), nil
	}
	if owner != from {
		return errCode(codeInsufficientOrMissing), nil
	}
	if err := env.global.LogNFTBurn(asset, id, from); err != nil {
		return types.ResponseValue{}, err
	}
	return okTrue, env.global.db.BurnNFT(asset.Contract, token, id)
}

// Print emits v as an event of the current contract and returns it.
func (env *Environment) Print(v types.Value) (types.Value, error) {
	contract, err := env.requireContract("print")
	if err != nil {
		return nil, err
	}
	data, err := types.Serialize(v)
	if err != nil {
		return nil, err
	}
	if err := env.global.track(costs.OpPrint, uint64(len(data))); err != nil {
		return nil, err
	}
	if err := env.global.EmitEvent(&events.SmartContractEvent{Contract: contract, Topic: "print", Value: v}); err != nil {
		return nil, err
	}
	return v, nil
}
