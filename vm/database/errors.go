package database

import (
	"github.com/tyGavinZJU/miningbot-sub001/core/common"
	"github.com/tyGavinZJU/miningbot-sub001/vm/types"
)

var (
	// ErrNoActiveTransaction - commit or rollback without an open tier.
	ErrNoActiveTransaction = common.NewError("no_active_transaction", "no transaction is open")
	// ErrEncoding - stored bytes do not decode.
	ErrEncoding = types.ErrEncoding
	// ErrAlreadyInitialized - the genesis state was already written.
	ErrAlreadyInitialized = common.NewError("already_initialized", "database is already initialized")
	// ErrNotInitialized - the genesis state is missing.
	ErrNotInitialized = common.NewError("not_initialized", "database is not initialized")
	// ErrStorageFormat - the store was written by an incompatible version.
	ErrStorageFormat = common.NewError("storage_format", "unsupported storage format")
	// ErrContractAlreadyExists - a contract with that identifier is installed.
	ErrContractAlreadyExists = common.NewError("contract_already_exists", "contract already exists")
	// ErrNoSuchContract - no contract with that identifier is installed.
	ErrNoSuchContract = common.NewError("no_such_contract", "no such contract")
	// ErrNoSuchDataVariable - the contract defines no such variable.
	ErrNoSuchDataVariable = common.NewError("no_such_data_variable", "no such data variable")
	// ErrNoSuchMap - the contract defines no such map.
	ErrNoSuchMap = common.NewError("no_such_map", "no such map")
	// ErrNoSuchToken - the contract defines no such token.
	ErrNoSuchToken = common.NewError("no_such_token", "no such token")
	// ErrNameAlreadyUsed - a variable, map or token is defined twice.
	ErrNameAlreadyUsed = common.NewError("name_already_used", "name already used")
)
