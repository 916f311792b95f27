package database

import (
	"github.com/vmihailenco/msgpack/v5"
)

// StorageFormatVersion is written by Initialize and checked on reopen.
const StorageFormatVersion = 1

/*StoreMetadata - written once at genesis */
type StoreMetadata struct {
	FormatVersion int    `msgpack:"format_version"`
	Genesis       bool   `msgpack:"genesis"`
	LiquidSupply  string `msgpack:"liquid_supply,omitempty"`
}

/*ContractMetadata - stored next to a contract's source */
type ContractMetadata struct {
	Sponsor     string `msgpack:"sponsor,omitempty"`
	BlockHeight uint64 `msgpack:"block_height"`
	SourceHash  []byte `msgpack:"source_hash"`
}

/*DataVariableMetadata - a defined data variable */
type DataVariableMetadata struct {
	TypeName string `msgpack:"type_name"`
}

/*DataMapMetadata - a defined data map */
type DataMapMetadata struct {
	Name string `msgpack:"name"`
}

/*FungibleTokenMetadata - a defined fungible token */
type FungibleTokenMetadata struct {
	MaxSupply string `msgpack:"max_supply,omitempty"` // decimal, empty for unlimited
}

/*NonFungibleTokenMetadata - a defined non fungible token */
type NonFungibleTokenMetadata struct {
	Name string `msgpack:"name"`
}

func (db *ClarityDatabase) putMetadata(key Key, v interface{}) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}
	return db.put(key, data)
}

func (db *ClarityDatabase) getMetadata(key Key, v interface{}) (bool, error) {
	data, ok, err := db.get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return false, ErrEncoding
	}
	return true, nil
}
