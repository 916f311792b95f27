package database

import (
	"go.uber.org/zap"

	"github.com/tyGavinZJU/miningbot-sub001/core/common"
	"github.com/tyGavinZJU/miningbot-sub001/core/datastore"
	"github.com/tyGavinZJU/miningbot-sub001/core/encryption"
	"github.com/tyGavinZJU/miningbot-sub001/core/logging"
	"github.com/tyGavinZJU/miningbot-sub001/vm/costs"
	"github.com/tyGavinZJU/miningbot-sub001/vm/types"
)

const storeMetadataName = "store"

/*ClarityDatabase - typed access to contract state with nested transactions */
type ClarityDatabase struct {
	rw      *RollbackWrapper
	headers HeadersDB
	tracker *costs.Tracker
}

// NewClarityDatabase wraps store. A nil headers db knows no blocks.
func NewClarityDatabase(store datastore.BackingStore, headers HeadersDB) *ClarityDatabase {
	if headers == nil {
		headers = NullHeadersDB{}
	}
	return &ClarityDatabase{rw: NewRollbackWrapper(store), headers: headers}
}

// SetCostTracker charges reads and writes to tracker; nil stops charging.
func (db *ClarityDatabase) SetCostTracker(tracker *costs.Tracker) {
	db.tracker = tracker
}

// Store returns the backing store.
func (db *ClarityDatabase) Store() datastore.BackingStore {
	return db.rw.Store()
}

/*Begin - open a nested transaction */
func (db *ClarityDatabase) Begin() {
	db.rw.Begin()
}

/*Commit - fold the innermost transaction into its parent or the store */
func (db *ClarityDatabase) Commit() error {
	return db.rw.Commit()
}

/*RollBack - discard the innermost transaction */
func (db *ClarityDatabase) RollBack() error {
	return db.rw.Rollback()
}

/*Depth - number of open transactions */
func (db *ClarityDatabase) Depth() int {
	return db.rw.Depth()
}

func (db *ClarityDatabase) get(key Key) ([]byte, bool, error) {
	data, ok, err := db.rw.Get(key.Encode())
	if err != nil {
		return nil, false, err
	}
	if db.tracker != nil {
		if err := db.tracker.Track(costs.OpRead, uint64(len(data))); err != nil {
			return nil, false, err
		}
	}
	return data, ok, nil
}

func (db *ClarityDatabase) put(key Key, value []byte) error {
	if db.tracker != nil {
		if err := db.tracker.Track(costs.OpWrite, uint64(len(value))); err != nil {
			return err
		}
	}
	return db.rw.Put(key.Encode(), value)
}

// GetValue reads and decodes a value.
func (db *ClarityDatabase) GetValue(key Key) (types.Value, bool, error) {
	data, ok, err := db.get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	v, err := types.Deserialize(data)
	if err != nil {
		return nil, false, common.Wrap(ErrEncoding, "key kind %d name %q", key.Kind, key.Name)
	}
	return v, true, nil
}

// PutValue encodes and writes a value.
func (db *ClarityDatabase) PutValue(key Key, v types.Value) error {
	data, err := types.Serialize(v)
	if err != nil {
		return err
	}
	return db.put(key, data)
}

func (db *ClarityDatabase) getUInt(key Key) (types.UIntValue, error) {
	v, ok, err := db.GetValue(key)
	if err != nil {
		return types.UIntValue{}, err
	}
	if !ok {
		return types.UInt(0), nil
	}
	u, isUInt := v.(types.UIntValue)
	if !isUInt {
		return types.UIntValue{}, common.Wrap(ErrEncoding, "expected uint, got %s", v.TypeName())
	}
	return u, nil
}

// Initialize writes the genesis state: the storage format, and the funded
// accounts with the liquid supply they add up to. It can run only once.
func (db *ClarityDatabase) Initialize(allocations ...GenesisAllocation) error {
	var meta StoreMetadata
	ok, err := db.getMetadata(metadataKey(storeMetadataName), &meta)
	if err != nil {
		return err
	}
	if ok && meta.Genesis {
		return ErrAlreadyInitialized
	}
	supply := types.UInt(0)
	for _, a := range allocations {
		bal, err := db.GetSTXBalance(a.Principal)
		if err != nil {
			return err
		}
		if bal, err = bal.Add(a.Amount); err != nil {
			return err
		}
		if err := db.SetSTXBalance(a.Principal, bal); err != nil {
			return err
		}
		if supply, err = supply.Add(a.Amount); err != nil {
			return err
		}
	}
	if err := db.SetSTXLiquidSupply(supply); err != nil {
		return err
	}
	meta = StoreMetadata{FormatVersion: StorageFormatVersion, Genesis: true, LiquidSupply: supply.Decimal()}
	if err := db.putMetadata(metadataKey(storeMetadataName), &meta); err != nil {
		return err
	}
	logging.Logger.Debug("database initialized",
		zap.Int("allocations", len(allocations)),
		zap.String("liquid_supply", supply.Decimal()))
	return nil
}

// CheckStorageFormat verifies an existing store can be read.
func (db *ClarityDatabase) CheckStorageFormat() error {
	var meta StoreMetadata
	ok, err := db.getMetadata(metadataKey(storeMetadataName), &meta)
	if err != nil {
		return err
	}
	if !ok || !meta.Genesis {
		return ErrNotInitialized
	}
	if meta.FormatVersion != StorageFormatVersion {
		return common.Wrap(ErrStorageFormat, "found %d, supported %d", meta.FormatVersion, StorageFormatVersion)
	}
	return nil
}

// InsertContract installs a contract's source.
func (db *ClarityDatabase) InsertContract(id types.ContractIdentifier, source string, sponsor types.Principal) error {
	exists, err := db.HasContract(id)
	if err != nil {
		return err
	}
	if exists {
		return common.Wrap(ErrContractAlreadyExists, "%v", id)
	}
	height, err := db.Store().GetCurrentBlockHeight()
	if err != nil {
		height = 0
	}
	meta := ContractMetadata{BlockHeight: height, SourceHash: encryption.RawHash(source)}
	if sponsor != nil {
		meta.Sponsor = sponsor.String()
	}
	if err := db.put(contractKey(KindContract, id, "source", nil), []byte(source)); err != nil {
		return err
	}
	return db.putMetadata(contractKey(KindContract, id, "meta", nil), &meta)
}

// HasContract reports whether the contract is installed.
func (db *ClarityDatabase) HasContract(id types.ContractIdentifier) (bool, error) {
	_, ok, err := db.get(contractKey(KindContract, id, "meta", nil))
	return ok, err
}

// GetContractSource returns an installed contract's source.
func (db *ClarityDatabase) GetContractSource(id types.ContractIdentifier) (string, error) {
	data, ok, err := db.get(contractKey(KindContract, id, "source", nil))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common.Wrap(ErrNoSuchContract, "%v", id)
	}
	return string(data), nil
}

// GetContractMetadata returns what was recorded when the contract was installed.
func (db *ClarityDatabase) GetContractMetadata(id types.ContractIdentifier) (*ContractMetadata, error) {
	meta := &ContractMetadata{}
	ok, err := db.getMetadata(contractKey(KindContract, id, "meta", nil), meta)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.Wrap(ErrNoSuchContract, "%v", id)
	}
	return meta, nil
}

// CreateVariable defines a data variable with its initial value.
func (db *ClarityDatabase) CreateVariable(contract types.ContractIdentifier, name string, initial types.Value) error {
	if err := types.ValidateName(name); err != nil {
		return err
	}
	metaKey := contractKey(KindVariableMeta, contract, name, nil)
	if _, ok, err := db.get(metaKey); err != nil {
		return err
	} else if ok {
		return common.Wrap(ErrNameAlreadyUsed, "variable %s in %v", name, contract)
	}
	if err := db.putMetadata(metaKey, &DataVariableMetadata{TypeName: initial.TypeName()}); err != nil {
		return err
	}
	return db.PutValue(contractKey(KindVariable, contract, name, nil), initial)
}

func (db *ClarityDatabase) variableMeta(contract types.ContractIdentifier, name string) (*DataVariableMetadata, error) {
	meta := &DataVariableMetadata{}
	ok, err := db.getMetadata(contractKey(KindVariableMeta, contract, name, nil), meta)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.Wrap(ErrNoSuchDataVariable, "%s in %v", name, contract)
	}
	return meta, nil
}

// LookupVariable reads a data variable.
func (db *ClarityDatabase) LookupVariable(contract types.ContractIdentifier, name string) (types.Value, error) {
	if _, err := db.variableMeta(contract, name); err != nil {
		return nil, err
	}
	v, ok, err := db.GetValue(contractKey(KindVariable, contract, name, nil))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.Wrap(ErrNoSuchDataVariable, "%s in %v", name, contract)
	}
	return v, nil
}

// SetVariable writes a data variable.
func (db *ClarityDatabase) SetVariable(contract types.ContractIdentifier, name string, v types.Value) error {
	meta, err := db.variableMeta(contract, name)
	if err != nil {
		return err
	}
	if meta.TypeName != v.TypeName() {
		return common.Wrap(ErrEncoding, "variable %s holds %s, got %s", name, meta.TypeName, v.TypeName())
	}
	return db.PutValue(contractKey(KindVariable, contract, name, nil), v)
}

// CreateMap defines a data map.
func (db *ClarityDatabase) CreateMap(contract types.ContractIdentifier, name string) error {
	if err := types.ValidateName(name); err != nil {
		return err
	}
	metaKey := contractKey(KindMapMeta, contract, name, nil)
	if _, ok, err := db.get(metaKey); err != nil {
		return err
	} else if ok {
		return common.Wrap(ErrNameAlreadyUsed, "map %s in %v", name, contract)
	}
	return db.putMetadata(metaKey, &DataMapMetadata{Name: name})
}

func (db *ClarityDatabase) mapEntryKey(contract types.ContractIdentifier, name string, key types.Value) (Key, error) {
	var meta DataMapMetadata
	ok, err := db.getMetadata(contractKey(KindMapMeta, contract, name, nil), &meta)
	if err != nil {
		return Key{}, err
	}
	if !ok {
		return Key{}, common.Wrap(ErrNoSuchMap, "%s in %v", name, contract)
	}
	sub, err := types.Serialize(key)
	if err != nil {
		return Key{}, err
	}
	return contractKey(KindMap, contract, name, sub), nil
}

// FetchEntry returns (some value) for a present key and none otherwise.
func (db *ClarityDatabase) FetchEntry(contract types.ContractIdentifier, name string, key types.Value) (types.OptionalValue, error) {
	k, err := db.mapEntryKey(contract, name, key)
	if err != nil {
		return types.None(), err
	}
	return db.fetchEntry(k)
}

func (db *ClarityDatabase) fetchEntry(k Key) (types.OptionalValue, error) {
	v, ok, err := db.GetValue(k)
	if err != nil || !ok {
		return types.None(), err
	}
	opt, isOpt := v.(types.OptionalValue)
	if !isOpt {
		return types.None(), common.Wrap(ErrEncoding, "map entry is %s", v.TypeName())
	}
	return opt, nil
}

// SetEntry writes an entry whether or not it is present.
func (db *ClarityDatabase) SetEntry(contract types.ContractIdentifier, name string, key, value types.Value) error {
	k, err := db.mapEntryKey(contract, name, key)
	if err != nil {
		return err
	}
	return db.PutValue(k, types.Some(value))
}

// InsertEntry writes an entry only if it is absent and reports whether it did.
func (db *ClarityDatabase) InsertEntry(contract types.ContractIdentifier, name string, key, value types.Value) (bool, error) {
	k, err := db.mapEntryKey(contract, name, key)
	if err != nil {
		return false, err
	}
	existing, err := db.fetchEntry(k)
	if err != nil {
		return false, err
	}
	if existing.IsSome() {
		return false, nil
	}
	return true, db.PutValue(k, types.Some(value))
}

// DeleteEntry removes an entry and reports whether it was present. The
// store keeps a none marker since backing stores cannot delete.
func (db *ClarityDatabase) DeleteEntry(contract types.ContractIdentifier, name string, key types.Value) (bool, error) {
	k, err := db.mapEntryKey(contract, name, key)
	if err != nil {
		return false, err
	}
	existing, err := db.fetchEntry(k)
	if err != nil {
		return false, err
	}
	if !existing.IsSome() {
		return false, nil
	}
	return true, db.PutValue(k, types.None())
}

// CreateFungibleToken defines a token; a nil maxSupply means unlimited.
func (db *ClarityDatabase) CreateFungibleToken(contract types.ContractIdentifier, name string, maxSupply *types.UIntValue) error {
	if err := types.ValidateName(name); err != nil {
		return err
	}
	metaKey := contractKey(KindFTMeta, contract, name, nil)
	if _, ok, err := db.get(metaKey); err != nil {
		return err
	} else if ok {
		return common.Wrap(ErrNameAlreadyUsed, "token %s in %v", name, contract)
	}
	meta := FungibleTokenMetadata{}
	if maxSupply != nil {
		meta.MaxSupply = maxSupply.Decimal()
	}
	if err := db.putMetadata(metaKey, &meta); err != nil {
		return err
	}
	return db.PutValue(contractKey(KindFTSupply, contract, name, nil), types.UInt(0))
}

func (db *ClarityDatabase) ftMeta(contract types.ContractIdentifier, name string) (*FungibleTokenMetadata, error) {
	meta := &FungibleTokenMetadata{}
	ok, err := db.getMetadata(contractKey(KindFTMeta, contract, name, nil), meta)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.Wrap(ErrNoSuchToken, "%s in %v", name, contract)
	}
	return meta, nil
}

// GetFTMaxSupply returns the token's cap, nil when unlimited.
func (db *ClarityDatabase) GetFTMaxSupply(contract types.ContractIdentifier, name string) (*types.UIntValue, error) {
	meta, err := db.ftMeta(contract, name)
	if err != nil {
		return nil, err
	}
	if meta.MaxSupply == "" {
		return nil, nil
	}
	max, err := types.ParseUInt(meta.MaxSupply)
	if err != nil {
		return nil, ErrEncoding
	}
	return &max, nil
}

func (db *ClarityDatabase) ftBalanceKey(contract types.ContractIdentifier, name string, owner types.Principal) (Key, error) {
	if _, err := db.ftMeta(contract, name); err != nil {
		return Key{}, err
	}
	sub, err := types.Serialize(owner)
	if err != nil {
		return Key{}, err
	}
	return contractKey(KindFTBalance, contract, name, sub), nil
}

// GetFTBalance returns owner's balance, zero if never set.
func (db *ClarityDatabase) GetFTBalance(contract types.ContractIdentifier, name string, owner types.Principal) (types.UIntValue, error) {
	k, err := db.ftBalanceKey(contract, name, owner)
	if err != nil {
		return types.UIntValue{}, err
	}
	return db.getUInt(k)
}

// SetFTBalance writes owner's balance.
func (db *ClarityDatabase) SetFTBalance(contract types.ContractIdentifier, name string, owner types.Principal, balance types.UIntValue) error {
	k, err := db.ftBalanceKey(contract, name, owner)
	if err != nil {
		return err
	}
	return db.PutValue(k, balance)
}

// GetFTSupply returns the circulating supply.
func (db *ClarityDatabase) GetFTSupply(contract types.ContractIdentifier, name string) (types.UIntValue, error) {
	if _, err := db.ftMeta(contract, name); err != nil {
		return types.UIntValue{}, err
	}
	return db.getUInt(contractKey(KindFTSupply, contract, name, nil))
}

// SetFTSupply writes the circulating supply.
func (db *ClarityDatabase) SetFTSupply(contract types.ContractIdentifier, name string, supply types.UIntValue) error {
	if _, err := db.ftMeta(contract, name); err != nil {
		return err
	}
	return db.PutValue(contractKey(KindFTSupply, contract, name, nil), supply)
}

// CreateNonFungibleToken defines a non fungible token.
func (db *ClarityDatabase) CreateNonFungibleToken(contract types.ContractIdentifier, name string) error {
	if err := types.ValidateName(name); err != nil {
		return err
	}
	metaKey := contractKey(KindNFTMeta, contract, name, nil)
	if _, ok, err := db.get(metaKey); err != nil {
		return err
	} else if ok {
		return common.Wrap(ErrNameAlreadyUsed, "token %s in %v", name, contract)
	}
	return db.putMetadata(metaKey, &NonFungibleTokenMetadata{Name: name})
}

func (db *ClarityDatabase) nftOwnerKey(contract types.ContractIdentifier, name string, id types.Value) (Key, error) {
	var meta NonFungibleTokenMetadata
	ok, err := db.getMetadata(contractKey(KindNFTMeta, contract, name, nil), &meta)
	if err != nil {
		return Key{}, err
	}
	if !ok {
		return Key{}, common.Wrap(ErrNoSuchToken, "%s in %v", name, contract)
	}
	sub, err := types.Serialize(id)
	if err != nil {
		return Key{}, err
	}
	return contractKey(KindNFTOwner, contract, name, sub), nil
}

// GetNFTOwner returns the owner of a token, if it exists.
func (db *ClarityDatabase) GetNFTOwner(contract types.ContractIdentifier, name string, id types.Value) (types.Principal, bool, error) {
	k, err := db.nftOwnerKey(contract, name, id)
	if err != nil {
		return nil, false, err
	}
	opt, err := db.fetchEntry(k)
	if err != nil || !opt.IsSome() {
		return nil, false, err
	}
	owner, ok := opt.Data.(types.Principal)
	if !ok {
		return nil, false, common.Wrap(ErrEncoding, "nft owner is %s", opt.Data.TypeName())
	}
	return owner, true, nil
}

// SetNFTOwner records a token's owner.
func (db *ClarityDatabase) SetNFTOwner(contract types.ContractIdentifier, name string, id types.Value, owner types.Principal) error {
	k, err := db.nftOwnerKey(contract, name, id)
	if err != nil {
		return err
	}
	return db.PutValue(k, types.Some(owner))
}

// BurnNFT removes a token.
func (db *ClarityDatabase) BurnNFT(contract types.ContractIdentifier, name string, id types.Value) error {
	k, err := db.nftOwnerKey(contract, name, id)
	if err != nil {
		return err
	}
	return db.PutValue(k, types.None())
}

// GetSTXBalance returns a principal's native token balance.
func (db *ClarityDatabase) GetSTXBalance(p types.Principal) (types.UIntValue, error) {
	k, err := principalKey(KindSTXBalance, p)
	if err != nil {
		return types.UIntValue{}, err
	}
	return db.getUInt(k)
}

// SetSTXBalance writes a principal's native token balance.
func (db *ClarityDatabase) SetSTXBalance(p types.Principal, balance types.UIntValue) error {
	k, err := principalKey(KindSTXBalance, p)
	if err != nil {
		return err
	}
	return db.PutValue(k, balance)
}

// GetSTXLiquidSupply returns the native tokens in circulation.
func (db *ClarityDatabase) GetSTXLiquidSupply() (types.UIntValue, error) {
	return db.getUInt(Key{Kind: KindSTXSupply})
}

// SetSTXLiquidSupply writes the native tokens in circulation.
func (db *ClarityDatabase) SetSTXLiquidSupply(supply types.UIntValue) error {
	return db.PutValue(Key{Kind: KindSTXSupply}, supply)
}

// GetAccountNonce returns the next nonce of an account.
func (db *ClarityDatabase) GetAccountNonce(p types.Principal) (uint64, error) {
	k, err := principalKey(KindNonce, p)
	if err != nil {
		return 0, err
	}
	u, err := db.getUInt(k)
	if err != nil {
		return 0, err
	}
	n := u.Big()
	if !n.IsUint64() {
		return 0, ErrEncoding
	}
	return n.Uint64(), nil
}

// SetAccountNonce writes the next nonce of an account.
func (db *ClarityDatabase) SetAccountNonce(p types.Principal, nonce uint64) error {
	k, err := principalKey(KindNonce, p)
	if err != nil {
		return err
	}
	return db.PutValue(k, types.UInt(nonce))
}

// GetCurrentBlockHeight is the height of the version being written.
func (db *ClarityDatabase) GetCurrentBlockHeight() (uint64, error) {
	return db.Store().GetCurrentBlockHeight()
}

// GetBlockHeaderHash returns the identifier of the ancestor at height.
func (db *ClarityDatabase) GetBlockHeaderHash(height uint64) (datastore.BlockID, bool, error) {
	return db.Store().GetBlockIDAtHeight(height)
}

// GetBurnBlockTime returns the burn chain time of the ancestor at height.
func (db *ClarityDatabase) GetBurnBlockTime(height uint64) (uint64, bool, error) {
	id, ok, err := db.GetBlockHeaderHash(height)
	if err != nil || !ok {
		return 0, false, err
	}
	t, ok := db.headers.GetBurnBlockTime(id)
	return t, ok, nil
}

// SupplyWithin reports whether supply is within the token's cap.
func SupplyWithin(supply types.UIntValue, max *types.UIntValue) bool {
	if max == nil {
		return true
	}
	return supply.Cmp(*max) <= 0
}
