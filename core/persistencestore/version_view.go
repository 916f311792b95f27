package persistencestore

import (
	"bytes"

	"github.com/tyGavinZJU/miningbot-sub001/core/datastore"
	"github.com/tyGavinZJU/miningbot-sub001/core/encryption"
	"github.com/tyGavinZJU/miningbot-sub001/core/util"
)

/*VersionView - a read only backing store bound to a committed version */
type VersionView struct {
	store *TrieStore
	info  VersionInfo
	mpt   *util.MerklePatriciaTrie
}

// Info returns the record of the viewed version.
func (vv *VersionView) Info() VersionInfo {
	return vv.info
}

/*Get - implement interface */
func (vv *VersionView) Get(key []byte) ([]byte, bool, error) {
	return getValue(vv.mpt, key)
}

// GetWithProof returns the value at key and the trie nodes from the root
// down to it. VerifyProof checks them against the version's commitment.
func (vv *VersionView) GetWithProof(key []byte) ([]byte, []util.Node, error) {
	nodes, err := vv.mpt.GetPathNodes(util.HashPath(key))
	if err != nil {
		return nil, nil, err
	}
	value, ok, err := getValue(vv.mpt, key)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, util.ErrValueNotPresent
	}
	return value, nodes, nil
}

// VerifyProof checks that proof links commitment to the value stored at key
// and returns the value.
func VerifyProof(commitment []byte, key []byte, proof []util.Node) ([]byte, error) {
	if bytes.Equal(commitment, encryption.EmptyHashBytes) {
		return nil, util.ErrValueNotPresent
	}
	v, err := util.VerifyPathNodes(commitment, util.HashPath(key), proof)
	if err != nil {
		return nil, err
	}
	value, _, err := decodeValue(v.Encode())
	return value, err
}

/*Put - committed versions are immutable */
func (vv *VersionView) Put(key []byte, value []byte) error {
	return datastore.ErrReadOnlyVersion
}

/*Delete - committed versions are immutable */
func (vv *VersionView) Delete(key []byte) error {
	return datastore.ErrReadOnlyVersion
}

/*Begin - implement interface */
func (vv *VersionView) Begin(current datastore.BlockID, next datastore.BlockID) error {
	return datastore.ErrReadOnlyVersion
}

/*CommitVersion - implement interface */
func (vv *VersionView) CommitVersion() ([]byte, error) {
	return nil, datastore.ErrReadOnlyVersion
}

/*RollbackVersion - implement interface */
func (vv *VersionView) RollbackVersion() error {
	return datastore.ErrReadOnlyVersion
}

/*GetVersionRoot - implement interface */
func (vv *VersionView) GetVersionRoot(id datastore.BlockID) ([]byte, error) {
	return vv.store.GetVersionRoot(id)
}

/*OpenVersion - reads are served by the viewed version */
func (vv *VersionView) OpenVersion() (datastore.BlockID, bool) {
	return vv.info.ID, true
}

/*GetCurrentBlockHeight - implement interface */
func (vv *VersionView) GetCurrentBlockHeight() (uint64, error) {
	return vv.info.Height, nil
}

/*GetBlockIDAtHeight - walk the ancestry of the viewed version */
func (vv *VersionView) GetBlockIDAtHeight(height uint64) (datastore.BlockID, bool, error) {
	return vv.store.ancestorAt(&vv.info, height)
}

var _ datastore.BackingStore = (*VersionView)(nil)
