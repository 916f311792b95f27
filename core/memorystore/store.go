package memorystore

import (
	"bytes"

	"github.com/google/btree"

	"github.com/tyGavinZJU/miningbot-sub001/core/datastore"
)

const btreeDegree = 32

type item struct {
	key   []byte
	value []byte
}

func lessItem(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

/*MemoryBackingStore - an ephemeral backing store with a single always open
version; version control calls are accepted and ignored */
type MemoryBackingStore struct {
	tree *btree.BTreeG[item]
}

// New creates an empty store.
func New() *MemoryBackingStore {
	return &MemoryBackingStore{tree: btree.NewG[item](btreeDegree, lessItem)}
}

// Get returns a copy of the stored value.
func (ms *MemoryBackingStore) Get(key []byte) ([]byte, bool, error) {
	it, ok := ms.tree.Get(item{key: key})
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), it.value...), true, nil
}

// Put stores copies of key and value.
func (ms *MemoryBackingStore) Put(key []byte, value []byte) error {
	ms.tree.ReplaceOrInsert(item{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
	return nil
}

// Delete removes key.
func (ms *MemoryBackingStore) Delete(key []byte) error {
	ms.tree.Delete(item{key: key})
	return nil
}

// Len returns the number of stored keys.
func (ms *MemoryBackingStore) Len() int {
	return ms.tree.Len()
}

// AscendPrefix visits the keys starting with prefix in order until fn
// returns false.
func (ms *MemoryBackingStore) AscendPrefix(prefix []byte, fn func(key, value []byte) bool) {
	ms.tree.AscendGreaterOrEqual(item{key: prefix}, func(it item) bool {
		if !bytes.HasPrefix(it.key, prefix) {
			return false
		}
		return fn(it.key, it.value)
	})
}

/*Begin - implement interface */
func (ms *MemoryBackingStore) Begin(current datastore.BlockID, next datastore.BlockID) error {
	return nil
}

/*CommitVersion - no commitment is computed */
func (ms *MemoryBackingStore) CommitVersion() ([]byte, error) {
	return nil, nil
}

/*RollbackVersion - implement interface */
func (ms *MemoryBackingStore) RollbackVersion() error {
	return nil
}

/*GetVersionRoot - implement interface */
func (ms *MemoryBackingStore) GetVersionRoot(id datastore.BlockID) ([]byte, error) {
	return nil, nil
}

/*OpenVersion - the store is always open on the sentinel version */
func (ms *MemoryBackingStore) OpenVersion() (datastore.BlockID, bool) {
	return datastore.SentinelBlockID, true
}

/*GetCurrentBlockHeight - implement interface */
func (ms *MemoryBackingStore) GetCurrentBlockHeight() (uint64, error) {
	return 0, nil
}

/*GetBlockIDAtHeight - implement interface */
func (ms *MemoryBackingStore) GetBlockIDAtHeight(height uint64) (datastore.BlockID, bool, error) {
	return datastore.BlockID{}, false, nil
}

var _ datastore.BackingStore = (*MemoryBackingStore)(nil)
