package database

import (
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/tyGavinZJU/miningbot-sub001/core/datastore"
	"github.com/tyGavinZJU/miningbot-sub001/core/logging"
)

/*RollbackWrapper - a stack of write buffers over a backing store. Reads see
the newest buffered write first; commit folds the top buffer into the one
below, or into the store's open version when it is the last one. */
type RollbackWrapper struct {
	store datastore.BackingStore
	tiers []map[string][]byte
}

// NewRollbackWrapper wraps store with no open tiers.
func NewRollbackWrapper(store datastore.BackingStore) *RollbackWrapper {
	return &RollbackWrapper{store: store}
}

// Store returns the wrapped backing store.
func (rw *RollbackWrapper) Store() datastore.BackingStore {
	return rw.store
}

// Begin pushes a tier.
func (rw *RollbackWrapper) Begin() {
	rw.tiers = append(rw.tiers, make(map[string][]byte))
}

// Depth returns the number of open tiers.
func (rw *RollbackWrapper) Depth() int {
	return len(rw.tiers)
}

// Commit merges the top tier into the next one, or writes it to the store in
// key order when it is the outermost. A failed write leaves the store as it
// was and the tier open, so the caller can still roll it back.
func (rw *RollbackWrapper) Commit() error {
	n := len(rw.tiers)
	if n == 0 {
		return ErrNoActiveTransaction
	}
	top := rw.tiers[n-1]
	if n > 1 {
		below := rw.tiers[n-2]
		for k, v := range top {
			below[k] = v
		}
	} else if err := rw.writeThrough(top); err != nil {
		return err
	}
	rw.tiers = rw.tiers[:n-1]
	return nil
}

type priorValue struct {
	value  []byte
	exists bool
}

func (rw *RollbackWrapper) writeThrough(top map[string][]byte) error {
	keys := maps.Keys(top)
	slices.Sort(keys)
	prior := make([]priorValue, len(keys))
	for i, k := range keys {
		v, ok, err := rw.store.Get([]byte(k))
		if err != nil {
			return err
		}
		prior[i] = priorValue{value: v, exists: ok}
	}
	for i, k := range keys {
		if err := rw.store.Put([]byte(k), top[k]); err != nil {
			logging.Logger.Error("rollback wrapper - write to store",
				zap.Int("keys", len(keys)), zap.Int("written", i), zap.Error(err))
			rw.restore(keys[:i], prior[:i])
			return err
		}
	}
	return nil
}

// restore puts back what keys held before a partial write.
func (rw *RollbackWrapper) restore(keys []string, prior []priorValue) {
	for i, k := range keys {
		var err error
		if prior[i].exists {
			err = rw.store.Put([]byte(k), prior[i].value)
		} else {
			err = rw.store.Delete([]byte(k))
		}
		if err != nil {
			logging.Logger.Error("rollback wrapper - restore store",
				zap.String("key", k), zap.Error(err))
		}
	}
}

// Rollback discards the top tier.
func (rw *RollbackWrapper) Rollback() error {
	n := len(rw.tiers)
	if n == 0 {
		return ErrNoActiveTransaction
	}
	rw.tiers = rw.tiers[:n-1]
	return nil
}

// Put buffers a write in the top tier.
func (rw *RollbackWrapper) Put(key []byte, value []byte) error {
	n := len(rw.tiers)
	if n == 0 {
		return ErrNoActiveTransaction
	}
	rw.tiers[n-1][string(key)] = append([]byte(nil), value...)
	return nil
}

// Get reads through the tiers, newest first, then the store.
func (rw *RollbackWrapper) Get(key []byte) ([]byte, bool, error) {
	k := string(key)
	for i := len(rw.tiers) - 1; i >= 0; i-- {
		if v, ok := rw.tiers[i][k]; ok {
			return append([]byte(nil), v...), true, nil
		}
	}
	return rw.store.Get(key)
}
