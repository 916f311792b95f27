package util

import (
	"bytes"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrChangeConflict - a node was both written and removed by one batch.
var ErrChangeConflict = errors.New("node both added and deleted")

/*NodeChange - New replaces Old; Old is nil for a node with no predecessor */
type NodeChange struct {
	Old Node
	New Node
}

/*ChangeCollectorI - accumulates the node writes of one version */
type ChangeCollectorI interface {
	AddChange(oldNode Node, newNode Node)
	DeleteChange(oldNode Node)
	GetChanges() []*NodeChange

	UpdateChanges(ndb NodeDB) error

	Validate() error
}

/*ChangeCollector - keeps only the net effect of a sequence of node
replacements: a node written and replaced within the batch never shows up. */
type ChangeCollector struct {
	mu      sync.RWMutex
	changes map[StrKey]*NodeChange
	// nodes of the starting trie that the batch dropped; committed versions
	// share them, so they are only checked, never removed
	deletes map[StrKey]Node
}

/*NewChangeCollector - create an empty collector */
func NewChangeCollector() ChangeCollectorI {
	return &ChangeCollector{
		changes: make(map[StrKey]*NodeChange),
		deletes: make(map[StrKey]Node),
	}
}

/*AddChange - record that newNode replaces oldNode (nil for a fresh node) */
func (cc *ChangeCollector) AddChange(oldNode Node, newNode Node) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	newKey := StrKey(newNode.GetHashBytes())
	delete(cc.deletes, newKey)
	if oldNode == nil {
		cc.changes[newKey] = &NodeChange{New: newNode}
		return
	}
	oldKey := StrKey(oldNode.GetHashBytes())
	prev, introduced := cc.changes[oldKey]
	if !introduced {
		cc.changes[newKey] = &NodeChange{Old: oldNode, New: newNode}
		cc.deletes[oldKey] = oldNode
		return
	}
	delete(cc.changes, oldKey)
	if prev.Old != nil && bytes.Equal(newNode.GetHashBytes(), prev.Old.GetHashBytes()) {
		// replaced back to what was there before the batch
		return
	}
	prev.New = newNode
	cc.changes[newKey] = prev
}

/*DeleteChange - record the removal of a node */
func (cc *ChangeCollector) DeleteChange(oldNode Node) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	k := StrKey(oldNode.GetHashBytes())
	if _, introduced := cc.changes[k]; introduced {
		delete(cc.changes, k)
		return
	}
	cc.deletes[k] = oldNode
}

// GetChanges returns the surviving writes ordered by node key.
func (cc *ChangeCollector) GetChanges() []*NodeChange {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	keys := maps.Keys(cc.changes)
	slices.Sort(keys)
	out := make([]*NodeChange, 0, len(keys))
	for _, k := range keys {
		out = append(out, cc.changes[k])
	}
	return out
}

/*UpdateChanges - write every surviving node to ndb */
func (cc *ChangeCollector) UpdateChanges(ndb NodeDB) error {
	changes := cc.GetChanges()
	keys := make([]Key, len(changes))
	nodes := make([]Node, len(changes))
	for i, c := range changes {
		keys[i], nodes[i] = c.New.GetHashBytes(), c.New
	}
	return ndb.MultiPutNode(keys, nodes)
}

//Validate - a node can't be both added and deleted
func (cc *ChangeCollector) Validate() error {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	for k := range cc.changes {
		if _, ok := cc.deletes[k]; ok {
			return errors.Wrapf(ErrChangeConflict, "node %s", ToHex([]byte(k)))
		}
	}
	return nil
}
