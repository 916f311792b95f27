package util

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	// ErrNodeNotFound - error indicating that the node is not found.
	ErrNodeNotFound = errors.New("node not found")
	// ErrValueNotPresent - error indicating given path is not present in the db.
	ErrValueNotPresent = errors.New("value not present")
	// ErrInvalidProof - the given path nodes do not link the root to the value.
	ErrInvalidProof = errors.New("invalid path proof")
)

/*NodeDBIteratorHandler is a nodedb iteration handler function type */
type NodeDBIteratorHandler func(ctx context.Context, key Key, node Node) error

/*NodeDB - an interface that gets, puts and deletes nodes by their key */
type NodeDB interface {
	GetNode(key Key) (Node, error)
	PutNode(key Key, node Node) error
	DeleteNode(key Key) error
	Iterate(ctx context.Context, handler NodeDBIteratorHandler) error
	Size(ctx context.Context) int64

	MultiGetNode(keys []Key) ([]Node, error)
	MultiPutNode(keys []Key, nodes []Node) error
	MultiDeleteNode(keys []Key) error
}

// StrKey - map key form of a node key
type StrKey string

// MemoryNodeDB holds the nodes written by one open version.
type MemoryNodeDB struct {
	sync.RWMutex
	nodes map[StrKey]Node
}

// NewMemoryNodeDB - create a memory node db.
func NewMemoryNodeDB() *MemoryNodeDB {
	return &MemoryNodeDB{nodes: make(map[StrKey]Node)}
}

func (m *MemoryNodeDB) lookup(key Key) (Node, error) {
	if n, ok := m.nodes[StrKey(key)]; ok {
		return n, nil
	}
	return nil, ErrNodeNotFound
}

func (m *MemoryNodeDB) GetNode(key Key) (Node, error) {
	m.RLock()
	defer m.RUnlock()
	return m.lookup(key)
}

func (m *MemoryNodeDB) PutNode(key Key, node Node) error {
	return m.MultiPutNode([]Key{key}, []Node{node})
}

func (m *MemoryNodeDB) DeleteNode(key Key) error {
	return m.MultiDeleteNode([]Key{key})
}

// MultiGetNode returns the nodes it found; err reports the last miss.
func (m *MemoryNodeDB) MultiGetNode(keys []Key) (found []Node, err error) {
	m.RLock()
	defer m.RUnlock()
	for _, k := range keys {
		n, lerr := m.lookup(k)
		if lerr != nil {
			err = lerr
			continue
		}
		found = append(found, n)
	}
	return found, err
}

func (m *MemoryNodeDB) MultiPutNode(keys []Key, nodes []Node) error {
	if len(keys) != len(nodes) {
		return errors.Errorf("memory node db: %d keys for %d nodes", len(keys), len(nodes))
	}
	m.Lock()
	defer m.Unlock()
	for i, k := range keys {
		m.nodes[StrKey(k)] = nodes[i]
	}
	return nil
}

func (m *MemoryNodeDB) MultiDeleteNode(keys []Key) error {
	m.Lock()
	defer m.Unlock()
	for _, k := range keys {
		delete(m.nodes, StrKey(k))
	}
	return nil
}

// Iterate visits nodes in key order.
func (m *MemoryNodeDB) Iterate(ctx context.Context, handler NodeDBIteratorHandler) error {
	m.RLock()
	defer m.RUnlock()
	keys := maps.Keys(m.nodes)
	slices.Sort(keys)
	for _, k := range keys {
		if err := handler(ctx, Key(k), m.nodes[k]); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryNodeDB) Size(_ context.Context) int64 {
	m.RLock()
	defer m.RUnlock()
	return int64(len(m.nodes))
}

/*LevelNodeDB - an open version's writes layered over the committed nodes.
Reads fall through to prev; writes and deletes only reach current, since
committed versions share prev. */
type LevelNodeDB struct {
	mu      sync.RWMutex
	current NodeDB
	prev    NodeDB
}

// NewLevelNodeDB - create a level node db
func NewLevelNodeDB(current NodeDB, prev NodeDB) *LevelNodeDB {
	return &LevelNodeDB{current: current, prev: prev}
}

// GetCurrent returns the layer receiving writes.
func (l *LevelNodeDB) GetCurrent() NodeDB {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// GetPrev returns the layer reads fall through to.
func (l *LevelNodeDB) GetPrev() NodeDB {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.prev
}

func (l *LevelNodeDB) layered() bool { return l.prev != l.current }

func (l *LevelNodeDB) lookup(key Key) (Node, error) {
	n, err := l.current.GetNode(key)
	if err == nil || !l.layered() {
		return n, err
	}
	return l.prev.GetNode(key)
}

func (l *LevelNodeDB) remove(key Key) error {
	if _, err := l.current.GetNode(key); err != nil {
		return nil
	}
	return l.current.DeleteNode(key)
}

func (l *LevelNodeDB) GetNode(key Key) (Node, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lookup(key)
}

func (l *LevelNodeDB) PutNode(key Key, node Node) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current.PutNode(key, node)
}

func (l *LevelNodeDB) DeleteNode(key Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remove(key)
}

func (l *LevelNodeDB) MultiGetNode(keys []Key) (found []Node, err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, k := range keys {
		n, lerr := l.lookup(k)
		if lerr != nil {
			err = lerr
			continue
		}
		found = append(found, n)
	}
	return found, err
}

func (l *LevelNodeDB) MultiPutNode(keys []Key, nodes []Node) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current.MultiPutNode(keys, nodes)
}

func (l *LevelNodeDB) MultiDeleteNode(keys []Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		if err := l.remove(k); err != nil {
			return err
		}
	}
	return nil
}

// Iterate visits the current layer, then the previous one.
func (l *LevelNodeDB) Iterate(ctx context.Context, handler NodeDBIteratorHandler) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if err := l.current.Iterate(ctx, handler); err != nil || !l.layered() {
		return err
	}
	return l.prev.Iterate(ctx, handler)
}

func (l *LevelNodeDB) Size(ctx context.Context) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := l.current.Size(ctx)
	if l.layered() {
		n += l.prev.Size(ctx)
	}
	return n
}
