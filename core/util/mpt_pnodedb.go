package util

import (
	"bytes"
	"context"

	"github.com/golang/snappy"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	leveldbutil "github.com/syndtr/goleveldb/leveldb/util"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/tyGavinZJU/miningbot-sub001/core/logging"
)

// keyspaces of the persistent node db
const (
	nodePrefix byte = 'n'
	metaPrefix byte = 'm'
)

// DefaultNodeCacheSize is used when a non-positive cache size is requested.
const DefaultNodeCacheSize = 4096

/*PNodeDB - a node db that is persisted in leveldb, with snappy compressed
node encodings, an lru of decoded nodes and a metadata keyspace */
type PNodeDB struct {
	db    *leveldb.DB
	wo    *opt.WriteOptions
	cache *lru.Cache[StrKey, Node]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewPNodeDB - open (creating if needed) a persistent node db in dir. An empty
// dir keeps everything in memory.
func NewPNodeDB(dir string, cacheSize int) (*PNodeDB, error) {
	var (
		db  *leveldb.DB
		err error
	)
	if dir == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(dir, &opt.Options{Compression: opt.NoCompression})
	}
	if err != nil {
		return nil, err
	}
	if cacheSize <= 0 {
		cacheSize = DefaultNodeCacheSize
	}
	cache, err := lru.New[StrKey, Node](cacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &PNodeDB{db: db, wo: &opt.WriteOptions{}, cache: cache}, nil
}

func nodeDBKey(key Key) []byte {
	return append([]byte{nodePrefix}, key...)
}

func metaDBKey(key []byte) []byte {
	return append([]byte{metaPrefix}, key...)
}

func compressNode(node Node) []byte {
	return snappy.Encode(nil, node.Encode())
}

func decodeNode(data []byte) (Node, error) {
	buf, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, err
	}
	return CreateNode(bytes.NewReader(buf))
}

/*GetNode - implement interface */
func (pndb *PNodeDB) GetNode(key Key) (Node, error) {
	if node, ok := pndb.cache.Get(StrKey(key)); ok {
		pndb.hits.Inc()
		return node, nil
	}
	pndb.misses.Inc()
	data, err := pndb.db.Get(nodeDBKey(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNodeNotFound
	}
	if err != nil {
		return nil, err
	}
	node, err := decodeNode(data)
	if err != nil {
		return nil, err
	}
	pndb.cache.Add(StrKey(key), node)
	return node, nil
}

/*PutNode - implement interface */
func (pndb *PNodeDB) PutNode(key Key, node Node) error {
	if err := pndb.db.Put(nodeDBKey(key), compressNode(node), pndb.wo); err != nil {
		return err
	}
	pndb.cache.Add(StrKey(key), node)
	return nil
}

// DeleteNode removes a node; committed versions never call it.
func (pndb *PNodeDB) DeleteNode(key Key) error {
	pndb.cache.Remove(StrKey(key))
	return pndb.db.Delete(nodeDBKey(key), pndb.wo)
}

/*MultiGetNode - get multiple nodes */
func (pndb *PNodeDB) MultiGetNode(keys []Key) ([]Node, error) {
	var nodes []Node
	var err error
	for _, key := range keys {
		node, nerr := pndb.GetNode(key)
		if nerr != nil {
			err = nerr
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes, err
}

/*MultiPutNode - write the nodes in one batch */
func (pndb *PNodeDB) MultiPutNode(keys []Key, nodes []Node) error {
	batch := pndb.NewBatch()
	for idx, key := range keys {
		batch.PutNode(key, nodes[idx])
	}
	return batch.Write()
}

/*MultiDeleteNode - implement interface */
func (pndb *PNodeDB) MultiDeleteNode(keys []Key) error {
	wb := new(leveldb.Batch)
	for _, key := range keys {
		pndb.cache.Remove(StrKey(key))
		wb.Delete(nodeDBKey(key))
	}
	return pndb.db.Write(wb, pndb.wo)
}

/*Iterate - implement interface */
func (pndb *PNodeDB) Iterate(ctx context.Context, handler NodeDBIteratorHandler) error {
	it := pndb.db.NewIterator(leveldbutil.BytesPrefix([]byte{nodePrefix}), nil)
	defer it.Release()
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := Key(append([]byte(nil), it.Key()[1:]...))
		node, err := decodeNode(it.Value())
		if err != nil {
			logging.Logger.Error("iterate - create node", zap.String("key", ToHex(key)), zap.Error(err))
			continue
		}
		if err := handler(ctx, key, node); err != nil {
			return err
		}
	}
	return it.Error()
}

/*Size - count number of nodes in the db */
func (pndb *PNodeDB) Size(ctx context.Context) int64 {
	var count int64
	err := pndb.Iterate(ctx, func(ctx context.Context, key Key, node Node) error {
		count++
		return nil
	})
	if err != nil {
		logging.Logger.Error("count", zap.Error(err))
		return -1
	}
	return count
}

// GetMeta reads a value from the metadata keyspace.
func (pndb *PNodeDB) GetMeta(key []byte) ([]byte, bool, error) {
	data, err := pndb.db.Get(metaDBKey(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// CacheStats returns the node cache hit and miss counters.
func (pndb *PNodeDB) CacheStats() (hits int64, misses int64) {
	return pndb.hits.Load(), pndb.misses.Load()
}

// Close closes the leveldb
func (pndb *PNodeDB) Close() error {
	return pndb.db.Close()
}

// NewBatch starts an atomic write of nodes and metadata.
func (pndb *PNodeDB) NewBatch() *PNodeBatch {
	return &PNodeBatch{pndb: pndb, wb: new(leveldb.Batch)}
}

// PNodeBatch collects node and metadata writes applied atomically by Write.
type PNodeBatch struct {
	pndb  *PNodeDB
	wb    *leveldb.Batch
	keys  []Key
	nodes []Node
}

// PutNode adds a node to the batch.
func (b *PNodeBatch) PutNode(key Key, node Node) {
	b.wb.Put(nodeDBKey(key), compressNode(node))
	b.keys = append(b.keys, key)
	b.nodes = append(b.nodes, node)
}

// PutMeta adds a metadata record to the batch.
func (b *PNodeBatch) PutMeta(key []byte, value []byte) {
	b.wb.Put(metaDBKey(key), value)
}

// Len returns the number of records in the batch.
func (b *PNodeBatch) Len() int {
	return b.wb.Len()
}

// Write applies the batch; nodes become visible to readers only afterwards.
func (b *PNodeBatch) Write() error {
	if err := b.pndb.db.Write(b.wb, b.pndb.wo); err != nil {
		logging.Logger.Error("pnode save nodes failed", zap.Int("nodes", len(b.keys)), zap.Error(err))
		return err
	}
	for idx, key := range b.keys {
		b.pndb.cache.Add(StrKey(key), b.nodes[idx])
	}
	return nil
}

// BatchNodeDB adapts a batch to the NodeDB write path so a trie can save its
// changes into it. Reads go to the underlying db.
type BatchNodeDB struct {
	*PNodeDB
	Batch *PNodeBatch
}

// MultiPutNode collects the nodes into the batch instead of writing them.
func (bndb *BatchNodeDB) MultiPutNode(keys []Key, nodes []Node) error {
	for idx, key := range keys {
		bndb.Batch.PutNode(key, nodes[idx])
	}
	return nil
}

// PutNode collects the node into the batch instead of writing it.
func (bndb *BatchNodeDB) PutNode(key Key, node Node) error {
	bndb.Batch.PutNode(key, node)
	return nil
}
