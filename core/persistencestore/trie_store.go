package persistencestore

import (
	"errors"
	"io"
	"time"

	metrics "github.com/rcrowley/go-metrics"
	"go.uber.org/zap"

	"github.com/tyGavinZJU/miningbot-sub001/core/common"
	"github.com/tyGavinZJU/miningbot-sub001/core/datastore"
	"github.com/tyGavinZJU/miningbot-sub001/core/logging"
	"github.com/tyGavinZJU/miningbot-sub001/core/util"
)

var (
	// CommitTimer - time taken to seal a version
	CommitTimer = metrics.GetOrRegisterTimer("trie_store_commit_time", nil)
	// NodesWritten - trie nodes persisted by commits
	NodesWritten = metrics.GetOrRegisterCounter("trie_store_nodes_written", nil)
)

// values are stored behind a tag byte so the empty value stays distinct from
// a deleted one in the trie
const valueTag byte = 0x01

/*TrieStore - a versioned backing store. Every version is a merkle patricia
trie whose nodes live in leveldb; a new version starts from its parent's root
and only the nodes it changes are written when it is committed. */
type TrieStore struct {
	pndb *util.PNodeDB
	open *openVersion
}

type openVersion struct {
	info VersionInfo
	mpt  *util.MerklePatriciaTrie
}

// NewTrieStore opens the store in dir, keeping at most cacheSize decoded
// nodes in memory. An empty dir keeps everything in memory.
func NewTrieStore(dir string, cacheSize int) (*TrieStore, error) {
	pndb, err := util.NewPNodeDB(dir, cacheSize)
	if err != nil {
		return nil, common.WithCause(common.NewError("trie_store_open", dir), err)
	}
	return &TrieStore{pndb: pndb}, nil
}

// Temporary returns an in-memory store, mostly for tests.
func Temporary() *TrieStore {
	ts, err := NewTrieStore("", 0)
	if err != nil {
		panic(err)
	}
	return ts
}

// Close releases the underlying database. The open version, if any, is lost.
func (ts *TrieStore) Close() error {
	ts.open = nil
	return ts.pndb.Close()
}

// GetVersionInfo returns the record of a committed version.
func (ts *TrieStore) GetVersionInfo(id datastore.BlockID) (*VersionInfo, bool, error) {
	data, ok, err := ts.pndb.GetMeta(versionKey(id))
	if err != nil || !ok {
		return nil, false, err
	}
	vi := &VersionInfo{}
	if err := vi.Decode(data); err != nil {
		return nil, false, err
	}
	return vi, true, nil
}

func (ts *TrieStore) mustVersionInfo(id datastore.BlockID) (*VersionInfo, error) {
	vi, ok, err := ts.GetVersionInfo(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.Wrap(datastore.ErrUnknownAncestorVersion, "version %v", id)
	}
	return vi, nil
}

/*Begin - open next on top of the committed version current */
func (ts *TrieStore) Begin(current datastore.BlockID, next datastore.BlockID) error {
	if ts.open != nil {
		return common.Wrap(datastore.ErrVersionAlreadyOpen, "open %v", ts.open.info.ID)
	}
	if _, ok, err := ts.GetVersionInfo(next); err != nil {
		return err
	} else if ok {
		return common.Wrap(datastore.ErrVersionExists, "version %v", next)
	}
	info := VersionInfo{ID: next, Parent: current}
	if !current.IsSentinel() {
		parent, err := ts.mustVersionInfo(current)
		if err != nil {
			return err
		}
		info.Root = parent.Root
		info.Height = parent.Height + 1
	}
	ndb := util.NewLevelNodeDB(util.NewMemoryNodeDB(), ts.pndb)
	ts.open = &openVersion{
		info: info,
		mpt:  util.NewMerklePatriciaTrie(ndb, util.Sequence(info.Height), info.Root),
	}
	logging.Logger.Debug("trie store - begin",
		zap.Stringer("parent", current),
		zap.Stringer("version", next),
		zap.Uint64("height", info.Height))
	return nil
}

/*Get - read from the open version, falling through to its ancestors */
func (ts *TrieStore) Get(key []byte) ([]byte, bool, error) {
	if ts.open == nil {
		return nil, false, datastore.ErrNoOpenVersion
	}
	return getValue(ts.open.mpt, key)
}

/*Put - write to the open version */
func (ts *TrieStore) Put(key []byte, value []byte) error {
	if ts.open == nil {
		return datastore.ErrNoOpenVersion
	}
	buf := make([]byte, 0, len(value)+1)
	buf = append(append(buf, valueTag), value...)
	_, err := ts.open.mpt.Insert(util.HashPath(key), util.NewSecureSerializableValue(buf))
	return err
}

/*Delete - remove key from the open version. The trie collapses the branches
the key leaves behind, so the root equals that of a version never holding it. */
func (ts *TrieStore) Delete(key []byte) error {
	if ts.open == nil {
		return datastore.ErrNoOpenVersion
	}
	_, err := ts.open.mpt.Delete(util.HashPath(key))
	if errors.Is(err, util.ErrValueNotPresent) {
		return nil
	}
	return err
}

/*CommitVersion - persist the open version's nodes together with its record
in one batch and return the root commitment */
func (ts *TrieStore) CommitVersion() ([]byte, error) {
	if ts.open == nil {
		return nil, datastore.ErrNoOpenVersion
	}
	ts1 := time.Now()
	defer CommitTimer.UpdateSince(ts1)

	ov := ts.open
	ov.info.Root = ov.mpt.GetRoot()
	batch := ts.pndb.NewBatch()
	bndb := &util.BatchNodeDB{PNodeDB: ts.pndb, Batch: batch}
	if err := ov.mpt.SaveChanges(bndb); err != nil {
		return nil, err
	}
	nodes := batch.Len()
	batch.PutMeta(versionKey(ov.info.ID), ov.info.Encode())
	if err := batch.Write(); err != nil {
		return nil, err
	}
	NodesWritten.Inc(int64(nodes))
	ts.open = nil
	logging.Logger.Debug("trie store - commit",
		zap.Stringer("version", ov.info.ID),
		zap.Uint64("height", ov.info.Height),
		zap.Int("nodes", nodes),
		zap.String("root", util.ToHex(ov.info.Commitment())))
	return ov.info.Commitment(), nil
}

/*RollbackVersion - drop the open version; nothing was persisted */
func (ts *TrieStore) RollbackVersion() error {
	if ts.open == nil {
		return datastore.ErrNoOpenVersion
	}
	logging.Logger.Debug("trie store - rollback", zap.Stringer("version", ts.open.info.ID))
	ts.open = nil
	return nil
}

/*GetVersionRoot - the commitment of a committed version */
func (ts *TrieStore) GetVersionRoot(id datastore.BlockID) ([]byte, error) {
	vi, err := ts.mustVersionInfo(id)
	if err != nil {
		return nil, err
	}
	return vi.Commitment(), nil
}

/*OpenVersion - implement interface */
func (ts *TrieStore) OpenVersion() (datastore.BlockID, bool) {
	if ts.open == nil {
		return datastore.BlockID{}, false
	}
	return ts.open.info.ID, true
}

/*GetCurrentBlockHeight - implement interface */
func (ts *TrieStore) GetCurrentBlockHeight() (uint64, error) {
	if ts.open == nil {
		return 0, datastore.ErrNoOpenVersion
	}
	return ts.open.info.Height, nil
}

/*GetBlockIDAtHeight - walk the ancestry of the open version */
func (ts *TrieStore) GetBlockIDAtHeight(height uint64) (datastore.BlockID, bool, error) {
	if ts.open == nil {
		return datastore.BlockID{}, false, datastore.ErrNoOpenVersion
	}
	return ts.ancestorAt(&ts.open.info, height)
}

func (ts *TrieStore) ancestorAt(from *VersionInfo, height uint64) (datastore.BlockID, bool, error) {
	if height > from.Height {
		return datastore.BlockID{}, false, nil
	}
	vi := from
	for vi.Height > height {
		parent, err := ts.mustVersionInfo(vi.Parent)
		if err != nil {
			return datastore.BlockID{}, false, err
		}
		vi = parent
	}
	return vi.ID, true, nil
}

// AtVersion returns a read only view of a committed version. Views do not
// share state with the open version and can be read concurrently.
func (ts *TrieStore) AtVersion(id datastore.BlockID) (*VersionView, error) {
	vi, err := ts.mustVersionInfo(id)
	if err != nil {
		return nil, err
	}
	return &VersionView{
		store: ts,
		info:  *vi,
		mpt:   util.NewMerklePatriciaTrie(ts.pndb, util.Sequence(vi.Height), vi.Root),
	}, nil
}

// Dump writes the trie of a committed version to w, one node per line.
func (ts *TrieStore) Dump(id datastore.BlockID, w io.Writer) error {
	vv, err := ts.AtVersion(id)
	if err != nil {
		return err
	}
	return vv.mpt.PrettyPrint(w)
}

// CacheStats returns the node cache hit and miss counters.
func (ts *TrieStore) CacheStats() (int64, int64) {
	return ts.pndb.CacheStats()
}

func getValue(mpt util.MerklePatriciaTrieI, key []byte) ([]byte, bool, error) {
	raw, err := mpt.GetNodeValueRaw(util.HashPath(key))
	if errors.Is(err, util.ErrValueNotPresent) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return decodeValue(raw)
}

func decodeValue(raw []byte) ([]byte, bool, error) {
	if len(raw) == 0 || raw[0] != valueTag {
		return nil, false, util.ErrInvalidEncoding
	}
	return append([]byte(nil), raw[1:]...), true, nil
}

var _ datastore.BackingStore = (*TrieStore)(nil)
