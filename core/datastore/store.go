package datastore

import (
	"github.com/tyGavinZJU/miningbot-sub001/core/common"
)

var (
	// ErrUnknownAncestorVersion - begin was asked to build on a version that
	// was never committed.
	ErrUnknownAncestorVersion = common.NewError("unknown_ancestor_version", "base version was never committed")
	// ErrNoOpenVersion - a read, write or commit needs an open version.
	ErrNoOpenVersion = common.NewError("no_open_version", "no version is open")
	// ErrVersionExists - the new version identifier is already committed.
	ErrVersionExists = common.NewError("version_exists", "version is already committed")
	// ErrVersionAlreadyOpen - only one version can be open for writing.
	ErrVersionAlreadyOpen = common.NewError("version_already_open", "another version is open")
	// ErrReadOnlyVersion - writes against a committed version are rejected.
	ErrReadOnlyVersion = common.NewError("read_only_version", "committed versions are immutable")
)

/*BackingStore - the byte level store contract state is read from and written
to. Keys and values are opaque. Implementations are either a single always
open version or a tree of versions keyed by block identifiers where every
new version starts from a committed ancestor. */
type BackingStore interface {
	Get(key []byte) ([]byte, bool, error)
	Put(key []byte, value []byte) error
	// Delete removes key from the open version; deleting an absent key is a no-op.
	Delete(key []byte) error

	// Begin opens next on top of current; current is SentinelBlockID for genesis.
	Begin(current BlockID, next BlockID) error
	// CommitVersion seals the open version and returns its commitment.
	CommitVersion() ([]byte, error)
	// RollbackVersion discards the open version.
	RollbackVersion() error
	// GetVersionRoot returns the commitment of a committed version.
	GetVersionRoot(id BlockID) ([]byte, error)
	// OpenVersion returns the version writes go to.
	OpenVersion() (BlockID, bool)

	// GetCurrentBlockHeight is the height of the open version, genesis is 0.
	GetCurrentBlockHeight() (uint64, error)
	// GetBlockIDAtHeight walks the ancestry of the open version.
	GetBlockIDAtHeight(height uint64) (BlockID, bool, error)
}
