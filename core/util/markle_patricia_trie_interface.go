package util

import (
	"context"
	"errors"
	"io"
)

//ErrIteratingChildNodes - indicates an error iterating the child nodes
var ErrIteratingChildNodes = errors.New("error iterating child nodes")

//Path - a type for the path of the merkle patricia trie
type Path []byte

//Key - a type for the merkle patricia trie node key
type Key []byte

/*MPTIteratorHandler is a collection iteration handler function type */
type MPTIteratorHandler func(ctx context.Context, path Path, key Key, node Node) error

//MerklePatriciaTrieI - interface of the merkle patricia trie
type MerklePatriciaTrieI interface {
	SetNodeDB(ndb NodeDB)
	GetNodeDB() NodeDB
	SetVersion(version Sequence)
	GetVersion() Sequence

	GetRoot() Key
	SetRoot(root Key)

	GetNodeValue(path Path) (Serializable, error)
	// GetNodeValueRaw returns the raw data slice on the given path
	GetNodeValueRaw(path Path) ([]byte, error)
	Insert(path Path, value Serializable) (Key, error)
	Delete(path Path) (Key, error)

	Iterate(ctx context.Context, handler MPTIteratorHandler, visitNodeTypes byte) error

	GetChangeCollector() ChangeCollectorI
	ResetChangeCollector(root Key)
	SaveChanges(ndb NodeDB) error

	// GetPathNodes returns the nodes from the root down to the value, usable
	// as an inclusion proof against the root
	GetPathNodes(path Path) ([]Node, error)

	// PrettyPrint writes the trie one node per line, indented by depth
	PrettyPrint(w io.Writer) error
}
