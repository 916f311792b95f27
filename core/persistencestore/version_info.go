package persistencestore

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tyGavinZJU/miningbot-sub001/core/datastore"
	"github.com/tyGavinZJU/miningbot-sub001/core/encryption"
)

const versionKeyPrefix = "version:"

/*VersionInfo - the record kept for every committed version */
type VersionInfo struct {
	ID     datastore.BlockID `msgpack:"id"`
	Parent datastore.BlockID `msgpack:"parent"`
	Root   []byte            `msgpack:"root"`
	Height uint64            `msgpack:"height"`
}

// Commitment returns the root hash of the version's trie. An empty trie
// commits to the hash of the empty string.
func (vi *VersionInfo) Commitment() []byte {
	if len(vi.Root) == 0 {
		return append([]byte(nil), encryption.EmptyHashBytes...)
	}
	return append([]byte(nil), vi.Root...)
}

/*Encode - implement interface */
func (vi *VersionInfo) Encode() []byte {
	data, err := msgpack.Marshal(vi)
	if err != nil {
		panic(err)
	}
	return data
}

/*Decode - implement interface */
func (vi *VersionInfo) Decode(data []byte) error {
	return msgpack.Unmarshal(data, vi)
}

func versionKey(id datastore.BlockID) []byte {
	return append([]byte(versionKeyPrefix), id[:]...)
}
