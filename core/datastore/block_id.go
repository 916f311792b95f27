package datastore

import (
	"encoding/hex"
	"fmt"
)

// BlockIDLength is the size of a version identifier.
const BlockIDLength = 32

// BlockID identifies a version of the state; callers derive it from block
// identity.
type BlockID [BlockIDLength]byte

// SentinelBlockID denotes "no predecessor" and is the parent of a genesis
// version.
var SentinelBlockID = func() BlockID {
	var id BlockID
	for i := range id {
		id[i] = 0xff
	}
	return id
}()

// IsSentinel reports whether id is the sentinel.
func (id BlockID) IsSentinel() bool {
	return id == SentinelBlockID
}

func (id BlockID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns a copy of the identifier bytes.
func (id BlockID) Bytes() []byte {
	return append([]byte(nil), id[:]...)
}

// BlockIDFromBytes converts a 32 byte slice into a BlockID.
func BlockIDFromBytes(b []byte) (BlockID, error) {
	var id BlockID
	if len(b) != BlockIDLength {
		return id, fmt.Errorf("block id must be %d bytes, got %d", BlockIDLength, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// BlockIDFromHex parses the hex form produced by String.
func BlockIDFromHex(s string) (BlockID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return BlockID{}, err
	}
	return BlockIDFromBytes(b)
}
