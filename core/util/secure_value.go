package util

import (
	"encoding/hex"

	"github.com/tyGavinZJU/miningbot-sub001/core/encryption"
)

/*Serializable - interface for values stored in the trie */
type Serializable interface {
	Encode() []byte
	Decode([]byte) error
}

/*Hashable - anything that can provide its hash */
type Hashable interface {
	GetHash() string
	GetHashBytes() []byte
}

/*SecureSerializableValueI - a serializable value that is content addressed */
type SecureSerializableValueI interface {
	Serializable
	Hashable
}

/*SecureSerializableValue - raw bytes stored as a trie value */
type SecureSerializableValue struct {
	Buffer []byte
}

// NewSecureSerializableValue wraps a copy of the given bytes.
func NewSecureSerializableValue(data []byte) *SecureSerializableValue {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &SecureSerializableValue{Buffer: buf}
}

/*GetHash - implement interface */
func (spv *SecureSerializableValue) GetHash() string {
	return ToHex(spv.GetHashBytes())
}

/*GetHashBytes - implement interface */
func (spv *SecureSerializableValue) GetHashBytes() []byte {
	return encryption.RawHash(spv.Buffer)
}

/*Encode - implement interface */
func (spv *SecureSerializableValue) Encode() []byte {
	return spv.Buffer
}

/*Decode - implement interface */
func (spv *SecureSerializableValue) Decode(buf []byte) error {
	spv.Buffer = make([]byte, len(buf))
	copy(spv.Buffer, buf)
	return nil
}

/*ToHex - converts a byte array to hex encoding */
func ToHex(buf []byte) string {
	return hex.EncodeToString(buf)
}

// HashPath returns the hex path a store key lives at: the hex digits of the
// sha3-256 of the key, one path element per nibble.
func HashPath(key []byte) Path {
	return Path(ToHex(encryption.RawHash(key)))
}
