package encryption

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// DigestSize is the length of every digest produced by this package.
const DigestSize = 32

/*Digest - a fixed size sha3-256 digest */
type Digest [DigestSize]byte

// Hex renders the digest the way stores and logs print it.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

//EmptyHashBytes - digest of no input, the commitment of an empty trie
var EmptyHashBytes = RawHash(nil)

/*Hash - hex digest of a byte slice, digest or string */
func Hash(data interface{}) string {
	return hex.EncodeToString(RawHash(data))
}

// IsHash reports whether s is the hex form of a digest.
func IsHash(s string) bool {
	raw, err := hex.DecodeString(s)
	return err == nil && len(raw) == DigestSize
}

/*RawHash - sha3-256 of a byte slice, digest or string. Any other type panics. */
func RawHash(data interface{}) []byte {
	var d Digest
	switch v := data.(type) {
	case nil:
		d = HashParts()
	case []byte:
		d = HashParts(v)
	case Digest:
		d = HashParts(v[:])
	case string:
		d = HashParts([]byte(v))
	default:
		panic("encryption: cannot hash value of this type")
	}
	return d[:]
}

// HashParts digests the concatenation of parts without joining them first.
func HashParts(parts ...[]byte) Digest {
	h := sha3.New256()
	for _, p := range parts {
		h.Write(p)
	}
	var out Digest
	h.Sum(out[:0])
	return out
}

// Checksum returns the first n bytes of the double digest of data.
func Checksum(data []byte, n int) []byte {
	d := HashParts(data)
	d = HashParts(d[:])
	return append([]byte(nil), d[:n]...)
}
