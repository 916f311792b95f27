package encryption

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

func sha3Sum(data []byte) []byte {
	hash := sha3.New256()
	hash.Write(data)
	return hash.Sum(nil)
}

func TestRawHash(t *testing.T) {
	t.Parallel()

	data := []byte("data")

	hb := Digest{}
	copy(hb[:], data)

	tests := []struct {
		name      string
		data      interface{}
		want      []byte
		wantPanic bool
	}{
		{name: "Test_RawHash_Bytes_OK", data: data, want: sha3Sum(data)},
		{name: "Test_RawHash_Hash_Bytes_OK", data: hb, want: sha3Sum(hb[:])},
		{name: "Test_RawHash_String_OK", data: string(data), want: sha3Sum(data)},
		{name: "Test_RawHash_Nil_OK", data: nil, want: sha3Sum(nil)},
		{name: "Test_RawHash_Panic", data: 123, wantPanic: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.wantPanic {
				assert.Panics(t, func() { RawHash(tt.data) })
				return
			}
			assert.Equal(t, tt.want, RawHash(tt.data))
		})
	}
}

func TestHash(t *testing.T) {
	h := Hash("abc")
	assert.True(t, IsHash(h))
	assert.False(t, IsHash("abc"))
	assert.Equal(t, hex.EncodeToString(sha3Sum([]byte("abc"))), h)
	assert.Equal(t, EmptyHashBytes, sha3Sum(nil))
}

func TestHashParts(t *testing.T) {
	joined := HashParts([]byte("con"), []byte("sensus"))
	require.Equal(t, sha3Sum([]byte("consensus")), joined[:])
	assert.Equal(t, Hash("consensus"), joined.Hex())
	assert.Equal(t, EmptyHashBytes, RawHash(""))
}

func TestChecksum(t *testing.T) {
	sum := Checksum([]byte("principal"), 4)
	require.Len(t, sum, 4)
	require.Equal(t, sha3Sum(sha3Sum([]byte("principal")))[:4], sum)
}
