package database

import (
	"bytes"
	"encoding/binary"

	"github.com/tyGavinZJU/miningbot-sub001/vm/types"
)

/*KeyKind - what a store key holds */
type KeyKind byte

// key kinds
const (
	KindContract KeyKind = iota + 1
	KindVariable
	KindVariableMeta
	KindMap
	KindMapMeta
	KindFTBalance
	KindFTSupply
	KindFTMeta
	KindNFTOwner
	KindNFTMeta
	KindSTXBalance
	KindSTXSupply
	KindNonce
	KindMetadata
)

var keyPrefix = []byte("vm")

/*Key - the location of one piece of contract state */
type Key struct {
	Kind     KeyKind
	Contract *types.ContractIdentifier
	Name     string
	Sub      []byte
}

// Encode returns the store key. Every component but the last is length
// prefixed so distinct keys never encode alike.
func (k Key) Encode() []byte {
	var buf bytes.Buffer
	buf.Write(keyPrefix)
	buf.WriteByte(byte(k.Kind))
	contract := ""
	if k.Contract != nil {
		contract = k.Contract.String()
	}
	writeU16String(&buf, contract)
	writeU16String(&buf, k.Name)
	buf.Write(k.Sub)
	return buf.Bytes()
}

func writeU16String(buf *bytes.Buffer, s string) {
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(s)))
	buf.Write(l[:])
	buf.WriteString(s)
}

func contractKey(kind KeyKind, contract types.ContractIdentifier, name string, sub []byte) Key {
	return Key{Kind: kind, Contract: &contract, Name: name, Sub: sub}
}

func principalKey(kind KeyKind, p types.Principal) (Key, error) {
	sub, err := types.Serialize(p)
	if err != nil {
		return Key{}, err
	}
	return Key{Kind: kind, Sub: sub}, nil
}

func metadataKey(name string) Key {
	return Key{Kind: KindMetadata, Name: name}
}
