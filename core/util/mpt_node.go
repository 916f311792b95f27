package util

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/tyGavinZJU/miningbot-sub001/core/encryption"
)

// Node type codes double as the serialization prefix and as visit masks.
const (
	NodeTypeValueNode     = 1
	NodeTypeLeafNode      = 2
	NodeTypeFullNode      = 4
	NodeTypeExtensionNode = 8
	NodeTypesAll          = NodeTypeValueNode | NodeTypeLeafNode | NodeTypeFullNode | NodeTypeExtensionNode
)

//Separator - splits the fields of an encoded node
const Separator = ':'

//ErrInvalidEncoding - error to indicate invalid encoding
var ErrInvalidEncoding = errors.New("invalid node encoding")

//PathElements - the nibbles of a hashed path in branch order
var PathElements = []byte("0123456789abcdef")

/*Node - a trie node */
type Node interface {
	Clone() Node
	GetNodeType() byte
	SecureSerializableValueI
	OriginTrackerI
	GetOriginTracker() OriginTrackerI
	SetOriginTracker(ot OriginTrackerI)
}

// digest hashes what body writes.
func digest(body func(*bytes.Buffer)) []byte {
	var buf bytes.Buffer
	body(&buf)
	return encryption.RawHash(buf.Bytes())
}

// encodeNode writes the type and origin header of n followed by its body.
func encodeNode(n Node, body func(*bytes.Buffer)) []byte {
	var buf bytes.Buffer
	buf.WriteByte(n.GetNodeType())
	// a fixed size int64 written to a bytes.Buffer cannot fail
	_ = n.GetOriginTracker().Write(&buf)
	body(&buf)
	return buf.Bytes()
}

// splitField cuts buf at the first Separator.
func splitField(buf []byte) (field []byte, rest []byte, err error) {
	idx := bytes.IndexByte(buf, Separator)
	if idx < 0 {
		return nil, nil, ErrInvalidEncoding
	}
	return append([]byte(nil), buf[:idx]...), buf[idx+1:], nil
}

// decodeValue reads the optional trailing value of a leaf or full node.
func decodeValue(buf []byte) (*ValueNode, error) {
	vn := NewValueNode()
	if len(buf) == 0 {
		return vn, nil
	}
	if err := vn.Decode(buf); err != nil {
		return nil, err
	}
	return vn, nil
}

// childIndex maps a path nibble to a branch slot.
func childIndex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return 10 + c - 'a'
	case c >= 'A' && c <= 'F':
		return 10 + c - 'A'
	}
	panic(fmt.Sprintf("invalid path element %q", c))
}

//OriginTrackerNode - embedded by every node to carry its origin
type OriginTrackerNode struct {
	OriginTracker OriginTrackerI `json:"o,omitempty"`
}

//NewOriginTrackerNode - create a new origin tracker node
func NewOriginTrackerNode() *OriginTrackerNode {
	return &OriginTrackerNode{OriginTracker: &OriginTracker{}}
}

func (otn *OriginTrackerNode) clone() *OriginTrackerNode {
	c := NewOriginTrackerNode()
	c.SetOrigin(otn.GetOrigin())
	return c
}

func (otn *OriginTrackerNode) SetOriginTracker(ot OriginTrackerI) { otn.OriginTracker = ot }
func (otn *OriginTrackerNode) GetOriginTracker() OriginTrackerI   { return otn.OriginTracker }
func (otn *OriginTrackerNode) SetOrigin(origin Sequence)          { otn.OriginTracker.SetOrigin(origin) }
func (otn *OriginTrackerNode) GetOrigin() Sequence                { return otn.OriginTracker.GetOrigin() }
func (otn *OriginTrackerNode) Write(w io.Writer) error            { return otn.OriginTracker.Write(w) }
func (otn *OriginTrackerNode) Read(r io.Reader) error             { return otn.OriginTracker.Read(r) }

/*ValueNode - holds the value of a leaf or full node */
type ValueNode struct {
	Value Serializable `json:"v"`
	*OriginTrackerNode
}

//NewValueNode - create a new value node
func NewValueNode() *ValueNode {
	return &ValueNode{OriginTrackerNode: NewOriginTrackerNode()}
}

func (vn *ValueNode) Clone() Node {
	return &ValueNode{OriginTrackerNode: vn.OriginTrackerNode.clone(), Value: vn.Value}
}

func (vn *ValueNode) GetNodeType() byte { return NodeTypeValueNode }

func (vn *ValueNode) GetHash() string { return ToHex(vn.GetHashBytes()) }

// GetHashBytes is nil for a node that never held a value.
func (vn *ValueNode) GetHashBytes() []byte {
	if vn.Value == nil {
		return nil
	}
	return encryption.RawHash(vn.Value.Encode())
}

func (vn *ValueNode) GetValue() Serializable { return vn.Value }

func (vn *ValueNode) SetValue(value Serializable) { vn.Value = value }

/*HasValue - a value is present when it encodes to at least one byte */
func (vn *ValueNode) HasValue() bool {
	return vn.Value != nil && len(vn.Value.Encode()) > 0
}

func (vn *ValueNode) writeBody(buf *bytes.Buffer) {
	if vn.HasValue() {
		buf.Write(vn.Value.Encode())
	}
}

func (vn *ValueNode) Encode() []byte { return encodeNode(vn, vn.writeBody) }

func (vn *ValueNode) Decode(buf []byte) error {
	value := &SecureSerializableValue{}
	if err := value.Decode(buf); err != nil {
		return err
	}
	vn.Value = value
	return nil
}

/*LeafNode - the end of a path, holding a value and the remaining path */
type LeafNode struct {
	Path  Path       `json:"p,omitempty"`
	Value *ValueNode `json:"v"`
	*OriginTrackerNode
}

/*NewLeafNode - create a new leaf node */
func NewLeafNode(path Path, origin Sequence, value Serializable) *LeafNode {
	ln := &LeafNode{OriginTrackerNode: NewOriginTrackerNode(), Path: path}
	ln.SetOrigin(origin)
	ln.SetValue(value)
	return ln
}

func (ln *LeafNode) GetHash() string { return ToHex(ln.GetHashBytes()) }

// GetHashBytes covers the origin so identical leaves written by different
// versions stay distinct nodes.
func (ln *LeafNode) GetHashBytes() []byte {
	return digest(func(buf *bytes.Buffer) {
		_ = binary.Write(buf, binary.LittleEndian, ln.GetOrigin()) // cannot fail on a bytes.Buffer
		ln.writeBody(buf)
	})
}

func (ln *LeafNode) Clone() Node {
	c := &LeafNode{OriginTrackerNode: ln.OriginTrackerNode.clone(), Path: ln.Path}
	c.SetValue(ln.GetValue())
	return c
}

func (ln *LeafNode) GetNodeType() byte { return NodeTypeLeafNode }

func (ln *LeafNode) writeBody(buf *bytes.Buffer) {
	buf.Write(ln.Path)
	buf.WriteByte(Separator)
	if ln.HasValue() {
		buf.Write(ln.GetValue().Encode())
	}
}

func (ln *LeafNode) Encode() []byte { return encodeNode(ln, ln.writeBody) }

func (ln *LeafNode) Decode(buf []byte) error {
	path, rest, err := splitField(buf)
	if err != nil {
		return err
	}
	vn, err := decodeValue(rest)
	if err != nil {
		return err
	}
	ln.Path, ln.Value = path, vn
	return nil
}

func (ln *LeafNode) HasValue() bool {
	return ln.Value != nil && ln.Value.HasValue()
}

func (ln *LeafNode) GetValue() Serializable {
	if !ln.HasValue() {
		return nil
	}
	return ln.Value.GetValue()
}

func (ln *LeafNode) SetValue(value Serializable) {
	if ln.Value == nil {
		ln.Value = NewValueNode()
	}
	ln.Value.SetValue(value)
}

/*FullNode - a branch with one child slot per path nibble and an optional value */
type FullNode struct {
	Children [16][]byte `json:"c"`
	Value    *ValueNode `json:"v,omitempty"`
	*OriginTrackerNode
}

/*NewFullNode - create a new full node */
func NewFullNode(value Serializable) *FullNode {
	fn := &FullNode{OriginTrackerNode: NewOriginTrackerNode()}
	fn.SetValue(value)
	return fn
}

func (fn *FullNode) GetHash() string { return ToHex(fn.GetHashBytes()) }

func (fn *FullNode) GetHashBytes() []byte { return digest(fn.writeBody) }

func (fn *FullNode) Encode() []byte { return encodeNode(fn, fn.writeBody) }

// writeBody writes each child key in hex, terminated by Separator, then the
// value if any.
func (fn *FullNode) writeBody(buf *bytes.Buffer) {
	for _, child := range fn.Children {
		if child != nil {
			buf.WriteString(ToHex(child))
		}
		buf.WriteByte(Separator)
	}
	if fn.HasValue() {
		buf.Write(fn.GetValue().Encode())
	}
}

func (fn *FullNode) Decode(buf []byte) error {
	for i := range fn.Children {
		field, rest, err := splitField(buf)
		if err != nil {
			return err
		}
		fn.Children[i] = nil
		if len(field) > 0 {
			key := make([]byte, hex.DecodedLen(len(field)))
			if _, err := hex.Decode(key, field); err != nil {
				return err
			}
			fn.Children[i] = key
		}
		buf = rest
	}
	vn, err := decodeValue(buf)
	if err != nil {
		return err
	}
	fn.Value = vn
	return nil
}

func (fn *FullNode) Clone() Node {
	// child keys are replaced, never updated in place
	c := &FullNode{OriginTrackerNode: fn.OriginTrackerNode.clone(), Children: fn.Children}
	if fn.HasValue() {
		c.SetValue(fn.GetValue())
	}
	return c
}

func (fn *FullNode) GetNodeType() byte { return NodeTypeFullNode }

func (fn *FullNode) index(c byte) byte { return childIndex(c) }

func (fn *FullNode) indexToByte(idx byte) byte { return PathElements[idx] }

/*GetNumChildren - get the number of children in this node */
func (fn *FullNode) GetNumChildren() byte {
	var n byte
	for _, child := range fn.Children {
		if child != nil {
			n++
		}
	}
	return n
}

/*GetChild - the child key under path nibble c */
func (fn *FullNode) GetChild(c byte) []byte { return fn.Children[childIndex(c)] }

/*PutChild - set the child key under path nibble c */
func (fn *FullNode) PutChild(c byte, child []byte) { fn.Children[childIndex(c)] = child }

func (fn *FullNode) HasValue() bool {
	return fn.Value != nil && fn.Value.HasValue()
}

func (fn *FullNode) GetValue() Serializable {
	if fn.Value == nil {
		return nil
	}
	return fn.Value.GetValue()
}

func (fn *FullNode) SetValue(value Serializable) {
	if fn.Value == nil {
		fn.Value = NewValueNode()
	}
	fn.Value.SetValue(value)
}

/*ExtensionNode - a shared path segment leading to a full node */
type ExtensionNode struct {
	Path    Path `json:"p"`
	NodeKey Key  `json:"k"`
	*OriginTrackerNode
}

/*NewExtensionNode - create a new extension node */
func NewExtensionNode(path Path, key Key) *ExtensionNode {
	return &ExtensionNode{OriginTrackerNode: NewOriginTrackerNode(), Path: path, NodeKey: key}
}

func (en *ExtensionNode) GetHash() string { return ToHex(en.GetHashBytes()) }

func (en *ExtensionNode) GetHashBytes() []byte { return digest(en.writeBody) }

func (en *ExtensionNode) Clone() Node {
	return &ExtensionNode{
		OriginTrackerNode: en.OriginTrackerNode.clone(),
		Path:              en.Path,
		NodeKey:           en.NodeKey,
	}
}

func (en *ExtensionNode) GetNodeType() byte { return NodeTypeExtensionNode }

func (en *ExtensionNode) writeBody(buf *bytes.Buffer) {
	buf.Write(en.Path)
	buf.WriteByte(Separator)
	buf.Write(en.NodeKey)
}

func (en *ExtensionNode) Encode() []byte { return encodeNode(en, en.writeBody) }

func (en *ExtensionNode) Decode(buf []byte) error {
	path, rest, err := splitField(buf)
	if err != nil {
		return err
	}
	en.Path, en.NodeKey = path, append(Key(nil), rest...)
	return nil
}

/*IncludesNodeType - checks if nodeType is one of the types in the mask */
func IncludesNodeType(nodeTypes byte, nodeType byte) bool {
	return nodeTypes&nodeType == nodeType
}

/*CreateNode - decode a node from its serialized form */
func CreateNode(r io.Reader) (Node, error) {
	var code [1]byte
	if _, err := io.ReadFull(r, code[:]); err != nil {
		return nil, ErrInvalidEncoding
	}
	var node Node
	switch code[0] & NodeTypesAll {
	case NodeTypeValueNode:
		node = NewValueNode()
	case NodeTypeLeafNode:
		node = NewLeafNode(nil, Sequence(0), nil)
	case NodeTypeFullNode:
		node = NewFullNode(nil)
	case NodeTypeExtensionNode:
		node = NewExtensionNode(nil, nil)
	default:
		return nil, ErrInvalidEncoding
	}
	ot := &OriginTracker{}
	if err := ot.Read(r); err != nil {
		return nil, ErrInvalidEncoding
	}
	node.SetOriginTracker(ot)
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := node.Decode(body); err != nil {
		return nil, err
	}
	return node, nil
}
