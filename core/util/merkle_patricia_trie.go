package util

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	. "github.com/tyGavinZJU/miningbot-sub001/core/logging"
)

var DebugMPTNode = false

/*MerklePatriciaTrie - it's a merkle tree and a patricia trie */
type MerklePatriciaTrie struct {
	Root            Key
	DB              NodeDB
	ChangeCollector ChangeCollectorI
	Version         Sequence
}

/*NewMerklePatriciaTrie - create a new patricia merkle trie */
func NewMerklePatriciaTrie(db NodeDB, version Sequence, root Key) *MerklePatriciaTrie {
	mpt := &MerklePatriciaTrie{DB: db, Version: version}
	mpt.ResetChangeCollector(root)
	return mpt
}

/*SetNodeDB - implement interface */
func (mpt *MerklePatriciaTrie) SetNodeDB(ndb NodeDB) {
	mpt.DB = ndb
}

/*GetNodeDB - implement interface */
func (mpt *MerklePatriciaTrie) GetNodeDB() NodeDB {
	return mpt.DB
}

//SetVersion - implement interface
func (mpt *MerklePatriciaTrie) SetVersion(version Sequence) {
	mpt.Version = version
}

//GetVersion - implement interface
func (mpt *MerklePatriciaTrie) GetVersion() Sequence {
	return mpt.Version
}

/*SetRoot - implement interface */
func (mpt *MerklePatriciaTrie) SetRoot(root Key) {
	mpt.Root = root
}

/*GetRoot - implement interface */
func (mpt *MerklePatriciaTrie) GetRoot() Key {
	return mpt.Root
}

/*GetChangeCollector - implement interface */
func (mpt *MerklePatriciaTrie) GetChangeCollector() ChangeCollectorI {
	return mpt.ChangeCollector
}

/*ResetChangeCollector - start collecting changes on top of the given root */
func (mpt *MerklePatriciaTrie) ResetChangeCollector(root Key) {
	mpt.ChangeCollector = NewChangeCollector()
	mpt.SetRoot(root)
}

/*SaveChanges - write the nodes this trie added since the last reset to ndb */
func (mpt *MerklePatriciaTrie) SaveChanges(ndb NodeDB) error {
	if err := mpt.ChangeCollector.Validate(); err != nil {
		return err
	}
	return mpt.ChangeCollector.UpdateChanges(ndb)
}

/*GetNodeValue - get the value for a given path */
func (mpt *MerklePatriciaTrie) GetNodeValue(path Path) (Serializable, error) {
	if len(mpt.Root) == 0 {
		return nil, ErrValueNotPresent
	}
	rootNode, err := mpt.DB.GetNode(mpt.Root)
	if err != nil {
		return nil, err
	}
	v, err := mpt.getNodeValue(path, rootNode)
	if err != nil {
		return nil, err
	}
	if v == nil { // a partial path ending on a full node without a value
		return nil, ErrValueNotPresent
	}
	return v, nil
}

//GetNodeValueRaw - implement interface
func (mpt *MerklePatriciaTrie) GetNodeValueRaw(path Path) ([]byte, error) {
	v, err := mpt.GetNodeValue(path)
	if err != nil {
		return nil, err
	}
	return v.Encode(), nil
}

/*Insert - inserts (updates) a value and produces a new root */
func (mpt *MerklePatriciaTrie) Insert(path Path, value Serializable) (Key, error) {
	if value == nil || len(value.Encode()) == 0 {
		return mpt.Delete(path)
	}
	_, newRootHash, err := mpt.insert(value, mpt.Root, path)
	if err != nil {
		return nil, err
	}
	mpt.SetRoot(newRootHash)
	return newRootHash, nil
}

/*Delete - delete a value from the trie */
func (mpt *MerklePatriciaTrie) Delete(path Path) (Key, error) {
	if len(mpt.Root) == 0 {
		return nil, ErrValueNotPresent
	}
	_, newRootHash, err := mpt.delete(mpt.Root, path)
	if err != nil {
		return nil, err
	}
	mpt.SetRoot(newRootHash)
	return newRootHash, nil
}

//GetPathNodes - implement interface
func (mpt *MerklePatriciaTrie) GetPathNodes(path Path) ([]Node, error) {
	if len(mpt.Root) == 0 {
		return nil, ErrValueNotPresent
	}
	nodes, err := mpt.getPathNodes(mpt.Root, path)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return nodes, nil
}

func (mpt *MerklePatriciaTrie) getPathNodes(key Key, path Path) ([]Node, error) {
	node, err := mpt.DB.GetNode(key)
	if err != nil {
		return nil, err
	}
	switch nodeImpl := node.(type) {
	case *LeafNode:
		if bytes.Equal(nodeImpl.Path, path) {
			return []Node{node}, nil
		}
		return nil, ErrValueNotPresent
	case *FullNode:
		if len(path) == 0 {
			if !nodeImpl.HasValue() {
				return nil, ErrValueNotPresent
			}
			return []Node{node}, nil
		}
		ckey := nodeImpl.GetChild(path[0])
		if ckey == nil {
			return nil, ErrValueNotPresent
		}
		npath, err := mpt.getPathNodes(ckey, path[1:])
		if err != nil {
			return nil, err
		}
		return append(npath, node), nil
	case *ExtensionNode:
		if !bytes.HasPrefix(path, nodeImpl.Path) {
			return nil, ErrValueNotPresent
		}
		npath, err := mpt.getPathNodes(nodeImpl.NodeKey, path[len(nodeImpl.Path):])
		if err != nil {
			return nil, err
		}
		return append(npath, node), nil
	default:
		panic(fmt.Sprintf("unknown node type: %T %v", node, node))
	}
}

/*Iterate - iterate the entire trie */
func (mpt *MerklePatriciaTrie) Iterate(ctx context.Context, handler MPTIteratorHandler, visitNodeTypes byte) error {
	if len(mpt.Root) == 0 {
		return nil
	}
	return mpt.iterate(ctx, Path{}, mpt.Root, handler, visitNodeTypes)
}

/*PrettyPrint - print this trie */
func (mpt *MerklePatriciaTrie) PrettyPrint(w io.Writer) error {
	if len(mpt.Root) == 0 {
		return nil
	}
	return mpt.pp(w, mpt.Root, 0, false)
}

func (mpt *MerklePatriciaTrie) getNodeValue(path Path, node Node) (Serializable, error) {
	switch nodeImpl := node.(type) {
	case *LeafNode:
		if bytes.Equal(nodeImpl.Path, path) {
			return nodeImpl.GetValue(), nil
		}
		return nil, ErrValueNotPresent
	case *FullNode:
		if len(path) == 0 {
			return nodeImpl.GetValue(), nil
		}
		ckey := nodeImpl.GetChild(path[0])
		if ckey == nil {
			return nil, ErrValueNotPresent
		}
		nnode, err := mpt.DB.GetNode(ckey)
		if err != nil || nnode == nil {
			return nil, ErrNodeNotFound
		}
		return mpt.getNodeValue(path[1:], nnode)
	case *ExtensionNode:
		if !bytes.HasPrefix(path, nodeImpl.Path) {
			return nil, ErrValueNotPresent
		}
		nnode, err := mpt.DB.GetNode(nodeImpl.NodeKey)
		if err != nil || nnode == nil {
			return nil, ErrNodeNotFound
		}
		return mpt.getNodeValue(path[len(nodeImpl.Path):], nnode)
	default:
		panic(fmt.Sprintf("unknown node type: %T %v", node, node))
	}
}

func (mpt *MerklePatriciaTrie) insert(value Serializable, key Key, path Path) (Node, Key, error) {
	if len(key) == 0 {
		return mpt.insertNode(nil, NewLeafNode(path, mpt.Version, value))
	}
	node, err := mpt.DB.GetNode(key)
	if err != nil {
		return nil, nil, err
	}
	if len(path) == 0 {
		return mpt.insertAfterPathTraversal(value, node)
	}
	return mpt.insertAtNode(value, node, path)
}

func (mpt *MerklePatriciaTrie) delete(key Key, path Path) (Node, Key, error) {
	node, err := mpt.DB.GetNode(key)
	if err != nil {
		return nil, nil, err
	}
	if len(path) == 0 {
		return mpt.deleteAfterPathTraversal(node)
	}
	return mpt.deleteAtNode(node, path)
}

// newLeaf stores a fresh leaf and returns its key.
func (mpt *MerklePatriciaTrie) newLeaf(path Path, value Serializable) (Key, error) {
	_, key, err := mpt.insertNode(nil, NewLeafNode(path, mpt.Version, value))
	return key, err
}

// split replaces node (a leaf or extension whose path diverges from path at
// plen) with a branch, wrapped in an extension when a common prefix exists.
func (mpt *MerklePatriciaTrie) split(node Node, prefix Path, branch *FullNode) (Node, Key, error) {
	if len(prefix) == 0 {
		return mpt.insertNode(node, branch)
	}
	_, ckey, err := mpt.insertNode(nil, branch)
	if err != nil {
		return nil, nil, err
	}
	return mpt.insertNode(node, NewExtensionNode(prefix, ckey))
}

func (mpt *MerklePatriciaTrie) insertAtNode(value Serializable, node Node, path Path) (Node, Key, error) {
	switch nodeImpl := node.(type) {
	case *FullNode:
		var ckey Key
		var err error
		if child := nodeImpl.GetChild(path[0]); child == nil {
			ckey, err = mpt.newLeaf(path[1:], value)
		} else {
			_, ckey, err = mpt.insert(value, child, path[1:])
		}
		if err != nil {
			return nil, nil, err
		}
		nnode := nodeImpl.Clone().(*FullNode)
		nnode.PutChild(path[0], ckey)
		return mpt.insertNode(node, nnode)
	case *LeafNode:
		if len(nodeImpl.Path) == 0 {
			// the leaf's value moves onto a new branch
			ckey, err := mpt.newLeaf(path[1:], value)
			if err != nil {
				return nil, nil, err
			}
			nnode := NewFullNode(nodeImpl.GetValue())
			nnode.PutChild(path[0], ckey)
			return mpt.insertNode(node, nnode)
		}
		if bytes.Equal(path, nodeImpl.Path) {
			return mpt.insertNode(node, NewLeafNode(nodeImpl.Path, mpt.Version, value))
		}
		prefix := matchingPrefix(path, nodeImpl.Path)
		plen := len(prefix)
		branch := NewFullNode(nil)
		switch {
		case plen == len(path): // path ends inside the leaf's path
			gckey, err := mpt.newLeaf(nodeImpl.Path[plen+1:], nodeImpl.GetValue())
			if err != nil {
				return nil, nil, err
			}
			branch.PutChild(nodeImpl.Path[plen], gckey)
			branch.SetValue(value)
		case plen == len(nodeImpl.Path): // the leaf's path ends inside path
			gckey, err := mpt.newLeaf(path[plen+1:], value)
			if err != nil {
				return nil, nil, err
			}
			branch.PutChild(path[plen], gckey)
			branch.SetValue(nodeImpl.GetValue())
		default:
			gckey1, err := mpt.newLeaf(path[plen+1:], value)
			if err != nil {
				return nil, nil, err
			}
			gckey2, err := mpt.newLeaf(nodeImpl.Path[plen+1:], nodeImpl.GetValue())
			if err != nil {
				return nil, nil, err
			}
			branch.PutChild(path[plen], gckey1)
			branch.PutChild(nodeImpl.Path[plen], gckey2)
		}
		return mpt.split(node, prefix, branch)
	case *ExtensionNode:
		if bytes.Equal(path, nodeImpl.Path) {
			_, ckey, err := mpt.insert(value, nodeImpl.NodeKey, Path{})
			if err != nil {
				return nil, nil, err
			}
			return mpt.insertNode(node, NewExtensionNode(path, ckey))
		}
		prefix := matchingPrefix(path, nodeImpl.Path)
		plen := len(prefix)
		if plen == len(nodeImpl.Path) {
			_, ckey, err := mpt.insert(value, nodeImpl.NodeKey, path[plen:])
			if err != nil {
				return nil, nil, err
			}
			nnode := nodeImpl.Clone().(*ExtensionNode)
			nnode.NodeKey = ckey
			return mpt.insertNode(node, nnode)
		}
		branch := NewFullNode(nil)
		if plen != len(path) {
			gckey, err := mpt.newLeaf(path[plen+1:], value)
			if err != nil {
				return nil, nil, err
			}
			branch.PutChild(path[plen], gckey)
		} else {
			branch.SetValue(value)
		}
		rest := nodeImpl.NodeKey
		if len(nodeImpl.Path) > plen+1 {
			var err error
			_, rest, err = mpt.insertNode(nil, NewExtensionNode(nodeImpl.Path[plen+1:], nodeImpl.NodeKey))
			if err != nil {
				return nil, nil, err
			}
		}
		branch.PutChild(nodeImpl.Path[plen], rest)
		return mpt.split(node, prefix, branch)
	default:
		panic(fmt.Sprintf("unknown node type: %T %v", node, node))
	}
}

func (mpt *MerklePatriciaTrie) deleteAtNode(node Node, path Path) (Node, Key, error) {
	switch nodeImpl := node.(type) {
	case *FullNode:
		child := nodeImpl.GetChild(path[0])
		if child == nil {
			return node, node.GetHashBytes(), ErrValueNotPresent
		}
		_, ckey, err := mpt.delete(child, path[1:])
		if err != nil {
			return nil, nil, err
		}
		if ckey == nil {
			switch nodeImpl.GetNumChildren() {
			case 1:
				if nodeImpl.HasValue() { // no children left, only a value
					return mpt.insertNode(node, NewLeafNode(nil, mpt.Version, nodeImpl.GetValue()))
				}
				mpt.deleteNode(node)
				return nil, nil, nil
			case 2:
				if !nodeImpl.HasValue() {
					return mpt.liftOnlyChild(nodeImpl, path[0])
				}
			}
		}
		nnode := nodeImpl.Clone().(*FullNode)
		nnode.PutChild(path[0], ckey)
		return mpt.insertNode(node, nnode)
	case *LeafNode:
		if !bytes.Equal(path, nodeImpl.Path) {
			return node, node.GetHashBytes(), ErrValueNotPresent
		}
		return mpt.deleteAfterPathTraversal(node)
	case *ExtensionNode:
		if !bytes.HasPrefix(path, nodeImpl.Path) {
			return node, node.GetHashBytes(), ErrValueNotPresent
		}
		cnode, ckey, err := mpt.delete(nodeImpl.NodeKey, path[len(nodeImpl.Path):])
		if err != nil {
			return nil, nil, err
		}
		switch cnodeImpl := cnode.(type) {
		case *LeafNode: // the branch below collapsed into a leaf; absorb it
			nnode := NewLeafNode(concatPath(nodeImpl.Path, cnodeImpl.Path), mpt.Version, cnodeImpl.GetValue())
			mpt.deleteNode(cnode)
			return mpt.insertNode(node, nnode)
		case *ExtensionNode: // the branch below collapsed into an extension; merge
			nnode := NewExtensionNode(concatPath(nodeImpl.Path, cnodeImpl.Path), cnodeImpl.NodeKey)
			mpt.deleteNode(cnode)
			return mpt.insertNode(node, nnode)
		}
		nnode := nodeImpl.Clone().(*ExtensionNode)
		nnode.NodeKey = ckey
		return mpt.insertNode(node, nnode)
	default:
		panic(fmt.Sprintf("unknown node type: %T %v", node, node))
	}
}

// liftOnlyChild replaces a value-less branch that is about to lose its
// second-to-last child with its remaining child, prefixed by that child's
// path element.
func (mpt *MerklePatriciaTrie) liftOnlyChild(fn *FullNode, removed byte) (Node, Key, error) {
	removedIdx := fn.index(removed)
	var (
		otherKey Key
		oidx     byte
	)
	for idx, child := range fn.Children {
		if child != nil && byte(idx) != removedIdx {
			otherKey, oidx = child, byte(idx)
			break
		}
	}
	ochild, err := mpt.DB.GetNode(otherKey)
	if err != nil {
		return nil, nil, err
	}
	npath := Path{fn.indexToByte(oidx)}
	var nnode Node
	switch onodeImpl := ochild.(type) {
	case *FullNode:
		nnode = NewExtensionNode(npath, otherKey)
	case *LeafNode:
		nnode = NewLeafNode(concatPath(npath, onodeImpl.Path), mpt.Version, onodeImpl.GetValue())
		mpt.deleteNode(ochild)
	case *ExtensionNode:
		nnode = NewExtensionNode(concatPath(npath, onodeImpl.Path), onodeImpl.NodeKey)
		mpt.deleteNode(ochild)
	default:
		panic(fmt.Sprintf("unknown node type: %T %v", ochild, ochild))
	}
	return mpt.insertNode(fn, nnode)
}

func (mpt *MerklePatriciaTrie) insertAfterPathTraversal(value Serializable, node Node) (Node, Key, error) {
	switch nodeImpl := node.(type) {
	case *FullNode:
		nnode := nodeImpl.Clone().(*FullNode)
		nnode.SetValue(value)
		return mpt.insertNode(node, nnode)
	case *LeafNode:
		if len(nodeImpl.Path) == 0 {
			return mpt.insertNode(node, NewLeafNode(nil, mpt.Version, value))
		}
		// the leaf moves one level down below a new branch carrying the value
		ckey, err := mpt.newLeaf(nodeImpl.Path[1:], nodeImpl.GetValue())
		if err != nil {
			return nil, nil, err
		}
		nnode := NewFullNode(value)
		nnode.PutChild(nodeImpl.Path[0], ckey)
		return mpt.insertNode(node, nnode)
	case *ExtensionNode:
		ckey := nodeImpl.NodeKey
		if len(nodeImpl.Path) > 1 {
			var err error
			_, ckey, err = mpt.insertNode(nil, NewExtensionNode(nodeImpl.Path[1:], nodeImpl.NodeKey))
			if err != nil {
				return nil, nil, err
			}
		}
		nnode := NewFullNode(value)
		nnode.PutChild(nodeImpl.Path[0], ckey)
		return mpt.insertNode(node, nnode)
	default:
		panic(fmt.Sprintf("unknown node type: %T %v", node, node))
	}
}

func (mpt *MerklePatriciaTrie) deleteAfterPathTraversal(node Node) (Node, Key, error) {
	switch nodeImpl := node.(type) {
	case *FullNode:
		if !nodeImpl.HasValue() {
			return node, node.GetHashBytes(), ErrValueNotPresent
		}
		nnode := nodeImpl.Clone().(*FullNode)
		nnode.SetValue(nil)
		return mpt.insertNode(node, nnode)
	case *LeafNode:
		mpt.deleteNode(node)
		return nil, nil, nil
	default:
		return node, node.GetHashBytes(), ErrValueNotPresent
	}
}

func (mpt *MerklePatriciaTrie) iterate(ctx context.Context, path Path, key Key, handler MPTIteratorHandler, visitNodeTypes byte) error {
	node, err := mpt.DB.GetNode(key)
	if err != nil {
		if DebugMPTNode {
			Logger.Error("iterate - get node error", zap.String("key", ToHex(key)), zap.Error(err))
		}
		return err
	}
	switch nodeImpl := node.(type) {
	case *LeafNode:
		if IncludesNodeType(visitNodeTypes, NodeTypeLeafNode) {
			if err := handler(ctx, path, key, node); err != nil {
				return err
			}
		}
		if IncludesNodeType(visitNodeTypes, NodeTypeValueNode) && nodeImpl.HasValue() {
			return handler(ctx, concatPath(path, nodeImpl.Path), nil, nodeImpl.Value)
		}
	case *FullNode:
		if IncludesNodeType(visitNodeTypes, NodeTypeFullNode) {
			if err := handler(ctx, path, key, node); err != nil {
				return err
			}
		}
		if IncludesNodeType(visitNodeTypes, NodeTypeValueNode) && nodeImpl.HasValue() {
			if err := handler(ctx, path, nil, nodeImpl.Value); err != nil {
				return err
			}
		}
		var ecount int
		for i, child := range nodeImpl.Children {
			if child == nil {
				continue
			}
			npath := concatPath(path, Path{nodeImpl.indexToByte(byte(i))})
			err := mpt.iterate(ctx, npath, child, handler, visitNodeTypes)
			switch err {
			case nil:
			case ErrNodeNotFound, ErrIteratingChildNodes:
				ecount++
			default:
				return err
			}
		}
		if ecount != 0 {
			return ErrIteratingChildNodes
		}
	case *ExtensionNode:
		if IncludesNodeType(visitNodeTypes, NodeTypeExtensionNode) {
			if err := handler(ctx, path, key, node); err != nil {
				return err
			}
		}
		return mpt.iterate(ctx, concatPath(path, nodeImpl.Path), nodeImpl.NodeKey, handler, visitNodeTypes)
	}
	return nil
}

func (mpt *MerklePatriciaTrie) insertNode(oldNode Node, newNode Node) (Node, Key, error) {
	if DebugMPTNode {
		ohash := ""
		if oldNode != nil {
			ohash = oldNode.GetHash()
		}
		Logger.Debug("insert node", zap.String("nn", newNode.GetHash()), zap.String("on", ohash))
	}
	ckey := newNode.GetHashBytes()
	if err := mpt.DB.PutNode(ckey, newNode); err != nil {
		return nil, nil, err
	}
	if oldNode != nil && bytes.Equal(oldNode.GetHashBytes(), ckey) {
		// rewriting an identical node must not remove it
		return newNode, ckey, nil
	}
	mpt.ChangeCollector.AddChange(oldNode, newNode)
	if oldNode != nil {
		// only reaches nodes of the current layer; see LevelNodeDB
		mpt.DB.DeleteNode(oldNode.GetHashBytes())
	}
	return newNode, ckey, nil
}

func (mpt *MerklePatriciaTrie) deleteNode(node Node) error {
	if DebugMPTNode {
		Logger.Debug("delete node", zap.String("dn", node.GetHash()))
	}
	mpt.ChangeCollector.DeleteChange(node)
	return mpt.DB.DeleteNode(node.GetHashBytes())
}

func matchingPrefix(p1 Path, p2 Path) Path {
	idx := 0
	for ; idx < len(p1) && idx < len(p2) && p1[idx] == p2[idx]; idx++ {
	}
	return p1[:idx]
}

func concatPath(a, b Path) Path {
	p := make(Path, 0, len(a)+len(b))
	p = append(p, a...)
	return append(p, b...)
}

func (mpt *MerklePatriciaTrie) pp(w io.Writer, key Key, depth int, initpad bool) error {
	node, err := mpt.DB.GetNode(key)
	if initpad {
		fmt.Fprint(w, indent(depth))
	}
	if err != nil {
		fmt.Fprintf(w, "err %v %v\n", ToHex(key), err)
		return err
	}
	switch nodeImpl := node.(type) {
	case *LeafNode:
		fmt.Fprintf(w, "L:%v (%v,%v)\n", ToHex(key), string(nodeImpl.Path), node.GetOrigin())
	case *ExtensionNode:
		fmt.Fprintf(w, "E:%v (%v,%v,%v)\n", ToHex(key), string(nodeImpl.Path), ToHex(nodeImpl.NodeKey), node.GetOrigin())
		return mpt.pp(w, nodeImpl.NodeKey, depth+2, true)
	case *FullNode:
		fmt.Fprintf(w, "F:%v (,%v)\n", ToHex(key), node.GetOrigin())
		for idx, ckey := range nodeImpl.Children {
			if ckey == nil {
				continue
			}
			fmt.Fprintf(w, "%s%.2d ", indent(depth+1), idx)
			if err := mpt.pp(w, ckey, depth+2, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func indent(depth int) string {
	return string(bytes.Repeat([]byte(" "), depth))
}

// VerifyPathNodes checks that nodes, ordered from the root down as returned by
// GetPathNodes, link root to the value stored at path and returns that value.
func VerifyPathNodes(root Key, path Path, nodes []Node) (Serializable, error) {
	if len(nodes) == 0 {
		return nil, ErrValueNotPresent
	}
	expected := root
	for i, node := range nodes {
		if !bytes.Equal(node.GetHashBytes(), expected) {
			return nil, ErrInvalidProof
		}
		last := i == len(nodes)-1
		switch nodeImpl := node.(type) {
		case *LeafNode:
			if !last || !bytes.Equal(nodeImpl.Path, path) || !nodeImpl.HasValue() {
				return nil, ErrInvalidProof
			}
			return nodeImpl.GetValue(), nil
		case *FullNode:
			if len(path) == 0 {
				if !last || !nodeImpl.HasValue() {
					return nil, ErrInvalidProof
				}
				return nodeImpl.GetValue(), nil
			}
			expected = nodeImpl.GetChild(path[0])
			path = path[1:]
		case *ExtensionNode:
			if !bytes.HasPrefix(path, nodeImpl.Path) {
				return nil, ErrInvalidProof
			}
			expected = nodeImpl.NodeKey
			path = path[len(nodeImpl.Path):]
		default:
			return nil, ErrInvalidProof
		}
		if expected == nil {
			return nil, ErrInvalidProof
		}
	}
	return nil, ErrInvalidProof
}
