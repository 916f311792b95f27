package util

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(s string) *SecureSerializableValue {
	return NewSecureSerializableValue([]byte(s))
}

func doInsert(t *testing.T, mpt MerklePatriciaTrieI, path string, v string) {
	t.Helper()
	_, err := mpt.Insert(Path(path), value(v))
	require.NoError(t, err)
}

func requireValue(t *testing.T, mpt MerklePatriciaTrieI, path string, want string) {
	t.Helper()
	got, err := mpt.GetNodeValueRaw(Path(path))
	require.NoError(t, err, "path %s", path)
	require.Equal(t, want, string(got), "path %s", path)
}

func TestMerklePatriciaTrie_InsertAndGet(t *testing.T) {
	mpt := NewMerklePatriciaTrie(NewMemoryNodeDB(), Sequence(1), nil)

	paths := map[string]string{
		"1234":   "a",
		"12345":  "b", // extends an existing leaf
		"123":    "c", // prefix of existing leaves
		"1299":   "d",
		"abcdef": "e",
		"abc":    "f",
		"0":      "g",
	}
	for p, v := range paths {
		doInsert(t, mpt, p, v)
	}
	for p, v := range paths {
		requireValue(t, mpt, p, v)
	}

	_, err := mpt.GetNodeValue(Path("12"))
	assert.Equal(t, ErrValueNotPresent, err)
	_, err = mpt.GetNodeValue(Path("fff"))
	assert.Equal(t, ErrValueNotPresent, err)

	doInsert(t, mpt, "1234", "updated")
	requireValue(t, mpt, "1234", "updated")
	requireValue(t, mpt, "12345", "b")
}

func TestMerklePatriciaTrie_EmptyTrie(t *testing.T) {
	mpt := NewMerklePatriciaTrie(NewMemoryNodeDB(), Sequence(0), nil)
	_, err := mpt.GetNodeValue(Path("00"))
	assert.Equal(t, ErrValueNotPresent, err)
	_, err = mpt.Delete(Path("00"))
	assert.Equal(t, ErrValueNotPresent, err)
	assert.NoError(t, mpt.Iterate(context.Background(), func(context.Context, Path, Key, Node) error {
		t.Fatal("nothing to visit")
		return nil
	}, NodeTypesAll))
}

func TestMerklePatriciaTrie_ReinsertSameValueKeepsNodes(t *testing.T) {
	mpt := NewMerklePatriciaTrie(NewMemoryNodeDB(), Sequence(3), nil)
	doInsert(t, mpt, HashPathString("k"), "v")
	doInsert(t, mpt, HashPathString("j"), "w")
	root := mpt.GetRoot()

	doInsert(t, mpt, HashPathString("k"), "v")
	require.Equal(t, root, mpt.GetRoot())
	requireValue(t, mpt, HashPathString("k"), "v")
	requireValue(t, mpt, HashPathString("j"), "w")
}

func HashPathString(key string) string {
	return string(HashPath([]byte(key)))
}

func TestMerklePatriciaTrie_DeleteRestoresCanonicalRoot(t *testing.T) {
	full := NewMerklePatriciaTrie(NewMemoryNodeDB(), Sequence(7), nil)
	half := NewMerklePatriciaTrie(NewMemoryNodeDB(), Sequence(7), nil)

	for i := 0; i < 64; i++ {
		p := HashPathString(fmt.Sprintf("key-%d", i))
		doInsert(t, full, p, fmt.Sprintf("value-%d", i))
		if i%2 == 0 {
			doInsert(t, half, p, fmt.Sprintf("value-%d", i))
		}
	}
	for i := 1; i < 64; i += 2 {
		_, err := full.Delete(Path(HashPathString(fmt.Sprintf("key-%d", i))))
		require.NoError(t, err)
	}

	require.Equal(t, half.GetRoot(), full.GetRoot())
	for i := 0; i < 64; i++ {
		p := HashPathString(fmt.Sprintf("key-%d", i))
		if i%2 == 0 {
			requireValue(t, full, p, fmt.Sprintf("value-%d", i))
			continue
		}
		_, err := full.GetNodeValue(Path(p))
		assert.Equal(t, ErrValueNotPresent, err)
	}
}

func TestMerklePatriciaTrie_DeleteAll(t *testing.T) {
	mpt := NewMerklePatriciaTrie(NewMemoryNodeDB(), Sequence(1), nil)
	keys := []string{"a", "b", "c", "d"}
	for _, k := range keys {
		doInsert(t, mpt, HashPathString(k), k)
	}
	for _, k := range keys {
		_, err := mpt.Delete(Path(HashPathString(k)))
		require.NoError(t, err)
	}
	assert.Empty(t, mpt.GetRoot())
}

func TestMerklePatriciaTrie_Iterate(t *testing.T) {
	mpt := NewMerklePatriciaTrie(NewMemoryNodeDB(), Sequence(1), nil)
	want := map[string]string{}
	for i := 0; i < 20; i++ {
		p := HashPathString(fmt.Sprint(i))
		want[p] = fmt.Sprint(i)
		doInsert(t, mpt, p, fmt.Sprint(i))
	}

	got := map[string]string{}
	err := mpt.Iterate(context.Background(), func(ctx context.Context, path Path, key Key, node Node) error {
		got[string(path)] = string(node.(*ValueNode).GetValue().Encode())
		return nil
	}, NodeTypeValueNode)
	require.NoError(t, err)
	require.Equal(t, want, got)

	var buf bytes.Buffer
	require.NoError(t, mpt.PrettyPrint(&buf))
	assert.Contains(t, buf.String(), "L:")
}

func TestMerklePatriciaTrie_PathNodesProof(t *testing.T) {
	mpt := NewMerklePatriciaTrie(NewMemoryNodeDB(), Sequence(5), nil)
	for i := 0; i < 30; i++ {
		doInsert(t, mpt, HashPathString(fmt.Sprint(i)), fmt.Sprintf("v%d", i))
	}
	path := Path(HashPathString("17"))

	nodes, err := mpt.GetPathNodes(path)
	require.NoError(t, err)
	require.NotEmpty(t, nodes)
	assert.Equal(t, []byte(mpt.GetRoot()), nodes[0].GetHashBytes())

	v, err := VerifyPathNodes(mpt.GetRoot(), path, nodes)
	require.NoError(t, err)
	assert.Equal(t, "v17", string(v.Encode()))

	_, err = VerifyPathNodes(mpt.GetRoot(), Path(HashPathString("18")), nodes)
	assert.Equal(t, ErrInvalidProof, err)

	tampered := append([]Node{}, nodes...)
	leaf := tampered[len(tampered)-1].Clone().(*LeafNode)
	leaf.SetValue(value("forged"))
	tampered[len(tampered)-1] = leaf
	_, err = VerifyPathNodes(mpt.GetRoot(), path, tampered)
	assert.Equal(t, ErrInvalidProof, err)

	_, err = mpt.GetPathNodes(Path(HashPathString("missing")))
	assert.Equal(t, ErrValueNotPresent, err)
}

func TestMerklePatriciaTrie_LevelsKeepPreviousVersion(t *testing.T) {
	base := NewMemoryNodeDB()
	v1 := NewMerklePatriciaTrie(base, Sequence(1), nil)
	doInsert(t, v1, HashPathString("x"), "1")
	doInsert(t, v1, HashPathString("y"), "1")
	root1 := v1.GetRoot()
	size := base.Size(context.Background())

	lndb := NewLevelNodeDB(NewMemoryNodeDB(), base)
	v2 := NewMerklePatriciaTrie(lndb, Sequence(2), root1)
	doInsert(t, v2, HashPathString("x"), "2")
	doInsert(t, v2, HashPathString("z"), "2")

	// the previous layer is untouched and still serves the old root
	assert.Equal(t, size, base.Size(context.Background()))
	old := NewMerklePatriciaTrie(base, Sequence(1), root1)
	requireValue(t, old, HashPathString("x"), "1")
	_, err := old.GetNodeValue(Path(HashPathString("z")))
	assert.Equal(t, ErrValueNotPresent, err)

	requireValue(t, v2, HashPathString("x"), "2")
	requireValue(t, v2, HashPathString("y"), "1")
	requireValue(t, v2, HashPathString("z"), "2")

	// saving the new version's changes makes its root readable from the base alone
	require.NoError(t, v2.SaveChanges(base))
	merged := NewMerklePatriciaTrie(base, Sequence(2), v2.GetRoot())
	requireValue(t, merged, HashPathString("z"), "2")
	requireValue(t, merged, HashPathString("y"), "1")
}

func TestMerklePatriciaTrie_SaveChanges(t *testing.T) {
	lndb := NewLevelNodeDB(NewMemoryNodeDB(), NewMemoryNodeDB())
	mpt := NewMerklePatriciaTrie(lndb, Sequence(1), nil)
	for i := 0; i < 10; i++ {
		doInsert(t, mpt, HashPathString(fmt.Sprint(i)), "v")
	}
	require.NoError(t, mpt.GetChangeCollector().Validate())

	target := NewMemoryNodeDB()
	require.NoError(t, mpt.SaveChanges(target))
	saved := NewMerklePatriciaTrie(target, Sequence(1), mpt.GetRoot())
	for i := 0; i < 10; i++ {
		requireValue(t, saved, HashPathString(fmt.Sprint(i)), "v")
	}
	assert.Equal(t, int64(len(mpt.GetChangeCollector().GetChanges())), target.Size(context.Background()))
}
