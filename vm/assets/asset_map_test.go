package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyGavinZJU/miningbot-sub001/vm/types"
)

var (
	alice = types.NewStandardPrincipal(26, "alice")
	bob   = types.NewStandardPrincipal(26, "bob")
	stx   = types.STXAssetIdentifier
)

func TestAssetMap_TransferMintBurn(t *testing.T) {
	am := NewAssetMap()
	assert.True(t, am.IsEmpty())

	am.AddMint(stx, alice, types.UInt(100))
	am.AddTransfer(stx, alice, bob, types.UInt(60))
	am.AddBurn(stx, bob, types.UInt(10))
	require.NoError(t, am.CheckConservation())

	d, ok := am.Delta(stx, alice)
	require.True(t, ok)
	bal, err := d.Net(types.UInt(0))
	require.NoError(t, err)
	assert.Equal(t, "40", bal.Decimal())

	d, ok = am.Delta(stx, bob)
	require.True(t, ok)
	bal, err = d.Net(types.UInt(0))
	require.NoError(t, err)
	assert.Equal(t, "50", bal.Decimal())

	minted, burned := am.Supply(stx)
	assert.Equal(t, uint64(100), minted.Uint64())
	assert.Equal(t, uint64(10), burned.Uint64())
}

func TestDelta_NetUnderflow(t *testing.T) {
	am := NewAssetMap()
	am.AddTransfer(stx, alice, bob, types.UInt(5))
	d, _ := am.Delta(stx, alice)
	_, err := d.Net(types.UInt(4))
	assert.ErrorIs(t, err, types.ErrArithmeticUnderflow)
	bal, err := d.Net(types.UInt(5))
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestAssetMap_Merge(t *testing.T) {
	parent := NewAssetMap()
	parent.AddTransfer(stx, alice, bob, types.UInt(1))
	parent.AddNFTChange(NFTChange{Asset: stx, ID: types.UInt(1), To: alice})

	child := NewAssetMap()
	child.AddTransfer(stx, alice, bob, types.UInt(2))
	child.AddNFTChange(NFTChange{Asset: stx, ID: types.UInt(1), From: alice, To: bob})
	parent.Merge(child)

	d, _ := parent.Delta(stx, bob)
	assert.Equal(t, uint64(3), d.Credit.Uint64())
	changes := parent.NFTChanges()
	require.Len(t, changes, 2)
	assert.Nil(t, changes[0].From)
	assert.Equal(t, types.Principal(bob), changes[1].To)
}

func TestAssetMap_DeterministicOrder(t *testing.T) {
	contract, err := types.NewContractIdentifier(alice, "token")
	require.NoError(t, err)
	gold := types.AssetIdentifier{Contract: contract, Name: "gold"}

	am := NewAssetMap()
	am.AddMint(gold, bob, types.UInt(1))
	am.AddMint(stx, bob, types.UInt(1))
	am.AddMint(stx, alice, types.UInt(1))

	assets := am.Assets()
	require.Len(t, assets, 2)
	assert.Equal(t, []string{assets[0].String(), assets[1].String()},
		sortedStrings(gold.String(), stx.String()))

	entries, err := am.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if prev.Asset == cur.Asset {
			assert.Less(t, prev.Holder.String(), cur.Holder.String())
		}
	}
}

func sortedStrings(a, b string) []string {
	if a < b {
		return []string{a, b}
	}
	return []string{b, a}
}
