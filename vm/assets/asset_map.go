package assets

import (
	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/tyGavinZJU/miningbot-sub001/core/common"
	"github.com/tyGavinZJU/miningbot-sub001/vm/types"
)

// ErrConservation - credits and debits of an asset do not match its mint and burn totals.
var ErrConservation = common.NewError("asset_conservation", "asset credits and debits do not balance")

/*Delta - the pending change of one holder's balance */
type Delta struct {
	Credit uint256.Int
	Debit  uint256.Int
}

// Net applies the delta to balance. It fails if the result is negative or
// does not fit in 128 bits.
func (d *Delta) Net(balance types.UIntValue) (types.UIntValue, error) {
	var out uint256.Int
	out.Add(balance.Big(), &d.Credit)
	if out.Lt(&d.Debit) {
		return types.UIntValue{}, types.ErrArithmeticUnderflow
	}
	out.Sub(&out, &d.Debit)
	return types.UIntFromBig(&out)
}

type fungible struct {
	holders map[types.Principal]*Delta
	minted  uint256.Int
	burned  uint256.Int
}

func newFungible() *fungible {
	return &fungible{holders: make(map[types.Principal]*Delta)}
}

func (f *fungible) holder(p types.Principal) *Delta {
	d, ok := f.holders[p]
	if !ok {
		d = &Delta{}
		f.holders[p] = d
	}
	return d
}

/*NFTChange - a non fungible token moving to a new owner. From is nil for a
mint and To is nil for a burn. */
type NFTChange struct {
	Asset types.AssetIdentifier
	ID    types.Value
	From  types.Principal
	To    types.Principal
}

/*AssetMap - the asset movements of one transaction tier */
type AssetMap struct {
	fungibles map[types.AssetIdentifier]*fungible
	nfts      []NFTChange
}

// NewAssetMap creates an empty map.
func NewAssetMap() *AssetMap {
	return &AssetMap{fungibles: make(map[types.AssetIdentifier]*fungible)}
}

func (am *AssetMap) fungible(asset types.AssetIdentifier) *fungible {
	f, ok := am.fungibles[asset]
	if !ok {
		f = newFungible()
		am.fungibles[asset] = f
	}
	return f
}

// AddTransfer records amount moving from one holder to another.
func (am *AssetMap) AddTransfer(asset types.AssetIdentifier, from, to types.Principal, amount types.UIntValue) {
	f := am.fungible(asset)
	d := f.holder(from)
	d.Debit.Add(&d.Debit, amount.Big())
	d = f.holder(to)
	d.Credit.Add(&d.Credit, amount.Big())
}

// AddMint records amount created for to.
func (am *AssetMap) AddMint(asset types.AssetIdentifier, to types.Principal, amount types.UIntValue) {
	f := am.fungible(asset)
	d := f.holder(to)
	d.Credit.Add(&d.Credit, amount.Big())
	f.minted.Add(&f.minted, amount.Big())
}

// AddBurn records amount destroyed from from.
func (am *AssetMap) AddBurn(asset types.AssetIdentifier, from types.Principal, amount types.UIntValue) {
	f := am.fungible(asset)
	d := f.holder(from)
	d.Debit.Add(&d.Debit, amount.Big())
	f.burned.Add(&f.burned, amount.Big())
}

// AddNFTChange records a token changing hands.
func (am *AssetMap) AddNFTChange(change NFTChange) {
	am.nfts = append(am.nfts, change)
}

// Merge folds a committed child tier into am.
func (am *AssetMap) Merge(child *AssetMap) {
	for asset, cf := range child.fungibles {
		f := am.fungible(asset)
		for p, cd := range cf.holders {
			d := f.holder(p)
			d.Credit.Add(&d.Credit, &cd.Credit)
			d.Debit.Add(&d.Debit, &cd.Debit)
		}
		f.minted.Add(&f.minted, &cf.minted)
		f.burned.Add(&f.burned, &cf.burned)
	}
	am.nfts = append(am.nfts, child.nfts...)
}

// IsEmpty reports whether nothing was recorded.
func (am *AssetMap) IsEmpty() bool {
	return len(am.fungibles) == 0 && len(am.nfts) == 0
}

// Delta returns the pending change of holder's balance of asset.
func (am *AssetMap) Delta(asset types.AssetIdentifier, holder types.Principal) (Delta, bool) {
	f, ok := am.fungibles[asset]
	if !ok {
		return Delta{}, false
	}
	d, ok := f.holders[holder]
	if !ok {
		return Delta{}, false
	}
	return *d, true
}

// Supply returns the minted and burned totals of asset.
func (am *AssetMap) Supply(asset types.AssetIdentifier) (minted, burned uint256.Int) {
	if f, ok := am.fungibles[asset]; ok {
		return f.minted, f.burned
	}
	return
}

// Assets lists the fungible assets touched, ordered by name.
func (am *AssetMap) Assets() []types.AssetIdentifier {
	byName := make(map[string]types.AssetIdentifier, len(am.fungibles))
	for _, a := range maps.Keys(am.fungibles) {
		byName[a.String()] = a
	}
	names := maps.Keys(byName)
	slices.Sort(names)
	out := make([]types.AssetIdentifier, 0, len(names))
	for _, n := range names {
		out = append(out, byName[n])
	}
	return out
}

// Holders lists the principals whose balance of asset changes, ordered by
// their string form.
func (am *AssetMap) Holders(asset types.AssetIdentifier) []types.Principal {
	f, ok := am.fungibles[asset]
	if !ok {
		return nil
	}
	byName := make(map[string]types.Principal, len(f.holders))
	for _, p := range maps.Keys(f.holders) {
		byName[p.String()] = p
	}
	names := maps.Keys(byName)
	slices.Sort(names)
	out := make([]types.Principal, 0, len(names))
	for _, n := range names {
		out = append(out, byName[n])
	}
	return out
}

// NFTChanges returns the token movements in the order they happened.
func (am *AssetMap) NFTChanges() []NFTChange {
	return append([]NFTChange(nil), am.nfts...)
}

// CheckConservation verifies, for every asset, that what holders gained
// minus what they lost equals what was minted minus what was burned.
func (am *AssetMap) CheckConservation() error {
	for _, asset := range am.Assets() {
		f := am.fungibles[asset]
		var credits, debits uint256.Int
		for _, d := range f.holders {
			credits.Add(&credits, &d.Credit)
			debits.Add(&debits, &d.Debit)
		}
		var lhs, rhs uint256.Int
		lhs.Add(&credits, &f.burned)
		rhs.Add(&debits, &f.minted)
		if !lhs.Eq(&rhs) {
			return common.Wrap(ErrConservation, "asset %v", asset)
		}
	}
	return nil
}

/*Entry - a holder's net change of one asset */
type Entry struct {
	Asset  types.AssetIdentifier
	Holder types.Principal
	Credit types.UIntValue
	Debit  types.UIntValue
}

// Entries flattens the fungible movements in a deterministic order.
func (am *AssetMap) Entries() ([]Entry, error) {
	var out []Entry
	for _, asset := range am.Assets() {
		for _, p := range am.Holders(asset) {
			d := am.fungibles[asset].holders[p]
			credit, err := types.UIntFromBig(&d.Credit)
			if err != nil {
				return nil, err
			}
			debit, err := types.UIntFromBig(&d.Debit)
			if err != nil {
				return nil, err
			}
			out = append(out, Entry{Asset: asset, Holder: p, Credit: credit, Debit: debit})
		}
	}
	return out, nil
}
