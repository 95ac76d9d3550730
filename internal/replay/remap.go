package replay

import (
	"github.com/finalbiome/finalbiome-impex/pkg/finalbiome"
)

// Remap maps the ids of a snapshot to the ids assigned by the target node.
// It is filled in creation order during one run.
type Remap struct {
	FungibleAssets     map[finalbiome.FungibleAssetID]finalbiome.FungibleAssetID
	NonFungibleClasses map[finalbiome.NonFungibleClassID]finalbiome.NonFungibleClassID
}

func newRemap() *Remap {
	return &Remap{
		FungibleAssets:     map[finalbiome.FungibleAssetID]finalbiome.FungibleAssetID{},
		NonFungibleClasses: map[finalbiome.NonFungibleClassID]finalbiome.NonFungibleClassID{},
	}
}

// reference is an id carried inside a characteristic.
type reference struct {
	fa    *finalbiome.FungibleAssetID
	class *finalbiome.NonFungibleClassID
}

// references collects pointers to every id inside c.
func references(c finalbiome.Characteristic) []reference {
	var out []reference
	if c.Bettor != nil {
		for i := range c.Bettor.Winnings {
			w := &c.Bettor.Winnings[i]
			switch {
			case w.FA != nil:
				out = append(out, reference{fa: &w.FA.ID})
			case w.NFA != nil:
				out = append(out, reference{class: w.NFA})
			}
		}
	}
	if c.Purchased != nil {
		for i := range c.Purchased.Offers {
			out = append(out, reference{fa: &c.Purchased.Offers[i].FA})
		}
	}
	return out
}

// cloneCharacteristic deep copies the parts of c that hold ids.
func cloneCharacteristic(c finalbiome.Characteristic) finalbiome.Characteristic {
	var out finalbiome.Characteristic
	if c.Bettor != nil {
		b := *c.Bettor
		b.Winnings = make([]finalbiome.AssetGrant, len(c.Bettor.Winnings))
		for i, w := range c.Bettor.Winnings {
			if w.FA != nil {
				fa := *w.FA
				w.FA = &fa
			}
			if w.NFA != nil {
				nfa := *w.NFA
				w.NFA = &nfa
			}
			b.Winnings[i] = w
		}
		out.Bettor = &b
	}
	if c.Purchased != nil {
		p := finalbiome.Purchased{Offers: append([]finalbiome.Offer(nil), c.Purchased.Offers...)}
		out.Purchased = &p
	}
	return out
}
