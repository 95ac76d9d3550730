package finalbiome

import "github.com/finalbiome/finalbiome-impex/pkg/ledger"

const eventCreated = "Created"

// CreatedFungibleAssetID returns the asset id reported by the
// FungibleAssets.Created event of a transaction.
func CreatedFungibleAssetID(o *ledger.Outcome) (FungibleAssetID, bool) {
	ev, ok := o.FindEvent(PalletFungibleAssets, eventCreated)
	if !ok {
		return 0, false
	}
	id, ok := ev.U32("asset_id")
	return FungibleAssetID(id), ok
}

// CreatedClassID returns the class id reported by the
// NonFungibleAssets.Created event of a transaction.
func CreatedClassID(o *ledger.Outcome) (NonFungibleClassID, bool) {
	ev, ok := o.FindEvent(PalletNonFungibleAssets, eventCreated)
	if !ok {
		return 0, false
	}
	id, ok := ev.U32("class_id")
	return NonFungibleClassID(id), ok
}
