package finalbiome

import (
	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
	"github.com/finalbiome/finalbiome-impex/pkg/scale"
)

const multiAddressID = 0x00

func call(pallet, name string, write func(e *scale.Encoder)) (ledger.Call, error) {
	e := scale.NewEncoder()
	write(e)
	args, err := e.Bytes()
	if err != nil {
		return ledger.Call{}, err
	}
	return ledger.Call{Pallet: pallet, Name: name, Args: args}, nil
}

func writeOrg(e *scale.Encoder, org ledger.AccountID) {
	e.WriteU8(multiAddressID)
	e.WriteFixed(org[:])
}

// CreateOrganization registers the signer as an organization.
func CreateOrganization(name Text) (ledger.Call, error) {
	return call(PalletOrganizationIdentity, "create_organization", func(e *scale.Encoder) {
		e.Write(name)
	})
}

// AddMember adds a member to the signing organization.
func AddMember(member ledger.AccountID) (ledger.Call, error) {
	return call(PalletOrganizationIdentity, "add_member", func(e *scale.Encoder) {
		e.WriteFixed(member[:])
	})
}

// CreateFungibleAsset creates a fungible asset owned by org. The new id is
// reported by the FungibleAssets.Created event.
func CreateFungibleAsset(org ledger.AccountID, name Text, topUpped *TopUppedFA, cupGlobal, cupLocal *CupFA) (ledger.Call, error) {
	return call(PalletFungibleAssets, "create", func(e *scale.Encoder) {
		writeOrg(e, org)
		e.Write(name)
		writeFAOptions(e, topUpped, cupGlobal, cupLocal)
	})
}

// CreateNonFungibleClass creates a class owned by org. The new id is
// reported by the NonFungibleAssets.Created event.
func CreateNonFungibleClass(org ledger.AccountID, name Text) (ledger.Call, error) {
	return call(PalletNonFungibleAssets, "create", func(e *scale.Encoder) {
		writeOrg(e, org)
		e.Write(name)
	})
}

func CreateAttribute(org ledger.AccountID, class NonFungibleClassID, attr Attribute) (ledger.Call, error) {
	return call(PalletNonFungibleAssets, "create_attribute", func(e *scale.Encoder) {
		writeOrg(e, org)
		e.WriteU32(uint32(class))
		e.Write(attr)
	})
}

func SetCharacteristic(org ledger.AccountID, class NonFungibleClassID, c Characteristic) (ledger.Call, error) {
	return call(PalletNonFungibleAssets, "set_characteristic", func(e *scale.Encoder) {
		writeOrg(e, org)
		e.WriteU32(uint32(class))
		e.Write(c)
	})
}
