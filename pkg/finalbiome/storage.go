package finalbiome

import (
	"encoding/binary"
	"fmt"

	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
	"github.com/finalbiome/finalbiome-impex/pkg/scale"
)

const (
	PalletSystem               = "System"
	PalletOrganizationIdentity = "OrganizationIdentity"
	PalletFungibleAssets       = "FungibleAssets"
	PalletNonFungibleAssets    = "NonFungibleAssets"
)

// All maps of the game spec pallets hash their keys with Blake2_128Concat.
const keyHasher = ledger.Blake2_128Concat

var (
	organizationsPrefix   = ledger.StoragePrefix(PalletOrganizationIdentity, "Organizations")
	membersOfPrefix       = ledger.StoragePrefix(PalletOrganizationIdentity, "MembersOf")
	assetsPrefix          = ledger.StoragePrefix(PalletFungibleAssets, "Assets")
	assetsOfPrefix        = ledger.StoragePrefix(PalletFungibleAssets, "AssetsOf")
	classesPrefix         = ledger.StoragePrefix(PalletNonFungibleAssets, "Classes")
	classAccountsPrefix   = ledger.StoragePrefix(PalletNonFungibleAssets, "ClassAccounts")
	classAttributesPrefix = ledger.StoragePrefix(PalletNonFungibleAssets, "ClassAttributes")
)

func mapKey(prefix ledger.StorageKey, keys ...[]byte) ledger.StorageKey {
	out := append(ledger.StorageKey{}, prefix...)
	for _, k := range keys {
		out = append(out, keyHasher.Hash(k)...)
	}
	return out
}

func u32Key(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

// OrganizationKey addresses the details of an organization.
func OrganizationKey(org ledger.AccountID) ledger.StorageKey {
	return mapKey(organizationsPrefix, org[:])
}

// MembersOfPrefix is the prefix of all members of an organization.
func MembersOfPrefix(org ledger.AccountID) ledger.StorageKey {
	return mapKey(membersOfPrefix, org[:])
}

// AssetsOfPrefix is the prefix of all fungible assets of an organization.
func AssetsOfPrefix(org ledger.AccountID) ledger.StorageKey {
	return mapKey(assetsOfPrefix, org[:])
}

func AssetKey(id FungibleAssetID) ledger.StorageKey {
	return mapKey(assetsPrefix, u32Key(uint32(id)))
}

// ClassAccountsPrefix is the prefix of all non-fungible classes of an
// organization.
func ClassAccountsPrefix(org ledger.AccountID) ledger.StorageKey {
	return mapKey(classAccountsPrefix, org[:])
}

func ClassKey(id NonFungibleClassID) ledger.StorageKey {
	return mapKey(classesPrefix, u32Key(uint32(id)))
}

// ClassAttributesPrefix is the prefix of all attributes of a class.
func ClassAttributesPrefix(class NonFungibleClassID) ledger.StorageKey {
	return mapKey(classAttributesPrefix, u32Key(uint32(class)))
}

func ClassAttributeKey(class NonFungibleClassID, key Text) (ledger.StorageKey, error) {
	encoded, err := scale.Encode(key)
	if err != nil {
		return nil, err
	}
	return mapKey(classAttributesPrefix, u32Key(uint32(class)), encoded), nil
}

// MemberFromKey decodes the member account from a MembersOf key: the last
// 32 bytes.
func MemberFromKey(key ledger.StorageKey) (ledger.AccountID, error) {
	if len(key) < 32 {
		return ledger.AccountID{}, fmt.Errorf("members key %s too short", key)
	}
	return ledger.AccountID(key[len(key)-32:]), nil
}

func lastU32(key ledger.StorageKey) (uint32, error) {
	if len(key) < 4 {
		return 0, fmt.Errorf("key %s too short for a u32 suffix", key)
	}
	return binary.LittleEndian.Uint32(key[len(key)-4:]), nil
}

// FungibleAssetIDFromKey decodes the asset id from an AssetsOf key: the
// last 4 bytes.
func FungibleAssetIDFromKey(key ledger.StorageKey) (FungibleAssetID, error) {
	v, err := lastU32(key)
	return FungibleAssetID(v), err
}

// ClassIDFromKey decodes the class id from a ClassAccounts key: the last 4
// bytes.
func ClassIDFromKey(key ledger.StorageKey) (NonFungibleClassID, error) {
	v, err := lastU32(key)
	return NonFungibleClassID(v), err
}

// AttributeKeyFromKey decodes the attribute key from a ClassAttributes key
// scanned under prefix: the bytes after the prefix and the 16 hash bytes of
// the second key, decoded as a byte vector.
func AttributeKeyFromKey(prefix, key ledger.StorageKey) (Text, error) {
	start := len(prefix) + keyHasher.Width()
	if len(key) < start {
		return nil, fmt.Errorf("attribute key %s too short", key)
	}
	var out Text
	if err := scale.Decode(key[start:], &out); err != nil {
		return nil, fmt.Errorf("attribute key %s: %w", key, err)
	}
	return out, nil
}
