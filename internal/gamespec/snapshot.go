// Package gamespec holds the game spec document: a snapshot of one
// organization's configuration at one state version.
package gamespec

import (
	"sort"

	"github.com/finalbiome/finalbiome-impex/pkg/finalbiome"
	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
)

type Attribute = finalbiome.ClassAttribute

// Snapshot is the exported game spec. Collections not covered by the scope
// it was built with are nil.
type Snapshot struct {
	// Version is the version of the node the snapshot was read from.
	Version             string                                                         `json:"version"`
	StateVersion        ledger.Hash                                                    `json:"stateVersion"`
	OrganizationDetails *finalbiome.OrganizationDetails                                `json:"organizationDetails"`
	OrganizationMembers []ledger.AccountID                                             `json:"organizationMembers,omitempty"`
	FungibleAssets      map[finalbiome.FungibleAssetID]finalbiome.FungibleAssetDetails `json:"fungibleAssets,omitempty"`
	NonFungibleClasses  map[finalbiome.NonFungibleClassID]finalbiome.ClassDetails      `json:"nonFungibleClasses,omitempty"`
	Attributes          []Attribute                                                    `json:"attributes,omitempty"`
}

// FungibleAssetIDs returns the ids of the fungible assets in ascending
// order.
func (s *Snapshot) FungibleAssetIDs() []finalbiome.FungibleAssetID {
	ids := make([]finalbiome.FungibleAssetID, 0, len(s.FungibleAssets))
	for id := range s.FungibleAssets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NonFungibleClassIDs returns the ids of the classes in ascending order.
func (s *Snapshot) NonFungibleClassIDs() []finalbiome.NonFungibleClassID {
	ids := make([]finalbiome.NonFungibleClassID, 0, len(s.NonFungibleClasses))
	for id := range s.NonFungibleClasses {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AttributesOf returns the attributes of a class in snapshot order.
func (s *Snapshot) AttributesOf(class finalbiome.NonFungibleClassID) []finalbiome.Attribute {
	var out []finalbiome.Attribute
	for _, a := range s.Attributes {
		if a.Class == class {
			out = append(out, a.Attribute())
		}
	}
	return out
}
