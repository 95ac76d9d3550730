package gamespec

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// EntityDiff is a unified diff of one entity present in either snapshot.
type EntityDiff struct {
	Entity string
	Diff   string
}

// Diff compares two snapshots entity by entity. The node version and state
// version are ignored. Entities are visited in a stable order: organization,
// members, fungible assets then classes by id.
func Diff(a, b *Snapshot) ([]EntityDiff, error) {
	var out []EntityDiff
	add := func(entity string, x, y any) error {
		d, err := diffJSON(entity, x, y)
		if err != nil {
			return fmt.Errorf("failed to diff %s: %w", entity, err)
		}
		if d != "" {
			out = append(out, EntityDiff{Entity: entity, Diff: d})
		}
		return nil
	}

	if err := add("organization", a.OrganizationDetails, b.OrganizationDetails); err != nil {
		return nil, err
	}
	if err := add("members", sortedMembers(a.OrganizationMembers), sortedMembers(b.OrganizationMembers)); err != nil {
		return nil, err
	}
	for _, id := range union(a.FungibleAssetIDs(), b.FungibleAssetIDs()) {
		if err := add(fmt.Sprintf("fungible-asset/%d", id), lookup(a.FungibleAssets, id), lookup(b.FungibleAssets, id)); err != nil {
			return nil, err
		}
	}
	for _, id := range union(a.NonFungibleClassIDs(), b.NonFungibleClassIDs()) {
		if err := add(fmt.Sprintf("non-fungible-class/%d", id), lookup(a.NonFungibleClasses, id), lookup(b.NonFungibleClasses, id)); err != nil {
			return nil, err
		}
		if err := add(fmt.Sprintf("non-fungible-class/%d/attributes", id), a.AttributesOf(id), b.AttributesOf(id)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func diffJSON(entity string, x, y any) (string, error) {
	oldJSON, err := json.MarshalIndent(x, "", "  ")
	if err != nil {
		return "", err
	}
	newJSON, err := json.MarshalIndent(y, "", "  ")
	if err != nil {
		return "", err
	}
	if bytes.Equal(oldJSON, newJSON) {
		return "", nil
	}
	oldText, newText := string(oldJSON)+"\n", string(newJSON)+"\n"
	edits := myers.ComputeEdits(span.URIFromPath("a/"+entity), oldText, newText)
	return fmt.Sprint(gotextdiff.ToUnified("a/"+entity, "b/"+entity, oldText, edits)), nil
}

func lookup[K comparable, V any](m map[K]V, k K) *V {
	if v, ok := m[k]; ok {
		return &v
	}
	return nil
}

func union[T cmp.Ordered](a, b []T) []T {
	out := append(append(make([]T, 0, len(a)+len(b)), a...), b...)
	slices.Sort(out)
	return slices.Compact(out)
}

func sortedMembers(members []ledger.AccountID) []ledger.AccountID {
	out := slices.Clone(members)
	slices.SortFunc(out, func(x, y ledger.AccountID) int { return bytes.Compare(x[:], y[:]) })
	return out
}
