package gamespec

import (
	"errors"
	"fmt"

	"github.com/finalbiome/finalbiome-impex/internal/errs"
	"github.com/finalbiome/finalbiome-impex/pkg/finalbiome"
	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
)

// Scope selects the parts of the configuration a snapshot must carry.
type Scope int

const (
	// ScopeFull requires every collection.
	ScopeFull Scope = iota
	// ScopeOrganization requires the organization details only.
	ScopeOrganization
)

var ErrInvalidScope = errors.New("invalid scope")

func (s Scope) String() string {
	switch s {
	case ScopeFull:
		return "full"
	case ScopeOrganization:
		return "organization"
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

// ParseScope parses the name of a scope.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "full", "":
		return ScopeFull, nil
	case "organization", "org":
		return ScopeOrganization, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidScope, s)
}

// Builder accumulates the parts of a snapshot. Setters can be called in any
// order and the last write wins. A builder produces at most one snapshot.
type Builder struct {
	scope Scope
	snap  Snapshot
	built bool

	hasMembers, hasAssets, hasClasses, hasAttributes bool
}

func NewBuilder(scope Scope) *Builder {
	return &Builder{scope: scope}
}

func (b *Builder) Version(v string) *Builder {
	b.snap.Version = v
	return b
}

func (b *Builder) StateVersion(h ledger.Hash) *Builder {
	b.snap.StateVersion = h
	return b
}

func (b *Builder) OrganizationDetails(d *finalbiome.OrganizationDetails) *Builder {
	b.snap.OrganizationDetails = d
	return b
}

func (b *Builder) OrganizationMembers(m []ledger.AccountID) *Builder {
	b.snap.OrganizationMembers = m
	b.hasMembers = true
	return b
}

func (b *Builder) FungibleAssets(a map[finalbiome.FungibleAssetID]finalbiome.FungibleAssetDetails) *Builder {
	b.snap.FungibleAssets = a
	b.hasAssets = true
	return b
}

func (b *Builder) NonFungibleClasses(c map[finalbiome.NonFungibleClassID]finalbiome.ClassDetails) *Builder {
	b.snap.NonFungibleClasses = c
	b.hasClasses = true
	return b
}

func (b *Builder) Attributes(a []Attribute) *Builder {
	b.snap.Attributes = a
	b.hasAttributes = true
	return b
}

// Build checks that every part required by the scope was set and returns
// the snapshot. It fails with ErrValidation naming the first missing part.
func (b *Builder) Build() (*Snapshot, error) {
	if b.built {
		return nil, fmt.Errorf("%w: builder already used", errs.ErrValidation)
	}
	if b.snap.OrganizationDetails == nil {
		return nil, fmt.Errorf("%w: organization details not set", errs.ErrValidation)
	}
	if b.scope == ScopeFull {
		for _, part := range []struct {
			set  bool
			name string
		}{
			{b.hasMembers, "organization members"},
			{b.hasAssets, "fungible assets"},
			{b.hasClasses, "non-fungible classes"},
			{b.hasAttributes, "attributes"},
		} {
			if !part.set {
				return nil, fmt.Errorf("%w: %s not set", errs.ErrValidation, part.name)
			}
		}
	}
	b.built = true
	snap := b.snap
	b.snap = Snapshot{}
	return &snap, nil
}
