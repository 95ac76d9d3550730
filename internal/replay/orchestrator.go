// Package replay recreates the configuration held by a game spec on a node,
// one transaction at a time.
package replay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finalbiome/finalbiome-impex/internal/errs"
	"github.com/finalbiome/finalbiome-impex/internal/gamespec"
	"github.com/finalbiome/finalbiome-impex/internal/metrics"
	"github.com/finalbiome/finalbiome-impex/pkg/finalbiome"
	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
)

type Phase int

const (
	PhaseCreateOrganization Phase = iota + 1
	PhaseAddMembers
	PhaseCreateFungibleAssets
	PhaseCreateNonFungibleClasses
)

func (p Phase) String() string {
	switch p {
	case PhaseCreateOrganization:
		return "create_organization"
	case PhaseAddMembers:
		return "add_members"
	case PhaseCreateFungibleAssets:
		return "create_fungible_assets"
	case PhaseCreateNonFungibleClasses:
		return "create_non_fungible_classes"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Step describes a transaction that was included and dispatched.
type Step struct {
	Phase       Phase
	Call        ledger.Call
	Description string
	Outcome     *ledger.Outcome
}

// Result is what a run created. On failure it holds everything created
// before the failing transaction.
type Result struct {
	Organization ledger.AccountID
	Remap        *Remap
	Transactions int
}

type Orchestrator struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: failed to validate config: %w", errs.ErrValidation, err)
	}
	return &Orchestrator{log: cfg.Logger, cfg: cfg}, nil
}

// Validate checks a snapshot before anything is submitted.
func Validate(snap *gamespec.Snapshot) error {
	if snap == nil || snap.OrganizationDetails == nil {
		return fmt.Errorf("%w: organization details not set", errs.ErrValidation)
	}
	if len(snap.OrganizationDetails.Name) == 0 {
		return fmt.Errorf("%w: organization name is empty", errs.ErrValidation)
	}
	for _, a := range snap.Attributes {
		if _, ok := snap.NonFungibleClasses[a.Class]; !ok {
			return fmt.Errorf("%w: attribute %q references class %d which is not in the game spec", errs.ErrValidation, a.Key, a.Class)
		}
	}
	return nil
}

// Members returns the accounts added in the member phase: the members of
// the snapshot followed by the manager when it is not one of them.
func (o *Orchestrator) Members(snap *gamespec.Snapshot) []ledger.AccountID {
	seen := make(map[ledger.AccountID]struct{}, len(snap.OrganizationMembers)+1)
	out := make([]ledger.AccountID, 0, len(snap.OrganizationMembers)+1)
	for _, m := range append(append([]ledger.AccountID(nil), snap.OrganizationMembers...), o.cfg.ManagerSigner.AccountID()) {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// TransactionCount returns the number of transactions a successful run of
// snap submits.
func (o *Orchestrator) TransactionCount(snap *gamespec.Snapshot) int {
	n := 1 + len(o.Members(snap)) + len(snap.FungibleAssets) + len(snap.NonFungibleClasses)
	for id, class := range snap.NonFungibleClasses {
		n += len(snap.AttributesOf(id))
		if class.Bettor != nil {
			n++
		}
		if class.Purchased != nil {
			n++
		}
	}
	return n
}

// Run replays snap. The first failure stops the run; nothing created before
// it is rolled back.
func (o *Orchestrator) Run(ctx context.Context, snap *gamespec.Snapshot) (*Result, error) {
	if err := Validate(snap); err != nil {
		return nil, err
	}
	r := &run{
		Orchestrator: o,
		snap:         snap,
		org:          o.cfg.OrganizationSigner.AccountID(),
		manager:      o.cfg.ManagerSigner.AccountID(),
	}
	r.result = &Result{Organization: r.org, Remap: newRemap()}
	defer metrics.ReplayPhase.Set(0)

	o.log.Info("Replaying game spec", "organization", r.org, "manager", r.manager, "transactions", o.TransactionCount(snap))

	for _, phase := range []struct {
		phase Phase
		run   func(context.Context) error
	}{
		{PhaseCreateOrganization, r.createOrganization},
		{PhaseAddMembers, r.addMembers},
		{PhaseCreateFungibleAssets, r.createFungibleAssets},
		{PhaseCreateNonFungibleClasses, r.createNonFungibleClasses},
	} {
		metrics.ReplayPhase.Set(float64(phase.phase))
		r.phase = phase.phase
		if err := phase.run(ctx); err != nil {
			o.log.Error("Replay stopped", "phase", phase.phase, "transactions", r.result.Transactions, "error", err)
			return r.result, err
		}
	}

	o.log.Info("Game spec replayed", "transactions", r.result.Transactions,
		"fungibleAssets", len(r.result.Remap.FungibleAssets),
		"nonFungibleClasses", len(r.result.Remap.NonFungibleClasses))
	return r.result, nil
}

type run struct {
	*Orchestrator
	snap    *gamespec.Snapshot
	org     ledger.AccountID
	manager ledger.AccountID
	phase   Phase
	result  *Result
}

// pendingCharacteristic is a characteristic that refers to a class which
// is created later in the run.
type pendingCharacteristic struct {
	oldClass finalbiome.NonFungibleClassID
	newClass finalbiome.NonFungibleClassID
	c        finalbiome.Characteristic
}

func (r *run) submit(ctx context.Context, call ledger.Call, buildErr error, desc string, signer ledger.Signer) (*ledger.Outcome, error) {
	if buildErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrValidation, desc, buildErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s not submitted: %w", errs.ErrTransaction, desc, err)
	}
	r.log.Debug("--> submitting", "phase", r.phase, "call", call, "description", desc)
	outcome, err := r.cfg.Submitter.Submit(ctx, call, signer)
	if err != nil {
		metrics.Transactions.WithLabelValues(call.String(), metrics.ResultFailure).Inc()
		metrics.Errors.WithLabelValues(metrics.ErrorTypeTransaction).Inc()
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrTransaction, desc, err)
	}
	metrics.Transactions.WithLabelValues(call.String(), metrics.ResultSuccess).Inc()
	r.result.Transactions++
	r.log.Debug("<-- included", "call", call, "block", outcome.BlockHash, "index", outcome.ExtrinsicIndex)
	if r.cfg.OnTransaction != nil {
		r.cfg.OnTransaction(Step{Phase: r.phase, Call: call, Description: desc, Outcome: outcome})
	}
	return outcome, nil
}

func (r *run) createOrganization(ctx context.Context) error {
	name := r.snap.OrganizationDetails.Name
	call, err := finalbiome.CreateOrganization(name)
	if _, err := r.submit(ctx, call, err, fmt.Sprintf("create organization %q", name), r.cfg.OrganizationSigner); err != nil {
		return err
	}
	r.log.Info("Organization created", "name", name)
	return nil
}

func (r *run) addMembers(ctx context.Context) error {
	members := r.Members(r.snap)
	for _, member := range members {
		call, err := finalbiome.AddMember(member)
		if _, err := r.submit(ctx, call, err, fmt.Sprintf("add member %s", member), r.cfg.OrganizationSigner); err != nil {
			return err
		}
	}
	r.log.Info("Members added", "count", len(members))
	return nil
}

func (r *run) createFungibleAssets(ctx context.Context) error {
	for _, old := range r.snap.FungibleAssetIDs() {
		fa := r.snap.FungibleAssets[old]
		desc := fmt.Sprintf("create fungible asset %d %q", old, fa.Name)
		call, err := finalbiome.CreateFungibleAsset(r.org, fa.Name, fa.TopUpped, fa.CupGlobal, fa.CupLocal)
		outcome, err := r.submit(ctx, call, err, desc, r.cfg.ManagerSigner)
		if err != nil {
			return err
		}
		id, ok := finalbiome.CreatedFungibleAssetID(outcome)
		if !ok {
			metrics.Errors.WithLabelValues(metrics.ErrorTypeMissingID).Inc()
			return fmt.Errorf("%w: creating of fungible asset %d failed: no %s.Created event", errs.ErrTransaction, old, finalbiome.PalletFungibleAssets)
		}
		r.result.Remap.FungibleAssets[old] = id
		r.log.Debug("Fungible asset created", "old", old, "new", id, "name", fa.Name)
	}
	r.log.Info("Fungible assets created", "count", len(r.result.Remap.FungibleAssets))
	return nil
}

func (r *run) createNonFungibleClasses(ctx context.Context) error {
	var pending []pendingCharacteristic
	for _, old := range r.snap.NonFungibleClassIDs() {
		class := r.snap.NonFungibleClasses[old]
		desc := fmt.Sprintf("create non-fungible class %d %q", old, class.Name)
		call, err := finalbiome.CreateNonFungibleClass(r.org, class.Name)
		outcome, err := r.submit(ctx, call, err, desc, r.cfg.ManagerSigner)
		if err != nil {
			return err
		}
		id, ok := finalbiome.CreatedClassID(outcome)
		if !ok {
			metrics.Errors.WithLabelValues(metrics.ErrorTypeMissingID).Inc()
			return fmt.Errorf("%w: creating of non-fungible class %d failed: no %s.Created event", errs.ErrTransaction, old, finalbiome.PalletNonFungibleAssets)
		}
		r.result.Remap.NonFungibleClasses[old] = id
		r.log.Debug("Non-fungible class created", "old", old, "new", id, "name", class.Name)

		for _, attr := range r.snap.AttributesOf(old) {
			call, err := finalbiome.CreateAttribute(r.org, id, attr)
			desc := fmt.Sprintf("create attribute %q of class %d", attr.Key, old)
			if _, err := r.submit(ctx, call, err, desc, r.cfg.ManagerSigner); err != nil {
				return err
			}
		}

		chars := characteristics(class)
		if r.waitsForClass(chars) {
			r.log.Debug("Characteristics deferred", "class", old)
			for _, c := range chars {
				pending = append(pending, pendingCharacteristic{oldClass: old, newClass: id, c: c})
			}
			continue
		}
		for _, c := range chars {
			if err := r.setCharacteristic(ctx, old, id, c); err != nil {
				return err
			}
		}
	}
	for _, p := range pending {
		if err := r.setCharacteristic(ctx, p.oldClass, p.newClass, p.c); err != nil {
			return err
		}
	}
	r.log.Info("Non-fungible classes created", "count", len(r.result.Remap.NonFungibleClasses), "deferredCharacteristics", len(pending))
	return nil
}

// characteristics splits the characteristics of a class into one value per
// set_characteristic call, bettor first.
func characteristics(class finalbiome.ClassDetails) []finalbiome.Characteristic {
	var out []finalbiome.Characteristic
	if class.Bettor != nil {
		out = append(out, finalbiome.Characteristic{Bettor: class.Bettor})
	}
	if class.Purchased != nil {
		out = append(out, finalbiome.Characteristic{Purchased: class.Purchased})
	}
	return out
}

// waitsForClass reports whether any characteristic refers to a class of the
// snapshot that was not created yet.
func (r *run) waitsForClass(chars []finalbiome.Characteristic) bool {
	for _, c := range chars {
		for _, ref := range references(c) {
			if ref.class == nil {
				continue
			}
			if _, inSnapshot := r.snap.NonFungibleClasses[*ref.class]; !inSnapshot {
				continue
			}
			if _, created := r.result.Remap.NonFungibleClasses[*ref.class]; !created {
				return true
			}
		}
	}
	return false
}

// readdress rewrites the ids inside c to the ids of the target node. Ids
// that are not part of the snapshot are kept as they are.
func (r *run) readdress(old finalbiome.NonFungibleClassID, c finalbiome.Characteristic) finalbiome.Characteristic {
	out := cloneCharacteristic(c)
	for _, ref := range references(out) {
		switch {
		case ref.fa != nil:
			if id, ok := r.result.Remap.FungibleAssets[*ref.fa]; ok {
				*ref.fa = id
			} else {
				r.log.Warn("Characteristic refers to a fungible asset outside the game spec", "class", old, "fa", *ref.fa)
			}
		case ref.class != nil:
			if id, ok := r.result.Remap.NonFungibleClasses[*ref.class]; ok {
				*ref.class = id
			} else {
				r.log.Warn("Characteristic refers to a class outside the game spec", "class", old, "nfa", *ref.class)
			}
		}
	}
	return out
}

func (r *run) setCharacteristic(ctx context.Context, old, id finalbiome.NonFungibleClassID, c finalbiome.Characteristic) error {
	call, err := finalbiome.SetCharacteristic(r.org, id, r.readdress(old, c))
	desc := fmt.Sprintf("set %s characteristic of class %d", c.Kind(), old)
	_, err = r.submit(ctx, call, err, desc, r.cfg.ManagerSigner)
	return err
}
