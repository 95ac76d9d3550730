package replay_test

import (
	"context"
	"errors"
	"testing"

	"github.com/finalbiome/finalbiome-impex/internal/errs"
	"github.com/finalbiome/finalbiome-impex/internal/gamespec"
	"github.com/finalbiome/finalbiome-impex/internal/replay"
	"github.com/finalbiome/finalbiome-impex/pkg/finalbiome"
	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
	"github.com/finalbiome/finalbiome-impex/pkg/scale"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var (
	orgSigner     = &testSigner{id: ledger.AccountID{0x0a}}
	managerSigner = &testSigner{id: ledger.AccountID{0x0b}}
	memberA       = ledger.AccountID{0x01}
	memberB       = ledger.AccountID{0x02}
)

func mustCall(t *testing.T) func(ledger.Call, error) ledger.Call {
	return func(c ledger.Call, err error) ledger.Call {
		t.Helper()
		require.NoError(t, err)
		return c
	}
}

func newOrchestrator(t *testing.T, sub replay.Submitter, manager ledger.Signer, onTx func(replay.Step)) *replay.Orchestrator {
	t.Helper()
	o, err := replay.New(replay.Config{
		Logger:             log,
		Submitter:          sub,
		OrganizationSigner: orgSigner,
		ManagerSigner:      manager,
		OnTransaction:      onTx,
	})
	require.NoError(t, err)
	return o
}

func testSnapshot() *gamespec.Snapshot {
	red := finalbiome.Text("red")
	return &gamespec.Snapshot{
		Version:             "1.0.0",
		StateVersion:        ledger.Hash{0x01},
		OrganizationDetails: &finalbiome.OrganizationDetails{Name: finalbiome.Text("Arena")},
		OrganizationMembers: []ledger.AccountID{memberA, memberB},
		FungibleAssets: map[finalbiome.FungibleAssetID]finalbiome.FungibleAssetDetails{
			7: {Name: finalbiome.Text("Energy"), TopUpped: &finalbiome.TopUppedFA{Speed: scale.NewU128(2)}},
			3: {Name: finalbiome.Text("Gold"), CupGlobal: &finalbiome.CupFA{Amount: scale.NewU128(1000)}},
		},
		NonFungibleClasses: map[finalbiome.NonFungibleClassID]finalbiome.ClassDetails{
			4: {Name: finalbiome.Text("Sword")},
			9: {
				Name: finalbiome.Text("Chest"),
				Bettor: &finalbiome.Bettor{
					Outcomes: []finalbiome.BettorOutcome{{Name: finalbiome.Text("open"), Probability: 100}},
					Winnings: []finalbiome.AssetGrant{{FA: &finalbiome.FungibleGrant{ID: 3, Amount: scale.NewU128(5)}}},
					Rounds:   1,
				},
				Purchased: &finalbiome.Purchased{Offers: []finalbiome.Offer{{FA: 7, Price: scale.NewU128(10)}}},
			},
		},
		Attributes: []gamespec.Attribute{
			{Class: 4, Key: finalbiome.Text("color"), Value: finalbiome.AttributeValue{String: &red}},
			{Class: 9, Key: finalbiome.Text("tier"), Value: finalbiome.AttributeValue{Number: &finalbiome.NumberAttribute{NumberValue: 2}}},
			{Class: 4, Key: finalbiome.Text("power"), Value: finalbiome.AttributeValue{Number: &finalbiome.NumberAttribute{NumberValue: 5}}},
		},
	}
}

func TestReplay_TransactionSequence(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	sub := newMockSubmitter()
	var steps []replay.Step
	o := newOrchestrator(t, sub, managerSigner, func(s replay.Step) { steps = append(steps, s) })

	res, err := o.Run(context.Background(), snap)
	require.NoError(t, err)

	org := orgSigner.id
	must := mustCall(t)
	red := finalbiome.Text("red")
	want := []submitted{
		{must(finalbiome.CreateOrganization(finalbiome.Text("Arena"))), orgSigner.id},
		{must(finalbiome.AddMember(memberA)), orgSigner.id},
		{must(finalbiome.AddMember(memberB)), orgSigner.id},
		{must(finalbiome.AddMember(managerSigner.id)), orgSigner.id},
		// Assets and classes are created in ascending id order.
		{must(finalbiome.CreateFungibleAsset(org, finalbiome.Text("Gold"), nil, &finalbiome.CupFA{Amount: scale.NewU128(1000)}, nil)), managerSigner.id},
		{must(finalbiome.CreateFungibleAsset(org, finalbiome.Text("Energy"), &finalbiome.TopUppedFA{Speed: scale.NewU128(2)}, nil, nil)), managerSigner.id},
		{must(finalbiome.CreateNonFungibleClass(org, finalbiome.Text("Sword"))), managerSigner.id},
		{must(finalbiome.CreateAttribute(org, 200, finalbiome.Attribute{Key: finalbiome.Text("color"), Value: finalbiome.AttributeValue{String: &red}})), managerSigner.id},
		{must(finalbiome.CreateAttribute(org, 200, finalbiome.Attribute{Key: finalbiome.Text("power"), Value: finalbiome.AttributeValue{Number: &finalbiome.NumberAttribute{NumberValue: 5}}})), managerSigner.id},
		{must(finalbiome.CreateNonFungibleClass(org, finalbiome.Text("Chest"))), managerSigner.id},
		{must(finalbiome.CreateAttribute(org, 201, finalbiome.Attribute{Key: finalbiome.Text("tier"), Value: finalbiome.AttributeValue{Number: &finalbiome.NumberAttribute{NumberValue: 2}}})), managerSigner.id},
		{must(finalbiome.SetCharacteristic(org, 201, finalbiome.Characteristic{Bettor: &finalbiome.Bettor{
			Outcomes: []finalbiome.BettorOutcome{{Name: finalbiome.Text("open"), Probability: 100}},
			Winnings: []finalbiome.AssetGrant{{FA: &finalbiome.FungibleGrant{ID: 100, Amount: scale.NewU128(5)}}},
			Rounds:   1,
		}})), managerSigner.id},
		{must(finalbiome.SetCharacteristic(org, 201, finalbiome.Characteristic{Purchased: &finalbiome.Purchased{
			Offers: []finalbiome.Offer{{FA: 101, Price: scale.NewU128(10)}},
		}})), managerSigner.id},
	}
	if diff := cmp.Diff(want, sub.calls()); diff != "" {
		t.Fatalf("submitted calls mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, len(want), res.Transactions)
	require.Equal(t, len(want), o.TransactionCount(snap))
	require.Len(t, steps, len(want))
	require.Equal(t, replay.PhaseCreateOrganization, steps[0].Phase)
	require.Equal(t, replay.PhaseAddMembers, steps[1].Phase)
	require.Equal(t, replay.PhaseCreateNonFungibleClasses, steps[len(steps)-1].Phase)

	require.Equal(t, org, res.Organization)
	require.Equal(t, map[finalbiome.FungibleAssetID]finalbiome.FungibleAssetID{3: 100, 7: 101}, res.Remap.FungibleAssets)
	require.Equal(t, map[finalbiome.NonFungibleClassID]finalbiome.NonFungibleClassID{4: 200, 9: 201}, res.Remap.NonFungibleClasses)

	// The snapshot is only read.
	require.Equal(t, testSnapshot(), snap)
}

func TestReplay_ManagerMembership(t *testing.T) {
	t.Parallel()

	count := func(t *testing.T, members []ledger.AccountID, manager ledger.Signer) int {
		snap := testSnapshot()
		snap.OrganizationMembers = members
		sub := newMockSubmitter()
		_, err := newOrchestrator(t, sub, manager, nil).Run(context.Background(), snap)
		require.NoError(t, err)
		n := 0
		for _, s := range sub.calls() {
			if s.Call.Name == "add_member" {
				n++
			}
		}
		return n
	}

	t.Run("manager appended", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, 3, count(t, []ledger.AccountID{memberA, memberB}, managerSigner))
	})
	t.Run("manager already a member", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, 2, count(t, []ledger.AccountID{memberA, managerSigner.id}, managerSigner))
	})
	t.Run("manager defaults to organization signer", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, 1, count(t, nil, nil))
	})
}

func TestReplay_FirstFailureStopsRun(t *testing.T) {
	t.Parallel()

	sub := newMockSubmitter()
	dispatch := &ledger.DispatchError{Kind: "Module", Module: &ledger.ModuleError{Index: 9}}
	sub.SubmitFunc = func(n int, _ ledger.Call) (*ledger.Outcome, error) {
		if n == 2 {
			return nil, errors.Join(ledger.ErrDispatchFailed, dispatch)
		}
		return nil, nil
	}

	res, err := newOrchestrator(t, sub, managerSigner, nil).Run(context.Background(), testSnapshot())
	require.ErrorIs(t, err, errs.ErrTransaction)
	require.ErrorIs(t, err, ledger.ErrDispatchFailed)
	var de *ledger.DispatchError
	require.ErrorAs(t, err, &de)
	require.ErrorContains(t, err, "add member")

	require.Len(t, sub.calls(), 3)
	require.Equal(t, 2, res.Transactions)
	require.Empty(t, res.Remap.FungibleAssets)
}

func TestReplay_MissingCreatedEvent(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		pallet string
		after  string
	}{
		{name: "fungible asset", pallet: finalbiome.PalletFungibleAssets, after: "FungibleAssets.create"},
		{name: "class", pallet: finalbiome.PalletNonFungibleAssets, after: "NonFungibleAssets.create"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sub := newMockSubmitter()
			sub.SubmitFunc = func(_ int, call ledger.Call) (*ledger.Outcome, error) {
				if call.Pallet == tc.pallet && call.Name == "create" {
					return &ledger.Outcome{Events: []ledger.Event{{Pallet: "System", Name: "ExtrinsicSuccess"}}}, nil
				}
				return nil, nil
			}

			_, err := newOrchestrator(t, sub, managerSigner, nil).Run(context.Background(), testSnapshot())
			require.ErrorIs(t, err, errs.ErrTransaction)
			require.ErrorContains(t, err, "Created event")

			calls := sub.calls()
			require.Equal(t, tc.after, calls[len(calls)-1].Call.String())
		})
	}
}

func TestReplay_CharacteristicsAreReaddressed(t *testing.T) {
	t.Parallel()

	later := finalbiome.NonFungibleClassID(8)
	foreign := finalbiome.NonFungibleClassID(77)
	snap := &gamespec.Snapshot{
		OrganizationDetails: &finalbiome.OrganizationDetails{Name: finalbiome.Text("Arena")},
		FungibleAssets: map[finalbiome.FungibleAssetID]finalbiome.FungibleAssetDetails{
			5: {Name: finalbiome.Text("Gold")},
		},
		NonFungibleClasses: map[finalbiome.NonFungibleClassID]finalbiome.ClassDetails{
			1: {
				Name: finalbiome.Text("Loot box"),
				Bettor: &finalbiome.Bettor{
					Winnings: []finalbiome.AssetGrant{
						{NFA: &later},
						{NFA: &foreign},
						{FA: &finalbiome.FungibleGrant{ID: 5, Amount: scale.NewU128(1)}},
						{FA: &finalbiome.FungibleGrant{ID: 6, Amount: scale.NewU128(1)}},
					},
				},
				Purchased: &finalbiome.Purchased{Offers: []finalbiome.Offer{{FA: 5, Price: scale.NewU128(3)}}},
			},
			later: {Name: finalbiome.Text("Sword")},
		},
	}

	sub := newMockSubmitter()
	res, err := newOrchestrator(t, sub, nil, nil).Run(context.Background(), snap)
	require.NoError(t, err)

	var got []string
	for _, s := range sub.calls() {
		got = append(got, s.Call.String())
	}
	require.Equal(t, []string{
		"OrganizationIdentity.create_organization",
		"OrganizationIdentity.add_member",
		"FungibleAssets.create",
		"NonFungibleAssets.create",
		"NonFungibleAssets.create",
		"NonFungibleAssets.set_characteristic",
		"NonFungibleAssets.set_characteristic",
	}, got)

	newLater := finalbiome.NonFungibleClassID(201)
	must := mustCall(t)
	org := orgSigner.id
	bettor := must(finalbiome.SetCharacteristic(org, 200, finalbiome.Characteristic{Bettor: &finalbiome.Bettor{
		Winnings: []finalbiome.AssetGrant{
			{NFA: &newLater},
			{NFA: &foreign},
			{FA: &finalbiome.FungibleGrant{ID: 100, Amount: scale.NewU128(1)}},
			{FA: &finalbiome.FungibleGrant{ID: 6, Amount: scale.NewU128(1)}},
		},
	}}))
	purchased := must(finalbiome.SetCharacteristic(org, 200, finalbiome.Characteristic{Purchased: &finalbiome.Purchased{
		Offers: []finalbiome.Offer{{FA: 100, Price: scale.NewU128(3)}},
	}}))
	calls := sub.calls()
	require.Equal(t, bettor, calls[5].Call)
	require.Equal(t, purchased, calls[6].Call)

	require.Equal(t, finalbiome.NonFungibleClassID(201), res.Remap.NonFungibleClasses[later])
	require.Equal(t, later, *snap.NonFungibleClasses[1].Bettor.Winnings[0].NFA)
}

func TestReplay_Preflight(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		mutate func(*gamespec.Snapshot)
		want   string
	}{
		{
			name: "dangling attribute",
			mutate: func(s *gamespec.Snapshot) {
				s.Attributes = append(s.Attributes, gamespec.Attribute{Class: 42, Key: finalbiome.Text("x"), Value: finalbiome.AttributeValue{Number: &finalbiome.NumberAttribute{}}})
			},
			want: "class 42",
		},
		{
			name:   "empty organization name",
			mutate: func(s *gamespec.Snapshot) { s.OrganizationDetails.Name = nil },
			want:   "organization name is empty",
		},
		{
			name:   "no organization details",
			mutate: func(s *gamespec.Snapshot) { s.OrganizationDetails = nil },
			want:   "organization details not set",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			snap := testSnapshot()
			tc.mutate(snap)
			sub := newMockSubmitter()
			_, err := newOrchestrator(t, sub, managerSigner, nil).Run(context.Background(), snap)
			require.ErrorIs(t, err, errs.ErrValidation)
			require.ErrorContains(t, err, tc.want)
			require.Empty(t, sub.calls())
		})
	}
}

func TestReplay_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	sub := newMockSubmitter()
	sub.SubmitFunc = func(n int, _ ledger.Call) (*ledger.Outcome, error) {
		if n == 0 {
			cancel()
		}
		return nil, nil
	}

	res, err := newOrchestrator(t, sub, managerSigner, nil).Run(ctx, testSnapshot())
	require.ErrorIs(t, err, errs.ErrTransaction)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, sub.calls(), 1)
	require.Equal(t, 1, res.Transactions)
}

func TestReplay_ConfigValidation(t *testing.T) {
	t.Parallel()

	_, err := replay.New(replay.Config{Submitter: newMockSubmitter(), OrganizationSigner: orgSigner})
	require.ErrorIs(t, err, replay.ErrLoggerRequired)
	require.Equal(t, errs.ErrValidation, errs.Kind(err))
	_, err = replay.New(replay.Config{Logger: log, OrganizationSigner: orgSigner})
	require.ErrorIs(t, err, replay.ErrSubmitterRequired)
	_, err = replay.New(replay.Config{Logger: log, Submitter: newMockSubmitter()})
	require.ErrorIs(t, err, replay.ErrOrganizationSignerRequired)
}
