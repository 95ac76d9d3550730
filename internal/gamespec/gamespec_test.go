package gamespec_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/finalbiome/finalbiome-impex/internal/errs"
	"github.com/finalbiome/finalbiome-impex/internal/gamespec"
	"github.com/finalbiome/finalbiome-impex/pkg/finalbiome"
	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
	"github.com/finalbiome/finalbiome-impex/pkg/scale"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func fullBuilder() *gamespec.Builder {
	nfa := finalbiome.NonFungibleClassID(4)
	red := finalbiome.Text("red")
	return gamespec.NewBuilder(gamespec.ScopeFull).
		Version("4.0.0-dev-8f1a2b3").
		StateVersion(ledger.Hash{0x12, 0x34}).
		OrganizationDetails(&finalbiome.OrganizationDetails{Name: finalbiome.Text("Arena")}).
		OrganizationMembers([]ledger.AccountID{{0x01}, {0x02}}).
		FungibleAssets(map[finalbiome.FungibleAssetID]finalbiome.FungibleAssetDetails{
			3: {Owner: ledger.AccountID{0x0a}, Name: finalbiome.Text("Gold"), Supply: scale.U128{Lo: 5, Hi: 1}, CupGlobal: &finalbiome.CupFA{Amount: scale.NewU128(1000)}},
		}).
		NonFungibleClasses(map[finalbiome.NonFungibleClassID]finalbiome.ClassDetails{
			4: {Owner: ledger.AccountID{0x0a}, Name: finalbiome.Text("Sword")},
			6: {
				Owner: ledger.AccountID{0x0a},
				Name:  finalbiome.Text("Chest"),
				Bettor: &finalbiome.Bettor{
					Outcomes: []finalbiome.BettorOutcome{{Name: finalbiome.Text("open"), Probability: 100}},
					Winnings: []finalbiome.AssetGrant{{NFA: &nfa}, {FA: &finalbiome.FungibleGrant{ID: 3, Amount: scale.NewU128(7)}}},
					Rounds:   1,
				},
			},
		}).
		Attributes([]gamespec.Attribute{
			{Class: 4, Key: finalbiome.Text("color"), Value: finalbiome.AttributeValue{String: &red}},
		})
}

func TestGamespec_Builder(t *testing.T) {
	t.Parallel()

	t.Run("full", func(t *testing.T) {
		t.Parallel()
		b := fullBuilder()
		snap, err := b.Build()
		require.NoError(t, err)
		require.Equal(t, "Arena", snap.OrganizationDetails.Name.String())
		require.Len(t, snap.OrganizationMembers, 2)

		_, err = b.Build()
		require.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("missing organization details", func(t *testing.T) {
		t.Parallel()
		_, err := gamespec.NewBuilder(gamespec.ScopeOrganization).Version("1").Build()
		require.ErrorIs(t, err, errs.ErrValidation)
		require.ErrorContains(t, err, "organization details not set")
	})

	t.Run("first missing part is named", func(t *testing.T) {
		t.Parallel()
		b := gamespec.NewBuilder(gamespec.ScopeFull).
			OrganizationDetails(&finalbiome.OrganizationDetails{Name: finalbiome.Text("Arena")}).
			OrganizationMembers(nil).
			NonFungibleClasses(nil)
		_, err := b.Build()
		require.ErrorIs(t, err, errs.ErrValidation)
		require.ErrorContains(t, err, "fungible assets not set")

		// A failed build does not consume the builder.
		_, err = b.FungibleAssets(nil).Attributes(nil).Build()
		require.NoError(t, err)
	})

	t.Run("organization scope", func(t *testing.T) {
		t.Parallel()
		snap, err := gamespec.NewBuilder(gamespec.ScopeOrganization).
			OrganizationDetails(&finalbiome.OrganizationDetails{Name: finalbiome.Text("Solo")}).
			Build()
		require.NoError(t, err)
		require.Nil(t, snap.FungibleAssets)
		require.Nil(t, snap.Attributes)
	})

	t.Run("last write wins", func(t *testing.T) {
		t.Parallel()
		snap, err := gamespec.NewBuilder(gamespec.ScopeOrganization).
			Version("a").
			Version("b").
			OrganizationDetails(&finalbiome.OrganizationDetails{Name: finalbiome.Text("x")}).
			OrganizationDetails(&finalbiome.OrganizationDetails{Name: finalbiome.Text("y")}).
			Build()
		require.NoError(t, err)
		require.Equal(t, "b", snap.Version)
		require.Equal(t, "y", snap.OrganizationDetails.Name.String())
	})
}

func TestGamespec_ParseScope(t *testing.T) {
	t.Parallel()

	scope, err := gamespec.ParseScope("organization")
	require.NoError(t, err)
	require.Equal(t, gamespec.ScopeOrganization, scope)

	scope, err = gamespec.ParseScope("")
	require.NoError(t, err)
	require.Equal(t, gamespec.ScopeFull, scope)

	_, err = gamespec.ParseScope("everything")
	require.ErrorIs(t, err, gamespec.ErrInvalidScope)
}

func TestGamespec_SaveLoad(t *testing.T) {
	t.Parallel()

	want, err := fullBuilder().Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "game_spec.json")
	require.NoError(t, gamespec.Save(path, want, false))

	got, err := gamespec.Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	err = gamespec.Save(path, want, false)
	require.ErrorIs(t, err, errs.ErrIO)
	require.ErrorIs(t, err, gamespec.ErrFileExists)

	want.Version = "replaced"
	require.NoError(t, gamespec.Save(path, want, true))
	got, err = gamespec.Load(path)
	require.NoError(t, err)
	require.Equal(t, "replaced", got.Version)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestGamespec_Document(t *testing.T) {
	t.Parallel()

	snap, err := fullBuilder().Build()
	require.NoError(t, err)
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"version", "stateVersion", "organizationDetails", "organizationMembers", "fungibleAssets", "nonFungibleClasses", "attributes"} {
		require.Contains(t, doc, key)
	}
	require.JSONEq(t, `"0x1234000000000000000000000000000000000000000000000000000000000000"`, string(doc["stateVersion"]))
	require.JSONEq(t, `{"name": "Arena"}`, string(doc["organizationDetails"]))
	require.JSONEq(t, `[{"classId": 4, "key": "color", "value": {"string": "red"}}]`, string(doc["attributes"]))
}

func TestGamespec_LoadErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := gamespec.Load(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, errs.ErrIO)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"version": `), 0o644))
	_, err = gamespec.Load(bad)
	require.ErrorIs(t, err, errs.ErrValidation)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"version": "1"}`), 0o644))
	_, err = gamespec.Load(empty)
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestGamespec_AttributesOf(t *testing.T) {
	t.Parallel()

	snap, err := fullBuilder().Build()
	require.NoError(t, err)
	require.Len(t, snap.AttributesOf(4), 1)
	require.Empty(t, snap.AttributesOf(6))
	require.Equal(t, []finalbiome.FungibleAssetID{3}, snap.FungibleAssetIDs())
	require.Equal(t, []finalbiome.NonFungibleClassID{4, 6}, snap.NonFungibleClassIDs())
}

func TestGamespec_Diff(t *testing.T) {
	t.Parallel()

	a, err := fullBuilder().Build()
	require.NoError(t, err)
	b, err := fullBuilder().Version("other").StateVersion(ledger.Hash{0xff}).Build()
	require.NoError(t, err)

	diffs, err := gamespec.Diff(a, b)
	require.NoError(t, err)
	require.Empty(t, diffs)

	chest := b.NonFungibleClasses[6]
	chest.Name = finalbiome.Text("Box")
	b.NonFungibleClasses[6] = chest
	delete(b.FungibleAssets, 3)
	b.OrganizationMembers = []ledger.AccountID{{0x02}, {0x01}}

	diffs, err = gamespec.Diff(a, b)
	require.NoError(t, err)
	entities := make([]string, 0, len(diffs))
	for _, d := range diffs {
		entities = append(entities, d.Entity)
	}
	require.Equal(t, []string{"fungible-asset/3", "non-fungible-class/6"}, entities)
	require.Contains(t, diffs[0].Diff, "+null")
	require.Contains(t, diffs[1].Diff, `-  "name": "Chest"`)
	require.Contains(t, diffs[1].Diff, `+  "name": "Box"`)
	require.Contains(t, diffs[1].Diff, "--- a/non-fungible-class/6")
}
