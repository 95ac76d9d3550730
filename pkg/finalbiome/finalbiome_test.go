package finalbiome_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/finalbiome/finalbiome-impex/pkg/finalbiome"
	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
	"github.com/finalbiome/finalbiome-impex/pkg/scale"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleClass() finalbiome.ClassDetails {
	str := finalbiome.Text("red")
	return finalbiome.ClassDetails{
		Owner:      ledger.AccountID{7},
		Instances:  3,
		Attributes: 2,
		Name:       finalbiome.Text("Sword"),
		Bettor: &finalbiome.Bettor{
			Outcomes: []finalbiome.BettorOutcome{
				{Name: finalbiome.Text("win"), Probability: 60, Result: finalbiome.OutcomeWin},
				{Name: finalbiome.Text("lose"), Probability: 40, Result: finalbiome.OutcomeLose},
			},
			Winnings: []finalbiome.AssetGrant{
				{FA: &finalbiome.FungibleGrant{ID: 1, Amount: scale.NewU128(500)}},
				{NFA: ptr(finalbiome.NonFungibleClassID(4))},
			},
			Rounds:      3,
			DrawOutcome: finalbiome.DrawKeep,
		},
		Purchased: &finalbiome.Purchased{
			Offers: []finalbiome.Offer{{
				FA:    2,
				Price: scale.U128{Lo: 1, Hi: 1},
				Attributes: []finalbiome.Attribute{
					{Key: finalbiome.Text("power"), Value: finalbiome.AttributeValue{Number: &finalbiome.NumberAttribute{NumberValue: 5, NumberMax: ptr(uint32(10))}}},
					{Key: finalbiome.Text("color"), Value: finalbiome.AttributeValue{String: &str}},
				},
			}},
		},
	}
}

func TestFinalbiome_SCALERoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("class details", func(t *testing.T) {
		t.Parallel()
		want := sampleClass()
		data, err := scale.Encode(want)
		require.NoError(t, err)

		var got finalbiome.ClassDetails
		require.NoError(t, scale.Decode(data, &got))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("class details mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("fungible asset details", func(t *testing.T) {
		t.Parallel()
		want := finalbiome.FungibleAssetDetails{
			Owner:    ledger.AccountID{1},
			Supply:   scale.NewU128(1000),
			Accounts: 4,
			Name:     finalbiome.Text("Gold"),
			TopUpped: &finalbiome.TopUppedFA{Speed: scale.NewU128(2)},
			CupLocal: &finalbiome.CupFA{Amount: scale.NewU128(50)},
		}
		data, err := scale.Encode(want)
		require.NoError(t, err)

		var got finalbiome.FungibleAssetDetails
		require.NoError(t, scale.Decode(data, &got))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("asset details mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("organization details name only", func(t *testing.T) {
		t.Parallel()
		e := scale.NewEncoder()
		e.WriteString("Arena")
		data, err := e.Bytes()
		require.NoError(t, err)

		var got finalbiome.OrganizationDetails
		require.NoError(t, scale.Decode(data, &got))
		require.Equal(t, "Arena", got.Name.String())
		require.Nil(t, got.OnboardingAssets)
	})

	t.Run("organization details with onboarding assets", func(t *testing.T) {
		t.Parallel()
		want := finalbiome.OrganizationDetails{
			Name:             finalbiome.Text("Arena"),
			OnboardingAssets: []finalbiome.AssetGrant{{FA: &finalbiome.FungibleGrant{ID: 3, Amount: scale.NewU128(10)}}},
		}
		data, err := scale.Encode(want)
		require.NoError(t, err)

		var got finalbiome.OrganizationDetails
		require.NoError(t, scale.Decode(data, &got))
		require.Equal(t, want, got)
	})

	t.Run("invalid draw outcome", func(t *testing.T) {
		t.Parallel()
		c := sampleClass()
		c.Bettor.DrawOutcome = 7
		data, err := scale.Encode(c)
		require.NoError(t, err)
		var got finalbiome.ClassDetails
		require.Error(t, scale.Decode(data, &got))
	})
}

func TestFinalbiome_JSON(t *testing.T) {
	t.Parallel()

	t.Run("class details", func(t *testing.T) {
		t.Parallel()
		want := sampleClass()
		data, err := json.Marshal(want)
		require.NoError(t, err)

		var got finalbiome.ClassDetails
		require.NoError(t, json.Unmarshal(data, &got))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("class details mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("text forms", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(finalbiome.Text("gold"))
		require.NoError(t, err)
		require.JSONEq(t, `"gold"`, string(data))

		data, err = json.Marshal(finalbiome.Text{0xff, 0x01})
		require.NoError(t, err)
		require.JSONEq(t, `[255, 1]`, string(data))

		var back finalbiome.Text
		require.NoError(t, json.Unmarshal(data, &back))
		require.Equal(t, finalbiome.Text{0xff, 0x01}, back)

		require.Error(t, json.Unmarshal([]byte(`[256]`), &back))
	})

	t.Run("balance as number or string", func(t *testing.T) {
		t.Parallel()
		var cup finalbiome.CupFA
		require.NoError(t, json.Unmarshal([]byte(`{"amount": 340282366920938463463374607431768211455}`), &cup))
		require.Equal(t, scale.U128{Lo: ^uint64(0), Hi: ^uint64(0)}, cup.Amount)

		require.NoError(t, json.Unmarshal([]byte(`{"amount": "42"}`), &cup))
		require.Equal(t, scale.NewU128(42), cup.Amount)

		data, err := json.Marshal(cup)
		require.NoError(t, err)
		require.JSONEq(t, `{"amount": "42"}`, string(data))
	})
}

func TestFinalbiome_StorageKeys(t *testing.T) {
	t.Parallel()

	org := ledger.AccountID{0xaa, 0xbb}
	prefix := finalbiome.MembersOfPrefix(org)
	require.Len(t, prefix, 32+16+32)
	require.True(t, bytes.HasPrefix(prefix, ledger.StoragePrefix("OrganizationIdentity", "MembersOf")))

	member := ledger.AccountID{0x01, 0x02, 0x03}
	full := append(append(ledger.StorageKey{}, prefix...), ledger.Blake2_128Concat.Hash(member[:])...)
	got, err := finalbiome.MemberFromKey(full)
	require.NoError(t, err)
	require.Equal(t, member, got)

	assetKey := append(append(ledger.StorageKey{}, finalbiome.AssetsOfPrefix(org)...), ledger.Blake2_128Concat.Hash([]byte{0x2a, 0, 0, 0})...)
	id, err := finalbiome.FungibleAssetIDFromKey(assetKey)
	require.NoError(t, err)
	require.Equal(t, finalbiome.FungibleAssetID(42), id)

	classKey := append(append(ledger.StorageKey{}, finalbiome.ClassAccountsPrefix(org)...), ledger.Blake2_128Concat.Hash([]byte{0x07, 0x01, 0, 0})...)
	class, err := finalbiome.ClassIDFromKey(classKey)
	require.NoError(t, err)
	require.Equal(t, finalbiome.NonFungibleClassID(263), class)

	attrPrefix := finalbiome.ClassAttributesPrefix(7)
	attrKey, err := finalbiome.ClassAttributeKey(7, finalbiome.Text("power"))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(attrKey, attrPrefix))
	name, err := finalbiome.AttributeKeyFromKey(attrPrefix, attrKey)
	require.NoError(t, err)
	require.Equal(t, "power", name.String())

	_, err = finalbiome.MemberFromKey(ledger.StorageKey{1, 2})
	require.Error(t, err)
}

func TestFinalbiome_Calls(t *testing.T) {
	t.Parallel()

	layout, err := finalbiome.DefaultRuntimeLayout()
	require.NoError(t, err)

	org := ledger.AccountID{0x11}
	member := ledger.AccountID{0x22}

	c, err := finalbiome.AddMember(member)
	require.NoError(t, err)
	require.Equal(t, member[:], c.Args)

	c, err = finalbiome.CreateOrganization(finalbiome.Text("Arena"))
	require.NoError(t, err)
	require.Equal(t, append([]byte{5 << 2}, "Arena"...), c.Args)

	c, err = finalbiome.CreateFungibleAsset(org, finalbiome.Text("Gold"), nil, &finalbiome.CupFA{Amount: scale.NewU128(9)}, nil)
	require.NoError(t, err)
	want := []byte{0x00}
	want = append(want, org[:]...)
	want = append(want, 4<<2, 'G', 'o', 'l', 'd')
	want = append(want, 0x00, 0x01, 9)
	want = append(want, make([]byte, 15)...)
	want = append(want, 0x00)
	require.Equal(t, want, c.Args)

	calls := []func() (ledger.Call, error){
		func() (ledger.Call, error) { return finalbiome.CreateOrganization(finalbiome.Text("x")) },
		func() (ledger.Call, error) { return finalbiome.AddMember(member) },
		func() (ledger.Call, error) { return finalbiome.CreateFungibleAsset(org, finalbiome.Text("x"), nil, nil, nil) },
		func() (ledger.Call, error) { return finalbiome.CreateNonFungibleClass(org, finalbiome.Text("x")) },
		func() (ledger.Call, error) {
			return finalbiome.CreateAttribute(org, 1, finalbiome.Attribute{Key: finalbiome.Text("k"), Value: finalbiome.AttributeValue{Number: &finalbiome.NumberAttribute{}}})
		},
		func() (ledger.Call, error) {
			return finalbiome.SetCharacteristic(org, 1, finalbiome.Characteristic{Purchased: &finalbiome.Purchased{}})
		},
	}
	for _, build := range calls {
		c, err := build()
		require.NoError(t, err)
		_, err = layout.EncodeCall(c)
		require.NoError(t, err, "call %s", c)
	}

	_, err = finalbiome.SetCharacteristic(org, 1, finalbiome.Characteristic{})
	require.Error(t, err)
}

func TestFinalbiome_CreatedEvents(t *testing.T) {
	t.Parallel()

	out := &ledger.Outcome{Events: []ledger.Event{
		{Pallet: "System", Name: "ExtrinsicSuccess"},
		{Pallet: "FungibleAssets", Name: "Created", Fields: map[string]any{"asset_id": uint32(12)}},
		{Pallet: "NonFungibleAssets", Name: "Created", Fields: map[string]any{"class_id": uint32(3)}},
	}}

	fa, ok := finalbiome.CreatedFungibleAssetID(out)
	require.True(t, ok)
	require.Equal(t, finalbiome.FungibleAssetID(12), fa)

	class, ok := finalbiome.CreatedClassID(out)
	require.True(t, ok)
	require.Equal(t, finalbiome.NonFungibleClassID(3), class)

	_, ok = finalbiome.CreatedFungibleAssetID(&ledger.Outcome{})
	require.False(t, ok)
}
