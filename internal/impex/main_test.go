package impex_test

import (
	"bytes"
	"context"
	"flag"
	"log/slog"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/finalbiome/finalbiome-impex/pkg/finalbiome"
	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
	"github.com/finalbiome/finalbiome-impex/pkg/scale"
	"github.com/lmittmann/tint"
	"github.com/stretchr/testify/require"
)

var (
	log *slog.Logger
)

// TestMain sets up the test environment with a global logger.
func TestMain(m *testing.M) {
	flag.Parse()
	verbose := false
	if vFlag := flag.Lookup("test.v"); vFlag != nil && vFlag.Value.String() == "true" {
		verbose = true
	}
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	log = slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.RFC3339,
		AddSource:  true,
	}))

	os.Exit(m.Run())
}

// mockNode serves storage from memory at a single block.
type mockNode struct {
	mu      sync.Mutex
	head    ledger.Hash
	entries map[string][]byte
	keys    []ledger.StorageKey
	reads   int

	BlockHashFunc     func(ctx context.Context) (ledger.Hash, error)
	SystemVersionFunc func(ctx context.Context) (string, error)
	GetKeysPagedFunc  func(ctx context.Context, prefix []byte) ([]ledger.StorageKey, error)
	GetStorageFunc    func(ctx context.Context, key ledger.StorageKey) ([]byte, error)
}

func newMockNode() *mockNode {
	return &mockNode{head: ledger.Hash{0xab, 0xcd}, entries: map[string][]byte{}}
}

func (n *mockNode) put(t *testing.T, key ledger.StorageKey, v scale.Encodable) {
	t.Helper()
	data := []byte{}
	if v != nil {
		var err error
		data, err = scale.Encode(v)
		require.NoError(t, err)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.entries[string(key)]; !ok {
		n.keys = append(n.keys, key)
		sort.Slice(n.keys, func(i, j int) bool { return bytes.Compare(n.keys[i], n.keys[j]) < 0 })
	}
	n.entries[string(key)] = data
}

func (n *mockNode) BlockHash(ctx context.Context) (ledger.Hash, error) {
	if n.BlockHashFunc != nil {
		return n.BlockHashFunc(ctx)
	}
	return n.head, nil
}

func (n *mockNode) SystemVersion(ctx context.Context) (string, error) {
	if n.SystemVersionFunc != nil {
		return n.SystemVersionFunc(ctx)
	}
	return "4.0.0-dev-test", nil
}

func (n *mockNode) GetKeysPaged(ctx context.Context, prefix []byte, count uint32, startKey ledger.StorageKey, at ledger.Hash) ([]ledger.StorageKey, error) {
	if n.GetKeysPagedFunc != nil {
		return n.GetKeysPagedFunc(ctx, prefix)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reads++
	if at != n.head {
		return nil, nil
	}
	var out []ledger.StorageKey
	for _, k := range n.keys {
		if !bytes.HasPrefix(k, prefix) || bytes.Compare(k, startKey) <= 0 {
			continue
		}
		out = append(out, k)
		if uint32(len(out)) == count {
			break
		}
	}
	return out, nil
}

func (n *mockNode) GetStorage(ctx context.Context, key ledger.StorageKey, at ledger.Hash) ([]byte, error) {
	if n.GetStorageFunc != nil {
		return n.GetStorageFunc(ctx, key)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reads++
	if at != n.head {
		return nil, nil
	}
	data, ok := n.entries[string(key)]
	if !ok {
		return nil, nil
	}
	return data, nil
}

func (n *mockNode) readCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.reads
}

var testOrg = ledger.AccountID{0x0a}

// seed stores an organization with members, assets, classes and
// attributes.
func seed(t *testing.T, n *mockNode) {
	t.Helper()
	u32 := func(v uint32) []byte { return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)} }
	hash := ledger.Blake2_128Concat.Hash

	n.put(t, finalbiome.OrganizationKey(testOrg), finalbiome.OrganizationDetails{Name: finalbiome.Text("Arena")})
	for _, m := range []ledger.AccountID{{0x01}, {0x02}} {
		n.put(t, append(finalbiome.MembersOfPrefix(testOrg), hash(m[:])...), nil)
	}
	for id, name := range map[finalbiome.FungibleAssetID]string{1: "Gold", 2: "Energy"} {
		n.put(t, append(finalbiome.AssetsOfPrefix(testOrg), hash(u32(uint32(id)))...), nil)
		n.put(t, finalbiome.AssetKey(id), finalbiome.FungibleAssetDetails{Owner: testOrg, Name: finalbiome.Text(name)})
	}
	winning := finalbiome.NonFungibleClassID(4)
	classes := map[finalbiome.NonFungibleClassID]finalbiome.ClassDetails{
		3: {Owner: testOrg, Name: finalbiome.Text("Chest"), Bettor: &finalbiome.Bettor{
			Outcomes: []finalbiome.BettorOutcome{{Name: finalbiome.Text("open"), Probability: 100}},
			Winnings: []finalbiome.AssetGrant{{NFA: &winning}},
			Rounds:   1,
		}},
		4: {Owner: testOrg, Name: finalbiome.Text("Sword"), Purchased: &finalbiome.Purchased{Offers: []finalbiome.Offer{{FA: 1, Price: scale.NewU128(5)}}}},
	}
	for id, details := range classes {
		n.put(t, append(finalbiome.ClassAccountsPrefix(testOrg), hash(u32(uint32(id)))...), nil)
		n.put(t, finalbiome.ClassKey(id), details)
	}
	key, err := finalbiome.ClassAttributeKey(4, finalbiome.Text("power"))
	require.NoError(t, err)
	n.put(t, key, finalbiome.AttributeValue{Number: &finalbiome.NumberAttribute{NumberValue: 9}})
}

type testSigner struct {
	id ledger.AccountID
}

func (s *testSigner) AccountID() ledger.AccountID { return s.id }

func (s *testSigner) Sign([]byte) ([64]byte, error) { return [64]byte{}, nil }

// mockSubmitter accepts every call and reports sequential created ids.
type mockSubmitter struct {
	mu     sync.Mutex
	calls  []ledger.Call
	nextID uint32
}

func (m *mockSubmitter) Submit(_ context.Context, call ledger.Call, _ ledger.Signer) (*ledger.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	out := &ledger.Outcome{}
	if call.Name == "create" {
		field := "asset_id"
		if call.Pallet == finalbiome.PalletNonFungibleAssets {
			field = "class_id"
		}
		out.Events = append(out.Events, ledger.Event{Pallet: call.Pallet, Name: "Created", Fields: map[string]any{field: m.nextID}})
		m.nextID++
	}
	return out, nil
}
