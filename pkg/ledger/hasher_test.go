package ledger_test

import (
	"encoding/hex"
	"testing"

	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
	"github.com/stretchr/testify/require"
)

func TestLedger_StoragePrefix(t *testing.T) {
	t.Parallel()

	require.Equal(t, "26aa394eea5630e07c48ae0c9558cef7", hex.EncodeToString(ledger.Twox128([]byte("System"))))
	require.Equal(t,
		"0x26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9",
		ledger.StoragePrefix("System", "Account").Hex(),
	)
	require.Equal(t,
		"0x26aa394eea5630e07c48ae0c9558cef780d41e5e16056765bc8461851072c9d7",
		ledger.SystemEventsKey.Hex(),
	)
}

func TestLedger_Hasher(t *testing.T) {
	t.Parallel()

	key := []byte{1, 0, 0, 0}

	b2 := ledger.Blake2_128Concat.Hash(key)
	require.Len(t, b2, 16+len(key))
	require.Equal(t, ledger.Blake2_128(key), b2[:16])
	require.Equal(t, key, b2[16:])
	require.Equal(t, 16, ledger.Blake2_128Concat.Width())

	tw := ledger.Twox64Concat.Hash(key)
	require.Len(t, tw, 8+len(key))
	require.Equal(t, key, tw[8:])
	require.Equal(t, 8, ledger.Twox64Concat.Width())

	require.Equal(t, key, ledger.Identity.Hash(key))
	require.Zero(t, ledger.Identity.Width())
}
