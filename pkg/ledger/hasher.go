package ledger

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// Hasher is a storage map key hasher.
type Hasher uint8

const (
	Blake2_128Concat Hasher = iota
	Twox64Concat
	Identity
)

// Hash returns the hashed form of an encoded map key.
func (h Hasher) Hash(key []byte) []byte {
	switch h {
	case Blake2_128Concat:
		return append(Blake2_128(key), key...)
	case Twox64Concat:
		return append(twox(key, 1), key...)
	default:
		return append([]byte{}, key...)
	}
}

// Width is the number of hash bytes the hasher puts in front of the key.
func (h Hasher) Width() int {
	switch h {
	case Blake2_128Concat:
		return 16
	case Twox64Concat:
		return 8
	default:
		return 0
	}
}

// Twox128 is the hash used for pallet and storage item prefixes.
func Twox128(data []byte) []byte {
	return twox(data, 2)
}

func twox(data []byte, words int) []byte {
	out := make([]byte, 0, 8*words)
	for seed := 0; seed < words; seed++ {
		d := xxhash.NewWithSeed(uint64(seed))
		_, _ = d.Write(data)
		out = binary.LittleEndian.AppendUint64(out, d.Sum64())
	}
	return out
}

func Blake2_128(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write(data)
	return h.Sum(nil)
}

func Blake2_256(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

// StoragePrefix returns the key prefix of a storage item.
func StoragePrefix(pallet, item string) StorageKey {
	key := make([]byte, 0, 32)
	key = append(key, Twox128([]byte(pallet))...)
	key = append(key, Twox128([]byte(item))...)
	return key
}

// SystemEventsKey is the storage key of the events of the current block.
var SystemEventsKey = StoragePrefix("System", "Events")
