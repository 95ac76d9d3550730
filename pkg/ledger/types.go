package ledger

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidHex = errors.New("invalid hex string")

// Hash is a 32 byte block hash. A block hash pins reads to one immutable
// view of the chain state.
type Hash [32]byte

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := HashFromHex(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HashFromHex parses a 0x prefixed 32 byte hex string.
func HashFromHex(s string) (Hash, error) {
	b, err := DecodeHex(s)
	if err != nil {
		return Hash{}, err
	}
	if len(b) != len(Hash{}) {
		return Hash{}, fmt.Errorf("%w: hash must be 32 bytes, got %d", ErrInvalidHex, len(b))
	}
	return Hash(b), nil
}

// StorageKey is a raw key of the remote key-value store.
type StorageKey []byte

func (k StorageKey) Hex() string {
	return "0x" + hex.EncodeToString(k)
}

func (k StorageKey) String() string {
	return k.Hex()
}

// DecodeHex decodes a hex string with an optional 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHex, err)
	}
	return b, nil
}

// EncodeHex encodes b as a 0x prefixed hex string.
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// BlockNumber is a block number as returned by the node, a hex encoded
// quantity in JSON.
type BlockNumber uint64

func (n *BlockNumber) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var v uint64
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("invalid block number %s", data)
		}
		*n = BlockNumber(v)
		return nil
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	if err != nil {
		return fmt.Errorf("invalid block number %q: %w", s, err)
	}
	*n = BlockNumber(v)
	return nil
}

type Header struct {
	ParentHash     Hash        `json:"parentHash"`
	Number         BlockNumber `json:"number"`
	StateRoot      Hash        `json:"stateRoot"`
	ExtrinsicsRoot Hash        `json:"extrinsicsRoot"`
}

type Block struct {
	Header     Header   `json:"header"`
	Extrinsics []string `json:"extrinsics"`
}

type SignedBlock struct {
	Block Block `json:"block"`
}

type RuntimeVersion struct {
	SpecName           string `json:"specName"`
	ImplName           string `json:"implName"`
	SpecVersion        uint32 `json:"specVersion"`
	ImplVersion        uint32 `json:"implVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
}

// Call is a runtime call addressed by pallet and call name. Args holds the
// SCALE encoded arguments; indices are resolved from the runtime layout.
type Call struct {
	Pallet string
	Name   string
	Args   []byte
}

func (c Call) String() string {
	return c.Pallet + "." + c.Name
}

// Outcome is the result of a transaction that was included in a finalized
// block and dispatched successfully.
type Outcome struct {
	TxHash         Hash
	BlockHash      Hash
	ExtrinsicIndex uint32
	Events         []Event
}

// FindEvent returns the first event emitted by the transaction with the
// given pallet and event name.
func (o *Outcome) FindEvent(pallet, name string) (Event, bool) {
	if o == nil {
		return Event{}, false
	}
	for _, ev := range o.Events {
		if ev.Pallet == pallet && ev.Name == name {
			return ev, true
		}
	}
	return Event{}, false
}
