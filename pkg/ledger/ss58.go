package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	// DefaultSS58Prefix is the generic substrate address format.
	DefaultSS58Prefix uint16 = 42

	ss58ChecksumLen = 2
	accountIDLen    = 32
)

var (
	ErrInvalidAddress = errors.New("invalid address")

	ss58Pre = []byte("SS58PRE")
)

// AccountID is a 32 byte account identifier.
type AccountID [32]byte

func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// SS58 encodes the account with the given network prefix.
func (a AccountID) SS58(prefix uint16) string {
	var payload []byte
	if prefix < 64 {
		payload = append(payload, byte(prefix))
	} else {
		payload = append(payload,
			byte((prefix&0x00fc)>>2)|0x40,
			byte(prefix>>8)|byte((prefix&0x0003)<<6),
		)
	}
	payload = append(payload, a[:]...)
	payload = append(payload, ss58Checksum(payload)...)
	return base58.Encode(payload)
}

func (a AccountID) String() string {
	return a.SS58(DefaultSS58Prefix)
}

func (a AccountID) Hex() string {
	return EncodeHex(a[:])
}

func (a AccountID) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *AccountID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAccountID(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAccountID accepts an SS58 address of any network or a 0x prefixed
// hex public key.
func ParseAccountID(s string) (AccountID, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		b, err := DecodeHex(s)
		if err != nil {
			return AccountID{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
		if len(b) != accountIDLen {
			return AccountID{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, accountIDLen, len(b))
		}
		return AccountID(b), nil
	}
	id, _, err := DecodeSS58(s)
	return id, err
}

// DecodeSS58 decodes an SS58 address and returns the account and its
// network prefix.
func DecodeSS58(address string) (AccountID, uint16, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return AccountID{}, 0, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if len(raw) == 0 {
		return AccountID{}, 0, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	var prefix uint16
	var prefixLen int
	switch {
	case raw[0] < 64:
		prefix, prefixLen = uint16(raw[0]), 1
	case raw[0] < 128:
		if len(raw) < 2 {
			return AccountID{}, 0, fmt.Errorf("%w: truncated prefix", ErrInvalidAddress)
		}
		lower := (raw[0]&0x3f)<<2 | raw[1]>>6
		upper := raw[1] & 0x3f
		prefix, prefixLen = uint16(lower)|uint16(upper)<<8, 2
	default:
		return AccountID{}, 0, fmt.Errorf("%w: reserved prefix byte %#x", ErrInvalidAddress, raw[0])
	}

	if len(raw) != prefixLen+accountIDLen+ss58ChecksumLen {
		return AccountID{}, 0, fmt.Errorf("%w: unexpected length %d", ErrInvalidAddress, len(raw))
	}
	body := raw[:prefixLen+accountIDLen]
	if !bytes.Equal(ss58Checksum(body), raw[prefixLen+accountIDLen:]) {
		return AccountID{}, 0, fmt.Errorf("%w: bad checksum", ErrInvalidAddress)
	}
	return AccountID(raw[prefixLen : prefixLen+accountIDLen]), prefix, nil
}

func ss58Checksum(payload []byte) []byte {
	h, _ := blake2b.New512(nil)
	h.Write(ss58Pre)
	h.Write(payload)
	return h.Sum(nil)[:ss58ChecksumLen]
}
