package scale

import (
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

var (
	ErrShortBuffer   = errors.New("scale: not enough data")
	ErrInvalidBool   = errors.New("scale: invalid bool")
	ErrInvalidOption = errors.New("scale: invalid option tag")
	ErrCompactRange  = errors.New("scale: compact integer out of range")
)

// Decodable is implemented by types with a SCALE representation.
type Decodable interface {
	DecodeSCALE(d *Decoder) error
}

// Decode decodes data into v. Trailing bytes are ignored so that values
// written by a newer runtime with appended fields still decode.
func Decode(data []byte, v Decodable) error {
	return v.DecodeSCALE(NewDecoder(data))
}

// Decoder reads SCALE encoded values from a byte slice.
type Decoder struct {
	dec *bin.Decoder
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{dec: bin.NewBinDecoder(data)}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return d.dec.Remaining()
}

func (d *Decoder) need(n int, what string) error {
	if n < 0 || d.dec.Remaining() < n {
		return fmt.Errorf("%w for %s: need %d, have %d", ErrShortBuffer, what, n, d.dec.Remaining())
	}
	return nil
}

func (d *Decoder) ReadU8() (uint8, error) {
	if err := d.need(1, "u8"); err != nil {
		return 0, err
	}
	return d.dec.ReadByte()
}

func (d *Decoder) ReadBool() (bool, error) {
	v, err := d.ReadU8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("%w: %#x", ErrInvalidBool, v)
}

func (d *Decoder) ReadU16() (uint16, error) {
	if err := d.need(2, "u16"); err != nil {
		return 0, err
	}
	return d.dec.ReadUint16(binary.LittleEndian)
}

func (d *Decoder) ReadU32() (uint32, error) {
	if err := d.need(4, "u32"); err != nil {
		return 0, err
	}
	return d.dec.ReadUint32(binary.LittleEndian)
}

func (d *Decoder) ReadU64() (uint64, error) {
	if err := d.need(8, "u64"); err != nil {
		return 0, err
	}
	return d.dec.ReadUint64(binary.LittleEndian)
}

// ReadU128 returns the low and high words of a 128-bit unsigned integer.
func (d *Decoder) ReadU128() (lo, hi uint64, err error) {
	if err := d.need(16, "u128"); err != nil {
		return 0, 0, err
	}
	if lo, err = d.ReadU64(); err != nil {
		return 0, 0, err
	}
	if hi, err = d.ReadU64(); err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

// ReadCompact reads a compact integer that fits in 64 bits.
func (d *Decoder) ReadCompact() (uint64, error) {
	first, err := d.ReadU8()
	if err != nil {
		return 0, err
	}
	switch first & 0b11 {
	case 0b00:
		return uint64(first >> 2), nil
	case 0b01:
		second, err := d.ReadU8()
		if err != nil {
			return 0, err
		}
		return uint64(uint16(first)|uint16(second)<<8) >> 2, nil
	case 0b10:
		rest, err := d.ReadFixed(3)
		if err != nil {
			return 0, err
		}
		v := uint32(first) | uint32(rest[0])<<8 | uint32(rest[1])<<16 | uint32(rest[2])<<24
		return uint64(v >> 2), nil
	default:
		n := int(first>>2) + 4
		if n > 8 {
			return 0, fmt.Errorf("%w: %d bytes", ErrCompactRange, n)
		}
		raw, err := d.ReadFixed(n)
		if err != nil {
			return 0, err
		}
		var v uint64
		for i := n - 1; i >= 0; i-- {
			v = v<<8 | uint64(raw[i])
		}
		return v, nil
	}
}

// ReadFixed reads exactly n bytes.
func (d *Decoder) ReadFixed(n int) ([]byte, error) {
	if err := d.need(n, "fixed bytes"); err != nil {
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}
	return d.dec.ReadNBytes(n)
}

// ReadBytes reads a compact length prefixed byte vector.
func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadCompact()
	if err != nil {
		return nil, err
	}
	if n > uint64(d.Remaining()) {
		return nil, fmt.Errorf("%w for vector of length %d, have %d", ErrShortBuffer, n, d.Remaining())
	}
	return d.ReadFixed(int(n))
}

func (d *Decoder) ReadString() (string, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadOption reads an Option tag and reports whether a value follows.
func (d *Decoder) ReadOption() (bool, error) {
	v, err := d.ReadU8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("%w: %#x", ErrInvalidOption, v)
}

// ReadLength reads a compact vector length and checks it against the
// remaining input assuming every element takes at least minElemSize bytes.
func (d *Decoder) ReadLength(minElemSize int) (int, error) {
	n, err := d.ReadCompact()
	if err != nil {
		return 0, err
	}
	if minElemSize < 1 {
		minElemSize = 1
	}
	if n > uint64(d.Remaining()/minElemSize) {
		return 0, fmt.Errorf("%w for %d elements, have %d bytes", ErrShortBuffer, n, d.Remaining())
	}
	return int(n), nil
}
