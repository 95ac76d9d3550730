// Package scale implements the subset of the SCALE codec used by the
// finalbiome runtime: little-endian fixed width integers, compact integers,
// length-prefixed byte vectors, options and enum tags.
//
// Fixed width values are written and read through gagliardetto/binary; the
// compact length prefix is the only part that differs from Borsh.
package scale

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/bits"

	bin "github.com/gagliardetto/binary"
)

const (
	maxSingleByte = 1<<6 - 1
	maxTwoByte    = 1<<14 - 1
	maxFourByte   = 1<<30 - 1
)

// Encodable is implemented by types with a SCALE representation.
type Encodable interface {
	EncodeSCALE(e *Encoder)
}

// Encode returns the SCALE encoding of v.
func Encode(v Encodable) ([]byte, error) {
	e := NewEncoder()
	v.EncodeSCALE(e)
	return e.Bytes()
}

// Encoder accumulates a SCALE encoding. The first write error is kept and
// every later write becomes a no-op, so callers check Err or Bytes once.
type Encoder struct {
	buf bytes.Buffer
	enc *bin.Encoder
	err error
}

func NewEncoder() *Encoder {
	e := &Encoder{}
	e.enc = bin.NewBinEncoder(&e.buf)
	return e
}

func (e *Encoder) WriteU8(v uint8) {
	if e.err != nil {
		return
	}
	e.err = e.enc.WriteByte(v)
}

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.WriteU8(1)
		return
	}
	e.WriteU8(0)
}

func (e *Encoder) WriteU16(v uint16) {
	if e.err != nil {
		return
	}
	e.err = e.enc.WriteUint16(v, binary.LittleEndian)
}

func (e *Encoder) WriteU32(v uint32) {
	if e.err != nil {
		return
	}
	e.err = e.enc.WriteUint32(v, binary.LittleEndian)
}

func (e *Encoder) WriteU64(v uint64) {
	if e.err != nil {
		return
	}
	e.err = e.enc.WriteUint64(v, binary.LittleEndian)
}

// WriteU128 writes a 128-bit unsigned integer given as its low and high words.
func (e *Encoder) WriteU128(lo, hi uint64) {
	e.WriteU64(lo)
	e.WriteU64(hi)
}

// WriteCompact writes v in the SCALE compact integer form.
func (e *Encoder) WriteCompact(v uint64) {
	switch {
	case v <= maxSingleByte:
		e.WriteU8(uint8(v << 2))
	case v <= maxTwoByte:
		e.WriteU16(uint16(v<<2) | 0b01)
	case v <= maxFourByte:
		e.WriteU32(uint32(v<<2) | 0b10)
	default:
		n := (bits.Len64(v) + 7) / 8
		e.WriteU8(uint8((n-4)<<2) | 0b11)
		for i := 0; i < n; i++ {
			e.WriteU8(uint8(v >> (8 * i)))
		}
	}
}

// WriteFixed writes b as is, without a length prefix.
func (e *Encoder) WriteFixed(b []byte) {
	if e.err != nil {
		return
	}
	e.err = e.enc.WriteBytes(b, false)
}

// WriteBytes writes a compact length prefix followed by b.
func (e *Encoder) WriteBytes(b []byte) {
	e.WriteCompact(uint64(len(b)))
	e.WriteFixed(b)
}

func (e *Encoder) WriteString(s string) {
	e.WriteBytes([]byte(s))
}

// WriteOption writes the Option tag; the caller writes the value when present.
func (e *Encoder) WriteOption(present bool) {
	e.WriteBool(present)
}

// Write appends the encoding of v.
func (e *Encoder) Write(v Encodable) {
	if e.err != nil {
		return
	}
	v.EncodeSCALE(e)
}

// Fail records err unless an earlier error is already recorded.
func (e *Encoder) Fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) Bytes() ([]byte, error) {
	if e.err != nil {
		return nil, fmt.Errorf("scale: encode: %w", e.err)
	}
	return bytes.Clone(e.buf.Bytes()), nil
}
