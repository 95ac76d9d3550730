package scale

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// U128 is an unsigned 128-bit integer. It is encoded in JSON as a decimal
// string so that values above 2^53 survive JSON tooling.
type U128 struct {
	Lo, Hi uint64
}

func NewU128(v uint64) U128 {
	return U128{Lo: v}
}

func (u U128) IsZero() bool {
	return u.Lo == 0 && u.Hi == 0
}

func (u U128) Big() *big.Int {
	b := new(big.Int).SetUint64(u.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(u.Lo))
}

func (u U128) String() string {
	return u.Big().String()
}

// ParseU128 parses a base 10 representation of a 128-bit unsigned integer.
func ParseU128(s string) (U128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok || b.Sign() < 0 || b.BitLen() > 128 {
		return U128{}, fmt.Errorf("invalid u128 %q", s)
	}
	lo := new(big.Int).And(b, new(big.Int).SetUint64(^uint64(0)))
	hi := new(big.Int).Rsh(b, 64)
	return U128{Lo: lo.Uint64(), Hi: hi.Uint64()}, nil
}

func (u U128) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON accepts a decimal string or a plain JSON number.
func (u *U128) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid u128 %s", data)
		}
		s = n.String()
	}
	v, err := ParseU128(s)
	if err != nil {
		return err
	}
	*u = v
	return nil
}

func (u U128) EncodeSCALE(e *Encoder) {
	e.WriteU128(u.Lo, u.Hi)
}

func (u *U128) DecodeSCALE(d *Decoder) error {
	lo, hi, err := d.ReadU128()
	if err != nil {
		return err
	}
	u.Lo, u.Hi = lo, hi
	return nil
}
