// Package finalbiome holds the finalbiome runtime types touched by the
// game spec, their SCALE codecs and JSON forms, and the storage keys, calls
// and events used to read and recreate them.
package finalbiome

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
	"github.com/finalbiome/finalbiome-impex/pkg/scale"
)

type (
	FungibleAssetID    uint32
	NonFungibleClassID uint32
	Balance            = scale.U128
)

// Text is a bounded byte string of the runtime. It is written to JSON as a
// string when it holds valid UTF-8 and as an array of bytes otherwise.
type Text []byte

func (t Text) String() string {
	return string(t)
}

func (t Text) MarshalJSON() ([]byte, error) {
	if utf8.Valid(t) {
		return json.Marshal(string(t))
	}
	raw := make([]int, len(t))
	for i, b := range t {
		raw[i] = int(b)
	}
	return json.Marshal(raw)
}

func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("text must be a string or an array of bytes: %w", err)
	}
	out := make(Text, len(raw))
	for i, b := range raw {
		if b < 0 || b > 255 {
			return fmt.Errorf("text byte %d out of range: %d", i, b)
		}
		out[i] = byte(b)
	}
	*t = out
	return nil
}

func (t Text) EncodeSCALE(e *scale.Encoder) {
	e.WriteBytes(t)
}

func (t *Text) DecodeSCALE(d *scale.Decoder) error {
	b, err := d.ReadBytes()
	if err != nil {
		return err
	}
	*t = b
	return nil
}

// OrganizationDetails is the value of OrganizationIdentity.Organizations.
type OrganizationDetails struct {
	Name             Text         `json:"name"`
	OnboardingAssets []AssetGrant `json:"onboardingAssets,omitempty"`
}

func (o OrganizationDetails) EncodeSCALE(e *scale.Encoder) {
	e.Write(o.Name)
	e.WriteOption(o.OnboardingAssets != nil)
	if o.OnboardingAssets != nil {
		writeVec(e, o.OnboardingAssets)
	}
}

func (o *OrganizationDetails) DecodeSCALE(d *scale.Decoder) error {
	if err := o.Name.DecodeSCALE(d); err != nil {
		return fmt.Errorf("organization name: %w", err)
	}
	// Older runtimes store the name only.
	if d.Remaining() == 0 {
		return nil
	}
	some, err := d.ReadOption()
	if err != nil || !some {
		return err
	}
	o.OnboardingAssets, err = readVec[AssetGrant](d, 2)
	if err != nil {
		return fmt.Errorf("onboarding assets: %w", err)
	}
	return nil
}

// AssetGrant is an amount of a fungible asset or an instance of a
// non-fungible class, used by bettor winnings and onboarding airdrops.
type AssetGrant struct {
	FA  *FungibleGrant      `json:"fa,omitempty"`
	NFA *NonFungibleClassID `json:"nfa,omitempty"`
}

type FungibleGrant struct {
	ID     FungibleAssetID `json:"id"`
	Amount Balance         `json:"amount"`
}

func (g AssetGrant) EncodeSCALE(e *scale.Encoder) {
	switch {
	case g.FA != nil:
		e.WriteU8(0)
		e.WriteU32(uint32(g.FA.ID))
		e.Write(g.FA.Amount)
	case g.NFA != nil:
		e.WriteU8(1)
		e.WriteU32(uint32(*g.NFA))
	default:
		e.Fail(fmt.Errorf("asset grant has neither fa nor nfa"))
	}
}

func (g *AssetGrant) DecodeSCALE(d *scale.Decoder) error {
	tag, err := d.ReadU8()
	if err != nil {
		return err
	}
	switch tag {
	case 0:
		id, err := d.ReadU32()
		if err != nil {
			return err
		}
		var amount Balance
		if err := amount.DecodeSCALE(d); err != nil {
			return err
		}
		g.FA = &FungibleGrant{ID: FungibleAssetID(id), Amount: amount}
	case 1:
		id, err := d.ReadU32()
		if err != nil {
			return err
		}
		class := NonFungibleClassID(id)
		g.NFA = &class
	default:
		return fmt.Errorf("invalid asset grant variant %d", tag)
	}
	return nil
}

type TopUppedFA struct {
	Speed Balance `json:"speed"`
}

type CupFA struct {
	Amount Balance `json:"amount"`
}

// FungibleAssetDetails is the value of FungibleAssets.Assets.
type FungibleAssetDetails struct {
	Owner     ledger.AccountID `json:"owner"`
	Supply    Balance          `json:"supply"`
	Accounts  uint32           `json:"accounts"`
	Name      Text             `json:"name"`
	TopUpped  *TopUppedFA      `json:"topUpped,omitempty"`
	CupGlobal *CupFA           `json:"cupGlobal,omitempty"`
	CupLocal  *CupFA           `json:"cupLocal,omitempty"`
}

func (f FungibleAssetDetails) EncodeSCALE(e *scale.Encoder) {
	e.WriteFixed(f.Owner[:])
	e.Write(f.Supply)
	e.WriteU32(f.Accounts)
	e.Write(f.Name)
	writeFAOptions(e, f.TopUpped, f.CupGlobal, f.CupLocal)
}

func writeFAOptions(e *scale.Encoder, topUpped *TopUppedFA, cupGlobal, cupLocal *CupFA) {
	e.WriteOption(topUpped != nil)
	if topUpped != nil {
		e.Write(topUpped.Speed)
	}
	for _, cup := range []*CupFA{cupGlobal, cupLocal} {
		e.WriteOption(cup != nil)
		if cup != nil {
			e.Write(cup.Amount)
		}
	}
}

func (f *FungibleAssetDetails) DecodeSCALE(d *scale.Decoder) error {
	owner, err := d.ReadFixed(32)
	if err != nil {
		return err
	}
	f.Owner = ledger.AccountID(owner)
	if err := f.Supply.DecodeSCALE(d); err != nil {
		return err
	}
	if f.Accounts, err = d.ReadU32(); err != nil {
		return err
	}
	if err := f.Name.DecodeSCALE(d); err != nil {
		return err
	}
	if some, err := d.ReadOption(); err != nil {
		return err
	} else if some {
		f.TopUpped = &TopUppedFA{}
		if err := f.TopUpped.Speed.DecodeSCALE(d); err != nil {
			return err
		}
	}
	for _, dst := range []**CupFA{&f.CupGlobal, &f.CupLocal} {
		some, err := d.ReadOption()
		if err != nil {
			return err
		}
		if some {
			*dst = &CupFA{}
			if err := (*dst).Amount.DecodeSCALE(d); err != nil {
				return err
			}
		}
	}
	return nil
}

// ClassDetails is the value of NonFungibleAssets.Classes.
type ClassDetails struct {
	Owner      ledger.AccountID `json:"owner"`
	Instances  uint32           `json:"instances"`
	Attributes uint32           `json:"attributes"`
	Name       Text             `json:"name"`
	Bettor     *Bettor          `json:"bettor,omitempty"`
	Purchased  *Purchased       `json:"purchased,omitempty"`
}

func (c ClassDetails) EncodeSCALE(e *scale.Encoder) {
	e.WriteFixed(c.Owner[:])
	e.WriteU32(c.Instances)
	e.WriteU32(c.Attributes)
	e.Write(c.Name)
	e.WriteOption(c.Bettor != nil)
	if c.Bettor != nil {
		e.Write(c.Bettor)
	}
	e.WriteOption(c.Purchased != nil)
	if c.Purchased != nil {
		e.Write(c.Purchased)
	}
}

func (c *ClassDetails) DecodeSCALE(d *scale.Decoder) error {
	owner, err := d.ReadFixed(32)
	if err != nil {
		return err
	}
	c.Owner = ledger.AccountID(owner)
	if c.Instances, err = d.ReadU32(); err != nil {
		return err
	}
	if c.Attributes, err = d.ReadU32(); err != nil {
		return err
	}
	if err := c.Name.DecodeSCALE(d); err != nil {
		return err
	}
	if some, err := d.ReadOption(); err != nil {
		return err
	} else if some {
		c.Bettor = &Bettor{}
		if err := c.Bettor.DecodeSCALE(d); err != nil {
			return fmt.Errorf("bettor: %w", err)
		}
	}
	if some, err := d.ReadOption(); err != nil {
		return err
	} else if some {
		c.Purchased = &Purchased{}
		if err := c.Purchased.DecodeSCALE(d); err != nil {
			return fmt.Errorf("purchased: %w", err)
		}
	}
	return nil
}

type OutcomeResult uint8

const (
	OutcomeWin OutcomeResult = iota
	OutcomeLose
)

type DrawOutcomeResult uint8

const (
	DrawWin DrawOutcomeResult = iota
	DrawLose
	DrawKeep
)

type BettorOutcome struct {
	Name        Text          `json:"name"`
	Probability uint32        `json:"probability"`
	Result      OutcomeResult `json:"result"`
}

// Bettor is the wagering characteristic of a class.
type Bettor struct {
	Outcomes    []BettorOutcome   `json:"outcomes"`
	Winnings    []AssetGrant      `json:"winnings"`
	Rounds      uint32            `json:"rounds"`
	DrawOutcome DrawOutcomeResult `json:"drawOutcome"`
}

func (o BettorOutcome) EncodeSCALE(e *scale.Encoder) {
	e.Write(o.Name)
	e.WriteU32(o.Probability)
	e.WriteU8(uint8(o.Result))
}

func (o *BettorOutcome) DecodeSCALE(d *scale.Decoder) error {
	if err := o.Name.DecodeSCALE(d); err != nil {
		return err
	}
	var err error
	if o.Probability, err = d.ReadU32(); err != nil {
		return err
	}
	r, err := d.ReadU8()
	if err != nil {
		return err
	}
	if r > uint8(OutcomeLose) {
		return fmt.Errorf("invalid outcome result %d", r)
	}
	o.Result = OutcomeResult(r)
	return nil
}

func (b *Bettor) EncodeSCALE(e *scale.Encoder) {
	writeVec(e, b.Outcomes)
	writeVec(e, b.Winnings)
	e.WriteU32(b.Rounds)
	e.WriteU8(uint8(b.DrawOutcome))
}

func (b *Bettor) DecodeSCALE(d *scale.Decoder) error {
	var err error
	if b.Outcomes, err = readVec[BettorOutcome](d, 6); err != nil {
		return err
	}
	if b.Winnings, err = readVec[AssetGrant](d, 5); err != nil {
		return err
	}
	if b.Rounds, err = d.ReadU32(); err != nil {
		return err
	}
	draw, err := d.ReadU8()
	if err != nil {
		return err
	}
	if draw > uint8(DrawKeep) {
		return fmt.Errorf("invalid draw outcome %d", draw)
	}
	b.DrawOutcome = DrawOutcomeResult(draw)
	return nil
}

type Offer struct {
	FA         FungibleAssetID `json:"fa"`
	Price      Balance         `json:"price"`
	Attributes []Attribute     `json:"attributes"`
}

func (o Offer) EncodeSCALE(e *scale.Encoder) {
	e.WriteU32(uint32(o.FA))
	e.Write(o.Price)
	writeVec(e, o.Attributes)
}

func (o *Offer) DecodeSCALE(d *scale.Decoder) error {
	id, err := d.ReadU32()
	if err != nil {
		return err
	}
	o.FA = FungibleAssetID(id)
	if err := o.Price.DecodeSCALE(d); err != nil {
		return err
	}
	o.Attributes, err = readVec[Attribute](d, 2)
	return err
}

// Purchased is the purchase offer characteristic of a class.
type Purchased struct {
	Offers []Offer `json:"offers"`
}

func (p *Purchased) EncodeSCALE(e *scale.Encoder) {
	writeVec(e, p.Offers)
}

func (p *Purchased) DecodeSCALE(d *scale.Decoder) error {
	var err error
	p.Offers, err = readVec[Offer](d, 21)
	return err
}

type NumberAttribute struct {
	NumberValue uint32  `json:"numberValue"`
	NumberMax   *uint32 `json:"numberMax,omitempty"`
}

// AttributeValue is either a number with an optional maximum or a string.
type AttributeValue struct {
	Number *NumberAttribute `json:"number,omitempty"`
	String *Text            `json:"string,omitempty"`
}

func (v AttributeValue) EncodeSCALE(e *scale.Encoder) {
	switch {
	case v.Number != nil:
		e.WriteU8(0)
		e.WriteU32(v.Number.NumberValue)
		e.WriteOption(v.Number.NumberMax != nil)
		if v.Number.NumberMax != nil {
			e.WriteU32(*v.Number.NumberMax)
		}
	case v.String != nil:
		e.WriteU8(1)
		e.Write(*v.String)
	default:
		e.Fail(fmt.Errorf("attribute value has neither number nor string"))
	}
}

func (v *AttributeValue) DecodeSCALE(d *scale.Decoder) error {
	tag, err := d.ReadU8()
	if err != nil {
		return err
	}
	switch tag {
	case 0:
		n := &NumberAttribute{}
		if n.NumberValue, err = d.ReadU32(); err != nil {
			return err
		}
		some, err := d.ReadOption()
		if err != nil {
			return err
		}
		if some {
			limit, err := d.ReadU32()
			if err != nil {
				return err
			}
			n.NumberMax = &limit
		}
		v.Number = n
	case 1:
		var s Text
		if err := s.DecodeSCALE(d); err != nil {
			return err
		}
		v.String = &s
	default:
		return fmt.Errorf("invalid attribute value variant %d", tag)
	}
	return nil
}

type Attribute struct {
	Key   Text           `json:"key"`
	Value AttributeValue `json:"value"`
}

func (a Attribute) EncodeSCALE(e *scale.Encoder) {
	e.Write(a.Key)
	e.Write(a.Value)
}

func (a *Attribute) DecodeSCALE(d *scale.Decoder) error {
	if err := a.Key.DecodeSCALE(d); err != nil {
		return err
	}
	return a.Value.DecodeSCALE(d)
}

// Characteristic is the argument of set_characteristic. Exactly one of the
// fields is set.
type Characteristic struct {
	Bettor    *Bettor
	Purchased *Purchased
}

func (c Characteristic) Kind() string {
	if c.Bettor != nil {
		return "bettor"
	}
	return "purchased"
}

func (c Characteristic) EncodeSCALE(e *scale.Encoder) {
	switch {
	case c.Bettor != nil:
		e.WriteU8(0)
		e.WriteOption(true)
		e.Write(c.Bettor)
	case c.Purchased != nil:
		e.WriteU8(1)
		e.WriteOption(true)
		e.Write(c.Purchased)
	default:
		e.Fail(fmt.Errorf("characteristic has neither bettor nor purchased"))
	}
}

type decodable[T any] interface {
	*T
	scale.Decodable
}

func readVec[T any, P decodable[T]](d *scale.Decoder, minElemSize int) ([]T, error) {
	n, err := d.ReadLength(minElemSize)
	if err != nil {
		return nil, err
	}
	out := make([]T, n)
	for i := range out {
		if err := P(&out[i]).DecodeSCALE(d); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

func writeVec[T scale.Encodable](e *scale.Encoder, items []T) {
	e.WriteCompact(uint64(len(items)))
	for _, it := range items {
		e.Write(it)
	}
}

// ClassAttribute is one entry of NonFungibleAssets.ClassAttributes: an
// attribute of a class together with the class it belongs to.
type ClassAttribute struct {
	Class NonFungibleClassID `json:"classId"`
	Key   Text               `json:"key"`
	Value AttributeValue     `json:"value"`
}

// Attribute returns the key and value without the class.
func (a ClassAttribute) Attribute() Attribute {
	return Attribute{Key: a.Key, Value: a.Value}
}
