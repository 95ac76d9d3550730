package ledger

import (
	"fmt"

	"github.com/finalbiome/finalbiome-impex/pkg/scale"
)

type PhaseKind uint8

const (
	PhaseApplyExtrinsic PhaseKind = iota
	PhaseFinalization
	PhaseInitialization
)

type Phase struct {
	Kind           PhaseKind
	ExtrinsicIndex uint32
}

// Event is a decoded runtime event. Field values are typed by the layout:
// uint8, uint16, uint32, uint64, scale.U128, bool, AccountID, Hash, []byte,
// DispatchInfo, *DispatchError, nil for an empty option and []any for
// vectors of anything but bytes.
type Event struct {
	Pallet string
	Name   string
	Fields map[string]any
}

func (e Event) String() string {
	return e.Pallet + "." + e.Name
}

func (e Event) U32(field string) (uint32, bool) {
	v, ok := e.Fields[field].(uint32)
	return v, ok
}

func (e Event) Account(field string) (AccountID, bool) {
	v, ok := e.Fields[field].(AccountID)
	return v, ok
}

func (e Event) DispatchError(field string) (*DispatchError, bool) {
	v, ok := e.Fields[field].(*DispatchError)
	return v, ok && v != nil
}

type EventRecord struct {
	Phase  Phase
	Event  Event
	Topics []Hash
}

type Weight struct {
	RefTime   uint64
	ProofSize uint64
}

type DispatchInfo struct {
	Weight  Weight
	Class   uint8
	PaysFee uint8
}

// DispatchError is the reason a dispatched call failed.
type DispatchError struct {
	Kind   string
	Module *ModuleError
	// Detail is the variant of a Token, Arithmetic or Transactional error.
	Detail uint8
}

type ModuleError struct {
	Index uint8
	Error [4]byte
}

func (e *DispatchError) Error() string {
	switch {
	case e.Module != nil:
		return fmt.Sprintf("module error (pallet %d, error %d)", e.Module.Index, e.Module.Error[0])
	case e.Kind == "Token" || e.Kind == "Arithmetic" || e.Kind == "Transactional":
		return fmt.Sprintf("%s error %d", e.Kind, e.Detail)
	default:
		return e.Kind
	}
}

var dispatchErrorKinds = []string{
	"Other", "CannotLookup", "BadOrigin", "Module", "ConsumerRemaining",
	"NoProviders", "TooManyConsumers", "Token", "Arithmetic", "Transactional",
	"Exhausted", "Corruption", "Unavailable", "RootNotAllowed",
}

// DecodeEvents decodes the value of the System.Events storage item.
func (l *RuntimeLayout) DecodeEvents(data []byte) ([]EventRecord, error) {
	d := scale.NewDecoder(data)
	n, err := d.ReadLength(3)
	if err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	records := make([]EventRecord, 0, n)
	for i := 0; i < n; i++ {
		rec, err := l.decodeRecord(d)
		if err != nil {
			return nil, fmt.Errorf("decode event %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (l *RuntimeLayout) decodeRecord(d *scale.Decoder) (EventRecord, error) {
	var rec EventRecord
	kind, err := d.ReadU8()
	if err != nil {
		return rec, err
	}
	rec.Phase.Kind = PhaseKind(kind)
	switch rec.Phase.Kind {
	case PhaseApplyExtrinsic:
		if rec.Phase.ExtrinsicIndex, err = d.ReadU32(); err != nil {
			return rec, err
		}
	case PhaseFinalization, PhaseInitialization:
	default:
		return rec, fmt.Errorf("invalid phase %d", kind)
	}

	if rec.Event, err = l.decodeEvent(d); err != nil {
		return rec, err
	}

	nt, err := d.ReadLength(32)
	if err != nil {
		return rec, err
	}
	for i := 0; i < nt; i++ {
		raw, err := d.ReadFixed(32)
		if err != nil {
			return rec, err
		}
		rec.Topics = append(rec.Topics, Hash(raw))
	}
	return rec, nil
}

func (l *RuntimeLayout) decodeEvent(d *scale.Decoder) (Event, error) {
	pallet, err := d.ReadU8()
	if err != nil {
		return Event{}, err
	}
	variant, err := d.ReadU8()
	if err != nil {
		return Event{}, err
	}
	entry, ok := l.events[[2]uint8{pallet, variant}]
	if !ok {
		return Event{}, fmt.Errorf("%w: pallet %d variant %d", ErrUnknownEvent, pallet, variant)
	}
	ev := Event{
		Pallet: entry.pallet,
		Name:   entry.layout.Name,
		Fields: make(map[string]any, len(entry.layout.Fields)),
	}
	for _, f := range entry.layout.Fields {
		v, err := decodeField(d, f.Type)
		if err != nil {
			return Event{}, fmt.Errorf("%s.%s: %w", ev, f.Name, err)
		}
		ev.Fields[f.Name] = v
	}
	return ev, nil
}

func decodeField(d *scale.Decoder, typ string) (any, error) {
	if inner, ok := wrapped(typ, "option"); ok {
		some, err := d.ReadOption()
		if err != nil || !some {
			return nil, err
		}
		return decodeField(d, inner)
	}
	if inner, ok := wrapped(typ, "vec"); ok {
		if inner == "u8" {
			return d.ReadBytes()
		}
		n, err := d.ReadLength(1)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, n)
		for i := 0; i < n; i++ {
			v, err := decodeField(d, inner)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	switch typ {
	case "u8":
		return d.ReadU8()
	case "u16":
		return d.ReadU16()
	case "u32":
		return d.ReadU32()
	case "u64":
		return d.ReadU64()
	case "u128":
		var v scale.U128
		err := v.DecodeSCALE(d)
		return v, err
	case "bool":
		return d.ReadBool()
	case "compact":
		return d.ReadCompact()
	case "bytes":
		return d.ReadBytes()
	case "account":
		raw, err := d.ReadFixed(32)
		if err != nil {
			return nil, err
		}
		return AccountID(raw), nil
	case "hash":
		raw, err := d.ReadFixed(32)
		if err != nil {
			return nil, err
		}
		return Hash(raw), nil
	case "dispatch_info":
		return decodeDispatchInfo(d)
	case "dispatch_error":
		return decodeDispatchError(d)
	}
	return nil, fmt.Errorf("unsupported field type %q", typ)
}

func decodeDispatchInfo(d *scale.Decoder) (DispatchInfo, error) {
	var info DispatchInfo
	var err error
	if info.Weight.RefTime, err = d.ReadCompact(); err != nil {
		return info, err
	}
	if info.Weight.ProofSize, err = d.ReadCompact(); err != nil {
		return info, err
	}
	if info.Class, err = d.ReadU8(); err != nil {
		return info, err
	}
	if info.PaysFee, err = d.ReadU8(); err != nil {
		return info, err
	}
	return info, nil
}

func decodeDispatchError(d *scale.Decoder) (*DispatchError, error) {
	variant, err := d.ReadU8()
	if err != nil {
		return nil, err
	}
	if int(variant) >= len(dispatchErrorKinds) {
		return nil, fmt.Errorf("invalid dispatch error variant %d", variant)
	}
	de := &DispatchError{Kind: dispatchErrorKinds[variant]}
	switch de.Kind {
	case "Module":
		idx, err := d.ReadU8()
		if err != nil {
			return nil, err
		}
		raw, err := d.ReadFixed(4)
		if err != nil {
			return nil, err
		}
		de.Module = &ModuleError{Index: idx, Error: [4]byte(raw)}
	case "Token", "Arithmetic", "Transactional":
		if de.Detail, err = d.ReadU8(); err != nil {
			return nil, err
		}
	}
	return de, nil
}
