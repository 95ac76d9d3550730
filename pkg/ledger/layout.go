package ledger

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownCall   = errors.New("unknown call")
	ErrUnknownEvent  = errors.New("unknown event")
	ErrInvalidLayout = errors.New("invalid runtime layout")
)

// RuntimeLayout describes the pallet, call and event indices of a runtime
// and the field layout of each event. It stands in for runtime metadata.
type RuntimeLayout struct {
	Pallets []PalletLayout `yaml:"pallets"`

	calls  map[string][2]uint8
	events map[[2]uint8]*eventEntry
}

type PalletLayout struct {
	Name   string        `yaml:"name"`
	Index  uint8         `yaml:"index"`
	Calls  []CallLayout  `yaml:"calls"`
	Events []EventLayout `yaml:"events"`
}

type CallLayout struct {
	Name  string `yaml:"name"`
	Index uint8  `yaml:"index"`
}

type EventLayout struct {
	Name   string        `yaml:"name"`
	Index  uint8         `yaml:"index"`
	Fields []FieldLayout `yaml:"fields"`
}

type FieldLayout struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type eventEntry struct {
	pallet string
	layout *EventLayout
}

var primitiveFields = map[string]bool{
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true,
	"bool": true, "account": true, "hash": true, "compact": true, "bytes": true,
	"dispatch_info": true, "dispatch_error": true,
}

// ParseRuntimeLayout parses and indexes a YAML runtime layout.
func ParseRuntimeLayout(data []byte) (*RuntimeLayout, error) {
	var l RuntimeLayout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	if err := l.index(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (l *RuntimeLayout) index() error {
	l.calls = make(map[string][2]uint8)
	l.events = make(map[[2]uint8]*eventEntry)
	pallets := make(map[uint8]string)

	for pi := range l.Pallets {
		p := &l.Pallets[pi]
		if p.Name == "" {
			return fmt.Errorf("%w: pallet %d has no name", ErrInvalidLayout, p.Index)
		}
		if other, ok := pallets[p.Index]; ok {
			return fmt.Errorf("%w: pallets %s and %s share index %d", ErrInvalidLayout, other, p.Name, p.Index)
		}
		pallets[p.Index] = p.Name

		for _, c := range p.Calls {
			key := p.Name + "." + c.Name
			if _, ok := l.calls[key]; ok {
				return fmt.Errorf("%w: duplicate call %s", ErrInvalidLayout, key)
			}
			l.calls[key] = [2]uint8{p.Index, c.Index}
		}
		for ei := range p.Events {
			ev := &p.Events[ei]
			idx := [2]uint8{p.Index, ev.Index}
			if _, ok := l.events[idx]; ok {
				return fmt.Errorf("%w: duplicate event index %d in %s", ErrInvalidLayout, ev.Index, p.Name)
			}
			for _, f := range ev.Fields {
				if err := checkFieldType(f.Type); err != nil {
					return fmt.Errorf("%w: %s.%s.%s: %w", ErrInvalidLayout, p.Name, ev.Name, f.Name, err)
				}
			}
			l.events[idx] = &eventEntry{pallet: p.Name, layout: ev}
		}
	}
	return nil
}

func checkFieldType(t string) error {
	if inner, ok := wrapped(t, "option"); ok {
		return checkFieldType(inner)
	}
	if inner, ok := wrapped(t, "vec"); ok {
		return checkFieldType(inner)
	}
	if !primitiveFields[t] {
		return fmt.Errorf("unsupported field type %q", t)
	}
	return nil
}

func wrapped(t, wrapper string) (string, bool) {
	if strings.HasPrefix(t, wrapper+"<") && strings.HasSuffix(t, ">") {
		return t[len(wrapper)+1 : len(t)-1], true
	}
	return "", false
}

// EncodeCall returns the call bytes: pallet index, call index and the
// encoded arguments.
func (l *RuntimeLayout) EncodeCall(c Call) ([]byte, error) {
	idx, ok := l.calls[c.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCall, c)
	}
	out := make([]byte, 0, 2+len(c.Args))
	out = append(out, idx[0], idx[1])
	return append(out, c.Args...), nil
}

// PalletIndex returns the index of the named pallet.
func (l *RuntimeLayout) PalletIndex(name string) (uint8, bool) {
	for _, p := range l.Pallets {
		if p.Name == name {
			return p.Index, true
		}
	}
	return 0, false
}
