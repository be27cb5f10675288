package fields

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Store holds the field values for one module instance.
//
// Reads fall back to the descriptor default when a field was never set.
// Writes validate kind and bounds before storing; a rejected write leaves
// the store untouched. The store tracks which fields changed since the last
// persistence flush.
type Store struct {
	schema *Schema
	values map[string]Value
	dirty  map[string]bool
}

// NewStore creates an empty value store for the given schema.
func NewStore(schema *Schema) *Store {
	return &Store{
		schema: schema,
		values: make(map[string]Value),
		dirty:  make(map[string]bool),
	}
}

// Schema returns the schema this store was created for.
func (s *Store) Schema() *Schema { return s.schema }

// Get returns the current value of name, or the declared default if the
// field was never set. Unknown names return nil.
func (s *Store) Get(name string) Value {
	if v, ok := s.values[name]; ok {
		return v
	}
	d, ok := s.schema.Descriptor(name)
	if !ok {
		return nil
	}
	return d.defaultValue()
}

// Int returns the field as an int. The field must be declared KindInt.
func (s *Store) Int(name string) int {
	v, _ := s.Get(name).(Int)
	return int(v)
}

// Float returns the field as a float64. The field must be declared KindFloat.
func (s *Store) Float(name string) float64 {
	v, _ := s.Get(name).(Float)
	return float64(v)
}

// Ref returns the field as a node reference. Empty means unset.
func (s *Store) Ref(name string) string {
	v, _ := s.Get(name).(Ref)
	return string(v)
}

// Refs returns a copy of the field's reference list.
func (s *Store) Refs(name string) []string {
	v, _ := s.Get(name).(RefList)
	return slices.Clone([]string(v))
}

// Set validates and stores a new value for name.
//
// A *ValidationError is returned when the field is unknown, the value's kind
// does not match the declaration, or a numeric bound is violated. On error
// the stored value is unchanged.
func (s *Store) Set(name string, v Value) error {
	d, ok := s.schema.Descriptor(name)
	if !ok {
		return &ValidationError{Field: name, Reason: "unknown field"}
	}
	if v == nil {
		return &ValidationError{Field: name, Reason: "nil value"}
	}
	if v.Kind() != d.Kind {
		return &ValidationError{
			Field:  name,
			Reason: fmt.Sprintf("kind mismatch: got %s, want %s", v.Kind(), d.Kind),
		}
	}
	if d.HasMin {
		var n float64
		switch val := v.(type) {
		case Int:
			n = float64(val)
		case Float:
			n = float64(val)
		}
		if n < d.Min {
			return &ValidationError{
				Field:  name,
				Reason: fmt.Sprintf("value %v below minimum %v", n, d.Min),
			}
		}
	}
	if v.Kind() == KindReferenceList {
		// Defensive copy so callers cannot mutate stored state.
		v = RefList(slices.Clone([]string(v.(RefList))))
	}
	s.values[name] = v
	s.dirty[name] = true
	return nil
}

// Dirty reports whether name changed since the last ClearDirty.
func (s *Store) Dirty(name string) bool { return s.dirty[name] }

// ClearDirty marks all fields clean, typically after a persistence flush.
func (s *Store) ClearDirty() {
	for k := range s.dirty {
		delete(s.dirty, k)
	}
}

// encodedValue is the persisted form of one field value.
type encodedValue struct {
	Kind  Kind            `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// Encode serializes the explicitly-set values as canonical JSON. Fields left
// at their default are omitted, so a round-trip preserves "never set".
func (s *Store) Encode() ([]byte, error) {
	out := make(map[string]encodedValue, len(s.values))
	for name, v := range s.values {
		raw, err := json.Marshal(valuePayload(v))
		if err != nil {
			return nil, fmt.Errorf("fields: encode %q: %w", name, err)
		}
		out[name] = encodedValue{Kind: v.Kind(), Value: raw}
	}
	return json.Marshal(out)
}

// Decode populates the store from data produced by Encode. Decoded values go
// through Set, so persisted data that no longer satisfies the schema is
// rejected rather than silently loaded. Decoded fields are not marked dirty.
func (s *Store) Decode(data []byte) error {
	var in map[string]encodedValue
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("fields: decode: %w", err)
	}
	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		ev := in[name]
		v, err := decodeValue(ev)
		if err != nil {
			return fmt.Errorf("fields: decode %q: %w", name, err)
		}
		if err := s.Set(name, v); err != nil {
			return err
		}
	}
	s.ClearDirty()
	return nil
}

func valuePayload(v Value) any {
	switch val := v.(type) {
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Ref:
		return string(val)
	case RefList:
		return []string(val)
	}
	return nil
}

func decodeValue(ev encodedValue) (Value, error) {
	switch ev.Kind {
	case KindInt:
		var n int64
		if err := json.Unmarshal(ev.Value, &n); err != nil {
			return nil, err
		}
		return Int(n), nil
	case KindFloat:
		var f float64
		if err := json.Unmarshal(ev.Value, &f); err != nil {
			return nil, err
		}
		return Float(f), nil
	case KindReference:
		var r string
		if err := json.Unmarshal(ev.Value, &r); err != nil {
			return nil, err
		}
		return Ref(r), nil
	case KindReferenceList:
		var l []string
		if err := json.Unmarshal(ev.Value, &l); err != nil {
			return nil, err
		}
		return RefList(l), nil
	}
	return nil, fmt.Errorf("unknown kind %q", ev.Kind)
}
