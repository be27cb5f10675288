package fields

import "fmt"

// Kind identifies the semantic type of a field.
type Kind string

const (
	// KindInt is a whole-number field, e.g. a joint count.
	KindInt Kind = "int"

	// KindFloat is a scalar field.
	KindFloat Kind = "float"

	// KindReference is a weak reference to a scene node, stored by stable
	// node name. An empty string means "unset".
	KindReference Kind = "reference"

	// KindReferenceList is an ordered sequence of node references.
	KindReferenceList Kind = "reference-list"
)

// Value is a sealed interface over the types a field can hold.
// Only Int, Float, Ref and RefList implement it.
type Value interface {
	fieldValue()
	Kind() Kind
}

// Int holds a whole-number field value.
type Int int64

func (Int) fieldValue() {}

// Kind returns KindInt.
func (Int) Kind() Kind { return KindInt }

// Float holds a scalar field value.
type Float float64

func (Float) fieldValue() {}

// Kind returns KindFloat.
func (Float) Kind() Kind { return KindFloat }

// Ref holds a node reference by name. Empty means unset.
type Ref string

func (Ref) fieldValue() {}

// Kind returns KindReference.
func (Ref) Kind() Kind { return KindReference }

// RefList holds an ordered sequence of node references.
type RefList []string

func (RefList) fieldValue() {}

// Kind returns KindReferenceList.
func (RefList) Kind() Kind { return KindReferenceList }

// Descriptor declares one field of a module type's schema.
type Descriptor struct {
	// Name uniquely identifies the field within its schema.
	Name string

	// Kind is the field's semantic type.
	Kind Kind

	// Default is returned by Store.Get when the field was never set.
	// Must match Kind; nil defaults to the zero value of the kind.
	Default Value

	// HasMin enables the numeric lower bound check on Set.
	HasMin bool

	// Min is the inclusive lower bound, meaningful only when HasMin is set.
	Min float64

	// Displayable and Editable are presentation hints for an editing GUI.
	// They do not affect validation.
	Displayable bool
	Editable    bool

	// Doc is a short description shown to the artist.
	Doc string
}

func (d Descriptor) defaultValue() Value {
	if d.Default != nil {
		return d.Default
	}
	switch d.Kind {
	case KindInt:
		return Int(0)
	case KindFloat:
		return Float(0)
	case KindReference:
		return Ref("")
	case KindReferenceList:
		return RefList(nil)
	}
	return nil
}

// Schema is the ordered set of field descriptors for one module type.
// Schemas are immutable after construction and shared by all instances.
type Schema struct {
	descriptors []Descriptor
	index       map[string]int
}

// NewSchema builds a schema from descriptors, validating that names are
// unique and defaults match their declared kinds.
func NewSchema(descriptors ...Descriptor) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(descriptors))}
	for _, d := range descriptors {
		if d.Name == "" {
			return nil, fmt.Errorf("fields: descriptor with empty name")
		}
		if _, dup := s.index[d.Name]; dup {
			return nil, fmt.Errorf("fields: duplicate field %q", d.Name)
		}
		switch d.Kind {
		case KindInt, KindFloat, KindReference, KindReferenceList:
		default:
			return nil, fmt.Errorf("fields: field %q has unknown kind %q", d.Name, d.Kind)
		}
		if d.Default != nil && d.Default.Kind() != d.Kind {
			return nil, fmt.Errorf("fields: field %q default is %s, want %s",
				d.Name, d.Default.Kind(), d.Kind)
		}
		s.index[d.Name] = len(s.descriptors)
		s.descriptors = append(s.descriptors, d)
	}
	return s, nil
}

// MustSchema is NewSchema that panics on error. Module type schemas are
// package-level constants in spirit, so a bad one is a programming error.
func MustSchema(descriptors ...Descriptor) *Schema {
	s, err := NewSchema(descriptors...)
	if err != nil {
		panic(err)
	}
	return s
}

// Extend returns a new schema containing this schema's descriptors followed
// by the given ones. Used by module types to extend the base module schema.
func (s *Schema) Extend(descriptors ...Descriptor) (*Schema, error) {
	all := make([]Descriptor, 0, len(s.descriptors)+len(descriptors))
	all = append(all, s.descriptors...)
	all = append(all, descriptors...)
	return NewSchema(all...)
}

// MustExtend is Extend that panics on error.
func (s *Schema) MustExtend(descriptors ...Descriptor) *Schema {
	out, err := s.Extend(descriptors...)
	if err != nil {
		panic(err)
	}
	return out
}

// Descriptor returns the descriptor for name.
func (s *Schema) Descriptor(name string) (Descriptor, bool) {
	i, ok := s.index[name]
	if !ok {
		return Descriptor{}, false
	}
	return s.descriptors[i], true
}

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.descriptors))
	for i, d := range s.descriptors {
		names[i] = d.Name
	}
	return names
}
