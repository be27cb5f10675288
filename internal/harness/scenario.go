package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: a sequence of construction
// steps against a fresh scene, followed by assertions on the result.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden
	// file name for RunWithGolden.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps is the construction sequence, executed in order.
	Steps []Step `yaml:"steps"`

	// Asserts validates the final scene and rig state.
	Asserts []Assertion `yaml:"asserts,omitempty"`
}

// Step is one construction action. Op selects the action; the remaining
// fields parameterize it and are ignored by ops that do not use them.
type Step struct {
	// Op is the action kind: add_module, set, update, build, publish,
	// set_attr, rotate or evaluate.
	Op string `yaml:"op"`

	// Module names the target module (add_module, set).
	Module string `yaml:"module,omitempty"`

	// Type is the module type to add (add_module).
	Type string `yaml:"type,omitempty"`

	// Parent is an optional parent joint for a new module (add_module).
	Parent string `yaml:"parent,omitempty"`

	// Field is the field name to set (set).
	Field string `yaml:"field,omitempty"`

	// Value is the field or attribute value. YAML integers become int
	// fields, floats become float fields and strings become references.
	Value any `yaml:"value,omitempty"`

	// Node names the target scene node (set_attr, rotate).
	Node string `yaml:"node,omitempty"`

	// Attr is the attribute name to write (set_attr).
	Attr string `yaml:"attr,omitempty"`

	// Axis is the world rotation axis, "x", "y" or "z" (rotate).
	Axis string `yaml:"axis,omitempty"`

	// Degrees is the rotation angle (rotate).
	Degrees float64 `yaml:"degrees,omitempty"`

	// Fails marks a step whose op is required to return an error.
	Fails bool `yaml:"fails,omitempty"`
}

// Assertion validates one aspect of the final state.
type Assertion struct {
	// Type is the assertion kind: exists, absent, parent, joints, attr
	// or problems.
	Type string `yaml:"type"`

	// Node is the target scene node (exists, absent, parent, attr).
	Node string `yaml:"node,omitempty"`

	// Parent is the expected scene parent (parent).
	Parent string `yaml:"parent,omitempty"`

	// Module is the target module (joints).
	Module string `yaml:"module,omitempty"`

	// Attr is the attribute to read (attr).
	Attr string `yaml:"attr,omitempty"`

	// Value is the expected attribute value (attr).
	Value float64 `yaml:"value,omitempty"`

	// Within is the attr comparison tolerance. Zero means 1e-4.
	Within float64 `yaml:"within,omitempty"`

	// Count is the expected number of joints or problems.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertExists   = "exists"
	AssertAbsent   = "absent"
	AssertParent   = "parent"
	AssertJoints   = "joints"
	AssertAttr     = "attr"
	AssertProblems = "problems"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos in step or assertion keys fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("harness: read scenario: %w", err)
	}

	var scenario Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("harness: parse scenario: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("harness: invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	for i, a := range s.Asserts {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assert %d: %w", i+1, err)
		}
	}
	return nil
}

func validateStep(s Step) error {
	switch s.Op {
	case "add_module":
		if s.Type == "" || s.Module == "" {
			return fmt.Errorf("add_module requires type and module")
		}
	case "set":
		if s.Module == "" || s.Field == "" {
			return fmt.Errorf("set requires module and field")
		}
	case "set_attr":
		if s.Node == "" || s.Attr == "" {
			return fmt.Errorf("set_attr requires node and attr")
		}
	case "rotate":
		if s.Node == "" || s.Axis == "" {
			return fmt.Errorf("rotate requires node and axis")
		}
	case "update", "build", "publish", "evaluate":
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertExists, AssertAbsent:
		if a.Node == "" {
			return fmt.Errorf("%s requires node", a.Type)
		}
	case AssertParent:
		if a.Node == "" || a.Parent == "" {
			return fmt.Errorf("parent requires node and parent")
		}
	case AssertJoints:
		if a.Module == "" {
			return fmt.Errorf("joints requires module")
		}
	case AssertAttr:
		if a.Node == "" || a.Attr == "" {
			return fmt.Errorf("attr requires node and attr")
		}
	case AssertProblems:
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
