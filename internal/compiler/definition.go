package compiler

import "github.com/kmellet/rigkit/internal/fields"

// RigDefinition is the compiled form of a .cue rig file: the rig's name and
// its modules in declaration order. Declaration order is meaningful, it
// breaks build-order ties between independent modules.
type RigDefinition struct {
	Name    string
	Modules []ModuleDefinition
}

// ModuleDefinition declares one module instance.
type ModuleDefinition struct {
	// Name is the module's unique name within the rig.
	Name string

	// Type is a registered module type, e.g. "chain" or "corrective".
	Type string

	// Parent is the parent joint reference, empty for the rig root. It is a
	// shorthand for the parent_joint field.
	Parent string

	// Fields holds the declared field values keyed by field name.
	Fields map[string]fields.Value
}
