package module

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/kmellet/rigkit/internal/fields"
	"github.com/kmellet/rigkit/internal/scene"
)

// Owner is the rig-side surface a module works through. Implemented by
// rig.Rig; narrow on purpose so modules can be tested against a stub.
type Owner interface {
	// Scene returns the scene-graph adapter.
	Scene() scene.Adapter

	// Logger returns the rig's logger.
	Logger() *slog.Logger

	// Modules returns all modules in declaration order, including the
	// caller. Used by cascading reconciliation.
	Modules() []Module

	// ControlsGroup, ExtrasGroup and JointsGroup are the rig's container
	// nodes for controls, measurement helpers and deform joints.
	ControlsGroup() scene.NodeRef
	ExtrasGroup() scene.NodeRef
	JointsGroup() scene.NodeRef

	// ResolveJoint resolves a stable joint name to its live scene ref.
	// The second result is false for unknown or deleted joints.
	ResolveJoint(name string) (scene.NodeRef, bool)

	// RegisterJoint records a joint as owned by the named module.
	RegisterJoint(name, moduleName string)

	// ReleaseJoint removes a joint from the registry.
	ReleaseJoint(name string)
}

// Module is the lifecycle every rig module implements.
type Module interface {
	// Name is the module's unique name within its rig.
	Name() string

	// Type is the registered module type name, e.g. "chain".
	Type() string

	// Fields is the module's declarative configuration store.
	Fields() *fields.Store

	// Initialize populates the joint list from fields. Called exactly once
	// at module creation, never on rehydration.
	Initialize() error

	// Update reconciles the owned joint list with the current field values.
	// Safe to call repeatedly; with no field change it must not mutate the
	// scene further.
	Update() error

	// UpdateParentJoint repairs the scene parenting of owned joints after
	// the parent_joint field changed.
	UpdateParentJoint() error

	// Build constructs the transient control network from the stable joint
	// list. Callers clear the previous build output first.
	Build() error

	// Publish finalizes the module. The default is a no-op.
	Publish() error

	// DeformJoints returns the owned joint names in chain order.
	DeformJoints() []string

	// DrivingJoints returns the joints that receive an artist control.
	DrivingJoints() []string

	// ParentJoint returns the parent joint name, empty when unset.
	ParentJoint() string

	// SetParentJoint rewrites the parent_joint field.
	SetParentJoint(name string) error

	// BuildNodes returns the scene nodes created by the last Build, so the
	// rig can clear them before the next one.
	BuildNodes() []scene.NodeRef

	// ResetBuildNodes forgets the recorded build output.
	ResetBuildNodes()
}

// Factory creates a module instance attached to an owner.
type Factory func(name string, owner Owner) (Module, error)

var registry = map[string]Factory{}

// Register makes a module type available by name. Call from the module
// package's init. Duplicate registrations panic.
func Register(typeName string, f Factory) {
	if _, dup := registry[typeName]; dup {
		panic(fmt.Sprintf("module: type %q registered twice", typeName))
	}
	registry[typeName] = f
}

// New instantiates a registered module type.
func New(typeName, name string, owner Owner) (Module, error) {
	f, ok := registry[typeName]
	if !ok {
		return nil, fmt.Errorf("module: unknown type %q", typeName)
	}
	return f(name, owner)
}

// Types returns the registered type names, sorted.
func Types() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
