package module

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/kmellet/rigkit/internal/fields"
	"github.com/kmellet/rigkit/internal/scene"
)

// Field names shared by every module type.
const (
	// FieldParentJoint is the weak reference to the joint this module hangs
	// off, usually owned by another module. Empty means the rig root.
	FieldParentJoint = "parent_joint"

	// FieldDeformJoints is the ordered list of joints this module owns.
	FieldDeformJoints = "deform_joints"

	// FieldJointSeq is the monotonically increasing counter behind joint
	// naming, persisted so names never collide across grow/shrink cycles.
	FieldJointSeq = "joint_seq"
)

var baseSchema = fields.MustSchema(
	fields.Descriptor{
		Name: FieldParentJoint, Kind: fields.KindReference,
		Displayable: true, Editable: true,
		Doc: "Joint this module is parented under.",
	},
	fields.Descriptor{Name: FieldDeformJoints, Kind: fields.KindReferenceList},
	fields.Descriptor{Name: FieldJointSeq, Kind: fields.KindInt},
)

// BaseSchema returns the schema shared by all module types. Concrete types
// extend it with their own descriptors.
func BaseSchema() *fields.Schema { return baseSchema }

// Base carries the state and joint-list primitives common to all module
// types. Concrete modules embed *Base and override the lifecycle methods
// they specialize.
type Base struct {
	name  string
	typ   string
	owner Owner
	store *fields.Store

	buildNodes []scene.NodeRef
}

// NewBase creates the shared core of a module instance.
func NewBase(name, typ string, owner Owner, schema *fields.Schema) *Base {
	return &Base{
		name:  name,
		typ:   typ,
		owner: owner,
		store: fields.NewStore(schema),
	}
}

// Name implements Module.
func (b *Base) Name() string { return b.name }

// Type implements Module.
func (b *Base) Type() string { return b.typ }

// Fields implements Module.
func (b *Base) Fields() *fields.Store { return b.store }

// Owner returns the owning rig surface.
func (b *Base) Owner() Owner { return b.owner }

// Scene returns the owner's scene adapter.
func (b *Base) Scene() scene.Adapter { return b.owner.Scene() }

// Log returns the owner's logger with the module name attached.
func (b *Base) Log() *slog.Logger {
	return b.owner.Logger().With("module", b.name)
}

// Initialize implements Module; the base has nothing to populate.
func (b *Base) Initialize() error { return nil }

// Update implements Module as a no-op; subclasses reconcile their joints.
func (b *Base) Update() error { return nil }

// Build implements Module as a no-op.
func (b *Base) Build() error { return nil }

// Publish implements Module as a no-op.
func (b *Base) Publish() error { return nil }

// DeformJoints implements Module.
func (b *Base) DeformJoints() []string {
	return b.store.Refs(FieldDeformJoints)
}

// DrivingJoints implements Module: by default every deform joint receives a
// control.
func (b *Base) DrivingJoints() []string { return b.DeformJoints() }

// ParentJoint implements Module.
func (b *Base) ParentJoint() string { return b.store.Ref(FieldParentJoint) }

// SetParentJoint implements Module.
func (b *Base) SetParentJoint(name string) error {
	return b.store.Set(FieldParentJoint, fields.Ref(name))
}

// BuildNodes implements Module.
func (b *Base) BuildNodes() []scene.NodeRef { return slices.Clone(b.buildNodes) }

// ResetBuildNodes implements Module.
func (b *Base) ResetBuildNodes() { b.buildNodes = nil }

// RecordBuildNodes remembers transient nodes created during Build so the rig
// can clear them before the next build.
func (b *Base) RecordBuildNodes(refs ...scene.NodeRef) {
	b.buildNodes = append(b.buildNodes, refs...)
}

// JointRef resolves an owned or referenced joint name to its scene ref.
func (b *Base) JointRef(name string) (scene.NodeRef, error) {
	ref, ok := b.owner.ResolveJoint(name)
	if !ok {
		return scene.None, &StructuralInconsistencyError{
			Module:    b.name,
			Reference: name,
			Reason:    "joint does not resolve",
		}
	}
	return ref, nil
}

// ExpectedParentRef returns the scene node the module's first joint should
// be parented under: the resolved parent joint, or the rig's joints group
// when no parent joint is declared.
func (b *Base) ExpectedParentRef() (scene.NodeRef, error) {
	pj := b.ParentJoint()
	if pj == "" {
		return b.owner.JointsGroup(), nil
	}
	ref, ok := b.owner.ResolveJoint(pj)
	if !ok {
		return scene.None, &StructuralInconsistencyError{
			Module:    b.name,
			Reference: pj,
			Reason:    "declared parent joint no longer exists",
		}
	}
	return ref, nil
}

// AddDeformJoint creates one new deform joint, parents it under parent (or
// the module's parent joint when parent is empty), appends it to the owned
// list and returns its stable name. Every joint-count increase funnels
// through here.
func (b *Base) AddDeformJoint(parent string) (string, error) {
	sc := b.owner.Scene()

	var parentRef scene.NodeRef
	if parent == "" {
		parent = b.ParentJoint()
	}
	if parent == "" {
		parentRef = b.owner.JointsGroup()
	} else {
		ref, err := b.JointRef(parent)
		if err != nil {
			return "", err
		}
		parentRef = ref
	}

	seq := b.store.Int(FieldJointSeq)
	ref, err := sc.CreateNode(scene.NodeJoint, fmt.Sprintf("%s_deform_%03d", b.name, seq))
	if err != nil {
		return "", err
	}
	if err := b.store.Set(FieldJointSeq, fields.Int(seq+1)); err != nil {
		return "", err
	}
	if err := sc.Reparent(ref, parentRef); err != nil {
		return "", err
	}
	if err := scene.ResetLocal(sc, ref); err != nil {
		return "", err
	}

	name := string(ref)
	joints := append(b.DeformJoints(), name)
	if err := b.store.Set(FieldDeformJoints, fields.RefList(joints)); err != nil {
		return "", err
	}
	b.owner.RegisterJoint(name, b.name)
	return name, nil
}

// DeleteDeformJoints removes the named joints from the scene, the registry
// and the owned list. Callers are responsible for repairing dependents
// first; this method only destroys.
func (b *Base) DeleteDeformJoints(names []string) error {
	if len(names) == 0 {
		return nil
	}
	sc := b.owner.Scene()
	refs := make([]scene.NodeRef, 0, len(names))
	for _, name := range names {
		ref, err := b.JointRef(name)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}
	if err := sc.DeleteNodes(refs); err != nil {
		return err
	}
	doomed := make(map[string]bool, len(names))
	for _, name := range names {
		b.owner.ReleaseJoint(name)
		doomed[name] = true
	}
	kept := slices.DeleteFunc(b.DeformJoints(), func(n string) bool { return doomed[n] })
	return b.store.Set(FieldDeformJoints, fields.RefList(kept))
}

// UpdateParentJoint implements Module: re-parents the module's first owned
// joint under the declared parent joint when the scene disagrees.
// Subclasses extend this when they allow reparenting beyond the first joint.
func (b *Base) UpdateParentJoint() error {
	joints := b.DeformJoints()
	if len(joints) == 0 {
		return nil
	}
	expected, err := b.ExpectedParentRef()
	if err != nil {
		return err
	}
	first, err := b.JointRef(joints[0])
	if err != nil {
		return err
	}
	sc := b.owner.Scene()
	actual, err := sc.Parent(first)
	if err != nil {
		return err
	}
	if actual != expected {
		return sc.Reparent(first, expected)
	}
	return nil
}
