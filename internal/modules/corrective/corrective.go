// Package corrective implements the corrective module: per-joint controls
// whose translation is driven by the angular deviation between the current
// pose and the rest pose of a tracked vector.
//
// The module measures the angle through a locator pair (current-pose tip
// versus rest-pose tip, both relative to a shared base), normalizes the
// per-axis deviation into roughly [-1, 1], and selects between
// artist-authored positive and negative offsets per axis.
package corrective

import (
	"github.com/kmellet/rigkit/internal/fields"
	"github.com/kmellet/rigkit/internal/module"
	"github.com/kmellet/rigkit/internal/scene"
)

// TypeName registers the corrective module type.
const TypeName = "corrective"

// Field names specific to the corrective module.
const (
	// FieldJointCount drives the number of corrective joints. Each joint is
	// driven in its own way, but all read the same tracked vector.
	FieldJointCount = "joint_count"

	// FieldVectorBase and FieldVectorTip reference the joints defining the
	// tracked direction. An unset base falls back to the parent joint; an
	// unset tip means a unit offset along the base's local +X.
	FieldVectorBase = "vector_base"
	FieldVectorTip  = "vector_tip"

	// Derived locator references, written during Build.
	FieldVectorBaseLoc        = "vector_base_loc"
	FieldVectorTipLoc         = "vector_tip_loc"
	FieldOrigPoseVectorTipLoc = "orig_pose_vector_tip_loc"
)

// restTipOffset is the unit magnitude given to the measured vector when no
// explicit tip is referenced.
const restTipOffset = 1

var schema = module.BaseSchema().MustExtend(
	fields.Descriptor{
		Name: FieldJointCount, Kind: fields.KindInt,
		Default: fields.Int(1), HasMin: true, Min: 1,
		Displayable: true, Editable: true,
		Doc: "Number of corrective joints reading the tracked vector.",
	},
	fields.Descriptor{
		Name: FieldVectorBase, Kind: fields.KindReference,
		Displayable: true, Editable: true,
		Doc: "Base of the tracked vector. Falls back to the parent joint.",
	},
	fields.Descriptor{
		Name: FieldVectorTip, Kind: fields.KindReference,
		Displayable: true, Editable: true,
		Doc: "Tip of the tracked vector. Unset means +X of the base.",
	},
	fields.Descriptor{Name: FieldVectorBaseLoc, Kind: fields.KindReference},
	fields.Descriptor{Name: FieldVectorTipLoc, Kind: fields.KindReference},
	fields.Descriptor{Name: FieldOrigPoseVectorTipLoc, Kind: fields.KindReference},
)

func init() {
	module.Register(TypeName, New)
}

// Corrective drives per-joint positional offsets from an angle reading.
type Corrective struct {
	*module.Base

	// Build-scoped refs into the angle-reader network.
	rangeNode scene.NodeRef
	multNode  scene.NodeRef
}

// New creates an uninitialized corrective module.
func New(name string, owner module.Owner) (module.Module, error) {
	return &Corrective{Base: module.NewBase(name, TypeName, owner, schema)}, nil
}

// Initialize populates joint_count joints, all parented to the parent joint.
func (c *Corrective) Initialize() error {
	for i := 0; i < c.Fields().Int(FieldJointCount); i++ {
		if _, err := c.AddDeformJoint(""); err != nil {
			return err
		}
	}
	return nil
}

// Update reconciles the joint list against joint_count. A shrink runs in
// two phases: every dependent module whose parent joint is being deleted is
// reassigned and repaired first, and only then are the joints destroyed, so
// no dependent ever observes a dangling parent reference.
func (c *Corrective) Update() error {
	joints := c.DeformJoints()
	diff := c.Fields().Int(FieldJointCount) - len(joints)
	switch {
	case diff > 0:
		for i := 0; i < diff; i++ {
			if _, err := c.AddDeformJoint(""); err != nil {
				return err
			}
		}
	case diff < 0:
		doomed := joints[len(joints)+diff:]
		kept := joints[:len(joints)+diff]
		if err := c.reassignDependents(doomed, kept); err != nil {
			return err
		}
		return c.DeleteDeformJoints(doomed)
	}
	return nil
}

// reassignDependents is phase one of a shrink: dangling parent references
// move to the last surviving joint, or this module's own parent joint when
// nothing survives, and the dependent is reconciled immediately.
func (c *Corrective) reassignDependents(doomed, kept []string) error {
	set := make(map[string]bool, len(doomed))
	for _, name := range doomed {
		set[name] = true
	}
	newParent := c.ParentJoint()
	if len(kept) > 0 {
		newParent = kept[len(kept)-1]
	}
	for _, other := range c.Owner().Modules() {
		if other.Name() == c.Name() || !set[other.ParentJoint()] {
			continue
		}
		c.Log().Info("reassigning dependent before shrink",
			"dependent", other.Name(), "new_parent", newParent)
		if err := other.SetParentJoint(newParent); err != nil {
			return err
		}
		if err := other.Update(); err != nil {
			return err
		}
		if err := other.UpdateParentJoint(); err != nil {
			return err
		}
	}
	return nil
}

// UpdateParentJoint re-parents every owned joint, not just the first:
// corrective joints may be reparented independently of chain order.
func (c *Corrective) UpdateParentJoint() error {
	expected, err := c.ExpectedParentRef()
	if err != nil {
		return err
	}
	sc := c.Scene()
	for _, joint := range c.DeformJoints() {
		ref, err := c.JointRef(joint)
		if err != nil {
			return err
		}
		actual, err := sc.Parent(ref)
		if err != nil {
			return err
		}
		if actual != expected {
			if err := sc.Reparent(ref, expected); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveRef resolves a reference field to a live scene node: registered
// joints first, then any other scene node by name.
func (c *Corrective) resolveRef(field string) (scene.NodeRef, error) {
	name := c.Fields().Ref(field)
	if name == "" {
		return scene.None, &module.MissingReferenceError{Module: c.Name(), Field: field}
	}
	if ref, ok := c.Owner().ResolveJoint(name); ok {
		return ref, nil
	}
	ref := scene.NodeRef(name)
	if c.Scene().Exists(ref) {
		return ref, nil
	}
	return scene.None, &module.MissingReferenceError{Module: c.Name(), Field: field, Value: name}
}

// Build constructs the locators, the angle reader and the per-joint offset
// wiring. The vector base falls back to the parent joint; that is the only
// auto-recovery, a missing parent joint fails the build.
func (c *Corrective) Build() error {
	if c.Fields().Ref(FieldVectorBase) == "" {
		pj := c.ParentJoint()
		if pj == "" {
			return &module.MissingReferenceError{Module: c.Name(), Field: FieldVectorBase}
		}
		if err := c.Fields().Set(FieldVectorBase, fields.Ref(pj)); err != nil {
			return err
		}
	}
	if err := c.createLocators(); err != nil {
		return err
	}
	if err := c.buildAngleReader(); err != nil {
		return err
	}
	for _, joint := range c.DrivingJoints() {
		ctl, err := c.addControl(joint)
		if err != nil {
			return err
		}
		if err := c.wireOffsets(joint, ctl); err != nil {
			return err
		}
	}
	return nil
}
