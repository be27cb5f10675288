// Package chain implements the simplest module type: a linear joint chain
// with one control per joint, chained parent to child.
package chain

import (
	"github.com/kmellet/rigkit/internal/fields"
	"github.com/kmellet/rigkit/internal/module"
	"github.com/kmellet/rigkit/internal/scene"
)

// TypeName registers the chain module type.
const TypeName = "chain"

// FieldChainLength drives the number of joints in the chain.
const FieldChainLength = "chain_length"

// defaultJointOffset is the local X translation given to newly grown joints
// so they are visibly distinct from their parent before the artist
// repositions them.
const defaultJointOffset = 5

var schema = module.BaseSchema().MustExtend(
	fields.Descriptor{
		Name: FieldChainLength, Kind: fields.KindInt,
		Default: fields.Int(1), HasMin: true, Min: 1,
		Displayable: true, Editable: true,
		Doc: "Number of joints in the chain.",
	},
)

func init() {
	module.Register(TypeName, New)
}

// Chain is a linear joint chain of configurable length.
type Chain struct {
	*module.Base
}

// New creates an uninitialized chain module.
func New(name string, owner module.Owner) (module.Module, error) {
	return &Chain{Base: module.NewBase(name, TypeName, owner, schema)}, nil
}

// Initialize populates the chain with chain_length joints.
func (c *Chain) Initialize() error {
	for i := 0; i < c.Fields().Int(FieldChainLength); i++ {
		if _, err := c.addJoint(); err != nil {
			return err
		}
	}
	return nil
}

// addJoint appends one joint, child of the current tail.
func (c *Chain) addJoint() (string, error) {
	joints := c.DeformJoints()
	parent := ""
	if len(joints) > 0 {
		parent = joints[len(joints)-1]
	}
	return c.AddDeformJoint(parent)
}

// Update reconciles the joint list against chain_length.
func (c *Chain) Update() error {
	return c.updateChainLength()
}

func (c *Chain) updateChainLength() error {
	joints := c.DeformJoints()
	diff := c.Fields().Int(FieldChainLength) - len(joints)
	switch {
	case diff > 0:
		sc := c.Scene()
		for i := 0; i < diff; i++ {
			name, err := c.addJoint()
			if err != nil {
				return err
			}
			ref, err := c.JointRef(name)
			if err != nil {
				return err
			}
			if err := sc.SetLocalTranslation(ref, scene.AxisX, defaultJointOffset); err != nil {
				return err
			}
		}
	case diff < 0:
		doomed := joints[len(joints)+diff:]
		c.warnDangling(doomed)
		return c.DeleteDeformJoints(doomed)
	}
	return nil
}

// warnDangling flags modules whose parent joint is about to be deleted.
// Unlike the corrective module, chain does not reassign dependents on
// shrink; the rig's Check surfaces the damage and this keeps it loud.
func (c *Chain) warnDangling(doomed []string) {
	set := make(map[string]bool, len(doomed))
	for _, name := range doomed {
		set[name] = true
	}
	for _, other := range c.Owner().Modules() {
		if other.Name() == c.Name() {
			continue
		}
		if pj := other.ParentJoint(); set[pj] {
			c.Log().Warn("chain shrink leaves dependent module dangling",
				"dependent", other.Name(), "joint", pj)
		}
	}
}

// Build creates one control per joint, chained so the control hierarchy
// mirrors the joint hierarchy, each control rigidly driving its joint.
func (c *Chain) Build() error {
	sc := c.Scene()
	parent := c.Owner().ControlsGroup()
	for _, joint := range c.DrivingJoints() {
		jref, err := c.JointRef(joint)
		if err != nil {
			return err
		}
		ctl, err := sc.CreateNode(scene.NodeControl, joint+"_ctl")
		if err != nil {
			return err
		}
		if err := scene.Snap(sc, ctl, jref); err != nil {
			return err
		}
		if err := sc.Reparent(ctl, parent); err != nil {
			return err
		}
		buffer, err := scene.AddParentGroup(sc, ctl, "buffer")
		if err != nil {
			return err
		}
		if err := sc.ConstrainRigid(ctl, jref, false); err != nil {
			return err
		}
		c.RecordBuildNodes(buffer, ctl)
		parent = ctl
	}
	return nil
}
