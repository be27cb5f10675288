package corrective

import (
	"github.com/kmellet/rigkit/internal/fields"
	"github.com/kmellet/rigkit/internal/nodegraph"
	"github.com/kmellet/rigkit/internal/scene"
)

// Custom attribute names added to each corrective control.
const (
	attrAffectedBy = "affectedBy"

	attrOffsetPositive = "offsetPositive"
	attrOffsetNegative = "offsetNegative"

	attrAngle  = "angle"
	attrXValue = "xValue"
	attrYValue = "yValue"
	attrZValue = "zValue"
)

// createLocators builds the measurement frame: a non-inheriting space group
// position-constrained to the vector base, a base locator tracking the base
// joint, a tip locator tracking the current pose and an unconstrained
// locator frozen at the rest pose. The tip locator starts at the referenced
// vector tip when one is authored, or at a unit +X offset under the base
// locator; the rest-pose locator always holds the unit +X rest offset.
func (c *Corrective) createLocators() error {
	sc := c.Scene()
	baseRef, err := c.resolveRef(FieldVectorBase)
	if err != nil {
		return err
	}
	tipRef := scene.None
	if c.Fields().Ref(FieldVectorTip) != "" {
		if tipRef, err = c.resolveRef(FieldVectorTip); err != nil {
			return err
		}
	}

	space, err := sc.CreateNode(scene.NodeTransform, c.Name()+"_space")
	if err != nil {
		return err
	}
	if err := sc.Reparent(space, c.Owner().ExtrasGroup()); err != nil {
		return err
	}
	if err := sc.SetAttr(space.Attr("inheritsTransform"), 0); err != nil {
		return err
	}
	if err := sc.ConstrainPosition(baseRef, space); err != nil {
		return err
	}

	baseLoc, err := sc.CreateNode(scene.NodeLocator, c.Name()+"_vector_base_loc")
	if err != nil {
		return err
	}
	if err := sc.Reparent(baseLoc, space); err != nil {
		return err
	}
	if err := scene.Snap(sc, baseLoc, baseRef); err != nil {
		return err
	}
	if err := sc.ConstrainRigid(baseRef, baseLoc, false); err != nil {
		return err
	}

	tipLoc, err := c.placeTipLocator(space, baseLoc, "_vector_tip_loc", tipRef)
	if err != nil {
		return err
	}
	driver := baseRef
	if tipRef != scene.None {
		driver = tipRef
	}
	if err := sc.ConstrainRigid(driver, tipLoc, true); err != nil {
		return err
	}

	origLoc, err := c.placeTipLocator(space, baseLoc, "_orig_pose_vector_tip_loc", scene.None)
	if err != nil {
		return err
	}

	c.RecordBuildNodes(space, baseLoc, tipLoc, origLoc)
	for field, ref := range map[string]scene.NodeRef{
		FieldVectorBaseLoc:        baseLoc,
		FieldVectorTipLoc:         tipLoc,
		FieldOrigPoseVectorTipLoc: origLoc,
	} {
		if err := c.Fields().Set(field, fields.Ref(string(ref))); err != nil {
			return err
		}
	}
	return nil
}

// placeTipLocator creates a tip-style locator under baseLoc, places it at
// the referenced tip joint or at a unit +X offset, then moves it under the
// measurement space keeping its world position.
func (c *Corrective) placeTipLocator(space, baseLoc scene.NodeRef, suffix string, tipRef scene.NodeRef) (scene.NodeRef, error) {
	sc := c.Scene()
	loc, err := sc.CreateNode(scene.NodeLocator, c.Name()+suffix)
	if err != nil {
		return scene.None, err
	}
	if err := sc.Reparent(loc, baseLoc); err != nil {
		return scene.None, err
	}
	if err := scene.ResetLocal(sc, loc); err != nil {
		return scene.None, err
	}
	if tipRef != scene.None {
		if err := scene.Snap(sc, loc, tipRef); err != nil {
			return scene.None, err
		}
	} else {
		if err := sc.SetLocalTranslation(loc, scene.AxisX, restTipOffset); err != nil {
			return scene.None, err
		}
	}
	if err := sc.Reparent(loc, space); err != nil {
		return scene.None, err
	}
	return loc, nil
}

// buildAngleReader wires the network turning the three locators into a
// per-axis deviation value in [-1, 1]: current and rest vectors, the angle
// and rotation axis between them, the axis scaled by the angle, and the
// result divided by 180.
func (c *Corrective) buildAngleReader() error {
	baseLoc := scene.NodeRef(c.Fields().Ref(FieldVectorBaseLoc))
	tipLoc := scene.NodeRef(c.Fields().Ref(FieldVectorTipLoc))
	origLoc := scene.NodeRef(c.Fields().Ref(FieldOrigPoseVectorTipLoc))

	g := nodegraph.New()
	g.Node("source", scene.NodeSubtractVector, c.Name()+"_source_vector")
	g.Node("target", scene.NodeSubtractVector, c.Name()+"_target_vector")
	g.Node("angle", scene.NodeAngleBetween, c.Name()+"_angle_between")
	g.Node("mult", scene.NodeMultiplyDivide, c.Name()+"_angle_times_axis")
	g.Node("range", scene.NodeMultiplyDivide, c.Name()+"_m1_to_p1_range")

	g.Connect(nodegraph.Ext(tipLoc, "translate"), nodegraph.Local("source", "input1"))
	g.Connect(nodegraph.Ext(baseLoc, "translate"), nodegraph.Local("source", "input2"))
	g.Connect(nodegraph.Ext(origLoc, "translate"), nodegraph.Local("target", "input1"))
	g.Connect(nodegraph.Ext(baseLoc, "translate"), nodegraph.Local("target", "input2"))

	g.Connect(nodegraph.Local("source", "output"), nodegraph.Local("angle", "vector1"))
	g.Connect(nodegraph.Local("target", "output"), nodegraph.Local("angle", "vector2"))

	g.Connect(nodegraph.Local("angle", "axis"), nodegraph.Local("mult", "input1"))
	for _, axis := range []scene.Axis{scene.AxisX, scene.AxisY, scene.AxisZ} {
		g.Connect(nodegraph.Local("angle", "angle"), nodegraph.Local("mult", "input2"+axis.Component()))
	}

	g.Set(nodegraph.Local("range", "operation"), scene.OpDivide)
	g.Connect(nodegraph.Local("mult", "output"), nodegraph.Local("range", "input1"))
	for _, axis := range []scene.Axis{scene.AxisX, scene.AxisY, scene.AxisZ} {
		g.Set(nodegraph.Local("range", "input2"+axis.Component()), 180)
	}

	refs, err := g.Apply(c.Scene())
	if err != nil {
		return err
	}
	c.multNode = refs["mult"]
	c.rangeNode = refs["range"]
	for _, ref := range refs {
		c.RecordBuildNodes(ref)
	}
	return nil
}

// addControl creates the offset control for one joint: snapped to the
// joint, grouped under buffer and offset transforms, driving the joint via
// a rigid constraint, and carrying the artist-facing offset attributes plus
// read-only debug values. Standard transform channels are locked since the
// control is posed exclusively through its custom attributes.
func (c *Corrective) addControl(joint string) (scene.NodeRef, error) {
	sc := c.Scene()
	ref, err := c.JointRef(joint)
	if err != nil {
		return scene.None, err
	}
	ctl, err := sc.CreateNode(scene.NodeControl, joint+"_ctl")
	if err != nil {
		return scene.None, err
	}
	if err := sc.Reparent(ctl, c.Owner().ControlsGroup()); err != nil {
		return scene.None, err
	}
	if err := scene.Snap(sc, ctl, ref); err != nil {
		return scene.None, err
	}
	buffer, err := scene.AddParentGroup(sc, ctl, "buffer")
	if err != nil {
		return scene.None, err
	}
	offset, err := scene.AddParentGroup(sc, ctl, "offset")
	if err != nil {
		return scene.None, err
	}
	if err := sc.ConstrainRigid(ctl, ref, false); err != nil {
		return scene.None, err
	}

	g := nodegraph.New()
	g.CustomAttr(ctl, attrAffectedBy, scene.CustomAttrSpec{
		Kind:       scene.AttrEnum,
		EnumValues: []string{"Y", "Z"},
		Keyable:    true,
	})
	for _, name := range []string{attrOffsetPositive, attrOffsetNegative} {
		for _, axis := range []scene.Axis{scene.AxisX, scene.AxisY, scene.AxisZ} {
			g.CustomAttr(ctl, name+axis.Component(), scene.CustomAttrSpec{
				Kind:    scene.AttrFloat,
				Keyable: true,
			})
		}
	}
	for _, name := range []string{attrAngle, attrXValue, attrYValue, attrZValue} {
		g.CustomAttr(ctl, name, scene.CustomAttrSpec{
			Kind:       scene.AttrFloat,
			ChannelBox: true,
		})
	}
	g.Connect(nodegraph.Ext(c.multNode, "input2X"), nodegraph.Ext(ctl, attrAngle))
	g.Connect(nodegraph.Ext(c.multNode, "input1X"), nodegraph.Ext(ctl, attrXValue))
	g.Connect(nodegraph.Ext(c.multNode, "input1Y"), nodegraph.Ext(ctl, attrYValue))
	g.Connect(nodegraph.Ext(c.multNode, "input1Z"), nodegraph.Ext(ctl, attrZValue))
	for _, channel := range []string{"translate", "rotate", "scale"} {
		for _, axis := range []scene.Axis{scene.AxisX, scene.AxisY, scene.AxisZ} {
			g.Lock(nodegraph.Ext(ctl, channel+axis.Component()))
		}
	}
	if _, err := g.Apply(sc); err != nil {
		return scene.None, err
	}

	c.RecordBuildNodes(buffer, offset, ctl)
	return ctl, nil
}

// wireOffsets builds the per-joint branch network. Each of the Y and Z
// branches scales the positive or negative offsets by the branch's
// deviation value, picking the positive set while the value is at or above
// zero. A final condition on affectedBy chooses which branch drives the
// control's translation.
func (c *Corrective) wireOffsets(joint string, ctl scene.NodeRef) error {
	g := nodegraph.New()
	for _, branch := range []struct {
		key  string
		axis scene.Axis
	}{
		{key: "y", axis: scene.AxisY},
		{key: "z", axis: scene.AxisZ},
	} {
		value := nodegraph.Ext(c.rangeNode, "output"+branch.axis.Component())

		pos := branch.key + "_positive"
		g.Node(pos, scene.NodeMultiplyDivide, joint+"_"+branch.key+"_positive_offset")
		for _, axis := range []scene.Axis{scene.AxisX, scene.AxisY, scene.AxisZ} {
			g.Connect(nodegraph.Ext(ctl, attrOffsetPositive+axis.Component()),
				nodegraph.Local(pos, "input1"+axis.Component()))
			g.Connect(value, nodegraph.Local(pos, "input2"+axis.Component()))
		}

		opp := branch.key + "_opposite"
		g.Node(opp, scene.NodeMultiplyScalar, joint+"_"+branch.key+"_value_opposite")
		g.Connect(value, nodegraph.Local(opp, "input1"))
		g.Set(nodegraph.Local(opp, "input2"), -1)

		neg := branch.key + "_negative"
		g.Node(neg, scene.NodeMultiplyDivide, joint+"_"+branch.key+"_negative_offset")
		for _, axis := range []scene.Axis{scene.AxisX, scene.AxisY, scene.AxisZ} {
			g.Connect(nodegraph.Ext(ctl, attrOffsetNegative+axis.Component()),
				nodegraph.Local(neg, "input1"+axis.Component()))
			g.Connect(nodegraph.Local(opp, "output"),
				nodegraph.Local(neg, "input2"+axis.Component()))
		}

		cond := branch.key + "_condition"
		g.Node(cond, scene.NodeCondition, joint+"_"+branch.key+"_condition")
		g.Set(nodegraph.Local(cond, "operation"), scene.OpGreaterOrEqual)
		g.Connect(value, nodegraph.Local(cond, "firstTerm"))
		g.Connect(nodegraph.Local(pos, "output"), nodegraph.Local(cond, "colorIfTrue"))
		g.Connect(nodegraph.Local(neg, "output"), nodegraph.Local(cond, "colorIfFalse"))
	}

	// The comparison defaults to equality against zero, so the Y choice of
	// the affectedBy enum selects colorIfTrue.
	g.Node("affected_by", scene.NodeCondition, joint+"_affected_by")
	g.Connect(nodegraph.Ext(ctl, attrAffectedBy), nodegraph.Local("affected_by", "firstTerm"))
	g.Connect(nodegraph.Local("y_condition", "outColor"), nodegraph.Local("affected_by", "colorIfTrue"))
	g.Connect(nodegraph.Local("z_condition", "outColor"), nodegraph.Local("affected_by", "colorIfFalse"))
	g.Connect(nodegraph.Local("affected_by", "outColor"), nodegraph.Ext(ctl, "translate"))

	refs, err := g.Apply(c.Scene())
	if err != nil {
		return err
	}
	for _, ref := range refs {
		c.RecordBuildNodes(ref)
	}
	return nil
}
