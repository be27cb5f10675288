package scene

// Hierarchy helpers shared by module build code. These are conveniences
// layered on the Adapter surface, not extra host capabilities.

// AddParentGroup inserts a new transform between node and its current
// parent, matching node's world transform. The group absorbs the node's
// placement so the node itself can stay zeroed and animatable.
func AddParentGroup(sc Adapter, node NodeRef, suffix string) (NodeRef, error) {
	group, err := sc.CreateNode(NodeTransform, string(node)+"_"+suffix)
	if err != nil {
		return None, err
	}
	world, err := sc.WorldTransform(node)
	if err != nil {
		return None, err
	}
	if err := sc.SetWorldTransform(group, world); err != nil {
		return None, err
	}
	parent, err := sc.Parent(node)
	if err != nil {
		return None, err
	}
	if err := sc.Reparent(group, parent); err != nil {
		return None, err
	}
	if err := sc.Reparent(node, group); err != nil {
		return None, err
	}
	return group, nil
}

// Snap moves node to target's world transform.
func Snap(sc Adapter, node, target NodeRef) error {
	world, err := sc.WorldTransform(target)
	if err != nil {
		return err
	}
	return sc.SetWorldTransform(node, world)
}

// ResetLocal zeroes node's local transform so it sits exactly on its parent.
func ResetLocal(sc Adapter, node NodeRef) error {
	parent, err := sc.Parent(node)
	if err != nil {
		return err
	}
	if parent == None {
		return sc.SetWorldTransform(node, Identity())
	}
	parentWorld, err := sc.WorldTransform(parent)
	if err != nil {
		return err
	}
	return sc.SetWorldTransform(node, parentWorld)
}
