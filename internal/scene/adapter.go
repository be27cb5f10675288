package scene

// Adapter is the scene-graph mutation surface the rig engine consumes.
//
// Implementations must apply every call synchronously: when a method
// returns, the mutation is observable through the query methods. The engine
// is the sole mutator for the duration of any module lifecycle call and
// never tolerates concurrent structural mutation from elsewhere.
//
// Errors are returned unchanged to the engine, which propagates them to the
// orchestration layer without swallowing or retrying.
type Adapter interface {
	// CreateNode creates a node of the given type. The returned ref is
	// derived from nameHint, made unique within the scene.
	CreateNode(typ NodeType, nameHint string) (NodeRef, error)

	// DeleteNodes removes the given nodes and their constraints and
	// connections. Children of a deleted node are deleted with it.
	DeleteNodes(refs []NodeRef) error

	// Exists reports whether ref names a live node.
	Exists(ref NodeRef) bool

	// Parent returns the current scene parent of ref, or None at the root.
	Parent(ref NodeRef) (NodeRef, error)

	// Reparent moves child under newParent (None for the scene root),
	// preserving the child's world transform.
	Reparent(child, newParent NodeRef) error

	// WorldTransform returns ref's current world-space transform, with
	// constraints taken into account.
	WorldTransform(ref NodeRef) (Transform, error)

	// SetWorldTransform sets ref's local transform such that its world
	// transform equals t.
	SetWorldTransform(ref NodeRef, t Transform) error

	// SetLocalTranslation sets one local translation component.
	SetLocalTranslation(ref NodeRef, axis Axis, value float32) error

	// Connect establishes one-directional live value propagation from src
	// to dst. Vector attributes connect component-wise.
	Connect(src, dst Attr) error

	// SetAttr stores a scalar attribute value.
	SetAttr(a Attr, value float64) error

	// GetAttr reads a scalar attribute value.
	GetAttr(a Attr) (float64, error)

	// AddCustomAttr declares a new custom attribute on ref.
	AddCustomAttr(ref NodeRef, name string, spec CustomAttrSpec) error

	// LockAttr prevents manual edits of an attribute. Locked attributes can
	// still be driven by connections.
	LockAttr(a Attr) error

	// ConstrainRigid makes driven's world transform track driver's. With
	// maintainOffset the relative transform at call time is preserved.
	ConstrainRigid(driver, driven NodeRef, maintainOffset bool) error

	// ConstrainPosition makes driven's world position track driver's,
	// leaving driven's orientation alone.
	ConstrainPosition(driver, driven NodeRef) error
}
