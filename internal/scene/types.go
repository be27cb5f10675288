package scene

import "fmt"

// NodeRef identifies a scene node by its unique name. Refs are stable for
// the lifetime of the node and safe to persist.
type NodeRef string

// None is the absent node reference.
const None NodeRef = ""

// Attr addresses one attribute of one node, e.g. spine_ctl.translateX.
func (r NodeRef) Attr(name string) Attr {
	return Attr{Node: r, Name: name}
}

// Attr is a node attribute address used by connections and value access.
type Attr struct {
	Node NodeRef
	Name string
}

// String renders the conventional node.attr form.
func (a Attr) String() string { return fmt.Sprintf("%s.%s", a.Node, a.Name) }

// NodeType names a creatable node capability.
type NodeType string

const (
	// NodeTransform is a plain transform group.
	NodeTransform NodeType = "transform"

	// NodeJoint is a skeletal deform joint.
	NodeJoint NodeType = "joint"

	// NodeLocator is a lightweight positional marker used for measurement.
	NodeLocator NodeType = "locator"

	// NodeControl is an artist-facing control transform.
	NodeControl NodeType = "control"

	// NodeSubtractVector outputs input1 - input2, component-wise.
	NodeSubtractVector NodeType = "subtract-vector"

	// NodeAngleBetween outputs the angle (degrees) between vector1 and
	// vector2 together with the rotation axis carrying vector1 onto vector2.
	NodeAngleBetween NodeType = "angle-between"

	// NodeMultiplyDivide multiplies or divides input1 by input2
	// component-wise, selected by the "operation" attribute.
	NodeMultiplyDivide NodeType = "multiply-divide"

	// NodeMultiplyScalar outputs input1 * input2 as a single scalar.
	NodeMultiplyScalar NodeType = "multiply-scalar"

	// NodeCondition compares firstTerm against secondTerm with the
	// comparison selected by "operation" and outputs colorIfTrue or
	// colorIfFalse accordingly.
	NodeCondition NodeType = "condition"
)

// Arithmetic operation selectors, stored in a node's "operation" attribute.
const (
	OpMultiply float64 = 1
	OpDivide   float64 = 2
)

// Condition operation selectors.
const (
	OpEqual          float64 = 0
	OpGreaterOrEqual float64 = 3
)

// Axis selects one translation axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Component returns the conventional attribute suffix for the axis.
func (a Axis) Component() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	}
	return "?"
}

// AttrKind is the type of a custom attribute.
type AttrKind string

const (
	AttrFloat AttrKind = "float"
	AttrEnum  AttrKind = "enum"
)

// CustomAttrSpec declares an artist-authorable attribute added to a node.
type CustomAttrSpec struct {
	// Kind is the attribute's value type.
	Kind AttrKind `json:"kind"`

	// EnumValues lists the choices of an AttrEnum, in order. The stored
	// value is the choice index.
	EnumValues []string `json:"enum_values,omitempty"`

	// Keyable attributes appear in the host's animation channel list.
	Keyable bool `json:"keyable,omitempty"`

	// ChannelBox exposes a non-keyable attribute for inspection.
	ChannelBox bool `json:"channel_box,omitempty"`
}
