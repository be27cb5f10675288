package scene

import "cogentcore.org/core/math32"

// Transform is a rigid transform: position plus orientation. Scale is not
// part of the rig construction model; controls and joints are built unscaled.
type Transform struct {
	Pos math32.Vector3 `json:"pos"`
	Rot math32.Quat    `json:"rot"`
}

// Identity returns the identity transform.
func Identity() Transform {
	var q math32.Quat
	q.SetIdentity()
	return Transform{Rot: q}
}

// Mul composes t with the local transform: the result maps local space
// through t. Used to climb from a node's local transform to world space,
// world = parentWorld.Mul(local).
func (t Transform) Mul(local Transform) Transform {
	return Transform{
		Pos: t.Pos.Add(local.Pos.MulQuat(t.Rot)),
		Rot: t.Rot.Mul(local.Rot),
	}
}

// Inverse returns the transform undoing t.
func (t Transform) Inverse() Transform {
	inv := t.Rot.Inverse()
	return Transform{
		Pos: t.Pos.Negate().MulQuat(inv),
		Rot: inv,
	}
}

// RelativeTo returns t expressed in parent's space, such that
// parent.Mul(result) == t.
func (t Transform) RelativeTo(parent Transform) Transform {
	return parent.Inverse().Mul(t)
}
