package memscene

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmellet/rigkit/internal/scene"
)

const tol = 1e-4

func mustCreate(t *testing.T, s *Scene, typ scene.NodeType, hint string) scene.NodeRef {
	t.Helper()
	ref, err := s.CreateNode(typ, hint)
	require.NoError(t, err)
	return ref
}

func assertPos(t *testing.T, s *Scene, ref scene.NodeRef, x, y, z float64) {
	t.Helper()
	w, err := s.WorldTransform(ref)
	require.NoError(t, err)
	assert.InDelta(t, x, float64(w.Pos.X), tol)
	assert.InDelta(t, y, float64(w.Pos.Y), tol)
	assert.InDelta(t, z, float64(w.Pos.Z), tol)
}

func TestCreateNode_DedupesNames(t *testing.T) {
	s := New()

	a := mustCreate(t, s, scene.NodeTransform, "grp")
	b := mustCreate(t, s, scene.NodeTransform, "grp")
	c := mustCreate(t, s, scene.NodeTransform, "grp")

	assert.Equal(t, scene.NodeRef("grp"), a)
	assert.Equal(t, scene.NodeRef("grp1"), b)
	assert.Equal(t, scene.NodeRef("grp2"), c)
}

func TestCreateNode_SanitizesHints(t *testing.T) {
	s := New()

	ref := mustCreate(t, s, scene.NodeTransform, "my node/7")
	assert.Equal(t, scene.NodeRef("my_node_7"), ref)

	ref = mustCreate(t, s, scene.NodeTransform, "3rd")
	assert.Equal(t, scene.NodeRef("_3rd"), ref)
}

func TestDeleteNodes_RemovesSubtreeAndWiring(t *testing.T) {
	s := New()
	parent := mustCreate(t, s, scene.NodeTransform, "parent")
	child := mustCreate(t, s, scene.NodeTransform, "child")
	other := mustCreate(t, s, scene.NodeTransform, "other")
	require.NoError(t, s.Reparent(child, parent))
	require.NoError(t, s.ConstrainRigid(child, other, false))

	require.NoError(t, s.DeleteNodes([]scene.NodeRef{parent}))

	assert.False(t, s.Exists(parent))
	assert.False(t, s.Exists(child))
	assert.True(t, s.Exists(other))
	assert.Empty(t, s.constraints)
}

func TestReparent_PreservesWorldTransform(t *testing.T) {
	s := New()
	a := mustCreate(t, s, scene.NodeTransform, "a")
	b := mustCreate(t, s, scene.NodeTransform, "b")

	require.NoError(t, s.SetWorldTransform(a, scene.Transform{
		Pos: math32.Vec3(1, 2, 3),
		Rot: math32.NewQuatAxisAngle(math32.Vec3(0, 0, 1), math32.DegToRad(90)),
	}))
	want := scene.Transform{Pos: math32.Vec3(5, 5, 5)}
	want.Rot.SetIdentity()
	require.NoError(t, s.SetWorldTransform(b, want))

	require.NoError(t, s.Reparent(b, a))
	assertPos(t, s, b, 5, 5, 5)

	parent, err := s.Parent(b)
	require.NoError(t, err)
	assert.Equal(t, a, parent)
}

func TestReparent_RejectsCycles(t *testing.T) {
	s := New()
	a := mustCreate(t, s, scene.NodeTransform, "a")
	b := mustCreate(t, s, scene.NodeTransform, "b")
	require.NoError(t, s.Reparent(b, a))

	assert.Error(t, s.Reparent(a, b))
}

func TestConstrainRigid_TracksDriver(t *testing.T) {
	s := New()
	driver := mustCreate(t, s, scene.NodeJoint, "driver")
	driven := mustCreate(t, s, scene.NodeTransform, "driven")

	tr := scene.Identity()
	tr.Pos = math32.Vec3(2, 0, 0)
	require.NoError(t, s.SetWorldTransform(driver, tr))
	require.NoError(t, s.ConstrainRigid(driver, driven, false))

	assertPos(t, s, driven, 2, 0, 0)

	tr.Pos = math32.Vec3(0, 7, 0)
	require.NoError(t, s.SetWorldTransform(driver, tr))
	assertPos(t, s, driven, 0, 7, 0)
}

func TestConstrainRigid_MaintainOffsetKeepsRelativePose(t *testing.T) {
	s := New()
	driver := mustCreate(t, s, scene.NodeJoint, "driver")
	driven := mustCreate(t, s, scene.NodeLocator, "driven")

	tr := scene.Identity()
	tr.Pos = math32.Vec3(1, 0, 0)
	require.NoError(t, s.SetWorldTransform(driven, tr))
	require.NoError(t, s.ConstrainRigid(driver, driven, true))

	// Rotating the driver 90 degrees about Z carries the offset to +Y.
	rot := scene.Identity()
	rot.Rot = math32.NewQuatAxisAngle(math32.Vec3(0, 0, 1), math32.DegToRad(90))
	require.NoError(t, s.SetWorldTransform(driver, rot))
	assertPos(t, s, driven, 0, 1, 0)
}

func TestConstrainPosition_LeavesOrientationAlone(t *testing.T) {
	s := New()
	driver := mustCreate(t, s, scene.NodeJoint, "driver")
	driven := mustCreate(t, s, scene.NodeTransform, "driven")

	tr := scene.Transform{
		Pos: math32.Vec3(3, 1, 0),
		Rot: math32.NewQuatAxisAngle(math32.Vec3(0, 0, 1), math32.DegToRad(45)),
	}
	require.NoError(t, s.SetWorldTransform(driver, tr))
	require.NoError(t, s.ConstrainPosition(driver, driven))

	w, err := s.WorldTransform(driven)
	require.NoError(t, err)
	assert.InDelta(t, 3, float64(w.Pos.X), tol)
	assert.InDelta(t, 1, float64(w.Pos.Y), tol)
	assert.InDelta(t, 1, float64(w.Rot.W), tol) // orientation stays identity
}

func TestSetAttr_InheritsTransformFlag(t *testing.T) {
	s := New()
	parent := mustCreate(t, s, scene.NodeTransform, "parent")
	child := mustCreate(t, s, scene.NodeTransform, "child")
	require.NoError(t, s.Reparent(child, parent))

	tr := scene.Identity()
	tr.Pos = math32.Vec3(10, 0, 0)
	require.NoError(t, s.SetWorldTransform(parent, tr))
	require.NoError(t, s.SetAttr(child.Attr("inheritsTransform"), 0))

	// The child now ignores its parent's transform.
	assertPos(t, s, child, 0, 0, 0)
}

func TestStats_CountMutations(t *testing.T) {
	s := New()
	a := mustCreate(t, s, scene.NodeTransform, "a")
	b := mustCreate(t, s, scene.NodeTransform, "b")
	require.NoError(t, s.Reparent(b, a))
	require.NoError(t, s.DeleteNodes([]scene.NodeRef{b}))

	st := s.Stats()
	assert.Equal(t, 2, st.Creates)
	assert.Equal(t, 1, st.Reparents)
	assert.Equal(t, 1, st.Deletes)

	s.ResetStats()
	assert.Equal(t, Stats{}, s.Stats())
}
