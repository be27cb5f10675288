package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmellet/rigkit/internal/fields"
	"github.com/kmellet/rigkit/internal/memscene"
	"github.com/kmellet/rigkit/internal/module"
	"github.com/kmellet/rigkit/internal/rig"
	"github.com/kmellet/rigkit/internal/scene"
)

func newRig(t *testing.T) (*memscene.Scene, *rig.Rig) {
	t.Helper()
	sc := memscene.New()
	r, err := rig.New(sc)
	require.NoError(t, err)
	return sc, r
}

func TestChain_Initialize_CreatesChainedJoints(t *testing.T) {
	sc, r := newRig(t)
	m, err := r.AddModule(TypeName, "spine")
	require.NoError(t, err)
	require.NoError(t, m.Fields().Set(FieldChainLength, fields.Int(3)))
	require.NoError(t, r.Update())

	joints := m.DeformJoints()
	require.Equal(t, []string{"spine_deform_000", "spine_deform_001", "spine_deform_002"}, joints)

	// Each joint hangs off the previous one; the head hangs off the rig's
	// joints group.
	parent, err := sc.Parent("spine_deform_000")
	require.NoError(t, err)
	assert.Equal(t, r.JointsGroup(), parent)
	for i := 1; i < len(joints); i++ {
		parent, err := sc.Parent(scene.NodeRef(joints[i]))
		require.NoError(t, err)
		assert.Equal(t, scene.NodeRef(joints[i-1]), parent)
	}
}

func TestChain_Update_GrownJointsGetDefaultOffset(t *testing.T) {
	sc, r := newRig(t)
	m, err := r.AddModule(TypeName, "spine")
	require.NoError(t, err)
	require.NoError(t, m.Fields().Set(FieldChainLength, fields.Int(2)))
	require.NoError(t, r.Update())

	tx, err := sc.GetAttr(scene.NodeRef("spine_deform_001").Attr("translateX"))
	require.NoError(t, err)
	assert.InDelta(t, defaultJointOffset, tx, 1e-5)
}

func TestChain_Update_ShrinkDeletesTail(t *testing.T) {
	sc, r := newRig(t)
	m, err := r.AddModule(TypeName, "spine")
	require.NoError(t, err)
	require.NoError(t, m.Fields().Set(FieldChainLength, fields.Int(4)))
	require.NoError(t, r.Update())

	require.NoError(t, m.Fields().Set(FieldChainLength, fields.Int(2)))
	require.NoError(t, r.Update())

	require.Equal(t, []string{"spine_deform_000", "spine_deform_001"}, m.DeformJoints())
	assert.False(t, sc.Exists("spine_deform_002"))
	assert.False(t, sc.Exists("spine_deform_003"))
}

func TestChain_Update_SecondPassIsANoOp(t *testing.T) {
	sc, r := newRig(t)
	m, err := r.AddModule(TypeName, "spine")
	require.NoError(t, err)
	require.NoError(t, m.Fields().Set(FieldChainLength, fields.Int(3)))
	require.NoError(t, r.Update())

	before := sc.Stats()
	require.NoError(t, r.Update())
	assert.Equal(t, before, sc.Stats())
}

func TestChain_Update_RejectsLengthBelowOne(t *testing.T) {
	_, r := newRig(t)
	m, err := r.AddModule(TypeName, "spine")
	require.NoError(t, err)

	err = m.Fields().Set(FieldChainLength, fields.Int(0))
	require.Error(t, err)
	assert.True(t, fields.IsValidation(err))
	assert.Equal(t, 1, m.Fields().Int(FieldChainLength))
}

func TestChain_Update_ShrinkLeavesDependentDangling(t *testing.T) {
	sc, r := newRig(t)
	m, err := r.AddModule(TypeName, "spine")
	require.NoError(t, err)
	require.NoError(t, m.Fields().Set(FieldChainLength, fields.Int(3)))
	require.NoError(t, r.Update())

	dep, err := r.AddModule(TypeName, "tail")
	require.NoError(t, err)
	require.NoError(t, dep.SetParentJoint("spine_deform_002"))
	require.NoError(t, r.Update())

	// Chain shrink does not rescue dependents: the shrink itself succeeds,
	// the dependent's parent repair then fails loudly, and Check keeps
	// reporting the dangling reference until the artist repoints it.
	require.NoError(t, m.Fields().Set(FieldChainLength, fields.Int(1)))
	err = r.Update()
	require.Error(t, err)
	assert.True(t, module.IsStructuralInconsistency(err))
	assert.False(t, sc.Exists("spine_deform_002"))

	problems := r.Check()
	require.Len(t, problems, 1)
	assert.Equal(t, "tail", problems[0].Module)
	assert.Equal(t, "spine_deform_002", problems[0].Reference)
}

func TestChain_Build_ControlsMirrorJointHierarchy(t *testing.T) {
	sc, r := newRig(t)
	m, err := r.AddModule(TypeName, "spine")
	require.NoError(t, err)
	require.NoError(t, m.Fields().Set(FieldChainLength, fields.Int(2)))
	require.NoError(t, r.Update())
	require.NoError(t, r.Build())

	// Head control sits under its buffer under the controls group; the tail
	// control's buffer hangs off the head control.
	head := scene.NodeRef("spine_deform_000_ctl")
	tail := scene.NodeRef("spine_deform_001_ctl")
	require.True(t, sc.Exists(head))
	require.True(t, sc.Exists(tail))

	headBuffer, err := sc.Parent(head)
	require.NoError(t, err)
	top, err := sc.Parent(headBuffer)
	require.NoError(t, err)
	assert.Equal(t, r.ControlsGroup(), top)

	tailBuffer, err := sc.Parent(tail)
	require.NoError(t, err)
	mid, err := sc.Parent(tailBuffer)
	require.NoError(t, err)
	assert.Equal(t, head, mid)
}

func TestChain_Build_ControlDrivesJoint(t *testing.T) {
	sc, r := newRig(t)
	_, err := r.AddModule(TypeName, "spine")
	require.NoError(t, err)
	require.NoError(t, r.Update())
	require.NoError(t, r.Build())

	ctl := scene.NodeRef("spine_deform_000_ctl")
	want := scene.Identity()
	want.Pos.Set(0, 3, 0)
	require.NoError(t, sc.SetWorldTransform(ctl, want))

	got, err := sc.WorldTransform("spine_deform_000")
	require.NoError(t, err)
	assert.InDelta(t, 0, float64(got.Pos.X), 1e-5)
	assert.InDelta(t, 3, float64(got.Pos.Y), 1e-5)
}

func TestChain_Build_RebuildReplacesOutput(t *testing.T) {
	sc, r := newRig(t)
	m, err := r.AddModule(TypeName, "spine")
	require.NoError(t, err)
	require.NoError(t, m.Fields().Set(FieldChainLength, fields.Int(2)))
	require.NoError(t, r.Update())
	require.NoError(t, r.Build())

	first := m.BuildNodes()
	require.NotEmpty(t, first)

	require.NoError(t, m.Fields().Set(FieldChainLength, fields.Int(1)))
	require.NoError(t, r.Update())
	require.NoError(t, r.Build())

	assert.True(t, sc.Exists("spine_deform_000_ctl"))
	assert.False(t, sc.Exists("spine_deform_001_ctl"))
	for _, ref := range m.BuildNodes() {
		assert.True(t, sc.Exists(ref), string(ref))
	}
}
