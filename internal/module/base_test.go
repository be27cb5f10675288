package module

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmellet/rigkit/internal/fields"
	"github.com/kmellet/rigkit/internal/memscene"
	"github.com/kmellet/rigkit/internal/scene"
)

// stubOwner is the minimal Owner for exercising Base against a real
// in-memory scene without dragging in the rig package.
type stubOwner struct {
	sc     *memscene.Scene
	joints map[string]string
	groups [3]scene.NodeRef
}

func newStubOwner(t *testing.T) *stubOwner {
	t.Helper()
	o := &stubOwner{sc: memscene.New(), joints: map[string]string{}}
	for i, name := range []string{"controls", "extras", "joints"} {
		ref, err := o.sc.CreateNode(scene.NodeTransform, name)
		require.NoError(t, err)
		o.groups[i] = ref
	}
	return o
}

func (o *stubOwner) Scene() scene.Adapter           { return o.sc }
func (o *stubOwner) Logger() *slog.Logger           { return slog.Default() }
func (o *stubOwner) Modules() []Module              { return nil }
func (o *stubOwner) ControlsGroup() scene.NodeRef   { return o.groups[0] }
func (o *stubOwner) ExtrasGroup() scene.NodeRef     { return o.groups[1] }
func (o *stubOwner) JointsGroup() scene.NodeRef     { return o.groups[2] }
func (o *stubOwner) RegisterJoint(name, mod string) { o.joints[name] = mod }
func (o *stubOwner) ReleaseJoint(name string)       { delete(o.joints, name) }

func (o *stubOwner) ResolveJoint(name string) (scene.NodeRef, bool) {
	if _, ok := o.joints[name]; !ok {
		return scene.None, false
	}
	ref := scene.NodeRef(name)
	if !o.sc.Exists(ref) {
		return scene.None, false
	}
	return ref, true
}

func TestBase_AddDeformJoint_NamesFromPersistentSequence(t *testing.T) {
	o := newStubOwner(t)
	b := NewBase("spine", "test", o, BaseSchema())

	first, err := b.AddDeformJoint("")
	require.NoError(t, err)
	second, err := b.AddDeformJoint("")
	require.NoError(t, err)
	assert.Equal(t, "spine_deform_000", first)
	assert.Equal(t, "spine_deform_001", second)

	// Deleting and re-adding must not reuse a name.
	require.NoError(t, b.DeleteDeformJoints([]string{second}))
	third, err := b.AddDeformJoint("")
	require.NoError(t, err)
	assert.Equal(t, "spine_deform_002", third)
	assert.Equal(t, []string{"spine_deform_000", "spine_deform_002"}, b.DeformJoints())
}

func TestBase_AddDeformJoint_ParentFallsBackToJointsGroup(t *testing.T) {
	o := newStubOwner(t)
	b := NewBase("spine", "test", o, BaseSchema())

	name, err := b.AddDeformJoint("")
	require.NoError(t, err)
	parent, err := o.sc.Parent(scene.NodeRef(name))
	require.NoError(t, err)
	assert.Equal(t, o.JointsGroup(), parent)
}

func TestBase_DeleteDeformJoints_ReleasesRegistry(t *testing.T) {
	o := newStubOwner(t)
	b := NewBase("spine", "test", o, BaseSchema())
	name, err := b.AddDeformJoint("")
	require.NoError(t, err)
	_, ok := o.ResolveJoint(name)
	require.True(t, ok)

	require.NoError(t, b.DeleteDeformJoints([]string{name}))
	_, ok = o.ResolveJoint(name)
	assert.False(t, ok)
	assert.False(t, o.sc.Exists(scene.NodeRef(name)))
	assert.Empty(t, b.DeformJoints())
}

func TestBase_JointRef_UnknownJointIsStructural(t *testing.T) {
	o := newStubOwner(t)
	b := NewBase("spine", "test", o, BaseSchema())

	_, err := b.JointRef("nope")
	require.Error(t, err)
	assert.True(t, IsStructuralInconsistency(err))
}

func TestBase_UpdateParentJoint_RepairsFirstJoint(t *testing.T) {
	o := newStubOwner(t)
	provider := NewBase("spine", "test", o, BaseSchema())
	anchor, err := provider.AddDeformJoint("")
	require.NoError(t, err)

	b := NewBase("tail", "test", o, BaseSchema())
	first, err := b.AddDeformJoint("")
	require.NoError(t, err)
	require.NoError(t, b.store.Set(FieldParentJoint, fields.Ref(anchor)))

	require.NoError(t, b.UpdateParentJoint())
	parent, err := o.sc.Parent(scene.NodeRef(first))
	require.NoError(t, err)
	assert.Equal(t, scene.NodeRef(anchor), parent)

	// A vanished parent joint is reported, not silently reattached.
	require.NoError(t, provider.DeleteDeformJoints([]string{anchor}))
	err = b.UpdateParentJoint()
	require.Error(t, err)
	assert.True(t, IsStructuralInconsistency(err))
}
