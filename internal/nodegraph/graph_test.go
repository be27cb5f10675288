package nodegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmellet/rigkit/internal/memscene"
	"github.com/kmellet/rigkit/internal/scene"
)

func TestGraph_Apply_CreatesAndWiresNodes(t *testing.T) {
	sc := memscene.New()
	src, err := sc.CreateNode(scene.NodeLocator, "marker")
	require.NoError(t, err)
	require.NoError(t, sc.SetLocalTranslation(src, scene.AxisX, 3))

	g := New()
	g.Node("diff", scene.NodeSubtractVector, "marker_diff")
	g.Node("scaled", scene.NodeMultiplyDivide, "marker_scaled")
	g.Connect(Ext(src, "translate"), Local("diff", "input1"))
	g.Connect(Local("diff", "output"), Local("scaled", "input1"))
	for _, axis := range []scene.Axis{scene.AxisX, scene.AxisY, scene.AxisZ} {
		g.Set(Local("scaled", "input2"+axis.Component()), 2)
	}

	refs, err := g.Apply(sc)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	for _, ref := range refs {
		assert.True(t, sc.Exists(ref))
	}

	require.NoError(t, sc.Evaluate())
	out, err := sc.GetAttr(refs["scaled"].Attr("outputX"))
	require.NoError(t, err)
	assert.InDelta(t, 6, out, 1e-6)
}

func TestGraph_Apply_UnknownKeyFails(t *testing.T) {
	g := New()
	g.Node("a", scene.NodeSubtractVector, "a")
	g.Connect(Local("a", "output"), Local("missing", "input1"))

	_, err := g.Apply(memscene.New())
	require.Error(t, err)
}

func TestGraph_Node_DuplicateKeyPanics(t *testing.T) {
	g := New()
	g.Node("a", scene.NodeSubtractVector, "a")
	assert.Panics(t, func() { g.Node("a", scene.NodeSubtractVector, "b") })
}

func TestGraph_Apply_CustomAttrsAndLocks(t *testing.T) {
	sc := memscene.New()
	ctl, err := sc.CreateNode(scene.NodeControl, "lever")
	require.NoError(t, err)

	g := New()
	g.CustomAttr(ctl, "strength", scene.CustomAttrSpec{Kind: scene.AttrFloat, Keyable: true})
	g.Lock(Ext(ctl, "rotateX"))
	_, err = g.Apply(sc)
	require.NoError(t, err)

	require.NoError(t, sc.SetAttr(ctl.Attr("strength"), 0.25))
	v, err := sc.GetAttr(ctl.Attr("strength"))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-9)
	assert.True(t, sc.Locked(ctl.Attr("rotateX")))
}
