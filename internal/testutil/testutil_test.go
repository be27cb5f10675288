package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmellet/rigkit/internal/memscene"
)

func TestBuildSampleRig_IsReconciled(t *testing.T) {
	sc := memscene.New()
	r, err := BuildSampleRig(sc)
	require.NoError(t, err)

	spine, ok := r.Module("spine")
	require.True(t, ok)
	assert.Equal(t,
		[]string{"spine_deform_000", "spine_deform_001", "spine_deform_002"},
		spine.DeformJoints())

	cheek, ok := r.Module("cheek")
	require.True(t, ok)
	assert.Equal(t, "spine_deform_001", cheek.ParentJoint())
	assert.Empty(t, r.Check())

	// A second reconcile pass must not touch the scene.
	before := sc.Stats()
	require.NoError(t, r.Update())
	assert.Equal(t, before, sc.Stats())
}

func TestBuildSampleRig_BuildSucceeds(t *testing.T) {
	sc := memscene.New()
	r, err := BuildSampleRig(sc)
	require.NoError(t, err)

	require.NoError(t, r.Build())
	assert.True(t, sc.Exists("spine_deform_001_ctl"))
	assert.True(t, sc.Exists("cheek_deform_000_ctl"))
}
