package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmellet/rigkit/internal/fields"
)

func compile(t *testing.T, src string) (*RigDefinition, error) {
	t.Helper()
	return CompileSource("rig.cue", []byte(src))
}

func TestCompileRig_FullDefinition(t *testing.T) {
	def, err := compile(t, `
rig: {
	name: "biped"
	modules: [
		{name: "spine", type: "chain", fields: {chain_length: 4}},
		{name: "cheek", type: "corrective", parent: "spine_deform_001", fields: {
			joint_count: 2
			vector_base: "spine_deform_001"
		}},
	]
}
`)
	require.NoError(t, err)
	assert.Equal(t, "biped", def.Name)
	require.Len(t, def.Modules, 2)

	spine := def.Modules[0]
	assert.Equal(t, "spine", spine.Name)
	assert.Equal(t, "chain", spine.Type)
	assert.Equal(t, fields.Int(4), spine.Fields["chain_length"])

	cheek := def.Modules[1]
	assert.Equal(t, "corrective", cheek.Type)
	assert.Equal(t, "spine_deform_001", cheek.Parent)
	assert.Equal(t, fields.Int(2), cheek.Fields["joint_count"])
	assert.Equal(t, fields.Ref("spine_deform_001"), cheek.Fields["vector_base"])
}

func TestCompileRig_ModuleOrderIsPreserved(t *testing.T) {
	def, err := compile(t, `
rig: {
	name: "r"
	modules: [
		{name: "c", type: "chain"},
		{name: "a", type: "chain"},
		{name: "b", type: "chain"},
	]
}
`)
	require.NoError(t, err)
	var names []string
	for _, m := range def.Modules {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestCompileRig_FieldValueKinds(t *testing.T) {
	def, err := compile(t, `
rig: {
	name: "r"
	modules: [
		{name: "m", type: "chain", fields: {
			count:  3
			weight: 0.5
			anchor: "root"
			links: ["a", "b"]
		}},
	]
}
`)
	require.NoError(t, err)
	f := def.Modules[0].Fields
	assert.Equal(t, fields.Int(3), f["count"])
	assert.Equal(t, fields.Float(0.5), f["weight"])
	assert.Equal(t, fields.Ref("root"), f["anchor"])
	assert.Equal(t, fields.RefList{"a", "b"}, f["links"])
}

func TestCompileRig_Diagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "missing rig struct",
			src:  `other: {}`,
			want: "rig struct is required",
		},
		{
			name: "missing name",
			src:  `rig: {modules: [{name: "m", type: "chain"}]}`,
			want: "rig name is required",
		},
		{
			name: "no modules",
			src:  `rig: {name: "r", modules: []}`,
			want: "at least one module",
		},
		{
			name: "module without type",
			src:  `rig: {name: "r", modules: [{name: "m"}]}`,
			want: "type is required",
		},
		{
			name: "duplicate module name",
			src:  `rig: {name: "r", modules: [{name: "m", type: "chain"}, {name: "m", type: "chain"}]}`,
			want: "duplicate module name",
		},
		{
			name: "boolean field value",
			src:  `rig: {name: "r", modules: [{name: "m", type: "chain", fields: {flag: true}}]}`,
			want: "unsupported field value",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(t, tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompileError_Formats(t *testing.T) {
	_, err := compile(t, `rig: {modules: [{name: "m", type: "chain"}]}`)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "name", ce.Field)
	assert.Contains(t, ce.Error(), "rig name is required")
}
