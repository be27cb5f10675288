package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRig = `
rig: {
	name: "biped"
	modules: [
		{name: "spine", type: "chain", fields: {chain_length: 3}},
		{name: "cheek", type: "corrective", parent: "spine_deform_001"},
	]
}
`

func writeRigFile(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rig.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand_ValidFile(t *testing.T) {
	path := writeRigFile(t, sampleRig)
	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "valid")
}

func TestValidateCommand_JSONOutput(t *testing.T) {
	path := writeRigFile(t, sampleRig)
	out, err := execute(t, "validate", "--format", "json", path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidateCommand_CompileErrorFailsWithExitCode(t *testing.T) {
	path := writeRigFile(t, `rig: {modules: []}`)
	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error")
}

func TestValidateCommand_UnknownModuleType(t *testing.T) {
	path := writeRigFile(t, `
rig: {
	name: "r"
	modules: [{name: "m", type: "no-such-type"}]
}
`)
	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "unknown type")
}

func TestValidateCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBuildCommand_SavesAndInspects(t *testing.T) {
	path := writeRigFile(t, sampleRig)
	dbPath := filepath.Join(t.TempDir(), "rig.db")

	out, err := execute(t, "build", path, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "biped")

	out, err = execute(t, "inspect", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "biped")

	out, err = execute(t, "inspect", "--db", dbPath, "biped")
	require.NoError(t, err)
	assert.Contains(t, out, "spine (chain): 3 joint(s)")
	assert.Contains(t, out, "cheek (corrective)")
	assert.NotContains(t, out, "problem")
}

func TestBuildCommand_WritesSceneSnapshot(t *testing.T) {
	path := writeRigFile(t, sampleRig)
	outPath := filepath.Join(t.TempDir(), "scene.json")

	_, err := execute(t, "build", path, "-o", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var snap map[string]any
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Contains(t, snap, "nodes")
}

func TestBuildCommand_InvalidFieldFails(t *testing.T) {
	path := writeRigFile(t, `
rig: {
	name: "r"
	modules: [{name: "m", type: "chain", fields: {chain_length: 0}}]
}
`)
	out, err := execute(t, "build", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error")
}

func TestInspectCommand_UnknownRig(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rig.db")
	_, err := execute(t, "build", writeRigFile(t, sampleRig), "--db", dbPath)
	require.NoError(t, err)

	_, err = execute(t, "inspect", "--db", dbPath, "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootCommand_RejectsBadFormat(t *testing.T) {
	_, err := execute(t, "validate", "--format", "yaml", "whatever.cue")
	require.Error(t, err)
}

func TestOutputFormatter_GetErrWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Writer: &out, ErrWriter: &errOut}
	assert.Same(t, &errOut, f.GetErrWriter())

	f = &OutputFormatter{Writer: &out}
	assert.Same(t, &out, f.GetErrWriter())
}

func TestBuildCommand_VerboseKeepsJSONOutputClean(t *testing.T) {
	path := writeRigFile(t, sampleRig)
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"build", "--verbose", "--format", "json", path})
	require.NoError(t, cmd.Execute())

	// Build diagnostics go to stderr, so stdout stays a single JSON document.
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}
