package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/chain_reconcile.yaml")
	require.NoError(t, err)

	require.Equal(t, "chain_reconcile", scenario.Name)
	require.NotEmpty(t, scenario.Description)
	require.Len(t, scenario.Steps, 7)
	require.Equal(t, "add_module", scenario.Steps[0].Op)
	require.Equal(t, "chain", scenario.Steps[0].Type)
	require.NotEmpty(t, scenario.Asserts)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/no_such_scenario.yaml")
	require.Error(t, err)
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	// "assertions" is a typo for "asserts" and must be rejected.
	path := writeScenarioFile(t, `
name: typo
description: "unknown top-level key"
steps:
  - op: update
assertions:
  - type: problems
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestLoadScenario_Diagnostics(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nsteps:\n  - op: update\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nsteps:\n  - op: update\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "unknown op",
			content: "name: n\ndescription: d\nsteps:\n  - op: reticulate\n",
			wantErr: `unknown op "reticulate"`,
		},
		{
			name:    "add_module without type",
			content: "name: n\ndescription: d\nsteps:\n  - op: add_module\n    module: spine\n",
			wantErr: "add_module requires type and module",
		},
		{
			name:    "assertion without node",
			content: "name: n\ndescription: d\nsteps:\n  - op: update\nasserts:\n  - type: exists\n",
			wantErr: "exists requires node",
		},
		{
			name:    "unknown assertion type",
			content: "name: n\ndescription: d\nsteps:\n  - op: update\nasserts:\n  - type: snapshot\n",
			wantErr: `unknown assertion type "snapshot"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenarioFile(t, tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
