package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares the final scene snapshot
// against a golden file stored at testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Snapshot node order is creation order and all floats are rounded, so the
// comparison is byte-exact across runs and platforms. Golden files are the
// source of truth for what a construction sequence leaves in the scene.
//
// Returns an error if scenario execution or assertion evaluation fails;
// snapshot mismatches fail the test through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if !result.Pass {
		for _, msg := range result.Failures {
			t.Error(msg)
		}
	}

	data, err := json.MarshalIndent(result.Scene.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
