package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_ChainReconcileScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/chain_reconcile.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Empty(t, result.Failures)
	require.True(t, result.Pass)
}

func TestRun_CorrectiveAngleReaderScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/corrective_angle_reader.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Empty(t, result.Failures)
	require.True(t, result.Pass)
}

func TestRun_StepErrorAbortsScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "unknown_module",
		Description: "setting a field on a module that was never added",
		Steps: []Step{
			{Op: "set", Module: "ghost", Field: "chain_length", Value: 2},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	require.Contains(t, err.Error(), "step 1")
}

func TestRun_FailingStepMustFail(t *testing.T) {
	scenario := &Scenario{
		Name:        "expected_failure_succeeds",
		Description: "a fails step that succeeds is an execution error",
		Steps: []Step{
			{Op: "add_module", Type: "chain", Module: "spine"},
			{Op: "update", Fails: true},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected to fail")
}

func TestRun_FailingStepAccepted(t *testing.T) {
	scenario := &Scenario{
		Name:        "rejected_field_value",
		Description: "setting chain_length below its minimum fails as declared",
		Steps: []Step{
			{Op: "add_module", Type: "chain", Module: "spine"},
			{Op: "set", Module: "spine", Field: "chain_length", Value: 0, Fails: true},
			{Op: "update"},
		},
		Asserts: []Assertion{
			{Type: AssertJoints, Module: "spine", Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass)
}

func TestRun_AssertionFailuresCollected(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing_asserts",
		Description: "assertion failures mark the result failed without aborting",
		Steps: []Step{
			{Op: "add_module", Type: "chain", Module: "spine"},
			{Op: "update"},
		},
		Asserts: []Assertion{
			{Type: AssertExists, Node: "spine_deform_000"},
			{Type: AssertExists, Node: "no_such_node"},
			{Type: AssertJoints, Module: "spine", Count: 4},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.False(t, result.Pass)
	require.Len(t, result.Failures, 2)
	require.Contains(t, result.Failures[0], "no_such_node")
	require.Contains(t, result.Failures[1], "expected 4")
}

func TestRun_RotateAndSetAttrSteps(t *testing.T) {
	scenario := &Scenario{
		Name:        "pose_and_measure",
		Description: "rotate poses a control and set_attr writes scene attributes",
		Steps: []Step{
			{Op: "add_module", Type: "chain", Module: "spine"},
			{Op: "update"},
			{Op: "build"},
			{Op: "rotate", Node: "spine_deform_000_ctl", Axis: "y", Degrees: 45},
			{Op: "set_attr", Node: "spine_deform_000", Attr: "stretch", Value: 1.5},
			{Op: "evaluate"},
		},
		Asserts: []Assertion{
			{Type: AssertAttr, Node: "spine_deform_000", Attr: "stretch", Value: 1.5},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass)
}
