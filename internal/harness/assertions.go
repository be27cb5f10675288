package harness

import (
	"fmt"
	"math"

	"github.com/kmellet/rigkit/internal/scene"
)

// defaultTolerance is the attr assertion tolerance when within is unset.
const defaultTolerance = 1e-4

// EvaluateAssertions checks each assertion against the final state and
// returns one failure message per assertion that does not hold.
func EvaluateAssertions(result *Result, asserts []Assertion) []string {
	var failures []string
	for i, a := range asserts {
		if err := evaluateAssertion(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assert %d (%s): %v", i+1, a.Type, err))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion) error {
	sc := result.Scene
	switch a.Type {
	case AssertExists:
		if !sc.Exists(scene.NodeRef(a.Node)) {
			return fmt.Errorf("node %q does not exist", a.Node)
		}
	case AssertAbsent:
		if sc.Exists(scene.NodeRef(a.Node)) {
			return fmt.Errorf("node %q exists but was expected absent", a.Node)
		}
	case AssertParent:
		parent, err := sc.Parent(scene.NodeRef(a.Node))
		if err != nil {
			return err
		}
		if string(parent) != a.Parent {
			return fmt.Errorf("node %q has parent %q, expected %q", a.Node, parent, a.Parent)
		}
	case AssertJoints:
		m, ok := result.Rig.Module(a.Module)
		if !ok {
			return fmt.Errorf("unknown module %q", a.Module)
		}
		if got := len(m.DeformJoints()); got != a.Count {
			return fmt.Errorf("module %q has %d joint(s), expected %d", a.Module, got, a.Count)
		}
	case AssertAttr:
		got, err := sc.GetAttr(scene.NodeRef(a.Node).Attr(a.Attr))
		if err != nil {
			return err
		}
		within := a.Within
		if within == 0 {
			within = defaultTolerance
		}
		if math.Abs(got-a.Value) > within {
			return fmt.Errorf("%s.%s is %v, expected %v within %v", a.Node, a.Attr, got, a.Value, within)
		}
	case AssertProblems:
		problems := result.Rig.Check()
		if len(problems) != a.Count {
			return fmt.Errorf("rig reports %d problem(s), expected %d: %v", len(problems), a.Count, problems)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
