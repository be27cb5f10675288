package harness

import (
	"fmt"

	"cogentcore.org/core/math32"

	"github.com/kmellet/rigkit/internal/fields"
	"github.com/kmellet/rigkit/internal/memscene"
	"github.com/kmellet/rigkit/internal/rig"
	"github.com/kmellet/rigkit/internal/scene"
	"github.com/kmellet/rigkit/internal/testutil"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every step behaved as declared and
	// every assertion held.
	Pass bool

	// Failures lists assertion failure messages. Empty if Pass is true.
	Failures []string

	// Scene is the final scene, kept for golden comparison and for tests
	// that want to poke at the result directly.
	Scene *memscene.Scene

	// Rig is the rig built by the scenario.
	Rig *rig.Rig
}

// AddFailure records an assertion failure and marks the result as failed.
func (r *Result) AddFailure(msg string) {
	r.Failures = append(r.Failures, msg)
	r.Pass = false
}

// Run executes a scenario against a fresh in-memory scene and returns the
// result. Step errors are execution errors and abort the run; assertion
// failures are collected into the result.
//
// The rig logs to a discarded handler so scenario runs stay quiet under
// "go test".
func Run(scenario *Scenario) (*Result, error) {
	sc := memscene.New()
	r, err := rig.New(sc, rig.WithLogger(testutil.QuietLogger()))
	if err != nil {
		return nil, fmt.Errorf("harness: create rig: %w", err)
	}

	result := &Result{Pass: true, Scene: sc, Rig: r}
	for i, step := range scenario.Steps {
		err := executeStep(r, sc, step)
		switch {
		case step.Fails && err == nil:
			return nil, fmt.Errorf("harness: step %d (%s) was expected to fail but succeeded", i+1, step.Op)
		case !step.Fails && err != nil:
			return nil, fmt.Errorf("harness: step %d (%s): %w", i+1, step.Op, err)
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Asserts) {
		result.AddFailure(msg)
	}
	return result, nil
}

func executeStep(r *rig.Rig, sc *memscene.Scene, step Step) error {
	switch step.Op {
	case "add_module":
		m, err := r.AddModule(step.Type, step.Module)
		if err != nil {
			return err
		}
		if step.Parent != "" {
			return m.SetParentJoint(step.Parent)
		}
		return nil
	case "set":
		m, ok := r.Module(step.Module)
		if !ok {
			return fmt.Errorf("unknown module %q", step.Module)
		}
		v, err := fieldValue(step.Value)
		if err != nil {
			return fmt.Errorf("field %s: %w", step.Field, err)
		}
		return m.Fields().Set(step.Field, v)
	case "update":
		return r.Update()
	case "build":
		return r.Build()
	case "publish":
		return r.Publish()
	case "set_attr":
		v, ok := step.Value.(float64)
		if !ok {
			if i, isInt := step.Value.(int); isInt {
				v, ok = float64(i), true
			}
		}
		if !ok {
			return fmt.Errorf("set_attr %s.%s: value must be a number", step.Node, step.Attr)
		}
		return sc.SetAttr(scene.NodeRef(step.Node).Attr(step.Attr), v)
	case "rotate":
		return rotateNode(sc, step)
	case "evaluate":
		return sc.Evaluate()
	}
	return fmt.Errorf("unknown op %q", step.Op)
}

// rotateNode sets the node's world orientation to a rotation about one
// world axis, keeping its position. This is how scenarios pose controls
// before evaluating measurement networks.
func rotateNode(sc *memscene.Scene, step Step) error {
	var axis math32.Vector3
	switch step.Axis {
	case "x":
		axis = math32.Vec3(1, 0, 0)
	case "y":
		axis = math32.Vec3(0, 1, 0)
	case "z":
		axis = math32.Vec3(0, 0, 1)
	default:
		return fmt.Errorf("rotate %s: unknown axis %q", step.Node, step.Axis)
	}
	ref := scene.NodeRef(step.Node)
	world, err := sc.WorldTransform(ref)
	if err != nil {
		return err
	}
	world.Rot = math32.NewQuatAxisAngle(axis, math32.DegToRad(float32(step.Degrees)))
	return sc.SetWorldTransform(ref, world)
}

// fieldValue converts a YAML scalar into a typed field value, mirroring
// the compiler's CUE mapping: integers are int fields, floats are float
// fields, strings are references and string lists are reference lists.
func fieldValue(v any) (fields.Value, error) {
	switch val := v.(type) {
	case int:
		return fields.Int(val), nil
	case int64:
		return fields.Int(val), nil
	case float64:
		return fields.Float(val), nil
	case string:
		return fields.Ref(val), nil
	case []any:
		refs := make(fields.RefList, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("reference list items must be strings, got %T", item)
			}
			refs = append(refs, s)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
