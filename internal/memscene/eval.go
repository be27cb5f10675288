package memscene

import (
	"fmt"
	"math"

	"github.com/kmellet/rigkit/internal/scene"
)

// vectorAttrsByType lists, per node type, the attribute names that address
// three components at once. Connecting two of them connects X, Y and Z
// pairwise. The scalar-multiply node is absent on purpose: its input1,
// input2 and output are single values.
var vectorAttrsByType = map[scene.NodeType]map[string]bool{
	scene.NodeSubtractVector: {"input1": true, "input2": true, "output": true},
	scene.NodeMultiplyDivide: {"input1": true, "input2": true, "output": true},
	scene.NodeAngleBetween:   {"vector1": true, "vector2": true, "axis": true},
	scene.NodeCondition:      {"colorIfTrue": true, "colorIfFalse": true, "outColor": true},
	scene.NodeTransform:      {"translate": true},
	scene.NodeJoint:          {"translate": true},
	scene.NodeLocator:        {"translate": true},
	scene.NodeControl:        {"translate": true},
}

var components = []string{"X", "Y", "Z"}

func isVectorAttr(typ scene.NodeType, name string) bool {
	return vectorAttrsByType[typ][name]
}

// Connect implements scene.Adapter. Vector attributes expand to their three
// components; a vector cannot be connected to a scalar.
func (s *Scene) Connect(src, dst scene.Attr) error {
	srcNode, err := s.node(src.Node)
	if err != nil {
		return err
	}
	dstNode, err := s.node(dst.Node)
	if err != nil {
		return err
	}
	srcVec, dstVec := isVectorAttr(srcNode.typ, src.Name), isVectorAttr(dstNode.typ, dst.Name)
	if srcVec != dstVec {
		return fmt.Errorf("memscene: cannot connect %s to %s: vector/scalar mismatch", src, dst)
	}
	if srcVec {
		for _, c := range components {
			s.connections = append(s.connections, connection{
				src: src.Node.Attr(src.Name + c),
				dst: dst.Node.Attr(dst.Name + c),
			})
		}
	} else {
		s.connections = append(s.connections, connection{src: src, dst: dst})
	}
	s.stats.Connects++
	return nil
}

func isTransformType(t scene.NodeType) bool {
	switch t {
	case scene.NodeTransform, scene.NodeJoint, scene.NodeLocator, scene.NodeControl:
		return true
	}
	return false
}

// transformAttr serves translate components of transform-family nodes from
// their constraint-aware local transform.
func (s *Scene) transformAttr(n *node, name string) (float64, bool, error) {
	if !isTransformType(n.typ) {
		return 0, false, nil
	}
	var axis scene.Axis
	switch name {
	case "translateX":
		axis = scene.AxisX
	case "translateY":
		axis = scene.AxisY
	case "translateZ":
		axis = scene.AxisZ
	default:
		return 0, false, nil
	}
	local, err := s.effectiveLocal(n)
	if err != nil {
		return 0, false, err
	}
	switch axis {
	case scene.AxisX:
		return float64(local.Pos.X), true, nil
	case scene.AxisY:
		return float64(local.Pos.Y), true, nil
	default:
		return float64(local.Pos.Z), true, nil
	}
}

// effectiveLocal is the node's local transform with constraints applied.
func (s *Scene) effectiveLocal(n *node) (scene.Transform, error) {
	world, err := s.worldOf(n.ref, 0)
	if err != nil {
		return scene.Transform{}, err
	}
	if !n.inherits || n.parent == scene.None {
		return world, nil
	}
	parentWorld, err := s.worldOf(n.parent, 0)
	if err != nil {
		return scene.Transform{}, err
	}
	return world.RelativeTo(parentWorld), nil
}

const (
	maxEvalPasses = 64
	evalEpsilon   = 1e-9
)

// Evaluate propagates constraints and connections until values stop
// changing. Utility-node outputs and connection-driven translations are
// current afterwards. The network built by modules is acyclic, so the
// fixpoint is reached in a handful of passes; a cycle fails the pass limit.
func (s *Scene) Evaluate() error {
	for pass := 0; pass < maxEvalPasses; pass++ {
		changed := false
		for _, ref := range s.order {
			if s.computeOutputs(s.nodes[ref]) {
				changed = true
			}
		}
		for _, c := range s.connections {
			v, err := s.GetAttr(c.src)
			if err != nil {
				return err
			}
			did, err := s.writeAttr(c.dst, v)
			if err != nil {
				return err
			}
			if did {
				changed = true
			}
		}
		if !changed {
			return nil
		}
	}
	return fmt.Errorf("memscene: evaluation did not converge after %d passes", maxEvalPasses)
}

// writeAttr stores a propagated value, steering translate components of
// transform nodes into their local transform.
func (s *Scene) writeAttr(a scene.Attr, v float64) (bool, error) {
	n, err := s.node(a.Node)
	if err != nil {
		return false, err
	}
	if isTransformType(n.typ) {
		switch a.Name {
		case "translateX":
			return updateF32(&n.local.Pos.X, v), nil
		case "translateY":
			return updateF32(&n.local.Pos.Y, v), nil
		case "translateZ":
			return updateF32(&n.local.Pos.Z, v), nil
		}
	}
	old, had := n.attrs[a.Name]
	if had && math.Abs(old-v) <= evalEpsilon {
		return false, nil
	}
	n.attrs[a.Name] = v
	return true, nil
}

func updateF32(dst *float32, v float64) bool {
	nv := float32(v)
	if math.Abs(float64(*dst-nv)) <= evalEpsilon {
		return false
	}
	*dst = nv
	return true
}

// computeOutputs refreshes a utility node's outputs from its current
// inputs. Reports whether any output changed.
func (s *Scene) computeOutputs(n *node) bool {
	switch n.typ {
	case scene.NodeSubtractVector:
		in1, in2 := s.vec(n, "input1"), s.vec(n, "input2")
		return s.setVec(n, "output", in1[0]-in2[0], in1[1]-in2[1], in1[2]-in2[2])
	case scene.NodeMultiplyDivide:
		in1, in2 := s.vec(n, "input1"), s.vec(n, "input2")
		var out [3]float64
		if n.attrs["operation"] == scene.OpDivide {
			for i := range out {
				if in2[i] != 0 {
					out[i] = in1[i] / in2[i]
				}
			}
		} else {
			for i := range out {
				out[i] = in1[i] * in2[i]
			}
		}
		return s.setVec(n, "output", out[0], out[1], out[2])
	case scene.NodeMultiplyScalar:
		return s.setScalar(n, "output", n.attrs["input1"]*n.attrs["input2"])
	case scene.NodeAngleBetween:
		return s.computeAngleBetween(n)
	case scene.NodeCondition:
		return s.computeCondition(n)
	}
	return false
}

func (s *Scene) computeAngleBetween(n *node) bool {
	v1, v2 := s.vec(n, "vector1"), s.vec(n, "vector2")
	l1 := math.Sqrt(v1[0]*v1[0] + v1[1]*v1[1] + v1[2]*v1[2])
	l2 := math.Sqrt(v2[0]*v2[0] + v2[1]*v2[1] + v2[2]*v2[2])
	changed := false
	if l1 == 0 || l2 == 0 {
		changed = s.setScalar(n, "angle", 0) || changed
		return s.setVec(n, "axis", 0, 0, 0) || changed
	}
	dot := (v1[0]*v2[0] + v1[1]*v2[1] + v1[2]*v2[2]) / (l1 * l2)
	dot = math.Max(-1, math.Min(1, dot))
	angle := math.Acos(dot) * 180 / math.Pi
	cross := [3]float64{
		v1[1]*v2[2] - v1[2]*v2[1],
		v1[2]*v2[0] - v1[0]*v2[2],
		v1[0]*v2[1] - v1[1]*v2[0],
	}
	cl := math.Sqrt(cross[0]*cross[0] + cross[1]*cross[1] + cross[2]*cross[2])
	if cl > 0 {
		cross[0] /= cl
		cross[1] /= cl
		cross[2] /= cl
	}
	changed = s.setScalar(n, "angle", angle) || changed
	return s.setVec(n, "axis", cross[0], cross[1], cross[2]) || changed
}

func (s *Scene) computeCondition(n *node) bool {
	first, second := n.attrs["firstTerm"], n.attrs["secondTerm"]
	var pass bool
	switch n.attrs["operation"] {
	case scene.OpGreaterOrEqual:
		pass = first >= second
	default: // OpEqual, the host default
		pass = math.Abs(first-second) <= evalEpsilon
	}
	src := "colorIfFalse"
	if pass {
		src = "colorIfTrue"
	}
	v := s.vec(n, src)
	return s.setVec(n, "outColor", v[0], v[1], v[2])
}

func (s *Scene) vec(n *node, name string) [3]float64 {
	return [3]float64{
		n.attrs[name+"X"],
		n.attrs[name+"Y"],
		n.attrs[name+"Z"],
	}
}

func (s *Scene) setVec(n *node, name string, x, y, z float64) bool {
	changed := s.setScalar(n, name+"X", x)
	changed = s.setScalar(n, name+"Y", y) || changed
	return s.setScalar(n, name+"Z", z) || changed
}

func (s *Scene) setScalar(n *node, name string, v float64) bool {
	old, had := n.attrs[name]
	if had && math.Abs(old-v) <= evalEpsilon {
		return false
	}
	n.attrs[name] = v
	return true
}
