package memscene

import (
	"fmt"
	"slices"

	"github.com/kmellet/rigkit/internal/scene"
)

type constraintKind string

const (
	constraintRigid    constraintKind = "rigid"
	constraintPosition constraintKind = "position"
)

type node struct {
	ref      scene.NodeRef
	typ      scene.NodeType
	parent   scene.NodeRef
	children []scene.NodeRef
	local    scene.Transform
	inherits bool

	// attrs holds every explicitly set or computed scalar attribute.
	attrs map[string]float64
	// set tracks which attrs were explicitly set, for snapshots.
	set    map[string]bool
	custom map[string]scene.CustomAttrSpec
	locked map[string]bool
}

type connection struct {
	src, dst scene.Attr
}

type constraint struct {
	kind   constraintKind
	driver scene.NodeRef
	driven scene.NodeRef
	offset scene.Transform
}

// Stats counts structural mutations since the last ResetStats.
type Stats struct {
	Creates   int
	Deletes   int
	Reparents int
	Connects  int
}

// Scene is an in-memory scene graph. The zero value is not usable; use New.
type Scene struct {
	nodes       map[scene.NodeRef]*node
	order       []scene.NodeRef
	names       *namer
	connections []connection
	constraints []constraint
	stats       Stats
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{
		nodes: make(map[scene.NodeRef]*node),
		names: newNamer(),
	}
}

// Stats returns the mutation counters.
func (s *Scene) Stats() Stats { return s.stats }

// ResetStats zeroes the mutation counters.
func (s *Scene) ResetStats() { s.stats = Stats{} }

func (s *Scene) node(ref scene.NodeRef) (*node, error) {
	n, ok := s.nodes[ref]
	if !ok {
		return nil, fmt.Errorf("memscene: no node %q", ref)
	}
	return n, nil
}

// CreateNode implements scene.Adapter.
func (s *Scene) CreateNode(typ scene.NodeType, nameHint string) (scene.NodeRef, error) {
	name := s.names.claim(nameHint)
	n := &node{
		ref:      scene.NodeRef(name),
		typ:      typ,
		inherits: true,
		local:    scene.Identity(),
		attrs:    make(map[string]float64),
		set:      make(map[string]bool),
		custom:   make(map[string]scene.CustomAttrSpec),
		locked:   make(map[string]bool),
	}
	s.nodes[n.ref] = n
	s.order = append(s.order, n.ref)
	s.stats.Creates++
	return n.ref, nil
}

// Exists implements scene.Adapter.
func (s *Scene) Exists(ref scene.NodeRef) bool {
	_, ok := s.nodes[ref]
	return ok
}

// DeleteNodes implements scene.Adapter. Children are deleted with their
// ancestors; connections and constraints touching any deleted node go too.
func (s *Scene) DeleteNodes(refs []scene.NodeRef) error {
	doomed := make(map[scene.NodeRef]bool)
	var mark func(ref scene.NodeRef) error
	mark = func(ref scene.NodeRef) error {
		n, err := s.node(ref)
		if err != nil {
			return err
		}
		doomed[ref] = true
		for _, c := range slices.Clone(n.children) {
			if err := mark(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, ref := range refs {
		if doomed[ref] {
			continue
		}
		if err := mark(ref); err != nil {
			return err
		}
	}
	for ref := range doomed {
		n := s.nodes[ref]
		if n.parent != scene.None && !doomed[n.parent] {
			s.detachChild(n.parent, ref)
		}
		delete(s.nodes, ref)
		s.names.release(string(ref))
		s.stats.Deletes++
	}
	s.order = slices.DeleteFunc(s.order, func(r scene.NodeRef) bool { return doomed[r] })
	s.connections = slices.DeleteFunc(s.connections, func(c connection) bool {
		return doomed[c.src.Node] || doomed[c.dst.Node]
	})
	s.constraints = slices.DeleteFunc(s.constraints, func(c constraint) bool {
		return doomed[c.driver] || doomed[c.driven]
	})
	return nil
}

func (s *Scene) detachChild(parent, child scene.NodeRef) {
	p := s.nodes[parent]
	p.children = slices.DeleteFunc(p.children, func(r scene.NodeRef) bool { return r == child })
}

// Parent implements scene.Adapter.
func (s *Scene) Parent(ref scene.NodeRef) (scene.NodeRef, error) {
	n, err := s.node(ref)
	if err != nil {
		return scene.None, err
	}
	return n.parent, nil
}

// Reparent implements scene.Adapter, preserving the child's world transform.
func (s *Scene) Reparent(child, newParent scene.NodeRef) error {
	n, err := s.node(child)
	if err != nil {
		return err
	}
	if newParent != scene.None {
		if _, err := s.node(newParent); err != nil {
			return err
		}
		for p := newParent; p != scene.None; p = s.nodes[p].parent {
			if p == child {
				return fmt.Errorf("memscene: reparent %q under its descendant %q", child, newParent)
			}
		}
	}
	if n.parent == newParent {
		return nil
	}
	world, err := s.WorldTransform(child)
	if err != nil {
		return err
	}
	if n.parent != scene.None {
		s.detachChild(n.parent, child)
	}
	n.parent = newParent
	if newParent != scene.None {
		s.nodes[newParent].children = append(s.nodes[newParent].children, child)
	}
	s.stats.Reparents++
	return s.SetWorldTransform(child, world)
}

// WorldTransform implements scene.Adapter. Constraints and the
// inheritsTransform flag are taken into account.
func (s *Scene) WorldTransform(ref scene.NodeRef) (scene.Transform, error) {
	if _, err := s.node(ref); err != nil {
		return scene.Transform{}, err
	}
	return s.worldOf(ref, 0)
}

const maxDepth = 256

func (s *Scene) worldOf(ref scene.NodeRef, depth int) (scene.Transform, error) {
	if depth > maxDepth {
		return scene.Transform{}, fmt.Errorf("memscene: transform cycle at %q", ref)
	}
	n := s.nodes[ref]

	// Last constraint on a node wins, matching host behavior where a new
	// constraint replaces the previous driver.
	var active *constraint
	for i := range s.constraints {
		if s.constraints[i].driven == ref {
			active = &s.constraints[i]
		}
	}
	if active != nil {
		driverWorld, err := s.worldOf(active.driver, depth+1)
		if err != nil {
			return scene.Transform{}, err
		}
		switch active.kind {
		case constraintRigid:
			return driverWorld.Mul(active.offset), nil
		case constraintPosition:
			t, err := s.unconstrainedWorld(n, depth)
			if err != nil {
				return scene.Transform{}, err
			}
			t.Pos = driverWorld.Pos
			return t, nil
		}
	}
	return s.unconstrainedWorld(n, depth)
}

func (s *Scene) unconstrainedWorld(n *node, depth int) (scene.Transform, error) {
	if !n.inherits || n.parent == scene.None {
		return n.local, nil
	}
	parentWorld, err := s.worldOf(n.parent, depth+1)
	if err != nil {
		return scene.Transform{}, err
	}
	return parentWorld.Mul(n.local), nil
}

// SetWorldTransform implements scene.Adapter.
func (s *Scene) SetWorldTransform(ref scene.NodeRef, t scene.Transform) error {
	n, err := s.node(ref)
	if err != nil {
		return err
	}
	if !n.inherits || n.parent == scene.None {
		n.local = t
		return nil
	}
	parentWorld, err := s.worldOf(n.parent, 0)
	if err != nil {
		return err
	}
	n.local = t.RelativeTo(parentWorld)
	return nil
}

// SetLocalTranslation implements scene.Adapter.
func (s *Scene) SetLocalTranslation(ref scene.NodeRef, axis scene.Axis, value float32) error {
	n, err := s.node(ref)
	if err != nil {
		return err
	}
	switch axis {
	case scene.AxisX:
		n.local.Pos.X = value
	case scene.AxisY:
		n.local.Pos.Y = value
	case scene.AxisZ:
		n.local.Pos.Z = value
	}
	return nil
}

// SetAttr implements scene.Adapter. Setting inheritsTransform to zero makes
// the node ignore its parent's transform while keeping the hierarchy.
func (s *Scene) SetAttr(a scene.Attr, value float64) error {
	n, err := s.node(a.Node)
	if err != nil {
		return err
	}
	if a.Name == "inheritsTransform" {
		n.inherits = value != 0
		return nil
	}
	n.attrs[a.Name] = value
	n.set[a.Name] = true
	return nil
}

// GetAttr implements scene.Adapter. Utility-node outputs are only current
// after Evaluate.
func (s *Scene) GetAttr(a scene.Attr) (float64, error) {
	n, err := s.node(a.Node)
	if err != nil {
		return 0, err
	}
	if v, ok, err := s.transformAttr(n, a.Name); err != nil {
		return 0, err
	} else if ok {
		return v, nil
	}
	return n.attrs[a.Name], nil
}

// AddCustomAttr implements scene.Adapter.
func (s *Scene) AddCustomAttr(ref scene.NodeRef, name string, spec scene.CustomAttrSpec) error {
	n, err := s.node(ref)
	if err != nil {
		return err
	}
	if _, exists := n.custom[name]; exists {
		return fmt.Errorf("memscene: node %q already has attribute %q", ref, name)
	}
	n.custom[name] = spec
	return nil
}

// LockAttr implements scene.Adapter.
func (s *Scene) LockAttr(a scene.Attr) error {
	n, err := s.node(a.Node)
	if err != nil {
		return err
	}
	n.locked[a.Name] = true
	return nil
}

// Locked reports whether an attribute was locked; used by tests.
func (s *Scene) Locked(a scene.Attr) bool {
	n, ok := s.nodes[a.Node]
	return ok && n.locked[a.Name]
}

// ConstrainRigid implements scene.Adapter.
func (s *Scene) ConstrainRigid(driver, driven scene.NodeRef, maintainOffset bool) error {
	if _, err := s.node(driver); err != nil {
		return err
	}
	if _, err := s.node(driven); err != nil {
		return err
	}
	offset := scene.Identity()
	if maintainOffset {
		driverWorld, err := s.WorldTransform(driver)
		if err != nil {
			return err
		}
		drivenWorld, err := s.WorldTransform(driven)
		if err != nil {
			return err
		}
		offset = drivenWorld.RelativeTo(driverWorld)
	}
	s.constraints = append(s.constraints, constraint{
		kind:   constraintRigid,
		driver: driver,
		driven: driven,
		offset: offset,
	})
	return nil
}

// ConstrainPosition implements scene.Adapter.
func (s *Scene) ConstrainPosition(driver, driven scene.NodeRef) error {
	if _, err := s.node(driver); err != nil {
		return err
	}
	if _, err := s.node(driven); err != nil {
		return err
	}
	s.constraints = append(s.constraints, constraint{
		kind:   constraintPosition,
		driver: driver,
		driven: driven,
	})
	return nil
}
