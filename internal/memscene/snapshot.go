package memscene

import (
	"fmt"
	"math"
	"slices"

	"cogentcore.org/core/math32"

	"github.com/kmellet/rigkit/internal/scene"
)

// Snapshot is the serializable form of a whole scene. Node order is
// creation order, so identical construction sequences produce identical
// snapshots; floats are rounded so snapshots are stable across platforms.
type Snapshot struct {
	Nodes       []NodeSnapshot       `json:"nodes"`
	Connections []ConnectionSnapshot `json:"connections,omitempty"`
	Constraints []ConstraintSnapshot `json:"constraints,omitempty"`
}

// NodeSnapshot is one node's persisted state.
type NodeSnapshot struct {
	Name     string                          `json:"name"`
	Type     scene.NodeType                  `json:"type"`
	Parent   string                          `json:"parent,omitempty"`
	Local    *TransformSnapshot              `json:"local,omitempty"`
	Inherits *bool                           `json:"inherits,omitempty"`
	Attrs    map[string]float64              `json:"attrs,omitempty"`
	Custom   map[string]scene.CustomAttrSpec `json:"custom,omitempty"`
	Locked   []string                        `json:"locked,omitempty"`
}

// TransformSnapshot stores position and rotation quaternion (x, y, z, w).
type TransformSnapshot struct {
	Pos [3]float64 `json:"pos"`
	Rot [4]float64 `json:"rot"`
}

// ConnectionSnapshot stores one component-level attribute connection.
type ConnectionSnapshot struct {
	Src ConnectionEnd `json:"src"`
	Dst ConnectionEnd `json:"dst"`
}

// ConnectionEnd addresses a node attribute.
type ConnectionEnd struct {
	Node string `json:"node"`
	Attr string `json:"attr"`
}

// ConstraintSnapshot stores one constraint.
type ConstraintSnapshot struct {
	Kind   string             `json:"kind"`
	Driver string             `json:"driver"`
	Driven string             `json:"driven"`
	Offset *TransformSnapshot `json:"offset,omitempty"`
}

const snapshotPrecision = 1e6

func round(v float64) float64 {
	r := math.Round(v*snapshotPrecision) / snapshotPrecision
	if r == 0 {
		return 0 // normalize -0
	}
	return r
}

func snapTransform(t scene.Transform) *TransformSnapshot {
	ts := &TransformSnapshot{
		Pos: [3]float64{round(float64(t.Pos.X)), round(float64(t.Pos.Y)), round(float64(t.Pos.Z))},
		Rot: [4]float64{round(float64(t.Rot.X)), round(float64(t.Rot.Y)), round(float64(t.Rot.Z)), round(float64(t.Rot.W))},
	}
	identity := ts.Pos == [3]float64{} && ts.Rot == [4]float64{0, 0, 0, 1}
	if identity {
		return nil
	}
	return ts
}

func (ts *TransformSnapshot) transform() scene.Transform {
	if ts == nil {
		return scene.Identity()
	}
	return scene.Transform{
		Pos: math32.Vec3(float32(ts.Pos[0]), float32(ts.Pos[1]), float32(ts.Pos[2])),
		Rot: math32.Quat{
			X: float32(ts.Rot[0]), Y: float32(ts.Rot[1]),
			Z: float32(ts.Rot[2]), W: float32(ts.Rot[3]),
		},
	}
}

// Snapshot captures the scene's current state.
func (s *Scene) Snapshot() *Snapshot {
	snap := &Snapshot{}
	for _, ref := range s.order {
		n := s.nodes[ref]
		ns := NodeSnapshot{
			Name:   string(n.ref),
			Type:   n.typ,
			Parent: string(n.parent),
			Local:  snapTransform(n.local),
		}
		if !n.inherits {
			f := false
			ns.Inherits = &f
		}
		if len(n.set) > 0 {
			ns.Attrs = make(map[string]float64, len(n.set))
			for name := range n.set {
				ns.Attrs[name] = round(n.attrs[name])
			}
		}
		if len(n.custom) > 0 {
			ns.Custom = make(map[string]scene.CustomAttrSpec, len(n.custom))
			for name, spec := range n.custom {
				ns.Custom[name] = spec
			}
		}
		for name := range n.locked {
			ns.Locked = append(ns.Locked, name)
		}
		slices.Sort(ns.Locked)
		snap.Nodes = append(snap.Nodes, ns)
	}
	for _, c := range s.connections {
		snap.Connections = append(snap.Connections, ConnectionSnapshot{
			Src: ConnectionEnd{Node: string(c.src.Node), Attr: c.src.Name},
			Dst: ConnectionEnd{Node: string(c.dst.Node), Attr: c.dst.Name},
		})
	}
	for _, c := range s.constraints {
		cs := ConstraintSnapshot{
			Kind:   string(c.kind),
			Driver: string(c.driver),
			Driven: string(c.driven),
		}
		if c.kind == constraintRigid {
			if off := snapTransform(c.offset); off != nil {
				cs.Offset = off
			}
		}
		snap.Constraints = append(snap.Constraints, cs)
	}
	return snap
}

// Restore builds a scene from a snapshot. Parent links are assembled
// directly, so snapshot node order does not have to be topological.
func Restore(snap *Snapshot) (*Scene, error) {
	s := New()
	for _, ns := range snap.Nodes {
		if err := s.names.reserve(ns.Name); err != nil {
			return nil, err
		}
		n := &node{
			ref:      scene.NodeRef(ns.Name),
			typ:      ns.Type,
			inherits: ns.Inherits == nil || *ns.Inherits,
			local:    ns.Local.transform(),
			attrs:    make(map[string]float64),
			set:      make(map[string]bool),
			custom:   make(map[string]scene.CustomAttrSpec),
			locked:   make(map[string]bool),
		}
		for name, v := range ns.Attrs {
			n.attrs[name] = v
			n.set[name] = true
		}
		for name, spec := range ns.Custom {
			n.custom[name] = spec
		}
		for _, name := range ns.Locked {
			n.locked[name] = true
		}
		s.nodes[n.ref] = n
		s.order = append(s.order, n.ref)
	}
	for _, ns := range snap.Nodes {
		if ns.Parent == "" {
			continue
		}
		p, ok := s.nodes[scene.NodeRef(ns.Parent)]
		if !ok {
			return nil, fmt.Errorf("memscene: snapshot node %q has missing parent %q", ns.Name, ns.Parent)
		}
		n := s.nodes[scene.NodeRef(ns.Name)]
		n.parent = p.ref
		p.children = append(p.children, n.ref)
	}
	for _, c := range snap.Connections {
		s.connections = append(s.connections, connection{
			src: scene.NodeRef(c.Src.Node).Attr(c.Src.Attr),
			dst: scene.NodeRef(c.Dst.Node).Attr(c.Dst.Attr),
		})
	}
	for _, c := range snap.Constraints {
		s.constraints = append(s.constraints, constraint{
			kind:   constraintKind(c.Kind),
			driver: scene.NodeRef(c.Driver),
			driven: scene.NodeRef(c.Driven),
			offset: c.Offset.transform(),
		})
	}
	return s, nil
}
