package nodegraph

import (
	"fmt"

	"github.com/kmellet/rigkit/internal/scene"
)

// Endpoint addresses an attribute of either a graph-local node (Key set) or
// an existing scene node (Ref set). Exactly one of Key and Ref is non-empty.
type Endpoint struct {
	Key  string
	Ref  scene.NodeRef
	Attr string
}

// Local addresses an attribute of a node declared in this graph.
func Local(key, attr string) Endpoint { return Endpoint{Key: key, Attr: attr} }

// Ext addresses an attribute of an existing scene node.
func Ext(ref scene.NodeRef, attr string) Endpoint { return Endpoint{Ref: ref, Attr: attr} }

// NodeDecl declares one node to create.
type NodeDecl struct {
	Key      string
	Type     scene.NodeType
	NameHint string
}

// SetOp assigns a constant to an attribute.
type SetOp struct {
	Target Endpoint
	Value  float64
}

// Connection declares live value propagation from Src to Dst.
type Connection struct {
	Src, Dst Endpoint
}

// CustomAttrDecl declares a custom attribute on an existing scene node.
type CustomAttrDecl struct {
	Ref  scene.NodeRef
	Name string
	Spec scene.CustomAttrSpec
}

// LockOp locks an attribute against manual edits.
type LockOp struct {
	Target Endpoint
}

// Graph is an ordered description of a utility-node network.
type Graph struct {
	nodes       []NodeDecl
	keys        map[string]bool
	sets        []SetOp
	customAttrs []CustomAttrDecl
	connections []Connection
	locks       []LockOp
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{keys: make(map[string]bool)}
}

// Node declares a node under key. Keys must be unique within the graph;
// a duplicate key panics, as graph assembly is programmatic.
func (g *Graph) Node(key string, typ scene.NodeType, nameHint string) {
	if g.keys[key] {
		panic(fmt.Sprintf("nodegraph: duplicate node key %q", key))
	}
	g.keys[key] = true
	g.nodes = append(g.nodes, NodeDecl{Key: key, Type: typ, NameHint: nameHint})
}

// Set assigns a constant attribute value.
func (g *Graph) Set(target Endpoint, value float64) {
	g.sets = append(g.sets, SetOp{Target: target, Value: value})
}

// CustomAttr declares a custom attribute on an existing scene node.
func (g *Graph) CustomAttr(ref scene.NodeRef, name string, spec scene.CustomAttrSpec) {
	g.customAttrs = append(g.customAttrs, CustomAttrDecl{Ref: ref, Name: name, Spec: spec})
}

// Connect declares a connection from src to dst.
func (g *Graph) Connect(src, dst Endpoint) {
	g.connections = append(g.connections, Connection{Src: src, Dst: dst})
}

// Lock locks an attribute against manual edits.
func (g *Graph) Lock(target Endpoint) {
	g.locks = append(g.locks, LockOp{Target: target})
}

// Nodes returns the declared nodes in declaration order.
func (g *Graph) Nodes() []NodeDecl { return g.nodes }

// Connections returns the declared connections in declaration order.
func (g *Graph) Connections() []Connection { return g.connections }

// Apply replays the description against sc: node creation, then constant
// sets, custom attributes, connections, and locks. It returns the refs of
// the created nodes by key.
//
// Errors from the adapter propagate unchanged; a failure midway leaves a
// partially constructed network that the next successful build replaces.
func (g *Graph) Apply(sc scene.Adapter) (map[string]scene.NodeRef, error) {
	refs := make(map[string]scene.NodeRef, len(g.nodes))
	for _, n := range g.nodes {
		ref, err := sc.CreateNode(n.Type, n.NameHint)
		if err != nil {
			return nil, err
		}
		refs[n.Key] = ref
	}
	resolve := func(ep Endpoint) (scene.Attr, error) {
		if ep.Key != "" {
			ref, ok := refs[ep.Key]
			if !ok {
				return scene.Attr{}, fmt.Errorf("nodegraph: endpoint references unknown key %q", ep.Key)
			}
			return ref.Attr(ep.Attr), nil
		}
		return ep.Ref.Attr(ep.Attr), nil
	}
	for _, op := range g.sets {
		a, err := resolve(op.Target)
		if err != nil {
			return nil, err
		}
		if err := sc.SetAttr(a, op.Value); err != nil {
			return nil, err
		}
	}
	for _, ca := range g.customAttrs {
		if err := sc.AddCustomAttr(ca.Ref, ca.Name, ca.Spec); err != nil {
			return nil, err
		}
	}
	for _, c := range g.connections {
		src, err := resolve(c.Src)
		if err != nil {
			return nil, err
		}
		dst, err := resolve(c.Dst)
		if err != nil {
			return nil, err
		}
		if err := sc.Connect(src, dst); err != nil {
			return nil, err
		}
	}
	for _, l := range g.locks {
		a, err := resolve(l.Target)
		if err != nil {
			return nil, err
		}
		if err := sc.LockAttr(a); err != nil {
			return nil, err
		}
	}
	return refs, nil
}
