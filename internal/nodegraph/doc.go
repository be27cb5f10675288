// Package nodegraph describes a utility-node network as plain data before it
// touches a scene graph.
//
// Module build code assembles a Graph: node declarations, constant attribute
// assignments, custom attribute declarations, connections and locks. Apply
// then replays the description against a scene.Adapter in a fixed order. The
// split lets tests assert on wiring topology without a live host, and keeps
// the build code free of interleaved adapter calls.
//
// Endpoints address either a node declared in the same graph (by key) or a
// pre-existing scene node (by ref).
package nodegraph
