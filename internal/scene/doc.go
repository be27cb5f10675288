// Package scene defines the narrow surface through which rig construction
// talks to a host scene graph.
//
// The engine never assumes anything about the host beyond this interface: it
// creates nodes, parents them, sets and queries transforms, connects
// attributes and establishes constraints. Node types are named capabilities
// (a "condition" node selects between two vectors), not literal host APIs.
//
// The in-memory implementation lives in package memscene; a binding to a
// real host would implement Adapter against that host's commands.
package scene
