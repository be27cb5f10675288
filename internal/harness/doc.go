// Package harness provides a scenario-driven conformance layer for the rig
// engine.
//
// A scenario is a YAML file describing a construction session against a
// fresh in-memory scene: which modules to add, which fields to set, when to
// run the reconcile and build passes, and what the resulting scene graph
// must look like.
//
// # Scenario Format
//
//	name: chain_reconcile
//	description: "Chain grows and shrinks with chain_length"
//	steps:
//	  - op: add_module
//	    type: chain
//	    module: spine
//	  - op: set
//	    module: spine
//	    field: chain_length
//	    value: 3
//	  - op: update
//	  - op: build
//	asserts:
//	  - type: exists
//	    node: spine_deform_002
//	  - type: joints
//	    module: spine
//	    count: 3
//
// # Step Ops
//
// The following step ops are supported:
//
//   - add_module: add a module of the given type and name, optionally with
//     a parent joint
//   - set: set a module field value
//   - update: run the rig's reconcile pass
//   - build: run a full build (clears previous build output first)
//   - publish: run the publish pass
//   - set_attr: write a scalar scene attribute
//   - rotate: orient a node about a world axis by the given degrees
//   - evaluate: propagate node-network values through the scene
//
// A step with fails: true must return an error; every other step must
// succeed.
//
// # Assertion Types
//
//   - exists / absent: node presence
//   - parent: a node's scene parent
//   - joints: a module's deform joint count
//   - attr: a scalar attribute value within a tolerance
//   - problems: the number of dangling parent-joint references
//
// # Deterministic Snapshots
//
// Every scenario runs against a fresh memscene, and node names are derived
// from the construction sequence alone, so the same scenario always
// produces a byte-identical scene snapshot. RunWithGolden leans on this to
// compare the final snapshot against a golden file.
package harness
