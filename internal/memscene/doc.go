// Package memscene is an in-memory scene.Adapter.
//
// It backs every test in this repository and the CLI's dry-run builds. On
// top of the plain mutation surface it can do three things a host binding
// would not need:
//
//   - Evaluate: propagate constraints and utility-node connections to a
//     fixpoint, so a built wiring topology can be executed and asserted on.
//   - Snapshot/Restore: serialize the whole scene to stable JSON and load it
//     back, which is how a saved document round-trips through the store.
//   - Stats: count structural mutations, which is how reconciliation
//     idempotence is asserted.
//
// The scene is deliberately not safe for concurrent use; the reconciliation
// engine is its sole mutator, per its exclusive-access contract.
package memscene
