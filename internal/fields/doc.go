// Package fields provides the typed, declarative attribute system that rig
// modules are configured through.
//
// A module type declares a Schema once: a set of named, typed, optionally
// bounded field descriptors. Every module instance gets its own Store holding
// the values for that schema. The store is the only thing persisted for a
// module; everything else a module owns is either re-derived (the joint list
// reconciliation) or transient (the build output).
//
// Setting a field never triggers module logic. Callers mutate fields and then
// invoke the module's Update themselves.
package fields
