// Package rig owns a set of modules and orchestrates their lifecycle
// against one scene graph.
//
// The rig holds the module list in declaration order, the registry of
// stable joint names, and the three container groups every module builds
// into. Update runs reconciliation module by module; Build clears the
// previous build output and rebuilds in dependency order, so a module whose
// parent joint belongs to another module always builds after its provider.
//
// Everything here is single-threaded and synchronous: the rig is the sole
// scene mutator for the duration of any lifecycle call.
package rig
