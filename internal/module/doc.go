// Package module defines the rig-module abstraction: a named, configurable
// unit of rig construction with the lifecycle initialize, update, build,
// publish.
//
// A module owns an ordered list of deform joints and reconciles that list
// against its declarative fields on every Update. Build then generates the
// transient control and utility-node network from the stable joint list.
// Cross-module references (one module's joints parenting another's) are weak:
// they are stored as stable joint names and resolved through the owning rig's
// registry, never held as raw scene handles.
//
// Concrete module types register themselves with Register and are
// instantiated by type name, typically from a compiled rig definition.
package module
