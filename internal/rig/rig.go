package rig

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/kmellet/rigkit/internal/module"
	"github.com/kmellet/rigkit/internal/scene"
)

// Container group names, fixed so rehydration can find them again.
const (
	ControlsGroupName = "controls"
	ExtrasGroupName   = "extras"
	JointsGroupName   = "joints"
)

// Option configures a Rig.
type Option func(*Rig)

// WithLogger sets the rig's logger. The default discards nothing and logs
// through slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(r *Rig) { r.log = l }
}

// Rig owns modules and their shared scene containers.
type Rig struct {
	sc  scene.Adapter
	log *slog.Logger

	modules []module.Module
	byName  map[string]module.Module
	joints  map[string]string // joint name -> owning module name

	controls scene.NodeRef
	extras   scene.NodeRef
	jointsGr scene.NodeRef
}

// New creates an empty rig and its container groups in the scene.
func New(sc scene.Adapter, opts ...Option) (*Rig, error) {
	r := &Rig{
		sc:     sc,
		log:    slog.Default(),
		byName: make(map[string]module.Module),
		joints: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	var err error
	if r.controls, err = sc.CreateNode(scene.NodeTransform, ControlsGroupName); err != nil {
		return nil, err
	}
	if r.extras, err = sc.CreateNode(scene.NodeTransform, ExtrasGroupName); err != nil {
		return nil, err
	}
	if r.jointsGr, err = sc.CreateNode(scene.NodeTransform, JointsGroupName); err != nil {
		return nil, err
	}
	return r, nil
}

// Rehydrate attaches a rig to a scene that already contains its container
// groups, typically one restored from a saved document. Modules are added
// afterwards with AttachModule; Initialize is not called on them.
func Rehydrate(sc scene.Adapter, opts ...Option) (*Rig, error) {
	r := &Rig{
		sc:     sc,
		log:    slog.Default(),
		byName: make(map[string]module.Module),
		joints: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, name := range []string{ControlsGroupName, ExtrasGroupName, JointsGroupName} {
		if !sc.Exists(scene.NodeRef(name)) {
			return nil, fmt.Errorf("rig: scene has no %q group; not a saved rig scene", name)
		}
	}
	r.controls = scene.NodeRef(ControlsGroupName)
	r.extras = scene.NodeRef(ExtrasGroupName)
	r.jointsGr = scene.NodeRef(JointsGroupName)
	return r, nil
}

// Scene implements module.Owner.
func (r *Rig) Scene() scene.Adapter { return r.sc }

// Logger implements module.Owner.
func (r *Rig) Logger() *slog.Logger { return r.log }

// Modules implements module.Owner, in declaration order.
func (r *Rig) Modules() []module.Module { return slices.Clone(r.modules) }

// Module returns the named module.
func (r *Rig) Module(name string) (module.Module, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// ControlsGroup implements module.Owner.
func (r *Rig) ControlsGroup() scene.NodeRef { return r.controls }

// ExtrasGroup implements module.Owner.
func (r *Rig) ExtrasGroup() scene.NodeRef { return r.extras }

// JointsGroup implements module.Owner.
func (r *Rig) JointsGroup() scene.NodeRef { return r.jointsGr }

// ResolveJoint implements module.Owner. A registered joint whose node was
// deleted out from under the registry does not resolve.
func (r *Rig) ResolveJoint(name string) (scene.NodeRef, bool) {
	if _, ok := r.joints[name]; !ok {
		return scene.None, false
	}
	ref := scene.NodeRef(name)
	if !r.sc.Exists(ref) {
		return scene.None, false
	}
	return ref, true
}

// RegisterJoint implements module.Owner.
func (r *Rig) RegisterJoint(name, moduleName string) { r.joints[name] = moduleName }

// ReleaseJoint implements module.Owner.
func (r *Rig) ReleaseJoint(name string) { delete(r.joints, name) }

// JointOwner returns the module name owning a registered joint.
func (r *Rig) JointOwner(name string) (string, bool) {
	owner, ok := r.joints[name]
	return owner, ok
}

// AddModule creates, registers and initializes a new module instance.
func (r *Rig) AddModule(typeName, name string) (module.Module, error) {
	if _, dup := r.byName[name]; dup {
		return nil, fmt.Errorf("rig: module %q already exists", name)
	}
	m, err := module.New(typeName, name, r)
	if err != nil {
		return nil, err
	}
	r.modules = append(r.modules, m)
	r.byName[name] = m
	if err := m.Initialize(); err != nil {
		return nil, err
	}
	return m, nil
}

// AttachModule registers a rehydrated module without initializing it. The
// module's persisted joint list is re-registered against the restored scene.
func (r *Rig) AttachModule(typeName, name string, fieldData []byte) (module.Module, error) {
	if _, dup := r.byName[name]; dup {
		return nil, fmt.Errorf("rig: module %q already exists", name)
	}
	m, err := module.New(typeName, name, r)
	if err != nil {
		return nil, err
	}
	if err := m.Fields().Decode(fieldData); err != nil {
		return nil, err
	}
	for _, joint := range m.DeformJoints() {
		if !r.sc.Exists(scene.NodeRef(joint)) {
			return nil, fmt.Errorf("rig: module %q owns joint %q missing from the restored scene", name, joint)
		}
		r.joints[joint] = name
	}
	r.modules = append(r.modules, m)
	r.byName[name] = m
	return m, nil
}

// Update reconciles every module: the joint list first, then the parent
// repair. Cascades triggered by a shrinking module run synchronously inside
// that module's Update, so a single pass leaves the rig consistent.
func (r *Rig) Update() error {
	for _, m := range r.modules {
		if err := m.Update(); err != nil {
			return fmt.Errorf("rig: update %q: %w", m.Name(), err)
		}
	}
	for _, m := range r.modules {
		if err := m.UpdateParentJoint(); err != nil {
			return fmt.Errorf("rig: update parent of %q: %w", m.Name(), err)
		}
	}
	return nil
}

// Build clears the previous build output, then builds each module in
// dependency order.
func (r *Rig) Build() error {
	if err := r.clearBuildOutput(); err != nil {
		return err
	}
	order, err := r.buildOrder()
	if err != nil {
		return err
	}
	for _, m := range order {
		r.log.Debug("building module", "module", m.Name(), "type", m.Type())
		if err := m.Build(); err != nil {
			return fmt.Errorf("rig: build %q: %w", m.Name(), err)
		}
	}
	return nil
}

// Publish finalizes every module after a successful build.
func (r *Rig) Publish() error {
	for _, m := range r.modules {
		if err := m.Publish(); err != nil {
			return fmt.Errorf("rig: publish %q: %w", m.Name(), err)
		}
	}
	return nil
}

func (r *Rig) clearBuildOutput() error {
	for _, m := range r.modules {
		var live []scene.NodeRef
		for _, ref := range m.BuildNodes() {
			// A ref may already be gone if an ancestor was deleted with it.
			if r.sc.Exists(ref) {
				live = append(live, ref)
			}
		}
		if len(live) > 0 {
			if err := r.sc.DeleteNodes(live); err != nil {
				return err
			}
		}
		m.ResetBuildNodes()
	}
	return nil
}

// buildOrder sorts modules so providers build before dependents, breaking
// ties by declaration order.
func (r *Rig) buildOrder() ([]module.Module, error) {
	providerOf := func(m module.Module) (module.Module, bool) {
		pj := m.ParentJoint()
		if pj == "" {
			return nil, false
		}
		ownerName, ok := r.joints[pj]
		if !ok || ownerName == m.Name() {
			return nil, false
		}
		p, ok := r.byName[ownerName]
		return p, ok
	}

	done := make(map[string]bool, len(r.modules))
	visiting := make(map[string]bool, len(r.modules))
	var order []module.Module
	var visit func(m module.Module) error
	visit = func(m module.Module) error {
		if done[m.Name()] {
			return nil
		}
		if visiting[m.Name()] {
			return fmt.Errorf("rig: parent-joint cycle through module %q", m.Name())
		}
		visiting[m.Name()] = true
		if p, ok := providerOf(m); ok {
			if err := visit(p); err != nil {
				return err
			}
		}
		visiting[m.Name()] = false
		done[m.Name()] = true
		order = append(order, m)
		return nil
	}
	for _, m := range r.modules {
		if err := visit(m); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Problem describes a dangling cross-module reference found by Check.
type Problem struct {
	Module    string
	Field     string
	Reference string
}

// Check reports modules whose parent joint no longer resolves. The chain
// module's shrink does not repair dependents, so this is how such damage
// gets noticed.
func (r *Rig) Check() []Problem {
	var problems []Problem
	for _, m := range r.modules {
		pj := m.ParentJoint()
		if pj == "" {
			continue
		}
		if _, ok := r.ResolveJoint(pj); !ok {
			problems = append(problems, Problem{
				Module:    m.Name(),
				Field:     module.FieldParentJoint,
				Reference: pj,
			})
		}
	}
	return problems
}
