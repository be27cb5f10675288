// Package compiler turns declarative CUE rig files into a RigDefinition the
// orchestration layer can instantiate. It uses the CUE SDK's Go API
// directly, not a CLI subprocess.
//
// A rig file looks like:
//
//	rig: {
//		name: "biped"
//		modules: [
//			{name: "spine", type: "chain", fields: {chain_length: 4}},
//			{name: "cheek", type: "corrective", parent: "spine_deform_001"},
//		]
//	}
package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/kmellet/rigkit/internal/fields"
)

// rigPath is the top-level struct a rig file must declare.
const rigPath = "rig"

// CompileFile reads and compiles one .cue rig file.
func CompileFile(path string) (*RigDefinition, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return CompileSource(path, src)
}

// CompileSource compiles CUE source; filename is used in diagnostics only.
func CompileSource(filename string, src []byte) (*RigDefinition, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileRig(v.LookupPath(cue.ParsePath(rigPath)))
}

// CompileRig parses a CUE value holding the rig struct.
func CompileRig(v cue.Value) (*RigDefinition, error) {
	if !v.Exists() {
		return nil, &CompileError{
			Field:   rigPath,
			Message: "rig struct is required",
		}
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &RigDefinition{}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{
			Field:   "name",
			Message: "rig name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	def.Name = name

	modsVal := v.LookupPath(cue.ParsePath("modules"))
	if !modsVal.Exists() {
		return nil, &CompileError{
			Field:   "modules",
			Message: "at least one module is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := modsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	seen := map[string]bool{}
	for iter.Next() {
		mod, err := parseModule(iter.Value())
		if err != nil {
			return nil, err
		}
		if seen[mod.Name] {
			return nil, &CompileError{
				Field:   fmt.Sprintf("modules.%s", mod.Name),
				Message: "duplicate module name",
				Pos:     iter.Value().Pos(),
			}
		}
		seen[mod.Name] = true
		def.Modules = append(def.Modules, mod)
	}
	if len(def.Modules) == 0 {
		return nil, &CompileError{
			Field:   "modules",
			Message: "at least one module is required",
			Pos:     modsVal.Pos(),
		}
	}
	return def, nil
}

func parseModule(v cue.Value) (ModuleDefinition, error) {
	var mod ModuleDefinition

	for _, req := range []struct {
		path string
		dst  *string
	}{
		{"name", &mod.Name},
		{"type", &mod.Type},
	} {
		val := v.LookupPath(cue.ParsePath(req.path))
		if !val.Exists() {
			return mod, &CompileError{
				Field:   "modules." + req.path,
				Message: req.path + " is required",
				Pos:     v.Pos(),
			}
		}
		s, err := val.String()
		if err != nil {
			return mod, formatCUEError(err)
		}
		*req.dst = s
	}

	parentVal := v.LookupPath(cue.ParsePath("parent"))
	if parentVal.Exists() {
		parent, err := parentVal.String()
		if err != nil {
			return mod, formatCUEError(err)
		}
		mod.Parent = parent
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if fieldsVal.Exists() {
		values, err := parseFieldValues(mod.Name, fieldsVal)
		if err != nil {
			return mod, err
		}
		mod.Fields = values
	}
	return mod, nil
}

// parseFieldValues converts declared field constants to typed field values.
// Integers become KindInt, floats KindFloat, strings KindReference and
// string lists KindReferenceList; anything else is a compile error.
func parseFieldValues(moduleName string, v cue.Value) (map[string]fields.Value, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	values := map[string]fields.Value{}
	for iter.Next() {
		name := iter.Label()
		val, err := parseFieldValue(iter.Value())
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("modules.%s.fields.%s", moduleName, name),
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		values[name] = val
	}
	return values, nil
}

func parseFieldValue(v cue.Value) (fields.Value, error) {
	switch v.Kind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, err
		}
		return fields.Int(n), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return fields.Float(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		return fields.Ref(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		var refs []string
		for iter.Next() {
			s, err := iter.Value().String()
			if err != nil {
				return nil, err
			}
			refs = append(refs, s)
		}
		return fields.RefList(refs), nil
	default:
		return nil, fmt.Errorf("unsupported field value kind %v", v.Kind())
	}
}
