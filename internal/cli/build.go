package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kmellet/rigkit/internal/compiler"
	"github.com/kmellet/rigkit/internal/memscene"
	"github.com/kmellet/rigkit/internal/rig"
	"github.com/kmellet/rigkit/internal/store"
)

// BuildResult holds build results for output.
type BuildResult struct {
	Rig     string   `json:"rig"`
	ID      string   `json:"id,omitempty"`
	Modules []string `json:"modules"`
	Joints  int      `json:"joints"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath, outPath string

	cmd := &cobra.Command{
		Use:   "build <rig.cue>",
		Short: "Build a rig file into a saved rig document",
		Long: `Compile a CUE rig file, instantiate its modules, reconcile the joint
hierarchy and construct the control networks. With --db the result is
persisted; with -o the scene snapshot is written as JSON.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(rootOpts, args[0], dbPath, outPath, cmd)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database to save the rig into")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the built scene snapshot as JSON")
	return cmd
}

func runBuild(opts *RootOptions, path, dbPath, outPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	def, err := compiler.CompileFile(path)
	if err != nil {
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			if err := formatter.Error(ErrCodeCompile, ce.Error(), nil); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "build failed")
		}
		return WrapExitError(ExitCommandError, "cannot read rig file", err)
	}

	log := slog.New(slog.NewTextHandler(formatter.GetErrWriter(), nil))
	if !opts.Verbose {
		log = slog.New(slog.NewTextHandler(formatter.GetErrWriter(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	r, sc, err := Instantiate(def, rig.WithLogger(log))
	if err != nil {
		if err := formatter.Error(ErrCodeBuild, err.Error(), nil); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "build failed")
	}

	result := BuildResult{Rig: def.Name}
	for _, m := range r.Modules() {
		result.Modules = append(result.Modules, m.Name())
		result.Joints += len(m.DeformJoints())
	}

	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "open database", err)
		}
		defer st.Close()
		id, err := st.SaveRig(cmd.Context(), def.Name, r, sc)
		if err != nil {
			return WrapExitError(ExitCommandError, "save rig", err)
		}
		result.ID = id
		formatter.VerboseLog("Saved rig %q as %s", def.Name, id)
	}

	if outPath != "" {
		data, err := json.MarshalIndent(sc.Snapshot(), "", "  ")
		if err != nil {
			return WrapExitError(ExitCommandError, "encode scene snapshot", err)
		}
		if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "write scene snapshot", err)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("rig %s: built %d module(s), %d joint(s)",
		result.Rig, len(result.Modules), result.Joints))
}

// Instantiate turns a compiled definition into a live rig in a fresh
// in-memory scene: modules added in declaration order, fields applied,
// reconciled, then built.
func Instantiate(def *compiler.RigDefinition, opts ...rig.Option) (*rig.Rig, *memscene.Scene, error) {
	sc := memscene.New()
	r, err := rig.New(sc, opts...)
	if err != nil {
		return nil, nil, err
	}
	for _, md := range def.Modules {
		m, err := r.AddModule(md.Type, md.Name)
		if err != nil {
			return nil, nil, err
		}
		for name, value := range md.Fields {
			if err := m.Fields().Set(name, value); err != nil {
				return nil, nil, fmt.Errorf("module %q: %w", md.Name, err)
			}
		}
		if md.Parent != "" {
			if err := m.SetParentJoint(md.Parent); err != nil {
				return nil, nil, fmt.Errorf("module %q: %w", md.Name, err)
			}
		}
	}
	if err := r.Update(); err != nil {
		return nil, nil, err
	}
	if err := r.Build(); err != nil {
		return nil, nil, err
	}
	if err := r.Publish(); err != nil {
		return nil, nil, err
	}
	return r, sc, nil
}
