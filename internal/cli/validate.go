package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kmellet/rigkit/internal/compiler"
	"github.com/kmellet/rigkit/internal/module"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Rig     string   `json:"rig,omitempty"`
	Modules []string `json:"modules,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rig.cue>",
		Short: "Validate a rig file without building it",
		Long: `Validate a CUE rig file: syntax, required fields, module types
and duplicate names. Faster than build for development feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
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
			return NewExitError(ExitFailure, "validation failed")
		}
		return WrapExitError(ExitCommandError, "cannot read rig file", err)
	}

	// The compiler checks shape; module types are a registry question.
	var problems []string
	known := map[string]bool{}
	for _, typ := range module.Types() {
		known[typ] = true
	}
	result := ValidationResult{Valid: true, Rig: def.Name}
	for _, m := range def.Modules {
		result.Modules = append(result.Modules, m.Name)
		if !known[m.Type] {
			problems = append(problems, "module "+m.Name+": unknown type "+m.Type)
		}
	}
	if len(problems) > 0 {
		if err := formatter.Error(ErrCodeCompile, problems[0], problems); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	formatter.VerboseLog("Compiled %d module(s) from %s", len(def.Modules), path)
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success("rig " + def.Name + ": valid")
}
