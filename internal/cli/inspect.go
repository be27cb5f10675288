package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kmellet/rigkit/internal/store"
)

// InspectModule is the per-module inspect payload.
type InspectModule struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	ParentJoint string `json:"parent_joint,omitempty"`
	Joints      int    `json:"joints"`
}

// InspectResult is the inspect payload for one rig.
type InspectResult struct {
	Rig      string          `json:"rig"`
	Modules  []InspectModule `json:"modules"`
	Problems []string        `json:"problems,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "inspect [rig-name]",
		Short: "List saved rigs or show one rig's modules",
		Long: `Without a rig name, lists the rigs saved in the database. With one,
loads the rig and shows its modules, joint counts and any dangling
cross-module references.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return runInspect(rootOpts, dbPath, name, cmd)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "rig.db", "sqlite database to inspect")
	return cmd
}

func runInspect(opts *RootOptions, dbPath, name string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer st.Close()

	if name == "" {
		infos, err := st.ListRigs(cmd.Context())
		if err != nil {
			return WrapExitError(ExitCommandError, "list rigs", err)
		}
		if opts.Format == "json" {
			return formatter.Success(infos)
		}
		if len(infos) == 0 {
			return formatter.Success("no rigs saved")
		}
		var b strings.Builder
		for _, info := range infos {
			fmt.Fprintf(&b, "%s\t%d module(s)\tupdated %s\n", info.Name, info.ModuleCount, info.UpdatedAt)
		}
		return formatter.Success(strings.TrimRight(b.String(), "\n"))
	}

	r, _, err := st.LoadRig(cmd.Context(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return WrapExitError(ExitCommandError, "load rig", err)
		}
		if err := formatter.Error(ErrCodeStore, err.Error(), nil); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "inspect failed")
	}

	result := InspectResult{Rig: name}
	for _, m := range r.Modules() {
		result.Modules = append(result.Modules, InspectModule{
			Name:        m.Name(),
			Type:        m.Type(),
			ParentJoint: m.ParentJoint(),
			Joints:      len(m.DeformJoints()),
		})
	}
	for _, p := range r.Check() {
		result.Problems = append(result.Problems,
			fmt.Sprintf("module %s: %s -> %s does not resolve", p.Module, p.Field, p.Reference))
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "rig %s\n", name)
	for _, m := range result.Modules {
		fmt.Fprintf(&b, "  %s (%s): %d joint(s)", m.Name, m.Type, m.Joints)
		if m.ParentJoint != "" {
			fmt.Fprintf(&b, " under %s", m.ParentJoint)
		}
		b.WriteString("\n")
	}
	for _, p := range result.Problems {
		fmt.Fprintf(&b, "  problem: %s\n", p)
	}
	if err := formatter.Success(strings.TrimRight(b.String(), "\n")); err != nil {
		return err
	}
	if len(result.Problems) > 0 {
		return NewExitError(ExitFailure, "rig has dangling references")
	}
	return nil
}
