package cli

import (
	"fmt"
	"strings"

	"github.com/phanxgames/sap/manifest"
	"github.com/spf13/cobra"
)

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Name     string            `json:"name,omitempty"`
	Passed   bool              `json:"passed"`
	Failures int               `json:"failures"`
	Tick     uint64            `json:"tick"`
	Steps    []manifest.Record `json:"steps"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var snapshots string
	cmd := &cobra.Command{
		Use:   "run <manifest>",
		Short: "Run a manifest's script and print a trace",
		Long: `Build the manifest and execute its script step by step. The clock moves
only on tick and wait steps. Exits with status 1 when an expect step fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(rootOpts, args[0], snapshots, cmd)
		},
	}
	cmd.Flags().StringVar(&snapshots, "snapshots", "", "write snapshot steps as SVG files into this directory")
	return cmd
}

func runScript(opts *RootOptions, path, snapshots string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	m, g, err := loadGraph(f, path)
	if err != nil {
		return err
	}
	r := manifest.NewRunner(g, m.Script)
	r.SnapshotDir = snapshots
	if err := r.RunAll(); err != nil {
		return f.Fail(ExitCommandError, "run script", err)
	}

	res := RunResult{
		Name:     m.Name,
		Passed:   r.Failures() == 0,
		Failures: r.Failures(),
		Tick:     g.Engine().Time(),
		Steps:    r.Records(),
	}
	if f.Format == "json" {
		if err := f.JSON(res); err != nil {
			return err
		}
	} else {
		writeTrace(f, res)
	}
	if !res.Passed {
		return NewExitError(ExitFailure, fmt.Sprintf("%d expectation(s) failed", res.Failures))
	}
	return nil
}

func writeTrace(f *OutputFormatter, res RunResult) {
	for _, rec := range res.Steps {
		fmt.Fprintln(f.Writer, f.traceLine(rec))
	}
	name := res.Name
	if name == "" {
		name = "script"
	}
	if res.Passed {
		fmt.Fprintf(f.Writer, "%s %s: %d steps, tick %d\n", f.pass.Sprint("PASS"), name, len(res.Steps), res.Tick)
		return
	}
	fmt.Fprintf(f.Writer, "%s %s: %d of %d steps failed, tick %d\n",
		f.fail.Sprint("FAIL"), name, res.Failures, len(res.Steps), res.Tick)
}

func (f *OutputFormatter) traceLine(rec manifest.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%3d t=%-4d %-10s", rec.Step, rec.Tick, rec.Action)
	if rec.Target != "" {
		fmt.Fprintf(&b, " %-10s %g", rec.Target, rec.Value)
	}
	if rec.Action == manifest.ActionExpect {
		if rec.Failed {
			b.WriteString(" " + f.fail.Sprint("FAIL"))
		} else {
			b.WriteString(" " + f.pass.Sprint("ok"))
		}
	}
	if rec.Detail != "" {
		b.WriteString(" " + rec.Detail)
	}
	return strings.TrimRight(b.String(), " ")
}
