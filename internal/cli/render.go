package cli

import (
	"fmt"

	"github.com/phanxgames/sap"
	"github.com/spf13/cobra"
)

// RenderResult describes a written SVG.
type RenderResult struct {
	Path  string `json:"path"`
	Nodes int    `json:"nodes"`
	Edges int    `json:"edges"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "render <manifest>",
		Short: "Render a manifest's graph as SVG",
		Long: `Build the manifest and draw its dependency graph layer by layer.
Without --output the SVG is written to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(rootOpts, args[0], output, cmd)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the SVG to this file")
	return cmd
}

func runRender(opts *RootOptions, path, output string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	_, g, err := loadGraph(f, path)
	if err != nil {
		return err
	}
	e := g.Engine()
	snap, err := e.Snapshot()
	if err != nil {
		return f.Fail(ExitCommandError, "snapshot graph", err)
	}

	if output == "" {
		if err := sap.RenderSnapshot(f.Writer, snap); err != nil {
			return f.Fail(ExitCommandError, "render graph", err)
		}
		return nil
	}
	if err := e.WriteGraphFile(output); err != nil {
		return f.Fail(ExitCommandError, "write graph", err)
	}

	res := RenderResult{Path: output, Nodes: len(snap.Nodes), Edges: len(snap.Edges)}
	if f.Format == "json" {
		return f.JSON(res)
	}
	fmt.Fprintf(f.Writer, "wrote %s: %d nodes, %d edges\n", res.Path, res.Nodes, res.Edges)
	return nil
}
