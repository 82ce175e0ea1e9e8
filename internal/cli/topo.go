package cli

import (
	"fmt"

	"github.com/phanxgames/sap"
	"github.com/spf13/cobra"
)

// TopoResult is the JSON payload of the topo command.
type TopoResult struct {
	From  string   `json:"from,omitempty"`
	Order []string `json:"order"`
}

// NewTopoCommand creates the topo command.
func NewTopoCommand(rootOpts *RootOptions) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "topo <manifest>",
		Short: "Print the topological order of a manifest's graph",
		Long: `Print every entry so that each precedes its dependents, including the
engine clock. With --from only the named property and its transitive
dependents are listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTopo(rootOpts, args[0], from, cmd)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start from this property")
	return cmd
}

func runTopo(opts *RootOptions, path, from string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	_, g, err := loadGraph(f, path)
	if err != nil {
		return err
	}
	e := g.Engine()

	var ids []sap.PropertyID
	if from != "" {
		p, ok := g.Property(from)
		if !ok {
			return f.Fail(ExitCommandError, "topo", fmt.Errorf("unknown property %q", from))
		}
		ids, err = e.TopologicalOrder(p.ID())
	} else {
		ids, err = e.TopologicalSort()
	}
	if err != nil {
		return f.Fail(ExitCommandError, "topo", err)
	}

	res := TopoResult{From: from, Order: make([]string, len(ids))}
	for i, id := range ids {
		res.Order[i] = label(g, id)
	}
	if f.Format == "json" {
		return f.JSON(res)
	}
	for i, name := range res.Order {
		fmt.Fprintf(f.Writer, "%d. %s\n", i+1, name)
	}
	return nil
}
