// Command sapgraph renders, sorts and runs property graph manifests.
package main

import (
	"fmt"
	"os"

	"github.com/phanxgames/sap/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sapgraph:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
