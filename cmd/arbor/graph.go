package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the dialog as a Mermaid diagram",
	Long: `Reads a dialog document and outputs a Mermaid diagram (graph TD) with one
subgraph per sequence. With --trace, the items visited by a list of route
tokens are highlighted and the last one is marked as current.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := compiler.NewConverter().ConvertFile(args[0])
		if err != nil {
			return err
		}
		if err := d.Validate(); err != nil {
			return err
		}

		trace, _ := cmd.Flags().GetString("trace")
		var overlay *graph.GraphOverlay
		if trace != "" {
			overlay = graph.OverlayFromTrace(d, strings.Split(trace, ","))
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(d, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("trace", "", "Comma-separated route tokens to highlight, e.g. 8:7:0:10,8:7:0:11")
}
