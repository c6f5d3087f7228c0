package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/cfnls/template/parser"
)

func newParseCmd() *cobra.Command {
	var includePositions bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a template file and dump the syntax tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read template: %w", err)
			}

			tree := parser.Parse(data, parser.DetectFormat(data, ""))
			if includePositions {
				fmt.Println(tree.StringWithPositions())
			} else {
				fmt.Println(tree.String())
			}

			if tree.HasErrors() {
				for _, e := range tree.Errors() {
					fmt.Fprintf(os.Stderr, "error at %s: %s\n", e.Span.Start, e.Value)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&includePositions, "positions", true, "include node positions in output")

	return cmd
}
