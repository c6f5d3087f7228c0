package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/cfnls/template/workspace"
)

func newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := workspace.NewLSPServer(workspace.New(nil), "0.1.0")
			return server.RunStdio()
		},
	}
}
