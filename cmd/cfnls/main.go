package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cfnls",
		Short: "A language server for infrastructure templates",
	}

	rootCmd.AddCommand(newLSPCmd())
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newContextCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
