// Command mlhost drives mllib host objects from message scripts.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mlhost",
		Short: "mlhost runs machine learning objects from message scripts",
		Long: `mlhost creates decision tree, linear regression and logistic regression
objects and sends them attribute, add, train, predict, write and read messages,
one message per line, from files or standard input.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(versionCmd(), runCmd(), attrsCmd())
	return rootCmd
}
