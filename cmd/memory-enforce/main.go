package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kortex-labs/memory-enforce/pkg/version"
)

var rootFlag string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "memory-enforce",
		Short:   "Institutional memory enforcer for codebases",
		Long:    "memory-enforce records architectural decisions with quality gates, keeps a drift-checked symbol index of the codebase, and serves both to agents over MCP.",
		Version: version.Version,

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&rootFlag, "root", "", "project root (defaults to the working directory)")

	cmd.AddCommand(
		newRecordCmd(),
		newSearchCmd(),
		newCoreCmd(),
		newValidateCmd(),
		newConflictsCmd(),
		newIndexCmd(),
		newDriftCmd(),
		newOrchestrateCmd(),
		newStatusCmd(),
		newServeCmd(),
	)

	return cmd
}
