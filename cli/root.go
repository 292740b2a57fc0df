// Package cli implements the orch CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	flagUser int64
	flagChat int64
)

var rootCmd = &cobra.Command{
	Use:   "orch",
	Short: "Drive development tasks through plan, approval and execution",
	Long: `orch talks to the orchestrator daemon. Describe a change against a
repository, review the generated plan, approve it and follow execution.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&flagUser, "user", 1, "user id to act as")
	rootCmd.PersistentFlags().Int64Var(&flagChat, "chat", 1, "channel id events originate from")

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(abortCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(shutdownCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}
