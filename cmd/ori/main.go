package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ori",
		Short: "A content-addressed distributed version control system",
		Long: `Ori tracks a working directory as an immutable history of commits over a
content-addressed object store, and replicates repositories over ssh.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newInitCommand(),
		newCommitCommand(),
		newStatusCommand(),
		newLogCommand(),
		newCheckoutCommand(),
		newMergeCommand(),
		newResolveCommand(),
		newPullCommand(),
		newRemoteCommand(),
		newFsckCommand(),
		newGCCommand(),
		newStatsCommand(),
		newSSHServerCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
