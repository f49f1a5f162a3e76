package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipcet/ori/internal/core/objects"
)

func newMergeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <commit>",
		Short: "Three-way merge a commit into the current head",
		Long: `Find the lowest common ancestor of the head and the given commit, merge
both sides' changes, and update the working directory. The merge is recorded
and becomes a two-parent commit on the next ori commit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := objects.NewObjectHash(args[0])
			if err != nil {
				return fmt.Errorf("invalid commit hash: %w", err)
			}

			repo, err := openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			outcome, err := repo.Merge(hash)
			if err != nil {
				return err
			}

			fmt.Printf("LCA: %s\n", outcome.LCA)
			for _, e := range outcome.Updates.Entries {
				printDiffEntry(e)
			}

			if len(outcome.Conflicts) > 0 {
				fmt.Println()
				for _, c := range outcome.Conflicts {
					conflictColor.Printf("C   %s\n", c.Path)
				}
				fmt.Printf("%d conflict(s); resolve them and run 'ori resolve <path>' before committing.\n",
					len(outcome.Conflicts))
				return nil
			}

			fmt.Println("Merge complete; run 'ori commit' to record it.")
			return nil
		},
	}
}
