package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show working-directory changes against the head",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			diff, _, err := repo.WorkingDiff()
			if err != nil {
				return err
			}

			if diff.Empty() {
				fmt.Println("Nothing changed.")
				return nil
			}

			for _, e := range diff.Entries {
				printDiffEntry(e)
			}

			if state, err := repo.MergeState(); err == nil && state != nil {
				fmt.Println()
				fmt.Printf("Merge in progress (second parent %s)\n", state.Parent2[:8])
				for _, c := range state.Conflicts {
					conflictColor.Printf("C   %s\n", c)
				}
			}

			return nil
		},
	}
}
