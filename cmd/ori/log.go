package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit history",
		Long:  "Walk first-parent history from the head, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			entries, err := repo.History(limit)
			if err != nil {
				return err
			}

			for _, e := range entries {
				fmt.Printf("commit %s\n", e.Hash)
				if e.Commit.IsMerge() {
					fmt.Printf("merge  %s %s\n", e.Commit.Parent1.Short(), e.Commit.Parent2.Short())
				}
				fmt.Printf("author %s\n", e.Commit.Author)
				fmt.Printf("date   %s\n", e.Commit.Time.Format("Mon Jan 2 15:04:05 2006 -0700"))
				fmt.Printf("\n    %s\n\n", e.Commit.Message)
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "max-count", "n", 0, "Limit the number of commits shown")

	return cmd
}
