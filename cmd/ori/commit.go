package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipcet/ori/pkg/ori"
)

func newCommitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "commit [MESSAGE]",
		Short: "Commit outstanding changes into the repository",
		Long:  "Record the working-directory changes as a new commit and advance the head.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := "No message."
			if len(args) > 0 {
				message = args[0]
			}

			repo, err := openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			hash, err := repo.Commit(message)
			if errors.Is(err, ori.ErrNothingToCommit) {
				fmt.Println("Nothing to commit!")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("Committed %s\n", hash)
			return nil
		},
	}
}
