package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Mark a merge conflict as resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.ResolveConflict(args[0]); err != nil {
				return err
			}

			fmt.Printf("Resolved %s\n", args[0])
			return nil
		},
	}
}
