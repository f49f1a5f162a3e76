package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipcet/ori/internal/core/objects"
)

func newCheckoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <commit>",
		Short: "Materialize a commit into the working directory",
		Args:  cobra.ExactArgs(1),
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

			if err := repo.Checkout(hash); err != nil {
				return err
			}

			fmt.Printf("Checked out %s\n", hash)
			return nil
		},
	}
}
