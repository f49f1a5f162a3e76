package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFsckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fsck",
		Short: "Verify every stored object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			bad, total, err := repo.Fsck()
			if err != nil {
				return err
			}

			for _, b := range bad {
				fmt.Printf("corrupt: %s: %v\n", b.Hash, b.Err)
			}
			fmt.Printf("Checked %d objects, %d corrupt.\n", total, len(bad))

			if len(bad) > 0 {
				return fmt.Errorf("%d corrupt objects", len(bad))
			}
			return nil
		},
	}
}
