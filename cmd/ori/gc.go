package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGCCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gc",
		Short: "Remove objects unreachable from the head",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			purged, err := repo.GC()
			if err != nil {
				return err
			}

			fmt.Printf("Purged %d unreachable objects.\n", purged)
			return nil
		},
	}
}
