package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pipcet/ori/internal/core/objects"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show object store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			stats, err := repo.Stats()
			if err != nil {
				return err
			}

			kinds := []objects.Kind{objects.KindBlob, objects.KindLargeBlob, objects.KindTree, objects.KindCommit}
			var totalCount int
			var totalBytes uint64
			for _, kind := range kinds {
				fmt.Printf("%-10s %6d objects  %10s\n",
					kind, stats.Counts[kind], humanize.Bytes(stats.Bytes[kind]))
				totalCount += stats.Counts[kind]
				totalBytes += stats.Bytes[kind]
			}
			fmt.Printf("%-10s %6d objects  %10s\n", "total", totalCount, humanize.Bytes(totalBytes))

			return nil
		},
	}
}
