package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipcet/ori/internal/protocol"
)

func newPullCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pull <remote>",
		Short: "Replicate missing objects from a remote and advance the head",
		Long: `Fetch every object reachable from the remote head that the local store
lacks, verify each on insertion, and advance the local head. The remote may
be a configured name or a [user@]host:path ssh address.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			url, err := repo.ResolveRemote(args[0])
			if err != nil {
				return err
			}

			client, err := protocol.Dial(url)
			if err != nil {
				return err
			}
			defer client.Close()

			if _, err := client.Hello(); err != nil {
				return fmt.Errorf("handshake with %s failed: %w", url, err)
			}

			head, err := repo.Pull(client)
			if err != nil {
				return err
			}
			if head.IsEmpty() {
				fmt.Println("Remote has no commits.")
				return nil
			}

			fmt.Printf("Pulled up to %s\n", head)
			return nil
		},
	}
}
