package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Manage replication peers",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name> <url>",
			Short: "Add a named remote",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				repo, err := openRepository()
				if err != nil {
					return err
				}
				defer repo.Close()
				return repo.AddRemote(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "remove <name>",
			Short: "Remove a named remote",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				repo, err := openRepository()
				if err != nil {
					return err
				}
				defer repo.Close()
				return repo.RemoveRemote(args[0])
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List configured remotes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				repo, err := openRepository()
				if err != nil {
					return err
				}
				defer repo.Close()

				names, remotes, err := repo.Remotes()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Printf("%s\t%s\n", name, remotes[name].URL)
				}
				return nil
			},
		},
	)

	return cmd
}
