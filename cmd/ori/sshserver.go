package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/pipcet/ori/internal/protocol"
	"github.com/pipcet/ori/pkg/ori"
)

// Exit codes distinguishing "no repository" from other failures, so the
// pulling side can tell them apart across the ssh tunnel.
const (
	exitServeFailed = 1
	exitNoRepo      = 101
)

func newSSHServerCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "sshserver <repo>",
		Short:  "Serve the replication protocol on stdin/stdout",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ori.Open(args[0])
			if err != nil {
				serverError("No repo found")
				os.Exit(exitNoRepo)
			}
			defer repo.Close()

			// One client at a time; the lock is held for the whole
			// session.
			if err := repo.Lock(); err != nil {
				if errors.Is(err, ori.ErrLocked) {
					serverError("Couldn't lock repo")
				} else {
					serverError(err.Error())
				}
				os.Exit(exitServeFailed)
			}
			defer repo.Unlock()

			server := protocol.NewServer(os.Stdin, os.Stdout, repo, repo.Log())
			if err := server.Serve(); err != nil {
				repo.Log().WithError(err).Error("serve failed")
				os.Exit(exitServeFailed)
			}
			return nil
		},
	}
}

// serverError emits a protocol-framed error so the far side sees a message
// instead of a dropped connection.
func serverError(what string) {
	buf := make([]byte, 0, len(what)+5)
	buf = append(buf, 1)
	buf = append(buf, byte(len(what)), byte(len(what)>>8), byte(len(what)>>16), byte(len(what)>>24))
	buf = append(buf, what...)
	os.Stdout.Write(buf)
}
