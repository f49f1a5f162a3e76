package protocol

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Dial connects to a remote repository. A remote of the form
// "[user@]host:path" tunnels the protocol through an ssh subprocess running
// the sshserver command on the far side; a plain path spawns sshserver
// locally, which is mainly useful for testing and same-machine replication.
func Dial(remote string) (*Client, error) {
	var cmd *exec.Cmd

	if host, path, ok := splitRemote(remote); ok {
		cmd = exec.Command("ssh", host, "ori", "sshserver", path)
	} else {
		exe, err := os.Executable()
		if err != nil {
			exe = "ori"
		}
		cmd = exec.Command(exe, "sshserver", remote)
	}
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open pipe to %s: %w", remote, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open pipe from %s: %w", remote, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", remote, err)
	}

	closer := func() error {
		stdin.Close()
		return cmd.Wait()
	}

	client, err := NewClient(stdout, stdin, closer)
	if err != nil {
		stdin.Close()
		cmd.Process.Kill()
		cmd.Wait()
		return nil, err
	}
	return client, nil
}

// splitRemote separates "[user@]host:path" into host and path. A lone path
// (no colon) is not an ssh remote.
func splitRemote(remote string) (host, path string, ok bool) {
	i := strings.IndexByte(remote, ':')
	if i <= 0 {
		return "", "", false
	}
	return remote[:i], remote[i+1:], true
}
