// Package protocol implements the replication protocol used to copy objects
// between repositories: a synchronous request/response exchange over a
// full-duplex byte stream, normally the stdin/stdout of a remote shell
// running the sshserver command. Requests are pstr-framed command names;
// every response starts with a status byte, and on error a pstr message
// follows.
package protocol

import (
	"errors"

	"github.com/pipcet/ori/internal/core/objects"
)

// Version is the protocol version string returned by the hello command.
const Version = "ORI1.0"

const (
	statusOK    = 0
	statusError = 1
)

// Protocol command names.
const (
	cmdHello       = "hello"
	cmdGetHead     = "get head"
	cmdListObjs    = "list objs"
	cmdListCommits = "list commits"
	cmdReadObjs    = "readobjs"
)

// ErrProtocol indicates a malformed replication message.
var ErrProtocol = errors.New("protocol error")

// Backend is the repository capability set a protocol server needs.
type Backend interface {
	Head() (objects.ObjectHash, error)
	ListInfos() ([]objects.ObjectInfo, error)
	ListCommitBlobs() ([][]byte, error)
	GetRaw(hash objects.ObjectHash) (objects.ObjectInfo, []byte, error)
}
