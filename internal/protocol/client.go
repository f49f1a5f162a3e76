package protocol

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pipcet/ori/internal/core/objects"
	"github.com/pipcet/ori/internal/core/wire"
)

// maxBannerLines bounds how much pre-protocol output (ssh banners, motd)
// the client will skip while waiting for the server's READY line.
const maxBannerLines = 64

// Client is the requesting end of a protocol session.
type Client struct {
	br    *bufio.Reader
	in    *wire.Reader
	out   *wire.Writer
	flush func() error
	close func() error
}

// NewClient creates a client over the given streams and waits for the
// server's READY banner. closer, if non-nil, is invoked by Close.
func NewClient(in io.Reader, out io.Writer, closer func() error) (*Client, error) {
	br := bufio.NewReader(in)
	bw := bufio.NewWriter(out)

	c := &Client{
		br:    br,
		in:    wire.NewReader(br),
		out:   wire.NewWriter(bw),
		flush: bw.Flush,
		close: closer,
	}

	if err := c.waitReady(); err != nil {
		return nil, err
	}
	return c, nil
}

// Close ends the session.
func (c *Client) Close() error {
	if c.close != nil {
		return c.close()
	}
	return nil
}

func (c *Client) waitReady() error {
	for i := 0; i < maxBannerLines; i++ {
		line, err := c.br.ReadString('\n')
		if err != nil {
			return fmt.Errorf("%w: connection closed before READY: %v", ErrProtocol, err)
		}
		if line == "READY\n" {
			return nil
		}
	}
	return fmt.Errorf("%w: no READY banner from server", ErrProtocol)
}

func (c *Client) sendCommand(name string) error {
	if err := c.out.WritePStr(name); err != nil {
		return err
	}
	return c.flush()
}

// respStatus consumes the response status byte, surfacing the remote error
// message on failure.
func (c *Client) respStatus() error {
	status, err := c.in.ReadUint8()
	if err != nil {
		return fmt.Errorf("%w: missing response status: %v", ErrProtocol, err)
	}
	switch status {
	case statusOK:
		return nil
	case statusError:
		what, err := c.in.ReadPStr()
		if err != nil {
			return fmt.Errorf("%w: unreadable remote error: %v", ErrProtocol, err)
		}
		return fmt.Errorf("remote error: %s", what)
	default:
		return fmt.Errorf("%w: unknown response status %d", ErrProtocol, status)
	}
}

// Hello returns the remote protocol version.
func (c *Client) Hello() (string, error) {
	if err := c.sendCommand(cmdHello); err != nil {
		return "", err
	}
	if err := c.respStatus(); err != nil {
		return "", err
	}
	return c.in.ReadPStr()
}

// GetHead returns the remote head commit hash.
func (c *Client) GetHead() (objects.ObjectHash, error) {
	if err := c.sendCommand(cmdGetHead); err != nil {
		return objects.ObjectHash{}, err
	}
	if err := c.respStatus(); err != nil {
		return objects.ObjectHash{}, err
	}
	h, err := c.in.ReadHash()
	if err != nil {
		return objects.ObjectHash{}, fmt.Errorf("%w: bad head: %v", ErrProtocol, err)
	}
	return h, nil
}

// ListObjects enumerates the info records of all remote objects.
func (c *Client) ListObjects() ([]objects.ObjectInfo, error) {
	if err := c.sendCommand(cmdListObjs); err != nil {
		return nil, err
	}
	if err := c.respStatus(); err != nil {
		return nil, err
	}

	count, err := c.in.ReadUint64()
	if err != nil {
		return nil, fmt.Errorf("%w: bad object count: %v", ErrProtocol, err)
	}

	infos := make([]objects.ObjectInfo, 0, count)
	buf := make([]byte, objects.InfoSize)
	for i := uint64(0); i < count; i++ {
		if err := c.in.ReadExact(buf); err != nil {
			return nil, fmt.Errorf("%w: bad object info: %v", ErrProtocol, err)
		}
		info, err := objects.UnmarshalInfo(buf)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	return infos, nil
}

// ListCommits returns all remote commits.
func (c *Client) ListCommits() ([]*objects.Commit, error) {
	if err := c.sendCommand(cmdListCommits); err != nil {
		return nil, err
	}
	if err := c.respStatus(); err != nil {
		return nil, err
	}

	count, err := c.in.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: bad commit count: %v", ErrProtocol, err)
	}

	commits := make([]*objects.Commit, 0, count)
	for i := uint32(0); i < count; i++ {
		blob, err := c.in.ReadPStr()
		if err != nil {
			return nil, fmt.Errorf("%w: bad commit blob: %v", ErrProtocol, err)
		}
		commit, err := objects.UnmarshalCommit([]byte(blob))
		if err != nil {
			return nil, err
		}
		commits = append(commits, commit)
	}

	return commits, nil
}

// GetObjects fetches a batch of objects. Payloads are returned in stored
// form, compressed iff the accompanying info says so; the receiver verifies
// each object when inserting it into its store. Objects the remote could not
// serve are absent from the result.
func (c *Client) GetObjects(hashes []objects.ObjectHash) ([]objects.Object, error) {
	if err := c.out.WritePStr(cmdReadObjs); err != nil {
		return nil, err
	}
	if err := c.out.WriteUint32(uint32(len(hashes))); err != nil {
		return nil, err
	}
	for _, h := range hashes {
		if err := c.out.WriteHash(h); err != nil {
			return nil, err
		}
	}
	if err := c.flush(); err != nil {
		return nil, err
	}

	if err := c.respStatus(); err != nil {
		return nil, err
	}

	var objs []objects.Object
	infoBuf := make([]byte, objects.InfoSize)
	for {
		n, err := c.in.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("%w: bad object record count: %v", ErrProtocol, err)
		}
		if n == 0 {
			break
		}
		if n != 1 {
			return nil, fmt.Errorf("%w: unexpected object record count %d", ErrProtocol, n)
		}

		if err := c.in.ReadExact(infoBuf); err != nil {
			return nil, fmt.Errorf("%w: bad object info: %v", ErrProtocol, err)
		}
		info, err := objects.UnmarshalInfo(infoBuf)
		if err != nil {
			return nil, err
		}

		size, err := c.in.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("%w: bad object size: %v", ErrProtocol, err)
		}
		stored := make([]byte, size)
		if err := c.in.ReadExact(stored); err != nil {
			return nil, fmt.Errorf("%w: truncated object payload: %v", ErrProtocol, err)
		}

		objs = append(objs, objects.Object{Info: info, Payload: stored})
	}

	return objs, nil
}
