package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/pipcet/ori/internal/core/objects"
	"github.com/pipcet/ori/internal/core/wire"
)

// Server answers protocol requests for a single client session. The caller
// must hold the repository lock for the duration of the session.
type Server struct {
	in      *wire.Reader
	out     *bufio.Writer
	backend Backend
	log     *logrus.Logger
}

// NewServer creates a server speaking on the given byte streams.
func NewServer(in io.Reader, out io.Writer, backend Backend, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Server{
		in:      wire.NewReader(in),
		out:     bufio.NewWriter(out),
		backend: backend,
		log:     log,
	}
}

// Serve announces readiness and processes commands until the client closes
// the stream. Each response is flushed before the next request is read.
func (s *Server) Serve() error {
	if _, err := s.out.WriteString("READY\n"); err != nil {
		return err
	}
	if err := s.out.Flush(); err != nil {
		return err
	}

	for {
		command, err := s.in.ReadPStr()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%w: bad command frame: %v", ErrProtocol, err)
		}

		s.log.WithField("command", command).Debug("serving request")

		switch command {
		case cmdHello:
			err = s.cmdHello()
		case cmdGetHead:
			err = s.cmdGetHead()
		case cmdListObjs:
			err = s.cmdListObjs()
		case cmdListCommits:
			err = s.cmdListCommits()
		case cmdReadObjs:
			err = s.cmdReadObjs()
		default:
			err = s.sendError(fmt.Sprintf("unknown command %q", command))
		}
		if err != nil {
			return err
		}

		if err := s.out.Flush(); err != nil {
			return err
		}
	}
}

func (s *Server) sendError(what string) error {
	w := wire.NewWriter(s.out)
	if err := w.WriteUint8(statusError); err != nil {
		return err
	}
	return w.WritePStr(what)
}

func (s *Server) cmdHello() error {
	w := wire.NewWriter(s.out)
	if err := w.WriteUint8(statusOK); err != nil {
		return err
	}
	return w.WritePStr(Version)
}

func (s *Server) cmdGetHead() error {
	head, err := s.backend.Head()
	if err != nil {
		return s.sendError(err.Error())
	}

	w := wire.NewWriter(s.out)
	if err := w.WriteUint8(statusOK); err != nil {
		return err
	}
	return w.WriteHash(head)
}

func (s *Server) cmdListObjs() error {
	infos, err := s.backend.ListInfos()
	if err != nil {
		return s.sendError(err.Error())
	}

	w := wire.NewWriter(s.out)
	if err := w.WriteUint8(statusOK); err != nil {
		return err
	}
	if err := w.WriteUint64(uint64(len(infos))); err != nil {
		return err
	}
	for _, info := range infos {
		if err := w.Write(info.Marshal()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) cmdListCommits() error {
	blobs, err := s.backend.ListCommitBlobs()
	if err != nil {
		return s.sendError(err.Error())
	}

	w := wire.NewWriter(s.out)
	if err := w.WriteUint8(statusOK); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(len(blobs))); err != nil {
		return err
	}
	for _, blob := range blobs {
		if err := w.WritePStr(string(blob)); err != nil {
			return err
		}
	}
	return nil
}

// cmdReadObjs streams the requested objects in stored form. Each object is
// framed as a count-1 record (info, stored size, stored bytes); a count-0
// record terminates the stream.
func (s *Server) cmdReadObjs() error {
	count, err := s.in.ReadUint32()
	if err != nil {
		return fmt.Errorf("%w: bad readobjs count: %v", ErrProtocol, err)
	}

	hashes := make([]objects.ObjectHash, 0, count)
	for i := uint32(0); i < count; i++ {
		h, err := s.in.ReadHash()
		if err != nil {
			return fmt.Errorf("%w: bad readobjs hash: %v", ErrProtocol, err)
		}
		hashes = append(hashes, h)
	}

	w := wire.NewWriter(s.out)
	if err := w.WriteUint8(statusOK); err != nil {
		return err
	}

	for _, h := range hashes {
		info, stored, err := s.backend.GetRaw(h)
		if err != nil {
			s.log.WithField("hash", h.String()).WithError(err).Warn("skipping unavailable object")
			continue
		}

		if err := w.WriteUint32(1); err != nil {
			return err
		}
		if err := w.Write(info.Marshal()); err != nil {
			return err
		}
		if err := w.WriteUint32(uint32(len(stored))); err != nil {
			return err
		}
		if err := w.Write(stored); err != nil {
			return err
		}
	}

	return w.WriteUint32(0)
}
