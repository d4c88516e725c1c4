//go:build linux

package wire

import (
	"errors"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// ErrConnClosed is returned by Send/Recv once the connection has been closed.
var ErrConnClosed = errors.New("wire: connection closed")

// Conn wraps one accepted Unix-domain client connection and speaks the raw
// Wayland wire framing over it: length-prefixed little-endian messages with
// file descriptors riding ancillary SCM_RIGHTS data. It mirrors the
// read/write halves of the teacher's Display type, but plays the server
// role — it receives requests and sends events — over an accepted
// connection rather than a connection it dialed out.
type Conn struct {
	conn    *net.UnixConn
	file    *os.File
	readBuf []byte
	closed  bool
}

// NewConn takes ownership of an accepted Unix-domain connection.
func NewConn(c *net.UnixConn) (*Conn, error) {
	f, err := c.File()
	if err != nil {
		return nil, fmt.Errorf("wire: failed to get socket file: %w", err)
	}
	return &Conn{
		conn:    c,
		file:    f,
		readBuf: make([]byte, maxMessageSize),
	}, nil
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.file != nil {
		_ = c.file.Close()
	}
	return c.conn.Close()
}

// Fd returns the underlying socket file descriptor, suitable for epoll
// registration by the main loop.
func (c *Conn) Fd() int {
	if c.file == nil {
		return -1
	}
	return int(c.file.Fd())
}

// Send writes a single message to the peer, forwarding any FDs via
// SCM_RIGHTS ancillary data.
func (c *Conn) Send(msg *Message) error {
	if c.closed {
		return ErrConnClosed
	}

	data, err := EncodeMessage(msg)
	if err != nil {
		return err
	}

	if len(msg.FDs) == 0 {
		_, err = c.conn.Write(data)
		return err
	}

	rights := unix.UnixRights(msg.FDs...)
	return unix.Sendmsg(int(c.file.Fd()), data, rights, nil, 0)
}

// Recv blocks until one full message is available and decodes it. Wayland
// messages never span more than maxMessageSize bytes, so a single recvmsg
// call is assumed to carry at most one message's worth of bytes — the same
// simplifying assumption the teacher's Display.RecvMessage makes.
func (c *Conn) Recv() (*Message, error) {
	if c.closed {
		return nil, ErrConnClosed
	}

	oob := make([]byte, 256)
	n, oobn, _, _, err := unix.Recvmsg(int(c.file.Fd()), c.readBuf, oob, 0)
	if err != nil {
		return nil, fmt.Errorf("wire: recvmsg failed: %w", err)
	}
	if n == 0 {
		return nil, ErrConnClosed
	}

	fds, err := parseFDs(oob[:oobn])
	if err != nil {
		return nil, err
	}

	decoder := NewDecoder(c.readBuf[:n])
	decoder.fds = fds

	return decoder.DecodeMessage()
}

func parseFDs(oob []byte) ([]int, error) {
	if len(oob) == 0 {
		return nil, nil
	}
	scms, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, fmt.Errorf("wire: parse control message failed: %w", err)
	}
	var fds []int
	for _, scm := range scms {
		if scm.Header.Level != unix.SOL_SOCKET || scm.Header.Type != unix.SCM_RIGHTS {
			continue
		}
		got, err := unix.ParseUnixRights(&scm)
		if err != nil {
			return nil, fmt.Errorf("wire: parse unix rights failed: %w", err)
		}
		fds = append(fds, got...)
	}
	return fds, nil
}
