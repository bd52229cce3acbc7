package transport

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/sirupsen/logrus"
)

// MaxMessageSize bounds the frames a StreamMessenger accepts.
const MaxMessageSize = 10 * 1024 * 1024

// StreamMessenger connects two parties over a single net.Conn. Every message is
// sent as a 4 byte big endian length followed by the message itself.
type StreamMessenger struct {
	conn       net.Conn
	self, peer int

	readMu, writeMu sync.Mutex
}

var _ Messenger = (*StreamMessenger)(nil)

// NewStreamMessenger wraps conn, over which party self talks to party peer.
func NewStreamMessenger(conn net.Conn, self, peer int) (*StreamMessenger, error) {
	if self == peer {
		return nil, ErrSelf
	}
	return &StreamMessenger{conn: conn, self: self, peer: peer}, nil
}

func (s *StreamMessenger) check(party int) error {
	switch party {
	case s.peer:
		return nil
	case s.self:
		return ErrSelf
	default:
		return errors.WrapPrefix(ErrUnknown, "stream messenger has a single peer", 0)
	}
}

// watch applies the deadline of ctx to the connection and interrupts blocking I/O
// when ctx is canceled. The returned function undoes both.
func watch(ctx context.Context, setDeadline func(time.Time) error) func() {
	deadline, _ := ctx.Deadline()
	_ = setDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		_ = setDeadline(time.Now())
	})
	return func() {
		stop()
		_ = setDeadline(time.Time{})
	}
}

// ioError prefers the context's error over the timeout it caused.
func ioError(ctx context.Context, err error, op string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return context.DeadlineExceeded
	}
	return errors.WrapPrefix(err, op, 0)
}

func (s *StreamMessenger) MessageSend(ctx context.Context, receiver int, buffer []byte) error {
	if err := s.check(receiver); err != nil {
		return err
	}
	if len(buffer) > MaxMessageSize {
		return ErrTooLong
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	defer watch(ctx, s.conn.SetWriteDeadline)()

	frame := make([]byte, 4+len(buffer))
	binary.BigEndian.PutUint32(frame, uint32(len(buffer)))
	copy(frame[4:], buffer)
	if _, err := s.conn.Write(frame); err != nil {
		return ioError(ctx, err, "writing message")
	}
	return nil
}

func (s *StreamMessenger) MessageReceive(ctx context.Context, sender int) ([]byte, error) {
	if err := s.check(sender); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.readMu.Lock()
	defer s.readMu.Unlock()
	defer watch(ctx, s.conn.SetReadDeadline)()

	var length [4]byte
	if _, err := io.ReadFull(s.conn, length[:]); err != nil {
		return nil, ioError(ctx, err, "reading message length")
	}
	size := binary.BigEndian.Uint32(length[:])
	if size > MaxMessageSize {
		Logger.WithFields(logrus.Fields{"peer": s.peer, "size": size}).Warn("refusing oversized message")
		return nil, ErrTooLong
	}

	buffer := make([]byte, size)
	if _, err := io.ReadFull(s.conn, buffer); err != nil {
		return nil, ioError(ctx, err, "reading message data")
	}
	return buffer, nil
}

// Close closes the underlying connection.
func (s *StreamMessenger) Close() error {
	return s.conn.Close()
}
