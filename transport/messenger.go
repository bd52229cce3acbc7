package transport

import (
	"context"

	"github.com/go-errors/errors"
	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

var (
	ErrSelf    = errors.New("cannot exchange messages with self")
	ErrUnknown = errors.New("unknown party")
	ErrAborted = errors.New("connection aborted")
	ErrTooLong = errors.New("message too large")
)

// Messenger delivers messages between numbered parties. Both methods block until
// the message is delivered, the context is done or the connection fails.
type Messenger interface {
	// MessageSend sends buffer to the party with index receiver.
	MessageSend(ctx context.Context, receiver int, buffer []byte) error

	// MessageReceive returns the next message from the party with index sender.
	MessageReceive(ctx context.Context, sender int) ([]byte, error)
}

func init() {
	if Logger == nil {
		Logger = logrus.StandardLogger()
	}
}
