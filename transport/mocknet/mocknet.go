// Package mocknet provides an in-memory transport.Messenger, connecting parties
// within a single process.
package mocknet

import (
	"container/list"
	"context"
	"sync"

	"github.com/go-errors/errors"
	"github.com/privacybydesign/qrid/transport"
)

// MockMessenger queues messages in memory, one queue per sender.
type MockMessenger struct {
	roleIndex int
	outs      []*MockMessenger
	mutex     sync.Mutex
	cond      *sync.Cond
	queues    []list.List
	isAbort   bool
}

var _ transport.Messenger = (*MockMessenger)(nil)

func newMockMessenger(roleIndex int) *MockMessenger {
	m := &MockMessenger{roleIndex: roleIndex}
	m.cond = sync.NewCond(&m.mutex)
	return m
}

// NewMockNetwork creates nParties messengers, all connected to each other. Party i
// is at index i.
func NewMockNetwork(nParties int) []*MockMessenger {
	messengers := make([]*MockMessenger, nParties)
	for i := range messengers {
		messengers[i] = newMockMessenger(i)
	}
	for _, m := range messengers {
		m.outs = messengers
		m.queues = make([]list.List, nParties)
	}
	return messengers
}

func (m *MockMessenger) check(party int) error {
	if party == m.roleIndex {
		return transport.ErrSelf
	}
	if party < 0 || party >= len(m.outs) {
		return errors.WrapPrefix(transport.ErrUnknown, "no such party in mock network", 0)
	}
	return nil
}

func (m *MockMessenger) aborted() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.isAbort
}

// MessageSend queues buffer at the receiver. It fails if either side has aborted.
func (m *MockMessenger) MessageSend(ctx context.Context, receiver int, buffer []byte) error {
	if err := m.check(receiver); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.aborted() {
		return transport.ErrAborted
	}

	msg := make([]byte, len(buffer))
	copy(msg, buffer)

	r := m.outs[receiver]
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.isAbort {
		return transport.ErrAborted
	}
	r.queues[m.roleIndex].PushBack(msg)
	r.cond.Broadcast()
	return nil
}

// MessageReceive waits for the next message from sender.
func (m *MockMessenger) MessageReceive(ctx context.Context, sender int) ([]byte, error) {
	if err := m.check(sender); err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		m.mutex.Lock()
		m.cond.Broadcast()
		m.mutex.Unlock()
	})
	defer stop()

	m.mutex.Lock()
	defer m.mutex.Unlock()
	queue := &m.queues[sender]
	for {
		if m.isAbort {
			return nil, transport.ErrAborted
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if queue.Len() > 0 {
			front := queue.Front()
			queue.Remove(front)
			return front.Value.([]byte), nil
		}
		m.cond.Wait()
	}
}

// Abort simulates a broken link: pending and future operations on m fail with
// transport.ErrAborted, as do sends to m.
func (m *MockMessenger) Abort() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.isAbort = true
	m.cond.Broadcast()
}

// Pending returns the number of messages from sender waiting to be received.
func (m *MockMessenger) Pending(sender int) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.queues[sender].Len()
}
