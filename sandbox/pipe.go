// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sandbox

import (
	"sync"

	"github.com/pkg/errors"
)

// queueSize is the capacity of each direction of a Pipe.
//
const queueSize = 256

// Pipe returns the two ends of an in-process session. Messages sent on one
// end are received on the other. Closing either end closes both.
//
// When the receiving queue is full, Send drops the message and returns
// ErrQueueFull rather than blocking the sender.
//
func Pipe() (core, program Session) {
	p := &pipe{
		a:    make(chan Message, queueSize),
		b:    make(chan Message, queueSize),
		done: make(chan struct{}),
	}
	return &pipeEnd{p, p.b, p.a}, &pipeEnd{p, p.a, p.b}
}

// ErrQueueFull is returned by a Pipe end when the peer's queue is full.
//
var ErrQueueFull = errors.New("sandbox queue full")

type pipe struct {
	mu     sync.Mutex
	a, b   chan Message
	done   chan struct{}
	closed bool
}

func (p *pipe) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.done)
	close(p.a)
	close(p.b)
}

type pipeEnd struct {
	p   *pipe
	out chan Message
	in  chan Message
}

func (e *pipeEnd) Send(m Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	if e.p.closed {
		return ErrClosed
	}
	select {
	case e.out <- m:
		return nil
	default:
		return ErrQueueFull
	}
}

func (e *pipeEnd) Recv() <-chan Message { return e.in }

func (e *pipeEnd) Close() error {
	e.p.close()
	return nil
}
