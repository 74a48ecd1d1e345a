// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtest

import (
	"context"

	"github.com/db47h/boardsim/sandbox"
)

// Sandbox is a sandbox.Opener recording every session it opens. The test
// plays the part of the running program through the returned Programs.
//
type Sandbox struct {
	// OpenErr, if set, is returned by Open.
	OpenErr  error
	Programs []*Program
}

// Open implements sandbox.Opener.
//
func (s *Sandbox) Open(context.Context) (sandbox.Session, error) {
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	core, prog := sandbox.Pipe()
	p := &Program{end: prog}
	s.Programs = append(s.Programs, p)
	return &session{Session: core, p: p}, nil
}

// Active returns the number of sessions not yet closed by the core.
//
func (s *Sandbox) Active() int {
	n := 0
	for _, p := range s.Programs {
		if !p.closed {
			n++
		}
	}
	return n
}

// Last returns the most recently opened program or nil.
//
func (s *Sandbox) Last() *Program {
	if len(s.Programs) == 0 {
		return nil
	}
	return s.Programs[len(s.Programs)-1]
}

type session struct {
	sandbox.Session
	p *Program
}

func (s *session) Close() error {
	s.p.closed = true
	return s.Session.Close()
}

// Program is the program side of a session.
//
type Program struct {
	end    sandbox.Session
	closed bool
}

// Closed returns true if the core closed the session.
//
func (p *Program) Closed() bool { return p.closed }

// Next returns the next message sent by the core, if any.
//
func (p *Program) Next() (sandbox.Message, bool) {
	select {
	case m, ok := <-p.end.Recv():
		return m, ok
	default:
		return sandbox.Message{}, false
	}
}

// Drain returns all queued messages sent by the core.
//
func (p *Program) Drain() []sandbox.Message {
	var ms []sandbox.Message
	for {
		m, ok := p.Next()
		if !ok {
			return ms
		}
		ms = append(ms, m)
	}
}

// Send sends m to the core.
//
func (p *Program) Send(m sandbox.Message) error { return p.end.Send(m) }

// Notify signals pending updates.
//
func (p *Program) Notify() error { return p.Send(sandbox.Notify()) }

// Update sends an update payload.
//
func (p *Program) Update(u ...sandbox.Update) error { return p.Send(sandbox.Updates(u...)) }

// Log sends a log line.
//
func (p *Program) Log(text string) error { return p.Send(sandbox.Log(text)) }

// Crash ends the session from the program side.
//
func (p *Program) Crash() error { return p.end.Close() }
