// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sandbox

import (
	"context"

	"github.com/pkg/errors"
)

// ErrClosed is returned by Send on a closed session.
//
var ErrClosed = errors.New("sandbox session closed")

// A Session is one execution context as seen from the simulation core.
//
// Send must not block for longer than it takes to queue or write the message.
// Recv returns the channel on which incoming messages are queued; it is closed
// once the session ends, either because Close was called or because the
// sandbox went away. Close tears the session down synchronously: once it
// returns the sandbox can no longer deliver messages and callers must drop
// whatever is still queued on Recv.
//
type Session interface {
	Send(m Message) error
	Recv() <-chan Message
	Close() error
}

// An Opener creates new execution contexts.
//
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc adapts a function to the Opener interface.
//
type OpenerFunc func(ctx context.Context) (Session, error)

// Open calls f(ctx).
//
func (f OpenerFunc) Open(ctx context.Context) (Session, error) { return f(ctx) }
