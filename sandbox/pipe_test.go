// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sandbox_test

import (
	"testing"

	"github.com/db47h/boardsim/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipe(t *testing.T) {
	core, prog := sandbox.Pipe()

	require.NoError(t, core.Send(sandbox.GetUpdate()))
	require.NoError(t, prog.Send(sandbox.Log("hi")))
	assert.Equal(t, sandbox.GetUpdate(), <-prog.Recv())
	assert.Equal(t, sandbox.Log("hi"), <-core.Recv())

	assert.Error(t, core.Send(sandbox.Message{}), "invalid message")

	// queued messages survive the close, then the channel is closed.
	require.NoError(t, prog.Send(sandbox.Notify()))
	require.NoError(t, prog.Close())
	assert.Equal(t, sandbox.ErrClosed, core.Send(sandbox.GetUpdate()))
	m, ok := <-core.Recv()
	assert.True(t, ok)
	assert.Equal(t, sandbox.TypeNotify, m.Type)
	_, ok = <-core.Recv()
	assert.False(t, ok)
	assert.NoError(t, core.Close())
}

func TestPipe_full(t *testing.T) {
	core, prog := sandbox.Pipe()
	defer core.Close()
	var err error
	n := 0
	for ; err == nil; n++ {
		err = prog.Send(sandbox.Notify())
	}
	assert.Equal(t, sandbox.ErrQueueFull, err)
	assert.Equal(t, 257, n)
	<-core.Recv()
	assert.NoError(t, prog.Send(sandbox.Notify()))
}
