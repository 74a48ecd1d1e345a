// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtest_test

import (
	"context"
	"testing"

	"github.com/db47h/boardsim/hwtest"
	"github.com/db47h/boardsim/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchematic(t *testing.T) {
	s := hwtest.Schematic(t)
	assert.Equal(t, "main", s.Root().ID())
	pr := hwtest.Add(t, s, "p", "probe").(*hwtest.Probe)
	assert.Equal(t, 1, pr.Calls("in[0]"), "initial notification")
	pr.Clear()
	s.Connect(hwtest.Pin(t, s, "main.D[0]"), pr.MustPin("in[0]"))
	assert.Equal(t, 1, pr.Calls("in[0]"))
	pr.Clear()
	assert.Zero(t, pr.Calls("in[0]"))
}

func TestSandbox(t *testing.T) {
	sb := new(hwtest.Sandbox)
	assert.Nil(t, sb.Last())
	core, err := sb.Open(context.Background())
	require.NoError(t, err)
	p := sb.Last()
	assert.Equal(t, 1, sb.Active())

	require.NoError(t, core.Send(sandbox.GetUpdate()))
	m, ok := p.Next()
	assert.True(t, ok)
	assert.Equal(t, sandbox.TypeGetUpdate, m.Type)
	_, ok = p.Next()
	assert.False(t, ok)

	require.NoError(t, p.Notify())
	assert.Equal(t, sandbox.Notify(), <-core.Recv())

	require.NoError(t, core.Close())
	assert.True(t, p.Closed())
	assert.Zero(t, sb.Active())
	assert.Error(t, p.Log("late"))
}
