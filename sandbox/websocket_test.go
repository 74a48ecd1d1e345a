// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sandbox_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/db47h/boardsim/sandbox"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echo plays a trivial program: it acknowledges start, answers every update
// request with a pin write and echoes log lines.
//
func echo(_ context.Context, s sandbox.Session) {
	for m := range s.Recv() {
		switch m.Type {
		case sandbox.TypeStart:
			s.Send(sandbox.Log("started on " + m.Config.Board))
			s.Send(sandbox.Notify())
		case sandbox.TypeGetUpdate:
			s.Send(sandbox.Updates(sandbox.Update{Kind: sandbox.GPIOSet, Pin: 13, High: true}))
		case sandbox.TypeLog:
			s.Send(m)
		}
	}
}

func recv(t *testing.T, s sandbox.Session) sandbox.Message {
	t.Helper()
	select {
	case m, ok := <-s.Recv():
		require.True(t, ok, "session closed")
		return m
	case <-time.After(5 * time.Second):
		t.Fatal("timeout")
	}
	return sandbox.Message{}
}

func TestWebSocket(t *testing.T) {
	srv := httptest.NewServer(sandbox.Handler(echo))
	defer srv.Close()

	d := &sandbox.Dialer{URL: "ws" + strings.TrimPrefix(srv.URL, "http")}
	s, err := d.Open(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Send(sandbox.Start([]byte{1}, sandbox.Config{Board: "nano"})))
	assert.Equal(t, sandbox.Log("started on nano"), recv(t, s))
	assert.Equal(t, sandbox.TypeNotify, recv(t, s).Type)
	require.NoError(t, s.Send(sandbox.GetUpdate()))
	m := recv(t, s)
	assert.Equal(t, sandbox.TypeUpdate, m.Type)
	assert.Equal(t, []sandbox.Update{{Kind: sandbox.GPIOSet, Pin: 13, High: true}}, m.Updates)

	require.NoError(t, s.Close())
	assert.Equal(t, sandbox.ErrClosed, s.Send(sandbox.GetUpdate()))
	_, ok := <-s.Recv()
	assert.False(t, ok)
}

func TestWebSocket_badFrame(t *testing.T) {
	srv := httptest.NewServer(sandbox.Handler(echo))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	// text frames are ignored, undecodable frames are reported as log lines.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0xff}))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	typ, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, typ)
	m, err := sandbox.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, sandbox.TypeLog, m.Type)
	assert.Contains(t, m.Text, "decode")
}

func TestDialer_error(t *testing.T) {
	d := &sandbox.Dialer{URL: "ws://127.0.0.1:1/nope"}
	_, err := d.Open(context.Background())
	assert.Error(t, err)
}
