// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sandbox

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const writeTimeout = 5 * time.Second

// Dialer opens sessions on a remote sandbox over a WebSocket. Messages are
// exchanged as CBOR in binary frames.
//
type Dialer struct {
	URL    string
	Header http.Header
}

// Open dials d.URL.
//
func (d *Dialer) Open(ctx context.Context) (Session, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, d.URL, d.Header)
	if err != nil {
		return nil, errors.Wrapf(err, "dial sandbox %s", d.URL)
	}
	return newWSSession(conn), nil
}

// Handler returns an http.Handler that upgrades incoming requests to
// WebSocket sessions and hands the program side of each to run. The session
// is closed when run returns.
//
func Handler(run func(ctx context.Context, s Session)) http.Handler {
	up := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s := newWSSession(conn)
		defer s.Close()
		run(r.Context(), s)
	})
}

type wsSession struct {
	conn *websocket.Conn
	wmu  sync.Mutex
	in   chan Message
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func newWSSession(conn *websocket.Conn) *wsSession {
	s := &wsSession{
		conn: conn,
		in:   make(chan Message, queueSize),
		done: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.read()
	return s
}

func (s *wsSession) read() {
	defer s.wg.Done()
	defer close(s.in)
	for {
		typ, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		if typ != websocket.BinaryMessage {
			continue
		}
		m, err := Decode(data)
		if err != nil {
			// undecodable frames are reported, the session stays up.
			m = Log(err.Error())
		}
		select {
		case s.in <- m:
		case <-s.done:
			return
		}
	}
}

func (s *wsSession) Send(m Message) error {
	data, err := Encode(&m)
	if err != nil {
		return err
	}
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return errors.Wrap(s.conn.WriteMessage(websocket.BinaryMessage, data), "send "+m.Type.String())
}

func (s *wsSession) Recv() <-chan Message { return s.in }

func (s *wsSession) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		s.wmu.Lock()
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.wmu.Unlock()
		err = s.conn.Close()
		s.wg.Wait()
	})
	return err
}
