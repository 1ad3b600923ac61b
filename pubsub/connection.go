// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrClosed  = errors.New("connection closed")
	ErrBacklog = errors.New("too many pending messages")
)

// Handler processes a message a client sent on [c].
type Handler func(msg []byte, c *Connection)

// Connection is one websocket client. A reader and a writer goroutine own
// the socket; everything else talks to the client through [Send].
type Connection struct {
	s  *Server
	ws *websocket.Conn

	mu     sync.RWMutex
	closed bool
	outbox chan []byte

	released sync.Once
}

func newConnection(s *Server, ws *websocket.Conn) *Connection {
	return &Connection{
		s:      s,
		ws:     ws,
		outbox: make(chan []byte, s.config.MaxPendingMessages),
	}
}

// Send queues [msg] for the writer without blocking.
func (c *Connection) Send(msg []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}
	select {
	case c.outbox <- msg:
		return nil
	default:
		return ErrBacklog
	}
}

// shutdown stops accepting messages. The writer sends a close frame once
// the queued messages are written.
func (c *Connection) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.outbox)
	}
}

// release detaches [c] from the server and closes the socket. Both
// goroutines call it on exit; only the first reason is logged.
func (c *Connection) release(reason string, err error) {
	c.released.Do(func() {
		c.s.log.Debug("websocket connection closed",
			zap.String("reason", reason),
			zap.Error(err),
		)
	})
	c.s.conns.Remove(c)
	c.shutdown()
	_ = c.ws.Close()
}

func (c *Connection) read() {
	c.release(c.readLoop())
}

func (c *Connection) readLoop() (string, error) {
	cfg := c.s.config
	c.ws.SetReadLimit(cfg.MaxReadMessageSize)
	extend := func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(cfg.PongWait))
	}
	if err := extend(""); err != nil {
		return "failed to set the read deadline", err
	}
	c.ws.SetPongHandler(extend)
	for {
		_, r, err := c.ws.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				return "unexpected close", err
			}
			return "client went away", nil
		}
		if c.s.handler == nil {
			continue
		}
		msg, err := io.ReadAll(r)
		if err != nil {
			return "failed to read message", err
		}
		c.s.handler(msg, c)
	}
}

func (c *Connection) write() {
	c.release(c.writeLoop())
}

func (c *Connection) writeLoop() (string, error) {
	ping := time.NewTicker(c.s.config.PingPeriod)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-c.outbox:
			if !ok {
				_ = c.frame(websocket.CloseMessage, nil)
				return "server closed the connection", nil
			}
			if err := c.frame(websocket.TextMessage, msg); err != nil {
				return "failed to write message", err
			}
		case <-ping.C:
			if err := c.frame(websocket.PingMessage, nil); err != nil {
				return "failed to write ping", err
			}
		}
	}
}

// frame writes one websocket frame within the write deadline.
func (c *Connection) frame(kind int, data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.s.config.WriteWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(kind, data)
}
