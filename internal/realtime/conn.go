package realtime

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBufferSize = 16

var (
	errSessionClosed  = errors.New("realtime session closed")
	errSendBufferFull = errors.New("realtime send buffer full")
)

// Conn wraps a websocket connection with a buffered outbound queue drained by
// a single writer goroutine, so pushes never block the caller.
type Conn struct {
	id        string
	ws        *websocket.Conn
	send      chan Envelope
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

func newConn(ws *websocket.Conn, logger *zap.Logger) *Conn {
	return &Conn{
		id:     uuid.New().String(),
		ws:     ws,
		send:   make(chan Envelope, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// ID returns the session identifier.
func (c *Conn) ID() string { return c.id }

// Send queues e for delivery. It never blocks: a closed session or a full
// buffer returns an error so the caller can evict the session.
func (c *Conn) Send(e Envelope) error {
	select {
	case <-c.done:
		return errSessionClosed
	default:
	}
	select {
	case c.send <- e:
		return nil
	case <-c.done:
		return errSessionClosed
	default:
		return errSendBufferFull
	}
}

// Close tears down the transport and stops the writer. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

// writer drains the send queue onto the websocket until the session closes.
func (c *Conn) writer() {
	defer c.Close()
	for {
		select {
		case e := <-c.send:
			if err := c.ws.WriteJSON(e); err != nil {
				c.logger.Warn("websocket write error",
					zap.String("session_id", c.id), zap.Error(err))
				return
			}
		case <-c.done:
			return
		}
	}
}
