package hub

import (
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = pongWait * 9 / 10

	// Dashboard clients only send control frames.
	maxReadSize = 4 * 1024

	// Frames queued per client before the hub drops it as too slow.
	sendBuffer = 32
)

var clientSeq atomic.Uint64

// Client is one websocket subscriber of a hub.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient registers conn with the hub. Call Run to start serving it.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		id:   clientSeq.Add(1),
		hub:  h,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
	h.add(c)
	return c
}

// Run serves the connection until either side closes it. It blocks, so
// call it from the websocket handler; the connection is unusable once the
// handler returns.
func (c *Client) Run() {
	written := make(chan struct{})
	go func() {
		defer close(written)
		c.writeLoop()
	}()

	c.readLoop()
	c.hub.remove(c)
	c.conn.Close()
	<-written
}

// readLoop only exists to see pongs and the peer going away.
func (c *Client) readLoop() {
	c.conn.SetReadLimit(maxReadSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("client read failed", "client", c.id, "error", err)
			}
			return
		}
	}
}

// writeLoop is the only writer on the connection. It exits when the hub
// closes the send channel or a write fails.
func (c *Client) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		var (
			kind int
			data []byte
		)
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			kind, data = websocket.TextMessage, msg.Data
			if msg.Binary {
				kind = websocket.BinaryMessage
			}
		case <-ping.C:
			kind = websocket.PingMessage
		}

		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(kind, data); err != nil {
			c.conn.Close()
			return
		}
	}
}
