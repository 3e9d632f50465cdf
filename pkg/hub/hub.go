// Package hub fans dashboard streams out to websocket clients. Each stream
// (status, scene, frames, video, logs) gets its own Hub.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/teslashibe/go-turret/internal/log"
)

// Message is one frame queued for every client. Binary frames carry PNG
// scenes or JPEG previews; everything else is JSON text.
type Message struct {
	Binary bool
	Data   []byte
}

// Hub owns one stream's subscribers. Only the Run goroutine touches the
// client set; everything else talks to it over channels.
type Hub struct {
	name string
	log  *slog.Logger

	clients map[*Client]struct{}

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // closed when Run returns

	count   atomic.Int32
	running atomic.Bool
	dropped atomic.Uint64
}

// New creates a hub; name tags its log lines.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		log:        log.With("hub", name),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
// Start it on its own goroutine before clients connect.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		for c := range h.clients {
			h.detach(c)
		}
		h.running.Store(false)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int32(len(h.clients)))
			h.log.Info("client connected", "client", c.id, "clients", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.detach(c)
				h.log.Info("client disconnected", "client", c.id, "clients", len(h.clients))
			}
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// fanOut queues msg for every client, dropping any whose buffer is full.
func (h *Hub) fanOut(msg Message) {
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.detach(c)
			h.log.Warn("dropped slow client", "client", c.id)
		}
	}
}

func (h *Hub) detach(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int32(len(h.clients)))
}

// Broadcast queues msg for all clients. It never blocks; when the hub
// falls behind the message is discarded.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		if n := h.dropped.Add(1); n == 1 || n%100 == 0 {
			h.log.Warn("broadcast queue full, dropping message", "dropped", n)
		}
	}
}

// BroadcastJSON encodes v and broadcasts it as a text frame.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(Message{Data: data})
	return nil
}

// BroadcastBinary broadcasts data as a binary frame.
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(Message{Binary: true, Data: data})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// IsRunning reports whether Run is active.
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Dropped returns how many broadcasts were discarded because the hub was behind.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

func (h *Hub) add(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
