package server

import (
	"context"
	"encoding/json"

	"codeberg.org/varken/sensorbridge/internal/logger"
)

// Hub fans each published cycle out to connected websocket clients.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 8),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			logger.Debug().Int("clients", len(h.clients)).Msg("websocket client registered")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				logger.Debug().Int("clients", len(h.clients)).Msg("websocket client unregistered")
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Slow or gone; drop it rather than stall the publish path
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// add hands a client to Run; reports false once the hub has shut down,
// so connection handlers never block on a dead hub.
func (h *Hub) add(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// remove is safe to call after the hub has shut down.
func (h *Hub) remove(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// BroadcastState sends one published cycle to every connected client.
// Best effort: marshalling failures are logged and the cycle is skipped.
func (h *Hub) BroadcastState(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal state broadcast")
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		// Nobody draining the hub must never block the sync loop
	}
}
