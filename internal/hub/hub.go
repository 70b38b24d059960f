// Package hub fans dashboard events out to websocket subscribers.
package hub

import (
	"context"
	"sync"
	"time"

	"github.com/weatherengine/maritime/internal/logger"
)

// Event types pushed to subscribers
const (
	EventAlertsRefreshed       = "alerts.refreshed"
	EventAlertAcknowledged     = "alert.acknowledged"
	EventAlertDismissed        = "alert.dismissed"
	EventRecommendationApplied = "recommendation.applied"
)

// Event is one message on the live stream
type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// Publisher is implemented by anything that accepts events
type Publisher interface {
	Publish(e Event)
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(Event) {}

// Hub maintains the set of active clients and broadcasts events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex
}

// New creates a hub; call Run to start delivering
func New() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Publish queues an event. Events are dropped when the queue is full.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	select {
	case h.broadcast <- e:
	default:
		logger.Warn("Hub queue full, dropping event", "type", e.Type)
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run delivers events until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	logger.Info("Websocket hub started")
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			logger.Info("Websocket hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Debug("Websocket client registered", "remote", c.remote, "total", total)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case e := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- e:
				default:
					// Slow subscriber
					delete(h.clients, c)
					close(c.send)
					logger.Warn("Websocket client too slow, disconnected", "remote", c.remote)
				}
			}
			h.mu.Unlock()
		}
	}
}
