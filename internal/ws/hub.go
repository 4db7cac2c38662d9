package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type connectionMetrics interface {
	WebsocketConnected(delta int)
	RecordBroadcast(event string)
}

type outbound struct {
	initiatorID string
	event       Event
}

// Hub fans entity-change events out to all connected clients except the
// mutation's initiator. Registration, departure and broadcast all flow
// through channels consumed by a single goroutine, so the client set needs
// no locking on that path; the mutex only guards late sends after shutdown.
type Hub struct {
	logger  *zap.Logger
	metrics connectionMetrics

	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound

	mu      sync.Mutex
	clients map[string]*Client
	closed  bool
}

// NewHub constructs a Hub. metrics may be nil.
func NewHub(logger *zap.Logger, metrics connectionMetrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:     logger,
		metrics:    metrics,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 64),
		clients:    make(map[string]*Client),
	}
}

// Run consumes hub traffic until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.WebsocketConnected(1)
			}
			h.logger.Debug("socket connected", zap.String("socket_id", client.ID), zap.String("user_id", client.UserID))
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
				if h.metrics != nil {
					h.metrics.WebsocketConnected(-1)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("socket disconnected", zap.String("socket_id", client.ID))
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastExcept queues an event for every connected client except the
// initiator. A full queue drops the event with a warning rather than
// blocking the originating request.
func (h *Hub) BroadcastExcept(initiatorID, event string, payload interface{}) {
	select {
	case h.broadcast <- outbound{initiatorID: initiatorID, event: Event{Name: event, Payload: payload}}:
	default:
		h.logger.Warn("broadcast queue full, dropping event", zap.String("event", event))
	}
}

func (h *Hub) deliver(msg outbound) {
	frame, err := msg.event.marshal()
	if err != nil {
		h.logger.Warn("failed to encode event", zap.String("event", msg.event.Name), zap.Error(err))
		return
	}
	if h.metrics != nil {
		h.metrics.RecordBroadcast(msg.event.Name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		if id == msg.initiatorID {
			continue
		}
		select {
		case client.send <- frame:
		default:
			// Slow consumer: drop the connection rather than the hub.
			delete(h.clients, id)
			close(client.send)
			if h.metrics != nil {
				h.metrics.WebsocketConnected(-1)
			}
			h.logger.Warn("dropping slow socket", zap.String("socket_id", id))
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.send)
	}
}
