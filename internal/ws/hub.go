package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// userEvent routes an event to one user's room, or to every room when all
// is set.
type userEvent struct {
	UserID uuid.UUID
	all    bool
	Event  Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by user ID
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *userEvent

	// closed when Run returns
	done chan struct{}

	mu     sync.RWMutex
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *userEvent, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled, closing
// every client's send channel. Run must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for userID, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, userID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.userID] == nil {
				h.rooms[client.userID] = make(map[*Client]bool)
			}
			h.rooms[client.userID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.logger.Error("marshal websocket event", zap.String("type", event.Event.Type), zap.Error(err))
				continue
			}

			h.mu.Lock()
			if event.all {
				for _, clients := range h.rooms {
					h.deliver(clients, message)
				}
			} else {
				h.deliver(h.rooms[event.UserID], message)
			}
			h.mu.Unlock()
		}
	}
}

// attach adds c to its user's room. It reports false once Run has returned.
func (h *Hub) attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// detach removes c from its room. It is a no-op once Run has returned.
func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// deliver must be called with mu held.
func (h *Hub) deliver(clients map[*Client]bool, message []byte) {
	for client := range clients {
		select {
		case client.send <- message:
		default:
			// Client's send buffer is full
			h.remove(client)
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.userID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.userID)
	}
}

func (h *Hub) enqueue(ev *userEvent) {
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping event", zap.String("type", ev.Event.Type))
	}
}

// BroadcastToUser sends an event to every connection of one user.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event Event) {
	h.enqueue(&userEvent{UserID: userID, Event: event})
}

// NotifyUser marshals payload and sends it to userID's connections.
func (h *Hub) NotifyUser(userID uuid.UUID, eventType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal websocket payload", zap.String("type", eventType), zap.Error(err))
		return
	}
	h.BroadcastToUser(userID, Event{Type: eventType, Payload: raw})
}

// NotifyAll marshals payload and sends it to every connected client.
func (h *Hub) NotifyAll(eventType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal websocket payload", zap.String("type", eventType), zap.Error(err))
		return
	}
	h.enqueue(&userEvent{all: true, Event: Event{Type: eventType, Payload: raw}})
}
