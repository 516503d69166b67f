package websocket

import (
	"sync"

	"github.com/satriahrh/dsa-assistant/utils/log"
)

// ConnectionObserver is notified when clients come and go.
type ConnectionObserver interface {
	WebsocketConnected()
	WebsocketDisconnected()
}

type nopObserver struct{}

func (nopObserver) WebsocketConnected()    {}
func (nopObserver) WebsocketDisconnected() {}

// Hub tracks live connections. It never routes messages between clients;
// every reply goes back to the connection that asked.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	observer ConnectionObserver
}

func NewHub(observer ConnectionObserver) *Hub {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Hub{
		clients:  make(map[*Client]struct{}),
		observer: observer,
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.observer.WebsocketConnected()
	log.WithCtx(client.ctx).Debug("New client registered")
}

// Unregister removes a client from the hub and closes it.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if !ok {
		return
	}
	client.Close()
	h.observer.WebsocketDisconnected()
	log.WithCtx(client.ctx).Debug("Client unregistered")
}

// CloseAll closes every live connection. Handlers blocked on a client
// unregister it themselves once it is closed.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.Close()
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
