package websocket

import (
	"context"
	"sync"

	"goldtrader/internal/broadcast"
)

// Hub fans payloads out to the clients registered under a group name.
// Slow clients miss messages instead of blocking the sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(group string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[group] == nil {
		h.clients[group] = make(map[*Client]struct{})
	}
	h.clients[group][client] = struct{}{}
}

func (h *Hub) Unregister(group string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[group] == nil {
		return
	}
	delete(h.clients[group], client)
	if len(h.clients[group]) == 0 {
		delete(h.clients, group)
	}
}

// Broadcast sends payload to every client of group and returns how many
// clients accepted it.
func (h *Hub) Broadcast(group string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for client := range h.clients[group] {
		select {
		case client.send <- payload:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[group])
}

func (h *Hub) PublishPrice(_ context.Context, update broadcast.PriceUpdate) error {
	payload, err := broadcast.Encode(broadcast.TypePriceUpdate, update)
	if err != nil {
		return err
	}
	h.Broadcast(broadcast.PriceGroup, payload)
	return nil
}

func (h *Hub) PublishAlert(_ context.Context, userID string, event broadcast.AlertEvent) error {
	payload, err := broadcast.Encode(broadcast.TypeAlertTriggered, event)
	if err != nil {
		return err
	}
	h.Broadcast(broadcast.AlertGroup(userID), payload)
	return nil
}
