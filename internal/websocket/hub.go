package websocket

import (
	"encoding/json"
	"sync"
)

type BalanceUpdate struct {
	Available string `json:"available"`
	Pending   string `json:"pending"`
	Currency  string `json:"currency"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(merchantID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[merchantID] == nil {
		h.clients[merchantID] = make(map[*Client]struct{})
	}
	h.clients[merchantID][client] = struct{}{}
}

func (h *Hub) Unregister(merchantID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[merchantID] == nil {
		return
	}
	delete(h.clients[merchantID], client)
	if len(h.clients[merchantID]) == 0 {
		delete(h.clients, merchantID)
	}
}

func (h *Hub) BroadcastBalance(merchantID string, update BalanceUpdate) {
	payload, _ := json.Marshal(update)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[merchantID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}
