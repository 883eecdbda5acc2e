package websocket

import (
	"context"
	"log/slog"

	"go-live-chatroom/internal/metrics"
)

// Hub tracks live connections per user. When a user's last connection goes
// away the idle callback runs, which clears their presence.
type Hub struct {
	// Connected clients grouped by user id.
	clients map[int64]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	onIdle func(userID int64)
	done   chan struct{}
}

func NewHub(onIdle func(userID int64)) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		onIdle:     onIdle,
		done:       make(chan struct{}),
	}
}

// Run owns the client map until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
			metrics.WSConnections.Inc()
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, ok := set[client]; !ok {
				continue
			}
			delete(set, client)
			metrics.WSConnections.Dec()

			if len(set) == 0 {
				delete(h.clients, client.userID)
				if h.onIdle != nil {
					h.onIdle(client.userID)
				}
				slog.Debug("user has no live connections", "user_id", client.userID)
			}
		}
	}
}

// Register reports false when the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
