package ws

import (
	"encoding/json"
	"sync"

	"github.com/xqian/apparel-crm-backend/internal/app/service"
	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

// Hub fans import events out to every connected dashboard watcher.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 1024),
	}
}

// Run processes register/unregister/broadcast until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("Import watcher connected", map[string]interface{}{
				"total_watchers": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("Import watcher disconnected", map[string]interface{}{
				"total_watchers": total,
			})

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Send buffer full, drop the slow watcher
					go h.Unregister(client)
					logger.Warn("Watcher send buffer full, disconnecting", nil)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// PublishEvent broadcasts an import event to all watchers. Satisfies
// service.ImportSink via method value.
func (h *Hub) PublishEvent(event service.ImportEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal import event", err)
		return
	}
	select {
	case h.broadcast <- message:
	default:
		logger.Warn("Import event broadcast buffer full, dropping event", nil)
	}
}
