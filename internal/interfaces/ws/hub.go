package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"warrantfeed/internal/application/port"
	"warrantfeed/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub is the client registry. Broadcasts are serialized so every client sees
// batches in the order they were produced.
type Hub struct {
	mu      sync.RWMutex
	clients map[port.Client]struct{}

	broadcastMu sync.Mutex
	buffer      int
}

func NewHub(buffer int) *Hub {
	return &Hub{
		clients: make(map[port.Client]struct{}),
		buffer:  buffer,
	}
}

func (h *Hub) Register(c port.Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	log.Info().Str("client", c.ID()).Int("clients", n).Msg("client connected")
}

func (h *Hub) Unregister(c port.Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		log.Info().Str("client", c.ID()).Int("clients", n).Msg("client disconnected")
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) snapshot() []port.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]port.Client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

// Broadcast sends one warrant_update to every registered client. A client
// that cannot take the message is unregistered and closed.
func (h *Hub) Broadcast(ctx context.Context, quotes []domain.Quote) int {
	payload, err := json.Marshal(domain.NewUpdate(quotes))
	if err != nil {
		log.Error().Err(err).Msg("encode warrant_update failed")
		return 0
	}

	h.broadcastMu.Lock()
	defer h.broadcastMu.Unlock()

	delivered := 0
	for _, c := range h.snapshot() {
		if err := c.Send(payload); err != nil {
			log.Warn().Err(err).Str("client", c.ID()).Msg("dropping client")
			h.Unregister(c)
			_ = c.Close()
			continue
		}
		delivered++
	}
	return delivered
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	for _, c := range h.snapshot() {
		h.Unregister(c)
		_ = c.Close()
	}
}

// ServeWS upgrades the request and blocks until the connection ends.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	c := newClient(uuid.NewString(), conn, h.buffer)
	h.Register(c)
	go c.writePump()

	c.readPump()
	h.Unregister(c)
	_ = c.Close()
}

var (
	_ port.Broadcaster = (*Hub)(nil)
	_ port.Client      = (*Client)(nil)
)
