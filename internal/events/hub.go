package events

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
)

const (
	clientBuffer = 32
	writeTimeout = 10 * time.Second
)

// Hub streams each user's domain events to their open websocket
// connections. It subscribes to the Bus like any other handler.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[chan domain.Event]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: map[uuid.UUID]map[chan domain.Event]struct{}{}}
}

// HandleEvent fans the event out to every connection of every recipient.
// A slow connection loses events rather than stalling the bus.
func (h *Hub) HandleEvent(_ context.Context, evt domain.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, userID := range evt.Recipients {
		for ch := range h.clients[userID] {
			select {
			case ch <- evt:
			default:
				logger.Warn("Websocket client lagging, dropping event", "userID", userID, "type", evt.Type)
			}
		}
	}
	return nil
}

func (h *Hub) register(userID uuid.UUID) chan domain.Event {
	ch := make(chan domain.Event, clientBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[chan domain.Event]struct{}{}
	}
	h.clients[userID][ch] = struct{}{}
	return ch
}

func (h *Hub) unregister(userID uuid.UUID, ch chan domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[userID], ch)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// Connections reports how many sockets a user has open.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Serve upgrades the request and writes the user's events until either
// side goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Warn("Websocket accept failed", "userID", userID, "error", err)
		return
	}
	defer conn.CloseNow()

	ch := h.register(userID)
	defer h.unregister(userID, ch)
	logger.Debug("Websocket client connected", "userID", userID)

	// Clients only listen; CloseRead handles their control frames and
	// cancels ctx once they disconnect.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Websocket client disconnected", "userID", userID)
			return
		case evt := <-ch:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, evt)
			cancel()
			if err != nil {
				logger.Debug("Websocket write failed", "userID", userID, "error", err)
				return
			}
		}
	}
}
