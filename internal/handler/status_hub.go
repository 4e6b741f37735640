package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-billing/internal/models"
)

const (
	hubClientBuffer = 8
	hubWriteTimeout = 5 * time.Second
)

// StatusHub fans sync status changes out to websocket clients. Each client
// first receives the current status, then every later change. A client
// that falls behind skips intermediate statuses.
type StatusHub struct {
	current func() models.SyncStatus
	origins []string
	logger  *zap.Logger

	mu      sync.Mutex
	clients map[chan models.SyncStatus]struct{}
}

// NewStatusHub builds a hub. current supplies the status sent on connect.
func NewStatusHub(current func() models.SyncStatus, origins []string, logger *zap.Logger) *StatusHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusHub{
		current: current,
		origins: origins,
		logger:  logger,
		clients: make(map[chan models.SyncStatus]struct{}),
	}
}

// Broadcast queues status for every connected client.
func (h *StatusHub) Broadcast(status models.SyncStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- status:
		default:
			// drop the oldest queued status to make room
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- status:
			default:
			}
		}
	}
}

// Clients reports the number of connected clients.
func (h *StatusHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve upgrades the request and streams statuses until the client leaves.
func (h *StatusHub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.logger.Warn("status stream upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ch := make(chan models.SyncStatus, hubClientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
	}()

	ctx := conn.CloseRead(r.Context())
	if h.current != nil {
		if err := h.write(ctx, conn, h.current()); err != nil {
			return
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case status := <-ch:
			if err := h.write(ctx, conn, status); err != nil {
				h.logger.Debug("status stream closed", zap.Error(err))
				return
			}
		}
	}
}

func (h *StatusHub) write(ctx context.Context, conn *websocket.Conn, status models.SyncStatus) error {
	ctx, cancel := context.WithTimeout(ctx, hubWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, status)
}
