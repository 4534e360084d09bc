package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/weftdev/weft/internal/logging"
)

const writeTimeout = 5 * time.Second

// reloadHub tracks live-reload websocket clients.
type reloadHub struct {
	logger  logging.Logger
	mutex   sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newReloadHub(logger logging.Logger) *reloadHub {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &reloadHub{
		logger:  logger.WithComponent("reload"),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *reloadHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // dev server only; any local origin may connect
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "websocket accept failed")
		return
	}

	h.mutex.Lock()
	h.clients[conn] = struct{}{}
	h.mutex.Unlock()

	// Block reading until the client goes away; reload messages flow the
	// other direction only.
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	h.mutex.Lock()
	delete(h.clients, conn)
	h.mutex.Unlock()
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *reloadHub) broadcast(message string) {
	h.mutex.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mutex.Unlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := conn.Write(ctx, websocket.MessageText, []byte(message))
		cancel()
		if err != nil {
			h.mutex.Lock()
			delete(h.clients, conn)
			h.mutex.Unlock()
			conn.Close(websocket.StatusGoingAway, "write failed")
		}
	}
}

func (h *reloadHub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.clients {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
	h.clients = make(map[*websocket.Conn]struct{})
}
