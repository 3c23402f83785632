package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const hubWriteWait = 5 * time.Second

// upgrader accepts any origin: the server renders local previews and the
// reload socket carries nothing worth protecting.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub tracks live-reload sockets and pushes notices to all of them. Writes
// are serialized under mu; the per-connection read loop runs in the handler
// goroutine gin gave us.
type hub struct {
	logger *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newHub(logger *zap.Logger) *hub {
	return &hub{logger: logger, conns: make(map[*websocket.Conn]struct{})}
}

// handle upgrades the request and parks until the client disconnects.
func (h *hub) handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	// The http server's read deadline is still armed on the hijacked
	// connection; clear it so idle clients stay connected.
	_ = conn.SetReadDeadline(time.Time{})

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("live client connected", zap.String("remote", conn.RemoteAddr().String()))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
	h.logger.Debug("live client disconnected", zap.String("remote", conn.RemoteAddr().String()))
}

// broadcast sends message to every connected client and drops the ones that
// fail to take the write.
func (h *hub) broadcast(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
}

// clientCount reports connected sockets.
func (h *hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// closeAll says goodbye to every client, typically at shutdown.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(hubWriteWait))
		_ = conn.Close()
		delete(h.conns, conn)
	}
}
