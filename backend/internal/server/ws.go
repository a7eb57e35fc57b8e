package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"contactgraph/backend/internal/graph"
	apperrors "contactgraph/backend/pkg/errors"
)

// Live channel message kinds. The inbound set is closed: anything else gets
// an error reply and the connection stays open.
const (
	msgSyncContacts = "sync_contacts"
	msgPing         = "ping"
	msgPong         = "pong"
	msgSyncResult   = "sync_result"
	msgError        = "error"
)

// closeAuthFailed is the close code sent when the connection credential
// fails verification
const closeAuthFailed = 4001

type wsInbound struct {
	Type     string          `json:"type"`
	Contacts []graph.Contact `json:"contacts,omitempty"`
}

func writeDeadline() time.Time {
	return time.Now().Add(5 * time.Second)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSSync is the live update channel: the caller authenticates with a token
// query parameter, then exchanges tagged JSON messages. sync_contacts runs
// the same merge as POST /contacts/sync; ping answers pong.
func (h *Handler) WSSync(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	// Verify exactly once, before any message exchange
	claims, err := h.verifier.Verify(c.Request.Context(), c.Query("token"))
	if err != nil {
		_ = ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(closeAuthFailed, "authentication failed"),
			writeDeadline(),
		)
		return
	}

	ident, err := h.resolver.Ensure(c.Request.Context(), claims)
	if err != nil {
		_ = ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(closeAuthFailed, apperrors.UserMessage(err)),
			writeDeadline(),
		)
		return
	}

	phone := ident.Phone
	if phone == "" {
		phone = claims.Subject
	}

	conn := h.registry.Register(phone, ws)
	defer h.registry.Unregister(conn)
	h.logger.Info("Live channel connected",
		zap.String("phone", phone),
		zap.Int("total", h.registry.Count()),
	)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			h.logger.Info("Live channel disconnected",
				zap.String("phone", phone),
				zap.String("reason", err.Error()),
			)
			return
		}
		h.handleLiveMessage(c, conn, phone, data)
	}
}

func (h *Handler) handleLiveMessage(c *gin.Context, conn *LiveConn, phone string, data []byte) {
	var msg wsInbound
	if err := json.Unmarshal(data, &msg); err != nil {
		_ = conn.SendJSON(gin.H{"type": msgError, "detail": "Invalid JSON."})
		return
	}

	switch msg.Type {
	case msgSyncContacts:
		synced, err := h.contacts.Sync(c.Request.Context(), phone, msg.Contacts)
		if err != nil {
			h.logger.Error("Live sync failed", zap.String("phone", phone), zap.Error(err))
			_ = conn.SendJSON(gin.H{"type": msgError, "detail": apperrors.UserMessage(err)})
			return
		}
		_ = conn.SendJSON(gin.H{"type": msgSyncResult, "synced": synced})
	case msgPing:
		_ = conn.SendJSON(gin.H{"type": msgPong})
	default:
		_ = conn.SendJSON(gin.H{
			"type":   msgError,
			"detail": "Unknown message type: '" + msg.Type + "'.",
		})
	}
}
