package chat

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers cannot set Authorization on websocket upgrades, so auth
	// rides in the query string and origin checks stay at the proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler terminates websocket upgrades for query rooms.
type Handler struct {
	svc       *Service
	jwtSecret string
	log       *zap.Logger
}

// NewHandler builds the websocket handler.
func NewHandler(svc *Service, jwtSecret string, log *zap.Logger) *Handler {
	return &Handler{svc: svc, jwtSecret: jwtSecret, log: log}
}

// Serve handles GET /ws/query-chat/:room_token?token=...&since_id=N.
// The caller must be a thread participant; since_id replays history after
// that message id before live delivery starts.
func (h *Handler) Serve(c echo.Context) error {
	roomToken := c.Param("room_token")
	userID, _, err := utils.ParseAccessToken(h.jwtSecret, c.QueryParam("token"))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	}

	t, err := h.svc.Authorize(c.Request().Context(), roomToken, userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "room not found"})
	}

	sinceID := uint64(0)
	if raw := c.QueryParam("since_id"); raw != "" {
		if v, pErr := strconv.ParseUint(raw, 10, 64); pErr == nil {
			sinceID = v
		}
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the handshake failure.
		return nil
	}

	if err := h.svc.Subscribe(c.Request().Context(), t, userID, sinceID, conn); err != nil {
		h.log.Warn("chat subscribe failed", zap.Error(err), zap.Uint64("thread", t.ID))
	}
	return nil
}
