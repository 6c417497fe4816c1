package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-backend/internal/config"
	"github.com/studyhall/studyhall-backend/internal/middleware"
)

const wsWriteTimeout = 10 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams platform events to admin dashboards over WebSocket.
type WSHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// EventStream godoc
// WS /ws/v1/admin/events?token=...
// Upgrades to WebSocket and forwards live platform events as they are
// published, newest events only (history is served over HTTP).
func (h *WSHandler) EventStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("username", claims.Username).Logger()
	wsLog.Info().Msg("Admin connected to event stream")

	sub := h.rdb.Subscribe(c.Request.Context(), config.CacheKey.EventChannel())
	defer sub.Close()

	// Reader goroutine: the client never sends data, but reading is the
	// only way to notice a closed connection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-done:
			wsLog.Debug().Msg("Connection closed")
			return
		case msg, ok := <-ch:
			if !ok {
				wsLog.Warn().Msg("Event subscription closed")
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed, dropping client")
				return
			}
		}
	}
}
