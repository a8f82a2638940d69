package http

import (
	"net/http"
	"strconv"

	"crowdfunding-ledger-backend/internal/common/logger"
	"crowdfunding-ledger-backend/internal/features/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *events.Hub
	upgrader websocket.Upgrader
}

// NewHandler serves the websocket event feed. allowedOrigin restricts the
// browser origin, an empty value accepts any origin.
func NewHandler(hub *events.Hub, allowedOrigin string) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/events/ws", h.subscribe)
}

// @Summary Subscribe to ledger events
// @Description Upgrades to a websocket that streams CampaignCreated, DonationReceived, CampaignTargetReached, FundsWithdrawn and CampaignDeleted events
// @Tags events
// @Param campaign_id query int false "Only events of this campaign"
// @Success 101 {object} models.Event
// @Failure 400 {object} middleware.ErrorResponse
// @Router /events/ws [get]
func (h *Handler) subscribe(c *gin.Context) {
	var campaignID *uint64
	if raw := c.Query("campaign_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign_id"})
			return
		}
		campaignID = &id
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := h.hub.Register(conn, campaignID)

	// Subscribers only listen; read until the peer goes away.
	go func() {
		defer h.hub.Unregister(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
