package handler

import (
	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/internal/pkg/serverutils"
	internalWS "ai-sceneguide-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// GuideStatusHandler streams guide lifecycle events to the owner over a
// websocket, so clients can wait for the secondary pass without polling.
type GuideStatusHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewGuideStatusHandler(hub *internalWS.Hub, log logger.ILogger) *GuideStatusHandler {
	return &GuideStatusHandler{hub: hub, logger: log}
}

func (h *GuideStatusHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Get("/ws/guides", auth, h.ServeWs)
}

// ServeWs upgrades an authenticated request. Browsers pass the token as
// the "token" query parameter.
func (h *GuideStatusHandler) ServeWs(c *fiber.Ctx) error {
	ownerID, err := serverutils.UserID(c)
	if err != nil {
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("GUIDE_STATUS", "Starting WebSocket session", map[string]interface{}{"owner_id": ownerID.String()})
		internalWS.ServeWs(h.hub, conn, ownerID)
		h.logger.Info("GUIDE_STATUS", "WebSocket session ended", map[string]interface{}{"owner_id": ownerID.String()})
	})(c)
}
