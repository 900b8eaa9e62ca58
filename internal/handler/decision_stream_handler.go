package handler

import (
	"os"

	"ai-deskmate-be/internal/pkg/logger"
	internalWS "ai-deskmate-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DecisionStreamHandler upgrades admin consoles onto the live decision feed.
type DecisionStreamHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewDecisionStreamHandler(hub *internalWS.Hub, log logger.ILogger) *DecisionStreamHandler {
	return &DecisionStreamHandler{
		hub:    hub,
		logger: log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *DecisionStreamHandler) ServeWs(c *fiber.Ctx) error {
	// 1. Get Token source
	// Priority 1: Query Param (Browser standard)
	tokenStr := c.Query("token")

	// Priority 2: Authorization Header (Tooling/Non-browser standard)
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	// 2. Parse JWT with the same secret the REST middleware uses
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})

	if err != nil || !token.Valid {
		h.logger.Warn("DecisionStreamHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	// 3. Extract OperatorID from Claim
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	operatorIDStr, ok := claims["operator_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing operator_id"})
	}

	// 4. Parse as UUID
	operatorID, err := uuid.Parse(operatorIDStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid operator ID format in token"})
	}

	// Upgrade via Fiber WebSocket Middleware
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("DecisionStreamHandler", "Starting decision stream session", map[string]interface{}{"operator_id": operatorID})
			internalWS.ServeWs(h.hub, conn, operatorID)
			h.logger.Info("DecisionStreamHandler", "Decision stream session ended", map[string]interface{}{"operator_id": operatorID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes registers the websocket endpoint. Auth happens inside the
// handshake, not via middleware, because browsers cannot set headers on
// websocket connects.
func (h *DecisionStreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/decisions", h.ServeWs)
}
