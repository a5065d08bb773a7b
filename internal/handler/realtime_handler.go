package handler

import (
	"context"

	"ai-thumbnail-be/internal/pkg/logger"
	"ai-thumbnail-be/internal/pkg/serverutils"
	"ai-thumbnail-be/internal/service"
	internalWS "ai-thumbnail-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type RealtimeHandler struct {
	generationService service.IGenerationService
	chatService       service.IChatService
	hub               *internalWS.Hub
	jwtSecret         string
	logger            logger.ILogger
}

func NewRealtimeHandler(generationService service.IGenerationService, chatService service.IChatService, hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *RealtimeHandler {
	return &RealtimeHandler{
		generationService: generationService,
		chatService:       chatService,
		hub:               hub,
		jwtSecret:         jwtSecret,
		logger:            log,
	}
}

func (h *RealtimeHandler) RegisterRoutes(r fiber.Router) {
	ws := r.Group("/ws")
	ws.Get("/generations/:id", h.ServeGeneration)
	ws.Get("/chat/:conversationId", h.ServeChat)
	ws.Get("/stats", h.Stats)
}

// ServeGeneration streams lifecycle events of one generation to its owner.
func (h *RealtimeHandler) ServeGeneration(c *fiber.Ctx) error {
	userID, err := h.authenticate(c)
	if err != nil {
		return err
	}
	generationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return service.ErrGenerationNotFound
	}

	status, err := h.generationService.GetStatus(c.UserContext(), userID, generationID)
	if err != nil {
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	greeting := internalWS.NewEvent(service.FrameConnection, map[string]interface{}{
		"generation_id": generationID,
		"status":        status.Status,
		"progress":      status.Progress,
	})
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("Realtime", "Generation subscriber connected", map[string]interface{}{
			"user_id":       userID,
			"generation_id": generationID,
		})
		internalWS.ServeWs(h.hub, conn, userID, internalWS.SessionOptions{
			Topics:   []string{internalWS.GenerationTopic(generationID)},
			Greeting: &greeting,
		})
		h.logger.Info("Realtime", "Generation subscriber disconnected", map[string]interface{}{
			"user_id":       userID,
			"generation_id": generationID,
		})
	})(c)
}

// ServeChat joins the caller to a conversation room.
func (h *RealtimeHandler) ServeChat(c *fiber.Ctx) error {
	userID, err := h.authenticate(c)
	if err != nil {
		return err
	}
	conversationID, err := uuid.Parse(c.Params("conversationId"))
	if err != nil {
		return service.ErrConversationNotFound
	}

	if _, err := h.chatService.Authorize(c.UserContext(), userID, conversationID); err != nil {
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	greeting := internalWS.NewEvent(service.FrameConnection, map[string]interface{}{
		"conversation_id": conversationID,
		"status":          "connected",
	})
	return websocket.New(func(conn *websocket.Conn) {
		internalWS.ServeWs(h.hub, conn, userID, internalWS.SessionOptions{
			Topics:   []string{internalWS.ConversationTopic(conversationID)},
			Greeting: &greeting,
			OnMessage: func(client *internalWS.Client, data []byte) {
				h.chatService.HandleFrame(context.Background(), conversationID, userID, client.ID, data)
			},
			OnClose: func(client *internalWS.Client) {
				h.chatService.Disconnected(conversationID, userID)
			},
		})
	})(c)
}

func (h *RealtimeHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(serverutils.SuccessResponse("Realtime stats", h.hub.Stats()))
}

func (h *RealtimeHandler) authenticate(c *fiber.Ctx) (uuid.UUID, error) {
	userID, err := serverutils.ParseUserToken(h.jwtSecret, serverutils.BearerToken(c))
	if err != nil {
		h.logger.Warn("Realtime", "Rejected websocket handshake", map[string]interface{}{"error": err.Error()})
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}
	return userID, nil
}
