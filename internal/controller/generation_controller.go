package controller

import (
	"time"

	"ai-thumbnail-be/internal/dto"
	"ai-thumbnail-be/internal/pkg/serverutils"
	"ai-thumbnail-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IGenerationController interface {
	RegisterRoutes(r fiber.Router)
	Algorithms(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	CreateConversation(ctx *fiber.Ctx) error
}

type generationController struct {
	generationService service.IGenerationService
	chatService       service.IChatService
	auth              fiber.Handler
}

func NewGenerationController(generationService service.IGenerationService, chatService service.IChatService, auth fiber.Handler) IGenerationController {
	return &generationController{
		generationService: generationService,
		chatService:       chatService,
		auth:              auth,
	}
}

func (c *generationController) RegisterRoutes(r fiber.Router) {
	r.Get("/algorithms", c.Algorithms)

	h := r.Group("/generations")
	h.Use(c.auth)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get("stats", c.Stats)
	h.Get(":id", c.Show)
	h.Get(":id/status", c.Status)
	h.Delete(":id", c.Cancel)

	conv := r.Group("/conversations")
	conv.Use(c.auth)
	conv.Post("", c.CreateConversation)
}

func (c *generationController) Algorithms(ctx *fiber.Ctx) error {
	res, err := c.generationService.ListAlgorithms(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list algorithms", res))
}

func (c *generationController) Create(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateGenerationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.generationService.CreateGeneration(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Generation queued", res))
}

func (c *generationController) List(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.ListGenerationsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.generationService.List(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list generations", res))
}

func (c *generationController) Stats(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.generationService.Stats(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success generation stats", res))
}

func (c *generationController) Show(ctx *fiber.Ctx) error {
	userId, id, err := c.ids(ctx)
	if err != nil {
		return err
	}

	res, err := c.generationService.Show(ctx.Context(), userId, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show generation", res))
}

func (c *generationController) Status(ctx *fiber.Ctx) error {
	userId, id, err := c.ids(ctx)
	if err != nil {
		return err
	}

	res, err := c.generationService.GetStatus(ctx.Context(), userId, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success generation status", res))
}

func (c *generationController) Cancel(ctx *fiber.Ctx) error {
	userId, id, err := c.ids(ctx)
	if err != nil {
		return err
	}

	if err := c.generationService.Cancel(ctx.Context(), userId, id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Generation cancelled", nil))
}

func (c *generationController) CreateConversation(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateConversationRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	conversation, err := c.chatService.CreateConversation(ctx.Context(), userId, req.Title)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Conversation created", &dto.ConversationResponse{
		Id:        conversation.Id,
		Title:     conversation.Title,
		CreatedAt: conversation.CreatedAt.Format(time.RFC3339),
	}))
}

func (c *generationController) ids(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		// Malformed ids are indistinguishable from missing ones.
		return uuid.Nil, uuid.Nil, service.ErrGenerationNotFound
	}
	return userId, id, nil
}
