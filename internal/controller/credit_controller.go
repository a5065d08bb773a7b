package controller

import (
	"ai-thumbnail-be/internal/dto"
	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/pkg/serverutils"
	"ai-thumbnail-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICreditController interface {
	RegisterRoutes(r fiber.Router)
	Balance(ctx *fiber.Ctx) error
	Transactions(ctx *fiber.Ctx) error
	Packages(ctx *fiber.Ctx) error
	Purchase(ctx *fiber.Ctx) error
	Notification(ctx *fiber.Ctx) error
}

type creditController struct {
	ledger         service.ILedgerService
	paymentService service.IPaymentService
	auth           fiber.Handler
}

func NewCreditController(ledger service.ILedgerService, paymentService service.IPaymentService, auth fiber.Handler) ICreditController {
	return &creditController{
		ledger:         ledger,
		paymentService: paymentService,
		auth:           auth,
	}
}

func (c *creditController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/credits")
	// Gateway callbacks carry a signature instead of a user token.
	h.Post("/midtrans/notification", c.Notification)
	h.Get("/packages", c.Packages)

	h.Get("/balance", c.auth, c.Balance)
	h.Get("/transactions", c.auth, c.Transactions)
	h.Post("/purchases", c.auth, c.Purchase)
}

func (c *creditController) Balance(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	balance, err := c.ledger.OpenAccount(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get balance", &dto.CreditBalanceResponse{Balance: balance}))
}

func (c *creditController) Transactions(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.ListTransactionsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	rows, total, err := c.ledger.Transactions(ctx.Context(), userId, req.Limit, (req.Page-1)*req.Limit)
	if err != nil {
		return err
	}

	items := make([]*dto.CreditTransactionResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, toTransactionResponse(row))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list transactions", &dto.ListTransactionsResponse{
		Items: items,
		Total: total,
		Page:  req.Page,
		Limit: req.Limit,
	}))
}

func (c *creditController) Packages(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success list packages", c.paymentService.Packages()))
}

func (c *creditController) Purchase(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.CreatePurchaseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.paymentService.CreatePurchase(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Purchase created", res))
}

func (c *creditController) Notification(ctx *fiber.Ctx) error {
	var req dto.MidtransWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid notification body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.paymentService.HandleNotification(ctx.Context(), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("OK", nil))
}

func toTransactionResponse(t *entity.CreditTransaction) *dto.CreditTransactionResponse {
	return &dto.CreditTransactionResponse{
		Id:          t.Id,
		Type:        string(t.Kind),
		Amount:      t.Amount,
		Description: t.Description,
		ReferenceId: t.ReferenceId,
		CreatedAt:   t.CreatedAt,
	}
}
