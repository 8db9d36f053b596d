package controller

import (
	"fmt"

	"ai-toolkit-be/internal/dto"
	"ai-toolkit-be/internal/pkg/serverutils"
	"ai-toolkit-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPaymentController interface {
	RegisterRoutes(r fiber.Router)
	GetPackages(ctx *fiber.Ctx) error
	Checkout(ctx *fiber.Ctx) error
	Webhook(ctx *fiber.Ctx) error
	GetPurchaseStatus(ctx *fiber.Ctx) error
}

type paymentController struct {
	service service.IPaymentService
}

func NewPaymentController(service service.IPaymentService) IPaymentController {
	return &paymentController{service: service}
}

func (c *paymentController) RegisterRoutes(r fiber.Router) {
	r.Get("/packages", c.GetPackages)

	h := r.Group("/payment")
	h.Post("/notification", c.Webhook)
	h.Post("/checkout", serverutils.JwtMiddleware, c.Checkout)
	h.Get("/status/:orderId", serverutils.JwtMiddleware, c.GetPurchaseStatus)
}

func (c *paymentController) GetPackages(ctx *fiber.Ctx) error {
	res, err := c.service.GetPackages(ctx.Context())
	if err != nil {
		return respondLedgerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Credit packages", res))
}

func (c *paymentController) Checkout(ctx *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Checkout(ctx.Context(), userId, &req)
	if err != nil {
		return respondLedgerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Checkout created", res))
}

func (c *paymentController) Webhook(ctx *fiber.Ctx) error {
	var req dto.MidtransWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		fmt.Printf("[WEBHOOK ERROR] Body parsing failed: %v\n", err)
		return ctx.SendStatus(fiber.StatusBadRequest)
	}

	if err := c.service.HandleNotification(ctx.Context(), &req); err != nil {
		fmt.Printf("[WEBHOOK ERROR] Handling failed for OrderId=%s: %v\n", req.OrderId, err)
		// 500 makes the gateway retry the notification
		return ctx.SendStatus(fiber.StatusInternalServerError)
	}

	return ctx.SendStatus(fiber.StatusOK)
}

func (c *paymentController) GetPurchaseStatus(ctx *fiber.Ctx) error {
	orderId, err := uuid.Parse(ctx.Params("orderId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id format")
	}

	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetPurchaseStatus(ctx.Context(), userId, orderId)
	if err != nil {
		return respondLedgerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Purchase status", res))
}
