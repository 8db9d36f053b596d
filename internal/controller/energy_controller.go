package controller

import (
	"errors"

	"ai-toolkit-be/internal/dto"
	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/pkg/serverutils"
	"ai-toolkit-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IEnergyController interface {
	RegisterRoutes(r fiber.Router)
	GetStats(ctx *fiber.Ctx) error
	Debit(ctx *fiber.Ctx) error
	GetTransactions(ctx *fiber.Ctx) error
	GetTools(ctx *fiber.Ctx) error
}

type energyController struct {
	service service.IEnergyService
}

func NewEnergyController(service service.IEnergyService) IEnergyController {
	return &energyController{service: service}
}

func (c *energyController) RegisterRoutes(r fiber.Router) {
	r.Get("/tools", c.GetTools)

	h := r.Group("/energy", serverutils.JwtMiddleware)
	h.Get("/", c.GetStats)
	h.Post("/debit", c.Debit)
	h.Get("/transactions", c.GetTransactions)
}

func (c *energyController) GetStats(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetStats(ctx.Context(), userId)
	if err != nil {
		return respondLedgerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Energy stats", res))
}

func (c *energyController) Debit(ctx *fiber.Ctx) error {
	var req dto.DebitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	callerId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	// Default to self-debit when the body omits the target.
	if req.UserId == uuid.Nil {
		req.UserId = callerId
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Debit(ctx.Context(), callerId, &req)
	if err != nil {
		return respondLedgerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Energy deducted", res))
}

func (c *energyController) GetTransactions(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", 20)

	res, err := c.service.GetTransactions(ctx.Context(), userId, page, limit)
	if err != nil {
		return respondLedgerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Transaction history", res))
}

func (c *energyController) GetTools(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Tool catalog", c.service.GetTools(ctx.Context())))
}

// currentUserId reads the authenticated identity set by JwtMiddleware.
func currentUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "missing identity")
	}
	userId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid identity")
	}
	return userId, nil
}

// respondLedgerError translates domain errors into HTTP statuses. The
// insufficient-funds case keeps its balance and required figures in the
// body so clients can render the shortfall.
func respondLedgerError(ctx *fiber.Ctx, err error) error {
	var insufficient *entity.InsufficientEnergyError
	if errors.As(err, &insufficient) {
		return ctx.Status(fiber.StatusPaymentRequired).JSON(serverutils.BaseResponse[*dto.InsufficientEnergyResponse]{
			Success: false,
			Code:    fiber.StatusPaymentRequired,
			Message: insufficient.Error(),
			Data: &dto.InsufficientEnergyResponse{
				Balance:   insufficient.Balance,
				Required:  insufficient.Required,
				Shortfall: insufficient.Shortfall(),
			},
		})
	}

	switch {
	case errors.Is(err, entity.ErrForbidden),
		errors.Is(err, entity.ErrProtectedAccount),
		errors.Is(err, entity.ErrSelfDemotion):
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(fiber.StatusForbidden, err.Error()))
	case errors.Is(err, entity.ErrUserNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, err.Error()))
	case errors.Is(err, entity.ErrInvalidAmount),
		errors.Is(err, entity.ErrUnknownTool),
		errors.Is(err, entity.ErrInvalidTxType):
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
}
