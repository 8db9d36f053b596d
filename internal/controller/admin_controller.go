package controller

import (
	"time"

	"ai-toolkit-be/internal/dto"
	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/pkg/serverutils"
	"ai-toolkit-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	GrantEnergy(ctx *fiber.Ctx) error
	ListTransactions(ctx *fiber.Ctx) error
	ListUsers(ctx *fiber.Ctx) error
	CreateUser(ctx *fiber.Ctx) error
	GetUserEnergy(ctx *fiber.Ctx) error
	UpdateUserRole(ctx *fiber.Ctx) error
	DeleteUser(ctx *fiber.Ctx) error
}

type adminController struct {
	service service.IAdminService
}

func NewAdminController(service service.IAdminService) IAdminController {
	return &adminController{service: service}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin", serverutils.JwtMiddleware, adminMiddleware)
	h.Post("/energy/grant", c.GrantEnergy)
	h.Get("/energy/transactions", c.ListTransactions)
	h.Get("/users", c.ListUsers)
	h.Post("/users", c.CreateUser)
	h.Get("/users/:id/energy", c.GetUserEnergy)
	h.Patch("/users/:id/role", c.UpdateUserRole)
	h.Delete("/users/:id", c.DeleteUser)
}

// adminMiddleware gates the group on the role claim. The services repeat
// the check so the policy does not live in routing alone.
func adminMiddleware(ctx *fiber.Ctx) error {
	role, _ := ctx.Locals("role").(string)
	if role != string(entity.UserRoleAdmin) {
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(fiber.StatusForbidden, "admin role required"))
	}
	return ctx.Next()
}

func (c *adminController) GrantEnergy(ctx *fiber.Ctx) error {
	var req dto.GrantRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	adminId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	role, _ := ctx.Locals("role").(string)

	res, err := c.service.GrantEnergy(ctx.Context(), adminId, entity.UserRole(role), &req)
	if err != nil {
		return respondLedgerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Energy granted", res))
}

func (c *adminController) ListTransactions(ctx *fiber.Ctx) error {
	filter := &dto.TransactionFilterRequest{
		Type:  ctx.Query("type"),
		Page:  ctx.QueryInt("page", 1),
		Limit: ctx.QueryInt("limit", 50),
	}

	if raw := ctx.Query("user_id"); raw != "" {
		userId, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid user_id format")
		}
		filter.UserId = &userId
	}
	if raw := ctx.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid from timestamp")
		}
		filter.From = &from
	}
	if raw := ctx.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid to timestamp")
		}
		filter.To = &to
	}

	res, err := c.service.ListTransactions(ctx.Context(), filter)
	if err != nil {
		return respondLedgerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Transactions", res))
}

func (c *adminController) ListUsers(ctx *fiber.Ctx) error {
	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", 50)

	res, err := c.service.ListUsers(ctx.Context(), page, limit)
	if err != nil {
		return respondLedgerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Users", res))
}

func (c *adminController) CreateUser(ctx *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateUser(ctx.Context(), &req)
	if err != nil {
		return respondLedgerError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("User created", res))
}

func (c *adminController) GetUserEnergy(ctx *fiber.Ctx) error {
	userId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id format")
	}

	res, err := c.service.GetUserEnergy(ctx.Context(), userId)
	if err != nil {
		return respondLedgerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("User energy", res))
}

func (c *adminController) UpdateUserRole(ctx *fiber.Ctx) error {
	targetId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id format")
	}

	var req dto.UpdateUserRoleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	callerId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	if err := c.service.UpdateUserRole(ctx.Context(), callerId, targetId, &req); err != nil {
		return respondLedgerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Role updated", nil))
}

func (c *adminController) DeleteUser(ctx *fiber.Ctx) error {
	targetId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id format")
	}

	callerId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	if err := c.service.DeleteUser(ctx.Context(), callerId, targetId); err != nil {
		return respondLedgerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("User deleted", nil))
}
