// FILE: internal/controller/admin_controller.go
package controller

import (
	"ai-deskmate-be/internal/dto"
	"ai-deskmate-be/internal/pkg/serverutils"
	"ai-deskmate-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error

	// Operator Management
	ListOperators(ctx *fiber.Ctx) error
	CreateOperator(ctx *fiber.Ctx) error
	UpdateOperator(ctx *fiber.Ctx) error
	DeleteOperator(ctx *fiber.Ctx) error

	// Prototype Catalog
	ListPrototypes(ctx *fiber.Ctx) error
	CreatePrototype(ctx *fiber.Ctx) error
	UpdatePrototype(ctx *fiber.Ctx) error
	DeletePrototype(ctx *fiber.Ctx) error
	TestQuery(ctx *fiber.Ctx) error
	Reload(ctx *fiber.Ctx) error

	// Confidence Thresholds
	GetThresholds(ctx *fiber.Ctx) error
	UpdateThresholds(ctx *fiber.Ctx) error
	ResetThresholds(ctx *fiber.Ctx) error

	// Decision Audit
	ListDecisions(ctx *fiber.Ctx) error
	DecisionVolume(ctx *fiber.Ctx) error

	// System Logs
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
}

type adminController struct {
	authService  service.IAuthService
	adminService service.IAdminService
}

func NewAdminController(authService service.IAuthService, adminService service.IAdminService) IAdminController {
	return &adminController{
		authService:  authService,
		adminService: adminService,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")

	// Login stays in front of the auth middleware.
	h.Post("login", c.Login)

	h.Use(serverutils.JwtMiddleware)

	// Reads: viewer or admin.
	h.Get("operators", c.ListOperators)
	h.Get("prototypes", c.ListPrototypes)
	h.Post("prototypes/test", c.TestQuery)
	h.Get("thresholds", c.GetThresholds)
	h.Get("decisions", c.ListDecisions)
	h.Get("decisions/volume", c.DecisionVolume)
	h.Get("logs", c.GetLogs)
	h.Get("logs/:id", c.GetLogDetail)

	// Writes: admin only.
	h.Post("operators", serverutils.AdminOnly, c.CreateOperator)
	h.Put("operators/:id", serverutils.AdminOnly, c.UpdateOperator)
	h.Delete("operators/:id", serverutils.AdminOnly, c.DeleteOperator)
	h.Post("prototypes", serverutils.AdminOnly, c.CreatePrototype)
	h.Put("prototypes/:id", serverutils.AdminOnly, c.UpdatePrototype)
	h.Delete("prototypes/:id", serverutils.AdminOnly, c.DeletePrototype)
	h.Post("reload", serverutils.AdminOnly, c.Reload)
	h.Put("thresholds", serverutils.AdminOnly, c.UpdateThresholds)
	h.Delete("thresholds", serverutils.AdminOnly, c.ResetThresholds)
}

func (c *adminController) Login(ctx *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.authService.Login(ctx.Context(), &req)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	return ctx.JSON(serverutils.SuccessResponse("Login successful", res))
}

// --- Operator Management ---

func (c *adminController) ListOperators(ctx *fiber.Ctx) error {
	res, err := c.adminService.GetAllOperators(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Operators", res))
}

func (c *adminController) CreateOperator(ctx *fiber.Ctx) error {
	var req dto.CreateOperatorRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.adminService.CreateOperator(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Operator created", res))
}

func (c *adminController) UpdateOperator(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid operator id")
	}

	var req dto.UpdateOperatorRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.adminService.UpdateOperator(ctx.Context(), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Operator updated", res))
}

func (c *adminController) DeleteOperator(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid operator id")
	}

	if err := c.adminService.DeleteOperator(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Operator deleted", nil))
}

// --- Prototype Catalog ---

func (c *adminController) ListPrototypes(ctx *fiber.Ctx) error {
	var req dto.PrototypeListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}

	res, err := c.adminService.GetPrototypes(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Prototype examples", res))
}

func (c *adminController) CreatePrototype(ctx *fiber.Ctx) error {
	var req dto.CreatePrototypeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.adminService.CreatePrototype(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Prototype created", res))
}

func (c *adminController) UpdatePrototype(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid prototype id")
	}

	var req dto.UpdatePrototypeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.adminService.UpdatePrototype(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Prototype updated", res))
}

func (c *adminController) DeletePrototype(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid prototype id")
	}

	if err := c.adminService.DeletePrototype(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Prototype deleted", nil))
}

func (c *adminController) TestQuery(ctx *fiber.Ctx) error {
	var req dto.TestQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.adminService.TestQuery(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Test query result", res))
}

func (c *adminController) Reload(ctx *fiber.Ctx) error {
	res, err := c.adminService.ReloadCatalog(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Catalog reloaded", res))
}

// --- Confidence Thresholds ---

func (c *adminController) GetThresholds(ctx *fiber.Ctx) error {
	res, err := c.adminService.GetThresholds(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Confidence thresholds", res))
}

func (c *adminController) UpdateThresholds(ctx *fiber.Ctx) error {
	var req dto.UpdateThresholdsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	updatedBy, _ := ctx.Locals("operator_email").(string)

	res, err := c.adminService.UpdateThresholds(ctx.Context(), &req, updatedBy)
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Thresholds updated", res))
}

func (c *adminController) ResetThresholds(ctx *fiber.Ctx) error {
	res, err := c.adminService.ResetThresholds(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Thresholds reset to file values", res))
}

// --- Decision Audit ---

func (c *adminController) ListDecisions(ctx *fiber.Ctx) error {
	var req dto.DecisionListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}

	res, err := c.adminService.GetDecisions(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Decision log", res))
}

func (c *adminController) DecisionVolume(ctx *fiber.Ctx) error {
	days := ctx.QueryInt("days", 7)

	res, err := c.adminService.GetDecisionVolume(ctx.Context(), days)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Decision volume", res))
}

// --- System Logs ---

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	var req dto.LogListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}

	res, err := c.adminService.GetSystemLogs(ctx.Context(), req.Level, req.Limit, req.Offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", res))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	res, err := c.adminService.GetLogDetail(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Log detail", res))
}
