package controller

import (
	"ai-deskmate-be/internal/dto"
	"ai-deskmate-be/internal/pkg/serverutils"
	"ai-deskmate-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRouteController interface {
	RegisterRoutes(r fiber.Router)
	Route(ctx *fiber.Ctx) error
	Pending(ctx *fiber.Ctx) error
}

type routeController struct {
	routerService service.IRouterService
}

func NewRouteController(routerService service.IRouterService) IRouteController {
	return &routeController{
		routerService: routerService,
	}
}

// RegisterRoutes wires the patron-facing surface. No auth: patrons are
// anonymous and identified only by the conversation id they present.
func (c *routeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Post("route", c.Route)
	h.Get("conversations/:id/pending", c.Pending)
}

func (c *routeController) Route(ctx *fiber.Ctx) error {
	var req dto.RouteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	// No error path: the router degrades internally instead of failing.
	res := c.routerService.Route(ctx.Context(), &req)

	return ctx.JSON(serverutils.SuccessResponse("Routing decision", res))
}

func (c *routeController) Pending(ctx *fiber.Ctx) error {
	conversationId := ctx.Params("id")
	if conversationId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "conversation id is required")
	}

	res, err := c.routerService.Pending(ctx.Context(), conversationId)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "no pending clarification for this conversation")
	}

	return ctx.JSON(serverutils.SuccessResponse("Pending clarification", res))
}
