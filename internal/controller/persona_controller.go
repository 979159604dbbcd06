package controller

import (
	"acquisition-arena-be/internal/pkg/serverutils"
	"acquisition-arena-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPersonaController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	ProvisionAgent(ctx *fiber.Ctx) error
	UpdateAgent(ctx *fiber.Ctx) error
}

type personaController struct {
	service service.IPersonaService
}

func NewPersonaController(service service.IPersonaService) IPersonaController {
	return &personaController{service: service}
}

func (c *personaController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/personas")
	h.Use(auth)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Post(":id/agent", c.ProvisionAgent)
	h.Put(":id/agent", c.UpdateAgent)
}

func personaID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, serverutils.BadRequest("invalid persona id")
	}
	return id, nil
}

func (c *personaController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all personas", res))
}

func (c *personaController) Show(ctx *fiber.Ctx) error {
	id, err := personaID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Get(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show persona", res))
}

func (c *personaController) ProvisionAgent(ctx *fiber.Ctx) error {
	id, err := personaID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ProvisionAgent(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Persona agent ready", res))
}

func (c *personaController) UpdateAgent(ctx *fiber.Ctx) error {
	id, err := personaID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.UpdateAgent(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Persona agent updated", res))
}
