package controller

import (
	"acquisition-arena-be/internal/pkg/serverutils"
	"acquisition-arena-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IParcelController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	List(ctx *fiber.Ctx) error
	Brief(ctx *fiber.Ctx) error
}

type parcelController struct {
	service service.IParcelService
}

func NewParcelController(service service.IParcelService) IParcelController {
	return &parcelController{service: service}
}

func (c *parcelController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/parcels")
	h.Use(auth)
	h.Get("", c.List)
	h.Get(":id/brief", c.Brief)
}

func (c *parcelController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all parcels", res))
}

func (c *parcelController) Brief(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.BadRequest("invalid parcel id")
	}

	res, err := c.service.Brief(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get parcel brief", res))
}
