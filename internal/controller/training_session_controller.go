package controller

import (
	"acquisition-arena-be/internal/dto"
	"acquisition-arena-be/internal/pkg/serverutils"
	"acquisition-arena-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ITrainingSessionController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	StartConversation(ctx *fiber.Ctx) error
	EndConversation(ctx *fiber.Ctx) error
}

type trainingSessionController struct {
	service service.ITrainingSessionService
}

func NewTrainingSessionController(service service.ITrainingSessionService) ITrainingSessionController {
	return &trainingSessionController{service: service}
}

func (c *trainingSessionController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/training_sessions")
	h.Use(auth)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get("stats", c.Stats)
	h.Get(":id", c.Show)
	h.Post(":id/start_conversation", c.StartConversation)
	h.Post(":id/end_conversation", c.EndConversation)
}

func sessionID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, serverutils.BadRequest("invalid training session id")
	}
	return id, nil
}

func (c *trainingSessionController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateTrainingSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), serverutils.UserID(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Training session created", res))
}

func (c *trainingSessionController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext(), serverutils.UserID(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all training sessions", res))
}

func (c *trainingSessionController) Stats(ctx *fiber.Ctx) error {
	res, err := c.service.Stats(ctx.UserContext(), serverutils.UserID(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get training stats", res))
}

func (c *trainingSessionController) Show(ctx *fiber.Ctx) error {
	id, err := sessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), serverutils.UserID(ctx), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show training session", res))
}

func (c *trainingSessionController) StartConversation(ctx *fiber.Ctx) error {
	id, err := sessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.StartConversation(ctx.UserContext(), serverutils.UserID(ctx), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Conversation started", res))
}

func (c *trainingSessionController) EndConversation(ctx *fiber.Ctx) error {
	id, err := sessionID(ctx)
	if err != nil {
		return err
	}

	// The body is optional.
	var req dto.EndConversationRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return serverutils.BadRequest("invalid request body")
		}
		if err := serverutils.ValidateRequest(req); err != nil {
			return err
		}
	}

	res, err := c.service.EndConversation(ctx.UserContext(), serverutils.UserID(ctx), id, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Conversation ended, feedback is being generated", res))
}
