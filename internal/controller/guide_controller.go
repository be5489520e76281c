package controller

import (
	"ai-sceneguide-be/internal/dto"
	"ai-sceneguide-be/internal/pkg/serverutils"
	"ai-sceneguide-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IGuideController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Generate(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	UpdateFlags(ctx *fiber.Ctx) error
	RetrySecondary(ctx *fiber.Ctx) error
}

type guideController struct {
	service service.IGuideService
}

func NewGuideController(service service.IGuideService) IGuideController {
	return &guideController{service: service}
}

func (c *guideController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/guide/v1")
	h.Use(auth)
	h.Get("", c.GetAll)
	h.Post("", c.Generate)
	h.Get(":id", c.Show)
	h.Patch(":id", c.UpdateFlags)
	h.Post(":id/secondary", c.RetrySecondary)
}

func guideID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid guide id")
	}
	return id, nil
}

func (c *guideController) Generate(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.GenerateGuideRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Generate(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Guide generated", res))
}

func (c *guideController) Show(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := guideID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get guide", res))
}

func (c *guideController) GetAll(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetAll(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all guides", res))
}

func (c *guideController) UpdateFlags(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := guideID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateGuideFlagsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	res, err := c.service.UpdateFlags(ctx.UserContext(), userId, id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Guide updated", res))
}

func (c *guideController) RetrySecondary(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := guideID(ctx)
	if err != nil {
		return err
	}

	var req dto.RetrySecondaryRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := serverutils.ValidateRequest(req); err != nil {
			return err
		}
	}

	res, err := c.service.RetrySecondary(ctx.UserContext(), userId, id, req.Provider)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Secondary guide requested", res))
}
