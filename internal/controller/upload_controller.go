package controller

import (
	"io"

	"ai-sceneguide-be/internal/pkg/serverutils"
	"ai-sceneguide-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUploadController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Upload(ctx *fiber.Ctx) error
}

type uploadController struct {
	service  service.IUploadService
	maxBytes int64
}

func NewUploadController(service service.IUploadService, maxBytes int) IUploadController {
	return &uploadController{service: service, maxBytes: int64(maxBytes)}
}

func (c *uploadController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/upload/v1")
	h.Use(auth)
	h.Post("", c.Upload)
}

func (c *uploadController) Upload(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing file")
	}
	if c.maxBytes > 0 && header.Size > c.maxBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "File is too large")
	}

	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	res, err := c.service.Upload(ctx.UserContext(), userId, header.Filename, data)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Upload processed", res))
}
