package serverutils

import (
	"errors"

	"ai-sceneguide-be/internal/repository/guidestore"
	"ai-sceneguide-be/internal/service"
	"ai-sceneguide-be/pkg/extraction"
	"ai-sceneguide-be/pkg/prompt"
	"ai-sceneguide-be/pkg/workflow"

	"github.com/gofiber/fiber/v2"
)

var errorStatuses = []struct {
	err     error
	status  int
	message string
}{
	{ErrMissingUser, fiber.StatusUnauthorized, "Unauthorized"},
	{extraction.ErrExtractionFailed, fiber.StatusUnprocessableEntity, "No readable text could be extracted from the document"},
	{extraction.ErrEmptyDocument, fiber.StatusUnprocessableEntity, "The uploaded document is empty"},
	{prompt.ErrInsufficientInput, fiber.StatusUnprocessableEntity, "The scene text is too short to build a guide"},
	{workflow.ErrInvalidInput, fiber.StatusUnprocessableEntity, "The guide request is missing required fields"},
	{guidestore.ErrInvalidPatch, fiber.StatusUnprocessableEntity, "The guide update is not allowed"},
	{guidestore.ErrInvalidGuide, fiber.StatusUnprocessableEntity, "The guide is invalid"},
	{service.ErrUploadNotFound, fiber.StatusNotFound, "Upload not found or expired"},
	{guidestore.ErrGuideNotFound, fiber.StatusNotFound, "Guide not found"},
	{service.ErrGenerationInProgress, fiber.StatusConflict, "A guide is already being generated for this input"},
	{service.ErrUnsupportedMedia, fiber.StatusUnsupportedMediaType, "Unsupported file type"},
	{guidestore.ErrStorageUnavailable, fiber.StatusServiceUnavailable, "Guide storage is unavailable"},
}

// StatusFor maps an error to its HTTP status and client-safe message.
func StatusFor(err error) (int, string) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusUnprocessableEntity, validationErr.Error()
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	for _, entry := range errorStatuses {
		if errors.Is(err, entry.err) {
			return entry.status, entry.message
		}
	}
	return fiber.StatusInternalServerError, "Internal server error"
}

// ErrorHandler is installed as the fiber.Config ErrorHandler.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	status, message := StatusFor(err)
	return ctx.Status(status).JSON(ErrorResponse(status, message))
}

// ErrorHandlerMiddleware converts errors returned by later handlers into
// JSON responses before they reach Fiber's default handler.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			return ErrorHandler(ctx, err)
		}
		return nil
	}
}
