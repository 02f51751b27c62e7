package apperror

import (
	"errors"

	"barstock-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
)

// FiberErrorHandler renders AppError and fiber.Error as
// {"error", "code", "details"}. Anything else is logged and hidden.
func FiberErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if appErr, ok := AsAppError(err); ok {
			if appErr.HTTPStatus >= fiber.StatusInternalServerError {
				log.Errorw("request failed",
					"path", c.Path(),
					"code", appErr.Code,
					"error", err,
				)
			}
			body := fiber.Map{
				"error": appErr.Message,
				"code":  appErr.Code,
			}
			if len(appErr.Details) > 0 {
				body["details"] = appErr.Details
			}
			return c.Status(appErr.HTTPStatus).JSON(body)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error": fe.Message,
				"code":  codeForStatus(fe.Code),
			})
		}

		log.Errorw("unexpected error", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unexpected server error",
			"code":  CodeInternal,
		})
	}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return CodeValidation
	case fiber.StatusUnauthorized:
		return CodeUnauthorized
	case fiber.StatusForbidden:
		return CodeForbidden
	case fiber.StatusNotFound:
		return CodeNotFound
	case fiber.StatusConflict:
		return CodeConflict
	default:
		return CodeInternal
	}
}
