package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docsentry/internal/common"
)

// errorPayload is the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// respondError maps an application error onto an HTTP response. Internal
// details never reach the client.
func respondError(c *fiber.Ctx, err error) error {
	kind := common.KindOf(err)

	message := "internal server error"
	var appErr *common.AppError
	if errors.As(err, &appErr) && kind != common.KindInternal {
		message = appErr.Message
	}

	return writeError(c, statusForKind(kind), string(kind), message)
}

func statusForKind(kind common.Kind) int {
	switch kind {
	case common.KindValidation:
		return fiber.StatusBadRequest
	case common.KindNotFound:
		return fiber.StatusNotFound
	case common.KindConflict:
		return fiber.StatusConflict
	case common.KindTransport, common.KindUpstream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler standardizes responses for errors that escape the handlers,
// including Fiber's own routing errors.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			switch fe.Code {
			case fiber.StatusNotFound:
				return writeError(c, fe.Code, "NOT_FOUND", "resource not found")
			case fiber.StatusMethodNotAllowed:
				return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
			default:
				return writeError(c, fe.Code, "INTERNAL", "internal server error")
			}
		}
		return respondError(c, err)
	}
}
