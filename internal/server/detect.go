package server

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docsentry/internal/detect"
	"docsentry/internal/entity"
)

type detectRequest struct {
	Text string `json:"text"`
}

// NewDetectApp builds the standalone detection service. It exposes one
// operation: POST /detect with a text payload, answering with the detected
// items. Empty text is a valid request with an empty answer.
func NewDetectApp(logger *slog.Logger, detector detect.Detector) *fiber.App {
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
		BodyLimit:    32 << 20,
	})

	app.Use(RequestID())
	app.Use(RequestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	app.Post("/detect", func(c *fiber.Ctx) error {
		var req detectRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be JSON with a text field")
		}
		if strings.TrimSpace(req.Text) == "" {
			return c.JSON([]entity.DetectedItem{})
		}

		items, err := detector.Detect(c.UserContext(), req.Text)
		if err != nil {
			return respondError(c, err)
		}
		if items == nil {
			items = []entity.DetectedItem{}
		}
		return c.JSON(items)
	})

	return app
}
