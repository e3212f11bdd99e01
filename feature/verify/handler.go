package verify

import (
	"dataset-streamer/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for dataset verification.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the verify routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/verify")
	group.Get("/", h.HandleVerifyPrefix)
	group.Post("/objects", h.HandleVerifyObjects)
}

// HandleVerifyPrefix verifies every object under the prefix given in the
// `uri` query parameter (s3://bucket/prefix).
func (h *Handler) HandleVerifyPrefix(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	uri := c.Query("uri")
	if uri == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing uri query parameter",
		})
	}

	report, err := h.service.VerifyPrefix(c.Context(), uri)
	if err != nil {
		l.Error("Prefix verification failed", zap.String("uri", uri), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}

// HandleVerifyObjects verifies an explicit URI list posted as JSON:
// {"uris": ["s3://bucket/key", ...]}.
func (h *Handler) HandleVerifyObjects(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var body struct {
		URIs []string `json:"uris"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if len(body.URIs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no uris provided",
		})
	}

	report, err := h.service.VerifyObjects(c.Context(), body.URIs)
	if err != nil {
		l.Error("Object verification failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}
