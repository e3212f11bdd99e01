package browse

import (
	"net/http"
	"strconv"

	"dataset-streamer/core/logger"
	"dataset-streamer/core/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for bucket browsing.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the browse routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/objects")
	group.Get("/", h.HandleList)
	group.Get("/+", h.HandleGet)
}

// HandleList lists objects under a prefix. Supports ?prefix=, ?recursive=
// and ?limit= query parameters.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	prefix := c.Query("prefix")
	recursive := utils.ToBool(c.Query("recursive", "true"))
	limit := utils.ToInt(c.Query("limit"))

	objects, err := h.service.List(c.Context(), prefix, recursive, limit)
	if err != nil {
		l.Error("Object listing failed", zap.String("prefix", prefix), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"prefix":  prefix,
		"count":   len(objects),
		"objects": objects,
	})
}

// HandleGet streams a single object's bytes.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	key := c.Params("+")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing object key",
		})
	}

	rc, info, err := h.service.Open(c.Context(), key)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.StatusCode == http.StatusNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "object not found",
			})
		}
		l.Error("Object fetch failed", zap.String("key", key), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if info.ContentType != "" {
		c.Set(fiber.HeaderContentType, info.ContentType)
	}
	if info.Size > 0 {
		c.Set(fiber.HeaderContentLength, strconv.FormatInt(info.Size, 10))
	}

	return c.SendStream(rc)
}
