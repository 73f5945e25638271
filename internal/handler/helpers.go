package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/cobach/sia-alumnos-api/internal/database"
	"github.com/cobach/sia-alumnos-api/internal/middleware"
	"github.com/cobach/sia-alumnos-api/internal/service"
	"github.com/cobach/sia-alumnos-api/internal/utils"
)

// documentsField is the multipart key carrying uploaded PDF documents.
const documentsField = "documentos"

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// respondError maps service and database failures onto status codes.
// notFound is the message used for the not-found conditions of the calling endpoint.
func respondError(c *fiber.Ctx, base zerolog.Logger, err error, notFound string) error {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return utils.SendValidationError(c, "Datos inválidos", validationErr.Fields)
	case errors.Is(err, service.ErrStudentNotFound), errors.Is(err, service.ErrCatalogNotFound):
		return utils.SendError(c, fiber.StatusNotFound, notFound)
	case errors.Is(err, service.ErrUnsupportedFileType):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, "Solo se permiten archivos PDF")
	case errors.Is(err, service.ErrDocumentTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "El documento excede el tamaño permitido")
	case errors.Is(err, database.ErrConnectivity):
		requestLogger(base, c).Error().Err(err).Msg("database unavailable")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "Base de datos no disponible")
	case errors.Is(err, service.ErrDocumentStorage):
		requestLogger(base, c).Error().Err(err).Msg("document storage failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "No se pudieron guardar los documentos")
	default:
		requestLogger(base, c).Error().Err(err).Msg("unexpected error")
		return utils.SendError(c, fiber.StatusInternalServerError, "Ocurrió un error inesperado")
	}
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}
