package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/cobach/sia-alumnos-api/internal/dto"
	"github.com/cobach/sia-alumnos-api/internal/service"
	"github.com/cobach/sia-alumnos-api/internal/utils"
)

// CatalogHandler serves the language, locality and blood type catalogs.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("component", "catalog_handler").Logger(),
	}
}

// Register attaches the catalog routes.
func (h *CatalogHandler) Register(router fiber.Router) {
	router.Get("/lenguas/id/:id", h.getLanguage)
	router.Get("/lenguas/:fragment", h.searchLanguages)
	router.Get("/localidades/:fragment", h.searchLocalities)
	router.Get("/sangre", h.listBloodTypes)
}

func (h *CatalogHandler) searchLanguages(c *fiber.Ctx) error {
	items, err := h.service.SearchLanguages(c.UserContext(), pathParam(c, "fragment"))
	if err != nil {
		return respondError(c, h.logger, err, "No se encontraron lenguas")
	}
	return utils.SendSuccess(c, "lenguas encontradas", items)
}

func (h *CatalogHandler) getLanguage(c *fiber.Ctx) error {
	id, err := strconv.Atoi(strings.TrimSpace(c.Params("id")))
	if err != nil || id <= 0 {
		return utils.SendValidationError(c, "Datos inválidos", []dto.FieldError{{Field: "id", Message: "debe ser un número entero positivo"}})
	}

	item, err := h.service.GetLanguage(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "Lengua no encontrada")
	}
	return utils.SendSuccess(c, "lengua encontrada", item)
}

func (h *CatalogHandler) searchLocalities(c *fiber.Ctx) error {
	items, err := h.service.SearchLocalities(c.UserContext(), pathParam(c, "fragment"))
	if err != nil {
		return respondError(c, h.logger, err, "No se encontraron localidades")
	}
	return utils.SendSuccess(c, "localidades encontradas", items)
}

func (h *CatalogHandler) listBloodTypes(c *fiber.Ctx) error {
	items, err := h.service.ListBloodTypes(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "No se encontraron tipos de sangre")
	}
	return utils.SendSuccess(c, "tipos de sangre encontrados", items)
}
