package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/cobach/sia-alumnos-api/internal/database"
	"github.com/cobach/sia-alumnos-api/internal/dto"
	"github.com/cobach/sia-alumnos-api/internal/service"
	"github.com/cobach/sia-alumnos-api/internal/utils"
)

// StudentHandler serves student reads and writes.
type StudentHandler struct {
	reader service.StudentService
	writer service.StudentWriteService
	logger zerolog.Logger
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(reader service.StudentService, writer service.StudentWriteService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		reader: reader,
		writer: writer,
		logger: logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches the student routes. writeMiddleware runs before insert and update only.
func (h *StudentHandler) Register(router fiber.Router, writeMiddleware ...fiber.Handler) {
	students := router.Group("/alumnos")
	students.Get("", h.list)
	students.Get("/matricula/:matricula", h.lookupByEnrollmentCode)
	students.Get("/curp/:curp", h.lookupByCURP)
	students.Get("/:matricula", h.getByEnrollmentCode)

	students.Post("/insertar", chain(writeMiddleware, h.insert)...)
	students.Put("/actualizar", chain(writeMiddleware, h.update)...)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	rows, err := h.reader.List(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "No se encontraron alumnos")
	}
	return utils.SendSuccess(c, "alumnos encontrados", rows)
}

func (h *StudentHandler) getByEnrollmentCode(c *fiber.Ctx) error {
	row, err := h.reader.GetByEnrollmentCode(c.UserContext(), pathParam(c, "matricula"))
	if err != nil {
		return respondError(c, h.logger, err, "Alumno no encontrado")
	}
	return utils.SendSuccess(c, "alumno encontrado", row)
}

func (h *StudentHandler) lookupByEnrollmentCode(c *fiber.Ctx) error {
	code := pathParam(c, "matricula")
	row, err := h.reader.Lookup(c.UserContext(), &code, nil)
	if err != nil {
		return respondError(c, h.logger, err, "Alumno no encontrado con esa matrícula")
	}
	return utils.SendSuccess(c, "alumno encontrado", row)
}

func (h *StudentHandler) lookupByCURP(c *fiber.Ctx) error {
	curp := pathParam(c, "curp")
	row, err := h.reader.Lookup(c.UserContext(), nil, &curp)
	if err != nil {
		return respondError(c, h.logger, err, "Alumno no encontrado con esa CURP")
	}
	return utils.SendSuccess(c, "alumno encontrado", row)
}

func (h *StudentHandler) insert(c *fiber.Ctx) error {
	form, files, err := h.parseForm(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.writer.Insert(c.UserContext(), form, files)
	if err != nil {
		return h.writeError(c, err, "crear")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Alumno insertado correctamente", response)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	form, files, err := h.parseForm(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.writer.Update(c.UserContext(), form, files)
	if err != nil {
		return h.writeError(c, err, "actualizar")
	}
	return utils.SendSuccess(c, "Alumno actualizado correctamente", response)
}

func (h *StudentHandler) parseForm(c *fiber.Ctx) (dto.StudentForm, []*multipart.FileHeader, error) {
	var form dto.StudentForm
	if !isMultipart(c) {
		return form, nil, errors.New("se esperaba un formulario multipart/form-data")
	}
	if err := c.BodyParser(&form); err != nil {
		return form, nil, errors.New("formulario inválido")
	}

	multipartForm, err := c.MultipartForm()
	if err != nil {
		return form, nil, errors.New("formulario inválido")
	}
	return form, multipartForm.File[documentsField], nil
}

func (h *StudentHandler) writeError(c *fiber.Ctx, err error, action string) error {
	if errors.Is(err, service.ErrStudentWriteFailed) && !errors.Is(err, database.ErrConnectivity) {
		requestLogger(h.logger, c).Error().Err(err).Str("action", action).Msg("student write failed")
		return utils.SendError(c, fiber.StatusInternalServerError, fmt.Sprintf("Error al %s el alumno: %s", action, strings.TrimPrefix(err.Error(), service.ErrStudentWriteFailed.Error()+": ")))
	}
	return respondError(c, h.logger, err, "Alumno no encontrado")
}

func pathParam(c *fiber.Ctx, key string) string {
	raw := c.Params(key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func chain(middleware []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(middleware)+1)
	handlers = append(handlers, middleware...)
	return append(handlers, handler)
}
