package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cobach/sia-alumnos-api/internal/config"
	"github.com/cobach/sia-alumnos-api/internal/database"
	"github.com/cobach/sia-alumnos-api/internal/handler"
	"github.com/cobach/sia-alumnos-api/internal/models"
	"github.com/cobach/sia-alumnos-api/internal/router"
	"github.com/cobach/sia-alumnos-api/internal/service"
	"github.com/cobach/sia-alumnos-api/internal/validation"
	"github.com/cobach/sia-alumnos-api/pkg/localstorage"
)

type fakeStudentRepo struct {
	mu       sync.Mutex
	rows     map[string]datatypes.JSONMap
	listErr  error
	writeErr error
	written  []models.StudentRecord
	staged   [][]models.DocumentRecord
}

func (r *fakeStudentRepo) List(context.Context) ([]datatypes.JSONMap, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	rows := make([]datatypes.JSONMap, 0, len(r.rows))
	for _, row := range r.rows {
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *fakeStudentRepo) GetByEnrollmentCode(_ context.Context, code string) (datatypes.JSONMap, error) {
	for _, row := range r.rows {
		if row["Matricula"] == code {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeStudentRepo) Lookup(_ context.Context, enrollmentCode, nationalID *string) (datatypes.JSONMap, error) {
	for curp, row := range r.rows {
		if nationalID != nil && curp == *nationalID {
			return row, nil
		}
		if enrollmentCode != nil && row["Matricula"] == *enrollmentCode {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeStudentRepo) Insert(_ context.Context, record models.StudentRecord, staging *models.StagingSet) (datatypes.JSONMap, error) {
	return r.write(record, staging)
}

func (r *fakeStudentRepo) Update(_ context.Context, record models.StudentRecord, staging *models.StagingSet) (datatypes.JSONMap, error) {
	return r.write(record, staging)
}

func (r *fakeStudentRepo) write(record models.StudentRecord, staging *models.StagingSet) (datatypes.JSONMap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.written = append(r.written, record)
	r.staged = append(r.staged, staging.Records())
	if r.writeErr != nil {
		return nil, r.writeErr
	}
	return datatypes.JSONMap{"CURP": record.NationalID, "Matricula": "250250001"}, nil
}

func setupStudentApp(t *testing.T, repo *fakeStudentRepo) (*fiber.App, string) {
	t.Helper()

	logger := zerolog.Nop()
	dir := t.TempDir()
	storage, err := localstorage.New(dir, logger)
	require.NoError(t, err)

	stager := service.NewDocumentStager(storage, 1<<20, logger)
	reader := service.NewStudentService(repo, logger)
	writer := service.NewStudentWriteService(repo, stager, validation.New(), nil, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		StudentHandler: handler.NewStudentHandler(reader, writer, logger),
		WriteLimiter:   func(c *fiber.Ctx) error { return c.Next() },
	})
	return app, dir
}

func studentFields() map[string]string {
	return map[string]string{
		"curp":              "GOMC050101MSLRRR09",
		"nombre":            "Carla",
		"apellidoPaterno":   "Gomez",
		"apellidoMaterno":   "Mora",
		"fechaNacimiento":   "2005-01-01",
		"sexo":              "M",
		"telefono":          "6671234567",
		"correo":            "carla@example.com",
		"idSede":            "1",
		"estadoCivil":       "S",
		"idNacionalidad":    "1",
		"hablaLengua":       "1",
		"idLengua":          "12",
		"tieneBeca":         "0",
		"hijoDeTrabajador":  "false",
		"tieneAlergias":     "0",
		"tipoSangre":        "O+",
		"tieneDiscapacidad": "0",
		"codigoPostal":      "80000",
		"calle":             "Av. Obregon",
		"numeroExterior":    "12",
	}
}

func TestStudentHandlerInsert(t *testing.T) {
	repo := &fakeStudentRepo{}
	app, dir := setupStudentApp(t, repo)

	req := multipartRequest(t, http.MethodPost, "/alumnos/insertar", studentFields(),
		formFile{name: "acta.pdf", content: samplePDF},
		formFile{name: "curp.PDF", content: samplePDF},
	)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	payload := decodeResponse(t, resp)
	require.True(t, payload.Success)
	require.Equal(t, "Alumno insertado correctamente", payload.Message)
	require.Contains(t, string(payload.Data), "250250001")
	require.Contains(t, string(payload.Data), "acta.pdf")

	var written struct {
		Alumno     map[string]interface{} `json:"alumno"`
		Documentos []struct {
			NombreOriginal string `json:"nombreOriginal"`
			Tamano         int64  `json:"tamano"`
		} `json:"documentos"`
	}
	require.NoError(t, json.Unmarshal(payload.Data, &written))
	require.Equal(t, "250250001", written.Alumno["Matricula"])
	require.Len(t, written.Documentos, 2)
	require.Equal(t, "acta.pdf", written.Documentos[0].NombreOriginal)
	require.Equal(t, int64(len(samplePDF)), written.Documentos[0].Tamano)

	require.Len(t, repo.written, 1)
	require.Equal(t, "GOMC050101MSLRRR09", repo.written[0].NationalID)
	require.NotNil(t, repo.written[0].LanguageID)
	require.Equal(t, 12, *repo.written[0].LanguageID)
	require.Len(t, repo.staged[0], 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestStudentHandlerInsertValidationErrors(t *testing.T) {
	repo := &fakeStudentRepo{}
	app, _ := setupStudentApp(t, repo)

	fields := studentFields()
	fields["curp"] = "short"
	fields["tipoSangre"] = "Z"
	req := multipartRequest(t, http.MethodPost, "/alumnos/insertar", fields, formFile{name: "acta.pdf", content: samplePDF})

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	payload := decodeResponse(t, resp)
	require.False(t, payload.Success)
	names := make([]string, 0, len(payload.Errors))
	for _, field := range payload.Errors {
		names = append(names, field.Field)
	}
	require.Contains(t, names, "curp")
	require.Contains(t, names, "tipoSangre")
	require.Empty(t, repo.written)
}

func TestStudentHandlerInsertRequiresMultipart(t *testing.T) {
	app, _ := setupStudentApp(t, &fakeStudentRepo{})

	req := httptest.NewRequest(http.MethodPost, "/alumnos/insertar", nil)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.False(t, decodeResponse(t, resp).Success)
}

func TestStudentHandlerRejectsNonPDF(t *testing.T) {
	repo := &fakeStudentRepo{}
	app, dir := setupStudentApp(t, repo)

	req := multipartRequest(t, http.MethodPost, "/alumnos/insertar", studentFields(),
		formFile{name: "acta.pdf", content: samplePDF},
		formFile{name: "foto.png", content: "\x89PNG\r\n\x1a\n"},
	)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
	require.Equal(t, "Solo se permiten archivos PDF", decodeResponse(t, resp).Message)

	require.Empty(t, repo.written)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestStudentHandlerWriteFailureCleansUp(t *testing.T) {
	repo := &fakeStudentRepo{writeErr: errors.New("la CURP ya existe")}
	app, dir := setupStudentApp(t, repo)

	fields := studentFields()
	fields["id"] = "5F8C7C1E-0000-4000-8000-000000000001"
	fields["idCapturo"] = "0B6D1F0A-1111-4222-8333-444455556666"
	fields["fechaTramite"] = "2024-08-01"
	fields["fechaCaptura"] = "2024-08-02"
	fields["idRol"] = "2"

	req := multipartRequest(t, http.MethodPut, "/alumnos/actualizar", fields, formFile{name: "acta.pdf", content: samplePDF})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	payload := decodeResponse(t, resp)
	require.Equal(t, "Error al actualizar el alumno: la CURP ya existe", payload.Message)

	require.Len(t, repo.written, 1)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestStudentHandlerConnectivityFailure(t *testing.T) {
	repo := &fakeStudentRepo{listErr: database.ErrConnectivity}
	app, _ := setupStudentApp(t, repo)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/alumnos", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	require.False(t, decodeResponse(t, resp).Success)
}

func TestStudentHandlerReads(t *testing.T) {
	repo := &fakeStudentRepo{rows: map[string]datatypes.JSONMap{
		"GOMC050101MSLRRR09": {"CURP": "GOMC050101MSLRRR09", "Matricula": "250250001"},
	}}
	app, _ := setupStudentApp(t, repo)

	cases := []struct {
		path   string
		status int
	}{
		{path: "/alumnos", status: fiber.StatusOK},
		{path: "/alumnos/250250001", status: fiber.StatusOK},
		{path: "/alumnos/999999999", status: fiber.StatusNotFound},
		{path: "/alumnos/matricula/250250001", status: fiber.StatusOK},
		{path: "/alumnos/matricula/1234567890123456", status: fiber.StatusBadRequest},
		{path: "/alumnos/curp/gomc050101mslrrr09", status: fiber.StatusOK},
		{path: "/alumnos/curp/XXXX000000XXXXXX00", status: fiber.StatusNotFound},
		{path: "/alumnos/curp/bad", status: fiber.StatusBadRequest},
	}

	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil), -1)
		require.NoError(t, err, tc.path)
		require.Equal(t, tc.status, resp.StatusCode, tc.path)
		payload := decodeResponse(t, resp)
		require.Equal(t, tc.status == fiber.StatusOK, payload.Success, tc.path)
	}
}

func TestStudentHandlerEmptyList(t *testing.T) {
	app, _ := setupStudentApp(t, &fakeStudentRepo{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/alumnos", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "No se encontraron alumnos", decodeResponse(t, resp).Message)
}
