package service

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/cobach/sia-alumnos-api/internal/dto"
	"github.com/cobach/sia-alumnos-api/internal/models"
	"github.com/cobach/sia-alumnos-api/internal/validation"
)

const dateLayout = "2006-01-02"

type writeMode int

const (
	modeInsert writeMode = iota
	modeUpdate
)

func (m writeMode) String() string {
	if m == modeUpdate {
		return "update"
	}
	return "insert"
}

// crossValidate enforces the rules that span several fields. It runs after the struct rules pass.
// Flag-dependent fields are only checked when their flag is set; otherwise they are discarded.
func crossValidate(validate *validator.Validate, form dto.StudentForm, mode writeMode) []dto.FieldError {
	var fields []dto.FieldError
	required := func(name, value string) {
		if blank(value) {
			fields = append(fields, dto.FieldError{Field: name, Message: "es obligatorio"})
		}
	}
	conditional := func(name, value, tag string) {
		if blank(value) {
			required(name, value)
			return
		}
		if failure := validation.Check(validate, name, strings.TrimSpace(value), tag); failure != nil {
			fields = append(fields, *failure)
		}
	}

	switch mode {
	case modeInsert:
		if !blank(form.ID) {
			fields = append(fields, dto.FieldError{Field: "id", Message: "no debe enviarse al insertar"})
		}
	case modeUpdate:
		required("id", form.ID)
		required("idCapturo", form.IdCapturo)
		required("fechaTramite", form.FechaTramite)
		required("fechaCaptura", form.FechaCaptura)
		required("idRol", form.IdRol)
	}

	if flag(form.HablaLengua) {
		conditional("idLengua", form.IdLengua, "intrange=1-67")
	}
	if flag(form.TieneBeca) {
		conditional("queBeca", form.QueBeca, "max=50")
	}
	if flag(form.TieneAlergias) {
		conditional("alergias", form.Alergias, "max=200")
	}
	if flag(form.TieneDiscapacidad) {
		conditional("discapacidad", form.Discapacidad, "max=200")
	}

	if !blank(form.NombreTutor) || !blank(form.ApellidoPaternoTutor) || !blank(form.ApellidoMaternoTutor) || !blank(form.TelefonoTutor) {
		required("nombreTutor", form.NombreTutor)
		required("apellidoPaternoTutor", form.ApellidoPaternoTutor)
		required("telefonoTutor", form.TelefonoTutor)
	}

	return fields
}

// normalizer turns a validated form into the record passed to the write procedures.
type normalizer struct {
	policy *bluemonday.Policy
}

func newNormalizer() *normalizer {
	return &normalizer{policy: bluemonday.StrictPolicy()}
}

func (n *normalizer) record(form dto.StudentForm, mode writeMode) (models.StudentRecord, error) {
	birthDate, err := time.Parse(dateLayout, strings.TrimSpace(form.FechaNacimiento))
	if err != nil {
		return models.StudentRecord{}, fmt.Errorf("fechaNacimiento: %w", err)
	}
	processedOn, err := optionalDate(form.FechaTramite)
	if err != nil {
		return models.StudentRecord{}, fmt.Errorf("fechaTramite: %w", err)
	}
	capturedAt, err := optionalDate(form.FechaCaptura)
	if err != nil {
		return models.StudentRecord{}, fmt.Errorf("fechaCaptura: %w", err)
	}
	siteID, err := atoi(form.IdSede)
	if err != nil {
		return models.StudentRecord{}, fmt.Errorf("idSede: %w", err)
	}
	nationalityID, err := atoi(form.IdNacionalidad)
	if err != nil {
		return models.StudentRecord{}, fmt.Errorf("idNacionalidad: %w", err)
	}
	roleID, err := optionalInt(form.IdRol)
	if err != nil {
		return models.StudentRecord{}, fmt.Errorf("idRol: %w", err)
	}

	record := models.StudentRecord{
		NationalID:      strings.TrimSpace(form.CURP),
		EnrollmentCode:  optional(form.Matricula),
		FirstName:       n.text(form.Nombre),
		PaternalSurname: n.text(form.ApellidoPaterno),
		MaternalSurname: n.text(form.ApellidoMaterno),
		BirthDate:       birthDate,
		Sex:             strings.TrimSpace(form.Sexo),
		Phone:           strings.TrimSpace(form.Telefono),
		Email:           strings.TrimSpace(form.Correo),
		SiteID:          siteID,
		MaritalStatus:   strings.TrimSpace(form.EstadoCivil),
		NationalityID:   nationalityID,
		SpeaksLanguage:  flag(form.HablaLengua),
		HasScholarship:  flag(form.TieneBeca),
		IsWorkerChild:   flag(form.HijoDeTrabajador),
		CapturedBy:      optional(form.IdCapturo),
		ProcessedOn:     processedOn,
		CapturedAt:      capturedAt,
		RoleID:          roleID,
		HasAllergies:    flag(form.TieneAlergias),
		BloodType:       strings.TrimSpace(form.TipoSangre),
		HasDisability:   flag(form.TieneDiscapacidad),
		Guardian: models.Guardian{
			FirstName:       n.optionalText(form.NombreTutor),
			PaternalSurname: n.optionalText(form.ApellidoPaternoTutor),
			MaternalSurname: n.optionalText(form.ApellidoMaternoTutor),
			Phone:           optional(form.TelefonoTutor),
		},
		Address: models.Address{
			PostalCode:     strings.TrimSpace(form.CodigoPostal),
			Street:         n.text(form.Calle),
			CrossStreets:   n.optionalText(form.EntreCalles),
			ExteriorNumber: strings.TrimSpace(form.NumeroExterior),
			InteriorNumber: n.optionalText(form.NumeroInterior),
			LocalityID:     strings.TrimSpace(form.IdLocalidad),
		},
	}

	if mode == modeUpdate {
		record.ID = optional(form.ID)
	}
	if record.Address.LocalityID == "" {
		record.Address.LocalityID = models.DefaultLocalityID
	}

	// Dependent fields are dropped when their flag is off.
	if record.SpeaksLanguage {
		if record.LanguageID, err = optionalInt(form.IdLengua); err != nil {
			return models.StudentRecord{}, fmt.Errorf("idLengua: %w", err)
		}
	}
	if record.HasScholarship {
		record.Scholarship = n.optionalText(form.QueBeca)
	}
	if record.HasAllergies {
		record.Allergies = n.optionalText(form.Alergias)
	}
	if record.HasDisability {
		record.Disability = n.optionalText(form.Discapacidad)
	}

	return record, nil
}

// text trims the value and strips any markup, keeping plain characters such as & unescaped.
func (n *normalizer) text(value string) string {
	return strings.TrimSpace(html.UnescapeString(n.policy.Sanitize(value)))
}

func (n *normalizer) optionalText(value string) *string {
	cleaned := n.text(value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func optionalDate(value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func optionalInt(value string) (*int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func atoi(value string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(value))
}

func flag(value string) bool {
	parsed, _ := validation.ParseFlag(value)
	return parsed
}

func blank(value string) bool {
	return strings.TrimSpace(value) == ""
}
