package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cobach/sia-alumnos-api/internal/dto"
	"github.com/cobach/sia-alumnos-api/internal/repository"
	"github.com/cobach/sia-alumnos-api/internal/validation"
)

// StudentService serves read-only student lookups.
type StudentService interface {
	List(ctx context.Context) ([]datatypes.JSONMap, error)
	GetByEnrollmentCode(ctx context.Context, code string) (datatypes.JSONMap, error)
	Lookup(ctx context.Context, enrollmentCode, nationalID *string) (datatypes.JSONMap, error)
}

type studentService struct {
	repo   repository.StudentRepository
	logger zerolog.Logger
}

// NewStudentService constructs the read service.
func NewStudentService(repo repository.StudentRepository, logger zerolog.Logger) StudentService {
	return &studentService{
		repo:   repo,
		logger: logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) List(ctx context.Context) ([]datatypes.JSONMap, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrStudentNotFound
	}
	return rows, nil
}

func (s *studentService) GetByEnrollmentCode(ctx context.Context, code string) (datatypes.JSONMap, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, newValidationError(dto.FieldError{Field: "matricula", Message: "es obligatorio"})
	}

	row, err := s.repo.GetByEnrollmentCode(ctx, code)
	return row, translateNotFound(err)
}

// Lookup resolves a student by exactly one of enrollment code or CURP.
func (s *studentService) Lookup(ctx context.Context, enrollmentCode, nationalID *string) (datatypes.JSONMap, error) {
	enrollmentCode = trimmedOrNil(enrollmentCode)
	nationalID = trimmedOrNil(nationalID)

	switch {
	case enrollmentCode == nil && nationalID == nil:
		return nil, newValidationError(dto.FieldError{Field: "matricula", Message: "se requiere matrícula o CURP"})
	case enrollmentCode != nil && nationalID != nil:
		return nil, newValidationError(dto.FieldError{Field: "matricula", Message: "indique solo matrícula o CURP, no ambos"})
	case enrollmentCode != nil && len(*enrollmentCode) > 15:
		return nil, newValidationError(dto.FieldError{Field: "matricula", Message: "debe tener como máximo 15 caracteres"})
	case nationalID != nil:
		upper := strings.ToUpper(*nationalID)
		if !validation.IsCURP(upper) {
			return nil, newValidationError(dto.FieldError{Field: "curp", Message: "debe contener 18 letras mayúsculas o dígitos"})
		}
		nationalID = &upper
	}

	row, err := s.repo.Lookup(ctx, enrollmentCode, nationalID)
	return row, translateNotFound(err)
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrStudentNotFound
	}
	return err
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
