package service

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	"github.com/cobach/sia-alumnos-api/internal/dto"
	"github.com/cobach/sia-alumnos-api/internal/models"
	"github.com/cobach/sia-alumnos-api/internal/repository"
	"github.com/cobach/sia-alumnos-api/internal/validation"
)

// StudentWriteService validates, stages and persists student writes.
type StudentWriteService interface {
	Insert(ctx context.Context, form dto.StudentForm, files []*multipart.FileHeader) (dto.StudentWriteResponse, error)
	Update(ctx context.Context, form dto.StudentForm, files []*multipart.FileHeader) (dto.StudentWriteResponse, error)
}

type studentWriteService struct {
	repo       repository.StudentRepository
	stager     *DocumentStager
	validator  *validator.Validate
	normalizer *normalizer
	events     StudentEventPublisher
	logger     zerolog.Logger
}

// NewStudentWriteService constructs the write service. events may be nil.
func NewStudentWriteService(repo repository.StudentRepository, stager *DocumentStager, validate *validator.Validate, events StudentEventPublisher, logger zerolog.Logger) StudentWriteService {
	return &studentWriteService{
		repo:       repo,
		stager:     stager,
		validator:  validate,
		normalizer: newNormalizer(),
		events:     events,
		logger:     logger.With().Str("component", "student_write_service").Logger(),
	}
}

func (s *studentWriteService) Insert(ctx context.Context, form dto.StudentForm, files []*multipart.FileHeader) (dto.StudentWriteResponse, error) {
	return s.write(ctx, modeInsert, form, files)
}

func (s *studentWriteService) Update(ctx context.Context, form dto.StudentForm, files []*multipart.FileHeader) (dto.StudentWriteResponse, error) {
	return s.write(ctx, modeUpdate, form, files)
}

func (s *studentWriteService) write(ctx context.Context, mode writeMode, form dto.StudentForm, files []*multipart.FileHeader) (dto.StudentWriteResponse, error) {
	tracer := otel.Tracer("github.com/cobach/sia-alumnos-api/internal/service/student_write")
	ctx, span := tracer.Start(ctx, "student.write")
	span.SetAttributes(
		attribute.String("student.write_mode", mode.String()),
		attribute.Int("student.documents", len(files)),
	)
	defer span.End()

	record, err := s.prepare(mode, form, files)
	if err != nil {
		span.SetStatus(codes.Error, "rejected")
		return dto.StudentWriteResponse{}, err
	}

	if err := s.stager.Check(files); err != nil {
		span.SetStatus(codes.Error, "document_rejected")
		return dto.StudentWriteResponse{}, err
	}

	staging, err := s.stager.Stage(ctx, files)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "staging_failed")
		return dto.StudentWriteResponse{}, err
	}

	var row datatypes.JSONMap
	if mode == modeInsert {
		row, err = s.repo.Insert(ctx, record, staging)
	} else {
		row, err = s.repo.Update(ctx, record, staging)
	}
	if err != nil {
		s.stager.Discard(ctx, staging)
		span.RecordError(err)
		span.SetStatus(codes.Error, "procedure_failed")
		s.logger.Error().Err(err).Str("mode", mode.String()).Int("documents", staging.Len()).Msg("student write rolled back")
		return dto.StudentWriteResponse{}, fmt.Errorf("%w: %w", ErrStudentWriteFailed, err)
	}

	s.logger.Info().Str("mode", mode.String()).Int("documents", staging.Len()).Msg("student write committed")
	s.publish(ctx, mode, record, staging, row)

	return dto.StudentWriteResponse{Row: row, Documents: documentResponses(staging)}, nil
}

// prepare runs every input check that needs no I/O and builds the procedure record.
func (s *studentWriteService) prepare(mode writeMode, form dto.StudentForm, files []*multipart.FileHeader) (models.StudentRecord, error) {
	if err := s.validator.Struct(form); err != nil {
		if fields := validation.FieldErrors(err); fields != nil {
			return models.StudentRecord{}, newValidationError(fields...)
		}
		return models.StudentRecord{}, err
	}

	fields := crossValidate(s.validator, form, mode)
	if mode == modeInsert && len(files) == 0 {
		fields = append(fields, dto.FieldError{Field: "documentos", Message: "se requiere al menos un documento PDF"})
	}
	if len(fields) > 0 {
		return models.StudentRecord{}, newValidationError(fields...)
	}

	return s.normalizer.record(form, mode)
}

func (s *studentWriteService) publish(ctx context.Context, mode writeMode, record models.StudentRecord, staging *models.StagingSet, row datatypes.JSONMap) {
	if s.events == nil {
		return
	}

	eventType := EventStudentInserted
	if mode == modeUpdate {
		eventType = EventStudentUpdated
	}

	event := StudentEvent{
		Type:           eventType,
		NationalID:     record.NationalID,
		EnrollmentCode: record.EnrollmentCode,
		Documents:      staging.Len(),
		Row:            row,
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish student event")
	}
}

func documentResponses(staging *models.StagingSet) []dto.DocumentResponse {
	records := staging.Records()
	result := make([]dto.DocumentResponse, 0, len(records))
	for _, record := range records {
		result = append(result, dto.DocumentResponse{
			OriginalName: record.OriginalName,
			StoragePath:  record.StoragePath,
			SizeBytes:    record.SizeBytes,
		})
	}
	return result
}
