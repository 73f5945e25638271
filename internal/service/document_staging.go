package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/cobach/sia-alumnos-api/internal/models"
	"github.com/cobach/sia-alumnos-api/internal/observability"
)

const (
	documentExtension = ".pdf"
	documentMimeType  = "application/pdf"
)

// DocumentStorage persists staged documents and removes them again.
// Save returns the stored location and the number of bytes written.
type DocumentStorage interface {
	Save(ctx context.Context, name string, reader io.Reader) (string, int64, error)
	Delete(ctx context.Context, path string) error
}

// DocumentStager validates uploads and writes them to storage as a staging set.
type DocumentStager struct {
	storage  DocumentStorage
	maxBytes int64
	logger   zerolog.Logger
	now      func() time.Time
	newName  func() string
}

// NewDocumentStager constructs a stager. A non-positive maxBytes disables the size check.
func NewDocumentStager(storage DocumentStorage, maxBytes int64, logger zerolog.Logger) *DocumentStager {
	return &DocumentStager{
		storage:  storage,
		maxBytes: maxBytes,
		logger:   logger.With().Str("component", "document_stager").Logger(),
		now:      time.Now,
		newName: func() string {
			return uuid.NewString() + documentExtension
		},
	}
}

// Check verifies every file is an acceptable PDF. Nothing is written.
func (s *DocumentStager) Check(files []*multipart.FileHeader) error {
	for _, file := range files {
		if err := s.checkFile(file); err != nil {
			return err
		}
	}
	return nil
}

func (s *DocumentStager) checkFile(file *multipart.FileHeader) error {
	if file == nil {
		return fmt.Errorf("%w: empty upload", ErrUnsupportedFileType)
	}

	if !strings.EqualFold(filepath.Ext(file.Filename), documentExtension) {
		observability.DocumentsRejected().WithLabelValues("extension").Inc()
		return fmt.Errorf("%w: %s is not a PDF file", ErrUnsupportedFileType, file.Filename)
	}

	if s.maxBytes > 0 && file.Size > s.maxBytes {
		observability.DocumentsRejected().WithLabelValues("size").Inc()
		return fmt.Errorf("%w: %s has %d bytes", ErrDocumentTooLarge, file.Filename, file.Size)
	}

	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", file.Filename, err)
	}
	defer reader.Close()

	detected, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type of %s: %w", file.Filename, err)
	}
	if !detected.Is(documentMimeType) {
		observability.DocumentsRejected().WithLabelValues("content").Inc()
		return fmt.Errorf("%w: %s has content type %s", ErrUnsupportedFileType, file.Filename, detected.String())
	}

	return nil
}

// Stage writes each file under a unique name and records it in a new staging set.
// If any write fails the files already written are removed.
func (s *DocumentStager) Stage(ctx context.Context, files []*multipart.FileHeader) (*models.StagingSet, error) {
	tracer := otel.Tracer("github.com/cobach/sia-alumnos-api/internal/service/documents")
	ctx, span := tracer.Start(ctx, "documents.stage")
	span.SetAttributes(attribute.Int("documents.count", len(files)))
	defer span.End()

	staging := &models.StagingSet{}
	for _, file := range files {
		record, err := s.store(ctx, file)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "document_store_failed")
			s.Discard(ctx, staging)
			return nil, fmt.Errorf("%w: %v", ErrDocumentStorage, err)
		}
		staging.Add(record)
		observability.DocumentsStaged().Inc()
	}

	return staging, nil
}

func (s *DocumentStager) store(ctx context.Context, file *multipart.FileHeader) (models.DocumentRecord, error) {
	reader, err := file.Open()
	if err != nil {
		return models.DocumentRecord{}, fmt.Errorf("failed to open file %s: %w", file.Filename, err)
	}
	defer reader.Close()

	hasher := sha256.New()
	path, written, err := s.storage.Save(ctx, s.newName(), io.TeeReader(reader, hasher))
	if err != nil {
		return models.DocumentRecord{}, err
	}

	return models.DocumentRecord{
		OriginalName: filepath.Base(file.Filename),
		StoragePath:  path,
		SizeBytes:    written,
		MimeType:     documentMimeType,
		Checksum:     hex.EncodeToString(hasher.Sum(nil)),
		UploadedAt:   s.now().UTC(),
	}, nil
}

// Discard removes every staged file. Failures are logged and do not stop the sweep.
func (s *DocumentStager) Discard(ctx context.Context, staging *models.StagingSet) {
	if staging == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, path := range staging.Paths() {
		if err := s.storage.Delete(ctx, path); err != nil {
			s.logger.Error().Err(err).Str("path", path).Msg("failed to remove staged document")
		}
	}
}
