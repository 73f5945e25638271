package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/cobach/sia-alumnos-api/internal/dto"
	"github.com/cobach/sia-alumnos-api/internal/observability"
	"github.com/cobach/sia-alumnos-api/internal/repository"
)

// CatalogService serves the reference catalogs.
type CatalogService interface {
	SearchLanguages(ctx context.Context, fragment string) ([]dto.CatalogEntryResponse, error)
	GetLanguage(ctx context.Context, id int) (dto.CatalogEntryResponse, error)
	SearchLocalities(ctx context.Context, fragment string) ([]dto.CatalogEntryResponse, error)
	ListBloodTypes(ctx context.Context) ([]dto.CatalogEntryResponse, error)
}

type catalogService struct {
	repo     repository.CatalogRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewCatalogService constructs the catalog service. A nil cache disables caching.
func NewCatalogService(repo repository.CatalogRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) CatalogService {
	return &catalogService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *catalogService) SearchLanguages(ctx context.Context, fragment string) ([]dto.CatalogEntryResponse, error) {
	key := "catalog:lenguas:search:" + cacheFragment(fragment)
	return s.cachedList(ctx, key, func(ctx context.Context) ([]dto.CatalogEntryResponse, error) {
		items, err := s.repo.SearchLanguages(ctx, fragment)
		if err != nil {
			return nil, err
		}
		return dto.NewLanguageResponses(items), nil
	})
}

func (s *catalogService) GetLanguage(ctx context.Context, id int) (dto.CatalogEntryResponse, error) {
	key := fmt.Sprintf("catalog:lenguas:id:%d", id)
	items, err := s.cachedList(ctx, key, func(ctx context.Context) ([]dto.CatalogEntryResponse, error) {
		language, err := s.repo.GetLanguage(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return []dto.CatalogEntryResponse{dto.NewLanguageResponse(language)}, nil
	})
	if err != nil {
		return dto.CatalogEntryResponse{}, err
	}
	return items[0], nil
}

func (s *catalogService) SearchLocalities(ctx context.Context, fragment string) ([]dto.CatalogEntryResponse, error) {
	key := "catalog:localidades:search:" + cacheFragment(fragment)
	return s.cachedList(ctx, key, func(ctx context.Context) ([]dto.CatalogEntryResponse, error) {
		items, err := s.repo.SearchLocalities(ctx, fragment)
		if err != nil {
			return nil, err
		}
		return dto.NewLocalityResponses(items), nil
	})
}

func (s *catalogService) ListBloodTypes(ctx context.Context) ([]dto.CatalogEntryResponse, error) {
	return s.cachedList(ctx, "catalog:sangre", func(ctx context.Context) ([]dto.CatalogEntryResponse, error) {
		items, err := s.repo.ListBloodTypes(ctx)
		if err != nil {
			return nil, err
		}
		return dto.NewBloodTypeResponses(items), nil
	})
}

// cachedList reads through the cache. Empty results are never cached and map to ErrCatalogNotFound.
func (s *catalogService) cachedList(ctx context.Context, key string, load func(ctx context.Context) ([]dto.CatalogEntryResponse, error)) ([]dto.CatalogEntryResponse, error) {
	tracer := otel.Tracer("github.com/cobach/sia-alumnos-api/internal/service/catalog")
	ctx, span := tracer.Start(ctx, "catalog.read")
	span.SetAttributes(attribute.String("catalog.cache_key", key))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Result()
		switch {
		case err == nil:
			var items []dto.CatalogEntryResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &items); unmarshalErr == nil && len(items) > 0 {
				observability.CatalogCache().WithLabelValues("hit").Inc()
				span.SetAttributes(attribute.Bool("catalog.cache_hit", true))
				return items, nil
			}
		case errors.Is(err, redis.Nil):
		default:
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read catalog cache")
			span.RecordError(err)
		}
		observability.CatalogCache().WithLabelValues("miss").Inc()
	}

	items, err := load(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrCatalogNotFound
	}

	if s.cache != nil {
		if payload, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Str("key", key).Msg("failed to store catalog cache")
				span.RecordError(err)
			}
		}
	}

	return items, nil
}

func cacheFragment(fragment string) string {
	return strings.ToLower(strings.TrimSpace(fragment))
}
