package service

import (
	"context"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cobach/sia-alumnos-api/internal/models"
)

type stubCatalogRepo struct {
	languages  []models.Language
	localities []models.Locality
	bloodTypes []models.BloodType
	calls      int
}

func (s *stubCatalogRepo) SearchLanguages(ctx context.Context, fragment string) ([]models.Language, error) {
	s.calls++
	var matches []models.Language
	for _, language := range s.languages {
		if strings.Contains(strings.ToLower(language.Name), strings.ToLower(fragment)) {
			matches = append(matches, language)
		}
	}
	return matches, nil
}

func (s *stubCatalogRepo) GetLanguage(ctx context.Context, id int) (models.Language, error) {
	s.calls++
	for _, language := range s.languages {
		if language.ID == id {
			return language, nil
		}
	}
	return models.Language{}, gorm.ErrRecordNotFound
}

func (s *stubCatalogRepo) SearchLocalities(ctx context.Context, fragment string) ([]models.Locality, error) {
	s.calls++
	return s.localities, nil
}

func (s *stubCatalogRepo) ListBloodTypes(ctx context.Context) ([]models.BloodType, error) {
	s.calls++
	return s.bloodTypes, nil
}

func TestCatalogServiceCachesBloodTypes(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	repo := &stubCatalogRepo{bloodTypes: []models.BloodType{{ID: 1, Name: "A+"}, {ID: 2, Name: "O-"}, {ID: 3, Name: "AB+"}}}
	svc := NewCatalogService(repo, client, time.Minute, testLogger())

	first, err := svc.ListBloodTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.True(t, server.Exists("catalog:sangre"))

	second, err := svc.ListBloodTypes(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls)
	require.Equal(t, []string{"A+", "O-", "AB+"}, []string{second[0].Name, second[1].Name, second[2].Name})

	server.FastForward(2 * time.Minute)
	_, err = svc.ListBloodTypes(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}

func TestCatalogServiceEmptyResultIsNotFound(t *testing.T) {
	repo := &stubCatalogRepo{}
	svc := NewCatalogService(repo, nil, time.Minute, testLogger())

	_, err := svc.SearchLanguages(context.Background(), "zz")
	require.ErrorIs(t, err, ErrCatalogNotFound)

	_, err = svc.SearchLocalities(context.Background(), "zz")
	require.ErrorIs(t, err, ErrCatalogNotFound)

	_, err = svc.GetLanguage(context.Background(), 3)
	require.ErrorIs(t, err, ErrCatalogNotFound)
}

func TestCatalogServiceFallsBackWhenCacheIsDown(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()
	server.Close()

	repo := &stubCatalogRepo{languages: []models.Language{{ID: 12, Name: "Mayo"}}}
	svc := NewCatalogService(repo, client, time.Minute, testLogger())

	language, err := svc.GetLanguage(context.Background(), 12)
	require.NoError(t, err)
	require.Equal(t, "Mayo", language.Name)
}

func TestCatalogServiceSearchDoesNotReadIdentifierCache(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	repo := &stubCatalogRepo{languages: []models.Language{{ID: 5, Name: "Mayo"}, {ID: 6, Name: "Yaqui"}}}
	svc := NewCatalogService(repo, client, time.Minute, testLogger())

	language, err := svc.GetLanguage(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, "Mayo", language.Name)
	require.True(t, server.Exists("catalog:lenguas:id:5"))

	_, err = svc.SearchLanguages(context.Background(), "id:5")
	require.ErrorIs(t, err, ErrCatalogNotFound)
	require.Equal(t, 2, repo.calls)

	items, err := svc.SearchLanguages(context.Background(), "yaq")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, server.Exists("catalog:lenguas:search:yaq"))
}
