package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/cobach/sia-alumnos-api/internal/database"
	"github.com/cobach/sia-alumnos-api/internal/models"
)

// CatalogTables names the relations backing each reference catalog.
type CatalogTables struct {
	Languages  string
	Localities string
	BloodTypes string
}

// DefaultCatalogTables returns the production catalog relations.
func DefaultCatalogTables() CatalogTables {
	return CatalogTables{
		Languages:  "Catalogos.Lenguas",
		Localities: "SIA.Catalogos.Localidades",
		BloodTypes: "SIA.Catalogos.TiposSangres",
	}
}

// CatalogRepository provides read-only access to the reference catalogs.
type CatalogRepository interface {
	SearchLanguages(ctx context.Context, fragment string) ([]models.Language, error)
	GetLanguage(ctx context.Context, id int) (models.Language, error)
	SearchLocalities(ctx context.Context, fragment string) ([]models.Locality, error)
	ListBloodTypes(ctx context.Context) ([]models.BloodType, error)
}

type catalogRepository struct {
	provider *database.Provider
	tables   CatalogTables
}

// NewCatalogRepository constructs a catalog repository.
func NewCatalogRepository(provider *database.Provider, tables CatalogTables) CatalogRepository {
	defaults := DefaultCatalogTables()
	if tables.Languages == "" {
		tables.Languages = defaults.Languages
	}
	if tables.Localities == "" {
		tables.Localities = defaults.Localities
	}
	if tables.BloodTypes == "" {
		tables.BloodTypes = defaults.BloodTypes
	}
	return &catalogRepository{provider: provider, tables: tables}
}

func (r *catalogRepository) SearchLanguages(ctx context.Context, fragment string) ([]models.Language, error) {
	var languages []models.Language
	err := r.provider.Scope(ctx, func(conn *gorm.DB) error {
		return conn.Table(r.tables.Languages).
			Where(`LOWER(Nombre) LIKE ? ESCAPE '\'`, containsPattern(fragment)).
			Order("Id").
			Find(&languages).Error
	})
	if err != nil {
		return nil, err
	}
	return languages, nil
}

func (r *catalogRepository) GetLanguage(ctx context.Context, id int) (models.Language, error) {
	var language models.Language
	err := r.provider.Scope(ctx, func(conn *gorm.DB) error {
		return conn.Table(r.tables.Languages).Where("Id = ?", id).Take(&language).Error
	})
	if err != nil {
		return models.Language{}, err
	}
	return language, nil
}

func (r *catalogRepository) SearchLocalities(ctx context.Context, fragment string) ([]models.Locality, error) {
	var localities []models.Locality
	err := r.provider.Scope(ctx, func(conn *gorm.DB) error {
		return conn.Table(r.tables.Localities).
			Where(`LOWER(NombreLocalidad) LIKE ? ESCAPE '\'`, containsPattern(fragment)).
			Order("NombreLocalidad").
			Find(&localities).Error
	})
	if err != nil {
		return nil, err
	}
	return localities, nil
}

func (r *catalogRepository) ListBloodTypes(ctx context.Context) ([]models.BloodType, error) {
	var bloodTypes []models.BloodType
	err := r.provider.Scope(ctx, func(conn *gorm.DB) error {
		return conn.Table(r.tables.BloodTypes).Order("Id").Find(&bloodTypes).Error
	})
	if err != nil {
		return nil, err
	}
	return bloodTypes, nil
}

// containsPattern builds a case-insensitive LIKE pattern that treats the fragment literally.
func containsPattern(fragment string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `[`, `\[`)
	return "%" + replacer.Replace(strings.ToLower(strings.TrimSpace(fragment))) + "%"
}
