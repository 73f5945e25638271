package dto

import "github.com/cobach/sia-alumnos-api/internal/models"

// CatalogEntryResponse is the public shape of a catalog row.
type CatalogEntryResponse struct {
	ID   interface{} `json:"id"`
	Name string      `json:"nombre"`
}

// NewLanguageResponses maps languages to catalog entries.
func NewLanguageResponses(items []models.Language) []CatalogEntryResponse {
	result := make([]CatalogEntryResponse, 0, len(items))
	for _, item := range items {
		result = append(result, NewLanguageResponse(item))
	}
	return result
}

// NewLanguageResponse maps a language to a catalog entry.
func NewLanguageResponse(item models.Language) CatalogEntryResponse {
	return CatalogEntryResponse{ID: item.ID, Name: item.Name}
}

// NewLocalityResponses maps localities to catalog entries.
func NewLocalityResponses(items []models.Locality) []CatalogEntryResponse {
	result := make([]CatalogEntryResponse, 0, len(items))
	for _, item := range items {
		result = append(result, CatalogEntryResponse{ID: item.ID, Name: item.Name})
	}
	return result
}

// NewBloodTypeResponses maps blood types to catalog entries.
func NewBloodTypeResponses(items []models.BloodType) []CatalogEntryResponse {
	result := make([]CatalogEntryResponse, 0, len(items))
	for _, item := range items {
		result = append(result, CatalogEntryResponse{ID: item.ID, Name: item.Name})
	}
	return result
}
