package repository

import (
	"context"

	"github.com/google/uuid"
)

// memoryCatalogRepository accepts every reference id. The in-memory backend
// has no catalog data to validate against; reference checks only apply on
// the postgres backend.
type memoryCatalogRepository struct{}

func NewMemoryCatalogRepository() CatalogRepository {
	return memoryCatalogRepository{}
}

func (memoryCatalogRepository) CategoryExists(context.Context, uuid.UUID) (bool, error) {
	return true, nil
}

func (memoryCatalogRepository) RegionExists(context.Context, string) (bool, error) {
	return true, nil
}
