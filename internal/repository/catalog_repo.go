package repository

import (
	"context"

	"github.com/google/uuid"
)

// CatalogRepository exposes existence checks over category/region reference
// data. The catalog is owned elsewhere; the core only consults it at meetup
// creation.
type CatalogRepository interface {
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
	RegionExists(ctx context.Context, code string) (bool, error)
}
