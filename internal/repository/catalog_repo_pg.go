package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"strive/meetuphub/internal/model"
)

type pgCatalogRepository struct {
	db *gorm.DB
}

func NewPGCatalogRepository(db *gorm.DB) CatalogRepository {
	return &pgCatalogRepository{db: db}
}

func (r *pgCatalogRepository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *pgCatalogRepository) RegionExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Region{}).
		Where("code = ?", code).
		Count(&count).Error
	return count > 0, err
}
