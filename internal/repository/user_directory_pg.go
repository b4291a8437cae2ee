package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"strive/meetuphub/internal/model"
)

type pgUserDirectory struct {
	db *gorm.DB
}

func NewPGUserDirectory(db *gorm.DB) UserDirectory {
	return &pgUserDirectory{db: db}
}

func (r *pgUserDirectory) Nicknames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	result := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u.Nickname
	}
	return result, nil
}
