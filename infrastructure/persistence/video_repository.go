package persistence

import (
	"context"
	"errors"
	"fmt"

	"crosspost/domain/model"

	"gorm.io/gorm"
)

// VideoRepository reads video metadata from the primary MySQL database.
type VideoRepository struct{ db *gorm.DB }

func NewVideoRepository(db *gorm.DB) *VideoRepository { return &VideoRepository{db: db} }

func (r *VideoRepository) GetByID(ctx context.Context, id string) (*model.Video, error) {
	var v model.Video
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("video %s not found", id)
		}
		return nil, err
	}
	return &v, nil
}
