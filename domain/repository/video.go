package repository

import (
	"context"

	"crosspost/domain/model"
)

// IVideoStore reads video metadata from the primary database.
type IVideoStore interface {
	GetByID(ctx context.Context, id string) (*model.Video, error)
}
