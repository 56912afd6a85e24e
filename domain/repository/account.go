package repository

import (
	"context"
	"time"

	"crosspost/domain/model"
)

// IAccountStore is the persistence contract for social account credentials.
type IAccountStore interface {
	// FindExpiring returns accounts whose token expiry is at or before the
	// given instant and which have a refresh token to work with.
	FindExpiring(ctx context.Context, before time.Time) ([]*model.SocialAccount, error)
	GetByID(ctx context.Context, id int64) (*model.SocialAccount, error)
	// UpdateTokens persists a refresh result. An empty TokenSet.RefreshToken
	// keeps the stored refresh token unchanged.
	UpdateTokens(ctx context.Context, id int64, ts *model.TokenSet) error
}
