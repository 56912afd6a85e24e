package repository

import (
	"context"
	"strings"

	"crosspost/domain/dto"
	"crosspost/domain/model"
)

// IPlatformClient is the per-platform publishing contract. Implementations
// live under infrastructure/clients and map platform HTTP errors to
// model.AuthError / model.PlatformError.
type IPlatformClient interface {
	// RefreshAccessToken exchanges a refresh token for a fresh TokenSet.
	RefreshAccessToken(ctx context.Context, refreshToken string) (*model.TokenSet, error)
	// InitiateUpload starts an asynchronous publish of the video reachable at
	// sourceURL and returns the platform publish id to poll.
	InitiateUpload(ctx context.Context, accessToken, sourceURL string) (string, error)
	// GetPublishStatus polls an in-flight publish.
	GetPublishStatus(ctx context.Context, accessToken, publishID string) (*dto.PublishStatus, error)
}

// ClientRegistry resolves a platform id to its client. Platforms without an
// entry are treated as not yet supported, never as an error.
type ClientRegistry map[string]IPlatformClient

func (r ClientRegistry) Resolve(platform string) (IPlatformClient, bool) {
	c, ok := r[strings.ToLower(platform)]
	return c, ok
}
