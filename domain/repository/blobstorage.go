package repository

import (
	"context"
	"time"
)

// IBlobStorage resolves stored video objects to URLs the platforms can pull.
type IBlobStorage interface {
	GetSignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)
}
