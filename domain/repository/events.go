package repository

import (
	"context"

	"crosspost/domain/model"
)

// IPostEvents publishes post lifecycle events to a message bus. Emission is
// best-effort; failures are logged by callers and never fail the post.
type IPostEvents interface {
	PublishPostEvent(ctx context.Context, evt *model.PostEvent) error
}
