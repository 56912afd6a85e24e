package repository

import (
	"context"
	"time"

	"crosspost/domain/model"
)

// IPostStore is the persistence contract for scheduled posts.
type IPostStore interface {
	// FindDue returns posts in SCHEDULED state whose scheduled_for is at or
	// before now.
	FindDue(ctx context.Context, now time.Time) ([]*model.Post, error)
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	// CompareAndSetStatus transitions a post from expected to next in a single
	// conditional update and returns false when the row was no longer in the
	// expected state. This is the correctness backstop once the orchestrator
	// runs in more than one process.
	CompareAndSetStatus(ctx context.Context, id int64, expected, next model.PostStatus, fields *model.PostStateFields) (bool, error)
}
