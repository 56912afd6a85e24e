package repository

import (
	"context"

	"crosspost/domain/model"
)

// IJobRunStore is the append-only history of scheduler job firings.
type IJobRunStore interface {
	Append(ctx context.Context, run *model.JobRun) error
	ListRecent(ctx context.Context, job string, limit int) ([]*model.JobRun, error)
}
