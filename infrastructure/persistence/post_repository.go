package persistence

import (
	"context"
	"database/sql"
	"time"

	"crosspost/domain/model"
)

// PostRepository implements post persistence on PostgreSQL.
type PostRepository struct{ db *sql.DB }

func NewPostRepository(db *sql.DB) *PostRepository { return &PostRepository{db: db} }

const postColumns = `id, video_id, platform, account_id, status, scheduled_for, publish_id, platform_post_id, fail_reason, posted_at, created_at, updated_at`

func (r *PostRepository) FindDue(ctx context.Context, now time.Time) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE status=$1 AND scheduled_for IS NOT NULL AND scheduled_for <= $2
		 ORDER BY scheduled_for ASC`, model.PostStatusScheduled, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *PostRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id)
	return scanPost(row)
}

// CompareAndSetStatus performs the single-row conditional transition. It
// returns false when the row was no longer in the expected state, which
// callers treat as another instance having taken the post.
func (r *PostRepository) CompareAndSetStatus(ctx context.Context, id int64, expected, next model.PostStatus, fields *model.PostStateFields) (bool, error) {
	if fields == nil {
		fields = &model.PostStateFields{}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE posts
		 SET status=$1,
		     publish_id=COALESCE($2, publish_id),
		     platform_post_id=COALESCE($3, platform_post_id),
		     fail_reason=COALESCE($4, fail_reason),
		     posted_at=COALESCE($5, posted_at),
		     updated_at=$6
		 WHERE id=$7 AND status=$8`,
		next, fields.PublishID, fields.PlatformPostID, fields.FailReason, fields.PostedAt,
		time.Now().UTC(), id, expected)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func scanPost(row rowScanner) (*model.Post, error) {
	p := &model.Post{}
	var scheduledFor, postedAt sql.NullTime
	var publishID, platformPostID, failReason sql.NullString
	if err := row.Scan(&p.ID, &p.VideoID, &p.Platform, &p.AccountID, &p.Status,
		&scheduledFor, &publishID, &platformPostID, &failReason, &postedAt,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if scheduledFor.Valid {
		p.ScheduledFor = &scheduledFor.Time
	}
	if publishID.Valid {
		p.PublishID = &publishID.String
	}
	if platformPostID.Valid {
		p.PlatformPostID = &platformPostID.String
	}
	if failReason.Valid {
		p.FailReason = &failReason.String
	}
	if postedAt.Valid {
		p.PostedAt = &postedAt.Time
	}
	return p, nil
}
