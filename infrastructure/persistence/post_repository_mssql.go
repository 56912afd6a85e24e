package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"crosspost/domain/model"
)

// PostRepositoryMSSQL implements post persistence on SQL Server.
type PostRepositoryMSSQL struct{ db *sql.DB }

func NewPostRepositoryMSSQL(db *sql.DB) *PostRepositoryMSSQL { return &PostRepositoryMSSQL{db: db} }

// EnsurePostSchemaMSSQL creates the posts table for SQL Server if it does not exist.
func EnsurePostSchemaMSSQL(db *sql.DB) error {
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.posts') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[posts] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        video_id NVARCHAR(64) NOT NULL,
        platform NVARCHAR(64) NOT NULL,
        account_id BIGINT NOT NULL,
        status NVARCHAR(32) NOT NULL DEFAULT 'PENDING',
        scheduled_for DATETIME2 NULL,
        publish_id NVARCHAR(255) NULL,
        platform_post_id NVARCHAR(255) NULL,
        fail_reason NVARCHAR(MAX) NULL,
        posted_at DATETIME2 NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE INDEX IX_posts_status_scheduled_for ON dbo.[posts](status, scheduled_for);
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create posts (mssql): %w", err)
	}
	return nil
}

func (r *PostRepositoryMSSQL) FindDue(ctx context.Context, now time.Time) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE status=@p1 AND scheduled_for IS NOT NULL AND scheduled_for <= @p2
		 ORDER BY scheduled_for ASC`, string(model.PostStatusScheduled), now)
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

func (r *PostRepositoryMSSQL) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id=@p1`, id)
	return scanPost(row)
}

func (r *PostRepositoryMSSQL) CompareAndSetStatus(ctx context.Context, id int64, expected, next model.PostStatus, fields *model.PostStateFields) (bool, error) {
	if fields == nil {
		fields = &model.PostStateFields{}
	}
	var publishID, platformPostID, failReason sql.NullString
	if fields.PublishID != nil {
		publishID = sql.NullString{String: *fields.PublishID, Valid: true}
	}
	if fields.PlatformPostID != nil {
		platformPostID = sql.NullString{String: *fields.PlatformPostID, Valid: true}
	}
	if fields.FailReason != nil {
		failReason = sql.NullString{String: *fields.FailReason, Valid: true}
	}
	var postedAt sql.NullTime
	if fields.PostedAt != nil {
		postedAt = sql.NullTime{Time: *fields.PostedAt, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE posts
		 SET status=@p1,
		     publish_id=COALESCE(@p2, publish_id),
		     platform_post_id=COALESCE(@p3, platform_post_id),
		     fail_reason=COALESCE(@p4, fail_reason),
		     posted_at=COALESCE(@p5, posted_at),
		     updated_at=@p6
		 WHERE id=@p7 AND status=@p8`,
		string(next), publishID, platformPostID, failReason, postedAt,
		time.Now().UTC(), id, string(expected))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
