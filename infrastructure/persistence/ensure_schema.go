package persistence

import (
	"database/sql"
	"fmt"

	"crosspost/infrastructure/logger"
)

// EnsureAccountSchema creates the social_accounts table if it does not exist.
// Safe to call at startup.
func EnsureAccountSchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS social_accounts (
        id BIGSERIAL PRIMARY KEY,
        user_id TEXT NOT NULL,
        platform TEXT NOT NULL,
        account_id TEXT NOT NULL,
        username TEXT NOT NULL DEFAULT '',
        access_token TEXT NOT NULL,
        refresh_token TEXT,
        token_expiry TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL,
        UNIQUE (platform, account_id)
    )`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create social_accounts table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_social_accounts_token_expiry ON social_accounts(token_expiry)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_social_accounts_token_expiry")
	}
	return nil
}

// EnsurePostSchema creates the posts table if it does not exist.
func EnsurePostSchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS posts (
        id BIGSERIAL PRIMARY KEY,
        video_id TEXT NOT NULL,
        platform TEXT NOT NULL,
        account_id BIGINT NOT NULL REFERENCES social_accounts(id),
        status TEXT NOT NULL DEFAULT 'PENDING',
        scheduled_for TIMESTAMPTZ,
        publish_id TEXT,
        platform_post_id TEXT,
        fail_reason TEXT,
        posted_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	// Partial index keeps the due-post sweep cheap
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_posts_due ON posts(scheduled_for) WHERE status = 'SCHEDULED'`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_posts_due")
	}
	return nil
}
