package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"crosspost/domain/model"
)

// AccountRepositoryMSSQL implements account persistence on SQL Server.
type AccountRepositoryMSSQL struct{ db *sql.DB }

func NewAccountRepositoryMSSQL(db *sql.DB) *AccountRepositoryMSSQL {
	return &AccountRepositoryMSSQL{db: db}
}

// EnsureAccountSchemaMSSQL creates the social_accounts table for SQL Server if it does not exist.
func EnsureAccountSchemaMSSQL(db *sql.DB) error {
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.social_accounts') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[social_accounts] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        user_id NVARCHAR(128) NOT NULL,
        platform NVARCHAR(64) NOT NULL,
        account_id NVARCHAR(128) NOT NULL,
        username NVARCHAR(255) NOT NULL DEFAULT '',
        access_token NVARCHAR(MAX) NOT NULL,
        refresh_token NVARCHAR(MAX) NULL,
        token_expiry DATETIME2 NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_social_accounts_platform_account ON dbo.[social_accounts](platform, account_id);
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create social_accounts (mssql): %w", err)
	}
	return nil
}

func (r *AccountRepositoryMSSQL) FindExpiring(ctx context.Context, before time.Time) ([]*model.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM social_accounts
		 WHERE token_expiry IS NOT NULL AND token_expiry <= @p1 AND refresh_token IS NOT NULL
		 ORDER BY token_expiry ASC`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.SocialAccount
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, acc)
	}
	return list, rows.Err()
}

func (r *AccountRepositoryMSSQL) GetByID(ctx context.Context, id int64) (*model.SocialAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM social_accounts WHERE id=@p1`, id)
	return scanAccount(row)
}

func (r *AccountRepositoryMSSQL) UpdateTokens(ctx context.Context, id int64, ts *model.TokenSet) error {
	now := time.Now().UTC()
	expiry := now.Add(time.Duration(ts.ExpiresIn) * time.Second)
	// Normalize nullable values for the MSSQL driver
	var refresh sql.NullString
	if ts.RefreshToken != "" {
		refresh.Valid = true
		refresh.String = ts.RefreshToken
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE social_accounts
		 SET access_token=@p1,
		     refresh_token=COALESCE(@p2, refresh_token),
		     token_expiry=@p3,
		     updated_at=@p4
		 WHERE id=@p5`,
		ts.AccessToken, refresh, expiry, now, id)
	return err
}
