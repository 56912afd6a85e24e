package persistence

import (
	"context"
	"database/sql"
	"time"

	"crosspost/domain/model"
)

// AccountRepository implements account persistence on PostgreSQL.
type AccountRepository struct{ db *sql.DB }

func NewAccountRepository(db *sql.DB) *AccountRepository { return &AccountRepository{db: db} }

const accountColumns = `id, user_id, platform, account_id, username, access_token, refresh_token, token_expiry, created_at, updated_at`

func (r *AccountRepository) FindExpiring(ctx context.Context, before time.Time) ([]*model.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM social_accounts
		 WHERE token_expiry IS NOT NULL AND token_expiry <= $1 AND refresh_token IS NOT NULL
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

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*model.SocialAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM social_accounts WHERE id=$1`, id)
	return scanAccount(row)
}

// UpdateTokens persists a refresh result. NULLIF keeps the stored refresh
// token when the platform did not rotate it.
func (r *AccountRepository) UpdateTokens(ctx context.Context, id int64, ts *model.TokenSet) error {
	now := time.Now().UTC()
	expiry := now.Add(time.Duration(ts.ExpiresIn) * time.Second)
	_, err := r.db.ExecContext(ctx,
		`UPDATE social_accounts
		 SET access_token=$1,
		     refresh_token=COALESCE(NULLIF($2,''), refresh_token),
		     token_expiry=$3,
		     updated_at=$4
		 WHERE id=$5`,
		ts.AccessToken, ts.RefreshToken, expiry, now, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.SocialAccount, error) {
	acc := &model.SocialAccount{}
	var refresh sql.NullString
	var expiry sql.NullTime
	if err := row.Scan(&acc.ID, &acc.UserID, &acc.Platform, &acc.AccountID, &acc.Username,
		&acc.AccessToken, &refresh, &expiry, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
		return nil, err
	}
	if refresh.Valid {
		acc.RefreshToken = &refresh.String
	}
	if expiry.Valid {
		acc.TokenExpiry = &expiry.Time
	}
	return acc, nil
}
