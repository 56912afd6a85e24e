package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crosspost/domain/model"
)

func TestAccountRepository_FindExpiring(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	expiry := now.Add(time.Hour)
	refresh := "r1"

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "platform", "account_id", "username",
		"access_token", "refresh_token", "token_expiry", "created_at", "updated_at",
	}).AddRow(int64(1), "u1", "tiktok", "open-id-1", "alice", "a1", refresh, expiry, now, now)

	mock.ExpectQuery("SELECT (.+) FROM social_accounts").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	repo := NewAccountRepository(db)
	accounts, err := repo.FindExpiring(context.Background(), now.Add(6*time.Hour))
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "tiktok", accounts[0].Platform)
	require.NotNil(t, accounts[0].RefreshToken)
	assert.Equal(t, "r1", *accounts[0].RefreshToken)
	require.NotNil(t, accounts[0].TokenExpiry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_UpdateTokens_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Empty refresh token goes through NULLIF so the stored value survives.
	mock.ExpectExec("UPDATE social_accounts").
		WithArgs("a2", "", sqlmock.AnyArg(), sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAccountRepository(db)
	err = repo.UpdateTokens(context.Background(), 7, &model.TokenSet{
		AccessToken: "a2",
		ExpiresIn:   86400,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_UpdateTokens_RotatedRefreshToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE social_accounts").
		WithArgs("a2", "r2", sqlmock.AnyArg(), sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAccountRepository(db)
	err = repo.UpdateTokens(context.Background(), 7, &model.TokenSet{
		AccessToken:  "a2",
		RefreshToken: "r2",
		ExpiresIn:    3600,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
