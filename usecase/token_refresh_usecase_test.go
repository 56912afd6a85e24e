package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/usecase"
)

func strPtr(s string) *string { return &s }

func expiringAccount(id int64, platform, refreshToken string) *model.SocialAccount {
	expiry := time.Now().UTC().Add(30 * time.Minute)
	return &model.SocialAccount{
		ID:           id,
		UserID:       "user-1",
		Platform:     platform,
		AccessToken:  "stale-access",
		RefreshToken: strPtr(refreshToken),
		TokenExpiry:  &expiry,
	}
}

func TestTokenRefresh_RetainsRefreshTokenWhenNotRotated(t *testing.T) {
	accountStore := new(MockAccountStore)
	client := new(MockPlatformClient)

	account := expiringAccount(1, model.PlatformInstagram, "r1")
	accountStore.On("FindExpiring", mock.Anything, mock.Anything).Return([]*model.SocialAccount{account}, nil)
	// Instagram does not rotate: the response carries no refresh token.
	client.On("RefreshAccessToken", mock.Anything, "r1").Return(&model.TokenSet{
		AccessToken: "fresh-access",
		ExpiresIn:   int64((24 * time.Hour).Seconds()),
	}, nil)
	accountStore.On("UpdateTokens", mock.Anything, int64(1), mock.MatchedBy(func(ts *model.TokenSet) bool {
		return ts.AccessToken == "fresh-access" && ts.RefreshToken == ""
	})).Return(nil)

	u := usecase.NewTokenRefreshUsecase(accountStore, repository.ClientRegistry{
		model.PlatformInstagram: client,
	}, 6*time.Hour)

	summary, err := u.RefreshExpiring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 1, summary.Refreshed)
	assert.Equal(t, 0, summary.Failed)

	assert.Equal(t, "fresh-access", account.AccessToken)
	require.NotNil(t, account.RefreshToken)
	assert.Equal(t, "r1", *account.RefreshToken, "stored refresh token must survive a non-rotating refresh")
	require.NotNil(t, account.TokenExpiry)
	assert.WithinDuration(t, time.Now().UTC().Add(24*time.Hour), *account.TokenExpiry, 5*time.Second)
	accountStore.AssertExpectations(t)
}

func TestTokenRefresh_RotatedTokenIsPersisted(t *testing.T) {
	accountStore := new(MockAccountStore)
	client := new(MockPlatformClient)

	account := expiringAccount(2, model.PlatformTikTok, "r1")
	accountStore.On("FindExpiring", mock.Anything, mock.Anything).Return([]*model.SocialAccount{account}, nil)
	client.On("RefreshAccessToken", mock.Anything, "r1").Return(&model.TokenSet{
		AccessToken:  "a2",
		RefreshToken: "r2",
		ExpiresIn:    86400,
	}, nil)
	accountStore.On("UpdateTokens", mock.Anything, int64(2), mock.MatchedBy(func(ts *model.TokenSet) bool {
		return ts.RefreshToken == "r2"
	})).Return(nil)

	u := usecase.NewTokenRefreshUsecase(accountStore, repository.ClientRegistry{
		model.PlatformTikTok: client,
	}, 6*time.Hour)

	_, err := u.RefreshExpiring(context.Background())
	require.NoError(t, err)
	require.NotNil(t, account.RefreshToken)
	assert.Equal(t, "r2", *account.RefreshToken)
}

func TestTokenRefresh_OneFailureDoesNotStopTheSweep(t *testing.T) {
	accountStore := new(MockAccountStore)
	client := new(MockPlatformClient)

	bad := expiringAccount(1, model.PlatformTikTok, "revoked")
	good := expiringAccount(2, model.PlatformTikTok, "r-good")
	accountStore.On("FindExpiring", mock.Anything, mock.Anything).Return([]*model.SocialAccount{bad, good}, nil)

	client.On("RefreshAccessToken", mock.Anything, "revoked").Return(nil,
		&model.AuthError{Platform: model.PlatformTikTok, Message: "refresh token revoked"})
	client.On("RefreshAccessToken", mock.Anything, "r-good").Return(&model.TokenSet{
		AccessToken:  "a-good",
		RefreshToken: "r-good-2",
		ExpiresIn:    86400,
	}, nil)
	accountStore.On("UpdateTokens", mock.Anything, int64(2), mock.Anything).Return(nil)

	u := usecase.NewTokenRefreshUsecase(accountStore, repository.ClientRegistry{
		model.PlatformTikTok: client,
	}, 6*time.Hour)

	summary, err := u.RefreshExpiring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Checked)
	assert.Equal(t, 1, summary.Refreshed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, "a-good", good.AccessToken)
	accountStore.AssertNotCalled(t, "UpdateTokens", mock.Anything, int64(1), mock.Anything)
}

func TestTokenRefresh_UnsupportedPlatformIsSkipped(t *testing.T) {
	accountStore := new(MockAccountStore)

	account := expiringAccount(3, "myspace", "r1")
	accountStore.On("FindExpiring", mock.Anything, mock.Anything).Return([]*model.SocialAccount{account}, nil)

	u := usecase.NewTokenRefreshUsecase(accountStore, repository.ClientRegistry{}, 6*time.Hour)

	summary, err := u.RefreshExpiring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Refreshed, "an unsupported platform is a no-op, not a failure")
	assert.Equal(t, "stale-access", account.AccessToken)
	accountStore.AssertNotCalled(t, "UpdateTokens", mock.Anything, mock.Anything, mock.Anything)
}

func TestTokenRefresh_StoreErrorPropagates(t *testing.T) {
	accountStore := new(MockAccountStore)
	accountStore.On("FindExpiring", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	u := usecase.NewTokenRefreshUsecase(accountStore, repository.ClientRegistry{}, 6*time.Hour)

	_, err := u.RefreshExpiring(context.Background())
	require.Error(t, err)
}

func TestTokenRefresh_LookaheadCutoff(t *testing.T) {
	accountStore := new(MockAccountStore)
	lookahead := 6 * time.Hour

	accountStore.On("FindExpiring", mock.Anything, mock.MatchedBy(func(before time.Time) bool {
		return time.Until(before) > lookahead-time.Minute && time.Until(before) <= lookahead
	})).Return([]*model.SocialAccount{}, nil)

	u := usecase.NewTokenRefreshUsecase(accountStore, repository.ClientRegistry{}, lookahead)

	summary, err := u.RefreshExpiring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Checked)
	accountStore.AssertExpectations(t)
}
