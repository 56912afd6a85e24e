package usecase

import (
	"context"
	"time"

	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/logger"
)

// RefreshSummary counts the outcomes of one refresh sweep.
type RefreshSummary struct {
	Checked   int `json:"checked"`
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}

type ITokenRefreshUsecase interface {
	// RefreshExpiring refreshes every account whose token expires within the
	// lookahead window. One account's failure never stops the sweep.
	RefreshExpiring(ctx context.Context) (*RefreshSummary, error)
	// RefreshAccount refreshes a single account on demand and returns the new
	// access token.
	RefreshAccount(ctx context.Context, account *model.SocialAccount) (string, error)
}

type tokenRefreshUsecase struct {
	accountStore repository.IAccountStore
	clients      repository.ClientRegistry
	lookahead    time.Duration
}

func NewTokenRefreshUsecase(accountStore repository.IAccountStore, clients repository.ClientRegistry, lookahead time.Duration) ITokenRefreshUsecase {
	return &tokenRefreshUsecase{
		accountStore: accountStore,
		clients:      clients,
		lookahead:    lookahead,
	}
}

func (u *tokenRefreshUsecase) RefreshExpiring(ctx context.Context) (*RefreshSummary, error) {
	cutoff := time.Now().UTC().Add(u.lookahead)
	accounts, err := u.accountStore.FindExpiring(ctx, cutoff)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while querying expiring accounts.")
		return nil, err
	}

	summary := &RefreshSummary{Checked: len(accounts)}
	for _, account := range accounts {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if _, err := u.RefreshAccount(ctx, account); err != nil {
			summary.Failed++
			continue
		}
		summary.Refreshed++
	}
	logger.GetLogger().
		WithField("checked", summary.Checked).
		WithField("refreshed", summary.Refreshed).
		WithField("failed", summary.Failed).
		Info("Token refresh sweep completed")
	return summary, nil
}

func (u *tokenRefreshUsecase) RefreshAccount(ctx context.Context, account *model.SocialAccount) (string, error) {
	log := logger.GetLogger().
		WithField("account_id", account.ID).
		WithField("platform", account.Platform)

	client, ok := u.clients.Resolve(account.Platform)
	if !ok {
		log.Warn("No client registered for platform - skipping refresh")
		return account.AccessToken, nil
	}
	if account.RefreshToken == nil || *account.RefreshToken == "" {
		log.Warn("Account has no refresh token - skipping refresh")
		return account.AccessToken, nil
	}

	tokenSet, err := client.RefreshAccessToken(ctx, *account.RefreshToken)
	if err != nil {
		if model.IsAuthError(err) {
			log.WithField("error", err).Warn("Refresh token rejected - account needs re-authorization")
		} else {
			log.WithField("error", err).Error("Error while refreshing access token.")
		}
		return "", err
	}

	if err := u.accountStore.UpdateTokens(ctx, account.ID, tokenSet); err != nil {
		log.WithField("error", err).Error("Error while persisting refreshed tokens.")
		return "", err
	}

	account.AccessToken = tokenSet.AccessToken
	if tokenSet.RefreshToken != "" {
		account.RefreshToken = &tokenSet.RefreshToken
	}
	if tokenSet.ExpiresIn > 0 {
		expiry := time.Now().UTC().Add(time.Duration(tokenSet.ExpiresIn) * time.Second)
		account.TokenExpiry = &expiry
	}
	log.Info("Access token refreshed")
	return tokenSet.AccessToken, nil
}
