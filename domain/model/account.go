package model

import "time"

// Platform identifiers as stored on accounts and posts.
const (
	PlatformTikTok    = "tiktok"
	PlatformYouTube   = "youtube"
	PlatformInstagram = "instagram"
)

// SocialAccount binds a user to a platform-side account and holds its OAuth credentials.
// Exactly one row exists per (platform, account_id) pair.
type SocialAccount struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"user_id"`
	Platform     string     `json:"platform"`
	AccountID    string     `json:"account_id"` // platform-side id (open_id, channel id, ig user id)
	Username     string     `json:"username"`
	AccessToken  string     `json:"access_token"`
	RefreshToken *string    `json:"refresh_token,omitempty"`
	TokenExpiry  *time.Time `json:"token_expiry,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TokenExpiresWithin reports whether the access token is already expired or
// will expire within d. Accounts without a recorded expiry are treated as
// non-expiring.
func (a *SocialAccount) TokenExpiresWithin(d time.Duration) bool {
	if a.TokenExpiry == nil {
		return false
	}
	return a.TokenExpiry.Before(time.Now().UTC().Add(d))
}

// TokenSet is the result of a refresh call. An empty RefreshToken means the
// platform did not rotate it and the stored one must be retained (Instagram
// long-lived tokens behave this way).
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}
