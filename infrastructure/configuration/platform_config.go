package configuration

import (
	"os"
	"strings"
)

// PlatformConfig is the resolved credential set handed to a platform client.
type PlatformConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// GetTikTokConfig returns TikTok client credentials from config with environment fallback.
func GetTikTokConfig() PlatformConfig {
	return PlatformConfig{
		ClientID:     getConfigValue(C.Platforms.TikTok.ClientID, "TIKTOK_CLIENT_KEY", ""),
		ClientSecret: getConfigValue(C.Platforms.TikTok.ClientSecret, "TIKTOK_CLIENT_SECRET", ""),
		RedirectURI:  getConfigValue(C.Platforms.TikTok.RedirectURI, "TIKTOK_REDIRECT_URI", ""),
	}
}

// GetYouTubeConfig returns YouTube OAuth client credentials from config with environment fallback.
func GetYouTubeConfig() PlatformConfig {
	return PlatformConfig{
		ClientID:     getConfigValue(C.Platforms.YouTube.ClientID, "YOUTUBE_CLIENT_ID", ""),
		ClientSecret: getConfigValue(C.Platforms.YouTube.ClientSecret, "YOUTUBE_CLIENT_SECRET", ""),
		RedirectURI:  getConfigValue(C.Platforms.YouTube.RedirectURI, "YOUTUBE_REDIRECT_URL", ""),
	}
}

// GetInstagramConfig returns Instagram client credentials from config with environment fallback.
func GetInstagramConfig() PlatformConfig {
	return PlatformConfig{
		ClientID:     getConfigValue(C.Platforms.Instagram.ClientID, "INSTAGRAM_APP_ID", ""),
		ClientSecret: getConfigValue(C.Platforms.Instagram.ClientSecret, "INSTAGRAM_APP_SECRET", ""),
		RedirectURI:  getConfigValue(C.Platforms.Instagram.RedirectURI, "INSTAGRAM_REDIRECT_URI", ""),
	}
}

// Configured reports whether the minimum credential set is present.
func (p PlatformConfig) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// getConfigValue gets value from config first, then environment variable, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	// Environment variable takes precedence when provided
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	// Otherwise use config value if set and not a placeholder
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}
