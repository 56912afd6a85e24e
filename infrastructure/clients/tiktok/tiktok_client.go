package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"crosspost/domain/dto"
	"crosspost/domain/model"
	"crosspost/domain/repository"

	"github.com/google/go-querystring/query"
)

const defaultBaseURL = "https://open.tiktokapis.com"

// Client talks to the TikTok content posting API. TikTok rotates the refresh
// token on every refresh and publishes asynchronously via PULL_FROM_URL.
type Client struct {
	baseURL      string
	clientKey    string
	clientSecret string
	httpClient   *http.Client
}

type Config struct {
	ClientKey    string
	ClientSecret string
	BaseURL      string // test override
}

func NewClient(cfg Config) repository.IPlatformClient {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		baseURL:      base,
		clientKey:    cfg.ClientKey,
		clientSecret: cfg.ClientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

type refreshRequest struct {
	ClientKey    string `url:"client_key"`
	ClientSecret string `url:"client_secret"`
	GrantType    string `url:"grant_type"`
	RefreshToken string `url:"refresh_token"`
}

func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*model.TokenSet, error) {
	form, err := query.Values(refreshRequest{
		ClientKey:    c.clientKey,
		ClientSecret: c.clientSecret,
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/oauth/token/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh token request failed: %w", err)
	}
	defer resp.Body.Close()

	var tokenResponse struct {
		AccessToken      string `json:"access_token"`
		RefreshToken     string `json:"refresh_token"`
		ExpiresIn        int64  `json:"expires_in"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResponse.Error != "" {
		if tokenResponse.Error == "invalid_grant" || resp.StatusCode == http.StatusUnauthorized {
			return nil, &model.AuthError{Platform: model.PlatformTikTok, Message: tokenResponse.ErrorDescription}
		}
		return nil, &model.PlatformError{Platform: model.PlatformTikTok, Code: tokenResponse.Error, Message: tokenResponse.ErrorDescription}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &model.PlatformError{Platform: model.PlatformTikTok, Code: fmt.Sprint(resp.StatusCode), Message: "token refresh failed"}
	}

	return &model.TokenSet{
		AccessToken:  tokenResponse.AccessToken,
		RefreshToken: tokenResponse.RefreshToken,
		ExpiresIn:    tokenResponse.ExpiresIn,
	}, nil
}

func (c *Client) InitiateUpload(ctx context.Context, accessToken, sourceURL string) (string, error) {
	payload := map[string]interface{}{
		"source_info": map[string]string{
			"source":    "PULL_FROM_URL",
			"video_url": sourceURL,
		},
	}
	var out struct {
		Data struct {
			PublishID string `json:"publish_id"`
		} `json:"data"`
		Error apiError `json:"error"`
	}
	if err := c.postJSON(ctx, "/v2/post/publish/video/init/", accessToken, payload, &out); err != nil {
		return "", err
	}
	if err := out.Error.toDomain(); err != nil {
		return "", err
	}
	if out.Data.PublishID == "" {
		return "", &model.PlatformError{Platform: model.PlatformTikTok, Code: "empty_publish_id", Message: "init response carried no publish id"}
	}
	return out.Data.PublishID, nil
}

func (c *Client) GetPublishStatus(ctx context.Context, accessToken, publishID string) (*dto.PublishStatus, error) {
	payload := map[string]string{"publish_id": publishID}
	var out struct {
		Data struct {
			Status                  string   `json:"status"`
			FailReason              string   `json:"fail_reason"`
			PubliclyAvailablePostID []string `json:"publicaly_available_post_id"`
		} `json:"data"`
		Error apiError `json:"error"`
	}
	if err := c.postJSON(ctx, "/v2/post/publish/status/fetch/", accessToken, payload, &out); err != nil {
		return nil, err
	}
	if err := out.Error.toDomain(); err != nil {
		return nil, err
	}

	status := &dto.PublishStatus{}
	switch out.Data.Status {
	case "PUBLISH_COMPLETE":
		status.State = dto.PublishStateComplete
		if len(out.Data.PubliclyAvailablePostID) > 0 {
			status.PlatformPostID = out.Data.PubliclyAvailablePostID[0]
		}
	case "FAILED":
		status.State = dto.PublishStateFailed
		status.FailReason = out.Data.FailReason
	default:
		// PROCESSING_UPLOAD, PROCESSING_DOWNLOAD, SEND_TO_USER_INBOX
		status.State = dto.PublishStateProcessing
	}
	return status, nil
}

func (c *Client) postJSON(ctx context.Context, path, accessToken string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &model.AuthError{Platform: model.PlatformTikTok, Message: "access token rejected"}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// apiError is TikTok's envelope error; code "ok" means success.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e apiError) toDomain() error {
	if e.Code == "" || e.Code == "ok" {
		return nil
	}
	if e.Code == "access_token_invalid" {
		return &model.AuthError{Platform: model.PlatformTikTok, Message: e.Message}
	}
	return &model.PlatformError{Platform: model.PlatformTikTok, Code: e.Code, Message: e.Message}
}
