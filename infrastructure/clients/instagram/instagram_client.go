package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"crosspost/domain/dto"
	"crosspost/domain/model"
	"crosspost/domain/repository"

	"github.com/google/go-querystring/query"
)

const defaultBaseURL = "https://graph.instagram.com"

// Client talks to the Instagram Graph API. Instagram long-lived tokens are
// refreshed in place and never rotated, so RefreshAccessToken returns an
// empty refresh token and the caller keeps the stored one.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Config struct {
	BaseURL string // test override
}

func NewClient(cfg Config) repository.IPlatformClient {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type refreshParams struct {
	GrantType   string `url:"grant_type"`
	AccessToken string `url:"access_token"`
}

func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*model.TokenSet, error) {
	params, err := query.Values(refreshParams{
		GrantType:   "ig_refresh_token",
		AccessToken: refreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("encode refresh params: %w", err)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := c.get(ctx, "/refresh_access_token", params, &out); err != nil {
		return nil, err
	}

	// No rotation: empty RefreshToken keeps the stored value.
	return &model.TokenSet{
		AccessToken: out.AccessToken,
		ExpiresIn:   out.ExpiresIn,
	}, nil
}

func (c *Client) InitiateUpload(ctx context.Context, accessToken, sourceURL string) (string, error) {
	params := url.Values{}
	params.Set("media_type", "REELS")
	params.Set("video_url", sourceURL)
	params.Set("access_token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/me/media?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("media container create failed: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		ID    string    `json:"id"`
		Error *apiError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode container response: %w", err)
	}
	if out.Error != nil {
		return "", out.Error.toDomain()
	}
	if out.ID == "" {
		return "", &model.PlatformError{Platform: model.PlatformInstagram, Code: "empty_container_id", Message: "media create carried no container id"}
	}
	return out.ID, nil
}

func (c *Client) GetPublishStatus(ctx context.Context, accessToken, publishID string) (*dto.PublishStatus, error) {
	params := url.Values{}
	params.Set("fields", "status_code,status")
	params.Set("access_token", accessToken)

	var out struct {
		StatusCode string    `json:"status_code"`
		Status     string    `json:"status"`
		Error      *apiError `json:"error"`
	}
	if err := c.get(ctx, "/"+publishID, params, &out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, out.Error.toDomain()
	}

	switch out.StatusCode {
	case "FINISHED":
		// The container finished processing; the publish step is folded in
		// here because media_publish only succeeds once processing is done.
		mediaID, err := c.publishContainer(ctx, accessToken, publishID)
		if err != nil {
			return nil, err
		}
		return &dto.PublishStatus{State: dto.PublishStateComplete, PlatformPostID: mediaID}, nil
	case "ERROR", "EXPIRED":
		reason := out.Status
		if reason == "" {
			reason = out.StatusCode
		}
		return &dto.PublishStatus{State: dto.PublishStateFailed, FailReason: reason}, nil
	default:
		// IN_PROGRESS, PUBLISHED (rare intermediate)
		return &dto.PublishStatus{State: dto.PublishStateProcessing}, nil
	}
}

func (c *Client) publishContainer(ctx context.Context, accessToken, containerID string) (string, error) {
	params := url.Values{}
	params.Set("creation_id", containerID)
	params.Set("access_token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/me/media_publish?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("media publish failed: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		ID    string    `json:"id"`
		Error *apiError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode publish response: %w", err)
	}
	if out.Error != nil {
		return "", out.Error.toDomain()
	}
	return out.ID, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &model.AuthError{Platform: model.PlatformInstagram, Message: "access token rejected"}
	}
	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Error *apiError `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&envelope) == nil && envelope.Error != nil {
			return envelope.Error.toDomain()
		}
		return &model.PlatformError{Platform: model.PlatformInstagram, Code: fmt.Sprint(resp.StatusCode), Message: "graph api error"}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// apiError is the Graph API error envelope.
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func (e *apiError) toDomain() error {
	// Graph code 190 is the invalid/expired token class.
	if e.Code == 190 || e.Type == "OAuthException" {
		return &model.AuthError{Platform: model.PlatformInstagram, Message: e.Message}
	}
	return &model.PlatformError{Platform: model.PlatformInstagram, Code: fmt.Sprint(e.Code), Message: e.Message}
}
