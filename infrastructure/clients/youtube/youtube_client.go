package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"crosspost/domain/dto"
	"crosspost/domain/model"
	"crosspost/domain/repository"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"
)

// Client implements the publishing contract on the YouTube Data API.
// YouTube has no pull-from-URL upload, so InitiateUpload streams the signed
// source URL through videos.insert; the returned video id is the publish id
// and processing continues asynchronously on Google's side.
type Client struct {
	oauthConfig *oauth2.Config
	httpClient  *http.Client
}

// Config represents YouTube API configuration
type Config struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURL  string `json:"redirect_url"`
}

func NewClient(cfg Config) repository.IPlatformClient {
	return &Client{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				youtubeapi.YoutubeScope,
				youtubeapi.YoutubeUploadScope,
			},
			Endpoint: google.Endpoint,
		},
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*model.TokenSet, error) {
	source := c.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := source.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			// invalid_grant means the refresh token itself was revoked or expired
			if retrieveErr.ErrorCode == "invalid_grant" || (retrieveErr.Response != nil && retrieveErr.Response.StatusCode == http.StatusUnauthorized) {
				return nil, &model.AuthError{Platform: model.PlatformYouTube, Message: retrieveErr.ErrorDescription}
			}
			return nil, &model.PlatformError{Platform: model.PlatformYouTube, Code: retrieveErr.ErrorCode, Message: retrieveErr.ErrorDescription}
		}
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	expiresIn := int64(time.Until(tok.Expiry).Seconds())
	return &model.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken, // usually empty; google does not rotate
		ExpiresIn:    expiresIn,
	}, nil
}

func (c *Client) InitiateUpload(ctx context.Context, accessToken, sourceURL string) (string, error) {
	service, err := c.newService(ctx, accessToken)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create source request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch source video: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &model.PlatformError{Platform: model.PlatformYouTube, Code: fmt.Sprint(resp.StatusCode), Message: "source video not reachable"}
	}

	video := &youtubeapi.Video{
		Snippet: &youtubeapi.VideoSnippet{CategoryId: "22"},
		Status:  &youtubeapi.VideoStatus{PrivacyStatus: "public"},
	}
	inserted, err := service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(resp.Body).
		Context(ctx).
		Do()
	if err != nil {
		return "", mapAPIError(err)
	}
	return inserted.Id, nil
}

func (c *Client) GetPublishStatus(ctx context.Context, accessToken, publishID string) (*dto.PublishStatus, error) {
	service, err := c.newService(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	list, err := service.Videos.List([]string{"processingDetails", "status"}).
		Id(publishID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapAPIError(err)
	}
	if len(list.Items) == 0 {
		return &dto.PublishStatus{State: dto.PublishStateFailed, FailReason: "video not found"}, nil
	}

	item := list.Items[0]
	status := &dto.PublishStatus{}
	var processing string
	if item.ProcessingDetails != nil {
		processing = item.ProcessingDetails.ProcessingStatus
	}
	switch processing {
	case "succeeded":
		status.State = dto.PublishStateComplete
		status.PlatformPostID = publishID
	case "failed", "terminated":
		status.State = dto.PublishStateFailed
		if item.Status != nil && item.Status.FailureReason != "" {
			status.FailReason = item.Status.FailureReason
		} else {
			status.FailReason = processing
		}
	default:
		status.State = dto.PublishStateProcessing
	}
	return status, nil
}

func (c *Client) newService(ctx context.Context, accessToken string) (*youtubeapi.Service, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	service, err := youtubeapi.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return service, nil
}

func mapAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized {
			return &model.AuthError{Platform: model.PlatformYouTube, Message: apiErr.Message}
		}
		return &model.PlatformError{Platform: model.PlatformYouTube, Code: fmt.Sprint(apiErr.Code), Message: apiErr.Message}
	}
	return fmt.Errorf("youtube api call failed: %w", err)
}
