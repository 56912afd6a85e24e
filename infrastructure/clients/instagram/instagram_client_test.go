package instagram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crosspost/domain/dto"
	"crosspost/domain/model"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(Config{BaseURL: srv.URL}).(*Client)
	return c, srv
}

func TestClient_RefreshAccessToken_NoRotation(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/refresh_access_token", r.URL.Path)
		assert.Equal(t, "ig_refresh_token", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "long-lived-1", r.URL.Query().Get("access_token"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "long-lived-2",
			"expires_in":   5183944,
		})
	}))
	defer srv.Close()

	ts, err := c.RefreshAccessToken(context.Background(), "long-lived-1")
	require.NoError(t, err)
	assert.Equal(t, "long-lived-2", ts.AccessToken)
	assert.Empty(t, ts.RefreshToken, "long-lived tokens are refreshed in place, never rotated")
	assert.EqualValues(t, 5183944, ts.ExpiresIn)
}

func TestClient_RefreshAccessToken_ExpiredToken(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"message": "Error validating access token",
				"type":    "OAuthException",
				"code":    190,
			},
		})
	}))
	defer srv.Close()

	_, err := c.RefreshAccessToken(context.Background(), "expired")
	require.Error(t, err)
	assert.True(t, model.IsAuthError(err))
}

func TestClient_InitiateUpload(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/media", r.URL.Path)
		assert.Equal(t, "REELS", r.URL.Query().Get("media_type"))
		assert.Equal(t, "https://signed.example/v.mp4", r.URL.Query().Get("video_url"))
		json.NewEncoder(w).Encode(map[string]string{"id": "container-1"})
	}))
	defer srv.Close()

	containerID, err := c.InitiateUpload(context.Background(), "token-1", "https://signed.example/v.mp4")
	require.NoError(t, err)
	assert.Equal(t, "container-1", containerID)
}

func TestClient_GetPublishStatus(t *testing.T) {
	t.Run("in_progress", func(t *testing.T) {
		c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/container-1", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]string{"status_code": "IN_PROGRESS"})
		}))
		defer srv.Close()

		status, err := c.GetPublishStatus(context.Background(), "token-1", "container-1")
		require.NoError(t, err)
		assert.Equal(t, dto.PublishStateProcessing, status.State)
	})

	t.Run("finished_triggers_publish", func(t *testing.T) {
		c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/container-1":
				json.NewEncoder(w).Encode(map[string]string{"status_code": "FINISHED"})
			case "/me/media_publish":
				assert.Equal(t, "container-1", r.URL.Query().Get("creation_id"))
				json.NewEncoder(w).Encode(map[string]string{"id": "media-9"})
			default:
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
		}))
		defer srv.Close()

		status, err := c.GetPublishStatus(context.Background(), "token-1", "container-1")
		require.NoError(t, err)
		assert.Equal(t, dto.PublishStateComplete, status.State)
		assert.Equal(t, "media-9", status.PlatformPostID)
	})

	t.Run("error_is_terminal", func(t *testing.T) {
		c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"status_code": "ERROR", "status": "Media upload failed"})
		}))
		defer srv.Close()

		status, err := c.GetPublishStatus(context.Background(), "token-1", "container-1")
		require.NoError(t, err)
		assert.Equal(t, dto.PublishStateFailed, status.State)
		assert.Equal(t, "Media upload failed", status.FailReason)
	})
}
