package tumblr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tumdlr/pkg/auth"
	"tumdlr/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServerClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(5*time.Second, nil)
	client.SetBaseURL(server.URL)
	return client, server
}

func TestFetchStreamsBody(t *testing.T) {
	client, server := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("media payload"))
	})

	body, size, err := client.Fetch(context.Background(), server.URL+"/media/a.jpg")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "media payload", string(data))
	assert.Equal(t, int64(len("media payload")), size)
}

func TestFetchStatusMapping(t *testing.T) {
	tests := []struct {
		status   int
		wantType errors.ErrorType
	}{
		{http.StatusUnauthorized, errors.ErrorTypeAuth},
		{http.StatusForbidden, errors.ErrorTypeAuth},
		{http.StatusNotFound, errors.ErrorTypeNotFound},
		{http.StatusTooManyRequests, errors.ErrorTypeRateLimit},
		{http.StatusInternalServerError, errors.ErrorTypeServerError},
		{http.StatusBadGateway, errors.ErrorTypeServerError},
	}

	for _, tt := range tests {
		client, server := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})

		_, _, err := client.Fetch(context.Background(), server.URL+"/media/a.jpg")
		require.Error(t, err, "status %d", tt.status)

		typed, ok := err.(*errors.Error)
		require.True(t, ok, "status %d should yield a typed error, got %T", tt.status, err)
		assert.Equal(t, tt.wantType, typed.Type, "status %d", tt.status)
		assert.Equal(t, tt.status, typed.Code, "status %d", tt.status)
	}
}

func TestFetchSendsClientHeaders(t *testing.T) {
	var gotUA string
	client, server := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	})
	client.SetHeader("User-Agent", "custom-agent/1.0")

	body, _, err := client.Fetch(context.Background(), server.URL+"/media/a.jpg")
	require.NoError(t, err)
	body.Close()

	assert.Equal(t, "custom-agent/1.0", gotUA)
}

func TestAccountAttachesBasicAuth(t *testing.T) {
	var gotUser, gotPass string
	var gotOK bool
	client, server := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, gotOK = r.BasicAuth()
		w.Write([]byte("ok"))
	})
	client.SetAccount(&auth.Account{Email: "user@example.com", Password: "secret"})

	body, _, err := client.Fetch(context.Background(), server.URL+"/media/a.jpg")
	require.NoError(t, err)
	body.Close()

	require.True(t, gotOK, "request should carry basic auth")
	assert.Equal(t, "user@example.com", gotUser)
	assert.Equal(t, "secret", gotPass)
}

func TestFetchPostsDecodesResponse(t *testing.T) {
	payload := APIResponse{
		Meta: Meta{Status: 200, Message: "OK"},
		Response: Response{
			Blog:       BlogInfo{Name: "alice"},
			TotalPosts: 2,
			Posts: []RawPost{
				{ID: 1, BlogName: "alice", Type: "photo"},
				{ID: 2, BlogName: "alice", Type: "video", VideoURL: "https://vt.example.com/v.mp4"},
			},
		},
	}

	var gotPath string
	client, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	})

	resp, err := client.FetchPosts(context.Background(), "alice", 0, 20)
	require.NoError(t, err)

	assert.Equal(t, "/v2/blog/alice.tumblr.com/posts", gotPath)
	assert.Equal(t, 2, resp.Response.TotalPosts)
	require.Len(t, resp.Response.Posts, 2)
	assert.Equal(t, int64(1), resp.Response.Posts[0].ID)
}

func TestFetchPostsNotFound(t *testing.T) {
	client, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchPosts(context.Background(), "nosuchblog", 0, 20)
	require.Error(t, err)

	typed, ok := err.(*errors.Error)
	require.True(t, ok, "got %T", err)
	assert.Equal(t, errors.ErrorTypeNotFound, typed.Type)
}
