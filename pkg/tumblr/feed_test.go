package tumblr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedServer serves a fixed post list in API page chunks
func pagedServer(t *testing.T, total int) (*Client, *int32) {
	t.Helper()

	var calls int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)

		offset := 0
		limit := DefaultPageLimit
		fmt.Sscanf(r.URL.Query().Get("offset"), "%d", &offset)
		fmt.Sscanf(r.URL.Query().Get("limit"), "%d", &limit)

		var page []RawPost
		for i := offset; i < total && i < offset+limit; i++ {
			page = append(page, RawPost{
				ID:       int64(i + 1),
				BlogName: "alice",
				Type:     "photo",
				Photos: []RawPhoto{
					{OriginalSize: RawSize{URL: fmt.Sprintf("https://media.example.com/p%d.jpg", i+1)}},
				},
			})
		}

		resp := APIResponse{
			Meta: Meta{Status: 200, Message: "OK"},
			Response: Response{
				Blog:       BlogInfo{Name: "alice"},
				Posts:      page,
				TotalPosts: total,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}

	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)

	client := NewClient(5*time.Second, nil)
	client.SetBaseURL(server.URL)
	return client, &calls
}

func TestFeedWalksAllPages(t *testing.T) {
	const total = 45 // three pages at the default limit
	client, calls := pagedServer(t, total)

	feed := NewFeed(client, "alice")
	assert.Equal(t, "alice", feed.Blog())
	assert.Equal(t, -1, feed.TotalPosts())

	var ids []int64
	for {
		post, err := feed.Next(context.Background())
		if err == ErrEndOfFeed {
			break
		}
		require.NoError(t, err)
		ids = append(ids, post.ID)
	}

	require.Len(t, ids, total)
	assert.Equal(t, int64(1), ids[0])
	assert.Equal(t, int64(total), ids[total-1])
	assert.Equal(t, total, feed.TotalPosts())
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestFeedEmptyBlog(t *testing.T) {
	client, _ := pagedServer(t, 0)

	feed := NewFeed(client, "alice")
	_, err := feed.Next(context.Background())
	assert.Equal(t, ErrEndOfFeed, err)
}

func TestFeedEndIsSticky(t *testing.T) {
	client, calls := pagedServer(t, 1)

	feed := NewFeed(client, "alice")
	_, err := feed.Next(context.Background())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := feed.Next(context.Background())
		assert.Equal(t, ErrEndOfFeed, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "exhausted feed must not refetch")
}

func TestFeedNormalizesBlogName(t *testing.T) {
	client, _ := pagedServer(t, 0)
	feed := NewFeed(client, "https://alice.tumblr.com/")
	assert.Equal(t, "alice.tumblr.com", feed.Blog())
}

func TestFeedFillsBlankBlogName(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		resp := APIResponse{
			Meta: Meta{Status: 200},
			Response: Response{
				Posts:      []RawPost{{ID: 1, Type: "photo"}},
				TotalPosts: 1,
			},
		}
		json.NewEncoder(w).Encode(resp)
	}
	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)

	client := NewClient(5*time.Second, nil)
	client.SetBaseURL(server.URL)

	feed := NewFeed(client, "alice")
	post, err := feed.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", post.Blog)
}
