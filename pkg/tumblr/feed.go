package tumblr

import (
	"context"
	"errors"
)

// ErrEndOfFeed signals that the blog's post feed is exhausted
var ErrEndOfFeed = errors.New("end of feed")

// Feed is a pull-based iterator over a blog's posts. The consumer
// drives it at its own pace, one Next call at a time, which lets the
// orchestrator apply backpressure through its bounded task queue.
type Feed struct {
	client   *Client
	blog     string
	pageSize int

	offset  int
	total   int
	buffer  []*Post
	drained bool
}

// NewFeed creates a feed over the given blog's posts
func NewFeed(client *Client, blog string) *Feed {
	return &Feed{
		client:   client,
		blog:     NormalizeBlogName(blog),
		pageSize: DefaultPageLimit,
		total:    -1,
	}
}

// Blog returns the normalized blog name the feed walks
func (f *Feed) Blog() string {
	return f.blog
}

// TotalPosts returns the total post count reported by the API, or -1
// before the first page has been fetched.
func (f *Feed) TotalPosts() int {
	return f.total
}

// Next returns the next post in the feed. It fetches a new page when
// the buffered one is consumed and returns ErrEndOfFeed once the feed
// is exhausted.
func (f *Feed) Next(ctx context.Context) (*Post, error) {
	if len(f.buffer) == 0 {
		if f.drained {
			return nil, ErrEndOfFeed
		}
		if err := f.fetchPage(ctx); err != nil {
			return nil, err
		}
		if len(f.buffer) == 0 {
			f.drained = true
			return nil, ErrEndOfFeed
		}
	}

	post := f.buffer[0]
	f.buffer = f.buffer[1:]
	return post, nil
}

// fetchPage pulls the next page into the buffer
func (f *Feed) fetchPage(ctx context.Context) error {
	resp, err := f.client.FetchPosts(ctx, f.blog, f.offset, f.pageSize)
	if err != nil {
		return err
	}

	f.total = resp.Response.TotalPosts
	f.offset += len(resp.Response.Posts)

	for i := range resp.Response.Posts {
		post := resp.Response.Posts[i].ToPost()
		if post.Blog == "" {
			post.Blog = f.blog
		}
		f.buffer = append(f.buffer, post)
	}

	if len(resp.Response.Posts) < f.pageSize || (f.total >= 0 && f.offset >= f.total) {
		f.drained = true
	}

	return nil
}
