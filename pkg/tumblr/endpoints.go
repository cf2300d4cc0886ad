package tumblr

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for the Tumblr API
	BaseURL = "https://api.tumblr.com"

	// PostsEndpoint is the endpoint pattern for a blog's post feed
	PostsEndpoint = "/v2/blog/%s/posts"

	// DefaultPageLimit is the default number of posts fetched per request
	DefaultPageLimit = 20

	// MaxPageLimit is the maximum number of posts the API serves per request
	MaxPageLimit = 50
)

// GetPostsURL constructs the URL for fetching a page of a blog's posts
func GetPostsURL(blog string, offset int) string {
	return GetPostsURLWithLimit(blog, offset, DefaultPageLimit)
}

// GetPostsURLWithLimit constructs the posts URL with a custom page size
func GetPostsURLWithLimit(blog string, offset int, limit int) string {
	return BaseURL + GetPostsPath(blog, offset, limit)
}

// GetPostsPath constructs the posts request path and query without the
// API host, so clients can target alternate hosts.
func GetPostsPath(blog string, offset int, limit int) string {
	if limit <= 0 {
		limit = DefaultPageLimit
	} else if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	params := url.Values{}
	params.Set("offset", fmt.Sprintf("%d", offset))
	params.Set("limit", fmt.Sprintf("%d", limit))

	endpoint := fmt.Sprintf(PostsEndpoint, BlogHostname(blog))
	return fmt.Sprintf("%s?%s", endpoint, params.Encode())
}

// BlogHostname returns the fully qualified blog identifier the API
// expects. Bare names get the tumblr.com suffix; custom domains and
// already-qualified names pass through.
func BlogHostname(blog string) string {
	blog = NormalizeBlogName(blog)
	if strings.Contains(blog, ".") {
		return blog
	}
	return blog + ".tumblr.com"
}

// NormalizeBlogName strips decorations users paste in: scheme, leading
// at-sign, trailing slashes and whitespace.
func NormalizeBlogName(blog string) string {
	blog = strings.TrimSpace(blog)
	blog = strings.TrimPrefix(blog, "https://")
	blog = strings.TrimPrefix(blog, "http://")
	blog = strings.TrimPrefix(blog, "@")
	blog = strings.TrimSuffix(blog, "/")
	if idx := strings.Index(blog, "/"); idx >= 0 {
		blog = blog[:idx]
	}
	return blog
}

// IsValidBlogName checks if a blog name is plausible: letters, digits,
// hyphens and dots only, and not empty.
func IsValidBlogName(blog string) bool {
	if blog == "" || len(blog) > 64 {
		return false
	}

	for _, char := range blog {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '-' || char == '.') {
			return false
		}
	}

	return true
}
