package tumblr

import (
	"strings"
	"testing"
)

func TestBlogHostname(t *testing.T) {
	tests := []struct {
		blog string
		want string
	}{
		{"alice", "alice.tumblr.com"},
		{"alice.tumblr.com", "alice.tumblr.com"},
		{"photos.example.com", "photos.example.com"},
	}
	for _, tt := range tests {
		if got := BlogHostname(tt.blog); got != tt.want {
			t.Errorf("BlogHostname(%q) = %q, want %q", tt.blog, got, tt.want)
		}
	}
}

func TestNormalizeBlogName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"alice", "alice"},
		{"@alice", "alice"},
		{"https://alice.tumblr.com", "alice.tumblr.com"},
		{"http://alice.tumblr.com/", "alice.tumblr.com"},
		{"alice.tumblr.com/archive", "alice.tumblr.com"},
		{"  alice  ", "alice"},
	}
	for _, tt := range tests {
		if got := NormalizeBlogName(tt.input); got != tt.want {
			t.Errorf("NormalizeBlogName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestGetPostsPath(t *testing.T) {
	path := GetPostsPath("alice", 40, 20)
	if !strings.HasPrefix(path, "/v2/blog/alice.tumblr.com/posts?") {
		t.Errorf("GetPostsPath() = %q, want posts endpoint prefix", path)
	}
	if !strings.Contains(path, "offset=40") || !strings.Contains(path, "limit=20") {
		t.Errorf("GetPostsPath() = %q, want offset and limit params", path)
	}
}

func TestGetPostsPathClampsLimit(t *testing.T) {
	if path := GetPostsPath("alice", 0, 500); !strings.Contains(path, "limit=50") {
		t.Errorf("GetPostsPath(limit=500) = %q, want clamped to %d", path, MaxPageLimit)
	}
	if path := GetPostsPath("alice", -5, 0); !strings.Contains(path, "offset=0") || !strings.Contains(path, "limit=20") {
		t.Errorf("GetPostsPath(offset=-5, limit=0) = %q, want defaults", path)
	}
}

func TestGetPostsURLCarriesAPIHost(t *testing.T) {
	url := GetPostsURL("alice", 0)
	if !strings.HasPrefix(url, BaseURL) {
		t.Errorf("GetPostsURL() = %q, want %s prefix", url, BaseURL)
	}
}

func TestIsValidBlogName(t *testing.T) {
	valid := []string{"alice", "alice-b", "alice.tumblr.com", "a1b2"}
	for _, blog := range valid {
		if !IsValidBlogName(blog) {
			t.Errorf("IsValidBlogName(%q) = false, want true", blog)
		}
	}
	invalid := []string{"", "has space", "bad/name"}
	for _, blog := range invalid {
		if IsValidBlogName(blog) {
			t.Errorf("IsValidBlogName(%q) = true, want false", blog)
		}
	}
}
