package categorize

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"tumdlr/pkg/tumblr"
)

// Rule is the configuration-derived directory layout, read-only for
// the engine's lifetime.
type Rule struct {
	BasePath       string
	ByUser         bool
	ByPostType     bool
	GroupPhotosets bool
}

// maxCaptionSegment bounds the length of caption-derived directory names
const maxCaptionSegment = 100

// Resolve maps a post and one of its assets to the target file path
// under the rule. It is a pure function: identical inputs always yield
// identical paths, which dedup and resumability rely on. Directory
// creation is the worker's job, immediately before write.
func Resolve(post *tumblr.Post, asset tumblr.Asset, rule Rule) string {
	dir := rule.BasePath

	if rule.ByUser {
		dir = filepath.Join(dir, SanitizeSegment(post.Blog))
	}

	if rule.ByPostType {
		dir = filepath.Join(dir, typeSegment(post.Type))
	}

	if rule.GroupPhotosets && post.IsPhotoset() {
		dir = filepath.Join(dir, photosetSegment(post))
	}

	return filepath.Join(dir, fileName(post, asset))
}

// typeSegment names the per-type directory
func typeSegment(t tumblr.PostType) string {
	switch t {
	case tumblr.PostTypePhoto:
		return "Photos"
	case tumblr.PostTypeVideo:
		return "Videos"
	default:
		return "Posts"
	}
}

// photosetSegment derives the grouping directory from the caption,
// falling back to the post ID when no caption exists.
func photosetSegment(post *tumblr.Post) string {
	caption := SanitizeSegment(post.Caption)
	if caption == "" {
		return fmt.Sprintf("%d", post.ID)
	}
	if len(caption) > maxCaptionSegment {
		cut := maxCaptionSegment
		// back up to a rune boundary so the cut never splits a
		// multi-byte character
		for cut > 0 && !utf8.RuneStart(caption[cut]) {
			cut--
		}
		caption = strings.TrimRight(caption[:cut], " .")
	}
	return caption
}

// fileName derives the final filename from the asset URL, with an
// ordinal suffix separating same-post multi-asset collisions.
func fileName(post *tumblr.Post, asset tumblr.Asset) string {
	base := path.Base(asset.URL)
	if idx := strings.IndexAny(base, "?#"); idx >= 0 {
		base = base[:idx]
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	base = SanitizeSegment(base)
	if base == "" || base == "." || base == "/" {
		base = fmt.Sprintf("%d", post.ID)
	}

	if post.IsPhotoset() {
		return fmt.Sprintf("%s_%02d%s", base, asset.Index+1, asset.Ext)
	}
	return base + asset.Ext
}

// SanitizeSegment strips path-unsafe characters from a directory or
// file name segment. First lines only; captions often span paragraphs.
func SanitizeSegment(s string) string {
	if idx := strings.IndexAny(s, "\r\n"); idx >= 0 {
		s = s[:idx]
	}

	var b strings.Builder
	for _, r := range s {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			// dropped
		default:
			if r >= 0x20 {
				b.WriteRune(r)
			}
		}
	}

	return strings.TrimSpace(b.String())
}
