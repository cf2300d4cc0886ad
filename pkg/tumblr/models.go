package tumblr

import (
	"path"
	"strings"
	"time"
)

// PostType enumerates the post categories the engine distinguishes
type PostType string

const (
	PostTypePhoto   PostType = "photo"
	PostTypeVideo   PostType = "video"
	PostTypeGeneric PostType = "generic"
)

// Post is a single remote entry, immutable once fetched
type Post struct {
	ID        int64
	Blog      string
	Type      PostType
	Caption   string
	Tags      []string
	NoteCount int
	Timestamp time.Time
	Assets    []Asset
}

// IsPhotoset reports whether the post carries more than one asset
func (p *Post) IsPhotoset() bool {
	return len(p.Assets) > 1
}

// Asset is one downloadable unit within a post
type Asset struct {
	URL    string
	Ext    string
	Size   int64
	PostID int64
	Index  int // position within the post, 0-based
}

// ContentID returns the stable content identifier used for dedup.
// The remote URL is stable per asset and survives post edits.
func (a Asset) ContentID() string {
	return a.URL
}

// APIResponse represents the top-level response from the Tumblr API
type APIResponse struct {
	Meta     Meta     `json:"meta"`
	Response Response `json:"response"`
}

// Meta carries the API status envelope
type Meta struct {
	Status  int    `json:"status"`
	Message string `json:"msg"`
}

// Response wraps the blog and post payload
type Response struct {
	Blog       BlogInfo  `json:"blog"`
	Posts      []RawPost `json:"posts"`
	TotalPosts int       `json:"total_posts"`
}

// BlogInfo describes the blog that owns the feed
type BlogInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Posts int    `json:"posts"`
}

// RawPost is a single post as returned by the API
type RawPost struct {
	ID        int64    `json:"id"`
	BlogName  string   `json:"blog_name"`
	Type      string   `json:"type"`
	Timestamp int64    `json:"timestamp"`
	Tags      []string `json:"tags"`
	NoteCount int      `json:"note_count"`
	Caption   string   `json:"caption"`
	Summary   string   `json:"summary"`
	Photos    []RawPhoto `json:"photos,omitempty"`
	VideoURL  string   `json:"video_url,omitempty"`
}

// RawPhoto is one photo entry within a photo or link post
type RawPhoto struct {
	Caption      string   `json:"caption"`
	OriginalSize RawSize  `json:"original_size"`
	AltSizes     []RawSize `json:"alt_sizes"`
}

// RawSize is a single rendition of a photo
type RawSize struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ToPost converts an API post into the engine's domain form.
// Photos use their original size when present, the widest alt size
// otherwise. Link posts carry photo attachments and count as photo
// posts; everything else that is not a video maps to Generic.
func (rp *RawPost) ToPost() *Post {
	post := &Post{
		ID:        rp.ID,
		Blog:      rp.BlogName,
		Tags:      rp.Tags,
		NoteCount: rp.NoteCount,
		Timestamp: time.Unix(rp.Timestamp, 0).UTC(),
	}

	switch rp.Type {
	case "photo", "link":
		post.Type = PostTypePhoto
	case "video":
		post.Type = PostTypeVideo
	default:
		post.Type = PostTypeGeneric
	}

	post.Caption = rp.Caption
	if post.Caption == "" {
		post.Caption = rp.Summary
	}

	for _, photo := range rp.Photos {
		url := photo.OriginalSize.URL
		if url == "" {
			best := RawSize{}
			for _, size := range photo.AltSizes {
				if size.Width > best.Width {
					best = size
				}
			}
			url = best.URL
		}
		if url == "" {
			continue
		}
		post.Assets = append(post.Assets, Asset{
			URL:    url,
			Ext:    inferExtension(url, ".jpg"),
			PostID: rp.ID,
			Index:  len(post.Assets),
		})
	}

	if rp.VideoURL != "" {
		post.Assets = append(post.Assets, Asset{
			URL:    rp.VideoURL,
			Ext:    inferExtension(rp.VideoURL, ".mp4"),
			PostID: rp.ID,
			Index:  len(post.Assets),
		})
	}

	return post
}

// inferExtension extracts the file extension from a URL path, falling
// back to a type-appropriate default when the path carries none.
func inferExtension(url, fallback string) string {
	trimmed := url
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	ext := path.Ext(trimmed)
	if ext == "" || len(ext) > 5 {
		return fallback
	}
	return ext
}
