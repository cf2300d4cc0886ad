package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"tumdlr/pkg/tumblr"
)

// PostRecord captures the post context a downloaded file came from
type PostRecord struct {
	// Core identifiers
	ID   int64  `json:"id"`
	Blog string `json:"blog"`
	Type string `json:"type"`

	// Content
	Caption string   `json:"caption,omitempty"`
	Tags    []string `json:"tags,omitempty"`

	// Engagement
	NoteCount int `json:"note_count"`

	// Timestamps
	PostedAt     time.Time `json:"posted_at"`
	DownloadedAt time.Time `json:"downloaded_at"`

	// Saved files, relative to the blog directory where possible
	Files []string `json:"files,omitempty"`
}

// Index is the per-blog metadata document, saved as metadata.json next
// to the downloaded files
type Index struct {
	Blog      string                `json:"blog"`
	UpdatedAt time.Time             `json:"updated_at"`
	Posts     map[string]*PostRecord `json:"posts"`
}

// FromPost converts an API post to a metadata record
func FromPost(post *tumblr.Post) *PostRecord {
	return &PostRecord{
		ID:           post.ID,
		Blog:         post.Blog,
		Type:         string(post.Type),
		Caption:      post.Caption,
		Tags:         post.Tags,
		NoteCount:    post.NoteCount,
		PostedAt:     post.Timestamp,
		DownloadedAt: time.Now(),
	}
}

// Recorder accumulates post records during a run and writes the blog's
// metadata.json. Safe for use from the result-processing goroutine.
type Recorder struct {
	path string

	mu    sync.Mutex
	index *Index
}

// NewRecorder opens or creates the metadata index for a blog directory
func NewRecorder(blogDir, blog string) (*Recorder, error) {
	path := filepath.Join(blogDir, "metadata.json")
	index := &Index{
		Blog:  blog,
		Posts: make(map[string]*PostRecord),
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, index); err != nil {
			return nil, fmt.Errorf("failed to parse existing metadata index: %w", err)
		}
		if index.Posts == nil {
			index.Posts = make(map[string]*PostRecord)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read metadata index: %w", err)
	}

	return &Recorder{path: path, index: index}, nil
}

// Record adds or updates the entry for a post, appending the saved file
func (r *Recorder) Record(post *tumblr.Post, file string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%d", post.ID)
	record, ok := r.index.Posts[key]
	if !ok {
		record = FromPost(post)
		r.index.Posts[key] = record
	}

	for _, existing := range record.Files {
		if existing == file {
			return
		}
	}
	record.Files = append(record.Files, file)
	sort.Strings(record.Files)
}

// Count returns the number of recorded posts
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.index.Posts)
}

// Flush writes the index to disk
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(r.index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata index: %w", err)
	}

	return nil
}
