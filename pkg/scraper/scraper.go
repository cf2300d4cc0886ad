package scraper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"tumdlr/internal/downloader"
	"tumdlr/pkg/categorize"
	"tumdlr/pkg/config"
	"tumdlr/pkg/ledger"
	"tumdlr/pkg/logger"
	"tumdlr/pkg/metadata"
	"tumdlr/pkg/storage"
	"tumdlr/pkg/throttle"
	"tumdlr/pkg/tumblr"
)

// Failure describes one asset that could not be downloaded
type Failure struct {
	ContentID string
	PostID    int64
	Path      string
	Err       string
}

// Summary is the final tally for a run
type Summary struct {
	Blog       string
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
	Elapsed    time.Duration
	Failures   []Failure
}

// Scraper coordinates feed enumeration, admission, and the download
// worker pool for one or more blogs
type Scraper struct {
	cfg      *config.Config
	client   *tumblr.Client
	fetcher  downloader.MediaFetcher
	storage  downloader.MediaStorage
	throttle downloader.Throttler
	logger   logger.Logger
}

// New creates a scraper with the full production wiring
func New(cfg *config.Config) (*Scraper, error) {
	log := logger.GetLogger()

	store, err := storage.NewManager(cfg.Tumdlr.SavePath)
	if err != nil {
		return nil, err
	}

	throttler, err := throttle.New(cfg.Throttle)
	if err != nil {
		return nil, err
	}

	client := tumblr.NewClient(cfg.Download.Timeout.Duration(), log)

	return &Scraper{
		cfg:      cfg,
		client:   client,
		fetcher:  client,
		storage:  store,
		throttle: throttler,
		logger:   log,
	}, nil
}

// Client exposes the API client so callers can attach credentials
func (s *Scraper) Client() *tumblr.Client {
	return s.client
}

// DownloadBlog walks a blog's feed and downloads every admissible
// asset. The returned summary is valid even when err is non-nil: an
// aborted enumeration still drains the pool and tallies what happened.
func (s *Scraper) DownloadBlog(ctx context.Context, blog string) (*Summary, error) {
	blog = tumblr.NormalizeBlogName(blog)
	if !tumblr.IsValidBlogName(blog) {
		return &Summary{Blog: blog}, fmt.Errorf("invalid blog name: %q", blog)
	}

	led, err := ledger.Open(blog, s.cfg.Download.MaxAttempts)
	if err != nil {
		return &Summary{Blog: blog}, err
	}

	blogDir := s.cfg.Tumdlr.SavePath
	if s.cfg.Categorization.ByUser {
		blogDir = filepath.Join(blogDir, categorize.SanitizeSegment(blog))
	}
	recorder, err := metadata.NewRecorder(blogDir, blog)
	if err != nil {
		return &Summary{Blog: blog}, err
	}

	feed := tumblr.NewFeed(s.client, blog)
	return s.run(ctx, feed, led, recorder, blogDir)
}

// run drives one enumeration against one ledger. Split from
// DownloadBlog so tests can inject sources and ledgers.
func (s *Scraper) run(ctx context.Context, source PostSource, led AdmissionLedger, recorder *metadata.Recorder, blogDir string) (*Summary, error) {
	blog := source.Blog()
	start := time.Now()
	summary := &Summary{Blog: blog}

	s.logger.InfoWithFields("Starting blog download", map[string]interface{}{
		"blog":    blog,
		"workers": s.cfg.Download.Workers,
	})

	pool := downloader.NewWorkerPool(
		ctx,
		s.cfg.Download.Workers,
		s.cfg.EffectiveQueueSize(),
		s.fetcher,
		s.storage,
		led,
		s.throttle,
		s.logger,
	)
	pool.Start()

	// posts indexed by content ID so the result consumer can attach
	// metadata for completed files
	var postsMu sync.Mutex
	postsByContent := make(map[string]*tumblr.Post)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for result := range pool.Results() {
			if result.Success {
				summary.Downloaded++
				summary.Bytes += result.Bytes
				logger.LogDownload(blog, result.Task.ContentID, string(result.Task.Kind), true, nil)
				if recorder != nil {
					postsMu.Lock()
					post := postsByContent[result.Task.ContentID]
					postsMu.Unlock()
					if post != nil {
						recorder.Record(post, relativeTo(blogDir, result.Task.TargetPath))
					}
				}
			} else {
				summary.Failed++
				summary.Failures = append(summary.Failures, Failure{
					ContentID: result.Task.ContentID,
					PostID:    result.Task.PostID,
					Path:      result.Task.TargetPath,
					Err:       result.Error.Error(),
				})
				logger.LogDownload(blog, result.Task.ContentID, string(result.Task.Kind), false, result.Error)
			}
		}
	}()

	rule := categorize.Rule{
		BasePath:       s.cfg.Tumdlr.SavePath,
		ByUser:         s.cfg.Categorization.ByUser,
		ByPostType:     s.cfg.Categorization.ByPostType,
		GroupPhotosets: s.cfg.Categorization.GroupPhotosets,
	}

	enumErr := s.enumerate(ctx, source, led, pool, rule, summary, &postsMu, postsByContent)

	pool.Stop()
	<-done

	if recorder != nil {
		if err := recorder.Flush(); err != nil {
			s.logger.ErrorWithFields("Failed to write metadata index", map[string]interface{}{
				"blog":  blog,
				"error": err.Error(),
			})
		}
	}

	summary.Elapsed = time.Since(start)
	s.logger.InfoWithFields("Blog download finished", map[string]interface{}{
		"blog":       blog,
		"downloaded": summary.Downloaded,
		"skipped":    summary.Skipped,
		"failed":     summary.Failed,
		"elapsed":    summary.Elapsed,
	})

	return summary, enumErr
}

// enumerate walks the feed, admits assets through the ledger, and
// submits tasks. It returns early on context cancellation or a page
// fetch failure; already submitted tasks still drain.
func (s *Scraper) enumerate(
	ctx context.Context,
	source PostSource,
	led AdmissionLedger,
	pool *downloader.WorkerPool,
	rule categorize.Rule,
	summary *Summary,
	postsMu *sync.Mutex,
	postsByContent map[string]*tumblr.Post,
) error {
	seen := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		post, err := source.Next(ctx)
		if errors.Is(err, tumblr.ErrEndOfFeed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("feed enumeration failed: %w", err)
		}

		seen++
		if seen%50 == 0 {
			logger.LogScrapeProgress(source.Blog(), seen, totalFor(source))
		}

		if !s.wantPost(post) {
			continue
		}

		for _, asset := range post.Assets {
			contentID := asset.ContentID()

			switch led.Claim(contentID) {
			case ledger.Admit:
				targetPath := categorize.Resolve(post, asset, rule)

				postsMu.Lock()
				postsByContent[contentID] = post
				postsMu.Unlock()

				task := downloader.Task{
					Asset:      asset,
					ContentID:  contentID,
					TargetPath: targetPath,
					Blog:       post.Blog,
					PostID:     post.ID,
					Kind:       post.Type,
				}
				if err := pool.Submit(task); err != nil {
					led.Release(contentID)
					return err
				}
			case ledger.SkipPermanentFailure:
				summary.Skipped++
				s.logger.WarnWithFields("Skipping asset, attempt ceiling reached", map[string]interface{}{
					"content_id": contentID,
					"blog":       post.Blog,
				})
			default:
				summary.Skipped++
			}
		}
	}
}

// wantPost applies the content type toggles
func (s *Scraper) wantPost(post *tumblr.Post) bool {
	switch post.Type {
	case tumblr.PostTypePhoto:
		return s.cfg.Tumdlr.SavePhotos
	case tumblr.PostTypeVideo:
		return s.cfg.Tumdlr.SaveVideos
	default:
		return s.cfg.Tumdlr.SaveGeneric
	}
}

func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}

func totalFor(source PostSource) int {
	type totaler interface {
		TotalPosts() int
	}
	if t, ok := source.(totaler); ok {
		return t.TotalPosts()
	}
	return -1
}
