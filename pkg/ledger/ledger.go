package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"tumdlr/pkg/logger"
)

// Status is the lifecycle state of a ledger entry
type Status string

const (
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Outcome is the terminal result a worker reports for a task
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomeFailed   Outcome = "failed"
)

// Decision is the result of an admission check
type Decision int

const (
	// Admit means the asset should be downloaded; a Pending claim was recorded
	Admit Decision = iota
	// SkipComplete means a Complete entry exists and its file is still on disk
	SkipComplete
	// SkipClaimed means another task already claimed this content in this run
	SkipClaimed
	// SkipPermanentFailure means the attempt ceiling was reached
	SkipPermanentFailure
)

// Entry is the persisted record for one content identifier
type Entry struct {
	Status      Status    `json:"status"`
	Attempts    int       `json:"attempts"`
	LastAttempt time.Time `json:"last_attempt"`
	Path        string    `json:"path,omitempty"`
}

// document is the on-disk ledger layout, one file per blog
type document struct {
	Blog      string            `json:"blog"`
	Entries   map[string]*Entry `json:"entries"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Version   int               `json:"version"`
}

// Ledger tracks which remote assets have been fully retrieved. Entries
// key on the asset's content identifier; at most one exists per ID and
// Complete entries never reverse. Admission is linearized: two claims
// for the same content identifier are never both admitted.
type Ledger struct {
	path        string
	maxAttempts int
	logger      logger.Logger

	mu  sync.Mutex
	doc *document
}

// Open loads or creates the ledger for a blog under the platform data
// directory.
func Open(blog string, maxAttempts int) (*Ledger, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}

	ledgersDir := filepath.Join(dataDir, "ledgers")
	if err := os.MkdirAll(ledgersDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledgers directory: %w", err)
	}

	path := filepath.Join(ledgersDir, fmt.Sprintf("%s.ledger.json", blog))
	return OpenFile(path, blog, maxAttempts)
}

// OpenFile loads or creates a ledger at an explicit path
func OpenFile(path, blog string, maxAttempts int) (*Ledger, error) {
	l := &Ledger{
		path:        path,
		maxAttempts: maxAttempts,
		logger:      logger.GetLogger(),
	}

	if err := l.load(blog); err != nil {
		return nil, err
	}

	return l, nil
}

// load reads the persisted document, creating a fresh one when none
// exists. Pending entries left behind by a crashed run are demoted to
// Failed so the next run retries them.
func (l *Ledger) load(blog string) error {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.doc = &document{
				Blog:      blog,
				Entries:   make(map[string]*Entry),
				CreatedAt: time.Now(),
				Version:   1,
			}
			return nil
		}
		return fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer file.Close()

	var doc document
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode ledger: %w", err)
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string]*Entry)
	}

	demoted := 0
	for _, entry := range doc.Entries {
		if entry.Status == StatusPending {
			entry.Status = StatusFailed
			demoted++
		}
	}
	if demoted > 0 {
		l.logger.WarnWithFields("demoted stale pending entries from interrupted run", map[string]interface{}{
			"blog":  doc.Blog,
			"count": demoted,
		})
	}

	l.doc = &doc
	return nil
}

// Claim performs the admission check for a content identifier and, when
// the asset should be downloaded, records the Pending claim before
// returning. Complete entries self-heal: a recorded file that vanished
// from disk re-admits the asset rather than trusting stale state.
func (l *Ledger) Claim(contentID string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.doc.Entries[contentID]
	if !ok {
		l.doc.Entries[contentID] = &Entry{
			Status:      StatusPending,
			LastAttempt: time.Now(),
		}
		l.persist()
		return Admit
	}

	switch entry.Status {
	case StatusPending:
		return SkipClaimed
	case StatusComplete:
		if entry.Path != "" {
			if _, err := os.Stat(entry.Path); err == nil {
				return SkipComplete
			}
		}
		l.logger.WarnWithFields("complete entry lost its file, re-admitting", map[string]interface{}{
			"content_id": contentID,
			"path":       entry.Path,
		})
		entry.Status = StatusPending
		entry.Path = ""
		entry.LastAttempt = time.Now()
		l.persist()
		return Admit
	case StatusFailed:
		if l.maxAttempts > 0 && entry.Attempts >= l.maxAttempts {
			return SkipPermanentFailure
		}
		entry.Status = StatusPending
		entry.LastAttempt = time.Now()
		l.persist()
		return Admit
	default:
		return SkipClaimed
	}
}

// Record stores the terminal outcome for a claimed content identifier.
// Complete entries never reverse to Failed.
func (l *Ledger) Record(contentID string, outcome Outcome, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.doc.Entries[contentID]
	if !ok {
		entry = &Entry{}
		l.doc.Entries[contentID] = entry
	}

	if entry.Status == StatusComplete {
		return nil
	}

	entry.LastAttempt = time.Now()
	switch outcome {
	case OutcomeComplete:
		entry.Status = StatusComplete
		entry.Path = path
	case OutcomeFailed:
		entry.Status = StatusFailed
		entry.Attempts++
	}

	return l.save()
}

// Release drops a Pending claim without counting an attempt, used when
// a claimed task is abandoned before dispatch (cancellation).
func (l *Ledger) Release(contentID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.doc.Entries[contentID]; ok && entry.Status == StatusPending {
		if entry.Attempts == 0 && entry.Path == "" {
			delete(l.doc.Entries, contentID)
		} else {
			entry.Status = StatusFailed
		}
		l.persist()
	}
}

// persist saves and logs rather than propagating, for paths where the
// admission result matters more than the write
func (l *Ledger) persist() {
	if err := l.save(); err != nil {
		l.logger.ErrorWithFields("failed to persist ledger", map[string]interface{}{
			"blog":  l.doc.Blog,
			"error": err.Error(),
		})
	}
}

// CompleteCount returns the number of Complete entries
func (l *Ledger) CompleteCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, entry := range l.doc.Entries {
		if entry.Status == StatusComplete {
			count++
		}
	}
	return count
}

// PermanentFailures returns the content identifiers whose attempt
// ceiling was reached; they are reported, not retried.
func (l *Ledger) PermanentFailures() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var ids []string
	for id, entry := range l.doc.Entries {
		if entry.Status == StatusFailed && l.maxAttempts > 0 && entry.Attempts >= l.maxAttempts {
			ids = append(ids, id)
		}
	}
	return ids
}

// save writes the document atomically: temp file, fsync, rename.
// Callers hold the mutex.
func (l *Ledger) save() error {
	l.doc.UpdatedAt = time.Now()

	tempPath := l.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary ledger file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(l.doc); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync ledger file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close ledger file: %w", err)
	}

	if err := os.Rename(tempPath, l.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}

	return nil
}

// getDataDirectory returns the appropriate data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "tumdlr")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "tumdlr")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "tumdlr")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "tumdlr")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
