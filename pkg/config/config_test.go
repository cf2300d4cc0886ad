package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if !config.Throttle.Enabled {
		t.Error("Expected throttling to be enabled by default")
	}
	if config.Throttle.MinDelayMs != 300 || config.Throttle.MaxDelayMs != 1500 {
		t.Errorf("Expected default throttle bounds 300..1500ms, got %d..%d",
			config.Throttle.MinDelayMs, config.Throttle.MaxDelayMs)
	}

	if config.Download.Workers != 3 {
		t.Errorf("Expected default workers to be 3, got %d", config.Download.Workers)
	}
	if config.Download.MaxAttempts != 3 {
		t.Errorf("Expected default max attempts to be 3, got %d", config.Download.MaxAttempts)
	}

	if !config.Tumdlr.SavePhotos || !config.Tumdlr.SaveVideos || !config.Tumdlr.SaveGeneric {
		t.Error("Expected all content types to be saved by default")
	}
	if !config.Categorization.ByUser || !config.Categorization.ByPostType || !config.Categorization.GroupPhotosets {
		t.Error("Expected all categorization rules to be enabled by default")
	}
}

func TestEffectiveQueueSize(t *testing.T) {
	config := DefaultConfig()

	config.Download.Workers = 4
	config.Download.QueueSize = 0
	if got := config.EffectiveQueueSize(); got != 8 {
		t.Errorf("Expected derived queue size 8, got %d", got)
	}

	config.Download.QueueSize = 32
	if got := config.EffectiveQueueSize(); got != 32 {
		t.Errorf("Expected explicit queue size 32, got %d", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("TUMDLR_SAVE_PATH", "/tmp/test-tumblr")
	os.Setenv("TUMDLR_WORKERS", "5")
	os.Setenv("TUMDLR_THROTTLE_MIN_MS", "100")
	os.Setenv("TUMDLR_THROTTLE_MAX_MS", "200")
	os.Setenv("TUMDLR_AUTH_EMAIL", "user@example.com")
	os.Setenv("TUMDLR_LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("TUMDLR_SAVE_PATH")
		os.Unsetenv("TUMDLR_WORKERS")
		os.Unsetenv("TUMDLR_THROTTLE_MIN_MS")
		os.Unsetenv("TUMDLR_THROTTLE_MAX_MS")
		os.Unsetenv("TUMDLR_AUTH_EMAIL")
		os.Unsetenv("TUMDLR_LOG_LEVEL")
	}()

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if config.Tumdlr.SavePath != "/tmp/test-tumblr" {
		t.Errorf("Expected save path /tmp/test-tumblr, got %s", config.Tumdlr.SavePath)
	}
	if config.Download.Workers != 5 {
		t.Errorf("Expected 5 workers, got %d", config.Download.Workers)
	}
	if config.Throttle.MinDelayMs != 100 || config.Throttle.MaxDelayMs != 200 {
		t.Errorf("Expected throttle bounds 100..200ms, got %d..%d",
			config.Throttle.MinDelayMs, config.Throttle.MaxDelayMs)
	}
	if config.Auth.Email != "user@example.com" {
		t.Errorf("Expected auth email from env, got %s", config.Auth.Email)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
tumdlr:
  save_path: /data/tumblr
  save_generic: false
throttle:
  enabled: true
  min_delay_ms: 500
  max_delay_ms: 2000
categorization:
  by_user: true
  by_post_type: false
download:
  workers: 2
  max_attempts: 5
  timeout: 45s
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if config.Tumdlr.SavePath != "/data/tumblr" {
		t.Errorf("Expected save path /data/tumblr, got %s", config.Tumdlr.SavePath)
	}
	if config.Tumdlr.SaveGeneric {
		t.Error("Expected save_generic to be false")
	}
	if config.Throttle.MinDelayMs != 500 || config.Throttle.MaxDelayMs != 2000 {
		t.Errorf("Expected throttle bounds 500..2000ms, got %d..%d",
			config.Throttle.MinDelayMs, config.Throttle.MaxDelayMs)
	}
	if config.Categorization.ByPostType {
		t.Error("Expected by_post_type to be false")
	}
	if config.Download.Workers != 2 || config.Download.MaxAttempts != 5 {
		t.Errorf("Expected workers 2 and max attempts 5, got %d and %d",
			config.Download.Workers, config.Download.MaxAttempts)
	}
	if config.Download.Timeout.Duration() != 45*time.Second {
		t.Errorf("Expected 45s timeout, got %v", config.Download.Timeout)
	}
}

func TestLoadFromFileMissingIsError(t *testing.T) {
	config := DefaultConfig()
	if err := config.LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for explicitly named missing config file")
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	config := DefaultConfig()
	config.Throttle.MinDelayMs = 2000
	config.Throttle.MaxDelayMs = 100
	config.Download.Workers = 0
	config.Logging.Level = "verbose"

	err := config.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want combined config error")
	}

	msg := err.Error()
	for _, fragment := range []string{"min delay", "workers", "log level"} {
		if !strings.Contains(msg, fragment) {
			t.Errorf("Validate() error %q missing %q", msg, fragment)
		}
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestValidateRejectsExcessWorkers(t *testing.T) {
	config := DefaultConfig()
	config.Download.Workers = 50
	if err := config.Validate(); err == nil {
		t.Error("Expected error for 50 workers")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	original := DefaultConfig()
	original.Tumdlr.SavePath = "/data/tumblr"
	original.Download.Workers = 7
	original.Download.Timeout = Duration(45 * time.Second)
	if err := original.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if loaded.Tumdlr.SavePath != "/data/tumblr" {
		t.Errorf("Expected save path to round trip, got %s", loaded.Tumdlr.SavePath)
	}
	if loaded.Download.Workers != 7 {
		t.Errorf("Expected workers to round trip, got %d", loaded.Download.Workers)
	}
	if loaded.Download.Timeout.Duration() != 45*time.Second {
		t.Errorf("Expected timeout to round trip, got %v", loaded.Download.Timeout)
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"save-path": "/override",
		"workers":   6,
		"throttle":  false,
		"photos":    false,
		"log-level": "warn",
	})

	if config.Tumdlr.SavePath != "/override" {
		t.Errorf("Expected flag save path, got %s", config.Tumdlr.SavePath)
	}
	if config.Download.Workers != 6 {
		t.Errorf("Expected flag workers, got %d", config.Download.Workers)
	}
	if config.Throttle.Enabled {
		t.Error("Expected throttle disabled by flag")
	}
	if config.Tumdlr.SavePhotos {
		t.Error("Expected photos disabled by flag")
	}
	if config.Logging.Level != "warn" {
		t.Errorf("Expected flag log level, got %s", config.Logging.Level)
	}
}
