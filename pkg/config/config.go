package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tumdlr/pkg/errors"
)

// Config holds all configuration options for the Tumblr downloader
type Config struct {
	// Content admission and save location
	Tumdlr TumdlrConfig `yaml:"tumdlr" json:"tumdlr"`

	// Request throttling bounds
	Throttle ThrottleConfig `yaml:"throttle" json:"throttle"`

	// Output directory layout rules
	Categorization CategorizationConfig `yaml:"categorization" json:"categorization"`

	// Download worker settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Authentication block (reserved upstream, threaded opaquely)
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TumdlrConfig holds the base save path and content-type toggles
type TumdlrConfig struct {
	SavePath    string `yaml:"save_path" json:"save_path"`
	SaveGeneric bool   `yaml:"save_generic" json:"save_generic"`
	SavePhotos  bool   `yaml:"save_photos" json:"save_photos"`
	SaveVideos  bool   `yaml:"save_videos" json:"save_videos"`
}

// ThrottleConfig holds the randomized inter-request delay bounds
type ThrottleConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	MinDelayMs int  `yaml:"min_delay_ms" json:"min_delay_ms"`
	MaxDelayMs int  `yaml:"max_delay_ms" json:"max_delay_ms"`
}

// CategorizationConfig holds the directory layout rules
type CategorizationConfig struct {
	ByUser         bool `yaml:"by_user" json:"by_user"`
	ByPostType     bool `yaml:"by_post_type" json:"by_post_type"`
	GroupPhotosets bool `yaml:"group_photosets" json:"group_photosets"`
}

// DownloadConfig holds worker pool and retry-ceiling settings
type DownloadConfig struct {
	Workers     int      `yaml:"workers" json:"workers"`
	QueueSize   int      `yaml:"queue_size" json:"queue_size"`
	MaxAttempts int      `yaml:"max_attempts" json:"max_attempts"`
	Timeout     Duration `yaml:"timeout" json:"timeout"`
}

// AuthConfig holds the reserved authentication block
type AuthConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password" json:"password"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	savePath := "~/tumblr"
	if home, err := os.UserHomeDir(); err == nil {
		savePath = filepath.Join(home, "tumblr")
	}

	return &Config{
		Tumdlr: TumdlrConfig{
			SavePath:    savePath,
			SaveGeneric: true,
			SavePhotos:  true,
			SaveVideos:  true,
		},
		Throttle: ThrottleConfig{
			Enabled:    true,
			MinDelayMs: 300,
			MaxDelayMs: 1500,
		},
		Categorization: CategorizationConfig{
			ByUser:         true,
			ByPostType:     true,
			GroupPhotosets: true,
		},
		Download: DownloadConfig{
			Workers:     3,
			QueueSize:   0, // derived from Workers when zero
			MaxAttempts: 3,
			Timeout:     Duration(30 * time.Second),
		},
		Auth: AuthConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// EffectiveQueueSize returns the bounded task queue size, deriving it
// from the worker count when not set explicitly.
func (c *Config) EffectiveQueueSize() int {
	if c.Download.QueueSize > 0 {
		return c.Download.QueueSize
	}
	return c.Download.Workers * 2
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if savePath := os.Getenv("TUMDLR_SAVE_PATH"); savePath != "" {
		c.Tumdlr.SavePath = savePath
	}

	if workers := os.Getenv("TUMDLR_WORKERS"); workers != "" {
		if val, err := strconv.Atoi(workers); err == nil && val > 0 {
			c.Download.Workers = val
		}
	}

	if min := os.Getenv("TUMDLR_THROTTLE_MIN_MS"); min != "" {
		if val, err := strconv.Atoi(min); err == nil {
			c.Throttle.MinDelayMs = val
		}
	}
	if max := os.Getenv("TUMDLR_THROTTLE_MAX_MS"); max != "" {
		if val, err := strconv.Atoi(max); err == nil {
			c.Throttle.MaxDelayMs = val
		}
	}

	if email := os.Getenv("TUMDLR_AUTH_EMAIL"); email != "" {
		c.Auth.Email = email
	}
	if password := os.Getenv("TUMDLR_AUTH_PASSWORD"); password != "" {
		c.Auth.Password = password
	}

	if logLevel := os.Getenv("TUMDLR_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home, _ := os.UserHomeDir()

	// Check in order of precedence
	locations := []string{
		".tumdlr.yaml",
		".tumdlr.yml",
		filepath.Join(home, ".config", "tumdlr", "config.yaml"),
		filepath.Join(home, ".config", "tumdlr", "config.yml"),
		filepath.Join(home, ".tumdlr.yaml"),
		filepath.Join(home, ".tumdlr.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. All violations are
// reported together as a single fatal config error.
func (c *Config) Validate() error {
	var problems []string

	if c.Tumdlr.SavePath == "" {
		problems = append(problems, "save path is required")
	}

	if c.Throttle.MinDelayMs < 0 {
		problems = append(problems, "throttle min delay cannot be negative")
	}
	if c.Throttle.MaxDelayMs < 0 {
		problems = append(problems, "throttle max delay cannot be negative")
	}
	if c.Throttle.MinDelayMs > c.Throttle.MaxDelayMs {
		problems = append(problems, fmt.Sprintf("throttle min delay (%dms) exceeds max delay (%dms)",
			c.Throttle.MinDelayMs, c.Throttle.MaxDelayMs))
	}

	if c.Download.Workers <= 0 {
		problems = append(problems, "download workers must be positive")
	}
	if c.Download.Workers > 10 {
		problems = append(problems, "download workers should not exceed 10")
	}
	if c.Download.QueueSize < 0 {
		problems = append(problems, "download queue size cannot be negative")
	}
	if c.Download.MaxAttempts <= 0 {
		problems = append(problems, "download max attempts must be positive")
	}
	if c.Download.Timeout <= 0 {
		problems = append(problems, "download timeout must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		problems = append(problems, "invalid log level")
	}

	if len(problems) > 0 {
		return errors.NewConfigError("%s", strings.Join(problems, "; "))
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if savePath, ok := flags["save-path"].(string); ok && savePath != "" {
		c.Tumdlr.SavePath = savePath
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Download.Workers = workers
	}
	if enabled, ok := flags["throttle"].(bool); ok {
		c.Throttle.Enabled = enabled
	}
	if generic, ok := flags["generic"].(bool); ok {
		c.Tumdlr.SaveGeneric = generic
	}
	if photos, ok := flags["photos"].(bool); ok {
		c.Tumdlr.SavePhotos = photos
	}
	if videos, ok := flags["videos"].(bool); ok {
		c.Tumdlr.SaveVideos = videos
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".tumdlr.env"))
	}

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
