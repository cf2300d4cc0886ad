package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tumdlr/pkg/config"
	"tumdlr/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Tumdlr configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.tumdlr.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources.

Sensitive values like passwords are masked.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.`,
	Run:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# Tumdlr Configuration File
#
# Every option can also be set through environment variables prefixed
# with TUMDLR_, for example TUMDLR_SAVE_PATH or TUMDLR_WORKERS.

tumdlr:
  # Base directory media is saved under
  save_path: ~/tumblr

  # Content type toggles
  save_photos: true
  save_videos: true
  save_generic: true

throttle:
  # Randomized delay between consecutive requests, across all workers
  enabled: true
  min_delay_ms: 300
  max_delay_ms: 1500

categorization:
  # <save_path>/<blog>/<Photos|Videos|Posts>/<photoset caption>/<file>
  by_user: true
  by_post_type: true
  group_photosets: true

download:
  # Concurrent download workers (1-10)
  workers: 3
  # Task queue bound; 0 derives workers * 2
  queue_size: 0
  # Attempts per asset before it is skipped for good
  max_attempts: 3
  # Per-request timeout
  timeout: 30s

auth:
  # Only needed for dashboard-only blogs
  enabled: false
  email: ""
  password: ""

logging:
  level: info
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".tumdlr.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to write configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Created " + configPath)
	fmt.Println("\nEdit the file to match your setup, then run:")
	fmt.Println("  tumdlr download <blog>")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// never print the password
	if cfg.Auth.Password != "" {
		cfg.Auth.Password = "********"
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to render configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Effective configuration:")
	fmt.Println(string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		ui.PrintError("No configuration file specified", "use --config <path>")
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configPath); err != nil {
		ui.PrintError("Configuration file is invalid", err.Error())
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		ui.PrintError("Configuration file is invalid", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration is valid: " + configPath)
}
