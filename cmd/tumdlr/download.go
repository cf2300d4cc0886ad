package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"tumdlr/pkg/auth"
	"tumdlr/pkg/config"
	"tumdlr/pkg/logger"
	"tumdlr/pkg/scraper"
	"tumdlr/pkg/ui"
)

var (
	// Download command flags
	savePath    string
	workers     int
	throttleOn  bool
	saveGeneric bool
	savePhotos  bool
	saveVideos  bool
	accountName string
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <blog>...",
	Short: "Download media from one or more Tumblr blogs",
	Long: `Download all photos, videos and other media from Tumblr blogs.

The blog argument can be a bare name (alice), a full hostname
(alice.tumblr.com) or a URL. Finished files are tracked per blog, so
rerunning the same command only fetches what is new or previously
failed.`,
	Example: `  # Download everything from a blog
  tumdlr download alice

  # Several blogs in one invocation
  tumdlr download alice bob.tumblr.com

  # Photos only, into a specific directory with more workers
  tumdlr download alice --save-path ./tumblr --videos=false --generic=false --workers 5

  # Disable throttling (be careful)
  tumdlr download alice --throttle=false`,
	Args: cobra.MinimumNArgs(1),
	Run:  runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&savePath, "save-path", "o", "", "base directory for downloads (default: ~/tumblr)")
	downloadCmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent downloads")
	downloadCmd.Flags().BoolVar(&throttleOn, "throttle", true, "throttle requests with a randomized delay")
	downloadCmd.Flags().BoolVar(&saveGeneric, "generic", true, "save media from text and other generic posts")
	downloadCmd.Flags().BoolVar(&savePhotos, "photos", true, "save photo posts")
	downloadCmd.Flags().BoolVar(&saveVideos, "videos", true, "save video posts")
	downloadCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
}

func runDownload(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if savePath != "" {
		flags["save-path"] = savePath
	}
	if workers > 0 {
		flags["workers"] = workers
	}
	if cmd.Flags().Changed("throttle") {
		flags["throttle"] = throttleOn
	}
	if cmd.Flags().Changed("generic") {
		flags["generic"] = saveGeneric
	}
	if cmd.Flags().Changed("photos") {
		flags["photos"] = savePhotos
	}
	if cmd.Flags().Changed("videos") {
		flags["videos"] = saveVideos
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	logger.WithField("version", version).Info("Tumdlr starting")

	s, err := scraper.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize downloader", err.Error())
		os.Exit(1)
	}

	if account := resolveAccount(cfg); account != nil {
		s.Client().SetAccount(account)
		logger.WithField("account", account.Email).Info("Using stored credentials")
		if !quiet {
			ui.PrintInfo("Using account", account.Email)
		}
	}

	// Ctrl-C stops enumeration; in-flight downloads drain cleanly
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	for _, arg := range args {
		blog := strings.TrimSpace(arg)
		if !quiet {
			ui.PrintInfo("Target blog", blog)
		}

		summary, err := s.DownloadBlog(ctx, blog)
		ui.PrintSummary(summary)

		if err != nil {
			if ctx.Err() != nil {
				ui.PrintWarning("Interrupted", blog)
				logger.WithField("blog", blog).Warn("Download interrupted")
				exitCode = 1
				break
			}
			logger.WithError(err).WithField("blog", blog).Error("Download failed")
			ui.PrintError("Download failed", err.Error())
			exitCode = 1
			continue
		}

		if summary.Failed > 0 {
			exitCode = 1
		}
		logger.WithField("blog", blog).Info("Download completed")
	}

	os.Exit(exitCode)
}

// resolveAccount finds credentials when auth is requested. Missing
// credentials are not fatal; most blogs are public.
func resolveAccount(cfg *config.Config) *auth.Account {
	if accountName == "" && !cfg.Auth.Enabled {
		return nil
	}

	if cfg.Auth.Email != "" && cfg.Auth.Password != "" {
		return &auth.Account{Email: cfg.Auth.Email, Password: cfg.Auth.Password}
	}

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintWarning("Credential manager unavailable", err.Error())
		return nil
	}

	if accountName != "" {
		account, err := manager.Retrieve(accountName)
		if err != nil {
			ui.PrintError("Account not found", accountName)
			ui.PrintInfo("Available accounts", "Use 'tumdlr auth list' to see stored accounts")
			os.Exit(1)
		}
		return account
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		ui.PrintWarning("No stored credentials found, continuing without authentication")
		return nil
	}
	return account
}
