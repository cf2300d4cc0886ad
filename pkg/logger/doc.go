// Package logger provides a structured logging interface for the Tumblr downloader.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - File output
// - Context support for request tracing
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "tumdlr/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File: "/var/log/tumdlr.log",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.WithField("blog", "staff").Info("Crawl started")
//	logger.WithError(err).Error("Failed to download asset")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "downloader").
//	    WithField("blog", "staff")
//
//	// Use structured logging
//	log.InfoWithFields("Download completed", map[string]interface{}{
//	    "file": "image.jpg",
//	    "size": 1024000,
//	    "duration": time.Second * 5,
//	})
package logger
