package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-cleaner/internal/config"
	"github.com/kozaktomas/photo-cleaner/internal/engine"
	"github.com/kozaktomas/photo-cleaner/internal/library"
	"github.com/kozaktomas/photo-cleaner/internal/media"
	"github.com/kozaktomas/photo-cleaner/internal/photoprism"
)

// loadConfig loads the environment configuration and applies the
// --source and --root overrides.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()
	if source := mustGetString(cmd, "source"); source != "" {
		cfg.Source = strings.ToLower(source)
	}
	if root := mustGetString(cmd, "root"); root != "" {
		cfg.Library.Root = root
	}
	return cfg
}

// openLibrary returns the configured media library and a function releasing
// it. PhotoPrism sessions are logged out on release.
func openLibrary(cfg *config.Config, logger *slog.Logger) (media.Library, func(context.Context), error) {
	switch cfg.Source {
	case config.SourceLocal:
		if cfg.Library.Root == "" {
			return nil, nil, errors.New("LIBRARY_ROOT environment variable or --root is required")
		}
		return library.New(cfg.Library.Root, cfg.MediaTypes, logger), func(context.Context) {}, nil
	case config.SourcePhotoPrism:
		if cfg.PhotoPrism.URL == "" {
			return nil, nil, errors.New("PHOTOPRISM_URL environment variable is required")
		}
		store := photoprism.NewStore(cfg.PhotoPrism, logger)
		release := func(ctx context.Context) {
			if err := store.Close(ctx); err != nil {
				logger.Warn("photoprism logout failed", "error", err)
			}
		}
		return store, release, nil
	default:
		return nil, nil, fmt.Errorf("unknown library source %q (want %s or %s)",
			cfg.Source, config.SourceLocal, config.SourcePhotoPrism)
	}
}

// addAnalysisFlags registers the flags shared by commands that run an analysis.
func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().Int("concurrency", 0, "Images analyzed in parallel (default ANALYSIS_CONCURRENCY or 8)")
	cmd.Flags().Bool("exclude-failed", false, "Keep photos without a fingerprint out of duplicate detection")
}

// newEngine builds an engine over the library from config and flags.
func newEngine(cmd *cobra.Command, cfg *config.Config, lib media.Library, logger *slog.Logger) *engine.Engine {
	opts := engine.Options{
		Concurrency:               cfg.Analysis.Concurrency,
		ExcludeFailedFingerprints: cfg.Analysis.ExcludeFailed,
		Logger:                    logger,
	}
	if c := mustGetInt(cmd, "concurrency"); c > 0 {
		opts.Concurrency = c
	}
	if mustGetBool(cmd, "exclude-failed") {
		opts.ExcludeFailedFingerprints = true
	}
	return engine.New(lib, lib, opts)
}

// authorize asks the library for access and fails unless analysis is permitted.
func authorize(ctx context.Context, eng *engine.Engine) error {
	ok, err := eng.RequestAuthorization(ctx)
	if err != nil {
		return fmt.Errorf("failed to access library: %w", err)
	}
	if !ok {
		return fmt.Errorf("library access %s", eng.Authorization())
	}
	return nil
}
