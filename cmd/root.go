package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "photo-cleaner",
	Short: "Find duplicate and low-quality photos in a media library",
	Long: `Photo Cleaner scans a photo library (a local directory or a PhotoPrism
instance), groups near-duplicate photos by perceptual fingerprint, grades
every photo by sharpness and reports how much space can be reclaimed.

Photos are only deleted on request, and the library is analyzed again
after every deletion.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("source", "", "Library source: local or photoprism (overrides LIBRARY_SOURCE)")
	rootCmd.PersistentFlags().String("root", "", "Library directory for the local source (overrides LIBRARY_ROOT)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// newLogger returns the structured logger shared by the engine, the stores
// and the web server. Logs go to stderr so --json output stays clean.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
