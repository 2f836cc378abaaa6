package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-cleaner/internal/cluster"
	"github.com/kozaktomas/photo-cleaner/internal/config"
	"github.com/kozaktomas/photo-cleaner/internal/engine"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the library for duplicates and low-quality photos",
	Long: `Scan every photo of the library, group near-duplicates and grade
photos by sharpness. Nothing is deleted.

Examples:
  photo-cleaner analyze --root ~/Pictures
  photo-cleaner analyze --source photoprism --details
  photo-cleaner analyze --json > report.json`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	addAnalysisFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("details", false, "List every duplicate cluster and flagged photo")
	analyzeCmd.Flags().Bool("json", false, "Output as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	details := mustGetBool(cmd, "details")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig(cmd)
	logger := newLogger()
	lib, release, err := openLibrary(cfg, logger)
	if err != nil {
		return err
	}
	defer release(context.WithoutCancel(ctx))

	eng := newEngine(cmd, cfg, lib, logger)
	if err := authorize(ctx, eng); err != nil {
		return err
	}

	result, err := runWithProgress(ctx, eng, !jsonOutput)
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nCancelled.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if jsonOutput {
		return outputJSON(result)
	}
	printSummary(result)
	if details {
		printDetails(cfg, result)
	}
	return nil
}

// runWithProgress runs a full analysis, rendering engine progress events on a
// progress bar when showBar is set.
func runWithProgress(ctx context.Context, eng *engine.Engine, showBar bool) (*engine.Result, error) {
	if !showBar {
		return eng.Run(ctx)
	}

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("Analyzing library"),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	events := eng.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			_ = bar.Set(int(event.Progress * 100))
		}
	}()

	result, err := eng.Run(ctx)
	eng.Unsubscribe(events)
	<-done
	if err == nil {
		_ = bar.Finish()
		fmt.Println()
	}
	return result, err
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

// printSummary prints the headline numbers of a result.
func printSummary(result *engine.Result) {
	fmt.Printf("\nRun:        %s\n", result.RunID)
	fmt.Printf("Photos:     %d\n", result.TotalPhotos)
	fmt.Printf("Videos:     %d\n", result.TotalVideos)
	fmt.Printf("Library:    %s\n", humanize.Bytes(uint64(max(result.TotalBytes, 0))))
	fmt.Printf("Duration:   %s\n", result.CompletedAt.Sub(result.StartedAt).Round(time.Millisecond))

	fmt.Println("\nFindings:")
	fmt.Printf("  Duplicate clusters: %d\n", len(result.Duplicates))
	fmt.Printf("  Low quality:        %d\n", len(result.LowQuality))
	fmt.Printf("  Blurry:             %d\n", len(result.Blurry))
	fmt.Printf("  Total issues:       %d\n", result.TotalIssues())
	fmt.Printf("  Reclaimable:        %s\n", result.FormattedSavings())
}

// printDetails lists every cluster with its keep candidate first, followed by
// the flagged photos outside clusters.
func printDetails(cfg *config.Config, result *engine.Result) {
	for i, c := range result.Duplicates {
		fmt.Printf("\nCluster %d: %d photos, %s reclaimable\n",
			i+1, len(c.Photos), humanize.Bytes(uint64(max(c.ReclaimableBytes, 0))))
		keep := c.Keep()
		fmt.Printf("  keep    %s\n", describePhoto(cfg, keep))
		for _, p := range c.Removable() {
			fmt.Printf("  remove  %s\n", describePhoto(cfg, p))
		}
	}

	printFlagged("Low quality", cfg, result.LowQuality)
	printFlagged("Blurry", cfg, result.Blurry)
}

func printFlagged(title string, cfg *config.Config, photos []*cluster.Photo) {
	if len(photos) == 0 {
		return
	}
	fmt.Printf("\n%s (%d):\n", title, len(photos))
	for _, p := range photos {
		fmt.Printf("  %s\n", describePhoto(cfg, p))
	}
}

// describePhoto formats one photo line. PhotoPrism IDs become terminal
// hyperlinks when PHOTOPRISM_DOMAIN is set.
func describePhoto(cfg *config.Config, p *cluster.Photo) string {
	id := p.Asset.ID
	if cfg.Source == config.SourcePhotoPrism {
		if link := cfg.PhotoPrism.PhotoURL(id); link != "" {
			id = link
		}
	}
	line := fmt.Sprintf("%s  %-9s  sharpness %.2f  %s", id, p.Quality, p.Sharpness, humanize.Bytes(uint64(max(p.Size, 0))))
	if p.Asset.Name != "" && p.Asset.Name != p.Asset.ID {
		line += "  " + p.Asset.Name
	}
	if p.Similarity != nil && p.Duplicate {
		line += fmt.Sprintf("  %.0f%% similar", *p.Similarity*100)
	}
	if p.SampleFailed {
		line += "  (no fingerprint)"
	}
	return line
}
