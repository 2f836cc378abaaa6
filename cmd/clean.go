package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-cleaner/internal/cluster"
	"github.com/kozaktomas/photo-cleaner/internal/engine"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete duplicates and low-quality photos",
	Long: `Analyze the library and delete the selected categories of photos.

The best photo of every duplicate cluster is always kept. After deleting,
the library is analyzed again and the new summary is printed.

Examples:
  photo-cleaner clean --duplicates --dry-run
  photo-cleaner clean --duplicates --blurry
  photo-cleaner clean --low-quality --yes`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	addAnalysisFlags(cleanCmd)
	cleanCmd.Flags().Bool("duplicates", false, "Delete every duplicate except each cluster's keep candidate")
	cleanCmd.Flags().Bool("low-quality", false, "Delete low-quality photos outside clusters")
	cleanCmd.Flags().Bool("blurry", false, "Delete blurry photos outside clusters")
	cleanCmd.Flags().Bool("dry-run", false, "List what would be deleted without deleting")
	cleanCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
}

func confirmAction(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func runClean(cmd *cobra.Command, args []string) error {
	sel, err := selectionFromFlags(cmd)
	if err != nil {
		return err
	}
	dryRun := mustGetBool(cmd, "dry-run")
	skipConfirm := mustGetBool(cmd, "yes")

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

	result, err := runWithProgress(ctx, eng, true)
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nCancelled.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	candidates := result.Candidates(sel)
	if len(candidates) == 0 {
		fmt.Println("Nothing to delete.")
		return nil
	}

	fmt.Printf("\nPhotos to delete (%d, %s):\n", len(candidates), humanize.Bytes(uint64(totalSize(candidates))))
	for _, p := range candidates {
		fmt.Printf("  %s\n", describePhoto(cfg, p))
	}

	if dryRun {
		fmt.Println("\nDry run, nothing deleted.")
		return nil
	}
	if !skipConfirm && !confirmAction(fmt.Sprintf("\nDelete %d photo(s)? [y/N]: ", len(candidates))) {
		fmt.Println("Cancelled.")
		return nil
	}

	fmt.Printf("Deleting %d photo(s)...\n", len(candidates))
	next, err := eng.Delete(ctx, candidates)
	if errors.Is(err, engine.ErrDeletionFailed) {
		return fmt.Errorf("nothing was re-analyzed: %w", err)
	}
	if err != nil {
		return fmt.Errorf("re-analysis after deletion failed: %w", err)
	}

	fmt.Printf("Done! Deleted %d photo(s)\n", len(candidates))
	printSummary(next)
	return nil
}

func totalSize(photos []*cluster.Photo) int64 {
	var total int64
	for _, p := range photos {
		total += max(p.Size, 0)
	}
	return total
}
