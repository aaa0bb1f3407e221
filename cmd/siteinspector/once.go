package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/siteinspector/internal/config"
	"github.com/steveyegge/siteinspector/internal/inspector"
	"github.com/steveyegge/siteinspector/internal/storage"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single inspection wave and print its statistics",
	Run: func(cmd *cobra.Command, args []string) {
		thresholds, err := loadThresholds()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		maxWorkers, _ := cmd.Flags().GetInt("max-workers")
		thresholds, err = overrideMaxWorkers(thresholds, maxWorkers)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if _, err := runOnceLocked(cmd.Context(), store, lockTarget(dbPath), thresholds, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	onceCmd.Flags().Int("max-workers", 0, "Override max_workers for this wave")
	rootCmd.AddCommand(onceCmd)
}

// overrideMaxWorkers applies --max-workers, raising the pool capacity to fit.
// Zero keeps the configured value.
func overrideMaxWorkers(thresholds config.ThresholdConfig, maxWorkers int) (config.ThresholdConfig, error) {
	if maxWorkers == 0 {
		return thresholds, nil
	}
	thresholds.MaxWorkers = maxWorkers
	if thresholds.TotalWorkerCapacity < maxWorkers {
		thresholds.TotalWorkerCapacity = maxWorkers
	}
	if err := thresholds.Validate(); err != nil {
		return thresholds, fmt.Errorf("invalid --max-workers: %w", err)
	}
	return thresholds, nil
}

// runOnceLocked holds the inspection lock next to target for the duration
// of one wave, so it cannot overlap a running agent.
func runOnceLocked(ctx context.Context, store storage.Storage, target string, thresholds config.ThresholdConfig, out io.Writer) (*inspector.WaveStats, error) {
	lockPath, err := storage.AcquireInspectionLock(target, storage.InspectionLock{
		Command: "once",
		Version: Version,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := storage.ReleaseInspectionLock(lockPath); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to release inspection lock: %v\n", err)
		}
	}()

	return runOnce(ctx, store, thresholds, out)
}

// runOnce runs one wave against store and writes a summary to out
func runOnce(ctx context.Context, store storage.Storage, thresholds config.ThresholdConfig, out io.Writer) (*inspector.WaveStats, error) {
	orchestrator, err := inspector.New(inspector.Config{
		Store:    store,
		Enforcer: newEnforcer(store, thresholds),
	})
	if err != nil {
		return nil, err
	}

	stats, err := orchestrator.RunWave(ctx, thresholds)
	if err != nil {
		return nil, err
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	marker := green("✓")
	if stats.DiscoveryFailed.Load() || stats.Failed.Load() > 0 {
		marker = red("✗")
	}
	fmt.Fprintf(out, "%s Wave %s finished in %v\n", marker, stats.WaveID, stats.Duration)
	fmt.Fprintf(out, "  Inspectors: %d\n", stats.Inspectors)
	fmt.Fprintf(out, "  Discovered: %d\n", stats.Discovered.Load())
	fmt.Fprintf(out, "  Claimed:    %d\n", stats.Claimed.Load())
	fmt.Fprintf(out, "  Skipped:    %d\n", stats.Skipped.Load())
	fmt.Fprintf(out, "  Enforced:   %d\n", stats.Enforced.Load())
	fmt.Fprintf(out, "  Failed:     %d\n", stats.Failed.Load())
	if stats.DiscoveryFailed.Load() {
		fmt.Fprintf(out, "  %s discovery query failed, see log\n", yellow("⚠"))
	}
	return stats, nil
}
