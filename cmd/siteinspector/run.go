package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/siteinspector/internal/inspector"
	"github.com/steveyegge/siteinspector/internal/storage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the periodic inspection agent",
	Long: `Start the agent that re-checks stale sites on every poll interval.

Each wave:
1. Queries the store for sites whose last check is older than the
   frequency configured for their status
2. Claims each site that is not already being inspected
3. Runs policy enforcement on the claimed sites with max_workers-1 inspectors
4. Waits for every inspector to finish before the next wave may start

Only one agent or once wave may run per database at a time. Stop with Ctrl+C.`,
	Run: func(cmd *cobra.Command, args []string) {
		thresholds, err := loadThresholds()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		orchestrator, err := inspector.New(inspector.Config{
			Store:    store,
			Enforcer: newEnforcer(store, thresholds),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create orchestrator: %v\n", err)
			os.Exit(1)
		}

		agent, err := inspector.NewAgent(inspector.AgentConfig{
			Orchestrator: orchestrator,
			Thresholds:   thresholds,
			Version:      Version,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create agent: %v\n", err)
			os.Exit(1)
		}

		lockPath, err := storage.AcquireInspectionLock(lockTarget(dbPath), storage.InspectionLock{
			Command: "run",
			OwnerID: agent.InstanceID(),
			Version: Version,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			if err := storage.ReleaseInspectionLock(lockPath); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to release inspection lock: %v\n", err)
			}
		}()
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s Acquired inspection lock %s\n", green("✓"), lockPath)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		if err := agent.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to start agent: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s Inspection agent started (version %s)\n", green("✓"), cyan(Version))
		fmt.Printf("  Database:   %s\n", dbPath)
		fmt.Printf("  Thresholds: %s\n", thresholds)
		if thresholds.InspectorCount() == 0 {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("  %s max_workers is 1: sites are claimed but never inspected\n", yellow("⚠"))
		}
		fmt.Printf("  Press Ctrl+C to stop\n\n")

		<-sigCh
		fmt.Println("\n\nShutting down agent...")

		// Fresh context: the agent's own context is canceled below
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := agent.Stop(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error during shutdown: %v\n", err)
		}

		if last := agent.LastWave(); last != nil {
			fmt.Printf("  Last %s\n", last)
		}
		fmt.Printf("%s Agent stopped after %d wave(s)\n", green("✓"), agent.Waves())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
