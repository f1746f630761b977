package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faceguard/faceguard/internal/attendance"
	"github.com/faceguard/faceguard/internal/config"
	"github.com/faceguard/faceguard/internal/engine"
	"github.com/faceguard/faceguard/internal/schedule"
	"github.com/faceguard/faceguard/internal/store"
	"github.com/faceguard/faceguard/internal/syncer"
	"github.com/faceguard/faceguard/internal/vision"
	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the kiosk agent loop",
	Long: `Run the FaceGuard kiosk agent.
The agent polls the detection sidecar for faces, marks attendance on
recognized identities, and periodically syncs the day snapshot with the
central server. Detection and sync both keep working offline; changes
are exchanged once the server is reachable again.`,
	RunE: runAgent,
}

func init() {
	rootCmd.AddCommand(agentCmd)
}

// buildAgent wires the local store, the optional remote syncer and the
// optional detection source into an engine.
func buildAgent(cfg *config.Config) (*engine.Engine, error) {
	kv, err := store.NewFileKV(cfg.Agent.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory %s: %w", cfg.Agent.DataDir, err)
	}
	local := store.NewLocal(kv, cfg.Matcher.EmbeddingDim)

	var sync *syncer.Syncer
	if cfg.Remote.URL != "" {
		clientID, err := local.ClientID()
		if err != nil {
			return nil, fmt.Errorf("failed to load client ID: %w", err)
		}
		client, err := syncer.NewClient(cfg.Remote.URL, clientID)
		if err != nil {
			return nil, fmt.Errorf("invalid remote URL %s: %w", cfg.Remote.URL, err)
		}
		sync = syncer.New(client, local)
		fmt.Printf("Sync enabled against %s\n", cfg.Remote.URL)
	} else {
		fmt.Println("FACEGUARD_REMOTE_URL not set, running offline only")
	}

	var source vision.Source
	if cfg.Agent.DetectorURL != "" {
		source = vision.NewDetectorClient(cfg.Agent.DetectorURL)
		fmt.Printf("Detection enabled against %s\n", cfg.Agent.DetectorURL)
	} else {
		fmt.Println("FACEGUARD_DETECTOR_URL not set, camera loop disabled")
	}

	return engine.New(cfg, local, sync, source)
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	eng, err := buildAgent(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d identities\n", eng.Size())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Catch up with the server before the loops start.
	eng.SyncCycle(ctx)

	sched := schedule.New()
	if cfg.Agent.DetectorURL != "" {
		err := sched.EverySingleton(cfg.Agent.DetectInterval, func() {
			if _, err := eng.DetectCycle(ctx, attendance.IntentAuto); err != nil {
				log.Printf("detect cycle failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("scheduling detection loop: %w", err)
		}
	}
	if err := sched.Every(cfg.Agent.SyncInterval, func() { eng.SyncCycle(ctx) }); err != nil {
		return fmt.Errorf("scheduling sync loop: %w", err)
	}
	sched.Start()

	fmt.Println("Agent running. Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down agent...")
	sched.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	eng.Shutdown(shutdownCtx)

	return nil
}
