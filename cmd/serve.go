package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faceguard/faceguard/internal/config"
	"github.com/faceguard/faceguard/internal/store"
	"github.com/faceguard/faceguard/internal/store/postgres"
	"github.com/faceguard/faceguard/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the snapshot server",
	Long: `Start the FaceGuard snapshot server.
The server accepts sync exchanges from agent devices, merges pushed
snapshots with last-write-wins resolution, and serves uploaded assets.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// buildServerStore selects the snapshot backend: PostgreSQL when
// DATABASE_URL is set, the JSON file store otherwise.
func buildServerStore(cfg *config.Config) (store.ServerStore, error) {
	if cfg.Database.URL != "" {
		fmt.Printf("Connecting to PostgreSQL database...\n")
		st, err := postgres.Initialize(&cfg.Database, cfg.Matcher.EmbeddingDim)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		fmt.Printf("Using PostgreSQL backend\n")
		return st, nil
	}

	st, err := store.NewFileServerStore(cfg.Server.DataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file %s: %w", cfg.Server.DataFile, err)
	}
	fmt.Printf("Using file backend (%s)\n", cfg.Server.DataFile)
	return st, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	st, err := buildServerStore(cfg)
	if err != nil {
		return err
	}

	assets, err := store.NewFileKV(cfg.Server.AssetsDir)
	if err != nil {
		return fmt.Errorf("failed to open assets directory %s: %w", cfg.Server.AssetsDir, err)
	}

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(st, assets, host, port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting FaceGuard server on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
