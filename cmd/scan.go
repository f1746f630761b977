package cmd

import (
	"context"
	"fmt"

	"github.com/faceguard/faceguard/internal/config"
	"github.com/faceguard/faceguard/internal/engine"
	"github.com/faceguard/faceguard/internal/store"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan enrolled identities for duplicates",
	Long: `Scan the local identity snapshot for likely duplicate enrollments.
Each identity is compared against all earlier ones; close matches are
flagged for admin review, never deleted. Flags propagate to the server
on the next sync.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	kv, err := store.NewFileKV(cfg.Agent.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open data directory %s: %w", cfg.Agent.DataDir, err)
	}
	local := store.NewLocal(kv, cfg.Matcher.EmbeddingDim)

	eng, err := engine.New(cfg, local, nil, nil)
	if err != nil {
		return err
	}

	if eng.Size() == 0 {
		fmt.Println("No identities enrolled yet, nothing to scan")
		return nil
	}

	bar := progressbar.NewOptions(eng.Size(),
		progressbar.OptionSetDescription("Scanning identities"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("identities"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	result, err := eng.ScanDuplicates(context.Background(), func(done, total int) {
		_ = bar.Set(done)
	})
	if err != nil {
		return fmt.Errorf("duplicate scan failed: %w", err)
	}
	_ = bar.Finish()
	fmt.Println()

	fmt.Printf("Scanned %d identities (%d comparisons)\n", len(result.Identities), result.Compared)
	if result.Flagged == 0 {
		fmt.Println("No new duplicates found")
		return nil
	}

	fmt.Printf("Flagged %d new duplicate(s):\n", result.Flagged)
	for _, id := range result.Identities {
		if id.DuplicateOf != "" {
			fmt.Printf("  %s (%s) -> duplicate of %s\n", id.ID, id.Name, id.DuplicateOf)
		}
	}
	fmt.Println("Review with an admin account; flagged identities still match normally")
	return nil
}
