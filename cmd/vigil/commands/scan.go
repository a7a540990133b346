package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/minjaelee/vigil/internal/classify"
	"github.com/minjaelee/vigil/internal/discovery"
	"github.com/minjaelee/vigil/internal/ingest"
	"github.com/minjaelee/vigil/internal/refresh"
	"github.com/minjaelee/vigil/pkg/config"
	"github.com/minjaelee/vigil/pkg/httputil"
	"github.com/minjaelee/vigil/pkg/logger"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "One-shot candidate fetch, normalize, and classify",
	Long: `Fetches every candidate stream once, merges and classifies them,
and prints the resulting snapshot.

Example:
  go run ./cmd/vigil scan
  go run ./cmd/vigil scan --limit 50`,
	RunE: runScan,
}

var scanLimit int

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().IntVar(&scanLimit, "limit", 0, "max candidates per stream (overrides DISCOVERY_LIMIT)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if scanLimit > 0 {
		cfg.Discovery.Limit = scanLimit
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	httpClient := httputil.NewWithTimeout(cfg, log, cfg.Discovery.FetchTimeout).WithLocalLimiter(10, 10)
	client := discovery.NewClient(cfg, httpClient, log)
	store := ingest.NewStore(nil, log)
	normalizer := ingest.NewNormalizer(log)

	pipeline := refresh.NewPipeline(cfg, client, normalizer,
		classify.NewClassifier(classify.AlertThresholds, log),
		store, log)

	if err := pipeline.Run(context.Background()); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	snap := store.Snapshot()
	if len(snap.Candidates) == 0 {
		fmt.Println("No candidates above the lowest tier threshold.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tTIER\tSCORE\tPRICE\tRVOL\tRATIONALE")
	for _, c := range snap.Candidates {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.1f\t%s\n",
			c.Symbol, c.Tier, c.Score, c.Price, c.VolumeSurge, c.Rationale)
	}
	w.Flush()

	fmt.Printf("\n%d candidates, %d records dropped, safe_to_trade=%t\n",
		len(snap.Candidates), snap.Dropped, client.SafeToTrade())

	return nil
}
