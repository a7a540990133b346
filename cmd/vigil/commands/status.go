package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/minjaelee/vigil/internal/discovery"
	"github.com/minjaelee/vigil/internal/refresh"
	"github.com/minjaelee/vigil/pkg/config"
	"github.com/minjaelee/vigil/pkg/httputil"
	"github.com/minjaelee/vigil/pkg/logger"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check discovery system health and market session",
	Long: `Queries the discovery service and reports the out-of-band system
health signal, whether trading is currently allowed, and the active
market session with its polling cadence.

Example:
  go run ./cmd/vigil status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	if err := refresh.SetTimezone(cfg.Discovery.Exchange); err != nil {
		log.WithError(err).WithField("tz", cfg.Discovery.Exchange).Warn("Unknown exchange timezone, using default")
	}

	httpClient := httputil.NewWithTimeout(cfg, log, cfg.Discovery.FetchTimeout)
	client := discovery.NewClient(cfg, httpClient, log)

	// The squeeze endpoint carries the health headers.
	if _, err := client.SqueezeCandidates(context.Background(), cfg.Discovery.Strategy, cfg.Discovery.MinScore); err != nil {
		return fmt.Errorf("query discovery service: %w", err)
	}

	health := client.Health()
	session := refresh.SessionAt(time.Now())

	fmt.Printf("discovery:     %s\n", cfg.Discovery.BaseURL)
	fmt.Printf("system state:  %s\n", health.State)
	fmt.Printf("safe to trade: %t\n", health.SafeToTrade())
	if len(health.ReasonStats) > 0 {
		fmt.Println("reasons:")
		for reason, count := range health.ReasonStats {
			fmt.Printf("  %-20s %d\n", reason, count)
		}
	}
	fmt.Printf("session:       %s (refresh every %s)\n", session, session.Interval())

	return nil
}
