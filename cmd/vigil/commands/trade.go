package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minjaelee/vigil/internal/classify"
	"github.com/minjaelee/vigil/internal/discovery"
	"github.com/minjaelee/vigil/internal/ingest"
	"github.com/minjaelee/vigil/internal/model"
	"github.com/minjaelee/vigil/internal/refresh"
	"github.com/minjaelee/vigil/internal/risk"
	"github.com/minjaelee/vigil/internal/trade"
	"github.com/minjaelee/vigil/pkg/config"
	"github.com/minjaelee/vigil/pkg/httputil"
	"github.com/minjaelee/vigil/pkg/logger"
)

// tradeCmd represents the trade command
var tradeCmd = &cobra.Command{
	Use:   "trade <symbol>",
	Short: "Size and submit a bracket order for a candidate",
	Long: `Fetches the current candidate snapshot, sizes a position for the
given symbol under the capital limit, and submits a market order with
stop-loss and take-profit bracket legs.

Example:
  go run ./cmd/vigil trade VIGL
  go run ./cmd/vigil trade VIGL --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runTrade,
}

var tradeDryRun bool

func init() {
	rootCmd.AddCommand(tradeCmd)

	tradeCmd.Flags().BoolVar(&tradeDryRun, "dry-run", false, "size the position but do not submit")
}

func runTrade(cmd *cobra.Command, args []string) error {
	symbol := strings.ToUpper(strings.TrimSpace(args[0]))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)
	ctx := context.Background()

	httpClient := httputil.NewWithTimeout(cfg, log, cfg.Discovery.FetchTimeout).WithLocalLimiter(10, 10)
	client := discovery.NewClient(cfg, httpClient, log)
	store := ingest.NewStore(nil, log)

	pipeline := refresh.NewPipeline(cfg, client,
		ingest.NewNormalizer(log),
		classify.NewClassifier(classify.AlertThresholds, log),
		store, log)
	if err := pipeline.Run(ctx); err != nil {
		return fmt.Errorf("fetch candidates: %w", err)
	}

	var candidate *model.Candidate
	for _, c := range store.Snapshot().Candidates {
		if c.Symbol == symbol {
			candidate = &c
			break
		}
	}
	if candidate == nil {
		return fmt.Errorf("%s is not in the current candidate snapshot", symbol)
	}

	plan, err := risk.NewSizer(cfg, log).Plan(*candidate)
	if err != nil {
		return fmt.Errorf("size position: %w", err)
	}

	fmt.Printf("%s  tier=%s score=%.2f price=%.2f rvol=%.1f\n",
		candidate.Symbol, candidate.Tier, candidate.Score, candidate.Price, candidate.VolumeSurge)
	fmt.Printf("plan: %d shares (%.2f notional), stop %.1f%% @ %.2f, target %.1f%% @ %.2f (R:R 1:%.0f)\n",
		plan.Shares, plan.Notional,
		plan.StopLossPct, plan.StopLossPrice,
		plan.TakeProfitPct, plan.TakeProfitPrice,
		plan.RiskRewardRatio)

	if tradeDryRun {
		fmt.Println("dry run, order not submitted")
		return nil
	}

	tradeHTTP := httputil.NewWithTimeout(cfg, log, cfg.Trade.SubmitTimeout)
	submitter := trade.NewSubmitter(cfg, tradeHTTP, client, log)

	order := &model.OrderRequest{
		Symbol:         symbol,
		Side:           model.OrderSideBuy,
		SizingMode:     model.SizingQuantity,
		Qty:            float64(plan.Shares),
		OrderType:      model.OrderTypeMarket,
		Bracket:        plan.Bracket(),
		IdempotencyKey: model.NewIdempotencyKey(symbol),
	}

	result := submitter.Submit(ctx, order)

	switch result.Status {
	case model.OrderAccepted:
		fmt.Printf("order accepted: %s\n", result.OrderID)
	case model.OrderRejected:
		fmt.Printf("order rejected: %s", result.Reason)
		if result.Cap != nil && result.ObservedPrice != nil {
			fmt.Printf(" (cap %.2f, observed %.2f)", *result.Cap, *result.ObservedPrice)
		}
		fmt.Println()
	default:
		fmt.Printf("order %s: %s %s\n", strings.ToLower(string(result.Status)), result.Reason, result.Message)
	}

	return nil
}
