package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"kaching-analytics/internal/application/insights"
	domain "kaching-analytics/internal/domain/insights"
	"kaching-analytics/internal/infra/memory"
	"kaching-analytics/internal/infrastructure/config"
	"kaching-analytics/internal/infrastructure/db"
	"kaching-analytics/internal/infrastructure/logging"
	"kaching-analytics/internal/infrastructure/persistence/postgres"
	"kaching-analytics/internal/infrastructure/providers"
)

// storeOpener 依設定開啟指標來源，回傳的 close 於指令結束時呼叫。
type storeOpener func(ctx context.Context, cfg config.Config, logger zerolog.Logger) (insights.MetricHistoryProvider, func(), error)

func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (insights.MetricHistoryProvider, func(), error) {
	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if pool == nil {
		logger.Warn().Msg("no DB_DSN provided; reading from an empty in-memory store")
		return memory.NewStore(), func() {}, nil
	}
	return postgres.NewMetricRepo(pool), func() { pool.Close() }, nil
}

type cliOptions struct {
	configPath string
	merchantID string
	period     string
}

func newRootCmd(open storeOpener) *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:           "insights",
		Short:         "Merchant analytics insights",
		Long:          "Detect anomalies, generate recommendations and compose executive briefings for a merchant.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to config file")
	root.PersistentFlags().StringVar(&opts.merchantID, "merchant", "", "merchant id")
	root.PersistentFlags().StringVar(&opts.period, "period", string(domain.PeriodDaily), "briefing period (daily|weekly)")

	briefingCmd := &cobra.Command{
		Use:   "briefing",
		Short: "Compose an executive briefing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, err := domain.ParsePeriod(opts.period)
			if err != nil {
				return err
			}
			return run(cmd, open, opts, func(ctx context.Context, svc *insights.Service) (any, error) {
				return svc.ComposeBriefing(ctx, opts.merchantID, period)
			})
		},
	}

	anomaliesCmd := &cobra.Command{
		Use:   "anomalies",
		Short: "Detect anomalies over recent history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, open, opts, func(ctx context.Context, svc *insights.Service) (any, error) {
				return svc.DetectAnomalies(ctx, opts.merchantID)
			})
		},
	}

	recommendationsCmd := &cobra.Command{
		Use:   "recommendations",
		Short: "Generate ranked recommendations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, open, opts, func(ctx context.Context, svc *insights.Service) (any, error) {
				return svc.GenerateRecommendations(ctx, opts.merchantID)
			})
		},
	}

	root.AddCommand(briefingCmd, anomaliesCmd, recommendationsCmd)
	return root
}

func run(cmd *cobra.Command, open storeOpener, opts *cliOptions, fn func(context.Context, *insights.Service) (any, error)) error {
	if opts.merchantID == "" {
		return insights.ErrMerchantRequired
	}
	cfg, err := config.LoadFromFile(opts.configPath)
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.Log)

	ctx := cmd.Context()
	store, closeStore, err := open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	provider := providers.NewBreakerProvider("metric-store", store, cfg.Breaker, logger)
	svc := insights.NewService(provider, cfg.InsightsConfig(), logger)
	out, err := fn(ctx, svc)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
