package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/channeliq/channeliq/internal/application/analysis"
	"github.com/channeliq/channeliq/internal/engine/benchmark"
	"github.com/channeliq/channeliq/internal/engine/scoring"
	"github.com/channeliq/channeliq/internal/engine/signals"
	"github.com/channeliq/channeliq/internal/infrastructure/database/postgres"
	"github.com/channeliq/channeliq/internal/infrastructure/database/postgres/repositories"
	"github.com/channeliq/channeliq/internal/infrastructure/database/redis"
	"github.com/channeliq/channeliq/pkg/types/common"
	"github.com/channeliq/channeliq/pkg/types/market"
)

type analyzeOptions struct {
	tenant      string
	lookback    int
	filter      string
	maxProducts int
	timeout     time.Duration
}

func newAnalyzeCommand(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a channel-fit analysis for one tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.tenant, "tenant", "t", "", "tenant identifier (required)")
	f.IntVar(&opts.lookback, "lookback", 0, "lookback window in days (30, 60 or 90)")
	f.StringVar(&opts.filter, "filter", "", "product title filter")
	f.IntVar(&opts.maxProducts, "max-products", 0, "maximum products to analyze")
	f.DurationVar(&opts.timeout, "timeout", 60*time.Second, "overall command timeout")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func runAnalyze(ctx context.Context, root *rootOptions, opts *analyzeOptions) error {
	cfg, log, err := root.loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	conn, err := postgres.NewConnection(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	redisClient, err := redis.NewClient(cfg.Redis, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, log, redis.WithPrefix(cfg.Redis.KeyPrefix))

	pseudo, err := benchmark.NewPseudonymizer(cfg.Privacy)
	if err != nil {
		return err
	}

	repo := repositories.NewAnalyticsRepository(conn.Pool(), log)
	extractor := signals.NewExtractor(repo, log, cfg.Engine.FetchTimeout)
	builder := benchmark.NewBuilder(repo, cache, pseudo, log, cfg.Engine.MinContributors, cfg.Engine.BenchmarkTTL)
	scorer := scoring.NewScorer(cfg.Engine.BenchmarkWeight)

	svc := analysis.NewService(cfg.Engine, extractor, builder, scorer, repo, pseudo, nil, log)

	report, err := svc.Analyze(ctx, analysis.Request{
		TenantID:      common.TenantID(opts.tenant),
		LookbackDays:  opts.lookback,
		ProductFilter: opts.filter,
		MaxProducts:   opts.maxProducts,
	})
	if err != nil {
		return err
	}

	return printReport(root.output, report)
}

func printReport(format string, report *market.Report) error {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("Channel-fit analysis (%s, %s phase)\n", report.PeriodLabel, report.Phase)
	fmt.Printf("Products analyzed: %d\n\n", report.ProductsAnalyzed)

	for _, p := range report.Products {
		fmt.Printf("%s [%s] health=%s\n", p.ProductTitle, p.ClusterKey, p.Health)
		for _, s := range p.ChannelScores {
			fmt.Printf("  #%d %-10s fit=%5.1f conf=%5.1f %s\n",
				s.Rank, s.Marketplace, s.FitScore, s.Confidence, s.Label)
		}
		for _, r := range p.Recommendations {
			fmt.Printf("  [%s/%s] %s\n", r.Type, r.Urgency, r.Reasoning)
		}
		fmt.Println()
	}

	if len(report.TopRecommendations) > 0 {
		fmt.Println("Top recommendations:")
		for i, r := range report.TopRecommendations {
			fmt.Printf("  %d. [%s/%s] %s — %s\n", i+1, r.Type, r.Urgency, r.ProductTitle, r.Reasoning)
		}
	}
	return nil
}
