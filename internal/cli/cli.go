// Package cli provides the marketsense command-line interface.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/cloudwego/eino-ext/devops"
	"github.com/spf13/cobra"

	"marketsense/internal/agent"
	"marketsense/internal/config"
	"marketsense/internal/dataflows"
	"marketsense/internal/llm"
	"marketsense/internal/logger"
	"marketsense/internal/rag"
)

func NewRootCmd() *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "marketsense",
		Short: "LLM-assisted buy/sell/hold analysis for a single equity position",
		Long: `marketsense runs a fixed five-stage analysis pipeline over a free-text
position description: parse the position, fetch the price, summarize the
news, retrieve 10-K risk factors, and synthesize a recommendation.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "start the eino visual debug server")

	rootCmd.AddCommand(newAnalyzeCmd(&debug))
	rootCmd.AddCommand(newMoversCmd())
	rootCmd.AddCommand(newClearCacheCmd())
	return rootCmd
}

func newAnalyzeCmd(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [position description]",
		Short: "Analyze a position and print a BUY/SELL/HOLD recommendation",
		Example: `  marketsense analyze "I bought 50 shares of NVDA at \$120"
  marketsense analyze`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := logger.Init(); err != nil {
				return err
			}
			defer logger.Shutdown(context.Background())

			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			if *debug {
				if err := devops.Init(ctx); err != nil {
					logger.Warn(ctx, "eino debug server failed to start", "error", err)
				}
			}

			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				prompt := &survey.Input{
					Message: "Describe your position:",
					Help:    `Example: "I bought 50 shares of NVDA at $120"`,
				}
				if err := survey.AskOne(prompt, &query); err != nil {
					return err
				}
			}

			pipeline, err := buildPipeline(ctx, cfg)
			if err != nil {
				return err
			}

			pos, err := pipeline.Analyze(ctx, query)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), RenderAnalysis(pos))
			return nil
		},
	}
}

func newMoversCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "movers [ticker]",
		Short: "Show the market watch sidebar (watchlist or one ticker)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			quotes := dataflows.NewYahooClient()

			if len(args) == 1 {
				mover, err := quotes.Mover(ctx, args[0])
				if err != nil {
					return fmt.Errorf("ticker %s not found: %w", strings.ToUpper(args[0]), err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), RenderMover(*mover))
				return nil
			}

			movers, err := quotes.TopMovers(ctx)
			if err != nil {
				return err
			}
			for _, m := range movers {
				fmt.Fprintln(cmd.OutOrStdout(), RenderMover(m))
			}
			return nil
		},
	}
}

func newClearCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache <ticker>",
		Short: "Evict the cached filing index for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store := rag.NewStore(cfg.FilingIndexDir, nil, nil)
			if err := store.Evict(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared filing index for %s\n", strings.ToUpper(args[0]))
			return nil
		},
	}
}

func buildPipeline(ctx context.Context, cfg *config.Config) (*agent.Pipeline, error) {
	mdl, err := llm.NewModels(ctx, cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := llm.NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	quotes := dataflows.NewYahooClient()
	news := dataflows.NewTavilyClient(cfg.TavilyAPIKey, cfg.MaxNewsResults)
	filings := rag.NewStore(cfg.FilingIndexDir, rag.NewEdgarClient(cfg.EdgarUserAgent), llm.ChromemEmbedding(embedder))

	return agent.NewPipeline(ctx, mdl, quotes, news, filings)
}
