package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikeboe/sensight/pkg/config"
	"github.com/mikeboe/sensight/pkg/market"
	"github.com/mikeboe/sensight/pkg/research"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "sensight",
		Short: "Turn raw project notes into an investor-ready business report",
		Long: `Sensight collects project information, optionally looks up market data,
and asks an LLM to write a structured Markdown report (executive summary,
business plan, market analysis or investor pitch) that can be exported to
Word, PowerPoint or Excel.

The model credential is read from GOOGLE_API_KEY / GEMINI_API_KEY or
OPENAI_API_KEY, never from a flag.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			// Logs go to stderr so stdout only carries the report.
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress to stderr")

	rootCmd.AddCommand(newGenerateCmd(), newModelsCmd(), newSearchCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func loadEngine() (*config.Config, *research.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	engine, err := research.NewEngine(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, engine, nil
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models the configured credential can generate with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, engine, err := loadEngine()
			if err != nil {
				return err
			}
			models, err := engine.ListModels(cmd.Context(), cfg.APIKeyFor(cfg.Provider))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range models {
				if m.DisplayName != "" {
					fmt.Fprintf(out, "%s\t%s\n", m.Name, m.DisplayName)
					continue
				}
				fmt.Fprintln(out, m.Name)
			}
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <topic>",
		Short: "Show the market data a report would be grounded on",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, engine, err := loadEngine()
			if err != nil {
				return err
			}
			outcome := engine.SearchMarket(cmd.Context(), strings.Join(args, " "))
			if outcome.Status != market.StatusOK {
				slog.Warn("Market data degraded", "reason", outcome.Reason)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, outcome.Text())
			for _, s := range outcome.Sources {
				fmt.Fprintf(out, "- %s <%s>\n", s.Title, s.URL)
			}
			return nil
		},
	}
}
