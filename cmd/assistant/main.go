package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"etrade-assistant/internal/trace"
)

func main() {
	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = trace.Shutdown(context.Background()) }()

	rootCmd := &cobra.Command{
		Use:   "assistant",
		Short: "Desktop trading assistant for E*TRADE",
		Long: `An AI-assisted trading companion. It authenticates against the
brokerage with OAuth, pulls quotes, history and news, asks a locally
served model for a structured recommendation, and executes trades either
live or against a simulated local portfolio.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the configuration file")

	rootCmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newQuoteCmd(),
		newAnalyzeCmd(),
		newPortfolioCmd(),
		newTradeCmd(),
		newReconcileCmd(),
		newRiskCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
