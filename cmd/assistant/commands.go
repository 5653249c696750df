package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"etrade-assistant/internal/etrade"
	"etrade-assistant/internal/sim"
	"etrade-assistant/internal/types"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the brokerage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}

			if !app.creds.HaveConsumerCredentials() {
				if err := promptConsumerCredentials(app); err != nil {
					return err
				}
			}

			if _, err := app.sessions.GetSession(ctx); err != nil {
				if errors.Is(err, etrade.ErrUserCancelled) {
					fmt.Println("Login cancelled.")
					return nil
				}
				return err
			}

			fmt.Println("Logged in.")
			if id, _ := app.sessions.AccountID(ctx); id != "" {
				fmt.Println("Default account:", id)
			}
			return nil
		},
	}
}

func promptConsumerCredentials(app *app) error {
	var key, secret string
	if err := survey.AskOne(&survey.Input{Message: "Consumer key:"}, &key, survey.WithValidator(survey.Required)); err != nil {
		return err
	}
	if err := survey.AskOne(&survey.Password{Message: "Consumer secret:"}, &secret, survey.WithValidator(survey.Required)); err != nil {
		return err
	}
	return app.creds.SetConsumerCredentials(strings.TrimSpace(key), strings.TrimSpace(secret))
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove all stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			app.creds.ClearAll()
			fmt.Println("Stored credentials removed.")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication and configuration state",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println("Environment:   ", app.cfg.Environment)
			fmt.Println("Consumer keys: ", yesNo(app.creds.HaveConsumerCredentials()))
			fmt.Println("Token state:   ", app.sessions.State())
			fmt.Println("Risk profile:  ", app.userCfg.RiskProfile())
			return nil
		},
	}
}

func newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote SYMBOL",
		Short: "Fetch a real-time quote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}

			quote, err := app.market.Quote(ctx, strings.ToUpper(args[0]))
			if err != nil {
				return err
			}

			fmt.Printf("%s  last %.2f (%+.2f%%)\n", quote.Symbol, quote.LastPrice, quote.ChangePct)
			fmt.Printf("bid %.2f  ask %.2f  high %.2f  low %.2f  volume %d\n",
				quote.Bid, quote.Ask, quote.High, quote.Low, quote.Volume)
			return nil
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Generate an AI recommendation for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}

			symbol := strings.ToUpper(args[0])
			rec, err := analyze(ctx, app, symbol)
			if err != nil {
				return err
			}
			printRecommendation(rec)
			return nil
		},
	}
}

// analyze gathers market data for the symbol and asks the model. Missing
// quote, history or news degrade the analysis instead of aborting it.
func analyze(ctx context.Context, app *app, symbol string) (types.Recommendation, error) {
	input := types.AnalysisInput{
		Ticker:      symbol,
		RiskProfile: app.userCfg.RiskProfile(),
	}

	quote, err := app.market.Quote(ctx, symbol)
	if err != nil {
		fmt.Printf("warning: no quote for %s: %v\n", symbol, err)
	} else {
		input.Quote = quote
	}

	history, err := app.market.History(ctx, symbol, "DAILY", "1m")
	if err == nil {
		input.History = history
	}
	input.News = app.news.Headlines(ctx, symbol)

	return app.recommender.Recommend(ctx, input)
}

func printRecommendation(rec types.Recommendation) {
	fmt.Println("Ticker:       ", rec.Ticker)
	fmt.Printf("Confidence:    %d%%\n", rec.Confidence)
	fmt.Println("Risk Level:   ", rec.RiskLevel)
	fmt.Println("Action:       ", rec.Action)
	fmt.Println("Time Horizon: ", rec.TimeHorizon)
	fmt.Println("Reasoning:    ", rec.Reasoning)
}

func newPortfolioCmd() *cobra.Command {
	var live bool
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Show the simulated (default) or live portfolio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}

			var positions []types.Position
			if live {
				positions, err = livePositions(ctx, app)
				if err != nil {
					return err
				}
			} else {
				positions = app.portfolio.Positions()
			}

			if len(positions) == 0 {
				fmt.Println("No positions.")
				return nil
			}
			for _, p := range positions {
				fmt.Printf("%-8s %6d shares  avg cost %s\n", p.Symbol, p.Quantity, p.CostBasis.StringFixed(2))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "show live brokerage positions instead of the simulated portfolio")
	return cmd
}

func livePositions(ctx context.Context, app *app) ([]types.Position, error) {
	accountID, err := app.sessions.AccountID(ctx)
	if err != nil {
		return nil, err
	}
	if accountID == "" {
		return nil, errors.New("no brokerage account available on this login")
	}
	return app.trade.Portfolio(ctx, accountID)
}

func newTradeCmd() *cobra.Command {
	var (
		action   string
		quantity int64
		live     bool
	)
	cmd := &cobra.Command{
		Use:   "trade SYMBOL",
		Short: "Execute a trade, simulated by default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			symbol := strings.ToUpper(args[0])

			if !live {
				trade, err := app.simulator.Execute(ctx, symbol, action, quantity)
				if err != nil {
					return err
				}
				fmt.Printf("SIMULATED %s %d %s @ %s\n",
					trade.Action, trade.Quantity, trade.Symbol, trade.Price.StringFixed(2))
				return nil
			}

			accountID, err := app.sessions.AccountID(ctx)
			if err != nil {
				return err
			}
			if accountID == "" {
				return errors.New("no brokerage account available on this login")
			}

			confirmed := false
			prompt := &survey.Confirm{
				Message: fmt.Sprintf("Place LIVE order: %s %d %s?", strings.ToUpper(action), quantity, symbol),
			}
			if err := survey.AskOne(prompt, &confirmed); err != nil || !confirmed {
				fmt.Println("Order not placed.")
				return nil
			}

			result, err := app.trade.PlaceEquityOrder(ctx, types.OrderReq{
				AccountID: accountID,
				Symbol:    symbol,
				Action:    action,
				Quantity:  quantity,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Order %s: %s\n", result.Status, result.OrderID)
			return nil
		},
	}
	cmd.Flags().StringVar(&action, "action", "", "BUY or SELL")
	cmd.Flags().Int64Var(&quantity, "quantity", 0, "number of shares")
	cmd.Flags().BoolVar(&live, "live", false, "place a real order instead of simulating")
	_ = cmd.MarkFlagRequired("action")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Compare the simulated portfolio against live positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}

			live, err := livePositions(ctx, app)
			if err != nil {
				return err
			}

			drifts := sim.Reconcile(app.portfolio.Positions(), live)
			if len(drifts) == 0 {
				fmt.Println("Simulated portfolio matches live positions.")
				return nil
			}
			fmt.Printf("%-8s %10s %10s %10s\n", "SYMBOL", "LOCAL", "LIVE", "DELTA")
			for _, d := range drifts {
				fmt.Printf("%-8s %10d %10d %+10d\n", d.Symbol, d.LocalQty, d.LiveQty, d.Delta())
			}
			return nil
		},
	}
}

func newRiskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "risk [Low|Medium|High]",
		Short: "Show or set the risk profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				fmt.Println("Risk profile:", app.userCfg.RiskProfile())
				return nil
			}

			profile := parseRiskProfile(args[0])
			if err := app.userCfg.SetRiskProfile(ctx, profile); err != nil {
				return err
			}
			fmt.Println("Risk profile set to", profile)
			return nil
		},
	}
}

func parseRiskProfile(arg string) types.RiskProfile {
	switch strings.ToLower(arg) {
	case "low":
		return types.RiskLow
	case "medium":
		return types.RiskMedium
	case "high":
		return types.RiskHigh
	}
	return types.RiskProfile(arg)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
