package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"etrade-assistant/internal/creds"
	"etrade-assistant/internal/etrade"
	"etrade-assistant/internal/interfaces"
	"etrade-assistant/internal/llm"
	"etrade-assistant/internal/logger"
	"etrade-assistant/internal/news"
	"etrade-assistant/internal/sim"
	"etrade-assistant/internal/store"
	"etrade-assistant/internal/trace"
)

var configPath string

// initializeSystem initializes environment, logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracer
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// app holds the wired-up components every command draws from.
type app struct {
	cfg         *store.Config
	creds       *creds.Store
	sessions    *etrade.SessionFacade
	market      *etrade.MarketClient
	trade       *etrade.TradeClient
	recommender interfaces.Recommender
	news        *news.Service
	userCfg     *store.UserConfig
	portfolio   *store.Portfolio
	simulator   *sim.Simulator
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}

	credStore := creds.NewDefault()
	endpoints := etrade.ForEnvironment(cfg.Environment)
	if cfg.Environment != "LIVE" {
		logger.Info(ctx, "Running against the SANDBOX environment")
	}

	sessions := etrade.NewSessionFacade(etrade.FacadeParams{
		Store:      credStore,
		Endpoints:  endpoints,
		Verifier:   newConsoleVerifier(),
		IdleWindow: time.Duration(cfg.Auth.IdleMinutes) * time.Minute,
	})
	market := etrade.NewMarketClient(sessions)

	newsSvc := news.NewService(market, &news.ServiceConfig{
		MaxItems:       cfg.News.MaxItems,
		CacheDuration:  time.Duration(cfg.News.CacheMinutes) * time.Minute,
		ScraperTimeout: 30 * time.Second,
		Enabled:        true,
	})

	portfolio := store.NewPortfolio(ctx, cfg.Simulation.PortfolioFile)

	return &app{
		cfg:         cfg,
		creds:       credStore,
		sessions:    sessions,
		market:      market,
		trade:       etrade.NewTradeClient(sessions),
		recommender: llm.NewRecommender(ctx, cfg),
		news:        newsSvc,
		userCfg:     store.NewUserConfig(ctx, cfg.UserConfigFile),
		portfolio:   portfolio,
		simulator: sim.NewSimulator(sim.Params{
			Portfolio:    portfolio,
			Market:       market,
			DefaultPrice: cfg.Simulation.DefaultPrice,
		}),
	}, nil
}
