// Command live runs the periodic polling engine: fetch prices, maintain
// candle history, evaluate strategies, execute decisions, and persist
// everything to Redis and Postgres.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"solswing/config"
	"solswing/internal/engine"
	"solswing/internal/models"
	"solswing/internal/oracle"
	"solswing/internal/persistence"
	"solswing/internal/strategy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	configureLogging(cfg.LoggingConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	timeSeries, err := persistence.NewTimeSeriesStore(ctx, cfg.PersistenceConfig.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer timeSeries.Close()

	relational, err := persistence.NewRelationalStore(ctx, cfg.PersistenceConfig.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer relational.Close()

	tokens, err := relational.LoadTrackedTokens(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load tracked tokens")
	}
	if len(tokens) == 0 {
		for _, symbol := range cfg.TradingConfig.Tokens {
			tokens = append(tokens, models.Token{Symbol: symbol})
		}
	}

	strat := buildStrategy(cfg.TradingConfig.Strategy, cfg.TradingConfig.PollIntervalMinutes)
	tokenConfigs := make([]engine.TokenConfig, len(tokens))
	for i, tok := range tokens {
		tokenConfigs[i] = engine.TokenConfig{Token: tok, Strategy: strat}
	}

	eng := engine.New(engine.Config{
		Logger:              log.Logger,
		Prices:              oracle.NewHTTPPriceOracle("https://api.coingecko.com/api/v3/simple/price"),
		TimeSeries:          timeSeries,
		Relational:          relational,
		Tokens:              tokenConfigs,
		PollIntervalMinutes: cfg.TradingConfig.PollIntervalMinutes,
		LookbackHours:       cfg.TradingConfig.LookbackHours,
		InitialPortfolio:    cfg.TradingConfig.InitialPortfolioValue,
		Breakers: models.CircuitBreakers{
			MaxDailyLossPct:      cfg.RiskConfig.MaxDailyLossPct,
			MaxDrawdownPct:       cfg.RiskConfig.MaxDrawdownPct,
			MaxConsecutiveLosses: cfg.RiskConfig.MaxConsecutiveLosses,
			MaxPositionSizePct:   cfg.RiskConfig.MaxPositionSizePct,
			MaxDailyTrades:       cfg.RiskConfig.MaxDailyTrades,
		},
		BufferCapacity: cfg.TradingConfig.BufferCapacity,
	})

	if err := eng.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap engine")
	}

	log.Info().Int("tokens", len(tokenConfigs)).Str("strategy", strat.Name()).Msg("engine starting")
	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("engine exited with error")
	}
}

func buildStrategy(name string, pollIntervalMinutes int) strategy.Strategy {
	switch name {
	case "mean_reversion":
		return strategy.NewMeanReversion(strategy.DefaultMeanReversionConfig())
	case "buy_and_hold":
		return strategy.BuyAndHold{}
	case "dca":
		return strategy.NewDCA(168)
	default:
		cfg := strategy.DefaultMomentumConfig()
		cfg.PollIntervalMinutes = pollIntervalMinutes
		return strategy.NewMomentum(cfg)
	}
}

func configureLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if !cfg.JSONFormat {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
