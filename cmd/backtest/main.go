// Command backtest runs a single strategy against a historical candle file
// and prints the resulting performance metrics.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"solswing/config"
	"solswing/internal/backtest"
	"solswing/internal/models"
	"solswing/internal/strategy"
)

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// candleRecord is the on-disk JSON shape for historical candles: RFC3339
// timestamps and plain floats, independent of any storage backend.
type candleRecord struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func main() {
	candlesPath := flag.String("candles", "", "path to a JSON file of historical candles")
	token := flag.String("token", "SOL", "token symbol under test")
	strategyName := flag.String("strategy", "momentum", "momentum | mean_reversion | buy_and_hold | dca")
	pollIntervalMinutes := flag.Int("poll-interval-minutes", 5, "candle spacing in minutes")
	flag.Parse()

	if *candlesPath == "" {
		fmt.Fprintln(os.Stderr, "usage: backtest -candles <file.json> [-token SOL] [-strategy momentum]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	candles, err := loadCandles(*candlesPath, *token)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load candle file")
	}

	strat := selectStrategy(*strategyName, *pollIntervalMinutes)

	runner := &backtest.Runner{
		Strategy:            strat,
		Token:               *token,
		PollIntervalMinutes: *pollIntervalMinutes,
		TransactionCostPct:  cfg.BacktestConfig.TransactionCostPct,
		InitialPortfolio:    cfg.TradingConfig.InitialPortfolioValue,
		Breakers: models.CircuitBreakers{
			MaxDailyLossPct:      cfg.RiskConfig.MaxDailyLossPct,
			MaxDrawdownPct:       cfg.RiskConfig.MaxDrawdownPct,
			MaxConsecutiveLosses: cfg.RiskConfig.MaxConsecutiveLosses,
			MaxPositionSizePct:   cfg.RiskConfig.MaxPositionSizePct,
			MaxDailyTrades:       cfg.RiskConfig.MaxDailyTrades,
		},
	}

	result, err := runner.Run(candles)
	if err != nil {
		log.Fatal().Err(err).Msg("backtest run failed")
	}

	fmt.Println(result.Metrics.FormatReport())
}

func loadCandles(path, token string) ([]models.Candle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read candle file: %w", err)
	}
	var records []candleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse candle file: %w", err)
	}

	out := make([]models.Candle, len(records))
	for i, r := range records {
		ts, err := parseTimestamp(r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp at record %d: %w", i, err)
		}
		out[i] = models.Candle{
			Token: token, Timestamp: ts,
			Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume,
		}
	}
	return out, nil
}

func selectStrategy(name string, pollIntervalMinutes int) strategy.Strategy {
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
