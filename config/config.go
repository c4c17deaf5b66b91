package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	TradingConfig     TradingConfig     `json:"trading"`
	RiskConfig        RiskConfig        `json:"risk"`
	PersistenceConfig PersistenceConfig `json:"persistence"`
	AIConfig          AIConfig          `json:"ai"`
	BacktestConfig    BacktestConfig    `json:"backtest"`
	LoggingConfig     LoggingConfig     `json:"logging"`
}

// TradingConfig governs the live poll loop.
type TradingConfig struct {
	PollIntervalMinutes int      `json:"poll_interval_minutes"`
	LookbackHours       int      `json:"lookback_hours"`
	BufferCapacity      int      `json:"buffer_capacity"`
	InitialPortfolioValue float64 `json:"initial_portfolio_value"`
	Tokens              []string `json:"tokens"`
	Strategy            string   `json:"strategy"` // momentum, mean_reversion, buy_and_hold, dca
}

// RiskConfig mirrors models.CircuitBreakers; kept as a separate config type
// so defaults and env overrides don't leak into the domain model.
type RiskConfig struct {
	MaxDailyLossPct      float64 `json:"max_daily_loss_pct"`
	MaxDrawdownPct       float64 `json:"max_drawdown_pct"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	MaxPositionSizePct   float64 `json:"max_position_size_pct"`
	MaxDailyTrades       int     `json:"max_daily_trades"`
}

// PersistenceConfig holds connection settings for the two storage backends.
type PersistenceConfig struct {
	RedisURL    string `json:"redis_url"`
	DatabaseURL string `json:"database_url"`
}

// AIConfig holds settings for the LLM regime/strategy-selector overlay. It is
// loaded here but neither cmd/live nor cmd/backtest reads it.
type AIConfig struct {
	Enabled    bool   `json:"enabled"`
	OpenAIAPIKey string `json:"openai_api_key"`
	Model      string `json:"model"`
}

// BacktestConfig holds settings used by the backtest binary; it has no
// command-line flag of its own.
type BacktestConfig struct {
	TransactionCostPct float64 `json:"transaction_cost_pct"`
}

type LoggingConfig struct {
	Level      string `json:"level"` // debug, info, warn, error
	JSONFormat bool   `json:"json_format"`
}

// Load reads config.json if present, then applies environment variable
// overrides (which always take precedence).
func Load() (*Config, error) {
	cfg, err := loadFromFile("config.json")
	if err != nil {
		cfg = &Config{}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.TradingConfig.PollIntervalMinutes = getEnvIntOrDefault("POLL_INTERVAL_MINUTES", orDefault(cfg.TradingConfig.PollIntervalMinutes, 5))
	cfg.TradingConfig.LookbackHours = getEnvIntOrDefault("LOOKBACK_HOURS", orDefault(cfg.TradingConfig.LookbackHours, 48))
	cfg.TradingConfig.BufferCapacity = getEnvIntOrDefault("BUFFER_CAPACITY", orDefault(cfg.TradingConfig.BufferCapacity, 500))
	cfg.TradingConfig.InitialPortfolioValue = getEnvFloatOrDefault("INITIAL_PORTFOLIO_VALUE", orDefaultFloat(cfg.TradingConfig.InitialPortfolioValue, 10000))
	cfg.TradingConfig.Strategy = getEnvOrDefault("STRATEGY", orDefaultString(cfg.TradingConfig.Strategy, "momentum"))

	cfg.RiskConfig.MaxDailyLossPct = getEnvFloatOrDefault("MAX_DAILY_LOSS_PCT", orDefaultFloat(cfg.RiskConfig.MaxDailyLossPct, 0.05))
	cfg.RiskConfig.MaxDrawdownPct = getEnvFloatOrDefault("MAX_DRAWDOWN_PCT", orDefaultFloat(cfg.RiskConfig.MaxDrawdownPct, 0.20))
	cfg.RiskConfig.MaxConsecutiveLosses = getEnvIntOrDefault("MAX_CONSECUTIVE_LOSSES", orDefault(cfg.RiskConfig.MaxConsecutiveLosses, 5))
	cfg.RiskConfig.MaxPositionSizePct = getEnvFloatOrDefault("MAX_POSITION_SIZE_PCT", orDefaultFloat(cfg.RiskConfig.MaxPositionSizePct, 0.05))
	cfg.RiskConfig.MaxDailyTrades = getEnvIntOrDefault("MAX_DAILY_TRADES", orDefault(cfg.RiskConfig.MaxDailyTrades, 10))

	cfg.PersistenceConfig.RedisURL = getEnvOrDefault("REDIS_URL", orDefaultString(cfg.PersistenceConfig.RedisURL, "localhost:6379"))
	cfg.PersistenceConfig.DatabaseURL = getEnvOrDefault("DATABASE_URL", cfg.PersistenceConfig.DatabaseURL)

	cfg.AIConfig.Enabled = getEnvOrDefault("ENABLE_LLM_OVERLAY", strconv.FormatBool(cfg.AIConfig.Enabled)) == "true"
	cfg.AIConfig.OpenAIAPIKey = getEnvOrDefault("OPENAI_API_KEY", cfg.AIConfig.OpenAIAPIKey)
	cfg.AIConfig.Model = getEnvOrDefault("AI_MODEL", orDefaultString(cfg.AIConfig.Model, "gpt-4o-mini"))

	cfg.BacktestConfig.TransactionCostPct = getEnvFloatOrDefault("TRANSACTION_COST_PCT", orDefaultFloat(cfg.BacktestConfig.TransactionCostPct, 0.001))

	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", orDefaultString(cfg.LoggingConfig.Level, "info"))
	cfg.LoggingConfig.JSONFormat = getEnvOrDefault("LOG_JSON", "true") == "true"
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return &config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
