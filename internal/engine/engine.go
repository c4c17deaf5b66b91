// Package engine wires the candle buffer, persistence, strategy, circuit
// breakers, position manager, and executor into the live polling loop.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"solswing/internal/candle"
	"solswing/internal/executor"
	"solswing/internal/models"
	"solswing/internal/oracle"
	"solswing/internal/position"
	"solswing/internal/strategy"
)

// TokenConfig binds a token to the strategy that trades it.
type TokenConfig struct {
	Token    models.Token
	Strategy strategy.Strategy
}

// TimeSeriesStore is the subset of persistence.TimeSeriesStore the engine
// depends on, narrowed to an interface so it can run against a fake store in
// tests.
type TimeSeriesStore interface {
	LoadCandles(ctx context.Context, token string, hoursBack int) ([]models.Candle, error)
	SaveCandles(ctx context.Context, token string, candles []models.Candle) error
}

// RelationalStore is the subset of persistence.RelationalStore the engine
// depends on.
type RelationalStore interface {
	LoadPositions(ctx context.Context) ([]models.Position, error)
	SavePosition(ctx context.Context, p models.Position) error
}

// Engine runs the periodic poll loop: fetch prices, append candles,
// check exits, generate signals, execute decisions.
type Engine struct {
	log              zerolog.Logger
	prices           oracle.PriceOracle
	timeSeries       TimeSeriesStore
	relational       RelationalStore
	buffer           *candle.Buffer
	manager          *position.Manager
	breakers         models.CircuitBreakers
	tokens           []TokenConfig
	pollInterval     time.Duration
	lookbackHours    int
}

// Config bundles an Engine's construction parameters.
type Config struct {
	Logger              zerolog.Logger
	Prices              oracle.PriceOracle
	TimeSeries          TimeSeriesStore
	Relational          RelationalStore
	Tokens              []TokenConfig
	PollIntervalMinutes int
	LookbackHours       int
	InitialPortfolio    float64
	Breakers            models.CircuitBreakers
	BufferCapacity      int
}

// New constructs an Engine. Startup state restoration (buffer preload,
// position manager rebuild) happens in Bootstrap, not here, so construction
// never blocks on I/O.
func New(cfg Config) *Engine {
	return &Engine{
		log:           cfg.Logger,
		prices:        cfg.Prices,
		timeSeries:    cfg.TimeSeries,
		relational:    cfg.Relational,
		buffer:        candle.NewBuffer(cfg.BufferCapacity),
		manager:       position.NewManager(cfg.InitialPortfolio),
		breakers:      cfg.Breakers,
		tokens:        cfg.Tokens,
		pollInterval:  time.Duration(cfg.PollIntervalMinutes) * time.Minute,
		lookbackHours: cfg.LookbackHours,
	}
}

// Bootstrap loads persisted history into the buffer and persisted positions
// into the position manager before the loop starts.
func (e *Engine) Bootstrap(ctx context.Context) error {
	for _, tc := range e.tokens {
		candles, err := e.timeSeries.LoadCandles(ctx, tc.Token.Symbol, e.lookbackHours)
		if err != nil {
			e.log.Warn().Err(err).Str("token", tc.Token.Symbol).Msg("failed to preload candle history")
			continue
		}
		for _, c := range candles {
			e.buffer.Add(c)
		}
	}

	positions, err := e.relational.LoadPositions(ctx)
	if err != nil {
		return err
	}
	var open, closed []models.Position
	for _, p := range positions {
		if p.Status == models.StatusOpen {
			open = append(open, p)
		} else {
			closed = append(closed, p)
		}
	}
	e.manager = position.WithPositions(e.manager.State().PortfolioValue, open, closed)
	return nil
}

// Run blocks, ticking every poll interval until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// tick runs one full cycle: an independent price fetch per token, one token
// after another, then a serial decision phase. Fetch failures for one token
// never abort the tick for the others.
func (e *Engine) tick(ctx context.Context) {
	now := time.Now().UTC()
	if last := e.manager.State().LastReset.UTC(); now.Year() != last.Year() || now.YearDay() != last.YearDay() {
		e.manager.ResetDaily(now)
	}
	prices := make(map[string]float64, len(e.tokens))

	for _, tc := range e.tokens {
		price, err := e.prices.GetPrice(ctx, tc.Token.Symbol)
		if err != nil {
			e.log.Warn().Err(err).Str("token", tc.Token.Symbol).Msg("price fetch failed, skipping token this tick")
			continue
		}
		prices[tc.Token.Symbol] = price

		c := models.Candle{
			Token: tc.Token.Symbol, Timestamp: now,
			Open: price, High: price, Low: price, Close: price, Volume: 0,
		}
		e.buffer.Add(c)
		if err := e.timeSeries.SaveCandles(ctx, tc.Token.Symbol, []models.Candle{c}); err != nil {
			e.log.Error().Err(err).Str("token", tc.Token.Symbol).Msg("candle write-through failed")
		}
	}

	exitPrices := make(map[string]float64, len(prices))
	for _, tc := range e.tokens {
		if price, ok := prices[tc.Token.Symbol]; ok && !tc.Strategy.SkipAutomaticExits() {
			exitPrices[tc.Token.Symbol] = price
		}
	}
	closedExits := e.manager.CheckExitsAt(now, exitPrices)
	for _, p := range closedExits {
		e.log.Info().Str("token", p.Token).Str("reason", string(*p.ExitReason)).Msg("position closed on exit")
		e.persistPosition(ctx, p)
	}

	for _, tc := range e.tokens {
		price, ok := prices[tc.Token.Symbol]
		if !ok {
			continue
		}
		history := e.buffer.Get(tc.Token.Symbol)
		if len(history) < tc.Strategy.SamplesNeeded(int(e.pollInterval.Minutes())) {
			continue
		}
		e.decide(ctx, now, tc, history, price)
	}

	e.log.Info().Float64("portfolio_value", e.manager.PortfolioValue(prices)).Int("open_positions", len(e.manager.OpenTokens())).Msg("tick summary")
}

func (e *Engine) decide(ctx context.Context, now time.Time, tc TokenConfig, history []models.Candle, price float64) {
	signal, err := tc.Strategy.GenerateSignal(history)
	if err != nil {
		e.log.Warn().Err(err).Str("token", tc.Token.Symbol).Msg("signal generation failed")
		return
	}

	action := executor.ProcessSignal(e.manager, e.breakers, signal, tc.Token.Symbol, price)
	switch action.Kind {
	case executor.ActionExecute:
		p, err := e.manager.OpenPositionAt(now, tc.Token.Symbol, price, action.Quantity, tc.Strategy.SupportsAccumulation())
		if err != nil {
			e.log.Error().Err(err).Str("token", tc.Token.Symbol).Msg("failed to open position")
			return
		}
		e.log.Info().Str("token", tc.Token.Symbol).Float64("price", price).Msg("position opened")
		e.persistPosition(ctx, *p)
	case executor.ActionClose:
		p, err := e.manager.ClosePositionAt(now, tc.Token.Symbol, price, action.ExitReason)
		if err != nil {
			e.log.Error().Err(err).Str("token", tc.Token.Symbol).Msg("failed to close position")
			return
		}
		e.log.Info().Str("token", tc.Token.Symbol).Str("reason", string(action.ExitReason)).Msg("position closed on signal")
		e.persistPosition(ctx, p)
	case executor.ActionSkip:
		e.log.Debug().Str("token", tc.Token.Symbol).Str("reason", action.Reason).Msg("signal skipped")
	}
}

func (e *Engine) persistPosition(ctx context.Context, p models.Position) {
	if err := e.relational.SavePosition(ctx, p); err != nil {
		e.log.Error().Err(err).Str("position_id", p.ID.String()).Msg("failed to persist position")
	}
}
