package regime

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"solswing/internal/models"
	"solswing/internal/oracle"
)

// minRequestInterval is the floor between consecutive LLM calls, shared
// across all three overlay operations.
const minRequestInterval = 2500 * time.Millisecond

// Overlay wraps an LLM chat transport with the three operations the engine
// can ask of it: regime detection, strategy selection with context, and
// direct entry/exit trading-signal generation. Every call is rate-limited,
// retried with exponential backoff, and memoized by the candle's ISO
// timestamp so a re-evaluation of the same bar never re-queries the model.
type Overlay struct {
	transport oracle.ChatTransport
	limiter   *rate.Limiter
	maxRetries uint64

	mu    sync.Mutex
	cache map[string]string
}

// NewOverlay constructs an overlay around a chat transport, rate-limited to
// one request per minRequestInterval with up to 3 retries on failure.
func NewOverlay(transport oracle.ChatTransport) *Overlay {
	return &Overlay{
		transport:  transport,
		limiter:    rate.NewLimiter(rate.Every(minRequestInterval), 1),
		maxRetries: 3,
		cache:      make(map[string]string),
	}
}

// cacheKey combines the operation and the candle's ISO timestamp so the
// three operations never collide in the same cache.
func cacheKey(op string, candleTime time.Time) string {
	return op + "|" + candleTime.UTC().Format(time.RFC3339)
}

func (o *Overlay) call(ctx context.Context, op string, candleTime time.Time, messages []oracle.ChatMessage) (string, error) {
	key := cacheKey(op, candleTime)

	o.mu.Lock()
	if cached, ok := o.cache[key]; ok {
		o.mu.Unlock()
		return cached, nil
	}
	o.mu.Unlock()

	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	var response string
	operation := func() error {
		resp, err := o.transport.Chat(ctx, messages)
		if err != nil {
			return err
		}
		response = resp
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), o.maxRetries)
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return "", fmt.Errorf("llm call failed after retries: %w", err)
	}

	o.mu.Lock()
	o.cache[key] = response
	o.mu.Unlock()
	return response, nil
}

func stripMarkdownFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// RegimeResult is the overlay's regime-detection response.
type RegimeResult struct {
	Regime     models.MarketRegime
	Confidence float64
}

func parseRegimeString(s string) models.MarketRegime {
	switch strings.TrimSpace(s) {
	case string(models.RegimeBullTrend), string(models.RegimeBearCrash), string(models.RegimeChoppyClear), string(models.RegimeChoppyUnclear):
		return models.MarketRegime(s)
	default:
		return models.RegimeChoppyUnclear
	}
}

// DetectRegime asks the model to classify the current regime from a
// market-condition summary prompt. An unrecognized regime string falls back
// to ChoppyUnclear rather than propagating a parse error.
func (o *Overlay) DetectRegime(ctx context.Context, candleTime time.Time, prompt string) (RegimeResult, error) {
	raw, err := o.call(ctx, "regime", candleTime, []oracle.ChatMessage{
		{Role: "system", Content: "You classify market regime. Reply with exactly two lines: REGIME=<BullTrend|BearCrash|ChoppyClear|ChoppyUnclear> and CONFIDENCE=<0..1>."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return RegimeResult{}, err
	}
	return RegimeResult{
		Regime:     parseRegimeString(extractField(raw, "REGIME")),
		Confidence: clampConfidence(parseConfidence(extractField(raw, "CONFIDENCE"))),
	}, nil
}

// StrategySelection is the overlay's strategy-selection response.
type StrategySelection struct {
	Strategy   string
	Confidence float64
	Rationale  string
}

// SelectStrategy asks the model to recommend a strategy name given a
// regime-detection context. An unrecognized strategy name falls back to
// "dca", the most conservative variant.
func (o *Overlay) SelectStrategy(ctx context.Context, candleTime time.Time, regimeContext, prompt string) (StrategySelection, error) {
	raw, err := o.call(ctx, "strategy_select", candleTime, []oracle.ChatMessage{
		{Role: "system", Content: "You select a trading strategy given market context. Reply with STRATEGY=<momentum|mean_reversion|buy_and_hold|dca>, CONFIDENCE=<0..1>, RATIONALE=<one line>."},
		{Role: "user", Content: regimeContext + "\n" + prompt},
	})
	if err != nil {
		return StrategySelection{}, err
	}
	strategyName := strings.ToLower(strings.TrimSpace(extractField(raw, "STRATEGY")))
	switch strategyName {
	case "momentum", "mean_reversion", "buy_and_hold", "dca":
	default:
		strategyName = "dca"
	}
	return StrategySelection{
		Strategy:   strategyName,
		Confidence: clampConfidence(parseConfidence(extractField(raw, "CONFIDENCE"))),
		Rationale:  extractField(raw, "RATIONALE"),
	}, nil
}

// SignalResult is the overlay's direct trading-signal response.
type SignalResult struct {
	Signal     models.Signal
	Confidence float64
}

// GenerateSignal asks the model to directly produce an entry/exit signal,
// bypassing the quantitative strategies entirely. The engine and the
// binaries do not call the overlay; nothing reads ENABLE_LLM_OVERLAY to
// switch it on.
func (o *Overlay) GenerateSignal(ctx context.Context, candleTime time.Time, prompt string) (SignalResult, error) {
	raw, err := o.call(ctx, "signal", candleTime, []oracle.ChatMessage{
		{Role: "system", Content: "You generate a trading signal. Reply with SIGNAL=<Buy|Sell|Hold>, CONFIDENCE=<0..1>."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return SignalResult{}, err
	}
	signal := models.SignalHold
	switch strings.TrimSpace(extractField(raw, "SIGNAL")) {
	case string(models.SignalBuy):
		signal = models.SignalBuy
	case string(models.SignalSell):
		signal = models.SignalSell
	}
	return SignalResult{
		Signal:     signal,
		Confidence: clampConfidence(parseConfidence(extractField(raw, "CONFIDENCE"))),
	}, nil
}

// extractField pulls a "KEY=value" line out of a (possibly fenced) model
// response.
func extractField(raw, key string) string {
	body := stripMarkdownFence(raw)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, key+"=") {
			return strings.TrimSpace(strings.TrimPrefix(line, key+"="))
		}
	}
	return ""
}

func parseConfidence(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
