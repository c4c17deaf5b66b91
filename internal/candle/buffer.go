// Package candle implements the candle buffer, the irregular-price-to-OHLC
// converter, and the candle validator.
package candle

import (
	"sync"

	"solswing/internal/models"
)

// Buffer is a per-token bounded rolling window of candles. It is safe for
// single-writer, many-reader concurrent use.
type Buffer struct {
	mu         sync.RWMutex
	data       map[string][]models.Candle
	maxCandles int
}

// NewBuffer creates a buffer that retains at most maxCandles per token.
func NewBuffer(maxCandles int) *Buffer {
	return &Buffer{
		data:       make(map[string][]models.Candle),
		maxCandles: maxCandles,
	}
}

// Add appends a candle for its token, dropping the oldest entry if the
// per-token window now exceeds maxCandles. Does not deduplicate — callers
// must not re-add the same bar.
func (b *Buffer) Add(c models.Candle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	series := append(b.data[c.Token], c)
	if len(series) > b.maxCandles {
		series = series[len(series)-b.maxCandles:]
	}
	b.data[c.Token] = series
}

// Get returns a snapshot copy of the current candle sequence for a token.
func (b *Buffer) Get(token string) []models.Candle {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Candle(nil), b.data[token]...)
}

// Recent returns the last n candles for a token, in chronological order.
func (b *Buffer) Recent(token string, n int) []models.Candle {
	b.mu.RLock()
	defer b.mu.RUnlock()
	series := b.data[token]
	if n > len(series) {
		n = len(series)
	}
	return append([]models.Candle(nil), series[len(series)-n:]...)
}

// Count returns the number of buffered candles for a token.
func (b *Buffer) Count(token string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data[token])
}

// Tokens returns the set of tokens currently buffered.
func (b *Buffer) Tokens() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	tokens := make([]string, 0, len(b.data))
	for t := range b.data {
		tokens = append(tokens, t)
	}
	return tokens
}

// ClearToken removes all buffered candles for one token.
func (b *Buffer) ClearToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, token)
}

// ClearAll empties the buffer.
func (b *Buffer) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = make(map[string][]models.Candle)
}
