// Package persistence implements the two storage backends the engine depends
// on: a Redis-backed candle time series, and a Postgres-backed relational
// store for positions and tracked tokens. Both are thin wrappers — all
// domain logic (validation, lifecycle rules) lives in the packages that call
// them.
package persistence

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"solswing/internal/models"
)

// candleKeyPrefix namespaces every sorted set this store writes, so a shared
// Redis instance can host other services without key collisions.
const candleKeyPrefix = "solswing:candles:"

// TimeSeriesStore persists candles in Redis sorted sets, scored by Unix
// timestamp. One key per token keeps per-token reads O(log n + k) and avoids
// a single hot key under concurrent writers.
type TimeSeriesStore struct {
	client *redis.Client
}

// NewTimeSeriesStore connects to Redis with a bounded startup timeout; a slow
// or unreachable Redis must not hang the engine indefinitely.
func NewTimeSeriesStore(ctx context.Context, addr string) (*TimeSeriesStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(connectCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return &TimeSeriesStore{client: client}, nil
}

func candleKey(token string) string {
	return candleKeyPrefix + token
}

func encodeCandle(c models.Candle) string {
	return fmt.Sprintf("%d|%f|%f|%f|%f|%f",
		c.Timestamp.Unix(), c.Open, c.High, c.Low, c.Close, c.Volume)
}

func decodeCandle(token, member string) (models.Candle, error) {
	parts := strings.Split(member, "|")
	if len(parts) != 6 {
		return models.Candle{}, fmt.Errorf("malformed candle member %q", member)
	}
	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parse timestamp: %w", err)
	}
	vals := make([]float64, 5)
	for i, p := range parts[1:] {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("parse field %d: %w", i, err)
		}
		vals[i] = v
	}
	return models.Candle{
		Token:     token,
		Timestamp: time.Unix(ts, 0).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}

// SaveCandles appends or overwrites candles for a token. Writing is
// idempotent: re-saving a candle at an already-present timestamp removes and
// replaces the old member rather than leaving a duplicate at that score,
// since encodeCandle bakes the OHLCV fields into the member itself.
func (s *TimeSeriesStore) SaveCandles(ctx context.Context, token string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	key := candleKey(token)

	pipe := s.client.TxPipeline()
	for _, c := range candles {
		score := float64(c.Timestamp.Unix())
		pipe.ZRemRangeByScore(ctx, key, fmt.Sprintf("%f", score), fmt.Sprintf("%f", score))
		pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: encodeCandle(c)})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save candles for %s: %w", token, err)
	}
	return nil
}

// LoadCandles returns every candle for a token within the last hoursBack
// hours, in chronological order.
func (s *TimeSeriesStore) LoadCandles(ctx context.Context, token string, hoursBack int) ([]models.Candle, error) {
	key := candleKey(token)
	min := float64(time.Now().Add(-time.Duration(hoursBack) * time.Hour).Unix())

	members, err := s.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: fmt.Sprintf("%f", min),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("load candles for %s: %w", token, err)
	}
	return decodeAll(token, members)
}

// LoadAllCandles returns every candle retained for a token, regardless of age.
func (s *TimeSeriesStore) LoadAllCandles(ctx context.Context, token string) ([]models.Candle, error) {
	key := candleKey(token)
	members, err := s.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load all candles for %s: %w", token, err)
	}
	return decodeAll(token, members)
}

func decodeAll(token string, members []string) ([]models.Candle, error) {
	out := make([]models.Candle, 0, len(members))
	for _, m := range members {
		c, err := decodeCandle(token, m)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// CleanupOld removes candles older than the retention window, keeping memory
// bounded on long-running Redis instances.
func (s *TimeSeriesStore) CleanupOld(ctx context.Context, token string, olderThan time.Duration) error {
	key := candleKey(token)
	cutoff := float64(time.Now().Add(-olderThan).Unix())
	if err := s.client.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%f", cutoff)).Err(); err != nil {
		return fmt.Errorf("cleanup old candles for %s: %w", token, err)
	}
	return nil
}

// CountSnapshots reports how many candles are currently retained for a token.
func (s *TimeSeriesStore) CountSnapshots(ctx context.Context, token string) (int64, error) {
	n, err := s.client.ZCard(ctx, candleKey(token)).Result()
	if err != nil {
		return 0, fmt.Errorf("count candles for %s: %w", token, err)
	}
	return n, nil
}

// Close releases the underlying Redis connection pool.
func (s *TimeSeriesStore) Close() error {
	return s.client.Close()
}
