package candle

import (
	"sort"
	"time"

	"solswing/internal/models"
)

// Granularity is a supported backfill bucket width, in seconds.
type Granularity int64

const (
	Granularity5Min Granularity = 300
	GranularityHour Granularity = 3600
	GranularityDay  Granularity = 86400
)

// GranularityForRange selects the bucket width for a requested backfill
// range: <=1 day gets 5-minute candles, <=90 days gets hourly, else daily.
func GranularityForRange(d time.Duration) Granularity {
	switch {
	case d <= 24*time.Hour:
		return Granularity5Min
	case d <= 90*24*time.Hour:
		return GranularityHour
	default:
		return GranularityDay
	}
}

// pricePoint is an irregular (timestamp_ms, price) sample.
type pricePoint struct {
	TimestampMs int64
	Price       float64
}

// ToCandles converts an irregular sequence of (timestamp_ms, price) points
// into a uniform OHLC series at the given granularity: sort ascending with
// keep-last dedup on equal timestamps, bucket by floor(ts_sec/interval)*interval,
// synthesize OHLC per bucket with volume zero (the source volume is a rolling
// aggregate, not per-bar), then fill any gap between adjacent non-empty
// buckets with flat candles holding the last known close.
func ToCandles(token string, points [][2]float64, granularity Granularity) []models.Candle {
	if len(points) == 0 {
		return nil
	}

	pts := make([]pricePoint, len(points))
	for i, p := range points {
		pts[i] = pricePoint{TimestampMs: int64(p[0]), Price: p[1]}
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].TimestampMs < pts[j].TimestampMs })

	// Keep-last dedup: later points with an equal timestamp override earlier ones.
	deduped := make([]pricePoint, 0, len(pts))
	for _, p := range pts {
		if n := len(deduped); n > 0 && deduped[n-1].TimestampMs == p.TimestampMs {
			deduped[n-1] = p
			continue
		}
		deduped = append(deduped, p)
	}

	interval := int64(granularity)
	buckets := make(map[int64][]float64)
	var bucketOrder []int64
	for _, p := range deduped {
		tsSec := p.TimestampMs / 1000
		bucket := (tsSec / interval) * interval
		if _, seen := buckets[bucket]; !seen {
			bucketOrder = append(bucketOrder, bucket)
		}
		buckets[bucket] = append(buckets[bucket], p.Price)
	}
	sort.Slice(bucketOrder, func(i, j int) bool { return bucketOrder[i] < bucketOrder[j] })

	var out []models.Candle
	var lastClose float64
	var lastBucket int64
	haveLast := false

	for _, bucket := range bucketOrder {
		if haveLast {
			for gap := lastBucket + interval; gap < bucket; gap += interval {
				out = append(out, flatCandle(token, gap, lastClose))
			}
		}

		prices := buckets[bucket]
		open, high, low, close := prices[0], prices[0], prices[0], prices[0]
		for _, p := range prices {
			if p > high {
				high = p
			}
			if p < low {
				low = p
			}
			close = p
		}
		out = append(out, models.Candle{
			Token:     token,
			Timestamp: time.Unix(bucket, 0).UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    0,
		})

		lastClose = close
		lastBucket = bucket
		haveLast = true
	}

	return out
}

func flatCandle(token string, tsSec int64, price float64) models.Candle {
	return models.Candle{
		Token:     token,
		Timestamp: time.Unix(tsSec, 0).UTC(),
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    0,
	}
}
