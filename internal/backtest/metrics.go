package backtest

import (
	"fmt"
	"math"

	"solswing/internal/models"
)

// TradeRecord is a single closed position reduced to the fields the metrics
// computation needs.
type TradeRecord struct {
	PnL            float64
	PnLPct         float64
	TransactionFee float64
	HoldingMinutes float64
}

// Metrics summarizes a completed backtest run.
type Metrics struct {
	InitialPortfolioValue float64
	FinalPortfolioValue   float64
	TotalPnL              float64
	ReturnPct             float64

	WinCount   int
	LossCount  int
	WinRatePct float64

	AverageWin  float64
	AverageLoss float64
	LargestWin  float64
	LargestLoss float64

	ProfitFactor float64 // +Inf when only wins, 0 when only losses, NaN with no trades

	MaxDrawdownPct float64
	SharpeProxy    float64

	AverageHoldingMinutes float64
	MinHoldingMinutes     float64
	MaxHoldingMinutes     float64

	CircuitBreakerTrips int
	TradeCount          int
}

func toTradeRecord(p models.Position, feeRate float64) TradeRecord {
	exitPrice := 0.0
	if p.ExitPrice != nil {
		exitPrice = *p.ExitPrice
	}
	pnl := 0.0
	if p.RealizedPnL != nil {
		pnl = *p.RealizedPnL
	}
	fee := (p.EntryPrice*p.Quantity + exitPrice*p.Quantity) * feeRate / 2

	holding := 0.0
	if p.ExitTime != nil {
		holding = p.ExitTime.Sub(p.EntryTime).Minutes()
	}

	pnlPct := 0.0
	if p.EntryPrice != 0 && p.Quantity != 0 {
		pnlPct = pnl / (p.EntryPrice * p.Quantity)
	}

	return TradeRecord{
		PnL:            pnl - fee,
		PnLPct:         pnlPct,
		TransactionFee: fee,
		HoldingMinutes: holding,
	}
}

// ComputeMetrics derives performance metrics from a sequence of closed
// positions, in the order they closed. Deterministic: depends only on the
// positions, fee rate, and portfolio values passed in.
func ComputeMetrics(closed []models.Position, initial, final, feeRatePct float64, breakerTrips int) Metrics {
	m := Metrics{
		InitialPortfolioValue: initial,
		FinalPortfolioValue:   final,
		CircuitBreakerTrips:   breakerTrips,
		TradeCount:            len(closed),
	}
	m.TotalPnL = final - initial
	if initial != 0 {
		m.ReturnPct = m.TotalPnL / initial
	}

	if len(closed) == 0 {
		m.ProfitFactor = math.NaN()
		return m
	}

	records := make([]TradeRecord, len(closed))
	for i, p := range closed {
		records[i] = toTradeRecord(p, feeRatePct)
	}

	var sumWins, sumLosses float64
	var holdingSum, holdingMin, holdingMax float64
	holdingMin = math.Inf(1)
	var pnlPcts []float64

	for _, r := range records {
		if r.PnL > 0 {
			m.WinCount++
			sumWins += r.PnL
			if r.PnL > m.LargestWin {
				m.LargestWin = r.PnL
			}
		} else if r.PnL < 0 {
			m.LossCount++
			sumLosses += -r.PnL
			if r.PnL < m.LargestLoss {
				m.LargestLoss = r.PnL
			}
		}
		holdingSum += r.HoldingMinutes
		if r.HoldingMinutes < holdingMin {
			holdingMin = r.HoldingMinutes
		}
		if r.HoldingMinutes > holdingMax {
			holdingMax = r.HoldingMinutes
		}
		pnlPcts = append(pnlPcts, r.PnLPct)
	}

	m.WinRatePct = float64(m.WinCount) / float64(len(records)) * 100
	if m.WinCount > 0 {
		m.AverageWin = sumWins / float64(m.WinCount)
	}
	if m.LossCount > 0 {
		m.AverageLoss = -sumLosses / float64(m.LossCount)
	}

	switch {
	case sumLosses == 0 && sumWins > 0:
		m.ProfitFactor = math.Inf(1)
	case sumWins == 0:
		m.ProfitFactor = 0
	default:
		m.ProfitFactor = sumWins / sumLosses
	}

	m.MaxDrawdownPct = maxDrawdown(records, initial)
	m.SharpeProxy = sharpeProxy(pnlPcts)

	m.AverageHoldingMinutes = holdingSum / float64(len(records))
	m.MinHoldingMinutes = holdingMin
	m.MaxHoldingMinutes = holdingMax

	return m
}

// maxDrawdown walks trades in order, tracking the largest peak-to-current
// drop in running cumulative equity from the initial portfolio value.
func maxDrawdown(records []TradeRecord, initial float64) float64 {
	equity := initial
	peak := initial
	maxDrop := 0.0
	for _, r := range records {
		equity += r.PnL
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if drop := (peak - equity) / peak; drop > maxDrop {
				maxDrop = drop
			}
		}
	}
	return maxDrop
}

// sharpeProxy is the mean of per-trade pnl_pct divided by its standard
// deviation — a simplified proxy, not an annualized Sharpe ratio.
func sharpeProxy(pnlPcts []float64) float64 {
	n := len(pnlPcts)
	if n == 0 {
		return 0
	}
	mean := 0.0
	for _, p := range pnlPcts {
		mean += p
	}
	mean /= float64(n)

	variance := 0.0
	for _, p := range pnlPcts {
		variance += (p - mean) * (p - mean)
	}
	variance /= float64(n)
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}
	return mean / stddev
}

// FormatReport renders a plain-text summary, matching the teacher's
// unadorned logging texture rather than a boxed or emoji-laden report.
func (m Metrics) FormatReport() string {
	return fmt.Sprintf(
		"trades=%d win_rate=%.1f%% profit_factor=%s total_pnl=%.2f return=%.2f%% max_drawdown=%.2f%% sharpe_proxy=%.3f avg_hold=%.0fmin breaker_trips=%d",
		m.TradeCount, m.WinRatePct, formatProfitFactor(m.ProfitFactor), m.TotalPnL, m.ReturnPct*100,
		m.MaxDrawdownPct*100, m.SharpeProxy, m.AverageHoldingMinutes, m.CircuitBreakerTrips,
	)
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	if math.IsNaN(pf) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", pf)
}
