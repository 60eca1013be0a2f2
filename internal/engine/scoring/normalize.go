// Package scoring turns a product's per-channel signals into ranked 0–100
// fit scores with confidence values.
//
// Normalization is relative to the product's own channels only: a price
// position of 1.0 means "highest price among this product's channels", never
// "highest price in the system".
package scoring

import (
	"github.com/channeliq/channeliq/pkg/types/market"
)

// Core signal weights.  They sum to 1; when a qualified benchmark exists the
// composite blends the core sum at (1 − benchmarkWeight), which is exactly the
// proportional redistribution of the benchmark's allocation when it is absent.
const (
	wRevenueVelocity = 0.25
	wUnitVelocity    = 0.20
	wPricePosition   = 0.10
	wTrend           = 0.15
	wTurnover        = 0.15
	wReturnQuality   = 0.15
)

// Sentinel normalizations for the turnover tagged union.
const (
	turnoverUntrackedNorm = 0.5 // no information: neutral
	turnoverStockoutNorm  = 1.0 // out of stock with demand: best possible signal
)

// coreNorms holds one channel's six normalized core signals, each in [0, 1].
type coreNorms struct {
	revenueVelocity float64
	unitVelocity    float64
	pricePosition   float64
	trend           float64
	turnover        float64
	returnQuality   float64 // inverted: 1 means lowest return rate
}

// weighted collapses the six normalized signals into the core composite.
func (n coreNorms) weighted() float64 {
	return wRevenueVelocity*n.revenueVelocity +
		wUnitVelocity*n.unitVelocity +
		wPricePosition*n.pricePosition +
		wTrend*n.trend +
		wTurnover*n.turnover +
		wReturnQuality*n.returnQuality
}

// computeNorms min-max normalizes each core signal across the product's own
// channels.  With a single channel (or equal values) every min-max collapses
// to the 0.5 midpoint, which is why single-channel products carry a
// confidence penalty downstream.
func computeNorms(channels map[market.Marketplace]market.RawSignals) map[market.Marketplace]coreNorms {
	revenue := minMaxNorm(channels, func(s market.RawSignals) float64 { return s.RevenuePerDay })
	units := minMaxNorm(channels, func(s market.RawSignals) float64 { return s.UnitsPerDay })
	price := minMaxNorm(channels, func(s market.RawSignals) float64 { return s.AvgUnitPrice })
	trend := minMaxNorm(channels, func(s market.RawSignals) float64 { return s.TrendSlope })
	returns := minMaxNorm(channels, func(s market.RawSignals) float64 { return s.ReturnRate })
	turnover := turnoverNorms(channels)

	out := make(map[market.Marketplace]coreNorms, len(channels))
	for mp := range channels {
		out[mp] = coreNorms{
			revenueVelocity: revenue[mp],
			unitVelocity:    units[mp],
			pricePosition:   price[mp],
			trend:           trend[mp],
			turnover:        turnover[mp],
			returnQuality:   1 - returns[mp],
		}
	}
	return out
}

// minMaxNorm maps each channel's value of one signal onto [0, 1] across the
// product's channels.  A degenerate range (all values equal) yields the 0.5
// midpoint for every channel.
func minMaxNorm(channels map[market.Marketplace]market.RawSignals, value func(market.RawSignals) float64) map[market.Marketplace]float64 {
	lo, hi, first := 0.0, 0.0, true
	for _, sig := range channels {
		v := value(sig)
		if first {
			lo, hi, first = v, v, false
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	out := make(map[market.Marketplace]float64, len(channels))
	for mp, sig := range channels {
		if hi == lo {
			out[mp] = 0.5
			continue
		}
		out[mp] = (value(sig) - lo) / (hi - lo)
	}
	return out
}

// turnoverNorms normalizes the turnover tagged union.  Untracked channels get
// the neutral midpoint and stockouts the maximum; measured ratios min-max
// among themselves.  When every measured ratio is zero the range is widened to
// [0, 1] so idle stock normalizes to 0 instead of a meaningless midpoint.
func turnoverNorms(channels map[market.Marketplace]market.RawSignals) map[market.Marketplace]float64 {
	lo, hi, measured := 0.0, 0.0, 0
	for _, sig := range channels {
		r, ok := sig.Turnover.Ratio()
		if !ok {
			continue
		}
		if measured == 0 {
			lo, hi = r, r
		} else {
			if r < lo {
				lo = r
			}
			if r > hi {
				hi = r
			}
		}
		measured++
	}
	if hi == 0 {
		hi = 1 // all-zero widening
	}

	out := make(map[market.Marketplace]float64, len(channels))
	for mp, sig := range channels {
		switch sig.Turnover.Kind() {
		case market.TurnoverUntracked:
			out[mp] = turnoverUntrackedNorm
		case market.TurnoverStockout:
			out[mp] = turnoverStockoutNorm
		default:
			r, _ := sig.Turnover.Ratio()
			if hi == lo {
				out[mp] = 0.5
				continue
			}
			out[mp] = (r - lo) / (hi - lo)
		}
	}
	return out
}
