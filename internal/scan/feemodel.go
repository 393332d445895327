// Package scan implements the scan-and-rank engine: instrument filtering,
// concurrent per-instrument quote aggregation, fee-adjusted profit
// computation, and deterministic ranking of the resulting opportunities.
package scan

import (
	"fmt"

	"github.com/arbscan/arbscan/internal/domain"
)

// ComputeProfit returns the fee-adjusted profit of buying `amount` units at
// the min quote and selling them at the max quote. The buy side pays the
// taker fee, the sell side the maker fee, and the transfer between venues
// costs the min venue's flat withdrawal fee. The withdrawal fee is
// intentionally not scaled by amount; it mirrors the historical fee model.
func ComputeProfit(min, max domain.Quote, amount float64) float64 {
	cost := min.Price * (1 + min.BuyFee) * amount
	transferCost := min.WithdrawFee
	revenue := max.Price * (1 - max.SellFee) * amount
	return revenue - cost - transferCost
}

// RankStrategy selects the ordering metric and the ratio formula used when
// assembling opportunities. Two historically distinct ratio formulas exist;
// both are exposed as named strategies rather than silently picking one.
type RankStrategy string

const (
	// RankBySpread orders by the relative price spread (max/min - 1) * 100.
	RankBySpread RankStrategy = "spread"

	// RankByProfitShare orders by the fee-adjusted profit expressed as a
	// percentage of the sell price: (profit / max.price) * 100.
	RankByProfitShare RankStrategy = "profit_share"

	// RankByProfit orders by absolute fee-adjusted profit. The emitted ratio
	// uses the profit-share formula.
	RankByProfit RankStrategy = "profit"
)

// ParseRankStrategy validates a strategy name from config or flags.
func ParseRankStrategy(s string) (RankStrategy, error) {
	switch RankStrategy(s) {
	case RankBySpread, RankByProfitShare, RankByProfit:
		return RankStrategy(s), nil
	default:
		return "", fmt.Errorf("unknown rank strategy %q (valid: spread, profit_share, profit)", s)
	}
}

// Ratio computes the strategy's relative metric for a pair and its
// fee-adjusted profit.
func (s RankStrategy) Ratio(pair domain.QuotePair, profit float64) float64 {
	switch s {
	case RankBySpread:
		if pair.Min.Price == 0 {
			return 0
		}
		return (pair.Max.Price/pair.Min.Price - 1) * 100
	default:
		if pair.Max.Price == 0 {
			return 0
		}
		return (profit / pair.Max.Price) * 100
	}
}

// Metric returns the value opportunities are ordered by under this strategy.
func (s RankStrategy) Metric(o domain.Opportunity) float64 {
	if s == RankByProfit {
		return o.Profit
	}
	return o.Ratio
}
