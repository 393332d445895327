package scan

import (
	"sort"

	"github.com/arbscan/arbscan/internal/domain"
)

// Rank orders opportunities strictly descending by the strategy's metric.
// The sort is stable: entries with equal metrics keep their relative input
// order, which for scan output is the filtered catalog order.
func Rank(opps []domain.Opportunity, strategy RankStrategy) []domain.Opportunity {
	out := append([]domain.Opportunity(nil), opps...)
	sort.SliceStable(out, func(i, j int) bool {
		return strategy.Metric(out[i]) > strategy.Metric(out[j])
	})
	return out
}
