// Package domain defines the core types shared by the scanner: quotes,
// opportunities, the instrument catalog, venue gateway capabilities, and the
// error taxonomy.
package domain

import "math"

// Quote is a single venue's reported price and fee terms for an instrument.
// It is immutable once constructed; the aggregation step that produced it is
// its sole owner.
type Quote struct {
	VenueName   string  `json:"exchangeName"`
	Price       float64 `json:"price"`
	IsDex       bool    `json:"isDex"`
	BuyFee      float64 `json:"buyFee"`
	SellFee     float64 `json:"sellFee"`
	WithdrawFee float64 `json:"withdrawFee"`
}

// Valid reports whether the quote carries a usable price. A quote whose price
// is absent, zero, negative, or non-finite is treated as "no data".
func (q Quote) Valid() bool {
	return q.Price > 0 && !math.IsInf(q.Price, 0) && !math.IsNaN(q.Price)
}

// QuotePair is the minimum-price and maximum-price quote selected among all
// successful quotes for one instrument. Invariant: Min.Price <= Max.Price.
// On price ties the first quote in request-issue order wins both slots.
type QuotePair struct {
	Min Quote `json:"min"`
	Max Quote `json:"max"`
}

// Opportunity is a ranked record of the best observed cross-venue spread for
// one instrument, net of fees. Diff and Profit carry the same fee-adjusted
// value; both fields are emitted for output compatibility.
type Opportunity struct {
	Instrument string  `json:"-"`
	Diff       float64 `json:"diff"`
	Ratio      float64 `json:"ratio"`
	Profit     float64 `json:"profit"`
	Min        Quote   `json:"min"`
	Max        Quote   `json:"max"`
}
