package domain

import "context"

// FeeSchedule holds a venue's trading and funding fees. Trading fees are
// fractions (0.001 == 0.1%); withdrawal fees are flat amounts in units of the
// withdrawn asset, keyed by asset code.
type FeeSchedule struct {
	Taker        float64
	Maker        float64
	WithdrawFees map[string]float64
}

// Withdraw returns the flat withdrawal fee for an asset, or zero when the
// venue does not publish one.
func (f FeeSchedule) Withdraw(asset string) float64 {
	return f.WithdrawFees[asset]
}

// VenueGateway is the minimal capability set the scanner needs from a single
// trading venue. Implementations live in the venue package; any error crossing
// this boundary is treated by the core as a soft failure.
type VenueGateway interface {
	// Name returns the venue's display name.
	Name() string

	// IsDex reports whether the venue is a decentralized exchange.
	IsDex() bool

	// LoadSupportedInstruments returns the instrument identifiers the venue
	// lists for trading, in BASE/QUOTE form.
	LoadSupportedInstruments(ctx context.Context) ([]string, error)

	// FetchQuote returns the venue's current quote for the instrument,
	// including fee terms from the venue's fee schedule.
	FetchQuote(ctx context.Context, instrument string) (Quote, error)

	// FeeSchedule returns the venue's fee terms.
	FeeSchedule() FeeSchedule
}
