package scan

import (
	"regexp"
	"strings"

	"github.com/arbscan/arbscan/internal/domain"
)

// leveragedRe matches identifiers carrying a leveraged-token marker such as
// "BTC3L/USDT" or "ETH5S/USDT": a digit followed by a letter immediately
// before the pair separator.
var leveragedRe = regexp.MustCompile(`\d[a-zA-Z]/`)

// FilterOptions selects which catalog entries are eligible for scanning.
type FilterOptions struct {
	// BaseCurrencies keeps an instrument only when its identifier contains at
	// least one of these tokens (e.g. "USDT", "USDC"). Empty means no
	// base-currency restriction.
	BaseCurrencies []string

	// MinVenueCount keeps an instrument only when its venue list is strictly
	// longer than this value. The default of 1 therefore requires at least
	// two listing venues.
	MinVenueCount int

	// RequiredSubstrings, when non-empty, further restricts the catalog to
	// instruments containing at least one of the listed tokens.
	RequiredSubstrings []string

	// AllowHyphenated disables the default rejection of identifiers
	// containing a hyphen.
	AllowHyphenated bool

	// AllowLeveraged disables the default rejection of leveraged-token
	// markers (digit+letter before the separator).
	AllowLeveraged bool
}

// DefaultFilterOptions mirrors the scanner's historical defaults.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		BaseCurrencies: []string{"USDC", "USDT"},
		MinVenueCount:  1,
	}
}

// Filter returns a new catalog containing only the eligible instruments,
// preserving the input catalog's iteration order. It has no side effects.
func Filter(c *domain.Catalog, opts FilterOptions) *domain.Catalog {
	out := domain.NewCatalog()
	for _, instrument := range c.Instruments() {
		venues := c.Venues(instrument)
		if !eligible(instrument, venues, opts) {
			continue
		}
		out.Set(instrument, venues)
	}
	return out
}

func eligible(instrument string, venues []string, opts FilterOptions) bool {
	if len(venues) <= opts.MinVenueCount {
		return false
	}
	if !opts.AllowHyphenated && strings.Contains(instrument, "-") {
		return false
	}
	if !opts.AllowLeveraged && leveragedRe.MatchString(instrument) {
		return false
	}
	if len(opts.BaseCurrencies) > 0 && !containsAny(instrument, opts.BaseCurrencies) {
		return false
	}
	if len(opts.RequiredSubstrings) > 0 && !containsAny(instrument, opts.RequiredSubstrings) {
		return false
	}
	return true
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
