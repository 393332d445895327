package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoQuotes indicates that zero usable quotes were obtained for an
	// instrument. The instrument is dropped from results; the scan continues.
	ErrNoQuotes = errors.New("no usable quotes")

	// ErrCatalogUnavailable indicates the instrument catalog could not be
	// read at all. This is the only fatal error class in a scan.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrNotFound is returned by caches and stores for missing entries.
	ErrNotFound = errors.New("not found")
)

// VenueInitError reports that a venue's connection or market metadata could
// not be established. The venue is excluded for the remainder of the run.
type VenueInitError struct {
	VenueID string
	Err     error
}

func (e *VenueInitError) Error() string {
	return fmt.Sprintf("venue %s: init failed: %v", e.VenueID, e.Err)
}

func (e *VenueInitError) Unwrap() error { return e.Err }

// QuoteFetchError reports that a single venue/instrument quote request failed
// or returned an unusable price. The instrument's aggregation continues with
// the remaining venues.
type QuoteFetchError struct {
	VenueID    string
	Instrument string
	Err        error
}

func (e *QuoteFetchError) Error() string {
	return fmt.Sprintf("venue %s: fetch quote %s: %v", e.VenueID, e.Instrument, e.Err)
}

func (e *QuoteFetchError) Unwrap() error { return e.Err }
