// Package report handles the serialized output of a scan: an order-preserving
// mapping of instrument to opportunity, written to local files and optionally
// archived to object storage.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/arbscan/arbscan/internal/domain"
)

// Report is an ordered opportunity set keyed by instrument. The emission
// order of keys is the ranking order, and it survives a serialize/parse
// round trip, so a consumer reading keys in sequence observes the ranking.
type Report struct {
	keys    []string
	entries map[string]domain.Opportunity
}

// New builds a Report from ranked opportunities, preserving their order.
func New(opps []domain.Opportunity) *Report {
	r := &Report{entries: make(map[string]domain.Opportunity, len(opps))}
	for _, o := range opps {
		if _, dup := r.entries[o.Instrument]; dup {
			continue
		}
		r.keys = append(r.keys, o.Instrument)
		r.entries[o.Instrument] = o
	}
	return r
}

// Instruments returns the instrument keys in emission order.
func (r *Report) Instruments() []string {
	return append([]string(nil), r.keys...)
}

// Get returns the opportunity for an instrument.
func (r *Report) Get(instrument string) (domain.Opportunity, bool) {
	o, ok := r.entries[instrument]
	return o, ok
}

// Opportunities returns the opportunities in emission order.
func (r *Report) Opportunities() []domain.Opportunity {
	out := make([]domain.Opportunity, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.entries[k])
	}
	return out
}

// Len returns the number of opportunities.
func (r *Report) Len() int {
	return len(r.keys)
}

// MarshalJSON encodes the report as a JSON object whose keys appear in
// ranking order.
func (r *Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(r.entries[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a report, preserving the document's key order and
// rejecting malformed entries at this boundary.
func (r *Report) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("report: read opening token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("report: expected JSON object, got %v", tok)
	}

	r.keys = nil
	r.entries = make(map[string]domain.Opportunity)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("report: read key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("report: non-string key %v", keyTok)
		}

		var o domain.Opportunity
		if err := dec.Decode(&o); err != nil {
			return fmt.Errorf("report: entry %q: %w", key, err)
		}
		o.Instrument = key

		if _, dup := r.entries[key]; dup {
			return fmt.Errorf("report: duplicate instrument %q", key)
		}
		r.keys = append(r.keys, key)
		r.entries[key] = o
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("report: read closing token: %w", err)
	}
	return nil
}
