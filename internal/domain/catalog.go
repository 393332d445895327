package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Catalog maps instrument identifiers to the ordered list of venue IDs known
// to support trading that instrument. Unlike a plain map it preserves
// insertion order, so a serialized catalog is human-diffable and iteration is
// deterministic. It is loaded once per scan and treated as read-only input.
type Catalog struct {
	keys    []string
	entries map[string][]string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string][]string)}
}

// Add appends venueID to the instrument's venue list, creating the entry if
// needed. Duplicate venue IDs for the same instrument are ignored.
func (c *Catalog) Add(instrument, venueID string) {
	venues, ok := c.entries[instrument]
	if !ok {
		c.keys = append(c.keys, instrument)
		c.entries[instrument] = []string{venueID}
		return
	}
	for _, v := range venues {
		if v == venueID {
			return
		}
	}
	c.entries[instrument] = append(venues, venueID)
}

// Set replaces the instrument's venue list wholesale, preserving the
// instrument's original position when it already exists.
func (c *Catalog) Set(instrument string, venueIDs []string) {
	if _, ok := c.entries[instrument]; !ok {
		c.keys = append(c.keys, instrument)
	}
	c.entries[instrument] = append([]string(nil), venueIDs...)
}

// Venues returns a copy of the venue IDs for an instrument, or nil if
// unknown. Mutating the returned slice leaves the catalog untouched.
func (c *Catalog) Venues(instrument string) []string {
	venues, ok := c.entries[instrument]
	if !ok {
		return nil
	}
	return append([]string(nil), venues...)
}

// Instruments returns the instrument identifiers in catalog order.
func (c *Catalog) Instruments() []string {
	return append([]string(nil), c.keys...)
}

// Len returns the number of instruments in the catalog.
func (c *Catalog) Len() int {
	return len(c.keys)
}

// MarshalJSON encodes the catalog as a JSON object whose keys appear in
// catalog order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(c.entries[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the catalog, preserving the key
// order of the source document. Values must be arrays of strings; anything
// else is rejected at this boundary rather than surfacing later as a
// malformed scan input.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("catalog: read opening token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("catalog: expected JSON object, got %v", tok)
	}

	c.keys = nil
	c.entries = make(map[string][]string)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("catalog: read key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("catalog: non-string key %v", keyTok)
		}

		var venues []string
		if err := dec.Decode(&venues); err != nil {
			return fmt.Errorf("catalog: entry %q: venue list must be an array of strings: %w", key, err)
		}

		if _, dup := c.entries[key]; dup {
			return fmt.Errorf("catalog: duplicate instrument %q", key)
		}
		c.keys = append(c.keys, key)
		c.entries[key] = venues
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("catalog: read closing token: %w", err)
	}
	return nil
}
