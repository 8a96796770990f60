// Package model defines the row, classification, and job types shared by the
// analytics, grid, and polling layers.
package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// MatchGlyph is the checkmark the backend writes into the "Match Found"
// column of exported reports. Both boolean true and this glyph count as a
// successful match.
const MatchGlyph = "✓"

// matchFoundKey is the backend column holding the match flag.
const matchFoundKey = "Match Found"

// categoryKey is the backend column holding the authoritative deviation category.
const categoryKey = "Deviation Category"

// Row is one line item of a comparison result. Column names come straight
// from spreadsheet headers, so every access goes through key lookup, and the
// original header order is preserved: several heuristics ("first column
// containing amount", "first column" fallback) depend on it.
type Row struct {
	keys   []string
	fields map[string]any
}

// NewRow returns an empty row.
func NewRow() Row {
	return Row{fields: make(map[string]any)}
}

// Set stores a value under key, appending the key to the column order if it
// is new. Existing keys keep their position.
func (r *Row) Set(key string, value any) {
	if r.fields == nil {
		r.fields = make(map[string]any)
	}
	if _, ok := r.fields[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.fields[key] = value
}

// Get returns the value stored under key.
func (r Row) Get(key string) (any, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// Value returns the value stored under key, or nil when absent.
func (r Row) Value(key string) any {
	return r.fields[key]
}

// Keys returns the column names in their original order.
func (r Row) Keys() []string {
	return r.keys
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.keys)
}

// FindKey returns the first column name, in header order, for which match
// returns true.
func (r Row) FindKey(match func(key string) bool) (string, bool) {
	for _, k := range r.keys {
		if match(k) {
			return k, true
		}
	}
	return "", false
}

// Matched reports whether this line item was linked to a reference SOR
// entry. Only boolean true and the success glyph count; anything else,
// including an absent column, is unmatched.
func (r Row) Matched() bool {
	switch v := r.fields[matchFoundKey].(type) {
	case bool:
		return v
	case string:
		return v == MatchGlyph
	}
	return false
}

// Category returns the backend-supplied deviation category, or "" when the
// column is absent or empty. The category is authoritative when present.
func (r Row) Category() DeviationCategory {
	s, _ := r.fields[categoryKey].(string)
	return DeviationCategory(s)
}

// Reasoning returns the free-text explanation for this row, located by fuzzy
// key match on "reason"/"explanation".
func (r Row) Reasoning() string {
	key, ok := r.FindKey(func(k string) bool {
		lower := strings.ToLower(k)
		return strings.Contains(lower, "reason") || strings.Contains(lower, "explanation")
	})
	if !ok {
		return "No details available."
	}
	if s, ok := r.fields[key].(string); ok && s != "" {
		return s
	}
	return "No details available."
}

// UnmarshalJSON decodes a JSON object into the row, preserving the order in
// which keys appear on the wire.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return eris.Wrap(err, "row: decode")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return eris.New("row: expected JSON object")
	}

	r.keys = nil
	r.fields = make(map[string]any)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return eris.Wrap(err, "row: decode key")
		}
		key := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return eris.Wrapf(err, "row: decode value for %q", key)
		}
		r.Set(key, decodeValue(raw))
	}

	return nil
}

// MarshalJSON encodes the row as a JSON object in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, eris.Wrapf(err, "row: marshal key %q", k)
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := json.Marshal(r.fields[k])
		if err != nil {
			return nil, eris.Wrapf(err, "row: marshal value for %q", k)
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeValue converts a raw JSON value into float64, string, bool, or nil.
// Numbers always decode to float64 so cell values have a single numeric type.
func decodeValue(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
