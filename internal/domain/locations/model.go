// Package locations implements the debounced location autocomplete that feeds
// the hidden geographic fields of the assessment form.
package locations

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
)

// Candidate is one suggestion returned by the location lookup.
type Candidate struct {
	Label    string     `json:"label"`
	Postcode string     `json:"postcode,omitempty"`
	City     string     `json:"city,omitempty"`
	State    string     `json:"state,omitempty"`
	Suburb   string     `json:"suburb,omitempty"`
	Lat      Coordinate `json:"lat,omitempty"`
	Lon      Coordinate `json:"lon,omitempty"`
}

// Coordinate keeps the textual form of a latitude or longitude. It accepts a
// JSON number, a numeric string or null.
type Coordinate string

// UnmarshalJSON implements json.Unmarshaler.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Coordinate(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = Coordinate(formatNumber(n))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	if c == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(string(c), 64); err == nil {
		return []byte(c), nil
	}
	return json.Marshal(string(c))
}

// formatNumber renders a JSON number the way a script would stringify it.
func formatNumber(n json.Number) string {
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Hidden field names populated by a selection.
const (
	FieldPostcode = "postcode"
	FieldCity     = "city"
	FieldLat      = "lat"
	FieldLon      = "lon"
)

// HiddenFields are the four form values copied from a selected candidate.
type HiddenFields struct {
	Postcode string
	City     string
	Lat      string
	Lon      string
}

// FromCandidate copies the selection, leaving missing parts empty.
func FromCandidate(c Candidate) HiddenFields {
	return HiddenFields{
		Postcode: c.Postcode,
		City:     c.City,
		Lat:      string(c.Lat),
		Lon:      string(c.Lon),
	}
}

// Apply writes the hidden fields into form values.
func (h HiddenFields) Apply(values url.Values) {
	values.Set(FieldPostcode, h.Postcode)
	values.Set(FieldCity, h.City)
	values.Set(FieldLat, h.Lat)
	values.Set(FieldLon, h.Lon)
}

// OptionValue is the serialized candidate carried by a list option.
func OptionValue(c Candidate) string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return string(data)
}
