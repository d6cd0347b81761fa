package domain

import "encoding/json"

// PlatformConfig is the versioned configuration document fetched from the
// cloud and cached locally. Read far more often than written.
//
// The upstream keys feature flags by numeric string and mixes value types,
// so flag values stay raw and are read through the typed accessors below,
// each with an explicit default for the absent or mistyped case.
type PlatformConfig struct {
	Version string                     `json:"version"`
	Region  string                     `json:"region"`
	Flags   map[string]json.RawMessage `json:"flags"`
}

// BoolFlag returns the flag as a bool, or def when absent or mistyped.
func (c PlatformConfig) BoolFlag(id string, def bool) bool {
	raw, ok := c.Flags[id]
	if !ok {
		return def
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	return v
}

// IntFlag returns the flag as an int, or def when absent or mistyped.
func (c PlatformConfig) IntFlag(id string, def int) int {
	raw, ok := c.Flags[id]
	if !ok {
		return def
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	return v
}

// StringFlag returns the flag as a string, or def when absent or mistyped.
func (c PlatformConfig) StringFlag(id string, def string) string {
	raw, ok := c.Flags[id]
	if !ok {
		return def
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	return v
}
