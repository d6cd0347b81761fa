package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformConfig_TypedFlags(t *testing.T) {
	var cfg PlatformConfig
	err := json.Unmarshal([]byte(`{
		"version": "42",
		"region": "cn-east",
		"flags": {
			"101": true,
			"102": 2500,
			"103": "whip",
			"104": [1, 2]
		}
	}`), &cfg)
	require.NoError(t, err)

	assert.True(t, cfg.BoolFlag("101", false))
	assert.Equal(t, 2500, cfg.IntFlag("102", 0))
	assert.Equal(t, "whip", cfg.StringFlag("103", ""))

	// Absent flags fall back to the default.
	assert.False(t, cfg.BoolFlag("999", false))
	assert.Equal(t, 7, cfg.IntFlag("999", 7))
	assert.Equal(t, "rtmp", cfg.StringFlag("999", "rtmp"))

	// Mistyped flags fall back to the default too.
	assert.Equal(t, -1, cfg.IntFlag("104", -1))
	assert.False(t, cfg.BoolFlag("102", false))
}

func TestPlatformConfig_ZeroValue(t *testing.T) {
	var cfg PlatformConfig
	assert.True(t, cfg.BoolFlag("1", true))
	assert.Equal(t, "d", cfg.StringFlag("1", "d"))
}
