// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "airmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "DEUTSCH", cfg.Language)
	assert.Equal(t, "F", cfg.TemperatureUnit)
	assert.Equal(t, 10*time.Second, cfg.SensorInterval)
	assert.Equal(t, 30*time.Second, cfg.WarmupTimeout)
	assert.Equal(t, time.Second, cfg.ButtonTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.AlarmRepeat)
	assert.Equal(t, 2500.0, cfg.AlarmThreshold)
	assert.Equal(t, 40, cfg.TrendDepth)
	assert.Equal(t, 3.3, cfg.Battery.LowVoltage)
	assert.False(t, cfg.Battery.RequireInvalid)
	assert.Equal(t, DisplayTerminal, cfg.Display)
	assert.Equal(t, "Indoor Air Quality", cfg.ScreenTitle)
	assert.Equal(t, cfg, Default())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
language: pirate
translate: true
temperature_unit: C
sensor_interval: 5s
alarm_threshold: 1800
trend_depth: 20
battery:
  low_voltage: 3.5
  require_invalid: true
pins:
  calibrate: GPIO5
  buzzer: GPIO12
display: ssd1306
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pirate", cfg.Language)
	assert.True(t, cfg.Translate)
	assert.Equal(t, "C", cfg.TemperatureUnit)
	assert.Equal(t, 5*time.Second, cfg.SensorInterval)
	assert.Equal(t, 1800.0, cfg.AlarmThreshold)
	assert.Equal(t, 20, cfg.TrendDepth)
	assert.Equal(t, Battery{LowVoltage: 3.5, RequireInvalid: true}, cfg.Battery)
	assert.Equal(t, "GPIO5", cfg.Pins.Calibrate)
	assert.Equal(t, "GPIO12", cfg.Pins.Buzzer)
	assert.Equal(t, DisplaySSD1306, cfg.Display)
	// Untouched keys keep their defaults.
	assert.Equal(t, time.Second, cfg.ButtonTimeout)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "sensor_interval: 1s\n"))
	assert.ErrorContains(t, err, "sensor_interval")

	_, err = Load(writeConfig(t, "button_timeout: 10s\nlanguage: klingon\n"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "button_timeout")
	assert.ErrorContains(t, err, "KLINGON")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unit", func(c *Config) { c.TemperatureUnit = "K" }},
		{"brightness", func(c *Config) { c.Brightness = 1.5 }},
		{"interval", func(c *Config) { c.SensorInterval = 1801 * time.Second }},
		{"alarm", func(c *Config) { c.AlarmThreshold = 0 }},
		{"warmup", func(c *Config) { c.WarmupTimeout = 0 }},
		{"button", func(c *Config) { c.ButtonTimeout = 0 }},
		{"trend", func(c *Config) { c.TrendDepth = 1 }},
		{"repeat", func(c *Config) { c.AlarmRepeat = -time.Second }},
		{"battery", func(c *Config) { c.Battery.LowVoltage = 0 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
		{"display", func(c *Config) { c.Display = "crt" }},
		{"indicator", func(c *Config) { c.Indicator.Count = -1 }},
		{"partial shift register", func(c *Config) { c.Pins.ShiftLatch, c.Pins.ShiftData = "GPIO5", "GPIO6" }},
		{"shift register and buttons", func(c *Config) {
			c.Pins.ShiftLatch, c.Pins.ShiftClock, c.Pins.ShiftData = "GPIO5", "GPIO6", "GPIO13"
			c.Pins.Calibrate = "GPIO17"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.Validate())
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestShiftRegisterPins(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
pins:
  shift_latch: GPIO5
  shift_clock: GPIO6
  shift_data: GPIO13
`))
	require.NoError(t, err)
	assert.Equal(t, "GPIO5", cfg.Pins.ShiftLatch)
	assert.Equal(t, "GPIO6", cfg.Pins.ShiftClock)
	assert.Equal(t, "GPIO13", cfg.Pins.ShiftData)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel(" Warning ")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)
	l, err = ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)
	_, err = ParseLevel("trace")
	assert.Error(t, err)
}

func TestDump(t *testing.T) {
	b, err := Default().Dump()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, yaml.Unmarshal(b, &m))
	assert.Equal(t, "10s", m["sensor_interval"])
	assert.Equal(t, "1.5s", m["alarm_repeat"])
	assert.Equal(t, 40, m["trend_depth"])
	assert.Equal(t, map[string]any{"low_voltage": 3.3, "require_invalid": false}, m["battery"])

	// The dump loads back to the same configuration.
	cfg, err := Load(writeConfig(t, string(b)))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
