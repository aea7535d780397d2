// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the static monitor settings from a YAML file.
//
// Settings are read once at startup. There is no runtime settings surface
// beyond the buttons.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GermanBionicSystems/airmon/interpret"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Battery configures the low battery alert.
type Battery struct {
	// LowVoltage is in volts.
	LowVoltage float64 `mapstructure:"low_voltage"`
	// RequireInvalid only alerts when the CO2 reading is also invalid.
	RequireInvalid bool `mapstructure:"require_invalid"`
}

// Pins names the GPIO pins, as known to gpioreg. Empty means not wired.
type Pins struct {
	Calibrate   string `mapstructure:"calibrate"`
	Temperature string `mapstructure:"temperature"`
	Language    string `mapstructure:"language"`
	Buzzer      string `mapstructure:"buzzer"`
	// ActiveHigh buttons pull the pin high when pressed.
	ActiveHigh bool `mapstructure:"active_high"`
	// ShiftLatch, ShiftClock and ShiftData wire a 74HC165 front panel, as on
	// the PyBadge. They replace the discrete button pins.
	ShiftLatch string `mapstructure:"shift_latch"`
	ShiftClock string `mapstructure:"shift_clock"`
	ShiftData  string `mapstructure:"shift_data"`
}

func (p *Pins) shift() int {
	n := 0
	for _, s := range []string{p.ShiftLatch, p.ShiftClock, p.ShiftData} {
		if s != "" {
			n++
		}
	}
	return n
}

// Indicator configures the status LEDs.
type Indicator struct {
	Count int `mapstructure:"count"`
}

// Config is the effective configuration.
type Config struct {
	Language        string        `mapstructure:"language"`
	Translate       bool          `mapstructure:"translate"`
	TemperatureUnit string        `mapstructure:"temperature_unit"`
	Brightness      float64       `mapstructure:"brightness"`
	SensorInterval  time.Duration `mapstructure:"sensor_interval"`
	AlarmThreshold  float64       `mapstructure:"alarm_threshold"`
	ScreenTitle     string        `mapstructure:"screen_title"`
	WarmupTimeout   time.Duration `mapstructure:"warmup_timeout"`
	ButtonTimeout   time.Duration `mapstructure:"button_timeout"`
	TrendDepth      int           `mapstructure:"trend_depth"`
	AlarmRepeat     time.Duration `mapstructure:"alarm_repeat"`
	Battery         Battery       `mapstructure:"battery"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	Display         string        `mapstructure:"display"`
	I2CBus          string        `mapstructure:"i2c_bus"`
	Pins            Pins          `mapstructure:"pins"`
	Indicator       Indicator     `mapstructure:"indicator"`
	Simulate        bool          `mapstructure:"simulate"`
}

// Display targets.
const (
	DisplaySSD1306  = "ssd1306"
	DisplayTerminal = "terminal"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("language", string(interpret.Deutsch))
	v.SetDefault("translate", false)
	v.SetDefault("temperature_unit", "F")
	v.SetDefault("brightness", 1.0)
	v.SetDefault("sensor_interval", "10s")
	v.SetDefault("alarm_threshold", 2500)
	v.SetDefault("screen_title", "Indoor Air Quality")
	v.SetDefault("warmup_timeout", "30s")
	v.SetDefault("button_timeout", "1s")
	v.SetDefault("trend_depth", 40)
	v.SetDefault("alarm_repeat", "1.5s")
	v.SetDefault("battery.low_voltage", 3.3)
	v.SetDefault("battery.require_invalid", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("display", DisplayTerminal)
	v.SetDefault("i2c_bus", "")
	v.SetDefault("pins.calibrate", "")
	v.SetDefault("pins.temperature", "")
	v.SetDefault("pins.language", "")
	v.SetDefault("pins.buzzer", "")
	v.SetDefault("pins.active_high", false)
	v.SetDefault("pins.shift_latch", "")
	v.SetDefault("pins.shift_clock", "")
	v.SetDefault("pins.shift_data", "")
	v.SetDefault("indicator.count", 0)
	v.SetDefault("simulate", false)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads the YAML file at path on top of the defaults. An empty path
// returns the defaults. The result is validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every out of range setting.
func (c *Config) Validate() error {
	var errs []error
	if _, err := interpret.New(interpret.Language(c.Language)); err != nil {
		errs = append(errs, fmt.Errorf("language: %w", err))
	}
	switch strings.ToUpper(c.TemperatureUnit) {
	case "F", "C":
	default:
		errs = append(errs, fmt.Errorf("temperature_unit %q must be F or C", c.TemperatureUnit))
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		errs = append(errs, fmt.Errorf("brightness %g out of range [0, 1]", c.Brightness))
	}
	if c.SensorInterval < 2*time.Second || c.SensorInterval > 1800*time.Second {
		errs = append(errs, fmt.Errorf("sensor_interval %s out of range [2s, 1800s]", c.SensorInterval))
	}
	if c.AlarmThreshold <= 0 {
		errs = append(errs, fmt.Errorf("alarm_threshold %g must be positive", c.AlarmThreshold))
	}
	if c.WarmupTimeout <= 0 {
		errs = append(errs, fmt.Errorf("warmup_timeout %s must be positive", c.WarmupTimeout))
	}
	if c.ButtonTimeout <= 0 || c.ButtonTimeout >= 10*time.Second {
		errs = append(errs, fmt.Errorf("button_timeout %s out of range (0s, 10s)", c.ButtonTimeout))
	}
	if c.TrendDepth < 2 || c.TrendDepth > 1000 {
		errs = append(errs, fmt.Errorf("trend_depth %d out of range [2, 1000]", c.TrendDepth))
	}
	if c.AlarmRepeat <= 0 {
		errs = append(errs, fmt.Errorf("alarm_repeat %s must be positive", c.AlarmRepeat))
	}
	if c.Battery.LowVoltage <= 0 {
		errs = append(errs, fmt.Errorf("battery.low_voltage %g must be positive", c.Battery.LowVoltage))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}
	switch c.Display {
	case DisplaySSD1306, DisplayTerminal:
	default:
		errs = append(errs, fmt.Errorf("display %q must be %s or %s", c.Display, DisplaySSD1306, DisplayTerminal))
	}
	switch n := c.Pins.shift(); {
	case n != 0 && n != 3:
		errs = append(errs, errors.New("pins.shift_latch, pins.shift_clock and pins.shift_data must be set together"))
	case n == 3 && (c.Pins.Calibrate != "" || c.Pins.Temperature != "" || c.Pins.Language != ""):
		errs = append(errs, errors.New("pins: a shift register excludes calibrate, temperature and language pins"))
	}
	if c.Indicator.Count < 0 {
		errs = append(errs, fmt.Errorf("indicator.count %d must not be negative", c.Indicator.Count))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q (allowed: debug, info, warn, error)", s)
	}
}

// Dump renders c as YAML, with durations in their string form.
func (c *Config) Dump() ([]byte, error) {
	type battery struct {
		LowVoltage     float64 `yaml:"low_voltage"`
		RequireInvalid bool    `yaml:"require_invalid"`
	}
	type pins struct {
		Calibrate   string `yaml:"calibrate"`
		Temperature string `yaml:"temperature"`
		Language    string `yaml:"language"`
		Buzzer      string `yaml:"buzzer"`
		ActiveHigh  bool   `yaml:"active_high"`
		ShiftLatch  string `yaml:"shift_latch"`
		ShiftClock  string `yaml:"shift_clock"`
		ShiftData   string `yaml:"shift_data"`
	}
	type indicator struct {
		Count int `yaml:"count"`
	}
	out := struct {
		Language        string    `yaml:"language"`
		Translate       bool      `yaml:"translate"`
		TemperatureUnit string    `yaml:"temperature_unit"`
		Brightness      float64   `yaml:"brightness"`
		SensorInterval  string    `yaml:"sensor_interval"`
		AlarmThreshold  float64   `yaml:"alarm_threshold"`
		ScreenTitle     string    `yaml:"screen_title"`
		WarmupTimeout   string    `yaml:"warmup_timeout"`
		ButtonTimeout   string    `yaml:"button_timeout"`
		TrendDepth      int       `yaml:"trend_depth"`
		AlarmRepeat     string    `yaml:"alarm_repeat"`
		Battery         battery   `yaml:"battery"`
		LogLevel        string    `yaml:"log_level"`
		LogFormat       string    `yaml:"log_format"`
		Display         string    `yaml:"display"`
		I2CBus          string    `yaml:"i2c_bus"`
		Pins            pins      `yaml:"pins"`
		Indicator       indicator `yaml:"indicator"`
		Simulate        bool      `yaml:"simulate"`
	}{
		Language:        c.Language,
		Translate:       c.Translate,
		TemperatureUnit: c.TemperatureUnit,
		Brightness:      c.Brightness,
		SensorInterval:  c.SensorInterval.String(),
		AlarmThreshold:  c.AlarmThreshold,
		ScreenTitle:     c.ScreenTitle,
		WarmupTimeout:   c.WarmupTimeout.String(),
		ButtonTimeout:   c.ButtonTimeout.String(),
		TrendDepth:      c.TrendDepth,
		AlarmRepeat:     c.AlarmRepeat.String(),
		Battery:         battery(c.Battery),
		LogLevel:        c.LogLevel,
		LogFormat:       c.LogFormat,
		Display:         c.Display,
		I2CBus:          c.I2CBus,
		Pins:            pins(c.Pins),
		Indicator:       indicator(c.Indicator),
		Simulate:        c.Simulate,
	}
	return yaml.Marshal(&out)
}
