// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package monitor runs the air quality control loop: it reads the buttons,
// polls every sensor channel on a fixed cadence, classifies the readings,
// updates the trend charts and raises the CO2 alarm and low battery alerts.
//
// Everything runs on the caller's goroutine. The only blocking waits are a
// held button and the bounded warm up at Init.
package monitor

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/GermanBionicSystems/airmon/poller"
	"github.com/GermanBionicSystems/airmon/quality"
	"github.com/GermanBionicSystems/airmon/trend"
	"periph.io/x/conn/v3/physic"
)

// TemperatureUnit selects how temperatures are displayed.
type TemperatureUnit string

const (
	Fahrenheit TemperatureUnit = "F"
	Celsius    TemperatureUnit = "C"
)

// Toggle returns the other unit.
func (u TemperatureUnit) Toggle() TemperatureUnit {
	if u == Celsius {
		return Fahrenheit
	}
	return Celsius
}

// Convert returns t in u, rounded to a whole degree.
func (u TemperatureUnit) Convert(t physic.Temperature) float64 {
	if u == Celsius {
		return math.Round(t.Celsius())
	}
	return math.Round(t.Fahrenheit())
}

func (u TemperatureUnit) String() string {
	return "°" + string(u)
}

// Mode is the user adjustable state. It is owned by the Loop and only
// changed by long button presses.
type Mode struct {
	Unit           TemperatureUnit
	Translate      bool
	AlarmThreshold float64
}

// Capabilities describes the board. It is assembled once at startup.
type Capabilities struct {
	Board     string
	Buttons   bool
	Touch     bool
	Battery   bool
	Indicator bool
	Speaker   bool
}

func (c Capabilities) String() string {
	return fmt.Sprintf("%s buttons=%t touch=%t battery=%t indicator=%t speaker=%t", c.Board, c.Buttons, c.Touch, c.Battery, c.Indicator, c.Speaker)
}

// Reading is one classified sample.
type Reading struct {
	Raw        float64
	Valid      bool
	Value      float64
	Category   quality.Category
	Color      color.RGBA
	Normalized float64
	// Temperature and Humidity are set when HasEnv is true.
	Temperature physic.Temperature
	Humidity    physic.RelativeHumidity
	HasEnv      bool
}

// Label identifies a text element on screen.
type Label string

const (
	LabelTitle            Label = "title"
	LabelAlarm            Label = "alarm"
	LabelAlarmValue       Label = "alarm.value"
	LabelLanguage         Label = "language"
	LabelTemperature      Label = "temperature"
	LabelTemperatureUnit  Label = "temperature.unit"
	LabelHumidity         Label = "humidity"
	LabelHumidityUnit     Label = "humidity.unit"
	labelValuePrefix            = "value."
	labelCategoryPrefix         = "category."
	labelUnitPrefix             = "unit."
	placeholder                 = "-"
	noSensor                    = "NO SENSOR"
)

// ValueLabel is the numeric value of channel ch.
func ValueLabel(ch int) Label {
	return Label(fmt.Sprintf("%s%d", labelValuePrefix, ch))
}

// CategoryLabel is the category text of channel ch.
func CategoryLabel(ch int) Label {
	return Label(fmt.Sprintf("%s%d", labelCategoryPrefix, ch))
}

// UnitLabel is the unit caption of channel ch.
func UnitLabel(ch int) Label {
	return Label(fmt.Sprintf("%s%d", labelUnitPrefix, ch))
}

// Renderer draws the screen. Setters may defer drawing until Flush;
// FlashStatus always shows the pending changes with the status.
type Renderer interface {
	// SetGauge moves the pointer of channel ch to normalized in [0, 1].
	SetGauge(ch int, normalized float64, c color.Color)
	SetTrend(ch int, values []float64)
	SetLabel(id Label, text string, c color.Color)
	// FlashStatus shows text for d and then clears it. It blocks.
	FlashStatus(text string, d time.Duration)
	// SetWatchdog shows the liveness indicator.
	SetWatchdog(fraction float64, c color.Color)
	// SetScale draws the category bands of channel ch beside its gauge and
	// marks the normalized alarm threshold. A negative alarm draws no mark.
	SetScale(ch int, segments []quality.Segment, alarm float64)
	// Flush pushes pending changes to the display.
	Flush()
}

// Alerter drives the speaker and the indicator LEDs.
type Alerter interface {
	PlayTone(f physic.Frequency, d time.Duration)
	SetIndicator(c color.Color)
}

// Battery reports the supply voltage.
type Battery interface {
	Voltage() (physic.ElectricPotential, error)
}

// Translator maps English phrases to the alternate language.
type Translator interface {
	Interpret(enabled bool, phrase string) string
}

// Sampler is the subset of *poller.Poller the loop uses.
type Sampler interface {
	Present() bool
	Poll(blocking bool, timeout time.Duration) (poller.Sample, error)
	Recalibrate(ppm float64) error
	Configure(interval time.Duration) error
}

// Channel is one sensor shown on screen.
type Channel struct {
	// Name is the short caption, "PPM CO2" or "AQI PM2.5".
	Name   string
	Poller Sampler
	Table  *quality.Table
	Trend  *trend.Buffer

	last    Reading
	hasLast bool
}

// Last returns the most recent reading, if any.
func (c *Channel) Last() (Reading, bool) {
	return c.last, c.hasLast
}
