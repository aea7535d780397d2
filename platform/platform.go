// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package platform binds the monitor to the hardware it runs on: it detects
// the board capabilities, finds the sensors on the I²C bus and looks up the
// button and buzzer pins.
package platform

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/GermanBionicSystems/airmon/buttons"
	"github.com/GermanBionicSystems/airmon/ina260"
	"github.com/GermanBionicSystems/airmon/monitor"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/host/v3/rpi"
)

// Board names reported in Capabilities.
const (
	BoardRaspberryPi = "raspberrypi"
	BoardGeneric     = "generic"
	BoardSimulated   = "simulated"
)

// Touch panel size used when Opts.Regions is empty, as on the PyPortal.
const (
	TouchWidth  = 320
	TouchHeight = 240
)

// ShiftPins are the three lines of a 74HC165 front panel.
type ShiftPins struct {
	Latch gpio.PinOut
	Clock gpio.PinOut
	Data  gpio.PinIn
}

// Opts describes the optional peripherals wired to the board.
//
// The front panel is read from the first of Touch, Shift or Buttons that is
// set.
type Opts struct {
	Bus     i2c.Bus
	Buttons []buttons.Pin
	Shift   *ShiftPins
	Touch   buttons.TouchPanel
	// Regions are the touch targets. Empty means
	// buttons.DefaultRegions(TouchWidth, TouchHeight).
	Regions   []buttons.Region
	Buzzer    gpio.PinOut
	Indicator bool
	Simulated bool
	Logger    *slog.Logger
}

// Hardware is the result of Detect.
type Hardware struct {
	Capabilities monitor.Capabilities
	// Battery is nil when no INA260 answered.
	Battery *ina260.Dev
	// Buttons is nil when no front panel is wired.
	Buttons buttons.Source
}

// Detect assembles the board capabilities once at startup. It fails only when
// a configured front panel cannot be initialized.
func Detect(opts *Opts) (Hardware, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	var hw Hardware
	c := &hw.Capabilities
	switch {
	case opts.Simulated:
		c.Board = BoardSimulated
	case rpi.Present():
		c.Board = BoardRaspberryPi
	default:
		c.Board = BoardGeneric
	}
	src, err := panel(opts)
	if err != nil {
		return hw, err
	}
	if src != nil {
		hw.Buttons = src
		c.Touch = opts.Touch != nil
		c.Buttons = !c.Touch
	}
	c.Speaker = opts.Buzzer != nil
	c.Indicator = opts.Indicator
	if opts.Bus != nil {
		d, err := ina260.New(opts.Bus, ina260.DefaultAddress)
		if err != nil {
			log.Debug("no battery monitor", "err", err)
		} else {
			hw.Battery = d
			c.Battery = true
		}
	}
	log.Info("board", "capabilities", c.String())
	return hw, nil
}

func panel(opts *Opts) (buttons.Source, error) {
	switch {
	case opts.Touch != nil:
		regions := opts.Regions
		if len(regions) == 0 {
			regions = buttons.DefaultRegions(TouchWidth, TouchHeight)
		}
		return buttons.NewTouch(opts.Touch, regions), nil
	case opts.Shift != nil:
		s, err := buttons.NewShiftRegister(opts.Shift.Latch, opts.Shift.Clock, opts.Shift.Data, 8, buttons.PyBadge)
		if err != nil {
			return nil, fmt.Errorf("platform: shift register: %w", err)
		}
		return s, nil
	case len(opts.Buttons) > 0:
		d, err := buttons.NewDigital(opts.Buttons...)
		if err != nil {
			return nil, fmt.Errorf("platform: %w", err)
		}
		return d, nil
	}
	return nil, nil
}

// ShiftRegisterPins looks up the 74HC165 pins by name. All three names empty
// returns nil; a partial set is an error.
func ShiftRegisterPins(latch, clock, data string) (*ShiftPins, error) {
	if latch == "" && clock == "" && data == "" {
		return nil, nil
	}
	var p [3]gpio.PinIO
	for i, name := range []string{latch, clock, data} {
		if name == "" {
			return nil, errors.New("platform: shift register needs latch, clock and data pins")
		}
		if p[i] = gpioreg.ByName(name); p[i] == nil {
			return nil, fmt.Errorf("platform: no gpio pin %q", name)
		}
	}
	return &ShiftPins{Latch: p[0], Clock: p[1], Data: p[2]}, nil
}

// ButtonPins looks up the named pins in the gpio registry. Empty names are
// skipped. The result keeps the order calibrate, temperature, language.
func ButtonPins(calibrate, temperature, language string, activeHigh bool) ([]buttons.Pin, error) {
	var out []buttons.Pin
	for _, b := range []struct {
		id   buttons.ID
		name string
	}{
		{buttons.Calibrate, calibrate},
		{buttons.Temperature, temperature},
		{buttons.Language, language},
	} {
		if b.name == "" {
			continue
		}
		p := gpioreg.ByName(b.name)
		if p == nil {
			return nil, fmt.Errorf("platform: no gpio pin %q for %s", b.name, b.id)
		}
		out = append(out, buttons.Pin{ID: b.id, Pin: p, ActiveHigh: activeHigh})
	}
	return out, nil
}

// OutPin looks up an output pin by name. An empty name returns nil.
func OutPin(name string) (gpio.PinOut, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("platform: no gpio pin %q", name)
	}
	return p, nil
}
