// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/GermanBionicSystems/airmon/alert"
	"github.com/GermanBionicSystems/airmon/buttons"
	"github.com/GermanBionicSystems/airmon/config"
	"github.com/GermanBionicSystems/airmon/indicator"
	"github.com/GermanBionicSystems/airmon/interpret"
	"github.com/GermanBionicSystems/airmon/monitor"
	"github.com/GermanBionicSystems/airmon/platform"
	"github.com/GermanBionicSystems/airmon/poller"
	"github.com/GermanBionicSystems/airmon/quality"
	"github.com/GermanBionicSystems/airmon/render"
	"github.com/GermanBionicSystems/airmon/termview"
	"github.com/GermanBionicSystems/airmon/trend"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// hardware is what was found at startup.
type hardware struct {
	bus    i2c.BusCloser
	hw     platform.Hardware
	co2    poller.Sensor
	pm     poller.Sensor
	buzzer gpio.PinOut
}

// openHardware finds the sensors and the front panel. With simulate set the
// sensors are simulated; the pins are still looked up so a simulated monitor
// can run on a real panel.
func openHardware(cfg *config.Config, log *slog.Logger) (*hardware, error) {
	h := &hardware{}
	if cfg.Simulate {
		seed := uint64(time.Now().UnixNano())
		h.co2 = platform.NewSimulatedCO2(seed)
		h.pm = platform.NewSimulatedPM(seed)
	} else {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("host: %w", err)
		}
		bus, err := i2creg.Open(cfg.I2CBus)
		if err != nil {
			log.Warn("no i2c bus, sensors are absent", "bus", cfg.I2CBus, "err", err)
		} else {
			h.bus = bus
			h.co2 = platform.FindCO2(bus)
			h.pm = platform.FindPM(bus)
		}
	}
	pins, err := platform.ButtonPins(cfg.Pins.Calibrate, cfg.Pins.Temperature, cfg.Pins.Language, cfg.Pins.ActiveHigh)
	if err != nil {
		h.close()
		return nil, err
	}
	shift, err := platform.ShiftRegisterPins(cfg.Pins.ShiftLatch, cfg.Pins.ShiftClock, cfg.Pins.ShiftData)
	if err != nil {
		h.close()
		return nil, err
	}
	if h.buzzer, err = platform.OutPin(cfg.Pins.Buzzer); err != nil {
		h.close()
		return nil, err
	}
	var bus i2c.Bus
	if h.bus != nil {
		bus = h.bus
	}
	if h.hw, err = platform.Detect(&platform.Opts{
		Bus:       bus,
		Buttons:   pins,
		Shift:     shift,
		Buzzer:    h.buzzer,
		Indicator: cfg.Indicator.Count > 0,
		Simulated: cfg.Simulate,
		Logger:    log,
	}); err != nil {
		h.close()
		return nil, err
	}
	return h, nil
}

// channels returns the CO2 channel, always first, and the PM2.5 channel when
// a particle sensor was found.
func (h *hardware) channels(cfg *config.Config, log *slog.Logger) []*monitor.Channel {
	out := []*monitor.Channel{{
		Name:   quality.CO2.Unit + " " + quality.CO2.Name,
		Poller: poller.New(h.co2, &poller.Opts{Logger: log.With("sensor", "co2")}),
		Table:  quality.CO2,
		Trend:  trend.New(cfg.TrendDepth, trend.Empty),
	}}
	if h.pm != nil {
		out = append(out, &monitor.Channel{
			Name:   quality.PM25.Name + " PM2.5",
			Poller: poller.New(h.pm, &poller.Opts{Logger: log.With("sensor", "pm25")}),
			Table:  quality.PM25,
			Trend:  trend.New(cfg.TrendDepth, trend.Empty),
		})
	}
	return out
}

func (h *hardware) close() {
	if h.bus != nil {
		_ = h.bus.Close()
	}
}

type app struct {
	*hardware
	loop  *monitor.Loop
	halts []func() error
	log   *slog.Logger
}

func newApp(cfg *config.Config, log *slog.Logger, out io.Writer) (*app, error) {
	h, err := openHardware(cfg, log)
	if err != nil {
		return nil, err
	}
	a := &app{hardware: h, log: log}
	chans := h.channels(cfg, log)

	var leds alert.Filler
	if cfg.Indicator.Count > 0 {
		strip, err := indicator.New(&indicator.Opts{Count: cfg.Indicator.Count, Brightness: cfg.Brightness, Out: out})
		if err != nil {
			a.halt()
			return nil, err
		}
		leds = strip
		a.halts = append(a.halts, strip.Halt)
	}
	alerter := alert.New(h.buzzer, leds, &alert.Opts{Logger: log})
	a.halts = append(a.halts, alerter.Halt)

	renderer, err := a.renderer(cfg, len(chans), out)
	if err != nil {
		a.halt()
		return nil, err
	}

	var reader buttons.Reader
	if h.hw.Buttons != nil {
		opts := &buttons.Opts{Timeout: cfg.ButtonTimeout}
		if h.buzzer != nil {
			opts.Feedback = buttons.ToneFeedback{T: alerter}
		}
		if reader, err = buttons.NewDecoder(h.hw.Buttons, opts); err != nil {
			a.halt()
			return nil, err
		}
	}

	tr, err := interpret.New(interpret.Language(cfg.Language))
	if err != nil {
		a.halt()
		return nil, err
	}
	var battery monitor.Battery
	if h.hw.Battery != nil {
		battery = h.hw.Battery
	}

	a.loop, err = monitor.New(monitor.Options{
		Channels:     chans,
		Buttons:      reader,
		Renderer:     renderer,
		Alerter:      alerter,
		Battery:      battery,
		Translator:   tr,
		Capabilities: h.hw.Capabilities,
		Mode: monitor.Mode{
			Unit:           monitor.TemperatureUnit(strings.ToUpper(cfg.TemperatureUnit)),
			Translate:      cfg.Translate,
			AlarmThreshold: cfg.AlarmThreshold,
		},
		Title:                  cfg.ScreenTitle,
		SensorInterval:         cfg.SensorInterval,
		WarmupTimeout:          cfg.WarmupTimeout,
		ButtonTimeout:          cfg.ButtonTimeout,
		AlarmRepeat:            cfg.AlarmRepeat,
		LowBattery:             physic.ElectricPotential(cfg.Battery.LowVoltage * float64(physic.Volt)),
		BatteryRequiresInvalid: cfg.Battery.RequireInvalid,
		Logger:                 log,
	})
	if err != nil {
		a.halt()
		return nil, err
	}
	return a, nil
}

func (a *app) renderer(cfg *config.Config, channels int, out io.Writer) (monitor.Renderer, error) {
	if cfg.Display == config.DisplaySSD1306 {
		if a.bus == nil {
			a.log.Warn("ssd1306 needs an i2c bus, using the terminal")
		} else {
			dev, err := ssd1306.NewI2C(a.bus, &ssd1306.DefaultOpts)
			if err != nil {
				return nil, fmt.Errorf("ssd1306: %w", err)
			}
			f, err := render.New(dev, &render.Opts{Channels: channels, Logger: a.log})
			if err != nil {
				return nil, err
			}
			if err := f.SetBrightness(cfg.Brightness); err != nil {
				a.log.Warn("brightness", "err", err)
			}
			a.halts = append(a.halts, f.Halt)
			return f, nil
		}
	}
	return termview.New(&termview.Opts{Channels: channels, Out: out}), nil
}

func (a *app) halt() {
	for _, h := range a.halts {
		if err := h(); err != nil {
			a.log.Warn("halt", "err", err)
		}
	}
	a.close()
}
