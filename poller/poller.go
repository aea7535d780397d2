// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package poller acquires samples from a gas sensor on demand, either
// returning immediately when no data is ready or waiting up to a timeout.
//
// Sensor presence is probed once when the Poller is created. An absent
// sensor makes every later call fail with ErrAbsent without touching the
// bus.
package poller

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/physic"
)

var (
	// ErrAbsent is returned for every call when the sensor failed its probe.
	ErrAbsent = errors.New("poller: sensor absent")
	// ErrNotReady is returned by a non-blocking poll when no data is ready.
	ErrNotReady = errors.New("poller: data not ready")
	// ErrTimeout is returned by a blocking poll that ran out of time.
	ErrTimeout = errors.New("poller: timeout waiting for data")
)

// Tick is the interval between data ready checks of a blocking poll.
const Tick = 100 * time.Millisecond

// Sample is one raw measurement. No unit conversion is applied.
type Sample struct {
	Concentration float64
	Humidity      physic.RelativeHumidity
	Temperature   physic.Temperature
	// HasEnv is false for sensors that do not report humidity and
	// temperature.
	HasEnv bool
}

// Sensor is implemented by the device adapters.
type Sensor interface {
	// Probe checks the device responds. It is called once.
	Probe() error
	DataReady() (bool, error)
	// Sense reads concentration, humidity and temperature in one
	// transaction.
	Sense(s *Sample) error
	SetMeasurementInterval(interval time.Duration) error
	SetRecalibrationReference(ppm float64) error
}

// Opts configures a Poller.
type Opts struct {
	// Warmup is called on every data ready check of a blocking poll.
	Warmup func()
	Logger *slog.Logger
	// Now and Sleep default to the time package.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// Poller wraps a Sensor.
type Poller struct {
	sensor  Sensor
	present bool
	warmup  func()
	log     *slog.Logger
	now     func() time.Time
	sleep   func(time.Duration)
}

// New probes s once and returns a Poller. A nil sensor or a failed probe
// yields a Poller whose sensor is permanently absent.
func New(s Sensor, opts *Opts) *Poller {
	p := &Poller{sensor: s, warmup: func() {}, log: slog.Default(), now: time.Now, sleep: time.Sleep}
	if opts != nil {
		if opts.Warmup != nil {
			p.warmup = opts.Warmup
		}
		if opts.Logger != nil {
			p.log = opts.Logger
		}
		if opts.Now != nil {
			p.now = opts.Now
		}
		if opts.Sleep != nil {
			p.sleep = opts.Sleep
		}
	}
	if s != nil {
		if err := s.Probe(); err != nil {
			p.log.Warn("sensor probe failed", "err", err)
		} else {
			p.present = true
		}
	}
	return p
}

// SetWarmup replaces the hook called on every data ready check of a
// blocking poll.
func (p *Poller) SetWarmup(f func()) {
	if f == nil {
		f = func() {}
	}
	p.warmup = f
}

// Present reports the cached probe result.
func (p *Poller) Present() bool {
	return p.present
}

// Poll returns one sample. When blocking is false and the sensor has no data
// it returns ErrNotReady at once. When blocking is true it checks every Tick
// until data is ready or timeout elapsed.
func (p *Poller) Poll(blocking bool, timeout time.Duration) (Sample, error) {
	var s Sample
	if !p.present {
		return s, ErrAbsent
	}
	deadline := p.now().Add(timeout)
	for {
		ready, err := p.sensor.DataReady()
		if err != nil {
			return s, fmt.Errorf("poller: data ready: %w", err)
		}
		if ready {
			break
		}
		if !blocking {
			return s, ErrNotReady
		}
		p.warmup()
		if !p.now().Before(deadline) {
			return s, ErrTimeout
		}
		p.sleep(Tick)
	}
	if err := p.sensor.Sense(&s); err != nil {
		return Sample{}, fmt.Errorf("poller: sense: %w", err)
	}
	return s, nil
}

// Recalibrate forwards a forced recalibration reference to the sensor.
func (p *Poller) Recalibrate(ppm float64) error {
	if !p.present {
		return ErrAbsent
	}
	return p.sensor.SetRecalibrationReference(ppm)
}

// Configure sets the sensor measurement interval.
func (p *Poller) Configure(interval time.Duration) error {
	if !p.present {
		return ErrAbsent
	}
	return p.sensor.SetMeasurementInterval(interval)
}
