// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package alert plays tones on a piezo buzzer and drives the indicator LEDs.
package alert

import (
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Filler sets every LED of an indicator to one colour.
type Filler interface {
	Fill(c color.Color) error
}

// Opts configures an Alerter.
type Opts struct {
	Logger *slog.Logger
	Sleep  func(time.Duration)
}

// Alerter plays tones with a square wave on a PWM capable pin. Either the
// buzzer or the LEDs may be nil.
type Alerter struct {
	buzzer gpio.PinOut
	leds   Filler
	log    *slog.Logger
	sleep  func(time.Duration)
}

// New returns an Alerter.
func New(buzzer gpio.PinOut, leds Filler, opts *Opts) *Alerter {
	a := &Alerter{buzzer: buzzer, leds: leds, log: slog.Default(), sleep: time.Sleep}
	if opts != nil {
		if opts.Logger != nil {
			a.log = opts.Logger
		}
		if opts.Sleep != nil {
			a.sleep = opts.Sleep
		}
	}
	return a
}

func (a *Alerter) String() string {
	return fmt.Sprintf("Alerter{%s}", a.buzzer)
}

// PlayTone sounds f for d. It blocks for d.
func (a *Alerter) PlayTone(f physic.Frequency, d time.Duration) {
	if a.buzzer == nil {
		return
	}
	if err := a.buzzer.PWM(gpio.DutyHalf, f); err != nil {
		a.log.Warn("buzzer", "pin", a.buzzer, "freq", f, "err", err)
		return
	}
	a.sleep(d)
	if err := a.buzzer.Out(gpio.Low); err != nil {
		a.log.Warn("buzzer", "pin", a.buzzer, "err", err)
	}
}

// SetIndicator fills the LEDs with c.
func (a *Alerter) SetIndicator(c color.Color) {
	if a.leds == nil {
		return
	}
	if err := a.leds.Fill(c); err != nil {
		a.log.Warn("indicator", "err", err)
	}
}

// Halt silences the buzzer and turns the LEDs off.
func (a *Alerter) Halt() error {
	if a.buzzer != nil {
		if err := a.buzzer.Out(gpio.Low); err != nil {
			return err
		}
	}
	if a.leds != nil {
		return a.leds.Fill(color.Black)
	}
	return nil
}
