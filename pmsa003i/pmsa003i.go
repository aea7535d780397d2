// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pmsa003i provides a driver for the Plantower PMSA003I particulate
// matter sensor in its i2c variant.
//
// The device continuously refreshes a 32 byte frame holding mass
// concentrations (standard particle and atmospheric environment) and
// particle counts per 0.1L of air.
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/product-files/4632/4505_PMSA003I_series_data_manual_English_V2.6.pdf
package pmsa003i

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// DefaultAddress is the fixed i2c address of the sensor.
const DefaultAddress uint16 = 0x12

const (
	frameSize   = 32
	frameLength = frameSize - 4
)

var (
	// ErrFrame is returned when the frame header or length is wrong.
	ErrFrame = errors.New("pmsa003i: invalid frame")
	// ErrChecksum is returned when the frame checksum does not match.
	ErrChecksum = errors.New("pmsa003i: invalid checksum")
)

// Concentration is a mass concentration in µg/m³.
type Concentration uint16

// Reading is one decoded frame.
type Reading struct {
	// Standard particle (CF=1) concentrations.
	PM10Standard  Concentration
	PM25Standard  Concentration
	PM100Standard Concentration
	// Atmospheric environment concentrations.
	PM10Env  Concentration
	PM25Env  Concentration
	PM100Env Concentration
	// Particle counts per 0.1L beyond the given diameter.
	Particles03um  uint16
	Particles05um  uint16
	Particles10um  uint16
	Particles25um  uint16
	Particles50um  uint16
	Particles100um uint16
	Version        uint8
	ErrorCode      uint8
}

func (r *Reading) String() string {
	return fmt.Sprintf("PM1.0: %d PM2.5: %d PM10: %d µg/m³", r.PM10Env, r.PM25Env, r.PM100Env)
}

// Dev is a handle to a PMSA003I.
type Dev struct {
	d i2c.Dev
}

// New returns a handle to a PMSA003I and reads one frame to check the device
// is responding.
func New(b i2c.Bus, addr uint16) (*Dev, error) {
	d := &Dev{d: i2c.Dev{Bus: b, Addr: addr}}
	var r Reading
	if err := d.Sense(&r); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("pmsa003i{%s}", &d.d)
}

// Sense reads and decodes the current frame.
func (d *Dev) Sense(r *Reading) error {
	b := make([]byte, frameSize)
	if err := d.d.Tx(nil, b); err != nil {
		return fmt.Errorf("pmsa003i: %w", err)
	}
	return decode(b, r)
}

func decode(b []byte, r *Reading) error {
	if len(b) != frameSize || b[0] != 0x42 || b[1] != 0x4d || word(b, 2) != frameLength {
		return ErrFrame
	}
	var sum uint16
	for _, v := range b[:frameSize-2] {
		sum += uint16(v)
	}
	if sum != word(b, 30) {
		return ErrChecksum
	}
	r.PM10Standard = Concentration(word(b, 4))
	r.PM25Standard = Concentration(word(b, 6))
	r.PM100Standard = Concentration(word(b, 8))
	r.PM10Env = Concentration(word(b, 10))
	r.PM25Env = Concentration(word(b, 12))
	r.PM100Env = Concentration(word(b, 14))
	r.Particles03um = word(b, 16)
	r.Particles05um = word(b, 18)
	r.Particles10um = word(b, 20)
	r.Particles25um = word(b, 22)
	r.Particles50um = word(b, 24)
	r.Particles100um = word(b, 26)
	r.Version = b[28]
	r.ErrorCode = b[29]
	return nil
}

func word(b []byte, offset int) uint16 {
	return uint16(b[offset])<<8 | uint16(b[offset+1])
}
