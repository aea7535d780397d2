// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package buttons

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// Key binds one shift register bit to a button. Bit 0 is the last bit
// shifted out.
type Key struct {
	Bit uint
	ID  ID
}

// PyBadge is the PyBadge/PyGamer front panel mapping: START calibrates,
// SELECT toggles the temperature unit and A toggles the language.
var PyBadge = []Key{
	{Bit: 2, ID: Calibrate},
	{Bit: 3, ID: Select},
	{Bit: 1, ID: Language},
}

// ShiftRegister is a Source reading a 74HC165 style parallel-in serial-out
// register.
type ShiftRegister struct {
	latch gpio.PinOut
	clock gpio.PinOut
	data  gpio.PinIn
	width uint
	keys  []Key
	// ActiveLow inverts every bit.
	ActiveLow bool
}

// NewShiftRegister returns a Source reading width bits. The order of keys is
// the priority order.
func NewShiftRegister(latch, clock gpio.PinOut, data gpio.PinIn, width uint, keys []Key) (*ShiftRegister, error) {
	if width == 0 || width > 32 {
		return nil, fmt.Errorf("buttons: invalid shift register width %d", width)
	}
	for _, k := range keys {
		if k.Bit >= width {
			return nil, fmt.Errorf("buttons: %s bit %d outside register", k.ID, k.Bit)
		}
	}
	if err := latch.Out(gpio.High); err != nil {
		return nil, err
	}
	if err := clock.Out(gpio.Low); err != nil {
		return nil, err
	}
	if err := data.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, err
	}
	return &ShiftRegister{latch: latch, clock: clock, data: data, width: width, keys: keys}, nil
}

// Sample latches the inputs and shifts them out, first bit in the most
// significant position.
func (s *ShiftRegister) Sample() (uint32, error) {
	// A low latch loads the parallel inputs.
	if err := s.latch.Out(gpio.Low); err != nil {
		return 0, err
	}
	if err := s.latch.Out(gpio.High); err != nil {
		return 0, err
	}
	var v uint32
	for range s.width {
		v <<= 1
		if s.data.Read() == gpio.High {
			v |= 1
		}
		if err := s.clock.Out(gpio.High); err != nil {
			return 0, err
		}
		if err := s.clock.Out(gpio.Low); err != nil {
			return 0, err
		}
	}
	if s.ActiveLow {
		v = ^v & (1<<s.width - 1)
	}
	return v, nil
}

// Asserted implements Source. A failed sample reads as nothing pressed.
func (s *ShiftRegister) Asserted() (ID, bool) {
	v, err := s.Sample()
	if err != nil {
		return None, false
	}
	for _, k := range s.keys {
		if v&(1<<k.Bit) != 0 {
			return k.ID, true
		}
	}
	return None, false
}
