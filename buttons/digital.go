// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package buttons

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// Pin binds a GPIO input to a button.
type Pin struct {
	ID  ID
	Pin gpio.PinIn
	// ActiveHigh is set for buttons wired to Vcc with a pull down, as on the
	// FunHouse. The default is a pull up with the button to ground.
	ActiveHigh bool
}

// Digital is a Source of discrete inputs.
type Digital struct {
	pins []Pin
}

// NewDigital configures each pin as an input with the matching pull. The
// order of pins is the priority order.
func NewDigital(pins ...Pin) (*Digital, error) {
	for _, p := range pins {
		pull := gpio.PullUp
		if p.ActiveHigh {
			pull = gpio.PullDown
		}
		if err := p.Pin.In(pull, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("buttons: %s: %w", p.ID, err)
		}
	}
	return &Digital{pins: pins}, nil
}

// Asserted implements Source.
func (d *Digital) Asserted() (ID, bool) {
	for _, p := range d.pins {
		if (p.Pin.Read() == gpio.High) == p.ActiveHigh {
			return p.ID, true
		}
	}
	return None, false
}
