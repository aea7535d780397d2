// Copyright 2023 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ina260

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddress is the address with A0 and A1 tied to ground.
const DefaultAddress uint16 = 0x40

const (
	regConfig     uint8 = 0x00 // CONFIGURATION REGISTER (R/W)
	regCurrent    uint8 = 0x01 // CURRENT REGISTER (R)
	regBusVoltage uint8 = 0x02 // BUS VOLTAGE REGISTER (R)
	regPower      uint8 = 0x03 // POWER REGISTER (R)
	regMfgUID     uint8 = 0xFE // MANUFACTURER UNIQUE ID REGISTER (R)
	regDieUID     uint8 = 0xFF // DIE UNIQUE ID REGISTER (R)

	// Texas Instruments "TI" in ASCII.
	manufacturerTI uint16 = 0x5449

	// LSB weights.
	currentLSB = 1250 * physic.MicroAmpere
	voltageLSB = 1250 * physic.MicroVolt
	powerLSB   = 10 * physic.MilliWatt
)

// PowerMonitor is one reading of the monitored rail.
type PowerMonitor struct {
	Current physic.ElectricCurrent
	Voltage physic.ElectricPotential
	Power   physic.Power
}

func (p PowerMonitor) String() string {
	return fmt.Sprintf("%s %s %s", p.Voltage, p.Current, p.Power)
}

// Dev is a handle to an ina260.
type Dev struct {
	c *i2c.Dev
}

// New returns a handle to an ina260 and checks the manufacturer id.
func New(bus i2c.Bus, addr uint16) (*Dev, error) {
	d := &Dev{c: &i2c.Dev{Bus: bus, Addr: addr}}
	id, err := d.ManufacturerID()
	if err != nil {
		return nil, err
	}
	if id != manufacturerTI {
		return nil, fmt.Errorf("ina260: unexpected manufacturer id 0x%04x", id)
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ina260{%s}", d.c)
}

// Sense reads current, bus voltage and power.
func (d *Dev) Sense() (PowerMonitor, error) {
	var p PowerMonitor
	amps, err := d.readRegister(regCurrent)
	if err != nil {
		return p, err
	}
	volts, err := d.readRegister(regBusVoltage)
	if err != nil {
		return p, err
	}
	watts, err := d.readRegister(regPower)
	if err != nil {
		return p, err
	}
	// Current is two's complement, the other registers are unsigned.
	p.Current = physic.ElectricCurrent(int16(amps)) * currentLSB
	p.Voltage = physic.ElectricPotential(volts) * voltageLSB
	p.Power = physic.Power(watts) * powerLSB
	return p, nil
}

// Voltage reads only the bus voltage.
func (d *Dev) Voltage() (physic.ElectricPotential, error) {
	volts, err := d.readRegister(regBusVoltage)
	if err != nil {
		return 0, err
	}
	return physic.ElectricPotential(volts) * voltageLSB, nil
}

// Reset sets every register to its default value.
func (d *Dev) Reset() error {
	if err := d.c.Tx([]byte{regConfig, 0x80, 0x00}, nil); err != nil {
		return fmt.Errorf("ina260: %w", err)
	}
	return nil
}

// ManufacturerID returns the manufacturer id register, 0x5449 for TI.
func (d *Dev) ManufacturerID() (uint16, error) {
	return d.readRegister(regMfgUID)
}

// DieID returns the die id register.
func (d *Dev) DieID() (uint16, error) {
	return d.readRegister(regDieUID)
}

func (d *Dev) readRegister(reg uint8) (uint16, error) {
	b := make([]byte, 2)
	if err := d.c.Tx([]byte{reg}, b); err != nil {
		return 0, fmt.Errorf("ina260: register 0x%02x: %w", reg, err)
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}
