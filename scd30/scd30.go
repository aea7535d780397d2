// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd30

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/airmon/common"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// PPM is the CO2 concentration in parts per million.
type PPM float64

func (ppm PPM) String() string {
	return fmt.Sprintf("%.1f PPM", float64(ppm))
}

const (
	// DefaultAddress is the fixed i2c address of the SCD30.
	DefaultAddress uint16 = 0x61

	MinInterval = 2 * time.Second
	MaxInterval = 1800 * time.Second

	MinRecalibration PPM = 400
	MaxRecalibration PPM = 2000

	// Time the device needs between the command write and the read.
	readDelay = 3 * time.Millisecond
)

const (
	cmdStartContinuous   uint16 = 0x0010
	cmdStopContinuous    uint16 = 0x0104
	cmdMeasureInterval   uint16 = 0x4600
	cmdDataReady         uint16 = 0x0202
	cmdReadMeasurement   uint16 = 0x0300
	cmdAutoCalibration   uint16 = 0x5306
	cmdForcedCalibration uint16 = 0x5204
	cmdTemperatureOffset uint16 = 0x5403
	cmdAltitude          uint16 = 0x5102
	cmdFirmwareVersion   uint16 = 0xd100
	cmdSoftReset         uint16 = 0xd304
)

// ErrNotReady is returned by Sense when no measurement arrived in time.
var ErrNotReady = errors.New("scd30: timeout waiting for data ready")

// Env is a single measurement.
type Env struct {
	physic.Env
	CO2 PPM
}

func (e *Env) String() string {
	return fmt.Sprintf("Temperature: %s Humidity: %s CO2: %s", e.Temperature, e.Humidity, e.CO2)
}

// Dev is a handle to an SCD30.
type Dev struct {
	d        i2c.Dev
	mu       sync.Mutex
	interval time.Duration
}

// NewI2C returns a handle to an SCD30 and starts continuous measurement
// without ambient pressure compensation.
func NewI2C(b i2c.Bus, addr uint16) (*Dev, error) {
	d := &Dev{d: i2c.Dev{Bus: b, Addr: addr}, interval: MinInterval}
	if err := d.write(cmdStartContinuous, 0); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("scd30{%s}", &d.d)
}

// DataReady reports whether a measurement can be read.
func (d *Dev) DataReady() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.read(cmdDataReady, 1)
	if err != nil {
		return false, err
	}
	return words[0] == 1, nil
}

// ReadMeasurement reads the current measurement buffer. Call DataReady first.
func (d *Dev) ReadMeasurement(e *Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.read(cmdReadMeasurement, 6)
	if err != nil {
		return err
	}
	e.CO2 = PPM(common.WordsToFloat32(words[0], words[1]))
	t := common.WordsToFloat32(words[2], words[3])
	rh := common.WordsToFloat32(words[4], words[5])
	e.Temperature = physic.ZeroCelsius + physic.Temperature(float64(t)*float64(physic.Celsius))
	e.Humidity = physic.RelativeHumidity(float64(rh) * float64(physic.PercentRH))
	e.Pressure = 0
	return nil
}

// Sense waits up to two measurement intervals for a sample.
func (d *Dev) Sense(e *Env) error {
	deadline := time.Now().Add(2 * d.interval)
	for {
		ready, err := d.DataReady()
		if err != nil {
			return err
		}
		if ready {
			return d.ReadMeasurement(e)
		}
		if time.Now().After(deadline) {
			return ErrNotReady
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// SetMeasurementInterval sets the continuous measurement period. The
// device accepts whole seconds between 2 and 1800.
func (d *Dev) SetMeasurementInterval(interval time.Duration) error {
	if interval < MinInterval || interval > MaxInterval {
		return fmt.Errorf("scd30: interval %s out of range [%s, %s]", interval, MinInterval, MaxInterval)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.write(cmdMeasureInterval, uint16(interval/time.Second)); err != nil {
		return err
	}
	d.interval = interval.Truncate(time.Second)
	return nil
}

// MeasurementInterval returns the interval read back from the device.
func (d *Dev) MeasurementInterval() (time.Duration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.read(cmdMeasureInterval, 1)
	if err != nil {
		return 0, err
	}
	return time.Duration(words[0]) * time.Second, nil
}

// SetAutoSelfCalibration enables or disables automatic self calibration.
func (d *Dev) SetAutoSelfCalibration(enabled bool) error {
	var v uint16
	if enabled {
		v = 1
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(cmdAutoCalibration, v)
}

// PerformForcedRecalibration tells the sensor the current concentration is
// ref. Valid references are 400 to 2000 ppm.
func (d *Dev) PerformForcedRecalibration(ref PPM) error {
	if ref < MinRecalibration || ref > MaxRecalibration {
		return fmt.Errorf("scd30: recalibration reference %s out of range", ref)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(cmdForcedCalibration, uint16(ref))
}

// SetTemperatureOffset sets the self-heating compensation, in 0.01K steps.
func (d *Dev) SetTemperatureOffset(offset physic.Temperature) error {
	if offset < 0 {
		return errors.New("scd30: temperature offset must be positive")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(cmdTemperatureOffset, uint16(offset/(10*physic.MilliKelvin)))
}

// SetAltitude sets the altitude compensation.
func (d *Dev) SetAltitude(alt physic.Distance) error {
	if alt < 0 {
		return errors.New("scd30: altitude must be positive")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(cmdAltitude, uint16(alt/physic.Metre))
}

// FirmwareVersion returns the major and minor firmware version.
func (d *Dev) FirmwareVersion() (major, minor byte, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.read(cmdFirmwareVersion, 1)
	if err != nil {
		return 0, 0, err
	}
	return byte(words[0] >> 8), byte(words[0]), nil
}

// Reset performs a soft reset. The device returns in continuous mode with
// the settings stored in its non-volatile memory.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(cmdSoftReset)
}

// Halt stops continuous measurement.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(cmdStopContinuous)
}

// write sends a command with an optional argument.
func (d *Dev) write(cmd uint16, arg ...uint16) error {
	w := []byte{byte(cmd >> 8), byte(cmd)}
	w = append(w, common.EncodeWords(arg)...)
	if err := d.d.Tx(w, nil); err != nil {
		return fmt.Errorf("scd30 cmd 0x%04x: %w", cmd, err)
	}
	return nil
}

// read sends cmd, waits for the device and reads n words.
func (d *Dev) read(cmd uint16, n int) ([]uint16, error) {
	if err := d.write(cmd); err != nil {
		return nil, err
	}
	time.Sleep(readDelay)
	r := make([]byte, n*3)
	if err := d.d.Tx(nil, r); err != nil {
		return nil, fmt.Errorf("scd30 cmd 0x%04x: %w", cmd, err)
	}
	words, err := common.DecodeWords(r)
	if err != nil {
		return nil, fmt.Errorf("scd30 cmd 0x%04x: %w", cmd, err)
	}
	return words, nil
}
