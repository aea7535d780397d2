// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/airmon/common"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// PPM=Parts Per Million. Units of measure for CO2 concentration.
type PPM int

// Sensor Variant type
type Variant int

const (
	SCD40 Variant = iota
	SCD41
)

// Type of reset to perform.
type ResetMode int

const (
	ResetFactory ResetMode = iota
	// Reset to last values stored in EEPROM
	ResetEEPROM
)

const (
	// These devices only support this i2c address.
	SensorAddress uint16 = 0x62

	// Valid range for the forced recalibration target.
	minFRCTarget PPM = 400
	maxFRCTarget PPM = 2000
)

// ErrRecalibrationFailed is returned when the device rejects a forced
// recalibration, usually because it was not measuring for 3 minutes prior.
var ErrRecalibrationFailed = errors.New("scd4x: forced recalibration failed")

type cmd uint16

// Structure to simplify sending commands to the device.
type command struct {
	// The 16-bit command words.
	cmdWord cmd
	// The expected number of bytes returned. 0, 3, or 9.
	responseSize int
	// True if this command is permitted while the sensor is running in
	// acquisition mode.
	whileSensing bool
	// Execution time required between the write and the read phase.
	execTime time.Duration
}

var cmdStartMeasurement = command{
	cmdWord: 0x21b1,
}

var cmdReadMeasurement = command{
	cmdWord:      0xec05,
	responseSize: 9,
	whileSensing: true,
}

var cmdStopMeasurement = command{
	cmdWord:      0x3f86,
	whileSensing: true,
}
var cmdGetTemperatureOffset = command{
	cmdWord:      0x2318,
	responseSize: 3,
}
var cmdGetSensorAltitude = command{
	cmdWord:      0x2322,
	responseSize: 3,
}
var cmdGetAmbientPressure = command{
	cmdWord:      0xe000,
	responseSize: 3,
	whileSensing: true,
}
var cmdGetASCEnabled = command{
	cmdWord:      0x2313,
	responseSize: 3,
}
var cmdGetASCTarget = command{
	cmdWord:      0x233f,
	responseSize: 3,
}
var cmdGetDataReadyStatus = command{
	cmdWord:      0xe4b8,
	responseSize: 3,
	whileSensing: true,
}
var cmdGetSerialNumber = command{
	cmdWord:      0x3682,
	responseSize: 9,
}
var cmdPerformFactoryReset = command{
	cmdWord: 0x3632,
}
var cmdReinit = command{
	cmdWord: 0x3646,
}
var cmdGetSensorVariant = command{
	cmdWord:      0x202f,
	responseSize: 3,
}
var cmdPerformForcedRecalibration = command{
	cmdWord:      0x362f,
	responseSize: 3,
	execTime:     400 * time.Millisecond,
}
var cmdWakeUp = command{
	cmdWord: 0x36f6,
}

// DevConfig is the current running configuration of the device. Values prefixed
// with ASC refer to Auto-Self-Calibration. Use Dev.GetConfiguration() to read
// the values.
//
// Refer to the datasheet for more information on settings.
type DevConfig struct {
	// Ambient pressure value. Used to adjust operation of sensor.
	AmbientPressure physic.Pressure
	// Automatic-Self-Calibration enabled. True or false.
	ASCEnabled bool
	// Target CO2 concentration for automatic self calibration.
	ASCTarget PPM
	// Sensor altitude in metres.
	SensorAltitude physic.Distance
	// The 48 bit unique serial number of the device. Read-Only
	SerialNumber int64
	// Offset temperature added to reading.
	TemperatureOffset physic.Temperature
	// The Type of sensor. SCD40 or SCD41. Read-Only
	SensorType Variant
}

// Dev represents an SCD4x device.
type Dev struct {
	// The i2c bus device.
	d  *i2c.Dev
	mu sync.Mutex
	// True if the device is in continuous sense mode.
	sensing bool
}

func (ppm *PPM) String() string {
	return fmt.Sprintf("%d PPM", *ppm)
}

// The sensor reading. Returns CO2 PPM, Temperature, and Humidity.
type Env struct {
	physic.Env
	CO2 PPM
}

// Return the sensor readings in string format.
func (e *Env) String() string {
	return fmt.Sprintf("Temperature: %s Humidity: %s CO2: %s", e.Temperature.String(), e.Humidity.String(), e.CO2.String())
}

// NewI2C creates a new SCD4x sensor using the supplied bus and address and
// starts periodic measurement. The constant value SensorAddress should be
// supplied as the value for addr.
func NewI2C(b i2c.Bus, addr uint16) (*Dev, error) {
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}}
	return d, d.start()
}

// GetConfiguration returns a structure containing the scd4x configuration
// variables.
func (d *Dev) GetConfiguration() (*DevConfig, error) {
	cfg := &DevConfig{}
	var words []uint16
	var err error

	if words, err = d.sendCommand(cmdGetAmbientPressure, nil); err != nil {
		return nil, err
	}
	cfg.AmbientPressure = physic.Pascal * 100 * physic.Pressure(words[0])

	if words, err = d.sendCommand(cmdGetASCEnabled, nil); err != nil {
		return nil, err
	}
	cfg.ASCEnabled = words[0] != 0

	if words, err = d.sendCommand(cmdGetASCTarget, nil); err != nil {
		return nil, err
	}
	cfg.ASCTarget = PPM(words[0])

	if words, err = d.sendCommand(cmdGetSerialNumber, nil); err != nil {
		return nil, err
	}
	cfg.SerialNumber = int64(words[0])<<32 | int64(words[1])<<16 | int64(words[2])

	if words, err = d.sendCommand(cmdGetSensorVariant, nil); err != nil {
		return nil, err
	}
	if (words[0]>>11)&0x07 == 0 {
		cfg.SensorType = SCD40
	} else {
		cfg.SensorType = SCD41
	}

	if words, err = d.sendCommand(cmdGetSensorAltitude, nil); err != nil {
		return nil, err
	}
	cfg.SensorAltitude = physic.Distance(words[0]) * physic.Metre

	if words, err = d.sendCommand(cmdGetTemperatureOffset, nil); err != nil {
		return nil, err
	}
	cfg.TemperatureOffset = countToOffset(words[0])

	return cfg, nil
}

// Halt stops continuous sensing if enabled.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sensing {
		d.sensing = false
		_, err := d.sendCommand(cmdStopMeasurement, nil)
		time.Sleep(550 * time.Millisecond)
		if err != nil {
			return err
		}
	}
	return nil
}

// Reset performs either a factory reset, or a re-load of settings from EEPROM
// depending on the value of mode. Measurement is restarted afterwards.
func (d *Dev) Reset(mode ResetMode) error {
	var err error
	if mode == ResetFactory {
		_, err = d.sendCommand(cmdPerformFactoryReset, nil)
	} else if mode == ResetEEPROM {
		_, err = d.sendCommand(cmdReinit, nil)
	} else {
		return fmt.Errorf("scd4x: invalid reset mode 0x%x", mode)
	}
	if err != nil {
		return err
	}
	time.Sleep(20 * time.Millisecond)
	return d.start()
}

// DataReady reports whether a new measurement can be read without waiting.
func (d *Dev) DataReady() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.sensing {
		return false, nil
	}
	return d.dataReady()
}

func (d *Dev) dataReady() (bool, error) {
	words, err := d.sendCommand(cmdGetDataReadyStatus, nil)
	if err != nil {
		return false, err
	}
	// The lower 11 bits are 0 when no data is ready.
	return words[0]&(1<<11-1) > 0, nil
}

// ReadMeasurement reads the latest measurement without waiting for the data
// ready flag. Use DataReady first; reading a stale buffer returns the
// previous sample.
func (d *Dev) ReadMeasurement(env *Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readMeasurement(env)
}

func (d *Dev) readMeasurement(env *Env) error {
	words, err := d.sendCommand(cmdReadMeasurement, nil)
	if err != nil {
		return err
	}
	env.CO2 = PPM(words[0])
	env.Temperature = countToTemp(words[1])
	env.Humidity = countToHumidity(words[2])
	env.Pressure = 0
	return nil
}

// PerformForcedRecalibration sets the current CO2 concentration to target.
// The sensor must have been operating in fresh air for at least three
// minutes. Periodic measurement is stopped for the duration of the command
// and restarted afterwards. The returned value is the correction applied by
// the device.
func (d *Dev) PerformForcedRecalibration(target PPM) (PPM, error) {
	if target < minFRCTarget || target > maxFRCTarget {
		return 0, fmt.Errorf("scd4x: recalibration target %d out of range [%d, %d]", target, minFRCTarget, maxFRCTarget)
	}
	if err := d.Halt(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	words, err := d.sendCommand(cmdPerformForcedRecalibration, []uint16{uint16(target)})
	d.mu.Unlock()
	if errStart := d.start(); err == nil {
		err = errStart
	}
	if err != nil {
		return 0, err
	}
	if words[0] == 0xffff {
		return 0, ErrRecalibrationFailed
	}
	return PPM(int(words[0]) - 0x8000), nil
}

// All commands to read or write to the sensor go through this function.
func (d *Dev) sendCommand(cmd command, writeData []uint16) ([]uint16, error) {
	if d.sensing && !cmd.whileSensing {
		// We're in sense mode and this command isn't compatible. Stop sensing.
		if err := d.Halt(); err != nil {
			return nil, err
		}
	}

	w := []byte{byte(cmd.cmdWord >> 8), byte(cmd.cmdWord)}
	if writeData != nil {
		w = append(w, common.EncodeWords(writeData)...)
	}
	var r []byte
	if cmd.responseSize > 0 {
		r = make([]byte, cmd.responseSize)
	}

	var err error
	if cmd.execTime > 0 && r != nil {
		if err = d.d.Tx(w, nil); err == nil {
			time.Sleep(cmd.execTime)
			err = d.d.Tx(nil, r)
		}
	} else {
		err = d.d.Tx(w, r)
	}
	if err != nil {
		return nil, fmt.Errorf("scd4x cmd 0x%x: %w", cmd.cmdWord, err)
	}
	if cmd.responseSize == 0 {
		return nil, nil
	}

	result, err := common.DecodeWords(r)
	if err != nil {
		return nil, fmt.Errorf("scd4x cmd 0x%x: %w", cmd.cmdWord, err)
	}
	return result, nil
}

// start continuous sensing.
func (d *Dev) start() error {
	if d.sensing {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.sendCommand(cmdWakeUp, nil)
	if err != nil {
		// If an SCD4x is in measurement mode, then any non-measurement mode
		// command will return an error. In that case, send a stop measurement
		// command, wait the specified time and try sending a re-init.
		_, _ = d.sendCommand(cmdStopMeasurement, nil)
		time.Sleep(550 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	_, err = d.sendCommand(cmdStartMeasurement, nil)
	if err == nil {
		d.sensing = true
	}
	return err
}

// Formula used for temperature offset calculation.
func countToOffset(count uint16) physic.Temperature {
	frac := 175.0 / 65535.0
	return physic.Temperature(frac * float64(count) * float64(physic.Kelvin))
}

// countToTemp converts a device count to Temperature
func countToTemp(count uint16) physic.Temperature {
	frac := float64(count) / 65535.0
	result := -45 + 175*frac
	return physic.ZeroCelsius + physic.Temperature(float64(physic.Celsius)*result)
}

func countToHumidity(count uint16) physic.RelativeHumidity {
	frac := float64(count) / 65535.0
	return physic.RelativeHumidity(frac * 100.0 * float64(physic.PercentRH))
}

// Sense blocks until a measurement is available, up to 6 seconds, and
// returns it. In normal acquisition mode a new sample arrives every 5
// seconds.
func (d *Dev) Sense(env *Env) error {
	env.Temperature = 0
	env.Humidity = 0
	env.CO2 = 0
	env.Pressure = 0

	if !d.sensing {
		if err := d.start(); err != nil {
			return err
		}
		time.Sleep(5 * time.Second)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	ready := false
	tCutoff := time.Now().Add(6 * time.Second)
	for !ready && time.Now().Before(tCutoff) {
		var err error
		ready, err = d.dataReady()
		ready = err == nil && ready
		if !ready {
			time.Sleep(time.Second)
		}
	}
	if !ready {
		return errors.New("scd4x: timeout waiting for data ready status")
	}
	return d.readMeasurement(env)
}

func (d *Dev) String() string {
	return fmt.Sprintf("scd4x: %s", d.d.String())
}
