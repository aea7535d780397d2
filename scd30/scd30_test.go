// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd30

import (
	"errors"
	"testing"
	"time"

	"github.com/GermanBionicSystems/airmon/common"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

var startOp = i2ctest.IO{Addr: DefaultAddress, W: []byte{0x00, 0x10, 0x00, 0x00, 0x81}}

func playback(ops ...i2ctest.IO) *i2ctest.Playback {
	return &i2ctest.Playback{Ops: append([]i2ctest.IO{startOp}, ops...), DontPanic: true}
}

func TestNewI2C(t *testing.T) {
	bus := playback()
	dev, err := NewI2C(bus, DefaultAddress)
	if err != nil {
		t.Fatal(err)
	}
	if s := dev.String(); s == "" {
		t.Error("String() returned empty value")
	}
	if err = bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestNewI2CAbsent(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	if _, err := NewI2C(bus, DefaultAddress); err == nil {
		t.Error("NewI2C() succeeded on an empty bus")
	}
}

func TestReadMeasurement(t *testing.T) {
	bus := playback(
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x02, 0x02}},
		i2ctest.IO{Addr: DefaultAddress, R: []byte{0x00, 0x00, 0x81}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x02, 0x02}},
		i2ctest.IO{Addr: DefaultAddress, R: []byte{0x00, 0x01, 0xb0}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x03, 0x00}},
		i2ctest.IO{Addr: DefaultAddress, R: []byte{
			0x43, 0xdb, 0xcb, 0x8b, 0x85, 0x37,
			0x41, 0xd9, 0x70, 0x99, 0x9a, 0xed,
			0x42, 0x43, 0xbf, 0x33, 0x33, 0x88}},
	)
	dev, err := NewI2C(bus, DefaultAddress)
	if err != nil {
		t.Fatal(err)
	}
	ready, err := dev.DataReady()
	if err != nil || ready {
		t.Fatalf("DataReady()=%t, %v expected false", ready, err)
	}
	ready, err = dev.DataReady()
	if err != nil || !ready {
		t.Fatalf("DataReady()=%t, %v expected true", ready, err)
	}
	e := Env{}
	if err = dev.ReadMeasurement(&e); err != nil {
		t.Fatal(err)
	}
	t.Log(e.String())
	if e.CO2 < 439 || e.CO2 > 439.2 {
		t.Errorf("CO2=%s expected 439.09", e.CO2)
	}
	if c := e.Temperature.Celsius(); c < 27.1 || c > 27.3 {
		t.Errorf("temperature=%s expected 27.2°C", e.Temperature)
	}
	if h := e.Humidity; h < 487*physic.MilliRH || h > 489*physic.MilliRH {
		t.Errorf("humidity=%s expected 48.8%%rH", e.Humidity)
	}
	if err = bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestReadMeasurementCRC(t *testing.T) {
	bus := playback(
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x02, 0x02}},
		i2ctest.IO{Addr: DefaultAddress, R: []byte{0x00, 0x01, 0xb1}},
	)
	dev, err := NewI2C(bus, DefaultAddress)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = dev.DataReady(); !errors.Is(err, common.ErrCRC) {
		t.Errorf("expected ErrCRC, got %v", err)
	}
}

func TestSetMeasurementInterval(t *testing.T) {
	bus := playback(
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x46, 0x00, 0x00, 0x05, 0x74}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x46, 0x00}},
		i2ctest.IO{Addr: DefaultAddress, R: []byte{0x00, 0x05, 0x74}},
	)
	dev, err := NewI2C(bus, DefaultAddress)
	if err != nil {
		t.Fatal(err)
	}
	for _, bad := range []time.Duration{0, time.Second, 1801 * time.Second} {
		if err = dev.SetMeasurementInterval(bad); err == nil {
			t.Errorf("SetMeasurementInterval(%s) accepted", bad)
		}
	}
	if err = dev.SetMeasurementInterval(5 * time.Second); err != nil {
		t.Fatal(err)
	}
	got, err := dev.MeasurementInterval()
	if err != nil {
		t.Fatal(err)
	}
	if got != 5*time.Second {
		t.Errorf("MeasurementInterval()=%s expected 5s", got)
	}
	if err = bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestCalibrationCommands(t *testing.T) {
	bus := playback(
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x52, 0x04, 0x01, 0x90, 0x4c}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x53, 0x06, 0x00, 0x01, 0xb0}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x54, 0x03, 0x00, 0x96, 0x1e}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x51, 0x02, 0x03, 0xe8, 0xd4}},
	)
	dev, err := NewI2C(bus, DefaultAddress)
	if err != nil {
		t.Fatal(err)
	}
	if err = dev.PerformForcedRecalibration(399); err == nil {
		t.Error("PerformForcedRecalibration(399) accepted")
	}
	if err = dev.PerformForcedRecalibration(400); err != nil {
		t.Error(err)
	}
	if err = dev.SetAutoSelfCalibration(true); err != nil {
		t.Error(err)
	}
	if err = dev.SetTemperatureOffset(1500 * physic.MilliKelvin); err != nil {
		t.Error(err)
	}
	if err = dev.SetAltitude(1000 * physic.Metre); err != nil {
		t.Error(err)
	}
	if err = bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestFirmwareResetHalt(t *testing.T) {
	bus := playback(
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0xd1, 0x00}},
		i2ctest.IO{Addr: DefaultAddress, R: []byte{0x03, 0x42, 0xf3}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0xd3, 0x04}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0x01, 0x04}},
	)
	dev, err := NewI2C(bus, DefaultAddress)
	if err != nil {
		t.Fatal(err)
	}
	major, minor, err := dev.FirmwareVersion()
	if err != nil {
		t.Fatal(err)
	}
	if major != 3 || minor != 0x42 {
		t.Errorf("FirmwareVersion()=%d.%d", major, minor)
	}
	if err = dev.Reset(); err != nil {
		t.Error(err)
	}
	if err = dev.Halt(); err != nil {
		t.Error(err)
	}
	if err = bus.Close(); err != nil {
		t.Error(err)
	}
}
