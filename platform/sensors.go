// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package platform

import (
	"errors"
	"time"

	"github.com/GermanBionicSystems/airmon/pmsa003i"
	"github.com/GermanBionicSystems/airmon/poller"
	"github.com/GermanBionicSystems/airmon/scd30"
	"github.com/GermanBionicSystems/airmon/scd4x"
	"periph.io/x/conn/v3/i2c"
)

// ErrUnsupported is returned by adapters for settings the device lacks.
var ErrUnsupported = errors.New("platform: not supported by this sensor")

// SCD30 adapts an SCD30 to poller.Sensor.
type SCD30 struct {
	Bus  i2c.Bus
	Addr uint16

	dev *scd30.Dev
}

// Probe starts continuous measurement. It is a no-op once it succeeded.
func (s *SCD30) Probe() error {
	if s.dev != nil {
		return nil
	}
	addr := s.Addr
	if addr == 0 {
		addr = scd30.DefaultAddress
	}
	d, err := scd30.NewI2C(s.Bus, addr)
	if err != nil {
		return err
	}
	s.dev = d
	return nil
}

func (s *SCD30) String() string {
	if s.dev == nil {
		return "scd30{absent}"
	}
	return s.dev.String()
}

func (s *SCD30) DataReady() (bool, error) {
	return s.dev.DataReady()
}

func (s *SCD30) Sense(smp *poller.Sample) error {
	var e scd30.Env
	if err := s.dev.ReadMeasurement(&e); err != nil {
		return err
	}
	smp.Concentration = float64(e.CO2)
	smp.Temperature = e.Temperature
	smp.Humidity = e.Humidity
	smp.HasEnv = true
	return nil
}

func (s *SCD30) SetMeasurementInterval(interval time.Duration) error {
	return s.dev.SetMeasurementInterval(interval)
}

func (s *SCD30) SetRecalibrationReference(ppm float64) error {
	return s.dev.PerformForcedRecalibration(scd30.PPM(ppm))
}

// SCD4x adapts an SCD40 or SCD41 to poller.Sensor. The measurement interval
// of these devices is fixed at 5 seconds.
type SCD4x struct {
	Bus  i2c.Bus
	Addr uint16

	dev *scd4x.Dev
}

// Probe starts periodic measurement. It is a no-op once it succeeded.
func (s *SCD4x) Probe() error {
	if s.dev != nil {
		return nil
	}
	addr := s.Addr
	if addr == 0 {
		addr = scd4x.SensorAddress
	}
	d, err := scd4x.NewI2C(s.Bus, addr)
	if err != nil {
		return err
	}
	s.dev = d
	return nil
}

func (s *SCD4x) String() string {
	if s.dev == nil {
		return "scd4x{absent}"
	}
	return s.dev.String()
}

func (s *SCD4x) DataReady() (bool, error) {
	return s.dev.DataReady()
}

func (s *SCD4x) Sense(smp *poller.Sample) error {
	var e scd4x.Env
	if err := s.dev.ReadMeasurement(&e); err != nil {
		return err
	}
	smp.Concentration = float64(e.CO2)
	smp.Temperature = e.Temperature
	smp.Humidity = e.Humidity
	smp.HasEnv = true
	return nil
}

// SetMeasurementInterval accepts any interval; the device keeps sampling
// every 5 seconds and the poller cadence decides what is shown.
func (s *SCD4x) SetMeasurementInterval(time.Duration) error {
	return nil
}

func (s *SCD4x) SetRecalibrationReference(ppm float64) error {
	_, err := s.dev.PerformForcedRecalibration(scd4x.PPM(ppm))
	return err
}

// PMSA003I adapts the particle sensor to poller.Sensor. The concentration is
// the standard PM2.5 mass in µg/m³. The device streams a new frame every
// second so data is always ready.
type PMSA003I struct {
	Bus  i2c.Bus
	Addr uint16

	dev *pmsa003i.Dev
}

func (p *PMSA003I) Probe() error {
	if p.dev != nil {
		return nil
	}
	addr := p.Addr
	if addr == 0 {
		addr = pmsa003i.DefaultAddress
	}
	d, err := pmsa003i.New(p.Bus, addr)
	if err != nil {
		return err
	}
	p.dev = d
	return nil
}

func (p *PMSA003I) String() string {
	if p.dev == nil {
		return "pmsa003i{absent}"
	}
	return p.dev.String()
}

func (p *PMSA003I) DataReady() (bool, error) {
	return true, nil
}

func (p *PMSA003I) Sense(smp *poller.Sample) error {
	var r pmsa003i.Reading
	if err := p.dev.Sense(&r); err != nil {
		return err
	}
	smp.Concentration = float64(r.PM25Standard)
	return nil
}

func (p *PMSA003I) SetMeasurementInterval(time.Duration) error {
	return nil
}

func (p *PMSA003I) SetRecalibrationReference(float64) error {
	return ErrUnsupported
}

// FindCO2 returns the first CO2 sensor that answers on bus, trying the SCD30
// then the SCD4x, or nil when neither does.
func FindCO2(bus i2c.Bus) poller.Sensor {
	if bus == nil {
		return nil
	}
	s30 := &SCD30{Bus: bus}
	if s30.Probe() == nil {
		return s30
	}
	s4 := &SCD4x{Bus: bus}
	if s4.Probe() == nil {
		return s4
	}
	return nil
}

// FindPM returns the particle sensor if it answers on bus, nil otherwise.
func FindPM(bus i2c.Bus) poller.Sensor {
	if bus == nil {
		return nil
	}
	p := &PMSA003I{Bus: bus}
	if p.Probe() == nil {
		return p
	}
	return nil
}

var (
	_ poller.Sensor = &SCD30{}
	_ poller.Sensor = &SCD4x{}
	_ poller.Sensor = &PMSA003I{}
)
