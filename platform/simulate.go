// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package platform

import (
	"math/rand/v2"
	"time"

	"github.com/GermanBionicSystems/airmon/poller"
	"periph.io/x/conn/v3/physic"
)

// Simulated is a sensor producing a bounded random walk. It is used with
// --simulate and in tests.
type Simulated struct {
	// Min and Max bound the concentration.
	Min, Max float64
	// Step is the largest change between two samples.
	Step float64
	// Env adds a temperature and humidity to every sample.
	Env bool

	rng      *rand.Rand
	value    float64
	interval time.Duration
	ref      float64
}

// NewSimulatedCO2 returns a CO2 walk between 400 and 3000 ppm.
func NewSimulatedCO2(seed uint64) *Simulated {
	return &Simulated{Min: 400, Max: 3000, Step: 80, Env: true, rng: rand.New(rand.NewPCG(seed, seed))}
}

// NewSimulatedPM returns a PM2.5 walk between 0 and 80 µg/m³.
func NewSimulatedPM(seed uint64) *Simulated {
	return &Simulated{Min: 0, Max: 80, Step: 4, rng: rand.New(rand.NewPCG(seed, seed+1))}
}

func (s *Simulated) String() string {
	return "simulated"
}

func (s *Simulated) Probe() error {
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(1, 2))
	}
	s.value = (s.Min + s.Max) / 2
	return nil
}

func (s *Simulated) DataReady() (bool, error) {
	return true, nil
}

func (s *Simulated) Sense(smp *poller.Sample) error {
	s.value += (s.rng.Float64()*2 - 1) * s.Step
	s.value = min(max(s.value, s.Min), s.Max)
	smp.Concentration = s.value
	if s.Env {
		smp.Temperature = physic.ZeroCelsius + physic.Temperature((20+s.rng.Float64()*3)*float64(physic.Celsius))
		smp.Humidity = physic.RelativeHumidity((40 + s.rng.Float64()*10) * float64(physic.PercentRH))
		smp.HasEnv = true
	}
	return nil
}

func (s *Simulated) SetMeasurementInterval(interval time.Duration) error {
	s.interval = interval
	return nil
}

// SetRecalibrationReference snaps the walk to ppm.
func (s *Simulated) SetRecalibrationReference(ppm float64) error {
	s.ref = ppm
	s.value = min(max(ppm, s.Min), s.Max)
	return nil
}

var _ poller.Sensor = &Simulated{}
