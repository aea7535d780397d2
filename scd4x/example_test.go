//go:build examples
// +build examples

// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x_test

import (
	"fmt"
	"log"
	"time"

	"github.com/GermanBionicSystems/airmon/scd4x"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Poll the sensor on a fixed cadence without blocking on the data ready
// flag.
func Example() {
	if _, err := host.Init(); err != nil {
		fmt.Println(err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	dev, err := scd4x.NewI2C(bus, scd4x.SensorAddress)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = dev.Halt() }()

	env := scd4x.Env{}
	for range 3 {
		time.Sleep(5 * time.Second)
		ready, err := dev.DataReady()
		if err != nil || !ready {
			fmt.Println("not ready", err)
			continue
		}
		if err = dev.ReadMeasurement(&env); err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Println(env.String())
	}
}
