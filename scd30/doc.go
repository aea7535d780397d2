// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package scd30 provides a driver for the Sensirion SCD30 NDIR CO2 module.
// The SCD30 measures CO2 concentration, temperature and relative humidity
// and reports them as IEEE754 floats. The device does not support repeated
// start, so every read is a write of the command word followed by a separate
// read transaction.
//
// Datasheet
//
// https://sensirion.com/media/documents/D7CEEF4A/6165372F/Sensirion_CO2_Sensors_SCD30_Interface_Description.pdf
package scd30
