// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ina260 controls a Texas Instruments ina260 current,
// voltage and power monitor IC over an i2c bus. The device has an
// integrated 2mΩ shunt so no calibration is required.
//
// # Datasheet
//
// http://www.ti.com/lit/ds/symlink/ina260.pdf
package ina260
