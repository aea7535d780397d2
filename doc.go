// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package airmon is an indoor air quality monitor built on periph.
//
// The drivers live in scd30, scd4x, pmsa003i and ina260. The control loop is
// in monitor, and cmd/airmon assembles everything from a YAML configuration.
package airmon
