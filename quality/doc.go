// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package quality classifies gas and particulate concentrations into
// severity categories using data driven threshold tables.
//
// Two tables are provided: CO2 in ppm and PM2.5 mapped onto the EPA air
// quality index. A value above the table maximum is OVERRANGE and clamped;
// a value at or below the floor is INVALID and must not be treated as a
// measurement.
package quality
