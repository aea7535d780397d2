// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package quality

import (
	"image/color"
	"math"
)

// Display palette.
var (
	Red    = color.RGBA{R: 0xff, A: 0xff}
	Yellow = color.RGBA{R: 0xff, G: 0xff, A: 0xff}
	Blue   = color.RGBA{B: 0xff, A: 0xff}
	Orange = color.RGBA{R: 0xff, G: 0xa5, A: 0xff}
	Green  = color.RGBA{G: 0xff, A: 0xff}
	Purple = color.RGBA{R: 0x80, B: 0x80, A: 0xff}
	Maroon = color.RGBA{R: 0x80, A: 0xff}
	Cyan   = color.RGBA{G: 0xff, B: 0xff, A: 0xff}
	White  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Black  = color.RGBA{A: 0xff}
	Gray   = color.RGBA{R: 0x50, G: 0x80, B: 0x80, A: 0xff}
)

// Spectrum converts index in [0, 1] to a stop light colour, green through
// yellow to red. gamma of 1 is linear; 0.5 suits small colour TFTs.
func Spectrum(index, gamma float64) color.RGBA {
	band := math.Min(math.Max(index, 0), 1) * 600
	var r, g float64
	if band < 300 {
		r = math.Pow(mapRange(band, 0, 300, 0, 1), gamma)
		g = math.Pow(mapRange(band, 0, 300, 0.25, 1), gamma)
	} else {
		r = 1
		g = math.Pow(mapRange(band, 300, 600, 1, 0), gamma)
	}
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), A: 0xff}
}

func mapRange(x, inMin, inMax, outMin, outMax float64) float64 {
	return outMin + (x-inMin)*(outMax-outMin)/(inMax-inMin)
}
