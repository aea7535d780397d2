// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package quality

import (
	"image/color"
	"math"
)

// Category is a severity bucket. The string value doubles as the phrase
// key for translation.
type Category string

const (
	Invalid       Category = "INVALID"
	Good          Category = "GOOD"
	Moderate      Category = "MODERATE"
	Poor          Category = "POOR"
	Sensitive     Category = "SENSITIVE"
	Warning       Category = "WARNING"
	Unhealthy     Category = "UNHEALTHY"
	VeryUnhealthy Category = "V UNHEALTHY"
	Danger        Category = "DANGER"
	Hazardous     Category = "HAZARDOUS"
	Overrange     Category = "OVERRANGE"
)

// Band is one row of a threshold table. A value strictly above Lower and at
// or below the next band's Lower falls in this band.
type Band struct {
	Lower    float64
	Category Category
	Color    color.RGBA
	// IndexLow and IndexHigh map the band linearly onto an index scale. Both
	// zero means the value is reported as is.
	IndexLow, IndexHigh float64
}

// Table is an ordered threshold table. Bands must have strictly increasing
// Lower bounds and the first band's Lower must equal Floor.
type Table struct {
	Name string
	Unit string
	// At or below Floor a value is invalid.
	Floor float64
	// Above Maximum a value is overrange.
	Maximum float64
	Bands   []Band
	// Colour used for invalid and overrange results.
	InvalidColor   color.RGBA
	OverrangeColor color.RGBA
}

// Result is the classification of one value.
type Result struct {
	Raw      float64
	Valid    bool
	Value    float64
	Category Category
	Color    color.RGBA
	// Severity is 0 for INVALID, increases with each band and is highest
	// for OVERRANGE.
	Severity int
}

// Segment is a band expressed on the normalized [0, 1] scale.
type Segment struct {
	From, To float64
	Category Category
	Color    color.RGBA
}

// CO2 classifies carbon dioxide concentration in ppm.
var CO2 = &Table{
	Name:    "CO2",
	Unit:    "PPM",
	Floor:   100,
	Maximum: 6000,
	Bands: []Band{
		{Lower: 100, Category: Good, Color: Green},
		{Lower: 1000, Category: Poor, Color: Yellow},
		{Lower: 2000, Category: Warning, Color: Orange},
		{Lower: 5000, Category: Danger, Color: Red},
	},
	InvalidColor:   Blue,
	OverrangeColor: Red,
}

// PM25 classifies PM2.5 concentration in µg/m³ and reports the EPA air
// quality index.
var PM25 = &Table{
	Name:    "AQI",
	Unit:    "AQI",
	Floor:   0,
	Maximum: 500,
	Bands: []Band{
		{Lower: 0, Category: Good, Color: Green, IndexLow: 0, IndexHigh: 50},
		{Lower: 12, Category: Moderate, Color: Yellow, IndexLow: 50, IndexHigh: 100},
		{Lower: 35, Category: Sensitive, Color: Orange, IndexLow: 100, IndexHigh: 150},
		{Lower: 55, Category: Unhealthy, Color: Red, IndexLow: 150, IndexHigh: 200},
		{Lower: 150, Category: VeryUnhealthy, Color: Purple, IndexLow: 200, IndexHigh: 300},
		{Lower: 250, Category: Hazardous, Color: Maroon, IndexLow: 300, IndexHigh: 400},
		{Lower: 350, Category: Hazardous, Color: Maroon, IndexLow: 400, IndexHigh: 500},
	},
	InvalidColor:   Blue,
	OverrangeColor: Maroon,
}

// Classify returns the category of v. It is a pure function of the table.
func (t *Table) Classify(v float64) Result {
	if v > t.Maximum {
		return Result{Raw: v, Valid: true, Value: t.ScaleMax(), Category: Overrange, Color: t.OverrangeColor, Severity: len(t.Bands) + 1}
	}
	for i := len(t.Bands) - 1; i >= 0; i-- {
		b := &t.Bands[i]
		if v > b.Lower && v > t.Floor {
			return Result{Raw: v, Valid: true, Value: t.value(i, v), Category: b.Category, Color: b.Color, Severity: i + 1}
		}
	}
	r := Result{Raw: v, Value: v, Category: Invalid, Color: t.InvalidColor}
	if t.indexed() {
		r.Value = -1
	}
	return r
}

// ScaleMax is the largest Value a valid result can carry.
func (t *Table) ScaleMax() float64 {
	if t.indexed() {
		return t.Bands[len(t.Bands)-1].IndexHigh
	}
	return t.Maximum
}

// Normalize maps r onto [0, 1]. Invalid results normalize to 0.
func (t *Table) Normalize(r Result) float64 {
	if !r.Valid {
		return 0
	}
	return math.Min(math.Max(r.Value/t.ScaleMax(), 0), 1)
}

// Scale returns the bands as normalized segments for drawing a reference
// scale next to a gauge.
func (t *Table) Scale() []Segment {
	top := t.ScaleMax()
	out := make([]Segment, 0, len(t.Bands))
	for i, b := range t.Bands {
		from, to := b.Lower, t.upper(i)
		if t.indexed() {
			from, to = b.IndexLow, b.IndexHigh
		}
		out = append(out, Segment{From: from / top, To: to / top, Category: b.Category, Color: b.Color})
	}
	return out
}

func (t *Table) indexed() bool {
	last := t.Bands[len(t.Bands)-1]
	return last.IndexHigh != 0
}

func (t *Table) upper(i int) float64 {
	if i+1 < len(t.Bands) {
		return t.Bands[i+1].Lower
	}
	return t.Maximum
}

func (t *Table) value(i int, v float64) float64 {
	if !t.indexed() {
		return v
	}
	b := &t.Bands[i]
	return math.Trunc(mapRange(v, b.Lower, t.upper(i), b.IndexLow, b.IndexHigh))
}
