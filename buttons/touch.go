// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package buttons

import "image"

// TouchPanel reports the current touch point.
type TouchPanel interface {
	Touch() (image.Point, bool)
}

// Region is a named rectangular touch target.
type Region struct {
	ID   ID
	Rect image.Rectangle
}

// DefaultRegions lays out the three targets on a w by h screen: language
// across the top quarter, calibrate in the centre and temperature across
// the bottom quarter. The right 20 pixels are left for the trend scale.
func DefaultRegions(w, h int) []Region {
	inner := w - 20
	return []Region{
		{ID: Language, Rect: image.Rect(1, 1, inner+1, h/4+1)},
		{ID: Calibrate, Rect: image.Rect(inner/4, h*33/100, inner/4+inner/2, h*33/100+h*33/100)},
		{ID: Temperature, Rect: image.Rect(1, h*3/4, inner+1, h*3/4+h/4-1)},
	}
}

// Touch is a Source over a touch panel.
type Touch struct {
	panel   TouchPanel
	regions []Region
}

// NewTouch returns a Source hit-testing regions in order.
func NewTouch(panel TouchPanel, regions []Region) *Touch {
	return &Touch{panel: panel, regions: regions}
}

// Asserted implements Source.
func (t *Touch) Asserted() (ID, bool) {
	p, ok := t.panel.Touch()
	if !ok {
		return None, false
	}
	for _, r := range t.regions {
		if p.In(r.Rect) {
			return r.ID, true
		}
	}
	return None, false
}

// Held implements Holder. A press lasts while the panel is touched anywhere.
func (t *Touch) Held() bool {
	_, ok := t.panel.Touch()
	return ok
}
