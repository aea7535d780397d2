// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package render

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/GermanBionicSystems/airmon/monitor"
	"github.com/GermanBionicSystems/airmon/quality"
)

type fakeDisplay struct {
	bounds   image.Rectangle
	img      *image.RGBA
	draws    int
	contrast int
}

func newFakeDisplay(w, h int) *fakeDisplay {
	return &fakeDisplay{bounds: image.Rect(0, 0, w, h), contrast: -1}
}

func (d *fakeDisplay) String() string          { return "fake" }
func (d *fakeDisplay) Halt() error             { return nil }
func (d *fakeDisplay) ColorModel() color.Model { return color.RGBAModel }
func (d *fakeDisplay) Bounds() image.Rectangle { return d.bounds }
func (d *fakeDisplay) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.img = image.NewRGBA(d.bounds)
	draw.Draw(d.img, r, src, sp, draw.Src)
	d.draws++
	return nil
}
func (d *fakeDisplay) SetContrast(level byte) error {
	d.contrast = int(level)
	return nil
}

func center(r image.Rectangle) image.Point {
	return image.Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

func TestNew(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Fatal("expected error for nil display")
	}
	if _, err := New(newFakeDisplay(8, 8), nil); err == nil {
		t.Fatal("expected error for tiny display")
	}
}

func TestGauge(t *testing.T) {
	d := newFakeDisplay(320, 240)
	f, err := New(d, &Opts{Channels: 2})
	if err != nil {
		t.Fatal(err)
	}
	f.SetGauge(0, 1, quality.Red)
	if d.draws != 0 {
		t.Fatalf("draws before Flush = %d", d.draws)
	}
	f.Flush()
	if d.draws != 1 {
		t.Fatalf("draws = %d", d.draws)
	}
	p := center(f.gaugeRect(0))
	if got := d.img.RGBAAt(p.X, p.Y); got != quality.Red {
		t.Fatalf("gauge pixel = %v", got)
	}
	// The second channel has no gauge yet.
	p = center(f.gaugeRect(1))
	if got := d.img.RGBAAt(p.X, p.Y); got != (color.RGBA{A: 255}) {
		t.Fatalf("empty gauge pixel = %v", got)
	}

	// A half gauge leaves the right end empty.
	f.SetGauge(1, 0.5, quality.Green)
	f.Flush()
	g := f.gaugeRect(1)
	if got := d.img.RGBAAt(g.Min.X+2, center(g).Y); got != quality.Green {
		t.Fatalf("left pixel = %v", got)
	}
	if got := d.img.RGBAAt(g.Max.X-2, center(g).Y); got != (color.RGBA{A: 255}) {
		t.Fatalf("right pixel = %v", got)
	}
}

func TestLayout(t *testing.T) {
	f, err := New(newFakeDisplay(128, 64), &Opts{Channels: 2})
	if err != nil {
		t.Fatal(err)
	}
	a, b := f.column(0), f.column(1)
	if a.Max.X != b.Min.X || a.Dx() != 64 {
		t.Fatalf("columns %s %s", a, b)
	}
	g, s, tr := f.gaugeRect(0), f.scaleRect(0), f.trendRect(0)
	if !g.In(a) || !s.In(a) || !tr.In(a) || s.Min.Y < g.Max.Y || tr.Min.Y <= s.Max.Y {
		t.Fatalf("gauge %s scale %s trend %s column %s", g, s, tr, a)
	}
	if s.Dy() < 2 || s.Dx() != g.Dx() {
		t.Fatalf("scale %s gauge %s", s, g)
	}
}

func TestScale(t *testing.T) {
	d := newFakeDisplay(320, 240)
	f, err := New(d, &Opts{Channels: 2})
	if err != nil {
		t.Fatal(err)
	}
	segments := quality.CO2.Scale()
	f.SetScale(0, segments, 0.5)
	f.SetScale(1, quality.PM25.Scale(), -1)
	f.Flush()

	r := f.scaleRect(0)
	y := center(r).Y
	for _, seg := range segments {
		mid := (seg.From + seg.To) / 2
		x := r.Min.X + int(mid*float64(r.Dx()))
		if got := d.img.RGBAAt(x, y); got != seg.Color {
			t.Fatalf("%s band at x=%d = %v, want %v", seg.Category, x, got, seg.Color)
		}
	}
	// The alarm mark crosses the bar and the scale at the middle.
	g := f.gaugeRect(0)
	x := g.Min.X + g.Dx()/2 - 1
	if got := d.img.RGBAAt(x, center(g).Y); got != quality.White {
		t.Fatalf("alarm mark on bar = %v", got)
	}
	if got := d.img.RGBAAt(x, y); got != quality.White {
		t.Fatalf("alarm mark on scale = %v", got)
	}
	// No mark on the second channel.
	g = f.gaugeRect(1)
	if got := d.img.RGBAAt(g.Min.X+g.Dx()/2-1, center(g).Y); got != (color.RGBA{A: 255}) {
		t.Fatalf("unexpected mark = %v", got)
	}
}

func TestFlush(t *testing.T) {
	d := newFakeDisplay(128, 64)
	f, err := New(d, nil)
	if err != nil {
		t.Fatal(err)
	}
	f.SetLabel(monitor.LabelTitle, "Indoor Air Quality", quality.Cyan)
	f.SetLabel(monitor.ValueLabel(0), "450", quality.White)
	f.SetGauge(0, 0.1, quality.Green)
	f.Flush()
	f.Flush()
	if d.draws != 1 {
		t.Fatalf("draws = %d", d.draws)
	}
	// Watchdog updates inside one step of the arc are not redrawn.
	f.SetWatchdog(0.5, quality.Blue)
	f.Flush()
	f.SetWatchdog(0.51, quality.Blue)
	f.Flush()
	if d.draws != 2 {
		t.Fatalf("draws = %d", d.draws)
	}
	f.SetWatchdog(0.75, quality.Blue)
	f.Flush()
	f.SetWatchdog(0.75, quality.Red)
	f.Flush()
	if d.draws != 4 {
		t.Fatalf("draws = %d", d.draws)
	}
}

func TestFlashStatus(t *testing.T) {
	d := newFakeDisplay(128, 64)
	var slept time.Duration
	f, err := New(d, &Opts{Sleep: func(d time.Duration) { slept = d }})
	if err != nil {
		t.Fatal(err)
	}
	f.SetLabel(monitor.LabelTitle, "Indoor Air Quality", quality.Cyan)
	f.SetTrend(0, []float64{1, 0.5, 0.2})
	f.SetWatchdog(0.5, quality.Blue)
	before := d.draws
	f.FlashStatus("ALARM", 750*time.Millisecond)
	if slept != 750*time.Millisecond {
		t.Fatalf("slept %s", slept)
	}
	if d.draws != before+2 {
		t.Fatalf("draws = %d", d.draws-before)
	}
	if f.status != "" {
		t.Fatal("status not cleared")
	}
}

func TestSetBrightness(t *testing.T) {
	d := newFakeDisplay(128, 64)
	f, err := New(d, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.SetBrightness(0.5); err != nil {
		t.Fatal(err)
	}
	if d.contrast != 128 {
		t.Fatalf("contrast = %d", d.contrast)
	}
	if err := f.SetBrightness(1.5); err == nil {
		t.Fatal("expected error")
	}
	if err := f.Halt(); err != nil {
		t.Fatal(err)
	}
}
