// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package render draws the monitor screen onto any display.Drawer.
//
// Setters only record state. Flush redraws the whole frame in memory with gg
// and pushes it to the device in one Draw call, and only when something
// changed. A monochrome device such as the SSD1306 converts the frame
// through its own colour model.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"time"

	"github.com/GermanBionicSystems/airmon/monitor"
	"github.com/GermanBionicSystems/airmon/quality"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/display"
)

// Contraster is implemented by displays with an adjustable contrast, like
// the SSD1306.
type Contraster interface {
	SetContrast(level byte) error
}

// Opts configures a Frame.
type Opts struct {
	// Channels is the number of sensor channels laid out side by side.
	Channels int
	Logger   *slog.Logger
	Sleep    func(time.Duration)
}

type text struct {
	s string
	c color.Color
}

type gauge struct {
	v float64
	c color.Color
}

type scale struct {
	segments []quality.Segment
	alarm    float64
}

// watchdogSteps is the resolution of the watchdog arc.
const watchdogSteps = 16

// Frame implements monitor.Renderer.
type Frame struct {
	dev      display.Drawer
	dc       *gg.Context
	small    font.Face
	large    font.Face
	channels int
	log      *slog.Logger
	sleep    func(time.Duration)

	labels   map[monitor.Label]text
	gauges   map[int]gauge
	trends   map[int][]float64
	scales   map[int]scale
	status   string
	watchdog gauge
	dirty    bool
}

// New returns a Frame drawing on dev.
func New(dev display.Drawer, opts *Opts) (*Frame, error) {
	if dev == nil {
		return nil, errors.New("render: nil display")
	}
	b := dev.Bounds()
	if b.Dx() < 32 || b.Dy() < 32 {
		return nil, fmt.Errorf("render: display %s is too small", b)
	}
	f := &Frame{
		dev:      dev,
		dc:       gg.NewContext(b.Dx(), b.Dy()),
		channels: 1,
		log:      slog.Default(),
		sleep:    time.Sleep,
		labels:   map[monitor.Label]text{},
		gauges:   map[int]gauge{},
		trends:   map[int][]float64{},
		scales:   map[int]scale{},
	}
	if opts != nil {
		if opts.Channels > 0 {
			f.channels = opts.Channels
		}
		if opts.Logger != nil {
			f.log = opts.Logger
		}
		if opts.Sleep != nil {
			f.sleep = opts.Sleep
		}
	}
	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	h := float64(b.Dy())
	f.small = truetype.NewFace(ttf, &truetype.Options{Size: math.Max(h/16, 6)})
	f.large = truetype.NewFace(ttf, &truetype.Options{Size: math.Max(h/7, 8)})
	return f, nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame{%s}", f.dev)
}

// SetBrightness maps b in [0, 1] onto the display contrast. Displays that do
// not support it are left alone.
func (f *Frame) SetBrightness(b float64) error {
	if b < 0 || b > 1 {
		return fmt.Errorf("render: brightness %g out of range [0, 1]", b)
	}
	c, ok := f.dev.(Contraster)
	if !ok {
		return nil
	}
	return c.SetContrast(byte(math.Round(b * 255)))
}

// SetGauge implements monitor.Renderer.
func (f *Frame) SetGauge(ch int, normalized float64, c color.Color) {
	f.gauges[ch] = gauge{v: normalized, c: c}
	f.dirty = true
}

// SetTrend implements monitor.Renderer.
func (f *Frame) SetTrend(ch int, values []float64) {
	f.trends[ch] = values
	f.dirty = true
}

// SetLabel implements monitor.Renderer.
func (f *Frame) SetLabel(id monitor.Label, s string, c color.Color) {
	f.labels[id] = text{s: s, c: c}
	f.dirty = true
}

// SetScale implements monitor.Renderer.
func (f *Frame) SetScale(ch int, segments []quality.Segment, alarm float64) {
	f.scales[ch] = scale{segments: segments, alarm: alarm}
	f.dirty = true
}

// FlashStatus implements monitor.Renderer.
func (f *Frame) FlashStatus(s string, d time.Duration) {
	f.status = s
	f.flush()
	f.sleep(d)
	f.status = ""
	f.flush()
}

// SetWatchdog implements monitor.Renderer. The arc moves in 1/16 steps; a
// change within a step is not redrawn.
func (f *Frame) SetWatchdog(fraction float64, c color.Color) {
	w := gauge{v: math.Round(clamp(fraction)*watchdogSteps) / watchdogSteps, c: c}
	if w == f.watchdog {
		return
	}
	f.watchdog = w
	f.dirty = true
}

// Flush implements monitor.Renderer.
func (f *Frame) Flush() {
	if f.dirty {
		f.flush()
	}
}

// Halt blanks the display.
func (f *Frame) Halt() error {
	f.dc.SetColor(color.Black)
	f.dc.Clear()
	return f.dev.Draw(f.dev.Bounds(), f.dc.Image(), image.Point{})
}

func (f *Frame) flush() {
	f.dirty = false
	f.draw()
	if err := f.dev.Draw(f.dev.Bounds(), f.dc.Image(), image.Point{}); err != nil {
		f.log.Warn("display draw", "dev", f.dev, "err", err)
	}
}

func (f *Frame) header() float64 {
	return float64(f.dc.Height()) / 8
}

func (f *Frame) footer() float64 {
	return float64(f.dc.Height()) / 8
}

// column returns the area of channel ch.
func (f *Frame) column(ch int) image.Rectangle {
	w := f.dc.Width() / f.channels
	top := int(f.header())
	bottom := f.dc.Height() - int(f.footer())
	return image.Rect(ch*w, top, (ch+1)*w, bottom)
}

// gaugeRect returns the bar of channel ch.
func (f *Frame) gaugeRect(ch int) image.Rectangle {
	c := f.column(ch)
	y := c.Min.Y + c.Dy()*11/20
	return image.Rect(c.Min.X+4, y, c.Max.X-4, y+max(c.Dy()/8, 3))
}

// scaleRect returns the band strip under the bar of channel ch.
func (f *Frame) scaleRect(ch int) image.Rectangle {
	g := f.gaugeRect(ch)
	return image.Rect(g.Min.X, g.Max.Y+1, g.Max.X, g.Max.Y+1+max(g.Dy()/2, 2))
}

// trendRect returns the chart of channel ch.
func (f *Frame) trendRect(ch int) image.Rectangle {
	c := f.column(ch)
	s := f.scaleRect(ch)
	return image.Rect(c.Min.X+4, s.Max.Y+2, c.Max.X-4, c.Max.Y-2)
}

func (f *Frame) label(id monitor.Label) text {
	t, ok := f.labels[id]
	if !ok {
		return text{c: quality.White}
	}
	return t
}

func (f *Frame) draw() {
	dc := f.dc
	w := float64(dc.Width())
	h := float64(dc.Height())
	dc.SetColor(color.Black)
	dc.Clear()

	dc.SetFontFace(f.small)
	t := f.label(monitor.LabelTitle)
	dc.SetColor(t.c)
	dc.DrawStringAnchored(t.s, w/2, f.header()/2, 0.5, 0.5)

	for ch := range f.channels {
		f.drawChannel(ch)
	}

	// Footer: temperature, humidity, alarm threshold and language.
	y := h - f.footer()/2
	dc.SetFontFace(f.small)
	temp := f.label(monitor.LabelTemperature).s + f.label(monitor.LabelTemperatureUnit).s
	hum := f.label(monitor.LabelHumidity).s + f.label(monitor.LabelHumidityUnit).s
	dc.SetColor(f.label(monitor.LabelTemperature).c)
	dc.DrawStringAnchored(temp+" "+hum, 2, y, 0, 0.5)
	a := f.label(monitor.LabelAlarm)
	dc.SetColor(a.c)
	dc.DrawStringAnchored(a.s+" "+f.label(monitor.LabelAlarmValue).s, w/2, y, 0.5, 0.5)
	l := f.label(monitor.LabelLanguage)
	dc.SetColor(l.c)
	dc.DrawStringAnchored(l.s, w-2, y, 1, 0.5)

	if f.watchdog.c != nil {
		r := f.header() / 3
		dc.SetColor(f.watchdog.c)
		dc.SetLineWidth(2)
		dc.NewSubPath()
		dc.DrawArc(w-r-3, f.header()/2, r, -math.Pi/2, -math.Pi/2+2*math.Pi*clamp(f.watchdog.v))
		dc.Stroke()
	}

	if f.status != "" {
		dc.SetFontFace(f.large)
		sw, sh := dc.MeasureString(f.status)
		dc.SetColor(color.Black)
		dc.DrawRectangle(w/2-sw/2-4, h/2-sh/2-4, sw+8, sh+8)
		dc.Fill()
		dc.SetColor(quality.White)
		dc.DrawStringAnchored(f.status, w/2, h/2, 0.5, 0.5)
	}
}

func (f *Frame) drawChannel(ch int) {
	dc := f.dc
	c := f.column(ch)
	cx := float64(c.Min.X+c.Max.X) / 2

	dc.SetFontFace(f.small)
	u := f.label(monitor.UnitLabel(ch))
	dc.SetColor(u.c)
	dc.DrawStringAnchored(u.s, cx, float64(c.Min.Y)+float64(c.Dy())/12, 0.5, 0.5)

	dc.SetFontFace(f.large)
	v := f.label(monitor.ValueLabel(ch))
	dc.SetColor(v.c)
	dc.DrawStringAnchored(v.s, cx, float64(c.Min.Y)+float64(c.Dy())*3/12, 0.5, 0.5)

	dc.SetFontFace(f.small)
	k := f.label(monitor.CategoryLabel(ch))
	dc.SetColor(k.c)
	dc.DrawStringAnchored(k.s, cx, float64(c.Min.Y)+float64(c.Dy())*5/12, 0.5, 0.5)

	g := f.gaugeRect(ch)
	if gv, ok := f.gauges[ch]; ok && gv.c != nil {
		dc.SetColor(gv.c)
		dc.DrawRectangle(float64(g.Min.X), float64(g.Min.Y), float64(g.Dx())*clamp(gv.v), float64(g.Dy()))
		dc.Fill()
	}
	dc.SetColor(quality.Gray)
	dc.SetLineWidth(1)
	dc.DrawRectangle(float64(g.Min.X)-0.5, float64(g.Min.Y)-0.5, float64(g.Dx())+1, float64(g.Dy())+1)
	dc.Stroke()
	f.drawScale(ch)

	values := f.trends[ch]
	if len(values) < 2 {
		return
	}
	r := f.trendRect(ch)
	step := float64(r.Dx()) / float64(len(values)-1)
	dc.SetColor(quality.Cyan)
	dc.SetLineWidth(1)
	for i, val := range values {
		x := float64(r.Min.X) + float64(i)*step
		y := float64(r.Max.Y) - clamp(val)*float64(r.Dy())
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()
}

// drawScale draws the category bands under the bar and the alarm mark
// across both.
func (f *Frame) drawScale(ch int) {
	s, ok := f.scales[ch]
	if !ok {
		return
	}
	dc := f.dc
	g, r := f.gaugeRect(ch), f.scaleRect(ch)
	for _, seg := range s.segments {
		x0 := float64(r.Min.X) + clamp(seg.From)*float64(r.Dx())
		x1 := float64(r.Min.X) + clamp(seg.To)*float64(r.Dx())
		dc.SetColor(seg.Color)
		dc.DrawRectangle(x0, float64(r.Min.Y), x1-x0, float64(r.Dy()))
		dc.Fill()
	}
	if s.alarm < 0 {
		return
	}
	x := float64(g.Min.X) + clamp(s.alarm)*float64(g.Dx())
	dc.SetColor(quality.White)
	dc.SetLineWidth(2)
	dc.DrawLine(x, float64(g.Min.Y), x, float64(r.Max.Y))
	dc.Stroke()
}

func clamp(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

var _ monitor.Renderer = &Frame{}
