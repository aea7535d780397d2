// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termview renders the monitor screen as a terminal dashboard.
//
// It is used when no display is attached, and with the simulated sensor.
// Setters only record state; Flush repaints the terminal when something
// changed.
package termview

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"
	"time"

	"github.com/GermanBionicSystems/airmon/monitor"
	"github.com/GermanBionicSystems/airmon/quality"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-colorable"
)

// Sparkline block characters, lowest to highest.
var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

const (
	colorMuted lipgloss.Color = "8"
	clearHome                 = "\033[H\033[2J"
	// watchdogWidth is the watchdog bar width in cells.
	watchdogWidth = 5
	scaleBlock    = '▀'
	alarmMark     = '┃'
)

// Opts configures a View.
type Opts struct {
	Channels int
	// Out defaults to a colorable stdout.
	Out io.Writer
	// Width is the gauge and sparkline width in cells.
	Width int
	Sleep func(time.Duration)
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

type cell struct {
	r rune
	c color.Color
}

// View implements monitor.Renderer.
type View struct {
	w        io.Writer
	r        *lipgloss.Renderer
	channels int
	width    int
	sleep    func(time.Duration)

	labels   map[monitor.Label]text
	gauges   map[int]gauge
	trends   map[int][]float64
	scales   map[int]scale
	status   string
	watchdog gauge
	dirty    bool
}

// New returns a View.
func New(opts *Opts) *View {
	v := &View{
		channels: 1,
		width:    24,
		sleep:    time.Sleep,
		labels:   map[monitor.Label]text{},
		gauges:   map[int]gauge{},
		trends:   map[int][]float64{},
		scales:   map[int]scale{},
	}
	var out io.Writer
	if opts != nil {
		out = opts.Out
		if opts.Channels > 0 {
			v.channels = opts.Channels
		}
		if opts.Width > 0 {
			v.width = opts.Width
		}
		if opts.Sleep != nil {
			v.sleep = opts.Sleep
		}
	}
	if out == nil {
		out = colorable.NewColorableStdout()
	}
	v.w = out
	v.r = lipgloss.NewRenderer(out)
	return v
}

// SetGauge implements monitor.Renderer.
func (v *View) SetGauge(ch int, normalized float64, c color.Color) {
	v.gauges[ch] = gauge{v: normalized, c: c}
	v.dirty = true
}

// SetTrend implements monitor.Renderer.
func (v *View) SetTrend(ch int, values []float64) {
	v.trends[ch] = values
	v.dirty = true
}

// SetLabel implements monitor.Renderer.
func (v *View) SetLabel(id monitor.Label, s string, c color.Color) {
	v.labels[id] = text{s: s, c: c}
	v.dirty = true
}

// SetScale implements monitor.Renderer.
func (v *View) SetScale(ch int, segments []quality.Segment, alarm float64) {
	v.scales[ch] = scale{segments: segments, alarm: alarm}
	v.dirty = true
}

// FlashStatus implements monitor.Renderer.
func (v *View) FlashStatus(s string, d time.Duration) {
	v.status = s
	v.flush()
	v.sleep(d)
	v.status = ""
	v.flush()
}

// SetWatchdog implements monitor.Renderer. Only a change of the drawn bar
// repaints.
func (v *View) SetWatchdog(fraction float64, c color.Color) {
	w := gauge{v: math.Round(fraction*watchdogWidth) / watchdogWidth, c: c}
	if w == v.watchdog {
		return
	}
	v.watchdog = w
	v.dirty = true
}

// Flush implements monitor.Renderer.
func (v *View) Flush() {
	if v.dirty {
		v.flush()
	}
}

// View returns the dashboard as a string.
func (v *View) View() string {
	title := v.style(v.labels[monitor.LabelTitle].c).Bold(true).Render(v.labels[monitor.LabelTitle].s)
	if v.watchdog.c != nil {
		title += " " + v.style(v.watchdog.c).Render(bar(v.watchdog.v, watchdogWidth))
	}

	cols := make([]string, 0, v.channels)
	for ch := range v.channels {
		cols = append(cols, v.channel(ch))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	temp := v.labels[monitor.LabelTemperature]
	footer := strings.Join([]string{
		v.style(temp.c).Render(temp.s + v.labels[monitor.LabelTemperatureUnit].s),
		v.style(v.labels[monitor.LabelHumidity].c).Render(v.labels[monitor.LabelHumidity].s + v.labels[monitor.LabelHumidityUnit].s),
		v.style(v.labels[monitor.LabelAlarm].c).Render(v.labels[monitor.LabelAlarm].s + " " + v.labels[monitor.LabelAlarmValue].s),
		v.style(v.labels[monitor.LabelLanguage].c).Render(v.labels[monitor.LabelLanguage].s),
	}, "  ")

	parts := []string{title, body, footer}
	if v.status != "" {
		parts = append(parts, v.r.NewStyle().Bold(true).Reverse(true).Padding(0, 1).Render(v.status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (v *View) channel(ch int) string {
	unit := v.labels[monitor.UnitLabel(ch)]
	value := v.labels[monitor.ValueLabel(ch)]
	cat := v.labels[monitor.CategoryLabel(ch)]
	g := v.gauges[ch]
	lines := []string{
		v.style(unit.c).Render(unit.s),
		v.style(value.c).Bold(true).Render(value.s) + " " + v.style(cat.c).Render(cat.s),
		v.style(g.c).Render(bar(g.v, v.width)),
	}
	if sc, ok := v.scales[ch]; ok {
		var sb strings.Builder
		for _, c := range scaleCells(sc.segments, sc.alarm, v.width) {
			sb.WriteString(v.style(c.c).Render(string(c.r)))
		}
		lines = append(lines, sb.String())
	}
	lines = append(lines, v.style(g.c).Render(Sparkline(v.trends[ch], v.width)))
	return v.r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMuted).
		Padding(0, 1).
		Width(v.width + 2).
		Render(strings.Join(lines, "\n"))
}

func (v *View) style(c color.Color) lipgloss.Style {
	s := v.r.NewStyle()
	if c != nil {
		s = s.Foreground(Color(c))
	}
	return s
}

func (v *View) flush() {
	v.dirty = false
	_, _ = io.WriteString(v.w, clearHome+v.View()+"\n")
}

// Color converts c to a lipgloss hex colour.
func Color(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}

// Sparkline maps the most recent width values in [0, 1] onto block
// characters.
func Sparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}
	var sb strings.Builder
	sb.Grow(len(data) * 3)
	top := len(sparkBlocks) - 1
	for _, d := range data {
		level := int(d*float64(top) + 0.5)
		level = min(max(level, 0), top)
		sb.WriteRune(sparkBlocks[level])
	}
	return sb.String()
}

// scaleCells colours each of width cells with the band under its centre and
// replaces the cell holding alarm with a mark. A negative alarm is not
// marked.
func scaleCells(segments []quality.Segment, alarm float64, width int) []cell {
	out := make([]cell, width)
	for i := range out {
		x := (float64(i) + 0.5) / float64(width)
		out[i] = cell{r: ' '}
		for _, seg := range segments {
			if x >= seg.From && x < seg.To {
				out[i] = cell{r: scaleBlock, c: seg.Color}
				break
			}
		}
	}
	if alarm >= 0 && width > 0 {
		i := min(int(alarm*float64(width)), width-1)
		out[i] = cell{r: alarmMark, c: quality.White}
	}
	return out
}

func bar(v float64, width int) string {
	n := int(v*float64(width) + 0.5)
	n = min(max(n, 0), width)
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}

var _ monitor.Renderer = &View{}
