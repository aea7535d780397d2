// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package indicator drives the status LEDs of the monitor.
//
// A Strip either renders the LEDs as coloured blocks on a terminal using ANSI
// colour codes, or streams raw RGB bytes to an io.Writer such as a periph
// nrzled or apa102 device.
package indicator

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for a Strip.
type Opts struct {
	// Count is the number of LEDs.
	Count int
	// Brightness scales every channel, in [0, 1]. Zero means full.
	Brightness float64
	Palette    *ansi256.Palette
	// Out receives the output. Defaults to a colorable stdout.
	Out io.Writer
	// Raw streams 3 bytes per LED to Out instead of ANSI blocks.
	Raw bool

	_ struct{}
}

// Strip is a row of RGB LEDs.
type Strip struct {
	w          io.Writer
	raw        bool
	brightness float64
	palette    ansi256.Palette

	pixels []byte
	buf    bytes.Buffer
}

// New returns a Strip.
func New(opts *Opts) (*Strip, error) {
	if opts.Count <= 0 {
		return nil, errors.New("indicator: count must be positive")
	}
	b := opts.Brightness
	if b == 0 {
		b = 1
	}
	if b < 0 || b > 1 {
		return nil, fmt.Errorf("indicator: brightness %g out of range [0, 1]", b)
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.Out
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Strip{
		w:          w,
		raw:        opts.Raw,
		brightness: b,
		palette:    *p,
		pixels:     make([]byte, 3*opts.Count),
	}, nil
}

func (s *Strip) String() string {
	return fmt.Sprintf("Strip{%d}", len(s.pixels)/3)
}

// SetBrightness changes the scale applied on the next refresh.
func (s *Strip) SetBrightness(b float64) error {
	if b < 0 || b > 1 {
		return fmt.Errorf("indicator: brightness %g out of range [0, 1]", b)
	}
	s.brightness = b
	_, err := s.refresh()
	return err
}

// Fill sets every LED to c.
func (s *Strip) Fill(c color.Color) error {
	r16, g16, b16, _ := c.RGBA()
	for i := 0; i < len(s.pixels); i += 3 {
		s.pixels[i] = byte(r16 >> 8)
		s.pixels[i+1] = byte(g16 >> 8)
		s.pixels[i+2] = byte(b16 >> 8)
	}
	_, err := s.refresh()
	return err
}

// Halt implements conn.Resource. It turns the LEDs off.
func (s *Strip) Halt() error {
	clear(s.pixels)
	if _, err := s.refresh(); err != nil {
		return err
	}
	if !s.raw {
		_, err := s.w.Write([]byte("\n\033[0m"))
		return err
	}
	return nil
}

// Write accepts a stream of raw RGB pixels.
func (s *Strip) Write(pixels []byte) (int, error) {
	if len(pixels)%3 != 0 {
		return 0, errors.New("indicator: invalid RGB stream length")
	}
	copy(s.pixels, pixels)
	return s.refresh()
}

// ColorModel implements display.Drawer.
func (s *Strip) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (s *Strip) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Point{X: len(s.pixels) / 3, Y: 1}}
}

// Draw implements display.Drawer. Only the first row of src is used.
func (s *Strip) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(s.Bounds())
	srcR := src.Bounds()
	srcR.Min = srcR.Min.Add(sp)
	if dX := r.Dx(); dX < srcR.Dx() {
		srcR.Max.X = srcR.Min.X + dX
	}
	deltaX3 := 3 * (r.Min.X - srcR.Min.X)
	for sX := srcR.Min.X; sX < srcR.Max.X; sX++ {
		r16, g16, b16, _ := src.At(sX, srcR.Min.Y).RGBA()
		dX3 := 3*sX + deltaX3
		s.pixels[dX3] = byte(r16 >> 8)
		s.pixels[dX3+1] = byte(g16 >> 8)
		s.pixels[dX3+2] = byte(b16 >> 8)
	}
	_, err := s.refresh()
	return err
}

func (s *Strip) scale(v byte) byte {
	return byte(float64(v)*s.brightness + 0.5)
}

func (s *Strip) refresh() (int, error) {
	s.buf.Reset()
	if s.raw {
		for _, v := range s.pixels {
			_ = s.buf.WriteByte(s.scale(v))
		}
	} else {
		_, _ = s.buf.WriteString("\r\033[0m")
		for i := 0; i < len(s.pixels)/3; i++ {
			c := color.NRGBA{s.scale(s.pixels[3*i]), s.scale(s.pixels[3*i+1]), s.scale(s.pixels[3*i+2]), 255}
			_, _ = io.WriteString(&s.buf, s.palette.Block(c))
		}
		_, _ = s.buf.WriteString("\033[0m ")
	}
	_, err := s.buf.WriteTo(s.w)
	return len(s.pixels), err
}

var _ display.Drawer = &Strip{}
var _ fmt.Stringer = &Strip{}
