// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package buttons decodes front panel presses into events carrying the
// button and how long it was held.
//
// One Decoder drives every hardware variant through a Source: discrete GPIO
// inputs, a parallel-in shift register, or a touch panel hit-tested against
// rectangular regions. Only one button is reported per Read. When several
// are asserted at once the one declared first in the Source wins; the front
// panels this targets make simultaneous presses impractical.
package buttons

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// ID names a logical button.
type ID string

// Logical buttons. Select is the PyBadge alias for Temperature.
const (
	None        ID = ""
	Calibrate   ID = "calibrate"
	Temperature ID = "temperature"
	Language    ID = "language"
	Select      ID = "select"
)

const (
	// Tick is the hold accumulation step.
	Tick = 100 * time.Millisecond
	// DefaultTimeout is the hold time that makes a press long.
	DefaultTimeout = time.Second
	// MaxTimeout is the exclusive upper bound of the timeout.
	MaxTimeout = 10 * time.Second
)

// Event is the outcome of one Read.
type Event struct {
	Button ID
	Hold   time.Duration
}

// Pressed reports whether a button was pressed.
func (e Event) Pressed() bool {
	return e.Button != None
}

// Reader returns the next button event. It returns immediately with an
// empty Event when nothing is asserted, and blocks while a button is held.
type Reader interface {
	Read() Event
}

// Source reports which button, if any, is asserted right now.
type Source interface {
	Asserted() (ID, bool)
}

// Holder is implemented by sources where a press continues on a condition
// other than Asserted, such as a touch sliding off its region.
type Holder interface {
	Held() bool
}

// Feedback is notified when a press starts and once when the hold crosses
// the timeout.
type Feedback interface {
	Pressed(id ID)
	LongHold(id ID)
}

// Tone plays a note on a speaker.
type Tone interface {
	PlayTone(f physic.Frequency, d time.Duration)
}

// Acknowledgement notes.
const (
	ToneE6 = 1319 * physic.Hertz
	ToneD6 = 1175 * physic.Hertz
	// ToneLength is the duration of both acknowledgement notes.
	ToneLength = 30 * time.Millisecond
)

// ToneFeedback beeps E6 on press and D6 at the long hold threshold.
type ToneFeedback struct {
	T Tone
}

func (f ToneFeedback) Pressed(ID) {
	f.T.PlayTone(ToneE6, ToneLength)
}

func (f ToneFeedback) LongHold(ID) {
	f.T.PlayTone(ToneD6, ToneLength)
}

type nopFeedback struct{}

func (nopFeedback) Pressed(ID)  {}
func (nopFeedback) LongHold(ID) {}

// Opts configures a Decoder.
type Opts struct {
	// Timeout is the long hold threshold, below MaxTimeout. Zero selects
	// DefaultTimeout; a zero threshold, where every press is long, is only
	// set through SetTimeout(0).
	Timeout  time.Duration
	Feedback Feedback
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Decoder implements Reader over a Source.
type Decoder struct {
	src      Source
	feedback Feedback
	timeout  time.Duration
	sleep    func(time.Duration)
}

// NewDecoder returns a Decoder reading src.
func NewDecoder(src Source, opts *Opts) (*Decoder, error) {
	d := &Decoder{src: src, feedback: nopFeedback{}, timeout: DefaultTimeout, sleep: time.Sleep}
	if opts != nil {
		if opts.Feedback != nil {
			d.feedback = opts.Feedback
		}
		if opts.Sleep != nil {
			d.sleep = opts.Sleep
		}
		if opts.Timeout != 0 {
			if err := d.SetTimeout(opts.Timeout); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

// Timeout returns the long hold threshold.
func (d *Decoder) Timeout() time.Duration {
	return d.timeout
}

// SetTimeout changes the long hold threshold. Out of range values are
// rejected and the previous threshold is kept.
func (d *Decoder) SetTimeout(t time.Duration) error {
	if t < 0 || t >= MaxTimeout {
		return fmt.Errorf("buttons: timeout %s must be in [0, %s)", t, MaxTimeout)
	}
	d.timeout = t
	return nil
}

// Read implements Reader.
func (d *Decoder) Read() Event {
	id, ok := d.src.Asserted()
	if !ok {
		return Event{}
	}
	d.feedback.Pressed(id)
	e := Event{Button: id}
	long := false
	for d.held() {
		d.sleep(Tick)
		e.Hold += Tick
		if !long && e.Hold >= d.timeout {
			long = true
			d.feedback.LongHold(id)
		}
	}
	return e
}

func (d *Decoder) held() bool {
	if h, ok := d.src.(Holder); ok {
		return h.Held()
	}
	_, ok := d.src.Asserted()
	return ok
}
