// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package alert

import (
	"bytes"
	"image/color"
	"testing"
	"time"

	"github.com/GermanBionicSystems/airmon/indicator"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
)

func TestPlayTone(t *testing.T) {
	pin := &gpiotest.Pin{N: "BUZZER", Num: 12}
	var slept time.Duration
	var duty gpio.Duty
	var freq physic.Frequency
	a := New(pin, nil, &Opts{Sleep: func(d time.Duration) {
		slept = d
		duty, freq = pin.D, pin.F
	}})
	a.PlayTone(880*physic.Hertz, 15*time.Millisecond)
	if slept != 15*time.Millisecond {
		t.Fatalf("slept %s", slept)
	}
	if duty != gpio.DutyHalf || freq != 880*physic.Hertz {
		t.Fatalf("during tone got duty %s freq %s", duty, freq)
	}
	if pin.L != gpio.Low {
		t.Fatal("buzzer left high")
	}
}

func TestSetIndicator(t *testing.T) {
	var buf bytes.Buffer
	s, err := indicator.New(&indicator.Opts{Count: 1, Out: &buf, Raw: true})
	if err != nil {
		t.Fatal(err)
	}
	a := New(nil, s, nil)
	a.SetIndicator(color.RGBA{R: 255, A: 255})
	if got := buf.Bytes(); !bytes.Equal(got, []byte{255, 0, 0}) {
		t.Fatalf("got %v", got)
	}
	// Without a buzzer PlayTone is a no-op.
	a.PlayTone(440*physic.Hertz, time.Hour)

	buf.Reset()
	if err := a.Halt(); err != nil {
		t.Fatal(err)
	}
	if got := buf.Bytes(); !bytes.Equal(got, []byte{0, 0, 0}) {
		t.Fatalf("got %v", got)
	}
}
