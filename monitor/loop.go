// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package monitor

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/GermanBionicSystems/airmon/buttons"
	"github.com/GermanBionicSystems/airmon/poller"
	"github.com/GermanBionicSystems/airmon/quality"
	"periph.io/x/conn/v3/physic"
)

// Tones.
const (
	ToneA4 = 440 * physic.Hertz
	ToneA5 = 880 * physic.Hertz
)

// Defaults applied by New to zero Options fields.
const (
	DefaultSensorInterval = 10 * time.Second
	DefaultWarmupTimeout  = 30 * time.Second
	DefaultAlarmThreshold = 2500
	DefaultAlarmRepeat    = 1500 * time.Millisecond
	DefaultLowBattery     = 3300 * physic.MilliVolt
	// DefaultRecalibration is the fresh air CO2 reference in ppm.
	DefaultRecalibration = 400
	DefaultPause         = 50 * time.Millisecond

	MinSensorInterval = 2 * time.Second
	MaxSensorInterval = 1800 * time.Second
)

// Status flash durations.
const (
	flashWarmup    = 250 * time.Millisecond
	flashCalibrate = 500 * time.Millisecond
	flashAlarm     = 750 * time.Millisecond
	flashOverrange = 750 * time.Millisecond
	flashBattery   = time.Second
	flashNoSensor  = time.Second
)

// Watchdog colours.
var (
	watchdogWarmup  = quality.Red
	watchdogAcquire = quality.Yellow
	watchdogTick    = quality.Blue
)

// Options configures a Loop. Renderer and at least one Channel are
// required; every other collaborator is optional.
type Options struct {
	// Channels are shown in order. The first one is primary: it drives the
	// alarm, the battery check and the temperature and humidity labels.
	Channels   []*Channel
	Buttons    buttons.Reader
	Renderer   Renderer
	Alerter    Alerter
	Battery    Battery
	Translator Translator

	Capabilities Capabilities
	Mode         Mode
	Title        string

	SensorInterval time.Duration
	WarmupTimeout  time.Duration
	// ButtonTimeout is the hold that makes a press long. It must match the
	// button decoder.
	ButtonTimeout time.Duration
	AlarmRepeat   time.Duration
	LowBattery    physic.ElectricPotential
	// BatteryRequiresInvalid only reports a low battery when the primary
	// reading is also invalid.
	BatteryRequiresInvalid bool
	Recalibration          float64
	// Pause is the idle time between iterations of Run.
	Pause time.Duration

	Logger *slog.Logger
	Now    func() time.Time
	Sleep  func(time.Duration)
}

// Loop is the control loop. It is not safe for concurrent use.
type Loop struct {
	opts     Options
	channels []*Channel
	mode     Mode
	log      *slog.Logger
	now      func() time.Time
	sleep    func(time.Duration)

	lastPoll  time.Time
	lastAlarm time.Time
	alarmed   bool
}

type passthrough struct{}

func (passthrough) Interpret(_ bool, phrase string) string { return phrase }

type warmupSetter interface {
	SetWarmup(func())
}

// New returns a Loop. Zero durations take their defaults.
func New(opts Options) (*Loop, error) {
	if opts.Renderer == nil {
		return nil, errors.New("monitor: renderer is required")
	}
	if len(opts.Channels) == 0 {
		return nil, errors.New("monitor: at least one channel is required")
	}
	for i, ch := range opts.Channels {
		if ch.Poller == nil || ch.Table == nil || ch.Trend == nil {
			return nil, fmt.Errorf("monitor: channel %d is incomplete", i)
		}
	}
	if opts.SensorInterval == 0 {
		opts.SensorInterval = DefaultSensorInterval
	}
	if opts.SensorInterval < MinSensorInterval || opts.SensorInterval > MaxSensorInterval {
		return nil, fmt.Errorf("monitor: sensor interval %s out of range [%s, %s]", opts.SensorInterval, MinSensorInterval, MaxSensorInterval)
	}
	if opts.WarmupTimeout == 0 {
		opts.WarmupTimeout = DefaultWarmupTimeout
	}
	if opts.ButtonTimeout == 0 {
		opts.ButtonTimeout = buttons.DefaultTimeout
	}
	if opts.AlarmRepeat == 0 {
		opts.AlarmRepeat = DefaultAlarmRepeat
	}
	if opts.LowBattery == 0 {
		opts.LowBattery = DefaultLowBattery
	}
	if opts.Recalibration == 0 {
		opts.Recalibration = DefaultRecalibration
	}
	if opts.Pause == 0 {
		opts.Pause = DefaultPause
	}
	if opts.Mode.Unit == "" {
		opts.Mode.Unit = Fahrenheit
	}
	if opts.Mode.AlarmThreshold == 0 {
		opts.Mode.AlarmThreshold = DefaultAlarmThreshold
	}
	if opts.Translator == nil {
		opts.Translator = passthrough{}
	}
	if opts.Title == "" {
		opts.Title = "Indoor Air Quality"
	}
	l := &Loop{
		opts:     opts,
		channels: opts.Channels,
		mode:     opts.Mode,
		log:      opts.Logger,
		now:      opts.Now,
		sleep:    opts.Sleep,
	}
	if l.log == nil {
		l.log = slog.Default()
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.sleep == nil {
		l.sleep = time.Sleep
	}
	for _, ch := range l.channels {
		if w, ok := ch.Poller.(warmupSetter); ok {
			w.SetWarmup(l.warmup)
		}
	}
	return l, nil
}

// Mode returns the current mode.
func (l *Loop) Mode() Mode {
	return l.mode
}

// Channels returns the channels in display order.
func (l *Loop) Channels() []*Channel {
	return l.channels
}

// Init configures the sensors, renders the static labels and waits for the
// first reading of every present channel, bounded by WarmupTimeout.
func (l *Loop) Init() {
	l.tone(ToneA5, 100*time.Millisecond)
	for i, ch := range l.channels {
		if !ch.Poller.Present() {
			l.log.Warn("sensor absent", "channel", ch.Name)
			l.opts.Renderer.SetLabel(ValueLabel(i), placeholder, quality.White)
			l.opts.Renderer.SetLabel(CategoryLabel(i), placeholder, quality.Gray)
			l.opts.Renderer.FlashStatus(l.tr(noSensor), flashNoSensor)
			continue
		}
		if err := ch.Poller.Configure(l.opts.SensorInterval); err != nil {
			l.log.Error("set measurement interval", "channel", ch.Name, "err", err)
		}
	}
	l.renderLabels()
	l.renderScales()
	l.opts.Renderer.Flush()
	for i, ch := range l.channels {
		if !ch.Poller.Present() {
			continue
		}
		s, err := ch.Poller.Poll(true, l.opts.WarmupTimeout)
		if err != nil {
			l.log.Warn("initial poll", "channel", ch.Name, "err", err)
			l.opts.Renderer.SetLabel(ValueLabel(i), placeholder, quality.White)
			continue
		}
		l.update(i, s)
	}
	l.opts.Renderer.Flush()
	l.tone(ToneA4, 100*time.Millisecond)
	l.tone(ToneA5, 100*time.Millisecond)
	l.lastPoll = l.now()
}

// Step runs one iteration: buttons, cadence poll or watchdog, alarm and
// battery, in that order.
func (l *Loop) Step() {
	if l.opts.Buttons != nil && (l.opts.Capabilities.Buttons || l.opts.Capabilities.Touch) {
		l.dispatch(l.opts.Buttons.Read())
	}

	tick := false
	elapsed := l.now().Sub(l.lastPoll)
	if elapsed >= l.opts.SensorInterval {
		tick = true
		for i, ch := range l.channels {
			s, err := ch.Poller.Poll(false, 0)
			if err != nil {
				if !errors.Is(err, poller.ErrNotReady) && !errors.Is(err, poller.ErrAbsent) {
					l.log.Warn("poll", "channel", ch.Name, "err", err)
				}
				continue
			}
			l.update(i, s)
		}
		l.lastPoll = l.now()
	} else {
		l.opts.Renderer.SetWatchdog(float64(elapsed)/float64(l.opts.SensorInterval), watchdogTick)
	}

	l.checkAlarm()
	if tick {
		l.checkBattery()
	}
	l.opts.Renderer.Flush()
}

// Run calls Init and then Step until ctx is done. It returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	l.Init()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l.Step()
		l.sleep(l.opts.Pause)
	}
}

func (l *Loop) dispatch(e buttons.Event) {
	if !e.Pressed() {
		return
	}
	long := e.Hold >= l.opts.ButtonTimeout
	l.log.Debug("button", "id", e.Button, "hold", e.Hold, "long", long)
	if !long {
		return
	}
	switch e.Button {
	case buttons.Calibrate:
		primary := l.channels[0]
		if !primary.Poller.Present() {
			l.opts.Renderer.FlashStatus(l.tr(noSensor), flashNoSensor)
			return
		}
		l.opts.Renderer.FlashStatus(l.tr("CALIBRATE"), flashCalibrate)
		if err := primary.Poller.Recalibrate(l.opts.Recalibration); err != nil {
			l.log.Error("recalibrate", "channel", primary.Name, "err", err)
		} else {
			l.log.Info("recalibrated", "channel", primary.Name, "reference", l.opts.Recalibration)
		}
		l.tone(ToneA4, 100*time.Millisecond)
	case buttons.Temperature, buttons.Select:
		l.mode.Unit = l.mode.Unit.Toggle()
		l.log.Info("temperature unit", "unit", l.mode.Unit)
		l.renderEnv()
	case buttons.Language:
		l.mode.Translate = !l.mode.Translate
		l.log.Info("translate", "enabled", l.mode.Translate)
		l.renderLabels()
	}
}

// update classifies a sample of channel i and renders it.
func (l *Loop) update(i int, s poller.Sample) {
	ch := l.channels[i]
	l.opts.Renderer.SetWatchdog(1, watchdogAcquire)
	res := ch.Table.Classify(s.Concentration)
	r := Reading{
		Raw:         res.Raw,
		Valid:       res.Valid,
		Value:       res.Value,
		Category:    res.Category,
		Color:       res.Color,
		Normalized:  ch.Table.Normalize(res),
		Temperature: s.Temperature,
		Humidity:    s.Humidity,
		HasEnv:      s.HasEnv,
	}
	ch.last, ch.hasLast = r, true
	ch.Trend.Push(r.Normalized)

	gauge := color.Color(quality.Spectrum(r.Normalized, 0.5))
	if r.Category == quality.Overrange {
		gauge = r.Color
		l.opts.Renderer.FlashStatus(l.tr(string(quality.Overrange)), flashOverrange)
	}
	l.opts.Renderer.SetGauge(i, r.Normalized, gauge)
	l.opts.Renderer.SetTrend(i, ch.Trend.Snapshot())
	l.renderReading(i)
	if i == 0 {
		l.renderEnv()
	}
	l.log.Debug("reading", "channel", ch.Name, "raw", r.Raw, "value", r.Value, "category", r.Category)
}

func (l *Loop) renderReading(i int) {
	ch := l.channels[i]
	r, ok := ch.Last()
	if !ok {
		return
	}
	text := fmt.Sprintf("%.0f", r.Value)
	if !r.Valid && r.Value < 0 {
		text = placeholder
	}
	l.opts.Renderer.SetLabel(ValueLabel(i), text, quality.White)
	l.opts.Renderer.SetLabel(CategoryLabel(i), l.tr(string(r.Category)), r.Color)
}

// renderEnv draws the temperature and humidity of the primary channel.
func (l *Loop) renderEnv() {
	l.opts.Renderer.SetLabel(LabelTemperatureUnit, l.mode.Unit.String(), quality.Cyan)
	r, ok := l.channels[0].Last()
	if !ok || !r.HasEnv {
		return
	}
	l.opts.Renderer.SetLabel(LabelTemperature, fmt.Sprintf("%.0f", l.mode.Unit.Convert(r.Temperature)), quality.Cyan)
	l.opts.Renderer.SetLabel(LabelHumidity, fmt.Sprintf("%.0f", float64(r.Humidity)/float64(physic.PercentRH)), quality.Cyan)
}

// renderScales draws the band scale of every channel. Only the primary
// channel carries the alarm mark.
func (l *Loop) renderScales() {
	for i, ch := range l.channels {
		alarm := -1.0
		if i == 0 {
			alarm = ch.Table.Normalize(ch.Table.Classify(l.mode.AlarmThreshold))
		}
		l.opts.Renderer.SetScale(i, ch.Table.Scale(), alarm)
	}
}

// renderLabels redraws every translatable label.
func (l *Loop) renderLabels() {
	l.opts.Renderer.SetLabel(LabelTitle, l.tr(l.opts.Title), quality.Cyan)
	l.opts.Renderer.SetLabel(LabelAlarm, l.tr("Alarm"), quality.Red)
	l.opts.Renderer.SetLabel(LabelAlarmValue, fmt.Sprintf("%.0f", l.mode.AlarmThreshold), quality.Red)
	l.opts.Renderer.SetLabel(LabelLanguage, l.tr("ENGLISH"), quality.Cyan)
	l.opts.Renderer.SetLabel(LabelHumidityUnit, "RH", quality.Cyan)
	for i, ch := range l.channels {
		l.opts.Renderer.SetLabel(UnitLabel(i), ch.Name, quality.Blue)
		l.renderReading(i)
	}
	l.renderEnv()
}

func (l *Loop) checkAlarm() {
	r, ok := l.channels[0].Last()
	if !ok || !r.Valid || r.Value < l.mode.AlarmThreshold {
		return
	}
	now := l.now()
	if l.alarmed && now.Sub(l.lastAlarm) < l.opts.AlarmRepeat {
		return
	}
	l.alarmed, l.lastAlarm = true, now
	l.log.Warn("alarm", "value", r.Value, "threshold", l.mode.AlarmThreshold)
	l.opts.Renderer.FlashStatus(l.tr("ALARM"), flashAlarm)
	l.indicator(quality.Red)
	l.tone(ToneA5, 15*time.Millisecond)
	l.indicator(quality.Black)
}

func (l *Loop) checkBattery() {
	if l.opts.Battery == nil || !l.opts.Capabilities.Battery {
		return
	}
	v, err := l.opts.Battery.Voltage()
	if err != nil {
		l.log.Warn("battery voltage", "err", err)
		return
	}
	low := v < l.opts.LowBattery
	if l.opts.BatteryRequiresInvalid {
		r, ok := l.channels[0].Last()
		low = low && (!ok || !r.Valid)
	}
	if !low {
		return
	}
	l.log.Warn("low battery", "voltage", v)
	l.tone(ToneA5, 30*time.Millisecond)
	l.opts.Renderer.FlashStatus(l.tr("LOW BATTERY"), flashBattery)
	l.opts.Renderer.FlashStatus(fmt.Sprintf("%.2f volts", float64(v)/float64(physic.Volt)), flashBattery)
}

// warmup is called by the pollers while Init waits for data.
func (l *Loop) warmup() {
	l.opts.Renderer.SetWatchdog(1, watchdogWarmup)
	l.opts.Renderer.FlashStatus(l.tr("WARMUP"), flashWarmup)
}

func (l *Loop) tr(phrase string) string {
	return l.opts.Translator.Interpret(l.mode.Translate, phrase)
}

func (l *Loop) tone(f physic.Frequency, d time.Duration) {
	if l.opts.Alerter != nil && l.opts.Capabilities.Speaker {
		l.opts.Alerter.PlayTone(f, d)
	}
}

func (l *Loop) indicator(c color.Color) {
	if l.opts.Alerter != nil && l.opts.Capabilities.Indicator {
		l.opts.Alerter.SetIndicator(c)
	}
}
