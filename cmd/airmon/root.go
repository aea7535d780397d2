// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GermanBionicSystems/airmon/config"
	"github.com/GermanBionicSystems/airmon/logging"
	"github.com/spf13/cobra"
)

type flags struct {
	config   string
	simulate bool
}

func (f *flags) load() (*config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}
	if f.simulate {
		cfg.Simulate = true
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "airmon",
		Short: "Indoor air quality monitor",
		Long: `Reads a CO2 sensor and an optional PM2.5 sensor, classifies the readings
and shows them on an SSD1306 display or the terminal.

Settings come from a YAML file; see "airmon config" for the effective values.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, f)
		},
	}
	root.PersistentFlags().StringVarP(&f.config, "config", "c", "", "path to the YAML configuration file")
	root.PersistentFlags().BoolVar(&f.simulate, "simulate", false, "use simulated sensors instead of the I²C bus")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the monitor until interrupted",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCommand(cmd, f)
			},
		},
		&cobra.Command{
			Use:   "probe",
			Short: "Print the detected hardware and one reading per sensor",
			RunE: func(cmd *cobra.Command, args []string) error {
				return probeCommand(cmd, f)
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := f.load()
				if err != nil {
					return err
				}
				b, err := cfg.Dump()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			},
		},
	)
	return root
}

func runCommand(cmd *cobra.Command, f *flags) error {
	cfg, err := f.load()
	if err != nil {
		return err
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	log := logging.New(os.Stderr, level, cfg.LogFormat)

	a, err := newApp(cfg, log, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.halt()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log.Info("starting", "version", version, "board", a.hw.Capabilities.Board, "display", cfg.Display)
	if err := a.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("monitor: %w", err)
	}
	log.Info("stopped")
	return nil
}

func probeCommand(cmd *cobra.Command, f *flags) error {
	cfg, err := f.load()
	if err != nil {
		return err
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	log := logging.New(cmd.ErrOrStderr(), level, cfg.LogFormat)

	h, err := openHardware(cfg, log)
	if err != nil {
		return err
	}
	defer h.close()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "board: %s\n", h.hw.Capabilities)
	for _, ch := range h.channels(cfg, log) {
		if !ch.Poller.Present() {
			fmt.Fprintf(out, "%s: absent\n", ch.Name)
			continue
		}
		s, err := ch.Poller.Poll(true, cfg.WarmupTimeout)
		if err != nil {
			fmt.Fprintf(out, "%s: %s\n", ch.Name, err)
			continue
		}
		r := ch.Table.Classify(s.Concentration)
		fmt.Fprintf(out, "%s: %.0f %s\n", ch.Name, r.Value, r.Category)
		if s.HasEnv {
			fmt.Fprintf(out, "environment: %s %s\n", s.Temperature, s.Humidity)
		}
	}
	if h.hw.Battery != nil {
		v, err := h.hw.Battery.Voltage()
		if err != nil {
			fmt.Fprintf(out, "battery: %s\n", err)
		} else {
			fmt.Fprintf(out, "battery: %s\n", v)
		}
	}
	return nil
}
