/*
 * Copyright 2026 Joshua Jones <joshua.jones.software@gmail.com>
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      www.apache.org
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"emul8vm"
	"emul8vm/chip8"
	"emul8vm/internal/beep"
	"emul8vm/internal/cli"
	"emul8vm/internal/config"
	"emul8vm/internal/options"

	"github.com/retroenv/retrogolib/log"
)

func main() {
	opts, err := cli.ParseFlags()
	if err != nil {
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			usageErr.ShowUsage()
		}
		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		logger.Error("Invalid arguments", log.String("error", err.Error()))
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)

	if err := run(logger, opts); err != nil {
		logger.Error("Emulation failed", log.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *log.Logger, opts options.Program) error {
	image, err := emul8vm.LoadFile(opts.Input)
	if err != nil {
		return err
	}

	machine := chip8.New(logger)
	if err := machine.Load(image); err != nil {
		return err
	}

	pacer, err := chip8.NewPacer(time.Second/time.Duration(opts.Hz), chip8.TimerRate)
	if err != nil {
		return err
	}

	var tone emul8vm.Tone
	if !opts.Mute {
		tone = &beep.Beep{}
	}

	var runner *emul8vm.Runner
	pause := func() { runner.TogglePause() }

	var presenter emul8vm.Presenter
	switch opts.UI {
	case options.Terminal:
		presenter = emul8vm.NewTerminal(logger, machine, pause)
	default:
		title := "Chip-8 Emulator - " + filepath.Base(opts.Input)
		presenter = emul8vm.NewWindow(title, machine, opts.Scale, pause)
	}

	runner = emul8vm.NewRunner(logger, machine, pacer, presenter, tone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("Starting",
		log.String("file", opts.Input),
		log.String("ui", opts.UI),
		log.Int("hz", opts.Hz))

	return runner.Run(ctx)
}
