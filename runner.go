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

package emul8vm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"emul8vm/chip8"

	"github.com/retroenv/retrogolib/log"
	"golang.org/x/sync/errgroup"
)

const (
	// frameInterval is how often the runner wakes up to catch the machine
	// up with the wall clock.
	frameInterval = chip8.TimerRate

	// maxCatchUp bounds the time a single wake-up replays, so a stalled
	// host does not make the machine sprint afterwards.
	maxCatchUp = 100 * time.Millisecond
)

// Presenter shows display frames and feeds host input into the keypad.
type Presenter interface {
	// Present hands over a new frame. It is called from the runner
	// goroutine and must not block.
	Present(frame chip8.Frame)

	// Run blocks until the presenter is closed by the user or ctx is done.
	// It is called on the goroutine that called Runner.Run.
	Run(ctx context.Context) error
}

// Tone switches the audible tone on and off.
type Tone interface {
	Set(ctx context.Context, on bool) error
}

// Keypad is the host side of the machine's input latch.
type Keypad interface {
	SetKey(key uint8, down bool)
}

// Runner drives a machine against the wall clock: instructions at the
// pacer's clock rate and timers at the pacer's timer rate.
type Runner struct {
	machine   *chip8.Machine
	pacer     *chip8.Pacer
	presenter Presenter
	tone      Tone
	logger    *log.Logger

	paused  atomic.Bool
	waiting bool
	toneOn  bool
}

// NewRunner returns a runner for a machine that already has its program
// loaded. A nil tone disables sound.
func NewRunner(logger *log.Logger, machine *chip8.Machine, pacer *chip8.Pacer,
	presenter Presenter, tone Tone) *Runner {

	if tone == nil {
		tone = silence{}
	}
	return &Runner{
		machine:   machine,
		pacer:     pacer,
		presenter: presenter,
		tone:      tone,
		logger:    logger,
	}
}

// TogglePause stops or resumes execution. Timers are frozen while paused.
func (r *Runner) TogglePause() {
	paused := !r.paused.Load()
	r.paused.Store(paused)
	r.logger.Info("Execution paused", log.String("paused", fmt.Sprint(paused)))
}

// Paused reports whether execution is paused.
func (r *Runner) Paused() bool {
	return r.paused.Load()
}

// Run executes the machine until ctx is done, the presenter closes or the
// machine hits a fatal error, which is returned.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// A machine fault ends the session, closing the presenter too.
		defer cancel()
		return r.loop(gctx)
	})

	r.logger.Debug("Runner started",
		log.String("clock", r.pacer.Clock().String()))

	presentErr := r.presenter.Run(ctx)
	cancel()

	err := g.Wait()
	if toneErr := r.tone.Set(context.Background(), false); toneErr != nil {
		r.logger.Warn("Stopping tone failed", log.String("error", toneErr.Error()))
	}
	r.logger.Debug("Runner stopped")

	return errors.Join(err, presentErr)
}

func (r *Runner) loop(ctx context.Context) error {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	r.presenter.Present(r.machine.Frame())
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil

		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now

			if r.paused.Load() {
				continue
			}
			if err := r.Advance(ctx, min(elapsed, maxCatchUp)); err != nil {
				return err
			}
		}
	}
}

// Advance runs the instructions and timer ticks due for elapsed wall-clock
// time, then publishes the frame and tone state.
func (r *Runner) Advance(ctx context.Context, elapsed time.Duration) error {
	cycles, ticks := r.pacer.Advance(elapsed)

	var status chip8.Status
	for range cycles {
		s, err := r.machine.Step()
		status |= s
		if err != nil {
			return fmt.Errorf("machine halted: %w", err)
		}
	}
	for range ticks {
		r.machine.TickTimers()
	}

	waiting := status&chip8.WaitingForKey != 0
	if waiting != r.waiting {
		r.waiting = waiting
		r.logger.Debug("Waiting for key", log.String("waiting", fmt.Sprint(waiting)))
	}

	if status&chip8.Redraw != 0 {
		r.presenter.Present(r.machine.Frame())
	}

	if on := r.machine.Tone(); on != r.toneOn {
		r.toneOn = on
		if err := r.tone.Set(ctx, on); err != nil {
			r.logger.Warn("Tone output failed", log.String("error", err.Error()))
		}
	}
	return nil
}

type silence struct{}

func (silence) Set(context.Context, bool) error {
	return nil
}
