package chip8

import (
	"errors"
	"fmt"
	"time"
)

const (
	TimerRate time.Duration = time.Second / 60  // 60hz
	ClockRate time.Duration = time.Second / 700 // 700hz
)

// ErrInvalidRate is returned by NewPacer for non-positive periods.
var ErrInvalidRate = errors.New("invalid rate")

// TickTimers decrements the delay and sound timers by one, stopping at
// zero. It is meant to be called at TimerRate regardless of how many
// instructions run in between.
func (m *Machine) TickTimers() {
	if m.delay > 0 {
		m.delay--
	}
	if m.sound > 0 {
		m.sound--
	}
}

// Pacer converts elapsed wall-clock time into a number of instructions and
// a number of timer ticks, each at its own fixed period. Time that does not
// add up to a whole period is carried into the next call.
type Pacer struct {
	clock  time.Duration
	timer  time.Duration
	cycles time.Duration
	ticks  time.Duration
}

// NewPacer returns a pacer that schedules one instruction per clock period
// and one timer tick per timer period.
func NewPacer(clock, timer time.Duration) (*Pacer, error) {
	if clock <= 0 || timer <= 0 {
		return nil, fmt.Errorf("%w: clock %s, timer %s", ErrInvalidRate, clock, timer)
	}
	return &Pacer{
		clock: clock,
		timer: timer,
	}, nil
}

// Advance adds elapsed to the accumulators and returns the instructions
// and timer ticks now due.
func (p *Pacer) Advance(elapsed time.Duration) (cycles, ticks int) {
	if elapsed <= 0 {
		return 0, 0
	}

	p.cycles += elapsed
	cycles = int(p.cycles / p.clock)
	p.cycles -= time.Duration(cycles) * p.clock

	p.ticks += elapsed
	ticks = int(p.ticks / p.timer)
	p.ticks -= time.Duration(ticks) * p.timer
	return cycles, ticks
}

// Clock returns the instruction period.
func (p *Pacer) Clock() time.Duration {
	return p.clock
}
