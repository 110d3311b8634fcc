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

package chip8

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"emul8vm/hexfmt"

	"github.com/retroenv/retrogolib/log"
)

const (
	MemorySize          = 0x1000
	RegisterCount       = 16
	StackSize           = 16
	KeyCount            = 16
	FontStartAddress    = 0x50
	GlyphSize           = 5
	ProgramStartAddress = 0x200
	LastAddress         = MemorySize - 1
	FlagRegister        = 0xF
)

var fontSet = [KeyCount * GlyphSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Machine is the complete state of a CHIP-8 virtual machine.
//
// All methods other than SetKey and Key must be called from a single
// goroutine. The keypad is safe to update from a host input callback.
type Machine struct {
	memory  [MemorySize]byte
	v       [RegisterCount]byte
	stack   [StackSize]uint16
	sp      uint8
	pc      uint16
	i       uint16
	delay   uint8
	sound   uint8
	display Display
	keys    [KeyCount]atomic.Bool

	// fault latches the first fatal error. A faulted machine does not
	// execute until Reset.
	fault error

	rnd    *rand.Rand
	logger *log.Logger
}

// Option configures a Machine created by New.
type Option func(*Machine)

// WithRand sets the random source used by the RND instruction.
func WithRand(r *rand.Rand) Option {
	return func(m *Machine) {
		m.rnd = r
	}
}

// New returns a machine in its power-on state: memory and registers
// zeroed, glyph set installed and the program counter at the program start.
func New(logger *log.Logger, opts ...Option) *Machine {
	m := &Machine{
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rnd == nil {
		m.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	m.Reset()
	return m
}

// Reset returns the machine to its power-on state. The random source,
// logger and keypad latch are kept.
func (m *Machine) Reset() {
	m.memory = [MemorySize]byte{}
	m.v = [RegisterCount]byte{}
	m.stack = [StackSize]uint16{}
	m.sp = 0
	m.pc = ProgramStartAddress
	m.i = 0
	m.delay = 0
	m.sound = 0
	m.display.Clear()
	m.fault = nil

	copy(m.memory[FontStartAddress:], fontSet[:])
}

// Load copies a program image into memory at the program start address.
// The image is not validated; unsupported instructions are reported when
// they are executed.
func (m *Machine) Load(image []byte) error {
	end := ProgramStartAddress + len(image)
	if end > MemorySize {
		return fmt.Errorf("%w: %d bytes, %d available",
			ErrImageTooLarge, len(image), MemorySize-ProgramStartAddress)
	}

	copy(m.memory[ProgramStartAddress:end], image)

	m.logger.Debug("Image loaded",
		log.Int("size", len(image)),
		log.String("end", hexfmt.Addr(uint16(end-1))))
	return nil
}

// SetKey updates the held state of a logical key. Keys outside 0x0-0xF
// are ignored.
func (m *Machine) SetKey(key uint8, down bool) {
	if int(key) >= KeyCount {
		return
	}
	m.keys[key].Store(down)
}

// Key reports whether a logical key is held. Keys outside 0x0-0xF are
// never held.
func (m *Machine) Key(key uint8) bool {
	if int(key) >= KeyCount {
		return false
	}
	return m.keys[key].Load()
}

// ReleaseKeys clears the whole keypad latch.
func (m *Machine) ReleaseKeys() {
	for i := range m.keys {
		m.keys[i].Store(false)
	}
}

func (m *Machine) ProgramCounter() uint16 {
	return m.pc
}

func (m *Machine) Index() uint16 {
	return m.i
}

// Register returns the value of Vx. Only the low nibble of x is used.
func (m *Machine) Register(x uint8) byte {
	return m.v[x&0xF]
}

func (m *Machine) StackDepth() int {
	return int(m.sp)
}

func (m *Machine) DelayTimer() uint8 {
	return m.delay
}

func (m *Machine) SoundTimer() uint8 {
	return m.sound
}

// Tone reports whether the sound timer is active.
func (m *Machine) Tone() bool {
	return m.sound > 0
}

// Frame returns a snapshot of the display grid.
func (m *Machine) Frame() Frame {
	return m.display.Frame()
}

// Fault returns the fatal error that halted the machine, if any.
func (m *Machine) Fault() error {
	return m.fault
}

// Peek copies memory starting at addr into data and returns the number of
// bytes copied. Reads stop at the end of memory.
func (m *Machine) Peek(addr uint16, data []byte) int {
	if int(addr) >= MemorySize {
		return 0
	}
	return copy(data, m.memory[addr:])
}

// span returns the memory slice [addr, addr+n) or an error if any part of
// it lies outside addressable memory.
func (m *Machine) span(addr uint16, n int) ([]byte, error) {
	end := int(addr) + n
	if end > MemorySize {
		return nil, fmt.Errorf("%w: %s+%d", ErrAddressRange, hexfmt.Addr(addr), n)
	}
	return m.memory[addr:end], nil
}
