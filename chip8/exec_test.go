package chip8

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"
)

func execute(t *testing.T, m *Machine, word uint16) Status {
	t.Helper()
	status, err := m.Execute(Decode(Opcode(word)))
	assert.NoError(t, err)
	return status
}

func TestAddWithCarry(t *testing.T) {
	m := newTestMachine(t)

	for a := range 256 {
		for b := range 256 {
			m.v[0x1] = byte(a)
			m.v[0x2] = byte(b)
			execute(t, m, 0x8124)

			if m.v[0x1] != byte((a+b)%256) {
				t.Fatalf("%d+%d: got V1=%d", a, b, m.v[0x1])
			}
			if m.v[FlagRegister] != boolToByte(a+b > 255) {
				t.Fatalf("%d+%d: got VF=%d", a, b, m.v[FlagRegister])
			}
		}
	}
}

func TestSubtract(t *testing.T) {
	m := newTestMachine(t)

	for a := range 256 {
		for b := range 256 {
			m.v[0x3] = byte(a)
			m.v[0x4] = byte(b)
			execute(t, m, 0x8345)

			if m.v[0x3] != byte(a-b) {
				t.Fatalf("%d-%d: got V3=%d", a, b, m.v[0x3])
			}
			if m.v[FlagRegister] != boolToByte(a >= b) {
				t.Fatalf("%d-%d: got VF=%d", a, b, m.v[FlagRegister])
			}

			m.v[0x3] = byte(a)
			m.v[0x4] = byte(b)
			execute(t, m, 0x8347)

			if m.v[0x3] != byte(b-a) {
				t.Fatalf("%d-%d reversed: got V3=%d", b, a, m.v[0x3])
			}
			if m.v[FlagRegister] != boolToByte(b >= a) {
				t.Fatalf("%d-%d reversed: got VF=%d", b, a, m.v[FlagRegister])
			}
		}
	}
}

func TestFlagWrittenLast(t *testing.T) {
	tests := []struct {
		name   string
		word   uint16
		vf     byte
		vy     byte
		wantVF byte
	}{
		{"add into VF with carry", 0x8F04, 0x01, 0xFF, 1},
		{"add into VF without carry", 0x8F04, 0x01, 0x01, 0},
		{"sub into VF without borrow", 0x8F05, 0x05, 0x01, 1},
		{"sub into VF with borrow", 0x8F05, 0x01, 0x05, 0},
		{"subn into VF", 0x8F07, 0x01, 0x05, 1},
		{"shr VF odd", 0x8F06, 0x03, 0x00, 1},
		{"shr VF even", 0x8F06, 0x02, 0x00, 0},
		{"shl VF high bit", 0x8F0E, 0x80, 0x00, 1},
		{"shl VF low bits", 0x8F0E, 0x7F, 0x00, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t)
			m.v[FlagRegister] = tt.vf
			m.v[0x0] = tt.vy

			execute(t, m, tt.word)
			assert.Equal(t, tt.wantVF, m.v[FlagRegister])
		})
	}
}

func TestShift(t *testing.T) {
	tests := []struct {
		name   string
		word   uint16
		value  byte
		want   byte
		wantVF byte
	}{
		{"shr odd", 0x8506, 0x81, 0x40, 1},
		{"shr even", 0x8506, 0x7E, 0x3F, 0},
		{"shl high bit", 0x850E, 0x81, 0x02, 1},
		{"shl no high bit", 0x850E, 0x7F, 0xFE, 0},
		{"shr ignores vy", 0x85A6, 0x02, 0x01, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t)
			m.v[0x5] = tt.value
			m.v[0xA] = 0xFF

			execute(t, m, tt.word)
			assert.Equal(t, tt.want, m.v[0x5])
			assert.Equal(t, tt.wantVF, m.v[FlagRegister])
		})
	}
}

func TestLogicAndLoad(t *testing.T) {
	tests := []struct {
		name string
		word uint16
		want byte
	}{
		{"ld", 0x8120, 0x0F},
		{"or", 0x8121, 0x3F},
		{"and", 0x8122, 0x0C},
		{"xor", 0x8123, 0x33},
		{"ld imm", 0x61AB, 0xAB},
		{"add imm wraps", 0x71F0, 0x2C},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t)
			m.v[0x1] = 0x3C
			m.v[0x2] = 0x0F
			m.v[FlagRegister] = 0x7

			execute(t, m, tt.word)
			assert.Equal(t, tt.want, m.v[0x1])
			assert.Equal(t, byte(0x7), m.v[FlagRegister])
			assert.Equal(t, uint16(ProgramStartAddress+2), m.pc)
		})
	}
}

func TestSkip(t *testing.T) {
	tests := []struct {
		name   string
		word   uint16
		vx, vy byte
		wantPC uint16
	}{
		{"se imm equal", 0x3142, 0x42, 0, 0x204},
		{"se imm not equal", 0x3142, 0x41, 0, 0x202},
		{"sne imm equal", 0x4142, 0x42, 0, 0x202},
		{"sne imm not equal", 0x4142, 0x41, 0, 0x204},
		{"se reg equal", 0x5120, 0x10, 0x10, 0x204},
		{"se reg not equal", 0x5120, 0x10, 0x11, 0x202},
		{"sne reg equal", 0x9120, 0x10, 0x10, 0x202},
		{"sne reg not equal", 0x9120, 0x10, 0x11, 0x204},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t)
			m.v[0x1] = tt.vx
			m.v[0x2] = tt.vy

			execute(t, m, tt.word)
			assert.Equal(t, tt.wantPC, m.ProgramCounter())
		})
	}
}

func TestSkipKey(t *testing.T) {
	tests := []struct {
		name   string
		word   uint16
		key    byte
		held   bool
		wantPC uint16
	}{
		{"skp held", 0xE39E, 0x7, true, 0x204},
		{"skp released", 0xE39E, 0x7, false, 0x202},
		{"sknp held", 0xE3A1, 0x7, true, 0x202},
		{"sknp released", 0xE3A1, 0x7, false, 0x204},
		{"skp out of range", 0xE39E, 0x17, true, 0x202},
		{"sknp out of range", 0xE3A1, 0x17, true, 0x204},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t)
			m.v[0x3] = tt.key
			m.SetKey(tt.key&0xF, tt.held)

			execute(t, m, tt.word)
			assert.Equal(t, tt.wantPC, m.ProgramCounter())
		})
	}
}

func TestJump(t *testing.T) {
	m := newTestMachine(t)

	execute(t, m, 0x1ABC)
	assert.Equal(t, uint16(0xABC), m.ProgramCounter())

	m.v[0x0] = 0x10
	execute(t, m, 0xB300)
	assert.Equal(t, uint16(0x310), m.ProgramCounter())

	m.v[0x0] = 0xFF
	execute(t, m, 0xBFFF)
	assert.Equal(t, uint16(0x0FE), m.ProgramCounter())
}

func TestCallReturn(t *testing.T) {
	m := newTestMachine(t)
	load(t, m, 0x2300)
	m.memory[0x300] = 0x00
	m.memory[0x301] = 0xEE

	step(t, m, 1)
	assert.Equal(t, uint16(0x300), m.ProgramCounter())
	assert.Equal(t, 1, m.StackDepth())

	step(t, m, 1)
	assert.Equal(t, uint16(0x202), m.ProgramCounter())
	assert.Equal(t, 0, m.StackDepth())
}

func TestStackOverflow(t *testing.T) {
	m := newTestMachine(t)

	// Each call targets itself.
	load(t, m, 0x2200)
	step(t, m, StackSize)
	assert.Equal(t, StackSize, m.StackDepth())

	_, err := m.Step()
	assert.True(t, errors.Is(err, ErrStackOverflow))
	assert.Equal(t, StackSize, m.StackDepth())

	_, again := m.Step()
	assert.Equal(t, err, again)
}

func TestStackUnderflow(t *testing.T) {
	m := newTestMachine(t)
	load(t, m, 0x00EE)

	_, err := m.Step()
	assert.True(t, errors.Is(err, ErrStackUnderflow))
	assert.Equal(t, 0, m.StackDepth())
}

func TestProgramCounterRange(t *testing.T) {
	m := newTestMachine(t)
	load(t, m, 0x1FFF)
	step(t, m, 1)

	_, err := m.Step()
	assert.True(t, errors.Is(err, ErrProgramCounter))
}

func TestUnknownInstruction(t *testing.T) {
	words := []uint16{0x0123, 0x5121, 0x9AB1, 0x8128, 0xE0FF, 0xF0FF}

	for _, word := range words {
		t.Run(Opcode(word).String(), func(t *testing.T) {
			m := newTestMachine(t)
			load(t, m, word)
			before := m.v

			status := step(t, m, 1)
			assert.Equal(t, Unknown, status)
			assert.Equal(t, uint16(ProgramStartAddress+2), m.ProgramCounter())
			assert.Equal(t, before, m.v)
		})
	}
}

func TestWaitForKey(t *testing.T) {
	m := newTestMachine(t)
	load(t, m, 0xF40A)
	m.v[0x4] = 0x99
	before := m.v

	for range 5 {
		status := step(t, m, 1)
		assert.Equal(t, WaitingForKey, status)
		assert.Equal(t, uint16(ProgramStartAddress), m.ProgramCounter())
		assert.Equal(t, before, m.v)
	}

	m.SetKey(0xB, true)
	m.SetKey(0x3, true)

	status := step(t, m, 1)
	assert.Equal(t, Status(0), status)
	assert.Equal(t, byte(0x3), m.v[0x4])
	assert.Equal(t, uint16(ProgramStartAddress+2), m.ProgramCounter())
}

func TestWaitForKey_TimersKeepRunning(t *testing.T) {
	m := newTestMachine(t)
	load(t, m, 0xF40A)
	m.delay = 2

	step(t, m, 1)
	m.TickTimers()
	step(t, m, 1)
	m.TickTimers()

	assert.Equal(t, uint8(0), m.DelayTimer())
	assert.Equal(t, uint16(ProgramStartAddress), m.ProgramCounter())
}

func TestTimerInstructions(t *testing.T) {
	m := newTestMachine(t)
	m.v[0x1] = 0x20
	m.v[0x2] = 0x05

	execute(t, m, 0xF115)
	execute(t, m, 0xF218)
	assert.Equal(t, uint8(0x20), m.DelayTimer())
	assert.Equal(t, uint8(0x05), m.SoundTimer())
	assert.True(t, m.Tone())

	execute(t, m, 0xF307)
	assert.Equal(t, byte(0x20), m.v[0x3])
}

func TestIndexInstructions(t *testing.T) {
	m := newTestMachine(t)

	execute(t, m, 0xA123)
	assert.Equal(t, uint16(0x123), m.Index())

	m.v[0x2] = 0x10
	execute(t, m, 0xF21E)
	assert.Equal(t, uint16(0x133), m.Index())

	m.i = 0xFFFF
	m.v[0x2] = 0x02
	execute(t, m, 0xF21E)
	assert.Equal(t, uint16(0x0001), m.Index())

	m.v[0x5] = 0x1A
	execute(t, m, 0xF529)
	assert.Equal(t, uint16(FontStartAddress+0xA*GlyphSize), m.Index())
}

func TestStoreBCD(t *testing.T) {
	tests := []struct {
		value byte
		want  []byte
	}{
		{157, []byte{1, 5, 7}},
		{0, []byte{0, 0, 0}},
		{9, []byte{0, 0, 9}},
		{40, []byte{0, 4, 0}},
		{255, []byte{2, 5, 5}},
	}

	for _, tt := range tests {
		m := newTestMachine(t)
		m.i = 0x300
		m.v[0x6] = tt.value

		execute(t, m, 0xF633)
		got := make([]byte, 3)
		m.Peek(0x300, got)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("BCD of %d: (-want, +got)\n%s", tt.value, diff)
		}
	}
}

func TestRegisterBlock(t *testing.T) {
	m := newTestMachine(t)
	for i := range m.v {
		m.v[i] = byte(i + 1)
	}
	m.i = 0x400

	execute(t, m, 0xF355)
	got := make([]byte, 5)
	m.Peek(0x400, got)
	if diff := cmp.Diff([]byte{1, 2, 3, 4, 0}, got); diff != "" {
		t.Errorf("stored registers: (-want, +got)\n%s", diff)
	}
	assert.Equal(t, uint16(0x400), m.Index())

	m.v = [RegisterCount]byte{}
	execute(t, m, 0xF265)
	assert.Equal(t, byte(1), m.v[0x0])
	assert.Equal(t, byte(2), m.v[0x1])
	assert.Equal(t, byte(3), m.v[0x2])
	assert.Equal(t, byte(0), m.v[0x3])
}

func TestAddressRange(t *testing.T) {
	tests := []struct {
		name  string
		index uint16
		word  uint16
	}{
		{"bcd past end", 0xFFE, 0xF033},
		{"store past end", 0xFFF, 0xF155},
		{"load past end", 0x1000, 0xF065},
		{"draw past end", 0xFFC, 0xD125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t)
			m.i = tt.index
			m.v[FlagRegister] = 0x42

			_, err := m.Execute(Decode(Opcode(tt.word)))
			assert.True(t, errors.Is(err, ErrAddressRange))
			assert.Equal(t, byte(0x42), m.v[FlagRegister])
			assert.Equal(t, Frame{}, m.Frame())
		})
	}
}

func TestRandom(t *testing.T) {
	m := newTestMachine(t)

	for range 100 {
		execute(t, m, 0xC70F)
		assert.Equal(t, byte(0), m.v[0x7]&0xF0)
	}

	execute(t, m, 0xC700)
	assert.Equal(t, byte(0), m.v[0x7])
}

func TestTickTimers(t *testing.T) {
	m := newTestMachine(t)
	m.delay = 2
	m.sound = 1

	m.TickTimers()
	assert.Equal(t, uint8(1), m.DelayTimer())
	assert.Equal(t, uint8(0), m.SoundTimer())
	assert.False(t, m.Tone())

	m.TickTimers()
	m.TickTimers()
	assert.Equal(t, uint8(0), m.DelayTimer())
	assert.Equal(t, uint8(0), m.SoundTimer())
}

func TestStepDoesNotTickTimers(t *testing.T) {
	m := newTestMachine(t)
	load(t, m, 0x1200)
	m.delay = 10

	step(t, m, 100)
	assert.Equal(t, uint8(10), m.DelayTimer())
}
