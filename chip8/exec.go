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

	"emul8vm/hexfmt"

	"github.com/retroenv/retrogolib/log"
)

// Status reports the side effects of one executed instruction that a
// driver needs to act on.
type Status uint8

const (
	// Redraw is set when the instruction changed the display grid.
	Redraw Status = 1 << iota
	// WaitingForKey is set while LD Vx, K is blocked. The program counter
	// still points at the blocked instruction.
	WaitingForKey
	// Unknown is set when the word did not decode and was skipped.
	Unknown
)

type handler func(m *Machine, in Instruction) (Status, error)

var handlers = [...]handler{
	OpUnknown: unknownInstruction,
	OpCLS:     clearScreen,
	OpRET:     returnFromSubroutine,
	OpJP:      jumpToLocation,
	OpCALL:    callSubroutine,
	OpSEImm:   skipIfXEqualsKK,
	OpSNEImm:  skipIfXNotEqualsKK,
	OpSEReg:   skipIfXEqualsY,
	OpSNEReg:  skipIfXNotEqualsY,
	OpLDImm:   setXToKK,
	OpADDImm:  addKKToX,
	OpLDReg:   setXToY,
	OpOR:      orXY,
	OpAND:     andXY,
	OpXOR:     xorXY,
	OpADDReg:  addXY,
	OpSUB:     subtractYFromX,
	OpSHR:     shiftRightX,
	OpSUBN:    subtractXFromY,
	OpSHL:     shiftLeftX,
	OpLDI:     setIToNNN,
	OpJPV0:    jumpWithOffset,
	OpRND:     setXToRandom,
	OpDRW:     drawSprite,
	OpSKP:     skipIfKeyDown,
	OpSKNP:    skipIfKeyUp,
	OpLDVxDT:  setXToDelay,
	OpLDVxK:   waitForKey,
	OpLDDTVx:  setDelayToX,
	OpLDSTVx:  setSoundToX,
	OpADDI:    addXToI,
	OpLDF:     setIToGlyph,
	OpLDB:     storeBCD,
	OpLDIVx:   storeRegisters,
	OpLDVxI:   loadRegisters,
}

// OpcodeAt reads the big-endian instruction word at addr.
func (m *Machine) OpcodeAt(addr uint16) (Opcode, error) {
	if int(addr) > MemorySize-2 {
		return 0, fmt.Errorf("%w: %s", ErrProgramCounter, hexfmt.Addr(addr))
	}

	// opcode is a 16bit value, comprised of two contiguous 8bit values
	// in memory, starting at the program counter
	high := uint16(m.memory[addr])
	low := uint16(m.memory[addr+1])
	return Opcode(high<<8 | low), nil
}

// Step fetches, decodes and executes the instruction at the program
// counter. A returned error is fatal: the machine stays halted and every
// later call returns the same error until Reset.
func (m *Machine) Step() (Status, error) {
	if m.fault != nil {
		return 0, m.fault
	}

	opcode, err := m.OpcodeAt(m.pc)
	if err != nil {
		m.fault = err
		m.logger.Error("Fetch failed", log.String("error", err.Error()))
		return 0, err
	}

	return m.Execute(Decode(opcode))
}

// Execute runs a decoded instruction as if it had been fetched from the
// program counter. Operands are expected in the ranges Decode produces.
func (m *Machine) Execute(in Instruction) (Status, error) {
	if m.fault != nil {
		return 0, m.fault
	}
	if int(in.Op) >= len(handlers) {
		in.Op = OpUnknown
	}

	at := m.pc
	m.pc += 2

	status, err := handlers[in.Op](m, in)
	if err != nil {
		m.fault = fmt.Errorf("%s at %s: %w", in, hexfmt.Addr(at), err)
		m.logger.Error("Execution halted",
			log.String("address", hexfmt.Addr(at)),
			log.String("instruction", in.String()),
			log.String("error", err.Error()))
		return status, m.fault
	}

	if status&Unknown != 0 {
		m.logger.Warn("Unknown instruction skipped",
			log.String("address", hexfmt.Addr(at)),
			log.String("opcode", hexfmt.Word(uint16(in.Raw))))
	}
	return status, nil
}

func unknownInstruction(*Machine, Instruction) (Status, error) {
	return Unknown, nil
}

func clearScreen(m *Machine, _ Instruction) (Status, error) {
	m.display.Clear()
	return Redraw, nil
}

func callSubroutine(m *Machine, in Instruction) (Status, error) {
	if int(m.sp) >= len(m.stack) {
		return 0, ErrStackOverflow
	}
	m.stack[m.sp] = m.pc
	m.sp++
	m.pc = in.NNN
	return 0, nil
}

func returnFromSubroutine(m *Machine, _ Instruction) (Status, error) {
	if m.sp == 0 {
		return 0, ErrStackUnderflow
	}
	m.sp--
	m.pc = m.stack[m.sp]
	return 0, nil
}

func jumpToLocation(m *Machine, in Instruction) (Status, error) {
	m.pc = in.NNN
	return 0, nil
}

func jumpWithOffset(m *Machine, in Instruction) (Status, error) {
	m.pc = (in.NNN + uint16(m.v[0x0])) & LastAddress
	return 0, nil
}

func (m *Machine) skipIf(cond bool) {
	if cond {
		m.pc += 2
	}
}

func skipIfXEqualsKK(m *Machine, in Instruction) (Status, error) {
	m.skipIf(m.v[in.X] == in.KK)
	return 0, nil
}

func skipIfXNotEqualsKK(m *Machine, in Instruction) (Status, error) {
	m.skipIf(m.v[in.X] != in.KK)
	return 0, nil
}

func skipIfXEqualsY(m *Machine, in Instruction) (Status, error) {
	m.skipIf(m.v[in.X] == m.v[in.Y])
	return 0, nil
}

func skipIfXNotEqualsY(m *Machine, in Instruction) (Status, error) {
	m.skipIf(m.v[in.X] != m.v[in.Y])
	return 0, nil
}

func setXToKK(m *Machine, in Instruction) (Status, error) {
	m.v[in.X] = in.KK
	return 0, nil
}

func addKKToX(m *Machine, in Instruction) (Status, error) {
	m.v[in.X] += in.KK
	return 0, nil
}

func setXToY(m *Machine, in Instruction) (Status, error) {
	m.v[in.X] = m.v[in.Y]
	return 0, nil
}

func orXY(m *Machine, in Instruction) (Status, error) {
	m.v[in.X] |= m.v[in.Y]
	return 0, nil
}

func andXY(m *Machine, in Instruction) (Status, error) {
	m.v[in.X] &= m.v[in.Y]
	return 0, nil
}

func xorXY(m *Machine, in Instruction) (Status, error) {
	m.v[in.X] ^= m.v[in.Y]
	return 0, nil
}

// The flag producing instructions below compute the flag from the operands
// first and write VF last, so VF holds the flag even when it is Vx or Vy.

func addXY(m *Machine, in Instruction) (Status, error) {
	sum := uint16(m.v[in.X]) + uint16(m.v[in.Y])
	m.v[in.X] = byte(sum)
	m.v[FlagRegister] = boolToByte(sum > 0xFF)
	return 0, nil
}

func subtractYFromX(m *Machine, in Instruction) (Status, error) {
	x, y := m.v[in.X], m.v[in.Y]
	m.v[in.X] = x - y
	m.v[FlagRegister] = boolToByte(x >= y)
	return 0, nil
}

func subtractXFromY(m *Machine, in Instruction) (Status, error) {
	x, y := m.v[in.X], m.v[in.Y]
	m.v[in.X] = y - x
	m.v[FlagRegister] = boolToByte(y >= x)
	return 0, nil
}

func shiftRightX(m *Machine, in Instruction) (Status, error) {
	x := m.v[in.X]
	m.v[in.X] = x >> 1
	m.v[FlagRegister] = x & 0x1
	return 0, nil
}

func shiftLeftX(m *Machine, in Instruction) (Status, error) {
	x := m.v[in.X]
	m.v[in.X] = x << 1
	m.v[FlagRegister] = x >> 7
	return 0, nil
}

func setIToNNN(m *Machine, in Instruction) (Status, error) {
	m.i = in.NNN
	return 0, nil
}

func setXToRandom(m *Machine, in Instruction) (Status, error) {
	m.v[in.X] = byte(m.rnd.Uint32N(256)) & in.KK
	return 0, nil
}

func drawSprite(m *Machine, in Instruction) (Status, error) {
	sprite, err := m.span(m.i, int(in.N))
	if err != nil {
		return 0, err
	}

	x, y := m.v[in.X], m.v[in.Y]
	m.v[FlagRegister] = 0
	if m.display.Draw(x, y, sprite) {
		m.v[FlagRegister] = 1
	}
	return Redraw, nil
}

// skipIfKeyDown and skipIfKeyUp treat register values past 0xF as keys
// that are never held.

func skipIfKeyDown(m *Machine, in Instruction) (Status, error) {
	m.skipIf(m.Key(m.v[in.X]))
	return 0, nil
}

func skipIfKeyUp(m *Machine, in Instruction) (Status, error) {
	m.skipIf(!m.Key(m.v[in.X]))
	return 0, nil
}

func setXToDelay(m *Machine, in Instruction) (Status, error) {
	m.v[in.X] = m.delay
	return 0, nil
}

func waitForKey(m *Machine, in Instruction) (Status, error) {
	for key := range uint8(KeyCount) {
		if m.keys[key].Load() {
			m.v[in.X] = key
			return 0, nil
		}
	}

	// Nothing held: rewind so the same instruction is fetched next cycle.
	m.pc -= 2
	return WaitingForKey, nil
}

func setDelayToX(m *Machine, in Instruction) (Status, error) {
	m.delay = m.v[in.X]
	return 0, nil
}

func setSoundToX(m *Machine, in Instruction) (Status, error) {
	m.sound = m.v[in.X]
	return 0, nil
}

func addXToI(m *Machine, in Instruction) (Status, error) {
	m.i += uint16(m.v[in.X])
	return 0, nil
}

func setIToGlyph(m *Machine, in Instruction) (Status, error) {
	digit := uint16(m.v[in.X] & 0x0F)
	m.i = FontStartAddress + digit*GlyphSize
	return 0, nil
}

func storeBCD(m *Machine, in Instruction) (Status, error) {
	dst, err := m.span(m.i, 3)
	if err != nil {
		return 0, err
	}

	// Double dabble: shift the value in one bit at a time, adding 3 to
	// any decimal digit of 5 or more before the shift so it carries.
	var bcd uint32
	val := uint32(m.v[in.X])
	for i := range 8 {
		if bcd&0x00F >= 0x005 {
			bcd += 0x003
		}
		if bcd&0x0F0 >= 0x050 {
			bcd += 0x030
		}
		if bcd&0xF00 >= 0x500 {
			bcd += 0x300
		}
		bcd = bcd<<1 | (val>>(7-i))&1
	}

	dst[0] = byte(bcd >> 8 & 0xF) // Hundreds
	dst[1] = byte(bcd >> 4 & 0xF) // Tens
	dst[2] = byte(bcd & 0xF)      // Ones
	return 0, nil
}

func storeRegisters(m *Machine, in Instruction) (Status, error) {
	dst, err := m.span(m.i, int(in.X)+1)
	if err != nil {
		return 0, err
	}
	copy(dst, m.v[:in.X+1])
	return 0, nil
}

func loadRegisters(m *Machine, in Instruction) (Status, error) {
	src, err := m.span(m.i, int(in.X)+1)
	if err != nil {
		return 0, err
	}
	copy(m.v[:in.X+1], src)
	return 0, nil
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
