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

import "emul8vm/hexfmt"

// Opcode is a raw 16-bit instruction word.
type Opcode uint16

func (o Opcode) kind() uint8 {
	return uint8((uint16(o) & 0xF000) >> 12)
}

func (o Opcode) x() uint8 {
	return uint8((uint16(o) & 0x0F00) >> 8)
}

func (o Opcode) y() uint8 {
	return uint8((uint16(o) & 0x00F0) >> 4)
}

func (o Opcode) n() uint8 {
	return uint8(uint16(o) & 0x000F)
}

func (o Opcode) kk() uint8 {
	return uint8(uint16(o) & 0x00FF)
}

func (o Opcode) nnn() uint16 {
	return uint16(o) & 0x0FFF
}

// String returns the assembler mnemonic of the instruction, or a DW
// directive for words that do not decode.
func (o Opcode) String() string {
	return Decode(o).String()
}

// Op identifies a decoded operation.
type Op uint8

const (
	OpUnknown Op = iota
	OpCLS
	OpRET
	OpJP
	OpCALL
	OpSEImm
	OpSNEImm
	OpSEReg
	OpSNEReg
	OpLDImm
	OpADDImm
	OpLDReg
	OpOR
	OpAND
	OpXOR
	OpADDReg
	OpSUB
	OpSHR
	OpSUBN
	OpSHL
	OpLDI
	OpJPV0
	OpRND
	OpDRW
	OpSKP
	OpSKNP
	OpLDVxDT
	OpLDVxK
	OpLDDTVx
	OpLDSTVx
	OpADDI
	OpLDF
	OpLDB
	OpLDIVx
	OpLDVxI
)

// Instruction is a decoded instruction word. Operand fields not used by
// Op are still populated from the word.
type Instruction struct {
	Op  Op
	X   uint8
	Y   uint8
	N   uint8
	KK  uint8
	NNN uint16
	Raw Opcode
}

type decoder func(Opcode) Op

// primary is indexed by the top nibble of the word.
var primary = [16]decoder{
	0x0: decodeSystem,
	0x1: constant(OpJP),
	0x2: constant(OpCALL),
	0x3: constant(OpSEImm),
	0x4: constant(OpSNEImm),
	0x5: registerPair(OpSEReg),
	0x6: constant(OpLDImm),
	0x7: constant(OpADDImm),
	0x8: decodeALU,
	0x9: registerPair(OpSNEReg),
	0xA: constant(OpLDI),
	0xB: constant(OpJPV0),
	0xC: constant(OpRND),
	0xD: constant(OpDRW),
	0xE: decodeKey,
	0xF: decodeMisc,
}

// alu is indexed by the low nibble of 8xyN words.
var alu = [16]Op{
	0x0: OpLDReg,
	0x1: OpOR,
	0x2: OpAND,
	0x3: OpXOR,
	0x4: OpADDReg,
	0x5: OpSUB,
	0x6: OpSHR,
	0x7: OpSUBN,
	0xE: OpSHL,
}

// misc is keyed by the low byte of FxKK words.
var misc = map[uint8]Op{
	0x07: OpLDVxDT,
	0x0A: OpLDVxK,
	0x15: OpLDDTVx,
	0x18: OpLDSTVx,
	0x1E: OpADDI,
	0x29: OpLDF,
	0x33: OpLDB,
	0x55: OpLDIVx,
	0x65: OpLDVxI,
}

// Decode splits an instruction word into its operation and operands.
// Words that match no instruction decode to OpUnknown.
func Decode(o Opcode) Instruction {
	return Instruction{
		Op:  primary[o.kind()](o),
		X:   o.x(),
		Y:   o.y(),
		N:   o.n(),
		KK:  o.kk(),
		NNN: o.nnn(),
		Raw: o,
	}
}

func constant(op Op) decoder {
	return func(Opcode) Op {
		return op
	}
}

// registerPair accepts only the 5xy0 and 9xy0 forms.
func registerPair(op Op) decoder {
	return func(o Opcode) Op {
		if o.n() != 0 {
			return OpUnknown
		}
		return op
	}
}

func decodeSystem(o Opcode) Op {
	switch o {
	case 0x00E0:
		return OpCLS
	case 0x00EE:
		return OpRET
	}
	return OpUnknown
}

func decodeALU(o Opcode) Op {
	return alu[o.n()]
}

func decodeKey(o Opcode) Op {
	switch o.kk() {
	case 0x9E:
		return OpSKP
	case 0xA1:
		return OpSKNP
	}
	return OpUnknown
}

func decodeMisc(o Opcode) Op {
	return misc[o.kk()]
}

func vx(i Instruction) string {
	return "V" + hexfmt.Nibble(i.X)
}

func vy(i Instruction) string {
	return "V" + hexfmt.Nibble(i.Y)
}

func (i Instruction) String() string {
	switch i.Op {
	case OpCLS:
		return "CLS"
	case OpRET:
		return "RET"
	case OpJP:
		return "JP " + hexfmt.Addr(i.NNN)
	case OpCALL:
		return "CALL " + hexfmt.Addr(i.NNN)
	case OpSEImm:
		return "SE " + vx(i) + ", " + hexfmt.Byte(i.KK)
	case OpSNEImm:
		return "SNE " + vx(i) + ", " + hexfmt.Byte(i.KK)
	case OpSEReg:
		return "SE " + vx(i) + ", " + vy(i)
	case OpSNEReg:
		return "SNE " + vx(i) + ", " + vy(i)
	case OpLDImm:
		return "LD " + vx(i) + ", " + hexfmt.Byte(i.KK)
	case OpADDImm:
		return "ADD " + vx(i) + ", " + hexfmt.Byte(i.KK)
	case OpLDReg:
		return "LD " + vx(i) + ", " + vy(i)
	case OpOR:
		return "OR " + vx(i) + ", " + vy(i)
	case OpAND:
		return "AND " + vx(i) + ", " + vy(i)
	case OpXOR:
		return "XOR " + vx(i) + ", " + vy(i)
	case OpADDReg:
		return "ADD " + vx(i) + ", " + vy(i)
	case OpSUB:
		return "SUB " + vx(i) + ", " + vy(i)
	case OpSHR:
		return "SHR " + vx(i)
	case OpSUBN:
		return "SUBN " + vx(i) + ", " + vy(i)
	case OpSHL:
		return "SHL " + vx(i)
	case OpLDI:
		return "LD I, " + hexfmt.Addr(i.NNN)
	case OpJPV0:
		return "JP V0, " + hexfmt.Addr(i.NNN)
	case OpRND:
		return "RND " + vx(i) + ", " + hexfmt.Byte(i.KK)
	case OpDRW:
		return "DRW " + vx(i) + ", " + vy(i) + ", " + hexfmt.Nibble(i.N)
	case OpSKP:
		return "SKP " + vx(i)
	case OpSKNP:
		return "SKNP " + vx(i)
	case OpLDVxDT:
		return "LD " + vx(i) + ", DT"
	case OpLDVxK:
		return "LD " + vx(i) + ", K"
	case OpLDDTVx:
		return "LD DT, " + vx(i)
	case OpLDSTVx:
		return "LD ST, " + vx(i)
	case OpADDI:
		return "ADD I, " + vx(i)
	case OpLDF:
		return "LD F, " + vx(i)
	case OpLDB:
		return "LD B, " + vx(i)
	case OpLDIVx:
		return "LD [I], " + vx(i)
	case OpLDVxI:
		return "LD " + vx(i) + ", [I]"
	}
	return "DW " + hexfmt.Word(uint16(i.Raw))
}
