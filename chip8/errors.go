package chip8

import "errors"

var (
	// ErrImageTooLarge is returned by Load when an image does not fit
	// between the program start address and the end of memory.
	ErrImageTooLarge = errors.New("image too large")

	// ErrStackOverflow is raised by CALL when the call stack is full.
	ErrStackOverflow = errors.New("stack overflow")

	// ErrStackUnderflow is raised by RET when the call stack is empty.
	ErrStackUnderflow = errors.New("stack underflow")

	// ErrProgramCounter is raised when the program counter cannot address
	// a complete instruction.
	ErrProgramCounter = errors.New("program counter out of range")

	// ErrAddressRange is raised when an instruction addresses memory past
	// the end of memory through the index register.
	ErrAddressRange = errors.New("address out of range")
)
