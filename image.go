package emul8vm

import (
	"fmt"
	"io"
	"os"

	"emul8vm/chip8"
)

// LoadFile reads a raw program image from disk. Images larger than the
// program area are returned truncated by one byte past the limit so that
// Machine.Load reports them as too large without reading huge files whole.
func LoadFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	limit := int64(chip8.MemorySize - chip8.ProgramStartAddress + 1)
	data, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		return nil, fmt.Errorf("reading image %s: %w", path, err)
	}
	return data, nil
}
