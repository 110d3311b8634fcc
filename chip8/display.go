package chip8

import "strings"

const (
	Width  int = 64
	Height int = 32
	Area   int = Width * Height
)

// Display is the 64x32 monochrome grid. Cells hold 0 or 1, row-major.
type Display struct {
	cells [Area]byte
}

// Clear turns every cell off.
func (d *Display) Clear() {
	d.cells = [Area]byte{}
}

// Draw XORs an 8 pixel wide sprite onto the grid with its top left corner
// at (x, y). Every pixel wraps independently around both edges. It reports
// whether any set sprite bit landed on a cell that was already on.
func (d *Display) Draw(x, y uint8, sprite []byte) bool {
	var collision bool

	for row, bits := range sprite {
		dy := (int(y) + row) % Height

		for col := range 8 {
			if bits&(0x80>>col) == 0 {
				continue
			}

			dx := (int(x) + col) % Width
			index := dx + dy*Width

			if d.cells[index] == 1 {
				collision = true
			}
			d.cells[index] ^= 1
		}
	}
	return collision
}

// Pixel reports whether the cell at (x, y) is on. Coordinates wrap.
func (d *Display) Pixel(x, y int) bool {
	return d.cells[wrap(x, Width)+wrap(y, Height)*Width] == 1
}

// Frame returns a copy of the grid.
func (d *Display) Frame() Frame {
	return Frame(d.cells)
}

// Frame is a read-only snapshot of the display grid.
type Frame [Area]byte

// At reports whether the cell at (x, y) is on. Coordinates wrap.
func (f Frame) At(x, y int) bool {
	return f[wrap(x, Width)+wrap(y, Height)*Width] == 1
}

// String renders the frame as Height lines of '#' and '.'.
func (f Frame) String() string {
	var b strings.Builder
	b.Grow(Area + Height)
	for y := range Height {
		for x := range Width {
			if f[x+y*Width] == 1 {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
