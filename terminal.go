package emul8vm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"emul8vm/chip8"

	"github.com/retroenv/retrogolib/log"
	"golang.org/x/term"
)

const (
	// keyLatch is how long a key counts as held after its last keystroke.
	// Terminals report presses and auto-repeat but no releases.
	keyLatch = 150 * time.Millisecond

	refreshInterval = time.Second / 30

	keyEscape = 0x1B
	keyCtrlC  = 0x03
)

var terminalKeyMap = map[byte]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// Terminal presents the display on an ANSI terminal, two display rows per
// text line, and reads keys from raw mode stdin. Esc or Ctrl-C quits and
// p toggles pause.
type Terminal struct {
	keys   Keypad
	pause  func()
	logger *log.Logger

	in  *os.File
	out io.Writer

	mu    sync.Mutex
	frame chip8.Frame
	dirty bool

	held [chip8.KeyCount]time.Time
}

// NewTerminal creates a terminal presenter on stdin and stdout. pause may
// be nil.
func NewTerminal(logger *log.Logger, keys Keypad, pause func()) *Terminal {
	return &Terminal{
		keys:   keys,
		pause:  pause,
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// Present records the frame for the next refresh.
func (t *Terminal) Present(frame chip8.Frame) {
	t.mu.Lock()
	t.frame = frame
	t.dirty = true
	t.mu.Unlock()
}

// Run switches the terminal to raw mode and renders until the user quits
// or ctx is done.
func (t *Terminal) Run(ctx context.Context) error {
	fd := int(t.in.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("terminal presenter requires an interactive terminal")
	}

	if width, height, err := term.GetSize(fd); err == nil &&
		(width < chip8.Width || height < chip8.Height/2) {
		t.logger.Warn("Terminal smaller than display",
			log.Int("width", width), log.Int("height", height))
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("setting raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		_, _ = io.WriteString(t.out, "\x1b[?25h\r\n")
	}()
	_, _ = io.WriteString(t.out, "\x1b[2J\x1b[?25l")

	input := make(chan byte, 16)
	go readKeys(t.in, input)

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case b, ok := <-input:
			if !ok {
				return nil
			}
			if t.handleKey(b, time.Now()) {
				return nil
			}

		case now := <-ticker.C:
			t.releaseKeys(now)
			t.refresh()
		}
	}
}

// handleKey applies a keystroke and reports whether it asks to quit.
func (t *Terminal) handleKey(b byte, now time.Time) bool {
	switch b {
	case keyEscape, keyCtrlC:
		return true
	case 'p', 'P':
		if t.pause != nil {
			t.pause()
		}
		return false
	}

	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	if key, ok := terminalKeyMap[b]; ok {
		t.held[key] = now.Add(keyLatch)
		t.keys.SetKey(key, true)
	}
	return false
}

func (t *Terminal) releaseKeys(now time.Time) {
	for key, until := range t.held {
		if !until.IsZero() && now.After(until) {
			t.held[key] = time.Time{}
			t.keys.SetKey(uint8(key), false)
		}
	}
}

func (t *Terminal) refresh() {
	t.mu.Lock()
	frame, dirty := t.frame, t.dirty
	t.dirty = false
	t.mu.Unlock()

	if !dirty {
		return
	}

	w := bufio.NewWriter(t.out)
	_, _ = w.WriteString("\x1b[H")
	renderFrame(w, frame)
	_ = w.Flush()
}

// renderFrame writes the frame as half-block characters, each text line
// covering two display rows.
func renderFrame(w *bufio.Writer, frame chip8.Frame) {
	for y := 0; y < chip8.Height; y += 2 {
		for x := range chip8.Width {
			upper, lower := frame.At(x, y), frame.At(x, y+1)
			switch {
			case upper && lower:
				_, _ = w.WriteString("█")
			case upper:
				_, _ = w.WriteString("▀")
			case lower:
				_, _ = w.WriteString("▄")
			default:
				_ = w.WriteByte(' ')
			}
		}
		_, _ = w.WriteString("\r\n")
	}
}

// readKeys forwards bytes from r until it fails. The goroutine is left
// blocked in Read when the presenter stops; it ends with the process.
func readKeys(r io.Reader, input chan<- byte) {
	defer close(input)
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			input <- buf[0]
		}
		if err != nil {
			return
		}
	}
}
