// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"emul8vm/chip8"
	"emul8vm/internal/options"
)

const (
	maxHz    = 100_000
	maxScale = 64
)

// ParseFlags parses the process arguments into program options.
func ParseFlags() (options.Program, error) {
	return Parse(os.Args[0], os.Args[1:])
}

// Parse parses args into program options. A *UsageError is returned when
// the arguments cannot be used to start the machine.
func Parse(name string, args []string) (options.Program, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	opts := options.Program{}
	flags.StringVar(&opts.UI, "ui", options.Window, "presenter: window or terminal")
	flags.IntVar(&opts.Hz, "hz", int(time.Second/chip8.ClockRate), "instructions executed per second")
	flags.IntVar(&opts.Scale, "scale", 10, "window pixels per display cell")
	flags.BoolVar(&opts.Mute, "mute", false, "disable the tone")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debug logging")
	flags.BoolVar(&opts.Quiet, "quiet", false, "only log errors")

	if err := flags.Parse(args); err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}

	rest := flags.Args()
	if len(rest) != 1 {
		return opts, &UsageError{flags: flags, msg: "expected exactly one program image"}
	}
	opts.Input = rest[0]

	if err := normalizeOptions(&opts); err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}
	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Fprintf(os.Stderr, "usage: emul8vm [options] <program image>\n\n")
	e.flags.PrintDefaults()
	fmt.Fprintln(os.Stderr)
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) error {
	opts.UI = strings.ToLower(opts.UI)
	switch opts.UI {
	case options.Window, options.Terminal:
	default:
		return fmt.Errorf("unsupported presenter '%s'", opts.UI)
	}

	if opts.Hz <= 0 || opts.Hz > maxHz {
		return fmt.Errorf("instruction rate %d out of range 1-%d", opts.Hz, maxHz)
	}
	if opts.Scale <= 0 || opts.Scale > maxScale {
		return fmt.Errorf("scale %d out of range 1-%d", opts.Scale, maxScale)
	}
	return nil
}
