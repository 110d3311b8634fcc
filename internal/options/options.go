// Package options contains the settings the command line can change.
package options

// Presenter names accepted by the -ui flag.
const (
	Window   = "window"
	Terminal = "terminal"
)

// Program contains the program options.
type Program struct {
	Input string // path of the program image

	UI    string // presenter, one of Window or Terminal
	Hz    int    // instructions per second
	Scale int    // window pixels per display cell
	Mute  bool

	Debug bool
	Quiet bool
}
