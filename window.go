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

package emul8vm

import (
	"context"
	"errors"
	"image"
	"image/color"

	"emul8vm/chip8"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
)

var keyMap = map[fyne.KeyName]uint8{
	fyne.Key1: 0x1, fyne.Key2: 0x2, fyne.Key3: 0x3, fyne.Key4: 0xC,
	fyne.KeyQ: 0x4, fyne.KeyW: 0x5, fyne.KeyE: 0x6, fyne.KeyR: 0xD,
	fyne.KeyA: 0x7, fyne.KeyS: 0x8, fyne.KeyD: 0x9, fyne.KeyF: 0xE,
	fyne.KeyZ: 0xA, fyne.KeyX: 0x0, fyne.KeyC: 0xB, fyne.KeyV: 0xF,
}

var (
	pixelOn  = color.White
	pixelOff = color.Black
)

// Window presents the display in a desktop window scaled by an integer
// factor. The P key toggles pause.
type Window struct {
	keys  Keypad
	pause func()

	app    fyne.App
	window fyne.Window
	buffer *image.RGBA
	image  *canvas.Image
}

// NewWindow creates the window. pause may be nil.
func NewWindow(title string, keys Keypad, scale int, pause func()) *Window {
	w := &Window{
		keys:  keys,
		pause: pause,
		app:   app.New(),
		// Back-buffer for the pixel data, one pixel per display cell.
		buffer: image.NewRGBA(image.Rect(0, 0, chip8.Width, chip8.Height)),
	}
	w.window = w.app.NewWindow(title)

	w.image = canvas.NewImageFromImage(w.buffer)
	w.image.FillMode = canvas.ImageFillStretch  // Scales the grid to window size
	w.image.ScaleMode = canvas.ImageScalePixels // Maintains "pixelated" retro look

	size := fyne.NewSize(float32(chip8.Width*scale), float32(chip8.Height*scale))
	w.window.SetContent(container.New(layout.NewGridWrapLayout(size), w.image))
	w.window.Resize(size)
	w.window.SetFixedSize(true)
	return w
}

// Present copies frame into the back-buffer on the UI goroutine.
func (w *Window) Present(frame chip8.Frame) {
	fyne.Do(func() {
		fillBuffer(w.buffer, frame)
		w.image.Refresh()
	})
}

// Run shows the window and blocks until it is closed or ctx is done.
func (w *Window) Run(ctx context.Context) error {
	canv, ok := w.window.Canvas().(desktop.Canvas) // Extension that exposes OnKeyUp event
	if !ok {
		return errors.New("window presenter requires a desktop driver")
	}
	canv.SetOnKeyDown(w.onKeyDown)
	canv.SetOnKeyUp(w.onKeyUp)

	stop := context.AfterFunc(ctx, func() {
		fyne.Do(w.window.Close)
	})
	defer stop()

	w.window.ShowAndRun()
	return nil
}

func (w *Window) onKeyDown(k *fyne.KeyEvent) {
	if hex, ok := keyMap[k.Name]; ok {
		w.keys.SetKey(hex, true)
	}
}

func (w *Window) onKeyUp(k *fyne.KeyEvent) {
	if k.Name == fyne.KeyP && w.pause != nil {
		w.pause()
		return
	}

	if hex, ok := keyMap[k.Name]; ok {
		w.keys.SetKey(hex, false)
	}
}

func fillBuffer(buffer *image.RGBA, frame chip8.Frame) {
	for i, val := range frame {
		x, y := i%chip8.Width, i/chip8.Width
		c := pixelOff
		if val == 1 {
			c = pixelOn
		}
		buffer.Set(x, y, c) // Directly sets pixels in the buffer
	}
}
