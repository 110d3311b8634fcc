// Package beep plays a continuous sine tone through the default PortAudio
// output device while the machine's sound timer is active.
package beep

import (
	"context"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/generator"
	"github.com/gordonklaus/portaudio"
	"golang.org/x/sync/errgroup"
)

const (
	bufferSize int     = 512
	note       float64 = 440.0
)

var format = audio.FormatMono44100

// Beep owns the output stream. The zero value is ready to use.
type Beep struct {
	mu      sync.Mutex
	g       *errgroup.Group
	cancel  context.CancelFunc
	beeping bool
}

// Set starts or stops the tone so that it matches on. Repeated calls with
// the same value are cheap.
func (b *Beep) Set(ctx context.Context, on bool) error {
	if on {
		return b.Start(ctx)
	}
	return b.Stop()
}

// Start begins playing the tone until Stop is called or ctx is done.
func (b *Beep) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.beeping {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return err
	}
	b.beeping = true

	ctx, b.cancel = context.WithCancel(ctx)
	b.g, ctx = errgroup.WithContext(ctx)

	buffer := &audio.FloatBuffer{
		Data:   make([]float64, bufferSize),
		Format: format,
	}

	osc := generator.NewOsc(generator.WaveSine, note, buffer.Format.SampleRate)
	osc.Amplitude = 1

	b.g.Go(func() error {
		defer func() {
			_ = portaudio.Terminate()
		}()

		out := make([]float32, bufferSize)

		stream, err := portaudio.OpenDefaultStream(0, 1, float64(format.SampleRate), len(out), &out)
		if err != nil {
			return err
		}
		defer func() {
			_ = stream.Close()
		}()

		if err := stream.Start(); err != nil {
			return err
		}
		defer func() {
			_ = stream.Stop()
		}()

		for ctx.Err() == nil {
			if err := osc.Fill(buffer); err != nil {
				return err
			}

			toFloat32(out, buffer.Data)

			if err := stream.Write(); err != nil {
				return err
			}
		}
		return nil
	})

	return nil
}

// Stop silences the tone and returns the first error hit while playing.
func (b *Beep) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.beeping {
		return nil
	}
	b.beeping = false
	b.cancel()
	return b.g.Wait()
}

func toFloat32(dst []float32, src []float64) {
	for i := range src {
		dst[i] = float32(src[i])
	}
}
