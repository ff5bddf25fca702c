package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// outputRate is the speaker sample rate; streams with a different native
// rate are resampled onto it.
const outputRate = beep.SampleRate(44100)

// Output owns the process-wide speaker. It is opened once at startup and
// shared by every playback handle for the process lifetime.
type Output struct{}

// NewOutput returns the speaker-backed output.
func NewOutput() *Output {
	return &Output{}
}

// Init opens the audio device. Failure here is a setup failure.
func (o *Output) Init() error {
	if err := speaker.Init(outputRate, outputRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	return nil
}

// Close releases the audio device.
func (o *Output) Close() {
	speaker.Close()
}

// Open decodes the file at path and starts playing it, returning a handle
// that can pause, resume and stop the stream and report when it has
// drained.
func (o *Output) Open(path string) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	streamer, format, err := decode(path, f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	h := &Handle{
		streamer: streamer,
		done:     make(chan struct{}),
	}
	h.ctrl = &beep.Ctrl{Streamer: beep.Resample(4, format.SampleRate, outputRate, streamer)}

	speaker.Play(beep.Seq(h.ctrl, beep.Callback(func() {
		close(h.done)
	})))

	return h, nil
}

func decode(path string, f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3.Decode(f)
	case ".wav":
		return wav.Decode(f)
	case ".flac":
		return flac.Decode(f)
	case ".ogg":
		return vorbis.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
	}
}

// Handle is one live stream on the speaker.
type Handle struct {
	ctrl     *beep.Ctrl
	streamer beep.StreamSeekCloser
	done     chan struct{}
	stopOnce sync.Once
}

// Drained reports whether the stream has finished producing audio.
func (h *Handle) Drained() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// SetPaused pauses or resumes the stream without discarding it.
func (h *Handle) SetPaused(paused bool) {
	speaker.Lock()
	h.ctrl.Paused = paused
	speaker.Unlock()
}

// Paused reports whether the stream is currently paused.
func (h *Handle) Paused() bool {
	speaker.Lock()
	paused := h.ctrl.Paused
	speaker.Unlock()
	return paused
}

// Stop detaches the stream from the speaker and releases the decoder. The
// speaker drops the drained control on its next mix pass.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		speaker.Lock()
		h.ctrl.Streamer = nil
		h.ctrl.Paused = false
		speaker.Unlock()
		h.streamer.Close()
	})
}
