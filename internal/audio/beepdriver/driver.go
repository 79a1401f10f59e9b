//go:build (linux && cgo) || windows || darwin

package beepdriver

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"go.uber.org/zap"

	"github.com/auriga-audio/auriga/internal/audio"
)

// Available indicates whether audio output is supported in this build.
const Available = true

// Driver renders audio through the beep speaker. It fetches the whole
// stream before decoding so mp3 seeking works.
type Driver struct {
	mu sync.Mutex

	log        *zap.Logger
	client     *http.Client
	sampleRate beep.SampleRate

	initialized bool
	suspended   bool
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	vol         *effects.Volume
	volume      float64
	onEnd       func()
}

// New creates a beep driver.
func New(log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{
		log:        log,
		client:     &http.Client{Timeout: 60 * time.Second},
		sampleRate: beep.SampleRate(44100),
		volume:     1.0,
	}
}

// Play fetches and starts a stream at the given position, replacing
// any current playback.
func (d *Driver) Play(url string, positionMS int64) error {
	data, err := d.fetch(url)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()

	streamer, format, err := mp3.Decode(nopCloser{bytes.NewReader(data)})
	if err != nil {
		return fmt.Errorf("decode stream: %w", err)
	}

	if !d.initialized {
		if err := speaker.Init(d.sampleRate, d.sampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return fmt.Errorf("init speaker: %w", err)
		}
		d.initialized = true
	}

	if positionMS > 0 {
		samples := format.SampleRate.N(time.Duration(positionMS) * time.Millisecond)
		if samples < streamer.Len() {
			if err := streamer.Seek(samples); err != nil {
				d.log.Debug("seek to resume position failed", zap.Error(err))
			}
		}
	}

	d.streamer = streamer
	d.format = format
	resampled := beep.Resample(4, format.SampleRate, d.sampleRate, streamer)
	d.ctrl = &beep.Ctrl{Streamer: resampled}
	d.vol = &effects.Volume{Streamer: d.ctrl, Base: 2}
	d.applyVolumeLocked()

	end := d.onEnd
	speaker.Play(beep.Seq(d.vol, beep.Callback(func() {
		// next-track decisions happen off the speaker goroutine
		if end != nil {
			go end()
		}
	})))
	return nil
}

func (d *Driver) fetch(url string) ([]byte, error) {
	resp, err := d.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch stream: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch stream: %w", err)
	}
	return data, nil
}

// Pause pauses playback.
func (d *Driver) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctrl != nil {
		speaker.Lock()
		d.ctrl.Paused = true
		speaker.Unlock()
	}
	return nil
}

// Resume resumes paused playback and wakes a suspended speaker.
func (d *Driver) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.suspended {
		if err := speaker.Resume(); err != nil {
			return err
		}
		d.suspended = false
	}
	if d.ctrl != nil {
		speaker.Lock()
		d.ctrl.Paused = false
		speaker.Unlock()
	}
	return nil
}

// Stop stops playback and releases the current streamer.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	return nil
}

func (d *Driver) stopLocked() {
	if d.ctrl != nil {
		speaker.Lock()
		d.ctrl.Paused = true
		speaker.Unlock()
	}
	if d.streamer != nil {
		d.streamer.Close()
		d.streamer = nil
	}
	d.ctrl = nil
	d.vol = nil
}

// Seek moves the playback position.
func (d *Driver) Seek(positionMS int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streamer == nil {
		return nil
	}
	speaker.Lock()
	defer speaker.Unlock()
	return d.streamer.Seek(d.format.SampleRate.N(time.Duration(positionMS) * time.Millisecond))
}

// SetVolume maps a linear 0..1 volume onto the logarithmic effect.
func (d *Driver) SetVolume(volume float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.volume = volume
	d.applyVolumeLocked()
	return nil
}

func (d *Driver) applyVolumeLocked() {
	if d.vol == nil {
		return
	}
	speaker.Lock()
	if d.volume <= 0 {
		d.vol.Silent = true
	} else {
		d.vol.Silent = false
		v := d.volume
		if v > 1 {
			v = 1
		}
		d.vol.Volume = math.Log2(v)
	}
	speaker.Unlock()
}

// Position returns the playback position and duration.
func (d *Driver) Position() (int64, int64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streamer == nil {
		return 0, 0, false
	}
	speaker.Lock()
	pos := d.streamer.Position()
	total := d.streamer.Len()
	speaker.Unlock()

	return d.format.SampleRate.D(pos).Milliseconds(), d.format.SampleRate.D(total).Milliseconds(), true
}

// State reports the pipeline state.
func (d *Driver) State() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return audio.PipelineClosed
	}
	if d.suspended {
		return audio.PipelineSuspended
	}
	return audio.PipelineRunning
}

// Suspend parks the speaker, e.g. when the host signals an idle
// period. The bridge keep-alive loop resumes it.
func (d *Driver) Suspend() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized || d.suspended {
		return nil
	}
	if err := speaker.Suspend(); err != nil {
		return err
	}
	d.suspended = true
	return nil
}

// OnEnd registers the end-of-stream callback. It applies to streams
// started after the call.
func (d *Driver) OnEnd(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onEnd = fn
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
