package audio

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/auriga-audio/auriga/pkg/aw"
)

const keepAliveInterval = 5 * time.Second

// Status is a point-in-time snapshot of the bridge capabilities and
// background mode.
type Status struct {
	Bound             bool
	HasMediaSurface   bool
	HasKeepAlive      bool
	BackgroundEnabled bool
	PipelineState     string
}

// Controls carries the transport handlers exposed to the platform
// media surface. Handlers are optional; nil slots are skipped.
type Controls struct {
	Play          func()
	Pause         func()
	NextTrack     func()
	PreviousTrack func()
	SeekForward   func()
	SeekBackward  func()
}

// Bridge mediates between playback and the platform audio facilities:
// the output driver, the now-playing surface and the background
// keep-alive hint. Every platform capability is probed at bind time
// and an absent one degrades silently; playback itself only needs the
// driver. The bridge is a constructed service handed to its consumers,
// not a process-wide singleton.
type Bridge struct {
	mu        sync.Mutex
	log       *zap.Logger
	driver    Driver
	surface   MediaSurface
	keepAlive KeepAlive

	bound        bool
	background   bool
	holdingAlive bool
	volume       float64
	duckFraction float64
	ducked       bool
	controls     Controls
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithMediaSurface attaches a platform now-playing surface.
func WithMediaSurface(s MediaSurface) Option {
	return func(b *Bridge) { b.surface = s }
}

// WithKeepAlive attaches a platform keep-alive hint.
func WithKeepAlive(k KeepAlive) Option {
	return func(b *Bridge) { b.keepAlive = k }
}

// WithDuckFraction sets the volume fraction applied while an
// announcement plays over music.
func WithDuckFraction(f float64) Option {
	return func(b *Bridge) {
		if f > 0 && f <= 1 {
			b.duckFraction = f
		}
	}
}

// New builds an unbound bridge.
func New(log *zap.Logger, opts ...Option) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bridge{log: log, volume: 1.0, duckFraction: 0.3}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bind attaches the output driver. Binding is idempotent: rebinding
// the same driver is a no-op, a different driver replaces the old one.
func (b *Bridge) Bind(d Driver) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bound && b.driver == d {
		return
	}
	b.driver = d
	b.bound = true
	b.registerHandlersLocked()
	b.log.Debug("audio driver bound",
		zap.Bool("mediaSurface", b.surface != nil),
		zap.Bool("keepAlive", b.keepAlive != nil))
}

// SetupControls installs transport handlers. The slots are mutable and
// may be swapped at any time, e.g. when the active zone changes.
func (b *Bridge) SetupControls(c Controls) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.controls = c
	b.registerHandlersLocked()
}

func (b *Bridge) registerHandlersLocked() {
	if b.surface == nil {
		return
	}
	slots := map[string]func(){
		ActionPlay:          b.controls.Play,
		ActionPause:         b.controls.Pause,
		ActionNextTrack:     b.controls.NextTrack,
		ActionPreviousTrack: b.controls.PreviousTrack,
		ActionSeekForward:   b.controls.SeekForward,
		ActionSeekBackward:  b.controls.SeekBackward,
	}
	for action, fn := range slots {
		if fn == nil {
			continue
		}
		if err := b.surface.SetHandler(action, fn); err != nil && !errors.Is(err, ErrUnsupported) {
			b.log.Debug("media surface handler rejected", zap.String("action", action), zap.Error(err))
		}
	}
}

// EnableBackground turns background playback on. Callers invoke it
// from a user interaction, which is what platforms require before the
// audio pipeline may run unattended. The keep-alive hint is acquired
// best effort.
func (b *Bridge) EnableBackground() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.bound {
		return errors.New("no audio driver bound")
	}
	b.background = true
	if b.keepAlive != nil && !b.holdingAlive {
		if err := b.keepAlive.Acquire(); err != nil {
			b.log.Debug("keep-alive acquire failed", zap.Error(err))
		} else {
			b.holdingAlive = true
		}
	}
	if b.driver.State() == PipelineSuspended {
		if err := b.driver.Resume(); err != nil {
			return err
		}
	}
	return nil
}

// DisableBackground turns background playback off and releases the
// keep-alive hint synchronously.
func (b *Bridge) DisableBackground() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.background = false
	if b.holdingAlive {
		if err := b.keepAlive.Release(); err != nil {
			b.log.Debug("keep-alive release failed", zap.Error(err))
		}
		b.holdingAlive = false
	}
}

// Run drives the keep-alive loop: every five seconds a suspended
// pipeline is nudged back to running while background mode is on.
func (b *Bridge) Run(ctx context.Context) error {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.DisableBackground()
			return ctx.Err()
		case <-ticker.C:
			b.heal()
		}
	}
}

func (b *Bridge) heal() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.bound || !b.background {
		return
	}
	if b.driver.State() != PipelineSuspended {
		return
	}
	if err := b.driver.Resume(); err != nil {
		b.log.Warn("pipeline resume failed", zap.Error(err))
		return
	}
	b.log.Debug("suspended pipeline resumed")
}

// Status reports the probed capabilities and current mode.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Status{
		Bound:             b.bound,
		HasMediaSurface:   b.surface != nil,
		HasKeepAlive:      b.keepAlive != nil,
		BackgroundEnabled: b.background,
		PipelineState:     PipelineClosed,
	}
	if b.bound {
		s.PipelineState = b.driver.State()
	}
	return s
}

// PlayTrack starts a music track at the given position and refreshes
// the now-playing surface.
func (b *Bridge) PlayTrack(track aw.Track, positionMS int64) error {
	b.mu.Lock()
	driver, ok := b.driver, b.bound
	b.mu.Unlock()
	if !ok {
		return errors.New("no audio driver bound")
	}

	if err := driver.Play(track.StreamURL, positionMS); err != nil {
		return err
	}
	b.setMetadata(Metadata{Title: track.Title, Artist: track.Artist, Album: track.PlaylistName})
	b.setSurfaceState("playing")
	return nil
}

// PlayStream starts an arbitrary stream, used for announcements. The
// surface metadata is swapped to the stream title for its duration.
func (b *Bridge) PlayStream(title, url string) error {
	b.mu.Lock()
	driver, ok := b.driver, b.bound
	b.mu.Unlock()
	if !ok {
		return errors.New("no audio driver bound")
	}

	if err := driver.Play(url, 0); err != nil {
		return err
	}
	b.setMetadata(Metadata{Title: title})
	b.setSurfaceState("playing")
	return nil
}

// Pause pauses the driver and mirrors the state to the surface.
func (b *Bridge) Pause() error {
	b.mu.Lock()
	driver, ok := b.driver, b.bound
	b.mu.Unlock()
	if !ok {
		return errors.New("no audio driver bound")
	}
	if err := driver.Pause(); err != nil {
		return err
	}
	b.setSurfaceState("paused")
	return nil
}

// Resume resumes the driver and mirrors the state to the surface.
func (b *Bridge) Resume() error {
	b.mu.Lock()
	driver, ok := b.driver, b.bound
	b.mu.Unlock()
	if !ok {
		return errors.New("no audio driver bound")
	}
	if err := driver.Resume(); err != nil {
		return err
	}
	b.setSurfaceState("playing")
	return nil
}

// Stop stops the driver and clears the surface.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	driver, ok := b.driver, b.bound
	b.mu.Unlock()
	if !ok {
		return nil
	}
	if err := driver.Stop(); err != nil {
		return err
	}
	b.setSurfaceState("none")
	return nil
}

// SetVolume adjusts the output volume, re-applying the duck fraction
// if an announcement is active.
func (b *Bridge) SetVolume(v float64) error {
	b.mu.Lock()
	driver, ok := b.driver, b.bound
	b.volume = v
	effective := v
	if b.ducked {
		effective = v * b.duckFraction
	}
	b.mu.Unlock()
	if !ok {
		return errors.New("no audio driver bound")
	}
	return driver.SetVolume(effective)
}

// Volume returns the configured (unducked) volume.
func (b *Bridge) Volume() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volume
}

// Duck lowers or restores the output volume around announcements.
func (b *Bridge) Duck(on bool) {
	b.mu.Lock()
	b.ducked = on
	driver, ok := b.driver, b.bound
	effective := b.volume
	if on {
		effective = b.volume * b.duckFraction
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	if err := driver.SetVolume(effective); err != nil {
		b.log.Debug("duck volume change failed", zap.Error(err))
	}
}

// PositionMS returns the current playback position, or zero when the
// driver has none.
func (b *Bridge) PositionMS() int64 {
	b.mu.Lock()
	driver, ok := b.driver, b.bound
	b.mu.Unlock()
	if !ok {
		return 0
	}
	pos, _, ok := driver.Position()
	if !ok {
		return 0
	}
	return pos
}

// Position returns position and duration in milliseconds.
func (b *Bridge) Position() (int64, int64, bool) {
	b.mu.Lock()
	driver, ok := b.driver, b.bound
	b.mu.Unlock()
	if !ok {
		return 0, 0, false
	}
	return driver.Position()
}

// OnEnd forwards the end-of-stream callback registration.
func (b *Bridge) OnEnd(fn func()) {
	b.mu.Lock()
	driver, ok := b.driver, b.bound
	b.mu.Unlock()
	if ok {
		driver.OnEnd(fn)
	}
}

func (b *Bridge) setMetadata(md Metadata) {
	b.mu.Lock()
	surface := b.surface
	b.mu.Unlock()
	if surface == nil {
		return
	}
	if err := surface.SetMetadata(md); err != nil && !errors.Is(err, ErrUnsupported) {
		b.log.Debug("media surface metadata update failed", zap.Error(err))
	}
}

func (b *Bridge) setSurfaceState(state string) {
	b.mu.Lock()
	surface := b.surface
	b.mu.Unlock()
	if surface == nil {
		return
	}
	if err := surface.SetPlaybackState(state); err != nil && !errors.Is(err, ErrUnsupported) {
		b.log.Debug("media surface state update failed", zap.Error(err))
	}
}
