//go:build !((linux && cgo) || windows || darwin)

package beepdriver

import (
	"go.uber.org/zap"

	"github.com/auriga-audio/auriga/internal/audio"
)

// Available indicates whether audio output is supported in this build.
const Available = false

// Driver is a no-op output for builds without speaker support. Control
// surfaces still work; nothing is rendered.
type Driver struct{}

// New creates a no-op driver.
func New(log *zap.Logger) *Driver { return &Driver{} }

func (d *Driver) Play(url string, positionMS int64) error { return nil }
func (d *Driver) Pause() error                            { return nil }
func (d *Driver) Resume() error                           { return nil }
func (d *Driver) Stop() error                             { return nil }
func (d *Driver) Seek(positionMS int64) error             { return nil }
func (d *Driver) SetVolume(volume float64) error          { return nil }
func (d *Driver) Position() (int64, int64, bool)          { return 0, 0, false }
func (d *Driver) State() string                           { return audio.PipelineRunning }
func (d *Driver) Suspend() error                          { return nil }
func (d *Driver) OnEnd(fn func())                         {}
