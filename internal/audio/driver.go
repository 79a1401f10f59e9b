package audio

import "errors"

// ErrUnsupported indicates a platform capability is missing. Bridge
// callers treat it as a silent degrade, never a failure.
var ErrUnsupported = errors.New("unsupported")

// Pipeline states reported by a Driver.
const (
	PipelineRunning   = "running"
	PipelineSuspended = "suspended"
	PipelineClosed    = "closed"
)

// Driver executes playback actions on the platform audio output.
type Driver interface {
	Play(url string, positionMS int64) error
	Pause() error
	Resume() error
	Stop() error
	Seek(positionMS int64) error
	SetVolume(volume float64) error
	Position() (positionMS int64, durationMS int64, ok bool)
	State() string
	OnEnd(fn func())
}

// Metadata is the now-playing information shown on platform media
// surfaces such as lock screens and system trays.
type Metadata struct {
	Title      string
	Artist     string
	Album      string
	ArtworkURL string
}

// Transport actions a media surface can invoke.
const (
	ActionPlay          = "play"
	ActionPause         = "pause"
	ActionNextTrack     = "nexttrack"
	ActionPreviousTrack = "previoustrack"
	ActionSeekForward   = "seekforward"
	ActionSeekBackward  = "seekbackward"
)

// MediaSurface integrates with the platform now-playing surface.
// Implementations return ErrUnsupported for capabilities the platform
// does not have.
type MediaSurface interface {
	SetMetadata(md Metadata) error
	SetPlaybackState(state string) error
	SetHandler(action string, fn func()) error
}

// KeepAlive holds a platform hint that keeps the device from idling
// the audio pipeline while playback runs in the background.
type KeepAlive interface {
	Acquire() error
	Release() error
}
