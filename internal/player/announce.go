package player

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/auriga-audio/auriga/internal/ports"
	"github.com/auriga-audio/auriga/pkg/aw"
)

// ErrAnnouncementActive is returned when a dispatch arrives while an
// announcement is already playing.
var ErrAnnouncementActive = errors.New("announcement already playing")

// Output is the shared audio surface announcements and music compete
// for. Only the dispatcher coordinates preemption on it.
type Output interface {
	PlayTrack(track aw.Track, positionMS int64) error
	PlayStream(title, url string) error
	PositionMS() int64
	Duck(on bool)
}

// InterruptedPlayback captures the music playback an announcement
// preempted so it can resume afterwards.
type InterruptedPlayback struct {
	Track      aw.Track
	PositionMS int64
}

// Dispatcher owns announcement preemption over music playback. A
// single guard flag keeps dispatch at most-once: while an announcement
// is active every further dispatch is refused, and the guard plus the
// interruption snapshot are cleared on completion and on every error
// path, with a music resume attempted either way.
type Dispatcher struct {
	mu          sync.Mutex
	log         *zap.Logger
	queue       *Queue
	schedule    *Schedule
	out         Output
	notifier    ports.Notifier
	active      bool
	current     aw.Announcement
	interrupted *InterruptedPlayback

	onStart func(aw.Announcement)
	onEnd   func()
}

// NewDispatcher wires a dispatcher over the queue, schedule and shared
// output.
func NewDispatcher(log *zap.Logger, queue *Queue, schedule *Schedule, out Output, notifier ports.Notifier) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{log: log, queue: queue, schedule: schedule, out: out, notifier: notifier}
}

// OnStart registers a hook fired after an announcement starts.
func (d *Dispatcher) OnStart(fn func(aw.Announcement)) { d.onStart = fn }

// OnEnd registers a hook fired after an announcement finishes and
// music resume was attempted.
func (d *Dispatcher) OnEnd(fn func()) { d.onEnd = fn }

// Active reports whether an announcement is currently playing.
func (d *Dispatcher) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Current returns the active announcement, if one is playing.
func (d *Dispatcher) Current() (aw.Announcement, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current, d.active
}

// Interrupted returns the current interruption snapshot, if any.
func (d *Dispatcher) Interrupted() *InterruptedPlayback {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.interrupted == nil {
		return nil
	}
	snap := *d.interrupted
	return &snap
}

// CheckScheduled runs one scheduler pass: if no announcement is active
// and an entry is due, it dispatches that single entry. Entries stay
// queued while an announcement is playing, so nothing due is lost.
// Reports whether a dispatch happened.
func (d *Dispatcher) CheckScheduled(nowUnix int64) bool {
	if d.Active() {
		return false
	}
	entry, ok := d.schedule.PopDue(nowUnix)
	if !ok {
		return false
	}

	err := d.Dispatch(aw.Announcement{
		ID:        entry.AnnouncementID,
		Title:     entry.Title,
		StreamURL: entry.StreamURL,
		Duration:  entry.Duration,
	})
	return err == nil
}

// Dispatch interrupts music with an announcement. It captures the
// interrupted playback first so a failure at any later step can still
// restore it. A dispatch while another announcement plays is a no-op
// error.
func (d *Dispatcher) Dispatch(a aw.Announcement) error {
	d.mu.Lock()
	if d.active {
		d.mu.Unlock()
		return ErrAnnouncementActive
	}
	d.active = true
	d.current = a
	if track, ok := d.queue.Current(); ok {
		d.interrupted = &InterruptedPlayback{Track: track, PositionMS: d.out.PositionMS()}
	}
	d.mu.Unlock()

	d.out.Duck(true)
	if err := d.out.PlayStream(a.Title, a.StreamURL); err != nil {
		d.log.Warn("announcement start failed", zap.String("announcement", a.ID), zap.Error(err))
		d.Finish(err)
		return err
	}

	d.log.Info("announcement started", zap.String("announcement", a.ID), zap.String("title", a.Title))
	if d.onStart != nil {
		d.onStart(a)
	}
	return nil
}

// Finish completes the active announcement. The guard and snapshot are
// cleared unconditionally and music resume is attempted even when the
// announcement itself failed.
func (d *Dispatcher) Finish(cause error) {
	d.mu.Lock()
	if !d.active {
		d.mu.Unlock()
		return
	}
	d.active = false
	d.current = aw.Announcement{}
	snap := d.interrupted
	d.interrupted = nil
	d.mu.Unlock()

	d.out.Duck(false)
	if cause != nil && d.notifier != nil {
		d.notifier.Notify(ports.LevelWarn, "announcement playback failed: "+cause.Error())
	}
	if snap != nil {
		if err := d.out.PlayTrack(snap.Track, snap.PositionMS); err != nil {
			d.log.Warn("music resume failed", zap.String("track", snap.Track.ID), zap.Error(err))
			if d.notifier != nil {
				d.notifier.Notify(ports.LevelWarn, "could not resume music after announcement")
			}
		}
	}
	if d.onEnd != nil {
		d.onEnd()
	}
}
