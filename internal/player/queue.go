package player

import (
	"math/rand"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/auriga-audio/auriga/pkg/aw"
)

// Queue owns the ordered play queue built from the selected playlist
// subset. The queue never stops at its end: navigation always wraps,
// so continuous playback survives the boundary in both directions.
type Queue struct {
	mu        sync.Mutex
	playlists []aw.Playlist
	selected  []string
	base      []aw.Track
	tracks    []aw.Track
	index     int
	shuffle   bool
	repeat    bool
	rng       *rand.Rand

	onTrackChange func(aw.Track)
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// OnTrackChange registers a callback fired whenever navigation lands
// on a new current track. The callback runs outside the queue lock.
func (q *Queue) OnTrackChange(fn func(aw.Track)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onTrackChange = fn
}

// SetPlaylists replaces the known playlist set and rebuilds the queue
// from the current selection.
func (q *Queue) SetPlaylists(playlists []aw.Playlist) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.playlists = playlists
	q.rebuildLocked()
}

// SelectPlaylists replaces the active playlist subset and rebuilds the
// queue deterministically: concatenation order follows the selection
// order, track order is preserved within each playlist. An empty ids
// slice selects all known playlists.
func (q *Queue) SelectPlaylists(ids []string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.selected = ids
	q.rebuildLocked()
}

// SelectedPlaylists returns the active selection ids.
func (q *Queue) SelectedPlaylists() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]string, len(q.selected))
	copy(out, q.selected)
	return out
}

// Playlists returns the known playlist set.
func (q *Queue) Playlists() []aw.Playlist {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]aw.Playlist, len(q.playlists))
	copy(out, q.playlists)
	return out
}

// Current returns the current track, or false on an empty queue.
func (q *Queue) Current() (aw.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.currentLocked()
}

// AdvanceToNext moves forward by one with wraparound and returns the
// new current track, or false on an empty queue. Wraparound happens
// regardless of repeat; reshuffling the wrapped queue is repeat's only
// effect. With shuffle and repeat both on the queue is reshuffled
// before continuing so a looped shuffle does not go stale; with repeat
// off the shuffled order is deliberately kept stable across the wrap.
func (q *Queue) AdvanceToNext() (aw.Track, bool) {
	q.mu.Lock()
	if len(q.tracks) == 0 {
		q.mu.Unlock()
		return aw.Track{}, false
	}

	q.index++
	if q.index >= len(q.tracks) {
		q.index = 0
		if q.shuffle && q.repeat {
			q.reshuffleLocked()
		}
	}
	track := q.tracks[q.index]
	fn := q.onTrackChange
	q.mu.Unlock()

	if fn != nil {
		fn(track)
	}
	return track, true
}

// GoToPrevious moves backward by one, wrapping from the first track to
// the last. Returns false on an empty queue.
func (q *Queue) GoToPrevious() (aw.Track, bool) {
	q.mu.Lock()
	if len(q.tracks) == 0 {
		q.mu.Unlock()
		return aw.Track{}, false
	}

	q.index--
	if q.index < 0 {
		q.index = len(q.tracks) - 1
	}
	track := q.tracks[q.index]
	fn := q.onTrackChange
	q.mu.Unlock()

	if fn != nil {
		fn(track)
	}
	return track, true
}

// SkipTo jumps to an absolute queue position. An out-of-range position
// is a no-op: the queue is left untouched, no track change fires, and
// false is returned so callers can tell a rejected seek from a jump.
func (q *Queue) SkipTo(index int) (aw.Track, bool) {
	q.mu.Lock()
	if index < 0 || index >= len(q.tracks) {
		q.mu.Unlock()
		return aw.Track{}, false
	}
	q.index = index
	track := q.tracks[q.index]
	fn := q.onTrackChange
	q.mu.Unlock()

	if fn != nil {
		fn(track)
	}
	return track, true
}

// ToggleShuffle flips shuffle and returns the new value. Toggling on
// reshuffles immediately with the current track moved to the front;
// toggling off restores the original order and re-locates the current
// track in it.
func (q *Queue) ToggleShuffle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.shuffle = !q.shuffle
	cur, hadCur := q.currentLocked()
	if q.shuffle {
		q.reshuffleLocked()
		if hadCur {
			if at := lo.IndexOf(q.tracks, cur); at > 0 {
				q.tracks[0], q.tracks[at] = q.tracks[at], q.tracks[0]
			}
			q.index = 0
		}
	} else {
		q.tracks = append([]aw.Track(nil), q.base...)
		q.index = 0
		if hadCur {
			if at := lo.IndexOf(q.tracks, cur); at >= 0 {
				q.index = at
			}
		}
	}
	return q.shuffle
}

// ToggleRepeat flips repeat and returns the new value. Repeat does not
// gate wraparound; it only decides whether a shuffled queue is
// reshuffled when it wraps.
func (q *Queue) ToggleRepeat() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.repeat = !q.repeat
	return q.repeat
}

// SetShuffle forces shuffle to a value, rebuilding like ToggleShuffle.
func (q *Queue) SetShuffle(on bool) {
	q.mu.Lock()
	same := q.shuffle == on
	q.mu.Unlock()
	if !same {
		q.ToggleShuffle()
	}
}

// SetRepeat forces repeat to a value.
func (q *Queue) SetRepeat(on bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.repeat = on
}

// IsShuffle reports the shuffle flag.
func (q *Queue) IsShuffle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shuffle
}

// IsRepeat reports the repeat flag.
func (q *Queue) IsRepeat() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.repeat
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}

// Index returns the current queue position.
func (q *Queue) Index() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.index
}

// Tracks returns a copy of the queue in play order.
func (q *Queue) Tracks() []aw.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]aw.Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

func (q *Queue) currentLocked() (aw.Track, bool) {
	if len(q.tracks) == 0 || q.index < 0 || q.index >= len(q.tracks) {
		return aw.Track{}, false
	}
	return q.tracks[q.index], true
}

func (q *Queue) rebuildLocked() {
	chosen := q.playlists
	if len(q.selected) > 0 {
		byID := lo.KeyBy(q.playlists, func(p aw.Playlist) string { return p.ID })
		chosen = chosen[:0:0]
		for _, id := range q.selected {
			if p, ok := byID[id]; ok {
				chosen = append(chosen, p)
			}
		}
	}

	q.base = lo.FlatMap(chosen, func(p aw.Playlist, _ int) []aw.Track {
		tracks := make([]aw.Track, len(p.Tracks))
		copy(tracks, p.Tracks)
		for i := range tracks {
			tracks[i].PlaylistID = p.ID
			tracks[i].PlaylistName = p.Name
		}
		return tracks
	})

	q.tracks = append([]aw.Track(nil), q.base...)
	q.index = 0
	if q.shuffle {
		q.reshuffleLocked()
	}
}

// reshuffleLocked applies a Fisher-Yates shuffle over the whole queue.
func (q *Queue) reshuffleLocked() {
	for i := len(q.tracks) - 1; i > 0; i-- {
		j := q.rng.Intn(i + 1)
		q.tracks[i], q.tracks[j] = q.tracks[j], q.tracks[i]
	}
}
