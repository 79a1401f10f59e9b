package player

import (
	"sort"
	"sync"

	"github.com/auriga-audio/auriga/pkg/aw"
)

// Schedule holds pending scheduled announcements ordered by trigger
// time. Entries are consumed exactly once.
type Schedule struct {
	mu      sync.Mutex
	entries []aw.ScheduledAnnouncement
}

// Replace swaps the pending set atomically.
func (s *Schedule) Replace(entries []aw.ScheduledAnnouncement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append([]aw.ScheduledAnnouncement(nil), entries...)
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].TriggerAt < s.entries[j].TriggerAt
	})
}

// Add inserts a single entry keeping trigger order.
func (s *Schedule) Add(entry aw.ScheduledAnnouncement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].TriggerAt > entry.TriggerAt
	})
	s.entries = append(s.entries, aw.ScheduledAnnouncement{})
	copy(s.entries[at+1:], s.entries[at:])
	s.entries[at] = entry
}

// PopDue removes and returns the earliest entry whose trigger time has
// passed. It returns at most one entry per call so overlapping
// announcements cannot be dispatched in the same tick.
func (s *Schedule) PopDue(nowUnix int64) (aw.ScheduledAnnouncement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 || s.entries[0].TriggerAt > nowUnix {
		return aw.ScheduledAnnouncement{}, false
	}
	entry := s.entries[0]
	s.entries = s.entries[1:]
	return entry, true
}

// Len returns the number of pending entries.
func (s *Schedule) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
