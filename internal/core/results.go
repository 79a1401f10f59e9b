package core

import (
	"github.com/auriga-audio/auriga/internal/zone"
	"github.com/auriga-audio/auriga/pkg/aw"
)

// ZonesResult holds discovered zone presence records.
type ZonesResult struct {
	Zones []aw.Presence
}

// StatusResult holds one zone's presence and retained state.
type StatusResult struct {
	Zone  aw.Presence
	State aw.ZoneState
}

// SnapshotResult holds the controller's aggregate view.
type SnapshotResult struct {
	Snapshot zone.Snapshot
}

// PlaylistsResult holds catalog playlists, with the selected set.
type PlaylistsResult struct {
	Playlists []aw.Playlist
	Selected  []string
}

// AnnouncementsResult holds catalog announcements.
type AnnouncementsResult struct {
	Announcements []aw.Announcement
}

// SchedulesResult holds scheduled announcements.
type SchedulesResult struct {
	Schedules []aw.ScheduledAnnouncement
}

// RawResult holds arbitrary JSON data for output.
type RawResult struct {
	Data any
}
