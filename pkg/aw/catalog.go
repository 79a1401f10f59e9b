package aw

// Track is a playable music item as served by the catalog.
type Track struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Artist       string `json:"artist,omitempty"`
	StreamURL    string `json:"streamUrl"`
	Duration     int64  `json:"duration"`
	PlaylistID   string `json:"playlistId,omitempty"`
	PlaylistName string `json:"playlistName,omitempty"`
}

// Playlist is an ordered set of tracks.
type Playlist struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}

// Announcement is a spoken or jingle item played over music.
type Announcement struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StreamURL string `json:"streamUrl"`
	Duration  int64  `json:"duration"`
}

// ScheduledAnnouncement is an announcement with a trigger time.
type ScheduledAnnouncement struct {
	ID             string `json:"id"`
	AnnouncementID string `json:"announcementId"`
	Title          string `json:"title"`
	StreamURL      string `json:"streamUrl"`
	TriggerAt      int64  `json:"triggerAt"`
	Duration       int64  `json:"duration"`
}

// Zone identifies a playback zone known to the catalog.
type Zone struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
