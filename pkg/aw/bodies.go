package aw

// PlaybackPlayBody is the payload for playback.play. PlaylistIDs must
// name at least one playlist; zones reject a play with an empty set.
type PlaybackPlayBody struct {
	PlaylistIDs []string `json:"playlistIds"`
	Shuffle     bool     `json:"shuffle"`
}

// PlaybackSetVolumeBody is the payload for playback.setVolume.
type PlaybackSetVolumeBody struct {
	Volume float64 `json:"volume"`
}

// PlaybackSetShuffleBody is the payload for playback.setShuffle.
type PlaybackSetShuffleBody struct {
	Shuffle bool `json:"shuffle"`
}

// PlaybackSetRepeatBody is the payload for playback.setRepeat.
type PlaybackSetRepeatBody struct {
	Repeat bool `json:"repeat"`
}

// AnnouncePlayBody is the payload for announce.play. It triggers a
// one-shot announcement on the receiving zone.
type AnnouncePlayBody struct {
	AnnouncementID string `json:"announcementId"`
}

// StateGetReply is the reply body for state.get.
type StateGetReply struct {
	State ZoneState `json:"state"`
}

// Reply error codes used on the wire.
const (
	ErrCodeInvalid  = "INVALID"
	ErrCodeNotFound = "NOT_FOUND"
	ErrCodeConflict = "CONFLICT"
	ErrCodeInternal = "INTERNAL"
)
