package ports

import (
	"context"

	"github.com/auriga-audio/auriga/pkg/aw"
)

// Connection lifecycle event kinds reported by a Broker watch.
const (
	ConnConnected    = "connected"
	ConnDisconnected = "disconnected"
	ConnError        = "error"
)

// ConnEvent reports a change in the broker connection underlying a
// zone watch.
type ConnEvent struct {
	Kind string
	Err  string
}

// ZonePush is one pushed state tagged with the zone it belongs to,
// delivered by a global watch.
type ZonePush struct {
	ZoneID string
	State  aw.ZoneState
}

// Broker publishes commands and reads retained state/presence.
type Broker interface {
	ReplyTopic() string
	PublishCommand(ctx context.Context, zoneID string, cmd aw.CommandEnvelope) (aw.ReplyEnvelope, error)
	ListPresence(ctx context.Context) ([]aw.Presence, error)
	GetZoneState(ctx context.Context, zoneID string) (aw.ZoneState, error)
	WatchZone(ctx context.Context, zoneID string) (<-chan aw.ZoneState, <-chan ConnEvent, <-chan error)
	WatchAllZones(ctx context.Context) (<-chan ZonePush, <-chan ConnEvent, <-chan error)
}

// Catalog serves playlists, announcements, schedules and zones from
// the management backend.
type Catalog interface {
	ListPlaylists(ctx context.Context) ([]aw.Playlist, error)
	ListAnnouncements(ctx context.Context) ([]aw.Announcement, error)
	ListSchedules(ctx context.Context) ([]aw.ScheduledAnnouncement, error)
	ListZones(ctx context.Context) ([]aw.Zone, error)
}

// Clock returns the current unix time in seconds.
type Clock interface {
	NowUnix() int64
}

// IDGen returns unique correlation IDs.
type IDGen interface {
	NewID() string
}

// Notifier surfaces user-visible messages. Implementations must not
// panic; a failed delivery is logged and dropped.
type Notifier interface {
	Notify(level string, message string)
}

// Notification levels.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)
