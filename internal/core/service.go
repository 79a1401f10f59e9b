package core

import (
	"context"
	"errors"

	"github.com/auriga-audio/auriga/internal/ports"
	"github.com/auriga-audio/auriga/internal/zone"
	"github.com/auriga-audio/auriga/pkg/aw"
)

// Service exposes controller operations to the CLI. One-shot commands
// resolve their zone selector, point the orchestrator at it and fire;
// the watch command drives the orchestrator directly.
type Service struct {
	Orch     *zone.Orchestrator
	Broker   ports.Broker
	Catalog  ports.Catalog
	Resolver Resolver
	Config   Config
}

// Zones lists zones currently announcing presence.
func (s Service) Zones(ctx context.Context) (ZonesResult, error) {
	presence, err := s.Broker.ListPresence(ctx)
	if err != nil {
		return ZonesResult{}, WrapError(ExitRuntime, "list zones", err)
	}
	return ZonesResult{Zones: presence}, nil
}

// Status fetches one zone's retained state.
func (s Service) Status(ctx context.Context, selector string) (StatusResult, error) {
	zoneID, err := s.Resolver.ResolveZone(ctx, selector)
	if err != nil {
		return StatusResult{}, err
	}
	if zoneID == zone.AllZones {
		return StatusResult{}, &CLIError{Code: ExitUsage, Msg: "status needs a single zone"}
	}

	presence, err := s.Broker.ListPresence(ctx)
	if err != nil {
		return StatusResult{}, WrapError(ExitRuntime, "list zones", err)
	}
	var match aw.Presence
	for _, p := range presence {
		if p.ZoneID == zoneID {
			match = p
			break
		}
	}
	if match.ZoneID == "" {
		return StatusResult{}, &CLIError{Code: ExitNotFound, Msg: "zone not found: " + zoneID}
	}

	state, err := s.Broker.GetZoneState(ctx, zoneID)
	if err != nil {
		return StatusResult{}, WrapError(ExitRuntime, "get zone state", err)
	}
	return StatusResult{Zone: match, State: state}, nil
}

// Playlists lists catalog playlists alongside the current selection.
func (s Service) Playlists(ctx context.Context) (PlaylistsResult, error) {
	if err := s.Orch.RefreshCatalog(ctx); err != nil {
		return PlaylistsResult{}, WrapError(ExitRuntime, "refresh catalog", err)
	}
	snap := s.Orch.Snapshot()
	return PlaylistsResult{
		Playlists: snap.AvailablePlaylists,
		Selected:  snap.SelectedPlaylists,
	}, nil
}

// Announcements lists catalog announcements.
func (s Service) Announcements(ctx context.Context) (AnnouncementsResult, error) {
	anns, err := s.Catalog.ListAnnouncements(ctx)
	if err != nil {
		return AnnouncementsResult{}, WrapError(ExitRuntime, "list announcements", err)
	}
	return AnnouncementsResult{Announcements: anns}, nil
}

// Schedules lists scheduled announcements.
func (s Service) Schedules(ctx context.Context) (SchedulesResult, error) {
	schedules, err := s.Catalog.ListSchedules(ctx)
	if err != nil {
		return SchedulesResult{}, WrapError(ExitRuntime, "list schedules", err)
	}
	return SchedulesResult{Schedules: schedules}, nil
}

// Start selects playlists and starts output on the target zones.
func (s Service) Start(ctx context.Context, selector string, playlistIDs []string) error {
	return s.withTarget(ctx, selector, func(ctx context.Context) error {
		if err := s.Orch.RefreshCatalog(ctx); err != nil {
			return err
		}
		if len(playlistIDs) > 0 {
			s.Orch.SelectPlaylists(playlistIDs)
		}
		return s.Orch.StartOutput(ctx)
	})
}

// Stop pauses output on the target zones.
func (s Service) Stop(ctx context.Context, selector string) error {
	return s.withTarget(ctx, selector, s.Orch.StopOutput)
}

// Toggle flips between playing and paused.
func (s Service) Toggle(ctx context.Context, selector string) error {
	return s.withTarget(ctx, selector, s.Orch.PlayPause)
}

// Next skips to the next track.
func (s Service) Next(ctx context.Context, selector string) error {
	return s.withTarget(ctx, selector, s.Orch.SkipNext)
}

// Previous skips to the previous track.
func (s Service) Previous(ctx context.Context, selector string) error {
	return s.withTarget(ctx, selector, s.Orch.SkipPrevious)
}

// Volume sets playback volume on the target zones.
func (s Service) Volume(ctx context.Context, selector string, volume float64) error {
	return s.withTarget(ctx, selector, func(ctx context.Context) error {
		return s.Orch.SetVolume(ctx, volume)
	})
}

// Shuffle toggles shuffle mode on the target zones.
func (s Service) Shuffle(ctx context.Context, selector string) error {
	return s.withTarget(ctx, selector, s.Orch.ToggleShuffle)
}

// Repeat toggles repeat mode on the target zones.
func (s Service) Repeat(ctx context.Context, selector string) error {
	return s.withTarget(ctx, selector, s.Orch.ToggleRepeat)
}

// Announce plays an instant announcement on the given zones. With no
// selectors the announcement goes to every zone.
func (s Service) Announce(ctx context.Context, announcementID string, selectors []string) error {
	zoneIDs := make([]string, 0, len(selectors))
	for _, sel := range selectors {
		zoneID, err := s.Resolver.ResolveZone(ctx, sel)
		if err != nil {
			return err
		}
		if zoneID == zone.AllZones {
			zoneIDs = nil
			break
		}
		zoneIDs = append(zoneIDs, zoneID)
	}
	return toCLI(s.Orch.PlayInstantAnnouncement(ctx, announcementID, zoneIDs))
}

func (s Service) withTarget(ctx context.Context, selector string, fn func(context.Context) error) error {
	zoneID, err := s.Resolver.ResolveZone(ctx, selector)
	if err != nil {
		return err
	}
	if err := s.Orch.SetTarget(ctx, zoneID); err != nil {
		return WrapError(ExitRuntime, "set target", err)
	}
	return toCLI(fn(ctx))
}

func toCLI(err error) error {
	if err == nil {
		return nil
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}
	var replyErr *aw.ReplyError
	if errors.As(err, &replyErr) {
		return ErrorForReplyCode(replyErr.Code, replyErr.Message)
	}
	if errors.Is(err, zone.ErrNoPlaylistsSelected) {
		return &CLIError{Code: ExitUsage, Msg: err.Error()}
	}
	return WrapError(ExitRuntime, "command failed", err)
}
