package zone

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/auriga-audio/auriga/internal/audio"
	"github.com/auriga-audio/auriga/internal/player"
	"github.com/auriga-audio/auriga/internal/ports"
	"github.com/auriga-audio/auriga/pkg/aw"
)

// AllZones targets every zone known to the catalog. The set is
// resolved when a command is sent, not when the target is chosen.
const AllZones = "all"

// ErrNoPlaylistsSelected rejects starting output with nothing
// selected. The orchestrator surfaces it as a user-visible
// notification and leaves all state untouched.
var ErrNoPlaylistsSelected = errors.New("select at least one playlist before starting output")

// Status is the view of a single zone.
type Status struct {
	ID         string
	Name       string
	State      string
	NowPlaying *aw.NowPlaying
	Volume     float64
}

// Snapshot is the composed view handed to presentation layers.
type Snapshot struct {
	Target             string
	Zones              []Status
	IsShuffleOn        bool
	IsRepeatOn         bool
	SelectedPlaylists  []string
	AvailablePlaylists []aw.Playlist
	Background         audio.Status
}

type zoneEntry struct {
	mu     sync.Mutex
	status Status
}

// Orchestrator coordinates playback across zones. It keeps a local
// view per zone that commands may update optimistically, but any
// pushed zone state overwrites the local view wholesale; volume is
// the one value applied locally before the server confirms. Zone
// operations serialize on a per-zone lock.
type Orchestrator struct {
	log      *zap.Logger
	broker   ports.Broker
	catalog  ports.Catalog
	clock    ports.Clock
	idgen    ports.IDGen
	notifier ports.Notifier
	identity string
	queue    *player.Queue
	bridge   *audio.Bridge

	mu          sync.Mutex
	target      string
	zones       map[string]*zoneEntry
	watchCancel context.CancelFunc
	watchID     string
	onChange    func(Status)
}

// Options carries orchestrator dependencies.
type Options struct {
	Log      *zap.Logger
	Broker   ports.Broker
	Catalog  ports.Catalog
	Clock    ports.Clock
	IDGen    ports.IDGen
	Notifier ports.Notifier
	Identity string
	Queue    *player.Queue
	Bridge   *audio.Bridge
}

// New builds an orchestrator targeting all zones.
func New(opts Options) *Orchestrator {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	queue := opts.Queue
	if queue == nil {
		queue = player.NewQueue()
	}
	return &Orchestrator{
		log:      log,
		broker:   opts.Broker,
		catalog:  opts.Catalog,
		clock:    opts.Clock,
		idgen:    opts.IDGen,
		notifier: opts.Notifier,
		identity: opts.Identity,
		queue:    queue,
		bridge:   opts.Bridge,
		target:   AllZones,
		zones:    map[string]*zoneEntry{},
	}
}

// OnChange registers a callback fired after any zone view update.
func (o *Orchestrator) OnChange(fn func(Status)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onChange = fn
}

// Queue exposes the local queue mirror for selection and flags.
func (o *Orchestrator) Queue() *player.Queue { return o.queue }

// RefreshCatalog reloads playlists into the queue mirror.
func (o *Orchestrator) RefreshCatalog(ctx context.Context) error {
	playlists, err := o.catalog.ListPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("list playlists: %w", err)
	}
	o.queue.SetPlaylists(playlists)
	return nil
}

// SetTarget switches the active zone target. Switching always cancels
// the previous push subscription before the new one starts, so a
// stale watch can never write into the new view.
func (o *Orchestrator) SetTarget(ctx context.Context, target string) error {
	if target == "" {
		target = AllZones
	}

	o.mu.Lock()
	if o.watchCancel != nil {
		o.watchCancel()
		o.watchCancel = nil
		o.watchID = ""
	}
	o.target = target
	var watchCtx context.Context
	watchCtx, o.watchCancel = context.WithCancel(ctx)
	o.watchID = target
	o.mu.Unlock()

	if target == AllZones {
		pushes, conns, errs := o.broker.WatchAllZones(watchCtx)
		go o.watchAllLoop(watchCtx, pushes, conns, errs)
		return nil
	}

	if state, err := o.broker.GetZoneState(ctx, target); err == nil {
		o.applyPush(target, state)
	} else {
		o.markOffline(target)
	}

	states, conns, errs := o.broker.WatchZone(watchCtx, target)
	go o.watchLoop(watchCtx, target, states, conns, errs)
	return nil
}

// Target returns the active zone target.
func (o *Orchestrator) Target() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.target
}

func (o *Orchestrator) watchLoop(ctx context.Context, zoneID string, states <-chan aw.ZoneState, conns <-chan ports.ConnEvent, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			o.applyPush(zoneID, state)
		case conn, ok := <-conns:
			if !ok {
				return
			}
			switch conn.Kind {
			case ports.ConnDisconnected, ports.ConnError:
				o.markOffline(zoneID)
			case ports.ConnConnected:
				if state, err := o.broker.GetZoneState(ctx, zoneID); err == nil {
					o.applyPush(zoneID, state)
				}
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			o.log.Warn("zone watch error", zap.String("zone", zoneID), zap.Error(err))
		}
	}
}

// watchAllLoop consumes the global push subscription backing the
// all-zones target. Every pushed state lands in the view keyed by its
// zone, so zones appear as they publish without any outgoing command.
func (o *Orchestrator) watchAllLoop(ctx context.Context, pushes <-chan ports.ZonePush, conns <-chan ports.ConnEvent, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case push, ok := <-pushes:
			if !ok {
				return
			}
			o.applyPush(push.ZoneID, push.State)
		case conn, ok := <-conns:
			if !ok {
				return
			}
			if conn.Kind == ports.ConnDisconnected || conn.Kind == ports.ConnError {
				o.markAllOffline()
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			o.log.Warn("zone watch error", zap.Error(err))
		}
	}
}

func (o *Orchestrator) markAllOffline() {
	o.mu.Lock()
	ids := make([]string, 0, len(o.zones))
	for id := range o.zones {
		ids = append(ids, id)
	}
	o.mu.Unlock()

	for _, id := range ids {
		o.markOffline(id)
	}
}

// applyPush overwrites the local zone view with pushed state.
func (o *Orchestrator) applyPush(zoneID string, state aw.ZoneState) {
	entry := o.entry(zoneID)

	entry.mu.Lock()
	entry.status.State = zoneLifecycle(state)
	entry.status.NowPlaying = state.NowPlaying
	entry.status.Volume = state.Volume
	status := entry.status
	entry.mu.Unlock()

	o.notifyChange(status)
}

func (o *Orchestrator) markOffline(zoneID string) {
	entry := o.entry(zoneID)

	entry.mu.Lock()
	entry.status.State = aw.ZoneOffline
	status := entry.status
	entry.mu.Unlock()

	o.notifyChange(status)
}

func (o *Orchestrator) notifyChange(status Status) {
	o.mu.Lock()
	fn := o.onChange
	o.mu.Unlock()
	if fn != nil {
		fn(status)
	}
}

func (o *Orchestrator) entry(zoneID string) *zoneEntry {
	o.mu.Lock()
	defer o.mu.Unlock()

	entry, ok := o.zones[zoneID]
	if !ok {
		entry = &zoneEntry{status: Status{ID: zoneID, State: aw.ZoneOffline, Volume: 1.0}}
		o.zones[zoneID] = entry
	}
	return entry
}

// Zone returns the current view of one zone.
func (o *Orchestrator) Zone(zoneID string) Status {
	entry := o.entry(zoneID)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.status
}

// SelectPlaylists replaces the playlist selection on the queue mirror.
func (o *Orchestrator) SelectPlaylists(ids []string) {
	o.queue.SelectPlaylists(ids)
}

// StartOutput begins playback on the resolved targets. At least one
// playlist must be selected; an empty selection is rejected before
// any command is sent or local state changes.
func (o *Orchestrator) StartOutput(ctx context.Context) error {
	selected := o.queue.SelectedPlaylists()
	if len(selected) == 0 {
		if o.notifier != nil {
			o.notifier.Notify(ports.LevelWarn, ErrNoPlaylistsSelected.Error())
		}
		return ErrNoPlaylistsSelected
	}
	return o.sendToTargets(ctx, "playback.play", aw.PlaybackPlayBody{
		PlaylistIDs: selected,
		Shuffle:     o.queue.IsShuffle(),
	})
}

// StopOutput pauses playback on the resolved targets.
func (o *Orchestrator) StopOutput(ctx context.Context) error {
	return o.sendToTargets(ctx, "playback.pause", struct{}{})
}

// PlayPause toggles playback based on the local view of the target
// zone; the next push corrects any wrong guess.
func (o *Orchestrator) PlayPause(ctx context.Context) error {
	target := o.Target()
	if target != AllZones && o.Zone(target).State == aw.ZoneLive {
		return o.sendToTargets(ctx, "playback.pause", struct{}{})
	}
	return o.sendToTargets(ctx, "playback.resume", struct{}{})
}

// SkipNext advances the resolved targets to their next track.
func (o *Orchestrator) SkipNext(ctx context.Context) error {
	return o.sendToTargets(ctx, "playback.next", struct{}{})
}

// SkipPrevious moves the resolved targets to their previous track.
func (o *Orchestrator) SkipPrevious(ctx context.Context) error {
	return o.sendToTargets(ctx, "playback.previous", struct{}{})
}

// SetVolume applies the volume to the local view immediately, then
// sends the command. Volume is deliberately optimistic: a slider that
// waits for the server round trip feels broken.
func (o *Orchestrator) SetVolume(ctx context.Context, volume float64) error {
	if volume < 0 || volume > 1 {
		err := fmt.Errorf("volume %v out of range", volume)
		if o.notifier != nil {
			o.notifier.Notify(ports.LevelWarn, err.Error())
		}
		return err
	}

	targets, err := o.resolveTargets(ctx)
	if err != nil {
		if o.notifier != nil {
			o.notifier.Notify(ports.LevelWarn, err.Error())
		}
		return err
	}
	for _, zoneID := range targets {
		entry := o.entry(zoneID)
		entry.mu.Lock()
		entry.status.Volume = volume
		status := entry.status
		entry.mu.Unlock()
		o.notifyChange(status)
	}
	return o.sendTo(ctx, targets, "playback.setVolume", aw.PlaybackSetVolumeBody{Volume: volume})
}

// ToggleShuffle flips shuffle locally and propagates it.
func (o *Orchestrator) ToggleShuffle(ctx context.Context) error {
	on := o.queue.ToggleShuffle()
	return o.sendToTargets(ctx, "playback.setShuffle", aw.PlaybackSetShuffleBody{Shuffle: on})
}

// ToggleRepeat flips repeat locally and propagates it.
func (o *Orchestrator) ToggleRepeat(ctx context.Context) error {
	on := o.queue.ToggleRepeat()
	return o.sendToTargets(ctx, "playback.setRepeat", aw.PlaybackSetRepeatBody{Repeat: on})
}

// PlayInstantAnnouncement fires a one-shot announcement at the given
// zones, or at every zone when none are named. The announcement never
// touches any schedule.
func (o *Orchestrator) PlayInstantAnnouncement(ctx context.Context, announcementID string, zoneIDs []string) error {
	if announcementID == "" {
		return errors.New("announcement id required")
	}

	targets := zoneIDs
	if len(targets) == 0 {
		var err error
		if targets, err = o.allZoneIDs(ctx); err != nil {
			return err
		}
	}
	return o.sendTo(ctx, targets, "announce.play", aw.AnnouncePlayBody{AnnouncementID: announcementID})
}

// Snapshot composes the full orchestrator view.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	target := o.target
	ids := make([]string, 0, len(o.zones))
	for id := range o.zones {
		ids = append(ids, id)
	}
	o.mu.Unlock()

	snap := Snapshot{
		Target:             target,
		IsShuffleOn:        o.queue.IsShuffle(),
		IsRepeatOn:         o.queue.IsRepeat(),
		SelectedPlaylists:  o.queue.SelectedPlaylists(),
		AvailablePlaylists: o.queue.Playlists(),
	}
	if o.bridge != nil {
		snap.Background = o.bridge.Status()
	}
	for _, id := range ids {
		snap.Zones = append(snap.Zones, o.Zone(id))
	}
	return snap
}

func (o *Orchestrator) resolveTargets(ctx context.Context) ([]string, error) {
	target := o.Target()
	if target != AllZones {
		return []string{target}, nil
	}
	return o.allZoneIDs(ctx)
}

func (o *Orchestrator) allZoneIDs(ctx context.Context) ([]string, error) {
	zones, err := o.catalog.ListZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	if len(zones) == 0 {
		return nil, errors.New("no zones available")
	}
	ids := make([]string, 0, len(zones))
	for _, z := range zones {
		ids = append(ids, z.ID)
		entry := o.entry(z.ID)
		entry.mu.Lock()
		entry.status.Name = z.Name
		entry.mu.Unlock()
	}
	return ids, nil
}

func (o *Orchestrator) sendToTargets(ctx context.Context, cmdType string, body any) error {
	targets, err := o.resolveTargets(ctx)
	if err != nil {
		if o.notifier != nil {
			o.notifier.Notify(ports.LevelError, err.Error())
		}
		return err
	}
	return o.sendTo(ctx, targets, cmdType, body)
}

// sendTo fans a command out to every target concurrently. Failures
// become notifications; local state is never rolled forward on them.
func (o *Orchestrator) sendTo(ctx context.Context, targets []string, cmdType string, body any) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(targets))

	for _, zoneID := range targets {
		wg.Add(1)
		go func(zoneID string) {
			defer wg.Done()
			if err := o.sendCommand(ctx, zoneID, cmdType, body); err != nil {
				errCh <- fmt.Errorf("zone %s: %w", zoneID, err)
			}
		}(zoneID)
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		o.log.Warn("command failed", zap.String("type", cmdType), zap.Error(err))
		if o.notifier != nil {
			o.notifier.Notify(ports.LevelError, err.Error())
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) sendCommand(ctx context.Context, zoneID string, cmdType string, body any) error {
	entry := o.entry(zoneID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	cmd, err := aw.NewCommand(cmdType, body)
	if err != nil {
		return err
	}
	cmd.ID = o.idgen.NewID()
	cmd.TS = o.clock.NowUnix()
	cmd.From = o.identity
	cmd.ReplyTo = o.broker.ReplyTopic()

	reply, err := o.broker.PublishCommand(ctx, zoneID, cmd)
	if err != nil {
		return err
	}
	if !reply.OK {
		if reply.Err != nil {
			return reply.Err
		}
		return errors.New("command rejected")
	}
	return nil
}

func zoneLifecycle(state aw.ZoneState) string {
	switch state.State {
	case aw.ZoneLive, aw.ZoneStandby, aw.ZoneOffline:
		return state.State
	}
	if state.NowPlaying != nil && state.NowPlaying.IsPlaying {
		return aw.ZoneLive
	}
	return aw.ZoneStandby
}
