package zoneplayer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/auriga-audio/auriga/internal/audio"
	"github.com/auriga-audio/auriga/internal/player"
	"github.com/auriga-audio/auriga/internal/ports"
	"github.com/auriga-audio/auriga/pkg/aw"
)

type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, handler paho.MessageHandler) error
	Unsubscribe(topic string) error
}

// Config configures the zone player module.
type Config struct {
	ZoneID          string
	TopicBase       string
	Name            string
	Volume          float64
	PublishState    bool
	RefreshInterval time.Duration
}

// Module runs one playback zone: it consumes commands, drives the
// queue and announcement dispatcher over the shared audio bridge, and
// publishes retained zone state on every change. Command handling is
// serialized on a single mutex; callers on other connections never
// interleave half-applied operations.
type Module struct {
	log        *zap.Logger
	client     mqttClient
	catalog    ports.Catalog
	clock      ports.Clock
	queue      *player.Queue
	schedule   *player.Schedule
	dispatcher *player.Dispatcher
	bridge     *audio.Bridge
	config     Config
	cmdTopic   string

	mu            sync.Mutex
	playing       bool
	volume        float64
	announcements map[string]aw.Announcement
}

// NewModule creates a zone player module.
func NewModule(log *zap.Logger, client mqttClient, cat ports.Catalog, clock ports.Clock, bridge *audio.Bridge, notifier ports.Notifier, cfg Config) (*Module, error) {
	if strings.TrimSpace(cfg.ZoneID) == "" {
		return nil, errors.New("zone_id required")
	}
	if strings.TrimSpace(cfg.TopicBase) == "" {
		cfg.TopicBase = aw.BaseTopic
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = "Zone " + cfg.ZoneID
	}
	if cfg.Volume <= 0 || cfg.Volume > 1 {
		cfg.Volume = 1.0
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 5 * time.Minute
	}

	queue := player.NewQueue()
	schedule := &player.Schedule{}
	dispatcher := player.NewDispatcher(log, queue, schedule, bridge, notifier)

	m := &Module{
		log:           log,
		client:        client,
		catalog:       cat,
		clock:         clock,
		queue:         queue,
		schedule:      schedule,
		dispatcher:    dispatcher,
		bridge:        bridge,
		config:        cfg,
		cmdTopic:      aw.TopicCommands(cfg.TopicBase, cfg.ZoneID),
		volume:        cfg.Volume,
		announcements: map[string]aw.Announcement{},
	}

	bridge.OnEnd(m.handleStreamEnd)
	bridge.SetupControls(audio.Controls{
		Play:          func() { m.control("playback.resume") },
		Pause:         func() { m.control("playback.pause") },
		NextTrack:     func() { m.control("playback.next") },
		PreviousTrack: func() { m.control("playback.previous") },
	})
	// hooks may fire while m.mu is held, so they publish events only;
	// state publication happens at the call sites
	dispatcher.OnStart(func(aw.Announcement) {
		m.publishEvent(aw.EventAnnouncementStarted)
	})
	dispatcher.OnEnd(func() {
		m.publishEvent(aw.EventAnnouncementFinished)
	})
	queue.OnTrackChange(func(aw.Track) {
		m.publishEvent(aw.EventTrackChanged)
	})

	return m, nil
}

// Run starts the zone player until the context ends.
func (m *Module) Run(ctx context.Context) error {
	if err := m.refreshCatalog(ctx); err != nil {
		m.log.Warn("initial catalog load failed", zap.Error(err))
	}
	if err := m.publishPresence(); err != nil {
		return err
	}
	if m.config.PublishState {
		if err := m.publishState(); err != nil {
			return err
		}
	}

	go func() {
		if err := m.bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.log.Warn("audio bridge stopped", zap.Error(err))
		}
	}()
	go m.runTicker(ctx)

	handler := func(_ paho.Client, msg paho.Message) {
		m.handleMessage(msg)
	}
	if err := m.client.Subscribe(m.cmdTopic, 1, handler); err != nil {
		return err
	}
	defer m.client.Unsubscribe(m.cmdTopic)

	<-ctx.Done()
	m.publishOffline()
	return nil
}

// runTicker drives the one second scheduler pass and elapsed-time
// state refresh, plus the periodic catalog reload.
func (m *Module) runTicker(ctx context.Context) {
	tick := time.NewTicker(1 * time.Second)
	refresh := time.NewTicker(m.config.RefreshInterval)
	defer tick.Stop()
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if m.dispatcher.CheckScheduled(m.clock.NowUnix()) {
				m.publishStateIfEnabled()
				continue
			}
			m.publishElapsed()
		case <-refresh.C:
			if err := m.refreshCatalog(ctx); err != nil {
				m.log.Warn("catalog refresh failed", zap.Error(err))
			}
		}
	}
}

func (m *Module) refreshCatalog(ctx context.Context) error {
	playlists, err := m.catalog.ListPlaylists(ctx)
	if err != nil {
		return err
	}
	announcements, err := m.catalog.ListAnnouncements(ctx)
	if err != nil {
		return err
	}
	schedules, err := m.catalog.ListSchedules(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.queue.SetPlaylists(playlists)
	m.announcements = map[string]aw.Announcement{}
	for _, a := range announcements {
		m.announcements[a.ID] = a
	}
	m.mu.Unlock()
	m.schedule.Replace(schedules)
	return nil
}

// handleStreamEnd reacts to the driver reaching end of stream: an
// active announcement finishes and music resumes, otherwise the queue
// wraps forward to the next track.
func (m *Module) handleStreamEnd() {
	if m.dispatcher.Active() {
		m.dispatcher.Finish(nil)
		m.publishStateIfEnabled()
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.playing {
		return
	}
	track, ok := m.queue.AdvanceToNext()
	if !ok {
		m.playing = false
	} else if err := m.bridge.PlayTrack(track, 0); err != nil {
		m.log.Warn("next track start failed", zap.String("track", track.ID), zap.Error(err))
		m.playing = false
	}
	m.publishStateLockedIfEnabled()
}

// control runs a transport action triggered by the platform media
// surface, reusing the command dispatch path.
func (m *Module) control(cmdType string) {
	cmd := aw.CommandEnvelope{ID: "surface", Type: cmdType, TS: m.clock.NowUnix(), From: m.config.ZoneID, Body: json.RawMessage(`{}`)}
	m.mu.Lock()
	m.dispatch(cmd)
	m.mu.Unlock()
	m.publishStateIfEnabled()
}

func (m *Module) handleMessage(msg paho.Message) {
	var cmd aw.CommandEnvelope
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		m.log.Warn("invalid command", zap.Error(err))
		return
	}

	m.mu.Lock()
	reply := m.dispatch(cmd)
	m.mu.Unlock()
	m.publishReply(cmd.ReplyTo, reply)
}

func (m *Module) dispatch(cmd aw.CommandEnvelope) aw.ReplyEnvelope {
	reply := aw.ReplyEnvelope{ID: cmd.ID, Type: "ack", OK: true, TS: m.clock.NowUnix()}

	switch cmd.Type {
	case "playback.play":
		return m.handlePlay(cmd, reply)
	case "playback.pause":
		return m.handlePause(cmd, reply)
	case "playback.resume":
		return m.handleResume(cmd, reply)
	case "playback.next":
		return m.handleNext(cmd, reply)
	case "playback.previous":
		return m.handlePrevious(cmd, reply)
	case "playback.setVolume":
		return m.handleSetVolume(cmd, reply)
	case "playback.setShuffle":
		return m.handleSetShuffle(cmd, reply)
	case "playback.setRepeat":
		return m.handleSetRepeat(cmd, reply)
	case "announce.play":
		return m.handleAnnounce(cmd, reply)
	case "state.get":
		return withBody(reply, aw.StateGetReply{State: m.stateLocked()})
	default:
		return errorReply(cmd, aw.ErrCodeInvalid, "unsupported command", m.clock.NowUnix())
	}
}

func (m *Module) handlePlay(cmd aw.CommandEnvelope, reply aw.ReplyEnvelope) aw.ReplyEnvelope {
	var body aw.PlaybackPlayBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		return errorReply(cmd, aw.ErrCodeInvalid, "invalid body", m.clock.NowUnix())
	}
	if len(body.PlaylistIDs) == 0 {
		return errorReply(cmd, aw.ErrCodeInvalid, "at least one playlist required", m.clock.NowUnix())
	}

	m.queue.SelectPlaylists(body.PlaylistIDs)
	m.queue.SetShuffle(body.Shuffle)

	track, ok := m.queue.Current()
	if !ok {
		return errorReply(cmd, aw.ErrCodeNotFound, "selected playlists contain no tracks", m.clock.NowUnix())
	}
	if err := m.bridge.PlayTrack(track, 0); err != nil {
		return errorReply(cmd, aw.ErrCodeInternal, err.Error(), m.clock.NowUnix())
	}
	m.playing = true
	return reply
}

func (m *Module) handlePause(cmd aw.CommandEnvelope, reply aw.ReplyEnvelope) aw.ReplyEnvelope {
	if err := m.bridge.Pause(); err != nil {
		return errorReply(cmd, aw.ErrCodeInternal, err.Error(), m.clock.NowUnix())
	}
	m.playing = false
	return reply
}

func (m *Module) handleResume(cmd aw.CommandEnvelope, reply aw.ReplyEnvelope) aw.ReplyEnvelope {
	if _, ok := m.queue.Current(); !ok {
		return errorReply(cmd, aw.ErrCodeNotFound, "nothing to resume", m.clock.NowUnix())
	}
	if err := m.bridge.Resume(); err != nil {
		return errorReply(cmd, aw.ErrCodeInternal, err.Error(), m.clock.NowUnix())
	}
	m.playing = true
	return reply
}

func (m *Module) handleNext(cmd aw.CommandEnvelope, reply aw.ReplyEnvelope) aw.ReplyEnvelope {
	track, ok := m.queue.AdvanceToNext()
	if !ok {
		return errorReply(cmd, aw.ErrCodeNotFound, "queue empty", m.clock.NowUnix())
	}
	if err := m.bridge.PlayTrack(track, 0); err != nil {
		return errorReply(cmd, aw.ErrCodeInternal, err.Error(), m.clock.NowUnix())
	}
	m.playing = true
	return reply
}

func (m *Module) handlePrevious(cmd aw.CommandEnvelope, reply aw.ReplyEnvelope) aw.ReplyEnvelope {
	track, ok := m.queue.GoToPrevious()
	if !ok {
		return errorReply(cmd, aw.ErrCodeNotFound, "queue empty", m.clock.NowUnix())
	}
	if err := m.bridge.PlayTrack(track, 0); err != nil {
		return errorReply(cmd, aw.ErrCodeInternal, err.Error(), m.clock.NowUnix())
	}
	m.playing = true
	return reply
}

func (m *Module) handleSetVolume(cmd aw.CommandEnvelope, reply aw.ReplyEnvelope) aw.ReplyEnvelope {
	var body aw.PlaybackSetVolumeBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		return errorReply(cmd, aw.ErrCodeInvalid, "invalid body", m.clock.NowUnix())
	}
	if body.Volume < 0 || body.Volume > 1 {
		return errorReply(cmd, aw.ErrCodeInvalid, "volume out of range", m.clock.NowUnix())
	}
	if err := m.bridge.SetVolume(body.Volume); err != nil {
		return errorReply(cmd, aw.ErrCodeInternal, err.Error(), m.clock.NowUnix())
	}
	m.volume = body.Volume
	return reply
}

func (m *Module) handleSetShuffle(cmd aw.CommandEnvelope, reply aw.ReplyEnvelope) aw.ReplyEnvelope {
	var body aw.PlaybackSetShuffleBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		return errorReply(cmd, aw.ErrCodeInvalid, "invalid body", m.clock.NowUnix())
	}
	m.queue.SetShuffle(body.Shuffle)
	return reply
}

func (m *Module) handleSetRepeat(cmd aw.CommandEnvelope, reply aw.ReplyEnvelope) aw.ReplyEnvelope {
	var body aw.PlaybackSetRepeatBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		return errorReply(cmd, aw.ErrCodeInvalid, "invalid body", m.clock.NowUnix())
	}
	m.queue.SetRepeat(body.Repeat)
	return reply
}

func (m *Module) handleAnnounce(cmd aw.CommandEnvelope, reply aw.ReplyEnvelope) aw.ReplyEnvelope {
	var body aw.AnnouncePlayBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		return errorReply(cmd, aw.ErrCodeInvalid, "invalid body", m.clock.NowUnix())
	}
	announcement, ok := m.announcements[body.AnnouncementID]
	if !ok {
		return errorReply(cmd, aw.ErrCodeNotFound, "unknown announcement", m.clock.NowUnix())
	}
	if err := m.dispatcher.Dispatch(announcement); err != nil {
		if errors.Is(err, player.ErrAnnouncementActive) {
			return errorReply(cmd, aw.ErrCodeConflict, err.Error(), m.clock.NowUnix())
		}
		return errorReply(cmd, aw.ErrCodeInternal, err.Error(), m.clock.NowUnix())
	}
	return reply
}

func (m *Module) publishPresence() error {
	presence := aw.Presence{
		ZoneID: m.config.ZoneID,
		Name:   m.config.Name,
		Caps: map[string]any{
			"announce": true,
			"shuffle":  true,
			"volume":   true,
		},
		TS: m.clock.NowUnix(),
	}
	payload, err := json.Marshal(presence)
	if err != nil {
		return err
	}
	return m.client.Publish(aw.TopicPresence(m.config.TopicBase, m.config.ZoneID), 1, true, payload)
}

// stateLocked builds the retained state payload. Callers hold m.mu.
func (m *Module) stateLocked() aw.ZoneState {
	state := aw.ZoneState{
		State:  aw.ZoneStandby,
		Volume: m.volume,
		TS:     m.clock.NowUnix(),
	}
	if m.playing || m.dispatcher.Active() {
		state.State = aw.ZoneLive
	}

	if announcement, ok := m.dispatcher.Current(); ok {
		posMS, _, _ := m.bridge.Position()
		state.NowPlaying = &aw.NowPlaying{
			Type:      aw.ItemAnnouncement,
			Title:     announcement.Title,
			Duration:  announcement.Duration,
			Elapsed:   posMS / 1000,
			IsPlaying: true,
		}
		return state
	}

	if track, ok := m.queue.Current(); ok {
		posMS, durMS, hasPos := m.bridge.Position()
		now := &aw.NowPlaying{
			Type:      aw.ItemMusic,
			Title:     track.Title,
			Playlist:  track.PlaylistName,
			Duration:  track.Duration,
			IsPlaying: m.playing,
		}
		if hasPos {
			now.Elapsed = posMS / 1000
			if durMS > 0 {
				now.Duration = durMS / 1000
			}
		}
		state.NowPlaying = now
	}
	return state
}

func (m *Module) publishState() error {
	m.mu.Lock()
	state := m.stateLocked()
	m.mu.Unlock()

	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return m.client.Publish(aw.TopicState(m.config.TopicBase, m.config.ZoneID), 1, true, payload)
}

func (m *Module) publishStateIfEnabled() {
	if m.config.PublishState {
		if err := m.publishState(); err != nil {
			m.log.Warn("state publish failed", zap.Error(err))
		}
	}
}

// publishStateLockedIfEnabled publishes while m.mu is already held.
func (m *Module) publishStateLockedIfEnabled() {
	if !m.config.PublishState {
		return
	}
	payload, err := json.Marshal(m.stateLocked())
	if err != nil {
		return
	}
	if err := m.client.Publish(aw.TopicState(m.config.TopicBase, m.config.ZoneID), 1, true, payload); err != nil {
		m.log.Warn("state publish failed", zap.Error(err))
	}
}

func (m *Module) publishElapsed() {
	m.mu.Lock()
	live := m.playing || m.dispatcher.Active()
	m.mu.Unlock()
	if live {
		m.publishStateIfEnabled()
	}
}

// publishOffline retains an offline state so controllers see the zone
// go away on clean shutdown.
func (m *Module) publishOffline() {
	payload, err := json.Marshal(aw.ZoneState{State: aw.ZoneOffline, TS: m.clock.NowUnix()})
	if err != nil {
		return
	}
	_ = m.client.Publish(aw.TopicState(m.config.TopicBase, m.config.ZoneID), 1, true, payload)
}

func (m *Module) publishEvent(eventType string) {
	payload, err := json.Marshal(aw.Event{Type: eventType, TS: m.clock.NowUnix()})
	if err != nil {
		return
	}
	if err := m.client.Publish(aw.TopicEvents(m.config.TopicBase, m.config.ZoneID), 1, false, payload); err != nil {
		m.log.Debug("event publish failed", zap.String("type", eventType), zap.Error(err))
	}
}

func (m *Module) publishReply(replyTo string, reply aw.ReplyEnvelope) {
	if replyTo != "" {
		payload, err := json.Marshal(reply)
		if err == nil {
			_ = m.client.Publish(replyTo, 1, false, payload)
		}
	}
	m.publishStateIfEnabled()
}

func withBody(reply aw.ReplyEnvelope, body any) aw.ReplyEnvelope {
	payload, _ := json.Marshal(body)
	reply.Body = payload
	return reply
}

func errorReply(cmd aw.CommandEnvelope, code string, message string, ts int64) aw.ReplyEnvelope {
	return aw.ReplyEnvelope{
		ID:   cmd.ID,
		Type: "error",
		OK:   false,
		TS:   ts,
		Err:  &aw.ReplyError{Code: code, Message: message},
	}
}
