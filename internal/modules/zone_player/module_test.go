package zoneplayer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/auriga-audio/auriga/internal/audio"
	"github.com/auriga-audio/auriga/pkg/aw"
)

type publishRecord struct {
	Topic    string
	Retained bool
	Payload  []byte
}

type stubMQTT struct {
	mu        sync.Mutex
	published []publishRecord
}

func (c *stubMQTT) Publish(topic string, _ byte, retained bool, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, publishRecord{Topic: topic, Retained: retained, Payload: payload})
	return nil
}

func (c *stubMQTT) Subscribe(string, byte, paho.MessageHandler) error { return nil }

func (c *stubMQTT) Unsubscribe(string) error { return nil }

type stubCatalog struct {
	playlists     []aw.Playlist
	announcements []aw.Announcement
	schedules     []aw.ScheduledAnnouncement
}

func (c *stubCatalog) ListPlaylists(context.Context) ([]aw.Playlist, error) {
	return c.playlists, nil
}

func (c *stubCatalog) ListAnnouncements(context.Context) ([]aw.Announcement, error) {
	return c.announcements, nil
}

func (c *stubCatalog) ListSchedules(context.Context) ([]aw.ScheduledAnnouncement, error) {
	return c.schedules, nil
}

func (c *stubCatalog) ListZones(context.Context) ([]aw.Zone, error) { return nil, nil }

type stubClock struct{ now int64 }

func (c *stubClock) NowUnix() int64 { return c.now }

type testDriver struct {
	played []string
	state  string
}

func (d *testDriver) Play(url string, _ int64) error {
	d.played = append(d.played, url)
	d.state = audio.PipelineRunning
	return nil
}

func (d *testDriver) Pause() error { return nil }

func (d *testDriver) Resume() error { return nil }

func (d *testDriver) Stop() error { return nil }

func (d *testDriver) Seek(int64) error { return nil }

func (d *testDriver) SetVolume(float64) error { return nil }

func (d *testDriver) Position() (int64, int64, bool) { return 0, 0, false }

func (d *testDriver) State() string {
	if d.state == "" {
		return audio.PipelineClosed
	}
	return d.state
}

func (d *testDriver) OnEnd(func()) {}

func newTestModule(t *testing.T) (*Module, *stubMQTT, *testDriver) {
	t.Helper()
	client := &stubMQTT{}
	driver := &testDriver{}
	bridge := audio.New(zap.NewNop())
	bridge.Bind(driver)

	cat := &stubCatalog{
		playlists: []aw.Playlist{
			{ID: "pl-a", Name: "Morning", Tracks: []aw.Track{
				{ID: "t1", Title: "One", StreamURL: "http://x/t1.mp3"},
				{ID: "t2", Title: "Two", StreamURL: "http://x/t2.mp3"},
			}},
		},
		announcements: []aw.Announcement{{ID: "a1", Title: "Closing", StreamURL: "http://x/a1.mp3"}},
	}

	m, err := NewModule(zap.NewNop(), client, cat, &stubClock{now: 1700000000}, bridge, nil, Config{
		ZoneID:       "zone-1",
		PublishState: true,
	})
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	if err := m.refreshCatalog(context.Background()); err != nil {
		t.Fatalf("refresh catalog: %v", err)
	}
	return m, client, driver
}

func command(t *testing.T, cmdType string, body any) aw.CommandEnvelope {
	t.Helper()
	cmd, err := aw.NewCommand(cmdType, body)
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	cmd.ID = "cmd-1"
	cmd.TS = 1700000000
	cmd.From = "tester@host"
	return cmd
}

func (m *Module) run(cmd aw.CommandEnvelope) aw.ReplyEnvelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatch(cmd)
}

func TestPlayRequiresPlaylists(t *testing.T) {
	m, _, driver := newTestModule(t)

	reply := m.run(command(t, "playback.play", aw.PlaybackPlayBody{}))
	if reply.OK || reply.Err == nil || reply.Err.Code != aw.ErrCodeInvalid {
		t.Fatalf("expected INVALID reply, got %+v", reply)
	}
	if len(driver.played) != 0 {
		t.Fatalf("nothing may play on rejected command")
	}
}

func TestPlayStartsFirstTrack(t *testing.T) {
	m, _, driver := newTestModule(t)

	reply := m.run(command(t, "playback.play", aw.PlaybackPlayBody{PlaylistIDs: []string{"pl-a"}}))
	if !reply.OK {
		t.Fatalf("play rejected: %+v", reply.Err)
	}
	if len(driver.played) != 1 || driver.played[0] != "http://x/t1.mp3" {
		t.Fatalf("unexpected playback: %v", driver.played)
	}

	m.mu.Lock()
	state := m.stateLocked()
	m.mu.Unlock()
	if state.State != aw.ZoneLive {
		t.Fatalf("expected live state, got %s", state.State)
	}
	if state.NowPlaying == nil || state.NowPlaying.Title != "One" || state.NowPlaying.Type != aw.ItemMusic {
		t.Fatalf("unexpected now playing: %+v", state.NowPlaying)
	}
}

func TestPlayUnknownPlaylist(t *testing.T) {
	m, _, _ := newTestModule(t)

	reply := m.run(command(t, "playback.play", aw.PlaybackPlayBody{PlaylistIDs: []string{"pl-zzz"}}))
	if reply.OK || reply.Err.Code != aw.ErrCodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %+v", reply)
	}
}

func TestNextWrapsQueue(t *testing.T) {
	m, _, driver := newTestModule(t)

	m.run(command(t, "playback.play", aw.PlaybackPlayBody{PlaylistIDs: []string{"pl-a"}}))
	m.run(command(t, "playback.next", struct{}{}))
	m.run(command(t, "playback.next", struct{}{}))

	// two tracks: second next wraps back to the first
	want := []string{"http://x/t1.mp3", "http://x/t2.mp3", "http://x/t1.mp3"}
	if len(driver.played) != len(want) {
		t.Fatalf("expected %d plays, got %v", len(want), driver.played)
	}
	for i, url := range want {
		if driver.played[i] != url {
			t.Fatalf("play %d: expected %s, got %s", i, url, driver.played[i])
		}
	}
}

func TestVolumeValidation(t *testing.T) {
	m, _, _ := newTestModule(t)

	reply := m.run(command(t, "playback.setVolume", aw.PlaybackSetVolumeBody{Volume: 1.5}))
	if reply.OK || reply.Err.Code != aw.ErrCodeInvalid {
		t.Fatalf("expected INVALID, got %+v", reply)
	}
	reply = m.run(command(t, "playback.setVolume", aw.PlaybackSetVolumeBody{Volume: 0.5}))
	if !reply.OK {
		t.Fatalf("volume rejected: %+v", reply.Err)
	}
}

func TestAnnounceLifecycle(t *testing.T) {
	m, _, driver := newTestModule(t)
	m.run(command(t, "playback.play", aw.PlaybackPlayBody{PlaylistIDs: []string{"pl-a"}}))

	reply := m.run(command(t, "announce.play", aw.AnnouncePlayBody{AnnouncementID: "a1"}))
	if !reply.OK {
		t.Fatalf("announce rejected: %+v", reply.Err)
	}
	if driver.played[len(driver.played)-1] != "http://x/a1.mp3" {
		t.Fatalf("expected announcement stream, got %v", driver.played)
	}

	// a second announcement is refused while one is active
	reply = m.run(command(t, "announce.play", aw.AnnouncePlayBody{AnnouncementID: "a1"}))
	if reply.OK || reply.Err.Code != aw.ErrCodeConflict {
		t.Fatalf("expected CONFLICT, got %+v", reply)
	}

	m.mu.Lock()
	state := m.stateLocked()
	m.mu.Unlock()
	if state.NowPlaying == nil || state.NowPlaying.Type != aw.ItemAnnouncement {
		t.Fatalf("expected announcement now playing, got %+v", state.NowPlaying)
	}

	// end of stream finishes the announcement and resumes music
	m.handleStreamEnd()
	if m.dispatcher.Active() {
		t.Fatalf("expected announcement finished")
	}
	if driver.played[len(driver.played)-1] != "http://x/t1.mp3" {
		t.Fatalf("expected music resume, got %v", driver.played)
	}
}

func TestAnnounceUnknown(t *testing.T) {
	m, _, _ := newTestModule(t)

	reply := m.run(command(t, "announce.play", aw.AnnouncePlayBody{AnnouncementID: "nope"}))
	if reply.OK || reply.Err.Code != aw.ErrCodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %+v", reply)
	}
}

func TestScheduledAnnouncementDispatch(t *testing.T) {
	m, _, driver := newTestModule(t)
	m.schedule.Replace([]aw.ScheduledAnnouncement{
		{ID: "s1", AnnouncementID: "a1", Title: "Closing", StreamURL: "http://x/a1.mp3", TriggerAt: 1700000100},
	})

	if m.dispatcher.CheckScheduled(1700000099) {
		t.Fatalf("expected nothing due yet")
	}
	if !m.dispatcher.CheckScheduled(1700000100) {
		t.Fatalf("expected dispatch at trigger")
	}
	if driver.played[len(driver.played)-1] != "http://x/a1.mp3" {
		t.Fatalf("expected scheduled stream, got %v", driver.played)
	}
}

func TestStreamEndAdvancesQueue(t *testing.T) {
	m, _, driver := newTestModule(t)
	m.run(command(t, "playback.play", aw.PlaybackPlayBody{PlaylistIDs: []string{"pl-a"}}))

	m.handleStreamEnd()
	if driver.played[len(driver.played)-1] != "http://x/t2.mp3" {
		t.Fatalf("expected next track on stream end, got %v", driver.played)
	}

	// paused zones do not auto-advance
	m.run(command(t, "playback.pause", struct{}{}))
	plays := len(driver.played)
	m.handleStreamEnd()
	if len(driver.played) != plays {
		t.Fatalf("expected no playback while paused")
	}
}

func TestStatePublishedRetained(t *testing.T) {
	m, client, _ := newTestModule(t)
	m.run(command(t, "playback.play", aw.PlaybackPlayBody{PlaylistIDs: []string{"pl-a"}}))
	m.publishStateIfEnabled()

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.published) == 0 {
		t.Fatalf("expected retained state publish")
	}
	last := client.published[len(client.published)-1]
	if last.Topic != "aw/v1/zone/zone-1/state" || !last.Retained {
		t.Fatalf("unexpected publish: %+v", last)
	}
	var state aw.ZoneState
	if err := json.Unmarshal(last.Payload, &state); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if state.State != aw.ZoneLive {
		t.Fatalf("expected live state, got %s", state.State)
	}
}
