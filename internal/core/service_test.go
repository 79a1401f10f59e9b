package core

import (
	"context"
	"sync"
	"testing"

	"github.com/auriga-audio/auriga/internal/zone"
	"github.com/auriga-audio/auriga/pkg/aw"
)

type recordingBroker struct {
	stubPresence
	mu   sync.Mutex
	sent []aw.CommandEnvelope
	to   []string
}

func (b *recordingBroker) PublishCommand(_ context.Context, zoneID string, cmd aw.CommandEnvelope) (aw.ReplyEnvelope, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, cmd)
	b.to = append(b.to, zoneID)
	return aw.ReplyEnvelope{OK: true}, nil
}

type serviceCatalog struct {
	playlists []aw.Playlist
	zones     []aw.Zone
}

func (c serviceCatalog) ListPlaylists(context.Context) ([]aw.Playlist, error) {
	return c.playlists, nil
}

func (c serviceCatalog) ListAnnouncements(context.Context) ([]aw.Announcement, error) {
	return []aw.Announcement{{ID: "a1", Title: "Closing"}}, nil
}

func (c serviceCatalog) ListSchedules(context.Context) ([]aw.ScheduledAnnouncement, error) {
	return nil, nil
}

func (c serviceCatalog) ListZones(context.Context) ([]aw.Zone, error) {
	return c.zones, nil
}

type fixedClock struct{}

func (fixedClock) NowUnix() int64 { return 1700000000 }

type fixedIDs struct{}

func (fixedIDs) NewID() string { return "cmd-1" }

func newTestService(broker *recordingBroker, cat serviceCatalog) Service {
	cfg := Config{Identity: "tester@host"}
	orch := zone.New(zone.Options{
		Broker:   broker,
		Catalog:  cat,
		Clock:    fixedClock{},
		IDGen:    fixedIDs{},
		Identity: cfg.Identity,
	})
	return Service{
		Orch:     orch,
		Broker:   broker,
		Catalog:  cat,
		Resolver: Resolver{Presence: broker, Config: cfg},
		Config:   cfg,
	}
}

func TestServiceStartRequiresSelection(t *testing.T) {
	broker := &recordingBroker{}
	svc := newTestService(broker, serviceCatalog{zones: []aw.Zone{{ID: "zone-1"}}})

	err := svc.Start(context.Background(), "all", nil)
	if ExitCode(err) != ExitUsage {
		t.Fatalf("expected usage exit for empty selection, got %v", err)
	}
	if len(broker.sent) != 0 {
		t.Fatalf("no command may be sent, got %d", len(broker.sent))
	}
}

func TestServiceStartSendsPlay(t *testing.T) {
	broker := &recordingBroker{}
	cat := serviceCatalog{
		playlists: []aw.Playlist{{ID: "pl-a", Tracks: []aw.Track{{ID: "t1"}}}},
		zones:     []aw.Zone{{ID: "zone-1"}},
	}
	svc := newTestService(broker, cat)

	if err := svc.Start(context.Background(), "all", []string{"pl-a"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(broker.sent) != 1 || broker.sent[0].Type != "playback.play" {
		t.Fatalf("unexpected commands: %+v", broker.sent)
	}
}

func TestServiceVolumeBySelector(t *testing.T) {
	broker := &recordingBroker{
		stubPresence: stubPresence{presence: []aw.Presence{{ZoneID: "zone-1", Name: "Front"}}},
	}
	svc := newTestService(broker, serviceCatalog{zones: []aw.Zone{{ID: "zone-1"}}})

	if err := svc.Volume(context.Background(), "front", 0.4); err != nil {
		t.Fatalf("volume: %v", err)
	}
	if len(broker.to) != 1 || broker.to[0] != "zone-1" {
		t.Fatalf("expected command to zone-1, got %v", broker.to)
	}
	if broker.sent[0].Type != "playback.setVolume" {
		t.Fatalf("unexpected command type %s", broker.sent[0].Type)
	}
}

func TestServiceAnnounceAllZones(t *testing.T) {
	broker := &recordingBroker{}
	svc := newTestService(broker, serviceCatalog{zones: []aw.Zone{{ID: "zone-1"}, {ID: "zone-2"}}})

	if err := svc.Announce(context.Background(), "a1", nil); err != nil {
		t.Fatalf("announce: %v", err)
	}
	if len(broker.to) != 2 {
		t.Fatalf("expected announcement on both zones, got %v", broker.to)
	}
}

func TestServiceAnnouncements(t *testing.T) {
	broker := &recordingBroker{}
	svc := newTestService(broker, serviceCatalog{})

	result, err := svc.Announcements(context.Background())
	if err != nil {
		t.Fatalf("announcements: %v", err)
	}
	if len(result.Announcements) != 1 || result.Announcements[0].ID != "a1" {
		t.Fatalf("unexpected announcements: %+v", result)
	}
}

func TestServiceStatusUnknownZone(t *testing.T) {
	broker := &recordingBroker{
		stubPresence: stubPresence{presence: []aw.Presence{{ZoneID: "zone-1", Name: "Front"}}},
	}
	svc := newTestService(broker, serviceCatalog{})

	if _, err := svc.Status(context.Background(), "back"); ExitCode(err) != ExitNotFound {
		t.Fatalf("expected not-found exit, got %v", err)
	}
}
