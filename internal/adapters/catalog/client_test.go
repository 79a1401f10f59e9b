package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListPlaylistsExpandsTracks(t *testing.T) {
	var gotPath, gotAuth, gotExpand string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotExpand = r.URL.Query().Get("expand")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"playlists":[{"id":"pl-a","name":"Morning","tracks":[{"id":"t1","title":"One","streamUrl":"http://x/t1.mp3"}]}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Options{BaseURL: server.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	playlists, err := client.ListPlaylists(context.Background())
	if err != nil {
		t.Fatalf("list playlists: %v", err)
	}
	if gotPath != "/v1/playlists" || gotExpand != "tracks" {
		t.Fatalf("unexpected request: %s expand=%s", gotPath, gotExpand)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
	if len(playlists) != 1 || playlists[0].ID != "pl-a" {
		t.Fatalf("unexpected playlists: %+v", playlists)
	}
	if len(playlists[0].Tracks) != 1 || playlists[0].Tracks[0].StreamURL != "http://x/t1.mp3" {
		t.Fatalf("unexpected tracks: %+v", playlists[0].Tracks)
	}
}

func TestListZones(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/zones" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"zones":[{"id":"zone-1","name":"Front"},{"id":"zone-2","name":"Back"}]}`))
	}))
	defer server.Close()

	client, _ := NewClient(Options{BaseURL: server.URL})
	zones, err := client.ListZones(context.Background())
	if err != nil {
		t.Fatalf("list zones: %v", err)
	}
	if len(zones) != 2 || zones[1].Name != "Back" {
		t.Fatalf("unexpected zones: %+v", zones)
	}
}

func TestListSchedules(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"schedules":[{"id":"s1","announcementId":"a1","title":"Closing","triggerAt":1700000000}]}`))
	}))
	defer server.Close()

	client, _ := NewClient(Options{BaseURL: server.URL})
	schedules, err := client.ListSchedules(context.Background())
	if err != nil {
		t.Fatalf("list schedules: %v", err)
	}
	if len(schedules) != 1 || schedules[0].AnnouncementID != "a1" || schedules[0].TriggerAt != 1700000000 {
		t.Fatalf("unexpected schedules: %+v", schedules)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	client, _ := NewClient(Options{BaseURL: server.URL})
	if _, err := client.ListAnnouncements(context.Background()); err == nil {
		t.Fatalf("expected error on 403")
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatalf("expected error on empty base url")
	}
}
