package push

import (
	"testing"

	"github.com/auriga-audio/auriga/pkg/aw"
)

func TestSendLatestDropsOldestWhenFull(t *testing.T) {
	ch := make(chan aw.ZoneState, 2)
	for _, volume := range []float64{0.1, 0.2, 0.3, 0.4} {
		sendLatest(ch, aw.ZoneState{Volume: volume})
	}

	// buffer holds two; the newest must be among them
	first := <-ch
	second := <-ch
	if first.Volume != 0.3 || second.Volume != 0.4 {
		t.Fatalf("expected newest states retained, got %v %v", first.Volume, second.Volume)
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra state: %v", extra.Volume)
	default:
	}
}

func TestZoneFromStateTopic(t *testing.T) {
	cases := []struct {
		topic string
		want  string
	}{
		{"aw/v1/zone/zone-1/state", "zone-1"},
		{"aw/v1/zone/back-room/state", "back-room"},
		{"aw/v1/zone/zone-1/presence", ""},
		{"aw/v1/zone//state", ""},
		{"aw/v1/zone/zone-1/extra/state", ""},
		{"other/zone/zone-1/state", ""},
	}
	for _, tc := range cases {
		if got := zoneFromStateTopic("aw/v1", tc.topic); got != tc.want {
			t.Fatalf("topic %q: expected %q, got %q", tc.topic, tc.want, got)
		}
	}
}
