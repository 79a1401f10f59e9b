package player

import (
	"testing"

	"github.com/auriga-audio/auriga/pkg/aw"
)

func TestScheduleReplaceSortsByTrigger(t *testing.T) {
	schedule := &Schedule{}
	schedule.Replace([]aw.ScheduledAnnouncement{
		{ID: "s2", TriggerAt: 200},
		{ID: "s1", TriggerAt: 100},
		{ID: "s3", TriggerAt: 300},
	})

	entry, ok := schedule.PopDue(100)
	if !ok || entry.ID != "s1" {
		t.Fatalf("expected s1 due first, got %v %v", entry.ID, ok)
	}
}

func TestSchedulePopDueReturnsAtMostOne(t *testing.T) {
	schedule := &Schedule{}
	schedule.Replace([]aw.ScheduledAnnouncement{
		{ID: "s1", TriggerAt: 100},
		{ID: "s2", TriggerAt: 100},
	})

	if _, ok := schedule.PopDue(150); !ok {
		t.Fatalf("expected first due entry")
	}
	if schedule.Len() != 1 {
		t.Fatalf("expected one entry left, got %d", schedule.Len())
	}
	if _, ok := schedule.PopDue(150); !ok {
		t.Fatalf("expected second due entry on next check")
	}
	if _, ok := schedule.PopDue(150); ok {
		t.Fatalf("expected no further entries")
	}
}

func TestSchedulePopDueIgnoresFuture(t *testing.T) {
	schedule := &Schedule{}
	schedule.Replace([]aw.ScheduledAnnouncement{{ID: "s1", TriggerAt: 500}})

	if _, ok := schedule.PopDue(499); ok {
		t.Fatalf("expected nothing due before trigger")
	}
	if entry, ok := schedule.PopDue(500); !ok || entry.ID != "s1" {
		t.Fatalf("expected s1 at trigger time")
	}
}

func TestScheduleAddKeepsOrder(t *testing.T) {
	schedule := &Schedule{}
	schedule.Add(aw.ScheduledAnnouncement{ID: "s3", TriggerAt: 300})
	schedule.Add(aw.ScheduledAnnouncement{ID: "s1", TriggerAt: 100})
	schedule.Add(aw.ScheduledAnnouncement{ID: "s2", TriggerAt: 200})

	want := []string{"s1", "s2", "s3"}
	for _, id := range want {
		entry, ok := schedule.PopDue(400)
		if !ok || entry.ID != id {
			t.Fatalf("expected %s, got %v %v", id, entry.ID, ok)
		}
	}
}
