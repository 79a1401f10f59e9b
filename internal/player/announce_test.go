package player

import (
	"errors"
	"testing"

	"github.com/auriga-audio/auriga/pkg/aw"
)

type stubOutput struct {
	playedTracks  []aw.Track
	playedStreams []string
	positions     []int64
	positionMS    int64
	ducked        bool
	streamErr     error
	trackErr      error
}

func (o *stubOutput) PlayTrack(track aw.Track, positionMS int64) error {
	if o.trackErr != nil {
		return o.trackErr
	}
	o.playedTracks = append(o.playedTracks, track)
	o.positions = append(o.positions, positionMS)
	return nil
}

func (o *stubOutput) PlayStream(title, url string) error {
	if o.streamErr != nil {
		return o.streamErr
	}
	o.playedStreams = append(o.playedStreams, url)
	return nil
}

func (o *stubOutput) PositionMS() int64 { return o.positionMS }

func (o *stubOutput) Duck(on bool) { o.ducked = on }

type stubNotifier struct {
	messages []string
}

func (n *stubNotifier) Notify(level string, message string) {
	n.messages = append(n.messages, level+": "+message)
}

func playingQueue() *Queue {
	queue := NewQueue()
	queue.SetPlaylists(testPlaylists())
	queue.SelectPlaylists(nil)
	return queue
}

func TestDispatchInterruptsAndResumes(t *testing.T) {
	out := &stubOutput{positionMS: 42000}
	dispatcher := NewDispatcher(nil, playingQueue(), &Schedule{}, out, &stubNotifier{})

	ann := aw.Announcement{ID: "a1", Title: "Closing", StreamURL: "http://x/a1.mp3"}
	if err := dispatcher.Dispatch(ann); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !dispatcher.Active() {
		t.Fatalf("expected dispatcher active")
	}
	if !out.ducked {
		t.Fatalf("expected output ducked")
	}
	snap := dispatcher.Interrupted()
	if snap == nil || snap.Track.ID != "t1" || snap.PositionMS != 42000 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	dispatcher.Finish(nil)
	if dispatcher.Active() {
		t.Fatalf("expected dispatcher idle")
	}
	if dispatcher.Interrupted() != nil {
		t.Fatalf("expected snapshot cleared")
	}
	if out.ducked {
		t.Fatalf("expected duck released")
	}
	if len(out.playedTracks) != 1 || out.playedTracks[0].ID != "t1" || out.positions[0] != 42000 {
		t.Fatalf("expected resume at saved position, got %+v %v", out.playedTracks, out.positions)
	}
}

func TestDispatchWhileActiveIsRefused(t *testing.T) {
	out := &stubOutput{}
	dispatcher := NewDispatcher(nil, playingQueue(), &Schedule{}, out, nil)

	if err := dispatcher.Dispatch(aw.Announcement{ID: "a1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	err := dispatcher.Dispatch(aw.Announcement{ID: "a2"})
	if !errors.Is(err, ErrAnnouncementActive) {
		t.Fatalf("expected ErrAnnouncementActive, got %v", err)
	}
	if len(out.playedStreams) != 1 {
		t.Fatalf("expected single stream start, got %d", len(out.playedStreams))
	}
}

func TestDispatchFailureClearsGuardAndResumes(t *testing.T) {
	out := &stubOutput{streamErr: errors.New("stream unreachable")}
	notifier := &stubNotifier{}
	dispatcher := NewDispatcher(nil, playingQueue(), &Schedule{}, out, notifier)

	if err := dispatcher.Dispatch(aw.Announcement{ID: "a1"}); err == nil {
		t.Fatalf("expected dispatch error")
	}
	if dispatcher.Active() {
		t.Fatalf("expected guard cleared after failure")
	}
	if dispatcher.Interrupted() != nil {
		t.Fatalf("expected snapshot cleared after failure")
	}
	if len(out.playedTracks) != 1 {
		t.Fatalf("expected music resume attempt, got %d", len(out.playedTracks))
	}
	if len(notifier.messages) == 0 {
		t.Fatalf("expected user-visible warning")
	}
}

func TestResumeFailureStillClearsState(t *testing.T) {
	out := &stubOutput{trackErr: errors.New("device gone")}
	notifier := &stubNotifier{}
	dispatcher := NewDispatcher(nil, playingQueue(), &Schedule{}, out, notifier)

	if err := dispatcher.Dispatch(aw.Announcement{ID: "a1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	dispatcher.Finish(nil)

	if dispatcher.Active() || dispatcher.Interrupted() != nil {
		t.Fatalf("expected state cleared despite resume failure")
	}
	if len(notifier.messages) == 0 {
		t.Fatalf("expected resume failure notification")
	}
}

func TestCheckScheduledDispatchesOne(t *testing.T) {
	out := &stubOutput{}
	schedule := &Schedule{}
	schedule.Replace([]aw.ScheduledAnnouncement{
		{ID: "s1", AnnouncementID: "a1", StreamURL: "http://x/a1.mp3", TriggerAt: 100},
		{ID: "s2", AnnouncementID: "a2", StreamURL: "http://x/a2.mp3", TriggerAt: 100},
	})
	dispatcher := NewDispatcher(nil, playingQueue(), schedule, out, nil)

	if !dispatcher.CheckScheduled(100) {
		t.Fatalf("expected dispatch at trigger time")
	}
	if len(out.playedStreams) != 1 {
		t.Fatalf("expected one stream, got %d", len(out.playedStreams))
	}

	// second due entry waits while the first is active
	if dispatcher.CheckScheduled(101) {
		t.Fatalf("expected no dispatch while active")
	}
	if schedule.Len() != 1 {
		t.Fatalf("due entry must not be dropped, got len %d", schedule.Len())
	}

	dispatcher.Finish(nil)
	if !dispatcher.CheckScheduled(102) {
		t.Fatalf("expected deferred entry dispatched after finish")
	}
}

func TestCheckScheduledNothingDue(t *testing.T) {
	out := &stubOutput{}
	dispatcher := NewDispatcher(nil, playingQueue(), &Schedule{}, out, nil)

	if dispatcher.CheckScheduled(100) {
		t.Fatalf("expected no dispatch on empty schedule")
	}
}
