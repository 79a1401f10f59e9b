package notify

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/auriga-audio/auriga/internal/ports"
)

type recorder struct {
	levels   []string
	messages []string
}

func (r *recorder) Notify(level string, message string) {
	r.levels = append(r.levels, level)
	r.messages = append(r.messages, message)
}

func TestLogRoutesLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	n := Log{Logger: zap.New(core)}

	n.Notify(ports.LevelError, "broke")
	n.Notify(ports.LevelWarn, "wobbly")
	n.Notify(ports.LevelInfo, "fine")

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Level != zap.ErrorLevel || entries[0].Message != "broke" {
		t.Fatalf("unexpected error entry: %+v", entries[0])
	}
	if entries[1].Level != zap.WarnLevel || entries[1].Message != "wobbly" {
		t.Fatalf("unexpected warn entry: %+v", entries[1])
	}
	if entries[2].Level != zap.InfoLevel || entries[2].Message != "fine" {
		t.Fatalf("unexpected info entry: %+v", entries[2])
	}
}

func TestLogNilLoggerIsSafe(t *testing.T) {
	Log{}.Notify(ports.LevelWarn, "dropped")
}

func TestMultiFansOut(t *testing.T) {
	first := &recorder{}
	second := &recorder{}
	n := Multi{first, second}

	n.Notify(ports.LevelWarn, "heads up")

	for i, r := range []*recorder{first, second} {
		if len(r.messages) != 1 || r.messages[0] != "heads up" || r.levels[0] != ports.LevelWarn {
			t.Fatalf("notifier %d missed delivery: %+v", i, r)
		}
	}
}
