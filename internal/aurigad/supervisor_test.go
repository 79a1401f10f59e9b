package aurigad

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSupervisorRunsModules(t *testing.T) {
	logger := NewLogger(LogConfig{Level: "error"})
	supervisor := Supervisor{Logger: logger}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{}, 1)
	modules := []ModuleRunner{
		{
			Name: "test",
			Run: func(ctx context.Context) error {
				started <- struct{}{}
				<-ctx.Done()
				return nil
			},
		},
	}

	go func() {
		<-started
		cancel()
	}()

	if err := supervisor.Run(ctx, modules); err != nil {
		t.Fatalf("supervisor run: %v", err)
	}
}

func TestSupervisorPropagatesErrors(t *testing.T) {
	logger := NewLogger(LogConfig{Level: "error"})
	supervisor := Supervisor{Logger: logger}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	modules := []ModuleRunner{
		{
			Name: "fail",
			Run: func(ctx context.Context) error {
				return errors.New("boom")
			},
		},
	}

	if err := supervisor.Run(ctx, modules); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSupervisorFailureStopsSiblings(t *testing.T) {
	logger := NewLogger(LogConfig{Level: "error"})
	supervisor := Supervisor{Logger: logger}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	siblingStopped := make(chan struct{})
	modules := []ModuleRunner{
		{
			Name: "fail",
			Run: func(ctx context.Context) error {
				return errors.New("boom")
			},
		},
		{
			Name: "sibling",
			Run: func(ctx context.Context) error {
				<-ctx.Done()
				close(siblingStopped)
				return nil
			},
		},
	}

	if err := supervisor.Run(ctx, modules); err == nil {
		t.Fatalf("expected error")
	}
	select {
	case <-siblingStopped:
	case <-time.After(time.Second):
		t.Fatalf("sibling not cancelled on failure")
	}
}

func TestSupervisorNoModules(t *testing.T) {
	logger := NewLogger(LogConfig{Level: "error"})
	supervisor := Supervisor{Logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := supervisor.Run(ctx, nil); err == nil {
		t.Fatalf("expected error")
	}
}
