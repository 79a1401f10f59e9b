package aurigad

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// ModuleRunner is one supervised daemon component, typically a zone
// player or the embedded broker.
type ModuleRunner struct {
	Name string
	Run  func(ctx context.Context) error
}

// Supervisor runs daemon modules until the context ends. The first
// module failure cancels the siblings and brings the daemon down so
// zones never linger half-alive.
type Supervisor struct {
	Logger *slog.Logger
}

// Run starts every module and blocks until all have stopped. It
// returns the first module error, or nil on a clean shutdown.
func (s Supervisor) Run(ctx context.Context, modules []ModuleRunner) error {
	if len(modules) == 0 {
		return fmt.Errorf("no modules enabled")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, module := range modules {
		m := module
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger := s.Logger.With("module", m.Name)
			logger.Info("starting module")
			err := m.Run(ctx)
			if err != nil && ctx.Err() == nil {
				logger.Error("module exited", "error", err)
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", m.Name, err)
				}
				mu.Unlock()
				cancel()
				return
			}
			logger.Info("module stopped")
		}()
	}

	<-ctx.Done()
	s.Logger.Info("shutting down modules")
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	return firstErr
}
