package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/auriga-audio/auriga/internal/core"
	"github.com/auriga-audio/auriga/internal/zone"
)

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [zone]",
		Short: "Show zone status",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			selector := ""
			if len(args) == 1 {
				selector = args[0]
			}
			result, err := app.service.Status(ctx, selector)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}

func watchCommand() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch [zone]",
		Short: "Watch live zone state",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			selector := zone.AllZones
			if len(args) == 1 {
				selector = args[0]
			}
			return watchZones(ctx, app, selector, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "refresh interval")

	return cmd
}

func watchZones(ctx context.Context, app *app, selector string, interval time.Duration) error {
	zoneID, err := app.service.Resolver.ResolveZone(ctx, selector)
	if err != nil {
		return err
	}
	// catalog is optional in watch mode; zones still report state
	if err := app.orch.RefreshCatalog(ctx); err != nil && !app.quiet {
		fmt.Fprintf(os.Stderr, "warn: catalog unavailable: %v\n", err)
	}
	if err := app.orch.SetTarget(ctx, zoneID); err != nil {
		return core.WrapError(core.ExitRuntime, "set target", err)
	}

	changed := make(chan struct{}, 1)
	app.orch.OnChange(func(zone.Status) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := renderSnapshot(app); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		case <-ticker.C:
		}
		if err := renderSnapshot(app); err != nil {
			return err
		}
	}
}

func renderSnapshot(app *app) error {
	return app.printer.Print(core.SnapshotResult{Snapshot: app.orch.Snapshot()})
}
