package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/auriga-audio/auriga/internal/core"
)

func playlistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playlist",
		Short: "Manage the playlist selection",
	}
	cmd.AddCommand(playlistListCommand())
	cmd.AddCommand(playlistSelectCommand())

	return cmd
}

func playlistListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List catalog playlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			result, err := app.service.Playlists(ctx)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}

func playlistSelectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "select [playlist-id...]",
		Short: "Select playlists for the queue (none selects all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			if err := app.orch.RefreshCatalog(ctx); err != nil {
				return core.WrapError(core.ExitRuntime, "refresh catalog", err)
			}
			app.orch.SelectPlaylists(args)

			result, err := app.service.Playlists(ctx)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}
