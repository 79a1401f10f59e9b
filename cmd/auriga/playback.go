package main

import (
	"context"

	"github.com/spf13/cobra"
)

func startCommand() *cobra.Command {
	var playlists []string

	cmd := &cobra.Command{
		Use:   "start [zone]",
		Short: "Start music output from the selected playlists",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			return app.service.Start(ctx, selectorArg(args), playlists)
		},
	}
	cmd.Flags().StringSliceVarP(&playlists, "playlist", "p", nil, "playlist IDs to select")

	return cmd
}

func stopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop [zone]",
		Short: "Stop music output",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			return app.service.Stop(ctx, selectorArg(args))
		},
	}
}

func toggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [zone]",
		Short: "Toggle between playing and paused",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			return app.service.Toggle(ctx, selectorArg(args))
		},
	}
}

func nextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "next [zone]",
		Short: "Skip to the next track",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			return app.service.Next(ctx, selectorArg(args))
		},
	}
}

func prevCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prev [zone]",
		Short: "Skip to the previous track",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			return app.service.Previous(ctx, selectorArg(args))
		},
	}
}

func shuffleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shuffle [zone]",
		Short: "Toggle shuffle mode",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			return app.service.Shuffle(ctx, selectorArg(args))
		},
	}
}

func repeatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repeat [zone]",
		Short: "Toggle repeat mode",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			return app.service.Repeat(ctx, selectorArg(args))
		},
	}
}

func selectorArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return ""
}
