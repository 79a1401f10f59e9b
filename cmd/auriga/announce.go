package main

import (
	"context"

	"github.com/spf13/cobra"
)

func announceCommand() *cobra.Command {
	var zones []string

	cmd := &cobra.Command{
		Use:   "announce <announcement-id>",
		Short: "Play an announcement now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			return app.service.Announce(ctx, args[0], zones)
		},
	}
	cmd.Flags().StringSliceVarP(&zones, "zone", "z", nil, "target zones (default: all)")

	cmd.AddCommand(announceListCommand())

	return cmd
}

func announceListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List catalog announcements",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			result, err := app.service.Announcements(ctx)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}

func scheduleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "List scheduled announcements",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			result, err := app.service.Schedules(ctx)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}
