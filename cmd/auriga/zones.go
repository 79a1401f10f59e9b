package main

import (
	"context"

	"github.com/spf13/cobra"
)

func zonesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "List zones on the network",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			result, err := app.service.Zones(ctx)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}
