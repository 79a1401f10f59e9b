package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func volumeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vol [zone] <0..100>",
		Short: "Set volume",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			selector := ""
			arg := args[0]
			if len(args) == 2 {
				selector = args[0]
				arg = args[1]
			}

			volume, err := parseVolume(arg)
			if err != nil {
				return err
			}
			return app.service.Volume(ctx, selector, volume)
		},
	}
}

// parseVolume accepts a percentage (0..100) or a fraction (0.0..1.0).
func parseVolume(arg string) (float64, error) {
	arg = strings.TrimSuffix(strings.TrimSpace(arg), "%")
	val, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("volume must be a number: %q", arg)
	}
	if val > 1 {
		val = val / 100
	}
	if val < 0 || val > 1 {
		return 0, fmt.Errorf("volume out of range: %q", arg)
	}
	return val, nil
}
