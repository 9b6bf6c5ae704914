package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	shelterlifecycle "github.com/aretw0/shelter/pkg/adapters/lifecycle"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [pattern]",
		Short: "Print table changes until interrupted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			store, err := a.open()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			src := shelterlifecycle.NewSource(store, pattern)
			if err := src.Start(ctx); err != nil {
				return err
			}
			a.logger.Info("watching tables", "dir", store.Path, "pattern", pattern)

			for e := range src.Events() {
				fmt.Fprintln(cmd.OutOrStdout(), e.String())
			}
			return nil
		},
	}
}
