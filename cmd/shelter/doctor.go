package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/shelter"
)

func newDoctorCmd(a *app) *cobra.Command {
	var repair bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check data directory permissions and that every table decodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			inspect := shelter.InspectPermissions
			if repair {
				inspect = shelter.RepairPermissions
			}
			issues, err := inspect(a.dir())
			if err != nil {
				return err
			}
			for _, issue := range issues {
				if repair {
					fmt.Fprintf(out, "fixed: %s\n", issue)
				} else {
					fmt.Fprintf(out, "permissions: %s\n", issue)
				}
			}

			store, err := a.open()
			if err != nil {
				return err
			}
			names, err := store.Tables(cmd.Context(), "")
			if err != nil {
				return err
			}

			broken := 0
			for _, name := range names {
				if _, err := store.ReadAll(cmd.Context(), name); err != nil {
					broken++
					fmt.Fprintf(out, "table %s: %v\n", name, err)
				}
			}

			if broken > 0 || (len(issues) > 0 && !repair) {
				return fmt.Errorf("%d permission issues, %d unreadable tables", len(issues), broken)
			}
			fmt.Fprintf(out, "%d tables ok (%s mode).\n", len(names), store.Mode())
			return nil
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "Restrict permissions that are too open")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the resolved store configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.open()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), store.State())
		},
	}
}
