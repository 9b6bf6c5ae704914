package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCreateCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create <table> [record]",
		Short: "Create a record",
		Long: `Create a record from a JSON or YAML mapping given as argument, with --file,
or on stdin. The store assigns the id; any id in the input is replaced.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) == 2 {
				arg = args[1]
			}
			rec, err := readRecord(cmd.InOrStdin(), arg, file)
			if err != nil {
				return err
			}

			store, err := a.open()
			if err != nil {
				return err
			}
			created, err := store.Create(cmd.Context(), args[0], rec)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the record from a file")
	return cmd
}

func newReadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read <table> <id>",
		Short: "Read a record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			store, err := a.open()
			if err != nil {
				return err
			}
			rec, ok, err := store.Read(cmd.Context(), args[0], id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("record %d not found in %s", id, args[0])
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "list <table>",
		Short: "List every record of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.open()
			if err != nil {
				return err
			}
			if batch <= 0 {
				recs, err := store.ReadAll(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printRecords(cmd.OutOrStdout(), recs)
			}

			batches, err := store.ReadAllBatched(cmd.Context(), args[0], batch)
			if err != nil {
				return err
			}
			for _, b := range batches {
				if err := printRecords(cmd.OutOrStdout(), b); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 0, "Print the table as arrays of at most n records")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update <table> <id> [patch]",
		Short: "Merge fields into a record",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			var arg string
			if len(args) == 3 {
				arg = args[2]
			}
			patch, err := readRecord(cmd.InOrStdin(), arg, file)
			if err != nil {
				return err
			}

			store, err := a.open()
			if err != nil {
				return err
			}
			ok, err := store.Update(cmd.Context(), args[0], id, patch)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("record %d not found in %s", id, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Record %d updated.\n", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the patch from a file")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			store, err := a.open()
			if err != nil {
				return err
			}
			ok, err := store.Delete(cmd.Context(), args[0], id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("record %d not found in %s", id, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Record %d deleted.\n", id)
			return nil
		},
	}
}
