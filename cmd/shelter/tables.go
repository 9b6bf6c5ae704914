package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/shelter/pkg/adapters/fs"
)

func newTablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables [pattern]",
		Short: "List tables, optionally filtered by a glob such as 'user*'",
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
			names, err := store.Tables(cmd.Context(), pattern)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newDropCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <table>",
		Short: "Remove a table file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.open()
			if err != nil {
				return err
			}
			ok, err := store.Drop(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("table %s does not exist", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Table %s dropped.\n", args[0])
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export <table>",
		Short: "Write a table as plain json, yaml or csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.open()
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fs.DefaultFileMode)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return store.Export(cmd.Context(), args[0], w, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format ("+strings.Join(fs.Formats(), ", ")+")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <table> [file]",
		Short: "Append records from a json, yaml or csv file (or stdin)",
		Long: `Append records to a table. Imported records get fresh ids; ids in the
input are ignored. The format defaults to the file extension.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 2 && args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
				if format == "" {
					format = strings.TrimPrefix(strings.ToLower(filepath.Ext(args[1])), ".")
				}
			}
			if format == "" {
				format = "json"
			}

			store, err := a.open()
			if err != nil {
				return err
			}
			recs, err := store.ImportFrom(cmd.Context(), args[0], r, format)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records into %s.\n", len(recs), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Input format ("+strings.Join(fs.Formats(), ", ")+")")
	return cmd
}
