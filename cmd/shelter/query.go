package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/shelter/pkg/core"
)

func newWhereCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "where <table> <field=value>...",
		Short: "Records whose fields equal every given value",
		Long: `Values are parsed as JSON when they can be, so age=30 matches the number 30
and active=true the boolean. Quote a value ('name="30"') to match a string.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conds, err := parseConditions(args[1:])
			if err != nil {
				return err
			}
			store, err := a.open()
			if err != nil {
				return err
			}
			recs, err := store.Where(cmd.Context(), args[0], conds)
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), recs)
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <table> <field> <keyword>",
		Short: "Records whose field contains keyword, ignoring case",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.open()
			if err != nil {
				return err
			}
			recs, err := store.Search(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), recs)
		},
	}
}

func newOrderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "order <table> <field> [asc|desc]",
		Short: "Records sorted by a field",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 3 {
				raw = args[2]
			}
			dir, err := core.ParseDirection(raw)
			if err != nil {
				return err
			}
			store, err := a.open()
			if err != nil {
				return err
			}
			recs, err := store.OrderBy(cmd.Context(), args[0], args[1], dir)
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), recs)
		},
	}
}

func newLimitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "limit <table> <count> [offset]",
		Short: "A page of records in storage order",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			offset := 0
			if len(args) == 3 {
				if offset, err = strconv.Atoi(args[2]); err != nil {
					return err
				}
			}
			store, err := a.open()
			if err != nil {
				return err
			}
			recs, err := store.Limit(cmd.Context(), args[0], count, offset)
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), recs)
		},
	}
}
