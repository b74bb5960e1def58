package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newRulesetsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rulesets",
		Short: "Manage risk rulesets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newRulesetsListCommand(ctx))
	cmd.AddCommand(newRulesetsActivateCommand(ctx))
	return cmd
}

func newRulesetsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every stored ruleset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openRulesetStore()
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"ID", "NAME", "VERSION", "SCOPE", "ACTIVE", "KEYWORDS"})
			for _, rs := range store.LoadAll() {
				scope := "global"
				if rs.UserID != "" {
					scope = rs.UserID
				}
				active := ""
				if rs.Active {
					active = "yes"
				}
				tw.AppendRow(table.Row{rs.ID, rs.Name, rs.Version, scope, active, len(rs.Keywords)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			return nil
		},
	}
}

func newRulesetsActivateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <ruleset-id>",
		Short: "Activate a ruleset within its scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openRulesetStore()
			if err != nil {
				return err
			}
			rs, err := store.Activate(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "activated %s (%s) v%d\n", rs.ID, rs.Name, rs.Version)
			return nil
		},
	}
}
