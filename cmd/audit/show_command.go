package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <call-id>",
		Short: "Print the stored audit result of one call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := ctx.openResultStore()
			if err != nil {
				return err
			}
			defer results.Close()

			result, err := results.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			doc, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(doc))
			return nil
		},
	}
}
