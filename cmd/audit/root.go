package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"call-audit-go/internal/ruleset"
	"call-audit-go/internal/store"
)

// commandContext carries the shared flags and lazily opened stores.
type commandContext struct {
	dataDir string
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "audit",
		Short:         "Audit call recordings for compliance, quality and risk",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.dataDir, "data-dir", "", "Data directory for results and rulesets (defaults to $DATA_DIR or .call-audit)")

	rootCmd.AddCommand(newProcessCommand(ctx))
	rootCmd.AddCommand(newRulesetsCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))

	return rootCmd
}

func (c *commandContext) resolveDataDir() string {
	if c.dataDir != "" {
		return c.dataDir
	}
	return envOr("DATA_DIR", ".call-audit")
}

func (c *commandContext) openResultStore() (*store.Store, error) {
	return store.Open(c.resolveDataDir())
}

func (c *commandContext) openRulesetStore() (*ruleset.Store, error) {
	path := envOr("RULESET_PATH", filepath.Join(c.resolveDataDir(), "rulesets.json"))
	return ruleset.NewStore(path)
}
