// Package cli holds the argo-connectors commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/deksa89/argo-connectors/internal/config"
	"github.com/deksa89/argo-connectors/internal/logger"
)

// NewRootCmd builds the command tree. Settings come from CONNECTORS_*
// environment variables; --customers overrides the customers file path.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "argo-connectors",
		Short:             "Harvest topology from GOCDB, provider and flat feeds and publish it",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().String("customers", "", "path to customers.yaml (overrides CONNECTORS_CUSTOMERS_FILE)")

	root.AddCommand(newServeCmd(), newRunCmd(), newStatusCmd(), newVersionCmd())
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if path, _ := cmd.Flags().GetString("customers"); path != "" {
		cfg.CustomersFile = path
	}
	return cfg, logger.New(cfg.LogLevel, cfg.PrettyLog), nil
}
