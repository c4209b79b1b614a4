package cli

import (
	"encoding/json"

	"github.com/hupe1980/worldmodel"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config [file]",
		Short: "Print the effective configuration",
		Long: `Load a world model YAML config, apply defaults and print the result.
Without a file the --config flag is used, and without either the defaults
are printed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Config
			if len(args) == 1 {
				path = args[0]
			}

			cfg := worldmodel.DefaultConfig()
			if path != "" {
				loaded, err := worldmodel.LoadConfig(path)
				if err != nil {
					return err
				}
				cfg = *loaded
			}
			if cfg.Params.Storage.SecretKey != "" {
				cfg.Params.Storage.SecretKey = "***"
			}
			verbosef(rootOpts, cmd.ErrOrStderr(), "age to unload: %s", cfg.AgeToUnload())

			if rootOpts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
